package service

import (
	"context"
	"log"
	"sync"
	"time"

	"StoryboardStudio-server/export"
	"StoryboardStudio-server/models"

	"github.com/google/uuid"
)

// 导出任务状态（与项目/面板无关，纯内存记录）
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusSuccess    = "finished"
	JobStatusFailed     = "failed"
	JobStatusCancelled  = "cancelled"
)

// ExportJob 一次导出运行的可观察记录，WebSocket 推送的就是它
type ExportJob struct {
	ID          string    `json:"id"`
	ProjectId   string    `json:"projectId"`
	Format      string    `json:"format"`
	Status      string    `json:"status"`
	Stage       string    `json:"stage,omitempty"`
	Progress    int       `json:"progress"`
	Total       int       `json:"total"`
	CurrentItem string    `json:"currentItem,omitempty"`
	Errors      []string  `json:"errors,omitempty"`
	Error       string    `json:"error,omitempty"`
	Filename    string    `json:"filename,omitempty"`
	MimeType    string    `json:"mimeType,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// JobManager 进程内的导出执行器：
// 有界并发的 worker + 任务表 + 取消注册表
// （taskID -> cancelFunc，外部 API 可随时取消在途导出）
type JobManager struct {
	exporter *export.Exporter
	sem      chan struct{}

	mu        sync.RWMutex
	jobs      map[string]*ExportJob
	artifacts map[string]*export.Artifact

	cancelMu sync.RWMutex
	cancels  map[string]context.CancelFunc
}

func NewJobManager(exporter *export.Exporter, concurrency int) *JobManager {
	if concurrency <= 0 {
		concurrency = 2
	}
	return &JobManager{
		exporter:  exporter,
		sem:       make(chan struct{}, concurrency),
		jobs:      make(map[string]*ExportJob),
		artifacts: make(map[string]*export.Artifact),
		cancels:   make(map[string]context.CancelFunc),
	}
}

// registerCancel 注册在途任务的 cancelFunc（开始执行时调用）
func (jm *JobManager) registerCancel(jobID string, cancel context.CancelFunc) {
	jm.cancelMu.Lock()
	defer jm.cancelMu.Unlock()
	jm.cancels[jobID] = cancel
}

// unregisterCancel 任务结束时注销
func (jm *JobManager) unregisterCancel(jobID string) {
	jm.cancelMu.Lock()
	defer jm.cancelMu.Unlock()
	delete(jm.cancels, jobID)
}

// Cancel 外部调用以取消在途任务，返回是否实际找到并取消
func (jm *JobManager) Cancel(jobID string) bool {
	jm.cancelMu.Lock()
	defer jm.cancelMu.Unlock()
	if cancel, ok := jm.cancels[jobID]; ok {
		cancel()
		delete(jm.cancels, jobID)
		return true
	}
	return false
}

// StartExport 创建并异步执行一次导出
// 选项与前置条件（空项目 / 零面板）在入队前同步校验，
// 失败直接返回错误，不产生任务记录，也不会发出任何进度事件
func (jm *JobManager) StartExport(project *models.Project, opts export.Options) (ExportJob, error) {
	if err := opts.Validate(); err != nil {
		return ExportJob{}, err
	}
	if project == nil {
		return ExportJob{}, &export.PreconditionError{Reason: "no project to export"}
	}
	if len(project.Panels) == 0 {
		return ExportJob{}, &export.PreconditionError{Reason: "project has no panels"}
	}

	now := time.Now()
	job := &ExportJob{
		ID:        uuid.NewString(),
		ProjectId: project.ID,
		Format:    string(opts.Format),
		Status:    JobStatusPending,
		Total:     len(project.Panels),
		CreatedAt: now,
		UpdatedAt: now,
	}

	jm.mu.Lock()
	jm.jobs[job.ID] = job
	jm.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	jm.registerCancel(job.ID, cancel)

	go jm.run(ctx, job.ID, project, opts)

	return *job, nil
}

func (jm *JobManager) run(ctx context.Context, jobID string, project *models.Project, opts export.Options) {
	defer jm.unregisterCancel(jobID)

	// 有界并发：等待空闲 worker；等待期间任务也可以被取消
	select {
	case jm.sem <- struct{}{}:
		defer func() { <-jm.sem }()
	case <-ctx.Done():
		jm.update(jobID, func(j *ExportJob) {
			j.Status = JobStatusCancelled
			j.Error = "cancelled before start"
		})
		return
	}

	log.Printf("Processing Export Job: %s | Format: %s", jobID, opts.Format)
	jm.update(jobID, func(j *ExportJob) { j.Status = JobStatusProcessing })

	artifact, err := jm.exporter.Export(ctx, project, opts, func(p export.Progress) {
		jm.update(jobID, func(j *ExportJob) {
			j.Stage = p.Stage
			j.Progress = p.Progress
			j.Total = p.Total
			j.CurrentItem = p.CurrentItem
			j.Errors = p.Errors
		})
	})

	if err != nil {
		status := JobStatusFailed
		if ctx.Err() != nil {
			status = JobStatusCancelled
		}
		log.Printf("导出任务 %s 失败: %v", jobID, err)
		jm.update(jobID, func(j *ExportJob) {
			j.Status = status
			j.Error = err.Error()
		})
		return
	}

	jm.mu.Lock()
	jm.artifacts[jobID] = artifact
	jm.mu.Unlock()

	jm.update(jobID, func(j *ExportJob) {
		j.Status = JobStatusSuccess
		j.Filename = artifact.Filename
		j.MimeType = artifact.MimeType
		j.Errors = artifact.Errors
		j.Progress = j.Total
	})
	log.Printf("Export Job %s completed: %s (%d bytes, %d errors)",
		jobID, artifact.Filename, len(artifact.Data), len(artifact.Errors))
}

func (jm *JobManager) update(jobID string, fn func(*ExportJob)) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	if job, ok := jm.jobs[jobID]; ok {
		fn(job)
		job.UpdatedAt = time.Now()
	}
}

// GetJob 返回任务记录的拷贝
func (jm *JobManager) GetJob(jobID string) (ExportJob, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	job, ok := jm.jobs[jobID]
	if !ok {
		return ExportJob{}, false
	}
	cp := *job
	if job.Errors != nil {
		cp.Errors = append([]string(nil), job.Errors...)
	}
	return cp, true
}

// Artifact 任务完成后取产物（下载接口用）
func (jm *JobManager) Artifact(jobID string) (*export.Artifact, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	artifact, ok := jm.artifacts[jobID]
	return artifact, ok
}

// Terminal 任务是否已到终态
func Terminal(status string) bool {
	return status == JobStatusSuccess || status == JobStatusFailed || status == JobStatusCancelled
}
