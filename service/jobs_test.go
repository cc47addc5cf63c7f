package service

import (
	"errors"
	"testing"
	"time"

	"StoryboardStudio-server/export"
	"StoryboardStudio-server/models"
)

func jobTestProject() *models.Project {
	return &models.Project{
		ID:    "proj-1",
		Title: "任务测试项目",
		Panels: []models.Panel{
			{ID: "p1", ProjectId: "proj-1", Order: 0, Title: "one", ShotType: models.ShotTypeWide, CameraAngle: models.CameraAngleEyeLevel, Duration: 3},
			{ID: "p2", ProjectId: "proj-1", Order: 1, Title: "two", ShotType: models.ShotTypeMedium, CameraAngle: models.CameraAngleEyeLevel, Duration: 4},
		},
	}
}

// waitTerminal 轮询任务直到到达终态
func waitTerminal(t *testing.T, jm *JobManager, jobID string) ExportJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := jm.GetJob(jobID)
		if !ok {
			t.Fatalf("任务消失: %s", jobID)
		}
		if Terminal(job.Status) {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("任务 %s 超时未到终态", jobID)
	return ExportJob{}
}

func TestJobManagerRunsExport(t *testing.T) {
	jm := NewJobManager(export.NewExporter(nil), 2)

	job, err := jm.StartExport(jobTestProject(), export.Options{Format: export.FormatJSON})
	if err != nil {
		t.Fatal(err)
	}
	if job.Status != JobStatusPending {
		t.Errorf("新任务状态 = %q", job.Status)
	}

	done := waitTerminal(t, jm, job.ID)
	if done.Status != JobStatusSuccess {
		t.Fatalf("任务应成功, got %q (%s)", done.Status, done.Error)
	}
	if done.Filename == "" || done.MimeType != "application/json" {
		t.Errorf("终态缺少产物信息: %+v", done)
	}

	artifact, ok := jm.Artifact(job.ID)
	if !ok || len(artifact.Data) == 0 {
		t.Error("完成后应能取到产物")
	}
}

func TestJobManagerRejectsBadPreconditions(t *testing.T) {
	jm := NewJobManager(export.NewExporter(nil), 1)

	// 非法格式：同步报错，不产生任务
	var ve *models.ValidationError
	if _, err := jm.StartExport(jobTestProject(), export.Options{Format: "docx"}); !errors.As(err, &ve) {
		t.Errorf("非法格式应返回 ValidationError, got %v", err)
	}

	// nil 项目 / 零面板：同步返回前置条件错误
	var pre *export.PreconditionError
	if _, err := jm.StartExport(nil, export.Options{Format: export.FormatJSON}); !errors.As(err, &pre) {
		t.Errorf("nil 项目应返回 PreconditionError, got %v", err)
	}
	empty := &models.Project{ID: "x", Title: "empty"}
	if _, err := jm.StartExport(empty, export.Options{Format: export.FormatJSON}); !errors.As(err, &pre) {
		t.Errorf("零面板应返回 PreconditionError, got %v", err)
	}
}

func TestJobManagerCancelUnknownJob(t *testing.T) {
	jm := NewJobManager(export.NewExporter(nil), 1)
	if jm.Cancel("nope") {
		t.Error("取消不存在的任务应返回 false")
	}
}

func TestJobManagerGetJobReturnsCopy(t *testing.T) {
	jm := NewJobManager(export.NewExporter(nil), 1)
	job, err := jm.StartExport(jobTestProject(), export.Options{Format: export.FormatJSON})
	if err != nil {
		t.Fatal(err)
	}
	waitTerminal(t, jm, job.ID)

	cp, _ := jm.GetJob(job.ID)
	cp.Status = "tampered"
	again, _ := jm.GetJob(job.ID)
	if again.Status == "tampered" {
		t.Error("GetJob 应返回拷贝")
	}
}
