package state

import (
	"log"
	"sync"
	"time"

	"StoryboardStudio-server/models"

	"github.com/google/uuid"
)

// ProjectStore 引擎消费的持久化契约（由 models.Store 实现，测试里用内存假实现）
type ProjectStore interface {
	GetCurrentProject() (*models.Project, error)
	SaveProject(*models.Project) error
	SetCurrentProject(id string) error
	GetSettings() models.Settings
}

// Engine 状态引擎：唯一持有并修改 State 的组件
// 动作严格按 Dispatch 顺序归约（内部互斥锁串行化），
// 持久化作为归约后的副作用走每项目一个的合并写队列，
// 慢盘 I/O 不会乱序覆盖更新的快照
type Engine struct {
	store ProjectStore
	now   func() time.Time

	mu    sync.Mutex
	state State
	seq   uint64

	writersMu sync.Mutex
	writers   map[string]*projectWriter
	wg        sync.WaitGroup

	listenersMu sync.Mutex
	listeners   []func(*models.Project)
}

// projectWriter 单个项目 id 的写队列：始终只保留最新快照，
// 一个在途 goroutine 顺序落盘，晚到的快照直接顶掉未写的旧快照
// seq 是已接受快照的最大归约序号，序号更小的入队请求直接丢弃，
// 锁外入队的乱序不会让旧快照顶掉新快照
type projectWriter struct {
	mu      sync.Mutex
	pending *models.Project
	seq     uint64
	running bool
}

func NewEngine(store ProjectStore) *Engine {
	return &Engine{
		store:   store,
		now:     time.Now,
		state:   State{IsLoading: true},
		writers: make(map[string]*projectWriter),
	}
}

// Subscribe 注册归约后事件监听（自动保存协调器用），
// 回调收到的是持久化相关动作之后的项目快照
func (e *Engine) Subscribe(fn func(*models.Project)) {
	e.listenersMu.Lock()
	defer e.listenersMu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// GetState 返回当前状态的深拷贝
func (e *Engine) GetState() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Dispatch 归约一个动作；校验失败时状态保持不变并返回错误
// 持久化相关的动作成功后，项目快照进入写队列（fire-and-forget），
// 写失败只记日志，内存状态里用户的编辑不会丢
func (e *Engine) Dispatch(action Action) (State, error) {
	e.mu.Lock()
	next, err := Reduce(e.state, action, e.now())
	if err != nil {
		snapshot := e.state.Clone()
		e.mu.Unlock()
		return snapshot, err
	}
	e.state = next
	var persistSnapshot *models.Project
	var persistSeq uint64
	if action.Type.Persists() && next.CurrentProject != nil {
		persistSnapshot = next.CurrentProject.Clone()
		// 序号在锁内分配，归约顺序即序号顺序
		e.seq++
		persistSeq = e.seq
	}
	result := next.Clone()
	e.mu.Unlock()

	if persistSnapshot != nil {
		e.enqueueSave(persistSnapshot, persistSeq)
		e.notify(persistSnapshot)
	}
	if action.Type == ActionSetProject && action.Project != nil {
		// 激活项目时同步 current 指针；失败不影响内存状态
		if err := e.store.SetCurrentProject(action.Project.ID); err != nil {
			log.Printf("更新 current 指针失败: %v", err)
		}
	}
	return result, nil
}

// Init 启动协议：读取最近项目；没有则生成示例项目并落盘
// 任何一步失败都以 SET_ERROR 收尾，绝不让界面停在永久 loading
func (e *Engine) Init() {
	project, err := e.store.GetCurrentProject()
	if err != nil {
		log.Printf("加载当前项目失败: %v", err)
		e.Dispatch(Action{Type: ActionSetError, Err: "加载项目失败: " + err.Error()})
		e.Dispatch(Action{Type: ActionSetLoading, Loading: false})
		return
	}

	if project == nil {
		// 首次启动：生成示例项目
		project = SeedSampleProject(e.now())
		if err := e.store.SaveProject(project); err != nil {
			log.Printf("写入示例项目失败: %v", err)
			e.Dispatch(Action{Type: ActionSetError, Err: "初始化示例项目失败: " + err.Error()})
			e.Dispatch(Action{Type: ActionSetLoading, Loading: false})
			return
		}
		log.Printf("已生成示例项目 %s", project.ID)
	}

	e.Dispatch(Action{Type: ActionSetProject, Project: project})
	e.Dispatch(Action{Type: ActionSetLoading, Loading: false})
}

// Flush 等待所有在途的持久化写完成（测试与优雅退出用）
func (e *Engine) Flush() {
	e.wg.Wait()
}

func (e *Engine) enqueueSave(p *models.Project, seq uint64) {
	e.writersMu.Lock()
	w, ok := e.writers[p.ID]
	if !ok {
		w = &projectWriter{}
		e.writers[p.ID] = w
	}
	e.writersMu.Unlock()

	w.mu.Lock()
	if seq < w.seq {
		// 迟到的旧快照，队列里已有更新的版本
		w.mu.Unlock()
		return
	}
	w.seq = seq
	w.pending = p
	if !w.running {
		w.running = true
		e.wg.Add(1)
		go e.drainWriter(w)
	}
	w.mu.Unlock()
}

func (e *Engine) drainWriter(w *projectWriter) {
	defer e.wg.Done()
	for {
		w.mu.Lock()
		p := w.pending
		w.pending = nil
		if p == nil {
			w.running = false
			w.mu.Unlock()
			return
		}
		w.mu.Unlock()

		if err := e.store.SaveProject(p); err != nil {
			log.Printf("保存项目 %s 失败: %v", p.ID, err)
		}
	}
}

func (e *Engine) notify(p *models.Project) {
	e.listenersMu.Lock()
	listeners := make([]func(*models.Project), len(e.listeners))
	copy(listeners, e.listeners)
	e.listenersMu.Unlock()
	for _, fn := range listeners {
		fn(p)
	}
}

// SeedSampleProject 首次启动引导用的示例项目
func SeedSampleProject(now time.Time) *models.Project {
	projectID := uuid.NewString()
	panels := []models.Panel{
		{
			ID:          uuid.NewString(),
			ProjectId:   projectID,
			Order:       0,
			Title:       "开场",
			Description: "清晨的城市天际线，镜头缓慢推进",
			ShotType:    models.ShotTypeEstablishingShot,
			CameraAngle: models.CameraAngleHigh,
			Duration:    5,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          uuid.NewString(),
			ProjectId:   projectID,
			Order:       1,
			Title:       "主角登场",
			Description: "主角走出地铁站，人流中回头",
			ShotType:    models.ShotTypeMedium,
			CameraAngle: models.CameraAngleEyeLevel,
			Duration:    4,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		{
			ID:          uuid.NewString(),
			ProjectId:   projectID,
			Order:       2,
			Title:       "特写",
			Description: "主角的眼睛，映出远处的霓虹",
			ShotType:    models.ShotTypeCloseUp,
			CameraAngle: models.CameraAngleEyeLevel,
			Duration:    3,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
	return &models.Project{
		ID:          projectID,
		Title:       "示例项目",
		Description: "一个演示分镜工具用法的示例故事板",
		Panels:      panels,
		VideoStyle: models.VideoStyle{
			Mood:   "calm",
			Pacing: "slow",
		},
		CreatedAt:  now,
		UpdatedAt:  now,
		LastOpened: now,
	}
}
