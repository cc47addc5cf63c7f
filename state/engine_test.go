package state

import (
	"errors"
	"sync"
	"testing"

	"StoryboardStudio-server/models"
)

// fakeStore 测试用的内存持久化实现
type fakeStore struct {
	mu       sync.Mutex
	current  *models.Project
	saved    []*models.Project
	settings models.Settings

	gate chan struct{} // 非 nil 时 SaveProject 等它关闭后才落盘

	loadErr error
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{settings: models.DefaultSettings()}
}

func (f *fakeStore) GetCurrentProject() (*models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.current.Clone(), nil
}

func (f *fakeStore) SaveProject(p *models.Project) error {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, p.Clone())
	return nil
}

func (f *fakeStore) setGate(gate chan struct{}) {
	f.mu.Lock()
	f.gate = gate
	f.mu.Unlock()
}

func (f *fakeStore) SetCurrentProject(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings.CurrentProjectId = id
	return nil
}

func (f *fakeStore) GetSettings() models.Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings
}

func (f *fakeStore) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func (f *fakeStore) lastSaved() *models.Project {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saved) == 0 {
		return nil
	}
	return f.saved[len(f.saved)-1]
}

func (f *fakeStore) allSaved() []*models.Project {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Project, len(f.saved))
	copy(out, f.saved)
	return out
}

func TestEngineInitLoadsExistingProject(t *testing.T) {
	store := newFakeStore()
	store.current = testProject("a", "b")

	e := NewEngine(store)
	e.Init()
	e.Flush()

	st := e.GetState()
	if st.CurrentProject == nil || st.CurrentProject.ID != "proj-1" {
		t.Fatalf("应加载已有项目, got %+v", st.CurrentProject)
	}
	if st.IsLoading {
		t.Error("初始化完成后 IsLoading 应为 false")
	}
	if st.Error != "" {
		t.Errorf("不应有错误, got %q", st.Error)
	}
}

func TestEngineInitSeedsSampleProject(t *testing.T) {
	store := newFakeStore()

	e := NewEngine(store)
	e.Init()
	e.Flush()

	st := e.GetState()
	if st.CurrentProject == nil {
		t.Fatal("首次启动应生成示例项目")
	}
	if len(st.CurrentProject.Panels) == 0 {
		t.Error("示例项目应包含面板")
	}
	if st.IsLoading {
		t.Error("初始化完成后 IsLoading 应为 false")
	}
	if store.settings.CurrentProjectId != st.CurrentProject.ID {
		t.Error("current 指针应指向示例项目")
	}
}

func TestEngineInitLoadFailure(t *testing.T) {
	store := newFakeStore()
	store.loadErr = errors.New("disk on fire")

	e := NewEngine(store)
	e.Init()
	e.Flush()

	st := e.GetState()
	if st.Error == "" {
		t.Error("加载失败应落在 Error 上")
	}
	if st.IsLoading {
		t.Error("失败后也不能停在 loading 状态")
	}
}

func TestEngineDispatchPersistsSnapshot(t *testing.T) {
	store := newFakeStore()
	store.current = testProject("a")

	e := NewEngine(store)
	e.Init()
	e.Flush()
	before := store.savedCount()

	if _, err := e.Dispatch(Action{Type: ActionAddPanel, Panel: &models.Panel{ID: "b"}}); err != nil {
		t.Fatal(err)
	}
	e.Flush()

	if store.savedCount() != before+1 {
		t.Fatalf("追加面板应触发一次保存, got %d -> %d", before, store.savedCount())
	}
	saved := store.lastSaved()
	if len(saved.Panels) != 2 {
		t.Errorf("保存的快照应含 2 个面板, got %d", len(saved.Panels))
	}
}

func TestEngineDispatchValidationKeepsState(t *testing.T) {
	store := newFakeStore()
	store.current = testProject("a")

	e := NewEngine(store)
	e.Init()
	e.Flush()
	before := store.savedCount()

	_, err := e.Dispatch(Action{Type: ActionDeletePanel, PanelID: "ghost"})
	if err == nil {
		t.Fatal("删除不存在的面板应报错")
	}
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("应返回 ValidationError, got %T", err)
	}
	e.Flush()

	if store.savedCount() != before {
		t.Error("失败的动作不应触发保存")
	}
	if len(e.GetState().CurrentProject.Panels) != 1 {
		t.Error("失败的动作不应改变状态")
	}
}

func TestEngineSelectDoesNotPersist(t *testing.T) {
	store := newFakeStore()
	store.current = testProject("a")

	e := NewEngine(store)
	e.Init()
	e.Flush()
	before := store.savedCount()

	if _, err := e.Dispatch(Action{Type: ActionSelectPanel, PanelID: "a"}); err != nil {
		t.Fatal(err)
	}
	e.Flush()

	if store.savedCount() != before {
		t.Error("选择面板不应触发持久化")
	}
}

func TestEngineSaveFailureKeepsMemoryState(t *testing.T) {
	store := newFakeStore()
	store.current = testProject("a")

	e := NewEngine(store)
	e.Init()
	e.Flush()

	store.mu.Lock()
	store.saveErr = errors.New("no space left")
	store.mu.Unlock()

	if _, err := e.Dispatch(Action{Type: ActionAddPanel, Panel: &models.Panel{ID: "b"}}); err != nil {
		t.Fatal("落盘失败不应让 Dispatch 报错")
	}
	e.Flush()

	if len(e.GetState().CurrentProject.Panels) != 2 {
		t.Error("落盘失败时内存里的编辑不能丢")
	}
}

func TestEngineWriteQueueDropsStaleSnapshot(t *testing.T) {
	store := newFakeStore()
	e := NewEngine(store)

	newer := testProject("a", "b")
	older := testProject("a")

	// 锁外入队可能乱序：序号大的快照先到，小的后到
	// 旧快照不能顶掉队列里更新的版本
	e.enqueueSave(newer, 2)
	e.enqueueSave(older, 1)
	e.Flush()

	saved := store.allSaved()
	if len(saved) == 0 {
		t.Fatal("应至少落盘一次")
	}
	for i, p := range saved {
		if len(p.Panels) != 2 {
			t.Fatalf("第 %d 次落盘的是旧快照: %d panels", i+1, len(p.Panels))
		}
	}
}

func TestEngineWriteQueueKeepsNewestUnderSlowStore(t *testing.T) {
	store := newFakeStore()
	store.current = testProject("a")
	e := NewEngine(store)
	e.Init()
	e.Flush()

	// 堵住落盘端，让多次编辑堆积在写队列里
	gate := make(chan struct{})
	store.setGate(gate)

	for _, id := range []string{"b", "c", "d"} {
		if _, err := e.Dispatch(Action{Type: ActionAddPanel, Panel: &models.Panel{ID: id}}); err != nil {
			t.Fatal(err)
		}
	}
	close(gate)
	e.Flush()

	last := store.lastSaved()
	if len(last.Panels) != 4 {
		t.Fatalf("最终落盘的必须是最新快照, got %d panels", len(last.Panels))
	}
	found := map[string]bool{}
	for _, panel := range last.Panels {
		found[panel.ID] = true
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		if !found[id] {
			t.Errorf("最新快照缺少面板 %s", id)
		}
	}
}

func TestEngineSubscribeReceivesSnapshots(t *testing.T) {
	store := newFakeStore()
	store.current = testProject("a")

	e := NewEngine(store)
	var mu sync.Mutex
	var got []*models.Project
	e.Subscribe(func(p *models.Project) {
		mu.Lock()
		got = append(got, p)
		mu.Unlock()
	})

	e.Init()
	e.Flush()
	if _, err := e.Dispatch(Action{Type: ActionAddPanel, Panel: &models.Panel{ID: "b"}}); err != nil {
		t.Fatal(err)
	}
	e.Flush()

	mu.Lock()
	defer mu.Unlock()
	if len(got) < 2 {
		t.Fatalf("监听器应收到 Init 与 AddPanel 的快照, got %d", len(got))
	}
	last := got[len(got)-1]
	if len(last.Panels) != 2 {
		t.Errorf("最后一次快照应含 2 个面板, got %d", len(last.Panels))
	}
}
