package models

import (
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := InitDB(t.TempDir())
	if err != nil {
		t.Fatalf("初始化测试数据库失败: %v", err)
	}
	return NewStore(db)
}

func storeTestProject(id string, panelIDs ...string) *Project {
	now := time.Now().Truncate(time.Millisecond)
	panels := make([]Panel, len(panelIDs))
	for i, pid := range panelIDs {
		panels[i] = Panel{
			ID:          pid,
			ProjectId:   id,
			Order:       i,
			Title:       "panel " + pid,
			ShotType:    ShotTypeMedium,
			CameraAngle: CameraAngleEyeLevel,
			Duration:    3,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}
	return &Project{
		ID:        id,
		Title:     "项目 " + id,
		Panels:    panels,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestStoreSaveAndGetProject(t *testing.T) {
	s := newTestStore(t)
	p := storeTestProject("p1", "a", "b", "c")

	if err := s.SaveProject(p); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetProject("p1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != p.Title {
		t.Errorf("Title = %q", got.Title)
	}
	if len(got.Panels) != 3 {
		t.Fatalf("want 3 panels, got %d", len(got.Panels))
	}
	for i, panel := range got.Panels {
		if panel.Order != i {
			t.Errorf("panels[%d].Order = %d", i, panel.Order)
		}
	}

	// 缺 id 拒绝
	if err := s.SaveProject(&Project{}); err == nil {
		t.Error("缺 id 应报错")
	}
	if err := s.SaveProject(nil); err == nil {
		t.Error("nil 项目应报错")
	}
}

func TestStoreSaveProjectUpsert(t *testing.T) {
	s := newTestStore(t)
	p := storeTestProject("p1", "a", "b")
	if err := s.SaveProject(p); err != nil {
		t.Fatal(err)
	}

	// 同 id 再保存是替换，面板集合整体换掉
	p2 := storeTestProject("p1", "x")
	p2.Title = "改名"
	p2.UpdatedAt = p.UpdatedAt.Add(time.Second)
	if err := s.SaveProject(p2); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetProject("p1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "改名" {
		t.Errorf("Title = %q", got.Title)
	}
	if len(got.Panels) != 1 || got.Panels[0].ID != "x" {
		t.Errorf("面板集合应整体替换: %+v", got.Panels)
	}

	// 重复保存同一快照幂等
	if err := s.SaveProject(p2); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetProject("p1")
	if len(got.Panels) != 1 {
		t.Errorf("重复保存后面板数应不变, got %d", len(got.Panels))
	}
}

func TestStoreSaveProjectLastWriteWins(t *testing.T) {
	s := newTestStore(t)

	newer := storeTestProject("p1", "a", "b")
	newer.Title = "新版本"
	newer.UpdatedAt = time.Now().Add(time.Hour)
	if err := s.SaveProject(newer); err != nil {
		t.Fatal(err)
	}

	// 迟到的旧快照被静默丢弃
	stale := storeTestProject("p1", "old")
	stale.Title = "旧版本"
	stale.UpdatedAt = time.Now().Add(-time.Hour)
	if err := s.SaveProject(stale); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetProject("p1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "新版本" {
		t.Errorf("旧快照不应覆盖新数据, Title = %q", got.Title)
	}
	if len(got.Panels) != 2 {
		t.Errorf("面板应保持新版本的 2 个, got %d", len(got.Panels))
	}
}

func TestStoreDeleteProjectIdempotent(t *testing.T) {
	s := newTestStore(t)
	p := storeTestProject("p1", "a")
	if err := s.SaveProject(p); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteProject("p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetProject("p1"); err == nil {
		t.Error("删除后读取应报错")
	}

	// 再删一次不算错误
	if err := s.DeleteProject("p1"); err != nil {
		t.Errorf("重复删除应幂等: %v", err)
	}
	if err := s.DeleteProject("never-existed"); err != nil {
		t.Errorf("删除不存在的 id 应幂等: %v", err)
	}
}

func TestStoreCurrentProjectPointer(t *testing.T) {
	s := newTestStore(t)

	// 没有指针时返回 (nil, nil)
	cur, err := s.GetCurrentProject()
	if err != nil || cur != nil {
		t.Fatalf("want (nil, nil), got (%v, %v)", cur, err)
	}

	p := storeTestProject("p1", "a")
	if err := s.SaveProject(p); err != nil {
		t.Fatal(err)
	}
	if err := s.SetCurrentProject("p1"); err != nil {
		t.Fatal(err)
	}

	cur, err = s.GetCurrentProject()
	if err != nil {
		t.Fatal(err)
	}
	if cur == nil || cur.ID != "p1" {
		t.Fatalf("当前项目 = %+v", cur)
	}
	if cur.LastOpened.IsZero() {
		t.Error("打开项目应刷新 last_opened")
	}

	// 删除当前项目后指针被清空，悬空不会泄漏
	if err := s.DeleteProject("p1"); err != nil {
		t.Fatal(err)
	}
	cur, err = s.GetCurrentProject()
	if err != nil || cur != nil {
		t.Fatalf("删除后 want (nil, nil), got (%v, %v)", cur, err)
	}
	if s.GetSettings().CurrentProjectId != "" {
		t.Error("删除当前项目应清空 current_project_id")
	}
}

func TestStoreSettingsDefaultsAndMerge(t *testing.T) {
	s := newTestStore(t)

	settings := s.GetSettings()
	if !settings.AutoSave {
		t.Error("默认 autoSave 应为 true")
	}
	if settings.DefaultExportFormat != "json" {
		t.Errorf("默认导出格式 = %q", settings.DefaultExportFormat)
	}

	// 部分更新合并，未出现的字段保持原值
	off := false
	quality := "high"
	updated, err := s.SaveSettings(&SettingsPatch{AutoSave: &off, DefaultQuality: &quality})
	if err != nil {
		t.Fatal(err)
	}
	if updated.AutoSave {
		t.Error("autoSave 应已关闭")
	}
	if updated.DefaultQuality != "high" {
		t.Errorf("DefaultQuality = %q", updated.DefaultQuality)
	}
	if updated.DefaultExportFormat != "json" {
		t.Errorf("未更新的字段应保持原值, got %q", updated.DefaultExportFormat)
	}

	// 空补丁是 no-op
	again, err := s.SaveSettings(&SettingsPatch{})
	if err != nil {
		t.Fatal(err)
	}
	if again.AutoSave != updated.AutoSave || again.DefaultQuality != updated.DefaultQuality {
		t.Error("空补丁不应改变设置")
	}
}

func TestStoreGetAllProjectsOrdering(t *testing.T) {
	s := newTestStore(t)

	older := storeTestProject("p1", "a")
	older.UpdatedAt = time.Now().Add(-time.Hour)
	newer := storeTestProject("p2", "b")
	newer.UpdatedAt = time.Now()
	if err := s.SaveProject(older); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveProject(newer); err != nil {
		t.Fatal(err)
	}

	projects := s.GetAllProjects()
	if len(projects) != 2 {
		t.Fatalf("want 2 projects, got %d", len(projects))
	}
	if projects[0].ID != "p2" {
		t.Errorf("应按最近更新排序, 第一个 = %s", projects[0].ID)
	}
	if len(projects[0].Panels) != 1 {
		t.Errorf("列表应预载面板, got %d", len(projects[0].Panels))
	}
}
