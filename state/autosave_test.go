package state

import (
	"testing"
	"time"
)

func TestAutosaveDebounceCoalesces(t *testing.T) {
	store := newFakeStore()
	a := NewAutosave(store, 50*time.Millisecond)
	defer a.Close()

	// 窗口内连续三次变更：只有最后一个快照落盘
	p1 := testProject("a")
	p2 := testProject("a", "b")
	p3 := testProject("a", "b", "c")
	a.Notify(p1)
	time.Sleep(10 * time.Millisecond)
	a.Notify(p2)
	time.Sleep(10 * time.Millisecond)
	a.Notify(p3)

	time.Sleep(150 * time.Millisecond)

	if n := store.savedCount(); n != 1 {
		t.Fatalf("防抖窗口内的多次变更应合并为一次保存, got %d", n)
	}
	if len(store.lastSaved().Panels) != 3 {
		t.Errorf("应保存最后一个快照, got %d panels", len(store.lastSaved().Panels))
	}
}

func TestAutosaveSeparateWindows(t *testing.T) {
	store := newFakeStore()
	a := NewAutosave(store, 20*time.Millisecond)
	defer a.Close()

	a.Notify(testProject("a"))
	time.Sleep(80 * time.Millisecond)
	a.Notify(testProject("a", "b"))
	time.Sleep(80 * time.Millisecond)

	if n := store.savedCount(); n != 2 {
		t.Fatalf("两个独立窗口应各保存一次, got %d", n)
	}
}

func TestAutosaveDisabledBySetting(t *testing.T) {
	store := newFakeStore()
	store.settings.AutoSave = false
	a := NewAutosave(store, 10*time.Millisecond)
	defer a.Close()

	a.Notify(testProject("a"))
	time.Sleep(60 * time.Millisecond)

	if n := store.savedCount(); n != 0 {
		t.Fatalf("autoSave 关闭时不应有任何写入, got %d", n)
	}
}

func TestAutosaveIgnoresNilProject(t *testing.T) {
	store := newFakeStore()
	a := NewAutosave(store, 10*time.Millisecond)
	defer a.Close()

	a.Notify(nil)
	time.Sleep(60 * time.Millisecond)

	if n := store.savedCount(); n != 0 {
		t.Fatalf("nil 项目不应触发保存, got %d", n)
	}
}

func TestAutosaveCloseDropsPending(t *testing.T) {
	store := newFakeStore()
	a := NewAutosave(store, 30*time.Millisecond)

	a.Notify(testProject("a"))
	a.Close()
	time.Sleep(80 * time.Millisecond)

	if n := store.savedCount(); n != 0 {
		t.Fatalf("Close 后未落盘的快照应被丢弃, got %d", n)
	}
}
