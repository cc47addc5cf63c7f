package state

import (
	"log"
	"sync"
	"time"

	"StoryboardStudio-server/models"
)

// Autosave 自动保存协调器：防抖（debounce）而不是节流
// 每次变更都取消并重置计时器，静默满 interval 才落盘一次，
// 中间的快照全部被最后一次顶掉；autoSave 设置关闭或没有
// 当前项目时不产生任何写入
type Autosave struct {
	store    ProjectStore
	interval time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending *models.Project
	closed  bool
}

// NewAutosave interval <= 0 时使用默认 1000ms
func NewAutosave(store ProjectStore, interval time.Duration) *Autosave {
	if interval <= 0 {
		interval = time.Second
	}
	return &Autosave{store: store, interval: interval}
}

// Notify 项目发生变更；快照进入防抖窗口
// 同一项目的计时器永远只有一个：旧的被取消，新的重新计时
func (a *Autosave) Notify(p *models.Project) {
	if p == nil {
		return
	}
	if !a.store.GetSettings().AutoSave {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.pending = p
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.interval, a.flush)
}

func (a *Autosave) flush() {
	a.mu.Lock()
	p := a.pending
	a.pending = nil
	a.timer = nil
	a.mu.Unlock()

	if p == nil {
		return
	}
	if err := a.store.SaveProject(p); err != nil {
		log.Printf("自动保存项目 %s 失败: %v", p.ID, err)
		return
	}
	log.Printf("自动保存完成: %s", p.ID)
}

// Close 停止计时器并丢弃未落盘的快照
func (a *Autosave) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.pending = nil
}
