package state

import (
	"StoryboardStudio-server/models"
)

// ActionType 状态机支持的全部动作
type ActionType string

const (
	ActionSetProject    ActionType = "SET_PROJECT"
	ActionAddPanel      ActionType = "ADD_PANEL"
	ActionUpdatePanel   ActionType = "UPDATE_PANEL"
	ActionDeletePanel   ActionType = "DELETE_PANEL"
	ActionReorderPanels ActionType = "REORDER_PANELS"
	ActionSelectPanel   ActionType = "SELECT_PANEL"
	ActionSetPanels     ActionType = "SET_PANELS"
	ActionSetLoading    ActionType = "SET_LOADING"
	ActionSetError      ActionType = "SET_ERROR"
)

// Action 动作载荷，不同类型只使用各自需要的字段
type Action struct {
	Type      ActionType
	Project   *models.Project
	Panel     *models.Panel
	PanelID   string
	Patch     *models.PanelPatch
	Panels    []models.Panel
	FromIndex int
	ToIndex   int
	Loading   bool
	Err       string
}

// State 进程内唯一的应用状态
// Panels 是 CurrentProject.Panels 的去规范化镜像，
// 任何一次归约完成后两者必须结构相等（镜像不变式）
type State struct {
	CurrentProject *models.Project
	Panels         []models.Panel
	SelectedPanel  string
	IsLoading      bool
	Error          string
}

// Clone 深拷贝，调用方拿到的状态永远与引擎内部隔离
func (s State) Clone() State {
	cp := s
	cp.CurrentProject = s.CurrentProject.Clone()
	cp.Panels = models.ClonePanels(s.Panels)
	return cp
}

// persistentActions 归约之后需要触发持久化的动作
var persistentActions = map[ActionType]bool{
	ActionSetProject:    true,
	ActionAddPanel:      true,
	ActionUpdatePanel:   true,
	ActionDeletePanel:   true,
	ActionReorderPanels: true,
	ActionSetPanels:     true,
}

// Persists 该动作是否触发持久化
func (t ActionType) Persists() bool {
	return persistentActions[t]
}
