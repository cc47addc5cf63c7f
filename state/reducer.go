package state

import (
	"fmt"
	"time"

	"StoryboardStudio-server/models"
)

// Reduce 纯转移函数：reduce(state, action) -> state'
// 输入状态不会被修改；校验失败时返回原状态和 *models.ValidationError，
// 成功路径保证两条不变式：
//  1. 排序：panels[i].Order == i
//  2. 镜像：state.Panels 与 state.CurrentProject.Panels 结构相等
//
// now 由调用方注入，便于测试得到确定的时间戳
func Reduce(st State, action Action, now time.Time) (State, error) {
	switch action.Type {

	case ActionSetProject:
		next := st
		next.CurrentProject = action.Project.Clone()
		if next.CurrentProject != nil {
			next.CurrentProject.NormalizeOrder()
			next.Panels = models.ClonePanels(next.CurrentProject.Panels)
		} else {
			next.Panels = nil
		}
		next.SelectedPanel = ""
		return next, nil

	case ActionAddPanel:
		if action.Panel == nil || action.Panel.ID == "" {
			return st, &models.ValidationError{Reason: "panel id is required"}
		}
		if st.CurrentProject == nil {
			return st, &models.ValidationError{Reason: "no current project"}
		}
		for _, p := range st.CurrentProject.Panels {
			if p.ID == action.Panel.ID {
				return st, &models.ValidationError{Reason: "duplicate panel id: " + p.ID}
			}
		}
		next := st.Clone()
		panel := *action.Panel
		panel.ProjectId = next.CurrentProject.ID
		if panel.CreatedAt.IsZero() {
			panel.CreatedAt = now
		}
		panel.UpdatedAt = now
		next.CurrentProject.Panels = append(next.CurrentProject.Panels, panel)
		next.CurrentProject.NormalizeOrder()
		next.CurrentProject.UpdatedAt = now
		next.Panels = models.ClonePanels(next.CurrentProject.Panels)
		return next, nil

	case ActionUpdatePanel:
		if st.CurrentProject == nil {
			return st, &models.ValidationError{Reason: "no current project"}
		}
		if action.Patch == nil {
			return st, &models.ValidationError{Reason: "empty panel patch"}
		}
		if err := action.Patch.Validate(); err != nil {
			return st, err
		}
		idx := indexOfPanel(st.CurrentProject.Panels, action.PanelID)
		if idx < 0 {
			return st, &models.ValidationError{Reason: "panel not found: " + action.PanelID}
		}
		next := st.Clone()
		panel := &next.CurrentProject.Panels[idx]
		if action.Patch.Apply(panel) {
			panel.UpdatedAt = now
			next.CurrentProject.UpdatedAt = now
		}
		next.Panels = models.ClonePanels(next.CurrentProject.Panels)
		return next, nil

	case ActionDeletePanel:
		if st.CurrentProject == nil {
			return st, &models.ValidationError{Reason: "no current project"}
		}
		idx := indexOfPanel(st.CurrentProject.Panels, action.PanelID)
		if idx < 0 {
			return st, &models.ValidationError{Reason: "panel not found: " + action.PanelID}
		}
		next := st.Clone()
		panels := next.CurrentProject.Panels
		next.CurrentProject.Panels = append(panels[:idx], panels[idx+1:]...)
		next.CurrentProject.NormalizeOrder()
		next.CurrentProject.UpdatedAt = now
		next.Panels = models.ClonePanels(next.CurrentProject.Panels)
		// 被删除的面板若正被选中，必须同步清空选择
		if next.SelectedPanel == action.PanelID {
			next.SelectedPanel = ""
		}
		return next, nil

	case ActionReorderPanels:
		if st.CurrentProject == nil {
			return st, &models.ValidationError{Reason: "no current project"}
		}
		n := len(st.CurrentProject.Panels)
		if action.FromIndex < 0 || action.FromIndex >= n ||
			action.ToIndex < 0 || action.ToIndex >= n {
			return st, &models.ValidationError{
				Reason: fmt.Sprintf("reorder index out of range: from=%d to=%d len=%d",
					action.FromIndex, action.ToIndex, n),
			}
		}
		next := st.Clone()
		panels := next.CurrentProject.Panels
		moved := panels[action.FromIndex]
		panels = append(panels[:action.FromIndex], panels[action.FromIndex+1:]...)
		rest := make([]models.Panel, 0, n)
		rest = append(rest, panels[:action.ToIndex]...)
		rest = append(rest, moved)
		rest = append(rest, panels[action.ToIndex:]...)
		next.CurrentProject.Panels = rest
		next.CurrentProject.NormalizeOrder()
		next.CurrentProject.UpdatedAt = now
		next.Panels = models.ClonePanels(next.CurrentProject.Panels)
		return next, nil

	case ActionSelectPanel:
		if action.PanelID != "" && indexOfPanel(st.Panels, action.PanelID) < 0 {
			return st, &models.ValidationError{Reason: "panel not found: " + action.PanelID}
		}
		next := st
		next.SelectedPanel = action.PanelID
		return next, nil

	case ActionSetPanels:
		if st.CurrentProject == nil {
			return st, &models.ValidationError{Reason: "no current project"}
		}
		next := st.Clone()
		next.CurrentProject.Panels = models.ClonePanels(action.Panels)
		for i := range next.CurrentProject.Panels {
			next.CurrentProject.Panels[i].ProjectId = next.CurrentProject.ID
		}
		next.CurrentProject.NormalizeOrder()
		next.CurrentProject.UpdatedAt = now
		next.Panels = models.ClonePanels(next.CurrentProject.Panels)
		if next.SelectedPanel != "" && indexOfPanel(next.Panels, next.SelectedPanel) < 0 {
			next.SelectedPanel = ""
		}
		return next, nil

	case ActionSetLoading:
		next := st
		next.IsLoading = action.Loading
		return next, nil

	case ActionSetError:
		next := st
		next.Error = action.Err
		return next, nil

	default:
		return st, &models.ValidationError{Reason: "unknown action type: " + string(action.Type)}
	}
}

func indexOfPanel(panels []models.Panel, id string) int {
	for i, p := range panels {
		if p.ID == id {
			return i
		}
	}
	return -1
}
