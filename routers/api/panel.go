package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"StoryboardStudio-server/models"
	"StoryboardStudio-server/state"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// 获取应用状态（当前项目 + 面板镜像 + 选中项）
func (a *API) GetState(c *gin.Context) {
	st := a.Engine.GetState()
	c.JSON(http.StatusOK, gin.H{
		"currentProject": st.CurrentProject,
		"panels":         st.Panels,
		"selectedPanel":  st.SelectedPanel,
		"isLoading":      st.IsLoading,
		"error":          st.Error,
	})
}

// 新增面板：追加到当前项目末尾
func (a *API) AddPanel(c *gin.Context) {
	var req struct {
		Title             string `json:"title"`
		Description       string `json:"description"`
		ShotType          string `json:"shotType"`
		CameraAngle       string `json:"cameraAngle"`
		Duration          int    `json:"duration"`
		Notes             string `json:"notes"`
		ImageUrl          string `json:"imageUrl"`
		VideoUrl          string `json:"videoUrl"`
		AiGeneratedPrompt string `json:"aiGeneratedPrompt"`
		VideoPrompt       string `json:"videoPrompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 默认值
	if req.ShotType == "" {
		req.ShotType = models.ShotTypeMedium
	}
	if req.CameraAngle == "" {
		req.CameraAngle = models.CameraAngleEyeLevel
	}
	if req.Duration <= 0 {
		req.Duration = 3
	}
	if !models.IsValidShotType(req.ShotType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的景别: " + req.ShotType})
		return
	}
	if !models.IsValidCameraAngle(req.CameraAngle) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的机位角度: " + req.CameraAngle})
		return
	}

	now := time.Now()
	panel := models.Panel{
		ID:                uuid.NewString(),
		Title:             req.Title,
		Description:       req.Description,
		ShotType:          req.ShotType,
		CameraAngle:       req.CameraAngle,
		Duration:          req.Duration,
		Notes:             req.Notes,
		ImageUrl:          req.ImageUrl,
		VideoUrl:          req.VideoUrl,
		AiGeneratedPrompt: req.AiGeneratedPrompt,
		VideoPrompt:       req.VideoPrompt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	st, err := a.Engine.Dispatch(state.Action{Type: state.ActionAddPanel, Panel: &panel})
	if err != nil {
		respondActionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"panel":  panel,
		"panels": st.Panels,
	})
}

// 更新面板（部分字段合并）
func (a *API) UpdatePanel(c *gin.Context) {
	panelID := c.Param("panel_id")

	var patch models.PanelPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := a.Engine.Dispatch(state.Action{
		Type:    state.ActionUpdatePanel,
		PanelID: panelID,
		Patch:   &patch,
	})
	if err != nil {
		respondActionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"panels": st.Panels})
}

// 删除面板
func (a *API) DeletePanel(c *gin.Context) {
	panelID := c.Param("panel_id")

	st, err := a.Engine.Dispatch(state.Action{Type: state.ActionDeletePanel, PanelID: panelID})
	if err != nil {
		respondActionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "面板已删除",
		"panel_id":      panelID,
		"panels":        st.Panels,
		"selectedPanel": st.SelectedPanel,
	})
}

// 面板重排：from 位置的面板移动到 to 位置，其余顺移
func (a *API) ReorderPanels(c *gin.Context) {
	var req struct {
		FromIndex int `json:"fromIndex"`
		ToIndex   int `json:"toIndex"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := a.Engine.Dispatch(state.Action{
		Type:      state.ActionReorderPanels,
		FromIndex: req.FromIndex,
		ToIndex:   req.ToIndex,
	})
	if err != nil {
		respondActionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"panels": st.Panels})
}

// 选中面板（panelId 为空表示清除选择，不触发持久化）
func (a *API) SelectPanel(c *gin.Context) {
	var req struct {
		PanelID string `json:"panelId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := a.Engine.Dispatch(state.Action{Type: state.ActionSelectPanel, PanelID: req.PanelID})
	if err != nil {
		respondActionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"selectedPanel": st.SelectedPanel})
}

// 整体替换面板列表（批量导入用）
func (a *API) SetPanels(c *gin.Context) {
	var req struct {
		Panels []models.Panel `json:"panels"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	for i := range req.Panels {
		if req.Panels[i].ID == "" {
			req.Panels[i].ID = uuid.NewString()
		}
		if req.Panels[i].CreatedAt.IsZero() {
			req.Panels[i].CreatedAt = now
		}
		req.Panels[i].UpdatedAt = now
	}

	st, err := a.Engine.Dispatch(state.Action{Type: state.ActionSetPanels, Panels: req.Panels})
	if err != nil {
		respondActionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"panels": st.Panels})
}

// respondActionError 校验错误映射为 HTTP 状态码
func respondActionError(c *gin.Context, err error) {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		if strings.Contains(ve.Reason, "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": ve.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
