package api

import (
	"log"
	"net/http"
	"time"

	"StoryboardStudio-server/export"
	"StoryboardStudio-server/models"
	"StoryboardStudio-server/state"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// 获取项目列表
func (a *API) ListProjects(c *gin.Context) {
	projects := a.Store.GetAllProjects()
	c.JSON(http.StatusOK, gin.H{
		"projects": projects,
		"total":    len(projects),
	})
}

// 创建项目：分配 id、落盘并激活为当前项目
func (a *API) CreateProject(c *gin.Context) {
	var req struct {
		Title       string            `json:"title"`
		Description string            `json:"description"`
		VideoStyle  models.VideoStyle `json:"videoStyle"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Title == "" {
		req.Title = "未命名项目"
	}

	now := time.Now()
	project := models.Project{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Panels:      []models.Panel{},
		VideoStyle:  req.VideoStyle,
		CreatedAt:   now,
		UpdatedAt:   now,
		LastOpened:  now,
	}

	// 1) 先落盘
	if err := a.Store.SaveProject(&project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建项目失败: " + err.Error()})
		return
	}

	// 2) 激活为当前项目
	if _, err := a.Engine.Dispatch(state.Action{Type: state.ActionSetProject, Project: &project}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "激活项目失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project})
}

// 获取项目详情
func (a *API) GetProject(c *gin.Context) {
	projectID := c.Param("project_id")

	project, err := a.Store.GetProject(projectID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "项目未找到: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

// 更新项目元数据（标题 / 描述 / 导演备注 / 风格）
func (a *API) UpdateProject(c *gin.Context) {
	projectID := c.Param("project_id")

	var req struct {
		Title         *string            `json:"title"`
		Description   *string            `json:"description"`
		DirectorNotes *string            `json:"directorNotes"`
		VideoStyle    *models.VideoStyle `json:"videoStyle"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := a.Store.GetProject(projectID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "项目未找到: " + err.Error()})
		return
	}

	// 只更新请求里出现的字段
	if req.Title != nil {
		project.Title = *req.Title
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.DirectorNotes != nil {
		project.DirectorNotes = *req.DirectorNotes
	}
	if req.VideoStyle != nil {
		project.VideoStyle = *req.VideoStyle
	}
	project.UpdatedAt = time.Now()

	if err := a.Store.SaveProject(project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "更新项目失败: " + err.Error()})
		return
	}

	// 更新的是当前项目时同步刷新内存状态
	if st := a.Engine.GetState(); st.CurrentProject != nil && st.CurrentProject.ID == projectID {
		if _, err := a.Engine.Dispatch(state.Action{Type: state.ActionSetProject, Project: project}); err != nil {
			log.Printf("刷新内存状态失败: %v", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"project": project})
}

// 删除项目（幂等）；删除当前项目时同时清空内存状态
func (a *API) DeleteProject(c *gin.Context) {
	projectID := c.Param("project_id")

	if err := a.Store.DeleteProject(projectID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除项目失败: " + err.Error()})
		return
	}

	if st := a.Engine.GetState(); st.CurrentProject != nil && st.CurrentProject.ID == projectID {
		a.Engine.Dispatch(state.Action{Type: state.ActionSetProject, Project: nil})
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"deleteAt": time.Now(),
		"message":  "项目已删除",
	})
}

// 打开项目：设为当前项目并载入状态引擎
func (a *API) OpenProject(c *gin.Context) {
	projectID := c.Param("project_id")

	project, err := a.Store.GetProject(projectID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "项目未找到: " + err.Error()})
		return
	}

	if _, err := a.Engine.Dispatch(state.Action{Type: state.ActionSetProject, Project: project}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "打开项目失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project})
}

// 复制项目：全新 id 与时间戳，标题加后缀，不自动激活
func (a *API) DuplicateProject(c *gin.Context) {
	projectID := c.Param("project_id")

	src, err := a.Store.GetProject(projectID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "项目未找到: " + err.Error()})
		return
	}

	now := time.Now()
	dup := src.Clone()
	dup.ID = uuid.NewString()
	dup.Title = src.Title + " (Copy)"
	dup.Starred = false
	dup.Archived = false
	dup.CreatedAt = now
	dup.UpdatedAt = now
	dup.LastOpened = time.Time{}
	for i := range dup.Panels {
		dup.Panels[i].ID = uuid.NewString()
		dup.Panels[i].ProjectId = dup.ID
		dup.Panels[i].CreatedAt = now
		dup.Panels[i].UpdatedAt = now
	}

	if err := a.Store.SaveProject(dup); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "复制项目失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": dup})
}

// 标星（持久化为项目属性）
func (a *API) StarProject(c *gin.Context) {
	a.setProjectFlag(c, func(p *models.Project, value bool) { p.Starred = value })
}

// 归档（持久化为项目属性）
func (a *API) ArchiveProject(c *gin.Context) {
	a.setProjectFlag(c, func(p *models.Project, value bool) { p.Archived = value })
}

func (a *API) setProjectFlag(c *gin.Context, apply func(*models.Project, bool)) {
	projectID := c.Param("project_id")

	var req struct {
		Value bool `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := a.Store.GetProject(projectID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "项目未找到: " + err.Error()})
		return
	}

	apply(project, req.Value)
	project.UpdatedAt = time.Now()
	if err := a.Store.SaveProject(project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "更新项目失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project})
}

// 批量删除：逐个删除，单个失败不中止，逐条返回结果
func (a *API) BulkDeleteProjects(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids is required"})
		return
	}

	st := a.Engine.GetState()
	results := map[string]string{}
	deleted := 0
	for _, id := range req.IDs {
		if err := a.Store.DeleteProject(id); err != nil {
			log.Printf("批量删除项目 %s 失败: %v", id, err)
			results[id] = err.Error()
			continue
		}
		results[id] = "deleted"
		deleted++
		if st.CurrentProject != nil && st.CurrentProject.ID == id {
			a.Engine.Dispatch(state.Action{Type: state.ActionSetProject, Project: nil})
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"deleted": deleted,
		"results": results,
	})
}

// 批量导出：选中的项目合并为一个 JSON 产物直接下载
func (a *API) BulkExportProjects(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var projects []models.Project
	var missing []string
	for _, id := range req.IDs {
		p, err := a.Store.GetProject(id)
		if err != nil {
			missing = append(missing, id)
			continue
		}
		projects = append(projects, *p)
	}

	artifact, err := export.BulkExportJSON(projects)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "missing": missing})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+artifact.Filename+`"`)
	if len(missing) > 0 {
		c.Header("X-Missing-Projects", joinIDs(missing))
	}
	c.Data(http.StatusOK, artifact.MimeType, artifact.Data)
}

// 导入项目：接收 json 格式的导出产物，落盘后激活
func (a *API) ImportProject(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := export.ParseProjectJSON(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "解析导入数据失败: " + err.Error()})
		return
	}

	project.UpdatedAt = time.Now()
	if err := a.Store.SaveProject(project); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "导入项目失败: " + err.Error()})
		return
	}
	if _, err := a.Engine.Dispatch(state.Action{Type: state.ActionSetProject, Project: project}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "激活项目失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": project})
}

func joinIDs(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += id
	}
	return out
}
