package routers

import (
	"StoryboardStudio-server/routers/api"

	"github.com/gin-gonic/gin"
)

func InitRouter(a *api.API, mediaDir string) *gin.Engine {
	r := gin.Default()
	r.Static("/media", mediaDir)
	v1 := r.Group("/v1/api")
	{
		// 项目管理
		v1.GET("/projects", a.ListProjects)
		v1.POST("/projects", a.CreateProject)
		v1.GET("/projects/:project_id", a.GetProject)
		v1.PUT("/projects/:project_id", a.UpdateProject)
		v1.DELETE("/projects/:project_id", a.DeleteProject)
		v1.POST("/projects/:project_id/open", a.OpenProject)
		v1.POST("/projects/:project_id/duplicate", a.DuplicateProject)
		v1.POST("/projects/:project_id/star", a.StarProject)
		v1.POST("/projects/:project_id/archive", a.ArchiveProject)
		v1.POST("/projects/bulk-delete", a.BulkDeleteProjects)
		v1.POST("/projects/bulk-export", a.BulkExportProjects)
		v1.POST("/projects/import", a.ImportProject)

		// 当前项目状态与面板操作
		v1.GET("/state", a.GetState)
		v1.POST("/panels", a.AddPanel)
		v1.PUT("/panels/:panel_id", a.UpdatePanel)
		v1.DELETE("/panels/:panel_id", a.DeletePanel)
		v1.POST("/panels/reorder", a.ReorderPanels)
		v1.POST("/panels/select", a.SelectPanel)
		v1.PUT("/panels", a.SetPanels)

		// 导出任务
		v1.POST("/projects/:project_id/export", a.StartExport)
		v1.GET("/exports/:job_id", a.GetExportStatus)
		v1.GET("/exports/:job_id/download", a.DownloadExport)
		v1.POST("/exports/:job_id/cancel", a.CancelExport)

		// 设置与媒体
		v1.GET("/settings", a.GetSettings)
		v1.PUT("/settings", a.UpdateSettings)
		v1.POST("/media", a.UploadMedia)
	}
	r.GET("/exports/:job_id/wss", a.ExportProgressWebSocket)
	return r
}
