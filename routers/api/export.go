package api

import (
	"errors"
	"net/http"
	"time"

	"StoryboardStudio-server/export"
	"StoryboardStudio-server/models"
	"StoryboardStudio-server/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// 发起导出：读取项目快照，创建后台导出任务
// 前置条件失败（项目不存在 / 零面板 / 非法选项）同步返回，不产生任务
func (a *API) StartExport(c *gin.Context) {
	projectID := c.Param("project_id")

	var opts export.Options
	if err := c.ShouldBindJSON(&opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 导出只读快照：当前项目直接用引擎里的内存态（包含未落盘的编辑），
	// 其他项目从存储读取
	var project *models.Project
	if st := a.Engine.GetState(); st.CurrentProject != nil && st.CurrentProject.ID == projectID {
		project = st.CurrentProject
	} else {
		p, err := a.Store.GetProject(projectID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "项目未找到: " + err.Error()})
			return
		}
		project = p
	}

	job, err := a.Jobs.StartExport(project, opts)
	if err != nil {
		var pre *export.PreconditionError
		var ve *models.ValidationError
		switch {
		case errors.As(err, &pre):
			c.JSON(http.StatusBadRequest, gin.H{"error": pre.Error()})
		case errors.As(err, &ve):
			c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "创建导出任务失败: " + err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id":     job.ID,
		"project_id": projectID,
		"format":     job.Format,
	})
}

// 查询导出任务状态
func (a *API) GetExportStatus(c *gin.Context) {
	jobID := c.Param("job_id")
	job, ok := a.Jobs.GetJob(jobID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "导出任务未找到: " + jobID})
		return
	}
	c.JSON(http.StatusOK, gin.H{"job": job})
}

// 下载导出产物（任务完成后）
func (a *API) DownloadExport(c *gin.Context) {
	jobID := c.Param("job_id")

	job, ok := a.Jobs.GetJob(jobID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "导出任务未找到: " + jobID})
		return
	}
	if job.Status != service.JobStatusSuccess {
		c.JSON(http.StatusConflict, gin.H{"error": "导出尚未完成", "status": job.Status})
		return
	}

	artifact, ok := a.Jobs.Artifact(jobID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "导出产物不存在"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+artifact.Filename+`"`)
	c.Data(http.StatusOK, artifact.MimeType, artifact.Data)
}

// 取消在途导出任务
func (a *API) CancelExport(c *gin.Context) {
	jobID := c.Param("job_id")
	cancelled := a.Jobs.Cancel(jobID)
	c.JSON(http.StatusOK, gin.H{
		"job_id":    jobID,
		"cancelled": cancelled,
	})
}

// 导出进度 WebSocket 推送：先推当前状态，然后轮询任务表并推送差异，
// 任务到终态后推送最终状态并关闭连接
func (a *API) ExportProgressWebSocket(c *gin.Context) {
	jobID := c.Param("job_id")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "WebSocket升级失败"})
		return
	}
	defer conn.Close()

	job, ok := a.Jobs.GetJob(jobID)
	if !ok {
		conn.WriteJSON(map[string]interface{}{"error": "job not found: " + jobID})
		return
	}
	_ = conn.WriteJSON(job)
	if service.Terminal(job.Status) {
		return
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	prev := job.UpdatedAt
	for range ticker.C {
		cur, ok := a.Jobs.GetJob(jobID)
		if !ok {
			break
		}
		if cur.UpdatedAt.After(prev) {
			if err := conn.WriteJSON(cur); err != nil {
				break
			}
			prev = cur.UpdatedAt
		}
		if service.Terminal(cur.Status) {
			// 发送最终状态后关闭连接
			_ = conn.WriteJSON(cur)
			break
		}
	}
}
