package api

import (
	"net/http"

	"StoryboardStudio-server/export"
	"StoryboardStudio-server/models"

	"github.com/gin-gonic/gin"
)

// 获取应用设置
func (a *API) GetSettings(c *gin.Context) {
	settings := a.Store.GetSettings()
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

// 更新应用设置（部分字段合并）
func (a *API) UpdateSettings(c *gin.Context) {
	var patch models.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 默认导出选项要落在合法的枚举值上
	if patch.DefaultExportFormat != nil && !export.IsValidFormat(*patch.DefaultExportFormat) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的导出格式: " + *patch.DefaultExportFormat})
		return
	}
	if patch.DefaultQuality != nil && !export.IsValidQuality(*patch.DefaultQuality) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的导出质量: " + *patch.DefaultQuality})
		return
	}

	settings, err := a.Store.SaveSettings(&patch)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存设置失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}
