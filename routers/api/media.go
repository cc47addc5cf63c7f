package api

import (
	"net/http"
	"path/filepath"

	"StoryboardStudio-server/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// 上传媒体文件（multipart form，字段名 file），返回可引用的 /media/ 路径
func (a *API) UploadMedia(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 file 字段: " + err.Error()})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取上传文件失败: " + err.Error()})
		return
	}
	defer f.Close()

	objectName := "uploads/" + uuid.NewString() + "/" + filepath.Base(fileHeader.Filename)
	url, err := a.Media.Put(f, objectName, fileHeader.Size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存媒体失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":         url,
		"contentType": service.ContentTypeByExt(fileHeader.Filename),
		"size":        fileHeader.Size,
	})
}
