package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"StoryboardStudio-server/models"
)

// projectDocument json 格式产物的外层结构
// project 字段是完整的项目快照，每个字段都可以无损导回
type projectDocument struct {
	Kind       string          `json:"kind"`
	Version    int             `json:"version"`
	ExportedAt time.Time       `json:"exportedAt"`
	Project    *models.Project `json:"project"`
}

const projectDocumentKind = "storyboard-project"

// exportJSON 全量快照，可经 SET_PROJECT / SET_PANELS 无损导回
func (e *Exporter) exportJSON(ctx context.Context, project *models.Project, opts Options, emit ProgressFunc) (*Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	emit(Progress{Stage: "serialize", Progress: 0, Total: 1, CurrentItem: project.Title})

	doc := projectDocument{
		Kind:       projectDocumentKind,
		Version:    1,
		ExportedAt: time.Now(),
		Project:    project,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("序列化项目失败: %w", err)
	}

	emit(Progress{Stage: "serialize", Progress: 1, Total: 1})
	return &Artifact{
		Filename: sanitizeTitle(project.Title) + ".json",
		MimeType: "application/json",
		Data:     data,
	}, nil
}

// ParseProjectJSON 解析 json 产物（批量导入 / 往返导入用）
// 兼容两种形态：带外层 projectDocument 的，和裸的 Project 结构
func ParseProjectJSON(data []byte) (*models.Project, error) {
	var doc projectDocument
	if err := json.Unmarshal(data, &doc); err == nil && doc.Project != nil {
		return doc.Project, nil
	}
	var p models.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("解析项目 JSON 失败: %w", err)
	}
	if p.ID == "" {
		return nil, &models.ValidationError{Reason: "imported project missing id"}
	}
	return &p, nil
}

// bundleDocument 批量导出（多项目合并为一个 JSON 产物）
type bundleDocument struct {
	Kind       string           `json:"kind"`
	Version    int              `json:"version"`
	ExportedAt time.Time        `json:"exportedAt"`
	Count      int              `json:"count"`
	Projects   []models.Project `json:"projects"`
}

// BulkExportJSON 把选中的项目合并成一个 JSON 产物
func BulkExportJSON(projects []models.Project) (*Artifact, error) {
	if len(projects) == 0 {
		return nil, &PreconditionError{Reason: "no projects selected"}
	}
	doc := bundleDocument{
		Kind:       "storyboard-project-bundle",
		Version:    1,
		ExportedAt: time.Now(),
		Count:      len(projects),
		Projects:   projects,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("序列化项目列表失败: %w", err)
	}
	return &Artifact{
		Filename: "storyboard-projects.json",
		MimeType: "application/json",
		Data:     data,
	}, nil
}
