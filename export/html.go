package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"
	"time"

	"StoryboardStudio-server/models"
)

// 单文件可分享文档：面板内容内联，图片在可解析时转成 data URI 内嵌
var htmlTemplate = template.Must(template.New("storyboard").Parse(`<!DOCTYPE html>
<html lang="zh">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 0 auto; max-width: 960px; padding: 24px; color: #1c1c1e; }
header { border-bottom: 2px solid #e5e5ea; padding-bottom: 16px; margin-bottom: 24px; }
h1 { margin: 0 0 8px; }
.meta { color: #6e6e73; font-size: 14px; }
.panel { border: 1px solid #e5e5ea; border-radius: 10px; padding: 16px; margin-bottom: 16px; }
.panel h2 { margin: 0 0 4px; font-size: 18px; }
.panel .shot { color: #6e6e73; font-size: 13px; margin-bottom: 8px; }
.panel img { max-width: 100%; border-radius: 6px; margin: 8px 0; }
.panel .notes { background: #f2f2f7; border-radius: 6px; padding: 8px 12px; font-size: 13px; margin-top: 8px; }
.panel .prompt { color: #8e8e93; font-size: 12px; font-style: italic; margin-top: 8px; }
</style>
</head>
<body>
<header>
<h1>{{.Title}}</h1>
{{if .Description}}<p>{{.Description}}</p>{{end}}
<p class="meta">{{.PanelCount}} panels · {{.TotalDuration}}s · exported {{.ExportedAt}}</p>
{{if .DirectorNotes}}<p class="meta">Director's notes: {{.DirectorNotes}}</p>{{end}}
</header>
{{range .Panels}}
<div class="panel">
<h2>{{.Index}}. {{.Title}}</h2>
<div class="shot">{{.ShotType}} · {{.CameraAngle}} · {{.Duration}}s</div>
{{if .ImageSrc}}<img src="{{.ImageSrc}}" alt="{{.Title}}">{{end}}
{{if .Description}}<p>{{.Description}}</p>{{end}}
{{if .Notes}}<div class="notes">{{.Notes}}</div>{{end}}
{{if .Prompt}}<div class="prompt">{{.Prompt}}</div>{{end}}
</div>
{{end}}
</body>
</html>
`))

type htmlPanel struct {
	Index       int
	Title       string
	Description string
	ShotType    string
	CameraAngle string
	Duration    int
	Notes       string
	Prompt      string
	ImageSrc    template.URL
}

type htmlDocument struct {
	Title         string
	Description   string
	DirectorNotes string
	PanelCount    int
	TotalDuration int
	ExportedAt    string
	Panels        []htmlPanel
}

// exportHTML 单个静态 HTML 文档；图片解析失败降级为纯文字面板
func (e *Exporter) exportHTML(ctx context.Context, project *models.Project, opts Options, emit ProgressFunc) (*Artifact, error) {
	total := len(project.Panels)
	doc := htmlDocument{
		Title:       project.Title,
		Description: project.Description,
		PanelCount:  total,
		ExportedAt:  time.Now().Format("2006-01-02 15:04"),
	}
	if opts.IncludeNotes {
		doc.DirectorNotes = project.DirectorNotes
	}

	var errs []string
	for i, panel := range project.Panels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hp := htmlPanel{
			Index:       i + 1,
			Title:       panel.Title,
			Description: panel.Description,
			ShotType:    panel.ShotType,
			CameraAngle: panel.CameraAngle,
			Duration:    panel.Duration,
		}
		if strings.TrimSpace(hp.Title) == "" {
			hp.Title = fmt.Sprintf("Panel %d", i+1)
		}
		if opts.IncludeNotes {
			hp.Notes = panel.Notes
		}
		if opts.IncludePrompts {
			hp.Prompt = panel.AiGeneratedPrompt
		}
		if opts.IncludeImages && panel.ImageUrl != "" {
			if src, err := e.inlineImage(panel.ImageUrl); err != nil {
				errs = append(errs, fmt.Sprintf("panel %d: %v", i+1, err))
			} else {
				hp.ImageSrc = template.URL(src)
			}
		}
		doc.TotalDuration += panel.Duration
		doc.Panels = append(doc.Panels, hp)

		emit(Progress{Stage: "render", Progress: i + 1, Total: total, CurrentItem: hp.Title, Errors: errs})
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("渲染 HTML 失败: %w", err)
	}

	emit(Progress{Stage: "finalize", Progress: total, Total: total, Errors: errs})
	return &Artifact{
		Filename: sanitizeTitle(project.Title) + ".html",
		MimeType: "text/html",
		Data:     buf.Bytes(),
		Errors:   errs,
	}, nil
}

// inlineImage 把媒体引用转成 data URI；本来就是 data URI 的原样返回
func (e *Exporter) inlineImage(ref string) (string, error) {
	if strings.HasPrefix(ref, "data:") {
		return ref, nil
	}
	if e.Media == nil {
		return "", fmt.Errorf("no media resolver configured")
	}
	data, ext, err := e.Media.Resolve(ref)
	if err != nil {
		return "", err
	}
	mime := "image/png"
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		mime = "image/jpeg"
	case ".webp":
		mime = "image/webp"
	case ".gif":
		mime = "image/gif"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
