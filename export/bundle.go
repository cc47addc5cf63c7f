package export

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"

	"StoryboardStudio-server/models"
)

// exportImageBundle 图片包：每个有图的面板一个 zip 条目，
// 条目名由面板顺序确定（001-xxx.png），没有图的面板直接跳过，
// 引用坏掉的面板记一条错误后继续——产物是部分结果而不是整体失败
func (e *Exporter) exportImageBundle(ctx context.Context, project *models.Project, opts Options, emit ProgressFunc) (*Artifact, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	method := zip.Store
	if opts.Compression {
		method = zip.Deflate
	}

	total := len(project.Panels)
	var errs []string
	included := 0

	for i, panel := range project.Panels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := panel.Title
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("panel %d", i+1)
		}

		if panel.ImageUrl == "" {
			emit(Progress{Stage: "collect", Progress: i + 1, Total: total, CurrentItem: name, Errors: errs})
			continue
		}

		if e.Media == nil {
			errs = append(errs, fmt.Sprintf("panel %d: no media resolver configured", i+1))
			emit(Progress{Stage: "collect", Progress: i + 1, Total: total, CurrentItem: name, Errors: errs})
			continue
		}

		data, ext, err := e.Media.Resolve(panel.ImageUrl)
		if err != nil {
			errs = append(errs, fmt.Sprintf("panel %d: %v", i+1, err))
			emit(Progress{Stage: "collect", Progress: i + 1, Total: total, CurrentItem: name, Errors: errs})
			continue
		}
		if ext == "" {
			ext = ".png"
		}

		entryName := fmt.Sprintf("%03d-%s%s", i+1, sanitizeTitle(panel.Title), ext)
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   entryName,
			Method: method,
		})
		if err != nil {
			errs = append(errs, fmt.Sprintf("panel %d: 写入 zip 条目失败: %v", i+1, err))
			emit(Progress{Stage: "collect", Progress: i + 1, Total: total, CurrentItem: name, Errors: errs})
			continue
		}
		if _, err := w.Write(data); err != nil {
			errs = append(errs, fmt.Sprintf("panel %d: 写入 zip 条目失败: %v", i+1, err))
			emit(Progress{Stage: "collect", Progress: i + 1, Total: total, CurrentItem: name, Errors: errs})
			continue
		}
		included++

		emit(Progress{Stage: "collect", Progress: i + 1, Total: total, CurrentItem: name, Errors: errs})
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("关闭 zip 失败: %w", err)
	}

	emit(Progress{Stage: "finalize", Progress: total, Total: total, Errors: errs})
	return &Artifact{
		Filename: sanitizeTitle(project.Title) + "-images.zip",
		MimeType: "application/zip",
		Data:     buf.Bytes(),
		Errors:   errs,
	}, nil
}
