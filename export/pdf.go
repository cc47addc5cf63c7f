package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/jung-kurt/gofpdf/v2"

	"StoryboardStudio-server/models"
)

// panelsPerPage 每页面板数由质量档位决定：档位越高每页越少、单格越大
func panelsPerPage(q Quality) int {
	switch q {
	case QualityUltra:
		return 1
	case QualityHigh:
		return 2
	default:
		return 3
	}
}

// exportPDF 分页文档：每个面板一个区块，按质量档位决定密度
// 单个面板的图片解析失败只记入错误列表，页面照常渲染
func (e *Exporter) exportPDF(ctx context.Context, project *models.Project, opts Options, emit ProgressFunc) (*Artifact, error) {
	orientation := "P"
	if opts.Orientation == OrientationLandscape {
		orientation = "L"
	}

	pdf := gofpdf.New(orientation, "mm", string(opts.PageSize), "")
	pdf.SetTitle(project.Title, true)
	pdf.SetAuthor("Storyboard Studio", false)

	perPage := panelsPerPage(opts.Quality)
	total := len(project.Panels)
	var errs []string

	// 封面信息
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 20)
	pdf.MultiCell(0, 10, project.Title, "", "L", false)
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 12)
	if strings.TrimSpace(project.Description) != "" {
		pdf.MultiCell(0, 6, project.Description, "", "L", false)
		pdf.Ln(2)
	}
	if opts.IncludeNotes && strings.TrimSpace(project.DirectorNotes) != "" {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.MultiCell(0, 6, "Director's notes: "+project.DirectorNotes, "", "L", false)
	}

	for i, panel := range project.Panels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i%perPage == 0 {
			pdf.AddPage()
		}

		pdf.SetFont("Helvetica", "B", 14)
		title := panel.Title
		if strings.TrimSpace(title) == "" {
			title = fmt.Sprintf("Panel %d", i+1)
		}
		pdf.Cell(0, 8, fmt.Sprintf("%d. %s", i+1, title))
		pdf.Ln(9)

		pdf.SetFont("Helvetica", "", 10)
		pdf.Cell(0, 5, fmt.Sprintf("%s | %s | %ds", panel.ShotType, panel.CameraAngle, panel.Duration))
		pdf.Ln(7)

		if opts.IncludeImages && panel.ImageUrl != "" {
			if err := e.drawPanelImage(pdf, &panel, i); err != nil {
				errs = append(errs, fmt.Sprintf("panel %d: %v", i+1, err))
			}
		}

		pdf.SetFont("Helvetica", "", 11)
		if strings.TrimSpace(panel.Description) != "" {
			pdf.MultiCell(0, 5, panel.Description, "", "L", false)
			pdf.Ln(1)
		}
		if opts.IncludeNotes && strings.TrimSpace(panel.Notes) != "" {
			pdf.SetFont("Helvetica", "I", 10)
			pdf.MultiCell(0, 5, "Notes: "+panel.Notes, "", "L", false)
			pdf.Ln(1)
		}
		if opts.IncludePrompts && strings.TrimSpace(panel.AiGeneratedPrompt) != "" {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.MultiCell(0, 4, "Prompt: "+panel.AiGeneratedPrompt, "", "L", false)
		}
		pdf.Ln(4)

		emit(Progress{
			Stage:       "render",
			Progress:    i + 1,
			Total:       total,
			CurrentItem: title,
			Errors:      errs,
		})
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("生成 PDF 失败: %w", err)
	}

	emit(Progress{Stage: "finalize", Progress: total, Total: total, Errors: errs})
	return &Artifact{
		Filename: sanitizeTitle(project.Title) + ".pdf",
		MimeType: "application/pdf",
		Data:     buf.Bytes(),
		Errors:   errs,
	}, nil
}

// drawPanelImage 把面板图片嵌进当前页；引用解析失败时返回错误给调用方收集
// gofpdf 的内部错误状态一旦置位就无法清除，所以坏图必须在注册之前拦下来
func (e *Exporter) drawPanelImage(pdf *gofpdf.Fpdf, panel *models.Panel, index int) error {
	if e.Media == nil {
		return fmt.Errorf("no media resolver configured")
	}
	data, _, err := e.Media.Resolve(panel.ImageUrl)
	if err != nil {
		return err
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("无法识别的图片数据: %v", err)
	}
	imageType := strings.ToUpper(format)
	if imageType == "JPEG" {
		imageType = "JPG"
	}

	name := fmt.Sprintf("panel-%d-%s", index, panel.ID)
	pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(data))
	pdf.ImageOptions(name, pdf.GetX(), pdf.GetY(), 80, 0, true, gofpdf.ImageOptions{ImageType: imageType}, 0, "")
	pdf.Ln(2)
	return nil
}
