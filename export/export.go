package export

import (
	"context"
	"strings"
	"unicode"

	"StoryboardStudio-server/models"
)

// 导出格式（封闭集合，边界处校验）
type Format string

const (
	FormatJSON          Format = "json"
	FormatPDF           Format = "pdf"
	FormatImageBundle   Format = "images"
	FormatVideoSequence Format = "video-sequence"
	FormatHTML          Format = "html"
)

// IsValidFormat 设置项里默认导出格式的校验用
func IsValidFormat(s string) bool {
	switch Format(s) {
	case FormatJSON, FormatPDF, FormatImageBundle, FormatVideoSequence, FormatHTML:
		return true
	}
	return false
}

type Quality string

const (
	QualityStandard Quality = "standard"
	QualityHigh     Quality = "high"
	QualityUltra    Quality = "ultra"
)

func IsValidQuality(s string) bool {
	switch Quality(s) {
	case QualityStandard, QualityHigh, QualityUltra:
		return true
	}
	return false
}

type PageSize string

const (
	PageA4     PageSize = "A4"
	PageLetter PageSize = "Letter"
	PageLegal  PageSize = "Legal"
	PageA3     PageSize = "A3"
)

type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// Options 导出选项；PageSize/Orientation 只对 pdf 生效
type Options struct {
	Format         Format      `json:"format"`
	Quality        Quality     `json:"quality"`
	IncludeImages  bool        `json:"includeImages"`
	IncludePrompts bool        `json:"includePrompts"`
	IncludeNotes   bool        `json:"includeNotes"`
	Compression    bool        `json:"compression"`
	PageSize       PageSize    `json:"pageSize,omitempty"`
	Orientation    Orientation `json:"orientation,omitempty"`
}

// Validate 在边界处校验并填默认值，内部代码不再做散落的检查
func (o *Options) Validate() error {
	switch o.Format {
	case FormatJSON, FormatPDF, FormatImageBundle, FormatVideoSequence, FormatHTML:
	default:
		return &models.ValidationError{Reason: "unknown export format: " + string(o.Format)}
	}

	if o.Quality == "" {
		o.Quality = QualityStandard
	}
	switch o.Quality {
	case QualityStandard, QualityHigh, QualityUltra:
	default:
		return &models.ValidationError{Reason: "unknown export quality: " + string(o.Quality)}
	}

	if o.Format == FormatPDF {
		if o.PageSize == "" {
			o.PageSize = PageA4
		}
		switch o.PageSize {
		case PageA4, PageLetter, PageLegal, PageA3:
		default:
			return &models.ValidationError{Reason: "unknown page size: " + string(o.PageSize)}
		}
		if o.Orientation == "" {
			o.Orientation = OrientationPortrait
		}
		switch o.Orientation {
		case OrientationPortrait, OrientationLandscape:
		default:
			return &models.ValidationError{Reason: "unknown orientation: " + string(o.Orientation)}
		}
	}
	return nil
}

// Progress 每个离散阶段上报一次（通常是逐面板）
type Progress struct {
	Stage       string   `json:"stage"`
	Progress    int      `json:"progress"`
	Total       int      `json:"total"`
	CurrentItem string   `json:"currentItem,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// ProgressFunc 调用方提供的进度回调，可以为 nil
type ProgressFunc func(Progress)

// Artifact 导出产物：字节 + 文件名 + MIME 类型
type Artifact struct {
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
	Data     []byte `json:"-"`
	// Errors 运行期间收集的非致命错误（单个面板失败不会中止导出）
	Errors []string `json:"errors,omitempty"`
}

// PreconditionError 前置条件失败（没有项目 / 零面板），
// 在任何进度事件之前返回，对该次导出是致命的
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "export precondition failed: " + e.Reason
}

// MediaResolver 把面板的媒体引用解析成字节（data URI 或本地媒体文件）
// 导出管线只读引用，从不回写任何状态
type MediaResolver interface {
	Resolve(ref string) (data []byte, ext string, err error)
}

// Exporter 导出管线：对同一份项目快照做多格式序列化
type Exporter struct {
	Media MediaResolver
}

func NewExporter(media MediaResolver) *Exporter {
	return &Exporter{Media: media}
}

// Export 把项目快照序列化为指定格式的产物
// 单面板失败收集进错误列表，不中止整次导出；
// ctx 取消时放弃本次运行（快照是调用方的拷贝，不会污染共享状态）
func (e *Exporter) Export(ctx context.Context, project *models.Project, opts Options, onProgress ProgressFunc) (*Artifact, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	// 前置条件在任何进度事件之前检查
	if project == nil {
		return nil, &PreconditionError{Reason: "no project to export"}
	}
	if len(project.Panels) == 0 {
		return nil, &PreconditionError{Reason: "project has no panels"}
	}

	emit := func(p Progress) {
		if onProgress != nil {
			onProgress(p)
		}
	}

	switch opts.Format {
	case FormatJSON:
		return e.exportJSON(ctx, project, opts, emit)
	case FormatPDF:
		return e.exportPDF(ctx, project, opts, emit)
	case FormatImageBundle:
		return e.exportImageBundle(ctx, project, opts, emit)
	case FormatVideoSequence:
		return e.exportVideoSequence(ctx, project, opts, emit)
	case FormatHTML:
		return e.exportHTML(ctx, project, opts, emit)
	default:
		return nil, &models.ValidationError{Reason: "unknown export format: " + string(opts.Format)}
	}
}

// sanitizeTitle 产物文件名：标题去掉非字母数字并小写，结果确定
func sanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "storyboard"
	}
	return b.String()
}
