package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"StoryboardStudio-server/models"
)

// SequenceFrame 时间线描述里单个镜头的条目
type SequenceFrame struct {
	Order       int    `json:"order"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	ShotType    string `json:"shotType"`
	CameraAngle string `json:"cameraAngle"`
	Notes       string `json:"notes,omitempty"`
	HasVideo    bool   `json:"hasVideo"`
	HasImage    bool   `json:"hasImage"`
	VideoPrompt string `json:"videoPrompt,omitempty"`
}

// SequenceDescriptor 有序的时间线描述，
// 作为外部视频合成工具的输入，而不是渲染好的视频
type SequenceDescriptor struct {
	Project       string          `json:"project"`
	Description   string          `json:"description,omitempty"`
	FrameCount    int             `json:"frameCount"`
	TotalDuration int             `json:"totalDuration"`
	GeneratedAt   time.Time       `json:"generatedAt"`
	Frames        []SequenceFrame `json:"frames"`
}

// exportVideoSequence 逐面板生成时间线条目
func (e *Exporter) exportVideoSequence(ctx context.Context, project *models.Project, opts Options, emit ProgressFunc) (*Artifact, error) {
	total := len(project.Panels)
	frames := make([]SequenceFrame, 0, total)
	totalDuration := 0

	for i, panel := range project.Panels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frame := SequenceFrame{
			Order:       panel.Order,
			Title:       panel.Title,
			Description: panel.Description,
			Duration:    panel.Duration,
			ShotType:    panel.ShotType,
			CameraAngle: panel.CameraAngle,
			HasVideo:    panel.VideoUrl != "",
			HasImage:    panel.ImageUrl != "",
		}
		if opts.IncludeNotes {
			frame.Notes = panel.Notes
		}
		if opts.IncludePrompts {
			frame.VideoPrompt = panel.VideoPrompt
		}
		frames = append(frames, frame)
		totalDuration += panel.Duration

		emit(Progress{Stage: "sequence", Progress: i + 1, Total: total, CurrentItem: panel.Title})
	}

	descriptor := SequenceDescriptor{
		Project:       project.Title,
		Description:   project.Description,
		FrameCount:    len(frames),
		TotalDuration: totalDuration,
		GeneratedAt:   time.Now(),
		Frames:        frames,
	}
	data, err := json.MarshalIndent(descriptor, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("序列化时间线失败: %w", err)
	}

	return &Artifact{
		Filename: sanitizeTitle(project.Title) + "-sequence.json",
		MimeType: "application/json",
		Data:     data,
	}, nil
}
