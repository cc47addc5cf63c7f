package models

import "time"

// 镜头景别（与前端选项一一对应）
const (
	ShotTypeWide             = "wide-shot"
	ShotTypeMedium           = "medium-shot"
	ShotTypeCloseUp          = "close-up"
	ShotTypeExtremeCloseUp   = "extreme-close-up"
	ShotTypeOverTheShoulder  = "over-the-shoulder"
	ShotTypeTwoShot          = "two-shot"
	ShotTypeEstablishingShot = "establishing-shot"
)

// 摄影机角度
const (
	CameraAngleEyeLevel     = "eye-level"
	CameraAngleHigh         = "high-angle"
	CameraAngleLow          = "low-angle"
	CameraAngleBirdsEye     = "birds-eye-view"
	CameraAngleWormsEye     = "worms-eye-view"
	CameraAngleDutch        = "dutch-angle"
)

var validShotTypes = map[string]bool{
	ShotTypeWide:             true,
	ShotTypeMedium:           true,
	ShotTypeCloseUp:          true,
	ShotTypeExtremeCloseUp:   true,
	ShotTypeOverTheShoulder:  true,
	ShotTypeTwoShot:          true,
	ShotTypeEstablishingShot: true,
}

var validCameraAngles = map[string]bool{
	CameraAngleEyeLevel: true,
	CameraAngleHigh:     true,
	CameraAngleLow:      true,
	CameraAngleBirdsEye: true,
	CameraAngleWormsEye: true,
	CameraAngleDutch:    true,
}

func IsValidShotType(s string) bool {
	return validShotTypes[s]
}

func IsValidCameraAngle(s string) bool {
	return validCameraAngles[s]
}

// Panel 单个分镜格：描述字段 + 媒体引用
// 媒体引用（ImageUrl/VideoUrl）是不透明字符串（data URI 或 /media/ 路径），
// 由 Panel 独占，核心只负责存储与序列化，不解析二进制内容
type Panel struct {
	ID                string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProjectId         string    `gorm:"index" json:"projectId"`
	Order             int       `json:"order"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	ShotType          string    `json:"shotType"`
	CameraAngle       string    `json:"cameraAngle"`
	Duration          int       `json:"duration"`
	Notes             string    `json:"notes"`
	ImageUrl          string    `json:"imageUrl,omitempty"`
	VideoUrl          string    `json:"videoUrl,omitempty"`
	AiGeneratedPrompt string    `json:"aiGeneratedPrompt,omitempty"`
	VideoPrompt       string    `json:"videoPrompt,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func (Panel) TableName() string {
	return "panel"
}

// PanelPatch 部分更新（UPDATE_PANEL 的载荷），nil 字段表示不修改
type PanelPatch struct {
	Title             *string `json:"title,omitempty"`
	Description       *string `json:"description,omitempty"`
	ShotType          *string `json:"shotType,omitempty"`
	CameraAngle       *string `json:"cameraAngle,omitempty"`
	Duration          *int    `json:"duration,omitempty"`
	Notes             *string `json:"notes,omitempty"`
	ImageUrl          *string `json:"imageUrl,omitempty"`
	VideoUrl          *string `json:"videoUrl,omitempty"`
	AiGeneratedPrompt *string `json:"aiGeneratedPrompt,omitempty"`
	VideoPrompt       *string `json:"videoPrompt,omitempty"`
}

// Apply 把补丁合并到 panel 上，返回是否有字段被修改
func (patch *PanelPatch) Apply(p *Panel) bool {
	changed := false
	if patch.Title != nil {
		p.Title = *patch.Title
		changed = true
	}
	if patch.Description != nil {
		p.Description = *patch.Description
		changed = true
	}
	if patch.ShotType != nil {
		p.ShotType = *patch.ShotType
		changed = true
	}
	if patch.CameraAngle != nil {
		p.CameraAngle = *patch.CameraAngle
		changed = true
	}
	if patch.Duration != nil {
		p.Duration = *patch.Duration
		changed = true
	}
	if patch.Notes != nil {
		p.Notes = *patch.Notes
		changed = true
	}
	if patch.ImageUrl != nil {
		p.ImageUrl = *patch.ImageUrl
		changed = true
	}
	if patch.VideoUrl != nil {
		p.VideoUrl = *patch.VideoUrl
		changed = true
	}
	if patch.AiGeneratedPrompt != nil {
		p.AiGeneratedPrompt = *patch.AiGeneratedPrompt
		changed = true
	}
	if patch.VideoPrompt != nil {
		p.VideoPrompt = *patch.VideoPrompt
		changed = true
	}
	return changed
}

// Validate 校验补丁中的枚举与数值字段
func (patch *PanelPatch) Validate() error {
	if patch.ShotType != nil && !IsValidShotType(*patch.ShotType) {
		return &ValidationError{Reason: "invalid shotType: " + *patch.ShotType}
	}
	if patch.CameraAngle != nil && !IsValidCameraAngle(*patch.CameraAngle) {
		return &ValidationError{Reason: "invalid cameraAngle: " + *patch.CameraAngle}
	}
	if patch.Duration != nil && *patch.Duration <= 0 {
		return &ValidationError{Reason: "duration must be a positive number of seconds"}
	}
	return nil
}

// ClonePanels 深拷贝 panel 切片
func ClonePanels(panels []Panel) []Panel {
	if panels == nil {
		return nil
	}
	out := make([]Panel, len(panels))
	copy(out, panels)
	return out
}

// ValidationError 领域不变式被违反（非法下标、未知枚举、重复 id 等）
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}
