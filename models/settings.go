package models

import "time"

// 设置单行记录的固定主键
const SettingsRowID = "app"

// Settings 进程级设置，独立于任何项目的生命周期
// CurrentProjectId 即 "最近活跃项目" 指针，随项目激活/删除而更新
type Settings struct {
	ID                  string    `gorm:"primaryKey;type:varchar(16)" json:"-"`
	AutoSave            bool      `json:"autoSave"`
	DefaultExportFormat string    `json:"defaultExportFormat"`
	DefaultQuality      string    `json:"defaultQuality"`
	AIModel             string    `json:"aiModel"`
	ImageModel          string    `json:"imageModel"`
	CurrentProjectId    string    `json:"currentProjectId"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

func (Settings) TableName() string {
	return "setting"
}

// DefaultSettings 首次启动时写入的默认值
func DefaultSettings() Settings {
	return Settings{
		ID:                  SettingsRowID,
		AutoSave:            true,
		DefaultExportFormat: "json",
		DefaultQuality:      "standard",
	}
}

// SettingsPatch 部分更新（合并语义，不是整体替换），nil 字段保持原值
type SettingsPatch struct {
	AutoSave            *bool   `json:"autoSave,omitempty"`
	DefaultExportFormat *string `json:"defaultExportFormat,omitempty"`
	DefaultQuality      *string `json:"defaultQuality,omitempty"`
	AIModel             *string `json:"aiModel,omitempty"`
	ImageModel          *string `json:"imageModel,omitempty"`
}

// Updates 动态构建更新字段，只包含请求里出现的键
func (p *SettingsPatch) Updates() map[string]interface{} {
	updates := map[string]interface{}{}
	if p.AutoSave != nil {
		updates["auto_save"] = *p.AutoSave
	}
	if p.DefaultExportFormat != nil {
		updates["default_export_format"] = *p.DefaultExportFormat
	}
	if p.DefaultQuality != nil {
		updates["default_quality"] = *p.DefaultQuality
	}
	if p.AIModel != nil {
		updates["ai_model"] = *p.AIModel
	}
	if p.ImageModel != nil {
		updates["image_model"] = *p.ImageModel
	}
	return updates
}
