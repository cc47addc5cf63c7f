package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// VideoStyle 项目级风格提示（稀疏 key/value，全部可选）
type VideoStyle struct {
	LightingMood   string `json:"lightingMood,omitempty"`
	Pacing         string `json:"pacing,omitempty"`
	Genre          string `json:"genre,omitempty"`
	Mood           string `json:"mood,omitempty"`
	ColorPalette   string `json:"colorPalette,omitempty"`
	CinematicStyle string `json:"cinematicStyle,omitempty"`
}

// 实现 driver.Valuer 接口: Go Struct -> JSON String (存入数据库)
func (v VideoStyle) Value() (driver.Value, error) {
	return json.Marshal(v)
}

// 实现 sql.Scanner 接口: JSON String -> Go Struct (从数据库读取)
func (v *VideoStyle) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return errors.New(fmt.Sprint("Failed to unmarshal JSON value:", value))
		}
		bytes = []byte(s)
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, v)
}

// Project 顶层工作单元：有序分镜面板 + 元数据
// Panels 的顺序是权威顺序，任何变更之后 Panel.Order 必须等于其下标
type Project struct {
	ID            string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Panels        []Panel    `gorm:"foreignKey:ProjectId;constraint:OnDelete:CASCADE" json:"panels"`
	DirectorNotes string     `json:"directorNotes"`
	VideoStyle    VideoStyle `gorm:"type:json" json:"videoStyle"`
	Starred       bool       `json:"starred"`
	Archived      bool       `json:"archived"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	LastOpened    time.Time  `json:"lastOpened"`
}

func (Project) TableName() string {
	return "project"
}

// Clone 返回深拷贝（Panels 独立）；状态快照与导出都依赖它
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Panels = ClonePanels(p.Panels)
	return &cp
}

// NormalizeOrder 修复排序不变式：Panel.Order = 下标
func (p *Project) NormalizeOrder() {
	for i := range p.Panels {
		p.Panels[i].Order = i
	}
}
