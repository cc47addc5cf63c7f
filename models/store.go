package models

import (
	"errors"
	"log"
	"time"

	"gorm.io/gorm"
)

// Store 持久化存储：按项目 id 的 upsert 语义 + 单行设置记录
// 同一 id 的并发写由调用方（状态引擎的写队列）串行化，
// upsert 本身按 updated_at 做 last-write-wins，重复调用是幂等的
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// GetAllProjects 返回全部项目（按最近更新排序，含面板）
// 读失败不向上抛错，记日志并退化为空列表，调用方永远拿到可用状态
func (s *Store) GetAllProjects() []Project {
	var projects []Project
	err := s.db.
		Preload("Panels", func(db *gorm.DB) *gorm.DB {
			return db.Order("\"order\" ASC")
		}).
		Order("updated_at DESC").
		Find(&projects).Error
	if err != nil {
		log.Printf("读取项目列表失败（退化为空列表）: %v", err)
		return []Project{}
	}
	return projects
}

// GetProject 按 id 读取单个项目（含面板，按 order 升序）
func (s *Store) GetProject(id string) (*Project, error) {
	var p Project
	err := s.db.
		Preload("Panels", func(db *gorm.DB) *gorm.DB {
			return db.Order("\"order\" ASC")
		}).
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetCurrentProject 返回最近活跃的项目，没有则返回 (nil, nil)
func (s *Store) GetCurrentProject() (*Project, error) {
	settings := s.GetSettings()
	if settings.CurrentProjectId == "" {
		return nil, nil
	}
	p, err := s.GetProject(settings.CurrentProjectId)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 指针悬空（项目已被删除），按没有当前项目处理
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// SaveProject 按 id upsert 整个项目（含面板集合整体替换）
// 若库中已有更新的版本（updated_at 更晚）则跳过本次写入
func (s *Store) SaveProject(p *Project) error {
	if p == nil || p.ID == "" {
		return &ValidationError{Reason: "project id is required"}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing Project
		err := tx.Select("id", "updated_at").First(&existing, "id = ?", p.ID).Error
		switch {
		case err == nil:
			if existing.UpdatedAt.After(p.UpdatedAt) {
				// last-write-wins：旧快照迟到，直接丢弃
				log.Printf("跳过过期写入: project %s (库内 %s > 快照 %s)",
					p.ID, existing.UpdatedAt.Format(time.RFC3339Nano), p.UpdatedAt.Format(time.RFC3339Nano))
				return nil
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// 新项目，直接插入
		default:
			return err
		}

		// 1) 写项目行（不级联面板，面板下面整体替换）
		if err := tx.Omit("Panels").Save(p).Error; err != nil {
			return err
		}

		// 2) 面板集合整体替换：先删后批量插入
		if err := tx.Where("project_id = ?", p.ID).Delete(&Panel{}).Error; err != nil {
			return err
		}
		if len(p.Panels) > 0 {
			panels := ClonePanels(p.Panels)
			for i := range panels {
				panels[i].ProjectId = p.ID
				panels[i].Order = i
			}
			if err := tx.Create(&panels).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteProject 按 id 删除，幂等：删除不存在的 id 不算错误
// 若删除的是当前项目，同时清空 current 指针
func (s *Store) DeleteProject(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&Panel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", id).Delete(&Project{}).Error; err != nil {
			return err
		}
		return tx.Model(&Settings{}).
			Where("id = ? AND current_project_id = ?", SettingsRowID, id).
			Update("current_project_id", "").Error
	})
}

// SetCurrentProject 更新当前项目指针并刷新 last_opened
func (s *Store) SetCurrentProject(id string) error {
	s.GetSettings() // 确保设置行存在
	if err := s.db.Model(&Settings{}).
		Where("id = ?", SettingsRowID).
		Update("current_project_id", id).Error; err != nil {
		return err
	}
	if id == "" {
		return nil
	}
	return s.db.Model(&Project{}).
		Where("id = ?", id).
		Update("last_opened", time.Now()).Error
}

// GetSettings 读取设置（单行记录，不存在时落默认值）
func (s *Store) GetSettings() Settings {
	var settings Settings
	err := s.db.First(&settings, "id = ?", SettingsRowID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = DefaultSettings()
		if err := s.db.Create(&settings).Error; err != nil {
			log.Printf("写入默认设置失败: %v", err)
		}
		return settings
	}
	if err != nil {
		log.Printf("读取设置失败（退化为默认值）: %v", err)
		return DefaultSettings()
	}
	return settings
}

// SaveSettings 合并语义的部分更新，返回合并后的完整设置
func (s *Store) SaveSettings(patch *SettingsPatch) (Settings, error) {
	current := s.GetSettings()
	updates := patch.Updates()
	if len(updates) == 0 {
		return current, nil
	}
	updates["updated_at"] = time.Now()
	if err := s.db.Model(&Settings{}).
		Where("id = ?", SettingsRowID).
		Updates(updates).Error; err != nil {
		return current, err
	}
	return s.GetSettings(), nil
}
