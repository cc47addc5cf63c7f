package models

import (
	"log"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB 打开本地 SQLite 数据库并自动建表
// 所有持久化都落在本机数据目录里，没有任何网络 I/O
func InitDB(dataDir string) (*gorm.DB, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}

	dsn := filepath.Join(dataDir, "storyboard.db") + "?_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	// 自动建表
	if err := db.AutoMigrate(&Project{}, &Panel{}, &Settings{}); err != nil {
		return nil, err
	}

	log.Println("数据库初始化成功 (SQLite + GORM)")
	return db, nil
}
