package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Data struct {
		Dir string `yaml:"dir"`
	} `yaml:"data"`
	Autosave struct {
		IntervalMs int `yaml:"interval_ms"`
	} `yaml:"autosave"`
	Export struct {
		Concurrency int `yaml:"concurrency"`
	} `yaml:"export"`
}

var AppConfig *Config

// InitConfig 读取 config/config.yaml；文件不存在时使用默认值，
// 首次启动不依赖任何外部配置也能得到可用进程
func InitConfig() {
	AppConfig = defaultConfig()

	f, err := os.Open("config/config.yaml")
	if err != nil {
		log.Printf("配置文件读取失败（使用默认配置）: %v", err)
		return
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(AppConfig); err != nil {
		log.Printf("配置文件解析失败（使用默认配置）: %v", err)
		AppConfig = defaultConfig()
		return
	}
	applyDefaults(AppConfig)
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8388"
	}
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "data"
	}
	if cfg.Autosave.IntervalMs <= 0 {
		cfg.Autosave.IntervalMs = 1000
	}
	if cfg.Export.Concurrency <= 0 {
		cfg.Export.Concurrency = 2
	}
}
