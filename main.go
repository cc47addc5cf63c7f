package main

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"StoryboardStudio-server/config"
	"StoryboardStudio-server/export"
	"StoryboardStudio-server/models"
	"StoryboardStudio-server/routers"
	"StoryboardStudio-server/routers/api"
	"StoryboardStudio-server/service"
	"StoryboardStudio-server/state"
)

func main() {
	config.InitConfig()
	fmt.Println("Server starting on port", config.AppConfig.Server.Port)

	db, err := models.InitDB(config.AppConfig.Data.Dir)
	if err != nil {
		log.Fatalf("数据库初始化失败: %v", err)
	}
	store := models.NewStore(db)
	fmt.Println("Database initialized")

	media, err := service.NewMediaStore(filepath.Join(config.AppConfig.Data.Dir, "media"))
	if err != nil {
		log.Fatalf("媒体目录初始化失败: %v", err)
	}

	engine := state.NewEngine(store)
	autosave := state.NewAutosave(store, time.Duration(config.AppConfig.Autosave.IntervalMs)*time.Millisecond)
	engine.Subscribe(autosave.Notify)
	engine.Init()

	exporter := export.NewExporter(media)
	jobs := service.NewJobManager(exporter, config.AppConfig.Export.Concurrency)

	a := api.New(engine, store, jobs, media)
	r := routers.InitRouter(a, media.Dir())
	r.Run(config.AppConfig.Server.Port)
}
