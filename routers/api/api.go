package api

import (
	"StoryboardStudio-server/models"
	"StoryboardStudio-server/service"
	"StoryboardStudio-server/state"
)

// API 路由处理器共享的依赖集合
type API struct {
	Engine *state.Engine
	Store  *models.Store
	Jobs   *service.JobManager
	Media  *service.MediaStore
}

func New(engine *state.Engine, store *models.Store, jobs *service.JobManager, media *service.MediaStore) *API {
	return &API{
		Engine: engine,
		Store:  store,
		Jobs:   jobs,
		Media:  media,
	}
}
