package state

import (
	"sync"

	"github.com/vixalabs/vixa/internal/types"
)

var (
	once     sync.Once
	instance *AppState
)

type AppState struct {
	Config *types.Config
}

func Init(cfg *types.Config) {
	once.Do(func() {
		instance = &AppState{
			Config: cfg,
		}
	})
}

func Get() *AppState {
	if instance == nil {
		panic("AppState not initialized")
	}
	return instance
}

func (s *AppState) RenderSize() (int, int) {
	return s.Config.Render.Width, s.Config.Render.Height
}

func (s *AppState) RenderFPS() int {
	return s.Config.Render.FPS
}
