package engine

import (
	"github.com/spaghettifunk/prism/engine/systems"
)

/**
 * @brief The application driven by the engine. SystemManager is set by the
 * engine before FnInitialize runs.
 */
type Game struct {
	Name          string
	SystemManager *systems.SystemManager
	State         interface{}
	FnInitialize  Initialize
	FnUpdate      Update
	FnRender      Render
	FnOnResize    OnResize
	FnShutdown    Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error
type Render func(deltaTime, totalTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
