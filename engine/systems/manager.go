package systems

import (
	"errors"
	"runtime"

	"github.com/spaghettifunk/prism/engine/assets"
	"github.com/spaghettifunk/prism/engine/config"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer"
	"github.com/spaghettifunk/prism/engine/renderer/views"
)

// jobQueueSize bounds the jobs waiting for a worker.
const jobQueueSize = 64

/**
 * @brief Owns every engine system. Construction follows the dependency
 * order allocator, store, renderer; Shutdown tears down in reverse.
 */
type SystemManager struct {
	jobSystem      *JobSystem
	textureSystem  *TextureSystem
	store          *assets.Store
	watcher        *assets.Watcher
	overlay        *views.DebugOverlay
	rendererSystem *RendererSystem
}

func NewSystemManager(cfg *config.Config, allocator renderer.Allocator, swapChain renderer.SwapChain) (*SystemManager, error) {
	js, err := NewJobSystem(runtime.NumCPU(), jobQueueSize)
	if err != nil {
		return nil, err
	}

	store, err := assets.NewStore(assets.StoreConfig{
		RootPath:             cfg.Assets.Root,
		ShaderPath:           cfg.Assets.ShaderPath,
		AllowOnDemandLoading: cfg.Assets.OnDemand,
		PrintLoadingProgress: cfg.Assets.PrintProgress,
	}, allocator)
	if err != nil {
		return nil, errors.Join(err, js.Shutdown())
	}

	ts, err := NewTextureSystem(js, store)
	if err != nil {
		return nil, errors.Join(err, js.Shutdown())
	}

	var watcher *assets.Watcher
	if cfg.Assets.Watch {
		if watcher, err = assets.NewWatcher(cfg.Assets.Root); err != nil {
			return nil, errors.Join(err, js.Shutdown())
		}
		if err := watcher.Start(); err != nil {
			return nil, errors.Join(err, watcher.Close(), js.Shutdown())
		}
	}

	overlay := views.NewDebugOverlay(store, true)
	rs, err := NewRendererSystem(RendererConfig{
		VSync:           cfg.Application.VSync,
		CompositeSource: cfg.Renderer.CompositeSource,
	}, store, swapChain, overlay)
	if err != nil {
		if watcher != nil {
			err = errors.Join(err, watcher.Close())
		}
		return nil, errors.Join(err, js.Shutdown())
	}

	return &SystemManager{
		jobSystem:      js,
		textureSystem:  ts,
		store:          store,
		watcher:        watcher,
		overlay:        overlay,
		rendererSystem: rs,
	}, nil
}

func (sm *SystemManager) Store() *assets.Store {
	return sm.store
}

func (sm *SystemManager) Renderer() *RendererSystem {
	return sm.rendererSystem
}

func (sm *SystemManager) Overlay() *views.DebugOverlay {
	return sm.overlay
}

// PreloadTextures decodes the named textures in parallel and registers them.
func (sm *SystemManager) PreloadTextures(names []string) (int, error) {
	return sm.textureSystem.PreloadTextures(names)
}

// CreateSky builds the sky drawn by the renderer from the next frame on.
func (sm *SystemManager) CreateSky(meshName, cubeMapName string) (*views.Sky, error) {
	return views.NewSky(sm.store, meshName, cubeMapName)
}

// Update applies descriptor changes picked up by the watcher. It runs on the
// render goroutine, between frames.
func (sm *SystemManager) Update() error {
	if sm.watcher == nil {
		return nil
	}
	changes := sm.watcher.Drain()
	if len(changes) == 0 {
		return nil
	}
	core.LogDebug("%d descriptor changes detected", len(changes))
	return sm.store.ApplyDescriptorChanges(changes)
}

func (sm *SystemManager) Shutdown() error {
	if err := sm.rendererSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.store.Shutdown(); err != nil {
		return err
	}
	if sm.watcher != nil {
		if err := sm.watcher.Close(); err != nil {
			return err
		}
	}
	return sm.jobSystem.Shutdown()
}
