package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/spaghettifunk/prism/engine/config"
	"github.com/spaghettifunk/prism/engine/core"
	"github.com/spaghettifunk/prism/engine/renderer/headless"
	"github.com/spaghettifunk/prism/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// metricsLogInterval is how many frames pass between two frame time reports.
const metricsLogInterval = 300

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	config        *config.Config
	isRunning     bool
	isSuspended   bool
	allocator     *headless.Allocator
	swapChain     *headless.SwapChain
	systemManager *systems.SystemManager
	width         uint32
	height        uint32
	// Size requested by the last resize event, applied between frames.
	pendingWidth  uint32
	pendingHeight uint32
	resizePending bool
	clock         *core.Clock
	metrics       *core.FrameMetrics
	lastTime      float64
}

// New creates the allocator, the swap chain and every engine system, in
// that order.
func New(g *Game, cfg *config.Config) (*Engine, error) {
	policy, err := headless.ParseRingPolicy(cfg.Renderer.RingPolicy)
	if err != nil {
		return nil, err
	}
	allocator, err := headless.New(&headless.AllocatorConfig{
		Width:              cfg.Application.Width,
		Height:             cfg.Application.Height,
		MaxConstantBuffers: cfg.Renderer.MaxConstantBuffers,
		MaxDescriptors:     cfg.Renderer.MaxDescriptors,
		MaxRTVs:            cfg.Renderer.MaxRTVs,
		RingPolicy:         policy,
		GPULatency:         cfg.Renderer.GPULatency,
	})
	if err != nil {
		return nil, err
	}
	bufferCount := int(cfg.Renderer.FramesInFlight)
	if bufferCount < 2 {
		bufferCount = 2
	}
	swapChain, err := headless.NewSwapChain(allocator, bufferCount)
	if err != nil {
		return nil, err
	}

	sm, err := systems.NewSystemManager(cfg, allocator, swapChain)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	g.SystemManager = sm

	return &Engine{
		currentStage:  EngineStageUninitialized,
		gameInstance:  g,
		config:        cfg,
		allocator:     allocator,
		swapChain:     swapChain,
		systemManager: sm,
		width:         cfg.Application.Width,
		height:        cfg.Application.Height,
		clock:         core.NewClock(),
		metrics:       core.NewFrameMetrics(),
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	if !core.EventInitialize() {
		return fmt.Errorf("failed to initialize the event system")
	}
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	core.EventRegister(core.EVENT_CODE_RESIZED, e, e.onResized)

	if err := e.gameInstance.FnInitialize(); err != nil {
		return err
	}
	if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
		return err
	}
	e.currentStage = EngineStageInitialized
	return nil
}

// Run drives the frame loop until ctx is done, a quit event, an error, or
// application.max_frames frames.
func (e *Engine) Run(ctx context.Context) error {
	e.currentStage = EngineStageRunning
	e.isRunning = true
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	maxFrames := e.config.Application.MaxFrames
	for e.isRunning {
		if ctx.Err() != nil {
			core.LogInfo("context done, shutting down.")
			break
		}
		if e.resizePending {
			if err := e.applyResize(); err != nil {
				return err
			}
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStart := currentTime

		if err := e.systemManager.Update(); err != nil {
			core.LogError("failed to apply descriptor changes: %s", err)
			return err
		}
		if err := e.gameInstance.FnUpdate(delta); err != nil {
			core.LogError("game update failed, shutting down: %s", err)
			return err
		}
		if e.isSuspended {
			e.lastTime = currentTime
			continue
		}
		if err := e.gameInstance.FnRender(delta, currentTime); err != nil {
			if errors.Is(err, core.ErrSwapchainBooting) {
				core.LogDebug("swap chain not ready, frame skipped")
				continue
			}
			core.LogError("game render failed, shutting down: %s", err)
			return err
		}

		e.clock.Update()
		e.metrics.Record(e.clock.Elapsed() - frameStart)
		if e.metrics.TotalFrames()%metricsLogInterval == 0 {
			core.LogInfo("%.0f fps, %.3f ms per frame", e.metrics.FPS(), e.metrics.AverageFrameMS())
		}
		e.lastTime = currentTime

		if maxFrames > 0 && e.metrics.TotalFrames() >= maxFrames {
			core.LogInfo("rendered %d frames, stopping", maxFrames)
			e.isRunning = false
		}
	}
	return nil
}

// Frames is the number of frames rendered so far.
func (e *Engine) Frames() uint64 {
	return e.metrics.TotalFrames()
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	var errs []error
	if e.gameInstance.FnShutdown != nil {
		errs = append(errs, e.gameInstance.FnShutdown())
	}
	errs = append(errs,
		e.systemManager.Shutdown(),
		e.allocator.Shutdown(),
		core.EventShutdown(),
	)
	return errors.Join(errs...)
}

// GetFramebufferSize returns the width and height (in this order) of the
// back buffers.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

// Resize asks for new back buffers. The change is applied before the next
// frame. Resize and Quit are meant to be called from game callbacks.
func Resize(width, height uint32) bool {
	var ctx core.EventContext
	ctx.Data.U32[0] = width
	ctx.Data.U32[1] = height
	return core.EventFire(core.EVENT_CODE_RESIZED, nil, ctx)
}

// Quit stops the loop after the current frame.
func Quit() bool {
	return core.EventFire(core.EVENT_CODE_APPLICATION_QUIT, nil, core.EventContext{})
}

func (e *Engine) onEvent(code core.SystemEventCode, sender, listener interface{}, context core.EventContext) bool {
	if code == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning = false
		return true
	}
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender, listener interface{}, context core.EventContext) bool {
	width, height := context.Data.U32[0], context.Data.U32[1]
	if width == e.width && height == e.height && !e.isSuspended {
		return true
	}
	e.pendingWidth = width
	e.pendingHeight = height
	e.resizePending = true
	return true
}

func (e *Engine) applyResize() error {
	e.resizePending = false
	width, height := e.pendingWidth, e.pendingHeight

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return nil
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if width == e.width && height == e.height {
		return nil
	}
	core.LogDebug("Window resize: %d, %d", width, height)

	r := e.systemManager.Renderer()
	if err := r.PreResize(); err != nil {
		return err
	}
	targets, err := e.swapChain.Resize(width, height)
	if err != nil {
		return err
	}
	if err := r.PostResize(width, height, targets); err != nil {
		return err
	}
	e.width, e.height = width, height
	return e.gameInstance.FnOnResize(width, height)
}
