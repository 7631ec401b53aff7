package engine

import (
	"context"
	"errors"

	"github.com/spaghettifunk/prism/engine/config"
	"github.com/spaghettifunk/prism/engine/core"
)

// Run loads the configuration at configPath, applies the log level and
// drives game from initialization to shutdown. Cancelling ctx stops the loop.
func Run(ctx context.Context, game *Game, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	level, err := core.ParseLogLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	core.SetLogLevel(level)
	if game.Name == "" {
		game.Name = cfg.Application.Name
	}
	core.LogInfo("starting %s (%dx%d)", game.Name, cfg.Application.Width, cfg.Application.Height)

	e, err := New(game, cfg)
	if err != nil {
		return err
	}
	if err := e.Initialize(); err != nil {
		core.LogError("failed to initialize: %s", err)
		return errors.Join(err, e.Shutdown())
	}
	if err := e.Run(ctx); err != nil {
		return errors.Join(err, e.Shutdown())
	}
	return e.Shutdown()
}
