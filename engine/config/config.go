package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is the configuration file looked up next to the binary's working directory.
const DefaultPath = "prism.toml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PRISM_"

type ApplicationConfig struct {
	Name   string `toml:"name"`
	Width  uint32 `toml:"width"`
	Height uint32 `toml:"height"`
	VSync  bool   `toml:"vsync"`
	// MaxFrames stops the loop after that many frames, zero runs until shutdown.
	MaxFrames uint64 `toml:"max_frames"`
}

type AssetsConfig struct {
	Root string `toml:"root"`
	// ShaderPath is where compiled shader blobs live, the executable directory when empty.
	ShaderPath    string `toml:"shader_path"`
	OnDemand      bool   `toml:"on_demand"`
	PrintProgress bool   `toml:"print_progress"`
	Watch         bool   `toml:"watch"`
}

type RendererConfig struct {
	MaxConstantBuffers uint32 `toml:"max_constant_buffers"`
	MaxDescriptors     uint32 `toml:"max_descriptors"`
	MaxRTVs            uint32 `toml:"max_rtvs"`
	FramesInFlight     uint32 `toml:"frames_in_flight"`
	RingPolicy         string `toml:"ring_policy"`
	CompositeSource    string `toml:"composite_source"`
	// GPULatency is the number of submissions the headless queue lags behind.
	GPULatency uint32 `toml:"gpu_latency"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type Config struct {
	Application ApplicationConfig `toml:"application"`
	Assets      AssetsConfig      `toml:"assets"`
	Renderer    RendererConfig    `toml:"renderer"`
	Log         LogConfig         `toml:"log"`
}

const (
	RingPolicyBlock  = "block"
	RingPolicyReject = "reject"
)

func Default() *Config {
	return &Config{
		Application: ApplicationConfig{
			Name:   "Prism",
			Width:  1280,
			Height: 720,
		},
		Assets: AssetsConfig{
			Root:          "assets",
			OnDemand:      true,
			PrintProgress: true,
		},
		Renderer: RendererConfig{
			MaxConstantBuffers: 1000,
			MaxDescriptors:     1000,
			MaxRTVs:            1000,
			FramesInFlight:     2,
			RingPolicy:         RingPolicyBlock,
			CompositeSource:    "colorNoAmbient",
			GPULatency:         1,
		},
		Log: LogConfig{
			Level: "debug",
		},
	}
}

// Load reads the TOML file at path on top of the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	var errs []error
	u32 := func(key string, dst *uint32) {
		if v, ok := lookup(EnvPrefix + key); ok {
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = uint32(n)
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(EnvPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}

	str("ASSET_ROOT", &c.Assets.Root)
	str("SHADER_PATH", &c.Assets.ShaderPath)
	boolean("ON_DEMAND", &c.Assets.OnDemand)
	boolean("PRINT_PROGRESS", &c.Assets.PrintProgress)
	boolean("WATCH", &c.Assets.Watch)
	u32("WIDTH", &c.Application.Width)
	u32("HEIGHT", &c.Application.Height)
	boolean("VSYNC", &c.Application.VSync)
	str("RING_POLICY", &c.Renderer.RingPolicy)
	str("COMPOSITE_SOURCE", &c.Renderer.CompositeSource)
	str("LOG_LEVEL", &c.Log.Level)
	if v, ok := lookup(EnvPrefix + "MAX_FRAMES"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sMAX_FRAMES: %w", EnvPrefix, err))
		} else {
			c.Application.MaxFrames = n
		}
	}
	return errors.Join(errs...)
}

func (c *Config) Validate() error {
	if c.Application.Width == 0 || c.Application.Height == 0 {
		return fmt.Errorf("invalid window size %dx%d", c.Application.Width, c.Application.Height)
	}
	switch strings.ToLower(c.Renderer.RingPolicy) {
	case RingPolicyBlock, RingPolicyReject:
	default:
		return fmt.Errorf("unknown ring policy %q", c.Renderer.RingPolicy)
	}
	if c.Renderer.MaxConstantBuffers == 0 {
		return fmt.Errorf("max_constant_buffers must be positive")
	}
	if c.Renderer.FramesInFlight == 0 {
		return fmt.Errorf("frames_in_flight must be positive")
	}
	return nil
}
