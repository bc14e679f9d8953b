// Package config loads the repcoach TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ayusman/repcoach/internal/capture"
	"github.com/ayusman/repcoach/internal/exercise"
	"github.com/ayusman/repcoach/internal/pose"
)

// Config is the full application configuration. Zero-valued fields in the
// file keep their defaults.
type Config struct {
	LogLevel string `toml:"log_level"`

	Server   Server         `toml:"server"`
	Camera   capture.Config `toml:"camera"`
	Detector pose.Config    `toml:"detector"`
	Store    Store          `toml:"store"`
	Coach    Coach          `toml:"coach"`
	Session  Session        `toml:"session"`
}

type Server struct {
	Addr      string `toml:"addr"`
	StaticDir string `toml:"static_dir"`
	Metrics   bool   `toml:"metrics"`
}

type Store struct {
	Path string `toml:"path"`
}

type Coach struct {
	Speech          bool   `toml:"speech"`
	PluginDir       string `toml:"plugin_dir"`
	PluginTimeoutMs int    `toml:"plugin_timeout_ms"`
	MinIntervalMs   int    `toml:"min_interval_ms"`
}

type Session struct {
	// GuestUser is the user id used when a client names none.
	GuestUser string `toml:"guest_user"`
	// DefaultExercise is started when the app launches with the camera.
	DefaultExercise string `toml:"default_exercise"`
	// Tray shows the system tray menu.
	Tray bool `toml:"tray"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: Server{
			Addr:    "127.0.0.1:8080",
			Metrics: true,
		},
		Camera:   capture.DefaultConfig(),
		Detector: pose.DefaultConfig(),
		Store: Store{
			Path: defaultDBPath(),
		},
		Coach: Coach{
			Speech:          true,
			PluginDir:       "plugins",
			PluginTimeoutMs: 5000,
			MinIntervalMs:   1200,
		},
		Session: Session{
			GuestUser:       "guest",
			DefaultExercise: "jumping-jacks",
			Tray:            true,
		},
	}
}

func defaultDBPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "repcoach.db"
	}
	return filepath.Join(dir, "repcoach", "repcoach.db")
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is empty"))
	}
	if c.Store.Path == "" {
		errs = append(errs, errors.New("store.path is empty"))
	}
	if strings.TrimSpace(c.Session.GuestUser) == "" {
		errs = append(errs, errors.New("session.guest_user is empty"))
	}
	if c.Session.DefaultExercise != "" {
		if _, err := exercise.Lookup(c.Session.DefaultExercise); err != nil {
			errs = append(errs, fmt.Errorf("session.default_exercise: %w", err))
		}
	}
	if c.Camera.ActiveFPS < 0 || c.Camera.IdleFPS < 0 {
		errs = append(errs, errors.New("camera fps must not be negative"))
	}
	if c.Coach.PluginTimeoutMs <= 0 {
		errs = append(errs, errors.New("coach.plugin_timeout_ms must be positive"))
	}
	return errors.Join(errs...)
}
