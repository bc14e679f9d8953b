package main

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/repcoach/internal/app"
	"github.com/ayusman/repcoach/internal/config"
	"github.com/ayusman/repcoach/internal/metrics"
	"github.com/ayusman/repcoach/internal/server"
	"github.com/ayusman/repcoach/internal/session"
	"github.com/ayusman/repcoach/internal/store"
	"github.com/ayusman/repcoach/internal/tray"
)

// loadConfig reads the config file when given and applies flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if c.IsSet("config") {
		log.Info().Str("file", c.String("config")).Msg("config")
		var err error
		cfg, err = config.Load(c.String("config"))
		if err != nil {
			return nil, err
		}
	}

	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}
	if c.IsSet("db") {
		cfg.Store.Path = c.String("db")
	}
	if c.IsSet("camera") {
		cfg.Camera.Device = c.Int("camera")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("guest-user") {
		cfg.Session.GuestUser = c.String("guest-user")
	}
	if c.IsSet("exercise") {
		cfg.Session.DefaultExercise = c.String("exercise")
	}
	if c.Bool("no-tray") {
		cfg.Session.Tray = false
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = findWebDir()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setLevel(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

// findWebDir returns the first web directory found near the working
// directory, or "" when there is none.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warn().Err(err).Str("url", url).Msg("failed to open browser")
	}
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := setLevel(cfg.LogLevel); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		return err
	}
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()
	log.Info().Str("db", st.Path()).Msg("store opened")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewManager("repcoach", "coach", reg)

	a, err := app.New(app.Options{Config: cfg, Store: st, Metrics: m})
	if err != nil {
		return err
	}

	srvConfig := server.Config{
		Coach:     a,
		Store:     st,
		StaticDir: cfg.Server.StaticDir,
		Metrics:   m,
	}
	if cfg.Server.Metrics {
		srvConfig.Gatherer = reg
	}
	srv := server.New(srvConfig)

	if cfg.Session.DefaultExercise != "" {
		if _, err := a.StartSession("", cfg.Session.DefaultExercise); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Run(ctx)
	})
	g.Go(func() error {
		return srv.Run(ctx, cfg.Server.Addr)
	})

	if !cfg.Session.Tray {
		return g.Wait()
	}
	return runTray(ctx, stop, g, a, "http://"+cfg.Server.Addr)
}

// runTray shows the tray menu on the calling goroutine until the app stops.
func runTray(ctx context.Context, stop context.CancelFunc, g *errgroup.Group, a *app.App, url string) error {
	t := tray.New()
	t.OnToggle(a.SetEnabled)
	t.OnReset(func() {
		if err := a.ResetSession(ctx); err != nil && !errors.Is(err, app.ErrNoSession) {
			log.Error().Err(err).Msg("reset failed")
		}
	})
	t.OnFinish(func() {
		if _, _, err := a.FinishSession(ctx); err != nil && !errors.Is(err, app.ErrNoSession) {
			log.Error().Err(err).Msg("finish failed")
		}
		t.SetStatus(nil)
	})
	t.OnOpen(func() { openBrowser(url) })
	t.OnQuit(stop)
	a.Subscribe(func(snap session.Snapshot) { t.SetStatus(&snap) })

	errCh := make(chan error, 1)
	go func() {
		errCh <- g.Wait()
		t.Quit()
	}()

	t.Run()
	stop()
	return <-errCh
}

func main() {
	cliApp := &cli.App{
		Name:     "repcoach",
		HelpName: "repcoach",
		Usage:    "Camera-based rep counter and exercise coach",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "TOML configuration file",
				EnvVars: []string{"REPCOACH_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "HTTP listen address",
				EnvVars: []string{"REPCOACH_ADDR"},
			},
			&cli.StringFlag{
				Name:    "db",
				Usage:   "path of the SQLite database",
				EnvVars: []string{"REPCOACH_DB"},
			},
			&cli.IntFlag{
				Name:  "camera",
				Usage: "camera device index, -1 to disable the camera",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "log level (debug, info, warn, error)",
				EnvVars: []string{"REPCOACH_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:  "guest-user",
				Usage: "user id for sessions started without one",
			},
			&cli.StringFlag{
				Name:  "exercise",
				Usage: "exercise to start a session with, e.g. jumping-jacks",
			},
			&cli.BoolFlag{
				Name:  "no-tray",
				Usage: "run without the system tray menu",
			},
		},
		ExitErrHandler: func(c *cli.Context, err error) {
			if err == nil {
				return
			}
			log.Error().Err(err).Msg(c.App.Name)
		},
		Before: func(c *cli.Context) error {
			zerolog.DurationFieldUnit = time.Millisecond
			zerolog.DurationFieldInteger = false
			log.Logger = log.Output(
				zerolog.ConsoleWriter{
					Out:        c.App.ErrWriter,
					NoColor:    false,
					TimeFormat: time.RFC3339,
				},
			)
			return setLevel(c.String("log-level"))
		},
		Action: serve,
	}
	if err := cliApp.RunContext(context.Background(), os.Args); err != nil {
		os.Exit(1)
	}
	os.Exit(0)
}
