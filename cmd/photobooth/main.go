package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ayusman/photobooth/internal/app"
	"github.com/ayusman/photobooth/internal/capture"
	"github.com/ayusman/photobooth/internal/config"
	"github.com/ayusman/photobooth/internal/detector"
	"github.com/ayusman/photobooth/internal/hook"
	"github.com/ayusman/photobooth/internal/log"
	"github.com/ayusman/photobooth/internal/preview"
	"github.com/ayusman/photobooth/internal/server"
	"github.com/ayusman/photobooth/internal/tray"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "photobooth: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	parseFlags(cfg, os.Args[1:])
	if err := cfg.Validate(); err != nil {
		return err
	}

	log.Init(cfg.LogLevel, cfg.LogFormat)
	log.Info("photobooth starting", "ui", cfg.UI, "addr", cfg.Addr, "camera", cfg.CameraID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	camera := capture.NewCamera(cfg.CameraID)
	camera.SetResolution(cfg.Width, cfg.Height)

	// In window mode the preview's update tick paces the loop.
	var frameClock *app.FrameClock
	appCfg := app.Config{
		Camera:          camera,
		FPS:             cfg.FPS,
		CaptureCooldown: cfg.CaptureCooldown,
	}
	if cfg.UI == config.UIWindow {
		frameClock = app.NewFrameClock()
		appCfg.Clock = frameClock
	}
	session := app.New(appCfg)
	defer session.Close()

	if cfg.HookPlugin != "" {
		dispatcher, err := newDispatcher(cfg)
		if err != nil {
			return err
		}
		defer dispatcher.Close()
		session.Subscribe(func(e app.Event) {
			if e.Photo == nil {
				return
			}
			dispatcher.Dispatch(hook.CaptureParams{
				PhotoID:    e.Photo.ID,
				Width:      e.Photo.Width,
				Height:     e.Photo.Height,
				CapturedAt: e.Photo.CapturedAt,
			})
		})
	}

	go func() {
		for err := range session.Start(ctx, detectorLoader(cfg)) {
			if err != nil {
				log.Warn("startup task failed, gesture detection will not run", "err", err)
			}
		}
	}()

	srv := server.New(server.Config{
		StaticDir: cfg.StaticDir,
		Session:   session,
	})
	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.ListenAndServe(ctx, cfg.Addr)
	}()

	url := "http://" + cfg.Addr
	switch cfg.UI {
	case config.UITray:
		t := tray.New()
		t.OnOpen(func() {
			if err := openBrowser(url); err != nil {
				log.Warn("open browser", "url", url, "err", err)
			}
		})
		t.OnQuit(stop)
		session.Subscribe(t.Update)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		t.Run()
		stop()

	case config.UIWindow:
		w := preview.New(session, frameClock, ".")
		if err := w.Run(); err != nil {
			log.Error("preview window failed", "err", err)
		}
		stop()

	default:
		log.Info("open the photobooth page", "url", url)
		select {
		case <-ctx.Done():
		case err := <-srvErr:
			return fmt.Errorf("http server: %w", err)
		}
	}

	if err := <-srvErr; err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	log.Info("photobooth stopped")
	return nil
}

// parseFlags overrides environment settings with command line flags.
func parseFlags(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("photobooth", flag.ExitOnError)
	fs.IntVar(&cfg.CameraID, "camera", cfg.CameraID, "camera device id")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "requested frame width")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "requested frame height")
	fs.IntVar(&cfg.FPS, "fps", cfg.FPS, "gesture loop rate when not driven by the preview window")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fs.StringVar(&cfg.StaticDir, "static", cfg.StaticDir, "serve the page from this directory instead of the embedded one")
	fs.StringVar(&cfg.UI, "ui", cfg.UI, "host surface: web, tray or window")
	fs.DurationVar(&cfg.CaptureCooldown, "cooldown", cfg.CaptureCooldown, "minimum time between captures (0 captures every matching frame)")
	fs.StringVar(&cfg.HookDir, "hook-dir", cfg.HookDir, "capture hook plugin directory")
	fs.StringVar(&cfg.HookPlugin, "hook-plugin", cfg.HookPlugin, "capture hook plugin name")
	fs.StringVar(&cfg.HookAction, "hook-action", cfg.HookAction, "capture hook plugin action")
	fs.BoolVar(&cfg.MockFallback, "mock-fallback", cfg.MockFallback, "use a detector that sees no hands when MediaPipe is unavailable")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.Parse(args)
}

func detectorLoader(cfg *config.Config) app.Loader {
	detCfg := detector.DefaultConfig()
	detCfg.MaxHands = cfg.MaxHands
	detCfg.MinConfidence = cfg.MinConfidence
	detCfg.MinTrackingConf = cfg.MinTrackingConf
	detCfg.ScriptPath = cfg.ScriptPath
	detCfg.PythonPath = cfg.PythonPath

	return func(ctx context.Context) (detector.Detector, error) {
		d, err := detector.Load(ctx, detCfg)
		if err == nil {
			return d, nil
		}
		if cfg.MockFallback {
			log.Warn("MediaPipe unavailable, using mock detector", "err", err)
			return detector.NewMockDetector(), nil
		}
		return nil, err
	}
}

func newDispatcher(cfg *config.Config) (*hook.Dispatcher, error) {
	mgr := hook.NewManager(cfg.HookDir)
	if err := mgr.Discover(); err != nil {
		return nil, fmt.Errorf("discover hooks: %w", err)
	}
	d, err := hook.NewDispatcher(mgr, hook.NewExecutor(cfg.HookTimeout), cfg.HookPlugin, cfg.HookAction)
	if err != nil {
		return nil, fmt.Errorf("capture hook: %w", err)
	}
	log.Info("capture hook enabled", "plugin", cfg.HookPlugin, "action", cfg.HookAction)
	return d, nil
}
