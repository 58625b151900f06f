package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/ayusman/handray/internal/app"
	"github.com/ayusman/handray/internal/capture"
	"github.com/ayusman/handray/internal/config"
	"github.com/ayusman/handray/internal/detector"
	"github.com/ayusman/handray/internal/gesture"
	"github.com/ayusman/handray/internal/hand"
	"github.com/ayusman/handray/internal/plugin"
	"github.com/ayusman/handray/internal/provider"
	"github.com/ayusman/handray/internal/server"
	"github.com/ayusman/handray/internal/store"
	"github.com/ayusman/handray/internal/tray"
)

const version = "0.3.0"

func main() {
	var (
		configPath  = flag.String("config", "", "Path to a YAML config file")
		addr        = flag.String("addr", "", "HTTP listen address")
		source      = flag.String("source", "", "Tracking source: webcam, push or replay")
		recording   = flag.String("recording", "", "Recording id or name to replay")
		camera      = flag.Int("camera", 0, "Webcam device id")
		logLevel    = flag.String("log-level", "", "Log level: error, warn, info, debug")
		showTray    = flag.Bool("tray", false, "Show the system tray menu")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("handray v%s\n", version)
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	// Only flags given on the command line override the file.
	var overrides config.FlagOverrides
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			overrides.Addr = addr
		case "source":
			overrides.Source = source
		case "recording":
			overrides.Recording = recording
		case "camera":
			overrides.CameraID = camera
		case "log-level":
			overrides.LogLevel = logLevel
		case "tray":
			overrides.Tray = showTray
		}
	})
	overrides.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	level, _ := config.ParseLogLevel(cfg.Logging.Level)
	logger := config.NewLogger(level, os.Stderr)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("handray failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPath := config.ExpandPath(cfg.Store.Path)
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	src, push, err := newProvider(cfg, st, logger)
	if err != nil {
		return err
	}

	var dispatcher *plugin.Dispatcher
	if cfg.Plugins.Dir != "" {
		manager := plugin.NewManager(config.ExpandPath(cfg.Plugins.Dir), logger)
		if err := manager.Discover(); err != nil {
			logger.Warn("plugin discovery failed", "dir", manager.PluginDir(), "error", err)
		} else {
			logger.Info("plugins loaded", "count", len(manager.List()))
		}
		dispatcher = plugin.NewDispatcher(manager, plugin.NewExecutor(cfg.Plugins.Timeout()), cfg.Plugins.Queue, logger)
		defer dispatcher.Close()
	}

	hub := server.NewHub(logger, server.HubConfig{
		SendBuf:      cfg.Stream.SendBuf,
		BroadcastBuf: cfg.Stream.BroadcastBuf,
	})
	go hub.Run(ctx)

	publishers := app.Publishers{hub}
	var menu *tray.Tray
	if cfg.Tray.Enabled {
		menu = tray.New(true)
		publishers = append(publishers, menu)
	}

	a, err := app.New(app.Config{
		Provider:  src,
		Store:     st,
		Tuning:    cfg.Tuning,
		Publisher: publishers,
		Plugins:   dispatcher,
		Logger:    logger,
	})
	if err != nil {
		src.Close()
		return err
	}
	defer a.Close()

	a.SetEnabled(true)
	a.Start(ctx)

	srv := server.New(server.Config{
		StaticDir: staticDir(cfg.Server.StaticDir),
		Store:     st,
		Tracker:   a,
		Recorder:  a,
		Profiles:  a,
		Hub:       hub,
		Push:      push,
		Logger:    logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, cfg.Server.Addr)
	}()

	if menu != nil {
		menu.OnToggle(a.SetEnabled)
		menu.OnRecenter(func(h hand.Handedness) {
			if err := a.Recenter(h); err != nil {
				logger.Warn("recenter failed", "hand", h.String(), "error", err)
			}
		})
		menu.OnSettings(func() { openBrowser(cfg.Server.Addr, logger) })
		menu.OnQuit(stop)
		go func() {
			<-ctx.Done()
			menu.Quit()
		}()
		// The tray owns the main thread until it quits.
		menu.Run()
		stop()
	}

	select {
	case err := <-errCh:
		return err
	case <-a.Done():
		logger.Info("tracking source finished, serving until interrupted")
		<-ctx.Done()
		return <-errCh
	}
}

// newProvider builds the configured tracking source. The push provider is
// also returned so the server can feed it; it is nil for other sources.
func newProvider(cfg config.Config, st *store.Store, logger *slog.Logger) (provider.Provider, *provider.Push, error) {
	switch cfg.Source.Kind {
	case config.SourcePush:
		push := provider.NewPush(cfg.Source.PushBuffer)
		return push, push, nil

	case config.SourceReplay:
		rec, err := st.Recordings().GetByID(cfg.Source.Recording)
		if errors.Is(err, store.ErrNotFound) {
			rec, err = st.Recordings().GetByName(cfg.Source.Recording)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("recording %q: %w", cfg.Source.Recording, err)
		}
		frames, err := st.Recordings().Frames(rec.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("recording %q: %w", rec.Name, err)
		}
		logger.Info("replaying recording", "recording", rec.Name, "frames", len(frames))
		return provider.NewReplay(frames, provider.ReplayOptions{
			Realtime: cfg.Source.Realtime,
			Loop:     cfg.Source.Loop,
		}), nil, nil

	default:
		det, err := detector.NewMediaPipeDetector(detector.Config{
			Python:        cfg.Detector.Python,
			Script:        cfg.Detector.Script,
			MaxHands:      cfg.Detector.MaxHands,
			MinConfidence: cfg.Detector.MinConfidence,
			IdleTimeout:   cfg.Detector.IdleTimeout(),
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("hand detector: %w", err)
		}
		webcam, err := provider.NewWebcam(provider.WebcamConfig{
			Camera:     capture.NewCamera(cfg.Source.CameraID),
			Detector:   det,
			Classifier: gesture.NewClassifier(gesture.DefaultClassifierConfig(), nil),
			Projection: detector.DefaultProjection(),
			Motion:     capture.NewMotionDetector(cfg.Source.MotionThreshold),
			Logger:     logger,
		})
		if err != nil {
			det.Close()
			return nil, nil, err
		}
		return webcam, nil, nil
	}
}

// staticDir returns configured when set, else the first web directory found
// next to the working directory or under ~/.handray.
func staticDir(configured string) string {
	if configured != "" {
		return config.ExpandPath(configured)
	}
	candidates := []string{"web", "../web", config.ExpandPath("~/.handray/web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func openBrowser(addr string, logger *slog.Logger) {
	url := "http://" + addr
	if strings.HasPrefix(addr, ":") {
		url = "http://localhost" + addr
	}

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
		logger.Warn("open browser failed", "url", url, "error", err)
	}
}
