// Command voxsat is the main entry point for the voxsat voice satellite.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MrWong99/voxsat/internal/app"
	"github.com/MrWong99/voxsat/internal/config"
	"github.com/MrWong99/voxsat/internal/observe"
	"github.com/MrWong99/voxsat/internal/wakeword"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("voxsat", app.Version)
		return 0
	}

	// ── Wake word backends ─────────────────────────────────────────────────────
	// Registered before the config loads so declaration validation can name
	// the known backends in its warnings.
	registerBuiltinBackends()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voxsat: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "voxsat: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	// The level lives in a LevelVar so a config reload can change it without
	// swapping the handler.
	level := new(slog.LevelVar)
	level.Set(app.SlogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("voxsat starting",
		"config", *configPath,
		"device", cfg.Device.Name,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(context.Background(), observe.ProviderConfig{
		ServiceName:    "voxsat",
		ServiceVersion: app.Version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(ctx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Startup summary ───────────────────────────────────────────────────────
	printStartupSummary(cfg)

	application, err := app.New(ctx, cfg, app.WithLogLevelVar(level))
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	// ── Config hot reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, application.ApplyConfigChange)
	if err != nil {
		// Not fatal: the already-loaded config keeps the satellite running.
		slog.Warn("config watcher disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	slog.Info("satellite ready — press Ctrl+C to shut down")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutdown signal received, stopping…")

	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Wake word backend wiring ──────────────────────────────────────────────────

// registerBuiltinBackends wires the shipped wake word backends. Inference
// always runs in a helper process; the openwakeword and microwakeword
// backends expect their voxsat-<backend> helper on PATH, while "external"
// takes the helper command straight from the declaration.
func registerBuiltinBackends() {
	for _, backend := range []string{"openwakeword", "microwakeword"} {
		helper := "voxsat-" + backend
		config.RegisterBackend(backend, func(w config.WakeWordConfig) (wakeword.Model, error) {
			cmd := []string{helper}
			if w.ModelPath != "" {
				cmd = append(cmd, w.ModelPath)
			}
			return wakeword.NewExternalModel(w.ID, cmd)
		})
	}

	config.RegisterBackend("external", func(w config.WakeWordConfig) (wakeword.Model, error) {
		if len(w.Command) == 0 {
			return nil, fmt.Errorf("wake word %q: the external backend requires a command", w.ID)
		}
		cmd := append([]string{}, w.Command...)
		if w.ModelPath != "" {
			cmd = append(cmd, w.ModelPath)
		}
		return wakeword.NewExternalModel(w.ID, cmd)
	})
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║          voxsat — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printField("Device", cfg.Device.Name)
	printField("Listen addr", cfg.Server.ListenAddr)
	printField("Health addr", cfg.Health.ListenAddr)
	printField("Wake words", strings.Join(cfg.Voice.ActiveWakeWords, ", "))
	if cfg.StopWord != nil {
		printField("Stop word", cfg.StopWord.ID)
	} else {
		printField("Stop word", "(disabled)")
	}
	if cfg.Server.Password != "" {
		printField("Password", "set")
	} else {
		printField("Password", "(none)")
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printField(name, value string) {
	if value == "" {
		value = "(not configured)"
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", name, value)
}
