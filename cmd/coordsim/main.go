package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/udisondev/npccoord/internal/ai"
	"github.com/udisondev/npccoord/internal/config"
	"github.com/udisondev/npccoord/internal/db"
	"github.com/udisondev/npccoord/internal/eventlog"
	"github.com/udisondev/npccoord/internal/sim"
)

const ConfigPath = "config/coordsim.yaml"

// encounterTickerID is the TickManager slot of the simulated encounter.
const encounterTickerID = 1

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load config FIRST to determine log level
	cfgPath := ConfigPath
	if p := os.Getenv("NPCCOORD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadSimulation(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	// Enable AI debug logging if log level is debug
	ai.EnableDebugLogging(logLevel == slog.LevelDebug)

	encounterID := uuid.New()
	slog.Info("coordinator simulator starting",
		"config", cfgPath,
		"log_level", cfg.LogLevel,
		"encounter", encounterID,
		"seed", cfg.Seed)

	observers := ai.Observers{ai.NewLogObserver(slog.Default())}

	var (
		recorder *eventlog.Recorder
		events   *db.EventRepository
	)
	if cfg.Database.Enabled {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")

		events = db.NewEventRepository(database.Pool())
		recorder = eventlog.NewRecorder(encounterID, events, cfg.Recorder)
		observers = append(observers, recorder)
	}

	encounter, err := sim.NewEncounter(cfg, ai.WithObserver(observers))
	if err != nil {
		return fmt.Errorf("creating encounter: %w", err)
	}

	if err := runSimulation(ctx, cfg, encounter, recorder); err != nil {
		return err
	}

	summary := encounter.Summary()
	slog.Info("simulation finished",
		"ticks", summary.Ticks,
		"elapsed", summary.Elapsed,
		"player_hp", summary.PlayerHP,
		"player_armor", summary.PlayerArmor,
		"npcs_alive", summary.NpcsAlive,
		"kills", summary.Kills,
		"attacks", summary.Attacks,
		"tokens_held", summary.Coordinator.TokensHeld,
		"slots", summary.Coordinator.Slots)

	if recorder != nil {
		slog.Info("events recorded",
			"written", recorder.Written(),
			"dropped", recorder.Dropped(),
			"failed", recorder.Failed())
		logEventCounts(ctx, events, encounterID)
	}

	return nil
}

// runSimulation ticks encounter until it finishes, cfg.Duration elapses or
// ctx is canceled. The recorder keeps running until the tick loop has
// returned, so events of the last tick are flushed too.
func runSimulation(ctx context.Context, cfg config.Simulation, encounter *sim.Encounter, recorder *eventlog.Recorder) error {
	var (
		runCtx context.Context
		stop   context.CancelFunc
	)
	if cfg.Duration > 0 {
		runCtx, stop = context.WithTimeout(ctx, cfg.Duration)
	} else {
		runCtx, stop = context.WithCancel(ctx)
	}
	defer stop()

	recCtx, stopRecorder := context.WithCancel(context.WithoutCancel(ctx))
	defer stopRecorder()

	g, gctx := errgroup.WithContext(runCtx)

	tickMgr := ai.NewTickManager(cfg.TickInterval)
	tickMgr.Register(encounterTickerID, encounter)
	g.Go(func() error {
		defer stopRecorder()
		if err := tickMgr.Start(gctx); err != nil && !isShutdown(err) {
			return fmt.Errorf("tick manager: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-encounter.Done():
			stop()
		case <-gctx.Done():
		}
		return nil
	})

	if recorder != nil {
		g.Go(func() error {
			if err := recorder.Run(recCtx); err != nil {
				return fmt.Errorf("event recorder: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("simulation error: %w", err)
	}
	return nil
}

// logEventCounts prints the per-kind event breakdown stored for encounter.
func logEventCounts(ctx context.Context, events *db.EventRepository, encounterID uuid.UUID) {
	qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	counts, err := events.KindCounts(qctx, encounterID)
	if err != nil {
		slog.Warn("reading event counts", "err", err)
		return
	}
	for kind, n := range counts {
		slog.Info("event count", "kind", kind, "count", n)
	}
}

func isShutdown(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
