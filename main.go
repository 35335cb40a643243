// Command voicesmith runs the temporary voice channel bot.
// It:
//   - Loads configuration and initializes structured logging.
//   - Optionally connects to Postgres for the lifecycle journal and runs
//     idempotent migrations.
//   - Connects to the Discord gateway and dispatches voice-presence
//     notifications into the lifecycle service.
//   - Starts the reconcile sweep for stale tracked channels.
//   - Exposes a minimal HTTP server with /healthz, /readyz, /status,
//     /channels, and /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/voicesmith/config"
	"github.com/onnwee/voicesmith/db"
	"github.com/onnwee/voicesmith/discordapi"
	"github.com/onnwee/voicesmith/gateway"
	"github.com/onnwee/voicesmith/server"
	"github.com/onnwee/voicesmith/telemetry"
	"github.com/onnwee/voicesmith/voice"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load()

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	var handler slog.Handler
	switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdownTracing, err := telemetry.InitTracing("voicesmith", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdownTracing()

	// Optional journal DB
	var journal voice.Journal
	if cfg.DBDsn != "" {
		database, err := db.Connect(cfg.DBDsn)
		if err != nil {
			slog.Error("failed to open db", slog.Any("err", err))
			os.Exit(1)
		}
		defer func() {
			if err := database.Close(); err != nil {
				slog.Error("failed to close database", slog.Any("err", err))
			}
		}()
		slog.Info("running database migrations", slog.String("component", "db_migrate"))
		if err := db.RunMigrations(database); err != nil {
			slog.Warn("versioned migrations failed, attempting fallback to embedded SQL",
				slog.Any("err", err),
				slog.String("component", "db_migrate"))
			if err := db.Migrate(context.Background(), database); err != nil {
				slog.Error("failed to migrate db", slog.Any("err", err))
				os.Exit(1)
			}
		}
		journal = db.NewJournal(database)
		slog.Info("lifecycle journal enabled")
	} else {
		slog.Info("lifecycle journal disabled (DB_DSN not set)")
	}

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Platform session: REST + gateway socket + state cache.
	rest := &discordapi.Client{Token: cfg.BotToken}
	session := gateway.NewSession(rest)

	// Verify the credential before serving anything.
	{
		vctx, cancel := context.WithTimeout(ctx, 8*time.Second)
		me, err := rest.CurrentUser(vctx)
		cancel()
		if err != nil {
			slog.Error("credential check failed", slog.Any("err", err))
			os.Exit(1)
		}
		slog.Info("authenticated", slog.String("bot_user", me.Username), slog.String("bot_id", string(me.ID)))
	}

	svc := voice.New(session, journal, voice.Options{
		CreatorChannelID:  cfg.CreatorChannelID,
		WaitingRoomID:     cfg.WaitingRoomID,
		GracePeriod:       cfg.GracePeriod,
		ReconcileInterval: cfg.ReconcileInterval,
	})
	svc.Start(ctx)

	session.OnVoiceUpdate = func(evCtx context.Context, ev gateway.VoiceUpdate) {
		svc.HandleVoiceUpdate(evCtx, voice.Event{
			GuildID:       ev.GuildID,
			UserID:        ev.UserID,
			PrevChannelID: ev.PrevChannelID,
			NewChannelID:  ev.NewChannelID,
			Member:        ev.Member,
		})
	}

	slog.Info("starting gateway",
		slog.String("creator_channel_id", string(cfg.CreatorChannelID)),
		slog.Bool("hardened_overlay", cfg.Hardened()),
		slog.Duration("grace_period", cfg.GracePeriod))
	gatewayErr := make(chan error, 1)
	go func() { gatewayErr <- session.Run(ctx) }()

	// HTTP server (health/status/metrics). Serves immediately so liveness
	// probes answer while the gateway is still connecting; /readyz stays
	// 503 until it is up.
	handlers := server.NewHandlers(svc.Registry(), session)
	go func() {
		if err := server.Start(ctx, handlers, cfg.HTTPAddr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Fail fast if the first connection never comes up.
	select {
	case <-session.Ready():
	case err := <-gatewayErr:
		slog.Error("gateway failed before ready", slog.Any("err", err))
		os.Exit(1)
	case <-time.After(60 * time.Second):
		slog.Error("gateway did not become ready in time")
		os.Exit(1)
	case <-ctx.Done():
		return
	}

	// Block until shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")
}
