package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	corecfg "github.com/fireteam-lab/fireteam/internal/core/config"
	"github.com/fireteam-lab/fireteam/internal/core/storage/postgres"
	"github.com/fireteam-lab/fireteam/internal/discord"
	"github.com/fireteam-lab/fireteam/internal/eventmgr"
	"github.com/fireteam-lab/fireteam/internal/guild"
	"github.com/fireteam-lab/fireteam/internal/lfg"
	"github.com/fireteam-lab/fireteam/internal/migrations"
	"github.com/fireteam-lab/fireteam/internal/notify"
	"github.com/fireteam-lab/fireteam/internal/scheduler"
	"github.com/fireteam-lab/fireteam/internal/server"
	"github.com/fireteam-lab/fireteam/internal/views"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config", "store", cfg.Store.Type, "notify", cfg.Notify.Target, "transport", cfg.Notify.Transport)

	layout, err := guild.LoadLayout(cfg.Guilds.LayoutFile)
	if err != nil {
		slog.Error("Failed to load guild layout", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Initialize Storage
	checks := map[string]server.HealthChecker{}
	var stores guild.StoreFactory
	switch cfg.Store.Type {
	case "postgres":
		dbAdapter, err := postgres.NewAdapter(
			cfg.Store.DSN,
			cfg.Store.MaxOpenConns,
			cfg.Store.MaxIdleConns,
			migrations.Hook(cfg.Store.AutoMigrate),
		)
		if err != nil {
			slog.Error("Failed to initialize database", "error", err)
			os.Exit(1)
		}
		defer dbAdapter.Close()
		checks["database"] = dbAdapter
		stores = guild.PostgresStores(dbAdapter)
	case "memory":
		slog.Warn("Using in-memory store, events will not survive a restart")
		stores = guild.MemoryStores()
	default:
		stores = guild.FilesystemStores(cfg.Store.Dir)
	}

	// 3. Initialize Chat Sinks
	sinks := views.MemorySinks()
	var client *discord.Client
	if cfg.Discord.Enabled {
		client = discord.NewClient(discord.Config{
			BaseURL:    cfg.Discord.BaseURL,
			Token:      cfg.Discord.Token,
			BotUserID:  cfg.Discord.BotUserID,
			Timeout:    cfg.Discord.Timeout,
			RetryCount: cfg.Discord.RetryCount,
		})
		sinks = client.Sinks()
	} else {
		slog.Warn("Discord disabled, event messages are kept in memory only")
	}

	// 4. Initialize Notifications
	var target notify.Notifier = notify.LogNotifier{}
	if cfg.Notify.Target == "discord" {
		target = discord.NewDMNotifier(client)
	}

	group, ctx := errgroup.WithContext(ctx)

	notifier := target
	if cfg.Notify.Transport != "direct" {
		wmLogger := notify.NewLogger(logger)
		transport, err := notify.NewTransport(ctx, notify.TransportConfig{
			Kind:          cfg.Notify.Transport,
			RedisAddr:     cfg.Notify.RedisAddr,
			RedisPassword: cfg.Notify.RedisPassword,
			RedisDB:       cfg.Notify.RedisDB,
			ConsumerGroup: cfg.Notify.ConsumerGroup,
		}, wmLogger)
		if err != nil {
			slog.Error("Failed to initialize notification transport", "error", err)
			os.Exit(1)
		}
		defer transport.Close()

		dispatcher, err := notify.NewDispatcher(transport.Subscriber, cfg.Notify.Topic, target, notify.RetryConfig{
			MaxRetries:      cfg.Notify.MaxRetries,
			InitialInterval: cfg.Notify.RetryInitial,
			MaxInterval:     cfg.Notify.RetryMaxWait,
		}, wmLogger)
		if err != nil {
			slog.Error("Failed to initialize notification dispatcher", "error", err)
			os.Exit(1)
		}
		group.Go(func() error { return dispatcher.Run(ctx) })
		notifier = notify.NewPublisher(transport.Publisher, cfg.Notify.Topic)
	}

	// 5. Initialize Guild Managers
	var sweeper *views.Sweeper
	if cfg.Views.ResyncSchedule != "" {
		sweeper, err = views.NewSweeper(cfg.Views.ResyncSchedule)
		if err != nil {
			slog.Error("Failed to schedule view resync", "error", err)
			os.Exit(1)
		}
		sweeper.Start()
		defer sweeper.Stop()
	}

	app := guild.New(ctx, guild.Options{
		Template: eventmgr.Config{
			Scheduler: scheduler.Config{
				AlertLead:    cfg.Scheduler.AlertLead,
				CleanupGrace: cfg.Scheduler.CleanupGrace,
			},
			Views: views.ChannelConfig{
				QueueSize:    cfg.Views.QueueSize,
				RetryInitial: cfg.Views.RetryInitial,
				RetryMax:     cfg.Views.RetryMax,
			},
			AllowDuplicateJoin: cfg.Debug.AllowDuplicateJoin,
		},
		Layout:   layout,
		Stores:   stores,
		Sinks:    sinks,
		Notifier: notifier,
		Clock:    clockwork.NewRealClock(),
		Sweeper:  sweeper,
	})
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("Failed to stop guild managers", "error", err)
		}
	}()

	if err := app.AddGuilds(ctx, cfg.Guilds.IDs); err != nil {
		slog.Error("Failed to start guilds", "error", err)
		os.Exit(1)
	}
	slog.Info("Guild managers initialized", "guilds", app.Guilds())

	// 6. Initialize Server
	lfgSvc := lfg.NewService(app, cfg.Server.MaxBodySizeKB, cfg.Events.CalendarDuration)
	srv := server.New(cfg.Server.Addr(), cfg.Server.Mode, checks)
	lfgSvc.RegisterRoutes(srv.Engine)

	// Signal handler triggers the shutdown sequence below.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// 7. Start Services
	group.Go(func() error { return srv.Run(ctx) })
	if err := group.Wait(); err != nil {
		slog.Error("Service stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}
