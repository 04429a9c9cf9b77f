package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	apiPkg "github.com/YOU34cz/ticket-bot/internal/api"
	"github.com/YOU34cz/ticket-bot/internal/command"
	"github.com/YOU34cz/ticket-bot/internal/config"
	"github.com/YOU34cz/ticket-bot/internal/gateway/discord"
	"github.com/YOU34cz/ticket-bot/internal/lifecycle"
	"github.com/YOU34cz/ticket-bot/internal/logbuf"
	"github.com/YOU34cz/ticket-bot/internal/metrics"
	"github.com/YOU34cz/ticket-bot/internal/notify"
	"github.com/YOU34cz/ticket-bot/internal/ticket"
)

func main() {
	configPath := flag.String("config", "", "Path to config JSON file")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	// Set up logging
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logBuf := logbuf.New(2000)
	jsonHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(logbuf.NewHandler(jsonHandler, logBuf))

	// Optional .env file for local development; env mode picks it up.
	godotenv.Load()

	// Load config (2 modes: file, env)
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("ticketd starting", "prefix", cfg.Prefix)

	// 1. Open the ticket store
	dbPath := cfg.DataDir + "/tickets.db"
	os.MkdirAll(cfg.DataDir, 0o755)
	store, err := ticket.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Error("failed to open ticket store", "path", dbPath, "error", err)
		os.Exit(1)
	}

	// Seed the open-tickets gauge from whatever survived the last run.
	if open, err := store.CountOpen(); err == nil {
		metrics.OpenTickets.Set(float64(open))
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Connect to Discord
	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		logger.Error("failed to create discord session", "error", err)
		os.Exit(1)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent
	// Events are handled one at a time so ticket mutations stay ordered.
	session.SyncEvents = true

	gw := discord.New(session, logger.With("component", "gateway"))

	// 3. Wire lifecycle + command surface
	notifier := notify.New(gw, cfg.OpenWebhook, cfg.CloseWebhook, logger.With("component", "notify"))
	mgr := lifecycle.New(store, gw, notifier, cfg.AdminRole, logger.With("component", "lifecycle"))
	router := command.NewRouter(command.Config{
		Prefix:     cfg.Prefix,
		AdminRole:  cfg.AdminRole,
		TicketRole: cfg.TicketRole,
	}, mgr, gw, logger.With("component", "command"))

	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot || m.GuildID == "" {
			return
		}
		router.Handle(ctx, command.Message{
			GuildID:    m.GuildID,
			ChannelID:  m.ChannelID,
			AuthorID:   m.Author.ID,
			AuthorName: m.Author.Username,
			Content:    m.Content,
		})
	})
	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		logger.Info("connected to discord", "user", r.User.Username, "guilds", len(r.Guilds))
	})

	if err := session.Open(); err != nil {
		logger.Error("failed to open discord connection", "error", err)
		os.Exit(1)
	}
	defer session.Close()

	// 4. Start API server (disabled when port is 0)
	if cfg.API.Port > 0 {
		apiSrv := apiPkg.NewServer(store, apiPkg.Config{
			Host: cfg.API.Host,
			Port: cfg.API.Port,
			Key:  cfg.API.Key,
		}, logger.With("component", "api"), logBuf)

		go safeGo(logger, "api-server", func() { apiSrv.Start(ctx) })
		logger.Info("api server started", "port", cfg.API.Port)
	}

	// 5. Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)
	cancel()
	logger.Info("ticketd stopped")
}

// safeGo runs fn with panic recovery.
func safeGo(logger *slog.Logger, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("goroutine panicked", "name", name, "panic", fmt.Sprintf("%v", r))
		}
	}()
	fn()
}
