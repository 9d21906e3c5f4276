package main

import (
	"CrewChat/bot"
	"CrewChat/impl/core"
	"CrewChat/internal/config"
	repository "CrewChat/internal/database"
	"CrewChat/internal/http-server/api"
	"CrewChat/internal/lib/logger"
	"CrewChat/internal/lib/sl"
	"CrewChat/internal/service/chat"
	"CrewChat/internal/service/directory"
	"CrewChat/internal/service/presence"
	"CrewChat/internal/ws"
	"context"
	"flag"
	"log/slog"
	"time"
)

func main() {

	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, *logPath)

	// Initialize Telegram alert bot if enabled
	if conf.Telegram.Enabled {
		tgBot, err := bot.NewTgBot(conf.Telegram.BotName, conf.Telegram.ApiKey, conf.Telegram.AdminId, lg)
		if err != nil {
			lg.Error("failed to initialize telegram bot", slog.String("error", err.Error()))
		} else {
			// Route error-level records to the admin chat
			lg = logger.SetupTelegramHandler(lg, tgBot, slog.LevelError)
			lg.With(
				slog.String("bot_name", conf.Telegram.BotName),
			).Info("telegram bot initialized")
		}
	}

	lg.Info("starting crewchat", slog.String("config", *configPath), slog.String("env", conf.Env))
	lg.Debug("debug messages enabled")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := core.New(lg)

	db, err := repository.NewMongoClient(conf, lg)
	if err != nil {
		lg.With(
			sl.Err(err),
		).Error("mongo client")
	}

	dir := directory.NewService(lg)

	tracker := presence.NewTracker(time.Duration(conf.Presence.TTLSeconds)*time.Second, lg)
	go tracker.Run(ctx)

	hub := ws.NewHub(lg)
	hub.SetPresence(tracker)
	go hub.Run()

	chatService := chat.NewService(chat.Options{
		WindowSize:  conf.Chat.WindowSize,
		PageSize:    conf.Chat.PageSize,
		CompanyName: conf.Chat.CompanyName,
	}, lg)
	chatService.SetDirectory(dir)
	chatService.SetPresence(tracker)
	chatService.SetBroadcaster(hub)

	if db != nil {
		dir.SetRepository(db)
		chatService.SetRepository(db)
		handler.SetRepository(db)
		lg.With(
			slog.String("host", conf.Mongo.Host),
			slog.String("port", conf.Mongo.Port),
			slog.String("user", conf.Mongo.User),
			slog.String("database", conf.Mongo.Database),
		).Info("mongo client initialized")
	}

	handler.SetChatService(chatService)
	handler.SetDirectory(dir)
	handler.SetBroadcaster(hub)
	handler.SetFileSigning(conf.Chat.FileSecret, time.Duration(conf.Chat.FileTTLMinutes)*time.Minute)
	handler.SetHiddenAccounts(conf.Chat.HiddenAccounts)
	handler.Init()
	defer chatService.Close()

	hub.SetHandler(handler)

	// *** blocking start with http server ***
	err = api.New(conf, lg, handler, hub)
	if err != nil {
		lg.Error("server start", sl.Err(err))
		return
	}
	lg.Error("service stopped")
}
