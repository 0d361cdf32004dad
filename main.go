// File: courtbook/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zapcore"

	"courtbook/config"
	"courtbook/cron"
	"courtbook/database/session"
	"courtbook/handlers"
	"courtbook/models"
	"courtbook/routes"
	"courtbook/services/availability"
	"courtbook/services/booking"
	"courtbook/services/calendar"
	"courtbook/utils"
)

func main() {
	config.LoadConfig()
	utils.LoadConfig()
	logger := utils.GetLogger()

	if len(config.AppConfig.Resources) == 0 {
		logger.Sugar().Fatal("main: no resources configured; set a resources list or FIRST_CALENDAR_ID")
	}
	registry := models.NewResourceRegistry(config.AppConfig.Resources)

	loc, err := config.AppConfig.Location()
	if err != nil {
		logger.Sugar().Fatalf("main: bad UTC offset: %v", err)
	}

	bot, err := tgbotapi.NewBotAPI(config.AppConfig.TelegramToken)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize telegram bot: %v", err)
	}

	// Mirror warnings and errors to the ops channel.
	if config.AppConfig.LogsChannelID != 0 {
		utils.AttachCore(handlers.NewTelegramCore(bot, config.AppConfig.LogsChannelID, zapcore.WarnLevel))
		logger = utils.GetLogger()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Calendar credentials. The authorization URL, when the local flow is
	// needed, goes to the ops channel the way operators expect.
	svc, err := calendar.NewService(ctx, calendar.CredentialOptions{
		CredentialsFile: config.AppConfig.CredentialsFile,
		TokenFile:       config.AppConfig.TokenFile,
		ListenAddr:      config.AppConfig.OAuthListenAddr,
		ServerMode:      config.IsProduction(),
		AnnounceAuthURL: func(url string) {
			handlers.NotifyChannel(bot, config.AppConfig.LogsChannelID,
				"🔐 Google Calendar authorization required:\n\n"+url)
		},
	})
	if err != nil {
		logger.Sugar().Fatalf("main: calendar credentials: %v", err)
	}

	gateway := calendar.NewGoogleGateway(svc, loc, config.AppConfig.TimeZoneName)

	availabilitySvc := &availability.DefaultAvailabilityService{
		Gateway:     gateway,
		Location:    loc,
		WindowStart: config.AppConfig.WindowStartHour,
		WindowEnd:   config.AppConfig.WindowEndHour,
	}

	// Conversation store: Redis when configured, in-memory otherwise.
	var store session.Store
	if config.AppConfig.RedisAddr != "" {
		utils.InitSessionCache(
			config.AppConfig.RedisAddr,
			config.AppConfig.RedisPassword,
			config.AppConfig.RedisSessionDB,
		)
		store = session.NewRedisStore(utils.GetSessionCacheClient())
	} else {
		store = session.NewMemoryStore()
	}

	flow := &booking.DefaultFlowService{
		Registry:     registry,
		Availability: availabilitySvc,
		Gateway:      gateway,
		Store:        store,
		Glyphs:       config.AppConfig.Glyphs,
		Location:     loc,
	}

	botHandler := handlers.NewBotHandler(bot, flow)
	flow.Effects = botHandler

	// Reminder queue rides on the same Redis; skipped without one.
	if config.AppConfig.RedisAddr != "" {
		flow.Reminders = cron.NewScheduler(
			time.Duration(config.AppConfig.ReminderLeadMinutes)*time.Minute, loc)
		cron.InitReminderWorker(botHandler, registry)
	}

	// Operational HTTP surface.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	routes.RegisterRoutes(router)
	srv := &http.Server{
		Addr:    "0.0.0.0:" + config.AppConfig.HealthPort,
		Handler: router,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: health server failed to start: %v", err)
		}
	}()
	utils.StartHealthMonitor(utils.GetSessionCacheClient(), botHandler.Ping)

	handlers.NotifyChannel(bot, config.AppConfig.LogsChannelID,
		fmt.Sprintf("🚀 Booking bot started as @%s", bot.Self.UserName))
	logger.Sugar().Infof("main: bot started as @%s", bot.Self.UserName)

	// Blocks until SIGINT/SIGTERM.
	botHandler.Run(ctx)

	logger.Sugar().Info("main: bot is shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Fatalf("main: health server forced to shutdown: %v", err)
	}
	logger.Sugar().Info("main: bot stopped gracefully")
}
