package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vineetmn/spice-outreach/internal/ai"
	"github.com/vineetmn/spice-outreach/internal/config"
	"github.com/vineetmn/spice-outreach/internal/handlers"
	"github.com/vineetmn/spice-outreach/internal/leads"
	"github.com/vineetmn/spice-outreach/internal/models"
	"github.com/vineetmn/spice-outreach/internal/notifier"
	"github.com/vineetmn/spice-outreach/internal/pipeline"
	"github.com/vineetmn/spice-outreach/internal/queue"
	"github.com/vineetmn/spice-outreach/internal/scheduler"
	"github.com/vineetmn/spice-outreach/internal/settings"
	"github.com/vineetmn/spice-outreach/internal/sources"
	"github.com/vineetmn/spice-outreach/internal/storage"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Critical error loading configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	db, err := storage.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		logger.Error("Critical error opening database", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	settingsSvc, err := settings.New(settings.NewGormStore(db), cfg.FernetKey)
	if err != nil {
		logger.Error("Critical error initializing settings service", "error", err)
		os.Exit(1)
	}

	trackers := storage.NewTrackerStore(db)
	contacts := storage.NewContactStore(db)

	fetcher := sources.NewFetcher(cfg.FetchTimeout)
	registry := sources.NewRegistry(
		sources.NewOLX(fetcher, cfg.AdapterItemCap),
		sources.NewQuikr(fetcher, cfg.AdapterItemCap),
		sources.NewCarDekho(fetcher, cfg.AdapterItemCap),
		sources.NewSerpAPI(fetcher, settingsSvc, cfg.AdapterItemCap),
		sources.NewLinkedIn(fetcher, cfg.AdapterItemCap),
		sources.NewNaukri(fetcher, cfg.AdapterItemCap),
		sources.NewFoundit(fetcher, cfg.AdapterItemCap),
		sources.NewBooking(cfg.FetchTimeout, cfg.AdapterItemCap),
		sources.NewOYO(cfg.FetchTimeout, cfg.AdapterItemCap),
	)

	alerts := notifier.NewWhatsAppNotifier(settingsSvc, map[string]notifier.Transport{
		notifier.ModeTwilio:  notifier.NewTwilioTransport(settingsSvc),
		notifier.ModeDesktop: notifier.NewDesktopTransport(cfg.ChromeProfileDir),
	}, logger)

	checker := pipeline.NewChecker(trackers, alerts, registry, logger, cfg.FetchTimeout)

	assistant := ai.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID, logger)
	emailQueue := queue.New(contacts, queue.NewEmailSender(settingsSvc), models.ChannelEmail,
		cfg.EmailRatePerHour, cfg.EmailRatePerDay, logger)
	emailQueue.Start(ctx)
	whatsappQueue := queue.New(contacts, queue.NewWhatsAppSender(alerts), models.ChannelWhatsApp,
		cfg.WhatsAppRatePerHour, cfg.WhatsAppRatePerDay, logger)
	whatsappQueue.Start(ctx)
	sendQueues := map[string]handlers.OutreachQueue{
		models.ChannelEmail:    emailQueue,
		models.ChannelWhatsApp: whatsappQueue,
	}

	searcher := leads.NewSearcher(settingsSvc, contacts, fetcher, logger)
	scout := leads.NewYouTubeScout(settingsSvc, contacts, logger)
	fbScout := leads.NewFacebookScout(settingsSvc, contacts, fetcher, logger)

	sched := scheduler.New(settingsSvc, checker, searcher, map[string]scheduler.OutreachQueue{
		models.ChannelEmail:    emailQueue,
		models.ChannelWhatsApp: whatsappQueue,
	}, logger)
	if err := sched.Start(ctx); err != nil {
		logger.Error("Critical error starting scheduler", "error", err)
		os.Exit(1)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))

	handlers.RegisterHealth(e)
	api := e.Group("/api")
	handlers.NewTrackerHandler(trackers, registry, checker).RegisterRoutes(api)
	handlers.NewContactHandler(contacts, assistant, sendQueues, searcher, scout, fbScout).RegisterRoutes(api)
	handlers.NewSettingsHandler(settingsSvc).RegisterRoutes(api)

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		sched.Stop()
		emailQueue.Wait()
		whatsappQueue.Wait()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
	}()

	logger.Info("Listening", "port", cfg.Port)
	if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
		logger.Error("Failed to listen and serve", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped.")
}
