package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"selftape/config"
	"selftape/cron"
	"selftape/database"
	"selftape/database/repository"
	eventsRepo "selftape/database/repository/events"
	"selftape/database/repository/memstore"
	"selftape/database/repository/postgres"
	"selftape/handlers"
	"selftape/middleware"
	"selftape/routes"
	"selftape/services/booking"
	"selftape/services/calendar"
	"selftape/services/events"
	"selftape/services/meeting"
	"selftape/services/notification"
	"selftape/services/payment"
	"selftape/services/reader"
	"selftape/services/storage"
	"selftape/services/tasks"
	"selftape/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type repositories struct {
	readers      repository.ReaderRepository
	availability repository.AvailabilityRepository
	bookings     repository.BookingRepository
	journal      repository.EventJournal
	checks       map[string]utils.Checker
	closers      []func()
}

// openRepositories picks the relational store by DB_DRIVER and the webhook
// journal by MONGO_URI.
func openRepositories(ctx context.Context, cfg config.Config, logger *zap.Logger) (*repositories, error) {
	repos := &repositories{checks: map[string]utils.Checker{}}

	switch cfg.DBDriver {
	case "memory":
		logger.Warn("Using in-memory store; data is lost on restart")
		store := memstore.New()
		repos.readers, repos.availability, repos.bookings = store.Readers(), store.Availability(), store.Bookings()
	default:
		pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		repos.readers = postgres.NewReaderRepo(pool)
		repos.availability = postgres.NewAvailabilityRepo(pool)
		repos.bookings = postgres.NewBookingRepo(pool)
		repos.checks["postgres"] = pool.Ping
		repos.closers = append(repos.closers, pool.Close)
	}

	if cfg.MongoURI == "" {
		repos.journal = memstore.NewJournal()
		return repos, nil
	}
	client, err := database.NewMongoClient(ctx, cfg.MongoURI, logger)
	if err != nil {
		return nil, err
	}
	repos.journal = eventsRepo.NewMongoEventJournal(client, cfg.MongoDB, logger)
	repos.checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	repos.closers = append(repos.closers, func() { _ = client.Disconnect(context.Background()) })
	return repos, nil
}

func main() {
	if err := config.LoadConfig(); err != nil {
		zap.L().Fatal("main: invalid configuration", zap.Error(err))
	}
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer logger.Sync()

	ctx := context.Background()

	shutdownTracer, err := utils.InitTracer(ctx, cfg.OTELEndpoint, cfg.OTELServiceName, cfg.Env)
	if err != nil {
		logger.Fatal("main: failed to initialize tracing", zap.Error(err))
	}

	repos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("main: failed to open storage", zap.Error(err))
	}

	// Redis backs the calendar cache and the email queue.
	var feedCache calendar.FeedCache
	cacheClient, err := utils.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisCacheDB)
	if err != nil {
		logger.Warn("Calendar cache disabled", zap.Error(err))
	} else {
		feedCache = calendar.NewRedisFeedCache(cacheClient)
		repos.checks["redis"] = func(ctx context.Context) error { return cacheClient.Ping(ctx).Err() }
	}

	queueOpts := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisQueueDB,
	}
	queue := asynq.NewClient(queueOpts)
	defer queue.Close()
	dispatcher := tasks.NewDispatcher(queue, logger)

	sender := notification.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom, logger)
	notifSvc, err := notification.NewDefaultNotificationService(sender, repos.readers, repos.bookings, logger)
	if err != nil {
		logger.Fatal("main: failed to build notification service", zap.Error(err))
	}
	worker := cron.NewEmailWorker(queueOpts, notifSvc, logger)
	worker.Start()

	var publisher booking.EventPublisher = events.NopPublisher{Logger: logger}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, logger)
		if err != nil {
			logger.Warn("Event broker unavailable, events will be dropped", zap.Error(err))
		} else {
			publisher = amqpPub
			defer amqpPub.Close()
		}
	}

	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	gateway := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.Currency, cfg.AppBaseURL, cfg.StripeReaderPriceID, cfg.CheckoutTTL)

	feedSvc := &calendar.FeedService{
		Readers:  repos.readers,
		Bookings: repos.bookings,
		Cache:    feedCache,
		TTL:      cfg.ICalCacheTTL,
		Logger:   logger,
	}

	// services.
	readerService := &reader.DefaultReaderService{
		Readers:      repos.readers,
		Availability: repos.availability,
		Tokens:       tokens,
		Mailer:       dispatcher,
		BaseURL:      cfg.AppBaseURL,
		Logger:       logger,
	}
	availabilityService := &booking.DefaultAvailabilityService{
		Readers:      repos.readers,
		Availability: repos.availability,
		Bookings:     repos.bookings,
		Logger:       logger,
	}
	bookingService := &booking.DefaultBookingService{
		Readers:      repos.readers,
		Availability: repos.availability,
		Bookings:     repos.bookings,
		Checkout:     gateway,
		Meetings:     meeting.NewDailyProvisioner(cfg.DailyAPIKey, cfg.DailyAPIURL, logger),
		Notifier:     dispatcher,
		Events:       publisher,
		Feeds:        feedSvc,
		FeePercent:   cfg.PlatformFeePercent,
		Logger:       logger,
	}
	payoutService := &payment.PayoutService{Readers: repos.readers, Gateway: gateway, Logger: logger}
	webhookService := &payment.WebhookService{
		Secret:   cfg.StripeWebhookSecret,
		Journal:  repos.journal,
		Bookings: bookingService,
		Readers:  repos.readers,
		Logger:   logger,
	}

	var storageSvc storage.StorageService
	cld, err := storage.NewCloudinaryStorage(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, logger)
	if err != nil {
		logger.Warn("Media uploads disabled", zap.Error(err))
	} else if cld != nil {
		storageSvc = cld
	}

	monitor := utils.NewHealthMonitor(repos.checks)
	monitorCtx, stopMonitor := context.WithCancel(ctx)
	go monitor.Start(monitorCtx, 30*time.Second)

	readerHandler := handlers.NewReaderHandler(readerService, bookingService, payoutService)
	scheduleHandler := handlers.NewScheduleHandler(availabilityService)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	webhookHandler := handlers.NewWebhookHandler(webhookService)
	calendarHandler := handlers.NewCalendarHandler(feedSvc)
	storageHandler := handlers.NewStorageHandler(storageSvc)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Tokens:        tokens,
		HealthHandler: handlers.HealthCheck(monitor),

		// Reader endpoints.
		RegisterReaderHandler:   readerHandler.Register,
		GetReaderHandler:        readerHandler.GetProfile,
		UpdateSettingsHandler:   readerHandler.UpdateSettings,
		ListReaderBookings:      readerHandler.ListBookings,
		OnboardPayoutsHandler:   readerHandler.OnboardPayouts,
		SubscribeHandler:        readerHandler.Subscribe,
		RequestMagicLinkHandler: readerHandler.RequestMagicLink,

		// Availability endpoints.
		GetAvailabilityHandler:  scheduleHandler.GetAvailability,
		SaveAvailabilityHandler: scheduleHandler.SaveAvailability,
		AvailableDaysHandler:    scheduleHandler.AvailableDays,
		AvailableSlotsHandler:   scheduleHandler.AvailableSlots,

		// Booking endpoints.
		CreateBookingHandler: bookingHandler.CreateBooking,
		GetBookingHandler:    bookingHandler.GetBooking,

		StripeWebhookHandler: webhookHandler.Stripe,
		CalendarFeedHandler:  calendarHandler.ICal,
		UploadHandler:        storageHandler.UploadHeadshot,
	}

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxyList()); err != nil {
		logger.Fatal("main: invalid TRUSTED_PROXIES", zap.Error(err))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	routes.RegisterRoutes(router, handlerBundle, cfg.CORSOrigins, cfg.MaxRequestsPerMin)

	// Start the HTTP server.
	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}
	stopMonitor()
	worker.Shutdown()
	if cacheClient != nil {
		_ = cacheClient.Close()
	}
	for _, closeFn := range repos.closers {
		closeFn()
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Warn("main: tracer shutdown", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
