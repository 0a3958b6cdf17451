package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smovers/config"
	"smovers/cron"
	"smovers/database"
	accountRepo "smovers/database/repository/account"
	availabilityRepo "smovers/database/repository/availability"
	ledgerRepo "smovers/database/repository/ledger"
	"smovers/database/repository/memory"
	ratingRepo "smovers/database/repository/rating"
	tokenRepo "smovers/database/repository/token"
	"smovers/handlers"
	"smovers/middleware"
	"smovers/models"
	"smovers/routes"
	"smovers/services/account"
	"smovers/services/availability"
	"smovers/services/booking"
	"smovers/services/events"
	"smovers/services/notification"
	"smovers/services/proposal"
	"smovers/services/tasks"
	"smovers/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// repositories is the persistence backend the services run on.
type repositories struct {
	accounts     accountRepo.AccountRepository
	availability availabilityRepo.AvailabilityRepository
	ledger       ledgerRepo.LedgerRepository
	ratings      ratingRepo.RatingRepository
	usedTokens   tokenRepo.UsedTokenRepository
	revocations  account.RevocationStore
	checks       map[string]utils.HealthCheck
}

func memoryRepositories() repositories {
	ledger := memory.NewLedgerStore()
	accounts := memory.NewAccountStore()
	return repositories{
		accounts:     accounts,
		availability: memory.NewAvailabilityStore(),
		ledger:       ledger,
		ratings:      memory.NewRatingStore(ledger, accounts),
		usedTokens:   memory.NewUsedTokenStore(),
		revocations:  account.NewMemoryRevocations(),
		checks:       map[string]utils.HealthCheck{},
	}
}

func mongoRepositories(logger *zap.Logger) repositories {
	database.InitDB()
	utils.InitRedis()
	db := database.Database()

	var used tokenRepo.UsedTokenRepository
	if config.AppConfig.UsedTokenStore == "redis" {
		used = tokenRepo.NewRedisUsedTokenRepo(utils.GetTokenCacheClient())
	} else {
		used = tokenRepo.NewMongoUsedTokenRepo(db, logger)
	}

	return repositories{
		accounts:     accountRepo.NewMongoAccountRepo(db, logger),
		availability: availabilityRepo.NewMongoAvailabilityRepo(db, logger),
		ledger:       ledgerRepo.NewMongoLedgerRepo(db, logger),
		ratings:      ratingRepo.NewMongoRatingRepo(db),
		usedTokens:   used,
		revocations:  &account.RedisRevocations{Client: utils.GetAuthCacheClient()},
		checks: map[string]utils.HealthCheck{
			"mongo": database.Ping,
			"redis": func(ctx context.Context) error {
				return utils.GetAuthCacheClient().Ping(ctx).Err()
			},
		},
	}
}

func newGateway(logger *zap.Logger) notification.Gateway {
	if config.AppConfig.SendGridAPIKey == "" {
		logger.Warn("SENDGRID_API_KEY not set, emails will only be logged")
		return &notification.LogGateway{Logger: logger}
	}
	gw, err := notification.NewSendGridGateway(config.AppConfig.SendGridAPIKey, config.AppConfig.MailFrom, config.AppConfig.MailFromName)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize mail gateway: %v", err)
	}
	return gw
}

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	memoryBackend := config.UsesMemoryBackend()
	var repos repositories
	if memoryBackend {
		logger.Warn("running on the in-memory backend, data is lost on restart")
		repos = memoryRepositories()
	} else {
		repos = mongoRepositories(logger)
	}

	tokens, err := proposal.NewTokenService(config.AppConfig.ProposalTokenSecret, config.AppConfig.ProposalTokenTTL, repos.usedTokens, nil)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize proposal tokens: %v", err)
	}
	mailer := notification.NewMailer(newGateway(logger), config.AppConfig.PublicBaseURL, logger)

	// services.
	accountService := &account.Service{
		Repo:         repos.accounts,
		Availability: repos.availability,
		Revocations:  repos.revocations,
		SessionTTL:   config.AppConfig.SessionTTL,
		Logger:       logger,
	}
	availabilityService := &availability.Service{
		Availability: repos.availability,
		Accounts:     repos.accounts,
		Logger:       logger,
	}
	engine := &booking.Engine{
		Directory: accountService,
		Ledger:    repos.ledger,
		Tokens:    tokens,
		Notifier:  mailer,
		Ratings:   repos.ratings,
		Settings: booking.Settings{
			DriverWindow:       config.AppConfig.DriverResponseWindow,
			HelperWindow:       config.AppConfig.HelperResponseWindow,
			CancellationCutoff: config.AppConfig.CancellationCutoff,
		},
		Logger: logger,
	}

	// Booking events are optional; without a broker transitions are only logged.
	var publisher *events.Publisher
	if config.AppConfig.AMQPURL != "" {
		publisher, err = events.NewPublisher(config.AppConfig.AMQPURL, config.AppConfig.EventsExchange)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to connect to event broker: %v", err)
		}
		engine.Events = publisher
	}

	// Expiry checks: durable through asynq, or in-process timers.
	var (
		timers      *booking.TimerScheduler
		asynqClient *asynq.Client
		worker      *asynq.Server
	)
	if memoryBackend || config.AppConfig.ExpiryScheduler == "timer" {
		timers = booking.NewTimerScheduler(logger)
		timers.Bind(engine.ExpireProposal)
		engine.Scheduler = timers
	} else {
		asynqClient = asynq.NewClient(cron.RedisOpt())
		engine.Scheduler = tasks.NewAsynqScheduler(asynqClient)
		worker = cron.InitExpiryWorker(engine.ExpireProposal, logger)
	}

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	utils.StartHealthMonitor(monitorCtx, 30*time.Second, repos.checks)

	// Create the Gin router.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	bookingHandler := handlers.NewBookingHandler(engine, accountService)
	availabilityHandler := handlers.NewAvailabilityHandler(availabilityService)

	// Assemble the handler bundle.
	handlerBundle := &handlers.HandlerBundle{
		Sessions: accountService,

		// Account endpoints.
		Bookers: handlers.NewAccountHandler(accountService, models.RoleBooker).Bundle(),
		Drivers: handlers.NewAccountHandler(accountService, models.RoleDriver).Bundle(),
		Helpers: handlers.NewAccountHandler(accountService, models.RoleHelper).Bundle(),

		// Booking endpoints.
		BookDriverHandler:       bookingHandler.BookDriverHandler,
		BookHelperHandler:       bookingHandler.BookHelperHandler,
		ListBookingsHandler:     bookingHandler.ListBookingsHandler,
		RespondProposalHandler:  bookingHandler.RespondProposalHandler,
		CancelBookingHandler:    bookingHandler.CancelBookingHandler,
		RateBookingHandler:      bookingHandler.RateBookingHandler,
		UpcomingBookingsHandler: bookingHandler.UpcomingBookingsHandler,

		// Availability endpoints.
		SetAvailabilityHandler:    availabilityHandler.SetAvailabilityHandler,
		GetAvailabilityHandler:    availabilityHandler.GetAvailabilityHandler,
		SearchAvailabilityHandler: availabilityHandler.SearchAvailabilityHandler,

		HealthHandler: handlers.HealthHandler,
	}

	// Register routes with the assembled handler bundle.
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "3001"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}

	if worker != nil {
		worker.Shutdown()
	}
	if asynqClient != nil {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("main: failed to close task client", zap.Error(err))
		}
	}
	if timers != nil {
		timers.Stop()
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Warn("main: failed to close event publisher", zap.Error(err))
		}
	}
	if !memoryBackend {
		if err := database.Disconnect(ctx); err != nil {
			logger.Warn("main: failed to disconnect from MongoDB", zap.Error(err))
		}
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
