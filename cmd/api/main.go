package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/closurehq/laser-backend/api/routes"
	"github.com/closurehq/laser-backend/internal/auth"
	"github.com/closurehq/laser-backend/internal/deals"
	"github.com/closurehq/laser-backend/internal/locations"
	"github.com/closurehq/laser-backend/internal/lookups"
	"github.com/closurehq/laser-backend/internal/notifications"
	"github.com/closurehq/laser-backend/internal/offers"
	"github.com/closurehq/laser-backend/internal/pricing"
	"github.com/closurehq/laser-backend/internal/shipments"
	"github.com/closurehq/laser-backend/internal/transactions"
	"github.com/closurehq/laser-backend/internal/trips"
	"github.com/closurehq/laser-backend/internal/users"
	"github.com/closurehq/laser-backend/pkg/auth/session"
	"github.com/closurehq/laser-backend/pkg/config"
	"github.com/closurehq/laser-backend/pkg/db"
	"github.com/closurehq/laser-backend/pkg/fcm"
	"github.com/closurehq/laser-backend/pkg/flightlabs"
	"github.com/closurehq/laser-backend/pkg/logger"
	"github.com/closurehq/laser-backend/pkg/migrate"
	"github.com/closurehq/laser-backend/pkg/outbox"
	"github.com/closurehq/laser-backend/pkg/redis"
)

type disabledAirportSource struct{}

func (disabledAirportSource) Airports(context.Context) ([]flightlabs.Airport, error) {
	return nil, errors.New("flightlabs access key not configured")
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	dealRepo := deals.NewRepository(gormDB)
	offerRepo := offers.NewRepository(gormDB)
	shipmentRepo := shipments.NewRepository(gormDB)
	tripRepo := trips.NewRepository(gormDB)
	transactionRepo := transactions.NewRepository(gormDB)
	notificationRepo := notifications.NewRepository(gormDB)
	locationRepo := locations.NewRepository(gormDB)
	lookupRepo := lookups.NewRepository(gormDB)
	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner:       dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	usersService, err := users.NewService(userRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	lookupsService, err := lookups.NewService(lookupRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create lookups service", err)
		os.Exit(1)
	}

	pricingService, err := pricing.NewService(lookupRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing service", err)
		os.Exit(1)
	}

	var pushSender fcm.Sender = fcm.NopSender{}
	if cfg.Firebase.CredentialsFile != "" {
		fcmClient, err := fcm.NewClient(context.Background(), cfg.Firebase.CredentialsFile, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create fcm client", err)
			os.Exit(1)
		}
		pushSender = fcmClient
	} else {
		logg.Warn(context.Background(), "firebase credentials not set, push notifications disabled")
	}

	notificationsService, err := notifications.NewService(notificationRepo, pushSender, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	dealsService, err := deals.NewService(dbClient, dealRepo, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create deals service", err)
		os.Exit(1)
	}

	shipmentsService, err := shipments.NewService(dbClient, shipmentRepo, dealRepo, pricingService, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create shipments service", err)
		os.Exit(1)
	}

	tripsService, err := trips.NewService(dbClient, tripRepo, dealRepo, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create trips service", err)
		os.Exit(1)
	}

	offersService, err := offers.NewService(dbClient, offerRepo, dealRepo, notificationsService, userRepo, outboxService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create offers service", err)
		os.Exit(1)
	}

	transactionsService, err := transactions.NewService(transactionRepo, dealRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create transactions service", err)
		os.Exit(1)
	}

	var airportSource locations.AirportSource = disabledAirportSource{}
	if cfg.FlightLabs.AccessKey != "" {
		flightClient, err := flightlabs.NewClient(
			cfg.FlightLabs.AccessKey,
			flightlabs.WithBaseURL(cfg.FlightLabs.BaseURL),
			flightlabs.WithTimeout(cfg.FlightLabs.Timeout),
		)
		if err != nil {
			logg.Error(context.Background(), "failed to create flightlabs client", err)
			os.Exit(1)
		}
		airportSource = flightClient
	} else {
		logg.Warn(context.Background(), "flightlabs access key not set, airport refresh disabled")
	}

	locationsService, err := locations.NewService(locationRepo, airportSource, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create locations service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, routes.Services{
			Auth:          authService,
			Register:      registerService,
			Users:         usersService,
			Deals:         dealsService,
			Shipments:     shipmentsService,
			Trips:         tripsService,
			Offers:        offersService,
			Transactions:  transactionsService,
			Notifications: notificationsService,
			Locations:     locationsService,
			Lookups:       lookupsService,
			Pricing:       pricingService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
