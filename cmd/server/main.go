package main

import (
	bookingshandler "hostkeep/internal/bookings/handler"
	bookingsrepository "hostkeep/internal/bookings/repository"
	bookingsservice "hostkeep/internal/bookings/service"
	bookingsvalidator "hostkeep/internal/bookings/validator"
	propertieshandler "hostkeep/internal/properties/handler"
	propertiesrepository "hostkeep/internal/properties/repository"
	propertiesservice "hostkeep/internal/properties/service"
	propertiesvalidator "hostkeep/internal/properties/validator"
	synchandler "hostkeep/internal/sync/handler"
	"hostkeep/internal/sync/ical"
	syncservice "hostkeep/internal/sync/service"
	taskshandler "hostkeep/internal/tasks/handler"
	tasksrepository "hostkeep/internal/tasks/repository"
	tasksservice "hostkeep/internal/tasks/service"
	tasksvalidator "hostkeep/internal/tasks/validator"
	usershandler "hostkeep/internal/users/handler"
	usersrepository "hostkeep/internal/users/repository"
	usersservice "hostkeep/internal/users/service"
	usersvalidator "hostkeep/internal/users/validator"
	"hostkeep/pkg/app"
	"hostkeep/pkg/auth"
	"hostkeep/pkg/config"
	"hostkeep/pkg/contracts"
	"hostkeep/pkg/kafka"
	kafka_config "hostkeep/pkg/kafka/config"
	kafka_middleware "hostkeep/pkg/kafka/middleware"

	"github.com/joho/godotenv"
)

const ServiceName = "hostkeep"

const bookingEventsTopic = "hostkeep.booking-events"

func main() {
	_ = godotenv.Load()

	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Hostkeep service")

	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTAccessTTL)
	handlers := initServices(cfg, tokenManager)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, tokenManager, handlers...)
	serverApp.Run()
}

func initServices(cfg *config.Config, tokenManager *auth.TokenManager) []contracts.Handler {
	userRepo := usersrepository.NewMongoUserRepository(cfg)
	userService := usersservice.NewUserService(
		userRepo,
		usersvalidator.NewUserValidator(cfg.Log),
		auth.NewPasswordManager(),
		tokenManager,
		cfg,
	)

	propertyRepo := propertiesrepository.NewMongoPropertyRepository(cfg)
	propertyService := propertiesservice.NewPropertyService(
		propertyRepo,
		propertiesvalidator.NewPropertyValidator(cfg.Log),
		cfg,
	)

	bookingRepo := bookingsrepository.NewMongoBookingRepository(cfg)
	bookingService := bookingsservice.NewBookingService(
		bookingRepo,
		propertyRepo,
		bookingsvalidator.NewBookingValidator(cfg.Log),
		cfg,
	)

	taskRepo := tasksrepository.NewMongoTaskRepository(cfg)
	taskService := tasksservice.NewTaskService(
		taskRepo,
		propertyRepo,
		tasksvalidator.NewTaskValidator(cfg.Log),
		cfg,
	)

	syncService := syncservice.NewSyncService(
		propertyRepo,
		bookingRepo,
		taskRepo,
		ical.NewHTTPFetcher(cfg.CalendarFetchTimeout, cfg.Log),
		initEventPublisher(cfg),
		cfg,
	)

	cfg.Log.Info("Hostkeep service initialized", "database", cfg.MongoDatabaseName)

	return []contracts.Handler{
		usershandler.NewUserHandler(userService, cfg.Log),
		propertieshandler.NewPropertyHandler(propertyService, cfg.Log),
		bookingshandler.NewBookingHandler(bookingService, cfg.Log),
		taskshandler.NewTaskHandler(taskService, cfg.Log),
		synchandler.NewSyncHandler(syncService, cfg.Log),
	}
}

// initEventPublisher wires the Kafka producer when brokers are configured.
// Without brokers the sync service runs with publishing disabled.
func initEventPublisher(cfg *config.Config) syncservice.EventPublisher {
	kafkaCfg := kafka_config.Load()
	if !kafkaCfg.Enabled() {
		cfg.Log.Info("Kafka publishing disabled (no brokers configured)")
		return nil
	}

	producer, err := kafka.NewProducer(kafkaCfg, bookingEventsTopic, "")
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware())

	kafkaCfg.LogConfiguration(cfg.Log.Info)
	return producer
}
