package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cedarworks/internal/app/erp/config"
	"cedarworks/internal/app/erp/handler"
	"cedarworks/internal/app/erp/processor"
	"cedarworks/internal/app/erp/repository"
	"cedarworks/internal/app/erp/service"
	"cedarworks/internal/app/erp/util"
	"cedarworks/internal/app/erp/view"
	"cedarworks/internal/app/erp/viewkit"
	"cedarworks/pkg/logger"
)

func main() {
	// === ИНИЦИАЛИЗАЦИЯ КОНФИГУРАЦИИ ===
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init("erp", cfg.Logging.Level)

	// === ПОДКЛЮЧЕНИЕ К POSTGRESQL ===
	// Справочники, цены, соглашения, курсы и наблюдения продаж
	db, err := connectDB(cfg.Database.DSN())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	logger.Info().Msg("Successfully connected to PostgreSQL")

	// === ПОДКЛЮЧЕНИЕ К REDIS ===
	// Кеш курсов валют
	rateCache, err := util.NewRateCache(
		cfg.Redis.Address(),
		cfg.Redis.Password,
		cfg.Redis.DB,
		time.Duration(cfg.Rates.CacheTTLMinutes)*time.Minute,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rateCache.Close()
	logger.Info().Msg("Successfully connected to Redis")

	// === ПОДКЛЮЧЕНИЕ К MONGODB ===
	// Заметки пользователей к страницам
	mongoCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	mongoClient, err := mongo.Connect(mongoCtx, options.Client().ApplyURI(cfg.Mongo.URI))
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(ctx)
	}()
	logger.Info().Msg("Successfully connected to MongoDB")

	// === ИНИЦИАЛИЗАЦИЯ KAFKA PRODUCER ===
	// События PRICE_SUPERSEDED уходят в топик price_events
	kafkaProducer := util.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer kafkaProducer.Close()
	logger.Info().Msg("Successfully initialized Kafka producer")

	// === ИНИЦИАЛИЗАЦИЯ СЛОЯ РЕПОЗИТОРИЕВ ===
	priceRepo := repository.NewPriceRepository(db)
	agreementRepo := repository.NewAgreementRepository(db)
	rateRepo := repository.NewRateRepository(db)
	salesRepo := repository.NewSalesRepository(db)
	noteRepo := repository.NewNoteRepository(mongoClient.Database(cfg.Mongo.DBName))

	// Универсальные порты записей для табличных страниц
	ports := make(map[string]repository.RecordPort)
	for name, def := range view.TableDefs() {
		ports[name] = repository.NewRecordRepository(db, def)
	}

	// === ИНИЦИАЛИЗАЦИЯ БИЗНЕС-ЛОГИКИ ===
	priceService := service.NewPriceService(priceRepo, agreementRepo, salesRepo, kafkaProducer)
	currencyService := service.NewCurrencyService(rateRepo, rateCache)
	noteService := service.NewNoteService(noteRepo)
	ratesService := service.NewRatesService(rateRepo, rateCache)

	// === ПЛАНИРОВЩИК ОБНОВЛЕНИЯ КУРСОВ ===
	scheduler := processor.NewCronScheduler(ratesService)
	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	defer schedulerCancel()
	if err := scheduler.Start(schedulerCtx, cfg.Rates.RefreshSchedule); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start rates scheduler")
	}
	defer scheduler.Stop()

	// === ИНИЦИАЛИЗАЦИЯ HTTP HANDLERS ===
	sessions := viewkit.NewSessionStore()
	erpHandler := handler.NewERPHandler(priceService, currencyService, noteService, ports, sessions)
	authMiddleware := handler.NewAuthMiddleware(cfg.JWT.Secret)

	router := handler.SetupRoutes(erpHandler, authMiddleware)

	// === НАСТРОЙКА HTTP СЕРВЕРА ===
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("address", cfg.Server.Address()).Msg("Starting ERP service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// === GRACEFUL SHUTDOWN ===
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down ERP service...")

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("ERP service stopped gracefully")
}

// connectDB подключается к PostgreSQL через gorm
// Retry с 10 попытками на случай старта раньше БД в Docker
func connectDB(dsn string) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	for attempt := 1; attempt <= 10; attempt++ {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err == nil {
			return db, nil
		}
		logger.Warn().Err(err).Int("attempt", attempt).Msg("database connection failed, retrying")
		time.Sleep(3 * time.Second)
	}

	return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
}
