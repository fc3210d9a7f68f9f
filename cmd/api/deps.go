package main

import (
	"context"
	"log"

	"horizon/internal/domain/account"
	"horizon/internal/domain/bank"
	"horizon/internal/domain/linking"
	"horizon/internal/domain/notification"
	"horizon/internal/domain/transfer"
	"horizon/internal/infrastructure/crypto"
	"horizon/internal/infrastructure/dwolla"
	"horizon/internal/infrastructure/firebase"
	"horizon/internal/infrastructure/plaid"
	"horizon/internal/infrastructure/postgres"
	"horizon/internal/infrastructure/rediscache"
	httphandlers "horizon/internal/interfaces/http"
	"horizon/internal/shared/auth"
	"horizon/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	DB    *postgres.DB
	Redis *rediscache.Client

	// Handlers
	AuthHandler     *httphandlers.AuthHandler
	UserHandler     *httphandlers.UserHandler
	AccountHandler  *httphandlers.AccountHandler
	BankHandler     *httphandlers.BankHandler
	TransferHandler *httphandlers.TransferHandler

	// Auth
	JWT *auth.JWT

	// For the scheduler job provider
	UserRepo      *postgres.UserRepository
	BankRepo      *postgres.BankRepository
	Gateway       *plaid.Client
	Notifications *notification.Service
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	// Connect to database
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}
	log.Println("Connected to database")

	// Initialize encryptor
	encryptor, err := crypto.NewEncryptor(cfg.Encryption.Key)
	if err != nil {
		return nil, err
	}

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	bankRepo := postgres.NewBankRepository(db, encryptor)
	transferRepo := postgres.NewTransferRepository(db)

	// Redis is optional: without it institution lookups hit the gateway every
	// time and reauth alerts are not deduplicated, but the API still works.
	var (
		redisClient  *rediscache.Client
		institutions account.InstitutionCache
		deduper      notification.Deduper
	)
	if cfg.Redis.Addr != "" {
		redisClient, err = rediscache.NewClient(cfg.Redis)
		if err != nil {
			log.Printf("Warning: Redis unavailable, caching disabled: %v", err)
			redisClient = nil
		} else {
			institutions = rediscache.NewInstitutionCache(redisClient, cfg.Redis.InstitutionTTL)
			deduper = rediscache.NewDeduper(redisClient)
			log.Println("Connected to Redis")
		}
	}

	// Initialize gateway clients
	gateway := plaid.NewClient(cfg.Plaid)
	payments := dwolla.NewClient(cfg.Dwolla)

	// Initialize domain services
	syncer := linking.NewSyncService(gateway)
	bankService := bank.NewService(bankRepo, gateway, payments, encryptor)
	accountService := account.NewService(bankRepo, gateway, syncer, transferRepo, institutions)
	transferService := transfer.NewService(bankRepo, bankService, payments, transferRepo)

	// Firebase is optional: without credentials push alerts are dropped.
	var messenger notification.Messenger
	if cfg.Firebase.CredentialsFile != "" {
		fcm, err := firebase.NewClient(ctx, cfg.Firebase.CredentialsFile, userRepo.ClearDeviceToken)
		if err != nil {
			log.Printf("Warning: Failed to initialize Firebase, push disabled: %v", err)
		} else {
			messenger = fcm
		}
	}
	notificationService := notification.NewService(userRepo, messenger, deduper)

	// Initialize auth components
	jwt := auth.NewJWT(cfg.JWT.Secret)

	// Initialize handlers
	authHandler := httphandlers.NewAuthHandler(userRepo, payments, jwt)
	userHandler := httphandlers.NewUserHandler(userRepo)
	accountHandler := httphandlers.NewAccountHandler(accountService)
	bankHandler := httphandlers.NewBankHandler(bankService, userRepo)
	transferHandler := httphandlers.NewTransferHandler(transferService)

	return &Dependencies{
		DB:              db,
		Redis:           redisClient,
		AuthHandler:     authHandler,
		UserHandler:     userHandler,
		AccountHandler:  accountHandler,
		BankHandler:     bankHandler,
		TransferHandler: transferHandler,
		JWT:             jwt,
		UserRepo:        userRepo,
		BankRepo:        bankRepo,
		Gateway:         gateway,
		Notifications:   notificationService,
	}, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.Redis != nil {
		d.Redis.Close()
	}
	if d.DB != nil {
		d.DB.Close()
	}
}
