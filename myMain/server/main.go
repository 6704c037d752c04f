package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cypherd/walletBackend/internal/api"
	"github.com/cypherd/walletBackend/internal/config"
	"github.com/cypherd/walletBackend/internal/email"
	"github.com/cypherd/walletBackend/internal/keyring"
	"github.com/cypherd/walletBackend/internal/repository"
	"github.com/cypherd/walletBackend/internal/service"
	"github.com/cypherd/walletBackend/package/database"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := database.NewPostgresDB(database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	priceCacheRepo := repository.NewPriceCacheRepository(db)
	txManager := repository.NewTxManager(db)

	keys := keyring.New(cfg.Encryption.MnemonicKey)
	notifier := email.NewNotifier(cfg.SMTP, logger)

	authService := service.NewAuthService(userRepo, cfg.JWT, logger)
	priceService := service.NewPriceService(priceCacheRepo, cfg.Price.CoinGeckoURL, cfg.Price.SkipURL, logger)
	walletService := service.NewWalletService(walletRepo, userRepo, txManager, keys, priceService, logger)
	transferService := service.NewTransferService(txManager, logger)
	transactionService := service.NewTransactionService(transactionRepo, walletRepo, logger)

	router := api.NewRouter(
		authService,
		api.NewAuthHandler(authService, logger),
		api.NewWalletHandler(walletService, transferService, priceService, authService, notifier, logger),
		api.NewTransactionHandler(transactionService, logger),
	)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
}
