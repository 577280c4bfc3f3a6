// File: app/app.go
package app

import (
	"context"
	"net/http"
	"optimal-bank-api/config"
	"optimal-bank-api/db"
	"optimal-bank-api/geo"
	"optimal-bank-api/handler"
	"optimal-bank-api/logger"
	"optimal-bank-api/notification"
	"optimal-bank-api/repository"
	"optimal-bank-api/router"
	"optimal-bank-api/service"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Logger initialized")
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations("file://db/migrations"); err != nil {
		logger.Log.Fatalf("Error running migrations: %v", err)
	}

	redisClient, err := db.ConnectRedis()
	if err != nil {
		logger.Log.Fatalf("Error connecting to Redis: %v", err)
	}
	defer redisClient.Close()

	// --- External collaborators ---
	locator := geo.NewHTTPLocator(config.AppConfig.Geo.BaseURL)
	mailCfg := config.AppConfig.Mail
	notifier := notification.NewBrevoClient(mailCfg.BaseURL, mailCfg.APIKey, mailCfg.SenderName, mailCfg.SenderEmail)

	// --- Wiring All Layers Together ---
	userRepo := repository.NewUserRepository(database)
	accountRepo := repository.NewAccountRepository(database)
	transactionRepo := repository.NewTransactionRepository(database)

	authService := service.NewAuthService()
	userService := service.NewUserService(userRepo, authService, locator, notifier)
	accountService := service.NewAccountService(accountRepo, userRepo, authService, notifier, redisClient)
	transactionService := service.NewTransactionService(database, accountRepo, transactionRepo, userRepo,
		authService, notifier, redisClient)

	userHandler := handler.NewUserHandler(userService)
	accountHandler := handler.NewAccountHandler(accountService)
	transactionHandler := handler.NewTransactionHandler(transactionService)

	r := router.NewRouter(userHandler, accountHandler, transactionHandler)

	// --- Start the Server with Graceful Shutdown ---
	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
