package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/ledgerly/backend/docs"
	"github.com/ledgerly/backend/internal/background"
	"github.com/ledgerly/backend/internal/config"
	"github.com/ledgerly/backend/internal/database"
	"github.com/ledgerly/backend/internal/logger"
	mW "github.com/ledgerly/backend/internal/middleware"
	"github.com/ledgerly/backend/internal/services"
	"github.com/ledgerly/backend/internal/suggest"
)

// @title Ledgerly API
// @version 1.0
// @description Personal budget tracking API with AI category suggestions
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	log := logger.New()

	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")

	viper.BindEnv("suggest.api_key", "SUGGEST_API_KEY")
	viper.BindEnv("suggest.model", "SUGGEST_MODEL")
	viper.BindEnv("suggest.request_timeout", "SUGGEST_REQUEST_TIMEOUT")
	viper.BindEnv("suggest.max_retries", "SUGGEST_MAX_RETRIES")
	viper.BindEnv("suggest.sync", "SUGGEST_SYNC")

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("config file not found, using environment")
	}

	docs.SwaggerInfo.Title = "Ledgerly API"
	docs.SwaggerInfo.Description = "Personal budget tracking API with AI category suggestions"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Initialize services
	db, err := database.InitDB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	redisClient, err := database.InitRedis()
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, continuing without session revocation")
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	suggestCfg := config.LoadSuggestConfig()
	completer, err := suggest.NewGeminiCompleter(context.Background(), suggestCfg.APIKey, suggestCfg.Model)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize completion client")
	}
	generator := suggest.NewGenerator(
		completer,
		suggest.NewPostgresStore(db),
		log,
		suggestCfg.RequestTimeout,
		suggestCfg.MaxRetries,
	)
	runner := background.NewRunner(log)
	if suggestCfg.Sync {
		log.Warn().Msg("synchronous suggestion mode enabled; intended for debugging only")
	}

	authService := services.NewAuthService(db, redisClient, log)
	accountService := services.NewAccountService(db, log)
	categoryService := services.NewCategoryService(db, log)
	transactionService := services.NewTransactionService(db, log, generator, runner, suggestCfg.Sync)
	suggestionService := services.NewSuggestionService(db, log)

	// Initialize auth middleware with Redis
	mW.InitAuthMiddleware(redisClient)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(chimw.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/register", authService.Register)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/logout", authService.Logout)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Get("/auth/me", authService.Me)

			r.Get("/accounts", accountService.ListAccounts)
			r.Post("/accounts", accountService.CreateAccount)
			r.Put("/accounts/{accountId}", accountService.UpdateAccount)
			r.Delete("/accounts/{accountId}", accountService.DeleteAccount)

			r.Get("/categories", categoryService.ListCategories)
			r.Post("/categories", categoryService.CreateCategory)
			r.Put("/categories/{categoryId}", categoryService.UpdateCategory)
			r.Delete("/categories/{categoryId}", categoryService.DeleteCategory)

			r.Get("/transactions", transactionService.ListTransactions)
			r.Post("/transactions", transactionService.CreateTransaction)
			r.Get("/transactions/{txId}", transactionService.GetTransaction)
			r.Put("/transactions/{txId}", transactionService.UpdateTransaction)
			r.Delete("/transactions/{txId}", transactionService.DeleteTransaction)

			r.Post("/transactions/{txId}/suggestion/approve", suggestionService.ApproveSuggestion)
			r.Post("/transactions/{txId}/suggestion/reject", suggestionService.RejectSuggestion)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", port).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	// In-flight suggestion jobs keep the process alive until they finish.
	if err := runner.Wait(ctx); err != nil {
		log.Warn().Err(err).Msg("background jobs did not finish before deadline")
	}

	log.Info().Msg("server stopped")
}
