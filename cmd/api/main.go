package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_catalog/internal/cache"
	"github.com/GTDGit/gtd_catalog/internal/config"
	"github.com/GTDGit/gtd_catalog/internal/database"
	"github.com/GTDGit/gtd_catalog/internal/handler"
	"github.com/GTDGit/gtd_catalog/internal/middleware"
	"github.com/GTDGit/gtd_catalog/internal/repository"
	"github.com/GTDGit/gtd_catalog/internal/service"
	"github.com/GTDGit/gtd_catalog/internal/sse"
	"github.com/GTDGit/gtd_catalog/internal/storage"
	"github.com/GTDGit/gtd_catalog/internal/utils"
	"github.com/GTDGit/gtd_catalog/internal/worker"
)

// main is the application entrypoint for the GTD catalog service.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting gtd catalog")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis. The storefront falls back to the database without it.
	var (
		redisClient  *cache.RedisClient
		productCache service.ProductCache
		redisHealth  handler.RedisPinger
	)
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Error().Err(err).Msg("redis connection failed")
			fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		productCache = cache.NewProductCache(redisClient, cfg.Catalog.CacheTTL.Duration())
		redisHealth = redisClient
		log.Info().Msg("redis connected successfully")
	} else {
		log.Warn().Msg("redis disabled - storefront reads go to the database")
	}

	// 3c. Image storage
	store, err := storage.New(context.Background(), cfg.Storage)
	if err != nil {
		log.Error().Err(err).Msg("storage initialization failed")
		fmt.Fprintf(os.Stderr, "storage initialization failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Str("driver", cfg.Storage.Driver).Msg("image storage ready")

	utils.InitJWT(cfg.JWTSecret, cfg.JWTTTL)

	// 4. Initialize repositories
	productRepo := repository.NewProductRepository(db)
	optionRepo := repository.NewOptionRepository(db)
	variantRepo := repository.NewVariantRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)

	// 5. Initialize services
	sseHub := sse.NewHub()
	notifier := sse.NewHubNotifier(sseHub)

	adminAuthSvc := service.NewAdminAuthService(adminRepo)
	productMgmtSvc := service.NewProductManagementService(productRepo, optionRepo, variantRepo, productCache, store, notifier)
	catalogSvc := service.NewCatalogService(productRepo, optionRepo, variantRepo, productCache, store, notifier, cfg.Catalog, cfg.Storage.MaxUploadBytes)
	storefrontSvc := service.NewStorefrontService(productRepo, optionRepo, variantRepo, productCache)

	// 6. Initialize middleware
	authLimiter := middleware.NewInvalidAuthRateLimiter(cfg.AuthMaxAttempts, time.Minute)
	jwtMw := middleware.NewJWTMiddleware(authLimiter)

	// 7. Initialize handlers
	handlers := &Handlers{
		Health:            handler.NewHealthHandler(db, redisHealth),
		Storefront:        handler.NewStorefrontHandler(storefrontSvc),
		Auth:              handler.NewAuthHandler(adminAuthSvc, authLimiter),
		ProductManagement: handler.NewProductManagementHandler(productMgmtSvc),
		Catalog:           handler.NewCatalogHandler(catalogSvc),
		VariantLive:       handler.NewVariantLiveHandler(catalogSvc, authLimiter),
		SSE:               handler.NewSSEHandler(sseHub, authLimiter),
	}

	// 8. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	corsHosts := cfg.CORSAllowedHosts
	if len(corsHosts) == 0 {
		corsHosts = middleware.DefaultAllowedHosts
	}
	router := gin.New()
	router.MaxMultipartMemory = cfg.Storage.MaxUploadBytes
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(corsHosts))
	router.Use(middleware.LoggingMiddleware())
	if cfg.Storage.Driver == "local" {
		router.Static(cfg.Storage.LocalURLPrefix, cfg.Storage.LocalDir)
	}
	setupRoutes(router, handlers, jwtMw)

	// 9. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 10. Start workers
	if productCache != nil {
		go worker.NewCacheWarmWorker(storefrontSvc, cfg.Worker.CacheWarmInterval).Start(ctx)
	}

	// 11. Start HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 12. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 13. Cancel context to stop workers
	cancel()

	// 14. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health            *handler.HealthHandler
	Storefront        *handler.StorefrontHandler
	Auth              *handler.AuthHandler
	ProductManagement *handler.ProductManagementHandler
	Catalog           *handler.CatalogHandler
	VariantLive       *handler.VariantLiveHandler
	SSE               *handler.SSEHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	// Storefront (public)
	store := router.Group("/v1/store")
	{
		store.GET("/products", handlers.Storefront.GetProducts)
		store.GET("/products/:slug", handlers.Storefront.GetProduct)
	}

	// Admin routes
	admin := router.Group("/v1/admin")
	admin.POST("/auth/login", handlers.Auth.Login)

	// Streaming endpoints authenticate with ?token= since browsers cannot set headers.
	admin.GET("/sse", handlers.SSE.Stream)
	admin.GET("/products/:id/variants/live", handlers.VariantLive.Preview)

	admin.Use(jwtMiddleware.Handle())
	{
		// Product Management
		admin.GET("/products", handlers.ProductManagement.ListProducts)
		admin.POST("/products", handlers.ProductManagement.CreateProduct)
		admin.GET("/products/:id", handlers.ProductManagement.GetProduct)
		admin.PUT("/products/:id", handlers.ProductManagement.UpdateProduct)
		admin.DELETE("/products/:id", handlers.ProductManagement.DeleteProduct)

		// Options
		admin.GET("/products/:id/options", handlers.Catalog.GetOptions)
		admin.PUT("/products/:id/options", handlers.Catalog.SaveOptions)

		// Variants
		admin.GET("/products/:id/variants", handlers.Catalog.GetVariants)
		admin.POST("/products/:id/variants/preview", handlers.Catalog.PreviewVariants)
		admin.PUT("/products/:id/variants/:variantId", handlers.Catalog.UpdateVariant)
		admin.POST("/products/:id/variants/:variantId/image", handlers.Catalog.UploadVariantImage)
		admin.DELETE("/products/:id/variants/:variantId/image", handlers.Catalog.RemoveVariantImage)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
