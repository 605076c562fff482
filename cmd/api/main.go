package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"address-rest-api/internal/cache"
	"address-rest-api/internal/config"
	"address-rest-api/internal/handler"
	"address-rest-api/internal/repository"
	"address-rest-api/internal/router"
	"address-rest-api/internal/service"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting address API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize address repository based on config
	var addressRepo repository.AddressRepository
	switch cfg.AddressDB.Type {
	case "postgres", "postgresql":
		pgRepo, err := repository.NewPostgresAddressRepository(cfg.AddressDB.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		defer pgRepo.Close()
		addressRepo = pgRepo
		log.Println("PostgreSQL address repository initialized")
	case "sqlite":
		sqliteRepo, err := repository.NewSQLiteAddressRepository(cfg.AddressDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		defer sqliteRepo.Close()
		addressRepo = sqliteRepo
		log.Println("SQLite address repository initialized")
	default: // mongodb
		mongoRepo, err := repository.NewMongoDBAddressRepository(
			cfg.AddressDB.MongoURI,
			cfg.AddressDB.MongoDatabase,
			cfg.AddressDB.MongoCollection,
		)
		if err != nil {
			log.Fatalf("Failed to initialize MongoDB: %v", err)
		}
		defer mongoRepo.Close()
		addressRepo = mongoRepo
		log.Println("MongoDB address repository initialized")
	}

	// Initialize cache store based on config
	var cacheStore cache.Cache
	switch cfg.Cache.Type {
	case "redis":
		redisCache, err := cache.NewRedisCache(cache.RedisCacheConfig{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Fatalf("Failed to initialize Redis cache: %v", err)
		}
		cacheStore = redisCache
		log.Println("Redis cache initialized")
	default: // memory
		cacheStore = cache.NewMemoryCache()
		log.Println("Memory cache initialized")
	}

	// Cache lifecycle: clear everything a prior process instance left behind
	lifecycle := service.NewCacheLifecycleManager(cacheStore)
	lifecycle.OnStart(context.Background())

	// Initialize services
	addressService := service.NewAddressService(addressRepo, cacheStore, cfg.Cache.TTL)

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version,
		handler.ReadyCheck{Name: "store", Probe: func(ctx context.Context) error {
			_, err := addressRepo.Stats(ctx)
			return err
		}},
		handler.ReadyCheck{Name: "cache", Probe: func(ctx context.Context) error {
			_, err := cacheStore.Exists(ctx, "readiness-probe")
			return err
		}},
	)
	addressHandler := handler.NewAddressHandler(addressService)
	adminHandler := handler.NewAdminHandler(lifecycle, addressRepo, cfg.Cache.Type, cfg.AddressDB.Type)

	// Create router
	r := router.New(router.Config{
		Handler:        healthHandler,
		AddressHandler: addressHandler,
		AdminHandler:   adminHandler,
		AdminKey:       cfg.App.AdminKey,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// A second signal abandons the cache-clear retry loop immediately
	go func() {
		<-quit
		log.Println("Second signal received, forcing shutdown...")
		lifecycle.Interrupt()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	// Clear caches only after the drain: in-flight requests repopulate
	// the cache, so clearing first would leave their entries behind in
	// an external store.
	lifecycle.OnShutdownRequested(ctx)

	if err := cacheStore.Close(); err != nil {
		log.Printf("Cache close error: %v", err)
	}

	log.Println("Server stopped")
}
