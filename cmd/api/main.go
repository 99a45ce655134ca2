package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/address-parser/postal-service/app/config"
	"github.com/address-parser/postal-service/app/controllers"
	"github.com/address-parser/postal-service/app/metrics"
	"github.com/address-parser/postal-service/app/services"
	"github.com/address-parser/postal-service/internal/search"
	"github.com/address-parser/postal-service/routes"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	loadConfig()

	// 2. Khởi tạo logger
	logger := initLogger()
	defer logger.Sync()

	if err := config.Load(viper.GetString("postal_config")); err != nil {
		logger.Warn("Không đọc được cấu hình postal, dùng mặc định",
			zap.String("path", viper.GetString("postal_config")), zap.Error(err))
	}

	logger.Info("Starting Postal Service", zap.String("version", controllers.Version))

	// 3. Nạp dữ liệu libpostal
	engine, err := services.NewPostalEngine(config.C, logger)
	if err != nil {
		logger.Fatal("Failed to initialize libpostal", zap.Error(err))
	}
	defer engine.Close()

	// 4. Cache kết quả
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	cacheService, cleanup := initCache(ctx, logger)
	defer cleanup()
	defer cacheService.Close()

	// 5. Blocking index (tùy chọn)
	var blocking services.BlockingStore
	if host := viper.GetString("meili_host"); host != "" {
		index, err := search.NewBlockingIndex(search.SearchConfig{
			Host:          host,
			APIKey:        viper.GetString("meili_api_key"),
			IndexName:     viper.GetString("meili_index"),
			Timeout:       10 * time.Second,
			MaxCandidates: config.C.Dedupe.CandidateLimit,
		}, logger)
		if err != nil {
			logger.Warn("Blocking index không khả dụng", zap.Error(err))
		} else {
			if err := index.EnsureSettings(); err != nil {
				logger.Warn("Failed to update index settings", zap.Error(err))
			}
			blocking = index
		}
	}

	// 6. Khởi tạo services và controllers
	m := metrics.New()
	postalService := services.NewPostalService(engine, cacheService, m, logger)
	dedupeService := services.NewDedupeService(engine, blocking, m, logger)

	ctrl := routes.Controllers{
		Postal: controllers.NewPostalController(ctx, postalService, logger),
		Dedupe: controllers.NewDedupeController(dedupeService, logger),
		Admin:  controllers.NewAdminController(postalService, logger),
	}

	if viper.GetString("app_env") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupAllRoutes(router, ctrl, m.Handler(), logger)

	// 7. Khởi động server
	srv := &http.Server{
		Addr:    ":" + viper.GetString("port"),
		Handler: router,
	}
	go func() {
		logger.Info("Postal Service starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// loadConfig load configuration từ file và env vars
func loadConfig() {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetDefault("app_env", "development")
	viper.SetDefault("port", "8080")
	viper.SetDefault("postal_config", "config/postal.yaml")
	viper.SetDefault("cache_backend", "memory")
	viper.SetDefault("redis_url", "redis://localhost:6379/0")
	viper.SetDefault("mongodb_uri", "mongodb://localhost:27017")
	viper.SetDefault("mongodb_database", "postal")
	viper.SetDefault("meili_index", "postal_blocking")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Cannot read config file: %v", err)
	}
}

// initLogger khởi tạo structured logger
func initLogger() *zap.Logger {
	var cfg zap.Config
	if viper.GetString("app_env") == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		log.Fatal("Cannot initialize logger:", err)
	}
	return logger
}

// initCache chọn backend cache theo cache_backend. cleanup đóng các kết nối
// phụ (MongoDB) sau khi cache đã đóng.
func initCache(ctx context.Context, logger *zap.Logger) (services.ICacheService, func()) {
	ttl := config.CacheTTL()
	backend := viper.GetString("cache_backend")
	noop := func() {}

	switch backend {
	case "memory":
		cache := services.NewCacheService(ttl)
		cache.StartCleanupWorker(ctx, time.Minute)
		return cache, noop
	case "lru":
		cache, err := services.NewLRUCacheService(config.C.Cache.L1Size, ttl)
		if err != nil {
			logger.Fatal("Failed to initialize LRU cache", zap.Error(err))
		}
		return cache, noop
	case "redis":
		cache, err := services.NewRedisCacheService(viper.GetString("redis_url"), ttl, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Redis cache", zap.Error(err))
		}
		return cache, noop
	case "mongo", "hybrid":
		db := initMongoDB(logger)
		cleanup := func() {
			if err := db.Client().Disconnect(context.Background()); err != nil {
				logger.Error("Error disconnecting MongoDB", zap.Error(err))
			}
		}
		mongoCache, err := services.NewMongoCacheService(db, config.C.Cache.L1Size, ttl, logger)
		if err != nil {
			logger.Fatal("Failed to initialize MongoDB cache", zap.Error(err))
		}
		if err := mongoCache.WarmUp(ctx, config.C.Cache.DataVersion, config.C.Cache.L1Size/2); err != nil {
			logger.Warn("Failed to warm up cache", zap.Error(err))
		}
		if backend == "mongo" {
			return mongoCache, cleanup
		}

		// Redis L1 + MongoDB L2
		redisCache, err := services.NewRedisCacheService(viper.GetString("redis_url"), ttl, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Redis cache", zap.Error(err))
		}
		return services.NewHybridCacheService(redisCache, mongoCache, logger), cleanup
	default:
		logger.Fatal("Unknown cache backend", zap.String("cache_backend", backend))
		return nil, noop
	}
}

// initMongoDB khởi tạo kết nối MongoDB
func initMongoDB(logger *zap.Logger) *mongo.Database {
	uri := viper.GetString("mongodb_uri")

	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		logger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}

	db := client.Database(viper.GetString("mongodb_database"))
	logger.Info("Connected to MongoDB", zap.String("database", db.Name()))
	return db
}
