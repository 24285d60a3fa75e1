package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/abdoelngaar-maker/housing-management/common/database"
	"github.com/abdoelngaar-maker/housing-management/common/logger"
	commonmqtt "github.com/abdoelngaar-maker/housing-management/common/mqtt"
	commonredis "github.com/abdoelngaar-maker/housing-management/common/redis"
	"github.com/abdoelngaar-maker/housing-management/internal/config"
	httpapi "github.com/abdoelngaar-maker/housing-management/internal/http"
	"github.com/abdoelngaar-maker/housing-management/internal/jobs"
	"github.com/abdoelngaar-maker/housing-management/internal/migrations"
	"github.com/abdoelngaar-maker/housing-management/internal/mqtt"
	"github.com/abdoelngaar-maker/housing-management/internal/repository"
	"github.com/abdoelngaar-maker/housing-management/internal/service"
	"github.com/abdoelngaar-maker/housing-management/internal/storage"
	"github.com/abdoelngaar-maker/housing-management/internal/store"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Options{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "housing-data",
		File:        cfg.Log.File,
	})
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// 存储：数据库不可用时回退到内存（本地联调）
	var db *sqlx.DB
	var st repository.Store
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDBx(&cfg.Database); err == nil {
			db = d
			log.Info("DB enabled for housing-data", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.Database))
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory store", zap.Error(err))
		}
	}
	if db != nil {
		if cfg.DBAutoMigrate {
			if err := migrations.Up(db.DB); err != nil {
				log.Fatal("failed to apply migrations", zap.Error(err))
			}
		}
		st = repository.NewPostgresStore(db)
	} else {
		st = repository.NewMemoryStore()
	}

	// 缓存 + 通知流
	var kv store.KV = store.NewMemoryKV()
	var redisClient *redis.Client
	var publishers []service.NotificationPublisher
	if cfg.RedisEnabled {
		redisClient = commonredis.NewRedisClient(&cfg.Redis)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := commonredis.Ping(pingCtx, redisClient)
		cancel()
		if err != nil {
			log.Warn("redis unavailable, using in-process cache", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = commonredis.Close(redisClient)
			redisClient = nil
		} else {
			kv = store.NewRedisKV(redisClient)
			stream := commonredis.NewStreamPublisher(redisClient, store.NotificationStream, 10000)
			publishers = append(publishers, store.NewStreamNotificationPublisher(stream))
		}
	}

	var mqttClient *commonmqtt.Client
	if cfg.MQTT.Enabled {
		c, err := commonmqtt.NewClient(&cfg.MQTT.MQTTConfig, log)
		if err != nil {
			log.Warn("mqtt unavailable, notifications stay local", zap.String("broker", cfg.MQTT.Broker), zap.Error(err))
		} else {
			mqttClient = c
			publishers = append(publishers, mqtt.NewNotificationPublisher(c, cfg.MQTT.Topic, log))
		}
	}

	// 图片存储
	var objects storage.ObjectStore
	var uploads http.Handler
	if cfg.Storage.UseS3() {
		s3Store, err := storage.NewS3Store(context.Background(), storage.S3Config{
			Endpoint:  cfg.Storage.S3Endpoint,
			AccessKey: cfg.Storage.S3AccessKey,
			SecretKey: cfg.Storage.S3SecretKey,
			Bucket:    cfg.Storage.S3Bucket,
			Region:    cfg.Storage.S3Region,
		})
		if err != nil {
			log.Fatal("failed to init S3 storage", zap.Error(err))
		}
		objects = s3Store
	} else {
		local, err := storage.NewLocalStore(cfg.Storage.UploadDir)
		if err != nil {
			log.Fatal("failed to init upload dir", zap.String("dir", cfg.Storage.UploadDir), zap.Error(err))
		}
		objects, uploads = local, local.Handler()
	}

	var ocr service.OCRClient
	if cfg.OCR.BaseURL != "" {
		ocr = service.NewHTTPOCRClient(cfg.OCR.BaseURL, cfg.OCR.APIKey, cfg.OCR.Timeout, cfg.OCR.ReviewThreshold, log)
	}
	var insights service.InsightsClient
	if cfg.Insights.APIKey != "" {
		insights = service.NewOpenAIInsightsClient(cfg.Insights.BaseURL, cfg.Insights.APIKey, cfg.Insights.Model, cfg.Insights.Timeout, log)
	}

	metrics := service.NewMetrics(reg)
	cache := service.NewDashboardCache(kv, cfg.Dashboard.CacheTTL, metrics, log)
	notify := service.NewNotificationService(st, metrics, log, publishers...)

	router := httpapi.NewRouter(httpapi.Deps{
		Units:          service.NewUnitService(st, notify, cache, log),
		Residents:      service.NewResidentService(st, log),
		Occupancy:      service.NewOccupancyService(st, notify, cache, metrics, log),
		Sectors:        service.NewSectorService(st, cache, log),
		Notifications:  notify,
		Reports:        service.NewReportService(st, cache, insights, log),
		Documents:      service.NewDocumentService(ocr, objects, log),
		Store:          st,
		Uploads:        uploads,
		Registry:       reg,
		Logger:         log,
		JWTSecret:      cfg.Auth.JWTSecret,
		RateLimitRPM:   cfg.HTTP.RateLimitRPM,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
	})
	if cfg.Auth.JWTSecret == "" {
		log.Warn("JWT_SECRET not set, API runs without authentication")
	}

	var reconciler *jobs.Reconciler
	if cfg.Reconcile.Enabled {
		reconciler = jobs.NewReconciler(st, reg, log)
		if err := reconciler.Start(cfg.Reconcile.Schedule); err != nil {
			log.Fatal("invalid reconcile schedule", zap.String("schedule", cfg.Reconcile.Schedule), zap.Error(err))
		}
	}

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(shutdownCtx)
	if reconciler != nil {
		reconciler.Stop(shutdownCtx)
	}
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	_ = commonredis.Close(redisClient)
	if db != nil {
		_ = db.Close()
	}
}
