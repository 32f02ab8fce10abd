package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"overwatch-ingest/internal/attribution"
	commoncfg "overwatch-ingest/internal/common/config"
	commondb "overwatch-ingest/internal/common/database"
	commonlog "overwatch-ingest/internal/common/logger"
	commonmqtt "overwatch-ingest/internal/common/mqtt"
	"overwatch-ingest/internal/config"
	"overwatch-ingest/internal/consumer"
	"overwatch-ingest/internal/genai"
	httpapi "overwatch-ingest/internal/http"
	"overwatch-ingest/internal/progress"
	"overwatch-ingest/internal/repository"
	"overwatch-ingest/internal/service"
	"overwatch-ingest/internal/store"
)

func main() {
	cfg := config.Load()

	logger, err := commonlog.NewLogger(cfg.Log.Level, cfg.Log.Format, "overwatch-ingest")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting overwatch-ingest service",
		zap.String("http_addr", cfg.HTTP.Addr),
		zap.String("genai_model", cfg.GenAI.Model),
		zap.Bool("db_enabled", cfg.DBEnabled),
		zap.Bool("intake_enabled", cfg.Intake.Enabled),
		zap.Bool("mqtt_enabled", cfg.MQTT.Enabled),
	)

	// 仓库：有 DB 用 PostgreSQL，连不上退回内存仓库保持可用
	var db *sql.DB
	repos := repository.NewMemoryRepositories()
	if cfg.DBEnabled {
		if d, err := commondb.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			repos = repository.NewPostgresRepositories(db, logger)
			logger.Info("DB enabled for overwatch-ingest")
		} else {
			logger.Warn("DB enabled but connection failed, falling back to memory repositories", zap.Error(err))
		}
	}

	// Redis：进度流转发、完成摘要发布、归因缓存、流式接入都依赖它，
	// 不可用时这些全部降级关闭，HTTP 摄取仍然工作
	var redisClient *redis.Client
	rc := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := rc.Ping(pingCtx).Err(); err == nil {
		redisClient = rc
	} else {
		logger.Warn("Redis unavailable, stream intake and attribution cache disabled", zap.Error(err))
		_ = rc.Close()
	}
	pingCancel()

	// 进度事件：进程内分发给 SSE 订阅者，Redis 可用时再转发到想定进度流
	emitter := progress.NewEmitter(logger)
	relay := progress.NewRelay(emitter, redisClient, logger)
	if redisClient != nil && cfg.Intake.EventStream != "" {
		relay.EnableEventStream(cfg.Intake.EventStream)
	}

	var kv store.KV
	if redisClient != nil {
		kv = store.NewRedisKV(redisClient)
	}
	cache := attribution.NewCache(kv, logger)

	completer := genai.NewClient(&cfg.GenAI, logger)
	linker := service.NewLinker(repos.Documents, repos.Orders, repos.IngestLogs, logger)
	ingestSvc := service.NewIngestService(completer, linker, relay, repos.Scenarios, logger)
	hierarchySvc := service.NewHierarchyService(repos.Documents, repos.Orders, repos.IngestLogs, logger)
	attributionSvc := service.NewAttributionService(repos.Documents, repos.Orders, cache, logger)

	api := httpapi.NewIngestAPI(ingestSvc, hierarchySvc, attributionSvc, repos.Scenarios, repos.Catalog, relay, logger)
	router := httpapi.NewRouter(logger)
	router.RegisterIngestRoutes(api)

	doctor := httpapi.NewDoctorHandler(db, redisClient, logger)
	if os.Getenv("PPROF_ENABLED") == "true" {
		doctor.EnablePprof(true)
	}
	router.RegisterDoctorRoutes(doctor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Intake.Enabled && redisClient != nil {
		intake := consumer.NewIntakeConsumer(redisClient, ingestSvc, cfg.Intake, logger)
		go func() {
			if err := intake.Start(ctx); err != nil {
				logger.Error("Intake consumer stopped", zap.Error(err))
			}
		}()
	}

	var mqttIntake *consumer.MQTTIntake
	var mqttClient *commonmqtt.Client
	if cfg.MQTT.Enabled {
		mc, err := commonmqtt.NewClient(&commoncfg.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
		})
		if err != nil {
			logger.Error("MQTT connect failed, MQTT intake disabled", zap.Error(err))
		} else {
			mqttClient = mc
			mqttIntake = consumer.NewMQTTIntake(mc, ingestSvc, cfg.MQTT.Topic, logger)
			go func() {
				if err := mqttIntake.Start(ctx); err != nil {
					logger.Error("MQTT intake stopped", zap.Error(err))
				}
			}()
		}
	}

	srv := service.NewServer(cfg.HTTP.Addr, router, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.Error("HTTP server exited", zap.Error(err))
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if mqttIntake != nil {
		_ = mqttIntake.Stop(shutdownCtx)
	}
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}

	logger.Info("Service stopped")
}
