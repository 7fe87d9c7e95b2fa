package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gig_chat_service/internal/chat/app"
	"gig_chat_service/internal/chat/hub"
	"gig_chat_service/internal/chat/repository"
	"gig_chat_service/internal/chat/router"
	"gig_chat_service/pkg/config"
	"gig_chat_service/pkg/database"
	"gig_chat_service/pkg/logger"
	testtool "gig_chat_service/pkg/test_tool"
	"gig_chat_service/pkg/token"

	"github.com/go-redis/redis/v8"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	defer logger.Log.Sync()

	cfg := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)
	if config.EnvConfig.ChatServicePort != "" && cfg.Port == "" {
		cfg.Port = config.EnvConfig.ChatServicePort
	}
	cfg.ApplyDefaults()
	token.SetSecret(cfg.Auth.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var health *database.HealthServer
	if cfg.GRPCHealthPort != "" {
		var err error
		health, err = database.StartHealthServer(":" + cfg.GRPCHealthPort)
		if err != nil {
			logger.Log.Fatal("start grpc health server", zap.Error(err))
		}
		defer health.Stop()
	}

	testtool.StartPprof(cfg.Pprof, "127.0.0.1:6060")

	// 1. message store
	msgRepo, closeStore := newMessageRepository(ctx, cfg)
	defer closeStore()

	// 2. blob store
	blobs, media := newBlobStore(cfg)

	// 3. live relay
	relay, closeRelay := newRelay(cfg)
	defer closeRelay()

	// 4. message.created sink
	sink := newEventSink(cfg)
	defer sink.Close()

	registry := hub.NewRegistry()
	broker := hub.NewBroker(registry, relay)
	if err := broker.Start(ctx); err != nil {
		logger.Log.Fatal("start broker", zap.Error(err))
	}

	encoder := app.NewPayloadEncoder(blobs, app.PayloadPolicy{
		MaxAudioBytes:    cfg.Payload.MaxAudioBytes,
		MaxFileBytes:     cfg.Payload.MaxFileBytes,
		AllowedFileTypes: cfg.Payload.AllowedFileTypes,
	})
	messageUC := app.NewMessageUseCase(msgRepo, encoder, broker, sink)

	wsHandler := app.NewChatWebsocketHandler(registry, messageUC, app.WebsocketSettings{
		PingInterval: cfg.Websocket.PingInterval,
		SendBuffer:   cfg.Websocket.SendBuffer,
		ReadLimit:    cfg.Websocket.ReadLimit,
	})
	httpHandler := app.NewChatHTTPHandler(messageUC, registry)

	// multipart overhead on top of the largest payload
	r := router.NewFiberApp(int(cfg.Payload.MaxFileBytes) + 1<<20)
	if dir := config.EnvConfig.ChatServiceLogPath; dir != "" {
		file, err := os.OpenFile(fmt.Sprintf("%s/access.log", dir), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
		if err != nil {
			logger.Log.Fatal("open access log", zap.Error(err))
		}
		defer file.Close()
		r.Use(fiber_log.New(fiber_log.Config{Output: file}))
	}
	router.RegisterRoutes(ctx, r, wsHandler, httpHandler, media)

	go func() {
		<-ctx.Done()
		logger.Log.Info("shutting down chat service")
		if health != nil {
			health.SetServing(false)
		}
		if err := r.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Log.Error("fiber shutdown", zap.Error(err))
		}
	}()

	if health != nil {
		health.SetServing(true)
	}

	port := ":" + cfg.Port
	logger.Log.Info("chat service listening", zap.String("port", port),
		zap.String("storage", cfg.Storage.Driver), zap.String("relay", cfg.Relay.Driver), zap.String("sink", cfg.Sink.Driver))
	if err := r.Listen(port); err != nil {
		logger.Log.Fatal("fiber listen", zap.Error(err))
	}
}

func newMessageRepository(ctx context.Context, cfg config.Chat) (repository.MessageRepository, func()) {
	switch cfg.Storage.Driver {
	case "mongo":
		uri := database.MongoURI(cfg.MongoSQL.Host, cfg.MongoSQL.Port, cfg.MongoSQL.User, cfg.MongoSQL.Password)
		mongo, err := database.NewMongoDB(ctx,
			database.Connection{
				ConnectStr:    uri,
				RetryCount:    cfg.MongoSQL.RetryCount,
				RetryInterval: time.Duration(cfg.MongoSQL.RetryInterval),
			},
			cfg.MongoSQL.Database)
		if err != nil {
			logger.Log.Fatal("Unable to connect to mongoDB database after retries",
				zap.String("host", cfg.MongoSQL.Host), zap.Error(err))
		}
		if err := repository.EnsureMessageIndexes(ctx, mongo.Database); err != nil {
			logger.Log.Fatal("ensure message indexes", zap.Error(err))
		}
		return repository.NewMongoMessageRepository(mongo.Database), func() {
			_ = mongo.Close(context.Background())
		}

	case "postgres":
		db, err := database.NewGormConnection(database.PostgresConnection{
			Host:          cfg.PostgreSQL.Host,
			Port:          cfg.PostgreSQL.Port,
			User:          cfg.PostgreSQL.User,
			Password:      cfg.PostgreSQL.Password,
			Database:      cfg.PostgreSQL.Database,
			RetryCount:    cfg.PostgreSQL.RetryCount,
			RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
		})
		if err != nil {
			logger.Log.Fatal("Unable to connect to postgreSQL database after retries",
				zap.String("host", cfg.PostgreSQL.Host), zap.Error(err))
		}
		repo, err := repository.NewPostgresMessageRepository(db)
		if err != nil {
			logger.Log.Fatal("migrate message table", zap.Error(err))
		}
		return repo, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}

	case "memory":
		logger.Log.Warn("memory message store, history is lost on restart")
		return repository.NewMemoryMessageRepository(), func() {}

	default:
		logger.Log.Fatal("unknown storage driver", zap.String("driver", cfg.Storage.Driver))
		return nil, nil
	}
}

// newBlobStore the memory store is also returned so its objects can be served under /media
func newBlobStore(cfg config.Chat) (repository.BlobStore, *repository.MemoryBlobStore) {
	if cfg.MinIO.Endpoint == "" {
		base := cfg.MinIO.PublicURL
		if base == "" {
			base = "http://localhost:" + cfg.Port
		}
		base = strings.TrimSuffix(base, "/") + "/media"
		logger.Log.Warn("minio endpoint not set, media kept in memory", zap.String("baseURL", base))
		mem := repository.NewMemoryBlobStore(base)
		return mem, mem
	}

	client, err := database.NewMinIOConnection(database.MinIOConnection{
		Endpoint:      cfg.MinIO.Endpoint,
		User:          cfg.MinIO.User,
		Password:      cfg.MinIO.Password,
		BucketName:    cfg.MinIO.BucketName,
		UseSSL:        cfg.MinIO.UseSSL,
		RetryCount:    cfg.MinIO.RetryCount,
		RetryInterval: time.Duration(cfg.MinIO.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("Unable to connect to minIO after retries", zap.String("endpoint", cfg.MinIO.Endpoint), zap.Error(err))
	}
	return repository.NewMinIOBlobStore(client, cfg.MinIO.PublicURL, cfg.MinIO.PresignExpiry), nil
}

func newRelay(cfg config.Chat) (hub.Relay, func()) {
	switch cfg.Relay.Driver {
	case "redis":
		var (
			client *redis.Client
			err    error
		)
		if cfg.Redis.Addr != "" {
			client, err = database.NewRedisStandalone(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.RedisDB)
		} else {
			masterName, sentinel := config.GetRedisSetting()
			client, err = database.NewRedisClient(masterName, sentinel, cfg.Redis.Password, cfg.Redis.RedisDB)
		}
		if err != nil {
			logger.Log.Fatal("connect redis", zap.Error(err))
		}
		return repository.NewRedisPubSub(client), func() { _ = client.Close() }

	case "nats":
		nc, err := database.NewNATSConnection(database.NATSConnection{
			URL:           cfg.NATS.URL,
			Name:          config.EnvConfig.ChatService,
			RetryCount:    cfg.NATS.RetryCount,
			RetryInterval: time.Duration(cfg.NATS.RetryInterval),
		})
		if err != nil {
			logger.Log.Fatal("connect nats", zap.Error(err))
		}
		return repository.NewNATSRelay(nc), nc.Close

	case "local":
		return nil, func() {}

	default:
		logger.Log.Fatal("unknown relay driver", zap.String("driver", cfg.Relay.Driver))
		return nil, nil
	}
}

func newEventSink(cfg config.Chat) repository.EventSink {
	switch cfg.Sink.Driver {
	case "kafka":
		writer, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
			Brokers:       cfg.Kafka.Brokers,
			Topic:         cfg.Kafka.Topic,
			RetryCount:    cfg.Kafka.RetryCount,
			RetryInterval: time.Duration(cfg.Kafka.RetryInterval),
		})
		if err != nil {
			logger.Log.Fatal("kafka writer", zap.Error(err))
		}
		return repository.NewKafkaSink(writer)

	case "rabbitmq":
		conn, err := database.ConnectRabbitMQWithRetry(database.Connection{
			ConnectStr:    cfg.RabbitMQ.URL,
			RetryCount:    cfg.RabbitMQ.RetryCount,
			RetryInterval: time.Duration(cfg.RabbitMQ.RetryInterval),
		})
		if err != nil {
			logger.Log.Fatal("connect rabbitMQ", zap.Error(err))
		}
		ch, err := database.GetRabbitMQChannelWithRetry(conn, cfg.RabbitMQ.RetryCount, time.Duration(cfg.RabbitMQ.RetryInterval))
		if err != nil {
			logger.Log.Fatal("rabbitMQ channel", zap.Error(err))
		}
		sink, err := repository.NewRabbitMQSink(ch, cfg.RabbitMQ.Exchange)
		if err != nil {
			logger.Log.Fatal("rabbitMQ sink", zap.Error(err))
		}
		return sink

	case "none":
		return repository.NewNoopSink()

	default:
		logger.Log.Fatal("unknown sink driver", zap.String("driver", cfg.Sink.Driver))
		return nil
	}
}
