package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"ecotrace/internal/ai"
	"ecotrace/internal/cache"
	"ecotrace/internal/config"
	"ecotrace/internal/identify"
	"ecotrace/internal/model"
	mysqlClient "ecotrace/internal/platform/mysql"
	rabbitmqClient "ecotrace/internal/platform/rabbitmq"
	redisClient "ecotrace/internal/platform/redis"
	"ecotrace/internal/vision"
	"ecotrace/internal/worker"
)

type App struct {
	Config            *config.Config
	MySQL             *gorm.DB
	Redis             *redis.Client
	MQConn            *amqp.Connection
	DisposalPublisher *rabbitmqClient.DisposalPublisher
	Gateway           identify.ClassifierGateway
	StatsWorker       *worker.CommunityStatsWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(&model.User{}, &model.UserTracker{}, &model.DeviceTracker{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	gateway, err := buildGateway(cfg)
	if err != nil {
		return nil, err
	}

	publisher := rabbitmqClient.NewDisposalPublisher(mqConn, cfg.RabbitMQ.DisposalEventQueue)
	statsStore := cache.NewCommunityStatsStore(redisCli)
	statsWorker := worker.NewCommunityStatsWorker(mqConn, statsStore, cfg.RabbitMQ.DisposalEventQueue)
	if err := statsWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start community stats worker failed: %w", err)
	}

	return &App{
		Config:            cfg,
		MySQL:             mysqlDB,
		Redis:             redisCli,
		MQConn:            mqConn,
		DisposalPublisher: publisher,
		Gateway:           gateway,
		StatsWorker:       statsWorker,
		StartedAt:         time.Now(),
	}, nil
}

// buildGateway constructs exactly one classifier backend from config. The two
// backends are alternatives, never composed.
func buildGateway(cfg *config.Config) (identify.ClassifierGateway, error) {
	timeout := time.Duration(cfg.Identify.TimeoutSeconds) * time.Second

	switch cfg.Identify.Backend {
	case "vision_api":
		client := ai.NewVisionClient(timeout)
		return identify.NewVisionAPIGateway(client, ai.VisionConfig{
			BaseURL:   cfg.VisionAPI.BaseURL,
			APIKey:    cfg.VisionAPI.APIKey,
			Model:     cfg.VisionAPI.Model,
			MaxTokens: cfg.VisionAPI.MaxTokens,
		}, timeout), nil
	case "local":
		classifier := vision.NewClassifier(
			cfg.Classifier.ModelPath,
			cfg.Classifier.LabelsPath,
			cfg.Classifier.ONNXSharedLibPath,
		)
		return identify.NewLocalGateway(classifier, cfg.Classifier.MinScore), nil
	default:
		return nil, fmt.Errorf("unknown identify backend %q (want vision_api or local)", cfg.Identify.Backend)
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.StatsWorker != nil {
		a.StatsWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
