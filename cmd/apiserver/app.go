package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"fulfilment/internal/app/config"
	"fulfilment/internal/app/consumer"
	"fulfilment/internal/app/domains/modules/mdorder"
	"fulfilment/internal/app/domains/modules/mdpolicy"
	"fulfilment/internal/app/domains/modules/mdranker"
	"fulfilment/internal/app/domains/modules/mdresolve"
	"fulfilment/internal/app/domains/modules/mdsession"
	"fulfilment/internal/app/domains/repo/rpevent"
	"fulfilment/internal/app/domains/repo/rporder"
	"fulfilment/internal/app/domains/services/svorder"
	"fulfilment/internal/app/domains/services/svsession"
	"fulfilment/internal/app/domains/services/svsubstitution"
	"fulfilment/internal/app/infra/intent"
	"fulfilment/internal/app/infra/inventory"
	"fulfilment/internal/app/infra/mq/lmstfy"
	"fulfilment/internal/app/infra/persistence/mysql"
	"fulfilment/internal/app/infra/persistence/redis"
	"fulfilment/internal/app/infra/predictor"
	"fulfilment/internal/app/pkg/logger"
	"fulfilment/internal/app/server/handlers/order"
	"fulfilment/internal/app/server/handlers/session"
	"fulfilment/internal/app/server/handlers/substitution"
	"fulfilment/internal/app/server/middlewares"
	"fulfilment/internal/app/server/routers"
)

// App 应用依赖集合
type App struct {
	Engine           *gin.Engine
	ShortageConsumer *consumer.ShortageConsumer // lmstfy 未启用时为 nil
	Sessions         mdsession.Store
	Watcher          *mdranker.Watcher // ranker.watch 关闭时为 nil
}

// InitializeApp 按配置组装依赖，返回清理函数
// 1. 存储：MySQL 或内存
// 2. 排序：加载目录与模型快照，注入库存查询
// 3. 会话：Redis 或内存
// 4. 外部服务：意图解析、缺货预测、通知
// 5. 服务与路由
// 6. 缺货消息消费者
func InitializeApp(cfg *config.Config, log logger.Logger) (*App, func(), error) {
	ctx := context.Background()
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	// 1. 存储
	var (
		db        *gorm.DB
		orderRepo rporder.OrderRepository
		eventRepo rpevent.EventRepository
	)
	switch cfg.Storage.Backend {
	case config.BackendMySQL:
		var err error
		if db, err = mysql.NewDB(cfg.MySQL.DSN); err != nil {
			return nil, cleanup, err
		}
		if err := mysql.Migrate(db); err != nil {
			return nil, cleanup, err
		}
		if sqlDB, err := db.DB(); err == nil {
			cleanups = append(cleanups, func() { _ = sqlDB.Close() })
		}
		orderRepo = rporder.NewOrderRepository(db)
		eventRepo = rpevent.NewEventRepository(db)
	default:
		events := rpevent.NewMemoryEventRepository()
		orderRepo = rporder.NewMemoryOrderRepository(events)
		eventRepo = events
	}
	orderModule := mdorder.NewOrderModule(orderRepo, eventRepo)

	// 2. 排序
	snap, err := mdranker.LoadSnapshot(cfg.Ranker.CatalogPath, cfg.Ranker.ModelPath)
	if err != nil {
		// 产物缺失时以兜底候选运行
		log.Warnf(ctx, "ranker artifacts unavailable, serving fallback candidates: %v", err)
		snap = nil
	}
	var (
		ranker *mdranker.Ranker
		stock  mdranker.InventoryReader
	)
	if db != nil {
		stock = inventory.NewWarehouseReader(db)
		ranker = mdranker.NewRanker(snap, log, mdranker.WithInventory(stock, cfg.Ranker.InventoryTimeout))
	} else {
		// 内存模式下库存取目录快照
		ranker = mdranker.NewRanker(snap, log)
		stock = inventory.NewCatalogReader(ranker)
	}

	var watcher *mdranker.Watcher
	if cfg.Ranker.Watch && cfg.Ranker.CatalogPath != "" && cfg.Ranker.ModelPath != "" {
		if watcher, err = mdranker.NewWatcher(ranker, cfg.Ranker.CatalogPath, cfg.Ranker.ModelPath, log); err != nil {
			return nil, cleanup, fmt.Errorf("create ranker watcher failed: %w", err)
		}
	}

	policy := mdpolicy.New(mdpolicy.Config{
		AcceptThreshold: cfg.Policy.AcceptThreshold,
		MaxReplacements: cfg.Policy.MaxReplacements,
	})
	resolver := mdresolve.NewResolver(ranker, policy, mdresolve.Config{
		Parallelism: cfg.Batch.Parallelism,
		K:           cfg.Ranker.DefaultK,
	}, log)

	// 3. 会话
	sessionCfg := mdsession.Config{IdleTTL: cfg.Session.IdleTTL, DeleteGrace: cfg.Session.DeleteGrace}
	var (
		sessions mdsession.Store
		rdb      *goredis.Client
	)
	if cfg.Session.Backend == config.BackendRedis {
		if rdb, err = redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
			return nil, cleanup, err
		}
		cleanups = append(cleanups, func() { _ = rdb.Close() })
		sessions = mdsession.NewRedisStore(rdb, cfg.Session.KeyPrefix, sessionCfg, nil)
	} else {
		sessions = mdsession.NewMemoryStore(sessionCfg, nil)
	}

	// 4. 外部服务
	opts := []svorder.Option{}
	var remoteSessions svsession.RemoteSessions
	if cfg.Intent.BaseURL != "" {
		intentClient := intent.NewClient(cfg.Intent.BaseURL, cfg.Intent.Timeout)
		opts = append(opts, svorder.WithIntentParser(intentClient))
		remoteSessions = intentClient
	}
	if cfg.Predictor.BaseURL != "" {
		opts = append(opts, svorder.WithPredictor(predictor.NewClient(cfg.Predictor.BaseURL, cfg.Predictor.Timeout)))
	}
	if rdb != nil {
		opts = append(opts, svorder.WithNotifiers(redis.NewDecisionNotifier(rdb)))
	}

	var mq *lmstfy.Client
	if cfg.Lmstfy.Enabled {
		mq = lmstfy.NewClient(cfg.Lmstfy.Host, cfg.Lmstfy.Port, cfg.Lmstfy.Namespace, cfg.Lmstfy.Token)
		if cfg.Lmstfy.NotifyQueue != "" {
			opts = append(opts, svorder.WithNotifiers(lmstfy.NewDecisionPublisher(mq, cfg.Lmstfy.NotifyQueue)))
		}
	}

	// 5. 服务与路由
	orderService := svorder.NewOrderService(orderModule, resolver, sessions, stock, log, opts...)
	substitutionService := svsubstitution.NewSubstitutionService(ranker, log)
	sessionService := svsession.NewSessionService(sessions, remoteSessions, log)

	var limiter *middlewares.RateLimiter
	if cfg.Server.RateLimit.Enabled {
		limiter = middlewares.NewRateLimiter(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)
	}
	engine := routers.SetupRoutes(
		order.NewOrderHandler(orderService),
		substitution.NewSubstitutionHandler(substitutionService),
		session.NewSessionHandler(sessionService),
		limiter,
		log,
	)

	// 6. 消费者
	var shortageConsumer *consumer.ShortageConsumer
	if mq != nil {
		sub := cfg.Consumer.Subscriber
		proc := cfg.Consumer.Processor
		shortageConsumer = consumer.NewShortageConsumer(
			consumer.SubscriberConfig{
				QueueName:    cfg.Lmstfy.ShortageQueue,
				Concurrency:  sub.Threads,
				Timeout:      sub.Timeout,
				TTR:          sub.TTR,
				ErrorBackoff: sub.ErrorBackoff,
			},
			consumer.ProcessorConfig{
				Concurrency: proc.Threads,
				BufferSize:  proc.BufferSize,
				Timeout:     proc.Timeout,
			},
			mq,
			orderService,
			log,
		)
	}

	return &App{
		Engine:           engine,
		ShortageConsumer: shortageConsumer,
		Sessions:         sessions,
		Watcher:          watcher,
	}, cleanup, nil
}
