package main

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"BasketStore/internal/basket"
	"BasketStore/internal/checkout"
	"BasketStore/internal/config"
	"BasketStore/internal/order"
	"BasketStore/internal/user"
	"BasketStore/pkg/kit"
)

const service = "checkout"

func main() {
	log := kit.NewLogger(service)
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal("ping database", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	defer func() { _ = rdb.Close() }()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("ping redis", zap.Error(err))
	}

	users := user.NewPostgresStore(db)
	orders := order.NewPostgresStore(db)
	cache := basket.NewRedisCache(rdb, cfg.BasketTTL)

	basketSrv := &basket.Server{
		Service: basket.NewService(users, cache, order.NewPlacer(orders), log),
		Log:     log,
	}
	orderSrv := &order.Server{
		Service: order.NewService(users, orders, log),
		Log:     log,
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	h := checkout.NewHandler(
		checkout.Deps{
			Users:   users,
			Baskets: basketSrv,
			Orders:  orderSrv,
			Pings: []func(context.Context) error{
				users.Ping,
				cache.Ping,
			},
		},
		checkout.HTTPDeps{
			Log:               log,
			Service:           service,
			Registry:          registry,
			MetricsEnabled:    cfg.MetricsEnabled,
			MetricsToken:      cfg.MetricsToken,
			RateLimit:         cfg.RateLimit,
			RateWindowSeconds: cfg.RateWindowSeconds,
		},
	)

	if err := kit.RunHTTPServer(":"+cfg.Port, h, log); err != nil {
		log.Fatal("http server stopped", zap.Error(err))
	}
}
