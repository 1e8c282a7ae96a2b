package main

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-redis/cache/v8"
	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v4"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/dkravchuk/papertrader/internal/config"
	"github.com/dkravchuk/papertrader/internal/events"
	eventkafka "github.com/dkravchuk/papertrader/internal/events/kafka"
	"github.com/dkravchuk/papertrader/internal/prices"
	"github.com/dkravchuk/papertrader/internal/repository"
	"github.com/dkravchuk/papertrader/internal/server"
	"github.com/dkravchuk/papertrader/internal/service"
	"github.com/dkravchuk/papertrader/internal/tradelog"
)

func main() {
	// Configuration
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file, using system environment variables")
	}
	cfg := new(config.Config)
	if err := env.Parse(cfg); err != nil {
		log.Fatalf("%v", err)
	}

	// Storage
	var store service.Storage
	switch cfg.Storage {
	case "memory":
		store = repository.NewMemory()
	default:
		url := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
			cfg.UsernamePostgres, cfg.PasswordPostgres, cfg.HostPostgres, cfg.PortPostgres, cfg.DBNamePostgres)
		conn, err := pgx.Connect(context.Background(), url)
		if err != nil {
			log.Fatalf("Unable to connect to database: %v", err)
		}
		defer func(conn *pgx.Conn, ctx context.Context) {
			if err = conn.Close(ctx); err != nil {
				log.Error(err)
			}
		}(conn, context.Background())

		rep := repository.NewRepository(conn)
		if err = rep.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("%v", err)
		}
		store = rep
	}

	// Redis cache in front of the price source
	hostAndPort := fmt.Sprint(cfg.HostRedisCache, ":", cfg.PortRedisCache)
	ring := redis.NewRing(&redis.RingOptions{Addrs: map[string]string{cfg.ServerRedisCache: hostAndPort}})
	quoteCache := repository.NewQuoteCache(cache.New(&cache.Options{Redis: ring}),
		time.Duration(cfg.QuoteTTLSeconds)*time.Second)
	src := prices.NewCached(prices.NewStatic(), quoteCache)

	// Kafka trade events, optional
	var pub events.Publisher
	if len(cfg.BrokersKafka) > 0 {
		kp := eventkafka.NewPublisher(cfg.BrokersKafka, cfg.TopicKafka)
		defer func(kp *eventkafka.Publisher) {
			if err := kp.Close(); err != nil {
				log.Error(err)
			}
		}(kp)
		pub = kp
	}

	srv := service.NewService(store, tradelog.NewLog(store), src, pub)

	// HTTP
	app := fiber.New()
	server.NewServer(srv).InitializeRoutes(app)
	log.Fatal(app.Listen(fmt.Sprint(cfg.HostHTTP, ":", cfg.PortHTTP)))
}
