package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"course-quiz-service/internal/app"
	"course-quiz-service/internal/config"
	"course-quiz-service/internal/domain"
	"course-quiz-service/internal/infra/memory"
	mongostore "course-quiz-service/internal/infra/mongo"
	pgstore "course-quiz-service/internal/infra/postgres"
)

// backendStore is what every backend driver provides.
type backendStore interface {
	app.CourseStore
	app.UserStore
	app.POAPStore
}

// openBackend connects the configured backend and returns it with its cleanup.
func openBackend(ctx context.Context, cfg config.Config) (backendStore, func(), error) {
	switch cfg.Backend.Driver {
	case "", "memory":
		log.Printf("using in-memory backend with sample data")
		return memory.NewBackend(sampleCourses(), samplePOAPs()), func() {}, nil
	case "postgres":
		if cfg.Postgres.URL == "" {
			return nil, nil, fmt.Errorf("postgres url not configured")
		}
		var pool *pgxpool.Pool
		err := retry(ctx, "postgres", func() error {
			var err error
			if pool != nil {
				pool.Close()
			}
			pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			return pool.Ping(ctx)
		})
		if err != nil {
			return nil, nil, err
		}
		if err := migrateWithRetry(ctx, cfg); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return pgstore.NewStore(pool), pool.Close, nil
	case "mongo":
		if cfg.Mongo.URI == "" {
			return nil, nil, fmt.Errorf("mongo uri not configured")
		}
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
		if err != nil {
			return nil, nil, err
		}
		if err := retry(ctx, "mongo", func() error { return client.Ping(ctx, nil) }); err != nil {
			return nil, nil, err
		}
		database := cfg.Mongo.Database
		if database == "" {
			database = "course-quiz"
		}
		cleanup := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Printf("disconnect mongo: %v", err)
			}
		}
		return mongostore.NewStore(client.Database(database)), cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend driver %q", cfg.Backend.Driver)
	}
}

// openRedis returns nil when no address is configured.
func openRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := retry(ctx, "redis", func() error { return client.Ping(ctx).Err() }); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// migratePostgres applies the schema; swapped in tests.
var migratePostgres = runMigrationsWithConfig

// migrateWithRetry applies the schema, retrying while the database is still starting up.
func migrateWithRetry(ctx context.Context, cfg config.Config) error {
	return retry(ctx, "postgres migrations", func() error { return migratePostgres(ctx, cfg) })
}

var (
	retryInitialInterval = backoff.DefaultInitialInterval
	retryMaxElapsed      = 30 * time.Second
)

// retry runs op with exponential backoff until it succeeds or retryMaxElapsed has passed.
func retry(ctx context.Context, name string, op func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = retryInitialInterval
	policy.MaxElapsedTime = retryMaxElapsed
	return backoff.RetryNotify(op, backoff.WithContext(policy, ctx), func(err error, next time.Duration) {
		log.Printf("%s not ready, retrying in %s: %v", name, next, err)
	})
}

// sampleCourses seeds the in-memory backend for local runs.
func sampleCourses() []domain.Course {
	return []domain.Course{
		{
			ID:    "intro-web3",
			Title: "Intro to Web3",
			Quiz: []domain.Question{
				{ID: "q1", Question: "What secures a blockchain?", Options: []string{"Consensus", "A central admin", "Cookies"}},
				{ID: "q2", Question: "What is a wallet address?", Options: []string{"A public identifier", "A password", "A domain name"}},
				{ID: "q3", Question: "What does gas pay for?", Options: []string{"Computation", "Storage only", "Nothing"}},
				{ID: "q4", Question: "What is a smart contract?", Options: []string{"Code on chain", "A legal PDF", "An email"}},
				{ID: "q5", Question: "What is a testnet?", Options: []string{"A network for testing", "A fast mainnet", "A wallet"}},
				{ID: "q6", Question: "What does POAP stand for?", Options: []string{"Proof of Attendance Protocol", "Proof of Asset Price", "Peer Oracle API"}},
				{ID: "q7", Question: "What signs a transaction?", Options: []string{"A private key", "A public key", "The miner"}},
			},
		},
	}
}

func samplePOAPs() []domain.POAP {
	now := time.Now().UTC()
	return []domain.POAP{
		{
			ID:        "poap-intro-web3",
			Name:      "Intro to Web3 graduate",
			Image:     "https://example.com/poaps/intro-web3.png",
			MintLinks: []string{"https://poap.xyz/mint/demo-1", "https://poap.xyz/mint/demo-2"},
			CourseID:  "intro-web3",
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}
