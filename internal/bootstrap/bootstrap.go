// Package bootstrap opens the shared backends and builds the services both
// binaries run: the match engine, the subscription validator and the notifier.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	awsclients "tradehub/internal/common/aws"
	"tradehub/internal/common/cache"
	"tradehub/internal/common/config"
	"tradehub/internal/common/database"
	"tradehub/internal/common/logger"
	"tradehub/internal/matchmaking"
	"tradehub/internal/notify"
	"tradehub/internal/repository"
	"tradehub/internal/subscription"

	"github.com/elastic/go-elasticsearch/v8"
)

// RetryWithBackoff runs operation until it succeeds or maxRetries attempts have
// failed, doubling the delay after each failure.
func RetryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		if err = operation(); err == nil {
			return nil
		}
		if i == maxRetries-1 {
			break
		}

		log.Warn(operationName+" failed, retrying", map[string]interface{}{
			"error":       err.Error(),
			"attempt":     i + 1,
			"maxRetries":  maxRetries,
			"nextRetryMs": delay.Milliseconds(),
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// Infra holds the opened backends. Elasticsearch is nil when disabled.
type Infra struct {
	Postgres      *database.PostgresClient
	Redis         *database.RedisClient
	Elasticsearch *database.ElasticsearchClient
	Cache         *cache.Cache
}

// Connect opens Postgres (required), Redis and, when enabled, Elasticsearch.
// Redis only backs the cache, so an unreachable Redis is logged and tolerated.
func Connect(ctx context.Context, cfg *config.Config, log logger.Logger) (*Infra, error) {
	infra := &Infra{}

	err := RetryWithBackoff(ctx, func() error {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return err
		}
		infra.Postgres = pg
		return nil
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}
	log.Info("PostgreSQL connected successfully", nil)

	infra.Redis = database.NewRedis(cfg.Database.Redis)
	if err := RetryWithBackoff(ctx, func() error { return infra.Redis.Ping(ctx) }, 5, time.Second, log, "Redis connection"); err != nil {
		log.Warn("Redis unavailable, cache reads will miss", map[string]interface{}{"error": err.Error()})
	} else {
		log.Info("Redis connected successfully", nil)
	}
	if cfg.Cache.Enabled {
		infra.Cache = cache.New(infra.Redis.Client, log)
	}

	if cfg.Database.Elasticsearch.Enabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			infra.Close()
			return nil, err
		}
		if err := es.Ping(ctx); err != nil {
			log.Warn("Elasticsearch unavailable, search falls back to SQL", map[string]interface{}{"error": err.Error()})
		}
		infra.Elasticsearch = es
	}
	return infra, nil
}

// SearchClient returns the raw client or nil when search is disabled.
func (i *Infra) SearchClient() *elasticsearch.Client {
	if i.Elasticsearch == nil {
		return nil
	}
	return i.Elasticsearch.Client
}

func (i *Infra) Close() {
	if i.Redis != nil {
		i.Redis.Close()
	}
	if i.Postgres != nil {
		i.Postgres.Close()
	}
}

// Stores are the repositories over the shared Postgres pool.
type Stores struct {
	Users         *repository.Users
	Buyers        *repository.Buyers
	Sellers       *repository.Sellers
	Products      *repository.Products
	Orders        *repository.Orders
	Quotes        *repository.Quotes
	Messages      *repository.Messages
	Subscriptions *repository.Subscriptions
}

func NewStores(i *Infra) *Stores {
	db := i.Postgres.DB
	return &Stores{
		Users:         repository.NewUsers(db),
		Buyers:        repository.NewBuyers(db),
		Sellers:       repository.NewSellers(db),
		Products:      repository.NewProducts(db),
		Orders:        repository.NewOrders(db),
		Quotes:        repository.NewQuotes(db),
		Messages:      repository.NewMessages(db),
		Subscriptions: repository.NewSubscriptions(db),
	}
}

func NewMatchEngine(cfg *config.Config, i *Infra, s *Stores, log logger.Logger) *matchmaking.Engine {
	catalog := matchmaking.NewCatalogFetcher(i.Postgres.DB, config.GetDuration(cfg.Matchmaking.CatalogTimeout), log)
	return matchmaking.NewEngine(s.Buyers, catalog, i.Cache, matchmaking.EngineConfig{
		MaxResults: cfg.Matchmaking.MaxResults,
		CacheTTL:   config.Seconds(cfg.Cache.MatchesTTL),
	}, log)
}

func NewSubscriptionValidator(cfg *config.Config, i *Infra, s *Stores, log logger.Logger) *subscription.Validator {
	return subscription.NewValidator(s.Subscriptions, i.Cache, config.Seconds(cfg.Cache.SubscriptionTTL), log)
}

// NewNotifier wires SES and SNS per the integration flags. A channel whose AWS
// config cannot be loaded is disabled rather than failing startup.
func NewNotifier(ctx context.Context, cfg *config.Config, s *Stores, log logger.Logger) *notify.Notifier {
	awsCfg := cfg.Integrations.AWS

	var (
		email notify.EmailSender
		sms   notify.SMSSender
	)
	if awsCfg.SES.Enabled || awsCfg.SNS.Enabled {
		sdkCfg, err := awsclients.LoadConfig(ctx, awsCfg.Region)
		if err != nil {
			log.Warn("AWS config unavailable, notifications disabled", map[string]interface{}{"error": err.Error()})
		} else {
			if awsCfg.SES.Enabled {
				email = awsclients.NewSESClient(sdkCfg)
			}
			if awsCfg.SNS.Enabled {
				sms = awsclients.NewSNSClient(sdkCfg, awsCfg.SNS.DefaultSMSSenderID)
			}
		}
	}
	return notify.New(s.Users, email, sms, awsCfg.SES.FromEmail, log)
}
