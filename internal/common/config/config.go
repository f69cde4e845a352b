package config

import (
	"fmt"
	"time"
)

// Config is the root configuration shared by the API server, the worker manager and
// the tools.
type Config struct {
	App          AppConfig               `mapstructure:"app"`
	Server       ServerConfig            `mapstructure:"server"`
	Camunda      CamundaConfig           `mapstructure:"camunda"`
	Database     DatabaseConfig          `mapstructure:"database"`
	Auth         AuthConfig              `mapstructure:"auth"`
	Cache        CacheConfig             `mapstructure:"cache"`
	Matchmaking  MatchmakingConfig       `mapstructure:"matchmaking"`
	Chat         ChatConfig              `mapstructure:"chat"`
	Search       SearchConfig            `mapstructure:"search"`
	Workers      map[string]WorkerConfig `mapstructure:"workers"`
	Integrations IntegrationConfig       `mapstructure:"integrations"`
	Logging      LoggingConfig           `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port         int      `mapstructure:"port"`
	ReadTimeout  int      `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int      `mapstructure:"write_timeout"` // milliseconds
	BodyLimit    int      `mapstructure:"body_limit"`    // bytes
	CORSOrigins  []string `mapstructure:"cors_origins"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	HealthPort     int    `mapstructure:"health_port"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Database        string `mapstructure:"database"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	MaxConnections  int    `mapstructure:"max_connections"`
	MaxIdle         int    `mapstructure:"max_idle"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // milliseconds
	SSLMode         string `mapstructure:"sslmode"`
}

// GetDSN returns the lib/pq key/value connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

type RedisConfig struct {
	Address      string `mapstructure:"address"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	DialTimeout  int    `mapstructure:"dial_timeout"`  // milliseconds
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
}

type AuthConfig struct {
	JWT struct {
		Secret   string `mapstructure:"secret"`
		Issuer   string `mapstructure:"issuer"`
		TokenTTL int    `mapstructure:"token_ttl"` // minutes
	} `mapstructure:"jwt"`
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

// CacheConfig holds read-through TTLs, in seconds.
type CacheConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	MatchesTTL      int  `mapstructure:"matches_ttl"`
	BuyerTTL        int  `mapstructure:"buyer_ttl"`
	SellerTTL       int  `mapstructure:"seller_ttl"`
	ProductTTL      int  `mapstructure:"product_ttl"`
	SubscriptionTTL int  `mapstructure:"subscription_ttl"`
}

type MatchmakingConfig struct {
	CatalogTimeout int `mapstructure:"catalog_timeout"` // milliseconds
	MaxResults     int `mapstructure:"max_results"`
}

type ChatConfig struct {
	HistoryLimit int `mapstructure:"history_limit"`
	MaxBodyLen   int `mapstructure:"max_body_length"`
}

type SearchConfig struct {
	ProductIndex string `mapstructure:"product_index"`
	Timeout      int    `mapstructure:"timeout"` // milliseconds
}

// WorkerConfig holds the settings applicable to every workflow worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
}

type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled            bool   `mapstructure:"enabled"`
			DefaultSMSSenderID string `mapstructure:"default_sms_sender_id"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// Seconds converts a TTL in seconds to time.Duration.
func Seconds(s int) time.Duration {
	return time.Duration(s) * time.Second
}
