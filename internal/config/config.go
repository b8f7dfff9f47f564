// Package config holds the runtime settings of the marketplace services and
// the rules that make a configuration usable.
package config

import (
	"errors"
	"strings"
	"time"
)

// Config is shared by the api_gateway and wallet_processor binaries. Each
// binary reads only the sections it needs, but the whole struct is validated.
type Config struct {
	Application ApplicationConfig
	Logging     LoggingConfig
	Server      ServerConfig
	Kafka       KafkaConfig
	Postgres    PostgresConfig
	MongoDB     MongoDBConfig
	Redis       RedisConfig
	Purchase    PurchaseConfig
	Outbox      OutboxConfig
	WorkerPool  WorkerPoolConfig
	Metrics     MetricsConfig
}

// ApplicationConfig names the service and its environment.
type ApplicationConfig struct {
	Env  string
	Name string
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (a ApplicationConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

// LoggingConfig sets the slog level: debug, info, warn or error.
type LoggingConfig struct {
	Level string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// KafkaConfig describes the recharge request stream and its dead letter topic.
type KafkaConfig struct {
	Brokers           string
	RechargeTopic     string
	NumPartitions     int
	ReplicationFactor int
	ConsumerGroup     string
	MinBytes          int
	MaxBytes          int
	MaxWait           time.Duration
	StartOffset       int64
	DLQTopic          string
}

// BrokerList splits the comma separated KAFKA_BROKERS value.
func (k KafkaConfig) BrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// PostgresConfig holds the pgxpool connection settings.
type PostgresConfig struct {
	URL             string
	MaxConns        int32
	MinConns        int32
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	MigrationsPath  string
}

// MongoDBConfig points at the database holding the audit mirror.
type MongoDBConfig struct {
	URI             string
	Database        string
	Timeout         time.Duration
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
}

// RedisConfig is optional. An empty URL disables the purchase throttle.
type RedisConfig struct {
	URL    string
	Prefix string
}

// PurchaseConfig bounds a single purchase and the rate at which one buyer may
// attempt purchases.
type PurchaseConfig struct {
	Timeout    time.Duration
	RateLimit  int
	RateWindow time.Duration
}

// OutboxConfig tunes the poller that relays outbox rows to the audit mirror.
type OutboxConfig struct {
	PollingInterval  time.Duration
	BatchSize        int
	MaxRetryAttempts int
}

// WorkerPoolConfig sizes the recharge worker pool.
type WorkerPoolConfig struct {
	Size int
}

// MetricsConfig enables /metrics. The api_gateway serves it on SERVER_PORT;
// the wallet_processor has no HTTP server of its own and listens on Port.
type MetricsConfig struct {
	Enabled bool
	Port    int
}

func (c *Config) validate() error {
	var problems []string
	require := func(ok bool, msg string) {
		if !ok {
			problems = append(problems, msg)
		}
	}

	require(c.Server.Port > 0, "SERVER_PORT must be greater than 0")
	require(c.Server.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be greater than 0")
	require(c.Server.ReadTimeout > 0, "SERVER_READ_TIMEOUT must be greater than 0")
	require(c.Server.WriteTimeout > 0, "SERVER_WRITE_TIMEOUT must be greater than 0")
	require(c.Server.IdleTimeout > 0, "SERVER_IDLE_TIMEOUT must be greater than 0")

	require(len(c.Kafka.BrokerList()) > 0, "KAFKA_BROKERS is required")
	require(c.Kafka.RechargeTopic != "", "KAFKA_RECHARGE_TOPIC is required")
	require(c.Kafka.ConsumerGroup != "", "KAFKA_CONSUMER_GROUP is required")
	require(c.Kafka.MinBytes > 0, "KAFKA_CONSUMER_MIN_BYTES must be greater than 0")
	require(c.Kafka.MaxBytes >= c.Kafka.MinBytes, "KAFKA_CONSUMER_MAX_BYTES must not be lower than KAFKA_CONSUMER_MIN_BYTES")
	require(c.Kafka.MaxWait > 0, "KAFKA_CONSUMER_MAX_WAIT must be greater than 0")
	require(c.Kafka.DLQTopic != "", "KAFKA_DLQ_TOPIC is required")
	require(c.Kafka.DLQTopic != c.Kafka.RechargeTopic, "KAFKA_DLQ_TOPIC must differ from KAFKA_RECHARGE_TOPIC")

	require(c.Postgres.URL != "", "POSTGRES_URL is required")
	require(c.Postgres.MaxConns > 0, "POSTGRES_MAX_CONNS must be greater than 0")
	require(c.Postgres.MinConns > 0, "POSTGRES_MIN_CONNS must be greater than 0")
	require(c.Postgres.MinConns <= c.Postgres.MaxConns, "POSTGRES_MIN_CONNS must not exceed POSTGRES_MAX_CONNS")
	require(c.Postgres.ConnMaxLifetime > 0, "POSTGRES_MAX_CONN_LIFETIME must be greater than 0")
	require(c.Postgres.ConnMaxIdleTime > 0, "POSTGRES_MAX_CONN_IDLE_TIME must be greater than 0")

	require(c.MongoDB.URI != "", "MONGO_URI is required")
	require(c.MongoDB.Database != "", "MONGO_DATABASE is required")
	require(c.MongoDB.Timeout > 0, "MONGO_TIMEOUT must be greater than 0")
	require(c.MongoDB.MaxPoolSize > 0, "MONGO_MAX_POOL_SIZE must be greater than 0")
	require(c.MongoDB.MinPoolSize > 0, "MONGO_MIN_POOL_SIZE must be greater than 0")
	require(c.MongoDB.MaxConnIdleTime > 0, "MONGO_MAX_CONN_IDLE_TIME must be greater than 0")

	require(c.Purchase.Timeout > 0, "PURCHASE_TIMEOUT must be greater than 0")
	require(c.Purchase.RateLimit >= 0, "PURCHASE_RATE_LIMIT must not be negative")
	require(c.Purchase.RateLimit == 0 || c.Purchase.RateWindow >= time.Second, "PURCHASE_RATE_WINDOW must be at least 1s when PURCHASE_RATE_LIMIT is set")

	require(c.Outbox.PollingInterval > 0, "OUTBOX_POLLING_INTERVAL must be greater than 0")
	require(c.Outbox.BatchSize > 0, "OUTBOX_BATCH_SIZE must be greater than 0")
	require(c.Outbox.MaxRetryAttempts > 0, "OUTBOX_MAX_RETRY_ATTEMPTS must be greater than 0")

	require(c.WorkerPool.Size > 0, "WORKER_POOL_SIZE must be greater than 0")
	require(!c.Metrics.Enabled || c.Metrics.Port > 0, "METRICS_PORT must be greater than 0 when METRICS_ENABLED is set")

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, ", "))
	}
	return nil
}
