package config

import (
	"fmt"
	"time"

	"github.com/aescanero/swapd/pkg/domain"
	"github.com/caarlos0/env/v10"
)

// Backend names
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Config holds all configuration for swapd
type Config struct {
	// Server configuration
	HTTPPort int    `env:"SWAPD_HTTP_PORT" envDefault:"8080"`
	GRPCPort int    `env:"SWAPD_GRPC_PORT" envDefault:"9090"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Backend selection
	Backends BackendConfig

	// Redis configuration
	Redis RedisConfig

	// Postgres configuration
	Postgres PostgresConfig

	// Job queue configuration
	Queue QueueConfig

	// Worker configuration
	Workers WorkerConfig

	// Routing configuration
	Router RouterConfig

	// Simulated venue and submitter behaviour
	Simulation SimulationConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// BackendConfig selects the adapter behind each port
type BackendConfig struct {
	Storage string `env:"STORAGE_BACKEND" envDefault:"postgres"`
	Cache   string `env:"CACHE_BACKEND" envDefault:"redis"`
	Queue   string `env:"QUEUE_BACKEND" envDefault:"redis"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASS"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`

	// Connection pool settings
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	MaxRetries   int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`

	ActiveOrderTTL time.Duration `env:"ACTIVE_ORDER_TTL" envDefault:"1h"`
}

// PostgresConfig holds database connection configuration
type PostgresConfig struct {
	DSN             string        `env:"POSTGRES_DSN" envDefault:"host=localhost user=postgres password=postgres dbname=swapd port=5432 sslmode=disable"`
	MaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
	MaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"20"`
	ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"30m"`
	AutoMigrate     bool          `env:"POSTGRES_AUTO_MIGRATE" envDefault:"true"`
}

// QueueConfig holds job queue and retry configuration
type QueueConfig struct {
	Name          string        `env:"QUEUE_NAME" envDefault:"order-execution"`
	ConsumerGroup string        `env:"QUEUE_CONSUMER_GROUP" envDefault:"swapd-workers"`
	ConsumerName  string        `env:"QUEUE_CONSUMER_NAME"`
	PollInterval  time.Duration `env:"QUEUE_POLL_INTERVAL" envDefault:"1s"`
	ClaimIdle     time.Duration `env:"QUEUE_CLAIM_IDLE" envDefault:"5m"`
	MaxLen        int64         `env:"QUEUE_MAX_LEN" envDefault:"100000"`
	Capacity      int           `env:"QUEUE_MEMORY_CAPACITY" envDefault:"1024"`

	Attempts     int           `env:"JOB_ATTEMPTS" envDefault:"3"`
	BackoffDelay time.Duration `env:"JOB_BACKOFF_DELAY" envDefault:"1s"`
}

// WorkerConfig holds worker pool configuration
type WorkerConfig struct {
	PoolSize            int           `env:"WORKER_POOL_SIZE" envDefault:"10"`
	RateLimit           int           `env:"WORKER_RATE_LIMIT" envDefault:"100"`
	RateWindow          time.Duration `env:"WORKER_RATE_WINDOW" envDefault:"60s"`
	HealthCheckInterval time.Duration `env:"WORKER_HEALTH_CHECK_INTERVAL" envDefault:"30s"`
}

// RouterConfig holds venue routing configuration
type RouterConfig struct {
	Venues          []string      `env:"ROUTER_VENUES" envDefault:"raydium,meteora" envSeparator:","`
	ProviderTimeout time.Duration `env:"ROUTER_PROVIDER_TIMEOUT" envDefault:"2s"`
}

// SimulationConfig controls the simulated venues and submitter
type SimulationConfig struct {
	QuoteLatency  time.Duration `env:"SIM_QUOTE_LATENCY" envDefault:"200ms"`
	FailureRate   float64       `env:"SIM_FAILURE_RATE" envDefault:"0"`
	SubmitLatency time.Duration `env:"SIM_SUBMIT_LATENCY" envDefault:"2s"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	JobAttemptTimeout time.Duration `env:"TIMEOUT_JOB_ATTEMPT" envDefault:"30s"`
	WriteTimeout      time.Duration `env:"TIMEOUT_WS_WRITE" envDefault:"10s"`
	ShutdownTimeout   time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"30s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	return load(env.Options{})
}

func load(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server ports
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.GRPCPort < 1 || c.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPCPort)
	}

	// Validate backends
	if err := oneOf("storage backend", c.Backends.Storage, BackendMemory, BackendPostgres); err != nil {
		return err
	}
	if err := oneOf("cache backend", c.Backends.Cache, BackendMemory, BackendRedis); err != nil {
		return err
	}
	if err := oneOf("queue backend", c.Backends.Queue, BackendMemory, BackendRedis); err != nil {
		return err
	}

	if c.UsesRedis() && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required")
	}
	if c.Backends.Storage == BackendPostgres && c.Postgres.DSN == "" {
		return fmt.Errorf("postgres DSN is required")
	}
	if c.Redis.ActiveOrderTTL <= 0 {
		return fmt.Errorf("active order TTL must be positive")
	}

	// Validate queue and retry policy
	if c.Queue.Attempts < 1 {
		return fmt.Errorf("job attempts must be at least 1")
	}
	if c.Queue.BackoffDelay <= 0 {
		return fmt.Errorf("job backoff delay must be positive")
	}
	if c.Queue.PollInterval <= 0 {
		return fmt.Errorf("queue poll interval must be positive")
	}

	// Validate worker config
	if c.Workers.PoolSize < 1 {
		return fmt.Errorf("worker pool size must be at least 1")
	}
	if c.Workers.RateLimit < 0 || c.Workers.RateWindow < 0 {
		return fmt.Errorf("worker rate limit must not be negative")
	}

	// Validate routing
	if len(c.Router.Venues) == 0 {
		return fmt.Errorf("at least one venue is required")
	}
	if c.Router.ProviderTimeout <= 0 {
		return fmt.Errorf("router provider timeout must be positive")
	}
	if c.Simulation.FailureRate < 0 || c.Simulation.FailureRate > 1 {
		return fmt.Errorf("simulated failure rate must be within [0, 1]: %v", c.Simulation.FailureRate)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

func oneOf(name, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("unsupported %s: %q (must be one of %v)", name, value, allowed)
}

// UsesRedis reports whether any backend needs a Redis connection
func (c *Config) UsesRedis() bool {
	return c.Backends.Cache == BackendRedis || c.Backends.Queue == BackendRedis
}

// JobOptions returns the retry policy attached to every enqueued job
func (c *Config) JobOptions() domain.JobOptions {
	return domain.JobOptions{
		Attempts: c.Queue.Attempts,
		Backoff: domain.BackoffOptions{
			Type:  domain.BackoffTypeExponential,
			Delay: c.Queue.BackoffDelay,
		},
	}
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// GetGRPCAddr returns the gRPC server address
func (c *Config) GetGRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}
