package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	id "trustledger/pkg/domain"
	strutil "trustledger/pkg/platform/strings"
)

// Zero-budget handling for overrun detection.
const (
	ZeroBudgetCritical = "critical"
	ZeroBudgetSkip     = "skip"
)

// Trust indicator persistence modes.
const (
	SnapshotUpsert = "upsert"
	SnapshotAppend = "append"
)

// Well-known identities used for system-generated records.
const (
	DefaultSystemActorID  = "7f1d2c3b-0000-4000-8000-000000000001"
	DefaultSystemSourceID = "7f1d2c3b-0000-4000-8000-000000000002"
)

// Config is the full process configuration.
type Config struct {
	Server    Server          `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Store     StoreConfig     `mapstructure:"store"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Integrity IntegrityConfig `mapstructure:"integrity"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string `mapstructure:"addr" validate:"required"`
	JWTSigningKey string `mapstructure:"jwt_signing_key" validate:"required,min=16"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json text"`
}

type StoreConfig struct {
	Driver      string `mapstructure:"driver" validate:"oneof=memory postgres"`
	DatabaseURL string `mapstructure:"database_url" validate:"required_if=Driver postgres"`
}

// RedisConfig is optional; an empty URL disables the run lock.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size" validate:"gte=1"`
	MinIdleConns int           `mapstructure:"min_idle_conns" validate:"gte=0"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// KafkaConfig is optional; empty brokers disable the outbox relay.
type KafkaConfig struct {
	Brokers       string        `mapstructure:"brokers"`
	Topic         string        `mapstructure:"topic" validate:"required"`
	Partitions    int32         `mapstructure:"partitions" validate:"gte=1"`
	Replication   int16         `mapstructure:"replication" validate:"gte=1"`
	RelayInterval time.Duration `mapstructure:"relay_interval"`
}

// BrokerList returns the configured brokers, deduplicated.
func (k KafkaConfig) BrokerList() []string {
	return strutil.SplitList(k.Brokers)
}

type IntegrityConfig struct {
	SystemActorID    string        `mapstructure:"system_actor_id" validate:"required,uuid"`
	SystemSourceID   string        `mapstructure:"system_source_id" validate:"required,uuid"`
	ZeroBudgetPolicy string        `mapstructure:"zero_budget_policy" validate:"oneof=critical skip"`
	SnapshotMode     string        `mapstructure:"snapshot_mode" validate:"oneof=upsert append"`
	Workers          int           `mapstructure:"workers" validate:"gte=1,lte=64"`
	ScheduleEnabled  bool          `mapstructure:"schedule_enabled"`
	ScheduleInterval time.Duration `mapstructure:"schedule_interval"`
	LockTTL          time.Duration `mapstructure:"lock_ttl"`

	SystemActor  id.UserID       `mapstructure:"-"`
	SystemSource id.FundSourceID `mapstructure:"-"`
}

// Load reads configuration from defaults, an optional file named by
// TRUSTLEDGER_CONFIG, and TRUSTLEDGER_* environment variables, then validates it.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	if path := os.Getenv("TRUSTLEDGER_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("TRUSTLEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.jwt_signing_key", DevJWTSigningKey)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.database_url", "")
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 0)
	v.SetDefault("redis.dial_timeout", 5*time.Second)
	v.SetDefault("redis.read_timeout", 3*time.Second)
	v.SetDefault("redis.write_timeout", 3*time.Second)
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "integrity.audit")
	v.SetDefault("kafka.partitions", 3)
	v.SetDefault("kafka.replication", 1)
	v.SetDefault("kafka.relay_interval", 2*time.Second)
	v.SetDefault("integrity.system_actor_id", DefaultSystemActorID)
	v.SetDefault("integrity.system_source_id", DefaultSystemSourceID)
	v.SetDefault("integrity.zero_budget_policy", ZeroBudgetCritical)
	v.SetDefault("integrity.snapshot_mode", SnapshotUpsert)
	v.SetDefault("integrity.workers", 4)
	v.SetDefault("integrity.schedule_enabled", false)
	v.SetDefault("integrity.schedule_interval", time.Hour)
	v.SetDefault("integrity.lock_ttl", 30*time.Minute)
}

// DevJWTSigningKey is the development default. ValidateServer rejects it
// against a persistent store.
const DevJWTSigningKey = "dev-secret-key-change-in-production"

// ErrDevSigningKey is returned by ValidateServer for a postgres-backed server
// still using DevJWTSigningKey.
var ErrDevSigningKey = errors.New("invalid config: server.jwt_signing_key must be set when store.driver is postgres")

// ValidateServer adds the checks that only apply to the HTTP server.
func (c *Config) ValidateServer() error {
	if c.Store.Driver == "postgres" && c.Server.JWTSigningKey == DevJWTSigningKey {
		return ErrDevSigningKey
	}
	return nil
}

// Validate checks field constraints and resolves the typed system identities.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	actor, err := id.ParseUserID(c.Integrity.SystemActorID)
	if err != nil {
		return fmt.Errorf("invalid config: integrity.system_actor_id: %w", err)
	}
	source, err := id.ParseFundSourceID(c.Integrity.SystemSourceID)
	if err != nil {
		return fmt.Errorf("invalid config: integrity.system_source_id: %w", err)
	}
	c.Integrity.SystemActor = actor
	c.Integrity.SystemSource = source
	if c.Integrity.ScheduleEnabled && c.Integrity.ScheduleInterval <= 0 {
		return fmt.Errorf("invalid config: integrity.schedule_interval must be positive")
	}
	return nil
}
