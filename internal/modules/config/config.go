package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDir         = "configs"
	defaultConfigFile = "values_local.yaml"
	envPrefix         = "TRADER"

	// legacy variable names still honoured for secrets
	tokenTelegramENV = "TELEGRAM_TOKEN"
	databaseDSN      = "DATABASE_DSN"
)

// Config ...
type Config struct {
	Service  ServiceConfig   `mapstructure:"service" yaml:"service"`
	Log      LogConfig       `mapstructure:"log" yaml:"log"`
	DB       DBConfig        `mapstructure:"db" yaml:"db"`
	Telegram TelegramConfig  `mapstructure:"telegram" yaml:"telegram"`
	Tracing  TracingConfig   `mapstructure:"tracing" yaml:"tracing"`
	Trading  TradingConfig   `mapstructure:"trading" yaml:"trading"`
	Dedupe   DedupeConfig    `mapstructure:"dedupe" yaml:"dedupe"`
	Feed     PriceFeedConfig `mapstructure:"price_feed" yaml:"price_feed"`
	Accounts []AccountConfig `mapstructure:"accounts" yaml:"accounts"`
}

type ServiceConfig struct {
	Name       string `mapstructure:"name" yaml:"name"`
	Host       string `mapstructure:"host" yaml:"host"`
	PublicPort int    `mapstructure:"public_port" yaml:"public_port"`
	AdminPort  int    `mapstructure:"admin_port" yaml:"admin_port"`
}

type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Encoding    string `mapstructure:"encoding" yaml:"encoding"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

type DBConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	DSN     string `mapstructure:"dsn" yaml:"dsn"`
}

type TelegramConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Token   string `mapstructure:"token" yaml:"token"`
	ChatID  int64  `mapstructure:"chat_id" yaml:"chat_id"`
	// Kinds limits which event kinds are sent; empty means all.
	Kinds []string `mapstructure:"kinds" yaml:"kinds"`
}

type TracingConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Host    string `mapstructure:"host" yaml:"host"`
	Port    int    `mapstructure:"port" yaml:"port"`
}

// TradingConfig holds the defaults applied to every account that does not override them.
type TradingConfig struct {
	Strategy       string  `mapstructure:"strategy" yaml:"strategy"`
	RiskPct        float64 `mapstructure:"risk_pct" yaml:"risk_pct"` // 2.0 => 2% of balance per trade
	InitialBalance float64 `mapstructure:"initial_balance" yaml:"initial_balance"`
	QueueSize      int     `mapstructure:"queue_size" yaml:"queue_size"`
	EventBuffer    int     `mapstructure:"event_buffer" yaml:"event_buffer"`
	DailyResetSpec string  `mapstructure:"daily_reset_spec" yaml:"daily_reset_spec"`
}

type DedupeConfig struct {
	Backend       string        `mapstructure:"backend" yaml:"backend"` // memory | redis
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl"`
	RedisAddr     string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db" yaml:"redis_db"`
	KeyPrefix     string        `mapstructure:"key_prefix" yaml:"key_prefix"`
}

type PriceFeedConfig struct {
	Enabled        bool          `mapstructure:"enabled" yaml:"enabled"`
	URL            string        `mapstructure:"url" yaml:"url"`
	Symbols        []string      `mapstructure:"symbols" yaml:"symbols"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay" yaml:"reconnect_delay"`
	// StripQuote turns BTCUSDT marks into BTC when signals use bare base symbols.
	StripQuote string `mapstructure:"strip_quote" yaml:"strip_quote"`
}

// AccountConfig enables one paper account at startup. Zero values fall back to Trading.
type AccountConfig struct {
	ID             string  `mapstructure:"id" yaml:"id"`
	Strategy       string  `mapstructure:"strategy" yaml:"strategy"`
	InitialBalance float64 `mapstructure:"initial_balance" yaml:"initial_balance"`
	RiskPct        float64 `mapstructure:"risk_pct" yaml:"risk_pct"`
}

// NewConfig reads configs/<CONFIG_FILE> (values_local.yaml by default).
func NewConfig() (*Config, error) {
	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = defaultConfigFile
	}
	return Load(filepath.Join(configDir, configFileName))
}

// Load reads the yaml file at path with TRADER_* env overrides. An empty path
// means env and defaults only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	_ = v.BindEnv("telegram.token", envPrefix+"_TELEGRAM_TOKEN", tokenTelegramENV)
	_ = v.BindEnv("db.dsn", envPrefix+"_DB_DSN", databaseDSN)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "paper_trader")
	v.SetDefault("service.host", "0.0.0.0")
	v.SetDefault("service.public_port", 8080)
	v.SetDefault("service.admin_port", 8081)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.development", false)

	v.SetDefault("db.enabled", false)
	v.SetDefault("telegram.enabled", false)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.host", "localhost")
	v.SetDefault("tracing.port", 6831)

	v.SetDefault("trading.strategy", "conservative")
	v.SetDefault("trading.risk_pct", 2.0)
	v.SetDefault("trading.initial_balance", 1000.0)
	v.SetDefault("trading.queue_size", 64)
	v.SetDefault("trading.event_buffer", 256)
	v.SetDefault("trading.daily_reset_spec", "0 0 0 * * *")

	v.SetDefault("dedupe.backend", "memory")
	v.SetDefault("dedupe.ttl", "24h")
	v.SetDefault("dedupe.redis_addr", "localhost:6379")
	v.SetDefault("dedupe.key_prefix", "paper_trader:signal:")

	v.SetDefault("price_feed.enabled", false)
	v.SetDefault("price_feed.reconnect_delay", "3s")
}

// Validate checks values that would otherwise fail deep inside the engine.
func (c *Config) Validate() error {
	switch c.Trading.Strategy {
	case "conservative", "aggressive":
	default:
		return errors.Errorf("trading.strategy: unknown strategy %q", c.Trading.Strategy)
	}
	if c.Trading.RiskPct <= 0 || c.Trading.RiskPct > 100 {
		return errors.Errorf("trading.risk_pct must be in (0, 100], got %v", c.Trading.RiskPct)
	}
	if c.Trading.InitialBalance <= 0 {
		return errors.Errorf("trading.initial_balance must be positive, got %v", c.Trading.InitialBalance)
	}
	if c.Trading.QueueSize <= 0 {
		return errors.Errorf("trading.queue_size must be positive, got %d", c.Trading.QueueSize)
	}
	if c.Telegram.Enabled && c.Telegram.ChatID == 0 {
		return errors.New("telegram.chat_id is required when telegram is enabled")
	}
	switch c.Dedupe.Backend {
	case "memory", "redis":
	default:
		return errors.Errorf("dedupe.backend: unknown backend %q", c.Dedupe.Backend)
	}

	seen := make(map[string]struct{}, len(c.Accounts))
	for i, a := range c.Accounts {
		if a.ID == "" {
			return errors.Errorf("accounts[%d]: empty id", i)
		}
		if _, dup := seen[a.ID]; dup {
			return errors.Errorf("accounts[%d]: duplicate id %q", i, a.ID)
		}
		seen[a.ID] = struct{}{}
	}
	return nil
}

// Dump renders the effective config as yaml with secrets masked.
func (c *Config) Dump() ([]byte, error) {
	cp := *c
	if cp.Telegram.Token != "" {
		cp.Telegram.Token = "***"
	}
	if cp.DB.DSN != "" {
		cp.DB.DSN = "***"
	}
	if cp.Dedupe.RedisPassword != "" {
		cp.Dedupe.RedisPassword = "***"
	}
	out, err := yaml.Marshal(&cp)
	if err != nil {
		return nil, errors.Wrap(err, "encode config")
	}
	return out, nil
}
