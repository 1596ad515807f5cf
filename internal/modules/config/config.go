package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"wyckoff_keeper/internal/models"
	"wyckoff_keeper/pkg/logger"
	"wyckoff_keeper/pkg/tracing"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
	envPrefix         = "KEEPER"
)

const (
	SourceOKX       = "okx"
	SourceStream    = "stream"
	SourceSynthetic = "synthetic"
)

// Config ...
type Config struct {
	Service struct {
		Name     string `mapstructure:"name"`
		LogLevel string `mapstructure:"log_level"`
		HTTPAddr string `mapstructure:"http_addr"`
	} `mapstructure:"service"`

	Telegram struct {
		Token string `mapstructure:"token"`
		// ChatID получает уведомления всех ботов; 0 — уведомления выключены
		ChatID int64 `mapstructure:"chat_id"`
	} `mapstructure:"telegram"`

	DB string `mapstructure:"db_dsn"`

	Redis struct {
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		Prefix   string        `mapstructure:"prefix"`
		TTL      time.Duration `mapstructure:"ttl"`
	} `mapstructure:"redis"`

	Tracing tracing.Config `mapstructure:"tracing"`

	Keeper struct {
		PollInterval    time.Duration `mapstructure:"poll_interval"`
		MaxRetries      int           `mapstructure:"max_retries"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
		// Warmup заполняет окно историей из REST перед первым тиком
		Warmup bool `mapstructure:"warmup"`
	} `mapstructure:"keeper"`

	MarketData struct {
		Source    string        `mapstructure:"source"`
		Timeframe string        `mapstructure:"timeframe"`
		RateLimit float64       `mapstructure:"rate_limit"`
		Burst     int           `mapstructure:"burst"`
		Timeout   time.Duration `mapstructure:"timeout"`
		WSURL     string        `mapstructure:"ws_url"`
	} `mapstructure:"market_data"`

	OKX struct {
		BaseURL    string        `mapstructure:"base_url"`
		APIKey     string        `mapstructure:"api_key"`
		APISecret  string        `mapstructure:"api_secret"`
		Passphrase string        `mapstructure:"passphrase"`
		Simulated  bool          `mapstructure:"simulated"`
		Timeout    time.Duration `mapstructure:"timeout"`
	} `mapstructure:"okx"`

	Paper struct {
		Balance float64 `mapstructure:"balance"`
	} `mapstructure:"paper"`

	// BotsFile — yaml со списком ботов, которые стартуют вместе с сервисом.
	BotsFile string             `mapstructure:"bots_file"`
	Bots     []models.BotConfig `mapstructure:"-"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.name", "wyckoff-keeper")
	v.SetDefault("service.log_level", "info")
	v.SetDefault("service.http_addr", ":8080")

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", 0)

	v.SetDefault("db_dsn", "")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "keeper:status:")
	v.SetDefault("redis.ttl", "30m")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.host", "localhost")
	v.SetDefault("tracing.port", 6831)

	v.SetDefault("keeper.poll_interval", "5m")
	v.SetDefault("keeper.max_retries", 3)
	v.SetDefault("keeper.shutdown_timeout", "30s")
	v.SetDefault("keeper.warmup", false)

	v.SetDefault("market_data.source", SourceOKX)
	v.SetDefault("market_data.timeframe", "5m")
	v.SetDefault("market_data.rate_limit", 5.0)
	v.SetDefault("market_data.burst", 5)
	v.SetDefault("market_data.timeout", "10s")
	v.SetDefault("market_data.ws_url", "wss://ws.okx.com:8443/ws/v5/business")

	v.SetDefault("okx.base_url", "https://www.okx.com")
	v.SetDefault("okx.api_key", "")
	v.SetDefault("okx.api_secret", "")
	v.SetDefault("okx.passphrase", "")
	v.SetDefault("okx.simulated", false)
	v.SetDefault("okx.timeout", "10s")

	v.SetDefault("paper.balance", 10000.0)

	v.SetDefault("bots_file", "")
}

// NewConfig reads .env, then configs/$CONFIG_FILE (values_local.yaml by default).
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	return Load(filepath.Join("configs", configFileName))
}

// Load builds the config from defaults, the yaml file at path and the environment.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// старые имена переменных
	_ = v.BindEnv("telegram.token", envPrefix+"_TELEGRAM_TOKEN", tokenTelegramENV)
	_ = v.BindEnv("db_dsn", envPrefix+"_DB_DSN", databaseDSN)
	_ = v.BindEnv("okx.api_key", envPrefix+"_OKX_API_KEY", "OKX_API_KEY")
	_ = v.BindEnv("okx.api_secret", envPrefix+"_OKX_API_SECRET", "OKX_API_SECRET")
	_ = v.BindEnv("okx.passphrase", envPrefix+"_OKX_PASSPHRASE", "OKX_PASSPHRASE")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
			logger.Warn("config file %s not found, using defaults and env", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.BotsFile != "" {
		bots, err := LoadBots(cfg.BotsFile)
		if err != nil {
			return nil, err
		}
		cfg.Bots = bots
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type botsFile struct {
	Bots []models.BotConfig `yaml:"bots"`
}

// LoadBots decodes the bots file. Bots without a strategy block get the default params.
func LoadBots(path string) ([]models.BotConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bots file: %w", err)
	}

	var f botsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode bots file %s: %w", path, err)
	}

	for i := range f.Bots {
		if f.Bots[i].Strategy == (models.StrategyParams{}) {
			f.Bots[i].Strategy = models.DefaultStrategyParams()
		}
	}
	return f.Bots, nil
}

func (c *Config) Validate() error {
	if c.Keeper.PollInterval <= 0 {
		return fmt.Errorf("%w: keeper.poll_interval must be > 0", models.ErrInvalidConfig)
	}
	if c.Keeper.MaxRetries < 1 {
		return fmt.Errorf("%w: keeper.max_retries must be >= 1", models.ErrInvalidConfig)
	}
	switch c.MarketData.Source {
	case SourceOKX, SourceStream, SourceSynthetic:
	default:
		return fmt.Errorf("%w: unknown market_data.source %q", models.ErrInvalidConfig, c.MarketData.Source)
	}
	if c.MarketData.RateLimit <= 0 || c.MarketData.Burst < 1 {
		return fmt.Errorf("%w: market_data rate limit must be positive", models.ErrInvalidConfig)
	}

	seen := make(map[string]struct{}, len(c.Bots))
	for _, b := range c.Bots {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("bot %q: %w", b.BotID, err)
		}
		if _, dup := seen[b.BotID]; dup {
			return fmt.Errorf("%w: duplicate bot_id %q in %s", models.ErrInvalidConfig, b.BotID, c.BotsFile)
		}
		seen[b.BotID] = struct{}{}
	}
	return nil
}

// HasOKXCredentials reports whether signed OKX endpoints can be used.
func (c *Config) HasOKXCredentials() bool {
	return c.OKX.APIKey != "" && c.OKX.APISecret != "" && c.OKX.Passphrase != ""
}
