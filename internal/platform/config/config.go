package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the rental service. Values come from
// configs/config.defaults.yaml overlaid with APP_-prefixed environment
// variables (APP_LOG_LEVEL, APP_MONGO_URI, ...).
type Config struct {
	LogLevel string `mapstructure:"LOG_LEVEL"`

	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	TelegramBotToken string  `mapstructure:"TELEGRAM_BOT_TOKEN"`
	BossID           int64   `mapstructure:"BOSS_ID"`
	AdminIDs         []int64 `mapstructure:"ADMIN_IDS"`

	// Payment instructions shown to subscribers entering the funnel.
	BinancePayID   string `mapstructure:"BINANCE_PAY_ID"`
	ETransferEmail string `mapstructure:"ETRANSFER_EMAIL"`

	TwilioBaseURL   string        `mapstructure:"TWILIO_BASE_URL"`
	UpstreamTimeout time.Duration `mapstructure:"UPSTREAM_TIMEOUT"`
	SearchRegion    string        `mapstructure:"SEARCH_REGION"`
	OfferPageSize   int           `mapstructure:"OFFER_PAGE_SIZE"`
	OversampleRatio int           `mapstructure:"OVERSAMPLE_RATIO"`

	SweepInterval time.Duration `mapstructure:"SWEEP_INTERVAL"`

	OpsHTTPPort  int    `mapstructure:"OPS_HTTP_PORT"`
	OpsJWTSecret string `mapstructure:"OPS_JWT_SECRET"`
}

// AllAdminIDs returns the boss plus the admin set. The boss is always an
// administrative identity.
func (c *Config) AllAdminIDs() []int64 {
	return append([]int64{c.BossID}, c.AdminIDs...)
}

// IsAdmin reports whether the given Telegram identity is administrative.
func (c *Config) IsAdmin(telegramID int64) bool {
	if telegramID == c.BossID {
		return true
	}
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

// Load reads the base configuration file and environment overrides.
// serviceName is kept for layered service-specific configs later.
func Load(serviceName string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config.defaults")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.SetEnvPrefix("APP")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "number_rental")

	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("BOSS_ID", 0)
	v.SetDefault("ADMIN_IDS", []int64{})

	v.SetDefault("BINANCE_PAY_ID", "")
	v.SetDefault("ETRANSFER_EMAIL", "")

	v.SetDefault("TWILIO_BASE_URL", "https://api.twilio.com")
	v.SetDefault("UPSTREAM_TIMEOUT", "10s")
	v.SetDefault("SEARCH_REGION", "CA")
	v.SetDefault("OFFER_PAGE_SIZE", 15)
	v.SetDefault("OVERSAMPLE_RATIO", 2)

	v.SetDefault("SWEEP_INTERVAL", "15m")

	v.SetDefault("OPS_HTTP_PORT", 8080)
	v.SetDefault("OPS_JWT_SECRET", "ops-secret-must-be-overridden-in-prod")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Base configuration file ('config.defaults.yaml') not found; using defaults and environment variables.")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
