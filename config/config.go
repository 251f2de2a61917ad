package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppEnv string `mapstructure:"APP_ENV"`
	Port   string `mapstructure:"PORT"`

	DBDriver       string `mapstructure:"DB_DRIVER"`
	DBDSN          string `mapstructure:"DB_DSN"`
	DBMaxOpenConns int    `mapstructure:"DB_MAX_OPEN_CONNS"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	TokenTTL  time.Duration `mapstructure:"TOKEN_TTL"`

	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	CacheTTL      time.Duration `mapstructure:"CACHE_TTL"`

	Broker       string `mapstructure:"BROKER"`
	AMQPURL      string `mapstructure:"AMQP_URL"`
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`

	UploadDir string `mapstructure:"UPLOAD_DIR"`

	DeliveryBaseFee  float64 `mapstructure:"DELIVERY_BASE_FEE"`
	DeliveryPerKmFee float64 `mapstructure:"DELIVERY_PER_KM_FEE"`

	MpesaBaseURL        string `mapstructure:"MPESA_BASE_URL"`
	MpesaConsumerKey    string `mapstructure:"MPESA_CONSUMER_KEY"`
	MpesaConsumerSecret string `mapstructure:"MPESA_CONSUMER_SECRET"`
	MpesaShortcode      string `mapstructure:"MPESA_SHORTCODE"`
	MpesaPasskey        string `mapstructure:"MPESA_PASSKEY"`
	MpesaCallbackURL    string `mapstructure:"MPESA_CALLBACK_URL"`

	StripeSecretKey string `mapstructure:"STRIPE_SECRET_KEY"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogFile  string `mapstructure:"LOG_FILE"`
}

var defaults = map[string]any{
	"APP_ENV":               "development",
	"PORT":                  "8080",
	"DB_DRIVER":             "sqlite",
	"DB_DSN":                "food_ordering.db",
	"DB_MAX_OPEN_CONNS":     10,
	"JWT_SECRET":            "",
	"TOKEN_TTL":             "24h",
	"REDIS_ADDR":            "",
	"REDIS_PASSWORD":        "",
	"CACHE_TTL":             "5m",
	"BROKER":                "none",
	"AMQP_URL":              "",
	"KAFKA_BROKERS":         "",
	"UPLOAD_DIR":            "uploads",
	"DELIVERY_BASE_FEE":     100.0,
	"DELIVERY_PER_KM_FEE":   20.0,
	"MPESA_BASE_URL":        "https://sandbox.safaricom.co.ke",
	"MPESA_CONSUMER_KEY":    "",
	"MPESA_CONSUMER_SECRET": "",
	"MPESA_SHORTCODE":       "",
	"MPESA_PASSKEY":         "",
	"MPESA_CALLBACK_URL":    "",
	"STRIPE_SECRET_KEY":     "",
	"LOG_LEVEL":             "info",
	"LOG_FILE":              "",
}

// Load reads configuration from the environment and, when CONFIG_FILE is set,
// from that file. Environment variables win over file values.
func Load() (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot safely run with.
func (c *Config) Validate() error {
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be set and at least 16 bytes long")
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.Broker {
	case "none", "":
	case "amqp":
		if c.AMQPURL == "" {
			return errors.New("AMQP_URL is required when BROKER=amqp")
		}
	case "kafka":
		if c.KafkaBrokers == "" {
			return errors.New("KAFKA_BROKERS is required when BROKER=kafka")
		}
	default:
		return fmt.Errorf("unsupported BROKER %q", c.Broker)
	}
	if c.DBMaxOpenConns <= 0 {
		c.DBMaxOpenConns = 10
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// KafkaBrokerList splits KAFKA_BROKERS on commas.
func (c *Config) KafkaBrokerList() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
