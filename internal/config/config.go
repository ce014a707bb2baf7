package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env            string        `mapstructure:"ENV"`
	Port           string        `mapstructure:"PORT"`
	AdminKey       string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed    string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`

	StorageDriver string `mapstructure:"STORAGE_DRIVER"`
	SQLitePath    string `mapstructure:"SQLITE_PATH"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPrefix   string `mapstructure:"REDIS_PREFIX"`

	RoutingConfigPath string        `mapstructure:"ROUTING_CONFIG_PATH"`
	RemoteConfigURL   string        `mapstructure:"REMOTE_CONFIG_URL"`
	TicketAPIURL      string        `mapstructure:"TICKET_API_URL"`
	RemoteTimeout     time.Duration `mapstructure:"REMOTE_TIMEOUT"`

	EventsBrokers string `mapstructure:"TICKET_EVENTS_BROKERS"`
	EventsTopic   string `mapstructure:"TICKET_EVENTS_TOPIC"`

	SequenceSeed int `mapstructure:"SEQUENCE_SEED"`
}

func Load() (Config, error) {
	return load(".env")
}

func load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("ADMIN_KEY", "")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	v.SetDefault("STORAGE_DRIVER", "sqlite")
	v.SetDefault("SQLITE_PATH", "data/kiosk.db")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PREFIX", "kiosk:")

	v.SetDefault("ROUTING_CONFIG_PATH", "configs/routing.jsonc")
	v.SetDefault("REMOTE_CONFIG_URL", "")
	v.SetDefault("TICKET_API_URL", "")
	v.SetDefault("REMOTE_TIMEOUT", "5s")

	v.SetDefault("TICKET_EVENTS_BROKERS", "")
	v.SetDefault("TICKET_EVENTS_TOPIC", "kiosk.tickets.issued")

	v.SetDefault("SEQUENCE_SEED", 100)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Brokers splits TICKET_EVENTS_BROKERS on commas, dropping blanks.
func (c Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.EventsBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
