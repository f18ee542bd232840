package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config - структура для хранения конфигураций приложения
type Config struct {
	ServerAddress  string        `mapstructure:"SERVER_ADDRESS"`
	PostgresConn   string        `mapstructure:"POSTGRES_CONN"`
	PostgresUser   string        `mapstructure:"POSTGRES_USERNAME"`
	PostgresPass   string        `mapstructure:"POSTGRES_PASSWORD"`
	PostgresHost   string        `mapstructure:"POSTGRES_HOST"`
	PostgresPort   string        `mapstructure:"POSTGRES_PORT"`
	PostgresDB     string        `mapstructure:"POSTGRES_DATABASE"`
	MigrationURL   string        `mapstructure:"MIGRATION_URL"`
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB        int           `mapstructure:"REDIS_DB"`
	EventsDriver   string        `mapstructure:"EVENTS_DRIVER"`
	NatsURL        string        `mapstructure:"NATS_URL"`
	NatsSubject    string        `mapstructure:"NATS_SUBJECT"`
	KafkaBrokers   string        `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic     string        `mapstructure:"KAFKA_TOPIC"`
	AuthSecret     string        `mapstructure:"AUTH_SECRET"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	EncryptLatency time.Duration `mapstructure:"ENCRYPT_LATENCY"`
	SubmitLatency  time.Duration `mapstructure:"SUBMIT_LATENCY"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`
}

var keys = []string{
	"SERVER_ADDRESS", "POSTGRES_CONN", "POSTGRES_USERNAME", "POSTGRES_PASSWORD", "POSTGRES_HOST",
	"POSTGRES_PORT", "POSTGRES_DATABASE", "MIGRATION_URL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"EVENTS_DRIVER", "NATS_URL", "NATS_SUBJECT", "KAFKA_BROKERS", "KAFKA_TOPIC", "AUTH_SECRET",
	"LOG_LEVEL", "REQUEST_TIMEOUT", "ENCRYPT_LATENCY", "SUBMIT_LATENCY", "SESSION_TTL",
}

// LoadConfig загружает конфигурацию из файла app.env в path, переменные окружения имеют приоритет.
// Отсутствие файла не ошибка.
func LoadConfig(path string) (cfg Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("MIGRATION_URL", "file://migrations")
	v.SetDefault("EVENTS_DRIVER", "none")
	v.SetDefault("NATS_SUBJECT", "bids.placed")
	v.SetDefault("KAFKA_TOPIC", "bids.placed")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("REQUEST_TIMEOUT", 10*time.Second)
	v.SetDefault("ENCRYPT_LATENCY", 0)
	v.SetDefault("SUBMIT_LATENCY", 2*time.Second)
	v.SetDefault("SESSION_TTL", 15*time.Minute)

	v.AutomaticEnv()
	for _, key := range keys {
		if err = v.BindEnv(key); err != nil {
			return
		}
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}
	err = v.Unmarshal(&cfg)
	return
}
