package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env             string          `mapstructure:"env" validate:"oneof=development production test"`
	HTTPAddr        string          `mapstructure:"http_addr" validate:"required"`
	AppHost         string          `mapstructure:"host" validate:"required,url"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout" validate:"gt=0"`
	Log             LogConfig       `mapstructure:"log"`
	DB              DBConfig        `mapstructure:"db"`
	Redis           RedisConfig     `mapstructure:"redis"`
	JWT             JWTConfig       `mapstructure:"jwt"`
	Storage         StorageConfig   `mapstructure:"storage"`
	Mail            MailConfig      `mapstructure:"mail"`
	CORS            CORSConfig      `mapstructure:"cors"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

type DBConfig struct {
	Source      string `mapstructure:"source" validate:"required"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr" validate:"required,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret" validate:"required"`
	AccessTTL  time.Duration `mapstructure:"access_ttl" validate:"gt=0"`
	RefreshTTL time.Duration `mapstructure:"refresh_ttl" validate:"gt=0"`
}

// StorageConfig describes the S3 bucket submissions are uploaded to. Endpoint
// is only set for S3-compatible services; empty means AWS.
type StorageConfig struct {
	Bucket          string        `mapstructure:"bucket" validate:"required"`
	Region          string        `mapstructure:"region" validate:"required"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	Endpoint        string        `mapstructure:"endpoint" validate:"omitempty,url"`
	URLExpiry       time.Duration `mapstructure:"url_expiry" validate:"gt=0"`
}

// MailConfig is optional; with an empty Host outgoing mail is only logged.
type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port" validate:"gte=0,lte=65535"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps" validate:"gt=0"`
	Burst int     `mapstructure:"burst" validate:"gte=1"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

var defaults = map[string]any{
	"env":                       "development",
	"http_addr":                 ":4000",
	"host":                      "http://localhost:3000",
	"shutdown_timeout":          "15s",
	"log.level":                 "info",
	"log.format":                "json",
	"db.source":                 "",
	"db.auto_migrate":           false,
	"redis.addr":                "localhost:6379",
	"redis.password":            "",
	"redis.db":                  0,
	"jwt.secret":                "",
	"jwt.access_ttl":            "1h",
	"jwt.refresh_ttl":           "1440h",
	"storage.bucket":            "",
	"storage.region":            "",
	"storage.access_key_id":     "",
	"storage.secret_access_key": "",
	"storage.endpoint":          "",
	"storage.url_expiry":        "120s",
	"mail.host":                 "",
	"mail.port":                 465,
	"mail.username":             "",
	"mail.password":             "",
	"mail.from":                 "",
	"cors.allowed_origins":      []string{"http://localhost:3000"},
	"rate_limit.rps":            5,
	"rate_limit.burst":          10,
}

// Load reads ./configs/settings.yml (optional) and the environment. Nested keys
// map to env vars with dots replaced by underscores, e.g. DB_SOURCE.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath("./configs")
	v.AddConfigPath("/configs")
	v.SetConfigName("settings")
	v.SetConfigType("yml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
