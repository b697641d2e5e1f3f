package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DhavalSuthar-24/clubhouse/internal/logging"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	defaultAccessSecret = "your-very-strong-access-secret"
	defaultDBPassword   = "password"
)

type Config struct {
	App struct {
		Env         string `env:"APP_ENV"      envDefault:"development"`
		Port        string `env:"PORT"         envDefault:"8088"`
		LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"`
		FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
		SeedDemo    bool   `env:"SEED_DEMO"    envDefault:"false"`
	}
	DB struct {
		Host         string `env:"DB_HOST"     envDefault:"localhost"`
		Port         string `env:"DB_PORT"     envDefault:"5432"`
		User         string `env:"DB_USER"     envDefault:"postgres"`
		Password     string `env:"DB_PASSWORD" envDefault:"password"`
		Name         string `env:"DB_NAME"     envDefault:"clubhouse_db"`
		SSLMode      string `env:"DB_SSLMODE"  envDefault:"disable"`
		TimeZone     string `env:"DB_TIMEZONE" envDefault:"UTC"`
		MaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
		MaxIdleConns int    `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	}
	JWT struct {
		AccessTokenSecret        string `env:"JWT_ACCESS_TOKEN_SECRET"         envDefault:"your-very-strong-access-secret"`
		AccessTokenExpiryMinutes int    `env:"JWT_ACCESS_TOKEN_EXPIRY_MINUTES" envDefault:"60"`
		Issuer                   string `env:"JWT_ISSUER"                      envDefault:"clubhouse"`
	}
	Redis struct {
		Addr     string        `env:"REDIS_ADDR"`
		Password string        `env:"REDIS_PASSWORD"`
		DB       int           `env:"REDIS_DB"        envDefault:"0"`
		CacheTTL time.Duration `env:"LEADERBOARD_TTL" envDefault:"15s"`
	}
	Notify struct {
		SNSTopicARN string `env:"NOTIFY_SNS_TOPIC_ARN"`
		AWSRegion   string `env:"AWS_REGION" envDefault:"us-east-1"`
	}
	Club struct {
		DefaultSport string `env:"DEFAULT_SPORT" envDefault:"Cricket"`
	}
}

// AccessTokenTTL is the lifetime of issued access tokens.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.JWT.AccessTokenExpiryMinutes) * time.Minute
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DB.Host, c.DB.User, c.DB.Password, c.DB.Name, c.DB.Port, c.DB.SSLMode, c.DB.TimeZone,
	)
}

// Global handles, set by Initialize.
var (
	DB        *gorm.DB
	Redis     *redis.Client
	appConfig *Config
	once      sync.Once
)

// LoadConfig reads .env when present, then the process environment.
func LoadConfig() (*Config, error) {
	log := logging.L()
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file, relying on the process environment")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.JWT.AccessTokenExpiryMinutes <= 0 {
		return nil, fmt.Errorf("JWT_ACCESS_TOKEN_EXPIRY_MINUTES must be positive, got %d", cfg.JWT.AccessTokenExpiryMinutes)
	}

	if cfg.App.Env == "production" {
		if cfg.JWT.AccessTokenSecret == defaultAccessSecret {
			log.Warn().Msg("using the default JWT secret in production; set JWT_ACCESS_TOKEN_SECRET")
		}
		if cfg.DB.Password == defaultDBPassword {
			log.Warn().Msg("using the default DB password in production; set DB_PASSWORD")
		}
	}
	return cfg, nil
}

// ConnectDB opens the postgres pool.
func ConnectDB(cfg *Config) (*gorm.DB, error) {
	gormConfig := &gorm.Config{TranslateError: true}
	if cfg.App.Env == "development" {
		gormConfig.Logger = logger.Default.LogMode(logger.Info)
	} else {
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	}

	gormDB, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	logging.L().Info().Str("host", cfg.DB.Host).Str("db", cfg.DB.Name).Msg("connected to database")
	return gormDB, nil
}

// ConnectRedis returns nil when REDIS_ADDR is empty; leaderboards are then
// computed on every read.
func ConnectRedis(cfg *Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
	}
	return client, nil
}

// Initialize loads the configuration and opens the database and cache once.
func Initialize() error {
	var initErr error
	once.Do(func() {
		cfg, err := LoadConfig()
		if err != nil {
			initErr = fmt.Errorf("failed to load configuration: %w", err)
			return
		}
		appConfig = cfg

		if DB, err = ConnectDB(cfg); err != nil {
			initErr = fmt.Errorf("failed to connect to database during initialization: %w", err)
			return
		}
		if Redis, err = ConnectRedis(cfg); err != nil {
			initErr = err
		}
	})
	return initErr
}

// GetConfig returns the loaded configuration. Initialize must have run.
func GetConfig() *Config {
	if appConfig == nil {
		logging.L().Fatal().Msg("configuration not loaded; call config.Initialize first")
	}
	return appConfig
}
