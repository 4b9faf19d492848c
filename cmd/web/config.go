package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type config struct {
	Addr string `env:"ADDR,default=:4000"`

	DBDriver      string `env:"DB_DRIVER,default=mongo"`
	MongoURI      string `env:"MONGO_URI,default=mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE,default=storefront"`
	DBURL         string `env:"DB_URL"`

	SessionStore       string        `env:"SESSION_STORE,default=memory"`
	RedisAddr          string        `env:"REDIS_ADDR,default=localhost:6379"`
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT,default=30m"`
	SessionLifetime    time.Duration `env:"SESSION_LIFETIME,default=12h"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL,default=24h"`
	JWTIssuer string        `env:"JWT_ISSUER,default=storefront"`

	BcryptCost int `env:"BCRYPT_COST,default=12"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS,default=5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST,default=10"`
}

// loadConfig reads .env if present, then the process environment.
func loadConfig() (config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file loaded")
	}

	var cfg config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return config{}, err
	}
	return cfg, cfg.validate()
}

func (c config) validate() error {
	switch c.DBDriver {
	case "mongo", "memory":
	case "postgres":
		if c.DBURL == "" {
			return errors.New("DB_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}

	switch c.SessionStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}

	if c.JWTSecret == "" && c.DBDriver != "memory" {
		return errors.New("JWT_SECRET is required")
	}
	return nil
}

func newLogger(c config) (*logrus.Logger, error) {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)
	if c.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}
