// Package config 从环境变量（以及可选的 .env 文件）读取服务配置，并构造日志。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 仅供本地开发，生产模式下必须通过环境变量覆盖
const (
	DevAccessSecret  = "splendor-access"
	DevRefreshSecret = "splendor-refresh"
)

type Config struct {
	TCPAddr  string `env:"SPLENDOR_TCP_ADDR" envDefault:":5555"`
	HTTPAddr string `env:"SPLENDOR_HTTP_ADDR" envDefault:":8000"`

	// 为空时不启用 Redis 镜像
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// memory | sqlite | mysql
	AuthDriver string `env:"AUTH_DRIVER" envDefault:"memory"`
	AuthDSN    string `env:"AUTH_DSN" envDefault:"splendor.db"`

	JWTAccessSecret  string        `env:"JWT_ACCESS_SECRET" envDefault:"splendor-access"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET" envDefault:"splendor-refresh"`
	AccessTTL        time.Duration `env:"JWT_ACCESS_TTL" envDefault:"2h"`
	RefreshTTL       time.Duration `env:"JWT_REFRESH_TTL" envDefault:"168h"`

	ModelsDir     string        `env:"MODELS_DIR"`
	AIServiceURL  string        `env:"AI_SERVICE_URL"`
	AITimeout     time.Duration `env:"AI_SERVICE_TIMEOUT" envDefault:"5s"`
	BotDelay      time.Duration `env:"BOT_DELAY" envDefault:"500ms"`
	MaxBotSteps   int           `env:"MAX_BOT_STEPS" envDefault:"100"`
	Seed          uint64        `env:"SPLENDOR_SEED"`
	Heartbeat     time.Duration `env:"HEARTBEAT_INTERVAL" envDefault:"1s"`
	SendQueue     int           `env:"SEND_QUEUE" envDefault:"64"`
	RoomListLimit int           `env:"ROOM_LIST_LIMIT" envDefault:"100"`

	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogDevelopment bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
}

// Load 先加载 envFiles（不存在则跳过），再解析环境变量
func Load(envFiles ...string) (Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.AuthDriver {
	case "memory", "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported AUTH_DRIVER %q", c.AuthDriver)
	}
	if c.MaxBotSteps <= 0 {
		return errors.New("MAX_BOT_STEPS must be positive")
	}
	if c.Heartbeat <= 0 {
		return errors.New("HEARTBEAT_INTERVAL must be positive")
	}
	if c.SendQueue <= 0 {
		return errors.New("SEND_QUEUE must be positive")
	}
	if !c.LogDevelopment {
		if c.JWTAccessSecret == "" || c.JWTAccessSecret == DevAccessSecret {
			return errors.New("JWT_ACCESS_SECRET must be set outside development mode")
		}
		if c.JWTRefreshSecret == "" || c.JWTRefreshSecret == DevRefreshSecret {
			return errors.New("JWT_REFRESH_SECRET must be set outside development mode")
		}
	}
	return nil
}

// NewLogger 开发模式输出彩色控制台日志，否则输出 JSON
func NewLogger(level string, development bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	var zc zap.Config
	if development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
