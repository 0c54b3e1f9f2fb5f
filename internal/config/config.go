// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string `yaml:"token"`
	Mode     string `yaml:"mode"` // polling | webhook (future)
	Workers  int    `yaml:"workers"`
	Language string `yaml:"language"` // locale code for user-facing texts
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	StateTTL time.Duration `yaml:"state_ttl"` // abandoned conversations expire after this
}

type FormsConfig struct {
	BaseURL      string        `yaml:"base_url"`
	OAuthURL     string        `yaml:"oauth_url"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	Timeout      time.Duration `yaml:"timeout"`
}

type DirectoryConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type OpsConfig struct {
	Port       int           `yaml:"port"`
	APIKey     string        `yaml:"api_key"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"`
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Log       LogConfig       `yaml:"log"`
	Redis     RedisConfig     `yaml:"redis"`
	Forms     FormsConfig     `yaml:"forms"`
	Directory DirectoryConfig `yaml:"directory"`
	Ops       OpsConfig       `yaml:"ops"`
	Security  SecurityConfig  `yaml:"security"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.Language == "" {
		cfg.Bot.Language = "ru"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Redis.StateTTL <= 0 {
		cfg.Redis.StateTTL = 15 * time.Minute
	}
	if cfg.Forms.OAuthURL == "" {
		cfg.Forms.OAuthURL = "https://oauth.yandex.ru"
	}
	if cfg.Forms.BaseURL == "" {
		cfg.Forms.BaseURL = "https://api.forms.yandex.net/v1"
	}
	if cfg.Forms.Timeout <= 0 {
		cfg.Forms.Timeout = 5 * time.Second
	}
	if cfg.Directory.Timeout <= 0 {
		cfg.Directory.Timeout = 5 * time.Second
	}
	if cfg.Ops.Port <= 0 {
		cfg.Ops.Port = 8081
	}
	if cfg.Ops.SessionTTL <= 0 {
		cfg.Ops.SessionTTL = 30 * time.Minute
	}

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Forms.ClientID == "" || cfg.Forms.ClientSecret == "" {
		return nil, errors.New("forms.client_id and forms.client_secret are required")
	}
	if cfg.Directory.BaseURL == "" {
		return nil, errors.New("directory.base_url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
