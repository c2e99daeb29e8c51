// Package config reads the service settings from DAILYMENU_* environment
// variables.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           int           `default:"9000"`
	DbFile         string        `default:"data/menu_cache.db"`
	CacheBackend   string        `default:"sqlite"`
	RedisAddr      string        `default:"localhost:6379"`
	CacheTTL       time.Duration `default:"24h"`
	UseMock        bool          `default:"false"`
	RequestTimeout time.Duration `default:"30s"`
	UserAgent      string        `default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`

	JSEnabled            bool          `default:"true"`
	Headless             bool          `default:"true"`
	JSWaitTimeout        time.Duration `default:"10s"`
	JSExtraWait          time.Duration `default:"1500ms"`
	MaxConcurrentRenders int           `default:"2"`

	MinTextLength int  `default:"150"`
	MaxTextLength int  `default:"8000"`
	HTMLMode      bool `default:"false"`

	LlmRegion      string        `default:"us-east-1"`
	LlmModelID     string        `default:"us.amazon.nova-lite-v1:0"`
	LlmTimeout     time.Duration `default:"50s"`
	LlmMaxAttempts int           `default:"3"`

	AllowedOrigins []string `default:"*"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("dailymenu", &cfg); err != nil {
		return nil, fmt.Errorf("error reading environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.CacheBackend {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("unknown cache backend %q", c.CacheBackend)
	}
	for name, d := range map[string]time.Duration{
		"request timeout": c.RequestTimeout,
		"llm timeout":     c.LlmTimeout,
		"js wait timeout": c.JSWaitTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, d)
		}
	}
	if c.MaxConcurrentRenders < 1 {
		return fmt.Errorf("max concurrent renders must be at least 1, got %d", c.MaxConcurrentRenders)
	}
	if c.MaxTextLength < 1 {
		return fmt.Errorf("max text length must be positive, got %d", c.MaxTextLength)
	}
	return nil
}
