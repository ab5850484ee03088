package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Backend struct {
		// Driver is one of memory, mongo or postgres.
		Driver string `yaml:"driver"`
	} `yaml:"backend"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	Quiz struct {
		TTL          string `yaml:"ttl"`
		MaxQuestions int    `yaml:"maxQuestions"`
	} `yaml:"quiz"`
	Session struct {
		TTL string `yaml:"ttl"`
	} `yaml:"session"`
	Recaptcha struct {
		Secret    string `yaml:"secret"`
		VerifyURL string `yaml:"verifyURL"`
		// Endpoint, when set, delegates verification to an external HTTP endpoint instead of siteverify.
		Endpoint         string `yaml:"endpoint"`
		SkipVerification bool   `yaml:"skipVerification"`
		Timeout          string `yaml:"timeout"`
	} `yaml:"recaptcha"`
	Auth struct {
		JWTSecret string `yaml:"jwtSecret"`
	} `yaml:"auth"`
	Submission struct {
		// Mode is best-effort or transactional.
		Mode string `yaml:"mode"`
	} `yaml:"submission"`
}

// Load reads YAML config from path, then applies secrets from the environment.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	override(&c.Recaptcha.Secret, "RECAPTCHA_SECRET_KEY")
	override(&c.Auth.JWTSecret, "JWT_SECRET")
	override(&c.Mongo.URI, "MONGO_URI")
	override(&c.Postgres.URL, "POSTGRES_URL")
	override(&c.Redis.Addr, "REDIS_ADDR")
}

func override(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
