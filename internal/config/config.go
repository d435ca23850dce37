package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port        string `yaml:"port"`
	LogLevel    string `yaml:"logLevel"`
	DatabaseURL string `yaml:"databaseURL"`

	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	JWTSecret      string        `yaml:"jwtSecret"`
	SessionTTL     time.Duration `yaml:"sessionTTL"`
	EmailDomain    string        `yaml:"emailDomain"`
	TrustedProxies []string      `yaml:"trustedProxies"`

	MinioEndpoint  string `yaml:"minioEndpoint"`
	MinioAccessKey string `yaml:"minioAccessKey"`
	MinioSecretKey string `yaml:"minioSecretKey"`
	MinioBucket    string `yaml:"minioBucket"`
	MinioUseSSL    bool   `yaml:"minioUseSSL"`
	MaxUploadBytes int64  `yaml:"maxUploadBytes"`

	AIProvider string `yaml:"aiProvider"`
	AIModel    string `yaml:"aiModel"`
	AIAPIKey   string `yaml:"aiAPIKey"`
	AIBaseURL  string `yaml:"aiBaseURL"`

	RateLimits RateLimits `yaml:"rateLimits"`
}

// RateLimits holds the per-category sliding-window quotas.
type RateLimits struct {
	API    RateLimit `yaml:"api"`
	Auth   RateLimit `yaml:"auth"`
	Upload RateLimit `yaml:"upload"`
	Chat   RateLimit `yaml:"chat"`
}

// RateLimit is one quota: at most Limit requests per Window.
type RateLimit struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("STUDYHUB_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("STUDYHUB_EMAIL_DOMAIN"); v != "" {
		cfg.EmailDomain = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = v
	}
	if v := os.Getenv("MINIO_USE_SSL"); v == "true" {
		cfg.MinioUseSSL = true
	}
	if v := os.Getenv("STUDYHUB_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("STUDYHUB_AI_PROVIDER"); v != "" {
		cfg.AIProvider = v
	}
	if v := os.Getenv("STUDYHUB_AI_MODEL"); v != "" {
		cfg.AIModel = v
	}
	if v := os.Getenv("STUDYHUB_AI_API_KEY"); v != "" {
		cfg.AIAPIKey = v
	}
	if v := os.Getenv("STUDYHUB_AI_BASE_URL"); v != "" {
		cfg.AIBaseURL = v
	}
	if v := os.Getenv("STUDYHUB_TRUSTED_PROXIES"); v != "" {
		cfg.TrustedProxies = splitCSV(v)
	}
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *FileConfig) {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.EmailDomain == "" {
		cfg.EmailDomain = "@mail.apu.edu.my"
	}
	if cfg.AIProvider == "" {
		cfg.AIProvider = "gemini"
	}
	if cfg.RateLimits.API.Limit <= 0 {
		cfg.RateLimits.API = RateLimit{Limit: 100, Window: 15 * time.Minute}
	}
	if cfg.RateLimits.Auth.Limit <= 0 {
		cfg.RateLimits.Auth = RateLimit{Limit: 5, Window: 15 * time.Minute}
	}
	if cfg.RateLimits.Upload.Limit <= 0 {
		cfg.RateLimits.Upload = RateLimit{Limit: 20, Window: time.Hour}
	}
	if cfg.RateLimits.Chat.Limit <= 0 {
		cfg.RateLimits.Chat = RateLimit{Limit: 50, Window: time.Hour}
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml)")
	}
	if cfg.JWTSecret == "" {
		return errors.New("config: jwtSecret is required (set in config.yaml or STUDYHUB_JWT_SECRET)")
	}
	if cfg.MinioEndpoint == "" {
		return errors.New("config: minioEndpoint is required (set in config.yaml)")
	}
	if cfg.MinioAccessKey == "" {
		return errors.New("config: minioAccessKey is required (set in config.yaml)")
	}
	if cfg.MinioSecretKey == "" {
		return errors.New("config: minioSecretKey is required (set in config.yaml)")
	}
	if cfg.MinioBucket == "" {
		return errors.New("config: minioBucket is required (set in config.yaml)")
	}
	if !strings.HasPrefix(cfg.EmailDomain, "@") {
		return errors.New("config: emailDomain must start with '@'")
	}
	switch cfg.AIProvider {
	case "gemini", "openai-compat":
	default:
		return fmt.Errorf("config: unknown aiProvider %q (want gemini or openai-compat)", cfg.AIProvider)
	}
	return nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
