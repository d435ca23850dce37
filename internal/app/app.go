package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"studyhub/internal/config"
	"studyhub/internal/security"
	"studyhub/pkg/ai"
	"studyhub/pkg/storage"
	"studyhub/pkg/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	JWTSecret     string
	SessionTTL    time.Duration
	EmailDomain   string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	AIProvider string
	AIModel    string
	AIAPIKey   string
	AIBaseURL  string

	// Injectable for tests.
	Store     store.Store
	Sessions  store.SessionStore
	Objects   storage.ObjectStore
	Generator ai.StreamGenerator
}

// App is the core application service wiring together storage, sessions,
// object storage and the chat model.
type App struct {
	store       store.Store
	sessions    store.SessionStore
	objects     storage.ObjectStore
	generator   ai.StreamGenerator
	emailDomain string
}

// New constructs the application from config.
func New(cfg Config) (*App, error) {
	emailDomain := strings.TrimSpace(cfg.EmailDomain)
	if emailDomain == "" {
		emailDomain = security.DefaultEmailDomain
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		if strings.TrimSpace(cfg.RedisAddr) != "" {
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
			})
			sessionStore = store.NewRedisSessionStore(client, cfg.SessionTTL)
		} else {
			var err error
			sessionStore, err = store.NewJWTSessionStore(cfg.JWTSecret, cfg.SessionTTL)
			if err != nil {
				return nil, fmt.Errorf("init jwt session store: %w", err)
			}
		}
	}

	objects := cfg.Objects
	if objects == nil {
		var err error
		objects, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			return nil, fmt.Errorf("init object store: %w", err)
		}
	}

	generator := cfg.Generator
	if generator == nil {
		var err error
		switch cfg.AIProvider {
		case "", "gemini":
			generator, err = ai.NewGeminiGenerator(ai.GeminiConfig{
				APIKey:  cfg.AIAPIKey,
				BaseURL: cfg.AIBaseURL,
				Model:   cfg.AIModel,
			})
		case "openai-compat":
			generator = ai.NewOpenAICompatGenerator(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel)
		default:
			err = fmt.Errorf("unknown ai provider %q", cfg.AIProvider)
		}
		if err != nil {
			return nil, fmt.Errorf("init generator: %w", err)
		}
	}

	return &App{
		store:       dataStore,
		sessions:    sessionStore,
		objects:     objects,
		generator:   generator,
		emailDomain: emailDomain,
	}, nil
}

// ConfigFromFile maps file configuration onto app configuration.
func ConfigFromFile(fc config.FileConfig) Config {
	return Config{
		DatabaseURL:    fc.DatabaseURL,
		RedisAddr:      fc.RedisAddr,
		RedisPassword:  fc.RedisPassword,
		JWTSecret:      fc.JWTSecret,
		SessionTTL:     fc.SessionTTL,
		EmailDomain:    fc.EmailDomain,
		MinioEndpoint:  fc.MinioEndpoint,
		MinioAccessKey: fc.MinioAccessKey,
		MinioSecretKey: fc.MinioSecretKey,
		MinioBucket:    fc.MinioBucket,
		MinioUseSSL:    fc.MinioUseSSL,
		AIProvider:     fc.AIProvider,
		AIModel:        fc.AIModel,
		AIAPIKey:       fc.AIAPIKey,
		AIBaseURL:      fc.AIBaseURL,
	}
}
