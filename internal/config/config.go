package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/wildnest/wildnest/internal/shared/auth"
	"github.com/wildnest/wildnest/internal/shared/envconfig"
)

// DataStore enumerates supported persistence backends.
type DataStore string

const (
	DataStoreSQLite    DataStore = "sqlite"
	DataStorePostgres  DataStore = "postgres"
	DataStoreFirestore DataStore = "firestore"
)

// StorageKind selects where uploaded images are written.
type StorageKind string

const (
	StorageDisk StorageKind = "disk"
	StorageGCS  StorageKind = "gcs"
)

// IdentifierKind selects the vision backend.
type IdentifierKind string

const (
	IdentifierMock   IdentifierKind = "mock"
	IdentifierGemini IdentifierKind = "gemini"
	IdentifierClaude IdentifierKind = "claude"
)

// Config is the runtime configuration of the API server.
type Config struct {
	Port         string    `validate:"required,numeric"`
	DataStore    DataStore `validate:"oneof=sqlite postgres firestore"`
	SQLitePath   string
	DatabaseURL  string
	GCPProjectID string
	Debug        bool
	Auth         AuthConfig
	Firestore    FirestoreConfig
	Storage      StorageConfig
	Identifier   IdentifierConfig
}

// AuthConfig stores authentication middleware setup.
type AuthConfig struct {
	Mode     auth.Mode `validate:"oneof=clerk noop"`
	JWKSURL  string
	Audience string
	Issuer   string
}

type FirestoreConfig struct {
	EmulatorHost string
}

// StorageConfig picks the image store. PublicBaseURL prefixes every returned image URL;
// for a private bucket point it at this server's /media route, which redirects to
// signed URLs valid for SignedURLTTL.
type StorageConfig struct {
	Kind          StorageKind `validate:"oneof=disk gcs"`
	Bucket        string
	Dir           string
	PublicBaseURL string
	SignedURLTTL  time.Duration
}

type IdentifierConfig struct {
	Kind            IdentifierKind `validate:"oneof=mock gemini claude"`
	GeminiAPIKey    string
	GeminiModel     string
	AnthropicAPIKey string
	ClaudeModel     string
}

// Load reads environment variables (after any .env file) into Config with validation.
func Load() (Config, error) {
	if err := envconfig.LoadDotEnv(); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	port := envconfig.Get("PORT", "8080")
	cfg := Config{
		Port:         port,
		DataStore:    DataStore(strings.ToLower(envconfig.Get("DATASTORE", string(DataStoreSQLite)))),
		SQLitePath:   envconfig.Get("SQLITE_PATH", "data/wildnest.db"),
		DatabaseURL:  envconfig.Get("DATABASE_URL", ""),
		GCPProjectID: envconfig.Get("GCP_PROJECT_ID", ""),
		Debug:        envconfig.GetBool("DEBUG", false),
		Auth: AuthConfig{
			Mode:     auth.Mode(strings.ToLower(envconfig.Get("AUTH_MODE", string(auth.ModeNoop)))),
			JWKSURL:  envconfig.Get("CLERK_JWKS_URL", ""),
			Audience: envconfig.Get("CLERK_AUDIENCE", ""),
			Issuer:   envconfig.Get("CLERK_ISSUER", ""),
		},
		Firestore: FirestoreConfig{
			EmulatorHost: envconfig.Get("FIRESTORE_EMULATOR_HOST", ""),
		},
		Storage: StorageConfig{
			Kind:          StorageKind(strings.ToLower(envconfig.Get("STORAGE", string(StorageDisk)))),
			Bucket:        envconfig.Get("STORAGE_BUCKET", ""),
			Dir:           envconfig.Get("STORAGE_DIR", "data/media"),
			PublicBaseURL: envconfig.Get("PUBLIC_BASE_URL", ""),
			SignedURLTTL:  envconfig.GetDuration("SIGNED_URL_TTL", 15*time.Minute),
		},
		Identifier: IdentifierConfig{
			Kind:            IdentifierKind(strings.ToLower(envconfig.Get("IDENTIFIER", string(IdentifierMock)))),
			GeminiAPIKey:    envconfig.Get("GEMINI_API_KEY", ""),
			GeminiModel:     envconfig.Get("GEMINI_MODEL", "gemini-2.5-flash"),
			AnthropicAPIKey: envconfig.Get("ANTHROPIC_API_KEY", ""),
			ClaudeModel:     envconfig.Get("CLAUDE_MODEL", ""),
		},
	}

	if cfg.Storage.Kind == StorageDisk && cfg.Storage.PublicBaseURL == "" {
		cfg.Storage.PublicBaseURL = "http://localhost:" + port + "/media"
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if err := envconfig.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	switch cfg.DataStore {
	case DataStoreSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required when DATASTORE=sqlite")
		}
	case DataStorePostgres:
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATASTORE=postgres")
		}
	case DataStoreFirestore:
		if cfg.GCPProjectID == "" {
			return fmt.Errorf("gcp project id required when datastore=firestore")
		}
	}

	if cfg.Storage.Kind == StorageGCS && strings.TrimSpace(cfg.Storage.Bucket) == "" {
		return fmt.Errorf("STORAGE_BUCKET is required when STORAGE=gcs")
	}

	if cfg.Auth.Mode == auth.ModeClerk && cfg.Auth.JWKSURL == "" {
		return fmt.Errorf("CLERK_JWKS_URL is required when AUTH_MODE=clerk")
	}

	switch cfg.Identifier.Kind {
	case IdentifierGemini:
		if cfg.Identifier.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when IDENTIFIER=gemini")
		}
	case IdentifierClaude:
		if cfg.Identifier.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when IDENTIFIER=claude")
		}
	}
	return nil
}
