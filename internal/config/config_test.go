package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildnest/wildnest/internal/shared/auth"
)

func clearEnv(t *testing.T) {
	t.Helper()
	// Run from an empty directory so no .env file leaks into the test.
	t.Chdir(t.TempDir())
	for _, key := range []string{
		"PORT", "DATASTORE", "SQLITE_PATH", "DATABASE_URL", "GCP_PROJECT_ID", "AUTH_MODE",
		"CLERK_JWKS_URL", "STORAGE", "STORAGE_BUCKET", "STORAGE_DIR", "PUBLIC_BASE_URL",
		"IDENTIFIER", "GEMINI_API_KEY", "ANTHROPIC_API_KEY", "DEBUG",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DataStoreSQLite, cfg.DataStore)
	assert.Equal(t, auth.ModeNoop, cfg.Auth.Mode)
	assert.Equal(t, StorageDisk, cfg.Storage.Kind)
	assert.Equal(t, "http://localhost:8080/media", cfg.Storage.PublicBaseURL)
	assert.Equal(t, IdentifierMock, cfg.Identifier.Kind)
}

func TestLoad_GCSLeavesPublicBaseToBucket(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE", "gcs")
	t.Setenv("STORAGE_BUCKET", "wildnest-media")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Storage.PublicBaseURL)
	assert.Equal(t, "wildnest-media", cfg.Storage.Bucket)
}

func TestLoad_RejectsIncompleteSettings(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown datastore":      {"DATASTORE": "mongo"},
		"postgres without dsn":   {"DATASTORE": "postgres"},
		"firestore without proj": {"DATASTORE": "firestore"},
		"gcs without bucket":     {"STORAGE": "gcs"},
		"clerk without jwks":     {"AUTH_MODE": "clerk"},
		"gemini without key":     {"IDENTIFIER": "gemini"},
		"claude without key":     {"IDENTIFIER": "claude"},
		"unknown identifier":     {"IDENTIFIER": "oracle"},
		"non numeric port":       {"PORT": "http"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(".", ".env"), []byte("IDENTIFIER=claude\nANTHROPIC_API_KEY=sk-test\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("IDENTIFIER")
		os.Unsetenv("ANTHROPIC_API_KEY")
	})
	// godotenv never overrides variables that are already set, even to "".
	os.Unsetenv("IDENTIFIER")
	os.Unsetenv("ANTHROPIC_API_KEY")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, IdentifierClaude, cfg.Identifier.Kind)
	assert.Equal(t, "sk-test", cfg.Identifier.AnthropicAPIKey)
}
