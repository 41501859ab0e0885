package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	t.Setenv("CONFIG_DIR", dir)
	t.Setenv("TMDB_API_TOKEN", "tmdb-token")
	t.Setenv("SUPABASE_URL", "https://example.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	for _, key := range []string{"TMDB_LANGUAGE", "TMDB_REGION", "BACKEND", "HTTP_TIMEOUT_SECONDS", "REFRESH_CRON", "SERVER_PORT"} {
		t.Setenv(key, "")
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	dir := setupEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tmdb-token", cfg.TMDBToken)
	assert.Equal(t, BackendSupabase, cfg.Backend)
	assert.Equal(t, "pt-BR", cfg.Language)
	assert.Equal(t, "BR", cfg.Region)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 3, cfg.ProfileRetryAttempts)
	assert.Equal(t, time.Second, cfg.ProfileRetryDelay)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "*/30 * * * *", cfg.RefreshCron)
	assert.Equal(t, filepath.Join(dir, "session.json"), cfg.SessionFile)
	assert.Equal(t, filepath.Join(dir, "cinematch.db"), cfg.DatabaseFile)
	assert.Equal(t, filepath.Join(dir, "avatars"), cfg.AvatarDir)
}

func TestLoadOverrides(t *testing.T) {
	setupEnv(t)
	t.Setenv("TMDB_LANGUAGE", "en-US")
	t.Setenv("TMDB_REGION", "GB")
	t.Setenv("BACKEND", "local")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendLocal, cfg.Backend)
	assert.Equal(t, "GB", cfg.Region)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "en-US", cfg.Locale().String())
}

func TestLoadRequiresToken(t *testing.T) {
	setupEnv(t)
	t.Setenv("TMDB_API_TOKEN", "")

	_, err := Load()
	assert.EqualError(t, err, "TMDB_API_TOKEN is required")
}

func TestValidateBackend(t *testing.T) {
	base := Config{
		TMDBToken:            "t",
		Language:             "pt-BR",
		HTTPTimeout:          time.Second,
		ProfileRetryAttempts: 3,
		CatalogRateLimit:     10,
	}

	cfg := base
	cfg.Backend = BackendSupabase
	assert.EqualError(t, cfg.Validate(), "SUPABASE_URL is required")

	cfg = base
	cfg.Backend = BackendLocal
	assert.NoError(t, cfg.Validate())

	cfg = base
	cfg.Backend = "firebase"
	assert.Error(t, cfg.Validate())
}
