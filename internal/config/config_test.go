package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("env only", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", "")
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("DATABASE_URL", "postgres://localhost/simpleecom?sslmode=disable")
		t.Setenv("JWT_TTL", "30m")
		t.Setenv("CORS_ORIGINS", "http://localhost:4200, http://example.com")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "s3cret", cfg.JWTSecret)
		assert.Equal(t, 30*time.Minute, cfg.JWTTTL.Std())
		assert.Equal(t, []string{"http://localhost:4200", "http://example.com"}, cfg.CORSOrigins)
		assert.Equal(t, ":8080", cfg.ListenAddr)
	})

	t.Run("missing secret fails", func(t *testing.T) {
		t.Setenv("CONFIG_FILE", "")
		t.Setenv("JWT_SECRET", "")
		t.Setenv("DATABASE_URL", "postgres://localhost/simpleecom")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("yaml file with env override", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		data := []byte("listen_addr: \":9090\"\njwt_secret: from-file\ndatabase_url: postgres://file/db\njwt_ttl: 2h\nlog:\n  level: debug\n")
		require.NoError(t, os.WriteFile(path, data, 0o600))

		t.Setenv("CONFIG_FILE", path)
		t.Setenv("JWT_SECRET", "from-env")
		t.Setenv("DATABASE_URL", "")
		t.Setenv("JWT_TTL", "")
		t.Setenv("CORS_ORIGINS", "")

		cfg, err := Load()
		require.NoError(t, err)
		// Environment wins over the file.
		assert.Equal(t, "from-env", cfg.JWTSecret)
		assert.Equal(t, ":9090", cfg.ListenAddr)
		assert.Equal(t, 2*time.Hour, cfg.JWTTTL.Std())
		assert.Equal(t, "debug", cfg.Log.Level)
	})
}
