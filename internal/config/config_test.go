package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://shop@localhost/shop")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "8081")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("REVIEWS_AUTO_APPROVE", "true")
	t.Setenv("CATALOG_PAGE_SIZE", "24")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.Addr())
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Reviews.AutoApprove)
	assert.Equal(t, 24, cfg.Catalog.PageSize)
	assert.Equal(t, 10, cfg.Orders.PageSize)
	assert.Equal(t, "UNIAPP E-commerce", cfg.Catalog.SiteName)
}

func TestLoad_YAMLFileLayer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := "catalog:\n  site_name: Boutique Test\norders:\n  page_size: 20\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("DATABASE_URL", "postgres://shop@localhost/shop")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ORDERS_PAGE_SIZE", "30")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "Boutique Test", cfg.Catalog.SiteName)
	// env wins over file
	assert.Equal(t, 30, cfg.Orders.PageSize)
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET")

	cfg.Database.URL = "postgres://x"
	cfg.Auth.JWTSecret = "s"
	require.NoError(t, cfg.Validate())

	cfg.Log.Format = "xml"
	require.Error(t, cfg.Validate())
}

func TestEnvTransformFunc(t *testing.T) {
	assert.Equal(t, "database.url", envTransformFunc("DATABASE_URL"))
	assert.Equal(t, "seed.enabled", envTransformFunc("SEED_DEMO_DATA"))
	assert.Equal(t, "", envTransformFunc("HOME"))
}
