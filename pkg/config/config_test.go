package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ATTENDANCE_TX_TIMEOUT", "")
	t.Setenv("ACTIVATION_CODE_LENGTH", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 5*time.Second, cfg.Attendance.TxTimeout)
	assert.Equal(t, 30*24*time.Hour, cfg.Linking.CodeTTL)
	assert.Equal(t, 8, cfg.Linking.CodeLength)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ATTENDANCE_TX_TIMEOUT", "2s")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")
	t.Setenv("ENABLE_CATALOG_CACHE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.Attendance.TxTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.True(t, cfg.Catalog.CacheEnabled)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("nonsense", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, 3*time.Second, parseDuration("3s", time.Minute))
}
