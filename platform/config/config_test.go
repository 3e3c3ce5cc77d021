package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresAPIURL(t *testing.T) {
	t.Setenv("POSTCODES_API_URL", "")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTCODES_API_URL")
}

func TestLoadRelativeURLNeedsOrigin(t *testing.T) {
	t.Setenv("POSTCODES_API_URL", "/postcodes/api/")
	t.Setenv("POSTCODES_ORIGIN", "")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("POSTCODES_ORIGIN", "https://shop.example.nl/")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://shop.example.nl", cfg.GetPostcodesOrigin())
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTCODES_API_URL", "https://lookup.example.nl/api")
	t.Setenv("CORS_ORIGINS", "https://a.example.nl, https://b.example.nl")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
	assert.Equal(t, time.Duration(0), cfg.GetUpstreamTimeout())
	assert.Equal(t, 0.5, cfg.GetBreakerFailureRatio())
	assert.Equal(t, uint32(5), cfg.GetBreakerMinRequests())
	assert.Equal(t, []string{"https://a.example.nl", "https://b.example.nl"}, cfg.GetCORSOrigins())
	assert.False(t, cfg.GetCORSAllowAll())
}

func TestLoadWildcardOriginAllowsAll(t *testing.T) {
	t.Setenv("POSTCODES_API_URL", "https://lookup.example.nl/api")
	t.Setenv("CORS_ORIGINS", "*")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.GetCORSAllowAll())
}
