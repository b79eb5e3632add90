package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, c.ServerBaseURL, "http://127.0.0.1:8080")
	assert.Equal(t, c.MetadataDebounce, 1*time.Second)
	assert.Equal(t, c.ContentDebounce, 2*time.Second)
	assert.Equal(t, c.MaxRetries, uint64(3))
	assert.Equal(t, c.RetryBaseDelay, 250*time.Millisecond)
	assert.Equal(t, c.ProbeInterval, 3*time.Second)
	assert.Equal(t, c.DraftDBPath, "resumate-drafts.db")
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	c := LoadConfig()

	require.NotNil(t, c, "LoadConfig must not return nil")

	assert.Equal(t, c.ServerBaseURL, "http://127.0.0.1:8080")
	assert.Equal(t, c.MetadataDebounce, 1*time.Second)
	assert.Equal(t, c.ContentDebounce, 2*time.Second)
	assert.Equal(t, c.ProbeInterval, 3*time.Second)
	assert.Equal(t, c.DraftDBPath, "resumate-drafts.db")
}
