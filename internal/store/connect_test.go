package store

import (
	"context"
	"testing"

	"github.com/JonMunkholm/contacts/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, _, err := Connect(context.Background(), config.DatabaseConfig{Driver: "mysql", URL: "mysql://x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported database driver "mysql"`)
}

func TestConnect_BadURL(t *testing.T) {
	_, _, err := Connect(context.Background(), config.DatabaseConfig{Driver: config.DriverPgx, URL: "://nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse database URL")
}

func TestConnect_DriverNameIgnoresCase(t *testing.T) {
	_, _, err := Connect(context.Background(), config.DatabaseConfig{Driver: "PGX", URL: "://nope"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "unsupported database driver")
	assert.Contains(t, err.Error(), "failed to parse database URL")
}
