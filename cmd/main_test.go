package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8090", cfg.HTTPAddr)
	assert.Equal(t, "file", cfg.StoreBackend)
	assert.Equal(t, "@GoMarketplace:products", cfg.CartKey)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, uint32(5), cfg.BreakerFailures)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("CART_STORE", "redis")
	t.Setenv("REQUEST_TIMEOUT", "250ms")
	t.Setenv("BREAKER_MAX_FAILURES", "2")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.StoreBackend)
	assert.Equal(t, 250*time.Millisecond, cfg.RequestTimeout)
	assert.Equal(t, uint32(2), cfg.BreakerFailures)
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	_, err := loadConfig()
	require.ErrorContains(t, err, "SHUTDOWN_TIMEOUT")
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()

	st, closeFn, err := openStore(ctx, &Config{StoreBackend: "memory"})
	require.NoError(t, err)
	require.NotNil(t, st)
	closeFn()

	st, closeFn, err = openStore(ctx, &Config{StoreBackend: "file", FileDir: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, st.Set(ctx, "k", "v"))
	closeFn()

	_, _, err = openStore(ctx, &Config{StoreBackend: "etcd"})
	require.ErrorContains(t, err, "unknown store backend")
}
