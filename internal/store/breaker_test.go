package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/cart-session/pkg/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyStore struct {
	m     sync.Mutex
	calls int
	err   error
}

func (f *flakyStore) Get(context.Context, string) (string, error) {
	f.m.Lock()
	defer f.m.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "", ErrNotFound
}

func (f *flakyStore) Set(context.Context, string, string) error {
	f.m.Lock()
	defer f.m.Unlock()
	f.calls++
	return f.err
}

func TestBreakerStore_NotFoundDoesNotTrip(t *testing.T) {
	inner := &flakyStore{}
	st := NewBreakerStore(inner, circuitbreaker.Settings{MaxFailures: 1, OpenTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := st.Get(context.Background(), "k")
		require.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, "closed", st.State())
}

func TestBreakerStore_OpensOnWriteFailures(t *testing.T) {
	inner := &flakyStore{err: errors.New("disk full")}
	st := NewBreakerStore(inner, circuitbreaker.Settings{MaxFailures: 2, OpenTimeout: time.Minute})
	ctx := context.Background()

	require.ErrorContains(t, st.Set(ctx, "k", "v"), "disk full")
	require.ErrorContains(t, st.Set(ctx, "k", "v"), "disk full")

	err := st.Set(ctx, "k", "v")
	require.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, 2, inner.calls)
}

func TestBreakerStore_PassesThrough(t *testing.T) {
	mem := NewMemoryStore()
	st := NewBreakerStore(mem, circuitbreaker.Settings{})
	ctx := context.Background()

	require.NoError(t, st.Set(ctx, "k", "v"))
	val, err := st.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)
}
