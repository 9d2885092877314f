package store

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/cart-session/pkg/circuitbreaker"
)

// BreakerStore stops calling a failing backend for a while instead of
// stacking up timeouts on every mutation. ErrNotFound is a normal answer
// and never trips the breaker.
type BreakerStore struct {
	next    PersistentStore
	breaker *circuitbreaker.Breaker[string]
}

func NewBreakerStore(next PersistentStore, s circuitbreaker.Settings) *BreakerStore {
	s.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
	}
	return &BreakerStore{
		next:    next,
		breaker: circuitbreaker.New[string](s),
	}
}

func (b *BreakerStore) Get(ctx context.Context, key string) (string, error) {
	return b.breaker.Execute(func() (string, error) {
		return b.next.Get(ctx, key)
	})
}

func (b *BreakerStore) Set(ctx context.Context, key, value string) error {
	_, err := b.breaker.Execute(func() (string, error) {
		return "", b.next.Set(ctx, key, value)
	})
	return err
}

func (b *BreakerStore) State() string {
	return b.breaker.State()
}
