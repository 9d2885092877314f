// Package cart holds the single-session cart: an in-memory item list kept in
// step with a durable snapshot in a store.PersistentStore.
//
// Every mutation computes the next list with a pure reducer while holding the
// state lock, publishes that list to observers, and then writes exactly that
// list to the store. Writes carry a version so an older snapshot can never
// overwrite a newer one.
package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fjod/go_cart/cart-session/internal/domain"
	"github.com/fjod/go_cart/cart-session/internal/store"
	"github.com/fjod/go_cart/cart-session/pkg/logger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("github.com/fjod/go_cart/cart-session/internal/cart")

// Observer receives a private copy of the cart after load and after every
// change. Observers run on the mutating goroutine, in commit order, and must
// not call mutating Manager methods from inside the callback.
type Observer func(items []domain.CartItem)

type Manager struct {
	store          store.PersistentStore
	key            string
	log            *zap.Logger
	metrics        *Metrics
	onPersistError func(error)
	sessionID      string

	sfg    singleflight.Group
	ready  chan struct{}
	loaded atomic.Bool

	mu      sync.Mutex // guards items and version
	items   []domain.CartItem
	version uint64

	// notifyMu is taken before mu is released, so observers see commits in order.
	notifyMu  sync.Mutex
	obsMu     sync.RWMutex
	observers map[int]Observer
	nextObs   int

	persistMu sync.Mutex
	persisted uint64
}

func NewManager(st store.PersistentStore, opts ...Option) *Manager {
	if st == nil {
		panic("cart: nil store")
	}

	m := &Manager{
		store:     st,
		key:       domain.SnapshotKey,
		log:       zap.NewNop(),
		sessionID: uuid.NewString(),
		ready:     make(chan struct{}),
		items:     []domain.CartItem{},
		observers: map[int]Observer{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(zap.String("session_id", m.sessionID))
	return m
}

// Open builds a Manager and loads the persisted snapshot before returning it.
func Open(ctx context.Context, st store.PersistentStore, opts ...Option) (*Manager, error) {
	m := NewManager(st, opts...)
	if err := m.Load(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) session() {
	if m == nil || m.ready == nil {
		panic(ErrNoSession)
	}
}

func (m *Manager) SessionID() string {
	m.session()
	return m.sessionID
}

// Load hydrates the cart from the store. It succeeds once; concurrent calls
// share a single read. A failed Load leaves the manager unloaded and may be retried.
// Mutations issued before Load completes wait for it.
func (m *Manager) Load(ctx context.Context) error {
	m.session()
	if m.loaded.Load() {
		return ErrAlreadyLoaded
	}

	_, err, _ := m.sfg.Do("load", func() (interface{}, error) {
		if m.loaded.Load() {
			return nil, ErrAlreadyLoaded
		}
		return nil, m.load(ctx)
	})
	return err
}

func (m *Manager) load(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "cart.Load")
	defer span.End()
	log := logger.WithTrace(ctx, m.log)

	items := []domain.CartItem{}
	raw, err := m.store.Get(ctx, m.key)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		return fmt.Errorf("load cart snapshot: %w", err)
	default:
		decoded, errDecode := domain.DecodeSnapshot(raw)
		if errDecode != nil {
			span.RecordError(errDecode)
			span.SetStatus(codes.Error, "decode failed")
			return fmt.Errorf("load cart snapshot: %w", errDecode)
		}
		var dropped int
		items, dropped = domain.Normalize(decoded)
		if dropped > 0 {
			log.Warn("dropped invalid snapshot entries", zap.Int("dropped", dropped))
		}
	}

	m.mu.Lock()
	m.items = items
	m.notifyMu.Lock()
	m.mu.Unlock()
	m.publish(items)
	m.metrics.lines(len(items))
	m.notifyMu.Unlock()

	m.loaded.Store(true)
	close(m.ready)

	span.SetAttributes(attribute.Int("cart.lines", len(items)))
	log.Info("cart loaded", zap.Int("lines", len(items)))
	return nil
}

func (m *Manager) waitLoaded(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	default:
	}

	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Items returns a copy of the current cart.
func (m *Manager) Items() []domain.CartItem {
	m.session()
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.Clone(m.items)
}

func (m *Manager) Summary() domain.Summary {
	m.session()
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.Summarize(m.items)
}

// Subscribe registers fn and returns a function that removes it.
func (m *Manager) Subscribe(fn Observer) (unsubscribe func()) {
	m.session()
	m.obsMu.Lock()
	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn
	m.obsMu.Unlock()

	return func() {
		m.obsMu.Lock()
		delete(m.observers, id)
		m.obsMu.Unlock()
	}
}

// AddToCart adds one unit of p. A line already in the cart keeps its
// original title, image and price.
func (m *Manager) AddToCart(ctx context.Context, p domain.Product) error {
	m.session()
	_, err := m.mutate(ctx, "add", func(items []domain.CartItem) ([]domain.CartItem, bool) {
		return domain.AddToCart(items, p), true
	})
	return err
}

// Increment reports false, without touching the store, when id is not in the cart.
func (m *Manager) Increment(ctx context.Context, id string) (bool, error) {
	m.session()
	return m.mutate(ctx, "increment", func(items []domain.CartItem) ([]domain.CartItem, bool) {
		return domain.Increment(items, id)
	})
}

// Decrement removes the line when its quantity is 1. It reports false,
// without touching the store, when id is not in the cart.
func (m *Manager) Decrement(ctx context.Context, id string) (bool, error) {
	m.session()
	return m.mutate(ctx, "decrement", func(items []domain.CartItem) ([]domain.CartItem, bool) {
		return domain.Decrement(items, id)
	})
}

// Clear empties the cart. Clearing an empty cart is a no-op.
func (m *Manager) Clear(ctx context.Context) error {
	m.session()
	_, err := m.mutate(ctx, "clear", func(items []domain.CartItem) ([]domain.CartItem, bool) {
		if len(items) == 0 {
			return items, false
		}
		return []domain.CartItem{}, true
	})
	return err
}

// Flush writes the current cart if the last write failed. It is a no-op
// when the store already holds the latest snapshot.
func (m *Manager) Flush(ctx context.Context) error {
	m.session()
	if err := m.waitLoaded(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	items, version := m.items, m.version
	m.mu.Unlock()

	return m.persist(ctx, version, items)
}

// Dirty reports whether the store is behind the in-memory cart.
func (m *Manager) Dirty() bool {
	m.session()
	m.mu.Lock()
	version := m.version
	m.mu.Unlock()

	m.persistMu.Lock()
	defer m.persistMu.Unlock()
	return version > m.persisted
}

func (m *Manager) mutate(
	ctx context.Context,
	op string,
	reduce func([]domain.CartItem) ([]domain.CartItem, bool),
) (bool, error) {
	if err := m.waitLoaded(ctx); err != nil {
		return false, err
	}

	m.mu.Lock()
	next, changed := reduce(m.items)
	if !changed {
		m.mu.Unlock()
		m.metrics.mutation(op, resultNotFound)
		return false, nil
	}
	m.items = next
	m.version++
	version := m.version
	m.notifyMu.Lock()
	m.mu.Unlock()
	m.publish(next)
	m.metrics.lines(len(next))
	m.notifyMu.Unlock()

	// next is never written to again; it is the exact list observers saw.
	if err := m.persist(ctx, version, next); err != nil {
		m.metrics.mutation(op, resultError)
		return true, err
	}
	m.metrics.mutation(op, resultOK)
	return true, nil
}

func (m *Manager) publish(items []domain.CartItem) {
	m.obsMu.RLock()
	observers := make([]Observer, 0, len(m.observers))
	for _, fn := range m.observers {
		observers = append(observers, fn)
	}
	m.obsMu.RUnlock()

	for _, fn := range observers {
		fn(domain.Clone(items))
	}
}

func (m *Manager) persist(ctx context.Context, version uint64, items []domain.CartItem) error {
	err := m.persistVersion(ctx, version, items)
	if err != nil && m.onPersistError != nil {
		m.onPersistError(err)
	}
	return err
}

func (m *Manager) persistVersion(ctx context.Context, version uint64, items []domain.CartItem) error {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	log := logger.WithTrace(ctx, m.log)
	if version <= m.persisted {
		log.Debug("snapshot superseded", zap.Uint64("version", version), zap.Uint64("persisted", m.persisted))
		return nil
	}

	ctx, span := tracer.Start(ctx, "cart.persist", trace.WithAttributes(
		attribute.Int64("cart.version", int64(version)),
		attribute.Int("cart.lines", len(items)),
	))
	defer span.End()

	payload, err := domain.EncodeSnapshot(items)
	if err == nil {
		start := time.Now()
		err = m.store.Set(ctx, m.key, payload)
		m.metrics.observePersist(time.Since(start).Seconds())
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		m.metrics.persistFailed()
		log.Error("persist snapshot failed", zap.Uint64("version", version), zap.Error(err))
		return &PersistError{Version: version, Err: err}
	}

	m.persisted = version
	return nil
}
