package cart

import "go.uber.org/zap"

type Option func(*Manager)

// WithKey overrides the store key. Defaults to domain.SnapshotKey.
func WithKey(key string) Option {
	return func(m *Manager) { m.key = key }
}

func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.log = l }
}

func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithPersistErrorHandler registers a callback for every failed snapshot
// write, in addition to the error returned to the caller.
func WithPersistErrorHandler(fn func(error)) Option {
	return func(m *Manager) { m.onPersistError = fn }
}
