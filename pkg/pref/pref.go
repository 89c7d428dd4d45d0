package pref

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// PrefOption is a functional option for configuring preferences.
type PrefOption func(*prefConfig)

type prefConfig struct {
	store  Store
	now    func() time.Time
	logger *slog.Logger
}

// Persist binds the preference to a store. The stored value, if any, is
// loaded by New.
func Persist(store Store) PrefOption {
	return func(c *prefConfig) {
		c.store = store
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) PrefOption {
	return func(c *prefConfig) {
		c.now = now
	}
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(logger *slog.Logger) PrefOption {
	return func(c *prefConfig) {
		c.logger = logger
	}
}

// record is the persisted form of a preference.
type record[T any] struct {
	Value     T         `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Pref is a typed preference.
type Pref[T any] struct {
	key       string
	value     T
	defaults  T
	updatedAt time.Time
	config    prefConfig

	mu sync.RWMutex
}

// New creates a new preference with the given key and default value.
func New[T any](key string, defaultValue T, opts ...PrefOption) *Pref[T] {
	config := prefConfig{
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&config)
	}

	p := &Pref[T]{
		key:      key,
		value:    defaultValue,
		defaults: defaultValue,
		config:   config,
	}

	if config.store != nil {
		if data, ok, err := config.store.Load(key); err != nil {
			config.logger.Warn("preference load failed", "key", key, "error", err)
		} else if ok {
			var rec record[T]
			if err := json.Unmarshal(data, &rec); err != nil {
				config.logger.Warn("preference discarded", "key", key, "error", err)
			} else {
				p.value = rec.Value
				p.updatedAt = rec.UpdatedAt
			}
		}
	}
	return p
}

// Get returns the current preference value.
func (p *Pref[T]) Get() T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

// Set updates the preference value and persists it.
func (p *Pref[T]) Set(value T) error {
	p.mu.Lock()
	p.value = value
	p.updatedAt = p.config.now()
	rec := record[T]{Value: value, UpdatedAt: p.updatedAt}
	p.mu.Unlock()

	if p.config.store == nil {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return p.config.store.Save(p.key, data)
}

// Reset resets the preference to its default value.
func (p *Pref[T]) Reset() error {
	return p.Set(p.defaults)
}

// Key returns the preference key.
func (p *Pref[T]) Key() string {
	return p.key
}

// UpdatedAt returns when the preference was last updated. Zero until the
// first Set or load.
func (p *Pref[T]) UpdatedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.updatedAt
}
