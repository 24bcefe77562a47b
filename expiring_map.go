package expiringmap

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pajama10000/expiringmap/expiration"
	"github.com/pajama10000/expiringmap/internal/ctxsync"
	"github.com/pajama10000/expiringmap/scheduler"
	"github.com/pajama10000/expiringmap/storage"
)

// Map is a thread-safe map whose entries expire.
//
// Reads run under a shared lock. Writes, reads of ACCESSED entries, loading,
// and timer driven expiration run under an exclusive lock, and synchronous
// expiration listeners are invoked inside it, so they observe expirations in
// the order they were applied.
//
// An entry whose deadline has passed is never returned, even if its timer has
// not run yet.
type Map[K KeyConstraint, V ValueConstraint] struct {
	mu       sync.RWMutex
	store    storage.Store[K, V]
	variable bool
	services *Services
	clock    scheduler.Clock
	logger   *zap.Logger
	equal    func(a, b V) bool
	context  func() context.Context

	duration       time.Duration
	policy         expiration.Policy
	maxSize        int
	loader         EntryLoader[K, V]
	expiringLoader ExpiringEntryLoader[K, V]

	listeners      []registration[K, V]
	asyncListeners []registration[K, V]
	listenerSeq    uint64

	// the single armed timer and the entry it targets
	armed    *scheduler.Task
	armedFor *storage.Entry[K, V]
	armedAt  time.Time

	// entries removed by the current write, awaiting notification
	pending []*storage.Entry[K, V]
}

type registration[K KeyConstraint, V ValueConstraint] struct {
	id       uint64
	listener ExpirationListener[K, V]
}

// New creates a map. Without options it holds an unbounded number of entries
// that expire 60 seconds after they were written.
func New[K KeyConstraint, V ValueConstraint](opts ...Option[K, V]) (*Map[K, V], error) {
	c := defaultConfig[K, V]()
	for _, opt := range opts {
		opt.apply(&c)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	if c.services == nil {
		c.services = DefaultServices()
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.equal == nil {
		c.equal = DefaultValueEqual[V]()
	}

	m := &Map[K, V]{
		variable:       c.variable,
		services:       c.services,
		clock:          c.services.Clock(),
		logger:         c.logger,
		equal:          c.equal,
		context:        c.context,
		duration:       c.duration,
		policy:         c.policy,
		maxSize:        c.maxSize,
		loader:         c.loader,
		expiringLoader: c.expiringLoader,
	}
	if c.variable {
		m.store = storage.NewVariable[K, V]()
	} else {
		m.store = storage.NewFixed[K, V]()
	}
	for _, l := range c.listeners {
		m.listeners = append(m.listeners, m.register(l))
	}
	for _, l := range c.asyncListeners {
		m.asyncListeners = append(m.asyncListeners, m.register(l))
	}
	return m, nil
}

// Services returns the services the map runs on.
func (m *Map[K, V]) Services() *Services {
	return m.services
}

// Put stores value under key and returns the previous value, if any.
//
// Replacing a value with an equal one keeps the entry's countdown running;
// any other value restarts it. An existing entry keeps its own policy and
// duration.
func (m *Map[K, V]) Put(key K, value V) (prev V, replaced bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	prev, replaced = m.putLocked(key, value, expiration.Unspecified, 0, now)
	m.settleLocked(now)
	return prev, replaced
}

// PutWithPolicy is Put with a policy for this entry only.
// It requires variable expiration.
func (m *Map[K, V]) PutWithPolicy(key K, value V, policy expiration.Policy) (V, bool, error) {
	return m.PutExpiring(key, ExpiringValue[V]{Value: value, Policy: policy})
}

// PutWithExpiration is Put with a duration for this entry only.
// It requires variable expiration.
func (m *Map[K, V]) PutWithExpiration(key K, value V, d time.Duration) (V, bool, error) {
	if d <= 0 {
		var zero V
		return zero, false, fmt.Errorf("%w: expiration must be positive, got %v", ErrInvalidArgument, d)
	}
	return m.PutExpiring(key, ExpiringValue[V]{Value: value, Duration: d})
}

// PutExpiring is Put with the policy and duration carried by ev. Settings left
// unset fall back to the map defaults for a new entry and to the entry's own
// settings for an existing one. It requires variable expiration.
func (m *Map[K, V]) PutExpiring(key K, ev ExpiringValue[V]) (prev V, replaced bool, err error) {
	if !m.variable {
		return prev, false, fmt.Errorf("%w: per-entry expiration", ErrUnsupportedOperation)
	}
	if err := validateExpiringValue(ev); err != nil {
		return prev, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	prev, replaced = m.putLocked(key, ev.Value, ev.Policy, ev.Duration, now)
	m.settleLocked(now)
	return prev, replaced, nil
}

func validateExpiringValue[V ValueConstraint](ev ExpiringValue[V]) error {
	if ev.Policy != expiration.Unspecified && !ev.Policy.Valid() {
		return fmt.Errorf("%w: unknown expiration policy %v", ErrInvalidArgument, ev.Policy)
	}
	if ev.Duration < 0 {
		return fmt.Errorf("%w: negative expiration %v", ErrInvalidArgument, ev.Duration)
	}
	return nil
}

// PutAll stores every pair of entries.
func (m *Map[K, V]) PutAll(entries map[K]V) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	for k, v := range entries {
		m.putLocked(k, v, expiration.Unspecified, 0, now)
	}
	m.settleLocked(now)
}

// PutIfAbsent stores value unless key is present. It returns the value now
// stored under key and whether it was already there.
func (m *Map[K, V]) PutIfAbsent(key K, value V) (actual V, loaded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	if e := m.liveLocked(key, now); e != nil {
		actual, loaded = e.Value, true
	} else {
		m.insertLocked(key, value, m.policy, m.duration, now)
		actual = value
	}
	m.settleLocked(now)
	return actual, loaded
}

// Get returns the value stored under key.
//
// A hit on an ACCESSED entry restarts its countdown. On a miss a configured
// loader is called once, under the write lock, and its value stored. A loader
// reporting ErrNotFound yields a plain miss; any other loader error is
// returned, and also logged at Warn level.
func (m *Map[K, V]) Get(key K) (V, bool, error) {
	v, ok, err := m.get(m.context(), key, false)
	if err != nil {
		m.logger.Warn("failed to load entry", zap.Any("key", key), zap.Error(err))
	}
	return v, ok, err
}

// GetContext is Get with a context passed to the loader and used to give up
// waiting for the lock.
func (m *Map[K, V]) GetContext(ctx context.Context, key K) (V, bool, error) {
	return m.get(ctx, key, true)
}

// GetOrDefault returns the value stored under key, or def on a miss. A loader
// error is returned along with def.
func (m *Map[K, V]) GetOrDefault(key K, def V) (V, error) {
	v, ok, err := m.Get(key)
	if err != nil || !ok {
		return def, err
	}
	return v, nil
}

func (m *Map[K, V]) hasLoader() bool {
	return m.loader != nil || m.expiringLoader != nil
}

func (m *Map[K, V]) get(ctx context.Context, key K, lockWithContext bool) (V, bool, error) {
	var zero V

	if lockWithContext {
		if !m.mu.TryRLock() {
			if err := ctxsync.Lock(ctx, m.mu.RLocker()); err != nil {
				return zero, false, err
			}
		}
	} else {
		m.mu.RLock()
	}
	now := m.clock.Now()
	e := m.store.Get(key)
	live := e != nil && !e.IsExpired(now)
	if live && !e.Policy.RefreshOnAccess() {
		v := e.Value
		m.mu.RUnlock()
		return v, true, nil
	}
	m.mu.RUnlock()
	if !live && !m.hasLoader() {
		return zero, false, nil
	}

	if lockWithContext {
		if err := ctxsync.Lock(ctx, &m.mu); err != nil {
			return zero, false, err
		}
	} else {
		m.mu.Lock()
	}
	defer m.mu.Unlock()

	now = m.clock.Now()
	if e := m.liveLocked(key, now); e != nil {
		if e.Policy.RefreshOnAccess() {
			m.store.Update(e, func(e *storage.Entry[K, V]) {
				e.Reset(now)
			})
		}
		v := e.Value
		m.settleLocked(now)
		return v, true, nil
	}
	if !m.hasLoader() {
		m.settleLocked(now)
		return zero, false, nil
	}

	v, ok, err := m.loadLocked(ctx, key, now)
	m.settleLocked(now)
	return v, ok, err
}

func (m *Map[K, V]) loadLocked(ctx context.Context, key K, now time.Time) (V, bool, error) {
	var zero V

	if m.loader != nil {
		v, err := m.loader.Load(ctx, key)
		if errors.Is(err, ErrNotFound) {
			return zero, false, nil
		} else if err != nil {
			return zero, false, fmt.Errorf("load %v: %w", key, err)
		}
		m.insertLocked(key, v, m.policy, m.duration, now)
		return v, true, nil
	}

	ev, err := m.expiringLoader.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return zero, false, nil
	} else if err != nil {
		return zero, false, fmt.Errorf("load %v: %w", key, err)
	}
	if err := validateExpiringValue(ev); err != nil {
		return zero, false, fmt.Errorf("load %v: %w", key, err)
	}
	m.insertLocked(key, ev.Value, ev.Policy.Or(m.policy), m.durationOr(ev.Duration), now)
	return ev.Value, true, nil
}

// Remove deletes key and returns its value. Listeners are not notified.
func (m *Map[K, V]) Remove(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	var v V
	e := m.liveLocked(key, now)
	if e != nil {
		m.store.Remove(key)
		v = e.Value
	}
	m.settleLocked(now)
	return v, e != nil
}

// CompareAndRemove deletes key if its value equals old.
func (m *Map[K, V]) CompareAndRemove(key K, old V) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	e := m.liveLocked(key, now)
	deleted := e != nil && m.equal(e.Value, old)
	if deleted {
		m.store.Remove(key)
	}
	m.settleLocked(now)
	return deleted
}

// Replace stores value under key only if key is present, and returns the
// previous value.
func (m *Map[K, V]) Replace(key K, value V) (prev V, replaced bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	if m.liveLocked(key, now) != nil {
		prev, replaced = m.putLocked(key, value, expiration.Unspecified, 0, now)
	}
	m.settleLocked(now)
	return prev, replaced
}

// CompareAndReplace stores value under key only if its current value equals old.
func (m *Map[K, V]) CompareAndReplace(key K, old, value V) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	e := m.liveLocked(key, now)
	swapped := e != nil && m.equal(e.Value, old)
	if swapped {
		m.putLocked(key, value, expiration.Unspecified, 0, now)
	}
	m.settleLocked(now)
	return swapped
}

// Len returns the number of live entries.
func (m *Map[K, V]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store.Len() - m.overdueLocked(m.clock.Now())
}

// IsEmpty reports whether the map holds no live entries.
func (m *Map[K, V]) IsEmpty() bool {
	return m.Len() == 0
}

// ContainsKey reports whether key is present.
func (m *Map[K, V]) ContainsKey(key K) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e := m.store.Get(key)
	return e != nil && !e.IsExpired(m.clock.Now())
}

// ContainsValue reports whether any live entry holds a value equal to value.
func (m *Map[K, V]) ContainsValue(value V) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.clock.Now()
	for e := range m.store.All() {
		if !e.IsExpired(now) && m.equal(e.Value, value) {
			return true
		}
	}
	return false
}

// All returns an iterator over a snapshot of the live entries, in expiration
// order. The map may be modified during iteration.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, e := range m.snapshot() {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

type pair[K KeyConstraint, V ValueConstraint] struct {
	Key   K
	Value V
}

func (m *Map[K, V]) snapshot() []pair[K, V] {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := m.clock.Now()
	pairs := make([]pair[K, V], 0, m.store.Len())
	for e := range m.store.All() {
		if !e.IsExpired(now) {
			pairs = append(pairs, pair[K, V]{Key: e.Key, Value: e.Value})
		}
	}
	return pairs
}

// ExpectedExpiration returns the instant key is due. It returns the zero time
// for an entry whose policy is expiration.None.
func (m *Map[K, V]) ExpectedExpiration(key K) (time.Time, error) {
	e, err := m.lookup(key)
	if err != nil {
		return time.Time{}, err
	}
	return e.ExpiresAt, nil
}

// ExpirationPolicy returns the policy of key.
func (m *Map[K, V]) ExpirationPolicy(key K) (expiration.Policy, error) {
	e, err := m.lookup(key)
	if err != nil {
		return expiration.Unspecified, err
	}
	return e.Policy, nil
}

// Expiration returns the expiration duration of key.
func (m *Map[K, V]) Expiration(key K) (time.Duration, error) {
	e, err := m.lookup(key)
	if err != nil {
		return 0, err
	}
	return e.Duration, nil
}

// lookup returns a copy of the live entry for key.
func (m *Map[K, V]) lookup(key K) (storage.Entry[K, V], error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e := m.store.Get(key)
	if e == nil || e.IsExpired(m.clock.Now()) {
		return storage.Entry[K, V]{}, fmt.Errorf("%w: %v", ErrNotFound, key)
	}
	return *e, nil
}

// SetEntryExpiration changes the duration of key and restarts its countdown.
// It reports whether key was present. It requires variable expiration.
func (m *Map[K, V]) SetEntryExpiration(key K, d time.Duration) (bool, error) {
	if !m.variable {
		return false, fmt.Errorf("%w: per-entry expiration", ErrUnsupportedOperation)
	}
	if d <= 0 {
		return false, fmt.Errorf("%w: expiration must be positive, got %v", ErrInvalidArgument, d)
	}

	return m.updateEntry(key, func(e *storage.Entry[K, V], now time.Time) {
		e.Duration = d
		e.Reset(now)
	}), nil
}

// SetEntryExpirationPolicy changes the policy of key. An entry that starts
// expiring again restarts its countdown. It reports whether key was present.
// It requires variable expiration.
func (m *Map[K, V]) SetEntryExpirationPolicy(key K, p expiration.Policy) (bool, error) {
	if !m.variable {
		return false, fmt.Errorf("%w: per-entry expiration policy", ErrUnsupportedOperation)
	}
	if !p.Valid() {
		return false, fmt.Errorf("%w: unknown expiration policy %v", ErrInvalidArgument, p)
	}

	return m.updateEntry(key, func(e *storage.Entry[K, V], now time.Time) {
		wasExpiring := e.Expires()
		e.Policy = p
		if !wasExpiring || !e.Expires() {
			e.Reset(now)
		}
	}), nil
}

// ResetExpiration restarts the countdown of key. It reports whether key was present.
func (m *Map[K, V]) ResetExpiration(key K) bool {
	return m.updateEntry(key, func(e *storage.Entry[K, V], now time.Time) {
		e.Reset(now)
	})
}

func (m *Map[K, V]) updateEntry(key K, fn func(e *storage.Entry[K, V], now time.Time)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	e := m.liveLocked(key, now)
	if e != nil {
		m.store.Update(e, func(e *storage.Entry[K, V]) {
			fn(e, now)
		})
	}
	m.settleLocked(now)
	return e != nil
}

// SetExpiration changes the default duration for entries written afterwards.
// It requires variable expiration.
func (m *Map[K, V]) SetExpiration(d time.Duration) error {
	if !m.variable {
		return fmt.Errorf("%w: changing the default expiration", ErrUnsupportedOperation)
	}
	if d <= 0 {
		return fmt.Errorf("%w: expiration must be positive, got %v", ErrInvalidArgument, d)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.duration = d
	return nil
}

// SetExpirationPolicy changes the default policy for entries written
// afterwards. It requires variable expiration.
func (m *Map[K, V]) SetExpirationPolicy(p expiration.Policy) error {
	if !m.variable {
		return fmt.Errorf("%w: changing the default expiration policy", ErrUnsupportedOperation)
	}
	if !p.Valid() {
		return fmt.Errorf("%w: unknown expiration policy %v", ErrInvalidArgument, p)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.policy = p
	return nil
}

// DefaultExpiration returns the duration given to new entries.
func (m *Map[K, V]) DefaultExpiration() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.duration
}

// DefaultExpirationPolicy returns the policy given to new entries.
func (m *Map[K, V]) DefaultExpirationPolicy() expiration.Policy {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.policy
}

// MaxSize returns the maximum number of entries.
func (m *Map[K, V]) MaxSize() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.maxSize
}

// SetMaxSize changes the maximum number of entries, evicting and notifying
// entries in expiration order until the map fits.
func (m *Map[K, V]) SetMaxSize(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: max size must be positive, got %d", ErrInvalidArgument, n)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	m.maxSize = n
	for m.store.Len() > n {
		m.evictLocked()
	}
	m.settleLocked(now)
	return nil
}

// Clear removes every entry without notifying listeners.
func (m *Map[K, V]) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.store.Clear()
	m.pending = nil
	m.disarmLocked()
}

// AddExpirationListener registers a synchronous listener, with the semantics
// of WithExpirationListener. It returns a function that unregisters it.
func (m *Map[K, V]) AddExpirationListener(l ExpirationListener[K, V]) (func(), error) {
	return m.addListener(&m.listeners, l)
}

// AddAsyncExpirationListener registers an asynchronous listener, with the
// semantics of WithAsyncExpirationListener. It returns a function that
// unregisters it.
func (m *Map[K, V]) AddAsyncExpirationListener(l ExpirationListener[K, V]) (func(), error) {
	return m.addListener(&m.asyncListeners, l)
}

func (m *Map[K, V]) addListener(set *[]registration[K, V], l ExpirationListener[K, V]) (func(), error) {
	if l == nil {
		return nil, fmt.Errorf("%w: nil ExpirationListener", ErrInvalidArgument)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	r := m.register(l)
	// copy on write: a notification in progress keeps iterating its own slice
	*set = append(slices.Clip(*set), r)

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			*set = slices.DeleteFunc(slices.Clone(*set), func(other registration[K, V]) bool {
				return other.id == r.id
			})
		})
	}, nil
}

func (m *Map[K, V]) register(l ExpirationListener[K, V]) registration[K, V] {
	m.listenerSeq++
	return registration[K, V]{id: m.listenerSeq, listener: l}
}

// putLocked writes value under key. A positive duration or a specified policy
// overrides the settings of an existing entry.
func (m *Map[K, V]) putLocked(key K, value V, policy expiration.Policy, d time.Duration, now time.Time) (V, bool) {
	e := m.liveLocked(key, now)
	if e == nil {
		var zero V
		m.insertLocked(key, value, policy.Or(m.policy), m.durationOr(d), now)
		return zero, false
	}

	prev := e.Value
	newPolicy := policy.Or(e.Policy)
	newDuration := e.Duration
	if d > 0 {
		newDuration = d
	}
	if newPolicy == e.Policy && newDuration == e.Duration && m.equal(prev, value) {
		return prev, true
	}

	m.store.Update(e, func(e *storage.Entry[K, V]) {
		e.Value = value
		e.Policy = newPolicy
		e.Duration = newDuration
		e.Reset(now)
	})
	return prev, true
}

// insertLocked adds a new entry, first evicting entries in expiration order
// until there is room for it.
func (m *Map[K, V]) insertLocked(key K, value V, policy expiration.Policy, d time.Duration, now time.Time) {
	for m.store.Len() >= m.maxSize {
		m.evictLocked()
	}

	e := &storage.Entry[K, V]{
		Key:      key,
		Value:    value,
		Policy:   policy,
		Duration: d,
	}
	e.Reset(now)
	m.store.Put(e)
}

func (m *Map[K, V]) durationOr(d time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return m.duration
}

func (m *Map[K, V]) evictLocked() {
	e := m.store.First()
	if e == nil {
		return
	}
	m.store.Remove(e.Key)
	m.pending = append(m.pending, e)
	m.logger.Debug("evicted entry to respect max size", zap.Any("key", e.Key), zap.Int("maxSize", m.maxSize))
}

// liveLocked returns the entry for key. An overdue entry is expired on the
// spot and reported absent.
func (m *Map[K, V]) liveLocked(key K, now time.Time) *storage.Entry[K, V] {
	e := m.store.Get(key)
	if e == nil {
		return nil
	}
	if e.IsExpired(now) {
		m.store.Remove(key)
		m.pending = append(m.pending, e)
		return nil
	}
	return e
}

// overdueLocked counts entries whose deadline has passed but which are still
// stored. Both stores keep such entries at the front.
func (m *Map[K, V]) overdueLocked(now time.Time) int {
	n := 0
	for e := range m.store.All() {
		if !e.IsExpired(now) {
			break
		}
		n++
	}
	return n
}

// fire is the callback of the armed timer.
func (m *Map[K, V]) fire(task *scheduler.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if task != m.armed {
		// cancelled or superseded after the timer started running
		return
	}
	m.armed, m.armedFor = nil, nil

	now := m.clock.Now()
	for e := m.store.First(); e != nil && e.IsExpired(now); e = m.store.First() {
		m.store.Remove(e.Key)
		m.pending = append(m.pending, e)
	}
	if n := len(m.pending); n > 0 {
		m.logger.Debug("expired entries", zap.Int("count", n))
	}
	m.settleLocked(now)
}

// settleLocked finishes a write: it re-arms the timer for the entry now first
// in line and notifies listeners of the entries the write removed.
func (m *Map[K, V]) settleLocked(now time.Time) {
	m.rearmLocked(now)

	expired := m.pending
	m.pending = nil
	m.notifyLocked(expired)
}

func (m *Map[K, V]) rearmLocked(now time.Time) {
	target := m.store.First()
	if target == nil || !target.Expires() {
		m.disarmLocked()
		return
	}
	if m.armed != nil && m.armedFor == target && m.armedAt.Equal(target.ExpiresAt) {
		return
	}

	m.disarmLocked()
	m.armed = m.services.scheduler.Schedule(target.ExpiresAt.Sub(now), m.fire)
	m.armedFor = target
	m.armedAt = target.ExpiresAt
}

func (m *Map[K, V]) disarmLocked() {
	if m.armed == nil {
		return
	}
	m.armed.Cancel()
	m.armed, m.armedFor, m.armedAt = nil, nil, time.Time{}
}

func (m *Map[K, V]) notifyLocked(expired []*storage.Entry[K, V]) {
	if len(expired) == 0 {
		return
	}

	if asyncListeners := m.asyncListeners; len(asyncListeners) > 0 {
		for _, e := range expired {
			key, value := e.Key, e.Value
			for _, r := range asyncListeners {
				l := r.listener
				if !m.services.listeners.Submit(func() { l.Expired(key, value) }) {
					m.logger.Warn("services are shut down, dropping expiration notification", zap.Any("key", key))
				}
			}
		}
	}

	listeners := m.listeners
	for _, e := range expired {
		for _, r := range listeners {
			r.listener.Expired(e.Key, e.Value)
		}
	}
}
