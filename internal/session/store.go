package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/agro-climate-viz/internal/domain"
	"github.com/couchcryptid/agro-climate-viz/internal/observability"
)

// Store keeps sessions in memory, keyed by a random ID. It holds at most
// maxEntries sessions, evicting the least recently used, and drops sessions
// idle for longer than the idle timeout.
type Store struct {
	records    *domain.RecordStore
	maxEntries int
	idle       time.Duration
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics

	mu      sync.Mutex
	entries map[string]*entry
	head    *entry // most recently used
	tail    *entry // least recently used
}

type entry struct {
	key      string
	value    *Session
	lastSeen time.Time
	prev     *entry
	next     *entry
}

// NewStore creates a session store over the loaded records.
func NewStore(records *domain.RecordStore, maxEntries int, idle time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Store {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Store{
		records:    records,
		maxEntries: maxEntries,
		idle:       idle,
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
		entries:    make(map[string]*entry),
	}
}

// Get returns a live session and marks it used.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.clock.Now()
	st.expire(now)

	e, ok := st.entries[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = now
	st.moveToFront(e)
	return e.value, true
}

// GetOrCreate returns the session for id, creating a fresh one under a new
// ID when id is unknown or expired.
func (st *Store) GetOrCreate(id string) (s *Session, created bool) {
	if s, ok := st.Get(id); ok {
		return s, false
	}
	return st.Create(), true
}

// Create starts a new session.
func (st *Store) Create() *Session {
	s := New(uuid.NewString(), st.records, st.logger, st.metrics)

	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.clock.Now()
	st.expire(now)

	e := &entry{key: s.ID, value: s, lastSeen: now}
	st.entries[s.ID] = e
	st.addToFront(e)

	if len(st.entries) > st.maxEntries {
		st.evictTail("capacity")
	}
	st.metrics.ActiveSessions.Set(float64(len(st.entries)))
	return s
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.expire(st.clock.Now())
	return len(st.entries)
}

// expire drops idle sessions. The list is ordered by last use, so it stops at
// the first live entry from the tail.
func (st *Store) expire(now time.Time) {
	if st.idle <= 0 {
		return
	}
	dropped := false
	for st.tail != nil && now.Sub(st.tail.lastSeen) > st.idle {
		st.evictTail("idle")
		dropped = true
	}
	if dropped {
		st.metrics.ActiveSessions.Set(float64(len(st.entries)))
	}
}

func (st *Store) moveToFront(e *entry) {
	if e == st.head {
		return
	}
	st.remove(e)
	st.addToFront(e)
}

func (st *Store) addToFront(e *entry) {
	e.next = st.head
	e.prev = nil
	if st.head != nil {
		st.head.prev = e
	}
	st.head = e
	if st.tail == nil {
		st.tail = e
	}
}

func (st *Store) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		st.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		st.tail = e.prev
	}
}

func (st *Store) evictTail(reason string) {
	if st.tail == nil {
		return
	}
	st.logger.Debug("session evicted", "session", st.tail.key, "reason", reason)
	st.metrics.SessionEvictions.WithLabelValues(reason).Inc()
	delete(st.entries, st.tail.key)
	st.remove(st.tail)
}
