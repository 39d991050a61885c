// Package memory implements the session-scoped, TTL-bounded working memory
// used by the reasoning pipeline. Entries are invisible once expired and a
// background sweep reclaims them.
package memory

import (
	"fmt"
	"sync"
	"time"
)

// Default TTLs per entry kind.
const (
	SessionContextTTL = 30 * time.Minute
	PlanTTL           = 15 * time.Minute
	StepResultTTL     = 15 * time.Minute
	KnowledgeTTL      = 15 * time.Minute
	FinalResultTTL    = 60 * time.Minute

	defaultSweepInterval = time.Minute
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Store is an in-process working memory keyed by (sessionID, key).
// Writers hold the lock while mutating; reads may observe a TTL-stale value
// until the next sweep but never an expired one.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry

	stopOnce sync.Once
	stop     chan struct{}
}

// NewStore creates a working memory store and starts its background sweep.
// sweepInterval <= 0 uses the default of one minute.
func NewStore(sweepInterval time.Duration) *Store {
	if sweepInterval <= 0 {
		sweepInterval = defaultSweepInterval
	}
	s := &Store{
		entries: make(map[string]entry),
		stop:    make(chan struct{}),
	}
	go s.sweepLoop(sweepInterval)
	return s
}

// Close stops the background sweep.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Store) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep removes all expired entries.
func (s *Store) Sweep() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}

func compositeKey(sessionID, key string) string {
	return sessionID + ":" + key
}

// Set stores a value under (sessionID, key) with the given TTL.
// Last write wins within a (sessionID, key) pair.
func (s *Store) Set(sessionID, key string, value any, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[compositeKey(sessionID, key)] = entry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
}

// Get returns the value stored under (sessionID, key). Expired entries are
// invisible even before the sweep removes them.
func (s *Store) Get(sessionID, key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.entries[compositeKey(sessionID, key)]
	s.mu.RUnlock()
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Delete removes the entry under (sessionID, key).
func (s *Store) Delete(sessionID, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, compositeKey(sessionID, key))
}

// Len returns the number of live (unexpired) entries.
func (s *Store) Len() int {
	now := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, e := range s.entries {
		if !now.After(e.expiresAt) {
			n++
		}
	}
	return n
}

// StoreSessionContext stores the session context bundle.
func (s *Store) StoreSessionContext(sessionID string, value any) {
	s.Set(sessionID, "sessionContext", value, SessionContextTTL)
}

// GetSessionContext returns the session context bundle, if present.
func (s *Store) GetSessionContext(sessionID string) (any, bool) {
	return s.Get(sessionID, "sessionContext")
}

// StoreQueryPlan stores the plan produced for a query.
func (s *Store) StoreQueryPlan(sessionID, queryID string, plan any) {
	s.Set(sessionID, "plan:"+queryID, plan, PlanTTL)
}

// GetQueryPlan returns the plan stored for a query.
func (s *Store) GetQueryPlan(sessionID, queryID string) (any, bool) {
	return s.Get(sessionID, "plan:"+queryID)
}

// StoreStepResult stores one step result for a query.
func (s *Store) StoreStepResult(sessionID, queryID, stepID string, value any) {
	s.Set(sessionID, fmt.Sprintf("stepResult:%s:%s", queryID, stepID), value, StepResultTTL)
}

// GetStepResult returns one step result for a query.
func (s *Store) GetStepResult(sessionID, queryID, stepID string) (any, bool) {
	return s.Get(sessionID, fmt.Sprintf("stepResult:%s:%s", queryID, stepID))
}

// StoreRetrievedKnowledge stores the knowledge items retrieved for a query,
// with the retrieval strategy recorded alongside. A ttl <= 0 uses the default.
func (s *Store) StoreRetrievedKnowledge(sessionID, queryID string, items any, strategy string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = KnowledgeTTL
	}
	s.Set(sessionID, "retrievedKnowledge:"+queryID, retrievedKnowledge{Items: items, Strategy: strategy}, ttl)
}

// GetRetrievedKnowledge returns the knowledge items retrieved for a query.
func (s *Store) GetRetrievedKnowledge(sessionID, queryID string) (any, bool) {
	v, ok := s.Get(sessionID, "retrievedKnowledge:"+queryID)
	if !ok {
		return nil, false
	}
	rk, ok := v.(retrievedKnowledge)
	if !ok {
		return nil, false
	}
	return rk.Items, true
}

// StoreFinalResult stores the final answer for a query.
func (s *Store) StoreFinalResult(sessionID, queryID string, value any) {
	s.Set(sessionID, "finalResult:"+queryID, value, FinalResultTTL)
}

// GetFinalResult returns the final answer for a query.
func (s *Store) GetFinalResult(sessionID, queryID string) (any, bool) {
	return s.Get(sessionID, "finalResult:"+queryID)
}

// StoreEntityMentions stores the entities mentioned so far in the session.
func (s *Store) StoreEntityMentions(sessionID string, entities any) {
	s.Set(sessionID, "entityMentions", entities, SessionContextTTL)
}

// GetEntityMentions returns the entities mentioned so far in the session.
func (s *Store) GetEntityMentions(sessionID string) (any, bool) {
	return s.Get(sessionID, "entityMentions")
}

type retrievedKnowledge struct {
	Items    any
	Strategy string
}
