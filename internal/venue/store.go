package venue

import "sync"

// Store is an in-memory mapping from venue id to venue state.
//
// The store is loaded once at startup and the venue set never changes during
// a run. The lock protects only the map itself; the orchestrator guarantees
// that a single venue's fields are never touched by more than one logical
// step at a time.
type Store struct {
	mu     sync.RWMutex
	venues map[string]*Venue
}

// NewStore creates an empty venue store.
func NewStore() *Store {
	return &Store{venues: make(map[string]*Venue)}
}

// Add inserts a venue, replacing any previous entry with the same id.
func (s *Store) Add(v *Venue) {
	s.mu.Lock()
	s.venues[v.ID] = v
	s.mu.Unlock()
}

// Get returns the venue with the given id, if present.
func (s *Store) Get(id string) (*Venue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.venues[id]
	return v, ok
}

// IDs returns a snapshot of all venue ids. Order is not guaranteed.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.venues))
	for id := range s.venues {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of venues in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.venues)
}
