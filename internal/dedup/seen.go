package dedup

import "sync"

// SeenSet tracks identity keys already known to one scrape session: keys
// loaded from the store plus keys discovered during the run. It is owned by
// the session and discarded with it.
type SeenSet struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func NewSeenSet(keys ...string) *SeenSet {
	s := &SeenSet{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		if k != "" {
			s.keys[k] = struct{}{}
		}
	}
	return s
}

// Add records key and reports whether it was new. Empty keys are never new.
func (s *SeenSet) Add(key string) bool {
	if key == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return false
	}
	s.keys[key] = struct{}{}
	return true
}

func (s *SeenSet) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	return ok
}

func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}
