// Package dedup keeps the identity of persisted job records across runs and
// merges new scrapes into the flat JSON store.
//
// The store assumes a single writer. Two scraper processes pointed at the same
// file will race and the last rewrite wins.
package dedup

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go-careers-scraper/internal/models"
)

// ErrMalformedStore is returned by Load when the backing file exists but is
// not a JSON array of records.
var ErrMalformedStore = errors.New("dedup: malformed store file")

// PersistenceError wraps a failed write of the store file.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("dedup: persist %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

type Store struct {
	mu       sync.Mutex
	filePath string
	now      func() time.Time
}

// NewStore creates a store backed by the JSON file at path. The file is not
// touched until Load or Persist is called.
func NewStore(path string) *Store {
	return &Store{
		filePath: path,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.filePath
}

// Load reads the persisted array. A missing file yields an empty slice.
func (s *Store) Load() ([]models.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() ([]models.JobRecord, error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.JobRecord{}, nil
		}
		return nil, fmt.Errorf("dedup: read %s: %w", s.filePath, err)
	}

	var records []models.JobRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedStore, s.filePath, err)
	}
	if records == nil {
		records = []models.JobRecord{}
	}
	return records, nil
}

// Merge merges incoming into existing using the store clock.
func (s *Store) Merge(existing, incoming []models.JobRecord) []models.JobRecord {
	return Merge(existing, incoming, s.now())
}

// Persist rewrites the backing file with the full array. The write goes to a
// temp file in the same directory and is renamed over the old one.
func (s *Store) Persist(records []models.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(records)
}

func (s *Store) persist(records []models.JobRecord) error {
	if records == nil {
		records = []models.JobRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &PersistenceError{Path: s.filePath, Err: err}
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &PersistenceError{Path: s.filePath, Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.filePath)+".*.tmp")
	if err != nil {
		return &PersistenceError{Path: s.filePath, Err: err}
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &PersistenceError{Path: s.filePath, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &PersistenceError{Path: s.filePath, Err: err}
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		log.Printf("⚠️ Failed to chmod %s: %v", tmpName, err)
	}
	if err := os.Rename(tmpName, s.filePath); err != nil {
		os.Remove(tmpName)
		return &PersistenceError{Path: s.filePath, Err: err}
	}
	return nil
}

// Upsert loads the current file, merges incoming into it and persists the
// result. It is used for the incremental saves during pagination.
func (s *Store) Upsert(incoming []models.JobRecord) ([]models.JobRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.load()
	if err != nil {
		return nil, err
	}
	merged := Merge(existing, incoming, s.now())
	if err := s.persist(merged); err != nil {
		return nil, err
	}
	if added := len(merged) - len(existing); added > 0 {
		log.Printf("💾 Saved %d jobs to %s (%d new)", len(merged), s.filePath, added)
	}
	return merged, nil
}

// Keys returns the identity keys of records, skipping records without one.
func Keys(records []models.JobRecord) []string {
	keys := make([]string, 0, len(records))
	for _, r := range records {
		if k := r.Key(); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
