// Package feedback persists client-submitted feedback as a single JSON array
// in a flat file. Appends are read-modify-write of the whole file, serialized
// with a mutex and committed via temp-file rename so concurrent appenders
// cannot lose records or leave a torn file behind.
package feedback

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/encryptoo/encryptoo/internal/models"
	"github.com/google/uuid"
)

type Store struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("feedback dir: %w", err)
	}
	return &Store{path: path, now: time.Now}, nil
}

// Append assigns an id and server timestamp to the record, stamps submittedBy
// when non-empty, and rewrites the file with the record added. A missing or
// corrupt file is treated as an empty log.
func (s *Store) Append(fields map[string]any, submittedBy string) (models.FeedbackRecord, error) {
	rec := models.FeedbackRecord{
		ID:          uuid.NewString(),
		Timestamp:   s.now().Format("2006-01-02 15:04:05"),
		SubmittedBy: submittedBy,
		Fields:      fields,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.readLocked()
	list = append(list, rec)

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return models.FeedbackRecord{}, fmt.Errorf("feedback marshal: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return models.FeedbackRecord{}, fmt.Errorf("feedback write: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return models.FeedbackRecord{}, fmt.Errorf("feedback rename: %w", err)
	}
	return rec, nil
}

// Read returns all records. Missing or corrupt files read as empty; corruption
// is recovered locally, not surfaced.
func (s *Store) Read() []models.FeedbackRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readLocked()
}

func (s *Store) readLocked() []models.FeedbackRecord {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var list []models.FeedbackRecord
	if err := json.Unmarshal(data, &list); err != nil {
		return nil
	}
	return list
}
