package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"propalyst/internal/model"
)

// FileStore persists entries as one JSON array on disk. Older deployments
// wrote a keyed object instead ({url: [records]} or {url: envelope}); those
// files are migrated to the array format on first read.
type FileStore struct {
	mu   sync.Mutex
	path string
	log  *zap.Logger
}

func NewFileStore(path string, log *zap.Logger) *FileStore {
	return &FileStore{path: path, log: log}
}

func (s *FileStore) Save(_ context.Context, url string, records []model.PropertyRecord, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}

	entry := model.StoredEntry{
		Type:      source,
		SourceURL: url,
		ScrapedAt: time.Now().UTC(),
		Data:      records,
	}

	replaced := false
	for i := range entries {
		if entries[i].SourceURL == url {
			entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}

	return s.write(entries)
}

func (s *FileStore) Load(_ context.Context, url string) (*model.StoredEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].SourceURL == url {
			return &entries[i], nil
		}
	}
	return nil, nil
}

func (s *FileStore) All(_ context.Context) ([]model.StoredEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

func (s *FileStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].SourceURL == url {
			entries = append(entries[:i], entries[i+1:]...)
			return s.write(entries)
		}
	}
	return ErrNotFound
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write([]model.StoredEntry{})
}

// load reads the file, migrating the legacy keyed-object format in place.
// A missing file is an empty store.
func (s *FileStore) load() ([]model.StoredEntry, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []model.StoredEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", s.path, err)
	}

	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return []model.StoredEntry{}, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var entries []model.StoredEntry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, fmt.Errorf("store: corrupt data file %s: %w", s.path, err)
		}
		return entries, nil
	}

	entries, err := s.migrateLegacy(raw)
	if err != nil {
		return nil, err
	}
	s.log.Info("migrated legacy data file",
		zap.String("path", s.path),
		zap.Int("entries", len(entries)))
	if err := s.write(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// migrateLegacy converts the keyed-object format. Each value is either a
// bare record array or an old envelope carrying a data field.
func (s *FileStore) migrateLegacy(raw []byte) ([]model.StoredEntry, error) {
	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keyed); err != nil {
		return nil, fmt.Errorf("store: corrupt legacy data file %s: %w", s.path, err)
	}

	entries := make([]model.StoredEntry, 0, len(keyed))
	for url, value := range keyed {
		entry := model.StoredEntry{
			SourceURL: url,
			Type:      model.DetectSource(url),
			ScrapedAt: time.Now().UTC(),
		}

		var records []model.PropertyRecord
		if err := json.Unmarshal(value, &records); err == nil {
			entry.Data = records
		} else {
			var envelope model.StoredEntry
			if err := json.Unmarshal(value, &envelope); err != nil {
				return nil, fmt.Errorf("store: unrecognized legacy entry for %s: %w", url, err)
			}
			entry.Data = envelope.Data
			if envelope.Type != "" {
				entry.Type = envelope.Type
			}
			if !envelope.ScrapedAt.IsZero() {
				entry.ScrapedAt = envelope.ScrapedAt
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *FileStore) write(entries []model.StoredEntry) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("store: create data dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshal entries: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", s.path, err)
	}
	return nil
}
