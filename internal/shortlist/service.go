package shortlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"propalyst/internal/model"
)

// ErrNotFound is returned for an unknown shortlist ID.
var ErrNotFound = errors.New("shortlist: not found")

// Service manages saved property shortlists in a JSON file.
type Service struct {
	mu   sync.Mutex
	path string
	log  *zap.Logger
}

func NewService(path string, log *zap.Logger) *Service {
	return &Service{path: path, log: log}
}

// Create saves a new shortlist and returns it with its generated ID.
func (s *Service) Create(_ context.Context, description, source string, properties []model.PropertyRecord) (*model.ShortlistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return nil, err
	}

	item := model.ShortlistItem{
		ID:          uuid.NewString(),
		Description: description,
		Source:      source,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Properties:  properties,
	}
	items = append(items, item)

	if err := s.write(items); err != nil {
		return nil, err
	}

	s.log.Info("shortlist created",
		zap.String("id", item.ID),
		zap.Int("properties", len(properties)))
	return &item, nil
}

// All returns every saved shortlist.
func (s *Service) All(_ context.Context) ([]model.ShortlistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

// Get returns one shortlist by ID.
func (s *Service) Get(_ context.Context, id string) (*model.ShortlistItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, ErrNotFound
}

// Delete removes one shortlist by ID.
func (s *Service) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.load()
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].ID == id {
			items = append(items[:i], items[i+1:]...)
			return s.write(items)
		}
	}
	return ErrNotFound
}

func (s *Service) load() ([]model.ShortlistItem, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return []model.ShortlistItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("shortlist: read %s: %w", s.path, err)
	}

	var items []model.ShortlistItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("shortlist: corrupt data file %s: %w", s.path, err)
	}
	return items, nil
}

func (s *Service) write(items []model.ShortlistItem) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("shortlist: create data dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("shortlist: marshal: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("shortlist: write %s: %w", s.path, err)
	}
	return nil
}
