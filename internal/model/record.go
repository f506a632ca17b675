package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Known listing sources
const (
	SourceSquareYards = "squareyards"
	SourceMagicBricks = "magicbricks"
	SourceUnknown     = "unknown"
)

// Scoring fields attached to a PropertyRecord by the relevance scorer
const (
	FieldRelevanceScore  = "relevance_score"
	FieldRelevanceReason = "relevance_reason"
	FieldMatches         = "matches"
	FieldMismatches      = "mismatches"
)

// PropertyRecord is one scraped listing. The shape is site-specific, so it
// stays an open mapping rather than a fixed struct; the scorer adds
// relevance_score/relevance_reason (and optionally matches/mismatches).
type PropertyRecord map[string]any

// String returns the record's value for key as a string, or "" when absent.
func (r PropertyRecord) String(key string) string {
	if v, ok := r[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
	return ""
}

// StoredEntry is the persisted envelope for one scraped URL.
type StoredEntry struct {
	Type      string           `json:"type" db:"source"`
	SourceURL string           `json:"source_url" db:"source_url"`
	ScrapedAt time.Time        `json:"scraped_at" db:"scraped_at"`
	Data      []PropertyRecord `json:"data" db:"data"`
}

// DetectSource infers the listing source from a URL.
func DetectSource(url string) string {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, SourceSquareYards):
		return SourceSquareYards
	case strings.Contains(lower, SourceMagicBricks):
		return SourceMagicBricks
	default:
		return SourceUnknown
	}
}

// JSONRecords stores a record list as a single JSONB column.
type JSONRecords []PropertyRecord

// Value implements driver.Valuer
func (j JSONRecords) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner
func (j *JSONRecords) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return json.Unmarshal([]byte(value.(string)), j)
	}
	return json.Unmarshal(bytes, j)
}
