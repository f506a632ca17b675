package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"propalyst/internal/config"
	"propalyst/internal/llm"
	"propalyst/internal/model"
	"propalyst/internal/utils"
)

// Completer is the LLM surface the scorer needs.
type Completer interface {
	CompleteJSON(ctx context.Context, system, user string) (string, error)
	Enabled() bool
}

const scoringSystemPrompt = "You are a real estate relevance judge. Always respond with a valid JSON array."

const scoringPromptHeader = `Evaluate how well each property listing matches the user's search query.

User query: "%s"

%s

Scoring rules:
- relevance_score is an integer from 1 (no match) to 10 (perfect match).
- Judge ONLY the criteria the user actually stated. Do not penalize a property for fields the query never mentions.
- matches lists the stated criteria the property satisfies; mismatches lists the stated criteria it violates. Both are arrays of short phrases.
- A field with an empty or "Not specified" value is unknown, not a mismatch.

Respond with a JSON array, one object per property:
[
  {"property_id": 0, "relevance_score": 8, "matches": ["..."], "mismatches": ["..."]}
]`

// Scorer assigns relevance scores to scraped listings against a user query,
// one LLM call per batch.
type Scorer struct {
	llm   Completer
	cfg   config.ScoringConfig
	log   *zap.Logger
	sleep func(time.Duration)
}

func NewScorer(completer Completer, cfg config.ScoringConfig, log *zap.Logger) *Scorer {
	return &Scorer{
		llm:   completer,
		cfg:   cfg,
		log:   log,
		sleep: time.Sleep,
	}
}

// batchItem is one entry of the model's reply array.
type batchItem struct {
	PropertyID      *int     `json:"property_id"`
	RelevanceScore  any      `json:"relevance_score"`
	RelevanceReason string   `json:"relevance_reason"`
	Matches         []string `json:"matches"`
	Mismatches      []string `json:"mismatches"`
}

// ScoreAll scores every record in place and returns the number of API calls
// made. The result always has the same length as the input; records a batch
// could not score carry the neutral score 5 with an explanatory reason.
func (s *Scorer) ScoreAll(ctx context.Context, records []model.PropertyRecord, query, source string, batchSize int) int {
	return s.scoreAll(ctx, records, query, source, batchSize, nil)
}

// ScoreAllStream is ScoreAll with a callback invoked for each record as its
// batch finishes, for SSE streaming.
func (s *Scorer) ScoreAllStream(ctx context.Context, records []model.PropertyRecord, query, source string, batchSize int, emit func(index int, record model.PropertyRecord)) int {
	return s.scoreAll(ctx, records, query, source, batchSize, emit)
}

func (s *Scorer) scoreAll(ctx context.Context, records []model.PropertyRecord, query, source string, batchSize int, emit func(int, model.PropertyRecord)) int {
	if batchSize <= 0 {
		batchSize = s.cfg.BatchSize
	}
	if batchSize <= 0 {
		batchSize = 10
	}

	apiCalls := 0
	totalBatches := (len(records) + batchSize - 1) / batchSize

	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		s.log.Info("scoring batch",
			zap.Int("batch", start/batchSize+1),
			zap.Int("total_batches", totalBatches),
			zap.Int("size", len(batch)))

		apiCalls += s.scoreBatch(ctx, batch, query, source)

		if emit != nil {
			for i := range batch {
				emit(start+i, batch[i])
			}
		}
	}
	return apiCalls
}

// scoreBatch scores one batch in place and returns the API calls consumed.
// Every record gets a score no matter what happens.
func (s *Scorer) scoreBatch(ctx context.Context, batch []model.PropertyRecord, query, source string) int {
	// Neutral defaults first so partial replies still leave a full result.
	for _, rec := range batch {
		rec[model.FieldRelevanceScore] = 5
		rec[model.FieldRelevanceReason] = "Not scored"
	}

	if s.llm == nil || !s.llm.Enabled() {
		for _, rec := range batch {
			rec[model.FieldRelevanceReason] = "Scoring unavailable: no API key configured"
		}
		return 0
	}

	prompt := s.buildPrompt(batch, query, source)

	apiCalls := 0
	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.cfg.BaseDelay * time.Duration(1<<attempt)
			s.log.Warn("rate limited, retrying",
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay))
			s.sleep(delay)
		}

		apiCalls++
		content, err := s.llm.CompleteJSON(ctx, scoringSystemPrompt, prompt)
		if err != nil {
			if llm.IsRateLimit(err) {
				if attempt < s.cfg.MaxRetries-1 {
					continue
				}
				for _, rec := range batch {
					rec[model.FieldRelevanceReason] = "API rate limit exceeded. Please try again in a moment."
				}
				return apiCalls
			}
			s.log.Error("batch scoring failed", zap.Error(err))
			for _, rec := range batch {
				rec[model.FieldRelevanceReason] = "Scoring error"
			}
			return apiCalls
		}

		var items []batchItem
		if err := utils.ParseAIJSON(content, &items); err != nil {
			s.log.Error("unparseable scoring reply", zap.Error(err))
			for _, rec := range batch {
				rec[model.FieldRelevanceReason] = "Batch scoring failed: JSON error"
			}
			return apiCalls
		}

		s.applyItems(batch, items)
		return apiCalls
	}
	return apiCalls
}

// applyItems maps reply items onto the batch by property_id, ignoring ids
// outside the batch.
func (s *Scorer) applyItems(batch []model.PropertyRecord, items []batchItem) {
	for _, item := range items {
		if item.PropertyID == nil {
			continue
		}
		id := *item.PropertyID
		if id < 0 || id >= len(batch) {
			s.log.Warn("scoring reply references unknown property", zap.Int("property_id", id))
			continue
		}
		rec := batch[id]
		rec[model.FieldRelevanceScore] = validScore(item.RelevanceScore)

		switch {
		case item.RelevanceReason != "":
			rec[model.FieldRelevanceReason] = item.RelevanceReason
		case item.Matches != nil || item.Mismatches != nil:
			var parts []string
			if len(item.Matches) > 0 {
				parts = append(parts, "Matches: "+strings.Join(item.Matches, "; "))
			}
			if len(item.Mismatches) > 0 {
				parts = append(parts, "Mismatches: "+strings.Join(item.Mismatches, "; "))
			}
			rec[model.FieldRelevanceReason] = strings.Join(parts, ". ")
			rec[model.FieldMatches] = item.Matches
			rec[model.FieldMismatches] = item.Mismatches
		default:
			rec[model.FieldRelevanceReason] = ""
		}
	}
}

// validScore accepts only whole numbers in [1,10]; anything else becomes the
// neutral 5.
func validScore(v any) int {
	f, ok := v.(float64)
	if !ok {
		if n, ok := v.(int); ok {
			f = float64(n)
		} else {
			return 5
		}
	}
	if f != math.Trunc(f) || f < 1 || f > 10 {
		return 5
	}
	return int(f)
}

// buildPrompt renders the batch into the scoring prompt. Field availability
// differs per site, so the summaries are source-specific.
func (s *Scorer) buildPrompt(batch []model.PropertyRecord, query, source string) string {
	summaries := make([]map[string]any, len(batch))
	for i, rec := range batch {
		if source == model.SourceMagicBricks {
			summaries[i] = magicBricksSummary(i, rec)
		} else {
			summaries[i] = squareYardsSummary(i, rec)
		}
	}

	rendered, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		rendered = []byte("[]")
	}

	block := fmt.Sprintf("Array of properties to evaluate:\n%s", rendered)
	if source == model.SourceMagicBricks {
		block += "\n\nNOTE: These listings have limited field availability (no bedrooms, no location, no property_type). Evaluate based on available fields."
	}
	return fmt.Sprintf(scoringPromptHeader, query, block)
}

func squareYardsSummary(id int, rec model.PropertyRecord) map[string]any {
	price := rec.String("price_crore")
	if price == "" {
		price = rec.String("price")
	}
	return map[string]any{
		"property_id":   id,
		"title":         rec.String("title"),
		"location":      rec.String("location"),
		"price":         price,
		"bedrooms":      rec.String("bedrooms"),
		"area":          rec.String("area"),
		"facing":        rec.String("facing"),
		"parking":       rec.String("parking"),
		"furnishing":    rec.String("furnishing"),
		"property_type": rec.String("property_type"),
		"description":   truncate(rec.String("description"), 500),
	}
}

func magicBricksSummary(id int, rec model.PropertyRecord) map[string]any {
	return map[string]any{
		"property_id":   id,
		"title":         rec.String("title"),
		"location":      "N/A",
		"price":         rec.String("price"),
		"bedrooms":      "Not specified",
		"area":          rec.String("super_area"),
		"facing":        rec.String("facing"),
		"parking":       rec.String("parking"),
		"furnishing":    rec.String("furnishing"),
		"property_type": "Not specified",
		"bathroom":      rec.String("bathroom"),
		"floor":         rec.String("floor"),
		"balcony":       rec.String("balcony"),
		"description":   truncate(rec.String("description"), 500),
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
