package model

// ChatRequest is one turn of the Propalyst conversation. The first request
// for a session carries no user input; subsequent requests carry the user's
// answer and the field it answers.
type ChatRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	UserInput string `json:"user_input,omitempty"`
	Field     string `json:"field,omitempty"`
}

// ChatResponse is the agent's side of a turn: the next question (plus an
// optional acknowledgment of the previous answer) and the UI component to
// render for it, if any.
type ChatResponse struct {
	Component      *UIComponent `json:"component,omitempty"`
	Acknowledgment string       `json:"acknowledgment,omitempty"`
	Message        string       `json:"message"`
	SessionID      string       `json:"session_id"`
	CurrentStep    int          `json:"current_step"`
	Completed      bool         `json:"completed"`
}

// SessionRequest addresses an existing session (summary, areas).
type SessionRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// SummaryResponse carries the LLM-generated conversation summary.
type SummaryResponse struct {
	Summary   string `json:"summary"`
	SessionID string `json:"session_id"`
}

// AreasResponse carries the recommended areas for a completed session.
type AreasResponse struct {
	Areas     []Area `json:"areas"`
	SessionID string `json:"session_id"`
}

// ScoreRequest asks for listings at URL to be scraped (or served from cache)
// and relevance-scored against Query.
type ScoreRequest struct {
	URL       string `json:"url" binding:"required"`
	Query     string `json:"query" binding:"required"`
	BatchSize int    `json:"batch_size,omitempty"`
	UseCache  *bool  `json:"use_cache,omitempty"`
}

// ScoreResponse is the full scored result set. Properties always has the
// same length as the scraped input, even under partial scoring failure.
type ScoreResponse struct {
	Success      bool             `json:"success"`
	Properties   []PropertyRecord `json:"properties"`
	Count        int              `json:"count"`
	Source       string           `json:"source"`
	FromCache    bool             `json:"from_cache"`
	APICallsMade int              `json:"api_calls_made"`
	Error        string           `json:"error,omitempty"`
}

// ListingDetailsResponse is the raw (unscored) scrape result for a URL.
type ListingDetailsResponse struct {
	Success    bool             `json:"success"`
	Properties []PropertyRecord `json:"properties"`
	Count      int              `json:"count"`
	Source     string           `json:"source"`
	ScrapedAt  string           `json:"scraped_at"`
	Error      string           `json:"error,omitempty"`
}

// CreateShortlistRequest saves a set of properties under a description.
type CreateShortlistRequest struct {
	Description string           `json:"description" binding:"required"`
	Source      string           `json:"source" binding:"required"`
	Properties  []PropertyRecord `json:"properties" binding:"required"`
}

// ShortlistItem is one saved shortlist.
type ShortlistItem struct {
	ID          string           `json:"id"`
	Description string           `json:"description"`
	Source      string           `json:"source"`
	CreatedAt   string           `json:"created_at"`
	Properties  []PropertyRecord `json:"properties"`
}

// ShortlistResponse wraps shortlist operation results.
type ShortlistResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// GenerateUIRequest is the one-shot UI extraction input.
type GenerateUIRequest struct {
	UserInput string `json:"user_input" binding:"required"`
}

// GenerateUIResponse carries the extracted component configuration.
type GenerateUIResponse struct {
	Component *UIComponent `json:"component"`
	Message   string       `json:"message"`
	Success   bool         `json:"success"`
}
