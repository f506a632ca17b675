package model

// Message roles in the conversation transcript
const (
	RoleAgent = "agent"
	RoleUser  = "user"
)

// Property type values returned by the property_type validator
const (
	PropertyTypeVilla     = "Villa"
	PropertyTypeApartment = "Apartment"
	PropertyTypeRowHouse  = "Row House"
)

// Message is a single entry in a session's conversation transcript.
// The transcript is append-only; entries are never mutated in place.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UIComponent describes a frontend component to render for the current
// question (button group, slider). Props are component-specific.
type UIComponent struct {
	Type  string         `json:"type"`
	Props map[string]any `json:"props"`
}

// StructuredMessage carries an optional acknowledgment of the previous
// answer plus the text to show for the current turn. The HTTP layer decides
// how the two parts are rendered; nothing downstream splits on delimiters.
type StructuredMessage struct {
	Ack      string `json:"acknowledgment,omitempty"`
	Question string `json:"message"`
}

// Area is one entry in the recommendation catalog returned after the
// five questions are answered.
type Area struct {
	AreaName           string   `json:"areaName"`
	Image              string   `json:"image"`
	ChildFriendlyScore int      `json:"childFriendlyScore"`
	SchoolsNearby      int      `json:"schoolsNearby"`
	AverageCommute     string   `json:"averageCommute"`
	BudgetRange        string   `json:"budgetRange"`
	Highlights         []string `json:"highlights"`
}

// ConversationState holds everything known about one intake session.
//
// The five slot fields are pointers so "not yet answered" is distinguishable
// from a legitimate zero value; HasKids in particular may validly be false.
// Slots are filled in strict order: WorkLocation, HasKids, CommuteTimeMax,
// PropertyType, BudgetMax. A later slot is never requested while an earlier
// one is empty.
type ConversationState struct {
	SessionID string `json:"session_id"`

	WorkLocation   *string `json:"work_location"`
	HasKids        *bool   `json:"has_kids"`
	CommuteTimeMax *int    `json:"commute_time_max"`
	PropertyType   *string `json:"property_type"`
	BudgetMax      *int    `json:"budget_max"`

	// Populated exactly once after the fifth slot is filled.
	// Calculated is true iff RecommendedAreas is non-nil.
	RecommendedAreas []Area `json:"recommended_areas,omitempty"`
	Calculated       bool   `json:"calculated"`

	Messages    []Message `json:"messages"`
	CurrentStep int       `json:"current_step"`

	// Output of the last turn; transient, not part of the durable answers.
	Component *UIComponent `json:"component,omitempty"`
	Error     *string      `json:"error,omitempty"`
}

// NewConversationState returns a fresh state for a new session.
func NewConversationState(sessionID string) *ConversationState {
	return &ConversationState{
		SessionID:   sessionID,
		Messages:    []Message{},
		CurrentStep: 1,
	}
}

// Completed reports whether all five questions have been answered.
func (s *ConversationState) Completed() bool {
	return s.WorkLocation != nil &&
		s.HasKids != nil &&
		s.CommuteTimeMax != nil &&
		s.PropertyType != nil &&
		s.BudgetMax != nil
}

// AppendMessage adds an entry to the conversation transcript.
func (s *ConversationState) AppendMessage(role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
}

// SetError records a validation error; ClearError removes it.
func (s *ConversationState) SetError(msg string) {
	s.Error = &msg
}

func (s *ConversationState) ClearError() {
	s.Error = nil
}
