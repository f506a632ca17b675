package conversation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"propalyst/internal/model"
	"propalyst/internal/session"
)

// LLM is the language-model surface the flow needs: JSON completions for
// validation and free-text completions for summaries.
type LLM interface {
	Completer
	CompleteText(ctx context.Context, system, user string) (string, error)
}

// Flow drives the five-question intake conversation.
type Flow struct {
	sessions   session.Store
	validators *ValidatorSet
	llm        LLM
	log        *zap.Logger
}

func NewFlow(sessions session.Store, llm LLM, log *zap.Logger) *Flow {
	return &Flow{
		sessions:   sessions,
		validators: NewValidatorSet(llm, log),
		llm:        llm,
		log:        log,
	}
}

// Advance runs one turn: validates the user's answer if one was given, then
// asks the next question (or reports completion). An invalid answer leaves
// the slot untouched and re-asks the same question with a clarification.
func (f *Flow) Advance(ctx context.Context, sessionID, field, input string) (*model.ChatResponse, error) {
	state, err := f.sessions.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var ack string
	if input != "" && field != "" {
		result, err := f.validators.Validate(ctx, field, input, state)
		if err != nil {
			return nil, err
		}

		if !result.Valid {
			state.SetError("Invalid input - please try again")
			action := Route(state)
			Present(state, action)
			if err := f.sessions.Put(ctx, state); err != nil {
				return nil, err
			}
			return &model.ChatResponse{
				Component:   state.Component,
				Message:     result.Message,
				SessionID:   sessionID,
				CurrentStep: state.CurrentStep,
				Completed:   false,
			}, nil
		}

		if err := applyAnswer(state, field, result.Value); err != nil {
			return nil, err
		}
		state.ClearError()
		state.AppendMessage(model.RoleUser, input)
		state.AppendMessage(model.RoleAgent, result.Message)
		ack = result.Message

		f.log.Info("slot filled",
			zap.String("session_id", sessionID),
			zap.String("field", field))
	}

	action := Route(state)

	var message string
	if action == Complete {
		EnsureAreas(state)
		state.Component = nil
		message = fmt.Sprintf("Based on your preferences, here are %d recommended areas", len(state.RecommendedAreas))
	} else {
		message = Present(state, action)
	}

	if err := f.sessions.Put(ctx, state); err != nil {
		return nil, err
	}

	return &model.ChatResponse{
		Component:      state.Component,
		Acknowledgment: ack,
		Message:        message,
		SessionID:      sessionID,
		CurrentStep:    state.CurrentStep,
		Completed:      state.Completed(),
	}, nil
}

func applyAnswer(state *model.ConversationState, field string, value any) error {
	switch field {
	case FieldWorkLocation:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("conversation: %s: expected string, got %T", field, value)
		}
		state.WorkLocation = &s
	case FieldHasKids:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("conversation: %s: expected bool, got %T", field, value)
		}
		state.HasKids = &b
	case FieldCommute:
		n, ok := value.(int)
		if !ok {
			return fmt.Errorf("conversation: %s: expected int, got %T", field, value)
		}
		state.CommuteTimeMax = &n
	case FieldPropertyType:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("conversation: %s: expected string, got %T", field, value)
		}
		state.PropertyType = &s
	case FieldBudget:
		n, ok := value.(int)
		if !ok {
			return fmt.Errorf("conversation: %s: expected int, got %T", field, value)
		}
		state.BudgetMax = &n
	default:
		return fmt.Errorf("conversation: unknown field %q", field)
	}
	return nil
}

// Summary generates a short LLM summary of the collected preferences. Unlike
// answer validation there is no fallback; without a configured model this is
// a hard error.
func (f *Flow) Summary(ctx context.Context, sessionID string) (string, error) {
	state, err := f.sessions.Get(ctx, sessionID)
	if err != nil {
		return "", err
	}

	kids := "No"
	if state.HasKids != nil && *state.HasKids {
		kids = "Yes"
	}

	prompt := fmt.Sprintf(`You are a helpful real estate assistant. Generate a friendly, detailed summary that introduces the AREAS we're recommending based on the user's requirements.

User's preferences:
- Work Location: %s
- Has Kids: %s
- Maximum Commute Time: %d minutes
- Property Type: %s
- Maximum Budget: ₹%d

Generate a 2-3 sentence summary that:
1. Briefly acknowledges their key requirements (work location, family needs, budget, commute)
2. Explicitly states "Here are the areas we suggest based on your requirements" or similar phrasing
3. Sounds warm and personalized

Important: Emphasize that these are AREA recommendations, not individual properties. The summary should introduce the areas shown below.

Do not use bullet points. Write in paragraph form. Be conversational and friendly.`,
		strValue(state.WorkLocation), kids, intValue(state.CommuteTimeMax),
		strValue(state.PropertyType), intValue(state.BudgetMax))

	summary, err := f.llm.CompleteText(ctx,
		"You are a friendly real estate assistant helping users find their perfect home.",
		prompt)
	if err != nil {
		return "", fmt.Errorf("summary generation: %w", err)
	}
	return summary, nil
}

// Areas returns the recommended areas for a session, computing them if the
// completion turn has not run yet.
func (f *Flow) Areas(ctx context.Context, sessionID string) ([]model.Area, error) {
	state, err := f.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !state.Calculated {
		EnsureAreas(state)
		if err := f.sessions.Put(ctx, state); err != nil {
			return nil, err
		}
	}
	return state.RecommendedAreas, nil
}

func strValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func intValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
