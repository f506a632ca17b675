package conversation

import (
	"fmt"

	"propalyst/internal/model"
)

const greeting = "Hi! Let me help you find your perfect home. Where do you work?"

// Present prepares the question for the given action on the state: sets the
// UI component and current step, and appends the question to the transcript.
// Calling it again for the same pending question leaves the transcript
// unchanged, so a re-asked slot does not pile up duplicate entries.
// Returns the question text.
func Present(state *model.ConversationState, action NextAction) string {
	var question string
	var component *model.UIComponent
	var step int

	switch action {
	case AskWorkLocation:
		question = greeting
		component = nil
		step = 1

	case AskHasKids:
		question = "Do you have kids?"
		component = &model.UIComponent{
			Type: "ButtonGroup",
			Props: map[string]any{
				"field":   FieldHasKids,
				"options": []string{"Yes", "No"},
			},
		}
		step = 2

	case AskCommute:
		workLocation := "work"
		if state.WorkLocation != nil {
			workLocation = *state.WorkLocation
		}
		question = fmt.Sprintf("What's your ideal commute time to %s?", workLocation)
		component = &model.UIComponent{
			Type: "ButtonGroup",
			Props: map[string]any{
				"field":   FieldCommute,
				"options": []string{"15 min", "30 min", "45 min", "60 min"},
			},
		}
		step = 3

	case AskPropertyType:
		question = "What type of property are you looking for?"
		component = &model.UIComponent{
			Type: "ButtonGroup",
			Props: map[string]any{
				"field":   FieldPropertyType,
				"options": []string{model.PropertyTypeVilla, model.PropertyTypeApartment, model.PropertyTypeRowHouse},
			},
		}
		step = 4

	case AskBudget:
		question = "What's your monthly rental budget?"
		component = &model.UIComponent{
			Type: "Slider",
			Props: map[string]any{
				"field":        FieldBudget,
				"min":          20000,
				"max":          150000,
				"step":         5000,
				"defaultValue": 75000,
				"label":        "What's your monthly budget?",
				"format":       "₹{value}",
			},
		}
		step = 5

	default:
		return ""
	}

	state.Component = component
	state.CurrentStep = step

	if !lastAgentMessageIs(state, question) {
		state.AppendMessage(model.RoleAgent, question)
	}
	return question
}

func lastAgentMessageIs(state *model.ConversationState, content string) bool {
	for i := len(state.Messages) - 1; i >= 0; i-- {
		if state.Messages[i].Role == model.RoleAgent {
			return state.Messages[i].Content == content
		}
	}
	return false
}
