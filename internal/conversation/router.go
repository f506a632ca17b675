package conversation

import "propalyst/internal/model"

// NextAction is what the flow should do next for a session.
type NextAction int

const (
	AskWorkLocation NextAction = iota
	AskHasKids
	AskCommute
	AskPropertyType
	AskBudget
	Complete
)

// Route returns the next action for a session: the first unanswered question
// in the fixed order, or Complete once all five are answered. HasKids is
// checked against nil rather than false so a "no kids" answer counts as
// answered.
func Route(state *model.ConversationState) NextAction {
	switch {
	case state.WorkLocation == nil || *state.WorkLocation == "":
		return AskWorkLocation
	case state.HasKids == nil:
		return AskHasKids
	case state.CommuteTimeMax == nil || *state.CommuteTimeMax == 0:
		return AskCommute
	case state.PropertyType == nil || *state.PropertyType == "":
		return AskPropertyType
	case state.BudgetMax == nil || *state.BudgetMax == 0:
		return AskBudget
	default:
		return Complete
	}
}
