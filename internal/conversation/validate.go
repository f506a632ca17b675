package conversation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"propalyst/internal/model"
	"propalyst/internal/utils"
)

// Answer field names, used in chat requests and UI component props.
const (
	FieldWorkLocation = "work_location"
	FieldHasKids      = "has_kids"
	FieldCommute      = "commute_time_max"
	FieldPropertyType = "property_type"
	FieldBudget       = "budget_max"
)

// Result is the outcome of validating one answer. For an invalid answer,
// Message carries the clarification to show the user and Value is nil.
type Result struct {
	Valid   bool
	Value   any
	Message string
}

// Completer is the LLM surface the validators need.
type Completer interface {
	CompleteJSON(ctx context.Context, system, user string) (string, error)
	Enabled() bool
}

// ValidatorSet validates user answers. Each field is validated by the LLM
// when available; if the LLM is disabled or fails, deterministic parsing
// takes over so the conversation never stalls.
type ValidatorSet struct {
	llm Completer
	log *zap.Logger
}

func NewValidatorSet(llm Completer, log *zap.Logger) *ValidatorSet {
	return &ValidatorSet{llm: llm, log: log}
}

const validatorSystemPrompt = "You are a helpful assistant validating user input for a property search app. Always respond with valid JSON."

// llmValidation is the JSON shape every validation prompt asks for.
type llmValidation struct {
	Valid          bool   `json:"valid"`
	ExtractedValue any    `json:"extracted_value"`
	Message        string `json:"message"`
}

// Validate checks one answer for one field.
func (v *ValidatorSet) Validate(ctx context.Context, field, input string, state *model.ConversationState) (Result, error) {
	prompt, ok := v.buildPrompt(field, input)
	if !ok {
		return Result{}, fmt.Errorf("conversation: unknown field %q", field)
	}

	if v.llm != nil && v.llm.Enabled() {
		content, err := v.llm.CompleteJSON(ctx, validatorSystemPrompt, prompt)
		if err == nil {
			var parsed llmValidation
			if perr := utils.ParseAIJSON(content, &parsed); perr == nil {
				if res, ok := v.coerce(field, parsed); ok {
					return res, nil
				}
			}
			v.log.Warn("unusable validation reply, falling back to parser",
				zap.String("field", field))
		} else {
			v.log.Warn("llm validation failed, falling back to parser",
				zap.String("field", field), zap.Error(err))
		}
	}

	return v.parseDeterministic(field, input), nil
}

func (v *ValidatorSet) buildPrompt(field, input string) (string, bool) {
	switch field {
	case FieldWorkLocation:
		return fmt.Sprintf(`You are helping a user find rental properties in Bangalore, India.

The user said: "%s"

Is this a valid Bangalore neighborhood/area/location?

Valid examples: Whitefield, Koramangala, Indiranagar, MG Road, HSR Layout, Electronic City, Marathahalli, BTM Layout, Jayanagar, JP Nagar, Malleshwaram, Rajajinagar, Yelahanka, etc.

Invalid examples: ABCD, xyz, random text, numbers, non-Bangalore locations

Respond in JSON format:
{
    "valid": true or false,
    "extracted_value": "Proper Case Location Name" or null,
    "message": "Your contextual response"
}

If VALID:
- Set valid=true
- Set extracted_value to the proper case name (e.g., "whitefield" -> "Whitefield")
- Message: Acknowledge naturally with a positive comment about the area (e.g., "Great! Whitefield is a tech hub with excellent connectivity.")

If INVALID:
- Set valid=false
- Set extracted_value=null
- Message: Politely say you don't recognize it and give 3-4 example areas they could try.`, input), true

	case FieldHasKids:
		return fmt.Sprintf(`Extract a yes/no answer from the user's response.

User said: "%s"

Determine if they have kids or not.

Examples:
- "Yes" -> true
- "No" -> false
- "I have 2 kids" -> true
- "Yeah I do" -> true
- "Nope" -> false
- "Don't have any" -> false

Respond in JSON:
{
    "valid": true,
    "extracted_value": true or false,
    "message": "Natural acknowledgment"
}

Message examples:
- If true: "Perfect! Having kids means we'll prioritize areas with good schools and family-friendly amenities."
- If false: "Got it! We'll focus on areas that match your lifestyle preferences."

Always set valid=true for this field since any response can be interpreted.`, input), true

	case FieldCommute:
		return fmt.Sprintf(`Extract commute time in minutes from user input.

User said: "%s"

Convert to minutes (integer).

Examples:
- "30 minutes" -> 30
- "45 min" -> 45
- "1 hour" -> 60
- "around 20" -> 20
- "half an hour" -> 30

Respond in JSON:
{
    "valid": true or false,
    "extracted_value": integer (minutes) or null,
    "message": "Contextual acknowledgment"
}

If you can extract a reasonable time (5-120 minutes): valid=true
If unclear or unreasonable: valid=false, ask for clarification

Message should acknowledge the commute preference naturally.`, input), true

	case FieldPropertyType:
		return fmt.Sprintf(`Determine property type from user input.

User said: "%s"

Map to one of: "Villa", "Apartment", "Row House"

Mappings:
- Villa: villa, independent house, house, standalone
- Apartment: apartment, flat, condo
- Row House: row house, townhouse, duplex

Respond in JSON:
{
    "valid": true or false,
    "extracted_value": "Villa" or "Apartment" or "Row House" or null,
    "message": "Natural acknowledgment"
}

If you can map it: valid=true
If unclear: valid=false, ask user to choose from the 3 types

Message should acknowledge their choice with a brief positive comment.`, input), true

	case FieldBudget:
		return fmt.Sprintf(`Extract monthly rental budget in rupees from user input.

User said: "%s"

Convert to integer (rupees).

Examples:
- "80000" -> 80000
- "80k" -> 80000
- "1.5 lakh" -> 150000
- "75000 rupees" -> 75000
- "50 thousand" -> 50000

Respond in JSON:
{
    "valid": true or false,
    "extracted_value": integer (rupees) or null,
    "message": "Contextual acknowledgment"
}

If you can extract a reasonable budget (10000-500000): valid=true
If unclear: valid=false, ask for clarification

Message should acknowledge the budget naturally.`, input), true
	}
	return "", false
}

// coerce converts the LLM's extracted_value to the field's concrete type.
// Returns ok=false when the value cannot be used, so the caller falls back.
func (v *ValidatorSet) coerce(field string, parsed llmValidation) (Result, bool) {
	if !parsed.Valid {
		msg := parsed.Message
		if msg == "" {
			msg = "Sorry, I didn't catch that. Could you rephrase?"
		}
		return Result{Valid: false, Message: msg}, true
	}

	switch field {
	case FieldWorkLocation, FieldPropertyType:
		s, ok := parsed.ExtractedValue.(string)
		if !ok || s == "" {
			return Result{}, false
		}
		return Result{Valid: true, Value: s, Message: parsed.Message}, true

	case FieldHasKids:
		b, ok := parsed.ExtractedValue.(bool)
		if !ok {
			return Result{}, false
		}
		return Result{Valid: true, Value: b, Message: parsed.Message}, true

	case FieldCommute, FieldBudget:
		f, ok := parsed.ExtractedValue.(float64)
		if !ok {
			return Result{}, false
		}
		return Result{Valid: true, Value: int(f), Message: parsed.Message}, true
	}
	return Result{}, false
}

var (
	hourRe   = regexp.MustCompile(`(\d+)\s*h(?:our|r)?`)
	numberRe = regexp.MustCompile(`(\d+)`)
	lakhRe   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:lakh|lac)`)
	kRe      = regexp.MustCompile(`(\d+)\s*k\b`)
	thouRe   = regexp.MustCompile(`(\d+)\s*thousand`)
)

// parseDeterministic validates without the LLM. It accepts anything it can
// make sense of; the messages are generic acknowledgments.
func (v *ValidatorSet) parseDeterministic(field, input string) Result {
	switch field {
	case FieldWorkLocation:
		loc := ParseWorkLocation(input)
		if loc == "" {
			return Result{Valid: false, Message: "Which Bangalore area do you work in? For example Whitefield, Koramangala, Indiranagar or HSR Layout."}
		}
		return Result{Valid: true, Value: loc, Message: fmt.Sprintf("Great, %s it is!", loc)}

	case FieldHasKids:
		kids := ParseKidsAnswer(input)
		msg := "Got it! We'll focus on areas that match your lifestyle preferences."
		if kids {
			msg = "Perfect! Having kids means we'll prioritize areas with good schools and family-friendly amenities."
		}
		return Result{Valid: true, Value: kids, Message: msg}

	case FieldCommute:
		minutes := ParseCommuteTime(input)
		if minutes < 5 || minutes > 120 {
			return Result{Valid: false, Message: "How long a commute works for you? Something like \"30 minutes\" or \"1 hour\"."}
		}
		return Result{Valid: true, Value: minutes, Message: fmt.Sprintf("Noted, up to %d minutes of commute.", minutes)}

	case FieldPropertyType:
		ptype := ParsePropertyType(input)
		return Result{Valid: true, Value: ptype, Message: fmt.Sprintf("%s, nice choice!", ptype)}

	case FieldBudget:
		budget := ParseBudget(input)
		if budget < 10000 || budget > 500000 {
			return Result{Valid: false, Message: "What's your monthly budget in rupees? For example \"80000\", \"80k\" or \"1.5 lakh\"."}
		}
		return Result{Valid: true, Value: budget, Message: fmt.Sprintf("Got it, a budget of about ₹%d per month.", budget)}
	}
	return Result{Valid: false, Message: fmt.Sprintf("Unknown field: %s", field)}
}

// ParseWorkLocation title-cases the raw location text.
func ParseWorkLocation(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	words := strings.Fields(strings.ToLower(trimmed))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ParseKidsAnswer interprets a free-text yes/no. Unrecognized input counts
// as no.
func ParseKidsAnswer(input string) bool {
	normalized := strings.ToLower(strings.TrimSpace(input))

	// Negations first: "don't have any" must not match on "have".
	for _, word := range []string{"don't", "do not", "dont", "nope", "nah", "false", "no kids"} {
		if strings.Contains(normalized, word) {
			return false
		}
	}
	for _, word := range []string{"yes", "yeah", "yep", "yup", "true", "have"} {
		if strings.Contains(normalized, word) {
			return true
		}
	}
	return false
}

// ParseCommuteTime extracts a commute time in minutes. Hours convert to
// minutes, "half an hour" is 30, otherwise the first number is taken.
// Unparseable input defaults to 30.
func ParseCommuteTime(input string) int {
	normalized := strings.ToLower(strings.TrimSpace(input))

	if strings.Contains(normalized, "half an hour") || strings.Contains(normalized, "half hour") {
		return 30
	}
	if m := hourRe.FindStringSubmatch(normalized); m != nil {
		return atoiSafe(m[1]) * 60
	}
	if m := numberRe.FindStringSubmatch(normalized); m != nil {
		return atoiSafe(m[1])
	}
	return 30
}

// ParsePropertyType maps free text to one of the three supported types,
// defaulting to Apartment.
func ParsePropertyType(input string) string {
	normalized := strings.ToLower(strings.TrimSpace(input))

	// "row house" and "townhouse" both contain "house", so row variants
	// must be checked before the villa keywords.
	for _, word := range []string{"row", "townhouse", "duplex"} {
		if strings.Contains(normalized, word) {
			return model.PropertyTypeRowHouse
		}
	}
	for _, word := range []string{"villa", "independent", "house", "standalone"} {
		if strings.Contains(normalized, word) {
			return model.PropertyTypeVilla
		}
	}
	return model.PropertyTypeApartment
}

// ParseBudget extracts a monthly budget in rupees from formats like
// "80000", "80k", "1.5 lakh" or "50 thousand". Unparseable input defaults
// to 50000.
func ParseBudget(input string) int {
	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.ReplaceAll(normalized, "₹", "")
	normalized = strings.ReplaceAll(normalized, "rs", "")
	normalized = strings.TrimSpace(normalized)

	if m := lakhRe.FindStringSubmatch(normalized); m != nil {
		var lakhs float64
		fmt.Sscanf(m[1], "%f", &lakhs)
		return int(lakhs * 100000)
	}
	if m := kRe.FindStringSubmatch(normalized); m != nil {
		return atoiSafe(m[1]) * 1000
	}
	if m := thouRe.FindStringSubmatch(normalized); m != nil {
		return atoiSafe(m[1]) * 1000
	}
	if m := numberRe.FindStringSubmatch(normalized); m != nil {
		return atoiSafe(m[1])
	}
	return 50000
}

func atoiSafe(s string) int {
	n := 0
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return n
		}
		n = n*10 + int(ch-'0')
	}
	return n
}
