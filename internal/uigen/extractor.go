package uigen

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"propalyst/internal/model"
	"propalyst/internal/utils"
)

// componentSchemas describes the renderable component types for the
// extraction prompt, and doubles as the /api/components catalog.
var componentSchemas = []map[string]any{
	{
		"type": "Button",
		"props": map[string]string{
			"label":   "string (the button text)",
			"variant": "string (optional: 'primary', 'secondary', 'outline')",
		},
		"example": map[string]any{
			"type":  "Button",
			"props": map[string]any{"label": "Click Me", "variant": "primary"},
		},
	},
	{
		"type": "TextArea",
		"props": map[string]string{
			"placeholder": "string (optional placeholder text)",
			"rows":        "number (optional, default: 4)",
		},
		"example": map[string]any{
			"type":  "TextArea",
			"props": map[string]any{"placeholder": "Enter your text here...", "rows": 6},
		},
	},
	{
		"type": "CheckboxGroup",
		"props": map[string]string{
			"options": "array of strings (the checkbox options)",
			"label":   "string (optional label for the group)",
		},
		"example": map[string]any{
			"type":  "CheckboxGroup",
			"props": map[string]any{"options": []string{"Apple", "Banana", "Orange"}, "label": "Select fruits"},
		},
	},
	{
		"type": "Slider",
		"props": map[string]string{
			"min":          "number (minimum value)",
			"max":          "number (maximum value)",
			"defaultValue": "number (optional, default: midpoint)",
			"label":        "string (optional label)",
		},
		"example": map[string]any{
			"type":  "Slider",
			"props": map[string]any{"min": 0, "max": 100, "defaultValue": 50, "label": "Select a value"},
		},
	},
}

// Schemas returns the component catalog.
func Schemas() []map[string]any {
	return componentSchemas
}

const extractionSystemPrompt = `You are a UI component extraction specialist.

Your task: Extract structured component information from natural language requests.

Available components:

1. Button
   Props:
   - label: string (the button text)
   - variant: string (optional: 'primary', 'secondary', 'outline')
   Example: {"type": "Button", "props": {"label": "Click Me", "variant": "primary"}}

2. TextArea
   Props:
   - placeholder: string (optional placeholder text)
   - rows: number (optional, default: 4)
   Example: {"type": "TextArea", "props": {"placeholder": "Enter your text here...", "rows": 6}}

3. CheckboxGroup
   Props:
   - options: array of strings (the checkbox options)
   - label: string (optional label for the group)
   Example: {"type": "CheckboxGroup", "props": {"options": ["Apple", "Banana", "Orange"], "label": "Select fruits"}}

4. Slider
   Props:
   - min: number (minimum value)
   - max: number (maximum value)
   - defaultValue: number (optional, default: midpoint)
   - label: string (optional label)
   Example: {"type": "Slider", "props": {"min": 0, "max": 100, "defaultValue": 50, "label": "Select a value"}}

IMPORTANT RULES:
1. Return ONLY valid JSON, no other text
2. JSON must have "type" and "props" fields
3. "type" must be one of: Button, TextArea, CheckboxGroup, Slider
4. "props" must match the schema for that component type
5. If the request is unclear, make reasonable assumptions
6. For sliders, if defaultValue not specified, use the midpoint

Examples:

Input: "show me a button"
Output: {"type": "Button", "props": {"label": "Click Me", "variant": "primary"}}

Input: "text area with placeholder 'Enter name'"
Output: {"type": "TextArea", "props": {"placeholder": "Enter name", "rows": 4}}

Input: "checkbox with options Apple, Banana, Orange"
Output: {"type": "CheckboxGroup", "props": {"options": ["Apple", "Banana", "Orange"], "label": "Select fruits"}}

Input: "slider from 0 to 100"
Output: {"type": "Slider", "props": {"min": 0, "max": 100, "defaultValue": 50, "label": "Select a value"}}

Now extract the component from the user's request.`

// Completer is the LLM surface the extractor needs.
type Completer interface {
	CompleteJSON(ctx context.Context, system, user string) (string, error)
	Enabled() bool
}

// Extractor turns natural language UI requests into component
// configurations. There is no fallback path; this feature requires a
// configured model.
type Extractor struct {
	llm Completer
	log *zap.Logger
}

func NewExtractor(llm Completer, log *zap.Logger) *Extractor {
	return &Extractor{llm: llm, log: log}
}

var validTypes = map[string]bool{
	"Button":        true,
	"TextArea":      true,
	"CheckboxGroup": true,
	"Slider":        true,
}

// Extract produces a component configuration for one request.
func (e *Extractor) Extract(ctx context.Context, userInput string) (*model.UIComponent, error) {
	if e.llm == nil || !e.llm.Enabled() {
		return nil, fmt.Errorf("uigen: no API key configured")
	}

	content, err := e.llm.CompleteJSON(ctx, extractionSystemPrompt,
		fmt.Sprintf("Extract component from: %s", userInput))
	if err != nil {
		return nil, fmt.Errorf("uigen: extraction call failed: %w", err)
	}

	var component model.UIComponent
	if err := utils.ParseAIJSON(content, &component); err != nil {
		return nil, fmt.Errorf("uigen: unparseable extraction reply: %w", err)
	}
	if component.Type == "" {
		return nil, fmt.Errorf("uigen: missing component type")
	}
	if !validTypes[component.Type] {
		return nil, fmt.Errorf("uigen: unsupported component type %q", component.Type)
	}
	if component.Props == nil {
		return nil, fmt.Errorf("uigen: missing component props")
	}

	e.log.Info("component extracted", zap.String("type", component.Type))
	return &component, nil
}
