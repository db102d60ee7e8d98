// Package preview renders a form read-only and collects respondent
// answers in transient memory. Nothing here persists anything; the
// accumulated responses live exactly as long as the Collector does.
package preview

import (
	"fmt"

	"form-forge/model"
)

// ControlKind is the rendering contract for one question type.
type ControlKind string

const (
	TextArea      ControlKind = "text_area"
	RadioGroup    ControlKind = "radio_group"
	CheckboxGroup ControlKind = "checkbox_group"
)

// Control describes how one question should be presented. Required is a
// purely visual indicator; the collector does not enforce it.
type Control struct {
	QuestionID  string      `json:"questionId"`
	Kind        ControlKind `json:"kind"`
	Label       string      `json:"label"`
	Required    bool        `json:"required"`
	Options     []string    `json:"options,omitempty"`
	Placeholder string      `json:"placeholder,omitempty"`
}

// Render maps a question to its presentation contract. Questions only
// reach here through the builder factory, so an unknown type is a
// programming error.
func Render(q model.Question) Control {
	c := Control{
		QuestionID: q.ID,
		Label:      q.Text,
		Required:   q.Required,
	}
	switch q.Type {
	case model.LongText:
		c.Kind = TextArea
		c.Placeholder = q.Placeholder
	case model.SingleChoice:
		c.Kind = RadioGroup
		c.Options = q.Options
	case model.MultipleChoice:
		c.Kind = CheckboxGroup
		c.Options = q.Options
	default:
		panic(fmt.Sprintf("preview: unknown question type %q", q.Type))
	}
	return c
}

// RenderForm maps every question in order.
func RenderForm(f model.Form) []Control {
	controls := make([]Control, len(f.Questions))
	for i, q := range f.Questions {
		controls[i] = Render(q)
	}
	return controls
}

// Collector accumulates respondent answers keyed by question id.
type Collector struct {
	responses map[string]any
}

func NewCollector() *Collector {
	return &Collector{responses: make(map[string]any)}
}

// SetText records a long_text answer, replacing any prior value.
func (c *Collector) SetText(questionID, value string) {
	c.responses[questionID] = value
}

// Select records a single_choice answer, replacing any prior selection.
func (c *Collector) Select(questionID, option string) {
	c.responses[questionID] = option
}

// Toggle flips one multiple_choice option by adding it to or removing it
// from the accumulated selection, preserving toggle order.
func (c *Collector) Toggle(questionID, option string) {
	selected, _ := c.responses[questionID].([]string)
	for i, v := range selected {
		if v == option {
			remaining := append([]string(nil), selected[:i]...)
			c.responses[questionID] = append(remaining, selected[i+1:]...)
			return
		}
	}
	c.responses[questionID] = append(append([]string(nil), selected...), option)
}

// Response returns the accumulated answer for one question.
func (c *Collector) Response(questionID string) (any, bool) {
	v, ok := c.responses[questionID]
	return v, ok
}

// Responses returns a copy of the accumulated answers.
func (c *Collector) Responses() map[string]any {
	out := make(map[string]any, len(c.responses))
	for k, v := range c.responses {
		out[k] = v
	}
	return out
}

// Missing lists the required questions of f that have no answer yet.
// Submission is not blocked on this; it exists for callers that want a
// stricter pre-submit check.
func (c *Collector) Missing(f model.Form) []string {
	var ids []string
	for _, q := range f.Questions {
		if q.Required && !c.answered(q.ID) {
			ids = append(ids, q.ID)
		}
	}
	return ids
}

func (c *Collector) answered(questionID string) bool {
	switch v := c.responses[questionID].(type) {
	case string:
		return v != ""
	case []string:
		return len(v) > 0
	}
	return false
}
