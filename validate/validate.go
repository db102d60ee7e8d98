// Package validate turns a freely-typed draft into either an API-ready
// payload or a list of human-readable errors. A single run reports every
// problem at once rather than stopping at the first, so one save attempt
// surfaces everything the user has to fix.
package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/hashicorp/go-multierror"

	"form-forge/model"
)

// Result of a pipeline run. Payload is nil whenever Errors is non-empty;
// a partially-built payload is never handed out.
type Result struct {
	Payload *model.FormPayload
	Errors  []string
}

func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// Run sanitizes the candidate form name and question drafts. The input is
// never mutated; a fresh payload structure is synthesized on every call.
func Run(name string, questions []model.Question) Result {
	var errs *multierror.Error

	name = strings.TrimSpace(name)
	switch {
	case name == "":
		errs = multierror.Append(errs, fmt.Errorf("Form name is required"))
	case utf8.RuneCountInString(name) < 3:
		errs = multierror.Append(errs, fmt.Errorf("Form name must be at least 3 characters"))
	}

	if len(questions) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("Add at least one question"))
	}

	sanitized := make([]model.QuestionPayload, 0, len(questions))
	for i, q := range questions {
		n := i + 1

		text := strings.TrimSpace(q.Text)
		switch {
		case text == "":
			errs = multierror.Append(errs, fmt.Errorf("Question %d: question is required", n))
		case utf8.RuneCountInString(text) < 3:
			errs = multierror.Append(errs, fmt.Errorf("Question %d: must be at least 3 characters", n))
		}

		p := model.QuestionPayload{
			Text:     text,
			Type:     q.Type,
			Required: q.Required,
		}

		switch {
		case q.Type == model.LongText:
			if ph := strings.TrimSpace(q.Placeholder); ph != "" {
				p.Placeholder = ph
			}
		case q.Type.ChoiceBased():
			// Keep the filtered options in the payload even when the count
			// check fails: the payload is withheld on error anyway.
			p.Options = filterOptions(q.Options)
			if len(p.Options) < 2 {
				errs = multierror.Append(errs, fmt.Errorf("Question %d: at least two non-empty options are required", n))
			}
		default:
			errs = multierror.Append(errs, fmt.Errorf("Question %d: invalid type", n))
		}

		sanitized = append(sanitized, p)
	}

	if errs.ErrorOrNil() != nil {
		return Result{Errors: messages(errs)}
	}

	return Result{Payload: &model.FormPayload{Name: name, Questions: sanitized}}
}

func filterOptions(options []string) []string {
	out := make([]string, 0, len(options))
	for _, o := range options {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func messages(errs *multierror.Error) []string {
	out := make([]string, len(errs.Errors))
	for i, err := range errs.Errors {
		out[i] = err.Error()
	}
	return out
}
