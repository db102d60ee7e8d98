package validate

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"form-forge/model"
)

// Answers checks a set of respondent answers against the form's questions:
// every answer must reference a known question and carry a value of the
// right shape for its type, and every required question must be answered.
// Like Run, it reports all problems at once.
func Answers(questions []model.Question, answers []model.Answer) []string {
	var errs *multierror.Error

	byID := make(map[string]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	answered := make(map[string]bool, len(answers))
	for _, a := range answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			errs = multierror.Append(errs, fmt.Errorf("unknown question %q", a.QuestionID))
			continue
		}

		// an empty value is the same as no answer: it never satisfies a
		// required question, and it is not a shape error on an optional one
		if emptyValue(a.Value) {
			continue
		}
		answered[q.ID] = true

		if err := checkValue(q, a.Value); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	for _, q := range questions {
		if q.Required && !answered[q.ID] {
			errs = multierror.Append(errs, fmt.Errorf("%q is required", q.Text))
		}
	}

	if errs.ErrorOrNil() == nil {
		return nil
	}
	return messages(errs)
}

func emptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	}
	return false
}

func checkValue(q model.Question, value any) error {
	switch q.Type {
	case model.LongText:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%q: a text value is required", q.Text)
		}

	case model.SingleChoice:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%q: a single option value is required", q.Text)
		}
		if !hasOption(q.Options, s) {
			return fmt.Errorf("%q: %q is not one of the options", q.Text, s)
		}

	case model.MultipleChoice:
		// JSON decoding yields []any for arrays.
		items, ok := value.([]any)
		if !ok {
			return fmt.Errorf("%q: a list of option values is required", q.Text)
		}
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("%q: a list of option values is required", q.Text)
			}
			if !hasOption(q.Options, s) {
				return fmt.Errorf("%q: %q is not one of the options", q.Text, s)
			}
		}
	}
	return nil
}

func hasOption(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}
