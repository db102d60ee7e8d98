package model

import (
	"math"
	"time"
)

// QuestionType is the closed set of supported question kinds.
type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
	LongText       QuestionType = "long_text"
)

func (t QuestionType) Valid() bool {
	switch t {
	case SingleChoice, MultipleChoice, LongText:
		return true
	}
	return false
}

// ChoiceBased reports whether the type carries an options list.
func (t QuestionType) ChoiceBased() bool {
	return t == SingleChoice || t == MultipleChoice
}

// Question is a single form question. Options is meaningful only for
// choice-based types, Placeholder only for long_text; the irrelevant
// field stays empty and is dropped from JSON.
type Question struct {
	ID          string       `json:"id,omitempty"`
	Type        QuestionType `json:"type"`
	Text        string       `json:"question"`
	Required    bool         `json:"required"`
	Options     []string     `json:"options,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
}

// Form is one form definition. ID and Version are zero for an unsaved
// draft. Question order is significant.
type Form struct {
	ID        int        `json:"id,omitempty"`
	Version   int        `json:"version,omitempty"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
	UpdatedAt time.Time  `json:"updatedAt,omitempty"`
}

// QuestionPayload is the sanitized wire shape of a question, as produced
// by the validation pipeline and accepted by the persistence API.
type QuestionPayload struct {
	Text        string       `json:"question"`
	Type        QuestionType `json:"type"`
	Required    bool         `json:"required"`
	Options     []string     `json:"options,omitempty"`
	Placeholder string       `json:"placeholder,omitempty"`
}

// FormPayload is the create/update request body. Version is carried on
// update for the optimistic lock.
type FormPayload struct {
	Name      string            `json:"name"`
	Version   int               `json:"version,omitempty"`
	Questions []QuestionPayload `json:"questions"`
}

// Question converts the payload back into the draft representation.
func (p QuestionPayload) Question() Question {
	return Question{
		Type:        p.Type,
		Text:        p.Text,
		Required:    p.Required,
		Options:     p.Options,
		Placeholder: p.Placeholder,
	}
}

// Draft converts all payload questions back into draft questions.
func (p FormPayload) Draft() []Question {
	qs := make([]Question, len(p.Questions))
	for i, q := range p.Questions {
		qs[i] = q.Question()
	}
	return qs
}

type ListMeta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"perPage"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func NewListMeta(page, perPage int, total int64) ListMeta {
	return ListMeta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(perPage))),
	}
}

// FormList is the paged listing response. Forms carry no questions here.
type FormList struct {
	Forms []Form   `json:"forms"`
	Meta  ListMeta `json:"meta"`
}

// Answer is one respondent answer within a submit request. Value is a
// string for long_text and single_choice, a list of strings for
// multiple_choice.
type Answer struct {
	QuestionID string `json:"questionId"`
	Value      any    `json:"value"`
}

type SubmitRequest struct {
	Answers []Answer `json:"answers"`
}

// Submission is a stored set of answers, keyed by question id.
type Submission struct {
	ID      int                         `json:"id"`
	Time    time.Time                   `json:"time"`
	IP      string                      `json:"ip"`
	Answers map[string]SubmissionAnswer `json:"answers"`
}

// SubmissionAnswer keeps the question label alongside the value, so
// listed submissions stay readable after the form is edited.
type SubmissionAnswer struct {
	Question string `json:"question"`
	Value    any    `json:"value"`
}
