// Package builder implements the draft-side editing engine: a question
// factory and pure transformations over an ordered question list. Every
// operation returns a new list and leaves its input untouched; stale or
// out-of-range references degrade to no-ops instead of failing, since they
// only ever come from UI timing artifacts.
package builder

import (
	"fmt"

	"github.com/gofrs/uuid"

	"form-forge/model"
)

// New builds a freshly-initialized draft question of the given type.
// Choice-based questions start with a single empty option row so the
// editor always has something to type into. An unrecognized type is a
// programming error and panics.
func New(t model.QuestionType) model.Question {
	if !t.Valid() {
		panic(fmt.Sprintf("builder: unknown question type %q", t))
	}

	q := model.Question{
		ID:   uuid.Must(uuid.NewV4()).String(),
		Type: t,
	}
	if t.ChoiceBased() {
		q.Options = []string{""}
	}
	return q
}

// Add appends a question to the list.
func Add(list []model.Question, q model.Question) []model.Question {
	out := make([]model.Question, 0, len(list)+1)
	out = append(out, list...)
	return append(out, q)
}

// Field names a directly-editable question field.
type Field int

const (
	FieldText Field = iota
	FieldRequired
	FieldPlaceholder
)

// UpdateField replaces one field on the question matching id. A missing
// id, or a value of the wrong type for the field, returns the list
// unchanged.
func UpdateField(list []model.Question, id string, field Field, value any) []model.Question {
	i := indexOf(list, id)
	if i < 0 {
		return list
	}

	q := list[i]
	switch field {
	case FieldText:
		s, ok := value.(string)
		if !ok {
			return list
		}
		q.Text = s
	case FieldRequired:
		b, ok := value.(bool)
		if !ok {
			return list
		}
		q.Required = b
	case FieldPlaceholder:
		s, ok := value.(string)
		if !ok {
			return list
		}
		q.Placeholder = s
	default:
		return list
	}

	return replace(list, i, q)
}

// UpdateOption replaces the option at index on the question matching id.
// Out-of-bounds indexes are a no-op.
func UpdateOption(list []model.Question, id string, index int, value string) []model.Question {
	i := indexOf(list, id)
	if i < 0 || index < 0 || index >= len(list[i].Options) {
		return list
	}

	q := cloneOptions(list[i])
	q.Options[index] = value
	return replace(list, i, q)
}

// AddOption appends an empty option row to the question matching id.
func AddOption(list []model.Question, id string) []model.Question {
	i := indexOf(list, id)
	if i < 0 {
		return list
	}

	q := list[i]
	q.Options = append(append([]string(nil), q.Options...), "")
	return replace(list, i, q)
}

// RemoveOption removes the option at index. The last remaining option
// row cannot be removed; the list never drops below one entry.
func RemoveOption(list []model.Question, id string, index int) []model.Question {
	i := indexOf(list, id)
	if i < 0 || index < 0 || index >= len(list[i].Options) || len(list[i].Options) <= 1 {
		return list
	}

	q := list[i]
	opts := make([]string, 0, len(q.Options)-1)
	opts = append(opts, q.Options[:index]...)
	q.Options = append(opts, q.Options[index+1:]...)
	return replace(list, i, q)
}

// Remove filters out the question matching id.
func Remove(list []model.Question, id string) []model.Question {
	i := indexOf(list, id)
	if i < 0 {
		return list
	}

	out := make([]model.Question, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}

// Direction of a Move operation.
type Direction int

const (
	Up Direction = iota
	Down
)

// Move swaps the question matching id with its neighbor in the given
// direction. The first question cannot move up, the last cannot move
// down; both cases return the list unchanged.
func Move(list []model.Question, id string, dir Direction) []model.Question {
	i := indexOf(list, id)
	if i < 0 {
		return list
	}

	j := i + 1
	if dir == Up {
		j = i - 1
	}
	if j < 0 || j >= len(list) {
		return list
	}

	out := clone(list)
	out[i], out[j] = out[j], out[i]
	return out
}

func indexOf(list []model.Question, id string) int {
	for i, q := range list {
		if q.ID == id {
			return i
		}
	}
	return -1
}

func clone(list []model.Question) []model.Question {
	out := make([]model.Question, len(list))
	copy(out, list)
	return out
}

func cloneOptions(q model.Question) model.Question {
	q.Options = append([]string(nil), q.Options...)
	return q
}

func replace(list []model.Question, i int, q model.Question) []model.Question {
	out := clone(list)
	out[i] = q
	return out
}
