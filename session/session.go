// Package session owns one draft form through its whole lifecycle: edit
// via the builder engine, validate and persist on save, reload for
// further editing. A session belongs to exactly one logical editor, so
// the draft itself needs no locking; the only guard is against a second
// save starting while one is in flight.
package session

import (
	"context"

	"github.com/pkg/errors"

	"form-forge/builder"
	"form-forge/client"
	"form-forge/model"
	"form-forge/validate"
)

// ErrSaveInFlight is returned by Save while a previous save is pending.
var ErrSaveInFlight = errors.New("a save is already in progress")

type Session struct {
	api client.Collaborator

	formID    int
	version   int
	name      string
	questions []model.Question
	busy      bool
}

// New starts an empty draft backed by the given collaborator.
func New(api client.Collaborator) *Session {
	return &Session{api: api}
}

func (s *Session) SetName(name string) { s.name = name }
func (s *Session) FormName() string    { return s.name }

// FormID is zero until the draft has been persisted once.
func (s *Session) FormID() int { return s.formID }

// Questions returns a copy of the current draft list.
func (s *Session) Questions() []model.Question {
	out := make([]model.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// AddQuestion appends a fresh question of the given type and returns it.
func (s *Session) AddQuestion(t model.QuestionType) model.Question {
	q := builder.New(t)
	s.questions = builder.Add(s.questions, q)
	return q
}

func (s *Session) UpdateField(id string, field builder.Field, value any) {
	s.questions = builder.UpdateField(s.questions, id, field, value)
}

func (s *Session) UpdateOption(id string, index int, value string) {
	s.questions = builder.UpdateOption(s.questions, id, index, value)
}

func (s *Session) AddOption(id string) {
	s.questions = builder.AddOption(s.questions, id)
}

func (s *Session) RemoveOption(id string, index int) {
	s.questions = builder.RemoveOption(s.questions, id, index)
}

func (s *Session) RemoveQuestion(id string) {
	s.questions = builder.Remove(s.questions, id)
}

func (s *Session) MoveQuestion(id string, dir builder.Direction) {
	s.questions = builder.Move(s.questions, id, dir)
}

// Validate runs the sanitization pipeline on the current draft without
// saving anything.
func (s *Session) Validate() validate.Result {
	return validate.Run(s.name, s.questions)
}

// Save validates the draft and, when clean, persists it: a create for a
// new draft, an update for a reloaded form. Validation problems come back
// as the string list without touching the collaborator. On success the
// echoed document becomes the new draft state.
func (s *Session) Save(ctx context.Context) (*model.Form, []string, error) {
	if s.busy {
		return nil, nil, ErrSaveInFlight
	}

	result := s.Validate()
	if !result.OK() {
		return nil, result.Errors, nil
	}

	s.busy = true
	defer func() { s.busy = false }()

	var (
		form model.Form
		err  error
	)
	if s.formID == 0 {
		form, err = s.api.CreateForm(ctx, *result.Payload)
	} else {
		payload := *result.Payload
		payload.Version = s.version
		form, err = s.api.UpdateForm(ctx, s.formID, payload)
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "save form")
	}

	s.adopt(form)
	return &form, nil, nil
}

// Load replaces the draft with the persisted form. Server-assigned
// question ids are taken as-is.
func (s *Session) Load(ctx context.Context, id int) error {
	form, err := s.api.GetForm(ctx, id)
	if err != nil {
		return errors.Wrapf(err, "load form %d", id)
	}

	s.adopt(form)
	return nil
}

func (s *Session) adopt(form model.Form) {
	s.formID = form.ID
	s.version = form.Version
	s.name = form.Name
	s.questions = make([]model.Question, len(form.Questions))
	copy(s.questions, form.Questions)
}
