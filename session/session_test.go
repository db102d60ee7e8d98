package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"form-forge/builder"
	"form-forge/model"
)

type fakeAPI struct {
	forms    map[int]model.Form
	nextID   int
	creates  int
	updates  int
	onCreate func()
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{forms: map[int]model.Form{}, nextID: 1}
}

func (f *fakeAPI) ListForms(ctx context.Context, page, perPage int, search string) (model.FormList, error) {
	list := model.FormList{Meta: model.NewListMeta(page, perPage, int64(len(f.forms)))}
	for _, form := range f.forms {
		list.Forms = append(list.Forms, form)
	}
	return list, nil
}

func (f *fakeAPI) GetForm(ctx context.Context, id int) (model.Form, error) {
	return f.forms[id], nil
}

func (f *fakeAPI) CreateForm(ctx context.Context, payload model.FormPayload) (model.Form, error) {
	f.creates++
	if f.onCreate != nil {
		f.onCreate()
	}

	form := f.store(f.nextID, 1, payload)
	f.nextID++
	return form, nil
}

func (f *fakeAPI) UpdateForm(ctx context.Context, id int, payload model.FormPayload) (model.Form, error) {
	f.updates++
	return f.store(id, payload.Version+1, payload), nil
}

func (f *fakeAPI) DeleteForm(ctx context.Context, id int) error {
	delete(f.forms, id)
	return nil
}

func (f *fakeAPI) store(id, version int, payload model.FormPayload) model.Form {
	questions := payload.Draft()
	for i := range questions {
		questions[i].ID = "srv-" + string(rune('a'+i))
	}
	form := model.Form{
		ID:        id,
		Version:   version,
		Name:      payload.Name,
		Questions: questions,
		UpdatedAt: time.Now(),
	}
	f.forms[id] = form
	return form
}

func TestSaveCreatesThenUpdates(t *testing.T) {
	api := newFakeAPI()
	s := New(api)

	s.SetName("Feedback")
	q := s.AddQuestion(model.SingleChoice)
	s.UpdateField(q.ID, builder.FieldText, "Pick one")
	s.UpdateField(q.ID, builder.FieldRequired, true)
	s.UpdateOption(q.ID, 0, "Yes")
	s.AddOption(q.ID)
	s.UpdateOption(q.ID, 1, "No")

	form, errs, err := s.Save(context.Background())
	require.NoError(t, err)
	require.Empty(t, errs)
	require.NotNil(t, form)

	assert.Equal(t, 1, form.ID)
	assert.Equal(t, 1, s.FormID())
	assert.Equal(t, 1, api.creates)
	require.Len(t, form.Questions, 1)
	assert.Equal(t, []string{"Yes", "No"}, form.Questions[0].Options)

	// second save goes down the update path with the echoed version
	s.SetName("Feedback v2")
	form, errs, err = s.Save(context.Background())
	require.NoError(t, err)
	require.Empty(t, errs)

	assert.Equal(t, 1, api.creates)
	assert.Equal(t, 1, api.updates)
	assert.Equal(t, 2, form.Version)
	assert.Equal(t, "Feedback v2", form.Name)
}

func TestSaveReportsValidationErrorsWithoutPersisting(t *testing.T) {
	api := newFakeAPI()
	s := New(api)

	s.AddQuestion(model.LongText)

	form, errs, err := s.Save(context.Background())
	require.NoError(t, err)
	assert.Nil(t, form)
	assert.Equal(t, []string{
		"Form name is required",
		"Question 1: question is required",
	}, errs)
	assert.Zero(t, api.creates)
}

func TestSaveBusyGuard(t *testing.T) {
	api := newFakeAPI()
	s := New(api)

	s.SetName("Feedback")
	q := s.AddQuestion(model.LongText)
	s.UpdateField(q.ID, builder.FieldText, "Your thoughts")

	// a save attempted while the first one is still with the collaborator
	var reentrant error
	api.onCreate = func() {
		_, _, reentrant = s.Save(context.Background())
	}

	_, errs, err := s.Save(context.Background())
	require.NoError(t, err)
	require.Empty(t, errs)

	assert.ErrorIs(t, reentrant, ErrSaveInFlight)
	assert.Equal(t, 1, api.creates)
}

func TestLoadAdoptsServerState(t *testing.T) {
	api := newFakeAPI()
	api.store(7, 3, model.FormPayload{
		Name: "Survey",
		Questions: []model.QuestionPayload{
			{Text: "Pick one", Type: model.SingleChoice, Required: true, Options: []string{"A", "B"}},
		},
	})

	s := New(api)
	require.NoError(t, s.Load(context.Background(), 7))

	assert.Equal(t, 7, s.FormID())
	assert.Equal(t, "Survey", s.FormName())

	questions := s.Questions()
	require.Len(t, questions, 1)
	assert.Equal(t, "srv-a", questions[0].ID, "server ids are accepted as-is")

	// loaded draft stays editable through the engine
	s.MoveQuestion("srv-a", builder.Up) // boundary no-op
	s.RemoveOption("srv-a", 1)
	assert.Equal(t, []string{"A"}, s.Questions()[0].Options)
}

func TestQuestionsReturnsACopy(t *testing.T) {
	s := New(newFakeAPI())
	s.AddQuestion(model.LongText)

	out := s.Questions()
	out[0].Text = "tampered"

	assert.Equal(t, "", s.Questions()[0].Text)
}
