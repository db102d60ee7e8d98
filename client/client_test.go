package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"form-forge/model"
)

func TestCreateForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/admin/forms", r.URL.Path)
		assert.Equal(t, "Bearer tok123", r.Header.Get("authorization"))

		var payload model.FormPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Feedback", payload.Name)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(model.Form{ID: 42, Version: 1, Name: payload.Name})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok123")
	form, err := c.CreateForm(context.Background(), model.FormPayload{
		Name: "Feedback",
		Questions: []model.QuestionPayload{
			{Text: "Pick one", Type: model.SingleChoice, Options: []string{"Yes", "No"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 42, form.ID)
	assert.Equal(t, 1, form.Version)
}

func TestValidationErrorsAreJoined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"errors": []string{"Form name is required", "Add at least one question"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok123")
	_, err := c.CreateForm(context.Background(), model.FormPayload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Form name is required; Add at least one question")
}

func TestListForms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/forms", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "5", r.URL.Query().Get("per_page"))
		assert.Equal(t, "feed", r.URL.Query().Get("search"))

		json.NewEncoder(w).Encode(model.FormList{
			Forms: []model.Form{{ID: 6, Name: "Feedback"}},
			Meta:  model.NewListMeta(2, 5, 6),
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok123")
	list, err := c.ListForms(context.Background(), 2, 5, "feed")
	require.NoError(t, err)
	require.Len(t, list.Forms, 1)
	assert.Equal(t, "Feedback", list.Forms[0].Name)
	assert.Equal(t, int64(6), list.Meta.Total)
	assert.Equal(t, 2, list.Meta.TotalPages)
}

func TestGetFormNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, "tok123")
	_, err := c.GetForm(context.Background(), 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server answered 404")
}

func TestUpdateAndDelete(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		json.NewEncoder(w).Encode(model.Form{ID: 7, Version: 2, Name: "Renamed"})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok123")

	form, err := c.UpdateForm(context.Background(), 7, model.FormPayload{Name: "Renamed", Version: 1})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/api/admin/forms/7", gotPath)
	assert.Equal(t, 2, form.Version)

	require.NoError(t, c.DeleteForm(context.Background(), 7))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/api/admin/forms/7", gotPath)
}
