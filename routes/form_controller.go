package routes

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/goccy/go-json"
	"github.com/gofrs/uuid"

	"form-forge/app"
	"form-forge/httpx"
	"form-forge/log"
	"form-forge/model"
	"form-forge/validate"
)

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := model.FormPayload{}
		err := render.DecodeJSON(r.Body, &payload)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		result := validate.Run(payload.Name, payload.Draft())
		if !result.OK() {
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, map[string]any{
				"errors": result.Errors,
			})
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var formId int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO form (name, updated_at) VALUES (?, ?)
			RETURNING id`,
			result.Payload.Name,
			time.Now(),
		).Scan(&formId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_form", err)
			return
		}

		err = insertQuestions(r.Context(), tx, formId, result.Payload.Questions)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_form.questions", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_form.commit", err)
			return
		}

		form, err := fetchForm(r.Context(), app.DB, formId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_form.reload", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, form)
	}
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, perPage, search := listParams(r)
		pattern := "%" + search + "%"

		var total int64
		err := app.QueryRowContext(r.Context(), `
			SELECT COUNT(*) FROM form WHERE name LIKE ?`,
			pattern,
		).Scan(&total)
		if err != nil {
			httpx.LogInternalError(w, "db.count_forms", err)
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT f.id, f.version, f.name, f.updated_at
			FROM form f
			WHERE f.name LIKE ?
			ORDER BY f.updated_at DESC
			LIMIT ? OFFSET ?`,
			pattern,
			perPage,
			(page-1)*perPage,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_forms", err)
			return
		}
		defer rows.Close()

		forms := []model.Form{}
		for rows.Next() {
			f := model.Form{}
			err = rows.Scan(&f.ID, &f.Version, &f.Name, &f.UpdatedAt)
			if err != nil {
				httpx.LogInternalError(w, "db.get_forms.scan", err)
				return
			}

			forms = append(forms, f)
		}

		render.JSON(w, r, model.FormList{
			Forms: forms,
			Meta:  model.NewListMeta(page, perPage, total),
		})
	}
}

func GetFormByID(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		form, err := fetchForm(r.Context(), app.DB, formId)
		if err == sql.ErrNoRows {
			httpx.LogNotFound(w, "get_form", formId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_form", err)
			return
		}

		render.JSON(w, r, form)
	}
}

func UpdateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		payload := model.FormPayload{}
		err = render.DecodeJSON(r.Body, &payload)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
			return
		}

		result := validate.Run(payload.Name, payload.Draft())
		if !result.OK() {
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, map[string]any{
				"errors": result.Errors,
			})
			return
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		res, err := tx.ExecContext(r.Context(), `
			UPDATE form
			SET
				name = ?,
				updated_at = ?,
				version = version+1
			WHERE	id = ?
				AND version = ?`,
			result.Payload.Name,
			time.Now(),
			formId,
			payload.Version,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_form", err)
			return
		}
		// optimistic lock
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.verify", err)
			return
		}
		if n < 1 {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "db.update_form.verify.conflict")
			return
		}

		// replace all questions
		_, err = tx.ExecContext(r.Context(), `
			DELETE FROM form_question
			WHERE form_id = ?`,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.delete_questions", err)
			return
		}

		err = insertQuestions(r.Context(), tx, formId, result.Payload.Questions)
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.questions", err)
			return
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.commit", err)
			return
		}

		form, err := fetchForm(r.Context(), app.DB, formId)
		if err != nil {
			httpx.LogInternalError(w, "db.update_form.reload", err)
			return
		}

		render.JSON(w, r, form)
	}
}

func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		// questions and submissions go with the form
		res, err := app.ExecContext(r.Context(), `
			DELETE FROM form WHERE id = ?`,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form", err)
			return
		}
		n, err := res.RowsAffected()
		if err != nil {
			httpx.LogInternalError(w, "db.delete_form.verify", err)
			return
		}
		if n < 1 {
			httpx.LogNotFound(w, "delete_form", formId)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listParams(r *http.Request) (page, perPage int, search string) {
	query := r.URL.Query()

	page, _ = strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ = strconv.Atoi(query.Get("per_page"))
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage, query.Get("search")
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// fetchForm loads one form with its ordered questions. Returns
// sql.ErrNoRows when the form does not exist.
func fetchForm(ctx context.Context, db querier, formId int) (model.Form, error) {
	form := model.Form{Questions: []model.Question{}}
	err := db.QueryRowContext(ctx, `
		SELECT f.id, f.version, f.name, f.updated_at
		FROM form f
		WHERE f.id = ?`,
		formId,
	).Scan(&form.ID, &form.Version, &form.Name, &form.UpdatedAt)
	if err != nil {
		return form, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT q.id, q.type, q.question, q.required, q.options, q.placeholder
		FROM form_question q
		WHERE q.form_id = ?
		ORDER BY q.position`,
		formId,
	)
	if err != nil {
		return form, err
	}
	defer rows.Close()

	for rows.Next() {
		q := model.Question{}
		var opts, placeholder sql.NullString
		err = rows.Scan(&q.ID, &q.Type, &q.Text, &q.Required, &opts, &placeholder)
		if err != nil {
			return form, err
		}

		if opts.String != "" {
			err = json.Unmarshal([]byte(opts.String), &q.Options)
			if err != nil {
				return form, err
			}
		}
		q.Placeholder = placeholder.String

		form.Questions = append(form.Questions, q)
	}

	return form, rows.Err()
}

func insertQuestions(ctx context.Context, tx *sql.Tx, formId int, questions []model.QuestionPayload) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO form_question (id, form_id, position, type, question, required, options, placeholder)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, q := range questions {
		var optionsJson []byte
		if q.Options != nil {
			optionsJson, err = json.Marshal(q.Options)
			if err != nil {
				return err
			}
		}

		_, err = stmt.ExecContext(ctx,
			uuid.Must(uuid.NewV4()).String(),
			formId,
			i,
			q.Type,
			q.Text,
			q.Required,
			string(optionsJson),
			q.Placeholder,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
