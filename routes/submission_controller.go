package routes

import (
	"database/sql"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/goccy/go-json"

	"form-forge/app"
	"form-forge/httpx"
	"form-forge/log"
	"form-forge/model"
	"form-forge/validate"
)

// PublicGetForm serves the form definition respondents fill in.
func PublicGetForm(app app.App) http.HandlerFunc {
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

		// respondents have no use for the lock version
		form.Version = 0
		render.JSON(w, r, form)
	}
}

// clientIP strips the port from the remote address, keeping IPv6
// addresses intact ("[::1]:54321" is "::1", not "[").
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

type ipCheck struct {
	op     bool
	ip     string
	result chan<- bool
}

// SubmitForm collects one set of answers per IP. A goroutine serializes
// the in-flight IP set so two concurrent submissions from the same
// address cannot both pass the duplicate check.
func SubmitForm(app app.App) http.HandlerFunc {
	checkIpStart := make(chan ipCheck)
	go func() {
		inFlight := make(map[string]bool)

		for {
			req := <-checkIpStart
			if req.op {
				req.result <- inFlight[req.ip]
				inFlight[req.ip] = true
			} else {
				delete(inFlight, req.ip)
			}
		}
	}()

	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		submit := model.SubmitRequest{}
		err = render.DecodeJSON(r.Body, &submit)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_body")
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

		if errs := validate.Answers(form.Questions, submit.Answers); len(errs) > 0 {
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, map[string]any{
				"errors": errs,
			})
			return
		}

		ip := clientIP(r)
		// check ip is not submitting now
		checkIpDone := make(chan bool)
		checkIpStart <- ipCheck{true, ip, checkIpDone}
		if <-checkIpDone {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "ip.already_submitted")
			return
		}
		defer func() { checkIpStart <- ipCheck{false, ip, nil} }()

		// check ip did not already submit
		var alreadySubmitted bool
		err = app.QueryRowContext(r.Context(), `
			SELECT 1 FROM submission
			WHERE form_id = ?
				AND ip = ?`,
			formId,
			ip,
		).Scan(&alreadySubmitted)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			httpx.LogInternalError(w, "db.get_ip.scan", err)
			return
		}
		if alreadySubmitted {
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "ip.already_submitted")
			return
		}

		labels := make(map[string]string, len(form.Questions))
		for _, q := range form.Questions {
			labels[q.ID] = q.Text
		}

		tx, err := app.BeginTx(r.Context(), nil)
		if err != nil {
			httpx.LogInternalError(w, "db.begin_tx", err)
			return
		}
		defer tx.Rollback()

		var submissionId int
		err = tx.QueryRowContext(r.Context(), `
			INSERT INTO submission (form_id, time, ip) VALUES (?, ?, ?)
			RETURNING id`,
			formId,
			time.Now(),
			ip,
		).Scan(&submissionId)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_submission", err)
			return
		}

		stmt, err := tx.PrepareContext(r.Context(), `
			INSERT INTO submission_answer (submission_id, question_id, question, value)
			VALUES (?, ?, ?, ?)`)
		if err != nil {
			httpx.LogInternalError(w, "db.insert_submission.answers.prepare", err)
			return
		}
		defer stmt.Close()

		for _, a := range submit.Answers {
			valueJson, err := json.Marshal(a.Value)
			if err != nil {
				httpx.LogInternalError(w, "db.insert_submission.answers.parse_value", err)
				return
			}
			_, err = stmt.ExecContext(r.Context(), submissionId, a.QuestionID, labels[a.QuestionID], string(valueJson))
			if err != nil {
				httpx.LogInternalError(w, "db.insert_submission.answers.insert", err)
				return
			}
		}

		err = tx.Commit()
		if err != nil {
			httpx.LogInternalError(w, "db.insert_submission.commit", err)
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id": submissionId,
		})
	}
}

// ListSubmissions returns every collected submission for one form.
func ListSubmissions(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formId, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.get_url_param.id")
			return
		}

		var exists bool
		err = app.QueryRowContext(r.Context(), `
			SELECT 1 FROM form WHERE id = ?`,
			formId,
		).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			httpx.LogNotFound(w, "get_submissions", formId)
			return
		}
		if err != nil {
			httpx.LogInternalError(w, "db.get_form.scan", err)
			return
		}

		rows, err := app.QueryContext(r.Context(), `
			SELECT
				s.id, s.time, s.ip,
				a.question_id, a.question, a.value
			FROM submission s
			INNER JOIN submission_answer a ON (s.id = a.submission_id)
			WHERE s.form_id = ?
			ORDER BY s.id`,
			formId,
		)
		if err != nil {
			httpx.LogInternalError(w, "db.get_submissions", err)
			return
		}
		defer rows.Close()

		submissions := []model.Submission{}
		for rows.Next() {
			s := model.Submission{}
			a := model.SubmissionAnswer{}
			var questionId, value string

			err = rows.Scan(&s.ID, &s.Time, &s.IP, &questionId, &a.Question, &value)
			if err != nil {
				httpx.LogInternalError(w, "db.get_submissions.scan", err)
				return
			}

			err = json.Unmarshal([]byte(value), &a.Value)
			if err != nil {
				httpx.LogInternalError(w, "db.get_submissions.parse_value", err)
				return
			}

			lastIdx := len(submissions) - 1
			if lastIdx > -1 && submissions[lastIdx].ID == s.ID {
				submissions[lastIdx].Answers[questionId] = a
			} else {
				s.Answers = map[string]model.SubmissionAnswer{questionId: a}
				submissions = append(submissions, s)
			}
		}
		if err = rows.Err(); err != nil {
			httpx.LogInternalError(w, "db.get_submissions.rows", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"submissions": submissions,
		})
	}
}
