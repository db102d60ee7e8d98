// Package client is the caller side of the form persistence API.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"form-forge/model"
)

// Collaborator is the persistence contract the editing core depends on.
type Collaborator interface {
	ListForms(ctx context.Context, page, perPage int, search string) (model.FormList, error)
	GetForm(ctx context.Context, id int) (model.Form, error)
	CreateForm(ctx context.Context, payload model.FormPayload) (model.Form, error)
	UpdateForm(ctx context.Context, id int, payload model.FormPayload) (model.Form, error)
	DeleteForm(ctx context.Context, id int) error
}

// Client talks to the REST service. Remote failures come back as a single
// error whose message is what the server reported; retrying is left to
// the caller.
type Client struct {
	base  string
	token string
	http  *http.Client
}

var _ Collaborator = (*Client)(nil)

// New builds a client for the service at base (e.g. "http://localhost:8080"),
// authenticating with the given bearer token.
func New(base, token string) *Client {
	return &Client{
		base:  strings.TrimRight(base, "/"),
		token: token,
		http:  &http.Client{},
	}
}

func (c *Client) ListForms(ctx context.Context, page, perPage int, search string) (list model.FormList, err error) {
	query := url.Values{
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(perPage)},
	}
	if search != "" {
		query.Set("search", search)
	}

	err = c.do(ctx, http.MethodGet, "/api/admin/forms?"+query.Encode(), nil, &list)
	return list, errors.Wrap(err, "list forms")
}

func (c *Client) GetForm(ctx context.Context, id int) (form model.Form, err error) {
	err = c.do(ctx, http.MethodGet, fmt.Sprintf("/api/admin/forms/%d", id), nil, &form)
	return form, errors.Wrapf(err, "get form %d", id)
}

func (c *Client) CreateForm(ctx context.Context, payload model.FormPayload) (form model.Form, err error) {
	err = c.do(ctx, http.MethodPost, "/api/admin/forms", &payload, &form)
	return form, errors.Wrap(err, "create form")
}

func (c *Client) UpdateForm(ctx context.Context, id int, payload model.FormPayload) (form model.Form, err error) {
	err = c.do(ctx, http.MethodPut, fmt.Sprintf("/api/admin/forms/%d", id), &payload, &form)
	return form, errors.Wrapf(err, "update form %d", id)
}

func (c *Client) DeleteForm(ctx context.Context, id int) error {
	err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/forms/%d", id), nil, nil)
	return errors.Wrapf(err, "delete form %d", id)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("content-type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return remoteError(resp)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// remoteError condenses an error response into one message. Validation
// failures arrive as {"errors": [...]}; everything else is plain text.
func remoteError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var body struct {
		Errors []string `json:"errors"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && len(body.Errors) > 0 {
		return errors.Errorf("%s", strings.Join(body.Errors, "; "))
	}

	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = resp.Status
	}
	return errors.Errorf("server answered %d: %s", resp.StatusCode, msg)
}
