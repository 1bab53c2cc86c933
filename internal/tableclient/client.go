package tableclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/oakline/taskconsole/internal/apperr"
	"github.com/oakline/taskconsole/internal/model"
	"github.com/oakline/taskconsole/internal/service"
)

// API is what the Store needs from the server. Client is the real
// implementation; tests substitute their own.
type API interface {
	ListTasks(ctx context.Context, q QueryState) (*model.TaskPage, error)
	GetTask(ctx context.Context, id int64) (*model.Task, error)
	CreateTask(ctx context.Context, in *service.CreateTaskInput) (*model.Task, error)
	UpdateTask(ctx context.Context, id int64, in *service.UpdateTaskInput) (*model.Task, error)
	DeleteTask(ctx context.Context, id int64) (*model.Task, error)
}

// Client talks to the console task API. Failed requests surface as errors;
// there is no automatic retry, a retry masks a persistently broken backend
// as flaky.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

const tasksPath = "/api/console/tasks"

func (c *Client) ListTasks(ctx context.Context, q QueryState) (*model.TaskPage, error) {
	var page model.TaskPage
	if err := c.do(ctx, http.MethodGet, tasksPath+"?"+q.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	var t model.Task
	if err := c.do(ctx, http.MethodGet, taskPath(id), nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) CreateTask(ctx context.Context, in *service.CreateTaskInput) (*model.Task, error) {
	var t model.Task
	if err := c.do(ctx, http.MethodPost, tasksPath, in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) UpdateTask(ctx context.Context, id int64, in *service.UpdateTaskInput) (*model.Task, error) {
	var t model.Task
	if err := c.do(ctx, http.MethodPatch, taskPath(id), in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) DeleteTask(ctx context.Context, id int64) (*model.Task, error) {
	var out struct {
		Message     string      `json:"message"`
		DeletedTask *model.Task `json:"deletedTask"`
	}
	if err := c.do(ctx, http.MethodDelete, taskPath(id), nil, &out); err != nil {
		return nil, err
	}
	return out.DeletedTask, nil
}

func taskPath(id int64) string {
	return tasksPath + "/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// decodeError rebuilds the server's error taxonomy from status code and
// envelope so callers can branch on kind, not on strings.
func decodeError(resp *http.Response) error {
	var env struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	_ = json.Unmarshal(raw, &env)
	if env.Message == "" {
		env.Message = http.StatusText(resp.StatusCode)
	}
	kind := apperr.KindInternal
	switch resp.StatusCode {
	case http.StatusBadRequest:
		kind = apperr.KindValidation
	case http.StatusUnauthorized:
		kind = apperr.KindUnauthorized
	case http.StatusNotFound:
		kind = apperr.KindNotFound
	}
	return &apperr.Error{Kind: kind, Message: env.Message, Fields: env.Errors}
}
