package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/oakline/taskconsole/internal/apperr"
	"github.com/oakline/taskconsole/internal/auth"
	"github.com/oakline/taskconsole/internal/consts"
	"github.com/oakline/taskconsole/internal/core"
	"github.com/oakline/taskconsole/internal/service"
)

type TaskController struct {
	*core.BaseComponent
	TaskSvc *service.TaskService
}

func NewTaskController(svc *service.TaskService) *TaskController {
	return &TaskController{
		BaseComponent: core.NewBaseComponent(consts.COMP_CTRL_TASK, consts.COMP_SVC_TASK),
		TaskSvc:       svc,
	}
}

// taskID parses the path id. Non-integer or non-positive ids fail with the
// invalid-identifier error, which clients can tell apart from body
// validation failures.
func taskID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidID(raw)
	}
	return id, nil
}

func (tc *TaskController) listTasks(w http.ResponseWriter, r *http.Request) {
	q, err := ParseListQuery(r.URL.Query())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	sess := auth.SessionFrom(r.Context())
	page, err := tc.TaskSvc.ListPage(r.Context(), sess.UserID, &q.Filters, q.Sort, q.PageIndex, q.PageSize)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (tc *TaskController) createTask(w http.ResponseWriter, r *http.Request) {
	var in service.CreateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, r, apperr.ValidationMsg("invalid json body"))
		return
	}
	sess := auth.SessionFrom(r.Context())
	t, err := tc.TaskSvc.CreateTask(r.Context(), sess.UserID, &in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (tc *TaskController) getTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	sess := auth.SessionFrom(r.Context())
	t, err := tc.TaskSvc.GetTask(r.Context(), sess.UserID, id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (tc *TaskController) updateTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var in service.UpdateTaskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErr(w, r, apperr.ValidationMsg("invalid json body"))
		return
	}
	sess := auth.SessionFrom(r.Context())
	t, err := tc.TaskSvc.UpdateTask(r.Context(), sess.UserID, id, &in)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (tc *TaskController) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := taskID(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	sess := auth.SessionFrom(r.Context())
	t, err := tc.TaskSvc.DeleteTask(r.Context(), sess.UserID, id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Task deleted successfully",
		"deletedTask": t,
	})
}

// Register mounts the task routes behind the session middleware.
func (tc *TaskController) Register(r chi.Router, store auth.SessionStore) {
	r.Route("/api/console/tasks", func(r chi.Router) {
		r.Use(RequireSession(store))
		r.Get("/", tc.listTasks)
		r.Post("/", tc.createTask)
		r.Get("/{id}", tc.getTask)
		r.Patch("/{id}", tc.updateTask)
		r.Delete("/{id}", tc.deleteTask)
	})
}
