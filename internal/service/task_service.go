package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/oakline/taskconsole/internal/apperr"
	"github.com/oakline/taskconsole/internal/consts"
	"github.com/oakline/taskconsole/internal/core"
	"github.com/oakline/taskconsole/internal/dao"
	"github.com/oakline/taskconsole/internal/logging"
	"github.com/oakline/taskconsole/internal/model"
)

// CreateTaskInput is the POST body. Server-assigned fields are absent on
// purpose; status defaults to "To Do" when empty.
type CreateTaskInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Category string `json:"category"`
}

// UpdateTaskInput is the PATCH body: nil means field untouched, any present
// field obeys the same rules as create.
type UpdateTaskInput struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Status   *string `json:"status"`
	Priority *string `json:"priority"`
	Category *string `json:"category"`
}

// TaskService owns validation, defaults and ownership scoping. Every dao
// call is scoped to the calling user's id; "not owned" and "does not exist"
// both come back as apperr.NotFound.
type TaskService struct {
	*core.BaseComponent
	TaskDao dao.TaskDao
}

func NewTaskService(td dao.TaskDao) *TaskService {
	return &TaskService{
		BaseComponent: core.NewBaseComponent(consts.COMP_SVC_TASK, consts.COMP_DAO_TASK),
		TaskDao:       td,
	}
}

func (s *TaskService) ListPage(ctx context.Context, userID string, f *model.TaskListFilters, sort model.TaskSort, pageIndex, pageSize int) (*model.TaskPage, error) {
	f.UserID = userID
	list, err := s.TaskDao.ListFiltered(ctx, f, sort, pageSize, pageIndex*pageSize)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	total, err := s.TaskDao.CountFiltered(ctx, f)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return model.NewTaskPage(list, total, pageIndex, pageSize), nil
}

func (s *TaskService) CreateTask(ctx context.Context, userID string, in *CreateTaskInput) (*model.Task, error) {
	fields := map[string]string{}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		fields["title"] = "title must not be empty"
	}
	status := in.Status
	if status == "" {
		status = string(model.StatusToDo)
	} else if !model.ValidStatus(status) {
		fields["status"] = "unknown status value"
	}
	if in.Priority != "" && !model.ValidPriority(in.Priority) {
		fields["priority"] = "unknown priority value"
	}
	if in.Category != "" && !model.ValidCategory(in.Category) {
		fields["category"] = "unknown category value"
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}

	t := &model.Task{
		Title:    title,
		Content:  in.Content,
		Status:   model.TaskStatus(status),
		Priority: model.TaskPriority(in.Priority),
		Category: model.TaskCategory(in.Category),
		UserID:   userID,
	}
	if err := s.TaskDao.Create(ctx, t); err != nil {
		return nil, apperr.Internal(err)
	}
	logging.Infof(ctx, "task created id=%d user=%s", t.ID, userID)
	return t, nil
}

func (s *TaskService) GetTask(ctx context.Context, userID string, id int64) (*model.Task, error) {
	t, err := s.TaskDao.Get(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound()
		}
		return nil, apperr.Internal(err)
	}
	return t, nil
}

func (s *TaskService) UpdateTask(ctx context.Context, userID string, id int64, in *UpdateTaskInput) (*model.Task, error) {
	fields := map[string]string{}
	updates := map[string]any{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			fields["title"] = "title must not be empty"
		}
		updates["title"] = title
	}
	if in.Content != nil {
		updates["content"] = *in.Content
	}
	if in.Status != nil {
		if !model.ValidStatus(*in.Status) {
			fields["status"] = "unknown status value"
		}
		updates["status"] = *in.Status
	}
	if in.Priority != nil {
		if *in.Priority != "" && !model.ValidPriority(*in.Priority) {
			fields["priority"] = "unknown priority value"
		}
		updates["priority"] = *in.Priority
	}
	if in.Category != nil {
		if *in.Category != "" && !model.ValidCategory(*in.Category) {
			fields["category"] = "unknown category value"
		}
		updates["category"] = *in.Category
	}
	if len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}
	if len(updates) == 0 {
		// an empty patch is an explicit touch, updated_at still moves
		return s.touch(ctx, userID, id)
	}

	t, err := s.TaskDao.UpdateFields(ctx, id, userID, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound()
		}
		return nil, apperr.Internal(err)
	}
	logging.Infof(ctx, "task updated id=%d user=%s", id, userID)
	return t, nil
}

func (s *TaskService) touch(ctx context.Context, userID string, id int64) (*model.Task, error) {
	t, err := s.TaskDao.UpdateFields(ctx, id, userID, map[string]any{"title": gorm.Expr("title")})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound()
		}
		return nil, apperr.Internal(err)
	}
	return t, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, userID string, id int64) (*model.Task, error) {
	t, err := s.TaskDao.Delete(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound()
		}
		return nil, apperr.Internal(err)
	}
	logging.Infof(ctx, "task deleted id=%d user=%s", id, userID)
	return t, nil
}
