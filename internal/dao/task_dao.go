package dao

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/oakline/taskconsole/internal/components/postgres"
	"github.com/oakline/taskconsole/internal/consts"
	"github.com/oakline/taskconsole/internal/core"
	"github.com/oakline/taskconsole/internal/model"
)

type TaskDao interface {
	Create(ctx context.Context, t *model.Task) error
	Get(ctx context.Context, id int64, userID string) (*model.Task, error)
	UpdateFields(ctx context.Context, id int64, userID string, updates map[string]any) (*model.Task, error)
	Delete(ctx context.Context, id int64, userID string) (*model.Task, error)
	ListFiltered(ctx context.Context, f *model.TaskListFilters, sort model.TaskSort, limit, offset int) ([]*model.Task, error)
	CountFiltered(ctx context.Context, f *model.TaskListFilters) (int64, error)
}

// sortColumns whitelists orderBy values and maps them to columns. Anything
// else is rejected upstream by query validation.
var sortColumns = map[string]string{
	"id":        "id",
	"title":     "title",
	"status":    "status",
	"priority":  "priority",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// SortableColumn reports whether the orderBy key is allowed.
func SortableColumn(key string) bool {
	_, ok := sortColumns[key]
	return ok
}

type taskDaoImpl struct {
	*core.BaseComponent
	pgComp *postgres.Component
	db     *gorm.DB
}

func NewTaskDao(pg *postgres.Component) TaskDao {
	return &taskDaoImpl{
		BaseComponent: core.NewBaseComponent(consts.COMP_DAO_TASK, consts.COMPONENT_POSTGRES),
		pgComp:        pg,
	}
}

func (d *taskDaoImpl) Start(ctx context.Context) error {
	if err := d.BaseComponent.Start(ctx); err != nil {
		return err
	}
	d.db = d.pgComp.DB()
	if d.db == nil {
		return fmt.Errorf("postgres db unavailable")
	}
	return nil
}

func (d *taskDaoImpl) Create(ctx context.Context, t *model.Task) error {
	return d.db.WithContext(ctx).Create(t).Error
}

func (d *taskDaoImpl) Get(ctx context.Context, id int64, userID string) (*model.Task, error) {
	var t model.Task
	if err := d.db.WithContext(ctx).Where("id=? AND user_id=?", id, userID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateFields applies a partial update and returns the refreshed row.
// Zero rows affected means absent or not owned; both surface as
// gorm.ErrRecordNotFound.
func (d *taskDaoImpl) UpdateFields(ctx context.Context, id int64, userID string, updates map[string]any) (*model.Task, error) {
	res := d.db.WithContext(ctx).Model(&model.Task{}).
		Where("id=? AND user_id=?", id, userID).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return d.Get(ctx, id, userID)
}

func (d *taskDaoImpl) Delete(ctx context.Context, id int64, userID string) (*model.Task, error) {
	var deleted *model.Task
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var t model.Task
		if err := tx.Where("id=? AND user_id=?", id, userID).First(&t).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Task{}, t.ID).Error; err != nil {
			return err
		}
		deleted = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

func (d *taskDaoImpl) ListFiltered(ctx context.Context, f *model.TaskListFilters, sort model.TaskSort, limit, offset int) ([]*model.Task, error) {
	var list []*model.Task
	q := d.db.WithContext(ctx).Model(&model.Task{}).Order(orderClause(sort))
	q = applyTaskFilters(q, f)
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (d *taskDaoImpl) CountFiltered(ctx context.Context, f *model.TaskListFilters) (int64, error) {
	q := d.db.WithContext(ctx).Model(&model.Task{})
	q = applyTaskFilters(q, f)
	var cnt int64
	if err := q.Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}

// orderClause builds the ORDER BY with an id tiebreak so ties on the primary
// key never shuffle rows between pages.
func orderClause(s model.TaskSort) string {
	col, ok := sortColumns[s.Column]
	if !ok {
		col = "created_at"
		s.Desc = true
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	if col == "id" {
		return "id " + dir
	}
	return fmt.Sprintf("%s %s, id %s", col, dir, dir)
}

func applyTaskFilters(q *gorm.DB, f *model.TaskListFilters) *gorm.DB {
	if f == nil {
		return q
	}
	if f.UserID != "" {
		q = q.Where("user_id=?", f.UserID)
	}
	if s := strings.TrimSpace(f.SearchKey); s != "" {
		q = q.Where("title ILIKE ?", "%"+s+"%")
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if len(f.Priorities) > 0 {
		q = q.Where("priority IN ?", f.Priorities)
	}
	if len(f.Categories) > 0 {
		q = q.Where("category IN ?", f.Categories)
	}
	return q
}
