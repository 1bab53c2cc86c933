package api

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/oakline/taskconsole/internal/apperr"
	"github.com/oakline/taskconsole/internal/dao"
	"github.com/oakline/taskconsole/internal/model"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ListQuery is the validated query state of a list request.
type ListQuery struct {
	PageIndex int
	PageSize  int
	Filters   model.TaskListFilters
	Sort      model.TaskSort
}

// knownParams: anything else in the query string fails the request instead
// of being silently ignored.
var knownParams = map[string]bool{
	"pageIndex": true,
	"pageSize":  true,
	"searchKey": true,
	"status":    true,
	"priority":  true,
	"category":  true,
	"orderBy":   true,
	"order":     true,
}

// ParseListQuery validates and coerces the raw query string. pageIndex and
// pageSize are clamped into range when numeric; non-numeric values, unknown
// parameters and unknown filter values are validation errors.
func ParseListQuery(values url.Values) (*ListQuery, error) {
	fields := map[string]string{}
	for key := range values {
		if !knownParams[key] {
			fields[key] = "unrecognized query parameter"
		}
	}

	q := &ListQuery{
		PageIndex: 0,
		PageSize:  defaultPageSize,
		Sort:      model.TaskSort{Column: "createdAt", Desc: true},
	}

	if raw := values.Get("pageIndex"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			fields["pageIndex"] = "must be an integer"
		} else if n < 0 {
			q.PageIndex = 0
		} else {
			q.PageIndex = n
		}
	}
	if raw := values.Get("pageSize"); raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			fields["pageSize"] = "must be an integer"
		case n < 1:
			q.PageSize = 1
		case n > maxPageSize:
			q.PageSize = maxPageSize
		default:
			q.PageSize = n
		}
	}

	q.Filters.SearchKey = strings.TrimSpace(values.Get("searchKey"))
	q.Filters.Statuses = parseEnumSet(values.Get("status"), model.ValidStatus, "status", fields)
	q.Filters.Priorities = parseEnumSet(values.Get("priority"), model.ValidPriority, "priority", fields)
	q.Filters.Categories = parseEnumSet(values.Get("category"), model.ValidCategory, "category", fields)

	if raw := values.Get("orderBy"); raw != "" {
		if !dao.SortableColumn(raw) {
			fields["orderBy"] = "not a sortable column"
		} else {
			q.Sort.Column = raw
			q.Sort.Desc = false // explicit orderBy defaults ascending unless order says otherwise
		}
	}
	if raw := values.Get("order"); raw != "" {
		switch strings.ToLower(raw) {
		case "asc":
			q.Sort.Desc = false
		case "desc":
			q.Sort.Desc = true
		default:
			fields["order"] = `must be "asc" or "desc"`
		}
	}

	if len(fields) > 0 {
		return nil, apperr.Validation(fields)
	}
	return q, nil
}

func parseEnumSet(raw string, valid func(string) bool, param string, fields map[string]string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(raw, ",") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if !valid(v) {
			fields[param] = "unknown " + param + " value: " + v
			return nil
		}
		out = append(out, v)
	}
	return out
}
