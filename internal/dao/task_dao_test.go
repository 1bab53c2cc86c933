package dao

import (
	"testing"

	"github.com/oakline/taskconsole/internal/model"
)

func TestOrderClauseAddsIDTiebreak(t *testing.T) {
	cases := []struct {
		sort model.TaskSort
		want string
	}{
		{model.TaskSort{Column: "createdAt", Desc: true}, "created_at DESC, id DESC"},
		{model.TaskSort{Column: "title", Desc: false}, "title ASC, id ASC"},
		{model.TaskSort{Column: "priority", Desc: true}, "priority DESC, id DESC"},
		// id itself needs no tiebreak
		{model.TaskSort{Column: "id", Desc: false}, "id ASC"},
		// unknown columns fall back to the default ordering
		{model.TaskSort{Column: "user_id; DROP TABLE tasks", Desc: false}, "created_at DESC, id DESC"},
		{model.TaskSort{}, "created_at DESC, id DESC"},
	}
	for _, tc := range cases {
		if got := orderClause(tc.sort); got != tc.want {
			t.Fatalf("orderClause(%+v) = %q, want %q", tc.sort, got, tc.want)
		}
	}
}

func TestSortableColumn(t *testing.T) {
	for _, key := range []string{"id", "title", "status", "priority", "createdAt", "updatedAt"} {
		if !SortableColumn(key) {
			t.Fatalf("SortableColumn(%q) = false", key)
		}
	}
	for _, key := range []string{"userId", "content", "created_at", "CreatedAt", ""} {
		if SortableColumn(key) {
			t.Fatalf("SortableColumn(%q) = true", key)
		}
	}
}
