package tableclient

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// SortSpec is one ordering key. The table typically sorts by a single
// column; only the first spec is sent on the wire.
type SortSpec struct {
	Column string
	Desc   bool
}

// QueryState is the client-side filter/sort/page state of one table.
// Mutate it through the setters: changing the search key or the column
// filters resets the page index so a shrunken result set cannot leave the
// table on an out-of-range page.
type QueryState struct {
	PageIndex     int
	PageSize      int
	SearchKey     string
	ColumnFilters map[string][]string
	Sort          []SortSpec
}

func NewQueryState() QueryState {
	return QueryState{PageSize: 10}
}

func (q *QueryState) SetPageIndex(i int) {
	if i < 0 {
		i = 0
	}
	q.PageIndex = i
}

func (q *QueryState) SetPageSize(n int) {
	if n < 1 {
		n = 1
	}
	q.PageSize = n
	q.PageIndex = 0
}

func (q *QueryState) SetSearchKey(s string) {
	q.SearchKey = strings.TrimSpace(s)
	q.PageIndex = 0
}

func (q *QueryState) SetColumnFilter(column string, values []string) {
	if q.ColumnFilters == nil {
		q.ColumnFilters = map[string][]string{}
	}
	if len(values) == 0 {
		delete(q.ColumnFilters, column)
	} else {
		q.ColumnFilters[column] = values
	}
	q.PageIndex = 0
}

func (q *QueryState) SetSort(specs ...SortSpec) {
	q.Sort = specs
}

// Encode produces the canonical query string: identical logical state always
// yields byte-identical output, so the result doubles as the cache key.
// Filter values are sorted before joining; url.Values.Encode sorts the keys.
func (q QueryState) Encode() string {
	v := url.Values{}
	v.Set("pageIndex", strconv.Itoa(q.PageIndex))
	pageSize := q.PageSize
	if pageSize < 1 {
		pageSize = 10
	}
	v.Set("pageSize", strconv.Itoa(pageSize))
	if q.SearchKey != "" {
		v.Set("searchKey", q.SearchKey)
	}
	for column, values := range q.ColumnFilters {
		if len(values) == 0 {
			continue
		}
		sorted := append([]string(nil), values...)
		sort.Strings(sorted)
		v.Set(column, strings.Join(sorted, ","))
	}
	// absent sort falls back to createdAt desc so tied rows cannot reorder
	// between requests
	orderBy, order := "createdAt", "desc"
	if len(q.Sort) > 0 {
		orderBy = q.Sort[0].Column
		order = "asc"
		if q.Sort[0].Desc {
			order = "desc"
		}
	}
	v.Set("orderBy", orderBy)
	v.Set("order", order)
	return v.Encode()
}
