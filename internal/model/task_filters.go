package model

// TaskListFilters represents optional filters for listing tasks.
// Zero values / empty slices mean filter not applied. SearchKey is a fuzzy
// title match (wrapped with % automatically, case-insensitive). All active
// filters combine with AND. UserID is always set by the service layer:
// list queries are scoped to the owning user.
type TaskListFilters struct {
	UserID     string
	SearchKey  string
	Statuses   []string
	Priorities []string
	Categories []string
}

// TaskSort is the requested ordering. Column must come from the endpoint's
// whitelist; the dao always appends an id tiebreak so ties cannot shuffle
// rows between pages.
type TaskSort struct {
	Column string
	Desc   bool
}
