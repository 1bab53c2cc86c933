package model

// TaskPage is the list endpoint response body. List holds at most PageSize
// rows; Total counts every row matching the same filters.
type TaskPage struct {
	List      []*Task `json:"list"`
	Total     int64   `json:"total"`
	PageIndex int     `json:"pageIndex"`
	PageSize  int     `json:"pageSize"`
	TotalPage int     `json:"totalPage"`
}

// NewTaskPage computes TotalPage from total and pageSize (ceil division).
func NewTaskPage(list []*Task, total int64, pageIndex, pageSize int) *TaskPage {
	if list == nil {
		list = []*Task{}
	}
	totalPage := 0
	if pageSize > 0 {
		totalPage = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return &TaskPage{
		List:      list,
		Total:     total,
		PageIndex: pageIndex,
		PageSize:  pageSize,
		TotalPage: totalPage,
	}
}
