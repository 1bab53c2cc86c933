package model

import "time"

// TaskStatus values match what the console UI renders, spaces included.
type TaskStatus string

const (
	StatusToDo      TaskStatus = "To Do"
	StatusInProcess TaskStatus = "In Process"
	StatusDone      TaskStatus = "Done"
	StatusCanceled  TaskStatus = "Canceled"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
	PriorityUrgent TaskPriority = "Urgent"
)

type TaskCategory string

const (
	CategoryPersonal TaskCategory = "Personal"
	CategoryWork     TaskCategory = "Work"
)

// ValidStatus reports whether s is one of the known status values.
func ValidStatus(s string) bool {
	switch TaskStatus(s) {
	case StatusToDo, StatusInProcess, StatusDone, StatusCanceled:
		return true
	}
	return false
}

func ValidPriority(s string) bool {
	switch TaskPriority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func ValidCategory(s string) bool {
	switch TaskCategory(s) {
	case CategoryPersonal, CategoryWork:
		return true
	}
	return false
}

// Task is the console task entity. UserID is set at creation and never
// changes; CreatedAt/UpdatedAt are maintained by gorm.
type Task struct {
	ID        int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	Title     string       `gorm:"size:255;not null" json:"title"`
	Content   string       `gorm:"type:text" json:"content,omitempty"`
	Status    TaskStatus   `gorm:"size:32;not null;default:'To Do';index" json:"status"`
	Priority  TaskPriority `gorm:"size:16;index" json:"priority,omitempty"`
	Category  TaskCategory `gorm:"size:16;index" json:"category,omitempty"`
	UserID    string       `gorm:"size:64;not null;index" json:"userId"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func (Task) TableName() string { return "tasks" }
