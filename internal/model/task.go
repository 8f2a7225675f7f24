package model

// Priority levels understood by the task tracker.
const (
	PriorityNone   = 0
	PriorityUrgent = 1
	PriorityHigh   = 2
	PriorityNormal = 3
	PriorityLow    = 4
)

// Task is a unit of work to be created in the task tracker.
type Task struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Priority    int      `json:"priority"`

	// DueDate is a Unix epoch timestamp in milliseconds.
	DueDate int64 `json:"due_date"`

	// DueDateTime reports whether DueDate carries a meaningful time of day.
	DueDateTime bool `json:"due_date_time"`
}
