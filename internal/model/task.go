package model

import "time"

type TaskStatus string

const (
	TaskOpen    TaskStatus = "open"
	TaskDone    TaskStatus = "done"
	TaskSkipped TaskStatus = "skipped"
)

// Task is a single due-dated unit of work. TemplateID is nil for one-off
// tasks. DueDate is a calendar date; the time-of-day component is always
// midnight UTC.
type Task struct {
	ID              string     `json:"id"`
	HouseholdID     string     `json:"household_id"`
	TemplateID      *string    `json:"template_id"`
	Title           string     `json:"title"`
	DueDate         time.Time  `json:"due_date"`
	AssignedUserID  string     `json:"assigned_user_id"`
	AreaID          string     `json:"area_id,omitempty"`
	Status          TaskStatus `json:"status"`
	CompletedAt     *time.Time `json:"completed_at"`
	CompletedByUser string     `json:"completed_by_user_id,omitempty"`
	DeletedAt       *time.Time `json:"deleted_at"`
	DeletedByUser   string     `json:"deleted_by_user_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type CreateTaskInput struct {
	HouseholdID    string
	TemplateID     *string
	Title          string
	DueDate        time.Time
	AssignedUserID string
	AreaID         string
	Status         TaskStatus
}

// DateOnly truncates t to its calendar day in UTC.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
