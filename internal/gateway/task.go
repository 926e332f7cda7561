package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/shipshape-app/shipshape/internal/model"
)

type taskRow struct {
	ID                string     `json:"id"`
	HouseholdID       string     `json:"household_id"`
	TemplateID        *string    `json:"template_id"`
	Title             string     `json:"title"`
	DueDate           string     `json:"due_date"`
	AssignedUserID    string     `json:"assigned_user_id"`
	AreaID            string     `json:"area_id"`
	Status            string     `json:"status"`
	CompletedAt       *time.Time `json:"completed_at"`
	CompletedByUserID string     `json:"completed_by_user_id"`
	DeletedAt         *time.Time `json:"deleted_at"`
	DeletedByUserID   string     `json:"deleted_by_user_id"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func mapTask(row taskRow) (model.Task, error) {
	due, err := parseDate(row.DueDate)
	if err != nil {
		return model.Task{}, err
	}
	return model.Task{
		ID:              row.ID,
		HouseholdID:     row.HouseholdID,
		TemplateID:      row.TemplateID,
		Title:           row.Title,
		DueDate:         due,
		AssignedUserID:  row.AssignedUserID,
		AreaID:          row.AreaID,
		Status:          model.TaskStatus(row.Status),
		CompletedAt:     row.CompletedAt,
		CompletedByUser: row.CompletedByUserID,
		DeletedAt:       row.DeletedAt,
		DeletedByUser:   row.DeletedByUserID,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}, nil
}

func mapTasks(rows []taskRow) ([]model.Task, error) {
	tasks := make([]model.Task, 0, len(rows))
	for _, row := range rows {
		t, err := mapTask(row)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// ListTasks returns a household's non-deleted tasks with due dates in
// [start, end], ordered by due date ascending.
func (c *Client) ListTasks(ctx context.Context, householdID string, start, end time.Time) ([]model.Task, error) {
	var rows []taskRow
	path := fmt.Sprintf("/api/v1/households/%s/tasks?from=%s&to=%s", householdID, formatDate(start), formatDate(end))
	if err := c.do(ctx, "GET", path, nil, &rows); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	tasks, err := mapTasks(rows)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// LatestTasksByTemplate returns, in one query, the most recent task (by
// due date) for every template in the household, keyed by template id.
// The scheduler uses this instead of one query per template.
func (c *Client) LatestTasksByTemplate(ctx context.Context, householdID string) (map[string]model.Task, error) {
	var rows []taskRow
	path := "/api/v1/households/" + householdID + "/tasks/latest-by-template"
	if err := c.do(ctx, "GET", path, nil, &rows); err != nil {
		return nil, fmt.Errorf("latest tasks by template: %w", err)
	}

	latest := make(map[string]model.Task, len(rows))
	for _, row := range rows {
		t, err := mapTask(row)
		if err != nil {
			return nil, fmt.Errorf("latest tasks by template: %w", err)
		}
		if t.TemplateID != nil {
			latest[*t.TemplateID] = t
		}
	}
	return latest, nil
}

type createTaskRequest struct {
	ID             string  `json:"id,omitempty"`
	HouseholdID    string  `json:"household_id"`
	TemplateID     *string `json:"template_id"`
	Title          string  `json:"title"`
	DueDate        string  `json:"due_date"`
	AssignedUserID string  `json:"assigned_user_id"`
	AreaID         string  `json:"area_id,omitempty"`
	Status         string  `json:"status"`
}

// CreateTask creates a task. id may be empty, or the client uuid assigned
// when the task was created offline or generated by the scheduler.
func (c *Client) CreateTask(ctx context.Context, id string, in model.CreateTaskInput) (*model.Task, error) {
	var row taskRow
	err := c.do(ctx, "POST", "/api/v1/tasks", createTaskRequest{
		ID:             id,
		HouseholdID:    in.HouseholdID,
		TemplateID:     in.TemplateID,
		Title:          in.Title,
		DueDate:        formatDate(in.DueDate),
		AssignedUserID: in.AssignedUserID,
		AreaID:         in.AreaID,
		Status:         string(in.Status),
	}, &row)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	t, err := mapTask(row)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &t, nil
}

// CompleteTask marks a task done. The backend records the signed-in user
// as the completing actor.
func (c *Client) CompleteTask(ctx context.Context, taskID string) error {
	if err := c.do(ctx, "POST", "/api/v1/tasks/"+taskID+"/complete", nil, nil); err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}

// DeleteTask soft-deletes a task; the row survives for the history view.
func (c *Client) DeleteTask(ctx context.Context, taskID string) error {
	if err := c.do(ctx, "DELETE", "/api/v1/tasks/"+taskID, nil, nil); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// ListDeletedTasks returns soft-deleted tasks whose deletion fell in
// [start, end], newest first.
func (c *Client) ListDeletedTasks(ctx context.Context, householdID string, start, end time.Time) ([]model.Task, error) {
	var rows []taskRow
	path := fmt.Sprintf("/api/v1/households/%s/tasks/deleted?from=%s&to=%s",
		householdID, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	if err := c.do(ctx, "GET", path, nil, &rows); err != nil {
		return nil, fmt.Errorf("list deleted tasks: %w", err)
	}
	tasks, err := mapTasks(rows)
	if err != nil {
		return nil, fmt.Errorf("list deleted tasks: %w", err)
	}
	return tasks, nil
}

type purgeResponse struct {
	Count int64 `json:"count"`
}

// PurgeCompletedTasks permanently removes all done tasks. Irreversible.
func (c *Client) PurgeCompletedTasks(ctx context.Context, householdID string) (int64, error) {
	var resp purgeResponse
	if err := c.do(ctx, "DELETE", "/api/v1/households/"+householdID+"/tasks/completed", nil, &resp); err != nil {
		return 0, fmt.Errorf("purge completed tasks: %w", err)
	}
	return resp.Count, nil
}

// PurgeDeletedTasks permanently removes all soft-deleted tasks.
func (c *Client) PurgeDeletedTasks(ctx context.Context, householdID string) (int64, error) {
	var resp purgeResponse
	if err := c.do(ctx, "DELETE", "/api/v1/households/"+householdID+"/tasks/deleted", nil, &resp); err != nil {
		return 0, fmt.Errorf("purge deleted tasks: %w", err)
	}
	return resp.Count, nil
}
