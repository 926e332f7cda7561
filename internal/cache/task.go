package cache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shipshape-app/shipshape/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var templateID sql.NullString
	var completedAt, deletedAt sql.NullTime

	err := scanner.Scan(
		&t.ID, &t.HouseholdID, &templateID, &t.Title, &t.DueDate,
		&t.AssignedUserID, &t.AreaID, &t.Status,
		&completedAt, &t.CompletedByUser, &deletedAt, &t.DeletedByUser,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if templateID.Valid {
		t.TemplateID = &templateID.String
	}
	if completedAt.Valid {
		at := completedAt.Time.UTC()
		t.CompletedAt = &at
	}
	if deletedAt.Valid {
		at := deletedAt.Time.UTC()
		t.DeletedAt = &at
	}
	return &t, nil
}

const taskCols = `id, household_id, template_id, title, due_date, assigned_user_id, area_id, status, completed_at, completed_by_user_id, deleted_at, deleted_by_user_id, created_at, updated_at`

func (s *TaskStore) Put(t model.Task) error {
	var templateID sql.NullString
	if t.TemplateID != nil {
		templateID = sql.NullString{String: *t.TemplateID, Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO tasks (`+taskCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   title = excluded.title, due_date = excluded.due_date,
		   assigned_user_id = excluded.assigned_user_id, area_id = excluded.area_id,
		   status = excluded.status, completed_at = excluded.completed_at,
		   completed_by_user_id = excluded.completed_by_user_id,
		   deleted_at = excluded.deleted_at, deleted_by_user_id = excluded.deleted_by_user_id,
		   updated_at = excluded.updated_at`,
		t.ID, t.HouseholdID, templateID, t.Title, model.DateOnly(t.DueDate),
		t.AssignedUserID, t.AreaID, t.Status,
		nullTime(t.CompletedAt), t.CompletedByUser, nullTime(t.DeletedAt), t.DeletedByUser,
		t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("put task: %w", err)
	}
	return nil
}

func (s *TaskStore) BulkPut(tasks []model.Task) error {
	for _, t := range tasks {
		if err := s.Put(t); err != nil {
			return err
		}
	}
	return nil
}

func (s *TaskStore) GetByID(id string) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListByDueRange returns non-deleted tasks for a household with due dates
// in [start, end], ordered by due date.
func (s *TaskStore) ListByDueRange(householdID string, start, end time.Time) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks
		 WHERE household_id = ? AND deleted_at IS NULL AND due_date >= ? AND due_date <= ?
		 ORDER BY due_date ASC`,
		householdID, model.DateOnly(start), model.DateOnly(end),
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks by range: %w", err)
	}
	return collectTasks(rows)
}

func (s *TaskStore) ListCompleted(householdID string) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks
		 WHERE household_id = ? AND status = ? AND deleted_at IS NULL
		 ORDER BY completed_at DESC`,
		householdID, model.TaskDone,
	)
	if err != nil {
		return nil, fmt.Errorf("list completed tasks: %w", err)
	}
	return collectTasks(rows)
}

func (s *TaskStore) ListDeleted(householdID string) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks
		 WHERE household_id = ? AND deleted_at IS NOT NULL
		 ORDER BY deleted_at DESC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list deleted tasks: %w", err)
	}
	return collectTasks(rows)
}

func collectTasks(rows *sql.Rows) ([]model.Task, error) {
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) MarkDone(id, userID string, at time.Time) error {
	_, err := s.db.Exec(
		`UPDATE tasks SET status = ?, completed_at = ?, completed_by_user_id = ?, updated_at = ? WHERE id = ?`,
		model.TaskDone, at.UTC(), userID, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark task done: %w", err)
	}
	return nil
}

func (s *TaskStore) SoftDelete(id, userID string, at time.Time) error {
	_, err := s.db.Exec(
		`UPDATE tasks SET deleted_at = ?, deleted_by_user_id = ?, updated_at = ? WHERE id = ?`,
		at.UTC(), userID, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("soft delete task: %w", err)
	}
	return nil
}

// PurgeCompleted hard-deletes all done tasks for a household. Irreversible.
func (s *TaskStore) PurgeCompleted(householdID string) (int64, error) {
	res, err := s.db.Exec(
		`DELETE FROM tasks WHERE household_id = ? AND status = ?`,
		householdID, model.TaskDone,
	)
	if err != nil {
		return 0, fmt.Errorf("purge completed tasks: %w", err)
	}
	return res.RowsAffected()
}

// PurgeDeleted hard-deletes all soft-deleted tasks for a household.
func (s *TaskStore) PurgeDeleted(householdID string) (int64, error) {
	res, err := s.db.Exec(
		`DELETE FROM tasks WHERE household_id = ? AND deleted_at IS NOT NULL`,
		householdID,
	)
	if err != nil {
		return 0, fmt.Errorf("purge deleted tasks: %w", err)
	}
	return res.RowsAffected()
}
