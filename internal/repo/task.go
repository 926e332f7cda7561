package repo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shipshape-app/shipshape/internal/backup"
	"github.com/shipshape-app/shipshape/internal/cache"
	"github.com/shipshape-app/shipshape/internal/connectivity"
	"github.com/shipshape-app/shipshape/internal/gateway"
	"github.com/shipshape-app/shipshape/internal/model"
	"github.com/shipshape-app/shipshape/internal/outbox"
	"github.com/shipshape-app/shipshape/internal/scheduler"
	"github.com/shipshape-app/shipshape/internal/session"
)

type TaskRepo struct {
	gw      *gateway.Client
	store   *cache.TaskStore
	monitor *connectivity.Monitor
	engine  *outbox.Engine
	sched   *scheduler.Scheduler
	snaps   *backup.Snapshotter
	session *session.Client
	logger  *slog.Logger
}

func NewTaskRepo(gw *gateway.Client, store *cache.TaskStore, monitor *connectivity.Monitor, engine *outbox.Engine, sched *scheduler.Scheduler, snaps *backup.Snapshotter, sess *session.Client, logger *slog.Logger) *TaskRepo {
	return &TaskRepo{gw: gw, store: store, monitor: monitor, engine: engine, sched: sched, snaps: snaps, session: sess, logger: logger}
}

// List returns tasks due in [start, end]. Online it first runs the
// regeneration pass so overdue recurrences materialize, then refreshes
// the cache; offline it answers from the cache alone.
func (r *TaskRepo) List(ctx context.Context, householdID string, start, end time.Time) ([]model.Task, error) {
	if !r.monitor.IsOnline() {
		return r.store.ListByDueRange(householdID, start, end)
	}

	r.sched.Regenerate(ctx, householdID)

	tasks, err := r.gw.ListTasks(ctx, householdID, start, end)
	if err != nil {
		r.logger.Warn("task list failed, using cache", "error", err)
		return r.store.ListByDueRange(householdID, start, end)
	}
	if err := r.store.BulkPut(tasks); err != nil {
		r.logger.Warn("failed to cache tasks", "error", err)
	}
	return tasks, nil
}

// Create writes a one-off or template task to the cache and queues its
// creation on the outbox.
func (r *TaskRepo) Create(ctx context.Context, in model.CreateTaskInput) (*model.Task, error) {
	if in.Status == "" {
		in.Status = model.TaskOpen
	}
	now := time.Now().UTC()
	task := model.Task{
		ID:             uuid.NewString(),
		HouseholdID:    in.HouseholdID,
		TemplateID:     in.TemplateID,
		Title:          in.Title,
		DueDate:        model.DateOnly(in.DueDate),
		AssignedUserID: in.AssignedUserID,
		AreaID:         in.AreaID,
		Status:         in.Status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := r.store.Put(task); err != nil {
		return nil, fmt.Errorf("cache task: %w", err)
	}
	_, err := r.engine.Enqueue(ctx, model.CreateTaskPayload{
		TaskID:         task.ID,
		HouseholdID:    task.HouseholdID,
		TemplateID:     task.TemplateID,
		Title:          task.Title,
		DueDate:        task.DueDate,
		AssignedUserID: task.AssignedUserID,
		AreaID:         task.AreaID,
		Status:         task.Status,
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// Complete marks a task done locally and queues the completion.
func (r *TaskRepo) Complete(ctx context.Context, taskID string) error {
	if err := r.store.MarkDone(taskID, r.session.UserID(), time.Now().UTC()); err != nil {
		return err
	}
	_, err := r.engine.Enqueue(ctx, model.CompleteTaskPayload{TaskID: taskID})
	return err
}

// Delete soft-deletes a task. Deletion is not replayable through the
// outbox, so it requires a live connection.
func (r *TaskRepo) Delete(ctx context.Context, taskID string) error {
	if !r.monitor.IsOnline() {
		return ErrOffline
	}
	if err := r.gw.DeleteTask(ctx, taskID); err != nil {
		return err
	}
	if err := r.store.SoftDelete(taskID, r.session.UserID(), time.Now().UTC()); err != nil {
		r.logger.Warn("failed to mark task deleted in cache", "error", err)
	}
	return nil
}

// ListCompleted returns the household's completed task history from the
// cache.
func (r *TaskRepo) ListCompleted(householdID string) ([]model.Task, error) {
	return r.store.ListCompleted(householdID)
}

// ListDeleted returns soft-deleted tasks in [start, end].
func (r *TaskRepo) ListDeleted(ctx context.Context, householdID string, start, end time.Time) ([]model.Task, error) {
	if !r.monitor.IsOnline() {
		return r.store.ListDeleted(householdID)
	}
	tasks, err := r.gw.ListDeletedTasks(ctx, householdID, start, end)
	if err != nil {
		r.logger.Warn("deleted task list failed, using cache", "error", err)
		return r.store.ListDeleted(householdID)
	}
	return tasks, nil
}

// PurgeCompleted permanently removes completed task history after
// writing a backup snapshot. Online only.
func (r *TaskRepo) PurgeCompleted(ctx context.Context, householdID string) (int64, error) {
	return r.purge(ctx, householdID, "purge-completed", r.gw.PurgeCompletedTasks, r.store.PurgeCompleted)
}

// PurgeDeleted permanently removes soft-deleted tasks after writing a
// backup snapshot. Online only.
func (r *TaskRepo) PurgeDeleted(ctx context.Context, householdID string) (int64, error) {
	return r.purge(ctx, householdID, "purge-deleted", r.gw.PurgeDeletedTasks, r.store.PurgeDeleted)
}

func (r *TaskRepo) purge(
	ctx context.Context,
	householdID, label string,
	remote func(context.Context, string) (int64, error),
	local func(string) (int64, error),
) (int64, error) {
	if !r.monitor.IsOnline() {
		return 0, ErrOffline
	}
	path, err := r.snaps.Snapshot(label)
	if err != nil {
		return 0, fmt.Errorf("snapshot before purge: %w", err)
	}
	r.logger.Info("wrote pre-purge snapshot", "path", path)

	n, err := remote(ctx, householdID)
	if err != nil {
		return 0, err
	}
	if _, err := local(householdID); err != nil {
		r.logger.Warn("failed to purge cache", "error", err)
	}
	return n, nil
}
