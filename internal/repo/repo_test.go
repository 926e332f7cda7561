package repo

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shipshape-app/shipshape/internal/backup"
	"github.com/shipshape-app/shipshape/internal/cache"
	"github.com/shipshape-app/shipshape/internal/connectivity"
	"github.com/shipshape-app/shipshape/internal/gateway"
	"github.com/shipshape-app/shipshape/internal/model"
	"github.com/shipshape-app/shipshape/internal/outbox"
	"github.com/shipshape-app/shipshape/internal/scheduler"
	"github.com/shipshape-app/shipshape/internal/session"
)

// downSignal reports the interface down, pinning everything offline.
type downSignal struct{}

func (downSignal) Up() bool                          { return false }
func (downSignal) Subscribe(fn func(up bool)) func() { return func() {} }

type offlineFixture struct {
	db     *sql.DB
	outbox *cache.OutboxStore

	households *HouseholdRepo
	chores     *ChoreRepo
	tasks      *TaskRepo
}

// newOfflineFixture wires real repositories over an in-memory cache with
// connectivity pinned offline. The gateway points at a dead address; the
// offline paths under test never reach it.
func newOfflineFixture(t *testing.T) *offlineFixture {
	t.Helper()

	db, err := cache.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess := session.NewClient("http://127.0.0.1:1", logger)
	gw := gateway.New("http://127.0.0.1:1", sess, logger)

	signal := downSignal{}
	monitor := connectivity.NewMonitor(signal, gw, time.Hour, logger)
	outboxStore := cache.NewOutboxStore(db)
	engine := outbox.NewEngine(outboxStore, gw, signal, logger)
	sched := scheduler.New(gw, logger)
	snaps := backup.NewSnapshotter(t.TempDir(), "unused.db", "")

	return &offlineFixture{
		db:         db,
		outbox:     outboxStore,
		households: NewHouseholdRepo(gw, cache.NewHouseholdStore(db), monitor, engine, sess, logger),
		chores:     NewChoreRepo(gw, cache.NewChoreStore(db), monitor, engine, logger),
		tasks:      NewTaskRepo(gw, cache.NewTaskStore(db), monitor, engine, sched, snaps, sess, logger),
	}
}

func (f *offlineFixture) pendingOps(t *testing.T) []model.OutboxEntry {
	t.Helper()
	entries, err := f.outbox.ListReplayable()
	if err != nil {
		t.Fatalf("list replayable: %v", err)
	}
	return entries
}

func TestOfflineHouseholdCreateIsProvisional(t *testing.T) {
	f := newOfflineFixture(t)

	h, queued, err := f.households.Create(context.Background(), "The Burrow")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !queued {
		t.Error("expected queued creation while offline")
	}
	if h.ID == "" || len(h.JoinCode) != 6 {
		t.Errorf("provisional household = %+v", h)
	}

	// Readable from the cache immediately.
	current, err := f.households.Current(context.Background())
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if current == nil || current.ID != h.ID {
		t.Errorf("current = %+v, want the provisional household", current)
	}

	ops := f.pendingOps(t)
	if len(ops) != 1 || ops[0].Type != model.OpCreateHousehold {
		t.Errorf("ops = %+v, want one CREATE_HOUSEHOLD", ops)
	}
}

func TestOfflineJoinIsQueued(t *testing.T) {
	f := newOfflineFixture(t)

	h, queued, err := f.households.Join(context.Background(), "ABC234")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if !queued || h != nil {
		t.Errorf("join = (%+v, %v), want (nil, queued)", h, queued)
	}

	ops := f.pendingOps(t)
	if len(ops) != 1 || ops[0].Type != model.OpJoinHousehold {
		t.Errorf("ops = %+v, want one JOIN_HOUSEHOLD", ops)
	}
}

func TestOfflineChoreCreateWritesCacheAndQueue(t *testing.T) {
	f := newOfflineFixture(t)

	chore, err := f.chores.Create(context.Background(), "h1", model.CreateChoreInput{
		Name:              "Vacuum",
		Frequency:         model.FreqWeekly,
		RotationMemberIDs: []string{"m1", "m2"},
	})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}

	listed, err := f.chores.List(context.Background(), "h1")
	if err != nil {
		t.Fatalf("list chores: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != chore.ID {
		t.Errorf("listed = %+v", listed)
	}

	ops := f.pendingOps(t)
	if len(ops) != 1 || ops[0].Type != model.OpCreateChore {
		t.Fatalf("ops = %+v, want one CREATE_CHORE", ops)
	}
	payload, err := model.DecodePayload(ops[0].Type, ops[0].Payload)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if p := payload.(*model.CreateChorePayload); p.ChoreID != chore.ID {
		t.Errorf("payload chore id = %q, want %q", p.ChoreID, chore.ID)
	}
}

func TestOfflineChoreCreateRejectsBadFrequency(t *testing.T) {
	f := newOfflineFixture(t)

	_, err := f.chores.Create(context.Background(), "h1", model.CreateChoreInput{
		Name:              "Vacuum",
		Frequency:         "hourly",
		RotationMemberIDs: []string{"m1"},
	})
	if err == nil {
		t.Fatal("expected frequency validation error")
	}
	if ops := f.pendingOps(t); len(ops) != 0 {
		t.Errorf("rejected create still queued: %+v", ops)
	}
}

func TestOfflineTaskCreateAndComplete(t *testing.T) {
	f := newOfflineFixture(t)

	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	task, err := f.tasks.Create(context.Background(), model.CreateTaskInput{
		HouseholdID:    "h1",
		Title:          "Dishes",
		DueDate:        due,
		AssignedUserID: "u1",
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Status != model.TaskOpen {
		t.Errorf("status = %q, want open default", task.Status)
	}

	if err := f.tasks.Complete(context.Background(), task.ID); err != nil {
		t.Fatalf("complete task: %v", err)
	}

	listed, err := f.tasks.List(context.Background(), "h1", due, due)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(listed) != 1 || listed[0].Status != model.TaskDone {
		t.Errorf("listed = %+v, want one done task", listed)
	}

	ops := f.pendingOps(t)
	if len(ops) != 2 {
		t.Fatalf("ops = %d, want create then complete", len(ops))
	}
	if ops[0].Type != model.OpCreateTask || ops[1].Type != model.OpCompleteTask {
		t.Errorf("op types = %s, %s", ops[0].Type, ops[1].Type)
	}
}

func TestOfflineOnlyActionsReturnErrOffline(t *testing.T) {
	f := newOfflineFixture(t)

	if err := f.tasks.Delete(context.Background(), "t1"); !errors.Is(err, ErrOffline) {
		t.Errorf("delete err = %v, want ErrOffline", err)
	}
	if _, err := f.tasks.PurgeCompleted(context.Background(), "h1"); !errors.Is(err, ErrOffline) {
		t.Errorf("purge err = %v, want ErrOffline", err)
	}
}
