// Package outbox queues local mutations durably and replays them against
// the backend when connectivity allows.
package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/shipshape-app/shipshape/internal/cache"
	"github.com/shipshape-app/shipshape/internal/connectivity"
	"github.com/shipshape-app/shipshape/internal/metrics"
	"github.com/shipshape-app/shipshape/internal/model"
)

// QueueState is a snapshot of outbox depth by status.
type QueueState struct {
	Pending int `json:"pending"`
	Failed  int `json:"failed"`
	Syncing int `json:"syncing"`
}

// Engine owns the outbox. Entries move pending → syncing → done on
// success or pending → syncing → failed on error; failed entries are
// re-picked on the next pass exactly like pending ones.
type Engine struct {
	store  *cache.OutboxStore
	gw     Gateway
	signal connectivity.NetworkSignal
	logger *slog.Logger

	// isSyncing is the single-flight guard for SyncNow. It does not
	// serialize Enqueue against a running pass: an entry added mid-pass
	// may land in this pass or the next.
	isSyncing atomic.Bool

	mu        sync.Mutex
	listeners map[int]func()
	nextID    int
}

func NewEngine(store *cache.OutboxStore, gw Gateway, signal connectivity.NetworkSignal, logger *slog.Logger) *Engine {
	return &Engine{
		store:     store,
		gw:        gw,
		signal:    signal,
		logger:    logger,
		listeners: make(map[int]func()),
	}
}

// Enqueue persists a mutation for replay and returns its entry id. When
// the network interface is up a sync pass is kicked off in the
// background; its failure is logged, never returned to the caller.
func (e *Engine) Enqueue(ctx context.Context, p model.OpPayload) (string, error) {
	opType, raw, err := model.EncodePayload(p)
	if err != nil {
		return "", err
	}

	entry := model.OutboxEntry{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Type:      opType,
		Payload:   raw,
		Status:    model.OutboxPending,
	}

	if err := e.store.Add(entry); err != nil {
		return "", fmt.Errorf("enqueue %s: %w", opType, err)
	}

	e.logger.Debug("enqueued operation", "type", opType, "id", entry.ID)
	e.notify()

	if e.signal.Up() {
		go func() {
			if err := e.SyncNow(context.WithoutCancel(ctx)); err != nil {
				e.logger.Error("auto-sync failed", "error", err)
			}
		}()
	}

	return entry.ID, nil
}

// SyncNow drains the outbox once. It returns immediately when a pass is
// already running or the network interface is down. One entry failing
// does not stop the pass; its error is captured on the entry.
func (e *Engine) SyncNow(ctx context.Context) error {
	if !e.isSyncing.CompareAndSwap(false, true) {
		e.logger.Debug("sync already in progress")
		return nil
	}
	defer func() {
		e.isSyncing.Store(false)
		e.notify()
	}()

	if !e.signal.Up() {
		e.logger.Debug("network interface down, skipping sync")
		return nil
	}

	entries, err := e.store.ListReplayable()
	if err != nil {
		return fmt.Errorf("load replayable entries: %w", err)
	}

	for _, entry := range entries {
		if err := e.store.SetStatus(entry.ID, model.OutboxSyncing, ""); err != nil {
			e.logger.Error("mark entry syncing", "id", entry.ID, "error", err)
			continue
		}
		e.notify()

		if err := e.dispatch(gatewayContext(ctx, entry.ID), entry); err != nil {
			e.logger.Error("sync operation failed", "type", entry.Type, "id", entry.ID, "error", err)
			metrics.OutboxOpsTotal.WithLabelValues("failed").Inc()
			if serr := e.store.SetStatus(entry.ID, model.OutboxFailed, err.Error()); serr != nil {
				e.logger.Error("mark entry failed", "id", entry.ID, "error", serr)
			}
		} else {
			e.logger.Debug("synced operation", "type", entry.Type, "id", entry.ID)
			metrics.OutboxOpsTotal.WithLabelValues("done").Inc()
			if serr := e.store.SetStatus(entry.ID, model.OutboxDone, ""); serr != nil {
				e.logger.Error("mark entry done", "id", entry.ID, "error", serr)
			}
		}
		e.notify()
	}

	metrics.SyncPassesTotal.Inc()
	return nil
}

// QueueState counts entries by status using the status index.
func (e *Engine) QueueState() (QueueState, error) {
	var qs QueueState
	var err error

	if qs.Pending, err = e.store.CountByStatus(model.OutboxPending); err != nil {
		return qs, err
	}
	if qs.Failed, err = e.store.CountByStatus(model.OutboxFailed); err != nil {
		return qs, err
	}
	if qs.Syncing, err = e.store.CountByStatus(model.OutboxSyncing); err != nil {
		return qs, err
	}
	return qs, nil
}

// IsSyncing reports whether a pass is currently running.
func (e *Engine) IsSyncing() bool {
	return e.isSyncing.Load()
}

// PurgeDone compacts done entries older than the retention window.
func (e *Engine) PurgeDone(olderThan time.Duration) (int64, error) {
	n, err := e.store.PurgeDone(time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		e.logger.Info("compacted outbox", "removed", n)
		e.notify()
	}
	return n, nil
}

// Subscribe registers a callback invoked after every queue change. The
// notification carries no payload; listeners re-read QueueState.
func (e *Engine) Subscribe(fn func()) func() {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.listeners[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

func (e *Engine) notify() {
	e.mu.Lock()
	listeners := make([]func(), 0, len(e.listeners))
	for _, fn := range e.listeners {
		listeners = append(listeners, fn)
	}
	e.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}
