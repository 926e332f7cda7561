package repo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shipshape-app/shipshape/internal/cache"
	"github.com/shipshape-app/shipshape/internal/connectivity"
	"github.com/shipshape-app/shipshape/internal/gateway"
	"github.com/shipshape-app/shipshape/internal/model"
	"github.com/shipshape-app/shipshape/internal/outbox"
	"github.com/shipshape-app/shipshape/internal/session"
)

type HouseholdRepo struct {
	gw      *gateway.Client
	store   *cache.HouseholdStore
	monitor *connectivity.Monitor
	engine  *outbox.Engine
	session *session.Client
	logger  *slog.Logger
}

func NewHouseholdRepo(gw *gateway.Client, store *cache.HouseholdStore, monitor *connectivity.Monitor, engine *outbox.Engine, sess *session.Client, logger *slog.Logger) *HouseholdRepo {
	return &HouseholdRepo{gw: gw, store: store, monitor: monitor, engine: engine, session: sess, logger: logger}
}

// Create makes a new household. Online it is created on the backend
// directly; offline a provisional household is cached under a locally
// generated join code and the creation is queued. The returned bool
// reports whether the operation was queued.
func (r *HouseholdRepo) Create(ctx context.Context, name string) (*model.Household, bool, error) {
	if r.monitor.IsOnline() {
		h, err := r.gw.CreateHousehold(ctx, uuid.NewString(), name)
		if err != nil {
			return nil, false, err
		}
		if err := r.store.Put(*h); err != nil {
			r.logger.Warn("failed to cache household", "error", err)
		}
		return h, false, nil
	}

	code, err := gateway.GenerateJoinCode()
	if err != nil {
		return nil, false, fmt.Errorf("generate join code: %w", err)
	}
	h := model.Household{
		ID:        uuid.NewString(),
		Name:      name,
		JoinCode:  code,
		CreatedBy: r.session.UserID(),
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.Put(h); err != nil {
		return nil, false, fmt.Errorf("cache household: %w", err)
	}
	if _, err := r.engine.Enqueue(ctx, model.CreateHouseholdPayload{HouseholdID: h.ID, Name: name}); err != nil {
		return nil, false, err
	}
	return &h, true, nil
}

// Join adds the current user to the household matching the join code.
// Offline the join is queued and no household is returned until the
// outbox replays it. The returned bool reports whether it was queued.
func (r *HouseholdRepo) Join(ctx context.Context, code string) (*model.Household, bool, error) {
	if r.monitor.IsOnline() {
		h, err := r.gw.JoinByCode(ctx, code)
		if err != nil {
			return nil, false, err
		}
		if err := r.store.Put(*h); err != nil {
			r.logger.Warn("failed to cache household", "error", err)
		}
		return h, false, nil
	}

	if _, err := r.engine.Enqueue(ctx, model.JoinHouseholdPayload{JoinCode: code}); err != nil {
		return nil, false, err
	}
	return nil, true, nil
}

// Current returns the household the signed-in user belongs to, or nil
// when they have none. Offline it answers from the cache.
func (r *HouseholdRepo) Current(ctx context.Context) (*model.Household, error) {
	if !r.monitor.IsOnline() {
		return r.store.First()
	}

	h, err := r.gw.CurrentHousehold(ctx)
	if err != nil {
		r.logger.Warn("current household lookup failed, using cache", "error", err)
		return r.store.First()
	}
	if h != nil {
		if err := r.store.Put(*h); err != nil {
			r.logger.Warn("failed to cache household", "error", err)
		}
	}
	return h, nil
}
