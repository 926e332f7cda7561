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
)

type ChoreRepo struct {
	gw      *gateway.Client
	store   *cache.ChoreStore
	monitor *connectivity.Monitor
	engine  *outbox.Engine
	logger  *slog.Logger
}

func NewChoreRepo(gw *gateway.Client, store *cache.ChoreStore, monitor *connectivity.Monitor, engine *outbox.Engine, logger *slog.Logger) *ChoreRepo {
	return &ChoreRepo{gw: gw, store: store, monitor: monitor, engine: engine, logger: logger}
}

// List returns the household's active chore templates, refreshing the
// cache when online.
func (r *ChoreRepo) List(ctx context.Context, householdID string) ([]model.ChoreTemplate, error) {
	if !r.monitor.IsOnline() {
		return r.store.ListActiveByHousehold(householdID)
	}
	chores, err := r.gw.ListChores(ctx, householdID)
	if err != nil {
		r.logger.Warn("chore list failed, using cache", "error", err)
		return r.store.ListActiveByHousehold(householdID)
	}
	if err := r.store.BulkPut(chores); err != nil {
		r.logger.Warn("failed to cache chores", "error", err)
	}
	return chores, nil
}

// Create writes a new chore template to the cache and queues its
// creation on the outbox.
func (r *ChoreRepo) Create(ctx context.Context, householdID string, in model.CreateChoreInput) (*model.ChoreTemplate, error) {
	if !in.Frequency.Valid() {
		return nil, fmt.Errorf("invalid frequency %q", in.Frequency)
	}
	now := time.Now().UTC()
	chore := model.ChoreTemplate{
		ID:                uuid.NewString(),
		HouseholdID:       householdID,
		Name:              in.Name,
		Frequency:         in.Frequency,
		Active:            true,
		RotationMemberIDs: in.RotationMemberIDs,
		StartDate:         normalizeDate(in.StartDate),
		EndDate:           normalizeDate(in.EndDate),
		AreaID:            in.AreaID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := r.store.Put(chore); err != nil {
		return nil, fmt.Errorf("cache chore: %w", err)
	}
	_, err := r.engine.Enqueue(ctx, model.CreateChorePayload{
		ChoreID:           chore.ID,
		HouseholdID:       householdID,
		Name:              chore.Name,
		Frequency:         chore.Frequency,
		RotationMemberIDs: chore.RotationMemberIDs,
		StartDate:         chore.StartDate,
		EndDate:           chore.EndDate,
		AreaID:            chore.AreaID,
	})
	if err != nil {
		return nil, err
	}
	return &chore, nil
}

// Update replaces a template's mutable fields locally and queues the
// change; the backend applies it last-write-wins.
func (r *ChoreRepo) Update(ctx context.Context, id string, in gateway.UpdateChoreInput) (*model.ChoreTemplate, error) {
	if !in.Frequency.Valid() {
		return nil, fmt.Errorf("invalid frequency %q", in.Frequency)
	}
	chore, err := r.store.GetByID(id)
	if err != nil {
		return nil, err
	}
	if chore == nil {
		return nil, fmt.Errorf("chore %s not found", id)
	}
	chore.Name = in.Name
	chore.Frequency = in.Frequency
	chore.RotationMemberIDs = in.RotationMemberIDs
	chore.StartDate = normalizeDate(in.StartDate)
	chore.EndDate = normalizeDate(in.EndDate)
	chore.AreaID = in.AreaID
	chore.Active = in.Active
	chore.UpdatedAt = time.Now().UTC()
	if err := r.store.Put(*chore); err != nil {
		return nil, fmt.Errorf("cache chore: %w", err)
	}
	_, err = r.engine.Enqueue(ctx, model.UpdateChorePayload{
		ChoreID:           id,
		Name:              chore.Name,
		Frequency:         chore.Frequency,
		RotationMemberIDs: chore.RotationMemberIDs,
		StartDate:         chore.StartDate,
		EndDate:           chore.EndDate,
		AreaID:            chore.AreaID,
		Active:            chore.Active,
	})
	if err != nil {
		return nil, err
	}
	return chore, nil
}

// Archive deactivates a template locally and queues the change. Existing
// tasks generated from it are untouched.
func (r *ChoreRepo) Archive(ctx context.Context, id string) error {
	if err := r.store.Archive(id, time.Now().UTC()); err != nil {
		return err
	}
	_, err := r.engine.Enqueue(ctx, model.ArchiveChorePayload{ChoreID: id})
	return err
}

func normalizeDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := model.DateOnly(*t)
	return &d
}
