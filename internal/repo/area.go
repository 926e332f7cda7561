package repo

import (
	"context"
	"log/slog"

	"github.com/shipshape-app/shipshape/internal/cache"
	"github.com/shipshape-app/shipshape/internal/connectivity"
	"github.com/shipshape-app/shipshape/internal/gateway"
	"github.com/shipshape-app/shipshape/internal/model"
)

type AreaRepo struct {
	gw      *gateway.Client
	store   *cache.AreaStore
	monitor *connectivity.Monitor
	logger  *slog.Logger
}

func NewAreaRepo(gw *gateway.Client, store *cache.AreaStore, monitor *connectivity.Monitor, logger *slog.Logger) *AreaRepo {
	return &AreaRepo{gw: gw, store: store, monitor: monitor, logger: logger}
}

// List returns the fixed set of household areas, refreshing the cache
// when online. Areas change rarely, so the cached copy is usually fresh.
func (r *AreaRepo) List(ctx context.Context) ([]model.Area, error) {
	if !r.monitor.IsOnline() {
		return r.store.List()
	}
	areas, err := r.gw.ListAreas(ctx)
	if err != nil {
		r.logger.Warn("area list failed, using cache", "error", err)
		return r.store.List()
	}
	if err := r.store.BulkPut(areas); err != nil {
		r.logger.Warn("failed to cache areas", "error", err)
	}
	return areas, nil
}
