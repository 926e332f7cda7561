package repo

import (
	"context"
	"log/slog"

	"github.com/shipshape-app/shipshape/internal/cache"
	"github.com/shipshape-app/shipshape/internal/connectivity"
	"github.com/shipshape-app/shipshape/internal/gateway"
	"github.com/shipshape-app/shipshape/internal/model"
	"github.com/shipshape-app/shipshape/internal/session"
)

type MemberRepo struct {
	gw      *gateway.Client
	store   *cache.MemberStore
	monitor *connectivity.Monitor
	session *session.Client
	logger  *slog.Logger
}

func NewMemberRepo(gw *gateway.Client, store *cache.MemberStore, monitor *connectivity.Monitor, sess *session.Client, logger *slog.Logger) *MemberRepo {
	return &MemberRepo{gw: gw, store: store, monitor: monitor, session: sess, logger: logger}
}

// Ensure claims or creates the user's member record in the household.
// Profile setup talks to the backend directly, so it needs a connection.
func (r *MemberRepo) Ensure(ctx context.Context, in gateway.EnsureMemberInput) (*model.Member, error) {
	if !r.monitor.IsOnline() {
		return nil, ErrOffline
	}
	m, err := r.gw.EnsureMember(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := r.store.Put(*m); err != nil {
		r.logger.Warn("failed to cache member", "error", err)
	}
	return m, nil
}

// Current returns the signed-in user's member record, or nil when they
// have not claimed one yet.
func (r *MemberRepo) Current(ctx context.Context) (*model.Member, error) {
	if !r.monitor.IsOnline() {
		return r.store.GetByUserID(r.session.UserID())
	}
	m, err := r.gw.CurrentMember(ctx)
	if err != nil {
		r.logger.Warn("current member lookup failed, using cache", "error", err)
		return r.store.GetByUserID(r.session.UserID())
	}
	if m != nil {
		if err := r.store.Put(*m); err != nil {
			r.logger.Warn("failed to cache member", "error", err)
		}
	}
	return m, nil
}

// List returns the household's members, refreshing the cache when online.
func (r *MemberRepo) List(ctx context.Context, householdID string) ([]model.Member, error) {
	if !r.monitor.IsOnline() {
		return r.store.ListByHousehold(householdID)
	}
	members, err := r.gw.ListMembers(ctx, householdID)
	if err != nil {
		r.logger.Warn("member list failed, using cache", "error", err)
		return r.store.ListByHousehold(householdID)
	}
	if err := r.store.BulkPut(householdID, members); err != nil {
		r.logger.Warn("failed to cache members", "error", err)
	}
	return members, nil
}
