package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shipshape-app/shipshape/internal/model"
)

type memberRow struct {
	ID          string    `json:"id"`
	HouseholdID string    `json:"household_id"`
	DisplayName string    `json:"display_name"`
	AvatarID    string    `json:"avatar_id"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func mapMember(row memberRow) model.Member {
	return model.Member{
		ID:          row.ID,
		HouseholdID: row.HouseholdID,
		DisplayName: row.DisplayName,
		AvatarID:    row.AvatarID,
		UserID:      row.UserID,
		CreatedAt:   row.CreatedAt,
	}
}

func (c *Client) ListMembers(ctx context.Context, householdID string) ([]model.Member, error) {
	var rows []memberRow
	err := c.do(ctx, "GET", "/api/v1/households/"+householdID+"/members", nil, &rows)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	members := make([]model.Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, mapMember(row))
	}
	return members, nil
}

// CurrentMember returns the member slot claimed by the signed-in user, or
// nil when they have none.
func (c *Client) CurrentMember(ctx context.Context) (*model.Member, error) {
	var row memberRow
	err := c.do(ctx, "GET", "/api/v1/members/me", nil, &row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get current member: %w", err)
	}
	m := mapMember(row)
	return &m, nil
}

type EnsureMemberInput struct {
	HouseholdID string
	DisplayName string
	AvatarID    string
}

type createMemberRequest struct {
	HouseholdID string `json:"household_id"`
	DisplayName string `json:"display_name"`
	AvatarID    string `json:"avatar_id"`
}

// EnsureMember returns the signed-in user's member record, creating it if
// missing. At most one member may exist per (household, user); when a
// concurrent request wins the insert race the conflict is resolved by
// re-fetching the winner's row.
func (c *Client) EnsureMember(ctx context.Context, in EnsureMemberInput) (*model.Member, error) {
	existing, err := c.CurrentMember(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	var row memberRow
	err = c.do(ctx, "POST", "/api/v1/members", createMemberRequest{
		HouseholdID: in.HouseholdID,
		DisplayName: in.DisplayName,
		AvatarID:    in.AvatarID,
	}, &row)
	if errors.Is(err, ErrConflict) {
		created, fetchErr := c.CurrentMember(ctx)
		if fetchErr != nil {
			return nil, fmt.Errorf("fetch member after unique violation: %w", fetchErr)
		}
		if created == nil {
			return nil, fmt.Errorf("member not found after unique violation")
		}
		return created, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create member: %w", err)
	}

	m := mapMember(row)
	return &m, nil
}

type leaveHouseholdRequest struct {
	NextOwnerUserID string `json:"next_owner_user_id,omitempty"`
}

// LeaveHousehold removes the signed-in user's member record, optionally
// handing household ownership to another user first.
func (c *Client) LeaveHousehold(ctx context.Context, nextOwnerUserID string) error {
	err := c.do(ctx, "POST", "/api/v1/members/me/leave", leaveHouseholdRequest{NextOwnerUserID: nextOwnerUserID}, nil)
	if err != nil {
		return fmt.Errorf("leave household: %w", err)
	}
	return nil
}
