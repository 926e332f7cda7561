package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/shipshape-app/shipshape/internal/model"
)

type choreRow struct {
	ID                string    `json:"id"`
	HouseholdID       string    `json:"household_id"`
	Name              string    `json:"name"`
	Frequency         string    `json:"frequency"`
	Active            bool      `json:"active"`
	RotationMemberIDs []string  `json:"rotation_member_ids"`
	StartDate         *string   `json:"start_date"`
	EndDate           *string   `json:"end_date"`
	AreaID            string    `json:"area_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func mapChore(row choreRow) model.ChoreTemplate {
	return model.ChoreTemplate{
		ID:                row.ID,
		HouseholdID:       row.HouseholdID,
		Name:              row.Name,
		Frequency:         model.Frequency(row.Frequency),
		Active:            row.Active,
		RotationMemberIDs: row.RotationMemberIDs,
		StartDate:         parseDatePtr(row.StartDate),
		EndDate:           parseDatePtr(row.EndDate),
		AreaID:            row.AreaID,
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}

// ListChores returns a household's active chore templates, newest first.
func (c *Client) ListChores(ctx context.Context, householdID string) ([]model.ChoreTemplate, error) {
	var rows []choreRow
	err := c.do(ctx, "GET", "/api/v1/households/"+householdID+"/chores?active=true", nil, &rows)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}

	chores := make([]model.ChoreTemplate, 0, len(rows))
	for _, row := range rows {
		chores = append(chores, mapChore(row))
	}
	return chores, nil
}

type choreRequest struct {
	ID                string   `json:"id,omitempty"`
	HouseholdID       string   `json:"household_id,omitempty"`
	Name              string   `json:"name"`
	Frequency         string   `json:"frequency"`
	RotationMemberIDs []string `json:"rotation_member_ids"`
	StartDate         *string  `json:"start_date"`
	EndDate           *string  `json:"end_date"`
	AreaID            string   `json:"area_id"`
	Active            bool     `json:"active"`
}

// CreateChore creates a chore template. id may be empty, or the client
// uuid assigned when the chore was created offline.
func (c *Client) CreateChore(ctx context.Context, householdID, id string, in model.CreateChoreInput) (*model.ChoreTemplate, error) {
	var row choreRow
	err := c.do(ctx, "POST", "/api/v1/chores", choreRequest{
		ID:                id,
		HouseholdID:       householdID,
		Name:              in.Name,
		Frequency:         string(in.Frequency),
		RotationMemberIDs: in.RotationMemberIDs,
		StartDate:         datePtr(in.StartDate),
		EndDate:           datePtr(in.EndDate),
		AreaID:            in.AreaID,
		Active:            true,
	}, &row)
	if err != nil {
		return nil, fmt.Errorf("create chore: %w", err)
	}
	chore := mapChore(row)
	return &chore, nil
}

type UpdateChoreInput struct {
	Name              string
	Frequency         model.Frequency
	RotationMemberIDs []string
	StartDate         *time.Time
	EndDate           *time.Time
	AreaID            string
	Active            bool
}

// UpdateChore replaces a template's mutable fields (last write wins).
func (c *Client) UpdateChore(ctx context.Context, id string, in UpdateChoreInput) (*model.ChoreTemplate, error) {
	var row choreRow
	err := c.do(ctx, "PUT", "/api/v1/chores/"+id, choreRequest{
		Name:              in.Name,
		Frequency:         string(in.Frequency),
		RotationMemberIDs: in.RotationMemberIDs,
		StartDate:         datePtr(in.StartDate),
		EndDate:           datePtr(in.EndDate),
		AreaID:            in.AreaID,
		Active:            in.Active,
	}, &row)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	chore := mapChore(row)
	return &chore, nil
}

// ArchiveChore clears a template's active flag so the scheduler stops
// generating tasks from it.
func (c *Client) ArchiveChore(ctx context.Context, id string) error {
	if err := c.do(ctx, "POST", "/api/v1/chores/"+id+"/archive", nil, nil); err != nil {
		return fmt.Errorf("archive chore: %w", err)
	}
	return nil
}
