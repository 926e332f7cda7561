package outbox

import (
	"context"
	"fmt"

	"github.com/shipshape-app/shipshape/internal/gateway"
	"github.com/shipshape-app/shipshape/internal/model"
)

// Gateway is the remote call set the engine replays against. One payload
// variant maps to exactly one method.
type Gateway interface {
	CompleteTask(ctx context.Context, taskID string) error
	CreateTask(ctx context.Context, id string, in model.CreateTaskInput) (*model.Task, error)
	CreateChore(ctx context.Context, householdID, id string, in model.CreateChoreInput) (*model.ChoreTemplate, error)
	UpdateChore(ctx context.Context, id string, in gateway.UpdateChoreInput) (*model.ChoreTemplate, error)
	ArchiveChore(ctx context.Context, id string) error
	CreateHousehold(ctx context.Context, id, name string) (*model.Household, error)
	JoinByCode(ctx context.Context, code string) (*model.Household, error)
}

// gatewayContext tags ctx with the entry id as idempotency key so a
// replay after a crash between remote apply and local mark-done can be
// deduplicated by the backend.
func gatewayContext(ctx context.Context, entryID string) context.Context {
	return gateway.WithIdempotencyKey(ctx, entryID)
}

func (e *Engine) dispatch(ctx context.Context, entry model.OutboxEntry) error {
	p, err := model.DecodePayload(entry.Type, entry.Payload)
	if err != nil {
		return err
	}

	switch p := p.(type) {
	case *model.CompleteTaskPayload:
		return e.gw.CompleteTask(ctx, p.TaskID)

	case *model.CreateTaskPayload:
		_, err := e.gw.CreateTask(ctx, p.TaskID, model.CreateTaskInput{
			HouseholdID:    p.HouseholdID,
			TemplateID:     p.TemplateID,
			Title:          p.Title,
			DueDate:        p.DueDate,
			AssignedUserID: p.AssignedUserID,
			AreaID:         p.AreaID,
			Status:         p.Status,
		})
		return err

	case *model.CreateChorePayload:
		_, err := e.gw.CreateChore(ctx, p.HouseholdID, p.ChoreID, model.CreateChoreInput{
			Name:              p.Name,
			Frequency:         p.Frequency,
			RotationMemberIDs: p.RotationMemberIDs,
			StartDate:         p.StartDate,
			EndDate:           p.EndDate,
			AreaID:            p.AreaID,
		})
		return err

	case *model.UpdateChorePayload:
		_, err := e.gw.UpdateChore(ctx, p.ChoreID, gateway.UpdateChoreInput{
			Name:              p.Name,
			Frequency:         p.Frequency,
			RotationMemberIDs: p.RotationMemberIDs,
			StartDate:         p.StartDate,
			EndDate:           p.EndDate,
			AreaID:            p.AreaID,
			Active:            p.Active,
		})
		return err

	case *model.ArchiveChorePayload:
		return e.gw.ArchiveChore(ctx, p.ChoreID)

	case *model.CreateHouseholdPayload:
		_, err := e.gw.CreateHousehold(ctx, p.HouseholdID, p.Name)
		return err

	case *model.JoinHouseholdPayload:
		_, err := e.gw.JoinByCode(ctx, p.JoinCode)
		return err

	default:
		return fmt.Errorf("no handler for operation type %q", entry.Type)
	}
}
