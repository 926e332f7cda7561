// Package scheduler materializes task instances from chore templates. It
// runs opportunistically before task listing, not on a timer: each
// invocation catches every active template up so that an instance exists
// through tomorrow, rotating assignees deterministically.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shipshape-app/shipshape/internal/metrics"
	"github.com/shipshape-app/shipshape/internal/model"
)

// Gateway is the remote call set the scheduler needs. Generation writes
// straight to the backend; generated rows reach the cache via the normal
// list path.
type Gateway interface {
	ListChores(ctx context.Context, householdID string) ([]model.ChoreTemplate, error)
	ListMembers(ctx context.Context, householdID string) ([]model.Member, error)
	LatestTasksByTemplate(ctx context.Context, householdID string) (map[string]model.Task, error)
	CreateTask(ctx context.Context, id string, in model.CreateTaskInput) (*model.Task, error)
}

type Scheduler struct {
	gw     Gateway
	logger *slog.Logger
	now    func() time.Time
}

func New(gw Gateway, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		gw:     gw,
		logger: logger,
		now:    time.Now,
	}
}

// Regenerate ensures every active template in the household has task
// instances covering today and tomorrow. Errors are logged and swallowed;
// a later invocation retries, and a partial run self-heals because
// generation always resumes from the latest existing task.
func (s *Scheduler) Regenerate(ctx context.Context, householdID string) {
	// The loop bound is computed once per invocation so daily templates
	// terminate even when the invocation straddles midnight.
	today := model.DateOnly(s.now())
	horizon := today.AddDate(0, 0, 1)

	chores, err := s.gw.ListChores(ctx, householdID)
	if err != nil {
		s.logger.Error("regenerate: list chores", "household", householdID, "error", err)
		return
	}
	if len(chores) == 0 {
		return
	}

	members, err := s.gw.ListMembers(ctx, householdID)
	if err != nil {
		s.logger.Error("regenerate: list members", "household", householdID, "error", err)
		return
	}

	// Rotation lists hold member ids, but tasks are assigned by user id
	// (backend access control is keyed by user). Both directions of the
	// mapping are needed: member→user to assign, user→member to find the
	// prior assignee's rotation position.
	memberToUser := make(map[string]string, len(members))
	userToMember := make(map[string]string, len(members))
	for _, m := range members {
		if m.UserID == "" {
			continue
		}
		memberToUser[m.ID] = m.UserID
		userToMember[m.UserID] = m.ID
	}

	latest, err := s.gw.LatestTasksByTemplate(ctx, householdID)
	if err != nil {
		s.logger.Error("regenerate: latest tasks", "household", householdID, "error", err)
		return
	}

	for _, tpl := range chores {
		s.generateForTemplate(ctx, tpl, latest, memberToUser, userToMember, today, horizon)
	}
}

func (s *Scheduler) generateForTemplate(
	ctx context.Context,
	tpl model.ChoreTemplate,
	latest map[string]model.Task,
	memberToUser, userToMember map[string]string,
	today, horizon time.Time,
) {
	if !tpl.Frequency.Valid() {
		s.logger.Warn("regenerate: unknown frequency", "template", tpl.ID, "frequency", tpl.Frequency)
		return
	}
	if len(tpl.RotationMemberIDs) == 0 {
		return
	}

	var due time.Time
	var rotIdx int

	prior, hasPrior := latest[tpl.ID]
	if !hasPrior {
		if tpl.StartDate != nil {
			due = model.DateOnly(*tpl.StartDate)
		} else {
			due = today
		}
		rotIdx = 0
	} else {
		due = tpl.Frequency.AddTo(model.DateOnly(prior.DueDate))
		// Resume the rotation after the prior assignee. An assignee who
		// has since left the rotation restarts it at position 0.
		idx := -1
		if memberID, ok := userToMember[prior.AssignedUserID]; ok {
			for i, id := range tpl.RotationMemberIDs {
				if id == memberID {
					idx = i
					break
				}
			}
		}
		if idx < 0 {
			rotIdx = 0
		} else {
			rotIdx = (idx + 1) % len(tpl.RotationMemberIDs)
		}
	}

	for !due.After(horizon) {
		if tpl.EndDate != nil && due.After(model.DateOnly(*tpl.EndDate)) {
			return
		}

		userID, usedIdx, ok := nextAssignee(tpl.RotationMemberIDs, rotIdx, memberToUser)
		if !ok {
			// Nobody in the rotation has claimed a user slot yet.
			s.logger.Warn("regenerate: no assignable member in rotation", "template", tpl.ID)
			return
		}

		_, err := s.gw.CreateTask(ctx, uuid.NewString(), model.CreateTaskInput{
			HouseholdID:    tpl.HouseholdID,
			TemplateID:     &tpl.ID,
			Title:          tpl.Name,
			DueDate:        due,
			AssignedUserID: userID,
			AreaID:         tpl.AreaID,
			Status:         model.TaskOpen,
		})
		if err != nil {
			// Tasks created so far stand; the next invocation resumes
			// from the latest of them.
			s.logger.Error("regenerate: create task", "template", tpl.ID, "due", due, "error", err)
			return
		}
		metrics.TasksGeneratedTotal.Inc()

		due = tpl.Frequency.AddTo(due)
		rotIdx = (usedIdx + 1) % len(tpl.RotationMemberIDs)
	}
}

// nextAssignee returns the user id for the first rotation entry at or
// after start that maps to a claimed user, scanning at most one full
// cycle.
func nextAssignee(rotation []string, start int, memberToUser map[string]string) (string, int, bool) {
	for i := 0; i < len(rotation); i++ {
		idx := (start + i) % len(rotation)
		if userID, ok := memberToUser[rotation[idx]]; ok && userID != "" {
			return userID, idx, true
		}
	}
	return "", 0, false
}
