package model

import (
	"encoding/json"
	"fmt"
	"time"
)

type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxSyncing OutboxStatus = "syncing"
	OutboxFailed  OutboxStatus = "failed"
	OutboxDone    OutboxStatus = "done"
)

type OpType string

const (
	OpCompleteTask    OpType = "COMPLETE_TASK"
	OpCreateTask      OpType = "CREATE_TASK"
	OpCreateChore     OpType = "CREATE_CHORE"
	OpUpdateChore     OpType = "UPDATE_CHORE"
	OpArchiveChore    OpType = "ARCHIVE_CHORE"
	OpCreateHousehold OpType = "CREATE_HOUSEHOLD"
	OpJoinHousehold   OpType = "JOIN_HOUSEHOLD"
)

// OutboxEntry is a queued local mutation awaiting replay against the
// backend. Entries are immutable once written except for Status and Error,
// which only the sync engine touches.
type OutboxEntry struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Type      OpType          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Status    OutboxStatus    `json:"status"`
	Error     string          `json:"error,omitempty"`
}

// OpPayload is the closed set of outbox payload variants. Each variant
// maps to exactly one gateway call; adding a new operation means adding a
// variant here, a case in DecodePayload, and a case in the engine's
// dispatch, which the compiler and tests keep honest.
type OpPayload interface {
	OpType() OpType
}

type CompleteTaskPayload struct {
	TaskID string `json:"task_id"`
}

type CreateTaskPayload struct {
	TaskID         string     `json:"task_id"`
	HouseholdID    string     `json:"household_id"`
	TemplateID     *string    `json:"template_id"`
	Title          string     `json:"title"`
	DueDate        time.Time  `json:"due_date"`
	AssignedUserID string     `json:"assigned_user_id"`
	AreaID         string     `json:"area_id,omitempty"`
	Status         TaskStatus `json:"status"`
}

type CreateChorePayload struct {
	ChoreID           string     `json:"chore_id"`
	HouseholdID       string     `json:"household_id"`
	Name              string     `json:"name"`
	Frequency         Frequency  `json:"frequency"`
	RotationMemberIDs []string   `json:"rotation_member_ids"`
	StartDate         *time.Time `json:"start_date"`
	EndDate           *time.Time `json:"end_date"`
	AreaID            string     `json:"area_id"`
}

type UpdateChorePayload struct {
	ChoreID           string     `json:"chore_id"`
	Name              string     `json:"name"`
	Frequency         Frequency  `json:"frequency"`
	RotationMemberIDs []string   `json:"rotation_member_ids"`
	StartDate         *time.Time `json:"start_date"`
	EndDate           *time.Time `json:"end_date"`
	AreaID            string     `json:"area_id"`
	Active            bool       `json:"active"`
}

type ArchiveChorePayload struct {
	ChoreID string `json:"chore_id"`
}

type CreateHouseholdPayload struct {
	HouseholdID string `json:"household_id"`
	Name        string `json:"name"`
}

type JoinHouseholdPayload struct {
	JoinCode string `json:"join_code"`
}

func (CompleteTaskPayload) OpType() OpType    { return OpCompleteTask }
func (CreateTaskPayload) OpType() OpType      { return OpCreateTask }
func (CreateChorePayload) OpType() OpType     { return OpCreateChore }
func (UpdateChorePayload) OpType() OpType     { return OpUpdateChore }
func (ArchiveChorePayload) OpType() OpType    { return OpArchiveChore }
func (CreateHouseholdPayload) OpType() OpType { return OpCreateHousehold }
func (JoinHouseholdPayload) OpType() OpType   { return OpJoinHousehold }

// EncodePayload serializes a payload variant for outbox storage.
func EncodePayload(p OpPayload) (OpType, json.RawMessage, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", nil, fmt.Errorf("encode payload: %w", err)
	}
	return p.OpType(), raw, nil
}

// DecodePayload restores the typed variant for a stored outbox entry. An
// unrecognized type is an error; the engine records it as a failed entry.
func DecodePayload(t OpType, raw json.RawMessage) (OpPayload, error) {
	var p OpPayload
	switch t {
	case OpCompleteTask:
		p = &CompleteTaskPayload{}
	case OpCreateTask:
		p = &CreateTaskPayload{}
	case OpCreateChore:
		p = &CreateChorePayload{}
	case OpUpdateChore:
		p = &UpdateChorePayload{}
	case OpArchiveChore:
		p = &ArchiveChorePayload{}
	case OpCreateHousehold:
		p = &CreateHouseholdPayload{}
	case OpJoinHousehold:
		p = &JoinHouseholdPayload{}
	default:
		return nil, fmt.Errorf("unknown operation type: %q", t)
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", t, err)
	}
	return p, nil
}
