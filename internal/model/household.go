package model

import "time"

type Household struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	JoinCode  string    `json:"join_code"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Member is a person slot inside a household. UserID is empty until an
// authenticated user claims the slot; task assignment is always keyed by
// UserID, never by the member id, because backend access control uses
// user ids.
type Member struct {
	ID          string    `json:"id"`
	HouseholdID string    `json:"household_id"`
	DisplayName string    `json:"display_name"`
	AvatarID    string    `json:"avatar_id"`
	UserID      string    `json:"user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
