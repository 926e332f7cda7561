package model

import "time"

type Frequency string

const (
	FreqDaily    Frequency = "daily"
	FreqWeekly   Frequency = "weekly"
	FreqBiweekly Frequency = "biweekly"
	FreqMonthly  Frequency = "monthly"
)

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FreqDaily, FreqWeekly, FreqBiweekly, FreqMonthly:
		return true
	}
	return false
}

// AddTo advances t by one frequency step. Monthly steps use calendar
// months, so Jan 31 + monthly lands in early March per time.AddDate rules.
func (f Frequency) AddTo(t time.Time) time.Time {
	switch f {
	case FreqDaily:
		return t.AddDate(0, 0, 1)
	case FreqWeekly:
		return t.AddDate(0, 0, 7)
	case FreqBiweekly:
		return t.AddDate(0, 0, 14)
	case FreqMonthly:
		return t.AddDate(0, 1, 0)
	}
	return t
}

// ChoreTemplate is a recurrence rule the scheduler expands into tasks.
// RotationMemberIDs holds member ids (not user ids) in assignment order.
type ChoreTemplate struct {
	ID                string    `json:"id"`
	HouseholdID       string    `json:"household_id"`
	Name              string    `json:"name"`
	Frequency         Frequency `json:"frequency"`
	Active            bool      `json:"active"`
	RotationMemberIDs []string  `json:"rotation_member_ids"`
	StartDate         *time.Time `json:"start_date"`
	EndDate           *time.Time `json:"end_date"`
	AreaID            string    `json:"area_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type CreateChoreInput struct {
	Name              string
	Frequency         Frequency
	RotationMemberIDs []string
	StartDate         *time.Time
	EndDate           *time.Time
	AreaID            string
}

type Area struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}
