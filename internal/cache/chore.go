package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shipshape-app/shipshape/internal/model"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

// Rotation lists live as a JSON array in a single column, like the
// backend's own representation, so the order survives round-trips.
func scanChore(scanner interface{ Scan(...any) error }) (*model.ChoreTemplate, error) {
	var c model.ChoreTemplate
	var rotation string
	var start, end sql.NullTime

	err := scanner.Scan(
		&c.ID, &c.HouseholdID, &c.Name, &c.Frequency, &c.Active,
		&rotation, &start, &end, &c.AreaID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(rotation), &c.RotationMemberIDs); err != nil {
		return nil, fmt.Errorf("decode rotation list: %w", err)
	}
	if start.Valid {
		t := start.Time.UTC()
		c.StartDate = &t
	}
	if end.Valid {
		t := end.Time.UTC()
		c.EndDate = &t
	}
	return &c, nil
}

const choreCols = `id, household_id, name, frequency, active, rotation_member_ids, start_date, end_date, area_id, created_at, updated_at`

func (s *ChoreStore) Put(c model.ChoreTemplate) error {
	rotation, err := json.Marshal(c.RotationMemberIDs)
	if err != nil {
		return fmt.Errorf("encode rotation list: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO chore_templates (`+choreCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name, frequency = excluded.frequency, active = excluded.active,
		   rotation_member_ids = excluded.rotation_member_ids, start_date = excluded.start_date,
		   end_date = excluded.end_date, area_id = excluded.area_id, updated_at = excluded.updated_at`,
		c.ID, c.HouseholdID, c.Name, c.Frequency, c.Active,
		string(rotation), nullTime(c.StartDate), nullTime(c.EndDate), c.AreaID,
		c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("put chore template: %w", err)
	}
	return nil
}

func (s *ChoreStore) BulkPut(chores []model.ChoreTemplate) error {
	for _, c := range chores {
		if err := s.Put(c); err != nil {
			return err
		}
	}
	return nil
}

func (s *ChoreStore) GetByID(id string) (*model.ChoreTemplate, error) {
	row := s.db.QueryRow(`SELECT `+choreCols+` FROM chore_templates WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore template: %w", err)
	}
	return c, nil
}

func (s *ChoreStore) ListActiveByHousehold(householdID string) ([]model.ChoreTemplate, error) {
	rows, err := s.db.Query(
		`SELECT `+choreCols+` FROM chore_templates WHERE household_id = ? AND active = 1 ORDER BY created_at DESC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list chore templates: %w", err)
	}
	defer rows.Close()

	var chores []model.ChoreTemplate
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore template: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

// Archive clears the active flag locally; the remote archive follows via
// the outbox.
func (s *ChoreStore) Archive(id string, at time.Time) error {
	_, err := s.db.Exec(
		`UPDATE chore_templates SET active = 0, updated_at = ? WHERE id = ?`,
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("archive chore template: %w", err)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
