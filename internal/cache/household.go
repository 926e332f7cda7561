package cache

import (
	"database/sql"
	"fmt"

	"github.com/shipshape-app/shipshape/internal/model"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	err := scanner.Scan(&h.ID, &h.Name, &h.JoinCode, &h.CreatedBy, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const householdCols = `id, name, join_code, created_by, created_at`

// Put inserts or replaces a household row (remote rows win on conflict).
func (s *HouseholdStore) Put(h model.Household) error {
	_, err := s.db.Exec(
		`INSERT INTO households (`+householdCols+`) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, join_code = excluded.join_code, created_by = excluded.created_by`,
		h.ID, h.Name, h.JoinCode, h.CreatedBy, h.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("put household: %w", err)
	}
	return nil
}

func (s *HouseholdStore) GetByID(id string) (*model.Household, error) {
	row := s.db.QueryRow(`SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) GetByJoinCode(code string) (*model.Household, error) {
	row := s.db.QueryRow(`SELECT `+householdCols+` FROM households WHERE join_code = ?`, code)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household by join code: %w", err)
	}
	return h, nil
}

// First returns the cached household, if any. The client only ever caches
// the household the signed-in user belongs to.
func (s *HouseholdStore) First() (*model.Household, error) {
	row := s.db.QueryRow(`SELECT ` + householdCols + ` FROM households ORDER BY created_at ASC LIMIT 1`)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("first household: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM households WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete household: %w", err)
	}
	return nil
}
