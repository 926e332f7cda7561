package cache

import (
	"database/sql"
	"fmt"

	"github.com/shipshape-app/shipshape/internal/model"
)

type MemberStore struct {
	db *sql.DB
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	err := scanner.Scan(&m.ID, &m.HouseholdID, &m.DisplayName, &m.AvatarID, &m.UserID, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const memberCols = `id, household_id, display_name, avatar_id, user_id, created_at`

func (s *MemberStore) Put(m model.Member) error {
	_, err := s.db.Exec(
		`INSERT INTO members (`+memberCols+`) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET display_name = excluded.display_name, avatar_id = excluded.avatar_id, user_id = excluded.user_id`,
		m.ID, m.HouseholdID, m.DisplayName, m.AvatarID, m.UserID, m.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("put member: %w", err)
	}
	return nil
}

// BulkPut replaces the cached member set for a household in one transaction.
func (s *MemberStore) BulkPut(householdID string, members []model.Member) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM members WHERE household_id = ?`, householdID); err != nil {
		return fmt.Errorf("clear members: %w", err)
	}
	for _, m := range members {
		if _, err := tx.Exec(
			`INSERT INTO members (`+memberCols+`) VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, m.HouseholdID, m.DisplayName, m.AvatarID, m.UserID, m.CreatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("insert member: %w", err)
		}
	}
	return tx.Commit()
}

func (s *MemberStore) GetByID(id string) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (s *MemberStore) GetByUserID(userID string) (*model.Member, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE user_id = ? LIMIT 1`, userID)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member by user: %w", err)
	}
	return m, nil
}

func (s *MemberStore) ListByHousehold(householdID string) ([]model.Member, error) {
	rows, err := s.db.Query(
		`SELECT `+memberCols+` FROM members WHERE household_id = ? ORDER BY created_at ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}
