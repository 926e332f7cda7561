package cache

import (
	"database/sql"
	"fmt"

	"github.com/shipshape-app/shipshape/internal/model"
)

type AreaStore struct {
	db *sql.DB
}

func NewAreaStore(db *sql.DB) *AreaStore {
	return &AreaStore{db: db}
}

const areaCols = `id, key, name`

func (s *AreaStore) BulkPut(areas []model.Area) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, a := range areas {
		if _, err := tx.Exec(
			`INSERT INTO areas (`+areaCols+`) VALUES (?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET key = excluded.key, name = excluded.name`,
			a.ID, a.Key, a.Name,
		); err != nil {
			return fmt.Errorf("put area: %w", err)
		}
	}
	return tx.Commit()
}

func (s *AreaStore) List() ([]model.Area, error) {
	rows, err := s.db.Query(`SELECT ` + areaCols + ` FROM areas ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	defer rows.Close()

	var areas []model.Area
	for rows.Next() {
		var a model.Area
		if err := rows.Scan(&a.ID, &a.Key, &a.Name); err != nil {
			return nil, fmt.Errorf("scan area: %w", err)
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}
