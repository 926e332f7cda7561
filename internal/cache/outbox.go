package cache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shipshape-app/shipshape/internal/model"
)

// OutboxStore persists queued mutations. Rows are written by enqueue and
// only ever transitioned by the sync engine; done rows stay as history
// until compacted.
type OutboxStore struct {
	db *sql.DB
}

func NewOutboxStore(db *sql.DB) *OutboxStore {
	return &OutboxStore{db: db}
}

func scanOutboxEntry(scanner interface{ Scan(...any) error }) (*model.OutboxEntry, error) {
	var e model.OutboxEntry
	var payload string
	err := scanner.Scan(&e.ID, &e.CreatedAt, &e.Type, &payload, &e.Status, &e.Error)
	if err != nil {
		return nil, err
	}
	e.Payload = []byte(payload)
	return &e, nil
}

const outboxCols = `id, created_at, type, payload, status, error`

func (s *OutboxStore) Add(e model.OutboxEntry) error {
	_, err := s.db.Exec(
		`INSERT INTO outbox (`+outboxCols+`) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt.UTC(), e.Type, string(e.Payload), e.Status, e.Error,
	)
	if err != nil {
		return fmt.Errorf("add outbox entry: %w", err)
	}
	return nil
}

func (s *OutboxStore) Get(id string) (*model.OutboxEntry, error) {
	row := s.db.QueryRow(`SELECT `+outboxCols+` FROM outbox WHERE id = ?`, id)
	e, err := scanOutboxEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get outbox entry: %w", err)
	}
	return e, nil
}

// ListReplayable returns pending and failed entries in creation order.
// Failed entries are eligible for re-pickup exactly like pending ones.
func (s *OutboxStore) ListReplayable() ([]model.OutboxEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+outboxCols+` FROM outbox WHERE status IN (?, ?) ORDER BY created_at ASC`,
		model.OutboxPending, model.OutboxFailed,
	)
	if err != nil {
		return nil, fmt.Errorf("list replayable entries: %w", err)
	}
	defer rows.Close()

	var entries []model.OutboxEntry
	for rows.Next() {
		e, err := scanOutboxEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outbox entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (s *OutboxStore) SetStatus(id string, status model.OutboxStatus, errMsg string) error {
	_, err := s.db.Exec(
		`UPDATE outbox SET status = ?, error = ? WHERE id = ?`,
		status, errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("set outbox status: %w", err)
	}
	return nil
}

// CountByStatus uses the status index rather than scanning rows.
func (s *OutboxStore) CountByStatus(status model.OutboxStatus) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM outbox WHERE status = ?`, status).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count outbox %s: %w", status, err)
	}
	return n, nil
}

// PurgeDone removes done entries created before the cutoff and returns how
// many were removed.
func (s *OutboxStore) PurgeDone(before time.Time) (int64, error) {
	res, err := s.db.Exec(
		`DELETE FROM outbox WHERE status = ? AND created_at < ?`,
		model.OutboxDone, before.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("purge done entries: %w", err)
	}
	return res.RowsAffected()
}
