package club

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/openplay/internal/errs"
)

func (s *store) AddCourt(ctx context.Context, name string) (Court, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return Court{}, errs.Validation(nil, "court name is required")
	}
	res, err := s.db.ExecContext(ctx, "INSERT INTO courts (name) VALUES (?)", name)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return Court{}, errs.Conflict(nil, "court %q already exists", name)
		}
		return Court{}, errs.Storage(err, "failed to add court %q", name)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Court{}, errs.Storage(err, "failed to read new court id")
	}
	log.Info("Added court", "courtID", id, "name", name)
	return Court{ID: id, Name: name}, nil
}

func (s *store) GetCourts(ctx context.Context) ([]Court, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryCourts(ctx, s.db, "SELECT id, name, session_turns FROM courts ORDER BY id ASC")
}

// GetFreeCourts returns the courts without an ongoing match, ordered by id.
func (s *store) GetFreeCourts(ctx context.Context) ([]Court, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryCourts(ctx, s.db, `SELECT id, name, session_turns FROM courts
		WHERE id NOT IN (SELECT court_id FROM matches WHERE status = 'ongoing' AND court_id IS NOT NULL)
		ORDER BY id ASC`)
}

func queryCourts(ctx context.Context, q querier, query string, args ...any) ([]Court, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.Storage(err, "failed to query courts")
	}
	defer rows.Close()

	courts := []Court{}
	for rows.Next() {
		var c Court
		if err := rows.Scan(&c.ID, &c.Name, &c.SessionTurns); err != nil {
			return nil, errs.Storage(err, "failed to scan court row")
		}
		courts = append(courts, c)
	}
	return courts, errs.Storage(rows.Err(), "failed to iterate courts")
}

func courtExists(ctx context.Context, q querier, id int64) error {
	var found int64
	err := q.QueryRowContext(ctx, "SELECT id FROM courts WHERE id = ?", id).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return errs.NotFound(nil, "court %d not found", id)
	}
	return errs.Storage(err, "failed to look up court %d", id)
}
