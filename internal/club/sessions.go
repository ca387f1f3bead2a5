package club

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/openplay/internal/errs"
)

// StartSession opens a new session and clears every per-session counter.
// Only one session can be active at a time.
func (s *store) StartSession(ctx context.Context, now time.Time) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, errs.Storage(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	current, err := activeSession(ctx, tx)
	if err != nil {
		return Session{}, err
	}
	if current != nil {
		return Session{}, errs.Conflict(errs.ErrSessionActive, "session %d is already active", current.ID)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE players SET session_matches_played = 0, session_wins = 0,
		session_last_played = NULL, consecutive_matches = 0`); err != nil {
		return Session{}, errs.Storage(err, "failed to reset session counters")
	}
	if _, err := tx.ExecContext(ctx, "UPDATE courts SET session_turns = 0"); err != nil {
		return Session{}, errs.Storage(err, "failed to reset court turns")
	}
	res, err := tx.ExecContext(ctx, "INSERT INTO sessions (status, start_time) VALUES ('active', ?)", now.Unix())
	if err != nil {
		return Session{}, errs.Storage(err, "failed to insert session")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Session{}, errs.Storage(err, "failed to read new session id")
	}
	if err := tx.Commit(); err != nil {
		return Session{}, errs.Storage(err, "failed to commit session")
	}
	log.Info("Session started", "sessionID", id)
	return Session{ID: id, Status: "active", StartTime: time.Unix(now.Unix(), 0)}, nil
}

// EndSession closes the active session and marks every player unavailable.
func (s *store) EndSession(ctx context.Context, now time.Time) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, errs.Storage(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	current, err := activeSession(ctx, tx)
	if err != nil {
		return Session{}, err
	}
	if current == nil {
		return Session{}, errs.NotFound(errs.ErrNoActiveSession, "no active session to end")
	}
	if _, err := tx.ExecContext(ctx, "UPDATE sessions SET status = 'ended', end_time = ? WHERE id = ?", now.Unix(), current.ID); err != nil {
		return Session{}, errs.Storage(err, "failed to end session %d", current.ID)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE players SET is_active = 0"); err != nil {
		return Session{}, errs.Storage(err, "failed to deactivate players")
	}
	if err := tx.Commit(); err != nil {
		return Session{}, errs.Storage(err, "failed to commit session %d", current.ID)
	}
	end := time.Unix(now.Unix(), 0)
	current.Status = "ended"
	current.EndTime = &end
	log.Info("Session ended", "sessionID", current.ID)
	return *current, nil
}

// CurrentSession returns nil when no session is active.
func (s *store) CurrentSession(ctx context.Context) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return activeSession(ctx, s.db)
}

func activeSession(ctx context.Context, q querier) (*Session, error) {
	var (
		sess  Session
		start int64
		end   sql.NullInt64
	)
	err := q.QueryRowContext(ctx,
		"SELECT id, status, start_time, end_time FROM sessions WHERE status = 'active' ORDER BY id DESC LIMIT 1",
	).Scan(&sess.ID, &sess.Status, &start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Storage(err, "failed to query active session")
	}
	sess.StartTime = time.Unix(start, 0)
	sess.EndTime = fromUnix(end)
	return &sess, nil
}
