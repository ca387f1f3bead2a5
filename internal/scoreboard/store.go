package scoreboard

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/openplay/internal/errs"
)

// New creates a Store backed by db.
func New(db *sql.DB) Store {
	return &store{db: db}
}

const boardColumns = "device_id, court_id, score_a, score_b, is_swapped, updated_by, last_seen"

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *store) List(ctx context.Context) ([]Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+boardColumns+" FROM scoreboards ORDER BY device_id")
	if err != nil {
		return nil, errs.Storage(err, "failed to query scoreboards")
	}
	defer rows.Close()

	boards := []Board{}
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, errs.Storage(err, "failed to scan scoreboard row")
		}
		boards = append(boards, b)
	}
	return boards, errs.Storage(rows.Err(), "failed to iterate scoreboards")
}

// Assign moves the device onto the court. A board already on the court is
// unassigned first.
func (s *store) Assign(ctx context.Context, deviceID string, courtID int64) error {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" || courtID <= 0 {
		return errs.Validation(nil, "device id and court id are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Storage(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM courts WHERE id = ?", courtID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return errs.NotFound(nil, "court %d not found", courtID)
	}
	if err != nil {
		return errs.Storage(err, "failed to look up court %d", courtID)
	}

	if _, err := tx.ExecContext(ctx, "UPDATE scoreboards SET court_id = NULL WHERE court_id = ?", courtID); err != nil {
		return errs.Storage(err, "failed to clear court %d", courtID)
	}
	res, err := tx.ExecContext(ctx, "UPDATE scoreboards SET court_id = ? WHERE device_id = ?", courtID, deviceID)
	if err != nil {
		return errs.Storage(err, "failed to assign scoreboard %s", deviceID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NotFound(nil, "scoreboard %s not found", deviceID)
	}
	if err := tx.Commit(); err != nil {
		return errs.Storage(err, "failed to commit scoreboard assignment")
	}
	log.Info("Assigned scoreboard", "deviceID", deviceID, "courtID", courtID)
	return nil
}

// Unassign detaches whatever board is on the court. It is not an error if
// there is none.
func (s *store) Unassign(ctx context.Context, courtID int64) error {
	if courtID <= 0 {
		return errs.Validation(nil, "court id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "UPDATE scoreboards SET court_id = NULL WHERE court_id = ?", courtID); err != nil {
		return errs.Storage(err, "failed to unassign scoreboard from court %d", courtID)
	}
	return nil
}

func (s *store) ToggleSwap(ctx context.Context, courtID int64) (Board, error) {
	if courtID <= 0 {
		return Board{}, errs.Validation(nil, "court id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateCourtBoard(ctx, courtID, "is_swapped = 1 - is_swapped")
}

func (s *store) Control(ctx context.Context, courtID int64, action Action) (Board, error) {
	if courtID <= 0 {
		return Board{}, errs.Validation(nil, "court id is required")
	}
	set, ok := controlSQL[action]
	if !ok {
		return Board{}, errs.Validation(nil, "invalid action %q", action)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateCourtBoard(ctx, courtID, set+", updated_by = '"+UpdatedByWeb+"'")
}

// ReportScore records a device's score, registering the device on first
// contact.
func (s *store) ReportScore(ctx context.Context, r Report, now time.Time) (Board, error) {
	r.DeviceID = strings.TrimSpace(r.DeviceID)
	if r.DeviceID == "" {
		return Board{}, errs.Validation(nil, "device id is required")
	}
	if r.ScoreA < 0 || r.ScoreB < 0 {
		return Board{}, errs.Validation(errs.ErrInvalidScore, "scores must be non-negative, got %d-%d", r.ScoreA, r.ScoreB)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scoreboards (device_id, score_a, score_b, updated_by, last_seen) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET
			score_a = excluded.score_a,
			score_b = excluded.score_b,
			updated_by = excluded.updated_by,
			last_seen = excluded.last_seen`,
		r.DeviceID, r.ScoreA, r.ScoreB, UpdatedByDevice, now.Unix(),
	)
	if err != nil {
		return Board{}, errs.Storage(err, "failed to record score for %s", r.DeviceID)
	}
	b, err := scanBoard(s.db.QueryRowContext(ctx, "SELECT "+boardColumns+" FROM scoreboards WHERE device_id = ?", r.DeviceID))
	if err != nil {
		return Board{}, errs.Storage(err, "failed to reload scoreboard %s", r.DeviceID)
	}
	return b, nil
}

func (s *store) updateCourtBoard(ctx context.Context, courtID int64, set string) (Board, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Board{}, errs.Storage(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "UPDATE scoreboards SET "+set+" WHERE court_id = ?", courtID)
	if err != nil {
		return Board{}, errs.Storage(err, "failed to update scoreboard on court %d", courtID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Board{}, errs.NotFound(nil, "no scoreboard assigned to court %d", courtID)
	}
	b, err := boardOnCourt(ctx, tx, courtID)
	if err != nil {
		return Board{}, err
	}
	if err := tx.Commit(); err != nil {
		return Board{}, errs.Storage(err, "failed to commit scoreboard update")
	}
	return b, nil
}

func boardOnCourt(ctx context.Context, q querier, courtID int64) (Board, error) {
	b, err := scanBoard(q.QueryRowContext(ctx, "SELECT "+boardColumns+" FROM scoreboards WHERE court_id = ?", courtID))
	if err != nil {
		return Board{}, errs.Storage(err, "failed to read scoreboard on court %d", courtID)
	}
	return b, nil
}

func scanBoard(scanner interface{ Scan(...any) error }) (Board, error) {
	var (
		b        Board
		courtID  sql.NullInt64
		swapped  int
		lastSeen sql.NullInt64
	)
	if err := scanner.Scan(&b.DeviceID, &courtID, &b.ScoreA, &b.ScoreB, &swapped, &b.UpdatedBy, &lastSeen); err != nil {
		return Board{}, err
	}
	if courtID.Valid {
		b.CourtID = &courtID.Int64
	}
	if lastSeen.Valid {
		t := time.Unix(lastSeen.Int64, 0)
		b.LastSeen = &t
	}
	b.IsSwapped = swapped != 0
	return b, nil
}
