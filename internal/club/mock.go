package club

import (
	"context"
	"sync"
	"time"
)

// MockStore is a mock implementation of the ClubStore interface for testing.
// It is safe for concurrent use. Methods without a Func return zero values.
type MockStore struct {
	mu sync.Mutex

	// Spies for method calls
	AddPlayerFunc          func(p Player) (Player, error)
	GetPlayerFunc          func(id int64) (Player, error)
	GetPlayersFunc         func(ids []int64) ([]Player, error)
	GetAllPlayersFunc      func() ([]Player, error)
	SetPlayerActiveFunc    func(id int64, active bool) error
	GetEligiblePlayersFunc func(ids []int64, maxConsecutive int) ([]Player, error)
	ResetRestedPlayersFunc func() (int64, error)
	AddCourtFunc           func(name string) (Court, error)
	GetCourtsFunc          func() ([]Court, error)
	GetFreeCourtsFunc      func() ([]Court, error)
	PairCountsFunc         func(ids []int64) (PairCounts, error)
	GetPairHistoryFunc     func(a, b int64) (*PairHistory, error)
	CreateMatchFunc        func(courtID *int64, teamA, teamB []int64, now time.Time) (Match, error)
	GetMatchFunc           func(id int64) (Match, error)
	ListMatchesFunc        func(status MatchStatus) ([]Match, error)
	BeginMatchFunc         func(id int64, courtID *int64, now time.Time) (Match, error)
	FinishMatchFunc        func(req FinishRequest) (Match, error)
	StartSessionFunc       func(now time.Time) (Session, error)
	EndSessionFunc         func(now time.Time) (Session, error)
	CurrentSessionFunc     func() (*Session, error)

	// Call records
	GetEligiblePlayersCalls []struct {
		IDs            []int64
		MaxConsecutive int
	}
	CreateMatchCalls []struct {
		CourtID      *int64
		TeamA, TeamB []int64
	}
	BeginMatchCalls []struct {
		ID      int64
		CourtID *int64
	}
	FinishMatchCalls []FinishRequest
}

// NewMock creates a new mock instance.
func NewMock() *MockStore {
	return &MockStore{}
}

// Reset clears all call records.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetEligiblePlayersCalls = nil
	m.CreateMatchCalls = nil
	m.BeginMatchCalls = nil
	m.FinishMatchCalls = nil
}

func (m *MockStore) AddPlayer(ctx context.Context, p Player) (Player, error) {
	if m.AddPlayerFunc != nil {
		return m.AddPlayerFunc(p)
	}
	return p, nil
}

func (m *MockStore) GetPlayer(ctx context.Context, id int64) (Player, error) {
	if m.GetPlayerFunc != nil {
		return m.GetPlayerFunc(id)
	}
	return Player{}, nil
}

func (m *MockStore) GetPlayers(ctx context.Context, ids []int64) ([]Player, error) {
	if m.GetPlayersFunc != nil {
		return m.GetPlayersFunc(ids)
	}
	return nil, nil
}

func (m *MockStore) GetAllPlayers(ctx context.Context) ([]Player, error) {
	if m.GetAllPlayersFunc != nil {
		return m.GetAllPlayersFunc()
	}
	return nil, nil
}

func (m *MockStore) SetPlayerActive(ctx context.Context, id int64, active bool) error {
	if m.SetPlayerActiveFunc != nil {
		return m.SetPlayerActiveFunc(id, active)
	}
	return nil
}

func (m *MockStore) GetEligiblePlayers(ctx context.Context, ids []int64, maxConsecutive int) ([]Player, error) {
	m.mu.Lock()
	m.GetEligiblePlayersCalls = append(m.GetEligiblePlayersCalls, struct {
		IDs            []int64
		MaxConsecutive int
	}{ids, maxConsecutive})
	m.mu.Unlock()
	if m.GetEligiblePlayersFunc != nil {
		return m.GetEligiblePlayersFunc(ids, maxConsecutive)
	}
	return nil, nil
}

func (m *MockStore) ResetRestedPlayers(ctx context.Context) (int64, error) {
	if m.ResetRestedPlayersFunc != nil {
		return m.ResetRestedPlayersFunc()
	}
	return 0, nil
}

func (m *MockStore) AddCourt(ctx context.Context, name string) (Court, error) {
	if m.AddCourtFunc != nil {
		return m.AddCourtFunc(name)
	}
	return Court{Name: name}, nil
}

func (m *MockStore) GetCourts(ctx context.Context) ([]Court, error) {
	if m.GetCourtsFunc != nil {
		return m.GetCourtsFunc()
	}
	return nil, nil
}

func (m *MockStore) GetFreeCourts(ctx context.Context) ([]Court, error) {
	if m.GetFreeCourtsFunc != nil {
		return m.GetFreeCourtsFunc()
	}
	return nil, nil
}

func (m *MockStore) PairCounts(ctx context.Context, ids []int64) (PairCounts, error) {
	if m.PairCountsFunc != nil {
		return m.PairCountsFunc(ids)
	}
	return PairCounts{}, nil
}

func (m *MockStore) GetPairHistory(ctx context.Context, a, b int64) (*PairHistory, error) {
	if m.GetPairHistoryFunc != nil {
		return m.GetPairHistoryFunc(a, b)
	}
	return nil, nil
}

func (m *MockStore) CreateMatch(ctx context.Context, courtID *int64, teamA, teamB []int64, now time.Time) (Match, error) {
	m.mu.Lock()
	m.CreateMatchCalls = append(m.CreateMatchCalls, struct {
		CourtID      *int64
		TeamA, TeamB []int64
	}{courtID, teamA, teamB})
	m.mu.Unlock()
	if m.CreateMatchFunc != nil {
		return m.CreateMatchFunc(courtID, teamA, teamB, now)
	}
	return Match{Status: StatusQueued, CourtID: courtID, CreatedAt: now}, nil
}

func (m *MockStore) GetMatch(ctx context.Context, id int64) (Match, error) {
	if m.GetMatchFunc != nil {
		return m.GetMatchFunc(id)
	}
	return Match{ID: id}, nil
}

func (m *MockStore) ListMatches(ctx context.Context, status MatchStatus) ([]Match, error) {
	if m.ListMatchesFunc != nil {
		return m.ListMatchesFunc(status)
	}
	return nil, nil
}

func (m *MockStore) BeginMatch(ctx context.Context, id int64, courtID *int64, now time.Time) (Match, error) {
	m.mu.Lock()
	m.BeginMatchCalls = append(m.BeginMatchCalls, struct {
		ID      int64
		CourtID *int64
	}{id, courtID})
	m.mu.Unlock()
	if m.BeginMatchFunc != nil {
		return m.BeginMatchFunc(id, courtID, now)
	}
	return Match{ID: id, Status: StatusOngoing, CourtID: courtID, StartTime: &now}, nil
}

func (m *MockStore) FinishMatch(ctx context.Context, req FinishRequest) (Match, error) {
	m.mu.Lock()
	m.FinishMatchCalls = append(m.FinishMatchCalls, req)
	m.mu.Unlock()
	if m.FinishMatchFunc != nil {
		return m.FinishMatchFunc(req)
	}
	return Match{ID: req.MatchID, Status: StatusFinished}, nil
}

func (m *MockStore) StartSession(ctx context.Context, now time.Time) (Session, error) {
	if m.StartSessionFunc != nil {
		return m.StartSessionFunc(now)
	}
	return Session{Status: "active", StartTime: now}, nil
}

func (m *MockStore) EndSession(ctx context.Context, now time.Time) (Session, error) {
	if m.EndSessionFunc != nil {
		return m.EndSessionFunc(now)
	}
	return Session{Status: "ended", EndTime: &now}, nil
}

func (m *MockStore) CurrentSession(ctx context.Context) (*Session, error) {
	if m.CurrentSessionFunc != nil {
		return m.CurrentSessionFunc()
	}
	return nil, nil
}
