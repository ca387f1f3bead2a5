package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                   sync.Mutex
	suggestionsRequested int
	suggestionsProduced  int
	suggestionDurations  []float64
	matchesBegun         int
	matchesFinished      int
	eventsDispatched     int
	eventDispatchFailed  int
	slackNotifSent       int
	slackNotifFailed     int
	scoreboardUpdates    int
	startupTime          float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		suggestionDurations: make([]float64, 0),
	}
}

func (m *Mock) IncSuggestionsRequested() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suggestionsRequested++
}

func (m *Mock) AddSuggestionsProduced(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suggestionsProduced += n
}

func (m *Mock) ObserveSuggestionDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suggestionDurations = append(m.suggestionDurations, duration)
}

func (m *Mock) IncMatchesBegun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesBegun++
}

func (m *Mock) IncMatchesFinished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesFinished++
}

func (m *Mock) IncEventsDispatched() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventsDispatched++
}

func (m *Mock) IncEventDispatchFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventDispatchFailed++
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) IncScoreboardUpdates() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scoreboardUpdates++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// SuggestionsRequested returns the number of times IncSuggestionsRequested was called.
func (m *Mock) SuggestionsRequested() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.suggestionsRequested
}

// SuggestionsProduced returns the sum passed to AddSuggestionsProduced.
func (m *Mock) SuggestionsProduced() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.suggestionsProduced
}

// SuggestionDurations returns every observed duration.
func (m *Mock) SuggestionDurations() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.suggestionDurations...)
}

func (m *Mock) MatchesBegun() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesBegun
}

func (m *Mock) MatchesFinished() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesFinished
}

func (m *Mock) EventsDispatched() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventsDispatched
}

func (m *Mock) EventDispatchFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventDispatchFailed
}

// SlackNotifSent returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailed returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}

func (m *Mock) ScoreboardUpdates() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scoreboardUpdates
}

func (m *Mock) StartupTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startupTime
}
