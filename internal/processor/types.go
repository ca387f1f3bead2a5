package processor

import (
	"time"

	"github.com/mauv0809/openplay/internal/matchmaking"
	"github.com/mauv0809/openplay/internal/metrics"
	"github.com/mauv0809/openplay/internal/notifier"
	"github.com/mauv0809/openplay/internal/settings"
)

// Processor runs the club's state transitions. Every successful mutation
// publishes its events after the store has committed.
type Processor struct {
	store     Store
	settings  settings.SettingsStore
	publisher notifier.Publisher
	metrics   metrics.Metrics
	now       func() time.Time
}

// SuggestRequest asks for matches among PlayerIDs.
type SuggestRequest struct {
	PlayerIDs []int64
	Rules     matchmaking.Rules
}
