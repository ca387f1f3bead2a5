package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	SuggestionsRequested prometheus.Counter
	SuggestionsProduced  prometheus.Counter
	SuggestionDuration   prometheus.Histogram
	MatchesBegun         prometheus.Counter
	MatchesFinished      prometheus.Counter
	EventsDispatched     prometheus.Counter
	EventDispatchFailed  prometheus.Counter
	SlackNotifSent       prometheus.Counter
	SlackNotifFailed     prometheus.Counter
	ScoreboardUpdates    prometheus.Counter
	StartupTimeSeconds   prometheus.Gauge
}
