package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncSuggestionsRequested()
	AddSuggestionsProduced(n int)
	ObserveSuggestionDuration(duration float64)
	IncMatchesBegun()
	IncMatchesFinished()
	IncEventsDispatched()
	IncEventDispatchFailed()
	IncSlackNotifSent()
	IncSlackNotifFailed()
	IncScoreboardUpdates()
	SetStartupTime(duration float64)
}
