package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		SuggestionsRequested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openplay_suggestions_requested_total",
			Help: "The total number of match suggestion requests.",
		}),
		SuggestionsProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openplay_suggestions_produced_total",
			Help: "The total number of court suggestions returned.",
		}),
		SuggestionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "openplay_suggestion_duration_seconds",
			Help:    "The duration of computing suggestions for a pool of players.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		MatchesBegun: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openplay_matches_begun_total",
			Help: "The total number of matches moved onto a court.",
		}),
		MatchesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openplay_matches_finished_total",
			Help: "The total number of matches finished and rated.",
		}),
		EventsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openplay_events_dispatched_total",
			Help: "The total number of events delivered to a sink.",
		}),
		EventDispatchFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openplay_event_dispatch_failed_total",
			Help: "The total number of event deliveries that failed.",
		}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openplay_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openplay_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		ScoreboardUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openplay_scoreboard_updates_total",
			Help: "The total number of score reports received from scoreboard devices.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "openplay_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.SuggestionsRequested,
		s.SuggestionsProduced,
		s.SuggestionDuration,
		s.MatchesBegun,
		s.MatchesFinished,
		s.EventsDispatched,
		s.EventDispatchFailed,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.ScoreboardUpdates,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncSuggestionsRequested() {
	s.SuggestionsRequested.Inc()
}

func (s *Service) AddSuggestionsProduced(n int) {
	s.SuggestionsProduced.Add(float64(n))
}

func (s *Service) ObserveSuggestionDuration(duration float64) {
	s.SuggestionDuration.Observe(duration)
}

func (s *Service) IncMatchesBegun() {
	s.MatchesBegun.Inc()
}

func (s *Service) IncMatchesFinished() {
	s.MatchesFinished.Inc()
}

func (s *Service) IncEventsDispatched() {
	s.EventsDispatched.Inc()
}

func (s *Service) IncEventDispatchFailed() {
	s.EventDispatchFailed.Inc()
}

func (s *Service) IncSlackNotifSent() {
	s.SlackNotifSent.Inc()
}

func (s *Service) IncSlackNotifFailed() {
	s.SlackNotifFailed.Inc()
}

func (s *Service) IncScoreboardUpdates() {
	s.ScoreboardUpdates.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
