package http

import (
	"net/http"

	"github.com/mauv0809/openplay/internal/club"
	"github.com/mauv0809/openplay/internal/metrics"
	"github.com/mauv0809/openplay/internal/processor"
	"github.com/mauv0809/openplay/internal/realtime"
	"github.com/mauv0809/openplay/internal/scoreboard"
	"github.com/mauv0809/openplay/internal/settings"
)

// NewServer wires the routes. reports receives device scores from the
// device socket; it is the redis bridge when one is configured.
func NewServer(store club.ClubStore, settingsStore settings.SettingsStore, proc *processor.Processor, boards *scoreboard.Service, reports scoreboard.ReportPublisher, hub *realtime.Hub, metricsSvc metrics.Metrics, metricsHandler http.Handler) *Server {
	server := &Server{
		Store:          store,
		Settings:       settingsStore,
		Processor:      proc,
		Scoreboards:    boards,
		Reports:        reports,
		Hub:            hub,
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Router:         http.NewServeMux(),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// All handlers are wrapped with middleware using the Chain helper.
	s.Router.Handle("GET /metrics", s.MetricsHandler)
	s.handle("GET /health", s.HealthCheckHandler())

	s.handle("GET /api/players", s.ListPlayersHandler())
	s.handle("POST /api/players", s.AddPlayerHandler())
	s.handle("POST /api/players/{id}/active", s.SetPlayerActiveHandler())
	s.handle("GET /api/courts", s.ListCourtsHandler())
	s.handle("POST /api/courts", s.AddCourtHandler())

	s.handle("POST /api/suggestions", s.SuggestionsHandler())
	s.handle("POST /api/matches", s.CreateMatchHandler())
	s.handle("GET /api/matches/{status}", s.ListMatchesHandler())
	s.handle("POST /api/matches/{id}/begin", s.BeginMatchHandler())
	s.handle("POST /api/matches/{id}/finish", s.FinishMatchHandler())

	s.handle("GET /api/settings", s.GetSettingsHandler())
	s.handle("PUT /api/settings", s.UpdateSettingsHandler())

	s.handle("GET /api/sessions/current", s.CurrentSessionHandler())
	s.handle("POST /api/sessions/start", s.StartSessionHandler())
	s.handle("POST /api/sessions/end", s.EndSessionHandler())

	s.handle("GET /api/scoreboards", s.ListScoreboardsHandler())
	s.handle("POST /api/scoreboards/assign", s.AssignScoreboardHandler())
	s.handle("POST /api/scoreboards/unassign", s.UnassignScoreboardHandler())
	s.handle("POST /api/scoreboards/toggle-swap", s.ToggleSwapHandler())
	s.handle("POST /api/scoreboards/control", s.ControlScoreboardHandler())
	s.handle("POST /api/scoreboards/{device_id}/score", s.DeviceScoreHandler())

	s.handle("GET /ws", http.HandlerFunc(s.Hub.ServeWS))
	s.handle("GET /ws/device", scoreboard.DeviceHandler(s.Reports))
}

func (s *Server) handle(pattern string, h http.Handler) {
	s.Router.Handle(pattern, Chain(h, paramsMiddleware))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
