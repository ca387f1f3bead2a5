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

type Server struct {
	Store          club.ClubStore
	Settings       settings.SettingsStore
	Processor      *processor.Processor
	Scoreboards    *scoreboard.Service
	Reports        scoreboard.ReportPublisher
	Hub            *realtime.Hub
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Router         *http.ServeMux
}
