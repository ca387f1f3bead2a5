package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/openplay/internal/club"
	"github.com/mauv0809/openplay/internal/errs"
	"github.com/mauv0809/openplay/internal/matchmaking"
	"github.com/mauv0809/openplay/internal/processor"
	"github.com/mauv0809/openplay/internal/scoreboard"
)

func (s *Server) HealthCheckHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Debug("Received health check request")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK!")
	}
}

func (s *Server) ListPlayersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		players, err := s.Store.GetAllPlayers(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, players)
	}
}

type addPlayerRequest struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Category string   `json:"category"`
	Rating   *float64 `json:"elo_rating"`
	Active   bool     `json:"is_active"`
}

// AddPlayerHandler registers a player. Without a rating the configured
// default is used.
func (s *Server) AddPlayerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addPlayerRequest
		if err := decodeJSON(r, &req, false); err != nil {
			writeError(w, r, err)
			return
		}
		cfg, err := s.Settings.Get(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		initial := cfg.DefaultRating
		if req.Rating != nil {
			initial = *req.Rating
		}
		p, err := club.NewPlayer(req.Name, req.Type, req.Category, initial)
		if err != nil {
			writeError(w, r, err)
			return
		}
		p.Active = req.Active
		p, err = s.Store.AddPlayer(r.Context(), p)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

// SetPlayerActiveHandler checks a player in or out of the evening's pool.
func (s *Server) SetPlayerActiveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req struct {
			Active *bool `json:"is_active"`
		}
		if err := decodeJSON(r, &req, false); err != nil {
			writeError(w, r, err)
			return
		}
		if req.Active == nil {
			writeError(w, r, errs.Validation(nil, "is_active is required"))
			return
		}
		if err := s.Store.SetPlayerActive(r.Context(), id, *req.Active); err != nil {
			writeError(w, r, err)
			return
		}
		p, err := s.Store.GetPlayer(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func (s *Server) ListCourtsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courts, err := s.Store.GetCourts(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, courts)
	}
}

func (s *Server) AddCourtHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string `json:"name"`
		}
		if err := decodeJSON(r, &req, false); err != nil {
			writeError(w, r, err)
			return
		}
		c, err := s.Store.AddCourt(r.Context(), req.Name)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

type suggestionsRequest struct {
	PlayerIDs          []int64 `json:"player_ids"`
	PrioritizeRest     *bool   `json:"prioritize_rest"`
	PrioritizeLowGames *bool   `json:"prioritize_low_games"`
	AvoidRematch       *bool   `json:"avoid_rematch"`
}

func (req suggestionsRequest) rules() matchmaking.Rules {
	rules := matchmaking.DefaultRules()
	if req.PrioritizeRest != nil {
		rules.PrioritizeRest = *req.PrioritizeRest
	}
	if req.PrioritizeLowGames != nil {
		rules.PrioritizeLowGames = *req.PrioritizeLowGames
	}
	if req.AvoidRematch != nil {
		rules.AvoidRematch = *req.AvoidRematch
	}
	return rules
}

type suggestionsResponse struct {
	Suggestions []matchmaking.Suggestion `json:"suggestions"`
}

func (s *Server) SuggestionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req suggestionsRequest
		if err := decodeJSON(r, &req, false); err != nil {
			writeError(w, r, err)
			return
		}
		if req.PlayerIDs == nil {
			writeError(w, r, errs.Validation(nil, "player_ids is required"))
			return
		}
		suggestions, err := s.Processor.Suggest(r.Context(), processor.SuggestRequest{
			PlayerIDs: req.PlayerIDs,
			Rules:     req.rules(),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, suggestionsResponse{Suggestions: suggestions})
	}
}

type createMatchRequest struct {
	CourtID *int64  `json:"court_id"`
	TeamA   []int64 `json:"team_A"`
	TeamB   []int64 `json:"team_B"`
}

func (s *Server) CreateMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createMatchRequest
		if err := decodeJSON(r, &req, false); err != nil {
			writeError(w, r, err)
			return
		}
		m, err := s.Processor.CreateMatch(r.Context(), req.CourtID, req.TeamA, req.TeamB)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, m)
	}
}

func (s *Server) ListMatchesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches, err := s.Store.ListMatches(r.Context(), club.MatchStatus(r.PathValue("status")))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, matches)
	}
}

func (s *Server) BeginMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req struct {
			CourtID *int64 `json:"court_id"`
		}
		if err := decodeJSON(r, &req, true); err != nil {
			writeError(w, r, err)
			return
		}
		m, err := s.Processor.BeginMatch(r.Context(), id, req.CourtID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func (s *Server) FinishMatchHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req struct {
			ScoreA *int `json:"score_A"`
			ScoreB *int `json:"score_B"`
		}
		if err := decodeJSON(r, &req, false); err != nil {
			writeError(w, r, err)
			return
		}
		if req.ScoreA == nil || req.ScoreB == nil {
			writeError(w, r, errs.Validation(errs.ErrInvalidScore, "score_A and score_B are required"))
			return
		}
		m, err := s.Processor.FinishMatch(r.Context(), id, *req.ScoreA, *req.ScoreB)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, m)
	}
}

func (s *Server) GetSettingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg, err := s.Settings.Get(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	}
}

// UpdateSettingsHandler accepts a JSON object of setting keys. Values may be
// JSON numbers or strings.
func (s *Server) UpdateSettingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		var body map[string]any
		if err := dec.Decode(&body); err != nil {
			writeError(w, r, errs.Validation(nil, "invalid request body: %v", err))
			return
		}
		values := make(map[string]string, len(body))
		for key, raw := range body {
			switch v := raw.(type) {
			case string:
				values[key] = v
			case json.Number:
				values[key] = v.String()
			case bool:
				values[key] = strconv.FormatBool(v)
			default:
				writeError(w, r, errs.Validation(nil, "setting %q must be a number or string", key))
				return
			}
		}
		cfg, err := s.Settings.Update(r.Context(), values)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, cfg)
	}
}

func (s *Server) CurrentSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.Processor.CurrentSession(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]*club.Session{"session": session})
	}
}

func (s *Server) StartSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := s.Processor.StartSession(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, session)
	}
}

type endSessionResponse struct {
	Session   club.Session  `json:"session"`
	Standings []club.Player `json:"standings"`
}

func (s *Server) EndSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, standings, err := s.Processor.EndSession(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		if standings == nil {
			standings = []club.Player{}
		}
		writeJSON(w, http.StatusOK, endSessionResponse{Session: session, Standings: standings})
	}
}

func (s *Server) ListScoreboardsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		boards, err := s.Scoreboards.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, boards)
	}
}

type boardRequest struct {
	DeviceID string            `json:"device_id"`
	CourtID  int64             `json:"court_id"`
	Action   scoreboard.Action `json:"action"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) AssignScoreboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req boardRequest
		if err := decodeJSON(r, &req, false); err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.Scoreboards.Assign(r.Context(), req.DeviceID, req.CourtID); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("Scoreboard %s assigned to court %d", req.DeviceID, req.CourtID)})
	}
}

func (s *Server) UnassignScoreboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req boardRequest
		if err := decodeJSON(r, &req, false); err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.Scoreboards.Unassign(r.Context(), req.CourtID); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: fmt.Sprintf("Scoreboard unassigned from court %d", req.CourtID)})
	}
}

func (s *Server) ToggleSwapHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req boardRequest
		if err := decodeJSON(r, &req, false); err != nil {
			writeError(w, r, err)
			return
		}
		b, err := s.Scoreboards.ToggleSwap(r.Context(), req.CourtID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

func (s *Server) ControlScoreboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req boardRequest
		if err := decodeJSON(r, &req, false); err != nil {
			writeError(w, r, err)
			return
		}
		b, err := s.Scoreboards.Control(r.Context(), req.CourtID, req.Action)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, b)
	}
}

// DeviceScoreHandler is the HTTP fallback for devices that cannot hold a
// websocket open.
func (s *Server) DeviceScoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ScoreA int `json:"score_A"`
			ScoreB int `json:"score_B"`
		}
		if err := decodeJSON(r, &req, false); err != nil {
			writeError(w, r, err)
			return
		}
		report := scoreboard.Report{
			DeviceID: r.PathValue("device_id"),
			ScoreA:   req.ScoreA,
			ScoreB:   req.ScoreB,
			Source:   scoreboard.SourceHTTP,
		}
		if err := s.Scoreboards.ReportScore(r.Context(), report); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: "Score updated"})
	}
}
