package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(playersCmd)
	rootCmd.AddCommand(courtsCmd)
	rootCmd.AddCommand(newSuggestCmd())
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(newCreateCmd())
	rootCmd.AddCommand(newBeginCmd())
	rootCmd.AddCommand(newFinishCmd())
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(metricsCmd)

	settingsCmd.AddCommand(settingsSetCmd)
	sessionCmd.AddCommand(sessionStartCmd, sessionEndCmd, sessionCurrentCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/health", nil)
	},
}

var playersCmd = &cobra.Command{
	Use:   "players",
	Short: "List the players in the club store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/api/players", nil)
	},
}

var courtsCmd = &cobra.Command{
	Use:   "courts",
	Short: "List the courts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/api/courts", nil)
	},
}

func newSuggestCmd() *cobra.Command {
	var (
		players    []int64
		rest       bool
		noLowGames bool
		noRematch  bool
	)
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest balanced matches for the free courts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return performRequest(http.MethodPost, "/api/suggestions", map[string]any{
				"player_ids":           players,
				"prioritize_rest":      rest,
				"prioritize_low_games": !noLowGames,
				"avoid_rematch":        !noRematch,
			})
		},
	}
	cmd.Flags().Int64SliceVar(&players, "players", nil, "Comma separated ids of the players to consider")
	cmd.Flags().BoolVar(&rest, "rest", false, "Prefer players who have rested longest")
	cmd.Flags().BoolVar(&noLowGames, "no-low-games", false, "Do not prefer players with fewer games")
	cmd.Flags().BoolVar(&noRematch, "no-rematch", false, "Allow repeating previous partnerships")
	cmd.MarkFlagRequired("players")
	return cmd
}

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List queued matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/api/matches/queued", nil)
	},
}

var matchesCmd = &cobra.Command{
	Use:       "matches <queued|ongoing|finished>",
	Short:     "List matches by status",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"queued", "ongoing", "finished"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/api/matches/"+args[0], nil)
	},
}

func newCreateCmd() *cobra.Command {
	var (
		court        int64
		teamA, teamB []int64
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Queue a match",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"team_A": teamA, "team_B": teamB}
			if cmd.Flags().Changed("court") {
				body["court_id"] = court
			}
			return performRequest(http.MethodPost, "/api/matches", body)
		},
	}
	cmd.Flags().Int64Var(&court, "court", 0, "Court to queue the match for")
	cmd.Flags().Int64SliceVar(&teamA, "a", nil, "Player ids of team A")
	cmd.Flags().Int64SliceVar(&teamB, "b", nil, "Player ids of team B")
	cmd.MarkFlagRequired("a")
	cmd.MarkFlagRequired("b")
	return cmd
}

func newBeginCmd() *cobra.Command {
	var court int64
	cmd := &cobra.Command{
		Use:   "begin <match-id>",
		Short: "Put a queued match on court",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var body any
			if cmd.Flags().Changed("court") {
				body = map[string]any{"court_id": court}
			}
			return performRequest(http.MethodPost, "/api/matches/"+args[0]+"/begin", body)
		},
	}
	cmd.Flags().Int64Var(&court, "court", 0, "Court to play on, overriding the queued court")
	return cmd
}

func newFinishCmd() *cobra.Command {
	var scoreA, scoreB int
	cmd := &cobra.Command{
		Use:   "finish <match-id>",
		Short: "Record the final score of an ongoing match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return performRequest(http.MethodPost, "/api/matches/"+args[0]+"/finish", map[string]any{
				"score_A": scoreA,
				"score_B": scoreB,
			})
		},
	}
	cmd.Flags().IntVar(&scoreA, "a", 0, "Score of team A")
	cmd.Flags().IntVar(&scoreB, "b", 0, "Score of team B")
	cmd.MarkFlagRequired("a")
	cmd.MarkFlagRequired("b")
	return cmd
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/api/settings", nil)
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set key=value...",
	Short: "Update one or more settings",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := parseAssignments(args)
		if err != nil {
			return err
		}
		return performRequest(http.MethodPut, "/api/settings", values)
	},
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage the open-play session",
}

var sessionStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/api/sessions/start", nil)
	},
}

var sessionEndCmd = &cobra.Command{
	Use:   "end",
	Short: "End the active session and show the standings",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodPost, "/api/sessions/end", nil)
	},
}

var sessionCurrentCmd = &cobra.Command{
	Use:   "current",
	Short: "Show the active session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/api/sessions/current", nil)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performRequest(http.MethodGet, "/metrics", nil)
	},
}

func parseAssignments(args []string) (map[string]string, error) {
	values := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		values[key] = value
	}
	return values, nil
}

func performRequest(method, endpoint string, payload any) error {
	url := host + endpoint
	fmt.Printf("Making %s request to %s\n", method, url)

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(respBody))

	return nil
}
