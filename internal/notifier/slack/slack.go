package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/openplay/internal/club"
	"github.com/mauv0809/openplay/internal/events"
	"github.com/mauv0809/openplay/internal/metrics"
	"github.com/mauv0809/openplay/internal/notifier"
	"github.com/slack-go/slack"
)

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Sink = &Notifier{}

// Notifier announces finished matches and session results in a Slack channel.
type Notifier struct {
	api       slackClient
	channelID string
	dryRun    bool
	metrics   metrics.Metrics
}

// NewNotifier creates a new Notifier.
func NewNotifier(token, channelID string, dryRun bool, metrics metrics.Metrics) *Notifier {
	api := slack.New(token)
	return &Notifier{
		api:       api,
		channelID: channelID,
		dryRun:    dryRun,
		metrics:   metrics,
	}
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, dryRun bool, metrics metrics.Metrics) *Notifier {
	return &Notifier{
		api:       api,
		channelID: channelID,
		dryRun:    dryRun,
		metrics:   metrics,
	}
}

func (s *Notifier) Name() string {
	return "slack"
}

// Deliver posts finished matches and ended sessions. Every other event is
// ignored.
func (s *Notifier) Deliver(ctx context.Context, ev events.Event) error {
	switch p := ev.Payload.(type) {
	case events.MatchChange:
		if p.To != club.StatusFinished {
			return nil
		}
		_, _, err := s.sendMessage(ctx, s.formatResultNotification(p.Match, p.Deltas))
		return err
	case events.SessionChange:
		if p.Session.EndTime == nil {
			return nil
		}
		_, _, err := s.sendMessage(ctx, s.formatSessionStandings(p.Standings))
		return err
	}
	return nil
}

func (s *Notifier) sendMessage(ctx context.Context, message slack.Message) (string, string, error) {
	if s.dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-ts", "dry-run-thread-ts", nil
	}

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)

	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

func teamName(team []club.Player) string {
	names := make([]string, 0, len(team))
	for _, p := range team {
		names = append(names, p.Name)
	}
	return strings.Join(names, " & ")
}

// formatResultNotification creates the Slack message for a finished match using Block Kit.
func (s *Notifier) formatResultNotification(m club.Match, deltas map[int64]float64) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🏸 Match finished! 🏸", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	winners, losers := m.TeamA, m.TeamB
	if m.WinningTeam == club.SideB {
		winners, losers = m.TeamB, m.TeamA
	}
	resultText := fmt.Sprintf("%s beat %s", teamName(winners), teamName(losers))
	if m.ScoreA != nil && m.ScoreB != nil {
		resultText = fmt.Sprintf("%s (%d-%d)", resultText, *m.ScoreA, *m.ScoreB)
	}
	if m.CourtName != "" {
		resultText = fmt.Sprintf("%s\n%s", m.CourtName, resultText)
	}
	blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", resultText, true, false), nil, nil))

	if len(deltas) > 0 {
		var lines []string
		for _, p := range append(append([]club.Player{}, m.TeamA...), m.TeamB...) {
			if d, ok := deltas[p.ID]; ok {
				lines = append(lines, fmt.Sprintf("• %s: %.0f (%+.1f)", p.Name, p.Rating, d))
			}
		}
		ratingText := "Ratings:\n" + strings.Join(lines, "\n")
		blocks = append(blocks, slack.NewContextBlock("", slack.NewTextBlockObject("plain_text", ratingText, true, false)))
	}

	return slack.NewBlockMessage(blocks...)
}

// formatSessionStandings creates a Slack message with the session leaderboard.
func (s *Notifier) formatSessionStandings(players []club.Player) slack.Message {
	blocks := make([]slack.Block, 0)

	headerText := slack.NewTextBlockObject("plain_text", "🏆 Session Leaderboard 🏆", true, false)
	blocks = append(blocks, slack.NewHeaderBlock(headerText))

	if len(players) == 0 {
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", "No matches were played this session.", true, false), nil, nil))
		return slack.NewBlockMessage(blocks...)
	}

	for i, p := range players {
		rank := i + 1
		var medal string
		switch rank {
		case 1:
			medal = "🥇"
		case 2:
			medal = "🥈"
		case 3:
			medal = "🥉"
		}
		playerText := fmt.Sprintf("%d. %s %s\n> Wins: %d/%d | Rating: %.0f",
			rank,
			medal,
			p.Name,
			p.SessionWins,
			p.SessionMatchesPlayed,
			p.Rating,
		)
		blocks = append(blocks, slack.NewSectionBlock(slack.NewTextBlockObject("plain_text", playerText, true, false), nil, nil))
	}

	return slack.NewBlockMessage(blocks...)
}
