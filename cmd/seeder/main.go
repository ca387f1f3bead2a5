package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/openplay/internal/club"
	"github.com/mauv0809/openplay/internal/config"
	"github.com/mauv0809/openplay/internal/database"
	"github.com/mauv0809/openplay/internal/matchmaking"
	"github.com/mauv0809/openplay/internal/metrics"
	"github.com/mauv0809/openplay/internal/notifier"
	"github.com/mauv0809/openplay/internal/processor"
	"github.com/mauv0809/openplay/internal/settings"
	"github.com/prometheus/client_golang/prometheus"
)

type seedPlayer struct {
	name     string
	kind     string
	category string
	rating   float64
}

var roster = []seedPlayer{
	{"Ana Lopez", "member", "senior", 1620},
	{"Ben Carter", "member", "senior", 1580},
	{"Chloe Tan", "member", "junior", 1450},
	{"Dev Patel", "member", "senior", 1510},
	{"Elif Yilmaz", "member", "junior", 1390},
	{"Felix Moreau", "guest", "", 1500},
	{"Grace Kim", "member", "senior", 1700},
	{"Hugo Berg", "guest", "", 1420},
	{"Isla Novak", "member", "junior", 1480},
	{"Jonas Weber", "member", "senior", 1550},
	{"Kai Mensah", "guest", "", 1300},
	{"Lena Fischer", "member", "senior", 1650},
}

func main() {
	courts := flag.Int("courts", 3, "number of courts to create")
	matches := flag.Int("matches", 0, "number of matches to simulate after seeding")
	flag.Parse()

	log.Info("Starting database seeder...")
	cfg := config.Load()

	db, teardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken, cfg.MigrationsDir)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer teardown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := club.New(db)
	for i := 1; i <= *courts; i++ {
		c, err := store.AddCourt(ctx, fmt.Sprintf("Court %d", i))
		if err != nil {
			log.Fatalf("Failed to add court: %v", err)
		}
		log.Info("Seeded court", "courtID", c.ID, "name", c.Name)
	}

	ids := make([]int64, 0, len(roster))
	for _, sp := range roster {
		p, err := club.NewPlayer(sp.name, sp.kind, sp.category, sp.rating)
		if err != nil {
			log.Fatalf("Invalid seed player %q: %v", sp.name, err)
		}
		p.Active = true
		p, err = store.AddPlayer(ctx, p)
		if err != nil {
			log.Fatalf("Failed to add player: %v", err)
		}
		ids = append(ids, p.ID)
	}
	log.Info("Seeded players", "count", len(ids))

	if *matches > 0 {
		// Events are not delivered anywhere, the dispatcher only drains them.
		m := metrics.NewService(prometheus.NewRegistry())
		dispatcher := notifier.NewDispatcher(m)
		go dispatcher.Run(ctx)

		proc := processor.New(store, settings.New(db), dispatcher, m)
		if err := simulate(ctx, proc, ids, *matches); err != nil {
			log.Fatalf("Simulation failed: %v", err)
		}
	}

	log.Info("Seeding complete.")
}

// simulate plays n matches by repeatedly taking the first suggestion and
// finishing it with a random score.
func simulate(ctx context.Context, proc *processor.Processor, ids []int64, n int) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	if _, err := proc.StartSession(ctx); err != nil {
		return err
	}
	for played := 0; played < n; {
		suggestions, err := proc.Suggest(ctx, processor.SuggestRequest{PlayerIDs: ids, Rules: matchmaking.DefaultRules()})
		if err != nil {
			return err
		}
		if len(suggestions) == 0 {
			log.Warn("No suggestions available, stopping simulation", "played", played)
			break
		}
		for _, s := range suggestions {
			if played == n {
				break
			}
			court := s.Court.ID
			m, err := proc.CreateMatch(ctx, &court, playerIDs(s.TeamA), playerIDs(s.TeamB))
			if err != nil {
				return err
			}
			if _, err := proc.BeginMatch(ctx, m.ID, nil); err != nil {
				return err
			}
			winner, loser := 21, rng.Intn(20)
			if rng.Intn(2) == 0 {
				winner, loser = loser, winner
			}
			if _, err := proc.FinishMatch(ctx, m.ID, winner, loser); err != nil {
				return err
			}
			played++
		}
	}
	_, standings, err := proc.EndSession(ctx)
	if err != nil {
		return err
	}
	for i, p := range standings {
		log.Info("Standing", "rank", i+1, "name", p.Name, "wins", p.SessionWins, "rating", fmt.Sprintf("%.1f", p.Rating))
	}
	return nil
}

func playerIDs(players []club.Player) []int64 {
	ids := make([]int64, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	return ids
}
