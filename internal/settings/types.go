package settings

import (
	"database/sql"
	"sync"

	"github.com/mauv0809/openplay/internal/matchmaking"
	"github.com/mauv0809/openplay/internal/rating"
)

// store handles all database operations for settings.
type store struct {
	db *sql.DB
	mu sync.Mutex
}

// Settings are the tunable constants of the rating model and the suggestion
// engine.
type Settings struct {
	EloBase                float64 `json:"elo_base"`
	EloScale               float64 `json:"elo_scale"`
	CategoryBonus          float64 `json:"category_bonus"`
	BonusCategory          string  `json:"bonus_category"`
	SensitivityHigh        float64 `json:"sensitivity_high"`
	SensitivityMedium      float64 `json:"sensitivity_medium"`
	SensitivityLow         float64 `json:"sensitivity_low"`
	SensitivityHighBelow   int     `json:"sensitivity_high_below"`
	SensitivityMediumBelow int     `json:"sensitivity_medium_below"`
	RestWeight             float64 `json:"rest_weight"`
	LowGamesWeight         float64 `json:"low_games_weight"`
	RematchWeight          float64 `json:"rematch_weight"`
	NeverPlayedRestSeconds int     `json:"never_played_rest_seconds"`
	MaxConsecutiveMatches  int     `json:"max_consecutive_matches"`
	DefaultRating          float64 `json:"default_rating"`
}

// Defaults returns the settings used when nothing is stored.
func Defaults() Settings {
	return Settings{
		EloBase:                10,
		EloScale:               400,
		CategoryBonus:          50,
		BonusCategory:          "female",
		SensitivityHigh:        48,
		SensitivityMedium:      32,
		SensitivityLow:         24,
		SensitivityHighBelow:   20,
		SensitivityMediumBelow: 50,
		RestWeight:             0.01,
		LowGamesWeight:         0.1,
		RematchWeight:          50,
		NeverPlayedRestSeconds: 999999,
		MaxConsecutiveMatches:  2,
		DefaultRating:          1500,
	}
}

func (s Settings) Logistic() rating.Logistic {
	return rating.Logistic{Base: s.EloBase, Scale: s.EloScale}
}

func (s Settings) Sensitivity() rating.Sensitivity {
	return rating.Sensitivity{
		Tiers: []rating.Tier{
			{Below: s.SensitivityHighBelow, Factor: s.SensitivityHigh},
			{Below: s.SensitivityMediumBelow, Factor: s.SensitivityMedium},
		},
		Floor: s.SensitivityLow,
	}
}

func (s Settings) Bonus() rating.Bonus {
	return rating.Bonus{Category: s.BonusCategory, Amount: s.CategoryBonus}
}

// Weights returns the suggestion engine weights.
func (s Settings) Weights() matchmaking.Weights {
	return matchmaking.Weights{
		Rest:                   s.RestWeight,
		LowGames:               s.LowGamesWeight,
		Rematch:                s.RematchWeight,
		NeverPlayedRestSeconds: float64(s.NeverPlayedRestSeconds),
		Bonus:                  s.Bonus(),
	}
}
