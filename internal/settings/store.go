package settings

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/openplay/internal/errs"
)

// New creates a new SettingsStore.
func New(db *sql.DB) SettingsStore {
	return &store{db: db}
}

type field struct {
	parse func(s *Settings, raw string) error
	check func(s Settings) error
}

func floatField(dst func(*Settings) *float64, check func(float64) error) field {
	return field{
		parse: func(s *Settings, raw string) error {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return err
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errs.ErrNonFinite
			}
			*dst(s) = v
			return nil
		},
		check: func(s Settings) error {
			if check == nil {
				return nil
			}
			return check(*dst(&s))
		},
	}
}

func intField(dst func(*Settings) *int, check func(int) error) field {
	return field{
		parse: func(s *Settings, raw string) error {
			v, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				return err
			}
			*dst(s) = v
			return nil
		},
		check: func(s Settings) error {
			if check == nil {
				return nil
			}
			return check(*dst(&s))
		},
	}
}

func positive[T int | float64](v T) error {
	if v <= 0 {
		return fmt.Errorf("must be positive, got %v", v)
	}
	return nil
}

func nonNegative[T int | float64](v T) error {
	if v < 0 {
		return fmt.Errorf("must not be negative, got %v", v)
	}
	return nil
}

var fields = map[string]field{
	"elo_base": floatField(func(s *Settings) *float64 { return &s.EloBase }, func(v float64) error {
		if v <= 0 || v == 1 {
			return fmt.Errorf("must be positive and not 1, got %v", v)
		}
		return nil
	}),
	"elo_scale":          floatField(func(s *Settings) *float64 { return &s.EloScale }, positive[float64]),
	"category_bonus":     floatField(func(s *Settings) *float64 { return &s.CategoryBonus }, nil),
	"sensitivity_high":   floatField(func(s *Settings) *float64 { return &s.SensitivityHigh }, nonNegative[float64]),
	"sensitivity_medium": floatField(func(s *Settings) *float64 { return &s.SensitivityMedium }, nonNegative[float64]),
	"sensitivity_low":    floatField(func(s *Settings) *float64 { return &s.SensitivityLow }, nonNegative[float64]),
	"rest_weight":        floatField(func(s *Settings) *float64 { return &s.RestWeight }, nonNegative[float64]),
	"low_games_weight":   floatField(func(s *Settings) *float64 { return &s.LowGamesWeight }, nonNegative[float64]),
	"rematch_weight":     floatField(func(s *Settings) *float64 { return &s.RematchWeight }, nonNegative[float64]),
	"default_rating":     floatField(func(s *Settings) *float64 { return &s.DefaultRating }, nil),

	"sensitivity_high_below":    intField(func(s *Settings) *int { return &s.SensitivityHighBelow }, nonNegative[int]),
	"sensitivity_medium_below":  intField(func(s *Settings) *int { return &s.SensitivityMediumBelow }, nonNegative[int]),
	"never_played_rest_seconds": intField(func(s *Settings) *int { return &s.NeverPlayedRestSeconds }, nonNegative[int]),
	"max_consecutive_matches":   intField(func(s *Settings) *int { return &s.MaxConsecutiveMatches }, positive[int]),

	"bonus_category": {
		parse: func(s *Settings, raw string) error {
			s.BonusCategory = strings.TrimSpace(raw)
			return nil
		},
		check: func(Settings) error { return nil },
	},
}

// Keys returns every known setting key in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get reads the stored settings. A missing row or one that fails to parse
// falls back to its default.
func (s *store) Get(ctx context.Context) (Settings, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return Settings{}, errs.Storage(err, "failed to query settings")
	}
	defer rows.Close()

	out := Defaults()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Settings{}, errs.Storage(err, "failed to scan settings row")
		}
		f, ok := fields[key]
		if !ok {
			continue
		}
		parsed := out
		if err := f.parse(&parsed, value); err != nil {
			log.Warn("Ignoring unparsable setting", "key", key, "value", value, "error", err)
			continue
		}
		if err := f.check(parsed); err != nil {
			log.Warn("Ignoring invalid setting", "key", key, "value", value, "error", err)
			continue
		}
		out = parsed
	}
	if err := rows.Err(); err != nil {
		return Settings{}, errs.Storage(err, "failed to iterate settings")
	}
	return out, nil
}

// Update validates every value before writing any of them.
func (s *store) Update(ctx context.Context, values map[string]string) (Settings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return Settings{}, err
	}
	for key, value := range values {
		f, ok := fields[key]
		if !ok {
			return Settings{}, errs.Validation(nil, "unknown setting %q", key)
		}
		if err := f.parse(&current, value); err != nil {
			return Settings{}, errs.Validation(nil, "setting %s: invalid value %q: %v", key, value, err)
		}
		if err := f.check(current); err != nil {
			return Settings{}, errs.Validation(nil, "setting %s: %v", key, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Settings{}, errs.Storage(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	for key, value := range values {
		_, err := tx.ExecContext(ctx, "INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			key, strings.TrimSpace(value))
		if err != nil {
			return Settings{}, errs.Storage(err, "failed to store setting %s", key)
		}
	}
	if err := tx.Commit(); err != nil {
		return Settings{}, errs.Storage(err, "failed to commit settings")
	}
	log.Info("Settings updated", "keys", len(values))
	return current, nil
}
