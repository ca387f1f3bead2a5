package settings

import "context"

// SettingsStore reads and writes the tunable constants. Every read goes to
// the database so changes apply without a restart.
type SettingsStore interface {
	Get(ctx context.Context) (Settings, error)
	Update(ctx context.Context, values map[string]string) (Settings, error)
}
