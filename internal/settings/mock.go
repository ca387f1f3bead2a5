package settings

import (
	"context"
	"sync"
)

// Mock is an in-memory SettingsStore for testing.
type Mock struct {
	mu       sync.Mutex
	Settings Settings

	GetFunc    func() (Settings, error)
	UpdateFunc func(values map[string]string) (Settings, error)

	UpdateCalls []map[string]string
}

// NewMock returns a mock holding the defaults.
func NewMock() *Mock {
	return &Mock{Settings: Defaults()}
}

func (m *Mock) Get(ctx context.Context) (Settings, error) {
	if m.GetFunc != nil {
		return m.GetFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Settings, nil
}

func (m *Mock) Update(ctx context.Context, values map[string]string) (Settings, error) {
	m.mu.Lock()
	m.UpdateCalls = append(m.UpdateCalls, values)
	m.mu.Unlock()
	if m.UpdateFunc != nil {
		return m.UpdateFunc(values)
	}
	return m.Get(ctx)
}
