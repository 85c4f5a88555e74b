package manager

import (
	"context"
	"time"

	"overlayd/internal/shell"
)

// EnsureEngine loads the engine if it is not loaded yet. A failed load leaves
// the page in engine_not_ready with the error recorded; calling EnsureEngine
// again retries. Concurrent callers while a load is running get an
// engine-not-ready error instead of a second load.
func (m *Manager) EnsureEngine(ctx context.Context) error {
	if m.eng.Loaded() {
		m.update(func(s shell.State) shell.State { return s.EngineLoaded() })
		return nil
	}
	m.mu.Lock()
	if m.loading {
		m.mu.Unlock()
		return ErrEngineNotReady("engine loading")
	}
	m.loading = true
	m.mu.Unlock()

	lctx, cancel := context.WithTimeout(ctx, m.loadTimeout)
	defer cancel()
	start := time.Now()
	err := m.eng.Load(lctx)

	m.mu.Lock()
	m.loading = false
	if err != nil {
		m.state = m.state.EngineFailed(err)
	} else {
		m.state = m.state.EngineLoaded()
	}
	m.mu.Unlock()

	if err != nil {
		m.logger.Error().Err(err).Dur("dur", time.Since(start)).Msg("engine load failed")
		m.publish(Event{Name: EventEngineFailed, Fields: map[string]any{"error": err.Error()}})
		return ErrEngineNotReady(err.Error())
	}
	m.logger.Info().Str("version", m.eng.Version()).Dur("dur", time.Since(start)).Msg("engine loaded")
	m.publish(Event{Name: EventEngineLoaded, Fields: map[string]any{"version": m.eng.Version()}})
	return nil
}

// LoadAsync starts EnsureEngine in the background under BaseContext.
func (m *Manager) LoadAsync() {
	go func() {
		_ = m.EnsureEngine(m.baseCtx)
	}()
}

// Loading reports whether an engine load is in progress.
func (m *Manager) Loading() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.loading
}
