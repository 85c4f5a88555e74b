package manager

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"overlayd/internal/capture"
	"overlayd/internal/library"
	"overlayd/internal/overlay"
	"overlayd/internal/resource"
	"overlayd/internal/shell"
)

type Manager struct {
	mu      sync.RWMutex
	state   shell.State
	loading bool

	eng     Engine
	orch    *overlay.Orchestrator
	capt    *capture.Controller
	results *resource.Store
	hist    Recorder
	lib     *library.Library

	baseCtx     context.Context
	loadTimeout time.Duration
	runs        sync.WaitGroup

	pubMu sync.RWMutex
	pub   EventPublisher

	logger    zerolog.Logger
	startTime time.Time
}

// Ready reports whether the engine is loaded.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Phase != shell.PhaseEngineNotReady
}

// Snapshot returns the current page state. The value is immutable.
func (m *Manager) Snapshot() shell.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// OverlayConfig returns the fixed composition settings.
func (m *Manager) OverlayConfig() overlay.Config { return m.orch.Config() }

// Wait blocks until the background run, if any, has finished.
func (m *Manager) Wait() { m.runs.Wait() }

// Close waits for the in-flight run. Cancel BaseContext first to abort it.
func (m *Manager) Close() error {
	m.runs.Wait()
	return nil
}

// update applies fn to the state under the write lock.
func (m *Manager) update(fn func(shell.State) shell.State) shell.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = fn(m.state)
	return m.state
}
