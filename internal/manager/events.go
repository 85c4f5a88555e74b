package manager

// Event names published by the manager.
const (
	EventEngineLoaded    = "engine_loaded"
	EventEngineFailed    = "engine_failed"
	EventTriggerDisabled = "trigger_disabled"
	EventTriggerEnabled  = "trigger_enabled"
	EventRunStarted      = "run_started"
	EventRunStep         = "run_step"
	EventRunSucceeded    = "run_succeeded"
	EventRunFailed       = "run_failed"
)

// Event represents a manager lifecycle event.
// Minimal and stable: name + run ID and optional fields via key/values.
type Event struct {
	Name   string
	RunID  string
	Fields map[string]any
}

// EventPublisher receives events from the manager. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// PublisherFunc adapts a function to EventPublisher.
type PublisherFunc func(Event)

func (f PublisherFunc) Publish(e Event) { f(e) }

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// SetEventPublisher replaces the publisher. nil restores the default.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	if p == nil {
		p = noopPublisher{}
	}
	m.pubMu.Lock()
	m.pub = p
	m.pubMu.Unlock()
}

func (m *Manager) publish(e Event) {
	m.pubMu.RLock()
	p := m.pub
	m.pubMu.RUnlock()
	p.Publish(e)
}
