package manager

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"overlayd/internal/capture"
	"overlayd/internal/engine"
	"overlayd/internal/library"
	"overlayd/internal/shell"
)

// SelectClip stores data as the clip for slot, replacing any previous one.
func (m *Manager) SelectClip(slot, name, contentType string, data []byte) (shell.Clip, error) {
	s, err := shell.ParseSlot(slot)
	if err != nil {
		return shell.Clip{}, ErrNotFound("slot " + slot)
	}
	if len(data) == 0 {
		return shell.Clip{}, badRequestError{msg: "clip is empty"}
	}
	c := shell.Clip{
		ID:          uuid.NewString(),
		Slot:        s,
		Name:        name,
		ContentType: contentType,
		Data:        data,
	}
	m.mu.Lock()
	next, err := m.state.SelectClip(c)
	if err == nil {
		m.state = next
	}
	m.mu.Unlock()
	if errors.Is(err, shell.ErrEngineNotReady) {
		return shell.Clip{}, ErrEngineNotReady("")
	}
	if err != nil {
		return shell.Clip{}, err
	}
	m.logger.Info().Str("slot", slot).Str("name", name).Int("bytes", len(data)).Msg("clip selected")
	return c, nil
}

// SelectLibraryClip selects the library clip called name for slot.
func (m *Manager) SelectLibraryClip(slot, name string) (shell.Clip, error) {
	it, data, err := m.lib.Read(name)
	if errors.Is(err, library.ErrNotFound) {
		return shell.Clip{}, ErrNotFound("library clip " + name)
	}
	if err != nil {
		return shell.Clip{}, err
	}
	return m.SelectClip(slot, it.Name, it.ContentType, data)
}

// Clip returns the clip selected for slot.
func (m *Manager) Clip(slot string) (shell.Clip, error) {
	s, err := shell.ParseSlot(slot)
	if err != nil {
		return shell.Clip{}, ErrNotFound("slot " + slot)
	}
	m.mu.RLock()
	c := m.state.Clip(s)
	m.mu.RUnlock()
	if c == nil {
		return shell.Clip{}, ErrNotFound("clip " + slot)
	}
	return *c, nil
}

// Poster renders a JPEG of slot's clip at at, or at the captured position
// when at is nil. With no clip selected it renders the placeholder.
func (m *Manager) Poster(ctx context.Context, slot string, at *float64, width int) ([]byte, error) {
	s, err := shell.ParseSlot(slot)
	if err != nil {
		return nil, ErrNotFound("slot " + slot)
	}
	m.mu.RLock()
	c := m.state.Clip(s)
	m.mu.RUnlock()
	if c == nil {
		return capture.Placeholder(width)
	}
	pos := c.Captured.Seconds()
	if at != nil {
		pos = *at
	}
	if err := capture.ValidatePosition(pos); err != nil {
		return nil, badRequestError{msg: err.Error()}
	}
	b, err := capture.Poster(ctx, m.eng, c.Data, pos, width)
	if errors.Is(err, engine.ErrNotLoaded) {
		return nil, ErrEngineNotReady("")
	}
	return b, err
}
