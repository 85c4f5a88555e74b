package manager

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"overlayd/internal/engine"
	"overlayd/internal/overlay"
)

// fakeEngine models the engine's virtual filesystem in memory. Trims write
// "trim(<input>@<start>)" and the blend writes "blend(<a>|<b>)".
type fakeEngine struct {
	mu        sync.Mutex
	loaded    bool
	loadErr   error
	loads     int
	calls     []string
	files     map[string][]byte
	failOn    string
	duration  float64
	// gate, when set, blocks every Exec until closed.
	gate      chan struct{}
	// probeGate, when set, blocks Duration until closed; probing signals
	// each blocked call.
	probeGate chan struct{}
	probing   chan struct{}
	// loadGate, when set, blocks Load until closed.
	loadGate  chan struct{}
	handlers  []func(engine.Message)
}

func newFakeEngine() *fakeEngine { return &fakeEngine{files: map[string][]byte{}, duration: 10} }

func (f *fakeEngine) Load(ctx context.Context) error {
	if f.loadGate != nil {
		select {
		case <-f.loadGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loaded = true
	return nil
}

func (f *fakeEngine) Loaded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loaded
}

func (f *fakeEngine) Version() string { return "ffmpeg version fake" }

func (f *fakeEngine) OnLog(fn func(engine.Message)) func() {
	f.mu.Lock()
	f.handlers = append(f.handlers, fn)
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.handlers = nil
		f.mu.Unlock()
	}
}

func (f *fakeEngine) record(c string) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
}

func (f *fakeEngine) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeEngine) WriteFile(name string, data []byte) error {
	f.record("write " + name)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[name] = append([]byte(nil), data...)
	return nil
}

func (f *fakeEngine) Exec(ctx context.Context, args ...string) error {
	out := args[len(args)-1]
	f.record("exec " + out)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, h := range f.handlers {
		h(engine.Message{Kind: engine.KindLog, Line: "writing " + out})
	}
	if f.failOn == out {
		return &engine.ExecError{Args: args, Err: errors.New("exit status 1"), Stderr: "boom"}
	}
	switch args[0] {
	case "-ss":
		f.files[out] = []byte(fmt.Sprintf("trim(%s@%s)", f.files[args[3]], args[1]))
	case "-i":
		f.files[out] = []byte(fmt.Sprintf("blend(%s|%s)", f.files[args[1]], f.files[args[3]]))
	}
	return nil
}

func (f *fakeEngine) ReadFile(name string) ([]byte, error) {
	f.record("read " + name)
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.files[name]
	if !ok {
		return nil, fmt.Errorf("no such file %s", name)
	}
	return b, nil
}

func (f *fakeEngine) Duration(ctx context.Context, data []byte) (float64, error) {
	if f.probeGate != nil {
		if f.probing != nil {
			select {
			case f.probing <- struct{}{}:
			default:
			}
		}
		select {
		case <-f.probeGate:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return f.duration, nil
}

func (f *fakeEngine) Frame(ctx context.Context, data []byte, at float64) ([]byte, error) {
	if !f.Loaded() {
		return nil, engine.ErrNotLoaded
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 640, 360))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func newTestManager(t *testing.T, eng *fakeEngine, hist Recorder) (*Manager, *MemoryPublisher) {
	t.Helper()
	pub := NewMemoryPublisher()
	m, err := NewWithConfig(ManagerConfig{
		Engine:    eng,
		Overlay:   overlay.DefaultConfig(),
		History:   hist,
		Publisher: pub,
		Logger:    zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	t.Cleanup(m.Wait)
	return m, pub
}

// readyManager returns a manager with a loaded engine and both clips selected.
func readyManager(t *testing.T, eng *fakeEngine, a, b string) (*Manager, *MemoryPublisher) {
	t.Helper()
	m, pub := newTestManager(t, eng, nil)
	if err := m.EnsureEngine(testCtx(t)); err != nil {
		t.Fatalf("ensure engine: %v", err)
	}
	if _, err := m.SelectClip("a", "a.mp4", "video/mp4", []byte(a)); err != nil {
		t.Fatalf("select a: %v", err)
	}
	if _, err := m.SelectClip("b", "b.mp4", "video/mp4", []byte(b)); err != nil {
		t.Fatalf("select b: %v", err)
	}
	return m, pub
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}
