package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"overlayd/internal/engine"
	"overlayd/internal/overlay"
)

// memEngine keeps the virtual filesystem in memory. Trims write
// "trim(<input>@<start>)" and the blend writes "blend(<a>|<b>)".
type memEngine struct {
	mu     sync.Mutex
	loaded bool
	files  map[string][]byte
	failOn string
}

func newMemEngine() *memEngine { return &memEngine{files: map[string][]byte{}} }

func (e *memEngine) Load(ctx context.Context) error {
	e.mu.Lock()
	e.loaded = true
	e.mu.Unlock()
	return nil
}

func (e *memEngine) Loaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loaded
}

func (e *memEngine) Version() string                                   { return "ffmpeg version test" }
func (e *memEngine) OnLog(fn func(engine.Message)) func()              { return func() {} }
func (e *memEngine) Duration(context.Context, []byte) (float64, error) { return 5, nil }
func (e *memEngine) Frame(context.Context, []byte, float64) ([]byte, error) {
	return nil, errors.New("no frames")
}

func (e *memEngine) WriteFile(name string, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.files[name] = append([]byte(nil), data...)
	return nil
}

func (e *memEngine) ReadFile(name string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.files[name]
	if !ok {
		return nil, fmt.Errorf("no such file %s", name)
	}
	return b, nil
}

func (e *memEngine) Exec(ctx context.Context, args ...string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := args[len(args)-1]
	if out == e.failOn {
		return &engine.ExecError{Args: args, Err: errors.New("exit status 1")}
	}
	switch args[0] {
	case "-ss":
		e.files[out] = []byte(fmt.Sprintf("trim(%s@%s)", e.files[args[3]], args[1]))
	case "-i":
		e.files[out] = []byte(fmt.Sprintf("blend(%s|%s)", e.files[args[1]], e.files[args[3]]))
	}
	return nil
}

func composeCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}

func writeClips(t *testing.T) (string, string, string) {
	t.Helper()
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.mp4"), filepath.Join(dir, "b.mp4")
	if err := os.WriteFile(a, []byte("A"), 0o644); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.WriteFile(b, []byte("B"), 0o644); err != nil {
		t.Fatalf("write b: %v", err)
	}
	return dir, a, b
}

func TestRunComposeWritesOutput(t *testing.T) {
	dir, a, b := writeClips(t)
	out := filepath.Join(dir, "out.mp4")
	err := runCompose(composeCtx(t), newMemEngine(), overlay.DefaultConfig(), a, b, []float64{1.5, 9}, out, false, zerolog.Nop())
	if err != nil {
		t.Fatalf("runCompose: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	// 9 is past the probed duration of 5 and is clamped
	if want := "blend(trim(A@1.5)|trim(B@5))"; string(got) != want {
		t.Fatalf("output=%q want %q", got, want)
	}
}

func TestRunComposeReportsFailedStep(t *testing.T) {
	dir, a, b := writeClips(t)
	out := filepath.Join(dir, "out.mp4")
	eng := newMemEngine()
	eng.failOn = overlay.Output
	err := runCompose(composeCtx(t), eng, overlay.DefaultConfig(), a, b, []float64{0, 0}, out, false, zerolog.Nop())
	if err == nil || !strings.Contains(err.Error(), "blend") {
		t.Fatalf("expected blend failure, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("output written on failure: %v", err)
	}
}

func TestRunComposeMissingInput(t *testing.T) {
	dir, a, _ := writeClips(t)
	err := runCompose(composeCtx(t), newMemEngine(), overlay.DefaultConfig(), a, filepath.Join(dir, "nope.mp4"), []float64{0, 0}, filepath.Join(dir, "out.mp4"), false, zerolog.Nop())
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected missing file error, got %v", err)
	}
}
