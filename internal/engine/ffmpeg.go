package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"overlayd/internal/common/fsutil"
	"overlayd/internal/logging"
)

// Options configures an FFmpeg engine.
type Options struct {
	// FFmpegBin and FFprobeBin are names or paths of the binaries.
	FFmpegBin  string
	FFprobeBin string
	// WorkDir hosts the virtual filesystem. Empty means a private temp dir
	// that Close removes.
	WorkDir string
	// Codec is the video encoder Load requires ffmpeg to provide.
	Codec  string
	Logger zerolog.Logger
}

// FFmpeg is a subprocess-backed engine. One instance per process.
type FFmpeg struct {
	opts   Options
	logger zerolog.Logger

	loadMu sync.Mutex

	mu          sync.RWMutex
	loaded      bool
	ffmpegPath  string
	ffprobePath string
	version     string
	root        string
	ownRoot     bool
	vfsDir      string
	scratchDir  string

	// slot admits a single in-flight command.
	slot chan struct{}

	hmu      sync.Mutex
	handlers map[int]func(Message)
	nextID   int
}

// New constructs an unloaded engine.
func New(opts Options) *FFmpeg {
	if opts.FFmpegBin == "" {
		opts.FFmpegBin = "ffmpeg"
	}
	if opts.FFprobeBin == "" {
		opts.FFprobeBin = "ffprobe"
	}
	return &FFmpeg{
		opts:     opts,
		logger:   logging.WithComponent(opts.Logger, "engine"),
		slot:     make(chan struct{}, 1),
		handlers: make(map[int]func(Message)),
	}
}

// Loaded reports whether Load has completed successfully.
func (e *FFmpeg) Loaded() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.loaded
}

// Version returns the first line of `ffmpeg -version` once loaded.
func (e *FFmpeg) Version() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

// OnLog subscribes fn to log and progress messages. The returned func
// removes the subscription.
func (e *FFmpeg) OnLog(fn func(Message)) func() {
	e.hmu.Lock()
	id := e.nextID
	e.nextID++
	e.handlers[id] = fn
	e.hmu.Unlock()
	return func() {
		e.hmu.Lock()
		delete(e.handlers, id)
		e.hmu.Unlock()
	}
}

func (e *FFmpeg) emit(m Message) {
	e.hmu.Lock()
	fns := make([]func(Message), 0, len(e.handlers))
	for _, fn := range e.handlers {
		fns = append(fns, fn)
	}
	e.hmu.Unlock()
	for _, fn := range fns {
		fn(m)
	}
}

// WriteFile stores data under name in the virtual filesystem, replacing any
// previous content.
func (e *FFmpeg) WriteFile(name string, data []byte) error {
	p, release, err := e.acquirePath(name)
	if err != nil {
		return err
	}
	defer release()
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("engine write %s: %w", name, err)
	}
	e.logger.Debug().Str("file", name).Int("bytes", len(data)).Msg("wrote file")
	return nil
}

// ReadFile returns the content stored under name.
func (e *FFmpeg) ReadFile(name string) ([]byte, error) {
	p, release, err := e.acquirePath(name)
	if err != nil {
		return nil, err
	}
	defer release()
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("engine read %s: %w", name, err)
	}
	return b, nil
}

// acquirePath validates name, takes the single-flight slot and resolves the
// on-disk path inside the virtual filesystem.
func (e *FFmpeg) acquirePath(name string) (string, func(), error) {
	if !fsutil.IsBaseName(name) {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	e.mu.RLock()
	loaded, dir := e.loaded, e.vfsDir
	e.mu.RUnlock()
	if !loaded {
		return "", nil, ErrNotLoaded
	}
	release, err := e.acquire()
	if err != nil {
		return "", nil, err
	}
	return filepath.Join(dir, name), release, nil
}

func (e *FFmpeg) acquire() (func(), error) {
	select {
	case e.slot <- struct{}{}:
		return func() { <-e.slot }, nil
	default:
		return nil, ErrBusy
	}
}

// Close removes the working directory when the engine created it.
func (e *FFmpeg) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loaded = false
	if e.ownRoot && e.root != "" {
		err := os.RemoveAll(e.root)
		e.root = ""
		return err
	}
	return nil
}
