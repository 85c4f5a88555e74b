package manager

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"overlayd/internal/capture"
	"overlayd/internal/library"
	"overlayd/internal/logging"
	"overlayd/internal/overlay"
	"overlayd/internal/resource"
	"overlayd/internal/shell"
)

// Defaults applied when corresponding ManagerConfig fields are unset.
const (
	defaultResultPrefix = "/results/"
	defaultRunsLimit    = 50
	defaultLoadTimeout  = 30 * time.Second
)

// ManagerConfig encapsulates all tunables for Manager construction.
type ManagerConfig struct {
	Engine  Engine
	Overlay overlay.Config
	// History is optional; nil disables the run ledger.
	History Recorder
	// Library is optional; nil means no library clips.
	Library *library.Library
	// ResultPrefix is the URL prefix of result handles.
	ResultPrefix string
	// BaseContext bounds engine loads and background runs. Canceling it
	// kills any running command.
	BaseContext context.Context
	LoadTimeout time.Duration
	Publisher   EventPublisher
	Logger      zerolog.Logger
}

// NewWithConfig constructs a Manager from ManagerConfig.
func NewWithConfig(cfg ManagerConfig) (*Manager, error) {
	if cfg.Engine == nil {
		return nil, errors.New("manager: engine is required")
	}
	orch, err := overlay.New(cfg.Overlay, cfg.Logger)
	if err != nil {
		return nil, err
	}
	if cfg.ResultPrefix == "" {
		cfg.ResultPrefix = defaultResultPrefix
	}
	if cfg.BaseContext == nil {
		cfg.BaseContext = context.Background()
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = defaultLoadTimeout
	}
	if cfg.Publisher == nil {
		cfg.Publisher = noopPublisher{}
	}
	if cfg.Library == nil {
		cfg.Library, _ = library.New("")
	}
	m := &Manager{
		state:       shell.New(),
		eng:         cfg.Engine,
		orch:        orch,
		capt:        capture.NewController(cfg.Engine, cfg.Logger),
		results:     resource.NewStore(cfg.ResultPrefix),
		hist:        cfg.History,
		lib:         cfg.Library,
		baseCtx:     cfg.BaseContext,
		loadTimeout: cfg.LoadTimeout,
		pub:         cfg.Publisher,
		logger:      logging.WithComponent(cfg.Logger, "manager"),
		startTime:   time.Now(),
	}
	return m, nil
}
