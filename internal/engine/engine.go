// Package engine wraps the ffmpeg and ffprobe binaries as an opaque
// transcoding engine. The engine owns a private working directory that acts
// as its virtual filesystem: callers write named inputs, run commands that
// reference those names, and read named outputs back.
//
// The engine must be loaded once before use and admits a single command at a
// time.
package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotLoaded is returned by every operation issued before Load succeeds.
	ErrNotLoaded = errors.New("engine: not loaded")
	// ErrBusy is returned when a call overlaps a running command.
	ErrBusy = errors.New("engine: busy")
	// ErrInvalidName is returned for file names that are not plain base names.
	ErrInvalidName = errors.New("engine: invalid file name")
)

// Kind distinguishes log lines from parsed progress blocks.
type Kind string

const (
	KindLog      Kind = "log"
	KindProgress Kind = "progress"
)

// Message is delivered to OnLog subscribers while a command runs.
type Message struct {
	Kind     Kind
	Line     string
	Progress *Progress
}

// Progress is one block of ffmpeg's -progress output.
type Progress struct {
	Frame   int
	FPS     float64
	OutTime string
	Speed   string
	Done    bool
}

func (p Progress) String() string {
	return fmt.Sprintf("frame=%d fps=%.1f time=%s speed=%s", p.Frame, p.FPS, p.OutTime, p.Speed)
}

// LoadError reports which capability probe failed during Load.
type LoadError struct {
	Probe string
	Err   error
}

func (e *LoadError) Error() string { return "engine load: " + e.Probe + ": " + e.Err.Error() }
func (e *LoadError) Unwrap() error { return e.Err }

// ExecError reports a failed command with a tail of its stderr.
type ExecError struct {
	Args   []string
	Err    error
	Stderr string
}

func (e *ExecError) Error() string {
	msg := "engine exec failed: " + e.Err.Error()
	if tail := strings.TrimSpace(e.Stderr); tail != "" {
		msg += "; stderr tail: " + tail
	}
	return msg
}

func (e *ExecError) Unwrap() error { return e.Err }
