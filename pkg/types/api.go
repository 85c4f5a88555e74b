package types

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: trigger disabled
	Error string `json:"error" example:"trigger disabled"`
	// HTTP status code.
	// example: 409
	Code int `json:"code" example:"409"`
}

// ClipStatus describes one selected source clip.
type ClipStatus struct {
	// Generated clip identifier; changes on every selection.
	// example: 3f2b9c1e-8a8e-4c1e-9d0a-1b2c3d4e5f60
	ID string `json:"id" example:"3f2b9c1e-8a8e-4c1e-9d0a-1b2c3d4e5f60"`
	// Original file name.
	// example: pitch-1.mp4
	Name string `json:"name" example:"pitch-1.mp4"`
	// Content type reported on upload.
	// example: video/mp4
	ContentType string `json:"content_type" example:"video/mp4"`
	// Size in bytes.
	// example: 1048576
	Size int `json:"size" example:"1048576"`
	// Captured timestamp in seconds; absent until a run captures it.
	// example: 1.25
	Captured *float64 `json:"captured,omitempty" example:"1.25"`
	// Preview URL of the clip.
	// example: /clips/a
	URL string `json:"url" example:"/clips/a"`
}

// ResultStatus describes the current composed clip.
type ResultStatus struct {
	// example: 7c9e6679-7425-40de-944b-e07fc1f90ae7
	ID string `json:"id" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	// example: /results/7c9e6679-7425-40de-944b-e07fc1f90ae7
	URL string `json:"url" example:"/results/7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	// example: video/mp4
	ContentType string `json:"content_type" example:"video/mp4"`
	// example: 204800
	Size int `json:"size" example:"204800"`
	// Creation time (unix seconds).
	// example: 1700000000
	CreatedAt int64 `json:"created_at_unix" example:"1700000000"`
}

// StatusResponse is the page state returned by GET /status.
type StatusResponse struct {
	// Coarse page phase: engine_not_ready, idle, running.
	// example: idle
	Phase string `json:"phase" example:"idle"`
	// State of the latest run: idle, in_progress, done, error.
	// example: done
	Run string `json:"run" example:"done"`
	// Identifier of the latest run.
	// example: 0d1f5e8a-4c8b-4b8e-9a43-2f1c7b6d9e10
	RunID string `json:"run_id,omitempty" example:"0d1f5e8a-4c8b-4b8e-9a43-2f1c7b6d9e10"`
	// Whether POST /overlay would be accepted.
	// example: true
	TriggerEnabled bool `json:"trigger_enabled" example:"true"`
	// Error of the latest run, if it failed.
	// example: overlay blend: exit status 1
	Error string `json:"error,omitempty" example:"overlay blend: exit status 1"`
	// Last engine log or progress line.
	// example: frame=48 fps=0.0 time=00:00:02.000000 speed=3.1x
	Message string `json:"message,omitempty" example:"frame=48 fps=0.0 time=00:00:02.000000 speed=3.1x"`
	// Whether an engine load is in progress.
	// example: false
	EngineLoading bool `json:"engine_loading" example:"false"`
	// Engine initialization error, if any.
	// example: engine load: ffmpeg: executable file not found in $PATH
	EngineError string `json:"engine_error,omitempty" example:"engine load: ffmpeg: executable file not found in $PATH"`
	// Engine version line once loaded.
	// example: ffmpeg version 6.1.1
	EngineVersion string `json:"engine_version,omitempty" example:"ffmpeg version 6.1.1"`
	// Active blend mode.
	// example: spotlight
	Mode string `json:"mode" example:"spotlight"`
	// Trim window in seconds.
	// example: 2
	Duration float64 `json:"duration" example:"2"`
	// Selected clips.
	A *ClipStatus `json:"a,omitempty"`
	B *ClipStatus `json:"b,omitempty"`
	// Current result, retained across failed runs.
	Result *ResultStatus `json:"result,omitempty"`
	// Process uptime in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
}

// OverlayRequest is the body of POST /overlay.
type OverlayRequest struct {
	// Paused playback positions of clip A and clip B in seconds.
	// example: [1.25, 3.5]
	Positions []float64 `json:"positions" example:"1.25,3.5"`
}

// OverlayResponse acknowledges an accepted run.
type OverlayResponse struct {
	// example: 0d1f5e8a-4c8b-4b8e-9a43-2f1c7b6d9e10
	RunID string `json:"run_id" example:"0d1f5e8a-4c8b-4b8e-9a43-2f1c7b6d9e10"`
}

// RunRecord is one entry of GET /runs.
type RunRecord struct {
	ID string `json:"id"`
	// Start time (unix seconds).
	StartedAt int64 `json:"started_at_unix"`
	// Finish time (unix seconds); zero while running.
	FinishedAt int64   `json:"finished_at_unix,omitempty"`
	StartA     float64 `json:"start_a"`
	StartB     float64 `json:"start_b"`
	Mode       string  `json:"mode"`
	// running, succeeded or failed.
	Status   string `json:"status"`
	Error    string `json:"error,omitempty"`
	ResultID string `json:"result_id,omitempty"`
}

// RunsResponse wraps GET /runs.
type RunsResponse struct {
	Runs []RunRecord `json:"runs"`
}

// LibraryItem is one clip available for selection without upload.
type LibraryItem struct {
	// example: warmup.mp4
	Name string `json:"name" example:"warmup.mp4"`
	// example: 5242880
	Size int64 `json:"size" example:"5242880"`
	// example: video/mp4
	ContentType string `json:"content_type" example:"video/mp4"`
}

// LibraryResponse wraps GET /library.
type LibraryResponse struct {
	Items []LibraryItem `json:"items"`
}
