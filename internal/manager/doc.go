// Package manager coordinates the engine, the capture controller and the
// overlay orchestrator on behalf of the HTTP layer and the CLI. It owns the
// page state (a shell.State value) behind a mutex and applies transitions as
// engine and run events arrive. It is structured into small files by concern:
//
//   - manager.go: core Manager type and simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: the Engine and Recorder dependencies.
//   - errors.go: typed errors carrying HTTP status codes, plus Is* helpers.
//   - ensure.go: EnsureEngine and LoadAsync (engine initialization and retry).
//   - clips.go: clip selection, preview bytes and posters.
//   - ops.go: Trigger and the background run.
//   - status_report.go: Status, Runs and Library projections.
//   - events.go, eventpub_memory.go: lifecycle event publishing.
//
// Only one run is in flight at a time. Trigger returns a run id right away
// and the run proceeds in the background; callers poll Status.
package manager
