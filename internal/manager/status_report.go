package manager

import (
	"context"
	"errors"
	"time"

	"overlayd/internal/resource"
	"overlayd/internal/shell"
	"overlayd/pkg/types"
)

// Status builds the page state response for /status.
func (m *Manager) Status() types.StatusResponse {
	m.mu.RLock()
	st, loading := m.state, m.loading
	m.mu.RUnlock()
	cfg := m.OverlayConfig()
	resp := types.StatusResponse{
		Phase:          string(st.Phase),
		Run:            string(st.Run),
		RunID:          st.RunID,
		TriggerEnabled: st.TriggerEnabled(),
		Error:          st.Err,
		Message:        st.Message,
		EngineLoading:  loading,
		EngineError:    st.EngineErr,
		Mode:           string(cfg.Mode),
		Duration:       cfg.Duration,
		A:              ClipStatus(st.A),
		B:              ClipStatus(st.B),
		UptimeSeconds:  int64(time.Since(m.startTime).Seconds()),
	}
	if st.Phase != shell.PhaseEngineNotReady {
		resp.EngineVersion = m.eng.Version()
	}
	if st.Result != nil {
		resp.Result = &types.ResultStatus{
			ID:          st.Result.ID,
			URL:         st.Result.URL,
			ContentType: st.Result.ContentType,
			Size:        st.Result.Size,
			CreatedAt:   st.Result.CreatedAt.Unix(),
		}
	}
	return resp
}

// ClipStatus projects a clip for API responses. nil yields nil.
func ClipStatus(c *shell.Clip) *types.ClipStatus {
	if c == nil {
		return nil
	}
	cs := &types.ClipStatus{
		ID:          c.ID,
		Name:        c.Name,
		ContentType: c.ContentType,
		Size:        len(c.Data),
		URL:         "/clips/" + string(c.Slot),
	}
	if c.Captured.Materialized() {
		v := c.Captured.Seconds()
		cs.Captured = &v
	}
	return cs
}

// Result returns the stored result id, including superseded ones.
func (m *Manager) Result(id string) (resource.Handle, []byte, error) {
	h, b, err := m.results.Open(id)
	if errors.Is(err, resource.ErrNotFound) {
		return resource.Handle{}, nil, ErrNotFound("result " + id)
	}
	return h, b, err
}

// CurrentResult returns the handle of the most recent successful run.
func (m *Manager) CurrentResult() (resource.Handle, error) {
	h, ok := m.results.Current()
	if !ok {
		return resource.Handle{}, ErrNotFound("result")
	}
	return h, nil
}

// Runs lists recorded runs, newest first. Without a ledger it is empty.
func (m *Manager) Runs(ctx context.Context, limit int) ([]types.RunRecord, error) {
	if m.hist == nil {
		return []types.RunRecord{}, nil
	}
	if limit <= 0 {
		limit = defaultRunsLimit
	}
	runs, err := m.hist.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]types.RunRecord, 0, len(runs))
	for _, r := range runs {
		rec := types.RunRecord{
			ID:        r.ID,
			StartedAt: r.StartedAt.Unix(),
			StartA:    r.StartA,
			StartB:    r.StartB,
			Mode:      r.Mode,
			Status:    string(r.Status),
			Error:     r.Error,
			ResultID:  r.ResultID,
		}
		if r.FinishedAt != nil {
			rec.FinishedAt = r.FinishedAt.Unix()
		}
		out = append(out, rec)
	}
	return out, nil
}

// Library rescans the library directory and lists the clips available for
// selection without upload. A failed rescan keeps the previous listing.
func (m *Manager) Library() []types.LibraryItem {
	if err := m.lib.Rescan(); err != nil {
		m.logger.Warn().Err(err).Msg("library rescan failed")
	}
	items := m.lib.Items()
	out := make([]types.LibraryItem, 0, len(items))
	for _, it := range items {
		out = append(out, types.LibraryItem{Name: it.Name, Size: it.Size, ContentType: it.ContentType})
	}
	return out
}
