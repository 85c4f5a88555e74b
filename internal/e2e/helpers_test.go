package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"overlayd/internal/engine"
	"overlayd/internal/history"
	"overlayd/internal/httpapi"
	"overlayd/internal/library"
	"overlayd/internal/manager"
	"overlayd/internal/overlay"
	"overlayd/pkg/types"
)

// requireFFmpeg skips the test unless ffmpeg and ffprobe are on PATH.
func requireFFmpeg(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping ffmpeg pipeline in -short mode")
	}
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not found on PATH", bin)
		}
	}
}

// makeClip renders a short synthetic clip with ffmpeg's lavfi sources.
func makeClip(t *testing.T, dir, name, src string) string {
	t.Helper()
	out := filepath.Join(dir, name)
	cmd := exec.Command("ffmpeg", "-y", "-hide_banner", "-nostdin",
		"-f", "lavfi", "-i", src+"=duration=4:size=160x120:rate=10",
		"-pix_fmt", "yuv420p", out)
	if b, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("generate %s: %v\n%s", name, err, b)
	}
	return out
}

// newServer wires the real engine, an in-memory history and the HTTP mux.
// Engines lacking the configured codec skip the test.
func newServer(t *testing.T, libDir string) (*httptest.Server, *manager.Manager) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := overlay.DefaultConfig()
	eng := engine.New(engine.Options{Codec: cfg.Codec, Logger: zerolog.Nop()})
	t.Cleanup(func() { _ = eng.Close() })
	if err := eng.Load(ctx); err != nil {
		t.Skipf("engine unavailable: %v", err)
	}

	hist, err := history.Open(":memory:", zerolog.Nop())
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	t.Cleanup(func() { _ = hist.Close() })

	lib, err := library.New(libDir)
	if err != nil {
		t.Fatalf("library: %v", err)
	}
	mgr, err := manager.NewWithConfig(manager.ManagerConfig{
		Engine:      eng,
		Overlay:     cfg,
		History:     hist,
		Library:     lib,
		BaseContext: ctx,
		Logger:      zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	if err := mgr.EnsureEngine(ctx); err != nil {
		t.Fatalf("ensure engine: %v", err)
	}
	t.Cleanup(func() { _ = mgr.Close() })

	srv := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(srv.Close)
	return srv, mgr
}

func upload(t *testing.T, srv *httptest.Server, slot, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/clips/"+slot, bytes.NewReader(data))
	req.Header.Set("Content-Type", "video/mp4")
	req.Header.Set("X-File-Name", filepath.Base(path))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload %s: %v", slot, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("upload %s: %d %s", slot, resp.StatusCode, b)
	}
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get %s: %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}

// waitRun polls /status until the run leaves in_progress.
func waitRun(t *testing.T, srv *httptest.Server) types.StatusResponse {
	t.Helper()
	deadline := time.Now().Add(2 * time.Minute)
	for time.Now().Before(deadline) {
		var st types.StatusResponse
		getJSON(t, srv.URL+"/status", &st)
		if st.Run != "in_progress" {
			return st
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("run did not finish in time")
	return types.StatusResponse{}
}
