package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "addr: :9999\nwork_dir: /tmp/w\nmax_upload_mb: 64\noverlay:\n  mode: mix\n  crf: 10\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.WorkDir != "/tmp/w" || cfg.MaxUploadMB != 64 || cfg.Overlay.Mode != "mix" || cfg.Overlay.CRF == nil || *cfg.Overlay.CRF != 10 {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","ffmpeg_bin":"/opt/ffmpeg","overlay":{"duration_sec":3.5,"codec":"libvpx-vp9"},"cors":{"enabled":true,"origins":["http://a"]}}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.FFmpegBin != "/opt/ffmpeg" || cfg.Overlay.DurationSec != 3.5 || cfg.Overlay.Codec != "libvpx-vp9" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if !cfg.CORS.Enabled || len(cfg.CORS.Origins) != 1 {
		t.Fatalf("unexpected cors: %+v", cfg.CORS)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\nlibrary_dir=\"/clips\"\n[overlay]\nthreshold=200\nmode=\"lighten\"\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8081" || cfg.LibraryDir != "/clips" || cfg.Overlay.Threshold == nil || *cfg.Overlay.Threshold != 200 || cfg.Overlay.Mode != "lighten" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}

func TestWithDefaults(t *testing.T) {
	cfg := Config{Addr: ":1", Overlay: OverlayConfig{Mode: "mix"}}.WithDefaults()
	if cfg.Addr != ":1" {
		t.Fatalf("addr overwritten: %q", cfg.Addr)
	}
	if cfg.Overlay.Mode != "mix" {
		t.Fatalf("mode overwritten: %q", cfg.Overlay.Mode)
	}
	d := Defaults()
	if cfg.Overlay.DurationSec != d.Overlay.DurationSec || *cfg.Overlay.CRF != 5 || cfg.Overlay.Codec != "libvpx" || *cfg.Overlay.Threshold != 175 {
		t.Fatalf("overlay defaults not applied: %+v", cfg.Overlay)
	}
	if cfg.FFmpegBin != "ffmpeg" || cfg.MaxUploadMB != 512 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"OVERLAYD_ADDR":          ":6060",
		"OVERLAYD_OVERLAY_MODE":  "mix",
		"OVERLAYD_MAX_UPLOAD_MB": "12",
	}
	cfg, err := ApplyEnv(Defaults(), func(k string) string { return env[k] })
	if err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Addr != ":6060" || cfg.Overlay.Mode != "mix" || cfg.MaxUploadMB != 12 {
		t.Fatalf("env not applied: %+v", cfg)
	}
	if cfg.FFmpegBin != "ffmpeg" {
		t.Fatalf("unset env should not change value: %q", cfg.FFmpegBin)
	}

	env["OVERLAYD_MAX_UPLOAD_MB"] = "lots"
	if _, err := ApplyEnv(Defaults(), func(k string) string { return env[k] }); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestExplicitZeroSurvivesDefaults(t *testing.T) {
	d := t.TempDir()
	for name, body := range map[string]string{
		"zero.yaml": "overlay:\n  crf: 0\n  threshold: 0\n",
		"zero.json": `{"overlay":{"crf":0,"threshold":0}}`,
		"zero.toml": "[overlay]\ncrf=0\nthreshold=0\n",
	} {
		cfg, err := Load(writeTempFile(t, d, name, body))
		if err != nil {
			t.Fatalf("%s: load: %v", name, err)
		}
		cfg = cfg.WithDefaults()
		if cfg.Overlay.CRF == nil || *cfg.Overlay.CRF != 0 {
			t.Fatalf("%s: crf=%v", name, cfg.Overlay.CRF)
		}
		if cfg.Overlay.Threshold == nil || *cfg.Overlay.Threshold != 0 {
			t.Fatalf("%s: threshold=%v", name, cfg.Overlay.Threshold)
		}
	}
}
