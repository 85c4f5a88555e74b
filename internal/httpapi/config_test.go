package httpapi

import (
	"net/http"
	"strings"
	"testing"
)

func TestSetMaxBodyBytes(t *testing.T) {
	SetMaxBodyBytes(8)
	defer SetMaxBodyBytes(0)
	rec := do(NewMux(newMockService()), http.MethodPost, "/overlay", strings.NewReader(`{"positions":[1.25,3.5]}`),
		map[string]string{"Content-Type": "application/json"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized body, got %d", rec.Code)
	}
	SetMaxBodyBytes(0)
	if maxBodyBytes != 1<<20 {
		t.Fatalf("default not restored: %d", maxBodyBytes)
	}
}

func TestSetMaxUploadBytesDefault(t *testing.T) {
	SetMaxUploadBytes(10)
	if maxUploadBytes != 10 {
		t.Fatalf("maxUploadBytes=%d", maxUploadBytes)
	}
	SetMaxUploadBytes(-1)
	if maxUploadBytes != defaultMaxUploadBytes {
		t.Fatalf("default not restored: %d", maxUploadBytes)
	}
}
