package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"overlayd/internal/manager"
	"overlayd/internal/resource"
	"overlayd/internal/shell"
	"overlayd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Status() types.StatusResponse
	Ready() bool
	EnsureEngine(ctx context.Context) error
	SelectClip(slot, name, contentType string, data []byte) (shell.Clip, error)
	SelectLibraryClip(slot, name string) (shell.Clip, error)
	Clip(slot string) (shell.Clip, error)
	Poster(ctx context.Context, slot string, at *float64, width int) ([]byte, error)
	Trigger(ctx context.Context, positions []float64) (string, error)
	Result(id string) (resource.Handle, []byte, error)
	CurrentResult() (resource.Handle, error)
	Runs(ctx context.Context, limit int) ([]types.RunRecord, error)
	Library() []types.LibraryItem
}

var _ Service = (*manager.Manager)(nil)

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)
	r.Use(MetricsMiddleware)
	// Compression for JSON and the page; media types are left alone
	r.Use(middleware.Compress(5, "text/html", "application/json"))
	r.Use(securityHeaders)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}

	r.Get("/", servePage)

	r.Route("/clips/{slot}", func(r chi.Router) {
		r.Put("/", func(w http.ResponseWriter, r *http.Request) { handleUpload(svc, w, r) })
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			c, err := svc.Clip(chi.URLParam(r, "slot"))
			if err != nil {
				writeServiceError(w, err)
				return
			}
			if c.ContentType != "" {
				w.Header().Set("Content-Type", c.ContentType)
			}
			w.Header().Set("Cache-Control", "no-store")
			http.ServeContent(w, r, c.Name, time.Time{}, bytes.NewReader(c.Data))
		})
		r.Get("/poster", func(w http.ResponseWriter, r *http.Request) {
			var at *float64
			if v := r.URL.Query().Get("t"); v != "" {
				f, err := strconv.ParseFloat(v, 64)
				if err != nil {
					writeJSONError(w, http.StatusBadRequest, "t must be a number")
					return
				}
				at = &f
			}
			width := 0
			if v := r.URL.Query().Get("w"); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil || n <= 0 || n > 4096 {
					writeJSONError(w, http.StatusBadRequest, "w must be between 1 and 4096")
					return
				}
				width = n
			}
			b, err := svc.Poster(r.Context(), chi.URLParam(r, "slot"), at, width)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			w.Header().Set("Content-Type", "image/jpeg")
			w.Header().Set("Cache-Control", "no-store")
			_, _ = w.Write(b)
		})
		r.Post("/library/{name}", func(w http.ResponseWriter, r *http.Request) {
			c, err := svc.SelectLibraryClip(chi.URLParam(r, "slot"), chi.URLParam(r, "name"))
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, manager.ClipStatus(&c))
		})
	})

	r.Post("/overlay", func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.OverlayRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		runID, err := svc.Trigger(r.Context(), req.Positions)
		if err != nil {
			switch {
			case manager.IsTriggerDisabled(err):
				IncrementTriggerRejected("disabled")
			case manager.IsEngineNotReady(err):
				IncrementTriggerRejected("engine_not_ready")
			case manager.IsBadRequest(err):
				IncrementTriggerRejected("bad_request")
			}
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, types.OverlayResponse{RunID: runID})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Get("/runs", func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeJSONError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			limit = n
		}
		runs, err := svc.Runs(r.Context(), limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, types.RunsResponse{Runs: runs})
	})

	r.Get("/library", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.LibraryResponse{Items: svc.Library()})
	})

	// Stable link to the latest result; handles themselves never change.
	r.Get("/results/current", func(w http.ResponseWriter, r *http.Request) {
		h, err := svc.CurrentResult()
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		http.Redirect(w, r, h.URL, http.StatusFound)
	})

	r.Get("/results/{id}", func(w http.ResponseWriter, r *http.Request) {
		h, b, err := svc.Result(chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", h.ContentType)
		w.Header().Set("Cache-Control", "private, max-age=31536000, immutable")
		http.ServeContent(w, r, "output.mp4", h.CreatedAt, bytes.NewReader(b))
	})

	r.Post("/engine/load", func(w http.ResponseWriter, r *http.Request) {
		// Join server base context with request context so shutdown cancels the load too.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if err := svc.EnsureEngine(ctx); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// handleUpload accepts either a raw body (Content-Type kept, name from the
// X-File-Name header or ?name=) or a multipart form with a "file" field.
func handleUpload(svc Service, w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	var (
		name = r.Header.Get("X-File-Name")
		ct   = r.Header.Get("Content-Type")
		data []byte
		err  error
	)
	if name == "" {
		name = r.URL.Query().Get("name")
	}
	if mt, _, _ := mime.ParseMediaType(ct); mt == "multipart/form-data" {
		f, fh, ferr := r.FormFile("file")
		if ferr != nil {
			if isTooLarge(ferr) {
				writeJSONError(w, http.StatusRequestEntityTooLarge, "upload too large")
				return
			}
			writeJSONError(w, http.StatusBadRequest, "multipart field \"file\" is required")
			return
		}
		defer f.Close()
		name, ct = fh.Filename, fh.Header.Get("Content-Type")
		data, err = io.ReadAll(f)
	} else {
		data, err = io.ReadAll(r.Body)
	}
	if err != nil {
		if isTooLarge(err) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeJSONError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	c, err := svc.SelectClip(chi.URLParam(r, "slot"), name, ct, data)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, manager.ClipStatus(&c))
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
