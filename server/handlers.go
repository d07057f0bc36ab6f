package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/echoflaresat/geochron/metrics"
	"github.com/echoflaresat/geochron/render"
	"github.com/echoflaresat/geochron/solar"
	"github.com/echoflaresat/geochron/storage"
)

const (
	maxBodyBytes       = 1 << 20
	maxTerminatorRes   = 3600
	maxMapWidth        = 4096
	maxMapHeight       = 2048
	defaultMapWidth    = 1024
	msgInvalidClocks   = "Invalid request: clocks must be an array"
	msgSaveFailed      = "Server error while saving configuration"
	msgLoadFailed      = "Server error while loading configuration"
	msgDeleteFailed    = "Server error while deleting configuration"
	msgNoConfiguration = "No configuration found for this user"
)

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, message string, data any) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "GeoChron Clock API is running",
	})
}

func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Clocks json.RawMessage `json:"clocks"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidClocks)
		return
	}
	if raw := bytes.TrimSpace(body.Clocks); len(raw) == 0 || raw[0] != '[' {
		writeError(w, http.StatusBadRequest, msgInvalidClocks)
		return
	}

	var clocks []storage.Clock
	if err := json.Unmarshal(body.Clocks, &clocks); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request: malformed clock entry")
		return
	}
	clocks, err := storage.ValidateClocks(clocks)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request: "+err.Error())
		return
	}

	id := userID(r)
	if _, err := s.store.Save(r.Context(), id, clocks); err != nil {
		s.logger.Error("save configuration failed", "component", "api", "user_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, msgSaveFailed)
		return
	}
	writeOK(w, "Configuration saved successfully", map[string]any{"userId": id, "clocks": clocks})
}

func (s *Server) handleLoadConfig(w http.ResponseWriter, r *http.Request) {
	id := userID(r)
	cfg, found, err := s.store.Load(r.Context(), id)
	if err != nil {
		s.logger.Error("load configuration failed", "component", "api", "user_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, msgLoadFailed)
		return
	}
	clocks := []storage.Clock{}
	message := msgNoConfiguration
	if found {
		message = "Configuration loaded successfully"
		if cfg.Clocks != nil {
			clocks = cfg.Clocks
		}
	}
	writeOK(w, message, map[string]any{"clocks": clocks})
}

func (s *Server) handleDeleteConfig(w http.ResponseWriter, r *http.Request) {
	id := userID(r)
	deleted, err := s.store.Delete(r.Context(), id)
	if err != nil {
		s.logger.Error("delete configuration failed", "component", "api", "user_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, msgDeleteFailed)
		return
	}
	message := msgNoConfiguration
	if deleted {
		message = "Configuration deleted successfully"
	}
	writeOK(w, message, map[string]any{"userId": id, "deleted": deleted})
}

// instant reads the optional RFC3339 time query parameter.
func (s *Server) instant(r *http.Request) (time.Time, error) {
	v := r.URL.Query().Get("time")
	if v == "" {
		return s.now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("time must be RFC3339: %w", err)
	}
	return t, nil
}

func (s *Server) handleGeometry(w http.ResponseWriter, r *http.Request) {
	t, err := s.instant(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeOK(w, "", solar.Compute(t))
}

func (s *Server) handleSubsolar(w http.ResponseWriter, r *http.Request) {
	t, err := s.instant(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeOK(w, "", solar.SubsolarPoint(t))
}

func coordinate(r *http.Request, name string, limit float64) (float64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, fmt.Errorf("%s is required", name)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > limit {
		return 0, fmt.Errorf("%s must be a number in [-%g, %g]", name, limit, limit)
	}
	return f, nil
}

func (s *Server) handleDaylight(w http.ResponseWriter, r *http.Request) {
	t, err := s.instant(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lat, err := coordinate(r, "lat", 90)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lon, err := coordinate(r, "lon", 180)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeOK(w, "", map[string]any{
		"daylight": solar.IsDaylight(lat, lon, t),
		"window":   solar.DayWindowAt(lat, lon, t),
	})
}

// intParam reads a positive integer query parameter, def when absent.
func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return n, nil
}

func (s *Server) handleTerminator(w http.ResponseWriter, r *http.Request) {
	t, err := s.instant(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := intParam(r, "resolution", solar.DefaultResolution)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res = min(res, maxTerminatorRes)

	switch format := r.URL.Query().Get("format"); format {
	case "geojson":
		fc, err := render.NightGeoJSON(t, res)
		if err != nil {
			s.logger.Error("terminator geojson failed", "component", "api", "error", err)
			writeError(w, http.StatusInternalServerError, "Server error while building terminator")
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		_ = json.NewEncoder(w).Encode(fc)
	case "", "json":
		points := solar.Terminator(t, res)
		writeOK(w, "", map[string]any{
			"time":     t.UTC().Format(time.RFC3339),
			"subsolar": solar.SubsolarPoint(t),
			"points":   points,
		})
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", format))
	}
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	t, err := s.instant(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	width, err := intParam(r, "width", defaultMapWidth)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	height, err := intParam(r, "height", max(1, width/2))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	shading, err := render.ParseShading(r.URL.Query().Get("shading"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := s.render
	opts.Width = min(width, maxMapWidth)
	opts.Height = min(height, maxMapHeight)
	opts.Shading = shading

	start := time.Now()
	img, err := render.RenderNightMap(r.Context(), t, opts)
	if err != nil {
		if errors.Is(err, render.ErrInvalidSize) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Warn("map render aborted", "component", "api", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Map render aborted")
		return
	}
	metrics.ObserveRender(shading.String(), time.Since(start))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := render.WritePNG(w, img); err != nil {
		s.logger.Warn("write png failed", "component", "api", "error", err)
	}
}
