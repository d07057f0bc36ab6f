package server

import (
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoflaresat/geochron/render"
	"github.com/echoflaresat/geochron/storage"
)

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, store storage.Store) *httptest.Server {
	t.Helper()
	if store == nil {
		mem, err := storage.NewMemoryStore(16)
		require.NoError(t, err)
		store = mem
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewServer(":0", logger, store, render.Options{Workers: 2})
	s.now = func() time.Time { return time.Date(2023, 6, 21, 12, 0, 0, 0, time.UTC) }
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, session, body string) (*http.Response, response) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if session != "" {
		req.Header.Set("X-Session-Id", session)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out response
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "GeoChron Clock API is running", body["message"])
}

func TestSaveAndLoadConfiguration(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, out := do(t, http.MethodGet, ts.URL+"/api/load-configuration", "s1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, out.Success)
	assert.Equal(t, "No configuration found for this user", out.Message)
	assert.JSONEq(t, `{"clocks":[]}`, string(out.Data))

	body := `{"clocks":[{"id":"a","timezone":"Europe/London","label":"London"},{"timezone":"Asia/Tokyo","label":"Tokyo"}]}`
	resp, out = do(t, http.MethodPost, ts.URL+"/api/save-configuration", "s1", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, out.Success)
	assert.Equal(t, "Configuration saved successfully", out.Message)

	var saved struct {
		UserID string          `json:"userId"`
		Clocks []storage.Clock `json:"clocks"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &saved))
	assert.Equal(t, "s1", saved.UserID)
	require.Len(t, saved.Clocks, 2)
	assert.NotEmpty(t, saved.Clocks[1].ID)

	resp, out = do(t, http.MethodGet, ts.URL+"/api/load-configuration", "s1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Configuration loaded successfully", out.Message)
	var loaded struct {
		Clocks []storage.Clock `json:"clocks"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &loaded))
	assert.Equal(t, saved.Clocks, loaded.Clocks)

	// other sessions are isolated
	_, out = do(t, http.MethodGet, ts.URL+"/api/load-configuration", "s2", "")
	assert.Equal(t, "No configuration found for this user", out.Message)

	resp, out = do(t, http.MethodDelete, ts.URL+"/api/delete-configuration", "s1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Configuration deleted successfully", out.Message)
	_, out = do(t, http.MethodGet, ts.URL+"/api/load-configuration", "s1", "")
	assert.Equal(t, "No configuration found for this user", out.Message)
}

func TestSaveConfigurationRejectsBadInput(t *testing.T) {
	ts := newTestServer(t, nil)
	cases := map[string]string{
		"object":       `{"clocks":{"id":"a"}}`,
		"missing":      `{}`,
		"null":         `{"clocks":null}`,
		"not json":     `clocks`,
		"string":       `{"clocks":"a"}`,
		"no timezone":  `{"clocks":[{"label":"x"}]}`,
		"wrong fields": `{"clocks":[1,2]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp, out := do(t, http.MethodPost, ts.URL+"/api/save-configuration", "s", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.False(t, out.Success)
			assert.True(t, strings.HasPrefix(out.Message, "Invalid request"), out.Message)
		})
	}

	_, out := do(t, http.MethodPost, ts.URL+"/api/save-configuration", "s", `{"clocks":{}}`)
	assert.Equal(t, "Invalid request: clocks must be an array", out.Message)
}

type failingStore struct{ storage.Store }

func (failingStore) Save(context.Context, string, []storage.Clock) (storage.UserConfig, error) {
	return storage.UserConfig{}, errors.New("disk on fire")
}

func (failingStore) Load(context.Context, string) (storage.UserConfig, bool, error) {
	return storage.UserConfig{}, false, errors.New("disk on fire")
}

func TestStoreErrorsAreHidden(t *testing.T) {
	ts := newTestServer(t, failingStore{})

	resp, out := do(t, http.MethodPost, ts.URL+"/api/save-configuration", "s", `{"clocks":[]}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Server error while saving configuration", out.Message)

	resp, out = do(t, http.MethodGet, ts.URL+"/api/load-configuration", "s", "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, out.Message, "fire")
}

func TestUserIDFallsBackToAddress(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	assert.Equal(t, "203.0.113.7", userID(req))

	req.Header.Set("X-Session-Id", "abc")
	assert.Equal(t, "abc", userID(req))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = ""
	assert.Equal(t, anonymousUser, userID(req))
}

func TestSubsolarAndGeometry(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, out := do(t, http.MethodGet, ts.URL+"/api/solar/subsolar?time=2023-06-21T12:00:00Z", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var p struct{ Lat, Lon float64 }
	require.NoError(t, json.Unmarshal(out.Data, &p))
	assert.InDelta(t, 23.44, p.Lat, 0.05)
	assert.InDelta(t, 0.43, p.Lon, 0.1)

	resp, out = do(t, http.MethodGet, ts.URL+"/api/solar/geometry", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var g struct {
		Declination float64 `json:"declination"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &g))
	assert.InDelta(t, 23.44, g.Declination, 0.05)

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/solar/geometry?time=yesterday", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDaylight(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, out := do(t, http.MethodGet, ts.URL+"/api/solar/daylight?lat=51.5&lon=-0.13&time=2023-06-21T12:00:00Z", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var d struct {
		Daylight bool `json:"daylight"`
		Window   struct {
			Polar string `json:"polar"`
		} `json:"window"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &d))
	assert.True(t, d.Daylight)
	assert.Equal(t, "none", d.Window.Polar)

	for _, q := range []string{"lat=91&lon=0", "lat=0&lon=181", "lat=x&lon=0", "lon=0", "lat=NaN&lon=0"} {
		resp, out := do(t, http.MethodGet, ts.URL+"/api/solar/daylight?"+q, "", "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
		assert.False(t, out.Success, q)
	}
}

func TestTerminator(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, out := do(t, http.MethodGet, ts.URL+"/api/solar/terminator?resolution=90", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var d struct {
		Points []struct{ Lat, Lon float64 } `json:"points"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &d))
	assert.Len(t, d.Points, 91)

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/solar/terminator?resolution=100000", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, ts.URL+"/api/solar/terminator?resolution=0", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	r, err := http.Get(ts.URL + "/api/solar/terminator?format=geojson&resolution=45")
	require.NoError(t, err)
	defer r.Body.Close()
	assert.Equal(t, "application/geo+json", r.Header.Get("Content-Type"))
	var fc render.FeatureCollection
	require.NoError(t, json.NewDecoder(r.Body).Decode(&fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Len(t, fc.Features, 3)
}

func TestMapPNG(t *testing.T) {
	ts := newTestServer(t, nil)

	r, err := http.Get(ts.URL + "/api/solar/map.png?width=120&height=60&shading=predicate")
	require.NoError(t, err)
	defer r.Body.Close()
	require.Equal(t, http.StatusOK, r.StatusCode)
	assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
	img, err := png.Decode(r.Body)
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 60, img.Bounds().Dy())

	resp, _ := do(t, http.MethodGet, ts.URL+"/api/solar/map.png?width=-4", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = do(t, http.MethodGet, ts.URL+"/api/solar/map.png?width=10&shading=phong", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	_, _ = do(t, http.MethodGet, ts.URL+"/api/health", "", "")

	r, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer r.Body.Close()
	raw, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "geochron_http_requests_total")
}
