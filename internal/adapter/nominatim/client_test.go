package nominatim

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bird-map-service/internal/observability"
)

const (
	testUserAgent     = "bird-map-service-test/1.0"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		userAgent:  testUserAgent,
		metrics:    testMetrics(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_Search_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Boulder, Colorado", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))

		resp := []place{
			{Lat: "40.0149856", Lon: "-105.2705456", DisplayName: "Boulder, Boulder County, Colorado, United States"},
			{Lat: "46.2307341", Lon: "-112.1213455", DisplayName: "Boulder, Jefferson County, Montana, United States"},
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	candidates, err := c.Search(context.Background(), "Boulder, Colorado", 5)
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, 40.0149856, candidates[0].Lat)
	assert.Equal(t, -105.2705456, candidates[0].Lon)
	assert.Equal(t, "Boulder, Boulder County, Colorado, United States", candidates[0].DisplayName)
}

func TestClient_Search_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode([]place{}))
	}))
	defer srv.Close()

	candidates, err := testClient(srv.URL).Search(context.Background(), "xyzzy", 5)
	require.NoError(t, err)
	require.NotNil(t, candidates)
	assert.Empty(t, candidates)
}

func TestClient_Search_BadCoordinatesSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := []place{
			{Lat: "not-a-number", Lon: "-105.0", DisplayName: "Broken"},
			{Lat: "40.0", Lon: "-105.0", DisplayName: "Good"},
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	candidates, err := testClient(srv.URL).Search(context.Background(), "somewhere", 5)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "Good", candidates[0].DisplayName)
}

func TestClient_Search_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Search(context.Background(), "Boulder", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestClient_Search_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Search(context.Background(), "Boulder", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestClient_Search_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).Search(ctx, "Boulder", 5)
	require.Error(t, err)
}
