package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"folio/internal/portfolio"
	"folio/internal/report"
	"folio/internal/store/cyclelog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cycles, err := cyclelog.New(filepath.Join(t.TempDir(), "cycles.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cycles.Close() })
	return NewServer(":0", cycles)
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.router.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	w := get(newTestServer(t), "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestReportEndpoints(t *testing.T) {
	s := newTestServer(t)

	t.Run("404 before the first cycle", func(t *testing.T) {
		for _, path := range []string{"/api/report", "/api/history", "/api/positions", "/api/trades"} {
			assert.Equal(t, http.StatusNotFound, get(s, path).Code, path)
		}
	})

	p := portfolio.New(10000)
	p.RecordValueHistory(10000)
	s.SetReport(report.Build("trace-1", p, "reasoning", nil, ""))

	t.Run("latest report is served", func(t *testing.T) {
		w := get(s, "/api/report")
		require.Equal(t, http.StatusOK, w.Code)

		var rep report.Report
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
		assert.Equal(t, "trace-1", rep.TraceID)
		assert.Equal(t, "reasoning", rep.Reasoning)
	})

	t.Run("history slice is served standalone", func(t *testing.T) {
		w := get(s, "/api/history")
		require.Equal(t, http.StatusOK, w.Code)

		var hist []portfolio.ValuePoint
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hist))
		require.Len(t, hist, 1)
		assert.Equal(t, 10000.0, hist[0].Value)
	})
}

func TestCyclesEndpoint(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.cycles.Append(context.Background(), cyclelog.Record{TraceID: "c1", Timestamp: 1}))

	w := get(s, "/api/cycles?limit=5")
	require.Equal(t, http.StatusOK, w.Code)

	var recs []cyclelog.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "c1", recs[0].TraceID)

	t.Run("nil cycle store yields 404", func(t *testing.T) {
		bare := NewServer(":0", nil)
		assert.Equal(t, http.StatusNotFound, get(bare, "/api/cycles").Code)
	})
}

func TestChartRenders(t *testing.T) {
	s := newTestServer(t)
	p := portfolio.New(10000)
	p.RecordValueHistory(10000)
	p.RecordValueHistory(10100)
	s.SetReport(report.Build("trace-1", p, "", nil, ""))

	w := get(s, "/chart")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "echarts")
}
