package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuscode/leetboard/internal/model"
	"github.com/campuscode/leetboard/internal/report"
	"github.com/campuscode/leetboard/internal/resilience"
)

type fakeProvider struct {
	results  []model.StudentResult
	err      error
	last     time.Time
	forceLog []bool
}

func (f *fakeProvider) Results(_ context.Context, force bool) ([]model.StudentResult, error) {
	f.forceLog = append(f.forceLog, force)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeProvider) LastRefreshed() time.Time { return f.last }

type fakeBreakers struct {
	snap map[string]resilience.SourceState
}

func (f fakeBreakers) Snapshot() map[string]resilience.SourceState { return f.snap }

type fakeSender struct {
	configured bool
	err        error
	sent       []*report.Report
}

func (f *fakeSender) Configured() bool { return f.configured }

func (f *fakeSender) Send(_ context.Context, r *report.Report) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, r)
	return nil
}

func sampleRows() []model.StudentResult {
	alice := model.Student{RollNo: "20CS101", Name: "Alice Kumar", Username: "alicek", Year: 3, Section: "A"}.Result()
	alice.Easy, alice.Medium, alice.Hard, alice.Total = 20, 15, 7, 42
	alice.Outcome = model.OutcomeFresh
	alice.Source = "alfa-vercel"

	bala := model.Student{RollNo: "20CS102", Name: "Bala Raj", Username: "balar", Year: 3, Section: "A"}.Result()
	bala.Outcome = model.OutcomeFresh
	bala.Source = "stats-heroku"

	return []model.StudentResult{alice, bala}
}

func newTestRouter(p statsProvider, b breakerView, m reportSender) http.Handler {
	return newRouter(p, b, m, 5, []string{"*"})
}

func TestHealthzEndpoint(t *testing.T) {
	h := newTestRouter(&fakeProvider{}, fakeBreakers{}, &fakeSender{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestStatsEndpoint(t *testing.T) {
	last := time.Date(2025, 8, 18, 9, 30, 0, 0, time.UTC)
	p := &fakeProvider{results: sampleRows(), last: last}
	h := newTestRouter(p, fakeBreakers{}, &fakeSender{})

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp statsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Students, 2)
	assert.Equal(t, "20CS101", resp.Students[0].RollNo)
	assert.Equal(t, 42, resp.Students[0].Total)
	assert.Equal(t, "2025-08-18T09:30:00Z", resp.LastRefreshed)

	// Plain GET must serve from cache, not force a refresh.
	require.Len(t, p.forceLog, 1)
	assert.False(t, p.forceLog[0])
}

func TestStatsEndpoint_RefreshParam(t *testing.T) {
	p := &fakeProvider{results: sampleRows()}
	h := newTestRouter(p, fakeBreakers{}, &fakeSender{})

	req := httptest.NewRequest(http.MethodGet, "/api/stats?refresh=1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, p.forceLog, 1)
	assert.True(t, p.forceLog[0])
}

func TestStatsEndpoint_Error(t *testing.T) {
	p := &fakeProvider{err: eris.New("db down")}
	h := newTestRouter(p, fakeBreakers{}, &fakeSender{})

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "stats unavailable")
}

func TestStatsCSVEndpoint(t *testing.T) {
	p := &fakeProvider{results: sampleRows()}
	h := newTestRouter(p, fakeBreakers{}, &fakeSender{})

	req := httptest.NewRequest(http.MethodGet, "/api/stats/csv", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=leetcode_stats.csv", rr.Header().Get("Content-Disposition"))

	rows, err := csv.NewReader(rr.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Roll Number", "Name", "LeetCode Username", "Easy Solved", "Medium Solved", "Hard Solved", "Total Solved"}, rows[0])
	assert.Equal(t, "20CS101", rows[1][0])
	assert.Equal(t, "42", rows[1][6])
}

func TestBreakersEndpoint(t *testing.T) {
	b := fakeBreakers{snap: map[string]resilience.SourceState{
		"alfa-vercel": {Failures: 5, Open: true},
		"faisal":      {Failures: 0, Open: false},
	}}
	h := newTestRouter(&fakeProvider{}, b, &fakeSender{})

	req := httptest.NewRequest(http.MethodGet, "/api/breakers", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Sources map[string]resilience.SourceState `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Sources["alfa-vercel"].Open)
	assert.False(t, resp.Sources["faisal"].Open)
}

func TestReportEndpoint(t *testing.T) {
	p := &fakeProvider{results: sampleRows()}
	h := newTestRouter(p, fakeBreakers{}, &fakeSender{})

	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var rep report.Report
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rep))
	assert.Equal(t, 5, rep.Threshold)
	require.Len(t, rep.Groups, 1)
	assert.Equal(t, 2, rep.Groups[0].TotalStudents)
	assert.Equal(t, 1, rep.Groups[0].ZeroCount)
	assert.Equal(t, 1, rep.Groups[0].ActiveCount)
}

func TestRefreshEndpoint(t *testing.T) {
	p := &fakeProvider{results: sampleRows()}
	h := newTestRouter(p, fakeBreakers{}, &fakeSender{})

	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.EqualValues(t, 2, resp["refreshed"])

	require.Len(t, p.forceLog, 1)
	assert.True(t, p.forceLog[0])
}

func TestReportSend_NotConfigured(t *testing.T) {
	h := newTestRouter(&fakeProvider{results: sampleRows()}, fakeBreakers{}, &fakeSender{configured: false})

	req := httptest.NewRequest(http.MethodPost, "/api/report/send", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "email not configured")
}

func TestReportSend_OK(t *testing.T) {
	sender := &fakeSender{configured: true}
	h := newTestRouter(&fakeProvider{results: sampleRows()}, fakeBreakers{}, sender)

	req := httptest.NewRequest(http.MethodPost, "/api/report/send", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["sent"])

	require.Len(t, sender.sent, 1)
	assert.Equal(t, 5, sender.sent[0].Threshold)
}

func TestReportSend_DeliveryFails(t *testing.T) {
	sender := &fakeSender{configured: true, err: eris.New("smtp timeout")}
	h := newTestRouter(&fakeProvider{results: sampleRows()}, fakeBreakers{}, sender)

	req := httptest.NewRequest(http.MethodPost, "/api/report/send", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "send failed")
}

func TestCORSHeaders(t *testing.T) {
	h := newTestRouter(&fakeProvider{results: sampleRows()}, fakeBreakers{}, &fakeSender{})

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	h := newTestRouter(&fakeProvider{}, fakeBreakers{}, &fakeSender{})

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestServeCmd_DefaultPortFromConfig(t *testing.T) {
	// Verify that servePort flag default is 0 (meaning use config).
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag)
	assert.Equal(t, "0", flag.DefValue)
}

func TestServeCmd_Metadata(t *testing.T) {
	assert.Equal(t, "serve", serveCmd.Use)
	assert.NotEmpty(t, serveCmd.Short)
}
