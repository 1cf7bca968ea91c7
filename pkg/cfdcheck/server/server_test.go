package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/estimate"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/history"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/output"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/server"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

func defaults() types.HardwareProfile {
	return types.HardwareProfile{
		Cells:         10_000_000,
		RAMCapacityGB: 64,
		RAMChannels:   4,
		RAMSpeedMTs:   2700,
		Processors:    1,
		Cores:         20,
		ClockGHz:      2.0,
		L3CacheMB:     64,
	}
}

func newTestServer(t *testing.T, store *history.Store) *httptest.Server {
	t.Helper()
	srv := server.New(server.Options{Defaults: defaults(), Version: "1.2.3", History: store})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestHealthAndVersion(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/version")
	require.NoError(t, err)
	defer resp.Body.Close()
	var v map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	assert.Equal(t, "1.2.3", v["version"])
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	_, err = uuid.Parse(resp.Header.Get("X-Request-Id"))
	assert.NoError(t, err, "generated request IDs are UUIDs")

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-Id", "trace-42")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "trace-42", resp.Header.Get("X-Request-Id"))
}

func TestEvaluate_Defaults(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := post(t, ts.URL+"/api/v1/evaluate", `{}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var report types.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	require.Len(t, report.Results, 7)
	assert.Equal(t, types.ResourceGPUVRAM, report.Results[0].Resource)
	assert.Equal(t, types.ResourceCPUCores, report.Results[1].Resource)
	assert.InDelta(t, 0.2, report.Results[1].Ratio, 1e-9)
	assert.Equal(t, types.ResourceRAMCapacity, report.Results[6].Resource)
}

func TestEvaluate_Override(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := post(t, ts.URL+"/api/v1/evaluate", `{"cells": 500000, "gpu_vram_gb": 24}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report types.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, int64(500_000), report.Profile.Cells)
	assert.Equal(t, 20, report.Profile.Cores)
	require.NotEmpty(t, report.Advisories)
	assert.Equal(t, types.AdvisoryCoreCap, report.Advisories[0].Kind)
}

func TestEvaluate_InvalidInput(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  string
		wantField string
	}{
		{name: "zero channels", body: `{"ram_channels": 0}`, wantCode: "invalid_input", wantField: "ram_channels"},
		{name: "negative cells", body: `{"cells": -5}`, wantCode: "invalid_input", wantField: "cells"},
		{name: "unknown field", body: `{"bogus": 1}`, wantCode: "invalid_request_body"},
		{name: "malformed", body: `{`, wantCode: "invalid_request_body"},
	}

	ts := newTestServer(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+"/api/v1/evaluate", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body server.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantCode, body.Error)
			if tt.wantField != "" {
				require.NotEmpty(t, body.Fields)
				assert.Equal(t, tt.wantField, body.Fields[0].Field)
			}
		})
	}
}

func TestEvaluate_ReportsEveryField(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := post(t, ts.URL+"/api/v1/evaluate", `{"cores": 0, "ram_channels": 0}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body server.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	var fields []string
	for _, f := range body.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"cores", "ram_channels"}, fields)
}

func TestEvaluate_Format(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := post(t, ts.URL+"/api/v1/evaluate?format=tsv", `{}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 8)
	assert.True(t, strings.HasPrefix(lines[1], "gpu_vram"), lines[1])

	resp = post(t, ts.URL+"/api/v1/evaluate?format=nope", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEvaluate_MatchesJSONFormatter(t *testing.T) {
	ts := newTestServer(t, nil)

	report, err := estimate.Evaluate(defaults())
	require.NoError(t, err)
	formatter, err := output.Get("json")
	require.NoError(t, err)
	var want bytes.Buffer
	require.NoError(t, formatter.Format(&want, report))

	for _, url := range []string{"/api/v1/evaluate", "/api/v1/evaluate?format=json"} {
		resp := post(t, ts.URL+url, `{}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		got, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.JSONEq(t, want.String(), string(got), url)

		var doc struct {
			Summary map[string]any   `json:"summary"`
			Results []map[string]any `json:"results"`
		}
		require.NoError(t, json.Unmarshal(got, &doc))
		require.NotEmpty(t, doc.Summary)
		require.Len(t, doc.Results, 7)
		assert.Equal(t, false, doc.Results[0]["sufficient"], "gpu_vram falls short")
		assert.Equal(t, true, doc.Results[6]["sufficient"], "ram_capacity is enough")
	}
}

func TestEvaluate_EmptyBodyUsesDefaults(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := post(t, ts.URL+"/api/v1/evaluate", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report types.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, defaults(), report.Profile)
}

func TestEvaluate_UnknownFormatIsNotRecorded(t *testing.T) {
	store, err := history.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	ts := newTestServer(t, store)

	resp := post(t, ts.URL+"/api/v1/evaluate?format=nope", `{}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	entries, err := store.List(0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDefaults(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/v1/defaults")
	require.NoError(t, err)
	defer resp.Body.Close()

	var p types.HardwareProfile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	assert.Equal(t, defaults(), p)
}

func TestHistoryRoutes(t *testing.T) {
	store, err := history.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ts := newTestServer(t, store)

	resp := post(t, ts.URL+"/api/v1/evaluate", `{"cells": 2000000}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	list, err := http.Get(ts.URL + "/api/v1/history")
	require.NoError(t, err)
	defer list.Body.Close()
	var entries []history.Entry
	require.NoError(t, json.NewDecoder(list.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "serve", entries[0].Source)

	one, err := http.Get(ts.URL + "/api/v1/history/" + entries[0].ID)
	require.NoError(t, err)
	defer one.Body.Close()
	assert.Equal(t, http.StatusOK, one.StatusCode)

	missing, err := http.Get(ts.URL + "/api/v1/history/ffffffff-none")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestHistoryRoutesDisabled(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/v1/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
