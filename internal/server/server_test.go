package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/mbertrand/alluvial/pkg/pipeline"
	"github.com/mbertrand/alluvial/pkg/store"
)

const requestJSON = `{
	"dataset": {
		"nodes": [
			{"time": 1, "category": 1, "size": 10},
			{"time": 1, "category": 2, "size": 5},
			{"time": 2, "category": 1, "size": 8},
			{"time": 2, "category": 2, "size": 7}
		],
		"links": [
			{"time1": 1, "category1": 1, "time2": 2, "category2": 1, "thickness": 7},
			{"time1": 1, "category1": 1, "time2": 2, "category2": 2, "thickness": 3},
			{"time1": 1, "category1": 2, "time2": 2, "category2": 2, "thickness": 4}
		]
	},
	"formats": ["svg", "json"]
}`

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	s := New(pipeline.NewRunner(nil, logger), store.NewMemoryStore(), logger)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestRenderEndpoint(t *testing.T) {
	ts := testServer(t)

	resp := postJSON(t, ts.URL+"/render", requestJSON)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if id := resp.Header.Get("X-Request-ID"); id == "" {
		t.Error("missing X-Request-ID header")
	}

	var body struct {
		DatasetHash string            `json:"dataset_hash"`
		NodeCount   int               `json:"node_count"`
		LinkCount   int               `json:"link_count"`
		Artifacts   map[string][]byte `json:"artifacts"`
	}
	decodeBody(t, resp, &body)

	if body.NodeCount != 4 || body.LinkCount != 3 {
		t.Errorf("counts = (%d, %d), want (4, 3)", body.NodeCount, body.LinkCount)
	}
	if body.DatasetHash == "" {
		t.Error("missing dataset hash")
	}
	if !bytes.Contains(body.Artifacts["svg"], []byte("<svg")) {
		t.Error("svg artifact missing <svg element")
	}
	if len(body.Artifacts["json"]) == 0 {
		t.Error("missing json artifact")
	}
}

func TestRenderRejectsFilePaths(t *testing.T) {
	ts := testServer(t)

	resp := postJSON(t, ts.URL+"/render", `{"input": "/etc/passwd", "formats": ["svg"]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var body errorResponse
	decodeBody(t, resp, &body)
	if body.Error.Code != "INVALID_INPUT" {
		t.Errorf("error code = %q, want INVALID_INPUT", body.Error.Code)
	}
}

func TestRenderBadBody(t *testing.T) {
	ts := testServer(t)

	resp := postJSON(t, ts.URL+"/render", `{not json`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRenderInvalidDataset(t *testing.T) {
	ts := testServer(t)

	// Population sums differ across time points.
	resp := postJSON(t, ts.URL+"/render", `{
		"dataset": {
			"nodes": [
				{"time": 1, "category": 1, "size": 10},
				{"time": 2, "category": 1, "size": 9}
			],
			"links": []
		},
		"formats": ["svg"]
	}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	var body errorResponse
	decodeBody(t, resp, &body)
	if body.Error.Code != "INVALID_CONFIG" {
		t.Errorf("error code = %q, want INVALID_CONFIG", body.Error.Code)
	}
}

func TestChartLifecycle(t *testing.T) {
	ts := testServer(t)

	resp := postJSON(t, ts.URL+"/charts", requestJSON)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	var created createChartResponse
	decodeBody(t, resp, &created)
	if created.ID == "" {
		t.Fatal("missing chart ID")
	}
	if len(created.Formats) != 2 {
		t.Errorf("formats = %v, want 2 entries", created.Formats)
	}

	getResp, err := http.Get(ts.URL + "/charts/" + created.ID)
	if err != nil {
		t.Fatalf("GET chart: %v", err)
	}
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", getResp.StatusCode)
	}
	var chart store.Chart
	decodeBody(t, getResp, &chart)
	if len(chart.Dataset.Nodes) != 4 {
		t.Errorf("persisted nodes = %d, want 4", len(chart.Dataset.Nodes))
	}

	artResp, err := http.Get(ts.URL + "/charts/" + created.ID + "/artifacts/svg")
	if err != nil {
		t.Fatalf("GET artifact: %v", err)
	}
	defer artResp.Body.Close()
	if artResp.StatusCode != http.StatusOK {
		t.Fatalf("artifact status = %d, want 200", artResp.StatusCode)
	}
	if ct := artResp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type = %q, want image/svg+xml", ct)
	}
	svg, _ := io.ReadAll(artResp.Body)
	if !strings.Contains(string(svg), "<svg") {
		t.Error("artifact body missing <svg element")
	}
}

func TestGetChartNotFound(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/charts/nope")
	if err != nil {
		t.Fatalf("GET chart: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	var body errorResponse
	decodeBody(t, resp, &body)
	if body.Error.Code != "NOT_FOUND" {
		t.Errorf("error code = %q, want NOT_FOUND", body.Error.Code)
	}
}

func TestGetArtifactMissingFormat(t *testing.T) {
	ts := testServer(t)

	resp := postJSON(t, ts.URL+"/charts", requestJSON)
	var created createChartResponse
	decodeBody(t, resp, &created)

	// Rendered svg and json only; pdf is valid but absent.
	artResp, err := http.Get(ts.URL + "/charts/" + created.ID + "/artifacts/pdf")
	if err != nil {
		t.Fatalf("GET artifact: %v", err)
	}
	defer artResp.Body.Close()
	if artResp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", artResp.StatusCode)
	}

	badResp, err := http.Get(ts.URL + "/charts/" + created.ID + "/artifacts/gif")
	if err != nil {
		t.Fatalf("GET artifact: %v", err)
	}
	defer badResp.Body.Close()
	if badResp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", badResp.StatusCode)
	}
}
