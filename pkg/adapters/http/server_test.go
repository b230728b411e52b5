package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/dataflow"
	apihttp "github.com/aretw0/dataflow/pkg/adapters/http"
	"github.com/aretw0/dataflow/pkg/adapters/memory"
	"github.com/aretw0/dataflow/pkg/domain"
	"github.com/aretw0/dataflow/pkg/metrics"
	"github.com/aretw0/dataflow/pkg/plugins/basic"
	"github.com/aretw0/dataflow/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandler(t *testing.T, opts ...apihttp.Option) http.Handler {
	t.Helper()
	eng, err := dataflow.New(
		dataflow.WithPlugins(basic.New()),
		dataflow.WithStore(memory.NewStore()),
	)
	require.NoError(t, err)
	return apihttp.NewHandler(dataflow.NewGuard(eng), opts...)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}

func TestHealthAndInfo(t *testing.T) {
	h := newHandler(t)

	w := do(t, h, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])

	w = do(t, h, "GET", "/info", nil)
	assert.Equal(t, dataflow.Version, decode[map[string]string](t, w)["version"])
}

func TestNodesAndLinks(t *testing.T) {
	h := newHandler(t)

	w := do(t, h, "POST", "/nodes", apihttp.CreateNodeRequest{Key: basic.KeyConstant, X: 1, Y: 2})
	require.Equal(t, http.StatusCreated, w.Code)
	src := decode[apihttp.NodeView](t, w)
	assert.Equal(t, domain.NodeID(0), src.ID)
	assert.Equal(t, "Generators/Constant", src.Label)
	require.Len(t, src.Outputs, 1)

	w = do(t, h, "POST", "/nodes", apihttp.CreateNodeRequest{Key: basic.KeyDisplay})
	require.Equal(t, http.StatusCreated, w.Code)
	sink := decode[apihttp.NodeView](t, w)

	w = do(t, h, "POST", "/links", apihttp.CreateLinkRequest{From: src.Outputs[0].ID, To: sink.Inputs[0].ID})
	require.Equal(t, http.StatusCreated, w.Code)
	link := decode[domain.LinkInfo](t, w)

	w = do(t, h, "GET", "/links", nil)
	assert.Equal(t, []domain.LinkInfo{link}, decode[[]domain.LinkInfo](t, w))

	w = do(t, h, "POST", "/links", apihttp.CreateLinkRequest{From: sink.Inputs[0].ID, To: src.Outputs[0].ID})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, "PATCH", "/nodes/0", apihttp.MoveNodeRequest{X: 50, Y: 60})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 50.0, decode[apihttp.NodeView](t, w).X)

	w = do(t, h, "DELETE", "/links/"+strconv.Itoa(int(link.ID)), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, "DELETE", "/links/"+strconv.Itoa(int(link.ID)), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, "DELETE", "/nodes/0", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, "GET", "/nodes/0", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, "GET", "/nodes", nil)
	assert.Len(t, decode[[]apihttp.NodeView](t, w), 1)

	w = do(t, h, "GET", "/stats", nil)
	stats := decode[dataflow.Stats](t, w)
	assert.Equal(t, 1, stats.Nodes)
	assert.Equal(t, 0, stats.Connections)
}

func TestBadRequests(t *testing.T) {
	h := newHandler(t)

	w := do(t, h, "POST", "/nodes", apihttp.CreateNodeRequest{Key: "no.such.kind"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, h, "GET", "/nodes/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest("POST", "/links", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	w = do(t, h, "PUT", "/graph", domain.Document{Version: "42"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGraphDocument(t *testing.T) {
	h := newHandler(t)

	w := do(t, h, "PUT", "/graph", ports.SampleDocument())
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[apihttp.ReportView](t, w)
	assert.Equal(t, 2, report.Nodes)
	assert.Equal(t, 1, report.Links)

	w = do(t, h, "POST", "/graphs/sample/save", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, h, "DELETE", "/graph", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, "GET", "/graph", nil)
	assert.Empty(t, decode[domain.Document](t, w).Nodes)

	w = do(t, h, "POST", "/graphs/sample/load", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[apihttp.ReportView](t, w).Links)

	w = do(t, h, "GET", "/graph", nil)
	doc := decode[domain.Document](t, w)
	assert.Len(t, doc.Nodes, 2)
	assert.Equal(t, [][]int{{1, 3}}, doc.Links)

	w = do(t, h, "POST", "/graphs/missing/load", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCatalogAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	eng, err := dataflow.New(dataflow.WithPlugins(basic.New()), dataflow.WithMetrics(m))
	require.NoError(t, err)
	h := apihttp.NewHandler(dataflow.NewGuard(eng), apihttp.WithMetrics(reg))

	w := do(t, h, "GET", "/catalog", nil)
	entries := decode[[]apihttp.CatalogEntry](t, w)
	require.NotEmpty(t, entries)
	assert.Equal(t, apihttp.CatalogEntry{Depth: 0, Leaf: false, Name: "Generators"}, entries[0])
	assert.Equal(t, apihttp.CatalogEntry{Depth: 1, Leaf: true, Key: string(basic.KeyConstant), Name: "Constant"}, entries[1])

	do(t, h, "POST", "/nodes", apihttp.CreateNodeRequest{Key: basic.KeyAdd})
	w = do(t, h, "GET", "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `dataflow_nodes_created_total{kind="basic.add"} 1`)
}

func TestSubscribeEvents(t *testing.T) {
	h := newHandler(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/events?watch=node", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)

	body, _ := json.Marshal(apihttp.CreateNodeRequest{Key: basic.KeyConstant})
	post, err := http.Post(srv.URL+"/nodes", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	post.Body.Close()

	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data: {") {
			break
		}
	}
	var ev apihttp.Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &ev))
	assert.Equal(t, "node.created", ev.Type)
}
