package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/corey/gbsearch/internal/adapters/socket"
	"github.com/corey/gbsearch/internal/ports"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	trkA = ports.Feature{SeqID: "chr", Strand: ports.StrandForward, Start: 100, End: 900, Name: "VNG1001G", CommonName: "trkA"}
	gvpA = ports.Feature{SeqID: "pNRC100", Strand: ports.StrandReverse, Start: 10, End: 500, Name: "VNG6001G", CommonName: "gvpA"}
)

// stubQueries implements socket.AppQueries and records what it was asked.
type stubQueries struct {
	search   socket.SearchParams
	query    string
	keywords []string
	names    []string
	text     string
	listErr  error
}

func (q *stubQueries) Search(p socket.SearchParams) socket.FeaturesResult {
	q.search = p
	q.query, q.keywords = p.Query, p.Keywords
	return socket.FeaturesResult{Features: []ports.Feature{trkA, gvpA}, Count: 2}
}

func (q *stubQueries) Find(names []string) socket.FeaturesResult {
	q.names = names
	return socket.FeaturesResult{Features: []ports.Feature{gvpA}, Count: 1}
}

func (q *stubQueries) Next() socket.NextResult {
	return socket.NextResult{Feature: trkA, Found: true}
}

func (q *stubQueries) Results() socket.FeaturesResult {
	return socket.FeaturesResult{Features: []ports.Feature{trkA}, Count: 1}
}

func (q *stubQueries) Mentions(text string) socket.FeaturesResult {
	q.text = text
	return socket.FeaturesResult{}
}

func (q *stubQueries) Load(path string) (socket.LoadResult, error) {
	return socket.LoadResult{}, errors.New("not supported")
}

func (q *stubQueries) Datasets() (socket.DatasetsResult, error) {
	if q.listErr != nil {
		return socket.DatasetsResult{}, q.listErr
	}
	id := uuid.New()
	return socket.DatasetsResult{
		Datasets: []ports.DatasetInfo{{ID: id, Name: "halo", TrackCount: 1, FeatureCount: 2}},
		Current:  id,
	}, nil
}

func (q *stubQueries) Health() socket.HealthResult {
	return socket.HealthResult{Status: "ok", Dataset: "halo", TermCount: 4, AutoWildcard: true}
}

func setupTestServer(t *testing.T) (*httptest.Server, *stubQueries) {
	t.Helper()
	q := &stubQueries{}
	ts := httptest.NewServer(NewServer(q, "", nil).Handler())
	t.Cleanup(ts.Close)
	return ts, q
}

func getJSON(t *testing.T, rawURL string, out any) int {
	t.Helper()
	resp, err := http.Get(rawURL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := setupTestServer(t)

	var result socket.HealthResult
	assert.Equal(t, 200, getJSON(t, ts.URL+"/api/health", &result))
	assert.Equal(t, "ok", result.Status)
	assert.Equal(t, "halo", result.Dataset)
	assert.Equal(t, 4, result.TermCount)
	assert.NotEmpty(t, result.Uptime)
}

func TestSearchEndpoint_Query(t *testing.T) {
	ts, q := setupTestServer(t)

	var result socket.FeaturesResult
	assert.Equal(t, 200, getJSON(t, ts.URL+"/api/search?q="+url.QueryEscape("trk, gvp"), &result))
	assert.Equal(t, "trk, gvp", q.query)
	assert.Nil(t, q.keywords)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, trkA, result.Features[0])
}

func TestSearchEndpoint_Keywords(t *testing.T) {
	ts, q := setupTestServer(t)

	var result socket.FeaturesResult
	assert.Equal(t, 200, getJSON(t, ts.URL+"/api/search?kw=trk&kw=VNG6*", &result))
	assert.Equal(t, []string{"trk", "VNG6*"}, q.keywords)
}

func TestSearchEndpoint_Overrides(t *testing.T) {
	ts, q := setupTestServer(t)

	var result socket.FeaturesResult
	assert.Equal(t, 200, getJSON(t, ts.URL+"/api/search?q=trk&auto_wildcard=false&case_sensitive=1", &result))
	require.NotNil(t, q.search.AutoWildcard)
	require.NotNil(t, q.search.CaseSensitive)
	assert.False(t, *q.search.AutoWildcard)
	assert.True(t, *q.search.CaseSensitive)

	assert.Equal(t, 200, getJSON(t, ts.URL+"/api/search?q=trk", &result))
	assert.Nil(t, q.search.AutoWildcard)
	assert.Nil(t, q.search.CaseSensitive)

	var bad map[string]string
	assert.Equal(t, 400, getJSON(t, ts.URL+"/api/search?q=trk&auto_wildcard=maybe", &bad))
	assert.Contains(t, bad["error"], "auto_wildcard")
}

func TestSearchEndpoint_MissingQuery(t *testing.T) {
	ts, _ := setupTestServer(t)

	var result map[string]string
	assert.Equal(t, 400, getJSON(t, ts.URL+"/api/search", &result))
	assert.Contains(t, result["error"], "missing")
}

func TestFindEndpoint(t *testing.T) {
	ts, q := setupTestServer(t)

	var result socket.FeaturesResult
	assert.Equal(t, 200, getJSON(t, ts.URL+"/api/find?name=VNG6001G", &result))
	assert.Equal(t, []string{"VNG6001G"}, q.names)
	assert.Equal(t, gvpA, result.Features[0])

	var errResult map[string]string
	assert.Equal(t, 400, getJSON(t, ts.URL+"/api/find", &errResult))
}

func TestNextEndpoint(t *testing.T) {
	ts, _ := setupTestServer(t)

	resp, err := http.Post(ts.URL+"/api/next", "text/plain", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result socket.NextResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Found)
	assert.Equal(t, trkA, result.Feature)
}

func TestNextEndpoint_RejectsGet(t *testing.T) {
	ts, _ := setupTestServer(t)

	resp, err := http.Get(ts.URL + "/api/next")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestResultsEndpoint(t *testing.T) {
	ts, _ := setupTestServer(t)

	var result socket.FeaturesResult
	assert.Equal(t, 200, getJSON(t, ts.URL+"/api/results", &result))
	assert.Equal(t, 1, result.Count)
}

func TestMentionsEndpoint(t *testing.T) {
	ts, q := setupTestServer(t)

	resp, err := http.Post(ts.URL+"/api/mentions", "text/plain", strings.NewReader("gvpA is induced"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "gvpA is induced", q.text)
}

func TestDatasetsEndpoint(t *testing.T) {
	ts, q := setupTestServer(t)

	var result socket.DatasetsResult
	assert.Equal(t, 200, getJSON(t, ts.URL+"/api/datasets", &result))
	require.Len(t, result.Datasets, 1)
	assert.Equal(t, result.Current, result.Datasets[0].ID)

	q.listErr = errors.New("store closed")
	var errResult map[string]string
	assert.Equal(t, 500, getJSON(t, ts.URL+"/api/datasets", &errResult))
	assert.Equal(t, "store closed", errResult["error"])
}

func TestStartStop_PortFile(t *testing.T) {
	portFile := filepath.Join(t.TempDir(), "http.port")
	s := NewServer(&stubQueries{}, portFile, nil)
	require.NoError(t, s.Start(0))

	data, err := os.ReadFile(portFile)
	require.NoError(t, err)
	assert.Equal(t, s.Port(), mustAtoi(t, string(data)))

	var result socket.HealthResult
	assert.Equal(t, 200, getJSON(t, s.URL()+"/api/health", &result))

	s.Stop()
	s.Stop()
	assert.NoFileExists(t, portFile)
}

func TestStart_PreferredPortBusy(t *testing.T) {
	first := NewServer(&stubQueries{}, "", nil)
	require.NoError(t, first.Start(0))
	defer first.Stop()

	second := NewServer(&stubQueries{}, "", nil)
	require.NoError(t, second.Start(first.Port()))
	defer second.Stop()
	assert.NotEqual(t, first.Port(), second.Port())
}

func TestDefaultPort(t *testing.T) {
	port := DefaultPort("/home/user/project")
	assert.GreaterOrEqual(t, port, 19000)
	assert.Less(t, port, 20000)
	assert.Equal(t, port, DefaultPort("/home/user/project"))
}

func mustAtoi(t *testing.T, s string) int {
	t.Helper()
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	require.NoError(t, err)
	return n
}
