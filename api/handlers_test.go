package api

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/gofrs/uuid"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"photo-geotag/amap"
	"photo-geotag/archive"
	"photo-geotag/coordtrans"
	"photo-geotag/geotag"
	"photo-geotag/repos"
	"strings"
	"sync"
	"testing"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	opts.Logger = discardLogger
	tagger := geotag.New(geotag.ExifGateway, coordtrans.Transform{}, discardLogger)
	srv := httptest.NewServer(New(tagger, opts).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func writeJPEG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, image.NewGray(image.Rect(0, 0, 8, 8)), nil))
	return path
}

func post(t *testing.T, u, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(u, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, u string) *http.Response {
	t.Helper()
	resp, err := http.Get(u)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestWriteThenRead(t *testing.T) {
	dir := t.TempDir()
	a := writeJPEG(t, dir, "a.jpg")
	missing := filepath.Join(dir, "missing.jpg")
	journal := &mockJournal{}
	srv := newTestServer(t, Options{Journal: journal})

	body, err := json.Marshal(map[string]any{
		"image_paths": []string{a, missing},
		"longitude":   116.397477,
		"latitude":    39.908692,
	})
	require.NoError(t, err)
	resp := post(t, srv.URL+"/api/v0/write", string(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got WriteResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, []geotag.WriteResult{
		{FilePath: a, Success: true},
		{FilePath: missing, Success: false},
	}, got.Results)
	assert.Equal(t, geotag.Summary{Total: 2, Succeeded: 1, Failed: 1, Outcome: geotag.OutcomePartial}, got.Summary)
	assert.NotEqual(t, uuid.Nil, got.BatchID)

	saved := journal.savedBatches()
	require.Len(t, saved, 1)
	assert.Equal(t, got.BatchID, saved[0].ID)
	assert.Equal(t, orb.Point{116.397477, 39.908692}, saved[0].Target)

	resp = get(t, srv.URL+"/api/v0/read?image_path="+url.QueryEscape(a))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var p []float64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	require.Len(t, p, 2)
	assert.InDelta(t, 116.397477, p[0], 1e-4)
	assert.InDelta(t, 39.908692, p[1], 1e-4)
}

func TestWriteResponseShape(t *testing.T) {
	path := writeJPEG(t, t.TempDir(), "a.jpg")
	srv := newTestServer(t, Options{})

	resp := post(t, srv.URL+"/api/v0/write", `{"image_paths":["`+path+`"],"longitude":121.4737,"latitude":31.2304}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	assert.Contains(t, raw, "batch_id")
	assert.JSONEq(t, `[{"file_path":"`+path+`","success":true}]`, string(raw["results"]))
	assert.JSONEq(t, `{"total":1,"succeeded":1,"failed":0,"outcome":"all-succeeded"}`, string(raw["summary"]))
	assert.NotContains(t, raw, "archived")
}

func TestWriteJournalFailureStillResponds(t *testing.T) {
	path := writeJPEG(t, t.TempDir(), "a.jpg")
	srv := newTestServer(t, Options{Journal: &mockJournal{err: errors.New("db down")}})

	resp := post(t, srv.URL+"/api/v0/write", `{"image_paths":["`+path+`"],"longitude":121.4737,"latitude":31.2304}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWriteArchives(t *testing.T) {
	path := writeJPEG(t, t.TempDir(), "a.jpg")
	journal := &mockJournal{}
	archiver := &mockArchiver{}
	srv := newTestServer(t, Options{Journal: journal, Archiver: archiver})

	resp := post(t, srv.URL+"/api/v0/write", `{"image_paths":["`+path+`"],"longitude":121.4737,"latitude":31.2304,"archive":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got WriteResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got.Archived, 1)
	assert.Equal(t, "archive/"+path, got.Archived[0].Key)
	assert.Equal(t, got.BatchID, archiver.lastBatchID())
	saved := journal.savedBatches()
	require.Len(t, saved, 1)
	assert.Equal(t, map[int]string{0: "archive/" + path}, saved[0].ArchiveKeys)
}

func TestWriteBadRequests(t *testing.T) {
	srv := newTestServer(t, Options{})

	table := []struct {
		name string
		body string
	}{
		{"not json", `image_paths=a.jpg`},
		{"missing latitude", `{"image_paths":["a.jpg"],"longitude":116.4}`},
		{"archive not configured", `{"image_paths":["a.jpg"],"longitude":116.4,"latitude":39.9,"archive":true}`},
	}
	for _, tt := range table {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+"/api/v0/write", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestWriteDoesNotRangeCheck(t *testing.T) {
	path := writeJPEG(t, t.TempDir(), "a.jpg")
	srv := newTestServer(t, Options{})

	resp := post(t, srv.URL+"/api/v0/write", `{"image_paths":["`+path+`"],"longitude":181,"latitude":-91}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got WriteResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, []geotag.WriteResult{{FilePath: path, Success: true}}, got.Results)
}

func TestReadAbsent(t *testing.T) {
	path := writeJPEG(t, t.TempDir(), "plain.jpg")
	srv := newTestServer(t, Options{})

	for _, p := range []string{path, filepath.Join(t.TempDir(), "missing.jpg")} {
		resp := get(t, srv.URL+"/api/v0/read?image_path="+url.QueryEscape(p))
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "null\n", string(body))
	}
}

func TestReadMissingParameter(t *testing.T) {
	srv := newTestServer(t, Options{})
	resp := get(t, srv.URL+"/api/v0/read")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearch(t *testing.T) {
	searcher := &mockSearcher{places: []amap.Place{{ID: "B000A60DA1", Name: "天安门", Location: orb.Point{116.397477, 39.908692}}}}
	srv := newTestServer(t, Options{Searcher: searcher})

	resp := get(t, srv.URL+"/api/v0/search?keywords=%E5%A4%A9%E5%AE%89%E9%97%A8&city=beijing")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	keywords, city := searcher.args()
	assert.Equal(t, "天安门", keywords)
	assert.Equal(t, "beijing", city)

	var got []amap.Place
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, searcher.places, got)
}

func TestSearchErrors(t *testing.T) {
	resp := get(t, newTestServer(t, Options{}).URL+"/api/v0/search?keywords=park")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	srv := newTestServer(t, Options{Searcher: &mockSearcher{err: amap.ErrNoKeywords}})
	resp = get(t, srv.URL+"/api/v0/search")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	srv = newTestServer(t, Options{Searcher: &mockSearcher{err: &amap.APIError{Info: "INVALID_USER_KEY", InfoCode: "10001"}}})
	resp = get(t, srv.URL+"/api/v0/search?keywords=park")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestBatches(t *testing.T) {
	id := uuid.Must(uuid.FromString("6ba7b810-9dad-11d1-80b4-00c04fd430c8"))
	journal := &mockJournal{list: []repos.BatchSummary{{ID: id, Total: 3, Succeeded: 2, Failed: 1}}}
	srv := newTestServer(t, Options{Journal: journal})

	resp := get(t, srv.URL+"/api/v0/batches")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, defaultBatchesLimit, journal.lastLimit())

	var got []repos.BatchSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)

	get(t, srv.URL+"/api/v0/batches?limit=5")
	assert.Equal(t, 5, journal.lastLimit())

	for _, bad := range []string{"0", "x", "1000"} {
		resp = get(t, srv.URL+"/api/v0/batches?limit="+bad)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, bad)
	}
}

func TestBatchesWithoutJournal(t *testing.T) {
	resp := get(t, newTestServer(t, Options{}).URL+"/api/v0/batches")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t, Options{})
	resp := get(t, srv.URL+"/api/v0/write")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

type mockJournal struct {
	mu    sync.Mutex
	saved []repos.Batch
	list  []repos.BatchSummary
	limit int
	err   error
}

func (m *mockJournal) SaveBatch(_ context.Context, b repos.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, b)
	return nil
}

func (m *mockJournal) ListBatches(_ context.Context, limit int) ([]repos.BatchSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limit = limit
	return m.list, m.err
}

type mockSearcher struct {
	mu             sync.Mutex
	keywords, city string
	places         []amap.Place
	err            error
}

func (m *mockSearcher) Search(_ context.Context, keywords, city string) ([]amap.Place, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keywords, m.city = keywords, city
	if m.err != nil {
		return nil, m.err
	}
	return m.places, nil
}

type mockArchiver struct {
	mu      sync.Mutex
	batchID uuid.UUID
}

func (m *mockArchiver) Upload(_ context.Context, batchID uuid.UUID, results []geotag.WriteResult) []archive.Upload {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchID = batchID
	var out []archive.Upload
	for i, r := range results {
		if r.Success {
			out = append(out, archive.Upload{Position: i, FilePath: r.FilePath, Key: "archive/" + r.FilePath})
		}
	}
	return out
}

func (m *mockJournal) savedBatches() []repos.Batch {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]repos.Batch(nil), m.saved...)
}

func (m *mockJournal) lastLimit() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.limit
}

func (m *mockSearcher) args() (string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keywords, m.city
}

func (m *mockArchiver) lastBatchID() uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batchID
}
