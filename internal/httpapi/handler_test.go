package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"gstdirectory/internal/httpapi"
	"gstdirectory/pkg/directory"
	"gstdirectory/pkg/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newServer(t *testing.T, store directory.Store) *httptest.Server {
	t.Helper()
	dir := directory.New(store, zap.NewNop())
	srv := httptest.NewServer(httpapi.NewRouter(dir, nil, []string{"*"}, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, srv.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func errorOf(t *testing.T, data []byte) string {
	t.Helper()
	var e httpapi.ErrorResponse
	require.NoError(t, json.Unmarshal(data, &e))
	return e.Error
}

// go test -v --run TestScenario
func TestScenario(t *testing.T) {
	srv := newServer(t, memory.NewStore())

	resp, data := do(t, srv, http.MethodPost, "/data", map[string]string{"city": "Pune", "trader": "Acme", "gst": "27AAAA"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	var created httpapi.MessageResponse
	require.NoError(t, json.Unmarshal(data, &created))
	assert.Equal(t, "Added successfully", created.Message)
	assert.Equal(t, &directory.Record{City: "PUNE", Trader: "ACME", GST: "27AAAA"}, created.Entry)

	resp, data = do(t, srv, http.MethodPost, "/data", map[string]string{"city": "PUNE", "trader": "ACME", "gst": "anything"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "Trader already exists in this city.", errorOf(t, data))

	resp, data = do(t, srv, http.MethodPut, "/data", map[string]string{
		"oldCity": "PUNE", "oldTrader": "ACME",
		"newCity": "MUMBAI", "newTrader": "ACME", "newGST": "27AAAA",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	resp, data = do(t, srv, http.MethodDelete, "/data", map[string]string{"city": "PUNE", "trader": "ACME"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Entry not found.", errorOf(t, data))

	resp, data = do(t, srv, http.MethodGet, "/data", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `[{"CITIES":"MUMBAI","Traders":"ACME","GST":"27AAAA"}]`, string(data))
}

func TestInsertMissingFields(t *testing.T) {
	srv := newServer(t, memory.NewStore())

	resp, data := do(t, srv, http.MethodPost, "/data", map[string]string{"city": "PUNE"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "trader is required", errorOf(t, data))

	resp, _ = do(t, srv, http.MethodPost, "/data", "{broken")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInsertDefaultsGST(t *testing.T) {
	srv := newServer(t, memory.NewStore())

	resp, data := do(t, srv, http.MethodPost, "/api/data", map[string]string{"city": " pune ", "trader": " acme "})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Contains(t, string(data), `"GST":"NO GST"`)
}

func TestUpdateStatuses(t *testing.T) {
	srv := newServer(t, memory.NewStore(
		directory.NewRecord("PUNE", "ACME", ""),
		directory.NewRecord("PUNE", "BETA", ""),
	))

	resp, _ := do(t, srv, http.MethodPut, "/data", map[string]string{
		"oldCity": "DELHI", "oldTrader": "ACME", "newCity": "DELHI", "newTrader": "ACME",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, data := do(t, srv, http.MethodPut, "/data", map[string]string{
		"oldCity": "PUNE", "oldTrader": "BETA", "newCity": "PUNE", "newTrader": "ACME",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "New name/city creates a duplicate.", errorOf(t, data))

	resp, _ = do(t, srv, http.MethodPut, "/data", map[string]string{
		"oldCity": "PUNE", "oldTrader": "ACME", "newCity": "PUNE", "newTrader": "ACME", "newGST": "27x",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodPut, "/data", map[string]string{"oldCity": "PUNE", "oldTrader": "ACME"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteStatuses(t *testing.T) {
	srv := newServer(t, memory.NewStore(directory.NewRecord("PUNE", "ACME", "")))

	resp, _ := do(t, srv, http.MethodDelete, "/data", map[string]string{"city": "pune", "trader": "acme"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodDelete, "/data", map[string]string{"city": "pune", "trader": "acme"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodDelete, "/data", map[string]string{"city": "pune"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBrowseRoutes(t *testing.T) {
	srv := newServer(t, memory.NewStore(
		directory.NewRecord("PUNE", "ZETA", "Z"),
		directory.NewRecord("PUNE", "ACME", "A"),
		directory.NewRecord("MUMBAI", "ACME", ""),
	))

	_, data := do(t, srv, http.MethodGet, "/data/cities", nil)
	assert.JSONEq(t, `["MUMBAI","PUNE"]`, string(data))

	_, data = do(t, srv, http.MethodGet, "/data/cities/pune", nil)
	assert.JSONEq(t, `[{"CITIES":"PUNE","Traders":"ACME","GST":"A"},{"CITIES":"PUNE","Traders":"ZETA","GST":"Z"}]`, string(data))

	_, data = do(t, srv, http.MethodGet, "/data?city=mumbai", nil)
	assert.JSONEq(t, `[{"CITIES":"MUMBAI","Traders":"ACME","GST":"NO GST"}]`, string(data))

	resp, data := do(t, srv, http.MethodGet, "/data/cities/PUNE/traders/zeta", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"CITIES":"PUNE","Traders":"ZETA","GST":"Z"}`, string(data))

	resp, _ = do(t, srv, http.MethodGet, "/data/cities/DELHI/traders/ZETA", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, data = do(t, srv, http.MethodGet, "/data/cities/DELHI", nil)
	assert.JSONEq(t, `[]`, string(data))
}

func TestEmptyCities(t *testing.T) {
	srv := newServer(t, memory.NewStore())
	_, data := do(t, srv, http.MethodGet, "/data/cities", nil)
	assert.JSONEq(t, `[]`, string(data))
}

// brokenStore fails every call with an error carrying internal details.
type brokenStore struct{}

var errBroken = &directory.StorageError{Op: "read", Err: errors.New("open /secret/path: permission denied")}

func (brokenStore) List(context.Context) ([]directory.Record, error) { return nil, errBroken }
func (brokenStore) Insert(context.Context, directory.Record) error   { return errBroken }
func (brokenStore) Close() error                                     { return nil }

func (brokenStore) Update(context.Context, directory.Key, directory.Record) (directory.Record, error) {
	return directory.Record{}, errBroken
}

func (brokenStore) Delete(context.Context, directory.Key) (directory.Record, error) {
	return directory.Record{}, errBroken
}

func TestStorageFailureHidesInternals(t *testing.T) {
	srv := newServer(t, brokenStore{})

	for _, tc := range []struct {
		method string
		body   any
	}{
		{http.MethodGet, nil},
		{http.MethodPost, map[string]string{"city": "PUNE", "trader": "ACME"}},
		{http.MethodPut, map[string]string{"oldCity": "PUNE", "oldTrader": "ACME", "newCity": "PUNE", "newTrader": "ACME"}},
		{http.MethodDelete, map[string]string{"city": "PUNE", "trader": "ACME"}},
	} {
		resp, data := do(t, srv, tc.method, "/data", tc.body)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode, tc.method)
		assert.Equal(t, "Server Error", errorOf(t, data), tc.method)
		assert.NotContains(t, string(data), "secret", tc.method)
	}
}

func TestHealth(t *testing.T) {
	resp, _ := do(t, newServer(t, memory.NewStore()), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, newServer(t, brokenStore{}), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRequestIDAndCORS(t *testing.T) {
	srv := newServer(t, memory.NewStore())

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/data", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set(httpapi.RequestIDHeader, "abc-123")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "abc-123", resp.Header.Get(httpapi.RequestIDHeader))

	resp, _ = do(t, srv, http.MethodGet, "/data", nil)
	assert.NotEmpty(t, resp.Header.Get(httpapi.RequestIDHeader))
}

func TestCORSAllowList(t *testing.T) {
	h := httpapi.WithCORS([]string{"https://ok.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/data", nil)
	req.Header.Set("Origin", "https://ok.example")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://ok.example", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/data", nil)
	req.Header.Set("Origin", "https://evil.example")
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecover(t *testing.T) {
	h := httpapi.WithRecover(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}
