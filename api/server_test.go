package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aqlanhadi/analyzer/analyzer"
	"github.com/aqlanhadi/analyzer/extractor/common"
	"github.com/aqlanhadi/analyzer/matching"
	"github.com/aqlanhadi/analyzer/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marchText = `Statement 03/01/2024 - 03/31/2024
03/02/2024 PAYROLL ACME CORP 2,500.00
03/05/2024 ONLINE TRANSFER TO CAPITAL ONE 0488 -500.00
03/06/2024 ACH DEBIT ACCOUNT 0478 -200.00
03/07/2024 UBER TRIP -24.50`

type fakeExtractor map[string]string

func (f fakeExtractor) ExtractText(_ context.Context, name string, _ io.ReaderAt, _ int64) (string, error) {
	text, ok := f[name]
	if !ok {
		return "", &common.DocumentReadError{Filename: name, Err: errors.New("not a pdf")}
	}
	return text, nil
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *analyzer.Store) {
	t.Helper()
	ex := fakeExtractor{"march.pdf": marchText}
	store := analyzer.New(analyzer.WithExtractor(ex))
	clock := func() time.Time { return time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC) }
	opts = append([]Option{WithExtractor(ex), WithClock(clock)}, opts...)
	return New(DefaultConfig(), store, opts...), store
}

func do(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func upload(t *testing.T, s *Server, target string, names ...string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, n := range names {
		part, err := writer.CreateFormFile("file", n)
		require.NoError(t, err)
		io.WriteString(part, "%PDF-1.4 mock")
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Port != ":8080" {
		t.Errorf("Expected port ':8080', got '%s'", cfg.Port)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	w := do(t, server, http.MethodGet, "/health", nil)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	var response map[string]any
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["status"] != "ok" {
		t.Errorf("Expected status 'ok', got '%v'", response["status"])
	}
}

func TestExtractEndpoint_MethodNotAllowed(t *testing.T) {
	server, _ := newTestServer(t)

	w := do(t, server, http.MethodGet, "/extract", nil)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestExtractEndpoint_NoFile(t *testing.T) {
	server, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/extract", nil)
	req.Header.Set("Content-Type", "multipart/form-data")
	w := httptest.NewRecorder()

	server.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestExtractEndpoint_InvalidFile(t *testing.T) {
	server, _ := newTestServer(t)

	w := upload(t, server, "/extract", "test.pdf")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Could not extract text from file")
}

func TestExtractEndpoint_DryRun(t *testing.T) {
	server, store := newTestServer(t)

	w := upload(t, server, "/extract?transaction_only=true", "march.pdf")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var txns []common.Transaction
	require.NoError(t, json.NewDecoder(w.Body).Decode(&txns))
	assert.Len(t, txns, 4)
	assert.Empty(t, store.Statements())
}

func TestExtractEndpoint_TextOnly(t *testing.T) {
	server, _ := newTestServer(t)

	w := upload(t, server, "/extract?text_only=true", "march.pdf")

	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "march.pdf", got["filename"])
	assert.Equal(t, marchText, got["text"])
}

func TestParseExtractOptions(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/extract?transaction_only=true&text_only=true", nil)

	opts := parseExtractOptions(req)

	if !opts.TransactionOnly {
		t.Error("Expected TransactionOnly to be true")
	}
	if !opts.TextOnly {
		t.Error("Expected TextOnly to be true")
	}
	if opts.StatementOnly {
		t.Error("Expected StatementOnly to be false")
	}
}

func TestHandler(t *testing.T) {
	server, _ := newTestServer(t)
	handler := server.Handler()

	if handler == nil {
		t.Fatal("Expected handler to be returned")
	}
	if handler != server.mux {
		t.Error("Expected handler to be the server's mux")
	}
}

func TestProcessAndLedger(t *testing.T) {
	server, store := newTestServer(t)

	w := upload(t, server, "/process", "march.pdf", "broken.pdf")
	require.Equal(t, http.StatusCreated, w.Code)
	var res analyzer.BatchResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.Equal(t, 4, res.Transactions)
	assert.Equal(t, 1, res.Failed)
	assert.NotEmpty(t, store.ActiveProjectID())

	w = do(t, server, http.MethodGet, "/transactions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var txns []common.Transaction
	require.NoError(t, json.NewDecoder(w.Body).Decode(&txns))
	assert.Len(t, txns, 4)

	w = do(t, server, http.MethodPut, "/filters", map[string]any{"direction": "OUT", "search": "uber"})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, server, http.MethodGet, "/transactions", nil)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&txns))
	require.Len(t, txns, 1)
	assert.Equal(t, "UBER TRIP", txns[0].DescriptionRaw)

	w = do(t, server, http.MethodGet, "/dashboard", nil)
	var stats analyzer.DashboardStats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	assert.Equal(t, "724.50", stats.TotalOut.StringFixed(2))
	assert.Equal(t, 1, stats.TransfersTo0488.Count)

	w = do(t, server, http.MethodDelete, "/filters", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, analyzer.DashboardFilters{}, store.Filters())

	w = do(t, server, http.MethodGet, "/statements", nil)
	var stmts []common.Statement
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stmts))
	assert.Len(t, stmts, 2)
}

func TestSetFilters_RejectsBadInput(t *testing.T) {
	server, _ := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, do(t, server, http.MethodPut, "/filters", map[string]any{"direction": "SIDEWAYS"}).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, server, http.MethodPut, "/filters", map[string]any{"colour": "red"}).Code)
}

func TestProjectsEndpoints(t *testing.T) {
	server, store := newTestServer(t)

	w := do(t, server, http.MethodPost, "/projects", map[string]string{"name": "Household"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	first := created["id"]

	do(t, server, http.MethodPost, "/projects", map[string]string{"name": "Business"})
	assert.NotEqual(t, first, store.ActiveProjectID())

	w = do(t, server, http.MethodPut, "/projects/active", map[string]string{"id": first})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, first, store.ActiveProjectID())

	w = do(t, server, http.MethodPut, "/projects/active", map[string]string{"id": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	assert.Equal(t, http.StatusBadRequest, do(t, server, http.MethodPost, "/projects", map[string]string{"name": " "}).Code)

	w = do(t, server, http.MethodDelete, "/projects/"+first, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, store.Projects(), 1)
	assert.Equal(t, http.StatusNotFound, do(t, server, http.MethodDelete, "/projects/"+first, nil).Code)
}

func TestRulesEndpoints(t *testing.T) {
	server, store := newTestServer(t)
	upload(t, server, "/process", "march.pdf")

	rule := matching.Rule{RuleID: "rideshare", Name: "Rideshare", MatchType: matching.MatchContains, Patterns: []string{"uber"}, Enabled: true}
	assert.Equal(t, http.StatusCreated, do(t, server, http.MethodPost, "/rules", rule).Code)
	assert.Equal(t, http.StatusConflict, do(t, server, http.MethodPost, "/rules", rule).Code)

	bad := matching.Rule{Name: "Broken", MatchType: matching.MatchRegex, Patterns: []string{"("}, Enabled: true}
	assert.Equal(t, http.StatusBadRequest, do(t, server, http.MethodPost, "/rules", bad).Code)

	w := do(t, server, http.MethodGet, "/transactions?rule=rideshare", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var txns []common.Transaction
	require.NoError(t, json.NewDecoder(w.Body).Decode(&txns))
	assert.Len(t, txns, 1)

	rule.Enabled = false
	assert.Equal(t, http.StatusOK, do(t, server, http.MethodPut, "/rules/rideshare", rule).Code)
	r, ok := matching.Find(store.Rules(), "rideshare")
	require.True(t, ok)
	assert.False(t, r.Enabled)

	assert.Equal(t, http.StatusNoContent, do(t, server, http.MethodDelete, "/rules/rideshare", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, server, http.MethodDelete, "/rules/rideshare", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, server, http.MethodGet, "/transactions?rule=rideshare", nil).Code)
}

func TestUpdateCategoryEndpoint(t *testing.T) {
	server, store := newTestServer(t)
	upload(t, server, "/process", "march.pdf")
	id := store.Transactions()[0].ID

	w := do(t, server, http.MethodPatch, "/transactions/"+id+"/category", map[string]string{"category": "Salary"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "Salary", store.Transactions()[0].Category)

	w = do(t, server, http.MethodPatch, "/transactions/nope/category", map[string]string{"category": "Salary"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOverridesEndpoints(t *testing.T) {
	server, store := newTestServer(t)

	w := do(t, server, http.MethodPost, "/overrides", map[string]string{"pattern": "uber", "category": "Business Travel"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "Business Travel", store.Categorizer().Categorize("UBER TRIP"))

	assert.Equal(t, http.StatusNoContent, do(t, server, http.MethodDelete, "/overrides?pattern=uber", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, server, http.MethodDelete, "/overrides?pattern=uber", nil).Code)
}

func TestExportEndpoints(t *testing.T) {
	server, _ := newTestServer(t)
	upload(t, server, "/process", "march.pdf")

	w := do(t, server, http.MethodGet, "/export/transactions.csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="transactions-2025-01-15.csv"`, w.Header().Get("Content-Disposition"))
	lines := strings.Split(w.Body.String(), "\n")
	assert.Len(t, lines, 5)

	w = do(t, server, http.MethodGet, "/export/categories.csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "Category,Total,Count,Percentage\nWire / ACH Transfer,700.00,2,96.6%"))

	w = do(t, server, http.MethodGet, "/export/transfers.csv?rule=ach-0478", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ACH to 0478,2024-03-06,ACH DEBIT ACCOUNT 0478,200.00,ACH")

	assert.Equal(t, http.StatusBadRequest, do(t, server, http.MethodGet, "/export/transfers.csv?rule=other", nil).Code)

	w = do(t, server, http.MethodGet, "/export/transactions.xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}

func TestMetricsEndpoint(t *testing.T) {
	rec := metrics.New()
	ex := fakeExtractor{"march.pdf": marchText}
	store := analyzer.New(analyzer.WithExtractor(ex), analyzer.WithBatchObserver(rec.ObserveBatch))
	server := New(DefaultConfig(), store, WithExtractor(ex), WithMetrics(rec))

	upload(t, server, "/process", "march.pdf")
	w := do(t, server, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "analyzer_transactions_parsed_total 4")
	assert.Contains(t, body, `analyzer_files_processed_total{result="ok"} 1`)
	assert.Contains(t, body, `analyzer_http_requests_total{code="201",route="POST /process"} 1`)
}
