package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aqlanhadi/analyzer/analyzer"
	"github.com/aqlanhadi/analyzer/extractor"
	"github.com/aqlanhadi/analyzer/extractor/common"
	"github.com/aqlanhadi/analyzer/matching"
	"github.com/aqlanhadi/analyzer/export"
	"github.com/google/uuid"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"processing": s.store.IsProcessing(),
	})
}

// ExtractOptions holds the options for extraction
type ExtractOptions struct {
	StatementOnly   bool
	TransactionOnly bool
	TextOnly        bool
}

// parseExtractOptions extracts options from the HTTP request
func parseExtractOptions(r *http.Request) ExtractOptions {
	flag := func(name string) bool {
		return r.FormValue(name) == "true" || r.URL.Query().Get(name) == "true"
	}
	return ExtractOptions{
		StatementOnly:   flag("statement_only"),
		TransactionOnly: flag("transaction_only"),
		TextOnly:        flag("text_only"),
	}
}

// handleExtract parses one uploaded file without storing anything.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Could not parse multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not get uploaded file: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Could not read file: "+err.Error())
		return
	}

	text, err := s.extractor.ExtractText(r.Context(), header.Filename, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		s.log.Warn().Err(err).Str("filename", header.Filename).Msg("extract failed")
		writeError(w, http.StatusBadRequest, "Could not extract text from file: "+err.Error())
		return
	}

	opts := parseExtractOptions(r)
	if opts.TextOnly {
		writeJSON(w, http.StatusOK, map[string]string{
			"filename": header.Filename,
			"text":     text,
		})
		return
	}

	doc := extractor.Process(text, header.Filename, common.ParseOptions{
		StatementID: uuid.NewString(),
		Classifier:  s.store.Categorizer(),
		Now:         s.now,
	})
	writeJSON(w, http.StatusOK, extractor.CreateFinalOutput(doc, opts.TransactionOnly, opts.StatementOnly))
}

// handleProcess ingests every multipart "file" part into the active project.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Could not parse multipart form: "+err.Error())
		return
	}
	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "no file parts in request")
		return
	}

	files := make([]analyzer.File, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Could not open uploaded file: "+err.Error())
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Could not read file: "+err.Error())
			return
		}
		files = append(files, analyzer.BytesFile(h.Filename, data))
	}

	res, err := s.store.ProcessFiles(r.Context(), files, nil)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	p, running := s.store.Progress()
	writeJSON(w, http.StatusOK, map[string]any{"processing": running, "progress": p})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"active_project_id": s.store.ActiveProjectID(),
		"projects":          s.store.Projects(),
	})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "a project name is required")
		return
	}
	id, err := s.store.CreateProject(r.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleSetActiveProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.SetActiveProject(r.Context(), req.ID); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProject(r.Context(), r.PathValue("id")); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStatements(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.ActiveProjectStatements())
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Documents())
}

// handleTransactions returns the filtered ledger, optionally narrowed by ?rule=ID.
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	ruleID := r.URL.Query().Get("rule")
	if ruleID == "" {
		writeJSON(w, http.StatusOK, s.store.FilteredTransactions())
		return
	}
	txns, err := s.store.MatchingTransactions(ruleID)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Category == "" {
		writeError(w, http.StatusBadRequest, "a category is required")
		return
	}
	if err := s.store.UpdateTransactionCategory(r.Context(), r.PathValue("id"), req.Category); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetFilters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Filters())
}

// handleSetFilters replaces the whole filter set.
func (s *Server) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	var f analyzer.DashboardFilters
	if err := decodeJSON(r, &f); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch f.Direction {
	case "", common.In, common.Out:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown direction %q", f.Direction))
		return
	}
	s.store.SetFilters(analyzer.ReplaceFilters(f))
	writeJSON(w, http.StatusOK, s.store.Filters())
}

func (s *Server) handleResetFilters(w http.ResponseWriter, r *http.Request) {
	s.store.ResetFilters()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.DashboardStats())
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.CategorySummary())
}

func (s *Server) handleMerchants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.TopMerchants())
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.MonthlyTrends())
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Rules())
}

func (s *Server) handleAddRule(w http.ResponseWriter, r *http.Request) {
	var rule matching.Rule
	if err := decodeJSON(r, &rule); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if rule.RuleID == "" {
		rule.RuleID = uuid.NewString()
	}
	if err := matching.Validate(rule); err != nil {
		s.writeStoreError(w, err)
		return
	}
	if err := s.store.AddUniqueRule(r.Context(), rule); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	var rule matching.Rule
	if err := decodeJSON(r, &rule); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rule.RuleID = r.PathValue("id")
	if err := matching.Validate(rule); err != nil {
		s.writeStoreError(w, err)
		return
	}
	if err := s.store.UpdateRule(r.Context(), rule); err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRule(r.Context(), r.PathValue("id")); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListOverrides(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.CategoryOverrides())
}

func (s *Server) handleAddOverride(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pattern  string `json:"pattern"`
		Category string `json:"category"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Pattern == "" || req.Category == "" {
		writeError(w, http.StatusBadRequest, "pattern and category are required")
		return
	}
	if err := s.store.AddCategoryOverride(r.Context(), req.Pattern, req.Category); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveOverride(w http.ResponseWriter, r *http.Request) {
	removed, err := s.store.RemoveCategoryOverride(r.Context(), r.URL.Query().Get("pattern"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "override not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeCSV(w http.ResponseWriter, prefix, body string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(prefix, "csv", s.now())))
	io.WriteString(w, body)
}

func (s *Server) handleExportTransactionsCSV(w http.ResponseWriter, r *http.Request) {
	body, err := export.TransactionsCSV(s.store.FilteredTransactions())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeCSV(w, "transactions", body)
}

func (s *Server) handleExportCategoriesCSV(w http.ResponseWriter, r *http.Request) {
	body, err := export.CategorySummaryCSV(s.store.CategorySummary())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeCSV(w, "categories", body)
}

// handleExportTransfersCSV exports the outflows matched by ?rule=ID (default the 0488
// rule) across the date-ranged dashboard scope.
func (s *Server) handleExportTransfersCSV(w http.ResponseWriter, r *http.Request) {
	stats := s.store.DashboardStats()
	rule := r.URL.Query().Get("rule")

	var (
		txns  []common.Transaction
		label string
	)
	switch rule {
	case "", matching.RuleCapitalOne0488:
		txns, label = stats.TransfersTo0488.Transactions, "Transfers to 0488"
	case matching.RuleACH0478:
		txns, label = stats.ACHTo0478.Transactions, "ACH to 0478"
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("no transfer export for rule %q", rule))
		return
	}

	body, err := export.TransfersDetailCSV(txns, label)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.writeCSV(w, "transfers", body)
}

func (s *Server) handleExportTransactionsXLSX(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := export.TransactionsXLSX(&buf, s.store.FilteredTransactions()); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename("transactions", "xlsx", s.now())))
	w.Write(buf.Bytes())
}
