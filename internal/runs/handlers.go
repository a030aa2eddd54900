package runs

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smallholder-irrigation/survey-merge/internal/config"
	"github.com/smallholder-irrigation/survey-merge/internal/merge"
	"github.com/smallholder-irrigation/survey-merge/internal/reconcile"
	"github.com/smallholder-irrigation/survey-merge/internal/store"
	"github.com/smallholder-irrigation/survey-merge/internal/validation"
)

// Handler serves merge runs. Merges read and write only below
// Settings.DataRoot and are refused when it is unset. DB may be nil, in which
// case merges still run but nothing is persisted and the read endpoints
// answer 503.
type Handler struct {
	DB       *gorm.DB
	Settings config.Config
}

// CreateRunRequest is the body of POST /runs. Relative paths resolve under
// the configured data root.
type CreateRunRequest struct {
	SurveyPath      string `json:"survey_path" validate:"required"`
	PolygonsPath    string `json:"polygons_path"`
	CertaintyCutoff int    `json:"certainty_cutoff" validate:"omitempty,gte=1,lte=5"`
}

// RunResponse summarizes a finished merge.
type RunResponse struct {
	RunID      string   `json:"run_id"`
	SourceFile string   `json:"source_file"`
	MergedPath string   `json:"merged_path"`
	ReportPath string   `json:"report_path"`
	Rows       int      `json:"rows"`
	Polygons   int      `json:"polygons"`
	Unmatched  int      `json:"unmatched"`
	Issues     int      `json:"issues"`
	Persisted  bool     `json:"persisted"`
	Report     []string `json:"report"`
}

func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validation.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if h.Settings.DataRoot == "" {
		http.Error(w, "Merges over HTTP require SERVER_DATA_ROOT", http.StatusServiceUnavailable)
		return
	}
	surveyPath, err := h.resolve(req.SurveyPath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if outDir, _, _ := merge.OutputPaths(surveyPath, h.mergedDirName()); !within(h.Settings.DataRoot, outDir) {
		http.Error(w, fmt.Sprintf("outputs for %q would be written outside the data root", req.SurveyPath), http.StatusBadRequest)
		return
	}
	polygonsPath := ""
	if req.PolygonsPath != "" {
		if polygonsPath, err = h.resolve(req.PolygonsPath); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	cfg := merge.NewConfig(h.Settings, surveyPath, polygonsPath)
	if req.CertaintyCutoff != 0 {
		cfg.CertaintyCutoff = req.CertaintyCutoff
	}

	res, err := merge.Run(r.Context(), cfg)
	if err != nil {
		log.Printf("[api] merge %s failed: %v", surveyPath, err)
		http.Error(w, "Merge failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	persisted := false
	if h.DB != nil {
		if err := store.Save(r.Context(), h.DB, res); err != nil {
			log.Printf("[api] saving run %s failed: %v", res.RunID, err)
			http.Error(w, "Failed to save run", http.StatusInternalServerError)
			return
		}
		persisted = true
	}

	w.Header().Set("X-Run-ID", res.RunID.String())
	writeJSON(w, http.StatusCreated, RunResponse{
		RunID:      res.RunID.String(),
		SourceFile: res.SourceFile,
		MergedPath: res.MergedPath,
		ReportPath: res.ReportPath,
		Rows:       len(res.Rows),
		Polygons:   res.PolygonCount,
		Unmatched:  res.Unmatched,
		Issues:     len(res.Issues),
		Persisted:  persisted,
		Report:     res.Report(),
	})
}

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if !h.requireDB(w) {
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	list, err := store.ListRuns(r.Context(), h.DB, limit)
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, ok := h.runID(w, r)
	if !ok {
		return
	}
	run, err := store.GetRun(r.Context(), h.DB, id)
	if !h.checkLookup(w, err) {
		return
	}
	issues, err := store.Issues(r.Context(), h.DB, id)
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	resp := struct {
		*store.Run
		Issues []store.RunIssue `json:"issues"`
		Rows   []store.RunRow   `json:"rows,omitempty"`
	}{Run: run, Issues: issues}

	if r.URL.Query().Get("rows") == "true" {
		if resp.Rows, err = store.Rows(r.Context(), h.DB, id); err != nil {
			http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.runID(w, r)
	if !ok {
		return
	}
	_, err := store.GetRun(r.Context(), h.DB, id)
	if !h.checkLookup(w, err) {
		return
	}
	issues, err := store.Issues(r.Context(), h.DB, id)
	if err != nil {
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	lines := []string{reconcile.AllChecksPassed}
	if len(issues) > 0 {
		lines = lines[:0]
		for _, is := range issues {
			lines = append(lines, is.Message)
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

// runID parses the {id} URL parameter once the DB is known to be available.
func (h *Handler) runID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if !h.requireDB(w) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid run id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) requireDB(w http.ResponseWriter) bool {
	if h.DB == nil {
		http.Error(w, "Run history requires DATABASE_URL", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func (h *Handler) checkLookup(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "Run not found", http.StatusNotFound)
		return false
	case err != nil:
		http.Error(w, "DB error: "+err.Error(), http.StatusInternalServerError)
		return false
	}
	return true
}

// resolve joins relative paths onto the data root and keeps them inside it.
func (h *Handler) resolve(p string) (string, error) {
	full := p
	if !filepath.IsAbs(p) {
		full = filepath.Join(h.Settings.DataRoot, p)
	}
	full = filepath.Clean(full)
	if !within(h.Settings.DataRoot, full) {
		return "", fmt.Errorf("path %q is outside the data root", p)
	}
	return full, nil
}

func (h *Handler) mergedDirName() string {
	if h.Settings.MergedDirName != "" {
		return h.Settings.MergedDirName
	}
	return config.Default().MergedDirName
}

// within reports whether p is root or lies below it.
func within(root, p string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(p))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode response: %v", err)
	}
}
