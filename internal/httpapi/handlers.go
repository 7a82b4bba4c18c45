package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/raporkit/rapor/core"
	"github.com/raporkit/rapor/internal/contract"
	"github.com/raporkit/rapor/schema"
)

// maxBodyBytes caps the size of a request body.
const maxBodyBytes = 1 << 20

// errBadRequest marks request validation problems.
var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps engine errors onto HTTP status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, core.ErrEmptyScope):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, contract.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrSourceUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// scopedConfig clones the base config for the class, subject and term in the URL.
func (s *Server) scopedConfig(r *http.Request) *contract.Config {
	return s.baseCfg.CloneWithScope(schema.Scope{
		ClassID:   chi.URLParam(r, "class"),
		SubjectID: chi.URLParam(r, "subject"),
		TermID:    chi.URLParam(r, "term"),
	})
}

// applySort reads the optional ?sort= and ?clicks= query parameters.
func applySort(cfg *contract.Config, r *http.Request) error {
	q := r.URL.Query()
	if key := q.Get("sort"); key != "" {
		cfg.SortKey = key
		cfg.SortClicks = contract.DefaultSortClicks
	}
	if raw := q.Get("clicks"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: clicks must be a non-negative integer", errBadRequest)
		}
		cfg.SortClicks = n
	}
	return nil
}

func (s *Server) handleSubjectSummary(w http.ResponseWriter, r *http.Request) {
	cfg := s.scopedConfig(r)
	if err := applySort(cfg, r); err != nil {
		writeEngineError(w, err)
		return
	}
	result, err := core.GetSubjectResults(r.Context(), cfg, s.mgr)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleClassSummary(w http.ResponseWriter, r *http.Request) {
	cfg := s.scopedConfig(r)
	if err := applySort(cfg, r); err != nil {
		writeEngineError(w, err)
		return
	}
	result, err := core.GetClassResults(r.Context(), cfg, s.mgr)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	result, err := core.GetDistributionResults(r.Context(), s.scopedConfig(r), s.mgr)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleObjectives(w http.ResponseWriter, r *http.Request) {
	result, err := core.GetObjectiveResults(r.Context(), s.scopedConfig(r), s.mgr)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cfg := s.baseCfg.CloneWithScope(schema.Scope{
		ClassID:   strings.TrimSpace(q.Get("class")),
		SubjectID: strings.TrimSpace(q.Get("subject")),
	})
	cfg.StudentID = strings.TrimSpace(q.Get("student"))
	cfg.Cohort = strings.TrimSpace(q.Get("cohort"))

	switch raw := strings.ToLower(q.Get("group_by")); {
	case raw != "":
		g := schema.TrendGrouping(raw)
		if _, ok := schema.ValidTrendGroupings[g]; !ok {
			writeError(w, http.StatusBadRequest, "group_by must be student, class or cohort")
			return
		}
		cfg.TrendGrouping = g
	case cfg.StudentID != "":
		cfg.TrendGrouping = schema.TrendByStudent
	case cfg.Cohort != "":
		cfg.TrendGrouping = schema.TrendByCohort
	case cfg.Scope.ClassID != "":
		cfg.TrendGrouping = schema.TrendByClass
	default:
		writeError(w, http.StatusBadRequest, "one of student, class or cohort is required")
		return
	}

	result, err := core.GetTrendResults(r.Context(), cfg, s.mgr)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// thresholdsRequest maps column keys to thresholds. A null value switches a column off.
type thresholdsRequest map[string]*float64

func (s *Server) handleUpdateThresholds(w http.ResponseWriter, r *http.Request) {
	var req thresholdsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	values := make(map[schema.ColumnKey]*float64, len(req))
	for k, v := range req {
		key, err := schema.ParseColumnKey(k)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		values[key] = v
	}

	if err := core.UpdateThresholds(r.Context(), s.scopedConfig(r), s.mgr, values); err != nil {
		if !errors.Is(err, core.ErrSourceUnavailable) && !errors.Is(err, core.ErrEmptyScope) {
			err = fmt.Errorf("%w: %v", errBadRequest, err)
		}
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"saved": len(values)})
}

// saveResponse is the body returned by POST /api/grades.
type saveResponse struct {
	schema.BulkResult
	Message string `json:"message"`
}

func (s *Server) handleSaveGrades(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	cfg := s.baseCfg.CloneWithScope(schema.Scope{
		ClassID:   q.Get("class"),
		SubjectID: q.Get("subject"),
		TermID:    q.Get("term"),
	})

	ops, err := core.ParseScoreWritesJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), cfg.Scope)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := core.SaveGrades(r.Context(), cfg, s.mgr, ops)
	writeJSON(w, http.StatusOK, saveResponse{BulkResult: result, Message: result.Message()})
}
