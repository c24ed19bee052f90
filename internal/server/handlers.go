package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/radar/internal/indexer"
	"github.com/hyperjump/radar/internal/keyword"
	"github.com/hyperjump/radar/internal/models"
	"github.com/hyperjump/radar/internal/planner"
	"github.com/hyperjump/radar/internal/radar"
	"github.com/hyperjump/radar/internal/storage"
	"github.com/hyperjump/radar/pkg/utils"
	"go.uber.org/zap"
)

// User-facing messages for the pipeline sentinels.
const (
	msgNoQueries        = "No search queries available"
	msgRadarNotFound    = "Radar not found"
	msgMissingSearchKey = "Search provider API key missing. Set YOU_DOT_COM in server environment."
	msgPlanParse        = "Failed to parse LLM response. Expected mermaid and xml code blocks."
)

type createRadarRequest struct {
	RadarID string               `json:"radarId"`
	OwnerID string               `json:"ownerId"`
	Title   string               `json:"title"`
	Profile *models.RadarProfile `json:"profile"`
}

func (s *Server) handleCreateRadar(w http.ResponseWriter, r *http.Request) {
	var req createRadarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	rd, err := s.plans.Create(r.Context(), planner.CreateInput{
		RadarID: req.RadarID,
		OwnerID: req.OwnerID,
		Title:   req.Title,
		Profile: req.Profile,
	})
	if err != nil {
		s.respondErr(w, r, "api/radars", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"radarId":        rd.ID,
		"mermaidDiagram": rd.MermaidDiagram,
		"queryPlan":      rd.QueryPlan.Resolve(),
		"requestId":      RequestIDFrom(r.Context()),
	})
}

func (s *Server) handleListRadars(w http.ResponseWriter, r *http.Request) {
	radars, err := s.storage.ListRadars(r.Context(), r.URL.Query().Get("ownerId"), queryLimit(r, 50))
	if err != nil {
		s.respondErr(w, r, "api/radars", err)
		return
	}
	if radars == nil {
		radars = []*models.Radar{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"radars": radars, "requestId": RequestIDFrom(r.Context())})
}

func (s *Server) handleGetRadar(w http.ResponseWriter, r *http.Request) {
	rd, err := s.storage.GetRadar(r.Context(), chi.URLParam(r, "radarId"))
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, r, http.StatusNotFound, msgRadarNotFound)
		return
	}
	if err != nil {
		s.respondErr(w, r, "api/radars/get", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"radar": rd, "requestId": RequestIDFrom(r.Context())})
}

type refineRequest struct {
	RefinementMessage string               `json:"refinementMessage"`
	Profile           *models.RadarProfile `json:"profile,omitempty"`
}

func (s *Server) handleRefineRadar(w http.ResponseWriter, r *http.Request) {
	var req refineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := s.plans.Refine(r.Context(), chi.URLParam(r, "radarId"), req.RefinementMessage, req.Profile)
	if err != nil {
		s.respondErr(w, r, "api/radars/refine", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":                true,
		"radarId":                res.Radar.ID,
		"mermaidDiagram":         res.Radar.MermaidDiagram,
		"previousMermaidDiagram": res.PreviousMermaidDiagram,
		"queryPlan":              res.Radar.QueryPlan.Resolve(),
		"requestId":              RequestIDFrom(r.Context()),
	})
}

type runRequest struct {
	FreshRun bool `json:"freshRun"`
}

func (s *Server) handleRunV1(w http.ResponseWriter, r *http.Request) {
	s.handleRun(w, r, radar.VersionV1)
}

func (s *Server) handleRunV2(w http.ResponseWriter, r *http.Request) {
	s.handleRun(w, r, radar.VersionV2)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request, version string) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	opts := radar.RunOptions{FreshRun: req.FreshRun, RequestID: RequestIDFrom(r.Context())}
	radarID := chi.URLParam(r, "radarId")

	run := s.pipeline.RunV2
	if version == radar.VersionV1 {
		run = s.pipeline.RunV1
	}
	res, err := run(r.Context(), radarID, opts)
	if err != nil {
		s.respondErr(w, r, "api/radars/run/"+version, err)
		return
	}
	resp := map[string]interface{}{
		"success":   true,
		"reportId":  res.ReportID,
		"report":    res.Report,
		"saved":     res.Saved,
		"requestId": opts.RequestID,
	}
	if res.Cached {
		resp["cached"] = true
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.storage.LatestReport(r.Context(), chi.URLParam(r, "radarId"))
	if errors.Is(err, storage.ErrNotFound) {
		s.respondJSON(w, http.StatusOK, map[string]interface{}{"report": nil, "requestId": RequestIDFrom(r.Context())})
		return
	}
	if err != nil {
		s.respondErr(w, r, "api/reports/latest", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"report": report, "requestId": RequestIDFrom(r.Context())})
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.storage.ListReports(r.Context(), chi.URLParam(r, "radarId"), queryLimit(r, 20))
	if err != nil {
		s.respondErr(w, r, "api/reports", err)
		return
	}
	if reports == nil {
		reports = []*models.Report{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"reports": reports, "requestId": RequestIDFrom(r.Context())})
}

func (s *Server) handleSearchReports(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		s.respondError(w, r, http.StatusNotImplemented, "report search not enabled")
		return
	}
	q := models.ReportSearchQuery{
		RadarID: chi.URLParam(r, "radarId"),
		Query:   r.URL.Query().Get("q"),
		Limit:   queryLimit(r, 10),
	}
	if err := q.Validate(); err != nil {
		s.respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	fuzzy, _ := strconv.ParseBool(r.URL.Query().Get("fuzzy"))

	start := time.Now()
	hits, err := s.index.Search(r.Context(), q.RadarID, q.Query, q.Limit, &keyword.SearchOptions{FuzzyEnabled: fuzzy})
	if err != nil {
		s.respondErr(w, r, "api/reports/search", err)
		return
	}
	resp := models.ReportSearchResponse{Query: q.Query, Hits: make([]*models.ReportHit, 0, len(hits))}
	for _, h := range hits {
		resp.Hits = append(resp.Hits, &models.ReportHit{
			ReportID: h.ReportID,
			URL:      h.URL,
			Headline: h.Headline,
			Source:   h.Source,
			Score:    h.Score,
		})
	}
	resp.Total = len(resp.Hits)
	resp.QueryTime = time.Since(start).Milliseconds()
	s.respondJSON(w, http.StatusOK, resp)
}

// handleReindex rebuilds the item index for one radar, or for every radar when
// mounted without a radarId.
func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	if s.indexer == nil {
		s.respondError(w, r, http.StatusNotImplemented, "report search not enabled")
		return
	}
	var (
		stats indexer.Stats
		err   error
	)
	if radarID := chi.URLParam(r, "radarId"); radarID != "" {
		stats, err = s.indexer.IndexRadar(r.Context(), radarID)
	} else {
		stats, err = s.indexer.IndexAll(r.Context())
	}
	if err != nil {
		s.respondErr(w, r, "api/reindex", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"radars":  stats.Radars,
		"reports": stats.Reports,
		"items":   stats.Items,
	})
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	var req planner.ShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	text, err := s.plans.Share(r.Context(), req)
	if err != nil {
		s.respondErr(w, r, "api/share", err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"text":      text,
		"requestId": RequestIDFrom(r.Context()),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	radarCount, err := s.storage.CountRadars(ctx)
	if err != nil {
		s.logger.Error("status: count radars failed", zap.Error(err))
		s.respondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	reportCount, err := s.storage.CountReports(ctx)
	if err != nil {
		s.logger.Error("status: count reports failed", zap.Error(err))
		s.respondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	resp := map[string]interface{}{
		"radars":  radarCount,
		"reports": reportCount,
	}
	if s.index != nil {
		if n, err := s.index.DocCount(); err == nil {
			resp["indexedItems"] = n
		}
	}

	st := s.config.Storage
	if usage, err := storage.StorageUsage(st); err == nil {
		resp["diskUsageBytes"] = usage.TotalBytes
		resp["diskUsage"] = usage
	} else {
		s.logger.Debug("status: storage usage unavailable", zap.Error(err))
	}
	resp["config"] = map[string]interface{}{
		"storage_driver":   st.Driver,
		"database_path":    st.DatabasePath,
		"bleve_index_path": st.BleveIndexPath,
		"max_queries":      s.config.Search.MaxQueries,
		"search_cache":     s.config.Search.RedisAddr != "",
		"llm_model":        s.config.LLM.Model,
		"pipeline":         s.config.Pipeline,
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// respondErr maps pipeline and planner errors onto status codes and messages.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, service string, err error) {
	status, msg := http.StatusInternalServerError, err.Error()
	switch {
	case errors.Is(err, radar.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, radar.ErrNoQueries):
		status, msg = http.StatusBadRequest, msgNoQueries
	case errors.Is(err, radar.ErrRadarNotFound), errors.Is(err, storage.ErrNotFound):
		status, msg = http.StatusNotFound, msgRadarNotFound
	case errors.Is(err, radar.ErrMissingSearchKey):
		msg = msgMissingSearchKey
	case errors.Is(err, radar.ErrPlanParse):
		msg = msgPlanParse
	}

	log := utils.WithRequest(s.logger, RequestIDFrom(r.Context()), service)
	if status >= http.StatusInternalServerError {
		log.Error("request.error", zap.Int("status", status), zap.Error(err))
	} else {
		log.Warn("validation.error", zap.Int("status", status), zap.String("error", msg))
	}
	s.respondError(w, r, status, msg)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message, "requestId": RequestIDFrom(r.Context())})
}

func queryLimit(r *http.Request, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	if n > 100 {
		return 100
	}
	return n
}
