package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/PatentSentry/internal/application/analysis"
	"github.com/turtacn/PatentSentry/internal/domain/term"
	"github.com/turtacn/PatentSentry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentry/pkg/errors"
)

const (
	ActionSearch          = "search"
	ActionAnalyze         = "analyze"
	ActionCalculate       = "calculate"
	ActionCitations       = "citations"
	ActionAssigneePatents = "assignee_patents"
	ActionEnrich          = "enrich"

	maxBatchSize     = 50
	batchConcurrency = 4
)

// PatentRequest is the body of POST /patent-search. Which fields matter
// depends on Action.
type PatentRequest struct {
	Action string `json:"action"`

	// search
	Query   string `json:"query"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
	Sort    string `json:"sort"`

	// analyze, citations, enrich
	PatentID     string   `json:"patent_id"`
	PatentIDs    []string `json:"patent_ids"`
	ForceRefresh bool     `json:"force_refresh"`

	// enrich, assignee_patents
	PatentTitle string `json:"patent_title"`
	Assignee    string `json:"assignee"`
	Limit       int    `json:"limit"`

	// calculate
	Kind                   string `json:"kind"`
	FilingDate             string `json:"filing_date"`
	GrantDate              string `json:"grant_date"`
	PTADays                int    `json:"pta_days"`
	PTEDays                int    `json:"pte_days"`
	TerminalDisclaimerDate string `json:"terminal_disclaimer_date"`
}

// BatchAnalysisItem is one entry of a multi-patent analysis.
type BatchAnalysisItem struct {
	PatentID string                   `json:"patent_id"`
	Result   *analysis.AnalysisResult `json:"result,omitempty"`
	Error    *ErrorResponse           `json:"error,omitempty"`
}

type BatchAnalysisResponse struct {
	Results []BatchAnalysisItem `json:"results"`
	Count   int                 `json:"count"`
	Failed  int                 `json:"failed"`
}

// StatusInfo describes the deployment for GET /.
type StatusInfo struct {
	Version     string
	PatentsView bool
	Enrichment  bool
}

type StatusResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Features  []string          `json:"features"`
	Endpoints map[string]string `json:"endpoints"`
	APIStatus map[string]bool   `json:"api_status"`
}

// PatentHandler serves the unified action endpoint and its legacy aliases.
type PatentHandler struct {
	svc         analysis.Service
	logger      logging.Logger
	status      StatusInfo
	maxBodySize int64
}

func NewPatentHandler(svc analysis.Service, logger logging.Logger, status StatusInfo, maxBodySize int64) *PatentHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &PatentHandler{
		svc:         svc,
		logger:      logger.Named("http"),
		status:      status,
		maxBodySize: maxBodySize,
	}
}

// Status handles GET /.
func (h *PatentHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:  "PatentSentry API v" + h.status.Version,
		Version: h.status.Version,
		Features: []string{
			"USPTO PatentsView integration",
			"Patent term and expiration calculation",
			"Maintenance fee tracking",
			"Citation and assignee portfolio lookup",
		},
		Endpoints: map[string]string{
			"POST /patent-search": "Unified API endpoint with action-based routing",
			"POST /search":        "Legacy search, ?query=",
			"POST /analyze":       "Legacy analysis, ?patent_id=",
		},
		APIStatus: map[string]bool{
			"patentsview": h.status.PatentsView,
			"enrichment":  h.status.Enrichment,
		},
	})
}

// PatentSearch handles POST /patent-search.
func (h *PatentHandler) PatentSearch(w http.ResponseWriter, r *http.Request) {
	if h.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}
	var req PatentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	h.dispatch(w, r.Context(), req)
}

// LegacySearch handles POST /search?query=.
func (h *PatentHandler) LegacySearch(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r.Context(), PatentRequest{Action: ActionSearch, Query: r.URL.Query().Get("query")})
}

// LegacyAnalyze handles POST /analyze?patent_id=.
func (h *PatentHandler) LegacyAnalyze(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r.Context(), PatentRequest{Action: ActionAnalyze, PatentID: r.URL.Query().Get("patent_id")})
}

func (h *PatentHandler) dispatch(w http.ResponseWriter, ctx context.Context, req PatentRequest) {
	var (
		result interface{}
		err    error
	)
	switch req.Action {
	case ActionSearch:
		result, err = h.svc.Search(ctx, analysis.SearchInput{
			Query:   req.Query,
			Page:    req.Page,
			PerPage: req.PerPage,
			Sort:    req.Sort,
		})
	case ActionAnalyze:
		if req.PatentID == "" && len(req.PatentIDs) > 0 {
			result, err = h.analyzeBatch(ctx, req.PatentIDs, req.ForceRefresh)
			break
		}
		result, err = h.svc.Analyze(ctx, analysis.AnalyzeInput{PatentID: req.PatentID, ForceRefresh: req.ForceRefresh})
	case ActionCalculate:
		result, err = h.svc.Calculate(ctx, term.RawTermInput{
			Kind:                   req.Kind,
			FilingDate:             req.FilingDate,
			GrantDate:              req.GrantDate,
			PTADays:                req.PTADays,
			PTEDays:                req.PTEDays,
			TerminalDisclaimerDate: req.TerminalDisclaimerDate,
		})
	case ActionCitations:
		result, err = h.svc.Citations(ctx, req.PatentID)
	case ActionAssigneePatents:
		result, err = h.svc.AssigneePatents(ctx, analysis.AssigneeInput{
			Assignee:        req.Assignee,
			ExcludePatentID: req.PatentID,
			Limit:           req.Limit,
		})
	case ActionEnrich:
		result, err = h.svc.Enrich(ctx, analysis.EnrichInput{
			PatentID:     req.PatentID,
			PatentTitle:  req.PatentTitle,
			Assignee:     req.Assignee,
			ForceRefresh: req.ForceRefresh,
		})
	default:
		writeBadRequest(w, fmt.Sprintf("Unknown action: %s", req.Action))
		return
	}

	if err != nil {
		h.logError(ctx, req.Action, err)
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// analyzeBatch analyses each id independently; one failure does not fail
// the batch.
func (h *PatentHandler) analyzeBatch(ctx context.Context, ids []string, force bool) (*BatchAnalysisResponse, error) {
	if len(ids) > maxBatchSize {
		return nil, errors.Newf(errors.ErrCodeBadRequest, "at most %d patent_ids per request", maxBatchSize)
	}

	items := make([]BatchAnalysisItem, len(ids))
	var g errgroup.Group
	g.SetLimit(batchConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			items[i].PatentID = id
			res, err := h.svc.Analyze(ctx, analysis.AnalyzeInput{PatentID: id, ForceRefresh: force})
			if err != nil {
				h.logError(ctx, ActionAnalyze, err)
				_, body := errorResponse(err)
				items[i].Error = &body
				return nil
			}
			items[i].Result = res
			return nil
		})
	}
	_ = g.Wait()

	resp := &BatchAnalysisResponse{Results: items, Count: len(items)}
	for _, it := range items {
		if it.Error != nil {
			resp.Failed++
		}
	}
	return resp, nil
}

func (h *PatentHandler) logError(ctx context.Context, action string, err error) {
	log := h.logger.WithContext(ctx).With(logging.String("action", action), logging.Err(err))
	if errors.IsServerError(errors.GetCode(err)) || errors.GetCode(err) == errors.CodeUnknown {
		log.Error("action failed")
		return
	}
	log.Warn("action rejected")
}
