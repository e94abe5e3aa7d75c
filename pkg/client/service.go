package client

import (
	"context"
	"net/http"

	"github.com/turtacn/PatentSentry/internal/application/analysis"
	"github.com/turtacn/PatentSentry/internal/domain/term"
)

// Wire types shared with the server.
type (
	AnalyzeInput          = analysis.AnalyzeInput
	SearchInput           = analysis.SearchInput
	AssigneeInput         = analysis.AssigneeInput
	EnrichInput           = analysis.EnrichInput
	AnalysisResult        = analysis.AnalysisResult
	SearchResult          = analysis.SearchResult
	CitationsResult       = analysis.CitationsResult
	AssigneePatentsResult = analysis.AssigneePatentsResult
	EnrichResult          = analysis.EnrichResult
	TermInput             = term.RawTermInput
	TermDetermination     = term.TermDetermination
)

var _ analysis.Service = (*Client)(nil)

// actionRequest mirrors the body accepted by POST /patent-search.
type actionRequest struct {
	Action string `json:"action"`

	Query   string `json:"query,omitempty"`
	Page    int    `json:"page,omitempty"`
	PerPage int    `json:"per_page,omitempty"`
	Sort    string `json:"sort,omitempty"`

	PatentID     string   `json:"patent_id,omitempty"`
	PatentIDs    []string `json:"patent_ids,omitempty"`
	ForceRefresh bool     `json:"force_refresh,omitempty"`

	PatentTitle string `json:"patent_title,omitempty"`
	Assignee    string `json:"assignee,omitempty"`
	Limit       int    `json:"limit,omitempty"`

	Kind                   string `json:"kind,omitempty"`
	FilingDate             string `json:"filing_date,omitempty"`
	GrantDate              string `json:"grant_date,omitempty"`
	PTADays                int    `json:"pta_days,omitempty"`
	PTEDays                int    `json:"pte_days,omitempty"`
	TerminalDisclaimerDate string `json:"terminal_disclaimer_date,omitempty"`
}

func (c *Client) action(ctx context.Context, req actionRequest, result interface{}) error {
	return c.do(ctx, http.MethodPost, patentSearchPath, req, result)
}

func (c *Client) Analyze(ctx context.Context, in AnalyzeInput) (*AnalysisResult, error) {
	var res AnalysisResult
	err := c.action(ctx, actionRequest{Action: "analyze", PatentID: in.PatentID, ForceRefresh: in.ForceRefresh}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// BatchItem is one entry of AnalyzeBatch. Exactly one of Result and Error
// is set.
type BatchItem struct {
	PatentID string          `json:"patent_id"`
	Result   *AnalysisResult `json:"result,omitempty"`
	Error    *BatchError     `json:"error,omitempty"`
}

type BatchError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

type BatchResult struct {
	Results []BatchItem `json:"results"`
	Count   int         `json:"count"`
	Failed  int         `json:"failed"`
}

// AnalyzeBatch analyses several patents in one request. Per-patent failures
// are reported in the items, not as an error.
func (c *Client) AnalyzeBatch(ctx context.Context, ids []string, forceRefresh bool) (*BatchResult, error) {
	var res BatchResult
	if err := c.action(ctx, actionRequest{Action: "analyze", PatentIDs: ids, ForceRefresh: forceRefresh}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Calculate(ctx context.Context, in TermInput) (*TermDetermination, error) {
	var res TermDetermination
	err := c.action(ctx, actionRequest{
		Action:                 "calculate",
		Kind:                   in.Kind,
		FilingDate:             in.FilingDate,
		GrantDate:              in.GrantDate,
		PTADays:                in.PTADays,
		PTEDays:                in.PTEDays,
		TerminalDisclaimerDate: in.TerminalDisclaimerDate,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Search(ctx context.Context, in SearchInput) (*SearchResult, error) {
	var res SearchResult
	err := c.action(ctx, actionRequest{
		Action:  "search",
		Query:   in.Query,
		Page:    in.Page,
		PerPage: in.PerPage,
		Sort:    in.Sort,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Citations(ctx context.Context, patentID string) (*CitationsResult, error) {
	var res CitationsResult
	if err := c.action(ctx, actionRequest{Action: "citations", PatentID: patentID}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) AssigneePatents(ctx context.Context, in AssigneeInput) (*AssigneePatentsResult, error) {
	var res AssigneePatentsResult
	err := c.action(ctx, actionRequest{
		Action:   "assignee_patents",
		Assignee: in.Assignee,
		PatentID: in.ExcludePatentID,
		Limit:    in.Limit,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Enrich(ctx context.Context, in EnrichInput) (*EnrichResult, error) {
	var res EnrichResult
	err := c.action(ctx, actionRequest{
		Action:       "enrich",
		PatentID:     in.PatentID,
		PatentTitle:  in.PatentTitle,
		Assignee:     in.Assignee,
		ForceRefresh: in.ForceRefresh,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Status is the document served at GET /.
type Status struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Features  []string          `json:"features"`
	Endpoints map[string]string `json:"endpoints"`
	APIStatus map[string]bool   `json:"api_status"`
}

func (c *Client) Status(ctx context.Context) (*Status, error) {
	var res Status
	if err := c.do(ctx, http.MethodGet, "/", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
