package analysis

import (
	"github.com/golang-sql/civil"

	"github.com/turtacn/PatentSentry/internal/domain/term"
	"github.com/turtacn/PatentSentry/internal/infrastructure/patentsview"
)

const sourcePatentsView = "patentsview"

// AnalysisResult is the full term and fee report for one patent.
type AnalysisResult struct {
	PatentID        string                       `json:"patent_id"`
	Title           string                       `json:"title"`
	Abstract        string                       `json:"abstract"`
	PatentType      string                       `json:"patent_type"`
	Kind            term.Kind                    `json:"kind"`
	Dates           PatentDates                  `json:"dates"`
	Expiration      term.ExpirationResult        `json:"expiration"`
	MaintenanceFees *term.MaintenanceFeeSchedule `json:"maintenance_fees"`
	NextFee         *term.ScheduledFee           `json:"next_fee"`
	Warnings        Warnings                     `json:"warnings"`
	IsActive        bool                         `json:"is_active"`
	Assignees       []patentsview.Assignee       `json:"assignees"`
	Inventors       []patentsview.Inventor       `json:"inventors"`
	CPCCodes        []patentsview.CPC            `json:"cpc_codes"`
	Source          string                       `json:"source"`
	URL             string                       `json:"url"`
	FromCache       bool                         `json:"from_cache"`
}

type PatentDates struct {
	Filed            string     `json:"filed"`
	Granted          string     `json:"granted,omitempty"`
	BaselineExpiry   civil.Date `json:"baseline_expiry"`
	CalculatedExpiry civil.Date `json:"calculated_expiry"`
	PTADays          int        `json:"pta_days"`
	PTEDays          int        `json:"pte_days"`
}

type Warnings struct {
	TerminalDisclaimer bool   `json:"terminal_disclaimer"`
	FeeStatus          string `json:"fee_status"`
	Reason             string `json:"reason"`
}

// SearchHit is one search result. ExpirationDate and IsActive are set only
// for non-design patents with both filing and grant dates.
type SearchHit struct {
	PatentID       string                 `json:"patent_id"`
	PatentNumber   string                 `json:"patent_number"`
	PatentTitle    string                 `json:"patent_title"`
	PatentAbstract string                 `json:"patent_abstract"`
	PatentDate     string                 `json:"patent_date"`
	FilingDate     string                 `json:"filing_date"`
	PatentType     string                 `json:"patent_type"`
	ExpirationDate *civil.Date            `json:"expiration_date"`
	IsActive       *bool                  `json:"is_active"`
	Assignees      []patentsview.Assignee `json:"assignees"`
	Inventors      []patentsview.Inventor `json:"inventors"`
	Source         string                 `json:"source"`
	URL            string                 `json:"url"`
}

type SearchResult struct {
	Query      string      `json:"query"`
	Keywords   []string    `json:"keywords"`
	Results    []SearchHit `json:"results"`
	TotalCount int         `json:"total_count"`
	Page       int         `json:"page"`
	PerPage    int         `json:"per_page"`
	TotalPages int         `json:"total_pages"`
	HasNext    bool        `json:"has_next"`
	HasPrev    bool        `json:"has_prev"`
	Source     string      `json:"source"`
}

// CitedPatent is one side of a citation with its bibliographic summary.
type CitedPatent struct {
	PatentID    string  `json:"patent_id"`
	PatentTitle string  `json:"patent_title"`
	PatentDate  string  `json:"patent_date"`
	Assignee    *string `json:"assignee"`
}

type CitationsResult struct {
	PatentID     string        `json:"patent_id"`
	CitedBy      []CitedPatent `json:"cited_by"`
	CitedByCount int           `json:"cited_by_count"`
	Cites        []CitedPatent `json:"cites"`
	CitesCount   int           `json:"cites_count"`
}

type AssigneePatent struct {
	PatentID    string   `json:"patent_id"`
	PatentTitle string   `json:"patent_title"`
	PatentDate  string   `json:"patent_date"`
	CPCCodes    []string `json:"cpc_codes"`
}

type AssigneePatentsResult struct {
	Assignee string           `json:"assignee"`
	Patents  []AssigneePatent `json:"patents"`
	Count    int              `json:"count"`
}

// EnrichmentItem is a single web mention. Enrichment lookups are not
// performed by this server, so result lists are always empty.
type EnrichmentItem struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Date    string `json:"date,omitempty"`
	Source  string `json:"source"`
}

type EnrichResult struct {
	PatentID        string           `json:"patent_id"`
	Available       bool             `json:"available"`
	Reason          string           `json:"reason,omitempty"`
	Assignee        string           `json:"assignee,omitempty"`
	KeyTerms        []string         `json:"key_terms,omitempty"`
	CompanyNews     []EnrichmentItem `json:"company_news"`
	MarketContext   []EnrichmentItem `json:"market_context"`
	ProductMentions []EnrichmentItem `json:"product_mentions"`
}
