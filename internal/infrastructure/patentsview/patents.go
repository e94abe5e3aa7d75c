package patentsview

import (
	"context"
	"strings"

	"github.com/turtacn/PatentSentry/pkg/errors"
)

// Sort orders accepted by SearchPatents.
const (
	SortRelevance = "relevance"
	SortDateDesc  = "date_desc"
	SortDateAsc   = "date_asc"
)

var (
	searchFields = []string{
		"patent_id", "patent_title", "patent_abstract", "patent_date",
		"patent_type", "patent_earliest_application_date", "assignees", "inventors",
	}
	detailFields = []string{
		"patent_id", "patent_title", "patent_abstract", "patent_date",
		"patent_earliest_application_date", "patent_term_extension",
		"patent_type", "assignees", "inventors", "cpc_current",
	}
	summaryFields  = []string{"patent_id", "patent_title", "patent_date", "assignees"}
	assigneeFields = []string{"patent_id", "patent_title", "patent_date", "cpc_current"}
	citationFields = []string{"patent_id", "citation_patent_id", "citation_date", "citation_category"}
)

type Assignee struct {
	ID             string `json:"assignee_id,omitempty"`
	Organization   string `json:"assignee_organization,omitempty"`
	IndividualName string `json:"assignee_individual_name_first,omitempty"`
	IndividualLast string `json:"assignee_individual_name_last,omitempty"`
	City           string `json:"assignee_city,omitempty"`
	State          string `json:"assignee_state,omitempty"`
	Country        string `json:"assignee_country,omitempty"`
}

type Inventor struct {
	ID        string `json:"inventor_id,omitempty"`
	FirstName string `json:"inventor_name_first,omitempty"`
	LastName  string `json:"inventor_name_last,omitempty"`
	City      string `json:"inventor_city,omitempty"`
	State     string `json:"inventor_state,omitempty"`
	Country   string `json:"inventor_country,omitempty"`
}

// CPC is one current Cooperative Patent Classification entry.
type CPC struct {
	Sequence int    `json:"cpc_sequence"`
	Class    string `json:"cpc_class_id,omitempty"`
	Subclass string `json:"cpc_subclass_id,omitempty"`
	Group    string `json:"cpc_group_id,omitempty"`
	Type     string `json:"cpc_type,omitempty"`
}

// Patent is a PatentsView patent record. Dates are YYYY-MM-DD strings as
// returned by the API; TermExtension is the PTE in days.
type Patent struct {
	ID                      string     `json:"patent_id"`
	Title                   string     `json:"patent_title,omitempty"`
	Abstract                string     `json:"patent_abstract,omitempty"`
	Date                    string     `json:"patent_date,omitempty"`
	Type                    string     `json:"patent_type,omitempty"`
	EarliestApplicationDate string     `json:"patent_earliest_application_date,omitempty"`
	TermExtension           int        `json:"patent_term_extension,omitempty"`
	Assignees               []Assignee `json:"assignees,omitempty"`
	Inventors               []Inventor `json:"inventors,omitempty"`
	CPCCurrent              []CPC      `json:"cpc_current,omitempty"`
}

// FirstAssigneeOrganization returns the first assignee's organization or "".
func (p *Patent) FirstAssigneeOrganization() string {
	if len(p.Assignees) == 0 {
		return ""
	}
	return p.Assignees[0].Organization
}

// Citation links a citing patent (PatentID) to a cited one (CitedPatentID).
type Citation struct {
	PatentID      string `json:"patent_id"`
	CitedPatentID string `json:"citation_patent_id"`
	Date          string `json:"citation_date,omitempty"`
	Category      string `json:"citation_category,omitempty"`
}

// Citations holds both directions for one patent.
type Citations struct {
	// CitedBy are later patents citing the subject.
	CitedBy []Citation
	// Cites are earlier patents the subject cites.
	Cites []Citation
}

type SearchQuery struct {
	Keywords []string
	Page     int
	PerPage  int
	Sort     string
}

// PatentPage is one page of search hits.
type PatentPage struct {
	Patents   []Patent
	TotalHits int
}

type queryOptions struct {
	Size int `json:"size,omitempty"`
	From int `json:"from,omitempty"`
}

type request struct {
	Q map[string]interface{} `json:"q"`
	F []string               `json:"f"`
	O *queryOptions          `json:"o,omitempty"`
	S []map[string]string    `json:"s,omitempty"`
}

type patentResponse struct {
	Count     int      `json:"count"`
	TotalHits *int     `json:"total_hits"`
	Patents   []Patent `json:"patents"`
}

type citationResponse struct {
	Citations []Citation `json:"us_patent_citations"`
}

func textAny(field, value string) map[string]interface{} {
	return map[string]interface{}{"_text_any": map[string]string{field: value}}
}

// buildSearchRequest matches any keyword against the title. Page is 1-based.
func buildSearchRequest(q SearchQuery) request {
	var cond map[string]interface{}
	if len(q.Keywords) == 1 {
		cond = textAny("patent_title", q.Keywords[0])
	} else {
		ors := make([]interface{}, 0, len(q.Keywords))
		for _, kw := range q.Keywords {
			ors = append(ors, textAny("patent_title", kw))
		}
		cond = map[string]interface{}{"_or": ors}
	}
	req := request{
		Q: cond,
		F: searchFields,
		O: &queryOptions{Size: q.PerPage, From: (q.Page - 1) * q.PerPage},
	}
	switch q.Sort {
	case SortDateDesc:
		req.S = []map[string]string{{"patent_date": "desc"}}
	case SortDateAsc:
		req.S = []map[string]string{{"patent_date": "asc"}}
	}
	return req
}

// SearchPatents runs a title keyword search.
func (c *Client) SearchPatents(ctx context.Context, q SearchQuery) (*PatentPage, error) {
	keywords := q.Keywords[:0:0]
	for _, kw := range q.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		return nil, errors.New(errors.ErrCodeBadRequest, "Query parameter is required")
	}
	q.Keywords = keywords
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 25
	}

	var resp patentResponse
	if err := c.post(ctx, "search", patentPath, buildSearchRequest(q), &resp); err != nil {
		return nil, err
	}
	total := resp.Count
	if resp.TotalHits != nil {
		total = *resp.TotalHits
	}
	return &PatentPage{Patents: resp.Patents, TotalHits: total}, nil
}

// GetPatent fetches the full record for a bare patent number.
func (c *Client) GetPatent(ctx context.Context, number string) (*Patent, error) {
	if number == "" {
		return nil, errors.New(errors.ErrCodePatentNumberInvalid, "patent number is required")
	}
	req := request{
		Q: map[string]interface{}{"patent_id": number},
		F: detailFields,
		O: &queryOptions{Size: 1},
	}
	var resp patentResponse
	if err := c.post(ctx, "get_patent", patentPath, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Patents) == 0 {
		return nil, errors.New(errors.ErrCodePatentNotFound, "Patent not found").WithDetail(number)
	}
	return &resp.Patents[0], nil
}

// GetPatentsByIDs fetches title, grant date and assignees for ids in one
// call. Unknown ids are simply absent from the result.
func (c *Client) GetPatentsByIDs(ctx context.Context, ids []string) ([]Patent, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	req := request{
		Q: map[string]interface{}{"patent_id": map[string]interface{}{"_in": ids}},
		F: summaryFields,
		O: &queryOptions{Size: len(ids)},
	}
	var resp patentResponse
	if err := c.post(ctx, "get_patents", patentPath, req, &resp); err != nil {
		return nil, err
	}
	return resp.Patents, nil
}

// GetCitations returns up to limit citations in each direction.
func (c *Client) GetCitations(ctx context.Context, number string, limit int) (*Citations, error) {
	if number == "" {
		return nil, errors.New(errors.ErrCodePatentNumberInvalid, "patent number is required")
	}
	if limit <= 0 {
		limit = 20
	}

	var forward citationResponse
	err := c.post(ctx, "citations", citationPath, request{
		Q: map[string]interface{}{"citation_patent_id": number},
		F: citationFields,
		O: &queryOptions{Size: limit},
	}, &forward)
	if err != nil {
		return nil, err
	}

	var backward citationResponse
	err = c.post(ctx, "citations", citationPath, request{
		Q: map[string]interface{}{"patent_id": number},
		F: citationFields,
		O: &queryOptions{Size: limit},
	}, &backward)
	if err != nil {
		return nil, err
	}

	return &Citations{CitedBy: forward.Citations, Cites: backward.Citations}, nil
}

// GetAssigneePatents returns up to size patents whose assignee organization
// matches, newest grant first.
func (c *Client) GetAssigneePatents(ctx context.Context, assignee string, size int) ([]Patent, error) {
	if strings.TrimSpace(assignee) == "" {
		return nil, errors.New(errors.ErrCodeBadRequest, "assignee required")
	}
	if size <= 0 {
		size = 10
	}
	req := request{
		Q: textAny("assignees.assignee_organization", assignee),
		F: assigneeFields,
		O: &queryOptions{Size: size},
		S: []map[string]string{{"patent_date": "desc"}},
	}
	var resp patentResponse
	if err := c.post(ctx, "assignee_patents", patentPath, req, &resp); err != nil {
		return nil, err
	}
	return resp.Patents, nil
}
