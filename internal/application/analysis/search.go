package analysis

import (
	"context"
	"strings"

	"github.com/turtacn/PatentSentry/internal/domain/term"
	"github.com/turtacn/PatentSentry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentry/internal/infrastructure/patentsview"
	"github.com/turtacn/PatentSentry/pkg/errors"
)

const (
	defaultPerPage      = 25
	maxPerPage          = 100
	citationLimit       = 20
	defaultAssigneeSize = 10
	assigneeCPCLimit    = 3
	unknownTitle        = "Unknown"
)

func (s *serviceImpl) Search(ctx context.Context, input SearchInput) (*SearchResult, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, errors.New(errors.ErrCodeBadRequest, "Query parameter is required")
	}
	if err := s.requireSource(); err != nil {
		return nil, err
	}

	page := input.Page
	if page < 1 {
		page = 1
	}
	perPage := input.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	sort := input.Sort
	switch sort {
	case patentsview.SortDateAsc, patentsview.SortDateDesc:
	default:
		sort = patentsview.SortRelevance
	}

	keywords := []string{query}
	hits, err := s.source.SearchPatents(ctx, patentsview.SearchQuery{
		Keywords: keywords,
		Page:     page,
		PerPage:  perPage,
		Sort:     sort,
	})
	if err != nil {
		return nil, err
	}

	now := s.now()
	results := make([]SearchHit, 0, len(hits.Patents))
	for _, p := range hits.Patents {
		hit := SearchHit{
			PatentID:       "US" + p.ID,
			PatentNumber:   p.ID,
			PatentTitle:    p.Title,
			PatentAbstract: p.Abstract,
			PatentDate:     p.Date,
			FilingDate:     p.EarliestApplicationDate,
			PatentType:     p.Type,
			Assignees:      p.Assignees,
			Inventors:      p.Inventors,
			Source:         sourcePatentsView,
			URL:            googlePatentsURL + p.ID,
		}
		if p.EarliestApplicationDate != "" && p.Date != "" && ClassifyKind(p.Type) != term.KindDesign {
			if filing, err := term.ParseDate("filing_date", p.EarliestApplicationDate); err == nil {
				exp := term.ComputeUtilityExpiry(filing, 0, 0, nil, now)
				active := exp.IsActive
				hit.ExpirationDate = &exp.Expiry
				hit.IsActive = &active
			}
		}
		results = append(results, hit)
	}

	total := hits.TotalHits
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	res := &SearchResult{
		Query:      query,
		Results:    results,
		TotalCount: total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
		Source:     sourcePatentsView,
	}
	if len(keywords) > 1 {
		res.Keywords = keywords
	}
	return res, nil
}

func (s *serviceImpl) Citations(ctx context.Context, patentID string) (*CitationsResult, error) {
	number := NormalizePatentNumber(patentID)
	if number == "" {
		return nil, errors.New(errors.ErrCodeBadRequest, "patent_id required")
	}
	if err := s.requireSource(); err != nil {
		return nil, err
	}

	cits, err := s.source.GetCitations(ctx, number, citationLimit)
	if err != nil {
		return nil, err
	}

	var ids []string
	seen := make(map[string]bool)
	collect := func(id string) {
		id = strings.ToUpper(id)
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, c := range cits.CitedBy {
		collect(c.PatentID)
	}
	for _, c := range cits.Cites {
		collect(c.CitedPatentID)
	}

	details := make(map[string]patentsview.Patent, len(ids))
	if len(ids) > 0 {
		ps, err := s.source.GetPatentsByIDs(ctx, ids)
		if err != nil {
			// citations are still useful without titles
			s.logger.WithContext(ctx).Warn("citation detail lookup failed",
				logging.String("patent", number), logging.Err(err))
		}
		for _, p := range ps {
			details[strings.ToUpper(p.ID)] = p
		}
	}

	cited := func(id string) CitedPatent {
		cp := CitedPatent{PatentID: "US" + id, PatentTitle: unknownTitle}
		p, ok := details[strings.ToUpper(id)]
		if !ok {
			return cp
		}
		if p.Title != "" {
			cp.PatentTitle = p.Title
		}
		cp.PatentDate = p.Date
		if org := p.FirstAssigneeOrganization(); org != "" {
			cp.Assignee = &org
		}
		return cp
	}

	res := &CitationsResult{
		PatentID: patentID,
		CitedBy:  make([]CitedPatent, 0, len(cits.CitedBy)),
		Cites:    make([]CitedPatent, 0, len(cits.Cites)),
	}
	for _, c := range cits.CitedBy {
		res.CitedBy = append(res.CitedBy, cited(c.PatentID))
	}
	for _, c := range cits.Cites {
		res.Cites = append(res.Cites, cited(c.CitedPatentID))
	}
	res.CitedByCount = len(res.CitedBy)
	res.CitesCount = len(res.Cites)
	return res, nil
}

func (s *serviceImpl) AssigneePatents(ctx context.Context, input AssigneeInput) (*AssigneePatentsResult, error) {
	assignee := strings.TrimSpace(input.Assignee)
	if assignee == "" {
		return nil, errors.New(errors.ErrCodeBadRequest, "assignee required")
	}
	if err := s.requireSource(); err != nil {
		return nil, err
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultAssigneeSize
	}

	// one extra in case the excluded patent is among the newest
	ps, err := s.source.GetAssigneePatents(ctx, assignee, limit+1)
	if err != nil {
		return nil, err
	}

	exclude := NormalizePatentNumber(input.ExcludePatentID)
	patents := make([]AssigneePatent, 0, limit)
	for _, p := range ps {
		if exclude != "" && strings.EqualFold(p.ID, exclude) {
			continue
		}
		if len(patents) >= limit {
			break
		}
		codes := make([]string, 0, assigneeCPCLimit)
		for i, c := range p.CPCCurrent {
			if i == assigneeCPCLimit {
				break
			}
			codes = append(codes, c.Group)
		}
		patents = append(patents, AssigneePatent{
			PatentID:    "US" + p.ID,
			PatentTitle: p.Title,
			PatentDate:  p.Date,
			CPCCodes:    codes,
		})
	}
	return &AssigneePatentsResult{Assignee: assignee, Patents: patents, Count: len(patents)}, nil
}
