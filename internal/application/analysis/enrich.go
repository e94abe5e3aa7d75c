package analysis

import (
	"context"
	"regexp"
	"strings"

	"github.com/turtacn/PatentSentry/pkg/errors"
)

const (
	reasonNotConfigured    = "Enrichment service not configured (EXA_API_KEY missing)"
	reasonAssigneeRequired = "Assignee information required for enrichment"
	reasonUnsupported      = "Enrichment lookups are not performed by this server"

	maxKeyTerms = 6
)

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)

	stopwords = map[string]bool{}
)

func init() {
	for _, w := range strings.Fields(`a an the and or but for of to in on at by with from as is are
		was were be been being have has had do does did will would could should may might must
		shall can this that these those method system apparatus device thereof therefor therein
		comprising including having using making forming`) {
		stopwords[w] = true
	}
}

// ExtractKeyTerms returns up to six distinct words of a patent title that
// are longer than two letters and not claim boilerplate.
func ExtractKeyTerms(title string) []string {
	var terms []string
	seen := make(map[string]bool)
	for _, w := range strings.Fields(nonAlnum.ReplaceAllString(strings.ToLower(title), " ")) {
		if len(w) <= 2 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
		if len(terms) == maxKeyTerms {
			break
		}
	}
	return terms
}

// Enrich reports whether web enrichment is available for a patent. Lookups
// themselves are never performed, so Available is always false.
func (s *serviceImpl) Enrich(ctx context.Context, input EnrichInput) (*EnrichResult, error) {
	if strings.TrimSpace(input.PatentID) == "" {
		return nil, errors.New(errors.ErrCodeBadRequest, "patent_id required")
	}
	res := &EnrichResult{
		PatentID:        input.PatentID,
		Available:       false,
		CompanyNews:     []EnrichmentItem{},
		MarketContext:   []EnrichmentItem{},
		ProductMentions: []EnrichmentItem{},
	}
	switch {
	case !s.enrichment:
		res.Reason = reasonNotConfigured
	case strings.TrimSpace(input.Assignee) == "":
		res.Reason = reasonAssigneeRequired
	default:
		res.Reason = reasonUnsupported
		res.Assignee = input.Assignee
		res.KeyTerms = ExtractKeyTerms(input.PatentTitle)
	}
	return res, nil
}
