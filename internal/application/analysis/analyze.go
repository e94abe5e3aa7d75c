package analysis

import (
	"context"
	"strings"
	"time"

	"github.com/golang-sql/civil"

	"github.com/turtacn/PatentSentry/internal/domain/term"
	"github.com/turtacn/PatentSentry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentry/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/PatentSentry/internal/infrastructure/patentsview"
	"github.com/turtacn/PatentSentry/pkg/errors"
)

const (
	feeStatusUnverified = "Cannot verify if fees have been paid. Check USPTO PAIR."
	feeStatusDesign     = "Design patents do not require maintenance fees."

	googlePatentsURL = "https://patents.google.com/patent/US"
)

// NormalizePatentNumber upper-cases id and drops the US country code and
// surrounding whitespace: "us10000000" becomes "10000000".
func NormalizePatentNumber(id string) string {
	n := strings.ToUpper(strings.TrimSpace(id))
	n = strings.ReplaceAll(n, "US", "")
	return strings.TrimSpace(n)
}

// ClassifyKind maps a data-source patent type onto the closed kind set.
// Anything not design or plant is treated as utility.
func ClassifyKind(patentType string) term.Kind {
	t := strings.ToLower(patentType)
	switch {
	case strings.Contains(t, "design"):
		return term.KindDesign
	case strings.Contains(t, "plant"):
		return term.KindPlant
	default:
		return term.KindUtility
	}
}

func cacheKey(number string) string {
	return "analyze:" + number
}

func (s *serviceImpl) Analyze(ctx context.Context, input AnalyzeInput) (*AnalysisResult, error) {
	number := NormalizePatentNumber(input.PatentID)
	if number == "" {
		return nil, errors.New(errors.ErrCodeBadRequest, "patent_id required")
	}
	log := s.logger.WithContext(ctx).With(logging.String("patent", number))
	key := cacheKey(number)

	if !input.ForceRefresh && s.cache != nil {
		var cached AnalysisResult
		err := s.cache.Get(ctx, key, &cached)
		switch {
		case err == nil:
			prometheus.RecordCacheAccess(s.metrics, s.cacheName, true)
			s.metrics.AnalysesTotal.WithLabelValues("cache").Inc()
			s.refresh(&cached, s.now())
			cached.FromCache = true
			return &cached, nil
		case errors.IsCode(err, errors.ErrCodeCacheMiss):
			prometheus.RecordCacheAccess(s.metrics, s.cacheName, false)
		default:
			log.Warn("result cache read failed", logging.Err(err))
		}
	}

	if err := s.requireSource(); err != nil {
		return nil, err
	}

	// Concurrent requests for one patent share a single upstream fetch. The
	// shared call must not die with whichever caller happened to start it.
	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		return s.analyze(context.WithoutCancel(ctx), number)
	})
	if err != nil {
		prometheus.RecordError(s.metrics, "analysis", string(errors.GetCode(err)))
		return nil, err
	}
	if shared {
		log.Debug("analysis shared with concurrent request")
	}
	res := *v.(*AnalysisResult)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, res, s.cacheTTL); err != nil {
			log.Warn("result cache write failed", logging.Err(err))
		}
	}
	s.metrics.AnalysesTotal.WithLabelValues(sourcePatentsView).Inc()
	return &res, nil
}

func (s *serviceImpl) analyze(ctx context.Context, number string) (*AnalysisResult, error) {
	p, err := s.source.GetPatent(ctx, number)
	if err != nil {
		return nil, err
	}
	if p.EarliestApplicationDate == "" {
		return nil, errors.New(errors.ErrCodeMissingFilingDate, "Filing date not available").WithDetail(number)
	}

	kind := ClassifyKind(p.Type)
	raw := term.RawTermInput{
		Kind:       kind.String(),
		FilingDate: p.EarliestApplicationDate,
		GrantDate:  p.Date,
		PTEDays:    p.TermExtension,
	}
	det, err := s.Calculate(ctx, raw)
	if err != nil {
		return nil, err
	}
	return s.buildResult(p, det, s.now()), nil
}

func (s *serviceImpl) buildResult(p *patentsview.Patent, det *term.TermDetermination, now time.Time) *AnalysisResult {
	exp := det.Expiration
	res := &AnalysisResult{
		PatentID:   "US" + p.ID,
		Title:      p.Title,
		Abstract:   p.Abstract,
		PatentType: p.Type,
		Kind:       det.Kind,
		Dates: PatentDates{
			Filed:            p.EarliestApplicationDate,
			Granted:          p.Date,
			BaselineExpiry:   exp.BaselineExpiry,
			CalculatedExpiry: exp.CalculatedExpiry,
			PTADays:          exp.PTADays,
			PTEDays:          exp.PTEDays,
		},
		Expiration:      exp,
		MaintenanceFees: det.MaintenanceFees,
		Warnings: Warnings{
			TerminalDisclaimer: false,
			FeeStatus:          feeStatusUnverified,
			Reason:             exp.Reason,
		},
		IsActive:  exp.IsActive,
		Assignees: p.Assignees,
		Inventors: p.Inventors,
		CPCCodes:  p.CPCCurrent,
		Source:    sourcePatentsView,
		URL:       googlePatentsURL + p.ID,
	}
	if det.Kind == term.KindDesign {
		res.Warnings.FeeStatus = feeStatusDesign
	}
	if res.MaintenanceFees != nil {
		res.NextFee = res.MaintenanceFees.Next(civil.DateOf(now))
	}
	return res
}

// refresh re-evaluates the fields of a cached result that depend on the
// current time.
func (s *serviceImpl) refresh(res *AnalysisResult, now time.Time) {
	res.Expiration.IsActive = res.Expiration.ActiveAt(now)
	res.IsActive = res.Expiration.IsActive
	if res.MaintenanceFees != nil {
		res.NextFee = res.MaintenanceFees.Next(civil.DateOf(now))
	}
}
