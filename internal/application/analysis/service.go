// Package analysis provides the application service behind the patent
// search API: patent lookups against the data source, term and fee
// determination, and memoisation of analysis results.
package analysis

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/turtacn/PatentSentry/internal/domain/term"
	"github.com/turtacn/PatentSentry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentry/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/PatentSentry/internal/infrastructure/patentsview"
	"github.com/turtacn/PatentSentry/pkg/errors"
)

// DefaultCacheTTL is how long an analysis result is reused.
const DefaultCacheTTL = 24 * time.Hour

// Service defines the application operations exposed over HTTP and CLI.
type Service interface {
	Analyze(ctx context.Context, input AnalyzeInput) (*AnalysisResult, error)
	Calculate(ctx context.Context, input term.RawTermInput) (*term.TermDetermination, error)
	Search(ctx context.Context, input SearchInput) (*SearchResult, error)
	Citations(ctx context.Context, patentID string) (*CitationsResult, error)
	AssigneePatents(ctx context.Context, input AssigneeInput) (*AssigneePatentsResult, error)
	Enrich(ctx context.Context, input EnrichInput) (*EnrichResult, error)
}

// PatentSource is the remote patent index. *patentsview.Client implements it.
type PatentSource interface {
	SearchPatents(ctx context.Context, q patentsview.SearchQuery) (*patentsview.PatentPage, error)
	GetPatent(ctx context.Context, number string) (*patentsview.Patent, error)
	GetPatentsByIDs(ctx context.Context, ids []string) ([]patentsview.Patent, error)
	GetCitations(ctx context.Context, number string, limit int) (*patentsview.Citations, error)
	GetAssigneePatents(ctx context.Context, assignee string, size int) ([]patentsview.Patent, error)
}

// ResultCache memoises analysis results. Get returns an error carrying
// errors.ErrCodeCacheMiss when the key is absent.
type ResultCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Ping(ctx context.Context) error
}

type AnalyzeInput struct {
	PatentID     string
	ForceRefresh bool
}

type SearchInput struct {
	Query   string
	Page    int
	PerPage int
	Sort    string
}

type AssigneeInput struct {
	Assignee        string
	ExcludePatentID string
	Limit           int
}

type EnrichInput struct {
	PatentID     string
	PatentTitle  string
	Assignee     string
	ForceRefresh bool
}

// Config carries the optional collaborators of the service. Source may be
// nil, in which case only Calculate works.
type Config struct {
	Source               PatentSource
	Cache                ResultCache
	CacheTTL             time.Duration
	EnrichmentConfigured bool
	Logger               logging.Logger
	Metrics              *prometheus.AppMetrics
	Clock                func() time.Time
}

type serviceImpl struct {
	source     PatentSource
	cache      ResultCache
	cacheName  string
	cacheTTL   time.Duration
	enrichment bool
	logger     logging.Logger
	metrics    *prometheus.AppMetrics
	now        func() time.Time
	group      singleflight.Group
}

// NewService creates a new analysis application service.
func NewService(cfg Config) Service {
	s := &serviceImpl{
		source:     cfg.Source,
		cache:      cfg.Cache,
		cacheTTL:   cfg.CacheTTL,
		enrichment: cfg.EnrichmentConfigured,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		now:        cfg.Clock,
	}
	if s.cacheTTL <= 0 {
		s.cacheTTL = DefaultCacheTTL
	}
	if s.logger == nil {
		s.logger = logging.NewNopLogger()
	}
	s.logger = s.logger.Named("analysis")
	if s.metrics == nil {
		s.metrics = prometheus.NewNoopAppMetrics()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.cacheName = cacheName(cfg.Cache)
	return s
}

func cacheName(c ResultCache) string {
	if n, ok := c.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "default"
}

func (s *serviceImpl) requireSource() error {
	if s.source == nil {
		return errors.New(errors.ErrCodeDataSourceUnavailable, "patent data source not configured")
	}
	return nil
}

func (s *serviceImpl) Calculate(ctx context.Context, input term.RawTermInput) (*term.TermDetermination, error) {
	start := time.Now()
	in, err := term.ParseTermInput(input)
	if err != nil {
		prometheus.RecordTermCalculation(s.metrics, input.Kind, err, time.Since(start))
		return nil, err
	}
	det, err := term.Calculate(in, s.now())
	prometheus.RecordTermCalculation(s.metrics, in.Kind.String(), err, time.Since(start))
	if err != nil {
		return nil, err
	}
	s.logger.WithContext(ctx).Debug("term calculated",
		logging.String("kind", in.Kind.String()),
		logging.String("expiry", det.Expiration.Expiry.String()))
	return det, nil
}
