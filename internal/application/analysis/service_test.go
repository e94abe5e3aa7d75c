package analysis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/PatentSentry/internal/domain/term"
	"github.com/turtacn/PatentSentry/internal/infrastructure/cache/memory"
	"github.com/turtacn/PatentSentry/internal/infrastructure/patentsview"
	"github.com/turtacn/PatentSentry/pkg/errors"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) SearchPatents(ctx context.Context, q patentsview.SearchQuery) (*patentsview.PatentPage, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*patentsview.PatentPage), args.Error(1)
}

func (m *mockSource) GetPatent(ctx context.Context, number string) (*patentsview.Patent, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*patentsview.Patent), args.Error(1)
}

func (m *mockSource) GetPatentsByIDs(ctx context.Context, ids []string) ([]patentsview.Patent, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]patentsview.Patent), args.Error(1)
}

func (m *mockSource) GetCitations(ctx context.Context, number string, limit int) (*patentsview.Citations, error) {
	args := m.Called(ctx, number, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*patentsview.Citations), args.Error(1)
}

func (m *mockSource) GetAssigneePatents(ctx context.Context, assignee string, size int) ([]patentsview.Patent, error) {
	args := m.Called(ctx, assignee, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]patentsview.Patent), args.Error(1)
}

type failingCache struct{}

func (failingCache) Get(context.Context, string, interface{}) error {
	return errors.New(errors.ErrCodeCacheError, "down")
}
func (failingCache) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New(errors.ErrCodeCacheError, "down")
}
func (failingCache) Ping(context.Context) error { return errors.New(errors.ErrCodeCacheError, "down") }

var fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func newTestService(src PatentSource, cache ResultCache) *serviceImpl {
	return NewService(Config{
		Source: src,
		Cache:  cache,
		Clock:  func() time.Time { return fixedNow },
	}).(*serviceImpl)
}

func utilityPatent() *patentsview.Patent {
	return &patentsview.Patent{
		ID:                      "10000000",
		Title:                   "Coherent LADAR using intra-pixel quadrature detection",
		Type:                    "utility",
		Date:                    "2018-06-19",
		EarliestApplicationDate: "2015-03-10",
		TermExtension:           30,
		Assignees:               []patentsview.Assignee{{Organization: "Raytheon Company"}},
		CPCCurrent:              []patentsview.CPC{{Group: "G01S7/4818"}},
	}
}

func TestNormalizePatentNumber(t *testing.T) {
	assert.Equal(t, "10000000", NormalizePatentNumber(" us10000000 "))
	assert.Equal(t, "10000000", NormalizePatentNumber("US 10000000"))
	assert.Equal(t, "D900000", NormalizePatentNumber("USD900000"))
	assert.Equal(t, "", NormalizePatentNumber("US"))
}

func TestClassifyKind(t *testing.T) {
	assert.Equal(t, term.KindDesign, ClassifyKind("Design"))
	assert.Equal(t, term.KindPlant, ClassifyKind("plant"))
	assert.Equal(t, term.KindUtility, ClassifyKind("utility"))
	assert.Equal(t, term.KindUtility, ClassifyKind("reissue"))
	assert.Equal(t, term.KindUtility, ClassifyKind(""))
}

func TestAnalyze_Utility(t *testing.T) {
	src := new(mockSource)
	src.On("GetPatent", mock.Anything, "10000000").Return(utilityPatent(), nil).Once()
	svc := newTestService(src, nil)

	res, err := svc.Analyze(context.Background(), AnalyzeInput{PatentID: "us10000000"})
	require.NoError(t, err)

	assert.Equal(t, "US10000000", res.PatentID)
	assert.Equal(t, term.KindUtility, res.Kind)
	assert.Equal(t, civil.Date{Year: 2035, Month: time.March, Day: 10}, res.Dates.BaselineExpiry)
	assert.Equal(t, civil.Date{Year: 2035, Month: time.April, Day: 9}, res.Dates.CalculatedExpiry)
	assert.Equal(t, 30, res.Dates.PTEDays)
	assert.Equal(t, "20 years from filing + 30 days PTE", res.Warnings.Reason)
	assert.Equal(t, feeStatusUnverified, res.Warnings.FeeStatus)
	assert.False(t, res.Warnings.TerminalDisclaimer)
	assert.True(t, res.IsActive)
	require.NotNil(t, res.MaintenanceFees)
	assert.Equal(t, civil.Date{Year: 2021, Month: time.December, Day: 19}, res.MaintenanceFees.Year3_5.DueDate)
	require.NotNil(t, res.NextFee)
	assert.Equal(t, "year_7_5", res.NextFee.Milestone)
	assert.Equal(t, term.FeeWindowUpcoming, res.NextFee.Status)
	assert.Equal(t, "https://patents.google.com/patent/US10000000", res.URL)
	assert.Equal(t, "patentsview", res.Source)
	assert.False(t, res.FromCache)
	src.AssertExpectations(t)
}

func TestAnalyze_Design(t *testing.T) {
	src := new(mockSource)
	src.On("GetPatent", mock.Anything, "D800000").Return(&patentsview.Patent{
		ID: "D800000", Type: "design", Date: "2017-11-28", EarliestApplicationDate: "2015-06-01",
	}, nil)
	svc := newTestService(src, nil)

	res, err := svc.Analyze(context.Background(), AnalyzeInput{PatentID: "USD800000"})
	require.NoError(t, err)
	assert.Equal(t, term.KindDesign, res.Kind)
	assert.Equal(t, "15 years from grant date", res.Expiration.Reason)
	assert.Equal(t, civil.Date{Year: 2032, Month: time.November, Day: 28}, res.Expiration.Expiry)
	assert.Nil(t, res.MaintenanceFees)
	assert.Nil(t, res.NextFee)
	assert.Equal(t, feeStatusDesign, res.Warnings.FeeStatus)
}

func TestAnalyze_Errors(t *testing.T) {
	src := new(mockSource)
	src.On("GetPatent", mock.Anything, "1").Return(&patentsview.Patent{ID: "1", Type: "utility"}, nil)
	src.On("GetPatent", mock.Anything, "2").Return(&patentsview.Patent{ID: "2", Type: "design", EarliestApplicationDate: "2016-01-01"}, nil)
	src.On("GetPatent", mock.Anything, "3").Return(nil, errors.New(errors.ErrCodePatentNotFound, "Patent not found"))
	svc := newTestService(src, nil)
	ctx := context.Background()

	_, err := svc.Analyze(ctx, AnalyzeInput{PatentID: "  "})
	assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest))

	_, err = svc.Analyze(ctx, AnalyzeInput{PatentID: "1"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeMissingFilingDate))

	_, err = svc.Analyze(ctx, AnalyzeInput{PatentID: "2"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeMissingGrantDate))

	_, err = svc.Analyze(ctx, AnalyzeInput{PatentID: "3"})
	assert.True(t, errors.IsNotFound(err))
}

func TestAnalyze_NoSource(t *testing.T) {
	svc := newTestService(nil, nil)
	_, err := svc.Analyze(context.Background(), AnalyzeInput{PatentID: "1"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeDataSourceUnavailable))
}

func TestAnalyze_CachesResult(t *testing.T) {
	src := new(mockSource)
	src.On("GetPatent", mock.Anything, "10000000").Return(utilityPatent(), nil).Twice()
	svc := newTestService(src, memory.New(100, time.Hour))
	ctx := context.Background()

	first, err := svc.Analyze(ctx, AnalyzeInput{PatentID: "US10000000"})
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := svc.Analyze(ctx, AnalyzeInput{PatentID: "10000000"})
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Expiration, second.Expiration)
	assert.Equal(t, first.MaintenanceFees, second.MaintenanceFees)

	refreshed, err := svc.Analyze(ctx, AnalyzeInput{PatentID: "10000000", ForceRefresh: true})
	require.NoError(t, err)
	assert.False(t, refreshed.FromCache)
	src.AssertNumberOfCalls(t, "GetPatent", 2)
}

func TestAnalyze_CacheHitReevaluatesActivity(t *testing.T) {
	src := new(mockSource)
	src.On("GetPatent", mock.Anything, "10000000").Return(utilityPatent(), nil).Once()
	cache := memory.New(100, time.Hour)
	svc := newTestService(src, cache)
	ctx := context.Background()

	_, err := svc.Analyze(ctx, AnalyzeInput{PatentID: "10000000"})
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Date(2036, time.January, 1, 0, 0, 0, 0, time.UTC) }
	res, err := svc.Analyze(ctx, AnalyzeInput{PatentID: "10000000"})
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.False(t, res.IsActive)
	assert.False(t, res.Expiration.IsActive)
	assert.Nil(t, res.NextFee)
}

func TestAnalyze_CacheFailureDoesNotFail(t *testing.T) {
	src := new(mockSource)
	src.On("GetPatent", mock.Anything, "10000000").Return(utilityPatent(), nil)
	svc := newTestService(src, failingCache{})

	res, err := svc.Analyze(context.Background(), AnalyzeInput{PatentID: "10000000"})
	require.NoError(t, err)
	assert.Equal(t, "US10000000", res.PatentID)
}

func TestAnalyze_CollapsesConcurrentRequests(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	src := new(mockSource)
	src.On("GetPatent", mock.Anything, "10000000").
		Run(func(mock.Arguments) {
			atomic.AddInt32(&calls, 1)
			<-release
		}).
		Return(utilityPatent(), nil)
	svc := newTestService(src, nil)

	const n = 5
	var wg sync.WaitGroup
	results := make([]*AnalysisResult, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Analyze(context.Background(), AnalyzeInput{PatentID: "10000000"})
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(n))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, "US10000000", r.PatentID)
	}
}

func TestCalculate(t *testing.T) {
	svc := newTestService(nil, nil)

	det, err := svc.Calculate(context.Background(), term.RawTermInput{
		Kind:       "utility",
		FilingDate: "2001-02-03",
		GrantDate:  "2004-05-06",
		PTADays:    90,
	})
	require.NoError(t, err)
	assert.Equal(t, "2021-05-04", det.Expiration.Expiry.String())
	assert.False(t, det.Expiration.IsActive)
	require.NotNil(t, det.MaintenanceFees)

	_, err = svc.Calculate(context.Background(), term.RawTermInput{Kind: "utility"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeMissingFilingDate))

	_, err = svc.Calculate(context.Background(), term.RawTermInput{Kind: "reissue", FilingDate: "2001-02-03"})
	assert.True(t, errors.IsCode(err, errors.ErrCodeUnknownPatentKind))
}
