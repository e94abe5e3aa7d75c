package redis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/PatentSentry/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/PatentSentry/pkg/errors"
)

type CacheTestSuite struct {
	suite.Suite
	mock  redismock.ClientMock
	cache *Cache
}

func (s *CacheTestSuite) SetupTest() {
	db, mock := redismock.NewClientMock()
	s.mock = mock
	s.cache = NewCache(NewClientFromUniversal(db, logging.NewNopLogger()), nil, WithPrefix("test:"))
}

func (s *CacheTestSuite) TearDownTest() {
	assert.NoError(s.T(), s.mock.ExpectationsWereMet())
}

type cachedAnalysis struct {
	PatentID string `json:"patent_id"`
	IsActive bool   `json:"is_active"`
}

func (s *CacheTestSuite) TestGet_Hit() {
	val := cachedAnalysis{PatentID: "US10000000", IsActive: true}
	raw, _ := json.Marshal(val)
	s.mock.ExpectGet("test:analyze:10000000").SetVal(string(raw))

	var dest cachedAnalysis
	err := s.cache.Get(context.Background(), "analyze:10000000", &dest)

	s.NoError(err)
	s.Equal(val, dest)
}

func (s *CacheTestSuite) TestGet_Miss() {
	s.mock.ExpectGet("test:analyze:1").RedisNil()

	var dest cachedAnalysis
	err := s.cache.Get(context.Background(), "analyze:1", &dest)

	s.Equal(ErrCacheMiss, err)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheMiss))
}

func (s *CacheTestSuite) TestGet_BackendError() {
	s.mock.ExpectGet("test:analyze:1").SetErr(errors.New("connection refused"))

	var dest cachedAnalysis
	err := s.cache.Get(context.Background(), "analyze:1", &dest)

	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func (s *CacheTestSuite) TestGet_CorruptValue() {
	s.mock.ExpectGet("test:analyze:1").SetVal("{not json")

	var dest cachedAnalysis
	err := s.cache.Get(context.Background(), "analyze:1", &dest)

	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestSet_UsesExactTTLWithoutJitter() {
	val := cachedAnalysis{PatentID: "US10000000"}
	raw, _ := json.Marshal(val)
	s.mock.ExpectSet("test:analyze:10000000", raw, 24*time.Hour).SetVal("OK")

	s.NoError(s.cache.Set(context.Background(), "analyze:10000000", val, 24*time.Hour))
}

func (s *CacheTestSuite) TestSet_BackendError() {
	raw, _ := json.Marshal(1)
	s.mock.ExpectSet("test:k", raw, time.Minute).SetErr(errors.New("READONLY"))

	err := s.cache.Set(context.Background(), "k", 1, time.Minute)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeCacheError))
}

func (s *CacheTestSuite) TestSet_UnencodableValue() {
	err := s.cache.Set(context.Background(), "k", make(chan int), time.Minute)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeSerialization))
}

func (s *CacheTestSuite) TestDelete() {
	s.mock.ExpectDel("test:a", "test:b").SetVal(2)
	s.NoError(s.cache.Delete(context.Background(), "a", "b"))
	s.NoError(s.cache.Delete(context.Background()))
}

func (s *CacheTestSuite) TestPing() {
	s.mock.ExpectPing().SetVal("PONG")
	s.NoError(s.cache.Ping(context.Background()))
	s.Equal("redis", s.cache.Name())
}

func TestCacheTestSuite(t *testing.T) {
	suite.Run(t, new(CacheTestSuite))
}

func TestEffectiveTTL_JitterBounds(t *testing.T) {
	c := NewCache(nil, nil, WithTTLJitter(0.1))
	for i := 0; i < 100; i++ {
		got := c.effectiveTTL(time.Hour)
		assert.GreaterOrEqual(t, got, 54*time.Minute)
		assert.LessOrEqual(t, got, 66*time.Minute)
	}
	assert.Equal(t, time.Duration(0), c.effectiveTTL(0))
}
