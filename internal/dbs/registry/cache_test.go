package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"childminder/internal/dbs/models"
	"childminder/internal/dbs/registry/mocks"
	"childminder/pkg/domain"
)

type CachingClientSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	upstream *mocks.MockClient
	cache    *MemoryCache
	metrics  *Metrics
	client   *CachingClient
}

func TestCachingClientSuite(t *testing.T) {
	suite.Run(t, new(CachingClientSuite))
}

func (s *CachingClientSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.upstream = mocks.NewMockClient(s.ctrl)
	s.cache = NewMemoryCache()
	s.metrics = NewMetrics(prometheus.NewRegistry())
	s.client = NewCachingClient(s.upstream, s.cache, time.Minute, WithCacheMetrics(s.metrics))
}

func (s *CachingClientSuite) record() *models.RegistryRecord {
	return &models.RegistryRecord{
		CertificateNumber: testNumber,
		DateOfBirth:       domain.Date{Year: 1985, Month: time.June, Day: 14},
		IssuedAt:          time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *CachingClientSuite) TestFoundRecordIsServedFromCache() {
	s.upstream.EXPECT().Lookup(gomock.Any(), testNumber).Return(s.record(), nil).Times(1)

	first, err := s.client.Lookup(context.Background(), testNumber)
	s.Require().NoError(err)
	second, err := s.client.Lookup(context.Background(), testNumber)
	s.Require().NoError(err)

	s.Equal(first, second)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.cacheHits))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.cacheMisses))
}

func (s *CachingClientSuite) TestNotFoundIsCached() {
	s.upstream.EXPECT().Lookup(gomock.Any(), testNumber).Return(nil, nil).Times(1)

	for range 3 {
		record, err := s.client.Lookup(context.Background(), testNumber)
		s.Require().NoError(err)
		s.Nil(record)
	}
}

func (s *CachingClientSuite) TestFailuresAreNotCached() {
	outage := NewLookupError(ErrorProviderOutage, "down", nil)
	gomock.InOrder(
		s.upstream.EXPECT().Lookup(gomock.Any(), testNumber).Return(nil, outage),
		s.upstream.EXPECT().Lookup(gomock.Any(), testNumber).Return(s.record(), nil),
	)

	_, err := s.client.Lookup(context.Background(), testNumber)
	s.ErrorIs(err, outage)

	record, err := s.client.Lookup(context.Background(), testNumber)
	s.Require().NoError(err)
	s.NotNil(record)
}

func (s *CachingClientSuite) TestBrokenCacheFallsThrough() {
	client := NewCachingClient(s.upstream, failingCache{}, time.Minute)
	s.upstream.EXPECT().Lookup(gomock.Any(), testNumber).Return(s.record(), nil)

	record, err := client.Lookup(context.Background(), testNumber)

	s.Require().NoError(err)
	s.NotNil(record)
}

type failingCache struct{}

func (failingCache) Get(context.Context, domain.CertificateNumber) (CacheEntry, error) {
	return CacheEntry{}, errors.New("cache offline")
}

func (failingCache) Put(context.Context, domain.CertificateNumber, CacheEntry, time.Duration) error {
	return errors.New("cache offline")
}

func TestMemoryCache_Expiry(t *testing.T) {
	now := time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)
	cache := NewMemoryCache()
	cache.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, testNumber, CacheEntry{Record: &models.RegistryRecord{CertificateInfo: "x"}}, time.Minute))

	entry, err := cache.Get(ctx, testNumber)
	require.NoError(t, err)
	assert.Equal(t, "x", entry.Record.CertificateInfo)

	entry.Record.CertificateInfo = "mutated"
	again, err := cache.Get(ctx, testNumber)
	require.NoError(t, err)
	assert.Equal(t, "x", again.Record.CertificateInfo, "cache must hand out copies")

	now = now.Add(time.Minute)
	_, err = cache.Get(ctx, testNumber)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, 1, cache.Purge())
}
