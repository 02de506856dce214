package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	apperrors "github.com/logiflow/dispatch-backend/errors"
	"github.com/logiflow/dispatch-backend/internal/store"
	"github.com/logiflow/dispatch-backend/logger"
	fare "github.com/logiflow/dispatch-backend/models/fare/service"
	"github.com/logiflow/dispatch-backend/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.IsTest = true
}

type MockFareRateStore struct{ mock.Mock }

func (m *MockFareRateStore) FindFareRate(ctx context.Context, centerID, vehicleType string, region *string, fareType types.FareType) (*types.FareRate, error) {
	key := ""
	if region != nil {
		key = *region
	}
	args := m.Called(ctx, centerID, vehicleType, key, fareType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.FareRate), args.Error(1)
}
func (m *MockFareRateStore) ListFareRates(ctx context.Context, filter types.FareRateFilter) ([]types.FareRate, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.FareRate), args.Error(1)
}
func (m *MockFareRateStore) UpsertFareRate(ctx context.Context, rate *types.FareRate) (*types.FareRate, error) {
	args := m.Called(ctx, rate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.FareRate), args.Error(1)
}
func (m *MockFareRateStore) DeleteFareRate(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type MockCenterStore struct{ mock.Mock }

func (m *MockCenterStore) GetCenter(ctx context.Context, id string) (*types.Center, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Center), args.Error(1)
}

var ctx = context.Background()

const (
	centerID        = "0d7e4c1a-52b9-4f3e-8c6a-9b1d2e3f4a51"
	missingCenterID = "0d7e4c1a-52b9-4f3e-8c6a-9b1d2e3f4a99"
	rateID          = "7a9c3e5f-1b2d-4e6f-8a0b-c1d2e3f4a5b6"
	missingRateID   = "7a9c3e5f-1b2d-4e6f-8a0b-c1d2e3f4a599"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func basic(region, baseFare string) *types.FareRate {
	return &types.FareRate{ID: "r-" + region, CenterID: centerID, VehicleType: "5T", Region: &region, FareType: types.FareTypeBasic, BaseFare: dec(baseFare)}
}

func stopFee(stop, region string) *types.FareRate {
	return &types.FareRate{ID: "r-stop", CenterID: centerID, VehicleType: "5T", FareType: types.FareTypeStopFee, ExtraStopFee: dec(stop), ExtraRegionFee: dec(region)}
}

type quoteFixture struct {
	rates   *MockFareRateStore
	centers *MockCenterStore
	metrics *fare.QuoteMetrics
	reg     *prometheus.Registry
	svc     *fare.QuoteService
}

func newQuoteFixture() *quoteFixture {
	f := &quoteFixture{
		rates:   new(MockFareRateStore),
		centers: new(MockCenterStore),
		reg:     prometheus.NewRegistry(),
	}
	f.metrics = fare.NewQuoteMetrics(f.reg)
	f.svc = fare.NewQuoteService(f.rates, f.centers, f.metrics)
	f.centers.On("GetCenter", ctx, centerID).Return(&types.Center{ID: centerID, Name: "Icheon Hub"}, nil).Maybe()
	return f
}

func (f *quoteFixture) basicRate(region string, rate *types.FareRate) {
	if rate == nil {
		f.rates.On("FindFareRate", ctx, centerID, "5T", region, types.FareTypeBasic).Return(nil, store.ErrNotFound)
		return
	}
	f.rates.On("FindFareRate", ctx, centerID, "5T", region, types.FareTypeBasic).Return(rate, nil)
}

func (f *quoteFixture) stopRate(rate *types.FareRate) {
	if rate == nil {
		f.rates.On("FindFareRate", ctx, centerID, "5T", "", types.FareTypeStopFee).Return(nil, store.ErrNotFound)
		return
	}
	f.rates.On("FindFareRate", ctx, centerID, "5T", "", types.FareTypeStopFee).Return(rate, nil)
}

func TestComputeQuote_SingleRegionSingleStop(t *testing.T) {
	f := newQuoteFixture()
	f.basicRate("Suwon", basic("Suwon", "150000"))
	f.stopRate(stopFee("20000", "30000"))

	q, err := f.svc.ComputeQuote(ctx, types.FareQuoteRequest{CenterID: centerID, VehicleType: "5T", Regions: []string{"Suwon"}, StopCount: 1})
	require.NoError(t, err)

	assert.True(t, q.Complete)
	assert.True(t, q.StopFare.IsZero())
	assert.True(t, q.RegionFare.IsZero())
	assert.True(t, dec("150000").Equal(q.TotalFare))
	assert.True(t, q.TotalFare.Equal(q.BaseFare))
	assert.Empty(t, q.Metadata.MissingRates)
	assert.Equal(t, "Icheon Hub", q.Metadata.CenterName)
}

func TestComputeQuote_Composition(t *testing.T) {
	f := newQuoteFixture()
	f.basicRate("Suwon", basic("Suwon", "150000"))
	f.basicRate("Yongin", basic("Yongin", "180000"))
	f.basicRate("Osan", basic("Osan", "120000"))
	f.stopRate(stopFee("20000", "30000"))

	q, err := f.svc.ComputeQuote(ctx, types.FareQuoteRequest{
		CenterID:        centerID,
		VehicleType:     "5T",
		Regions:         []string{" Suwon", "Yongin", "Osan", "Suwon "},
		StopCount:       5,
		ExtraAdjustment: dec("-15000"),
	})
	require.NoError(t, err)

	assert.True(t, dec("180000").Equal(q.BaseFare), "highest region base fare wins")
	assert.True(t, dec("80000").Equal(q.StopFare))
	assert.True(t, dec("60000").Equal(q.RegionFare))
	assert.True(t, dec("-15000").Equal(q.ExtraFare))
	assert.True(t, dec("305000").Equal(q.TotalFare))
	require.Len(t, q.Metadata.RegionRates, 3)
	assert.Equal(t, "Suwon", q.Metadata.RegionRates[0].Region)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.QuotesCounter("complete")))
}

func TestComputeQuote_MissingBasicRates(t *testing.T) {
	f := newQuoteFixture()
	f.basicRate("Suwon", basic("Suwon", "150000"))
	f.basicRate("Yongin", nil)
	f.basicRate("Pyeongtaek", nil)

	_, err := f.svc.ComputeQuote(ctx, types.FareQuoteRequest{CenterID: centerID, VehicleType: "5T", Regions: []string{"Suwon", "Yongin", "Pyeongtaek"}, StopCount: 3})

	require.True(t, apperrors.IsType(err, apperrors.MissingRatesError))
	appErr, _ := apperrors.As(err)
	detail, ok := appErr.Data.(*apperrors.MissingRatesDetail)
	require.True(t, ok)
	assert.Equal(t, apperrors.RateClassBasic, detail.RateClass)
	assert.Equal(t, []string{"Yongin", "Pyeongtaek"}, detail.MissingRegions)
	assert.Equal(t, "Icheon Hub", detail.CenterName)
	assert.Equal(t, "5T", detail.VehicleType)
	f.rates.AssertNotCalled(t, "FindFareRate", ctx, centerID, "5T", "", types.FareTypeStopFee)
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.MissingCounter(apperrors.RateClassBasic)))
}

func TestComputeQuote_MissingStopFee(t *testing.T) {
	f := newQuoteFixture()
	f.basicRate("Suwon", basic("Suwon", "150000"))
	f.stopRate(nil)

	_, err := f.svc.ComputeQuote(ctx, types.FareQuoteRequest{CenterID: centerID, VehicleType: "5T", Regions: []string{"Suwon"}, StopCount: 2})

	require.True(t, apperrors.IsType(err, apperrors.MissingRatesError))
	appErr, _ := apperrors.As(err)
	detail := appErr.Data.(*apperrors.MissingRatesDetail)
	assert.Equal(t, apperrors.RateClassStopFee, detail.RateClass)
	assert.Empty(t, detail.MissingRegions)
	assert.Equal(t, "Stop fee rate is not registered", appErr.Message)
}

func TestComputeQuote_Partial(t *testing.T) {
	t.Run("missing region uses available rates", func(t *testing.T) {
		f := newQuoteFixture()
		f.basicRate("Suwon", basic("Suwon", "150000"))
		f.basicRate("Yongin", nil)
		f.stopRate(stopFee("20000", "30000"))

		q, err := f.svc.ComputeQuote(ctx, types.FareQuoteRequest{CenterID: centerID, VehicleType: "5T", Regions: []string{"Suwon", "Yongin"}, StopCount: 2, AllowPartial: true})
		require.NoError(t, err)

		assert.False(t, q.Complete)
		require.Len(t, q.Metadata.MissingRates, 1)
		assert.Equal(t, apperrors.RateClassBasic, q.Metadata.MissingRates[0].RateClass)
		assert.Equal(t, "Yongin", *q.Metadata.MissingRates[0].Region)
		assert.True(t, dec("200000").Equal(q.TotalFare))
		assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.QuotesCounter("partial")))
	})

	t.Run("missing stop fee", func(t *testing.T) {
		f := newQuoteFixture()
		f.basicRate("Suwon", basic("Suwon", "150000"))
		f.stopRate(nil)

		q, err := f.svc.ComputeQuote(ctx, types.FareQuoteRequest{CenterID: centerID, VehicleType: "5T", Regions: []string{"Suwon"}, StopCount: 3, ExtraAdjustment: dec("5000"), AllowPartial: true})
		require.NoError(t, err)

		assert.False(t, q.Complete)
		require.Len(t, q.Metadata.MissingRates, 1)
		assert.Equal(t, apperrors.RateClassStopFee, q.Metadata.MissingRates[0].RateClass)
		assert.Nil(t, q.Metadata.MissingRates[0].Region)
		assert.True(t, dec("155000").Equal(q.TotalFare))
	})

	t.Run("nothing registered still fails", func(t *testing.T) {
		f := newQuoteFixture()
		f.basicRate("Suwon", nil)
		f.stopRate(nil)

		_, err := f.svc.ComputeQuote(ctx, types.FareQuoteRequest{CenterID: centerID, VehicleType: "5T", Regions: []string{"Suwon"}, StopCount: 1, AllowPartial: true})
		require.True(t, apperrors.IsType(err, apperrors.MissingRatesError))
		appErr, _ := apperrors.As(err)
		assert.Equal(t, []string{"Suwon"}, appErr.Data.(*apperrors.MissingRatesDetail).MissingRegions)
	})
}

func TestComputeQuote_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  types.FareQuoteRequest
		want apperrors.ErrorType
	}{
		{"no regions", types.FareQuoteRequest{CenterID: centerID, VehicleType: "5T", StopCount: 1}, apperrors.MissingParameterError},
		{"blank regions", types.FareQuoteRequest{CenterID: centerID, VehicleType: "5T", Regions: []string{" ", ""}, StopCount: 1}, apperrors.MissingParameterError},
		{"too few stops", types.FareQuoteRequest{CenterID: centerID, VehicleType: "5T", Regions: []string{"Suwon", "Osan"}, StopCount: 1}, apperrors.ValidationError},
		{"no center", types.FareQuoteRequest{VehicleType: "5T", Regions: []string{"Suwon"}, StopCount: 1}, apperrors.MissingParameterError},
		{"no vehicle type", types.FareQuoteRequest{CenterID: centerID, Regions: []string{"Suwon"}, StopCount: 1}, apperrors.MissingParameterError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newQuoteFixture()
			_, err := f.svc.ComputeQuote(ctx, tt.req)
			assert.True(t, apperrors.IsType(err, tt.want), "got %v", err)
			f.rates.AssertNotCalled(t, "FindFareRate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestComputeQuote_DuplicateRegionsCountOnce(t *testing.T) {
	f := newQuoteFixture()
	f.basicRate("Suwon", basic("Suwon", "150000"))
	f.stopRate(stopFee("20000", "30000"))

	q, err := f.svc.ComputeQuote(ctx, types.FareQuoteRequest{CenterID: centerID, VehicleType: "5T", Regions: []string{"Suwon", "Suwon"}, StopCount: 1})
	require.NoError(t, err)
	assert.True(t, q.RegionFare.IsZero())
	f.rates.AssertNumberOfCalls(t, "FindFareRate", 2)
}

func TestComputeQuote_UnknownCenter(t *testing.T) {
	f := &quoteFixture{rates: new(MockFareRateStore), centers: new(MockCenterStore)}
	f.svc = fare.NewQuoteService(f.rates, f.centers, nil)
	f.centers.On("GetCenter", ctx, missingCenterID).Return(nil, store.ErrNotFound)

	_, err := f.svc.ComputeQuote(ctx, types.FareQuoteRequest{CenterID: missingCenterID, VehicleType: "5T", Regions: []string{"Suwon"}, StopCount: 1})
	assert.True(t, apperrors.IsType(err, apperrors.NotFoundError))
}

func TestComputeQuote_MalformedCenterID(t *testing.T) {
	f := newQuoteFixture()

	_, err := f.svc.ComputeQuote(ctx, types.FareQuoteRequest{CenterID: "c-1", VehicleType: "5T", Regions: []string{"Suwon"}, StopCount: 1})
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, apperrors.NotFoundError, appErr.Type)
	assert.Equal(t, http.StatusNotFound, appErr.GetHTTPStatus())
	f.centers.AssertNotCalled(t, "GetCenter", mock.Anything, mock.Anything)
	f.rates.AssertNotCalled(t, "FindFareRate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestComputeQuote_StoreFailure(t *testing.T) {
	f := newQuoteFixture()
	f.rates.On("FindFareRate", ctx, centerID, "5T", "Suwon", types.FareTypeBasic).Return(nil, errors.New("timeout"))

	_, err := f.svc.ComputeQuote(ctx, types.FareQuoteRequest{CenterID: centerID, VehicleType: "5T", Regions: []string{"Suwon"}, StopCount: 1})
	assert.True(t, apperrors.IsType(err, apperrors.DatabaseError))
}
