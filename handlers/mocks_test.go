package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/logiflow/dispatch-backend/logger"
	"github.com/logiflow/dispatch-backend/middleware"
	settlementservice "github.com/logiflow/dispatch-backend/models/settlement/service"
	"github.com/logiflow/dispatch-backend/types"
	"github.com/stretchr/testify/mock"
)

func init() {
	logger.IsTest = true
	gin.SetMode(gin.TestMode)
}

type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) CalculateMonthlySettlement(ctx context.Context, driverID, yearMonth string, source types.SettlementSource) (*types.SettlementCalculationResult, error) {
	args := m.Called(ctx, driverID, yearMonth, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SettlementCalculationResult), args.Error(1)
}

func (m *MockSettlementService) Preview(ctx context.Context, driverID, yearMonth string, source types.SettlementSource) (*types.SettlementPreview, error) {
	args := m.Called(ctx, driverID, yearMonth, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.SettlementPreview), args.Error(1)
}

func (m *MockSettlementService) Create(ctx context.Context, actor types.Actor, in settlementservice.CreateSettlementInput) (*types.Settlement, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Settlement), args.Error(1)
}

func (m *MockSettlementService) Get(ctx context.Context, id string) (*types.Settlement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Settlement), args.Error(1)
}

func (m *MockSettlementService) List(ctx context.Context, filter types.SettlementFilter) ([]types.Settlement, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]types.Settlement), args.Int(1), args.Error(2)
}

func (m *MockSettlementService) Update(ctx context.Context, actor types.Actor, id string, in settlementservice.UpdateSettlementInput) (*types.Settlement, error) {
	args := m.Called(ctx, actor, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Settlement), args.Error(1)
}

func (m *MockSettlementService) Confirm(ctx context.Context, actor types.Actor, id string) (*types.Settlement, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Settlement), args.Error(1)
}

func (m *MockSettlementService) MarkPaid(ctx context.Context, actor types.Actor, id string) (*types.Settlement, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Settlement), args.Error(1)
}

func (m *MockSettlementService) Delete(ctx context.Context, actor types.Actor, id string) error {
	args := m.Called(ctx, actor, id)
	return args.Error(0)
}

func (m *MockSettlementService) EmergencyUnlock(ctx context.Context, actor types.Actor, id, reason string) (*types.Settlement, error) {
	args := m.Called(ctx, actor, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Settlement), args.Error(1)
}

func (m *MockSettlementService) AuditTrail(ctx context.Context, id string) ([]types.AuditLogEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.AuditLogEntry), args.Error(1)
}

func (m *MockSettlementService) Statement(ctx context.Context, id string) ([]byte, *types.Settlement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]byte), args.Get(1).(*types.Settlement), args.Error(2)
}

type MockQuoteService struct {
	mock.Mock
}

func (m *MockQuoteService) ComputeQuote(ctx context.Context, req types.FareQuoteRequest) (*types.FareQuote, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.FareQuote), args.Error(1)
}

type MockRateService struct {
	mock.Mock
}

func (m *MockRateService) RegisterRate(ctx context.Context, rate *types.FareRate) (*types.FareRate, error) {
	args := m.Called(ctx, rate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.FareRate), args.Error(1)
}

func (m *MockRateService) ListRates(ctx context.Context, filter types.FareRateFilter) ([]types.FareRate, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.FareRate), args.Error(1)
}

func (m *MockRateService) DeleteRate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) CheckHealth(ctx context.Context) types.HealthCheck {
	args := m.Called(ctx)
	return args.Get(0).(types.HealthCheck)
}

// asActor stands in for AuthMiddleware in handler tests.
func asActor(actor types.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(string(middleware.UserIDKey), actor.UserID)
		c.Set(string(middleware.UserRoleKey), actor.Role)
		c.Next()
	}
}

func newTestRouter(actor *types.Actor) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	if actor != nil {
		r.Use(asActor(*actor))
	}
	return r
}
