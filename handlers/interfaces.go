package handlers

import (
	"context"

	settlementservice "github.com/logiflow/dispatch-backend/models/settlement/service"
	"github.com/logiflow/dispatch-backend/types"
)

// SettlementServiceInterface defines the settlement operations needed by handlers
type SettlementServiceInterface interface {
	CalculateMonthlySettlement(ctx context.Context, driverID, yearMonth string, source types.SettlementSource) (*types.SettlementCalculationResult, error)
	Preview(ctx context.Context, driverID, yearMonth string, source types.SettlementSource) (*types.SettlementPreview, error)
	Create(ctx context.Context, actor types.Actor, in settlementservice.CreateSettlementInput) (*types.Settlement, error)
	Get(ctx context.Context, id string) (*types.Settlement, error)
	List(ctx context.Context, filter types.SettlementFilter) ([]types.Settlement, int, error)
	Update(ctx context.Context, actor types.Actor, id string, in settlementservice.UpdateSettlementInput) (*types.Settlement, error)
	Confirm(ctx context.Context, actor types.Actor, id string) (*types.Settlement, error)
	MarkPaid(ctx context.Context, actor types.Actor, id string) (*types.Settlement, error)
	Delete(ctx context.Context, actor types.Actor, id string) error
	EmergencyUnlock(ctx context.Context, actor types.Actor, id, reason string) (*types.Settlement, error)
	AuditTrail(ctx context.Context, id string) ([]types.AuditLogEntry, error)
	Statement(ctx context.Context, id string) ([]byte, *types.Settlement, error)
}

// FareQuoteServiceInterface computes quotes from registered rates
type FareQuoteServiceInterface interface {
	ComputeQuote(ctx context.Context, req types.FareQuoteRequest) (*types.FareQuote, error)
}

// FareRateServiceInterface manages the rate table
type FareRateServiceInterface interface {
	RegisterRate(ctx context.Context, rate *types.FareRate) (*types.FareRate, error)
	ListRates(ctx context.Context, filter types.FareRateFilter) ([]types.FareRate, error)
	DeleteRate(ctx context.Context, id string) error
}

// HealthChecker reports component health
type HealthChecker interface {
	CheckHealth(ctx context.Context) types.HealthCheck
}
