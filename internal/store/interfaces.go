// Package store defines the data-access contracts used by the settlement and
// fare services. Implementations live in internal/store/postgres.
package store

import (
	"context"
	"time"

	"github.com/logiflow/dispatch-backend/types"
)

// DriverStore resolves drivers.
type DriverStore interface {
	GetDriver(ctx context.Context, id string) (*types.Driver, error)
}

// CenterStore resolves loading centers.
type CenterStore interface {
	GetCenter(ctx context.Context, id string) (*types.Center, error)
}

// DispatchStore reads the dispatch records settlements are computed from.
// Both methods return records ordered by date ascending within [start, end].
type DispatchStore interface {
	ListTripRecords(ctx context.Context, driverID string, start, end time.Time) ([]types.TripRecord, error)
	ListCharterRecords(ctx context.Context, driverID string, start, end time.Time) ([]types.CharterRecord, error)
}

// FareRateStore reads and registers fare rates.
type FareRateStore interface {
	// FindFareRate returns ErrNotFound when no row matches. region is nil for STOP_FEE.
	FindFareRate(ctx context.Context, centerID, vehicleType string, region *string, fareType types.FareType) (*types.FareRate, error)
	ListFareRates(ctx context.Context, filter types.FareRateFilter) ([]types.FareRate, error)
	UpsertFareRate(ctx context.Context, rate *types.FareRate) (*types.FareRate, error)
	DeleteFareRate(ctx context.Context, id string) error
}

// SettlementStore owns settlement and settlement item rows.
type SettlementStore interface {
	// CreateSettlement inserts the settlement, its items and the audit row in
	// one transaction. Returns ErrConflict for a duplicate (driver, month).
	CreateSettlement(ctx context.Context, s *types.Settlement, audit types.AuditLogEntry) (*types.Settlement, error)
	GetSettlement(ctx context.Context, id string) (*types.Settlement, error)
	FindSettlement(ctx context.Context, driverID, yearMonth string) (*types.Settlement, error)
	ListSettlements(ctx context.Context, filter types.SettlementFilter) ([]types.Settlement, int, error)
	// ApplyTransition locks the row, checks ExpectedStatus, applies the patch
	// or deletion and inserts the audit row, all in one transaction. A status
	// check failure returns *StatusMismatchError and writes nothing.
	ApplyTransition(ctx context.Context, t types.SettlementTransition) (*types.Settlement, error)
}

// AuditStore reads audit rows. Writes happen inside SettlementStore transactions.
type AuditStore interface {
	ListAuditLogs(ctx context.Context, entityType, entityID string) ([]types.AuditLogEntry, error)
}
