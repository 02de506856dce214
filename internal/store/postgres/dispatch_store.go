package postgres

import (
	"context"
	"time"

	"github.com/logiflow/dispatch-backend/internal/store"
	"github.com/logiflow/dispatch-backend/types"
	"github.com/shopspring/decimal"
)

var _ store.DispatchStore = (*DispatchStore)(nil)

// DispatchStore reads trip and charter records for settlement.
type DispatchStore struct {
	db DBTX
}

func NewDispatchStore(db DBTX) *DispatchStore {
	return &DispatchStore{db: db}
}

// ListTripRecords returns a driver's trip records within [start, end] by date.
func (s *DispatchStore) ListTripRecords(ctx context.Context, driverID string, start, end time.Time) ([]types.TripRecord, error) {
	query := `
		SELECT id, trip_date, driver_id, vehicle_id, route_name, status,
		       driver_fare, billing_fare, deduction_amount,
		       substitute_driver_id, substitute_fare, notes
		FROM trip_records
		WHERE driver_id = $1 AND trip_date BETWEEN $2 AND $3
		ORDER BY trip_date ASC, created_at ASC`

	rows, err := s.db.Query(ctx, query, driverID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []types.TripRecord
	for rows.Next() {
		var (
			r              types.TripRecord
			deduction      decimal.NullDecimal
			substituteFare decimal.NullDecimal
		)
		err := rows.Scan(
			&r.ID,
			&r.Date,
			&r.DriverID,
			&r.VehicleID,
			&r.RouteName,
			&r.Status,
			&r.DriverFare,
			&r.BillingFare,
			&deduction,
			&r.SubstituteDriverID,
			&substituteFare,
			&r.Notes,
		)
		if err != nil {
			return nil, err
		}
		r.DeductionAmount = nullDecimalPtr(deduction)
		r.SubstituteFare = nullDecimalPtr(substituteFare)
		records = append(records, r)
	}
	return records, rows.Err()
}

// ListCharterRecords returns a driver's non-cancelled charters within [start, end].
func (s *DispatchStore) ListCharterRecords(ctx context.Context, driverID string, start, end time.Time) ([]types.CharterRecord, error) {
	query := `
		SELECT id, request_date, driver_id, center_id, vehicle_type, regions, stop_count,
		       driver_fare, billing_fare, extra_fare, is_negotiated, negotiated_fare, notes
		FROM charter_requests
		WHERE driver_id = $1
		  AND request_date BETWEEN $2 AND $3
		  AND cancelled_at IS NULL
		ORDER BY request_date ASC, created_at ASC`

	rows, err := s.db.Query(ctx, query, driverID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []types.CharterRecord
	for rows.Next() {
		var (
			r          types.CharterRecord
			extra      decimal.NullDecimal
			negotiated decimal.NullDecimal
		)
		err := rows.Scan(
			&r.ID,
			&r.Date,
			&r.DriverID,
			&r.CenterID,
			&r.VehicleType,
			&r.Regions,
			&r.StopCount,
			&r.DriverFare,
			&r.BillingFare,
			&extra,
			&r.IsNegotiated,
			&negotiated,
			&r.Notes,
		)
		if err != nil {
			return nil, err
		}
		r.ExtraFare = nullDecimalPtr(extra)
		r.NegotiatedFare = nullDecimalPtr(negotiated)
		records = append(records, r)
	}
	return records, rows.Err()
}

func nullDecimalPtr(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	v := n.Decimal
	return &v
}
