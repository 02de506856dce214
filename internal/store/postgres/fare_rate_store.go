package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/logiflow/dispatch-backend/internal/store"
	"github.com/logiflow/dispatch-backend/types"
)

var _ store.FareRateStore = (*FareRateStore)(nil)

// FareRateStore persists registered fare rates.
type FareRateStore struct {
	db DBTX
}

func NewFareRateStore(db DBTX) *FareRateStore {
	return &FareRateStore{db: db}
}

const fareRateColumns = `id, center_id, vehicle_type, region, fare_type,
		base_fare, extra_stop_fee, extra_region_fee, created_at, updated_at`

func scanFareRate(row interface{ Scan(dest ...interface{}) error }) (*types.FareRate, error) {
	r := &types.FareRate{}
	err := row.Scan(
		&r.ID,
		&r.CenterID,
		&r.VehicleType,
		&r.Region,
		&r.FareType,
		&r.BaseFare,
		&r.ExtraStopFee,
		&r.ExtraRegionFee,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// FindFareRate reads the latest committed rate for the key. A nil region
// matches rows without a region.
func (s *FareRateStore) FindFareRate(ctx context.Context, centerID, vehicleType string, region *string, fareType types.FareType) (*types.FareRate, error) {
	query := `
		SELECT ` + fareRateColumns + `
		FROM fare_rates
		WHERE center_id = $1
		  AND vehicle_type = $2
		  AND COALESCE(region, '') = COALESCE($3, '')
		  AND fare_type = $4`

	rate, err := scanFareRate(s.db.QueryRow(ctx, query, centerID, vehicleType, region, fareType))
	if err != nil {
		return nil, mapError(err)
	}
	return rate, nil
}

// ListFareRates lists rates for a center, optionally narrowed to a vehicle type.
func (s *FareRateStore) ListFareRates(ctx context.Context, filter types.FareRateFilter) ([]types.FareRate, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.CenterID != "" {
		args = append(args, filter.CenterID)
		conds = append(conds, "center_id = $"+strconv.Itoa(len(args)))
	}
	if filter.VehicleType != "" {
		args = append(args, filter.VehicleType)
		conds = append(conds, "vehicle_type = $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + fareRateColumns + ` FROM fare_rates`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY vehicle_type, fare_type, region NULLS FIRST"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rates []types.FareRate
	for rows.Next() {
		r, err := scanFareRate(rows)
		if err != nil {
			return nil, err
		}
		rates = append(rates, *r)
	}
	return rates, rows.Err()
}

// UpsertFareRate inserts the rate or updates the amounts of the row sharing
// its unique key.
func (s *FareRateStore) UpsertFareRate(ctx context.Context, rate *types.FareRate) (*types.FareRate, error) {
	query := `
		INSERT INTO fare_rates (center_id, vehicle_type, region, fare_type,
		                        base_fare, extra_stop_fee, extra_region_fee)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (center_id, vehicle_type, (COALESCE(region, '')), fare_type)
		DO UPDATE SET base_fare = EXCLUDED.base_fare,
		              extra_stop_fee = EXCLUDED.extra_stop_fee,
		              extra_region_fee = EXCLUDED.extra_region_fee,
		              updated_at = now()
		RETURNING ` + fareRateColumns

	saved, err := scanFareRate(s.db.QueryRow(ctx, query,
		rate.CenterID,
		rate.VehicleType,
		rate.Region,
		rate.FareType,
		rate.BaseFare,
		rate.ExtraStopFee,
		rate.ExtraRegionFee,
	))
	if err != nil {
		return nil, mapError(err)
	}
	return saved, nil
}

// DeleteFareRate removes a rate by id.
func (s *FareRateStore) DeleteFareRate(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM fare_rates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
