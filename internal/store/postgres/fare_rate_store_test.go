package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/logiflow/dispatch-backend/internal/store"
	"github.com/logiflow/dispatch-backend/types"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fareRateColumnNames = []string{
	"id", "center_id", "vehicle_type", "region", "fare_type",
	"base_fare", "extra_stop_fee", "extra_region_fee", "created_at", "updated_at",
}

func fareRateRows(rates ...types.FareRate) *pgxmock.Rows {
	rows := pgxmock.NewRows(fareRateColumnNames)
	for _, r := range rates {
		rows.AddRow(r.ID, r.CenterID, r.VehicleType, r.Region, r.FareType,
			r.BaseFare, r.ExtraStopFee, r.ExtraRegionFee, r.CreatedAt, r.UpdatedAt)
	}
	return rows
}

func TestFareRateStore_FindFareRate(t *testing.T) {
	ctx := context.Background()
	region := "Suwon"
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("basic rate by region", func(t *testing.T) {
		mock := newMock(t)
		s := NewFareRateStore(mock)

		mock.ExpectQuery("SELECT (.+) FROM fare_rates WHERE center_id = \\$1").
			WithArgs("c-1", "5T", &region, types.FareTypeBasic).
			WillReturnRows(fareRateRows(types.FareRate{
				ID: "r-1", CenterID: "c-1", VehicleType: "5T", Region: &region, FareType: types.FareTypeBasic,
				BaseFare: dec("120000"), ExtraStopFee: dec("0"), ExtraRegionFee: dec("0"), CreatedAt: ts, UpdatedAt: ts,
			}))

		got, err := s.FindFareRate(ctx, "c-1", "5T", &region, types.FareTypeBasic)
		require.NoError(t, err)
		assert.True(t, dec("120000").Equal(got.BaseFare))
		assert.Equal(t, "Suwon", *got.Region)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing rate", func(t *testing.T) {
		mock := newMock(t)
		s := NewFareRateStore(mock)

		mock.ExpectQuery("SELECT (.+) FROM fare_rates").
			WithArgs("c-1", "5T", (*string)(nil), types.FareTypeStopFee).
			WillReturnRows(fareRateRows())

		_, err := s.FindFareRate(ctx, "c-1", "5T", nil, types.FareTypeStopFee)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFareRateStore_ListFareRates(t *testing.T) {
	mock := newMock(t)
	s := NewFareRateStore(mock)

	mock.ExpectQuery("SELECT (.+) FROM fare_rates WHERE center_id = \\$1 AND vehicle_type = \\$2 ORDER BY").
		WithArgs("c-1", "5T").
		WillReturnRows(fareRateRows(
			types.FareRate{ID: "r-2", CenterID: "c-1", VehicleType: "5T", FareType: types.FareTypeStopFee,
				BaseFare: dec("0"), ExtraStopFee: dec("10000"), ExtraRegionFee: dec("20000")},
		))

	got, err := s.ListFareRates(context.Background(), types.FareRateFilter{CenterID: "c-1", VehicleType: "5T"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Region)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFareRateStore_UpsertFareRate(t *testing.T) {
	ctx := context.Background()
	region := "Yongin"
	rate := &types.FareRate{
		CenterID: "c-1", VehicleType: "1T", Region: &region, FareType: types.FareTypeBasic,
		BaseFare: dec("80000"), ExtraStopFee: dec("0"), ExtraRegionFee: dec("0"),
	}

	t.Run("upsert returns stored row", func(t *testing.T) {
		mock := newMock(t)
		s := NewFareRateStore(mock)
		saved := *rate
		saved.ID = "r-9"

		mock.ExpectQuery("INSERT INTO fare_rates (.+) ON CONFLICT").
			WithArgs("c-1", "1T", &region, types.FareTypeBasic, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnRows(fareRateRows(saved))

		got, err := s.UpsertFareRate(ctx, rate)
		require.NoError(t, err)
		assert.Equal(t, "r-9", got.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("foreign key failure is passed through", func(t *testing.T) {
		mock := newMock(t)
		s := NewFareRateStore(mock)

		mock.ExpectQuery("INSERT INTO fare_rates").
			WillReturnError(&pgconn.PgError{Code: "23503"})

		_, err := s.UpsertFareRate(ctx, rate)
		var pgErr *pgconn.PgError
		assert.ErrorAs(t, err, &pgErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFareRateStore_DeleteFareRate(t *testing.T) {
	mock := newMock(t)
	s := NewFareRateStore(mock)

	mock.ExpectExec("DELETE FROM fare_rates WHERE id = \\$1").
		WithArgs("r-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM fare_rates WHERE id = \\$1").
		WithArgs("r-404").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, s.DeleteFareRate(context.Background(), "r-1"))
	assert.ErrorIs(t, s.DeleteFareRate(context.Background(), "r-404"), store.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
