package postgres

import (
	"testing"
	"time"

	"github.com/logiflow/dispatch-backend/types"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var settlementColumnNames = []string{
	"id", "driver_id", "year_month", "source", "status", "total_trips",
	"total_base_fare", "total_deductions", "total_additions", "final_amount", "notes",
	"created_by", "confirmed_by", "confirmed_at", "paid_at", "created_at", "updated_at",
}

var itemColumnNames = []string{
	"id", "settlement_id", "item_type", "description", "amount", "item_date", "trip_id", "charter_id",
}

func settlementRows(settlements ...types.Settlement) *pgxmock.Rows {
	rows := pgxmock.NewRows(settlementColumnNames)
	for _, s := range settlements {
		rows.AddRow(
			s.ID, s.DriverID, s.YearMonth, s.Source, s.Status, s.TotalTrips,
			s.TotalBaseFare, s.TotalDeductions, s.TotalAdditions, s.FinalAmount, s.Notes,
			s.CreatedBy, s.ConfirmedBy, s.ConfirmedAt, s.PaidAt, s.CreatedAt, s.UpdatedAt,
		)
	}
	return rows
}

func itemRows(items ...types.SettlementItem) *pgxmock.Rows {
	rows := pgxmock.NewRows(itemColumnNames)
	for _, it := range items {
		rows.AddRow(it.ID, it.SettlementID, it.Type, it.Description, it.Amount, it.Date, it.TripID, it.CharterID)
	}
	return rows
}

func sampleSettlement(status types.SettlementStatus) types.Settlement {
	ts := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	return types.Settlement{
		ID:              "s-1",
		DriverID:        "d-1",
		YearMonth:       "2024-01",
		Source:          types.SettlementSourceTrip,
		Status:          status,
		TotalTrips:      3,
		TotalBaseFare:   dec("300000"),
		TotalDeductions: dec("10000"),
		TotalAdditions:  decimal.Zero,
		FinalAmount:     dec("290000"),
		Notes:           "",
		CreatedBy:       "admin-1",
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
}
