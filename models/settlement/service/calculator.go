package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/logiflow/dispatch-backend/logger"
	"github.com/logiflow/dispatch-backend/pkg/valueobjects"
	"github.com/logiflow/dispatch-backend/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	DefaultAbsenceRate    = decimal.New(10, -2)
	DefaultSubstituteRate = decimal.New(5, -2)
)

// Calculator turns dispatch records into settlement totals and line items.
// It is pure: no storage access, no rounding.
type Calculator struct {
	absenceRate    decimal.Decimal
	substituteRate decimal.Decimal
	loc            *time.Location
	log            *zap.SugaredLogger
}

// NewCalculator returns a calculator using the given default deduction rates.
// The rates only apply when a record carries no explicit deduction amount.
func NewCalculator(absenceRate, substituteRate decimal.Decimal) *Calculator {
	return &Calculator{
		absenceRate:    absenceRate,
		substituteRate: substituteRate,
		loc:            time.UTC,
		log:            logger.GetLogger(),
	}
}

// WithLocation returns a copy that dates items in loc, the zone the
// settlement month is cut in.
func (c *Calculator) WithLocation(loc *time.Location) *Calculator {
	cp := *c
	if loc != nil {
		cp.loc = loc
	}
	return &cp
}

// NewDefaultCalculator uses 10% for absences and 5% for substitutions.
func NewDefaultCalculator() *Calculator {
	return NewCalculator(DefaultAbsenceRate, DefaultSubstituteRate)
}

// line is what one source record contributes to a settlement.
type line struct {
	counted bool
	items   []types.SettlementItem
}

// CalculateTrips settles fixed-route trip records.
func (c *Calculator) CalculateTrips(records []types.TripRecord) *types.SettlementCalculationResult {
	sorted := make([]types.TripRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	lines := make([]line, 0, len(sorted))
	for _, r := range sorted {
		if l, ok := c.tripLine(r); ok {
			lines = append(lines, l)
		}
	}
	return aggregate(lines)
}

func (c *Calculator) tripLine(r types.TripRecord) (line, bool) {
	tripID := r.ID
	date := r.Date.In(c.loc)
	trip := types.SettlementItem{
		Type:        types.SettlementItemTrip,
		Description: tripDescription(r.RouteName, date),
		Amount:      r.DriverFare,
		Date:        date,
		TripID:      &tripID,
	}

	var rate decimal.Decimal
	var label string
	switch r.Status {
	case types.RecordStatusScheduled:
		return line{}, false
	case types.RecordStatusCompleted:
		return line{counted: true, items: []types.SettlementItem{trip}}, true
	case types.RecordStatusAbsence:
		rate, label = c.absenceRate, "Absence deduction"
	case types.RecordStatusSubstitute:
		rate, label = c.substituteRate, "Substitute deduction"
	default:
		c.log.Warnw("Skipping trip record with unknown status",
			"tripId", r.ID,
			"driverId", r.DriverID,
			"status", r.Status)
		return line{counted: true}, true
	}

	magnitude := valueobjects.Won(r.DriverFare).MulRate(rate)
	if r.DeductionAmount != nil {
		magnitude = valueobjects.Won(*r.DeductionAmount).Abs()
	} else {
		label = fmt.Sprintf("%s (%s%%)", label, rate.Shift(2).String())
	}

	deduction := types.SettlementItem{
		Type:        types.SettlementItemDeduction,
		Description: label,
		Amount:      magnitude.Neg().Amount(),
		Date:        date,
		TripID:      &tripID,
	}
	return line{counted: true, items: []types.SettlementItem{trip, deduction}}, true
}

func tripDescription(route string, date time.Time) string {
	if route != "" {
		return route
	}
	return "Trip " + date.Format("2006-01-02")
}

// CalculateCharters settles charter requests. Every charter is one TRIP item
// at the full driver fare; negotiated charters get an informational ADDITION
// of zero and a registered extra fare becomes a real ADDITION. There are no
// deductions in this variant.
func (c *Calculator) CalculateCharters(records []types.CharterRecord) *types.SettlementCalculationResult {
	sorted := make([]types.CharterRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	lines := make([]line, 0, len(sorted))
	for _, r := range sorted {
		charterID := r.ID
		date := r.Date.In(c.loc)
		items := []types.SettlementItem{{
			Type:        types.SettlementItemTrip,
			Description: charterDescription(r, date),
			Amount:      r.DriverFare,
			Date:        date,
			CharterID:   &charterID,
		}}
		if r.IsNegotiated {
			desc := "Negotiated fare"
			if r.NegotiatedFare != nil {
				desc = fmt.Sprintf("Negotiated fare %s", valueobjects.FormatKRW(*r.NegotiatedFare))
			}
			items = append(items, types.SettlementItem{
				Type:        types.SettlementItemAddition,
				Description: desc,
				Amount:      decimal.Zero,
				Date:        date,
				CharterID:   &charterID,
			})
		}
		if r.ExtraFare != nil && !r.ExtraFare.IsZero() {
			items = append(items, types.SettlementItem{
				Type:        types.SettlementItemAddition,
				Description: "Extra fare",
				Amount:      *r.ExtraFare,
				Date:        date,
				CharterID:   &charterID,
			})
		}
		lines = append(lines, line{counted: true, items: items})
	}
	return aggregate(lines)
}

func charterDescription(r types.CharterRecord, date time.Time) string {
	if len(r.Regions) == 0 {
		return "Charter " + date.Format("2006-01-02")
	}
	return fmt.Sprintf("Charter %s (%s)", strings.Join(r.Regions, ", "), r.VehicleType)
}

// aggregate sums lines into totals. Deduction items are negative, so their
// magnitude is added to TotalDeductions and FinalAmount always equals the
// signed sum of all item amounts.
func aggregate(lines []line) *types.SettlementCalculationResult {
	var base, deductions, additions valueobjects.Money
	result := &types.SettlementCalculationResult{Items: []types.SettlementItem{}}

	for _, l := range lines {
		if l.counted {
			result.TotalTrips++
		}
		for _, item := range l.items {
			amount := valueobjects.Won(item.Amount)
			switch item.Type {
			case types.SettlementItemTrip:
				base = base.Add(amount)
			case types.SettlementItemDeduction:
				deductions = deductions.Add(amount.Abs())
			case types.SettlementItemAddition:
				additions = additions.Add(amount)
			}
			result.Items = append(result.Items, item)
		}
	}

	result.TotalBaseFare = base.Amount()
	result.TotalDeductions = deductions.Amount()
	result.TotalAdditions = additions.Amount()
	result.FinalAmount = base.Sub(deductions).Add(additions).Amount()
	return result
}

// MonthRange returns the inclusive bounds of ym in loc.
func MonthRange(ym types.YearMonth, loc *time.Location) (time.Time, time.Time) {
	return ym.Range(loc)
}
