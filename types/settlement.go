package types

import (
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

type SettlementStatus string

const (
	SettlementStatusDraft     SettlementStatus = "DRAFT"
	SettlementStatusConfirmed SettlementStatus = "CONFIRMED"
	SettlementStatusPaid      SettlementStatus = "PAID"
)

func (s SettlementStatus) IsValid() bool {
	switch s {
	case SettlementStatusDraft, SettlementStatusConfirmed, SettlementStatusPaid:
		return true
	}
	return false
}

// SettlementSource selects which record collection a settlement is computed from.
type SettlementSource string

const (
	SettlementSourceTrip    SettlementSource = "TRIP"
	SettlementSourceCharter SettlementSource = "CHARTER"
)

func (s SettlementSource) IsValid() bool {
	return s == SettlementSourceTrip || s == SettlementSourceCharter
}

type SettlementItemType string

const (
	SettlementItemTrip      SettlementItemType = "TRIP"
	SettlementItemDeduction SettlementItemType = "DEDUCTION"
	SettlementItemAddition  SettlementItemType = "ADDITION"
)

// SettlementItem is one line of a settlement. Deductions carry negative amounts.
type SettlementItem struct {
	ID           string             `json:"id,omitempty"`
	SettlementID string             `json:"settlementId,omitempty"`
	Type         SettlementItemType `json:"type"`
	Description  string             `json:"description"`
	Amount       decimal.Decimal    `json:"amount"`
	Date         time.Time          `json:"date"`
	TripID       *string            `json:"tripId,omitempty"`
	CharterID    *string            `json:"charterId,omitempty"`
}

type Settlement struct {
	ID              string           `json:"id"`
	DriverID        string           `json:"driverId"`
	YearMonth       string           `json:"yearMonth"`
	Source          SettlementSource `json:"source"`
	Status          SettlementStatus `json:"status"`
	TotalTrips      int              `json:"totalTrips"`
	TotalBaseFare   decimal.Decimal  `json:"totalBaseFare"`
	TotalDeductions decimal.Decimal  `json:"totalDeductions"`
	TotalAdditions  decimal.Decimal  `json:"totalAdditions"`
	FinalAmount     decimal.Decimal  `json:"finalAmount"`
	Notes           string           `json:"notes,omitempty"`
	CreatedBy       string           `json:"createdBy"`
	ConfirmedBy     *string          `json:"confirmedBy,omitempty"`
	ConfirmedAt     *time.Time       `json:"confirmedAt,omitempty"`
	PaidAt          *time.Time       `json:"paidAt,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
	Items           []SettlementItem `json:"items,omitempty"`
}

// ApplyResult copies calculated totals and items onto the settlement.
func (s *Settlement) ApplyResult(r *SettlementCalculationResult) {
	s.TotalTrips = r.TotalTrips
	s.TotalBaseFare = r.TotalBaseFare
	s.TotalDeductions = r.TotalDeductions
	s.TotalAdditions = r.TotalAdditions
	s.FinalAmount = r.FinalAmount
	s.Items = r.Items
}

type SettlementCalculationResult struct {
	TotalTrips      int              `json:"totalTrips"`
	TotalBaseFare   decimal.Decimal  `json:"totalBaseFare"`
	TotalDeductions decimal.Decimal  `json:"totalDeductions"`
	TotalAdditions  decimal.Decimal  `json:"totalAdditions"`
	FinalAmount     decimal.Decimal  `json:"finalAmount"`
	Items           []SettlementItem `json:"items"`
}

type SettlementPreview struct {
	DriverID   string                       `json:"driverId"`
	DriverName string                       `json:"driverName"`
	YearMonth  string                       `json:"yearMonth"`
	Source     SettlementSource             `json:"source"`
	Result     *SettlementCalculationResult `json:"result"`
	Warnings   []string                     `json:"warnings"`
	CanConfirm bool                         `json:"canConfirm"`
}

// SettlementFilter narrows List queries. Zero values are ignored.
type SettlementFilter struct {
	DriverID  string
	YearMonth string
	Status    SettlementStatus
	Limit     int
	Offset    int
}

// SettlementPatch describes a lifecycle write. Nil fields are left unchanged;
// ClearConfirmation resets confirmedBy and confirmedAt.
type SettlementPatch struct {
	Status            *SettlementStatus
	Notes             *string
	ConfirmedBy       *string
	ConfirmedAt       *time.Time
	PaidAt            *time.Time
	ClearConfirmation bool
	// Result replaces totals and owned items when set.
	Result *SettlementCalculationResult
}

// SettlementTransition is a guarded mutation committed together with its
// audit row. ExpectedStatus is checked under a row lock.
type SettlementTransition struct {
	SettlementID   string
	ExpectedStatus []SettlementStatus
	Patch          SettlementPatch
	Audit          AuditLogEntry
	// Delete removes the settlement and its items instead of patching.
	Delete bool
}

var yearMonthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// YearMonth is a calendar month in the canonical "YYYY-MM" form.
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth accepts only the strict "YYYY-MM" form.
func ParseYearMonth(s string) (YearMonth, bool) {
	if !yearMonthPattern.MatchString(s) {
		return YearMonth{}, false
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, false
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, true
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Range returns the inclusive bounds of the month in loc: the first day at
// 00:00:00 and the last day at 23:59:59.999.
func (ym YearMonth) Range(loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return start, end
}
