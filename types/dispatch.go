package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type RecordStatus string

const (
	RecordStatusCompleted  RecordStatus = "COMPLETED"
	RecordStatusAbsence    RecordStatus = "ABSENCE"
	RecordStatusSubstitute RecordStatus = "SUBSTITUTE"
	RecordStatusScheduled  RecordStatus = "SCHEDULED"
)

// TripRecord is one fixed-route dispatch for a driver on a date. Read-only
// input to settlement calculation.
type TripRecord struct {
	ID                 string           `json:"id"`
	Date               time.Time        `json:"date"`
	DriverID           string           `json:"driverId"`
	VehicleID          *string          `json:"vehicleId,omitempty"`
	RouteName          string           `json:"routeName"`
	Status             RecordStatus     `json:"status"`
	DriverFare         decimal.Decimal  `json:"driverFare"`
	BillingFare        decimal.Decimal  `json:"billingFare"`
	DeductionAmount    *decimal.Decimal `json:"deductionAmount,omitempty"`
	SubstituteDriverID *string          `json:"substituteDriverId,omitempty"`
	SubstituteFare     *decimal.Decimal `json:"substituteFare,omitempty"`
	Notes              string           `json:"notes,omitempty"`
}

// CharterRecord is an ad-hoc vehicle request served by a driver. Cancelled
// charters are never returned by the store.
type CharterRecord struct {
	ID             string           `json:"id"`
	Date           time.Time        `json:"date"`
	DriverID       string           `json:"driverId"`
	CenterID       string           `json:"centerId"`
	VehicleType    string           `json:"vehicleType"`
	Regions        []string         `json:"regions"`
	StopCount      int              `json:"stopCount"`
	DriverFare     decimal.Decimal  `json:"driverFare"`
	BillingFare    decimal.Decimal  `json:"billingFare"`
	ExtraFare      *decimal.Decimal `json:"extraFare,omitempty"`
	IsNegotiated   bool             `json:"isNegotiated"`
	NegotiatedFare *decimal.Decimal `json:"negotiatedFare,omitempty"`
	Notes          string           `json:"notes,omitempty"`
}

type Driver struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	IsActive bool   `json:"isActive"`
}

type Center struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
