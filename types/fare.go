package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type FareType string

const (
	FareTypeBasic   FareType = "BASIC"
	FareTypeStopFee FareType = "STOP_FEE"
)

// FareRate is a registered price for (center, vehicleType, region, fareType).
// BASIC rows carry a region and baseFare; STOP_FEE rows carry the extra fees.
type FareRate struct {
	ID             string          `json:"id"`
	CenterID       string          `json:"centerId"`
	VehicleType    string          `json:"vehicleType"`
	Region         *string         `json:"region,omitempty"`
	FareType       FareType        `json:"fareType"`
	BaseFare       decimal.Decimal `json:"baseFare"`
	ExtraStopFee   decimal.Decimal `json:"extraStopFee"`
	ExtraRegionFee decimal.Decimal `json:"extraRegionFee"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type FareQuoteRequest struct {
	CenterID        string          `json:"centerId"`
	VehicleType     string          `json:"vehicleType"`
	Regions         []string        `json:"regions"`
	StopCount       int             `json:"stopCount"`
	ExtraAdjustment decimal.Decimal `json:"extraAdjustment"`
	// AllowPartial returns a provisional quote instead of failing on missing rates.
	AllowPartial bool `json:"allowPartial"`
}

// MissingRate names one rate combination that could not be resolved.
type MissingRate struct {
	RateClass string  `json:"rateClass"`
	Region    *string `json:"region,omitempty"`
}

// RegionRate is the BASIC fare matched for one requested region.
type RegionRate struct {
	Region   string          `json:"region"`
	BaseFare decimal.Decimal `json:"baseFare"`
}

type FareQuoteMetadata struct {
	CenterName   string        `json:"centerName"`
	RegionRates  []RegionRate  `json:"regionRates"`
	MissingRates []MissingRate `json:"missingRates"`
}

type FareQuote struct {
	BaseFare   decimal.Decimal   `json:"baseFare"`
	RegionFare decimal.Decimal   `json:"regionFare"`
	StopFare   decimal.Decimal   `json:"stopFare"`
	ExtraFare  decimal.Decimal   `json:"extraFare"`
	TotalFare  decimal.Decimal   `json:"totalFare"`
	Complete   bool              `json:"complete"`
	Metadata   FareQuoteMetadata `json:"metadata"`
}

type FareRateFilter struct {
	CenterID    string
	VehicleType string
}
