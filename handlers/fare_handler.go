package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/logiflow/dispatch-backend/types"
	"github.com/shopspring/decimal"
)

// FareHandler serves quotes and the rate table.
type FareHandler struct {
	quotes FareQuoteServiceInterface
	rates  FareRateServiceInterface
}

func NewFareHandler(quotes FareQuoteServiceInterface, rates FareRateServiceInterface) *FareHandler {
	return &FareHandler{quotes: quotes, rates: rates}
}

// UpsertFareRateRequest registers or replaces the rate for
// (centerId, vehicleType, region, fareType).
type UpsertFareRateRequest struct {
	CenterID       string          `json:"centerId"`
	VehicleType    string          `json:"vehicleType"`
	Region         *string         `json:"region,omitempty"`
	FareType       types.FareType  `json:"fareType"`
	BaseFare       decimal.Decimal `json:"baseFare"`
	ExtraStopFee   decimal.Decimal `json:"extraStopFee"`
	ExtraRegionFee decimal.Decimal `json:"extraRegionFee"`
}

// QuoteHandler godoc
// @Summary Compute a fare quote
// @Description Missing rates return 422 with the regions to register.
// @Tags fares
// @Accept json
// @Produce json
// @Param request body types.FareQuoteRequest true "Center, vehicle, regions and stops"
// @Success 200 {object} types.FareQuote
// @Failure 422 {object} middleware.ErrorResponse "Rates not registered"
// @Failure 429 {object} middleware.ErrorResponse "Too many requests"
// @Router /fare-quotes [post]
// @Security BearerAuth
func (h *FareHandler) QuoteHandler(c *gin.Context) {
	var req types.FareQuoteRequest
	if !bindJSONOrError(c, &req) {
		return
	}

	quote, err := h.quotes.ComputeQuote(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// ListRatesHandler godoc
// @Summary List registered rates for a center
// @Tags fares
// @Produce json
// @Param centerId query string true "Center ID"
// @Param vehicleType query string false "Vehicle type"
// @Success 200 {array} types.FareRate
// @Router /fare-rates [get]
// @Security BearerAuth
func (h *FareHandler) ListRatesHandler(c *gin.Context) {
	rates, err := h.rates.ListRates(c.Request.Context(), types.FareRateFilter{
		CenterID:    c.Query("centerId"),
		VehicleType: c.Query("vehicleType"),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	if rates == nil {
		rates = []types.FareRate{}
	}
	c.JSON(http.StatusOK, rates)
}

// UpsertRateHandler godoc
// @Summary Register a fare rate
// @Tags fares
// @Accept json
// @Produce json
// @Param request body UpsertFareRateRequest true "Rate"
// @Success 200 {object} types.FareRate
// @Router /fare-rates [put]
// @Security BearerAuth
func (h *FareHandler) UpsertRateHandler(c *gin.Context) {
	var req UpsertFareRateRequest
	if !bindJSONOrError(c, &req) {
		return
	}

	rate, err := h.rates.RegisterRate(c.Request.Context(), &types.FareRate{
		CenterID:       req.CenterID,
		VehicleType:    req.VehicleType,
		Region:         req.Region,
		FareType:       req.FareType,
		BaseFare:       req.BaseFare,
		ExtraStopFee:   req.ExtraStopFee,
		ExtraRegionFee: req.ExtraRegionFee,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rate)
}

// DeleteRateHandler godoc
// @Summary Delete a fare rate
// @Tags fares
// @Param id path string true "Rate ID"
// @Success 204
// @Router /fare-rates/{id} [delete]
// @Security BearerAuth
func (h *FareHandler) DeleteRateHandler(c *gin.Context) {
	if err := h.rates.DeleteRate(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
