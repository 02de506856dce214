package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/logiflow/dispatch-backend/errors"
	"github.com/logiflow/dispatch-backend/internal/store"
	"github.com/logiflow/dispatch-backend/logger"
	"github.com/logiflow/dispatch-backend/types"
	"github.com/shopspring/decimal"
)

const (
	outcomeComplete = "complete"
	outcomePartial  = "partial"
	outcomeRejected = "rejected"
)

// QuoteService prices prospective charters from registered fare rates.
// It never writes and takes no locks; every call reads the latest rates.
type QuoteService struct {
	rates   store.FareRateStore
	centers store.CenterStore
	metrics *QuoteMetrics
}

func NewQuoteService(rates store.FareRateStore, centers store.CenterStore, metrics *QuoteMetrics) *QuoteService {
	return &QuoteService{
		rates:   rates,
		centers: centers,
		metrics: metrics,
	}
}

// ComputeQuote returns
//
//	totalFare = max(BASIC baseFare over regions)
//	          + extraStopFee   * max(0, stops - 1)
//	          + extraRegionFee * max(0, regions - 1)
//	          + extraAdjustment
//
// Unless req.AllowPartial is set, any missing rate fails with MissingRates.
// In partial mode the quote is computed from the rates that exist, marked
// incomplete and the gaps listed in Metadata.MissingRates.
func (s *QuoteService) ComputeQuote(ctx context.Context, req types.FareQuoteRequest) (*types.FareQuote, error) {
	regions, err := s.validate(req)
	if err != nil {
		s.metrics.quote(outcomeRejected)
		return nil, err
	}

	if !types.IsID(req.CenterID) {
		s.metrics.quote(outcomeRejected)
		return nil, apperrors.NotFound("Center", req.CenterID)
	}
	center, err := s.centers.GetCenter(ctx, req.CenterID)
	if err != nil {
		s.metrics.quote(outcomeRejected)
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("Center", req.CenterID)
		}
		return nil, apperrors.NewDatabaseError(err)
	}

	quote := &types.FareQuote{
		Metadata: types.FareQuoteMetadata{
			CenterName:   center.Name,
			RegionRates:  []types.RegionRate{},
			MissingRates: []types.MissingRate{},
		},
	}

	var missingRegions []string
	for _, region := range regions {
		region := region
		rate, err := s.rates.FindFareRate(ctx, req.CenterID, req.VehicleType, &region, types.FareTypeBasic)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				s.metrics.quote(outcomeRejected)
				return nil, apperrors.NewDatabaseError(err)
			}
			missingRegions = append(missingRegions, region)
			quote.Metadata.MissingRates = append(quote.Metadata.MissingRates, types.MissingRate{
				RateClass: apperrors.RateClassBasic,
				Region:    &region,
			})
			continue
		}
		quote.Metadata.RegionRates = append(quote.Metadata.RegionRates, types.RegionRate{
			Region:   region,
			BaseFare: rate.BaseFare,
		})
		if len(quote.Metadata.RegionRates) == 1 || rate.BaseFare.GreaterThan(quote.BaseFare) {
			quote.BaseFare = rate.BaseFare
		}
	}
	s.metrics.missing(apperrors.RateClassBasic, len(missingRegions))

	if len(missingRegions) > 0 && !req.AllowPartial {
		s.metrics.quote(outcomeRejected)
		return nil, apperrors.MissingRates(&apperrors.MissingRatesDetail{
			RateClass:      apperrors.RateClassBasic,
			MissingRegions: missingRegions,
			CenterID:       center.ID,
			CenterName:     center.Name,
			VehicleType:    req.VehicleType,
		})
	}

	stopRate, err := s.rates.FindFareRate(ctx, req.CenterID, req.VehicleType, nil, types.FareTypeStopFee)
	switch {
	case err == nil:
		quote.StopFare = stopRate.ExtraStopFee.Mul(decimal.NewFromInt(int64(extraCount(req.StopCount))))
		quote.RegionFare = stopRate.ExtraRegionFee.Mul(decimal.NewFromInt(int64(extraCount(len(regions)))))
	case errors.Is(err, store.ErrNotFound):
		s.metrics.missing(apperrors.RateClassStopFee, 1)
		if !req.AllowPartial || len(quote.Metadata.RegionRates) == 0 {
			// Nothing to quote from: report the regions first when they are missing too.
			detail := &apperrors.MissingRatesDetail{
				RateClass:      apperrors.RateClassStopFee,
				MissingRegions: []string{},
				CenterID:       center.ID,
				CenterName:     center.Name,
				VehicleType:    req.VehicleType,
			}
			if len(missingRegions) > 0 {
				detail.RateClass = apperrors.RateClassBasic
				detail.MissingRegions = missingRegions
			}
			s.metrics.quote(outcomeRejected)
			return nil, apperrors.MissingRates(detail)
		}
		quote.Metadata.MissingRates = append(quote.Metadata.MissingRates, types.MissingRate{
			RateClass: apperrors.RateClassStopFee,
		})
	default:
		s.metrics.quote(outcomeRejected)
		return nil, apperrors.NewDatabaseError(err)
	}

	quote.ExtraFare = req.ExtraAdjustment
	quote.TotalFare = quote.BaseFare.Add(quote.StopFare).Add(quote.RegionFare).Add(quote.ExtraFare)
	quote.Complete = len(quote.Metadata.MissingRates) == 0

	if quote.Complete {
		s.metrics.quote(outcomeComplete)
	} else {
		s.metrics.quote(outcomePartial)
		logger.GetLogger().Infow("Returning provisional fare quote",
			"centerId", req.CenterID,
			"vehicleType", req.VehicleType,
			"missingRates", len(quote.Metadata.MissingRates))
	}
	return quote, nil
}

// validate returns the trimmed, de-duplicated regions in request order.
func (s *QuoteService) validate(req types.FareQuoteRequest) ([]string, error) {
	if strings.TrimSpace(req.CenterID) == "" {
		return nil, apperrors.MissingParameter("centerId")
	}
	if strings.TrimSpace(req.VehicleType) == "" {
		return nil, apperrors.MissingParameter("vehicleType")
	}

	seen := make(map[string]struct{}, len(req.Regions))
	regions := make([]string, 0, len(req.Regions))
	for _, r := range req.Regions {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		regions = append(regions, r)
	}
	if len(regions) == 0 {
		return nil, apperrors.MissingParameter("regions")
	}
	if req.StopCount < len(regions) {
		return nil, apperrors.ValidationFailed("Stop count is smaller than the number of regions",
			fmt.Sprintf("stopCount %d, regions %d", req.StopCount, len(regions)))
	}
	return regions, nil
}

func extraCount(n int) int {
	if n <= 1 {
		return 0
	}
	return n - 1
}
