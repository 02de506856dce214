package service

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/logiflow/dispatch-backend/errors"
	"github.com/logiflow/dispatch-backend/internal/store"
	"github.com/logiflow/dispatch-backend/logger"
	"github.com/logiflow/dispatch-backend/types"
)

// RateService registers and lists fare rates. Registering a rate reported
// in a MissingRates error and re-running the quote is the expected recovery.
type RateService struct {
	rates   store.FareRateStore
	centers store.CenterStore
}

func NewRateService(rates store.FareRateStore, centers store.CenterStore) *RateService {
	return &RateService{rates: rates, centers: centers}
}

// RegisterRate inserts the rate or replaces the one with the same
// (center, vehicleType, region, fareType) key.
func (s *RateService) RegisterRate(ctx context.Context, rate *types.FareRate) (*types.FareRate, error) {
	if err := normalizeRate(rate); err != nil {
		return nil, err
	}
	if !types.IsID(rate.CenterID) {
		return nil, apperrors.NotFound("Center", rate.CenterID)
	}
	if _, err := s.centers.GetCenter(ctx, rate.CenterID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("Center", rate.CenterID)
		}
		return nil, apperrors.NewDatabaseError(err)
	}

	saved, err := s.rates.UpsertFareRate(ctx, rate)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}

	region := ""
	if saved.Region != nil {
		region = *saved.Region
	}
	logger.GetLogger().Infow("Fare rate registered",
		"rateId", saved.ID,
		"centerId", saved.CenterID,
		"vehicleType", saved.VehicleType,
		"region", region,
		"fareType", saved.FareType)
	return saved, nil
}

func (s *RateService) ListRates(ctx context.Context, filter types.FareRateFilter) ([]types.FareRate, error) {
	if strings.TrimSpace(filter.CenterID) == "" {
		return nil, apperrors.MissingParameter("centerId")
	}
	if !types.IsID(filter.CenterID) {
		return []types.FareRate{}, nil
	}
	rates, err := s.rates.ListFareRates(ctx, filter)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return rates, nil
}

func (s *RateService) DeleteRate(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.MissingParameter("id")
	}
	if !types.IsID(id) {
		return apperrors.NotFound("Fare rate", id)
	}
	if err := s.rates.DeleteFareRate(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NotFound("Fare rate", id)
		}
		return apperrors.NewDatabaseError(err)
	}
	return nil
}

func normalizeRate(rate *types.FareRate) error {
	if rate == nil {
		return apperrors.ValidationFailed("Invalid fare rate", "body required")
	}
	rate.CenterID = strings.TrimSpace(rate.CenterID)
	rate.VehicleType = strings.TrimSpace(rate.VehicleType)
	if rate.CenterID == "" {
		return apperrors.MissingParameter("centerId")
	}
	if rate.VehicleType == "" {
		return apperrors.MissingParameter("vehicleType")
	}
	if rate.Region != nil {
		trimmed := strings.TrimSpace(*rate.Region)
		if trimmed == "" {
			rate.Region = nil
		} else {
			rate.Region = &trimmed
		}
	}

	switch rate.FareType {
	case types.FareTypeBasic:
		if rate.Region == nil {
			return apperrors.MissingParameter("region")
		}
		if rate.BaseFare.IsNegative() {
			return apperrors.ValidationFailed("Invalid fare rate", "baseFare must not be negative")
		}
	case types.FareTypeStopFee:
		if rate.Region != nil {
			return apperrors.ValidationFailed("Invalid fare rate", "STOP_FEE rates apply to every region and take no region")
		}
	default:
		return apperrors.InvalidFormat("fareType", string(rate.FareType), "BASIC or STOP_FEE")
	}

	if rate.ExtraStopFee.IsNegative() || rate.ExtraRegionFee.IsNegative() {
		return apperrors.ValidationFailed("Invalid fare rate", "extra fees must not be negative")
	}
	return nil
}
