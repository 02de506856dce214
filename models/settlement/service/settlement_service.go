package service

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/logiflow/dispatch-backend/errors"
	"github.com/logiflow/dispatch-backend/internal/store"
	"github.com/logiflow/dispatch-backend/logger"
	"github.com/logiflow/dispatch-backend/types"
)

const maxListLimit = 100

// Notifier tells a driver their settlement was confirmed.
type Notifier interface {
	NotifyConfirmed(ctx context.Context, driver *types.Driver, s *types.Settlement) error
}

// StatementArchive stores the CSV statement of a paid settlement and returns its key.
type StatementArchive interface {
	ArchiveStatement(ctx context.Context, s *types.Settlement, statement []byte) (string, error)
}

// CreateSettlementInput is the payload of Create.
type CreateSettlementInput struct {
	DriverID  string
	YearMonth string
	Source    types.SettlementSource
	Notes     string
}

// UpdateSettlementInput is the payload of Update. Recalculate reloads the
// month's records and replaces totals and items.
type UpdateSettlementInput struct {
	Notes       *string
	Recalculate bool
}

// SettlementService owns the settlement lifecycle:
// DRAFT -> CONFIRMED -> PAID, with CONFIRMED -> DRAFT only through EmergencyUnlock.
type SettlementService struct {
	settlements store.SettlementStore
	audits      store.AuditStore
	dispatch    store.DispatchStore
	drivers     store.DriverStore
	calc        *Calculator
	loc         *time.Location
	metrics     *Metrics
	notifier    Notifier
	archive     StatementArchive
	now         func() time.Time
}

func NewSettlementService(
	settlements store.SettlementStore,
	audits store.AuditStore,
	dispatch store.DispatchStore,
	drivers store.DriverStore,
	calc *Calculator,
	loc *time.Location,
	metrics *Metrics,
) *SettlementService {
	if loc == nil {
		loc = time.UTC
	}
	return &SettlementService{
		settlements: settlements,
		audits:      audits,
		dispatch:    dispatch,
		drivers:     drivers,
		calc:        calc.WithLocation(loc),
		loc:         loc,
		metrics:     metrics,
		now:         time.Now,
	}
}

// WithNotifier enables confirmation notices.
func (s *SettlementService) WithNotifier(n Notifier) *SettlementService {
	s.notifier = n
	return s
}

// WithStatementArchive enables statement archiving on MarkPaid.
func (s *SettlementService) WithStatementArchive(a StatementArchive) *SettlementService {
	s.archive = a
	return s
}

// CalculateMonthlySettlement computes a driver's settlement for a month
// without writing anything.
func (s *SettlementService) CalculateMonthlySettlement(ctx context.Context, driverID, yearMonth string, source types.SettlementSource) (*types.SettlementCalculationResult, error) {
	ym, source, err := validatePeriod(driverID, yearMonth, source)
	if err != nil {
		return nil, err
	}
	if _, err := s.getDriver(ctx, driverID); err != nil {
		return nil, err
	}
	return s.calculate(ctx, driverID, ym, source)
}

func (s *SettlementService) calculate(ctx context.Context, driverID string, ym types.YearMonth, source types.SettlementSource) (*types.SettlementCalculationResult, error) {
	start := time.Now()
	defer func() {
		s.metrics.observeCalculation(string(source), time.Since(start).Seconds())
	}()

	from, to := MonthRange(ym, s.loc)
	if source == types.SettlementSourceCharter {
		records, err := s.dispatch.ListCharterRecords(ctx, driverID, from, to)
		if err != nil {
			return nil, apperrors.NewDatabaseError(err)
		}
		return s.calc.CalculateCharters(records), nil
	}

	records, err := s.dispatch.ListTripRecords(ctx, driverID, from, to)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return s.calc.CalculateTrips(records), nil
}

// Preview calculates like CalculateMonthlySettlement and adds advisory
// warnings. Warnings never block the calculation.
func (s *SettlementService) Preview(ctx context.Context, driverID, yearMonth string, source types.SettlementSource) (*types.SettlementPreview, error) {
	ym, source, err := validatePeriod(driverID, yearMonth, source)
	if err != nil {
		return nil, err
	}
	driver, err := s.getDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	result, err := s.calculate(ctx, driverID, ym, source)
	if err != nil {
		return nil, err
	}

	warnings := []string{}
	existing, err := s.settlements.FindSettlement(ctx, driverID, ym.String())
	switch {
	case err == nil:
		if existing.Status != types.SettlementStatusDraft {
			warnings = append(warnings, "A confirmed settlement already exists for this period")
		}
	case !errors.Is(err, store.ErrNotFound):
		return nil, apperrors.NewDatabaseError(err)
	}
	if !driver.IsActive {
		warnings = append(warnings, "Driver is inactive")
	}

	return &types.SettlementPreview{
		DriverID:   driver.ID,
		DriverName: driver.Name,
		YearMonth:  ym.String(),
		Source:     source,
		Result:     result,
		Warnings:   warnings,
		CanConfirm: len(warnings) == 0 && len(result.Items) > 0,
	}, nil
}

// Create calculates and stores a DRAFT settlement together with its items
// and a CREATE audit row.
func (s *SettlementService) Create(ctx context.Context, actor types.Actor, in CreateSettlementInput) (*types.Settlement, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	ym, source, err := validatePeriod(in.DriverID, in.YearMonth, in.Source)
	if err != nil {
		return nil, err
	}
	if _, err := s.getDriver(ctx, in.DriverID); err != nil {
		return nil, err
	}

	_, err = s.settlements.FindSettlement(ctx, in.DriverID, ym.String())
	switch {
	case err == nil:
		return nil, apperrors.DuplicateSettlement(in.DriverID, ym.String())
	case !errors.Is(err, store.ErrNotFound):
		return nil, apperrors.NewDatabaseError(err)
	}

	result, err := s.calculate(ctx, in.DriverID, ym, source)
	if err != nil {
		return nil, err
	}

	st := &types.Settlement{
		DriverID:  in.DriverID,
		YearMonth: ym.String(),
		Source:    source,
		Status:    types.SettlementStatusDraft,
		Notes:     in.Notes,
		CreatedBy: actor.UserID,
	}
	st.ApplyResult(result)

	created, err := s.settlements.CreateSettlement(ctx, st, types.AuditLogEntry{
		ActorID:   actor.UserID,
		Action:    types.AuditActionCreate,
		NewStatus: string(types.SettlementStatusDraft),
	})
	s.metrics.recordTransition(string(types.AuditActionCreate), err)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperrors.DuplicateSettlement(in.DriverID, ym.String())
		}
		return nil, apperrors.NewDatabaseError(err)
	}

	logger.GetLogger().Infow("Settlement created",
		"settlementId", created.ID,
		"driverId", created.DriverID,
		"yearMonth", created.YearMonth,
		"finalAmount", created.FinalAmount.String(),
		"actorId", actor.UserID)
	return created, nil
}

func (s *SettlementService) Get(ctx context.Context, id string) (*types.Settlement, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.MissingParameter("id")
	}
	if !types.IsID(id) {
		return nil, apperrors.NotFound("Settlement", id)
	}
	st, err := s.settlements.GetSettlement(ctx, id)
	if err != nil {
		return nil, settlementLookupError(err, id)
	}
	return st, nil
}

// List returns one page of settlements and the total match count.
func (s *SettlementService) List(ctx context.Context, filter types.SettlementFilter) ([]types.Settlement, int, error) {
	if filter.YearMonth != "" {
		if _, ok := types.ParseYearMonth(filter.YearMonth); !ok {
			return nil, 0, apperrors.InvalidFormat("yearMonth", filter.YearMonth, "YYYY-MM")
		}
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, apperrors.InvalidFormat("status", string(filter.Status), "DRAFT, CONFIRMED or PAID")
	}
	if filter.Limit <= 0 || filter.Limit > maxListLimit {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.DriverID != "" && !types.IsID(filter.DriverID) {
		return []types.Settlement{}, 0, nil
	}

	list, total, err := s.settlements.ListSettlements(ctx, filter)
	if err != nil {
		return nil, 0, apperrors.NewDatabaseError(err)
	}
	return list, total, nil
}

// Update edits a DRAFT settlement.
func (s *SettlementService) Update(ctx context.Context, actor types.Actor, id string, in UpdateSettlementInput) (*types.Settlement, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if in.Notes == nil && !in.Recalculate {
		return nil, apperrors.ValidationFailed("Nothing to update", "provide notes or recalculate")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != types.SettlementStatusDraft {
		return nil, apperrors.SettlementLocked(id, string(current.Status))
	}

	patch := types.SettlementPatch{Notes: in.Notes}
	if in.Recalculate {
		ym, _ := types.ParseYearMonth(current.YearMonth)
		patch.Result, err = s.calculate(ctx, current.DriverID, ym, current.Source)
		if err != nil {
			return nil, err
		}
	}

	return s.transition(ctx, types.AuditActionUpdate, types.SettlementTransition{
		SettlementID:   id,
		ExpectedStatus: []types.SettlementStatus{types.SettlementStatusDraft},
		Patch:          patch,
		Audit: types.AuditLogEntry{
			ActorID:   actor.UserID,
			Action:    types.AuditActionUpdate,
			NewStatus: string(types.SettlementStatusDraft),
		},
	}, func(cur string) error { return apperrors.SettlementLocked(id, cur) })
}

// Confirm recalculates a DRAFT settlement against current records and
// moves it to CONFIRMED.
func (s *SettlementService) Confirm(ctx context.Context, actor types.Actor, id string) (*types.Settlement, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != types.SettlementStatusDraft {
		s.metrics.recordTransition(string(types.AuditActionConfirm), errInvalidState)
		return nil, apperrors.InvalidTransition(string(current.Status), string(types.SettlementStatusConfirmed))
	}

	ym, _ := types.ParseYearMonth(current.YearMonth)
	result, err := s.calculate(ctx, current.DriverID, ym, current.Source)
	if err != nil {
		return nil, err
	}

	status := types.SettlementStatusConfirmed
	now := s.now()
	confirmed, err := s.transition(ctx, types.AuditActionConfirm, types.SettlementTransition{
		SettlementID:   id,
		ExpectedStatus: []types.SettlementStatus{types.SettlementStatusDraft},
		Patch: types.SettlementPatch{
			Status:      &status,
			ConfirmedBy: &actor.UserID,
			ConfirmedAt: &now,
			Result:      result,
		},
		Audit: types.AuditLogEntry{
			ActorID:   actor.UserID,
			Action:    types.AuditActionConfirm,
			NewStatus: string(status),
		},
	}, func(cur string) error { return apperrors.InvalidTransition(cur, string(status)) })
	if err != nil {
		return nil, err
	}

	s.notifyConfirmed(ctx, confirmed)
	return confirmed, nil
}

// MarkPaid moves a CONFIRMED settlement to PAID.
func (s *SettlementService) MarkPaid(ctx context.Context, actor types.Actor, id string) (*types.Settlement, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.MissingParameter("id")
	}

	status := types.SettlementStatusPaid
	now := s.now()
	paid, err := s.transition(ctx, types.AuditActionMarkPaid, types.SettlementTransition{
		SettlementID:   id,
		ExpectedStatus: []types.SettlementStatus{types.SettlementStatusConfirmed},
		Patch: types.SettlementPatch{
			Status: &status,
			PaidAt: &now,
		},
		Audit: types.AuditLogEntry{
			ActorID:   actor.UserID,
			Action:    types.AuditActionMarkPaid,
			NewStatus: string(status),
		},
	}, func(cur string) error { return apperrors.InvalidTransition(cur, string(status)) })
	if err != nil {
		return nil, err
	}

	s.archiveStatement(ctx, paid)
	return paid, nil
}

// Delete removes a DRAFT settlement and its items.
func (s *SettlementService) Delete(ctx context.Context, actor types.Actor, id string) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return apperrors.MissingParameter("id")
	}
	_, err := s.transition(ctx, types.AuditActionDelete, types.SettlementTransition{
		SettlementID:   id,
		ExpectedStatus: []types.SettlementStatus{types.SettlementStatusDraft},
		Delete:         true,
		Audit: types.AuditLogEntry{
			ActorID: actor.UserID,
			Action:  types.AuditActionDelete,
		},
	}, func(cur string) error { return apperrors.SettlementLocked(id, cur) })
	return err
}

// EmergencyUnlock reverts a CONFIRMED settlement to DRAFT. Administrators
// only. The emergency audit row is written in the same transaction as the
// status change.
func (s *SettlementService) EmergencyUnlock(ctx context.Context, actor types.Actor, id, reason string) (*types.Settlement, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		s.metrics.recordTransition(string(types.AuditActionEmergencyUnlock), errInvalidState)
		return nil, apperrors.PermissionDenied("emergency unlock")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.MissingParameter("reason")
	}
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.MissingParameter("id")
	}

	status := types.SettlementStatusDraft
	unlocked, err := s.transition(ctx, types.AuditActionEmergencyUnlock, types.SettlementTransition{
		SettlementID:   id,
		ExpectedStatus: []types.SettlementStatus{types.SettlementStatusConfirmed},
		Patch: types.SettlementPatch{
			Status:            &status,
			ClearConfirmation: true,
		},
		Audit: types.AuditLogEntry{
			ActorID:     actor.UserID,
			Action:      types.AuditActionEmergencyUnlock,
			PriorStatus: string(types.SettlementStatusConfirmed),
			NewStatus:   string(status),
			Reason:      reason,
			IsEmergency: true,
		},
	}, func(cur string) error { return apperrors.InvalidTransition(cur, string(status)) })
	if err != nil {
		return nil, err
	}

	logger.GetLogger().Warnw("Settlement emergency unlocked",
		"settlementId", id,
		"actorId", actor.UserID,
		"reason", reason)
	return unlocked, nil
}

// AuditTrail returns the audit rows of a settlement, oldest first. Rows of
// deleted settlements remain readable.
func (s *SettlementService) AuditTrail(ctx context.Context, id string) ([]types.AuditLogEntry, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.MissingParameter("id")
	}
	logs, err := s.audits.ListAuditLogs(ctx, types.AuditEntitySettlement, id)
	if err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}
	return logs, nil
}

// Statement renders the CSV statement of a settlement.
func (s *SettlementService) Statement(ctx context.Context, id string) ([]byte, *types.Settlement, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	driverName := st.DriverID
	if driver, err := s.drivers.GetDriver(ctx, st.DriverID); err == nil {
		driverName = driver.Name
	}
	data, err := RenderStatement(st, driverName, s.loc)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.ServerError, "Failed to render statement")
	}
	return data, st, nil
}

var errInvalidState = errors.New("invalid state")

// transition commits t and translates store failures. onMismatch builds the
// error for a settlement found in an unexpected status.
func (s *SettlementService) transition(ctx context.Context, action types.AuditAction, t types.SettlementTransition, onMismatch func(current string) error) (*types.Settlement, error) {
	if !types.IsID(t.SettlementID) {
		return nil, apperrors.NotFound("Settlement", t.SettlementID)
	}
	st, err := s.settlements.ApplyTransition(ctx, t)
	s.metrics.recordTransition(string(action), err)
	if err != nil {
		var mismatch *store.StatusMismatchError
		switch {
		case errors.As(err, &mismatch):
			return nil, onMismatch(mismatch.Current)
		case errors.Is(err, store.ErrNotFound):
			return nil, apperrors.NotFound("Settlement", t.SettlementID)
		default:
			return nil, apperrors.NewDatabaseError(err)
		}
	}

	logger.GetLogger().Infow("Settlement transition committed",
		"settlementId", t.SettlementID,
		"action", action,
		"actorId", t.Audit.ActorID,
		"newStatus", t.Audit.NewStatus)
	return st, nil
}

func (s *SettlementService) notifyConfirmed(ctx context.Context, st *types.Settlement) {
	if s.notifier == nil || st == nil {
		return
	}
	log := logger.GetLogger()
	driver, err := s.drivers.GetDriver(ctx, st.DriverID)
	if err != nil {
		log.Warnw("Skipping confirmation notice, driver lookup failed",
			"settlementId", st.ID, "driverId", st.DriverID, "error", err)
		return
	}
	if err := s.notifier.NotifyConfirmed(ctx, driver, st); err != nil {
		log.Warnw("Failed to send confirmation notice",
			"settlementId", st.ID, "driverId", st.DriverID, "error", err)
	}
}

func (s *SettlementService) archiveStatement(ctx context.Context, st *types.Settlement) {
	if s.archive == nil || st == nil {
		return
	}
	log := logger.GetLogger()
	driverName := st.DriverID
	if driver, err := s.drivers.GetDriver(ctx, st.DriverID); err == nil {
		driverName = driver.Name
	}
	data, err := RenderStatement(st, driverName, s.loc)
	if err != nil {
		log.Warnw("Failed to render statement for archive", "settlementId", st.ID, "error", err)
		return
	}
	key, err := s.archive.ArchiveStatement(ctx, st, data)
	if err != nil {
		log.Warnw("Failed to archive statement", "settlementId", st.ID, "error", err)
		return
	}
	log.Infow("Statement archived", "settlementId", st.ID, "key", key)
}

func (s *SettlementService) getDriver(ctx context.Context, driverID string) (*types.Driver, error) {
	if !types.IsID(driverID) {
		return nil, apperrors.DriverNotFound(driverID)
	}
	driver, err := s.drivers.GetDriver(ctx, driverID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.DriverNotFound(driverID)
		}
		return nil, apperrors.NewDatabaseError(err)
	}
	return driver, nil
}

func validatePeriod(driverID, yearMonth string, source types.SettlementSource) (types.YearMonth, types.SettlementSource, error) {
	if strings.TrimSpace(driverID) == "" {
		return types.YearMonth{}, "", apperrors.MissingParameter("driverId")
	}
	if strings.TrimSpace(yearMonth) == "" {
		return types.YearMonth{}, "", apperrors.MissingParameter("yearMonth")
	}
	ym, ok := types.ParseYearMonth(yearMonth)
	if !ok {
		return types.YearMonth{}, "", apperrors.InvalidFormat("yearMonth", yearMonth, "YYYY-MM")
	}
	if source == "" {
		source = types.SettlementSourceTrip
	}
	if !source.IsValid() {
		return types.YearMonth{}, "", apperrors.InvalidFormat("source", string(source), "TRIP or CHARTER")
	}
	return ym, source, nil
}

func requireActor(actor types.Actor) error {
	if actor.UserID == "" {
		return apperrors.AuthenticationFailed("Authenticated user required")
	}
	return nil
}

func settlementLookupError(err error, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NotFound("Settlement", id)
	}
	return apperrors.NewDatabaseError(err)
}
