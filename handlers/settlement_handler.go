package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/logiflow/dispatch-backend/logger"
	settlementservice "github.com/logiflow/dispatch-backend/models/settlement/service"
	"github.com/logiflow/dispatch-backend/types"
)

// SettlementHandler exposes the settlement lifecycle over HTTP.
type SettlementHandler struct {
	settlements SettlementServiceInterface
}

func NewSettlementHandler(settlements SettlementServiceInterface) *SettlementHandler {
	return &SettlementHandler{settlements: settlements}
}

// SettlementPeriodRequest selects a driver's month. Required fields are
// checked by the service so the error carries the parameter name.
type SettlementPeriodRequest struct {
	DriverID  string                 `json:"driverId"`
	YearMonth string                 `json:"yearMonth"`
	Source    types.SettlementSource `json:"source,omitempty"`
}

type CreateSettlementRequest struct {
	SettlementPeriodRequest
	Notes string `json:"notes,omitempty"`
}

type UpdateSettlementRequest struct {
	Notes       *string `json:"notes,omitempty"`
	Recalculate bool    `json:"recalculate,omitempty"`
}

type EmergencyUnlockRequest struct {
	Reason string `json:"reason"`
}

// CalculateHandler godoc
// @Summary Calculate a monthly settlement without saving it
// @Tags settlements
// @Accept json
// @Produce json
// @Param request body SettlementPeriodRequest true "Driver and month"
// @Success 200 {object} types.SettlementCalculationResult
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 404 {object} middleware.ErrorResponse "Driver not found"
// @Router /settlements/calculate [post]
// @Security BearerAuth
func (h *SettlementHandler) CalculateHandler(c *gin.Context) {
	var req SettlementPeriodRequest
	if !bindJSONOrError(c, &req) {
		return
	}

	result, err := h.settlements.CalculateMonthlySettlement(c.Request.Context(), req.DriverID, req.YearMonth, req.Source)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PreviewHandler godoc
// @Summary Preview a settlement with warnings
// @Tags settlements
// @Accept json
// @Produce json
// @Param request body SettlementPeriodRequest true "Driver and month"
// @Success 200 {object} types.SettlementPreview
// @Router /settlements/preview [post]
// @Security BearerAuth
func (h *SettlementHandler) PreviewHandler(c *gin.Context) {
	var req SettlementPeriodRequest
	if !bindJSONOrError(c, &req) {
		return
	}

	preview, err := h.settlements.Preview(c.Request.Context(), req.DriverID, req.YearMonth, req.Source)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// CreateSettlementHandler godoc
// @Summary Persist a DRAFT settlement
// @Tags settlements
// @Accept json
// @Produce json
// @Param request body CreateSettlementRequest true "Driver, month and notes"
// @Success 201 {object} types.Settlement
// @Failure 409 {object} middleware.ErrorResponse "Settlement already exists"
// @Router /settlements [post]
// @Security BearerAuth
func (h *SettlementHandler) CreateSettlementHandler(c *gin.Context) {
	actor, ok := actorOrError(c)
	if !ok {
		return
	}
	var req CreateSettlementRequest
	if !bindJSONOrError(c, &req) {
		return
	}

	st, err := h.settlements.Create(c.Request.Context(), actor, settlementservice.CreateSettlementInput{
		DriverID:  req.DriverID,
		YearMonth: req.YearMonth,
		Source:    req.Source,
		Notes:     req.Notes,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

// ListSettlementsHandler godoc
// @Summary List settlements
// @Tags settlements
// @Produce json
// @Param driverId query string false "Driver ID"
// @Param yearMonth query string false "Month (YYYY-MM)"
// @Param status query string false "DRAFT, CONFIRMED or PAID"
// @Param limit query int false "Page size (1-100)"
// @Param offset query int false "Offset"
// @Success 200 {object} types.PaginatedResponse
// @Router /settlements [get]
// @Security BearerAuth
func (h *SettlementHandler) ListSettlementsHandler(c *gin.Context) {
	var params types.ListSettlementsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return
	}

	list, total, err := h.settlements.List(c.Request.Context(), types.SettlementFilter{
		DriverID:  params.DriverID,
		YearMonth: params.YearMonth,
		Status:    types.SettlementStatus(params.Status),
		Limit:     params.Limit,
		Offset:    params.Offset,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	if list == nil {
		list = []types.Settlement{}
	}
	c.JSON(http.StatusOK, types.PaginatedResponse{
		Data: list,
		Pagination: types.Pagination{
			Limit:  params.Limit,
			Offset: params.Offset,
			Total:  total,
		},
	})
}

// GetSettlementHandler godoc
// @Summary Get a settlement with its items
// @Tags settlements
// @Produce json
// @Param id path string true "Settlement ID"
// @Success 200 {object} types.Settlement
// @Failure 404 {object} middleware.ErrorResponse
// @Router /settlements/{id} [get]
// @Security BearerAuth
func (h *SettlementHandler) GetSettlementHandler(c *gin.Context) {
	st, err := h.settlements.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// UpdateSettlementHandler godoc
// @Summary Edit notes or recalculate a DRAFT settlement
// @Tags settlements
// @Accept json
// @Produce json
// @Param id path string true "Settlement ID"
// @Param request body UpdateSettlementRequest true "Changes"
// @Success 200 {object} types.Settlement
// @Failure 409 {object} middleware.ErrorResponse "Settlement is locked"
// @Router /settlements/{id} [patch]
// @Security BearerAuth
func (h *SettlementHandler) UpdateSettlementHandler(c *gin.Context) {
	actor, ok := actorOrError(c)
	if !ok {
		return
	}
	var req UpdateSettlementRequest
	if !bindJSONOrError(c, &req) {
		return
	}

	st, err := h.settlements.Update(c.Request.Context(), actor, c.Param("id"), settlementservice.UpdateSettlementInput{
		Notes:       req.Notes,
		Recalculate: req.Recalculate,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// ConfirmSettlementHandler godoc
// @Summary Confirm a DRAFT settlement
// @Tags settlements
// @Produce json
// @Param id path string true "Settlement ID"
// @Success 200 {object} types.Settlement
// @Failure 409 {object} middleware.ErrorResponse "Invalid status transition"
// @Router /settlements/{id}/confirm [post]
// @Security BearerAuth
func (h *SettlementHandler) ConfirmSettlementHandler(c *gin.Context) {
	actor, ok := actorOrError(c)
	if !ok {
		return
	}

	st, err := h.settlements.Confirm(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// MarkPaidHandler godoc
// @Summary Mark a CONFIRMED settlement as paid
// @Tags settlements
// @Produce json
// @Param id path string true "Settlement ID"
// @Success 200 {object} types.Settlement
// @Router /settlements/{id}/pay [post]
// @Security BearerAuth
func (h *SettlementHandler) MarkPaidHandler(c *gin.Context) {
	actor, ok := actorOrError(c)
	if !ok {
		return
	}

	st, err := h.settlements.MarkPaid(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// EmergencyUnlockHandler godoc
// @Summary Return a CONFIRMED settlement to DRAFT (administrators only)
// @Tags settlements
// @Accept json
// @Produce json
// @Param id path string true "Settlement ID"
// @Param request body EmergencyUnlockRequest true "Reason for the unlock"
// @Success 200 {object} types.Settlement
// @Failure 403 {object} middleware.ErrorResponse "Permission denied"
// @Router /settlements/{id}/unlock [post]
// @Security BearerAuth
func (h *SettlementHandler) EmergencyUnlockHandler(c *gin.Context) {
	actor, ok := actorOrError(c)
	if !ok {
		return
	}
	var req EmergencyUnlockRequest
	if !bindJSONOrError(c, &req) {
		return
	}

	st, err := h.settlements.EmergencyUnlock(c.Request.Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// DeleteSettlementHandler godoc
// @Summary Delete a DRAFT settlement
// @Tags settlements
// @Param id path string true "Settlement ID"
// @Success 204
// @Router /settlements/{id} [delete]
// @Security BearerAuth
func (h *SettlementHandler) DeleteSettlementHandler(c *gin.Context) {
	actor, ok := actorOrError(c)
	if !ok {
		return
	}

	if err := h.settlements.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AuditLogsHandler godoc
// @Summary List the audit trail of a settlement
// @Tags settlements
// @Produce json
// @Param id path string true "Settlement ID"
// @Success 200 {array} types.AuditLogEntry
// @Router /settlements/{id}/audit-logs [get]
// @Security BearerAuth
func (h *SettlementHandler) AuditLogsHandler(c *gin.Context) {
	entries, err := h.settlements.AuditTrail(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	if entries == nil {
		entries = []types.AuditLogEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// StatementHandler godoc
// @Summary Download the settlement statement as CSV
// @Tags settlements
// @Produce text/csv
// @Param id path string true "Settlement ID"
// @Success 200 {file} file
// @Router /settlements/{id}/statement [get]
// @Security BearerAuth
func (h *SettlementHandler) StatementHandler(c *gin.Context) {
	body, st, err := h.settlements.Statement(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	filename := fmt.Sprintf("settlement-%s-%s.csv", st.DriverID, st.YearMonth)
	logger.GetLogger().Debugw("Serving settlement statement", "settlementId", st.ID, "bytes", len(body))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", body)
}
