package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/logiflow/dispatch-backend/logger"
)

type ErrorType string

const (
	ValidationError          ErrorType = "VALIDATION_ERROR"
	NotFoundError            ErrorType = "NOT_FOUND"
	AuthError                ErrorType = "AUTHENTICATION_ERROR"
	DatabaseError            ErrorType = "DATABASE_ERROR"
	ServerError              ErrorType = "SERVER_ERROR"
	ForbiddenError           ErrorType = "FORBIDDEN"
	ConflictError            ErrorType = "CONFLICT"
	MissingParameterError    ErrorType = "MISSING_PARAMETER"
	InvalidFormatError       ErrorType = "INVALID_FORMAT"
	DriverNotFoundError      ErrorType = "DRIVER_NOT_FOUND"
	DuplicateSettlementError ErrorType = "DUPLICATE_SETTLEMENT"
	InvalidTransitionError   ErrorType = "INVALID_TRANSITION"
	SettlementLockedError    ErrorType = "SETTLEMENT_LOCKED"
	PermissionDeniedError    ErrorType = "PERMISSION_DENIED"
	MissingRatesError        ErrorType = "MISSING_RATES"
	RateLimitError           ErrorType = "RATE_LIMITED"
)

// Rate classes reported by MissingRates.
const (
	RateClassBasic   = "BASIC"
	RateClassStopFee = "STOP_FEE"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Detail     string      `json:"detail,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	HTTPStatus int         `json:"-"`
	Raw        error       `json:"-"`
}

// MissingRatesDetail is the structured payload of a MISSING_RATES error. The
// client uses it to offer inline rate registration before recomputing.
type MissingRatesDetail struct {
	RateClass      string   `json:"rateClass"`
	MissingRegions []string `json:"missingRegions"`
	CenterID       string   `json:"centerId"`
	CenterName     string   `json:"centerName"`
	VehicleType    string   `json:"vehicleType"`
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the underlying error so errors.Is works through AppError.
func (e *AppError) Unwrap() error {
	return e.Raw
}

// GetHTTPStatus returns the status to render, falling back to the type mapping.
func (e *AppError) GetHTTPStatus() int {
	if e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	return getHTTPStatus(e.Type)
}

// New creates a new AppError
func New(errType ErrorType, message string, detail string) *AppError {
	httpStatus := getHTTPStatus(errType)
	return &AppError{
		Type:       errType,
		Code:       string(errType),
		Message:    message,
		Detail:     detail,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps a raw error with AppError context
func Wrap(err error, errType ErrorType, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Type:       errType,
		Code:       string(errType),
		Message:    message,
		Detail:     err.Error(),
		HTTPStatus: getHTTPStatus(errType),
		Raw:        err,
	}
}

// As returns the *AppError inside err, if any.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == errType
}

// Helper functions for common errors
func NotFound(entity string, id interface{}) *AppError {
	return &AppError{
		Type:       NotFoundError,
		Code:       string(NotFoundError),
		Message:    fmt.Sprintf("%s not found", entity),
		Detail:     fmt.Sprintf("ID: %v", id),
		HTTPStatus: http.StatusNotFound,
	}
}

func ValidationFailed(message string, details string) *AppError {
	return &AppError{
		Type:       ValidationError,
		Code:       string(ValidationError),
		Message:    message,
		Detail:     details,
		HTTPStatus: http.StatusBadRequest,
	}
}

func AuthenticationFailed(message string) *AppError {
	return &AppError{
		Type:       AuthError,
		Code:       string(AuthError),
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewDatabaseError is the PersistenceFailure kind: storage failures are logged
// in full and propagated with a sanitized message.
func NewDatabaseError(err error) *AppError {
	logger.GetLogger().Errorw("Database error", "error", err)
	return &AppError{
		Type:       DatabaseError,
		Code:       string(DatabaseError),
		Message:    "Database operation failed",
		Detail:     "Please try again later",
		HTTPStatus: http.StatusInternalServerError,
		Raw:        err,
	}
}

func InternalServerError(message string) *AppError {
	return &AppError{
		Type:       ServerError,
		Code:       string(ServerError),
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

func Forbidden(message string, details string) *AppError {
	return &AppError{
		Type:       ForbiddenError,
		Code:       string(ForbiddenError),
		Message:    message,
		Detail:     details,
		HTTPStatus: http.StatusForbidden,
	}
}

func NewConflictError(message string, detail string) *AppError {
	return &AppError{
		Type:       ConflictError,
		Code:       string(ConflictError),
		Message:    message,
		Detail:     detail,
		HTTPStatus: http.StatusConflict,
	}
}

func Unauthorized(code, message string) error {
	return NewError(
		AuthError,
		code,
		message,
		http.StatusUnauthorized,
	)
}

func MissingParameter(name string) *AppError {
	return &AppError{
		Type:       MissingParameterError,
		Code:       string(MissingParameterError),
		Message:    "Missing required parameter",
		Detail:     name,
		HTTPStatus: http.StatusBadRequest,
	}
}

func InvalidFormat(field, value, expected string) *AppError {
	return &AppError{
		Type:       InvalidFormatError,
		Code:       string(InvalidFormatError),
		Message:    fmt.Sprintf("Invalid %s format", field),
		Detail:     fmt.Sprintf("%q does not match %s", value, expected),
		HTTPStatus: http.StatusBadRequest,
	}
}

func DriverNotFound(driverID string) *AppError {
	return &AppError{
		Type:       DriverNotFoundError,
		Code:       string(DriverNotFoundError),
		Message:    "Driver not found",
		Detail:     fmt.Sprintf("Driver ID: %s", driverID),
		HTTPStatus: http.StatusNotFound,
	}
}

func DuplicateSettlement(driverID, yearMonth string) *AppError {
	return &AppError{
		Type:       DuplicateSettlementError,
		Code:       string(DuplicateSettlementError),
		Message:    "Settlement already exists for this period",
		Detail:     fmt.Sprintf("driver %s, month %s", driverID, yearMonth),
		HTTPStatus: http.StatusConflict,
	}
}

func InvalidTransition(current, next string) *AppError {
	return &AppError{
		Type:       InvalidTransitionError,
		Code:       string(InvalidTransitionError),
		Message:    "Invalid status transition",
		Detail:     fmt.Sprintf("Cannot transition from %s to %s", current, next),
		HTTPStatus: http.StatusConflict,
	}
}

func SettlementLocked(id, status string) *AppError {
	return &AppError{
		Type:       SettlementLockedError,
		Code:       string(SettlementLockedError),
		Message:    "Settlement is locked",
		Detail:     fmt.Sprintf("Settlement %s is %s; only DRAFT settlements can be modified", id, status),
		HTTPStatus: http.StatusConflict,
	}
}

func PermissionDenied(action string) *AppError {
	return &AppError{
		Type:       PermissionDeniedError,
		Code:       string(PermissionDeniedError),
		Message:    "Permission denied",
		Detail:     fmt.Sprintf("administrator privilege required for %s", action),
		HTTPStatus: http.StatusForbidden,
	}
}

func MissingRates(detail *MissingRatesDetail) *AppError {
	msg := "Fare rates are not registered"
	if detail != nil && detail.RateClass == RateClassStopFee {
		msg = "Stop fee rate is not registered"
	}
	return &AppError{
		Type:       MissingRatesError,
		Code:       string(MissingRatesError),
		Message:    msg,
		Data:       detail,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// RateLimitExceeded carries the retry delay in seconds in Data.
func RateLimitExceeded(message string, retryAfterSeconds int) *AppError {
	return &AppError{
		Type:       RateLimitError,
		Code:       string(RateLimitError),
		Message:    message,
		Detail:     fmt.Sprintf("retry after %d seconds", retryAfterSeconds),
		Data:       map[string]int{"retryAfter": retryAfterSeconds},
		HTTPStatus: http.StatusTooManyRequests,
	}
}

func getHTTPStatus(errType ErrorType) int {
	switch errType {
	case ValidationError, MissingParameterError, InvalidFormatError:
		return http.StatusBadRequest
	case NotFoundError, DriverNotFoundError:
		return http.StatusNotFound
	case AuthError:
		return http.StatusUnauthorized
	case ForbiddenError, PermissionDeniedError:
		return http.StatusForbidden
	case ConflictError, DuplicateSettlementError, InvalidTransitionError, SettlementLockedError:
		return http.StatusConflict
	case MissingRatesError:
		return http.StatusUnprocessableEntity
	case RateLimitError:
		return http.StatusTooManyRequests
	case DatabaseError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func NewError(errType ErrorType, code string, message string, status int) error {
	return &AppError{
		Type:       errType,
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}
