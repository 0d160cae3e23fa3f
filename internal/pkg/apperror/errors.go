package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden     ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest    ErrorCode = "BAD_REQUEST"
	ErrCodeConflict      ErrorCode = "CONFLICT"
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation    ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrCodeLockTimeout   ErrorCode = "LOCK_TIMEOUT"

	// Коды ядра переговоров и исполнения заказов.
	ErrCodeInvalidListing      ErrorCode = "INVALID_LISTING"
	ErrCodeInvalidQuantity     ErrorCode = "INVALID_QUANTITY"
	ErrCodeSelfTrade           ErrorCode = "SELF_TRADE"
	ErrCodeMixedSellers        ErrorCode = "MIXED_SELLERS"
	ErrCodeSellerArchived      ErrorCode = "SELLER_ARCHIVED"
	ErrCodeInvalidService      ErrorCode = "INVALID_SERVICE"
	ErrCodeInvalidSessionState ErrorCode = "INVALID_SESSION_STATE"
	ErrCodeTooFewSessions      ErrorCode = "TOO_FEW_SESSIONS"
	ErrCodeAlreadyClosed       ErrorCode = "ALREADY_CLOSED"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// codeToHTTPStatus: UNAUTHORIZED ядра означает «у участника нет права на действие»,
// поэтому отдаётся 403. Отсутствие токена middleware отвечает 401 напрямую.
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized, ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation,
		ErrCodeInvalidListing, ErrCodeInvalidQuantity, ErrCodeSelfTrade,
		ErrCodeMixedSellers, ErrCodeInvalidService, ErrCodeTooFewSessions:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeInvalidSessionState, ErrCodeAlreadyClosed, ErrCodeSellerArchived:
		return http.StatusConflict
	case ErrCodeLockTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// CodeOf возвращает код ошибки или INTERNAL_ERROR для неизвестных ошибок.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool {
	return Is(err, ErrCodeNotFound)
}

var (
	ErrSessionNotFound      = New(ErrCodeNotFound, "сессия предложений не найдена")
	ErrOfferNotFound        = New(ErrCodeNotFound, "предложение не найдено")
	ErrOrderNotFound        = New(ErrCodeNotFound, "заказ не найден")
	ErrListingNotFound      = New(ErrCodeNotFound, "лот не найден")
	ErrOrganizationNotFound = New(ErrCodeNotFound, "организация не найдена")
	ErrContractNotFound     = New(ErrCodeNotFound, "публичный контракт не найден")
	ErrServiceNotFound      = New(ErrCodeNotFound, "услуга не найдена")
	ErrUnauthorized         = New(ErrCodeUnauthorized, "недостаточно прав для действия")
)
