package services

import (
	"errors"
	"net/http"
)

// Sentinel errors for the order/payment engine. Callers classify with
// errors.Is and attach context with fmt.Errorf("%w: ...").
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrAuthentication    = errors.New("authentication failed")
	ErrPrecondition      = errors.New("precondition failed")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrGateway           = errors.New("payment gateway error")
)

// HTTPStatus maps an engine error onto the HTTP status the handlers use.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrPrecondition), errors.Is(err, ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, ErrGateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
