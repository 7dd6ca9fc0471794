package httpapi

import (
	"errors"
	"net/http"

	"github.com/opensource-kemini/kemini-backend/internal/common"
)

// Response is the uniform envelope every endpoint returns: a status
// discriminator, a human-readable message, and either a payload or a
// structured error.
type Response struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the stable {code, message} pair carried on failures.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func successResponse(message string, data any) Response {
	return Response{Status: "success", Message: message, Data: data}
}

func errorResponse(code, message string) Response {
	return Response{Status: "error", Message: message, Error: &ErrorResponse{Code: code, Message: message}}
}

// translate maps the closed error taxonomy to transport status codes and
// stable error codes. Provider-side failure detail is never echoed to the
// caller; validation failures may carry the offending reason.
func translate(err error) (int, Response) {
	switch {
	case errors.Is(err, common.ErrUnauthenticated):
		return http.StatusUnauthorized, errorResponse("TOKEN_INVALID", "token is invalid or expired, please sign in again")
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, errorResponse("FORBIDDEN", "no permission for this resource")
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, errorResponse("NOT_FOUND", "resource not found")
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, errorResponse("VALIDATION_ERROR", err.Error())
	case errors.Is(err, common.ErrUpstream):
		return http.StatusBadGateway, errorResponse("UPSTREAM_ERROR", "an external provider call failed")
	default:
		return http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "internal server error")
	}
}
