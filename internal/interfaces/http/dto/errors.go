package dto

import (
	"net/http"
	"strings"
)

// Error codes surfaced by the API that do not originate in the domain
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeUnauthorized = "UNAUTHORIZED"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Tenant mismatch is deliberately 403 rather than 404: the caller is
// told the resource exists but is off-limits, matching the error the
// services raise.
var errorCodeHTTPStatus = map[string]int{
	"NOT_FOUND":            http.StatusNotFound,
	"ALREADY_EXISTS":       http.StatusConflict,
	"ALREADY_VOIDED":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"UNAUTHORIZED":         http.StatusUnauthorized,
	"TOKEN_EXPIRED":        http.StatusUnauthorized,
	"INVALID_TOKEN":        http.StatusUnauthorized,
	"FORBIDDEN":            http.StatusForbidden,
	"TENANT_MISMATCH":      http.StatusForbidden,
	"INVALID_STATE":        http.StatusUnprocessableEntity,
	"INSUFFICIENT_STOCK":   http.StatusUnprocessableEntity,
	"BAD_REQUEST":          http.StatusBadRequest,
	"INTERNAL_ERROR":       http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for a domain error code. The
// INVALID_ family of validation codes all map to 400; anything unknown
// is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
