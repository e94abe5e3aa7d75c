package errors

import (
	"net/http"
	"strings"
)

// ErrorCode names a failure category as MODULE_NNN. The module prefix is one
// of COMMON, TERM, PAT or SRC.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeCacheMiss          ErrorCode = "COMMON_017"
)

// Term Engine Error Codes
const (
	ErrCodeInvalidDate       ErrorCode = "TERM_001"
	ErrCodeMissingFilingDate ErrorCode = "TERM_002"
	ErrCodeMissingGrantDate  ErrorCode = "TERM_003"
	ErrCodeUnknownPatentKind ErrorCode = "TERM_004"
)

// Patent Lookup Error Codes
const (
	ErrCodePatentNotFound      ErrorCode = "PAT_001"
	ErrCodePatentNumberInvalid ErrorCode = "PAT_003"
)

// Data Source Error Codes
const (
	ErrCodeDataSourceUnavailable ErrorCode = "SRC_001"
	ErrCodeDataSourceRateLimited ErrorCode = "SRC_002"
	ErrCodeDataSourceAuthFailed  ErrorCode = "SRC_003"
	ErrCodeDataSourceParseError  ErrorCode = "SRC_004"
)

// Sentinel codes that never appear on the wire.
const (
	CodeOK      = ErrorCode("OK")
	CodeUnknown = ErrorCode("UNKNOWN")
)

type codeInfo struct {
	status  int
	message string
}

var registry = map[ErrorCode]codeInfo{
	ErrCodeInternal:           {http.StatusInternalServerError, "internal server error"},
	ErrCodeBadRequest:         {http.StatusBadRequest, "bad request"},
	ErrCodeNotFound:           {http.StatusNotFound, "resource not found"},
	ErrCodeTooManyRequests:    {http.StatusTooManyRequests, "too many requests"},
	ErrCodeServiceUnavailable: {http.StatusServiceUnavailable, "service unavailable"},
	ErrCodeSerialization:      {http.StatusInternalServerError, "serialization failed"},
	ErrCodeCacheError:         {http.StatusInternalServerError, "cache error"},
	ErrCodeCacheMiss:          {http.StatusNotFound, "cache miss"},

	ErrCodeInvalidDate:       {http.StatusBadRequest, "invalid calendar date"},
	ErrCodeMissingFilingDate: {http.StatusBadRequest, "filing date not available"},
	ErrCodeMissingGrantDate:  {http.StatusBadRequest, "grant date required"},
	ErrCodeUnknownPatentKind: {http.StatusBadRequest, "unknown patent kind"},

	ErrCodePatentNotFound:      {http.StatusNotFound, "patent not found"},
	ErrCodePatentNumberInvalid: {http.StatusBadRequest, "invalid patent number"},

	ErrCodeDataSourceUnavailable: {http.StatusServiceUnavailable, "data source unavailable"},
	ErrCodeDataSourceRateLimited: {http.StatusTooManyRequests, "data source rate limited"},
	ErrCodeDataSourceAuthFailed:  {http.StatusBadGateway, "data source authentication failed"},
	ErrCodeDataSourceParseError:  {http.StatusBadGateway, "failed to parse data source response"},
}

// Known reports whether c is a registered wire code.
func (c ErrorCode) Known() bool {
	_, ok := registry[c]
	return ok
}

// HTTPStatus is 500 for unregistered codes.
func (c ErrorCode) HTTPStatus() int {
	if info, ok := registry[c]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

func (c ErrorCode) DefaultMessage() string {
	if info, ok := registry[c]; ok {
		return info.message
	}
	return "unknown error"
}

// Module returns the prefix before the first underscore.
func (c ErrorCode) Module() string {
	if mod, _, _ := strings.Cut(string(c), "_"); mod != "" {
		return mod
	}
	return "UNKNOWN"
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	return code.HTTPStatus()
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := code.HTTPStatus()
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	return code.HTTPStatus() >= 500
}
