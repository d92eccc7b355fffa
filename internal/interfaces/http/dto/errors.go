package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationFormat   = "ERR_VALIDATION_FORMAT"
	ErrCodeValidationRange    = "ERR_VALIDATION_RANGE"
)

// Resource error codes
const (
	ErrCodeNotFound = "ERR_NOT_FOUND"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Analytics error codes
const (
	// ErrCodeInvalidPeriod is used when a year/month combination cannot be resolved
	ErrCodeInvalidPeriod = "ERR_INVALID_PERIOD"
	// ErrCodeInvalidDimension is used for an unknown grouping dimension or forecast kind
	ErrCodeInvalidDimension = "ERR_INVALID_DIMENSION"
	// ErrCodeInvalidBasis is used for an unknown RFM monetary basis
	ErrCodeInvalidBasis = "ERR_INVALID_BASIS"
	// ErrCodeInvalidBands is used for malformed segment bands
	ErrCodeInvalidBands = "ERR_INVALID_BANDS"
	// ErrCodeInvalidWeights is used for malformed RFM weights
	ErrCodeInvalidWeights = "ERR_INVALID_WEIGHTS"
	// ErrCodeCollaboratorUnavailable is used when the forecast source or narrator fails
	ErrCodeCollaboratorUnavailable = "ERR_COLLABORATOR_UNAVAILABLE"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	ErrCodeNotFound: http.StatusNotFound,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	// Analytics input errors -> 400 Bad Request
	ErrCodeInvalidPeriod:    http.StatusBadRequest,
	ErrCodeInvalidDimension: http.StatusBadRequest,
	ErrCodeInvalidBasis:     http.StatusBadRequest,
	ErrCodeInvalidBands:     http.StatusBadRequest,
	ErrCodeInvalidWeights:   http.StatusBadRequest,

	// Collaborator failures -> 503 Service Unavailable
	ErrCodeCollaboratorUnavailable: http.StatusServiceUnavailable,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":                ErrCodeNotFound,
	"INVALID_INPUT":            ErrCodeInvalidInput,
	"INVALID_PERIOD":           ErrCodeInvalidPeriod,
	"INVALID_DIMENSION":        ErrCodeInvalidDimension,
	"INVALID_BASIS":            ErrCodeInvalidBasis,
	"INVALID_BANDS":            ErrCodeInvalidBands,
	"INVALID_WEIGHTS":          ErrCodeInvalidWeights,
	"COLLABORATOR_UNAVAILABLE": ErrCodeCollaboratorUnavailable,
	"INTERNAL_ERROR":           ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Codes already in the API format, or unknown, are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
