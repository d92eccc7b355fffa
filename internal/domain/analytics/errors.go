package analytics

import "github.com/salesinsight/backend/internal/domain/shared"

// Analytics domain errors
var (
	ErrInvalidPeriod           = shared.NewDomainError("INVALID_PERIOD", "Requested period cannot be resolved")
	ErrInvalidDimension        = shared.NewDomainError("INVALID_DIMENSION", "Unknown aggregation dimension")
	ErrInvalidBasis            = shared.NewDomainError("INVALID_BASIS", "Unknown monetary basis")
	ErrInvalidBands            = shared.NewDomainError("INVALID_BANDS", "Segment bands must be strictly increasing within (0, 1]")
	ErrInvalidWeights          = shared.NewDomainError("INVALID_WEIGHTS", "RFM weights must be non-negative with a positive sum")
	ErrCollaboratorUnavailable = shared.NewDomainError("COLLABORATOR_UNAVAILABLE", "External collaborator is unavailable")
)
