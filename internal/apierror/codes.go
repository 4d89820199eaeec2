package apierror

// Error type URIs following the urn:hygieia:error:* pattern.
// These are used as the "type" field in RFC 9457 Problem Details.
const (
	// TypeValidation indicates request validation failed (400)
	TypeValidation = "urn:hygieia:error:validation"

	// TypeNotFound indicates the requested resource was not found (404)
	TypeNotFound = "urn:hygieia:error:not_found"

	// TypeConflict indicates a resource conflict (409)
	TypeConflict = "urn:hygieia:error:conflict"

	// TypeRateLimit indicates too many requests (429)
	TypeRateLimit = "urn:hygieia:error:rate_limit"

	// TypeInternal indicates an unexpected server error (500)
	TypeInternal = "urn:hygieia:error:internal"

	// TypeBadRequest indicates a malformed or invalid request (400)
	TypeBadRequest = "urn:hygieia:error:bad_request"

	// TypeMalformedSeries indicates a metric series violating the
	// date-ordering invariant (400)
	TypeMalformedSeries = "urn:hygieia:error:malformed_series"

	// TypeTrainingInProgress indicates a rejected concurrent training
	// request (409)
	TypeTrainingInProgress = "urn:hygieia:error:training_in_progress"
)

// Titles for each error type - human-readable summaries
const (
	TitleValidation         = "Validation Error"
	TitleNotFound           = "Resource Not Found"
	TitleConflict           = "Resource Conflict"
	TitleRateLimit          = "Rate Limit Exceeded"
	TitleInternal           = "Internal Server Error"
	TitleBadRequest         = "Bad Request"
	TitleMalformedSeries    = "Malformed Metric Series"
	TitleTrainingInProgress = "Training Already In Progress"
)
