package utils

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Entity roles carried in JWT claims and presence entries.
const (
	EntityTypePatient   = "patient"
	EntityTypeAmbulance = "ambulance"
	EntityTypeHospital  = "hospital"
	EntityTypeOperator  = "operator"
)

// Event names published over live channels.
const (
	EventOffer           = "offer"
	EventAccepted        = "accepted"
	EventStatusChanged   = "status_changed"
	EventLocationUpdated = "location_updated"
	EventEscalation      = "escalation"
	EventCriticalAlert   = "critical_alert"
	EventBedUnavailable  = "bed_unavailable"
	EventAlreadyTaken    = "already_taken"
)

// OperatorChannelID addresses the shared dispatch-desk channel. Operators
// announce presence under this id rather than their personal identity.
const OperatorChannelID = "dispatch-operators"

// API error codes.
const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeConflict     = "CONFLICT"
	ErrCodeInternal     = "INTERNAL_ERROR"
)
