package interfaces

import "errors"

// Contention and absence outcomes. These are ordinary business results of
// racing actors, surfaced as definite values rather than logged failures.
var (
	ErrTripNotFound      = errors.New("trip not found")
	ErrStatusConflict    = errors.New("trip status precondition failed")
	ErrAmbulanceNotFound = errors.New("ambulance not found")
	ErrHospitalNotFound  = errors.New("hospital not found")
	ErrPatientNotFound   = errors.New("patient not found")
	ErrNoBedsAvailable   = errors.New("no beds available")
	ErrNoBloodStock      = errors.New("no blood stock available")
	ErrDestinationSet    = errors.New("trip destination already set")
)
