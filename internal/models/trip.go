package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TripStatus string

const (
	TripStatusPending   TripStatus = "Pending"
	TripStatusAccepted  TripStatus = "Accepted"
	TripStatusEnRoute   TripStatus = "En-route"
	TripStatusArrived   TripStatus = "Arrived"
	TripStatusCompleted TripStatus = "Completed"
	TripStatusCancelled TripStatus = "Cancelled"
)

// IsTerminal reports whether the trip can no longer change status.
// Terminal trips are retained as history, never deleted.
func (s TripStatus) IsTerminal() bool {
	return s == TripStatusCompleted || s == TripStatusCancelled
}

// IsActive reports whether an ambulance is currently bound to the trip.
func (s TripStatus) IsActive() bool {
	return s == TripStatusAccepted || s == TripStatusEnRoute || s == TripStatusArrived
}

// PatientSummary is the slice of patient data carried on offer and
// hospital-alert payloads so responders can triage without another lookup.
type PatientSummary struct {
	Name           string `json:"name" bson:"name"`
	Phone          string `json:"phone" bson:"phone"`
	BloodGroup     string `json:"blood_group" bson:"blood_group"`
	MedicalHistory string `json:"medical_history" bson:"medical_history"`
}

type Trip struct {
	ID                 primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	PatientID          primitive.ObjectID  `json:"patient_id" bson:"patient_id" validate:"required"`
	AmbulanceID        *primitive.ObjectID `json:"ambulance_id" bson:"ambulance_id"`
	HospitalID         *primitive.ObjectID `json:"hospital_id" bson:"hospital_id"`
	PickupLocation     GeoPoint            `json:"pickup_location" bson:"pickup_location" validate:"required"`
	Status             TripStatus          `json:"status" bson:"status"`
	Escalated          bool                `json:"escalated" bson:"escalated"`
	AssignedByOperator bool                `json:"assigned_by_operator" bson:"assigned_by_operator"`
	PatientSummary     PatientSummary      `json:"patient_summary" bson:"patient_summary"`
	RequestedAt        time.Time           `json:"requested_at" bson:"requested_at"`
	AcceptedAt         *time.Time          `json:"accepted_at" bson:"accepted_at"`
	EnRouteAt          *time.Time          `json:"en_route_at" bson:"en_route_at"`
	ArrivedAt          *time.Time          `json:"arrived_at" bson:"arrived_at"`
	CompletedAt        *time.Time          `json:"completed_at" bson:"completed_at"`
	CancelledAt        *time.Time          `json:"cancelled_at" bson:"cancelled_at"`
	CreatedAt          time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at" bson:"updated_at"`
}
