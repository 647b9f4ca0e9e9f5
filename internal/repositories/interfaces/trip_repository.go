package interfaces

import (
	"context"

	"lifeline/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TripRepository owns trip persistence. Every transition method is an
// atomic conditional update: it succeeds only if the trip is still in the
// expected prior status, and returns ErrStatusConflict otherwise. That
// conditional write is what keeps two ambulances from accepting the same
// trip and absorbs duplicate or out-of-order client messages.
type TripRepository interface {
	Create(ctx context.Context, trip *models.Trip) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Trip, error)
	GetStatus(ctx context.Context, id primitive.ObjectID) (models.TripStatus, error)

	// Accept transitions Pending -> Accepted and binds the ambulance.
	Accept(ctx context.Context, tripID, ambulanceID primitive.ObjectID) (*models.Trip, error)
	// AssignByOperator is Accept performed by a human operator; it records
	// that fact on the trip in the same conditional write.
	AssignByOperator(ctx context.Context, tripID, ambulanceID primitive.ObjectID) (*models.Trip, error)
	// MarkEnRoute transitions Accepted -> En-route.
	MarkEnRoute(ctx context.Context, tripID primitive.ObjectID) (*models.Trip, error)
	// MarkArrived transitions Accepted or En-route -> Arrived.
	MarkArrived(ctx context.Context, tripID primitive.ObjectID) (*models.Trip, error)
	// Complete transitions Accepted, En-route or Arrived -> Completed.
	Complete(ctx context.Context, tripID primitive.ObjectID) (*models.Trip, error)
	// Cancel transitions Pending or Accepted -> Cancelled.
	Cancel(ctx context.Context, tripID primitive.ObjectID) (*models.Trip, error)

	// MarkEscalated flags the trip for operator attention; only valid while
	// the trip is still Pending.
	MarkEscalated(ctx context.Context, tripID primitive.ObjectID) (*models.Trip, error)

	// BindHospital sets the destination, but only while the trip is active
	// and no destination has been bound yet (ErrDestinationSet otherwise).
	BindHospital(ctx context.Context, tripID, hospitalID primitive.ObjectID) (*models.Trip, error)

	ListByPatient(ctx context.Context, patientID primitive.ObjectID, limit int64) ([]*models.Trip, error)
	ListByAmbulance(ctx context.Context, ambulanceID primitive.ObjectID, limit int64) ([]*models.Trip, error)
	ListEscalated(ctx context.Context, limit int64) ([]*models.Trip, error)
}
