package interfaces

import (
	"context"

	"lifeline/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type HospitalRepository interface {
	Create(ctx context.Context, hospital *models.Hospital) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Hospital, error)

	// FindNearbyWithCapacity returns hospitals within radiusKM that have at
	// least one free bed, ascending by distance. A non-empty bloodGroup
	// additionally requires stock of that group.
	FindNearbyWithCapacity(ctx context.Context, longitude, latitude, radiusKM float64, bloodGroup string) ([]*models.Hospital, error)

	// ReserveBed atomically decrements the free-bed counter, but only if it
	// is above zero, and returns the post-update document. A counter that
	// was already zero yields ErrNoBedsAvailable, the losing side of an
	// ordinary race rather than a fault.
	ReserveBed(ctx context.Context, id primitive.ObjectID) (*models.Hospital, error)
	// ReleaseBed increments the counter back; the compensating move when a
	// step after a successful reservation fails.
	ReleaseBed(ctx context.Context, id primitive.ObjectID) error

	// ReserveBloodUnit and ReleaseBloodUnit work the same way against one
	// blood-group counter.
	ReserveBloodUnit(ctx context.Context, id primitive.ObjectID, bloodGroup string) (*models.Hospital, error)
	ReleaseBloodUnit(ctx context.Context, id primitive.ObjectID, bloodGroup string) error

	// UpdateInventory applies absolute counts set from the hospital's own
	// dashboard. Reservation traffic never goes through here.
	UpdateInventory(ctx context.Context, id primitive.ObjectID, inventory models.HospitalInventory) error
}
