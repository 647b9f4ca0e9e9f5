package interfaces

import (
	"context"

	"lifeline/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AmbulanceRepository interface {
	Create(ctx context.Context, ambulance *models.Ambulance) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ambulance, error)

	// FindNearbyReady returns ready ambulances within radiusKM of the
	// point, ascending by distance. An empty slice is a normal outcome.
	FindNearbyReady(ctx context.Context, longitude, latitude, radiusKM float64, limit int64) ([]*models.Ambulance, error)

	UpdateLocation(ctx context.Context, id primitive.ObjectID, location models.GeoPoint) error
	SetStatus(ctx context.Context, id primitive.ObjectID, status models.AmbulanceStatus) error
}
