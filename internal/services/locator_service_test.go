package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"lifeline/internal/models"
)

// ringAmbulanceRepo returns candidates only once the query radius reaches a
// configured threshold, and records every radius it was asked about.
type ringAmbulanceRepo struct {
	fakeAmbulanceRepo
	foundAtKM float64
	queried   []float64
	result    []*models.Ambulance
}

func (r *ringAmbulanceRepo) FindNearbyReady(_ context.Context, _, _, radiusKM float64, _ int64) ([]*models.Ambulance, error) {
	r.queried = append(r.queried, radiusKM)
	if radiusKM >= r.foundAtKM {
		return r.result, nil
	}
	return nil, nil
}

func TestFindAmbulancesExpandsRingsUntilHit(t *testing.T) {
	repo := &ringAmbulanceRepo{
		foundAtKM: 15,
		result:    []*models.Ambulance{newTestAmbulance()},
	}

	svc := NewLocatorService(repo, newFakeHospitalRepo(), dispatchTestConfig(), testLogger())

	found, err := svc.FindAmbulances(context.Background(), models.NewGeoPoint(77.59, 12.97))
	require.NoError(t, err)
	require.Len(t, found, 1)

	// 5 and 10 km came up empty; the search stopped at the first hit.
	assert.Equal(t, []float64{5, 10, 15}, repo.queried)
}

func TestFindAmbulancesEmptyAtCeilingIsNotAnError(t *testing.T) {
	repo := &ringAmbulanceRepo{foundAtKM: 1000}

	svc := NewLocatorService(repo, newFakeHospitalRepo(), dispatchTestConfig(), testLogger())

	found, err := svc.FindAmbulances(context.Background(), models.NewGeoPoint(77.59, 12.97))
	require.NoError(t, err)
	assert.Empty(t, found)

	// The ladder ran 5 through 50 and no further.
	require.NotEmpty(t, repo.queried)
	assert.Equal(t, float64(50), repo.queried[len(repo.queried)-1])
	assert.Len(t, repo.queried, 10)
}

func TestFindHospitalsSingleQualifiedQuery(t *testing.T) {
	hospitals := newFakeHospitalRepo()

	full := &models.Hospital{
		ID:        primitive.NewObjectID(),
		Name:      "No Beds",
		Inventory: models.HospitalInventory{Beds: models.BedInventory{Total: 5, Available: 0}},
	}
	open := &models.Hospital{
		ID:        primitive.NewObjectID(),
		Name:      "Open",
		Inventory: models.HospitalInventory{Beds: models.BedInventory{Total: 5, Available: 2}},
	}
	require.NoError(t, hospitals.Create(context.Background(), full))
	require.NoError(t, hospitals.Create(context.Background(), open))

	svc := NewLocatorService(newFakeAmbulanceRepo(), hospitals, dispatchTestConfig(), testLogger())

	found, err := svc.FindHospitals(context.Background(), models.NewGeoPoint(77.59, 12.97), "")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Open", found[0].Name)
}

func TestFindHospitalsFiltersByBloodStock(t *testing.T) {
	hospitals := newFakeHospitalRepo()

	stocked := &models.Hospital{
		ID:   primitive.NewObjectID(),
		Name: "Stocked",
		Inventory: models.HospitalInventory{
			Beds:       models.BedInventory{Total: 5, Available: 1},
			BloodStock: map[string]int{"b_positive": 4},
		},
	}
	dry := &models.Hospital{
		ID:   primitive.NewObjectID(),
		Name: "Dry",
		Inventory: models.HospitalInventory{
			Beds:       models.BedInventory{Total: 5, Available: 1},
			BloodStock: map[string]int{"b_positive": 0},
		},
	}
	require.NoError(t, hospitals.Create(context.Background(), stocked))
	require.NoError(t, hospitals.Create(context.Background(), dry))

	svc := NewLocatorService(newFakeAmbulanceRepo(), hospitals, dispatchTestConfig(), testLogger())

	found, err := svc.FindHospitals(context.Background(), models.NewGeoPoint(77.59, 12.97), "B+")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Stocked", found[0].Name)
}
