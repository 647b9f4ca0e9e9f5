package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"
	"lifeline/internal/utils"
)

func seedHospital(t *testing.T, hospitals *fakeHospitalRepo, beds int, bloodStock map[string]int) *models.Hospital {
	t.Helper()

	hospital := &models.Hospital{
		Name:     "City General",
		Location: models.NewGeoPoint(77.58, 12.96),
		Inventory: models.HospitalInventory{
			Beds:       models.BedInventory{Total: beds, Available: beds},
			BloodStock: bloodStock,
		},
	}
	require.NoError(t, hospitals.Create(context.Background(), hospital))
	return hospital
}

func acceptedTrip(t *testing.T, trips *fakeTripRepo, ambulances *fakeAmbulanceRepo) (*models.Trip, *models.Ambulance) {
	t.Helper()

	trip := pendingTrip(t, trips)
	crew := seedAmbulance(t, ambulances, models.AmbulanceStatusReady)

	accepted, err := trips.Accept(context.Background(), trip.ID, crew.ID)
	require.NoError(t, err)
	return accepted, crew
}

func TestSelectHospitalReservesBedAndAlerts(t *testing.T) {
	trips := newFakeTripRepo()
	ambulances := newFakeAmbulanceRepo()
	hospitals := newFakeHospitalRepo()
	relay := newFakeRelay()

	trip, crew := acceptedTrip(t, trips, ambulances)
	hospital := seedHospital(t, hospitals, 3, nil)

	svc := NewReservationService(trips, hospitals, &fakeLocator{}, relay, testLogger())

	bound, err := svc.SelectHospital(context.Background(), trip.ID, hospital.ID, "")
	require.NoError(t, err)
	require.NotNil(t, bound.HospitalID)
	assert.Equal(t, hospital.ID, *bound.HospitalID)

	stored, err := hospitals.GetByID(context.Background(), hospital.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Inventory.Beds.Available)

	// The hospital is pre-notified with the inbound patient's summary.
	alerts := relay.eventsFor(hospital.ID.Hex())
	require.Len(t, alerts, 1)
	assert.Equal(t, utils.EventCriticalAlert, alerts[0].Event)
	assert.Equal(t, trip.PatientSummary, alerts[0].Payload["patient"])
	assert.Equal(t, crew.ID.Hex(), alerts[0].Payload["ambulance_id"])
}

func TestSelectHospitalLastBedSingleWinner(t *testing.T) {
	trips := newFakeTripRepo()
	ambulances := newFakeAmbulanceRepo()
	hospitals := newFakeHospitalRepo()
	relay := newFakeRelay()

	hospital := seedHospital(t, hospitals, 1, nil)
	svc := NewReservationService(trips, hospitals, &fakeLocator{}, relay, testLogger())

	const crews = 6
	results := make([]error, crews)

	var wg sync.WaitGroup
	for i := 0; i < crews; i++ {
		trip, _ := acceptedTrip(t, trips, ambulances)

		wg.Add(1)
		go func(i int, tripID primitive.ObjectID) {
			defer wg.Done()
			_, results[i] = svc.SelectHospital(context.Background(), tripID, hospital.ID, "")
		}(i, trip.ID)
	}
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, interfaces.ErrNoBedsAvailable)
		}
	}
	assert.Equal(t, 1, winners)

	stored, err := hospitals.GetByID(context.Background(), hospital.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Inventory.Beds.Available, "counter never goes negative")

	// Each loser's crew was told the bed is gone.
	assert.Equal(t, crews-1, relay.countOf(utils.EventBedUnavailable))
}

func TestSelectHospitalReleasesBedWhenBindFails(t *testing.T) {
	trips := newFakeTripRepo()
	ambulances := newFakeAmbulanceRepo()
	hospitals := newFakeHospitalRepo()

	trip, _ := acceptedTrip(t, trips, ambulances)
	first := seedHospital(t, hospitals, 2, nil)
	second := seedHospital(t, hospitals, 2, nil)

	svc := NewReservationService(trips, hospitals, &fakeLocator{}, newFakeRelay(), testLogger())

	_, err := svc.SelectHospital(context.Background(), trip.ID, first.ID, "")
	require.NoError(t, err)

	// Second selection fails on the destination guard; its bed must come back.
	_, err = svc.SelectHospital(context.Background(), trip.ID, second.ID, "")
	assert.ErrorIs(t, err, interfaces.ErrDestinationSet)

	stored, err := hospitals.GetByID(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Inventory.Beds.Available)
}

func TestSelectHospitalWithBloodReservation(t *testing.T) {
	trips := newFakeTripRepo()
	ambulances := newFakeAmbulanceRepo()
	hospitals := newFakeHospitalRepo()

	trip, _ := acceptedTrip(t, trips, ambulances)
	hospital := seedHospital(t, hospitals, 2, map[string]int{"o_negative": 1})

	svc := NewReservationService(trips, hospitals, &fakeLocator{}, newFakeRelay(), testLogger())

	_, err := svc.SelectHospital(context.Background(), trip.ID, hospital.ID, "O-")
	require.NoError(t, err)

	stored, err := hospitals.GetByID(context.Background(), hospital.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Inventory.Beds.Available)
	assert.Equal(t, 0, stored.Inventory.BloodStock["o_negative"])
}

func TestSelectHospitalNoBloodStockReleasesBed(t *testing.T) {
	trips := newFakeTripRepo()
	ambulances := newFakeAmbulanceRepo()
	hospitals := newFakeHospitalRepo()

	trip, _ := acceptedTrip(t, trips, ambulances)
	hospital := seedHospital(t, hospitals, 2, map[string]int{})

	svc := NewReservationService(trips, hospitals, &fakeLocator{}, newFakeRelay(), testLogger())

	_, err := svc.SelectHospital(context.Background(), trip.ID, hospital.ID, "AB+")
	assert.ErrorIs(t, err, interfaces.ErrNoBloodStock)

	stored, err := hospitals.GetByID(context.Background(), hospital.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Inventory.Beds.Available, "bed returned after blood failure")
}

func TestSelectHospitalRejectsInactiveTrip(t *testing.T) {
	trips := newFakeTripRepo()
	hospitals := newFakeHospitalRepo()

	trip := pendingTrip(t, trips)
	hospital := seedHospital(t, hospitals, 2, nil)

	svc := NewReservationService(trips, hospitals, &fakeLocator{}, newFakeRelay(), testLogger())

	// Pending trips have no crew to receive the destination.
	_, err := svc.SelectHospital(context.Background(), trip.ID, hospital.ID, "")
	assert.ErrorIs(t, err, interfaces.ErrStatusConflict)

	stored, err := hospitals.GetByID(context.Background(), hospital.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Inventory.Beds.Available)
}
