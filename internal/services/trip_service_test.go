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

type noopDispatch struct{}

func (noopDispatch) InitiateDispatch(*models.Trip) {}

func newTripServiceForTest(trips *fakeTripRepo, ambulances *fakeAmbulanceRepo, patients *fakePatientRepo, relay *fakeRelay) TripService {
	return NewTripService(trips, ambulances, patients, noopDispatch{}, relay, testLogger())
}

func seedPatient(t *testing.T, patients *fakePatientRepo) *models.Patient {
	t.Helper()

	patient := &models.Patient{
		Name:       "Ravi",
		Phone:      "+911234567890",
		BloodGroup: "O-",
	}
	require.NoError(t, patients.Create(context.Background(), patient))
	return patient
}

func seedAmbulance(t *testing.T, ambulances *fakeAmbulanceRepo, status models.AmbulanceStatus) *models.Ambulance {
	t.Helper()

	ambulance := newTestAmbulance()
	ambulance.Status = status
	require.NoError(t, ambulances.Create(context.Background(), ambulance))
	return ambulance
}

func TestRequestTripSnapshotsPatientSummary(t *testing.T) {
	trips := newFakeTripRepo()
	patients := newFakePatientRepo()
	patient := seedPatient(t, patients)

	svc := newTripServiceForTest(trips, newFakeAmbulanceRepo(), patients, newFakeRelay())

	trip, err := svc.RequestTrip(context.Background(), patient.ID, models.NewGeoPoint(77.59, 12.97))
	require.NoError(t, err)

	assert.Equal(t, models.TripStatusPending, trip.Status)
	assert.Equal(t, patient.Name, trip.PatientSummary.Name)
	assert.Equal(t, patient.BloodGroup, trip.PatientSummary.BloodGroup)
	assert.False(t, trip.RequestedAt.IsZero())
}

func TestRequestTripUnknownPatient(t *testing.T) {
	svc := newTripServiceForTest(newFakeTripRepo(), newFakeAmbulanceRepo(), newFakePatientRepo(), newFakeRelay())

	_, err := svc.RequestTrip(context.Background(), primitive.NewObjectID(), models.NewGeoPoint(0, 0))
	assert.ErrorIs(t, err, interfaces.ErrPatientNotFound)
}

func TestConcurrentAcceptHasExactlyOneWinner(t *testing.T) {
	trips := newFakeTripRepo()
	ambulances := newFakeAmbulanceRepo()
	patients := newFakePatientRepo()
	relay := newFakeRelay()

	trip := pendingTrip(t, trips)
	svc := newTripServiceForTest(trips, ambulances, patients, relay)

	const crews = 8
	crewIDs := make([]primitive.ObjectID, crews)
	results := make([]error, crews)

	var wg sync.WaitGroup
	for i := 0; i < crews; i++ {
		crew := seedAmbulance(t, ambulances, models.AmbulanceStatusReady)
		crewIDs[i] = crew.ID

		wg.Add(1)
		go func(i int, id primitive.ObjectID) {
			defer wg.Done()
			_, results[i] = svc.Accept(context.Background(), trip.ID, id)
		}(i, crew.ID)
	}
	wg.Wait()

	winners := 0
	for i, err := range results {
		if err == nil {
			winners++
			stored, getErr := trips.GetByID(context.Background(), trip.ID)
			require.NoError(t, getErr)
			assert.Equal(t, crewIDs[i], *stored.AmbulanceID)
		} else {
			assert.ErrorIs(t, err, interfaces.ErrStatusConflict)
		}
	}
	assert.Equal(t, 1, winners)

	// Every loser was told the trip is gone.
	assert.Equal(t, crews-1, relay.countOf(utils.EventAlreadyTaken))
}

func TestAcceptFlipsAmbulanceOnTripAndNotifiesPatient(t *testing.T) {
	trips := newFakeTripRepo()
	ambulances := newFakeAmbulanceRepo()
	relay := newFakeRelay()

	trip := pendingTrip(t, trips)
	crew := seedAmbulance(t, ambulances, models.AmbulanceStatusReady)

	svc := newTripServiceForTest(trips, ambulances, newFakePatientRepo(), relay)

	_, err := svc.Accept(context.Background(), trip.ID, crew.ID)
	require.NoError(t, err)

	stored, err := ambulances.GetByID(context.Background(), crew.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AmbulanceStatusOnTrip, stored.Status)

	patientEvents := relay.eventsFor(trip.PatientID.Hex())
	require.Len(t, patientEvents, 1)
	assert.Equal(t, utils.EventAccepted, patientEvents[0].Event)
}

func TestLifecycleOrderingEnforced(t *testing.T) {
	trips := newFakeTripRepo()
	ambulances := newFakeAmbulanceRepo()
	relay := newFakeRelay()

	trip := pendingTrip(t, trips)
	crew := seedAmbulance(t, ambulances, models.AmbulanceStatusReady)

	svc := newTripServiceForTest(trips, ambulances, newFakePatientRepo(), relay)

	// En-route before acceptance is rejected.
	_, err := svc.MarkEnRoute(context.Background(), trip.ID)
	assert.ErrorIs(t, err, interfaces.ErrStatusConflict)

	_, err = svc.Accept(context.Background(), trip.ID, crew.ID)
	require.NoError(t, err)

	_, err = svc.MarkEnRoute(context.Background(), trip.ID)
	require.NoError(t, err)

	// Duplicate transition is absorbed as a conflict, not applied twice.
	_, err = svc.MarkEnRoute(context.Background(), trip.ID)
	assert.ErrorIs(t, err, interfaces.ErrStatusConflict)

	_, err = svc.MarkArrived(context.Background(), trip.ID)
	require.NoError(t, err)

	completed, err := svc.Complete(context.Background(), trip.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TripStatusCompleted, completed.Status)

	// Terminal states admit nothing further.
	_, err = svc.Cancel(context.Background(), trip.ID)
	assert.ErrorIs(t, err, interfaces.ErrStatusConflict)
}

func TestCompleteReturnsAmbulanceToReady(t *testing.T) {
	trips := newFakeTripRepo()
	ambulances := newFakeAmbulanceRepo()

	trip := pendingTrip(t, trips)
	crew := seedAmbulance(t, ambulances, models.AmbulanceStatusReady)

	svc := newTripServiceForTest(trips, ambulances, newFakePatientRepo(), newFakeRelay())

	_, err := svc.Accept(context.Background(), trip.ID, crew.ID)
	require.NoError(t, err)
	_, err = svc.Complete(context.Background(), trip.ID)
	require.NoError(t, err)

	stored, err := ambulances.GetByID(context.Background(), crew.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AmbulanceStatusReady, stored.Status)
}

func TestCancelAfterAcceptanceFreesAmbulance(t *testing.T) {
	trips := newFakeTripRepo()
	ambulances := newFakeAmbulanceRepo()
	relay := newFakeRelay()

	trip := pendingTrip(t, trips)
	crew := seedAmbulance(t, ambulances, models.AmbulanceStatusReady)

	svc := newTripServiceForTest(trips, ambulances, newFakePatientRepo(), relay)

	_, err := svc.Accept(context.Background(), trip.ID, crew.ID)
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), trip.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TripStatusCancelled, cancelled.Status)

	stored, err := ambulances.GetByID(context.Background(), crew.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AmbulanceStatusReady, stored.Status)

	// The crew hears about the cancellation too.
	crewEvents := relay.eventsFor(crew.ID.Hex())
	require.NotEmpty(t, crewEvents)
	assert.Equal(t, utils.EventStatusChanged, crewEvents[len(crewEvents)-1].Event)
}

func TestOperatorAssignMarksTrip(t *testing.T) {
	trips := newFakeTripRepo()
	ambulances := newFakeAmbulanceRepo()
	relay := newFakeRelay()

	trip := pendingTrip(t, trips)
	crew := seedAmbulance(t, ambulances, models.AmbulanceStatusReady)

	svc := newTripServiceForTest(trips, ambulances, newFakePatientRepo(), relay)

	assigned, err := svc.OperatorAssign(context.Background(), trip.ID, crew.ID)
	require.NoError(t, err)
	assert.True(t, assigned.AssignedByOperator)
	assert.Equal(t, models.TripStatusAccepted, assigned.Status)
	assert.Equal(t, crew.ID, *assigned.AmbulanceID)

	// The crew receives the assignment as an offer payload.
	crewEvents := relay.eventsFor(crew.ID.Hex())
	require.Len(t, crewEvents, 1)
	assert.Equal(t, utils.EventOffer, crewEvents[0].Event)
}

func TestOperatorCreateTripBindsChosenAmbulance(t *testing.T) {
	trips := newFakeTripRepo()
	ambulances := newFakeAmbulanceRepo()
	patients := newFakePatientRepo()

	patient := seedPatient(t, patients)
	crew := seedAmbulance(t, ambulances, models.AmbulanceStatusReady)

	svc := newTripServiceForTest(trips, ambulances, patients, newFakeRelay())

	trip, err := svc.OperatorCreateTrip(context.Background(), patient.ID, models.NewGeoPoint(77.59, 12.97), crew.ID)
	require.NoError(t, err)

	assert.Equal(t, models.TripStatusAccepted, trip.Status)
	assert.True(t, trip.AssignedByOperator)
	require.NotNil(t, trip.AmbulanceID)
	assert.Equal(t, crew.ID, *trip.AmbulanceID)
	assert.Equal(t, patient.Name, trip.PatientSummary.Name)

	stored, err := ambulances.GetByID(context.Background(), crew.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AmbulanceStatusOnTrip, stored.Status)
}

func TestUpdateLocationStopsForwardingAfterArrival(t *testing.T) {
	trips := newFakeTripRepo()
	ambulances := newFakeAmbulanceRepo()
	relay := newFakeRelay()

	trip := pendingTrip(t, trips)
	crew := seedAmbulance(t, ambulances, models.AmbulanceStatusReady)

	svc := newTripServiceForTest(trips, ambulances, newFakePatientRepo(), relay)

	_, err := svc.Accept(context.Background(), trip.ID, crew.ID)
	require.NoError(t, err)
	_, err = svc.MarkEnRoute(context.Background(), trip.ID)
	require.NoError(t, err)
	_, err = svc.MarkArrived(context.Background(), trip.ID)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateLocation(context.Background(), crew.ID, models.NewGeoPoint(77.62, 13.00)))

	for _, event := range relay.eventsFor(trip.PatientID.Hex()) {
		assert.NotEqual(t, utils.EventLocationUpdated, event.Event, "no track after arrival")
	}
}

func TestUpdateLocationForwardsOnlyDuringActiveTrip(t *testing.T) {
	trips := newFakeTripRepo()
	ambulances := newFakeAmbulanceRepo()
	relay := newFakeRelay()

	trip := pendingTrip(t, trips)
	crew := seedAmbulance(t, ambulances, models.AmbulanceStatusReady)

	svc := newTripServiceForTest(trips, ambulances, newFakePatientRepo(), relay)

	// No active trip yet: position is stored but nothing is forwarded.
	require.NoError(t, svc.UpdateLocation(context.Background(), crew.ID, models.NewGeoPoint(77.60, 12.98)))
	assert.Empty(t, relay.eventsFor(trip.PatientID.Hex()))

	_, err := svc.Accept(context.Background(), trip.ID, crew.ID)
	require.NoError(t, err)

	require.NoError(t, svc.UpdateLocation(context.Background(), crew.ID, models.NewGeoPoint(77.61, 12.99)))

	var locationEvents int
	for _, event := range relay.eventsFor(trip.PatientID.Hex()) {
		if event.Event == utils.EventLocationUpdated {
			locationEvents++
		}
	}
	assert.Equal(t, 1, locationEvents)

	stored, err := ambulances.GetByID(context.Background(), crew.ID)
	require.NoError(t, err)
	assert.Equal(t, 77.61, stored.Location.Longitude())
}

func TestUpdateLocationRejectsInvalidCoordinates(t *testing.T) {
	ambulances := newFakeAmbulanceRepo()
	crew := seedAmbulance(t, ambulances, models.AmbulanceStatusReady)

	svc := newTripServiceForTest(newFakeTripRepo(), ambulances, newFakePatientRepo(), newFakeRelay())

	err := svc.UpdateLocation(context.Background(), crew.ID, models.NewGeoPoint(200, 95))
	assert.Error(t, err)
}
