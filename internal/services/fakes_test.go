package services

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"lifeline/internal/models"
	"lifeline/internal/repositories/interfaces"
	"lifeline/pkg/logger"
)

func testLogger() *logger.Logger {
	log, _ := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "text"})
	return log
}

// fakeTripRepo reproduces the conditional-transition semantics of the Mongo
// repository in memory, including the not-found versus conflict distinction.
type fakeTripRepo struct {
	mu    sync.Mutex
	trips map[primitive.ObjectID]*models.Trip
}

func newFakeTripRepo() *fakeTripRepo {
	return &fakeTripRepo{trips: make(map[primitive.ObjectID]*models.Trip)}
}

func (r *fakeTripRepo) Create(_ context.Context, trip *models.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	trip.ID = primitive.NewObjectID()
	if trip.Status == "" {
		trip.Status = models.TripStatusPending
	}
	trip.RequestedAt = time.Now()
	clone := *trip
	r.trips[trip.ID] = &clone
	return nil
}

func (r *fakeTripRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	trip, ok := r.trips[id]
	if !ok {
		return nil, interfaces.ErrTripNotFound
	}
	clone := *trip
	return &clone, nil
}

func (r *fakeTripRepo) GetStatus(_ context.Context, id primitive.ObjectID) (models.TripStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	trip, ok := r.trips[id]
	if !ok {
		return "", interfaces.ErrTripNotFound
	}
	return trip.Status, nil
}

func (r *fakeTripRepo) transition(id primitive.ObjectID, allowed []models.TripStatus, apply func(*models.Trip)) (*models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	trip, ok := r.trips[id]
	if !ok {
		return nil, interfaces.ErrTripNotFound
	}

	permitted := false
	for _, status := range allowed {
		if trip.Status == status {
			permitted = true
			break
		}
	}
	if !permitted {
		return nil, interfaces.ErrStatusConflict
	}

	apply(trip)
	clone := *trip
	return &clone, nil
}

func (r *fakeTripRepo) Accept(_ context.Context, tripID, ambulanceID primitive.ObjectID) (*models.Trip, error) {
	return r.transition(tripID, []models.TripStatus{models.TripStatusPending}, func(t *models.Trip) {
		now := time.Now()
		t.Status = models.TripStatusAccepted
		t.AmbulanceID = &ambulanceID
		t.AcceptedAt = &now
	})
}

func (r *fakeTripRepo) AssignByOperator(_ context.Context, tripID, ambulanceID primitive.ObjectID) (*models.Trip, error) {
	return r.transition(tripID, []models.TripStatus{models.TripStatusPending}, func(t *models.Trip) {
		now := time.Now()
		t.Status = models.TripStatusAccepted
		t.AmbulanceID = &ambulanceID
		t.AcceptedAt = &now
		t.AssignedByOperator = true
	})
}

func (r *fakeTripRepo) MarkEnRoute(_ context.Context, tripID primitive.ObjectID) (*models.Trip, error) {
	return r.transition(tripID, []models.TripStatus{models.TripStatusAccepted}, func(t *models.Trip) {
		t.Status = models.TripStatusEnRoute
	})
}

func (r *fakeTripRepo) MarkArrived(_ context.Context, tripID primitive.ObjectID) (*models.Trip, error) {
	return r.transition(tripID, []models.TripStatus{models.TripStatusAccepted, models.TripStatusEnRoute}, func(t *models.Trip) {
		t.Status = models.TripStatusArrived
	})
}

func (r *fakeTripRepo) Complete(_ context.Context, tripID primitive.ObjectID) (*models.Trip, error) {
	return r.transition(tripID, []models.TripStatus{models.TripStatusAccepted, models.TripStatusEnRoute, models.TripStatusArrived}, func(t *models.Trip) {
		t.Status = models.TripStatusCompleted
	})
}

func (r *fakeTripRepo) Cancel(_ context.Context, tripID primitive.ObjectID) (*models.Trip, error) {
	return r.transition(tripID, []models.TripStatus{models.TripStatusPending, models.TripStatusAccepted}, func(t *models.Trip) {
		t.Status = models.TripStatusCancelled
	})
}

func (r *fakeTripRepo) MarkEscalated(_ context.Context, tripID primitive.ObjectID) (*models.Trip, error) {
	return r.transition(tripID, []models.TripStatus{models.TripStatusPending}, func(t *models.Trip) {
		t.Escalated = true
	})
}

func (r *fakeTripRepo) BindHospital(_ context.Context, tripID, hospitalID primitive.ObjectID) (*models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	trip, ok := r.trips[tripID]
	if !ok {
		return nil, interfaces.ErrTripNotFound
	}
	if trip.HospitalID != nil {
		return nil, interfaces.ErrDestinationSet
	}
	if !trip.Status.IsActive() {
		return nil, interfaces.ErrStatusConflict
	}

	trip.HospitalID = &hospitalID
	clone := *trip
	return &clone, nil
}

func (r *fakeTripRepo) ListByPatient(_ context.Context, patientID primitive.ObjectID, limit int64) ([]*models.Trip, error) {
	return r.list(limit, func(t *models.Trip) bool { return t.PatientID == patientID })
}

func (r *fakeTripRepo) ListByAmbulance(_ context.Context, ambulanceID primitive.ObjectID, limit int64) ([]*models.Trip, error) {
	return r.list(limit, func(t *models.Trip) bool {
		return t.AmbulanceID != nil && *t.AmbulanceID == ambulanceID
	})
}

func (r *fakeTripRepo) ListEscalated(_ context.Context, limit int64) ([]*models.Trip, error) {
	return r.list(limit, func(t *models.Trip) bool {
		return t.Escalated && t.Status == models.TripStatusPending
	})
}

func (r *fakeTripRepo) list(limit int64, match func(*models.Trip) bool) ([]*models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Trip
	for _, trip := range r.trips {
		if match(trip) {
			clone := *trip
			out = append(out, &clone)
			if int64(len(out)) >= limit {
				break
			}
		}
	}
	return out, nil
}

type fakeAmbulanceRepo struct {
	mu         sync.Mutex
	ambulances map[primitive.ObjectID]*models.Ambulance
}

func newFakeAmbulanceRepo() *fakeAmbulanceRepo {
	return &fakeAmbulanceRepo{ambulances: make(map[primitive.ObjectID]*models.Ambulance)}
}

func (r *fakeAmbulanceRepo) Create(_ context.Context, ambulance *models.Ambulance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ambulance.ID.IsZero() {
		ambulance.ID = primitive.NewObjectID()
	}
	clone := *ambulance
	r.ambulances[ambulance.ID] = &clone
	return nil
}

func (r *fakeAmbulanceRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Ambulance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ambulance, ok := r.ambulances[id]
	if !ok {
		return nil, interfaces.ErrAmbulanceNotFound
	}
	clone := *ambulance
	return &clone, nil
}

func (r *fakeAmbulanceRepo) FindNearbyReady(_ context.Context, _, _, _ float64, limit int64) ([]*models.Ambulance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Ambulance
	for _, ambulance := range r.ambulances {
		if ambulance.Status == models.AmbulanceStatusReady {
			clone := *ambulance
			out = append(out, &clone)
			if int64(len(out)) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeAmbulanceRepo) UpdateLocation(_ context.Context, id primitive.ObjectID, location models.GeoPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ambulance, ok := r.ambulances[id]
	if !ok {
		return interfaces.ErrAmbulanceNotFound
	}
	ambulance.Location = location
	return nil
}

func (r *fakeAmbulanceRepo) SetStatus(_ context.Context, id primitive.ObjectID, status models.AmbulanceStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ambulance, ok := r.ambulances[id]
	if !ok {
		return interfaces.ErrAmbulanceNotFound
	}
	ambulance.Status = status
	return nil
}

// fakeHospitalRepo reproduces the conditional counter moves of the Mongo
// repository in memory.
type fakeHospitalRepo struct {
	mu        sync.Mutex
	hospitals map[primitive.ObjectID]*models.Hospital
}

func newFakeHospitalRepo() *fakeHospitalRepo {
	return &fakeHospitalRepo{hospitals: make(map[primitive.ObjectID]*models.Hospital)}
}

func (r *fakeHospitalRepo) Create(_ context.Context, hospital *models.Hospital) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if hospital.ID.IsZero() {
		hospital.ID = primitive.NewObjectID()
	}
	clone := *hospital
	r.hospitals[hospital.ID] = &clone
	return nil
}

func (r *fakeHospitalRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Hospital, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hospital, ok := r.hospitals[id]
	if !ok {
		return nil, interfaces.ErrHospitalNotFound
	}
	clone := *hospital
	return &clone, nil
}

func (r *fakeHospitalRepo) FindNearbyWithCapacity(_ context.Context, _, _, _ float64, bloodGroup string) ([]*models.Hospital, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Hospital
	for _, hospital := range r.hospitals {
		if hospital.Inventory.Beds.Available <= 0 {
			continue
		}
		if bloodGroup != "" && hospital.Inventory.BloodStock[models.BloodStockKey(bloodGroup)] <= 0 {
			continue
		}
		clone := *hospital
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeHospitalRepo) ReserveBed(_ context.Context, id primitive.ObjectID) (*models.Hospital, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hospital, ok := r.hospitals[id]
	if !ok {
		return nil, interfaces.ErrHospitalNotFound
	}
	if hospital.Inventory.Beds.Available <= 0 {
		return nil, interfaces.ErrNoBedsAvailable
	}
	hospital.Inventory.Beds.Available--
	clone := *hospital
	return &clone, nil
}

func (r *fakeHospitalRepo) ReleaseBed(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	hospital, ok := r.hospitals[id]
	if !ok {
		return interfaces.ErrHospitalNotFound
	}
	if hospital.Inventory.Beds.Available < hospital.Inventory.Beds.Total {
		hospital.Inventory.Beds.Available++
	}
	return nil
}

func (r *fakeHospitalRepo) ReserveBloodUnit(_ context.Context, id primitive.ObjectID, bloodGroup string) (*models.Hospital, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hospital, ok := r.hospitals[id]
	if !ok {
		return nil, interfaces.ErrHospitalNotFound
	}

	key := models.BloodStockKey(bloodGroup)
	if hospital.Inventory.BloodStock[key] <= 0 {
		return nil, interfaces.ErrNoBloodStock
	}
	hospital.Inventory.BloodStock[key]--
	clone := *hospital
	return &clone, nil
}

func (r *fakeHospitalRepo) ReleaseBloodUnit(_ context.Context, id primitive.ObjectID, bloodGroup string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	hospital, ok := r.hospitals[id]
	if !ok {
		return interfaces.ErrHospitalNotFound
	}
	hospital.Inventory.BloodStock[models.BloodStockKey(bloodGroup)]++
	return nil
}

func (r *fakeHospitalRepo) UpdateInventory(_ context.Context, id primitive.ObjectID, inventory models.HospitalInventory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	hospital, ok := r.hospitals[id]
	if !ok {
		return interfaces.ErrHospitalNotFound
	}
	hospital.Inventory = inventory
	return nil
}

type fakePatientRepo struct {
	mu       sync.Mutex
	patients map[primitive.ObjectID]*models.Patient
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[primitive.ObjectID]*models.Patient)}
}

func (r *fakePatientRepo) Create(_ context.Context, patient *models.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if patient.ID.IsZero() {
		patient.ID = primitive.NewObjectID()
	}
	clone := *patient
	r.patients[patient.ID] = &clone
	return nil
}

func (r *fakePatientRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	patient, ok := r.patients[id]
	if !ok {
		return nil, interfaces.ErrPatientNotFound
	}
	clone := *patient
	return &clone, nil
}

// fakePresence marks a configurable set of entities as reachable.
type fakePresence struct {
	mu     sync.Mutex
	online map[string]bool
}

func newFakePresence(online ...string) *fakePresence {
	p := &fakePresence{online: make(map[string]bool)}
	for _, id := range online {
		p.online[id] = true
	}
	return p
}

func (p *fakePresence) Announce(_ context.Context, entityID, _, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[entityID] = true
	return nil
}

func (p *fakePresence) Lookup(_ context.Context, entityID string) (*PresenceEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.online[entityID] {
		return nil, nil
	}
	return &PresenceEntry{EntityID: entityID}, nil
}

func (p *fakePresence) Withdraw(_ context.Context, entityID, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.online, entityID)
	return nil
}

func (p *fakePresence) Clear(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online = make(map[string]bool)
	return nil
}

type relayedEvent struct {
	TargetID string
	Event    string
	Payload  map[string]interface{}
}

// fakeRelay records every relayed event and can trigger a side effect when
// a given event reaches a given target, which lets tests play the part of
// an ambulance crew answering an offer.
type fakeRelay struct {
	mu     sync.Mutex
	events []relayedEvent
	onSend func(targetID, event string)
}

func newFakeRelay() *fakeRelay {
	return &fakeRelay{}
}

func (r *fakeRelay) Relay(_ context.Context, targetID, event string, payload map[string]interface{}) error {
	r.mu.Lock()
	r.events = append(r.events, relayedEvent{TargetID: targetID, Event: event, Payload: payload})
	hook := r.onSend
	r.mu.Unlock()

	if hook != nil {
		hook(targetID, event)
	}
	return nil
}

func (r *fakeRelay) recorded() []relayedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]relayedEvent, len(r.events))
	copy(out, r.events)
	return out
}

func (r *fakeRelay) eventsFor(targetID string) []relayedEvent {
	var out []relayedEvent
	for _, event := range r.recorded() {
		if event.TargetID == targetID {
			out = append(out, event)
		}
	}
	return out
}

func (r *fakeRelay) countOf(event string) int {
	n := 0
	for _, e := range r.recorded() {
		if e.Event == event {
			n++
		}
	}
	return n
}

type fakePager struct {
	mu    sync.Mutex
	pages []primitive.ObjectID
}

func (p *fakePager) PageOperators(_ context.Context, trip *models.Trip) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages = append(p.pages, trip.ID)
}

func (p *fakePager) pageCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pages)
}

// fakeLocator returns a fixed candidate list.
type fakeLocator struct {
	ambulances []*models.Ambulance
	hospitals  []*models.Hospital
}

func (l *fakeLocator) FindAmbulances(context.Context, models.GeoPoint) ([]*models.Ambulance, error) {
	return l.ambulances, nil
}

func (l *fakeLocator) FindHospitals(context.Context, models.GeoPoint, string) ([]*models.Hospital, error) {
	return l.hospitals, nil
}
