package handlers

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mvijayr/fueltrack/internal/db"
	"github.com/mvijayr/fueltrack/internal/middleware"
	"github.com/mvijayr/fueltrack/internal/models"
)

// fakeVehicleCollection is an in-memory VehicleCollection.
type fakeVehicleCollection struct {
	vehicles  []models.Vehicle
	insertErr error
}

func (f *fakeVehicleCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.vehicles = append(f.vehicles, vehicle)
	return nil
}

func (f *fakeVehicleCollection) FindVehiclesByUser(ctx context.Context, userID string) ([]models.Vehicle, error) {
	var out []models.Vehicle
	for _, v := range f.vehicles {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeVehicleCollection) FindVehicleByID(ctx context.Context, userID, id string) (*models.Vehicle, error) {
	for i := range f.vehicles {
		if f.vehicles[i].UserID == userID && f.vehicles[i].ID.Hex() == id {
			v := f.vehicles[i]
			return &v, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeVehicleCollection) UpdateVehicleSettings(ctx context.Context, userID, id string, settings db.VehicleSettings) error {
	for i := range f.vehicles {
		if f.vehicles[i].UserID == userID && f.vehicles[i].ID.Hex() == id {
			if settings.Name != nil {
				f.vehicles[i].Name = *settings.Name
			}
			if settings.FuelPrice != nil {
				f.vehicles[i].FuelPrice = *settings.FuelPrice
			}
			if settings.SheetURL != nil {
				f.vehicles[i].SheetURL = *settings.SheetURL
			}
			return nil
		}
	}
	return db.ErrNotFound
}

func (f *fakeVehicleCollection) DeleteVehicle(ctx context.Context, userID, id string) error {
	for i := range f.vehicles {
		if f.vehicles[i].UserID == userID && f.vehicles[i].ID.Hex() == id {
			f.vehicles = append(f.vehicles[:i], f.vehicles[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

func (f *fakeVehicleCollection) CountVehiclesByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	for _, v := range f.vehicles {
		if v.UserID == userID {
			count++
		}
	}
	return count, nil
}

// fakeTripCollection is an in-memory TripCollection.
type fakeTripCollection struct {
	trips     []models.Trip
	insertErr error
}

func (f *fakeTripCollection) InsertTrip(ctx context.Context, trip models.Trip) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.trips = append(f.trips, trip)
	return nil
}

func (f *fakeTripCollection) FindTripsByVehicle(ctx context.Context, userID, vehicleID string) ([]models.Trip, error) {
	var out []models.Trip
	for _, t := range f.trips {
		if t.UserID == userID && t.VehicleID == vehicleID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTripCollection) FindTripByID(ctx context.Context, userID, id string) (*models.Trip, error) {
	for i := range f.trips {
		if f.trips[i].UserID == userID && f.trips[i].ID.Hex() == id {
			t := f.trips[i]
			return &t, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeTripCollection) UpdateTrip(ctx context.Context, userID, id string, trip models.Trip) error {
	for i := range f.trips {
		if f.trips[i].UserID == userID && f.trips[i].ID.Hex() == id {
			trip.ID = f.trips[i].ID
			trip.UserID = userID
			f.trips[i] = trip
			return nil
		}
	}
	return db.ErrNotFound
}

func (f *fakeTripCollection) DeleteTrip(ctx context.Context, userID, id string) error {
	for i := range f.trips {
		if f.trips[i].UserID == userID && f.trips[i].ID.Hex() == id {
			f.trips = append(f.trips[:i], f.trips[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

func (f *fakeTripCollection) DeleteTripsByVehicle(ctx context.Context, userID, vehicleID string) (int64, error) {
	var kept []models.Trip
	var deleted int64
	for _, t := range f.trips {
		if t.UserID == userID && t.VehicleID == vehicleID {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	f.trips = kept
	return deleted, nil
}

func (f *fakeTripCollection) LatestTrip(ctx context.Context, userID, vehicleID string) (*models.Trip, error) {
	var latest *models.Trip
	for i := range f.trips {
		t := f.trips[i]
		if t.UserID != userID || t.VehicleID != vehicleID {
			continue
		}
		if latest == nil || t.Odo > latest.Odo {
			latest = &f.trips[i]
		}
	}
	if latest == nil {
		return nil, nil
	}
	copied := *latest
	return &copied, nil
}

// fakeUserCollection is an in-memory UserCollection.
type fakeUserCollection struct {
	users     []models.User
	insertErr error
}

func (f *fakeUserCollection) InsertUser(ctx context.Context, user models.User) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.users = append(f.users, user)
	return nil
}

func (f *fakeUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	for i := range f.users {
		if f.users[i].ID.Hex() == id {
			u := f.users[i]
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, db.ErrNotFound
	}
	for i := range f.users {
		if f.users[i].Email == email {
			u := f.users[i]
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (f *fakeUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	return nil
}

// fakeNotifier records published change notifications.
type fakeNotifier struct {
	vehicleEvents []string
	tripEvents    []string
}

func (f *fakeNotifier) VehiclesChanged(userID string) {
	f.vehicleEvents = append(f.vehicleEvents, userID)
}

func (f *fakeNotifier) TripsChanged(userID, vehicleID string) {
	f.tripEvents = append(f.tripEvents, userID+"/"+vehicleID)
}

// fakeExporter records dispatched sheet deliveries.
type fakeExporter struct {
	dispatched []models.Trip
	distances  []float64
	mileages   []float64
}

func (f *fakeExporter) Dispatch(vehicle models.Vehicle, trip models.Trip, distance, mileage float64, ownerEmail string) {
	f.dispatched = append(f.dispatched, trip)
	f.distances = append(f.distances, distance)
	f.mileages = append(f.mileages, mileage)
}

// testClaims are the request claims used across handler tests.
var testClaims = &models.Claims{
	UserID: primitive.NewObjectID().Hex(),
	Email:  "rider@example.com",
	Name:   "Rider",
}

// requestWithClaims attaches claims to a request, mirroring what the auth
// middleware injects after validating a token.
func requestWithClaims(r *http.Request, claims *models.Claims) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UserContextKey, claims)
	return r.WithContext(ctx)
}
