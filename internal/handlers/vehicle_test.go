package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mvijayr/fueltrack/internal/models"
)

func newVehicle(userID, name string, price float64) models.Vehicle {
	return models.Vehicle{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Name:      name,
		FuelPrice: price,
		CreatedAt: time.Now(),
	}
}

func TestVehicleHandler_List_AutoProvisions(t *testing.T) {
	vehicles := &fakeVehicleCollection{}
	notifier := &fakeNotifier{}
	handler := NewVehicleHandler(vehicles, &fakeTripCollection{}, notifier)

	req := requestWithClaims(httptest.NewRequest("GET", "/api/vehicles", nil), testClaims)
	w := httptest.NewRecorder()
	handler.List(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var got []models.Vehicle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, models.DefaultVehicleName, got[0].Name)
	assert.Equal(t, 0.0, got[0].FuelPrice)
	assert.Equal(t, testClaims.UserID, got[0].UserID)

	// Provisioning is a write, so a change event goes out.
	assert.Equal(t, []string{testClaims.UserID}, notifier.vehicleEvents)

	// A second call returns the same vehicle without provisioning again.
	w = httptest.NewRecorder()
	handler.List(w, requestWithClaims(httptest.NewRequest("GET", "/api/vehicles", nil), testClaims))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Len(t, got, 1)
	assert.Len(t, notifier.vehicleEvents, 1)
}

func TestVehicleHandler_Create(t *testing.T) {
	vehicles := &fakeVehicleCollection{}
	notifier := &fakeNotifier{}
	handler := NewVehicleHandler(vehicles, &fakeTripCollection{}, notifier)

	t.Run("creates vehicle with unset price", func(t *testing.T) {
		body := bytes.NewBufferString(`{"name":"Work Truck"}`)
		req := requestWithClaims(httptest.NewRequest("POST", "/api/vehicles", body), testClaims)
		w := httptest.NewRecorder()
		handler.Create(w, req)

		require.Equal(t, http.StatusCreated, w.Code)

		var got models.Vehicle
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "Work Truck", got.Name)
		assert.Equal(t, 0.0, got.FuelPrice)
		assert.Empty(t, got.SheetURL)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		body := bytes.NewBufferString(`{"name":""}`)
		req := requestWithClaims(httptest.NewRequest("POST", "/api/vehicles", body), testClaims)
		w := httptest.NewRecorder()
		handler.Create(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestVehicleHandler_UpdateSettings(t *testing.T) {
	vehicle := newVehicle(testClaims.UserID, "Primary Vehicle", 0)
	vehicles := &fakeVehicleCollection{vehicles: []models.Vehicle{vehicle}}
	handler := NewVehicleHandler(vehicles, &fakeTripCollection{}, &fakeNotifier{})

	t.Run("saves price alone", func(t *testing.T) {
		body := bytes.NewBufferString(`{"fuel_price":104.2}`)
		req := requestWithClaims(httptest.NewRequest("PUT", "/api/vehicles/"+vehicle.ID.Hex(), body), testClaims)
		req.SetPathValue("id", vehicle.ID.Hex())
		w := httptest.NewRecorder()
		handler.UpdateSettings(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var got models.Vehicle
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, 104.2, got.FuelPrice)
		assert.Equal(t, "Primary Vehicle", got.Name)
	})

	t.Run("saves sheet url alone", func(t *testing.T) {
		body := bytes.NewBufferString(`{"sheet_url":"https://script.google.com/macros/s/abc/exec"}`)
		req := requestWithClaims(httptest.NewRequest("PUT", "/api/vehicles/"+vehicle.ID.Hex(), body), testClaims)
		req.SetPathValue("id", vehicle.ID.Hex())
		w := httptest.NewRecorder()
		handler.UpdateSettings(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var got models.Vehicle
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, "https://script.google.com/macros/s/abc/exec", got.SheetURL)
		assert.Equal(t, 104.2, got.FuelPrice) // untouched
	})

	t.Run("rejects negative price", func(t *testing.T) {
		body := bytes.NewBufferString(`{"fuel_price":-1}`)
		req := requestWithClaims(httptest.NewRequest("PUT", "/api/vehicles/"+vehicle.ID.Hex(), body), testClaims)
		req.SetPathValue("id", vehicle.ID.Hex())
		w := httptest.NewRecorder()
		handler.UpdateSettings(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown vehicle", func(t *testing.T) {
		body := bytes.NewBufferString(`{"fuel_price":100}`)
		unknown := primitive.NewObjectID().Hex()
		req := requestWithClaims(httptest.NewRequest("PUT", "/api/vehicles/"+unknown, body), testClaims)
		req.SetPathValue("id", unknown)
		w := httptest.NewRecorder()
		handler.UpdateSettings(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestVehicleHandler_Delete(t *testing.T) {
	t.Run("refuses deleting the only vehicle", func(t *testing.T) {
		vehicle := newVehicle(testClaims.UserID, "Primary Vehicle", 100)
		vehicles := &fakeVehicleCollection{vehicles: []models.Vehicle{vehicle}}
		handler := NewVehicleHandler(vehicles, &fakeTripCollection{}, &fakeNotifier{})

		req := requestWithClaims(httptest.NewRequest("DELETE", "/api/vehicles/"+vehicle.ID.Hex(), nil), testClaims)
		req.SetPathValue("id", vehicle.ID.Hex())
		w := httptest.NewRecorder()
		handler.Delete(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Len(t, vehicles.vehicles, 1)
	})

	t.Run("deletes a non-last vehicle and cascades trips", func(t *testing.T) {
		keep := newVehicle(testClaims.UserID, "Primary Vehicle", 100)
		drop := newVehicle(testClaims.UserID, "Work Truck", 100)
		vehicles := &fakeVehicleCollection{vehicles: []models.Vehicle{keep, drop}}
		trips := &fakeTripCollection{trips: []models.Trip{
			{ID: primitive.NewObjectID(), UserID: testClaims.UserID, VehicleID: drop.ID.Hex(), Odo: 100},
			{ID: primitive.NewObjectID(), UserID: testClaims.UserID, VehicleID: drop.ID.Hex(), Odo: 150},
			{ID: primitive.NewObjectID(), UserID: testClaims.UserID, VehicleID: keep.ID.Hex(), Odo: 500},
		}}
		notifier := &fakeNotifier{}
		handler := NewVehicleHandler(vehicles, trips, notifier)

		req := requestWithClaims(httptest.NewRequest("DELETE", "/api/vehicles/"+drop.ID.Hex(), nil), testClaims)
		req.SetPathValue("id", drop.ID.Hex())
		w := httptest.NewRecorder()
		handler.Delete(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, vehicles.vehicles, 1)
		assert.Equal(t, keep.ID, vehicles.vehicles[0].ID)

		// Cascade removed only the deleted vehicle's trips.
		assert.Len(t, trips.trips, 1)
		assert.Equal(t, keep.ID.Hex(), trips.trips[0].VehicleID)

		assert.NotEmpty(t, notifier.vehicleEvents)
		assert.NotEmpty(t, notifier.tripEvents)
	})

	t.Run("unknown vehicle", func(t *testing.T) {
		vehicles := &fakeVehicleCollection{vehicles: []models.Vehicle{newVehicle(testClaims.UserID, "A", 100)}}
		handler := NewVehicleHandler(vehicles, &fakeTripCollection{}, &fakeNotifier{})

		unknown := primitive.NewObjectID().Hex()
		req := requestWithClaims(httptest.NewRequest("DELETE", "/api/vehicles/"+unknown, nil), testClaims)
		req.SetPathValue("id", unknown)
		w := httptest.NewRecorder()
		handler.Delete(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
