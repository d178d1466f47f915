package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mvijayr/fueltrack/internal/db"
	"github.com/mvijayr/fueltrack/internal/ledger"
	"github.com/mvijayr/fueltrack/internal/middleware"
	"github.com/mvijayr/fueltrack/internal/models"
	"github.com/mvijayr/fueltrack/internal/notify"
	"github.com/mvijayr/fueltrack/internal/sheets"
)

// TripHandler handles fuel entry requests for one vehicle's log.
type TripHandler struct {
	trips    db.TripCollection
	vehicles db.VehicleCollection
	exporter sheets.Exporter
	notifier notify.Notifier
}

// NewTripHandler creates a new trip handler.
func NewTripHandler(trips db.TripCollection, vehicles db.VehicleCollection, exporter sheets.Exporter, notifier notify.Notifier) *TripHandler {
	return &TripHandler{trips: trips, vehicles: vehicles, exporter: exporter, notifier: notifier}
}

// LedgerResponse is the full display-ready state for one vehicle.
type LedgerResponse struct {
	Entries []ledger.Entry      `json:"entries"`
	Stats   ledger.Stats        `json:"stats"`
	Trend   []ledger.TrendPoint `json:"trend"`
}

// List returns the computed ledger for a vehicle: annotated entries in
// display order, aggregate stats, and the efficiency trend series. Derived
// values are recomputed from the stored snapshot on every call.
func (h *TripHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, vehicle, ok := h.loadVehicle(w, r)
	if !ok {
		return
	}

	trips, err := h.trips.FindTripsByVehicle(r.Context(), claims.UserID, vehicle.ID.Hex())
	if err != nil {
		http.Error(w, "Failed to load trips", http.StatusInternalServerError)
		return
	}

	l := ledger.Compute(trips)
	response := LedgerResponse{
		Entries: l.Entries,
		Stats:   l.Stats,
		Trend:   ledger.Trend(l),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Create validates and stores a new fuel entry. Validation runs against the
// store's current latest entry immediately before the write, since local
// client state may be stale. On success the entry is mirrored to the
// vehicle's sheet webhook without blocking the response.
func (h *TripHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, vehicle, ok := h.loadVehicle(w, r)
	if !ok {
		return
	}

	var req models.TripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	latest, err := h.trips.LatestTrip(r.Context(), claims.UserID, vehicle.ID.Hex())
	if err != nil {
		http.Error(w, "Failed to load trips", http.StatusInternalServerError)
		return
	}

	if err := ledger.ValidateEntry(vehicle, req, latest); err != nil {
		writeValidationError(w, err)
		return
	}

	liters, distance, mileage := ledger.Preview(vehicle.FuelPrice, req, latest)
	trip := models.Trip{
		ID:        primitive.NewObjectID(),
		UserID:    claims.UserID,
		VehicleID: vehicle.ID.Hex(),
		Date:      req.Date,
		Odo:       req.Odo,
		Amount:    req.Amount,
		Liters:    liters,
		CreatedAt: time.Now(),
	}
	if err := h.trips.InsertTrip(r.Context(), trip); err != nil {
		http.Error(w, "Failed to save trip", http.StatusInternalServerError)
		return
	}

	// The write is committed; the mirror must not affect the response.
	h.exporter.Dispatch(*vehicle, trip, distance, mileage, ownerEmail(claims))
	h.notifier.TripsChanged(claims.UserID, vehicle.ID.Hex())

	log.WithFields(log.Fields{
		"vehicle_id": vehicle.ID.Hex(),
		"odo":        trip.Odo,
		"liters":     trip.Liters,
	}).Info("Recorded fuel entry")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ledger.Entry{Trip: trip, Distance: distance, Mileage: mileage})
}

// Update edits an existing entry's date, odometer, and amount. Liters are
// re-derived from the vehicle's fuel price at write time, the same policy
// creation uses.
func (h *TripHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, vehicle, ok := h.loadVehicle(w, r)
	if !ok {
		return
	}
	tripID := r.PathValue("tripID")

	existing, err := h.trips.FindTripByID(r.Context(), claims.UserID, tripID)
	if err != nil || existing.VehicleID != vehicle.ID.Hex() {
		http.Error(w, "Trip not found", http.StatusNotFound)
		return
	}

	var req models.TripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if !vehicle.PriceConfigured() {
		writeValidationError(w, ledger.ErrPriceNotSet)
		return
	}
	if err := ledger.ValidateEdit(req); err != nil {
		writeValidationError(w, err)
		return
	}

	updated := *existing
	updated.Date = req.Date
	updated.Odo = req.Odo
	updated.Amount = req.Amount
	updated.Liters = req.Amount / vehicle.FuelPrice

	if err := h.trips.UpdateTrip(r.Context(), claims.UserID, tripID, updated); err != nil {
		http.Error(w, "Failed to update trip", http.StatusInternalServerError)
		return
	}

	h.notifier.TripsChanged(claims.UserID, vehicle.ID.Hex())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

// Delete removes one fuel entry.
func (h *TripHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, vehicle, ok := h.loadVehicle(w, r)
	if !ok {
		return
	}
	tripID := r.PathValue("tripID")

	existing, err := h.trips.FindTripByID(r.Context(), claims.UserID, tripID)
	if err != nil || existing.VehicleID != vehicle.ID.Hex() {
		http.Error(w, "Trip not found", http.StatusNotFound)
		return
	}

	if err := h.trips.DeleteTrip(r.Context(), claims.UserID, tripID); err != nil {
		http.Error(w, "Failed to delete trip", http.StatusInternalServerError)
		return
	}

	h.notifier.TripsChanged(claims.UserID, vehicle.ID.Hex())
	w.WriteHeader(http.StatusNoContent)
}

// Clear removes every fuel entry for the vehicle.
func (h *TripHandler) Clear(w http.ResponseWriter, r *http.Request) {
	claims, vehicle, ok := h.loadVehicle(w, r)
	if !ok {
		return
	}

	deleted, err := h.trips.DeleteTripsByVehicle(r.Context(), claims.UserID, vehicle.ID.Hex())
	if err != nil {
		http.Error(w, "Failed to clear trips", http.StatusInternalServerError)
		return
	}

	log.WithFields(log.Fields{
		"vehicle_id": vehicle.ID.Hex(),
		"deleted":    deleted,
	}).Info("Cleared fuel log")

	h.notifier.TripsChanged(claims.UserID, vehicle.ID.Hex())

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "All entries cleared",
		"deleted": deleted,
	})
}

// loadVehicle resolves the request's user claims and {id} path vehicle.
// It writes the error response itself and reports ok=false on failure.
func (h *TripHandler) loadVehicle(w http.ResponseWriter, r *http.Request) (*models.Claims, *models.Vehicle, bool) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return nil, nil, false
	}

	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), claims.UserID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Vehicle not found", http.StatusNotFound)
		} else {
			http.Error(w, "Failed to load vehicle", http.StatusInternalServerError)
		}
		return nil, nil, false
	}
	return claims, vehicle, true
}

// writeValidationError maps ledger validation errors onto HTTP statuses:
// malformed input is a bad request, configuration and ordering conflicts
// are conflicts with current state.
func writeValidationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ledger.ErrPriceNotSet), errors.Is(err, ledger.ErrOdometerNotIncreasing):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

func ownerEmail(claims *models.Claims) string {
	if claims.Email == "" {
		return "guest"
	}
	return claims.Email
}
