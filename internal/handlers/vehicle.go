package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mvijayr/fueltrack/internal/db"
	"github.com/mvijayr/fueltrack/internal/middleware"
	"github.com/mvijayr/fueltrack/internal/models"
	"github.com/mvijayr/fueltrack/internal/notify"
)

// VehicleHandler handles vehicle CRUD requests.
type VehicleHandler struct {
	vehicles db.VehicleCollection
	trips    db.TripCollection
	notifier notify.Notifier
}

// NewVehicleHandler creates a new vehicle handler.
func NewVehicleHandler(vehicles db.VehicleCollection, trips db.TripCollection, notifier notify.Notifier) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles, trips: trips, notifier: notifier}
}

// List returns the user's vehicles, oldest first. A user who has none yet
// gets a default "Primary Vehicle" provisioned on the spot, so the client
// always has at least one vehicle to select.
func (h *VehicleHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	vehicles, err := h.vehicles.FindVehiclesByUser(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "Failed to load vehicles", http.StatusInternalServerError)
		return
	}

	if len(vehicles) == 0 {
		vehicle := models.Vehicle{
			ID:        primitive.NewObjectID(),
			UserID:    claims.UserID,
			Name:      models.DefaultVehicleName,
			FuelPrice: 0,
			SheetURL:  "",
			CreatedAt: time.Now(),
		}
		if err := h.vehicles.InsertVehicle(r.Context(), vehicle); err != nil {
			http.Error(w, "Failed to create default vehicle", http.StatusInternalServerError)
			return
		}
		log.WithField("user_id", claims.UserID).Info("Provisioned default vehicle")
		h.notifier.VehiclesChanged(claims.UserID)
		vehicles = []models.Vehicle{vehicle}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(vehicles)
}

// Create adds a new vehicle. New vehicles start with the fuel price unset
// (0), which blocks fuel entries until the user configures it.
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "Vehicle name is required", http.StatusBadRequest)
		return
	}

	vehicle := models.Vehicle{
		ID:        primitive.NewObjectID(),
		UserID:    claims.UserID,
		Name:      req.Name,
		FuelPrice: 0,
		SheetURL:  "",
		CreatedAt: time.Now(),
	}
	if err := h.vehicles.InsertVehicle(r.Context(), vehicle); err != nil {
		http.Error(w, "Failed to create vehicle", http.StatusInternalServerError)
		return
	}

	h.notifier.VehiclesChanged(claims.UserID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(vehicle)
}

// UpdateSettings saves the vehicle's name, fuel price, or sheet URL.
// Omitted fields are left untouched so price and sheet URL save
// independently.
func (h *VehicleHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}
	vehicleID := r.PathValue("id")

	var req struct {
		Name      *string  `json:"name"`
		FuelPrice *float64 `json:"fuel_price"`
		SheetURL  *string  `json:"sheet_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.Name != nil && *req.Name == "" {
		http.Error(w, "Vehicle name cannot be empty", http.StatusBadRequest)
		return
	}
	if req.FuelPrice != nil && *req.FuelPrice < 0 {
		http.Error(w, "Fuel price cannot be negative", http.StatusBadRequest)
		return
	}

	settings := db.VehicleSettings{
		Name:      req.Name,
		FuelPrice: req.FuelPrice,
		SheetURL:  req.SheetURL,
	}
	if err := h.vehicles.UpdateVehicleSettings(r.Context(), claims.UserID, vehicleID, settings); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Vehicle not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to update vehicle", http.StatusInternalServerError)
		return
	}

	vehicle, err := h.vehicles.FindVehicleByID(r.Context(), claims.UserID, vehicleID)
	if err != nil {
		http.Error(w, "Failed to load vehicle", http.StatusInternalServerError)
		return
	}

	h.notifier.VehiclesChanged(claims.UserID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(vehicle)
}

// Delete removes a vehicle and all of its fuel entries. Deleting the last
// remaining vehicle is refused, and deletion cascades to the vehicle's
// trips so none are left orphaned in the store.
func (h *VehicleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		http.Error(w, "User context not found", http.StatusUnauthorized)
		return
	}
	vehicleID := r.PathValue("id")

	if _, err := h.vehicles.FindVehicleByID(r.Context(), claims.UserID, vehicleID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			http.Error(w, "Vehicle not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load vehicle", http.StatusInternalServerError)
		return
	}

	count, err := h.vehicles.CountVehiclesByUser(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "Failed to count vehicles", http.StatusInternalServerError)
		return
	}
	if count <= 1 {
		http.Error(w, "Cannot delete the only vehicle", http.StatusConflict)
		return
	}

	deletedTrips, err := h.trips.DeleteTripsByVehicle(r.Context(), claims.UserID, vehicleID)
	if err != nil {
		http.Error(w, "Failed to delete vehicle trips", http.StatusInternalServerError)
		return
	}
	if err := h.vehicles.DeleteVehicle(r.Context(), claims.UserID, vehicleID); err != nil {
		http.Error(w, "Failed to delete vehicle", http.StatusInternalServerError)
		return
	}

	log.WithFields(log.Fields{
		"user_id":       claims.UserID,
		"vehicle_id":    vehicleID,
		"deleted_trips": deletedTrips,
	}).Info("Deleted vehicle")

	h.notifier.VehiclesChanged(claims.UserID)
	h.notifier.TripsChanged(claims.UserID, vehicleID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message":       "Vehicle deleted",
		"deleted_trips": deletedTrips,
	})
}
