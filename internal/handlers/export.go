package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mvijayr/fueltrack/internal/ledger"
)

// ExportCSV streams the vehicle's ledger as a CSV attachment, in display
// order with the fixed Date,Odo,Distance,Amount,Liters,Mileage columns.
func (h *TripHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	claims, vehicle, ok := h.loadVehicle(w, r)
	if !ok {
		return
	}

	trips, err := h.trips.FindTripsByVehicle(r.Context(), claims.UserID, vehicle.ID.Hex())
	if err != nil {
		http.Error(w, "Failed to load trips", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("fuel_log_%s_%s.csv",
		strings.ReplaceAll(vehicle.Name, " ", "_"),
		time.Now().Format("2006-01-02"))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := ledger.WriteCSV(w, ledger.Compute(trips)); err != nil {
		http.Error(w, "Failed to write CSV", http.StatusInternalServerError)
		return
	}
}
