// Package ledger turns the raw, unordered set of fuel entries for one
// vehicle into an ordered trip history with per-leg distance and mileage,
// plus lifetime aggregate statistics. Compute is pure: distance and mileage
// are derived from the stored odometer and liters values on every call and
// are never persisted, so they cannot drift from the source records.
package ledger

import (
	"errors"
	"math"
	"sort"

	"github.com/mvijayr/fueltrack/internal/models"
)

var (
	// ErrPriceNotSet rejects entries while the vehicle's fuel price is the
	// 0 "not configured" sentinel.
	ErrPriceNotSet = errors.New("fuel price not configured")
	// ErrInvalidInput rejects entries whose date is missing or malformed,
	// or whose odometer/amount values are not non-negative numbers.
	ErrInvalidInput = errors.New("invalid input")
	// ErrOdometerNotIncreasing rejects entries whose odometer reading does
	// not exceed the highest reading already on record.
	ErrOdometerNotIncreasing = errors.New("odometer reading must exceed previous")
)

// Entry is a stored trip annotated with its computed leg metrics.
type Entry struct {
	models.Trip
	Distance float64 `json:"distance"`
	Mileage  float64 `json:"mileage"`
}

// Stats aggregates a vehicle's lifetime figures. TotalDistance only counts
// legs with a predecessor; the very first entry contributes 0.
type Stats struct {
	TotalCost     float64 `json:"total_cost"`
	TotalDistance float64 `json:"total_distance"`
	TotalLiters   float64 `json:"total_liters"`
	AvgMileage    float64 `json:"avg_mileage"`
}

// Ledger is the display-ready result: entries ordered by odometer
// descending (most recent first) plus aggregate stats.
type Ledger struct {
	Entries []Entry `json:"entries"`
	Stats   Stats   `json:"stats"`
}

// Compute derives the ordered trip history and aggregate stats from an
// unordered snapshot of one vehicle's trips. The input is never mutated and
// its original ordering does not affect the result; equal odometer readings
// keep their input order (stable sort).
func Compute(raw []models.Trip) Ledger {
	asc := make([]models.Trip, len(raw))
	copy(asc, raw)
	sort.SliceStable(asc, func(i, j int) bool { return asc[i].Odo < asc[j].Odo })

	entries := make([]Entry, len(asc))
	var stats Stats
	for i, trip := range asc {
		var dist, mileage float64
		if i > 0 {
			dist = trip.Odo - asc[i-1].Odo
			if trip.Liters > 0 {
				mileage = dist / trip.Liters
			}
		}
		entries[i] = Entry{Trip: trip, Distance: dist, Mileage: mileage}

		stats.TotalCost += trip.Amount
		stats.TotalDistance += dist
		stats.TotalLiters += trip.Liters
	}
	if stats.TotalLiters > 0 {
		stats.AvgMileage = stats.TotalDistance / stats.TotalLiters
	}

	// Display order is most recent first.
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return Ledger{Entries: entries, Stats: stats}
}

// Latest returns the entry with the highest odometer reading, or nil when
// the ledger is empty.
func (l Ledger) Latest() *Entry {
	if len(l.Entries) == 0 {
		return nil
	}
	return &l.Entries[0]
}

// ValidateEntry checks a new fuel entry against the vehicle's configuration
// and current history before any write is attempted. latest is the trip
// with the highest odometer currently on record, or nil when the vehicle
// has no history yet.
func ValidateEntry(vehicle *models.Vehicle, req models.TripRequest, latest *models.Trip) error {
	if !vehicle.PriceConfigured() {
		return ErrPriceNotSet
	}
	if err := validateFields(req); err != nil {
		return err
	}
	if latest != nil && req.Odo <= latest.Odo {
		return ErrOdometerNotIncreasing
	}
	return nil
}

// ValidateEdit checks an edit to an existing entry. Odometer monotonicity
// is enforced at entry time only, so edits validate field shape alone.
func ValidateEdit(req models.TripRequest) error {
	return validateFields(req)
}

func validateFields(req models.TripRequest) error {
	if req.Date == "" {
		return ErrInvalidInput
	}
	if _, err := req.ParseDate(); err != nil {
		return ErrInvalidInput
	}
	if math.IsNaN(req.Odo) || math.IsInf(req.Odo, 0) || req.Odo < 0 {
		return ErrInvalidInput
	}
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) || req.Amount < 0 {
		return ErrInvalidInput
	}
	return nil
}

// Preview computes the liters, distance, and mileage an accepted entry
// would have against the current latest trip. These values are for
// immediate display and the spreadsheet mirror only; the authoritative
// derived values are recomputed by Compute on every read.
func Preview(fuelPrice float64, req models.TripRequest, latest *models.Trip) (liters, distance, mileage float64) {
	if fuelPrice > 0 {
		liters = req.Amount / fuelPrice
	}
	if latest != nil {
		distance = req.Odo - latest.Odo
		if liters > 0 {
			mileage = distance / liters
		}
	}
	return liters, distance, mileage
}
