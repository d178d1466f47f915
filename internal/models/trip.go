package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DateLayout is the calendar-date format used for trip dates (no time part).
const DateLayout = "2006-01-02"

// Trip represents one fuel log entry for a vehicle. Liters is derived from
// the vehicle's fuel price at the moment the entry is written and stored
// as-is afterwards. Distance and mileage are never stored; they are
// recomputed from the full trip set on every read (see internal/ledger).
type Trip struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"user_id"`
	VehicleID string             `bson:"vehicle_id" json:"vehicle_id"`
	Date      string             `bson:"date" json:"date"` // YYYY-MM-DD
	Odo       float64            `bson:"odo" json:"odo"`
	Amount    float64            `bson:"amount" json:"amount"`
	Liters    float64            `bson:"liters" json:"liters"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// TripRequest is the payload for creating or editing a fuel entry.
// Liters is never accepted from the client.
type TripRequest struct {
	Date   string  `json:"date"`
	Odo    float64 `json:"odo"`
	Amount float64 `json:"amount"`
}

// ParseDate validates and parses the trip date.
func (r *TripRequest) ParseDate() (time.Time, error) {
	return time.Parse(DateLayout, r.Date)
}
