package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultVehicleName is the name given to the vehicle auto-provisioned on
// first sign-in, and the name preferred when picking a default selection.
const DefaultVehicleName = "Primary Vehicle"

// Vehicle represents one tracked vehicle. FuelPrice is the currency amount
// per liter; 0 means not configured yet and blocks new fuel entries.
type Vehicle struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"user_id"`
	Name      string             `bson:"name" json:"name"`
	FuelPrice float64            `bson:"fuel_price" json:"fuel_price"`
	SheetURL  string             `bson:"sheet_url" json:"sheet_url"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// PriceConfigured reports whether the vehicle has a usable fuel price.
func (v *Vehicle) PriceConfigured() bool {
	return v.FuelPrice > 0
}
