package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mvijayr/fueltrack/internal/models"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("not found")

// VehicleSettings carries the updatable vehicle fields. Nil fields are left
// untouched so price and sheet URL can be saved independently.
type VehicleSettings struct {
	Name      *string
	FuelPrice *float64
	SheetURL  *string
}

// VehicleCollection defines the interface for vehicle data operations.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) error
	FindVehiclesByUser(ctx context.Context, userID string) ([]models.Vehicle, error)
	FindVehicleByID(ctx context.Context, userID, id string) (*models.Vehicle, error)
	UpdateVehicleSettings(ctx context.Context, userID, id string, settings VehicleSettings) error
	DeleteVehicle(ctx context.Context, userID, id string) error
	CountVehiclesByUser(ctx context.Context, userID string) (int64, error)
}

// MongoVehicleCollection implements VehicleCollection for MongoDB.
type MongoVehicleCollection struct {
	Collection *mongo.Collection
}

// InsertVehicle inserts a vehicle record into the collection.
func (c *MongoVehicleCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	_, err := c.Collection.InsertOne(ctx, vehicle)
	return err
}

// FindVehiclesByUser returns all vehicles owned by a user, oldest first.
func (c *MongoVehicleCollection) FindVehiclesByUser(ctx context.Context, userID string) ([]models.Vehicle, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := c.Collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var vehicles []models.Vehicle
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, err
	}
	return vehicles, nil
}

// FindVehicleByID finds a vehicle by its ID, scoped to the owning user.
func (c *MongoVehicleCollection) FindVehicleByID(ctx context.Context, userID, id string) (*models.Vehicle, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid vehicle ID: %w", err)
	}

	var vehicle models.Vehicle
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID, "user_id": userID}).Decode(&vehicle)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &vehicle, nil
}

// UpdateVehicleSettings applies the provided settings to a vehicle.
func (c *MongoVehicleCollection) UpdateVehicleSettings(ctx context.Context, userID, id string, settings VehicleSettings) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid vehicle ID: %w", err)
	}

	set := bson.M{}
	if settings.Name != nil {
		set["name"] = *settings.Name
	}
	if settings.FuelPrice != nil {
		set["fuel_price"] = *settings.FuelPrice
	}
	if settings.SheetURL != nil {
		set["sheet_url"] = *settings.SheetURL
	}
	if len(set) == 0 {
		return nil
	}

	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": objectID, "user_id": userID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteVehicle deletes a vehicle by its ID, scoped to the owning user.
// Cascading deletion of the vehicle's trips is the caller's responsibility
// (see TripCollection.DeleteTripsByVehicle).
func (c *MongoVehicleCollection) DeleteVehicle(ctx context.Context, userID, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid vehicle ID: %w", err)
	}

	result, err := c.Collection.DeleteOne(ctx, bson.M{"_id": objectID, "user_id": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountVehiclesByUser counts the vehicles a user owns.
func (c *MongoVehicleCollection) CountVehiclesByUser(ctx context.Context, userID string) (int64, error) {
	if c.Collection == nil {
		return 0, fmt.Errorf("mongo collection is nil")
	}
	return c.Collection.CountDocuments(ctx, bson.M{"user_id": userID})
}
