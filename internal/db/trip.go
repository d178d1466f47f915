package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mvijayr/fueltrack/internal/models"
)

// TripCollection defines the interface for fuel entry data operations.
type TripCollection interface {
	InsertTrip(ctx context.Context, trip models.Trip) error
	FindTripsByVehicle(ctx context.Context, userID, vehicleID string) ([]models.Trip, error)
	FindTripByID(ctx context.Context, userID, id string) (*models.Trip, error)
	UpdateTrip(ctx context.Context, userID, id string, trip models.Trip) error
	DeleteTrip(ctx context.Context, userID, id string) error
	DeleteTripsByVehicle(ctx context.Context, userID, vehicleID string) (int64, error)
	LatestTrip(ctx context.Context, userID, vehicleID string) (*models.Trip, error)
}

// MongoTripCollection implements TripCollection for MongoDB.
type MongoTripCollection struct {
	Collection *mongo.Collection
}

// InsertTrip inserts a fuel entry into the collection.
func (c *MongoTripCollection) InsertTrip(ctx context.Context, trip models.Trip) error {
	if c.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	trip.CreatedAt = time.Now()
	_, err := c.Collection.InsertOne(ctx, trip)
	return err
}

// FindTripsByVehicle returns the full unordered snapshot of a vehicle's
// fuel entries. Ordering is the ledger's job, not the store's.
func (c *MongoTripCollection) FindTripsByVehicle(ctx context.Context, userID, vehicleID string) ([]models.Trip, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	cursor, err := c.Collection.Find(ctx, bson.M{"user_id": userID, "vehicle_id": vehicleID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var trips []models.Trip
	if err := cursor.All(ctx, &trips); err != nil {
		return nil, err
	}
	return trips, nil
}

// FindTripByID finds a fuel entry by its ID, scoped to the owning user.
func (c *MongoTripCollection) FindTripByID(ctx context.Context, userID, id string) (*models.Trip, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid trip ID: %w", err)
	}

	var trip models.Trip
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID, "user_id": userID}).Decode(&trip)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &trip, nil
}

// UpdateTrip replaces the stored fields of a fuel entry.
func (c *MongoTripCollection) UpdateTrip(ctx context.Context, userID, id string, trip models.Trip) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid trip ID: %w", err)
	}

	update := bson.M{"$set": bson.M{
		"date":   trip.Date,
		"odo":    trip.Odo,
		"amount": trip.Amount,
		"liters": trip.Liters,
	}}
	result, err := c.Collection.UpdateOne(ctx, bson.M{"_id": objectID, "user_id": userID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTrip deletes a fuel entry by its ID, scoped to the owning user.
func (c *MongoTripCollection) DeleteTrip(ctx context.Context, userID, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid trip ID: %w", err)
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

// DeleteTripsByVehicle removes every fuel entry for a vehicle. Used by the
// clear-all operation and by vehicle deletion, which cascades so no trips
// are left orphaned in the store.
func (c *MongoTripCollection) DeleteTripsByVehicle(ctx context.Context, userID, vehicleID string) (int64, error) {
	if c.Collection == nil {
		return 0, fmt.Errorf("mongo collection is nil")
	}
	result, err := c.Collection.DeleteMany(ctx, bson.M{"user_id": userID, "vehicle_id": vehicleID})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// LatestTrip returns the entry with the highest odometer reading for a
// vehicle, or nil when the vehicle has no history. This is the baseline
// for entry-time odometer validation.
func (c *MongoTripCollection) LatestTrip(ctx context.Context, userID, vehicleID string) (*models.Trip, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "odo", Value: -1}})

	var trip models.Trip
	err := c.Collection.FindOne(ctx, bson.M{"user_id": userID, "vehicle_id": vehicleID}, opts).Decode(&trip)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &trip, nil
}
