package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mvijayr/fueltrack/internal/models"
)

// testCollections connects to a local MongoDB or skips the test.
func testCollections(t *testing.T) (*MongoVehicleCollection, *MongoTripCollection) {
	t.Helper()
	client, err := ConnectMongo()
	if err != nil {
		t.Skipf("failed to create client: %v, skipping integration test", err)
	}
	t.Cleanup(func() { client.Disconnect(context.Background()) })

	database := client.Database("fueltrack_test")
	vehicles := database.Collection("vehicles")
	trips := database.Collection("trips")
	require.NoError(t, vehicles.Drop(context.Background()))
	require.NoError(t, trips.Drop(context.Background()))

	return &MongoVehicleCollection{Collection: vehicles}, &MongoTripCollection{Collection: trips}
}

func newTestVehicle(userID, name string, price float64) models.Vehicle {
	return models.Vehicle{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Name:      name,
		FuelPrice: price,
	}
}

func TestMongoVehicleCollection_InsertAndFind(t *testing.T) {
	vehicles, _ := testCollections(t)
	ctx := context.Background()

	v := newTestVehicle("user1", models.DefaultVehicleName, 0)
	require.NoError(t, vehicles.InsertVehicle(ctx, v))

	found, err := vehicles.FindVehiclesByUser(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, v.ID, found[0].ID)
	assert.Equal(t, models.DefaultVehicleName, found[0].Name)

	// Scoped to the owning user.
	other, err := vehicles.FindVehiclesByUser(ctx, "user2")
	require.NoError(t, err)
	assert.Empty(t, other)

	byID, err := vehicles.FindVehicleByID(ctx, "user1", v.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, v.ID, byID.ID)

	_, err = vehicles.FindVehicleByID(ctx, "user2", v.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMongoVehicleCollection_UpdateSettings(t *testing.T) {
	vehicles, _ := testCollections(t)
	ctx := context.Background()

	v := newTestVehicle("user1", "Work Truck", 0)
	require.NoError(t, vehicles.InsertVehicle(ctx, v))

	price := 105.5
	url := "https://script.google.com/macros/s/abc/exec"
	err := vehicles.UpdateVehicleSettings(ctx, "user1", v.ID.Hex(), VehicleSettings{
		FuelPrice: &price,
		SheetURL:  &url,
	})
	require.NoError(t, err)

	updated, err := vehicles.FindVehicleByID(ctx, "user1", v.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 105.5, updated.FuelPrice)
	assert.Equal(t, url, updated.SheetURL)
	assert.Equal(t, "Work Truck", updated.Name)

	// Unknown vehicle.
	err = vehicles.UpdateVehicleSettings(ctx, "user1", primitive.NewObjectID().Hex(), VehicleSettings{FuelPrice: &price})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMongoVehicleCollection_DeleteAndCount(t *testing.T) {
	vehicles, _ := testCollections(t)
	ctx := context.Background()

	a := newTestVehicle("user1", "A", 100)
	b := newTestVehicle("user1", "B", 100)
	require.NoError(t, vehicles.InsertVehicle(ctx, a))
	require.NoError(t, vehicles.InsertVehicle(ctx, b))

	count, err := vehicles.CountVehiclesByUser(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, vehicles.DeleteVehicle(ctx, "user1", a.ID.Hex()))

	count, err = vehicles.CountVehiclesByUser(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	err = vehicles.DeleteVehicle(ctx, "user1", a.ID.Hex())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMongoVehicleCollection_InvalidID(t *testing.T) {
	vehicles := &MongoVehicleCollection{Collection: &mongo.Collection{}}
	_, err := vehicles.FindVehicleByID(context.Background(), "user1", "not-a-hex-id")
	assert.Error(t, err)
}
