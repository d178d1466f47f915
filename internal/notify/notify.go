// Package notify publishes change events after committed writes so clients
// can re-fetch a fresh snapshot and recompute the ledger, replacing the
// implicit live-query model with an explicit stream.
package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Notifier announces that a user's vehicle list or a vehicle's trip set
// changed. Implementations must never block the write path.
type Notifier interface {
	VehiclesChanged(userID string)
	TripsChanged(userID, vehicleID string)
}

// Event is the published change notification. It carries no record data;
// subscribers re-fetch the full snapshot for the affected collection.
type Event struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	VehicleID string    `json:"vehicle_id,omitempty"`
	At        time.Time `json:"at"`
}

// NewFromEnv returns an MQTT-backed notifier when MQTT_BROKER is set, and a
// no-op notifier otherwise. Change notification is optional plumbing; the
// API works without a broker.
func NewFromEnv() (Notifier, error) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" {
		return Noop{}, nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID("fueltrack-api-" + uuid.NewString()[:8]).
		SetConnectTimeout(10 * time.Second).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout for broker %s", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect error: %w", err)
	}

	log.WithField("broker", broker).Info("Connected to MQTT broker")
	return &MQTTNotifier{client: client}, nil
}

// MQTTNotifier publishes change events over MQTT.
type MQTTNotifier struct {
	client mqtt.Client
}

// VehiclesChanged announces a change to the user's vehicle collection.
func (n *MQTTNotifier) VehiclesChanged(userID string) {
	n.publish(VehiclesTopic(userID), Event{
		ID:     uuid.NewString(),
		UserID: userID,
		At:     time.Now().UTC(),
	})
}

// TripsChanged announces a change to one vehicle's trip collection.
func (n *MQTTNotifier) TripsChanged(userID, vehicleID string) {
	n.publish(TripsTopic(userID, vehicleID), Event{
		ID:        uuid.NewString(),
		UserID:    userID,
		VehicleID: vehicleID,
		At:        time.Now().UTC(),
	})
}

// Close disconnects from the broker.
func (n *MQTTNotifier) Close() {
	n.client.Disconnect(250)
}

func (n *MQTTNotifier) publish(topic string, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.WithError(err).Error("Failed to marshal change event")
		return
	}

	token := n.client.Publish(topic, 0, false, payload)
	// Delivery is best-effort; wait off the write path and only log.
	go func() {
		if token.WaitTimeout(5*time.Second) && token.Error() != nil {
			log.WithError(token.Error()).WithField("topic", topic).Warn("Failed to publish change event")
		}
	}()
}

// VehiclesTopic is the topic carrying vehicle-collection change events.
func VehiclesTopic(userID string) string {
	return fmt.Sprintf("fueltrack/%s/vehicles", userID)
}

// TripsTopic is the topic carrying trip-collection change events for one vehicle.
func TripsTopic(userID, vehicleID string) string {
	return fmt.Sprintf("fueltrack/%s/vehicles/%s/trips", userID, vehicleID)
}

// Noop discards all notifications.
type Noop struct{}

func (Noop) VehiclesChanged(string)      {}
func (Noop) TripsChanged(string, string) {}
