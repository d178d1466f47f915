// Package sheets mirrors accepted fuel entries to a user-configured
// spreadsheet webhook. Delivery is fire-and-forget: it runs after the
// authoritative store write has committed, and a failure is logged but
// never surfaced, retried, or allowed to roll back the entry.
package sheets

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/mvijayr/fueltrack/internal/models"
)

// Exporter hands an accepted entry off for asynchronous webhook delivery.
type Exporter interface {
	Dispatch(vehicle models.Vehicle, trip models.Trip, distance, mileage float64, ownerEmail string)
}

// WebhookExporter posts entries to the vehicle's configured sheet URL.
type WebhookExporter struct {
	client *http.Client
}

// NewWebhookExporter creates a webhook exporter with a bounded timeout.
func NewWebhookExporter() *WebhookExporter {
	return &WebhookExporter{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// payload is the flat record the sheet script appends. The capitalized
// duplicates are kept for older Apps Script deployments that read
// column-cased keys.
type payload struct {
	Date      string  `json:"date"`
	Odo       float64 `json:"odo"`
	Amount    float64 `json:"amount"`
	Liters    float64 `json:"liters"`
	Distance  float64 `json:"distance"`
	Mileage   float64 `json:"mileage"`
	Vehicle   string  `json:"vehicle"`
	Price     float64 `json:"price"`
	UserEmail string  `json:"userEmail"`

	LegacyDate     string  `json:"Date"`
	LegacyOdo      float64 `json:"Odo"`
	LegacyAmount   float64 `json:"Amount"`
	LegacyLiters   float64 `json:"Liters"`
	LegacyDistance float64 `json:"Distance"`
	LegacyMileage  float64 `json:"Mileage"`
	LegacyPrice    float64 `json:"Price"`
}

// Dispatch schedules delivery of one accepted entry. It returns
// immediately; the caller's write is already committed and must not wait.
func (e *WebhookExporter) Dispatch(vehicle models.Vehicle, trip models.Trip, distance, mileage float64, ownerEmail string) {
	if vehicle.SheetURL == "" {
		return
	}
	if !validWebhookURL(vehicle.SheetURL) {
		log.WithField("vehicle", vehicle.Name).Warn("Skipping sheet sync: invalid webhook URL")
		return
	}

	go e.deliver(vehicle, trip, distance, mileage, ownerEmail)
}

func (e *WebhookExporter) deliver(vehicle models.Vehicle, trip models.Trip, distance, mileage float64, ownerEmail string) {
	deliveryID := uuid.NewString()
	logger := log.WithFields(log.Fields{
		"delivery_id": deliveryID,
		"vehicle":     vehicle.Name,
	})

	body, err := json.Marshal(payload{
		Date:      trip.Date,
		Odo:       trip.Odo,
		Amount:    trip.Amount,
		Liters:    trip.Liters,
		Distance:  distance,
		Mileage:   mileage,
		Vehicle:   vehicle.Name,
		Price:     vehicle.FuelPrice,
		UserEmail: ownerEmail,

		LegacyDate:     trip.Date,
		LegacyOdo:      trip.Odo,
		LegacyAmount:   trip.Amount,
		LegacyLiters:   trip.Liters,
		LegacyDistance: distance,
		LegacyMileage:  mileage,
		LegacyPrice:    vehicle.FuelPrice,
	})
	if err != nil {
		logger.WithError(err).Error("Failed to marshal sheet payload")
		return
	}

	resp, err := e.client.Post(vehicle.SheetURL, "application/json", bytes.NewReader(body))
	if err != nil {
		logger.WithError(err).Warn("Sheet sync failed")
		return
	}
	defer resp.Body.Close()

	logger.WithField("status", resp.Status).Info("Sheet sync delivered")
}

func validWebhookURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "https" || u.Scheme == "http") && u.Host != ""
}
