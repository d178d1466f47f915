package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// FillRequest is the fuel entry payload posted to the API.
type FillRequest struct {
	Date   string  `json:"date"`
	Odo    float64 `json:"odo"`
	Amount float64 `json:"amount"`
}

// RiderState tracks one simulated rider between refuels.
type RiderState struct {
	VehicleID string
	Odo       float64 // km
	Date      time.Time
	Mileage   float64 // typical km per liter
	FuelPrice float64 // currency per liter
}

var authToken string

func authorizedRequest(method, url string, body *bytes.Buffer) (*http.Response, error) {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, url, body)
	} else {
		req, err = http.NewRequest(method, url, nil)
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func signInAsGuest(apiURL string) error {
	resp, err := http.Post(apiURL+"/auth/guest", "application/json", nil)
	if err != nil {
		return fmt.Errorf("guest sign-in failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("guest sign-in failed with status: %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode sign-in response: %w", err)
	}
	if result.Token == "" {
		return fmt.Errorf("no token in sign-in response")
	}

	authToken = result.Token
	log.Info("Signed in as guest")
	return nil
}

// firstVehicle lists the account's vehicles and returns the first one's ID.
// A fresh account gets its default vehicle provisioned by this call.
func firstVehicle(apiURL string) (string, error) {
	resp, err := authorizedRequest(http.MethodGet, apiURL+"/vehicles", nil)
	if err != nil {
		return "", fmt.Errorf("failed to list vehicles: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("vehicle listing failed with status: %d", resp.StatusCode)
	}

	var vehicles []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&vehicles); err != nil {
		return "", fmt.Errorf("failed to decode vehicle list: %w", err)
	}
	if len(vehicles) == 0 {
		return "", fmt.Errorf("no vehicles in account")
	}

	log.WithFields(log.Fields{
		"vehicle_id": vehicles[0].ID,
		"name":       vehicles[0].Name,
	}).Info("Using vehicle")
	return vehicles[0].ID, nil
}

func setFuelPrice(apiURL, vehicleID string, price float64) error {
	data, err := json.Marshal(map[string]float64{"fuel_price": price})
	if err != nil {
		return err
	}
	resp, err := authorizedRequest(http.MethodPut, apiURL+"/vehicles/"+vehicleID, bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to set fuel price: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("setting fuel price failed with status: %d", resp.StatusCode)
	}
	log.WithField("fuel_price", price).Info("Configured fuel price")
	return nil
}

// nextFill advances the rider past one tank of fuel and returns the refuel
// entry for it. Odometer gain follows the configured mileage with some
// noise, and the date moves forward a few days per tank.
func nextFill(s *RiderState) FillRequest {
	amount := 300 + rand.Float64()*400 // currency spent at the pump
	liters := amount / s.FuelPrice
	mileage := s.Mileage * (0.85 + rand.Float64()*0.3)

	s.Odo += liters * mileage
	s.Date = s.Date.AddDate(0, 0, 3+rand.Intn(7))

	return FillRequest{
		Date:   s.Date.Format("2006-01-02"),
		Odo:    float64(int(s.Odo)), // odometers show whole km
		Amount: float64(int(amount)),
	}
}

func postFill(apiURL, vehicleID string, fill FillRequest) error {
	data, err := json.Marshal(fill)
	if err != nil {
		return err
	}
	resp, err := authorizedRequest(http.MethodPost, apiURL+"/vehicles/"+vehicleID+"/trips", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("fuel entry rejected with status: %d", resp.StatusCode)
	}

	log.WithFields(log.Fields{
		"date":   fill.Date,
		"odo":    fill.Odo,
		"amount": fill.Amount,
	}).Info("Recorded fuel entry")
	return nil
}

func main() {
	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}

	fills := 20
	if val := os.Getenv("SIM_FILLS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			fills = n
		}
	}

	interval := 2 * time.Second
	if v := os.Getenv("SIM_TICK_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 {
			interval = time.Duration(n) * time.Second
		}
	}

	log.WithFields(log.Fields{
		"api_url":  apiURL,
		"fills":    fills,
		"interval": interval,
	}).Info("Starting fuel log simulation")

	// An explicit token skips guest sign-in.
	authToken = os.Getenv("SIM_AUTH_TOKEN")
	if authToken == "" {
		if err := signInAsGuest(apiURL); err != nil {
			log.WithError(err).Fatal("Sign-in failed")
		}
	}

	vehicleID, err := firstVehicle(apiURL)
	if err != nil {
		log.WithError(err).Fatal("No usable vehicle")
	}

	state := &RiderState{
		VehicleID: vehicleID,
		Odo:       10000 + rand.Float64()*40000,
		Date:      time.Now().AddDate(0, -6, 0),
		Mileage:   35 + rand.Float64()*15, // scooter-like efficiency
		FuelPrice: 100 + rand.Float64()*10,
	}

	if err := setFuelPrice(apiURL, vehicleID, float64(int(state.FuelPrice))); err != nil {
		log.WithError(err).Fatal("Price configuration failed")
	}
	state.FuelPrice = float64(int(state.FuelPrice))

	tick := time.NewTicker(interval)
	defer tick.Stop()
	recorded := 0
	for range tick.C {
		fill := nextFill(state)
		if err := postFill(apiURL, vehicleID, fill); err != nil {
			log.WithError(err).Error("Failed to record fuel entry")
			continue
		}
		recorded++
		if recorded >= fills {
			break
		}
	}

	log.WithField("recorded", recorded).Info("Simulation finished")
}
