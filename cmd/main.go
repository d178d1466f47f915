package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/mvijayr/fueltrack/internal/auth"
	"github.com/mvijayr/fueltrack/internal/db"
	"github.com/mvijayr/fueltrack/internal/handlers"
	"github.com/mvijayr/fueltrack/internal/middleware"
	"github.com/mvijayr/fueltrack/internal/notify"
	"github.com/mvijayr/fueltrack/internal/sheets"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found")
	}
	configureLogging()

	client, err := db.ConnectMongo()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())
	log.Info("Connected to MongoDB")

	database := client.Database(db.DatabaseName())
	users := &db.MongoUserCollection{Collection: database.Collection("users")}
	vehicles := &db.MongoVehicleCollection{Collection: database.Collection("vehicles")}
	trips := &db.MongoTripCollection{Collection: database.Collection("trips")}

	authService, err := auth.NewService()
	if err != nil {
		log.WithError(err).Fatal("Failed to create auth service")
	}

	notifier, err := notify.NewFromEnv()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MQTT broker")
	}

	exporter := sheets.NewWebhookExporter()

	authHandler := handlers.NewAuthHandler(authService, users)
	vehicleHandler := handlers.NewVehicleHandler(vehicles, trips, notifier)
	tripHandler := handlers.NewTripHandler(trips, vehicles, exporter, notifier)

	authMiddleware := middleware.NewAuthMiddleware(authService)
	rateLimiter := middleware.NewRateLimitMiddleware()
	limitAuth := rateLimiter.RateLimit(10, 60)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handlers.Health)

	mux.Handle("POST /api/auth/login", limitAuth(http.HandlerFunc(authHandler.Login)))
	mux.Handle("POST /api/auth/register", limitAuth(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/auth/guest", limitAuth(http.HandlerFunc(authHandler.Guest)))
	mux.HandleFunc("GET /api/auth/profile", authHandler.GetProfile)

	mux.HandleFunc("GET /api/vehicles", vehicleHandler.List)
	mux.HandleFunc("POST /api/vehicles", vehicleHandler.Create)
	mux.HandleFunc("PUT /api/vehicles/{id}", vehicleHandler.UpdateSettings)
	mux.HandleFunc("DELETE /api/vehicles/{id}", vehicleHandler.Delete)

	mux.HandleFunc("GET /api/vehicles/{id}/trips", tripHandler.List)
	mux.HandleFunc("POST /api/vehicles/{id}/trips", tripHandler.Create)
	mux.HandleFunc("DELETE /api/vehicles/{id}/trips", tripHandler.Clear)
	mux.HandleFunc("PUT /api/vehicles/{id}/trips/{tripID}", tripHandler.Update)
	mux.HandleFunc("DELETE /api/vehicles/{id}/trips/{tripID}", tripHandler.Delete)
	mux.HandleFunc("GET /api/vehicles/{id}/export", tripHandler.ExportCSV)

	handler := authMiddleware.Authenticate(mux)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.WithField("port", port).Info("HTTP server listening")
	log.Fatal(http.ListenAndServe(":"+port, handler))
}

func configureLogging() {
	log.SetFormatter(&log.JSONFormatter{})
	if level, err := log.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(level)
	}
}
