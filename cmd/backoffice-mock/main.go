package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shipdesk/intake/internal/events"
	"github.com/shipdesk/intake/pkg/models"
	"github.com/sirupsen/logrus"
)

// carrierProfile drives the synthetic quotes: a per-kg rate and a transit
// window in days.
type carrierProfile struct {
	name      string
	perKgRate float64
	minDays   int
	maxDays   int
}

var carriers = []carrierProfile{
	{name: "DHL Express", perKgRate: 28.50, minDays: 2, maxDays: 4},
	{name: "FedEx International", perKgRate: 26.00, minDays: 3, maxDays: 5},
	{name: "UPS Worldwide", perKgRate: 24.75, minDays: 3, maxDays: 6},
	{name: "Aramex", perKgRate: 19.90, minDays: 4, maxDays: 7},
}

// mockBackoffice simulates the pricing and booking collaborator plus its
// notification feed.
type mockBackoffice struct {
	logger *logrus.Logger

	mutex         sync.RWMutex
	orders        map[string]models.OrderRequest
	notifications []models.Notification
}

func newMockBackoffice(logger *logrus.Logger) *mockBackoffice {
	return &mockBackoffice{
		logger: logger,
		orders: make(map[string]models.OrderRequest),
		notifications: []models.Notification{
			{
				ID:          uuid.New().String(),
				Type:        models.NotificationBillingUpload,
				Title:       "New billing document",
				BillingType: "invoice",
				FileURL:     "https://files.example.com/invoices/seed.pdf",
				CreatedAt:   time.Now().UTC().Format(time.RFC3339),
			},
		},
	}
}

// HandleShipmentBooked feeds confirmed bookings back into the notification
// stream, the way the real back office announces them.
func (m *mockBackoffice) HandleShipmentBooked(event events.ShipmentBookedEvent) error {
	m.mutex.Lock()
	m.notifications = append(m.notifications, models.Notification{
		ID:        uuid.New().String(),
		Type:      models.NotificationShipmentBooked,
		Title:     "Shipment booked",
		Message:   fmt.Sprintf("Order %s booked with %s", event.OrderID, event.Carrier),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	m.mutex.Unlock()

	m.logger.WithFields(logrus.Fields{
		"order_id": event.OrderID,
		"carrier":  event.Carrier,
	}).Info("Booking notification queued")
	return nil
}

func (m *mockBackoffice) login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Email == "" {
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid credentials",
		})
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"token": "mock-" + uuid.New().String(),
			"user": map[string]interface{}{
				"id":    uuid.New().String(),
				"name":  strings.Split(creds.Email, "@")[0],
				"email": creds.Email,
			},
		},
	})
}

func (m *mockBackoffice) calculateRate(w http.ResponseWriter, r *http.Request) {
	var req models.RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid request body",
		})
		return
	}

	// Simulate rating latency
	time.Sleep(time.Duration(rand.Intn(400)+100) * time.Millisecond)

	quotes := make([]models.Quote, 0, len(carriers))
	for _, c := range carriers {
		days := rand.Intn(c.maxDays-c.minDays+1) + c.minDays
		cost := req.ActualWeight * c.perKgRate
		if cost < 45 {
			cost = 45 // minimum billable shipment
		}
		quotes = append(quotes, models.Quote{
			Carrier:                   c.name,
			Cost:                      float64(int(cost*100)) / 100,
			Currency:                  "AED",
			EstimatedDelivery:         fmt.Sprintf("%d-%d days", days, days+1),
			EstimatedDeliveryReadable: fmt.Sprintf("Delivered in %d to %d business days", days, days+1),
		})
	}

	result := models.RateResult{
		Pickup:        models.RouteEndpoint{Country: req.PickupCountry, Pincode: req.PickupPincode},
		Destination:   models.RouteEndpoint{Country: req.DestinationCountry, Pincode: req.DestinationPincode},
		Weight:        models.WeightSummary{ActualWeight: req.ActualWeight, Unit: "kg"},
		ShipmentValue: models.ValueSummary{Value: req.ShipmentValue, Currency: "AED"},
		Quotes:        quotes,
		Dimensions:    req.Boxes,
		CalculatedAt:  time.Now().UTC().Format(time.RFC3339),
	}

	m.logger.WithFields(logrus.Fields{
		"pickup":      req.PickupCountry,
		"destination": req.DestinationCountry,
		"weight_kg":   req.ActualWeight,
		"quotes":      len(quotes),
	}).Info("Rate calculated")

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    result,
	})
}

func (m *mockBackoffice) createOrder(w http.ResponseWriter, r *http.Request) {
	var req models.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"message": "Invalid request body",
		})
		return
	}

	conf := models.OrderConfirmation{
		OrderID:   uuid.New().String(),
		AWB:       fmt.Sprintf("AWB%09d", rand.Intn(1_000_000_000)),
		Status:    "confirmed",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}

	m.mutex.Lock()
	m.orders[conf.OrderID] = req
	m.mutex.Unlock()

	m.logger.WithFields(logrus.Fields{
		"order_id": conf.OrderID,
		"awb":      conf.AWB,
		"carrier":  req.Carrier.Name,
		"cost":     req.Carrier.Cost,
	}).Info("Order created")

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    conf,
	})
}

func (m *mockBackoffice) getNotifications(w http.ResponseWriter, r *http.Request) {
	m.mutex.RLock()
	notifications := append([]models.Notification(nil), m.notifications...)
	m.mutex.RUnlock()

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    notifications,
	})
}

func (m *mockBackoffice) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "backoffice-mock",
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	mock := newMockBackoffice(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The Kafka consumer is optional; without it the mock still serves the
	// REST surface.
	if kafkaBrokers := os.Getenv("KAFKA_BROKERS"); kafkaBrokers != "" {
		var consumer *events.KafkaConsumer
		var err error
		for i := 0; i < 10; i++ {
			consumer, err = events.NewKafkaConsumer(kafkaBrokers, "backoffice-mock-group", mock, logger)
			if err == nil {
				logger.Info("Successfully connected to Kafka")
				break
			}
			logger.WithError(err).WithField("attempt", i+1).Warn("Failed to connect to Kafka, retrying...")
			time.Sleep(5 * time.Second)
		}
		if err != nil {
			logger.WithError(err).Fatal("Failed to create Kafka consumer after retries")
		}
		defer consumer.Close()

		go func() {
			if err := consumer.Start(ctx); err != nil {
				logger.WithError(err).Error("Kafka consumer stopped")
			}
		}()
	}

	port := os.Getenv("MOCK_PORT")
	if port == "" {
		port = "9090"
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", mock.healthCheck).Methods("GET")
	router.HandleFunc("/api/auth/login", mock.login).Methods("POST")
	router.HandleFunc("/api/calculate-rate", mock.calculateRate).Methods("POST")
	router.HandleFunc("/api/orders", mock.createOrder).Methods("POST")
	router.HandleFunc("/api/notifications", mock.getNotifications).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("port", port).Info("Starting back-office mock")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server gracefully stopped")
}
