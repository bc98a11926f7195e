// Package httpapi exposes the intake workflow over REST for the back-office
// frontend: session lifecycle, form edits, quote submission and order booking.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shipdesk/intake/internal/intake"
	"github.com/shipdesk/intake/internal/rating"
	"github.com/shipdesk/intake/internal/session"
	"github.com/shipdesk/intake/internal/store"
	"github.com/shipdesk/intake/internal/workflow"
	"github.com/shipdesk/intake/pkg/models"
	"github.com/sirupsen/logrus"
)

// AuthClient is the collaborator login surface. *rateapi.Client satisfies it.
type AuthClient interface {
	Login(ctx context.Context, email, password string) (*session.Session, error)
}

// BookingLister reads persisted bookings. *store.Store satisfies it.
type BookingLister interface {
	ListBookings(ctx context.Context, limit int) ([]store.Booking, error)
}

// CachedQuotes reads back the latest cached rate result. *cache.QuoteCache
// satisfies it.
type CachedQuotes interface {
	Get(ctx context.Context, sessionID string) (*models.RateResult, error)
}

type WebSocketHub interface {
	HandleWebSocket(w http.ResponseWriter, r *http.Request)
}

type Handler struct {
	registry *Registry
	auth     AuthClient
	bookings BookingLister
	quotes   CachedQuotes
	hub      WebSocketHub
	logger   *logrus.Logger
}

func NewHandler(registry *Registry, auth AuthClient, logger *logrus.Logger) *Handler {
	return &Handler{
		registry: registry,
		auth:     auth,
		logger:   logger,
	}
}

func (h *Handler) SetBookingLister(bookings BookingLister) { h.bookings = bookings }
func (h *Handler) SetQuoteCache(quotes CachedQuotes)       { h.quotes = quotes }
func (h *Handler) SetWebSocketHub(hub WebSocketHub)        { h.hub = hub }

// Register wires all routes onto the router.
func (h *Handler) Register(router *mux.Router) {
	router.HandleFunc("/health", h.HealthCheck).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/auth/login", h.Login).Methods("POST", "OPTIONS")

	router.HandleFunc("/api/sessions", h.CreateSession).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/sessions/{id}", h.GetSession).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/sessions/{id}", h.DeleteSession).Methods("DELETE", "OPTIONS")
	router.HandleFunc("/api/sessions/{id}/address/{section}", h.SetAddressField).Methods("PATCH", "OPTIONS")
	router.HandleFunc("/api/sessions/{id}/prefill", h.Prefill).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/sessions/{id}/units", h.SetUnits).Methods("PATCH", "OPTIONS")
	router.HandleFunc("/api/sessions/{id}/compliance", h.SetCompliance).Methods("PATCH", "OPTIONS")

	router.HandleFunc("/api/sessions/{id}/products", h.AddProduct).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/sessions/{id}/products/{rowId}", h.SetProductField).Methods("PATCH", "OPTIONS")
	router.HandleFunc("/api/sessions/{id}/products/{rowId}", h.RemoveProduct).Methods("DELETE", "OPTIONS")
	router.HandleFunc("/api/sessions/{id}/packages", h.AddPackage).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/sessions/{id}/packages/{rowId}", h.SetPackageField).Methods("PATCH", "OPTIONS")
	router.HandleFunc("/api/sessions/{id}/packages/{rowId}", h.RemovePackage).Methods("DELETE", "OPTIONS")

	router.HandleFunc("/api/sessions/{id}/quote", h.SubmitQuote).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/sessions/{id}/quotes", h.GetQuotes).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/sessions/{id}/order", h.PlaceOrder).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/sessions/{id}/reset", h.ResetSession).Methods("POST", "OPTIONS")

	router.HandleFunc("/api/orders", h.ListOrders).Methods("GET", "OPTIONS")

	if h.hub != nil {
		router.HandleFunc("/ws", h.hub.HandleWebSocket)
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"service":  "intake-service",
		"sessions": h.registry.Count(),
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess, err := h.auth.Login(r.Context(), creds.Email, creds.Password)
	if err != nil {
		h.logger.WithError(err).Warn("Login failed")
		h.respondWithError(w, statusForError(err), "Invalid email or password")
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   sess.Token,
		"name":    sess.Name,
		"email":   sess.Email,
	})
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	m := h.registry.Create()
	h.respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"session": snapshot(m),
	})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"session": snapshot(m),
	})
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if !h.registry.Delete(id) {
		h.respondWithError(w, http.StatusNotFound, "Session not found")
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *Handler) SetAddressField(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	section := mux.Vars(r)["section"]

	var body struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.applyEdit(w, m, func(f *intake.Form) error {
		return f.SetAddressField(section, body.Field, body.Value)
	})
}

func (h *Handler) Prefill(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}

	var body struct {
		Pickup   json.RawMessage `json:"pickup"`
		Delivery json.RawMessage `json:"delivery"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	pickup := models.DecodeLooseAddress(body.Pickup)
	delivery := models.DecodeLooseAddress(body.Delivery)
	h.applyEdit(w, m, func(f *intake.Form) error {
		f.ApplyPrefill(pickup, delivery)
		return nil
	})
}

func (h *Handler) SetUnits(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}

	var body struct {
		Units string `json:"units"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var units rating.UnitSystem
	switch body.Units {
	case "kg/cm", "metric":
		units = rating.MetricKgCm
	case "lb/in", "imperial":
		units = rating.ImperialLbIn
	default:
		h.respondWithError(w, http.StatusBadRequest, "Unknown unit system")
		return
	}

	h.applyEdit(w, m, func(f *intake.Form) error {
		f.Units = units
		return nil
	})
}

func (h *Handler) SetCompliance(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}

	var body struct {
		RequireBOE        *bool `json:"requireBOE"`
		RequireDO         *bool `json:"requireDO"`
		ExportDeclaration *bool `json:"exportDeclaration"`
		DutyExemption     *bool `json:"dutyExemption"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.applyEdit(w, m, func(f *intake.Form) error {
		if body.RequireBOE != nil {
			f.SetRequireBOE(*body.RequireBOE)
		}
		if body.RequireDO != nil {
			f.SetRequireDO(*body.RequireDO)
		}
		if body.ExportDeclaration != nil {
			f.SetExportDeclaration(*body.ExportDeclaration)
		}
		if body.DutyExemption != nil {
			f.SetDutyExemption(*body.DutyExemption)
		}
		return nil
	})
}

func (h *Handler) AddProduct(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	h.applyEdit(w, m, func(f *intake.Form) error {
		f.AddProduct()
		return nil
	})
}

func (h *Handler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	rowID, ok := h.rowID(w, r)
	if !ok {
		return
	}
	h.applyEdit(w, m, func(f *intake.Form) error {
		f.RemoveProduct(rowID)
		return nil
	})
}

func (h *Handler) SetProductField(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	rowID, ok := h.rowID(w, r)
	if !ok {
		return
	}

	var body struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.applyEdit(w, m, func(f *intake.Form) error {
		return f.SetProductField(rowID, body.Field, body.Value)
	})
}

func (h *Handler) AddPackage(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	h.applyEdit(w, m, func(f *intake.Form) error {
		f.AddPackage()
		return nil
	})
}

func (h *Handler) RemovePackage(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	rowID, ok := h.rowID(w, r)
	if !ok {
		return
	}
	h.applyEdit(w, m, func(f *intake.Form) error {
		f.RemovePackage(rowID)
		return nil
	})
}

func (h *Handler) SetPackageField(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	rowID, ok := h.rowID(w, r)
	if !ok {
		return
	}

	var body struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.applyEdit(w, m, func(f *intake.Form) error {
		return f.SetPackageField(rowID, body.Field, body.Value)
	})
}

func (h *Handler) SubmitQuote(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	sess := h.session(r)

	outcome, err := m.SubmitQuote(r.Context(), sess)
	if err != nil {
		var vErr *workflow.ValidationError
		if errors.As(err, &vErr) {
			h.respondWithJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"success": false,
				"message": "Please fill in all required fields correctly",
				"errors":  vErr.Fields,
			})
			return
		}
		h.respondWithError(w, statusForError(err), userMessage(err))
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    outcome,
		"session": snapshot(m),
	})
}

func (h *Handler) GetQuotes(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}

	if quotes := m.Quotes(); len(quotes) > 0 {
		h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"quotes":  quotes,
		})
		return
	}

	// Fall back to the cached result so a reloaded quote screen can still
	// render without a fresh collaborator round trip.
	if h.quotes != nil {
		if result, err := h.quotes.Get(r.Context(), m.SessionID()); err == nil {
			h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
				"success": true,
				"quotes":  result.Quotes,
				"cached":  true,
			})
			return
		}
	}

	h.respondWithError(w, http.StatusNotFound, "No quotes available for this session")
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	sess := h.session(r)

	var body struct {
		Carrier string `json:"carrier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	conf, err := m.PlaceOrder(r.Context(), sess, body.Carrier)
	if err != nil {
		h.respondWithError(w, statusForError(err), userMessage(err))
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"order":   conf,
		"session": snapshot(m),
	})
}

func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	m.Reset()
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"session": snapshot(m),
	})
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	if h.bookings == nil {
		h.respondWithError(w, http.StatusServiceUnavailable, "Booking history is not available")
		return
	}

	bookings, err := h.bookings.ListBookings(r.Context(), 100)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list bookings")
		h.respondWithError(w, http.StatusInternalServerError, "Failed to list bookings")
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"orders":  bookings,
		"count":   len(bookings),
	})
}
