package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shipdesk/intake/internal/intake"
	"github.com/shipdesk/intake/internal/rateapi"
	"github.com/shipdesk/intake/internal/session"
	"github.com/shipdesk/intake/internal/workflow"
	"github.com/shipdesk/intake/pkg/models"
)

// sessionView is the snapshot the frontend renders after every mutation.
type sessionView struct {
	ID            string            `json:"id"`
	State         string            `json:"state"`
	Pickup        models.Address    `json:"pickup"`
	Delivery      models.Address    `json:"delivery"`
	Products      []intake.Product  `json:"products"`
	Packages      []intake.Package  `json:"packages"`
	Units         string            `json:"units"`
	Compliance    intake.Compliance `json:"compliance"`
	Errors        map[string]string `json:"errors"`
	Weight        float64           `json:"totalChargeableWeight"`
	WeightUnit    string            `json:"weightUnit"`
	ShipmentValue float64           `json:"shipmentValue"`
	Currency      string            `json:"currency,omitempty"`
	Quotes        []models.Quote    `json:"quotes,omitempty"`
	LastError     string            `json:"lastError,omitempty"`
}

func snapshot(m *workflow.Machine) sessionView {
	view := sessionView{
		ID:        m.SessionID(),
		State:     m.State().String(),
		Quotes:    m.Quotes(),
		LastError: m.LastError(),
	}

	m.ReadForm(func(f *intake.Form) {
		view.Pickup = f.Pickup
		view.Delivery = f.Delivery
		view.Products = append([]intake.Product(nil), f.Products...)
		view.Packages = append([]intake.Package(nil), f.Packages...)
		view.Units = f.Units.String()
		view.Compliance = f.Compliance()
		view.Errors = f.Errors()
		view.Weight = f.TotalChargeableWeight()
		view.WeightUnit = f.Units.WeightUnit()
		view.ShipmentValue = f.ShipmentValue()
		if currency, ok := f.Currency(); ok {
			view.Currency = currency
		}
	})
	return view
}

// machine resolves the {id} path variable to a live session.
func (h *Handler) machine(w http.ResponseWriter, r *http.Request) (*workflow.Machine, bool) {
	id := mux.Vars(r)["id"]
	m, ok := h.registry.Get(id)
	if !ok {
		h.respondWithError(w, http.StatusNotFound, "Session not found")
		return nil, false
	}
	return m, true
}

func (h *Handler) rowID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["rowId"])
	if err != nil {
		h.respondWithError(w, http.StatusBadRequest, "Invalid row id")
		return 0, false
	}
	return id, true
}

// session derives the collaborator session from the Authorization header;
// requests without one proceed anonymously and fail at the collaborator.
func (h *Handler) session(r *http.Request) *session.Session {
	if sess, ok := session.FromBearer(r.Header.Get("Authorization")); ok {
		return sess
	}
	return session.FromToken("")
}

// applyEdit runs a form mutation through the machine and answers with the
// fresh snapshot.
func (h *Handler) applyEdit(w http.ResponseWriter, m *workflow.Machine, edit func(*intake.Form) error) {
	if err := m.UpdateForm(edit); err != nil {
		h.respondWithError(w, statusForError(err), userMessage(err))
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"session": snapshot(m),
	})
}

func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string) {
	h.respondWithJSON(w, code, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, workflow.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrNotQuoted), errors.Is(err, workflow.ErrUnknownCarrier):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrNoQuotes):
		return http.StatusNotFound
	case rateapi.IsAuth(err):
		return http.StatusUnauthorized
	case rateapi.IsNetwork(err):
		return http.StatusBadGateway
	case rateapi.IsAPI(err):
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

func userMessage(err error) string {
	var apiErr *rateapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return err.Error()
}
