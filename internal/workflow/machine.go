// Package workflow drives one intake session from editable form to confirmed
// order: Idle -> Validating -> QuotePending -> QuotesShown -> OrderPending ->
// OrderConfirmed, with failures falling back to an editable state and never
// losing entered values.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shipdesk/intake/internal/comparison"
	"github.com/shipdesk/intake/internal/intake"
	"github.com/shipdesk/intake/internal/rateapi"
	"github.com/shipdesk/intake/internal/session"
	"github.com/shipdesk/intake/pkg/models"
	"github.com/sirupsen/logrus"
)

var (
	// ErrBusy rejects submits and edits while a collaborator call is pending.
	ErrBusy = errors.New("a request is already in flight for this session")
	// ErrStaleResponse marks a response that arrived after the session moved
	// on (reset or replaced attempt); its result must not be applied.
	ErrStaleResponse = errors.New("response arrived for a superseded attempt")
	// ErrNoQuotes means the collaborator answered but offered nothing for the
	// route.
	ErrNoQuotes = errors.New("no shipping quotes available for this route")
	// ErrNotQuoted rejects quote selection outside QuotesShown.
	ErrNotQuoted = errors.New("no quotes are currently shown for this session")
	// ErrUnknownCarrier rejects selection of a carrier that was never quoted.
	ErrUnknownCarrier = errors.New("selected carrier is not among the shown quotes")
)

// ValidationError carries the field error map from a failed validation pass.
// It never reaches the network.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("form validation failed with %d field error(s)", len(e.Fields))
}

// RateClient is the collaborator surface the machine needs. *rateapi.Client
// satisfies it; tests use fakes.
type RateClient interface {
	CalculateRate(ctx context.Context, sess *session.Session, req models.RateRequest) (*models.RateResult, error)
	CreateOrder(ctx context.Context, sess *session.Session, req models.OrderRequest) (*models.OrderConfirmation, error)
}

// Observer is notified after a transition commits, outside the machine lock.
// All methods may be no-ops.
type Observer interface {
	QuoteReceived(sessionID string, req models.RateRequest, result models.RateResult)
	OrderBooked(sessionID string, req models.OrderRequest, conf models.OrderConfirmation)
}

// QuoteOutcome is what the quote screen renders: every returned quote, the
// request echo, and the comparison annotations.
type QuoteOutcome struct {
	Result        models.RateResult   `json:"result"`
	Comparison    *comparison.Summary `json:"comparison"`
	MixedCurrency bool                `json:"mixedCurrency"`
}

// Machine owns one session's form and its quote-to-order progress.
type Machine struct {
	sessionID string
	client    RateClient
	logger    *logrus.Logger
	observer  Observer

	mu      sync.Mutex
	form    *intake.Form
	state   State
	attempt string
	quotes  []models.Quote
	result  *models.RateResult
	lastErr string

	quoteCalls    int64
	orderCalls    int64
	totalFailures int64
}

func New(sessionID string, form *intake.Form, client RateClient, logger *logrus.Logger) *Machine {
	return &Machine{
		sessionID: sessionID,
		form:      form,
		client:    client,
		logger:    logger,
		state:     StateIdle,
	}
}

func (m *Machine) SetObserver(o Observer) {
	m.observer = o
}

func (m *Machine) SessionID() string {
	return m.sessionID
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LastError is the single user-visible message from the most recent failure.
func (m *Machine) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Quotes returns the currently shown quotes, nil outside QuotesShown and
// OrderPending.
func (m *Machine) Quotes() []models.Quote {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Quote, len(m.quotes))
	copy(out, m.quotes)
	return out
}

// UpdateForm serializes a form edit through the machine. Edits are rejected
// while a collaborator call is pending; an edit after quotes were shown (or
// an order confirmed) drops the stale quotes and returns the session to Idle.
func (m *Machine) UpdateForm(edit func(*intake.Form) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Pending() {
		return ErrBusy
	}
	if err := edit(m.form); err != nil {
		return err
	}
	if m.state == StateQuotesShown || m.state == StateOrderConfirmed {
		m.invalidateLocked()
	}
	return nil
}

// ReadForm gives callers a serialized read of the form.
func (m *Machine) ReadForm(read func(*intake.Form)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	read(m.form)
}

// SubmitQuote validates the form and requests carrier quotes. On validation
// failure it returns a *ValidationError and makes no network call. On
// collaborator failure the session returns to Idle with every entered value
// intact; resubmitting is the only retry.
func (m *Machine) SubmitQuote(ctx context.Context, sess *session.Session) (*QuoteOutcome, error) {
	m.mu.Lock()
	if m.state.Pending() {
		m.mu.Unlock()
		return nil, ErrBusy
	}

	m.state = StateValidating
	if errs := m.form.Validate(); len(errs) > 0 {
		m.state = StateIdle
		m.lastErr = "Please fill in all required fields correctly"
		m.mu.Unlock()
		return nil, &ValidationError{Fields: errs}
	}

	req := m.form.RateRequest()
	_, single := m.form.Currency()
	attempt := uuid.New().String()
	m.attempt = attempt
	m.state = StateQuotePending
	m.quoteCalls++
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"session_id":  m.sessionID,
		"pickup":      req.PickupCountry,
		"destination": req.DestinationCountry,
		"weight_kg":   req.ActualWeight,
	}).Info("Requesting carrier quotes")

	result, err := m.client.CalculateRate(ctx, sess, req)

	m.mu.Lock()
	if m.attempt != attempt {
		// The session was reset or resubmitted while this call was in
		// flight. Applying the response now would resurrect a view the
		// user already left.
		m.mu.Unlock()
		return nil, ErrStaleResponse
	}

	if err != nil {
		m.state = StateIdle
		m.lastErr = failureMessage(err)
		m.totalFailures++
		m.mu.Unlock()
		m.logger.WithError(err).WithField("session_id", m.sessionID).Error("Quote request failed")
		return nil, err
	}
	if len(result.Quotes) == 0 {
		m.state = StateIdle
		m.lastErr = ErrNoQuotes.Error()
		m.mu.Unlock()
		return nil, ErrNoQuotes
	}

	m.quotes = result.Quotes
	m.result = result
	m.state = StateQuotesShown
	m.lastErr = ""
	m.mu.Unlock()

	if m.observer != nil {
		m.observer.QuoteReceived(m.sessionID, req, *result)
	}

	return &QuoteOutcome{
		Result:        *result,
		Comparison:    comparison.Analyze(result.Quotes),
		MixedCurrency: !single,
	}, nil
}

// PlaceOrder books the shipment with one of the shown quotes, identified by
// carrier name. On failure the quote list stays shown so the user can retry
// without re-quoting; on success the form resets and the session confirms.
func (m *Machine) PlaceOrder(ctx context.Context, sess *session.Session, carrier string) (*models.OrderConfirmation, error) {
	m.mu.Lock()
	if m.state.Pending() {
		m.mu.Unlock()
		return nil, ErrBusy
	}
	if m.state != StateQuotesShown {
		m.mu.Unlock()
		return nil, ErrNotQuoted
	}

	var selected *models.Quote
	for i := range m.quotes {
		if m.quotes[i].Carrier == carrier {
			selected = &m.quotes[i]
			break
		}
	}
	if selected == nil {
		m.mu.Unlock()
		return nil, ErrUnknownCarrier
	}

	// The order payload is assembled from current form state plus the
	// selected quote; the export declaration surcharge is derived here.
	req := m.form.OrderRequest(*selected)
	attempt := uuid.New().String()
	m.attempt = attempt
	m.state = StateOrderPending
	m.orderCalls++
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"session_id": m.sessionID,
		"carrier":    req.Carrier.Name,
		"cost":       req.Carrier.Cost,
	}).Info("Placing order for selected quote")

	conf, err := m.client.CreateOrder(ctx, sess, req)

	m.mu.Lock()
	if m.attempt != attempt {
		m.mu.Unlock()
		return nil, ErrStaleResponse
	}

	if err != nil {
		// Keep the quotes visible; retrying the booking must not force a
		// fresh quote round trip.
		m.state = StateQuotesShown
		m.lastErr = failureMessage(err)
		m.totalFailures++
		m.mu.Unlock()
		m.logger.WithError(err).WithField("session_id", m.sessionID).Error("Order creation failed")
		return nil, err
	}

	m.form.Reset()
	m.quotes = nil
	m.result = nil
	m.state = StateOrderConfirmed
	m.lastErr = ""
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"session_id": m.sessionID,
		"order_id":   conf.OrderID,
		"carrier":    req.Carrier.Name,
	}).Info("Order confirmed")

	if m.observer != nil {
		m.observer.OrderBooked(m.sessionID, req, *conf)
	}
	return conf, nil
}

// Reset clears the form, drops any shown quotes and invalidates in-flight
// responses.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.form.Reset()
	m.invalidateLocked()
	m.lastErr = ""
}

func (m *Machine) invalidateLocked() {
	m.attempt = uuid.New().String()
	m.quotes = nil
	m.result = nil
	m.state = StateIdle
}

// Metrics exposes counters for the health endpoint.
func (m *Machine) Metrics() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]any{
		"session_id":     m.sessionID,
		"state":          m.state.String(),
		"quote_calls":    m.quoteCalls,
		"order_calls":    m.orderCalls,
		"total_failures": m.totalFailures,
	}
}

// failureMessage flattens a collaborator failure to the single user-visible
// message the UI shows.
func failureMessage(err error) string {
	var apiErr *rateapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return err.Error()
}
