// Package rateapi is the HTTP client for the remote pricing/order
// collaborator. All business logic (carrier selection, pricing, persistence)
// lives on that side; this client only moves JSON and classifies failures.
package rateapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shipdesk/intake/internal/session"
	"github.com/shipdesk/intake/pkg/models"
	"github.com/sirupsen/logrus"
)

const defaultTimeout = 30 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// envelope is the collaborator's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginData struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"user"`
}

// Login exchanges credentials for a bearer token and returns the session
// built from it.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Session, error) {
	var data loginData
	if err := c.doJSON(ctx, nil, "login", http.MethodPost, "/api/auth/login", loginRequest{Email: email, Password: password}, &data); err != nil {
		return nil, err
	}
	if data.Token == "" {
		return nil, &Error{Kind: KindAPI, Op: "login", Message: "login response carried no token"}
	}

	sess := session.FromToken(data.Token)
	if sess.Name == "" {
		sess.Name = data.User.Name
	}
	if sess.Email == "" {
		sess.Email = data.User.Email
	}
	if sess.UserID == "" {
		sess.UserID = data.User.ID
	}

	c.logger.WithField("user", sess.Email).Info("Logged in to shipping collaborator")
	return sess, nil
}

// CalculateRate requests carrier quotes for the shipment.
func (c *Client) CalculateRate(ctx context.Context, sess *session.Session, req models.RateRequest) (*models.RateResult, error) {
	var result models.RateResult
	if err := c.doJSON(ctx, sess, "calculate rate", http.MethodPost, "/api/calculate-rate", req, &result); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"pickup":      req.PickupCountry,
		"destination": req.DestinationCountry,
		"weight_kg":   req.ActualWeight,
		"quotes":      len(result.Quotes),
	}).Info("Received rate quotes")

	return &result, nil
}

// CreateOrder books the shipment with the selected carrier quote.
func (c *Client) CreateOrder(ctx context.Context, sess *session.Session, req models.OrderRequest) (*models.OrderConfirmation, error) {
	var confirmation models.OrderConfirmation
	if err := c.doJSON(ctx, sess, "create order", http.MethodPost, "/api/orders", req, &confirmation); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"order_id": confirmation.OrderID,
		"carrier":  req.Carrier.Name,
		"cost":     req.Carrier.Cost,
	}).Info("Order created with collaborator")

	return &confirmation, nil
}

// GetNotifications fetches the back-office notification feed.
func (c *Client) GetNotifications(ctx context.Context, sess *session.Session) ([]models.Notification, error) {
	var items []models.Notification
	if err := c.doJSON(ctx, sess, "get notifications", http.MethodGet, "/api/notifications", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) doJSON(ctx context.Context, sess *session.Session, op, method, path string, payload, out any) error {
	// Fail fast on a locally known-expired token; no point in a round trip.
	if sess.Expired(time.Now()) {
		return &Error{Kind: KindAuth, Op: op, Message: "session token expired"}
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer := sess.BearerHeader(); bearer != "" {
		req.Header.Set("Authorization", bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("op", op).Error("Collaborator request failed")
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return &Error{Kind: KindAPI, Op: op, Status: resp.StatusCode, Message: "malformed response", Err: err}
		}
	}

	message := env.Error
	if message == "" {
		message = env.Message
	}

	if resp.StatusCode == http.StatusUnauthorized || tokenExpiredMessage(message) {
		return &Error{Kind: KindAuth, Op: op, Status: resp.StatusCode, Message: message}
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		if message == "" {
			message = fmt.Sprintf("HTTP error! status: %d", resp.StatusCode)
		}
		return &Error{Kind: KindAPI, Op: op, Status: resp.StatusCode, Message: message}
	}
	if !env.Success {
		return &Error{Kind: KindAPI, Op: op, Status: resp.StatusCode, Message: message}
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 {
		return &Error{Kind: KindAPI, Op: op, Status: resp.StatusCode, Message: "response carried no data"}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Kind: KindAPI, Op: op, Status: resp.StatusCode, Message: "malformed response data", Err: err}
	}
	return nil
}

func tokenExpiredMessage(message string) bool {
	m := strings.ToLower(message)
	return strings.Contains(m, "token expired") || strings.Contains(m, "jwt expired")
}
