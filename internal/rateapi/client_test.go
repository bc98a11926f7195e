package rateapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shipdesk/intake/internal/session"
	"github.com/shipdesk/intake/pkg/models"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestCalculateRateSuccess(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/calculate-rate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"data": {
				"quotes": [
					{"carrier": "DHL Express", "cost": 750.5, "currency": "AED", "estimatedDelivery": "2-3 days"}
				]
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, testLogger())
	sess := session.FromToken("opaque-token")

	result, err := client.CalculateRate(context.Background(), sess, models.RateRequest{PickupCountry: "UAE"})
	if err != nil {
		t.Fatalf("CalculateRate: %v", err)
	}
	if len(result.Quotes) != 1 || result.Quotes[0].Carrier != "DHL Express" {
		t.Errorf("quotes = %+v", result.Quotes)
	}
	if gotAuth != "Bearer opaque-token" {
		t.Errorf("Authorization = %q, expected bearer token", gotAuth)
	}
}

func TestUnauthorizedClassifiedAsAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success": false, "error": "unauthorized"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, testLogger())
	_, err := client.CalculateRate(context.Background(), session.FromToken("t"), models.RateRequest{})
	if !IsAuth(err) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestTokenExpiredMessageClassifiedAsAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"success": false, "error": "jwt expired"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, testLogger())
	_, err := client.CalculateRate(context.Background(), session.FromToken("t"), models.RateRequest{})
	if !IsAuth(err) {
		t.Fatalf("expected auth error for expired-token message, got %v", err)
	}
}

func TestRejectionClassifiedAsAPI(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "success_false", body: `{"success": false, "message": "No rates for route"}`, code: http.StatusOK},
		{name: "server_error", body: `{"success": false, "error": "boom"}`, code: http.StatusInternalServerError},
		{name: "malformed_json", body: `{not json`, code: http.StatusOK},
		{name: "missing_data", body: `{"success": true}`, code: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL, 5*time.Second, testLogger())
			_, err := client.CalculateRate(context.Background(), session.FromToken("t"), models.RateRequest{})
			if !IsAPI(err) {
				t.Fatalf("expected API error, got %v", err)
			}
		})
	}
}

func TestConnectionFailureClassifiedAsNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listening anymore

	client := NewClient(server.URL, time.Second, testLogger())
	_, err := client.CalculateRate(context.Background(), session.FromToken("t"), models.RateRequest{})
	if !IsNetwork(err) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestAPIErrorMessageSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "error": "No rates available for this route"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, testLogger())
	_, err := client.CalculateRate(context.Background(), session.FromToken("t"), models.RateRequest{})

	apiErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %T", err)
	}
	if apiErr.UserMessage() != "No rates available for this route" {
		t.Errorf("UserMessage() = %q", apiErr.UserMessage())
	}
}

func TestLoginBuildsSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"success": true,
			"data": {
				"token": "opaque-session-token",
				"user": {"id": "u1", "name": "Ayesha", "email": "ayesha@example.com"}
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, testLogger())
	sess, err := client.Login(context.Background(), "ayesha@example.com", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Token != "opaque-session-token" || sess.Name != "Ayesha" || sess.UserID != "u1" {
		t.Errorf("session = %+v", sess)
	}
}

func TestGetNotifications(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"success": true,
			"data": [
				{"id": "n1", "type": "billing_upload", "billingType": "invoice"},
				{"id": "n2", "type": "ticket_message", "ticketNumber": "T-42"}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second, testLogger())
	items, err := client.GetNotifications(context.Background(), session.FromToken("t"))
	if err != nil {
		t.Fatalf("GetNotifications: %v", err)
	}
	if len(items) != 2 || items[0].Type != models.NotificationBillingUpload {
		t.Errorf("items = %+v", items)
	}
}
