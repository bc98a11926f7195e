// Package store persists quote snapshots and confirmed bookings in Postgres.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/shipdesk/intake/pkg/models"
	"github.com/sirupsen/logrus"
)

type Store struct {
	db     *sql.DB
	logger *logrus.Logger
}

// QuoteSnapshot is one saved quote round: the request and the full result,
// keyed by session.
type QuoteSnapshot struct {
	ID        int64              `json:"id"`
	SessionID string             `json:"sessionId"`
	Request   models.RateRequest `json:"request"`
	Result    models.RateResult  `json:"result"`
	CreatedAt time.Time          `json:"createdAt"`
}

// Booking is one confirmed order as persisted.
type Booking struct {
	ID                 int64     `json:"id"`
	OrderID            string    `json:"orderId"`
	AWB                string    `json:"awb"`
	SessionID          string    `json:"sessionId"`
	Carrier            string    `json:"carrier"`
	Cost               float64   `json:"cost"`
	Currency           string    `json:"currency"`
	ChargeableWeight   float64   `json:"chargeableWeight"`
	ShipmentValue      float64   `json:"shipmentValue"`
	PickupCountry      string    `json:"pickupCountry"`
	DestinationCountry string    `json:"destinationCountry"`
	CreatedAt          time.Time `json:"createdAt"`
}

func New(dsn string, logger *logrus.Logger) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// WaitReady pings the database until it answers or attempts run out.
func (s *Store) WaitReady(ctx context.Context, attempts int) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = s.db.PingContext(ctx); err == nil {
			s.logger.Info("Database connection established")
			return nil
		}
		s.logger.Info("Waiting for database...")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	return fmt.Errorf("database not ready: %w", err)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveQuoteSnapshot(ctx context.Context, sessionID string, req models.RateRequest, result models.RateResult) error {
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling rate request: %w", err)
	}
	resJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshaling rate result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quote_snapshots (session_id, request, result, created_at)
		VALUES ($1, $2, $3, $4)`,
		sessionID, reqJSON, resJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("inserting quote snapshot: %w", err)
	}

	s.logger.WithField("session_id", sessionID).Info("Quote snapshot saved")
	return nil
}

func (s *Store) SaveBooking(ctx context.Context, b Booking) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookings (order_id, awb, session_id, carrier, cost, currency,
			chargeable_weight, shipment_value, pickup_country, destination_country, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.OrderID, b.AWB, b.SessionID, b.Carrier, b.Cost, b.Currency,
		b.ChargeableWeight, b.ShipmentValue, b.PickupCountry, b.DestinationCountry, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting booking: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": b.OrderID,
		"carrier":  b.Carrier,
	}).Info("Booking saved")
	return nil
}

func (s *Store) ListBookings(ctx context.Context, limit int) ([]Booking, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, awb, session_id, carrier, cost, currency,
			chargeable_weight, shipment_value, pickup_country, destination_country, created_at
		FROM bookings
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying bookings: %w", err)
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.OrderID, &b.AWB, &b.SessionID, &b.Carrier,
			&b.Cost, &b.Currency, &b.ChargeableWeight, &b.ShipmentValue,
			&b.PickupCountry, &b.DestinationCountry, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning booking row: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (s *Store) GetBooking(ctx context.Context, orderID string) (*Booking, error) {
	var b Booking
	err := s.db.QueryRowContext(ctx, `
		SELECT id, order_id, awb, session_id, carrier, cost, currency,
			chargeable_weight, shipment_value, pickup_country, destination_country, created_at
		FROM bookings
		WHERE order_id = $1`, orderID).
		Scan(&b.ID, &b.OrderID, &b.AWB, &b.SessionID, &b.Carrier,
			&b.Cost, &b.Currency, &b.ChargeableWeight, &b.ShipmentValue,
			&b.PickupCountry, &b.DestinationCountry, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
