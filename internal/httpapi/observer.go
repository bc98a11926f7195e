package httpapi

import (
	"context"
	"time"

	"github.com/shipdesk/intake/internal/events"
	"github.com/shipdesk/intake/internal/store"
	"github.com/shipdesk/intake/pkg/models"
	"github.com/sirupsen/logrus"
)

// BookingStore is the subset of *store.Store the observer writes to.
type BookingStore interface {
	SaveQuoteSnapshot(ctx context.Context, sessionID string, req models.RateRequest, result models.RateResult) error
	SaveBooking(ctx context.Context, b store.Booking) error
}

// QuoteCache is the subset of *cache.QuoteCache the observer writes to.
type QuoteCache interface {
	Set(ctx context.Context, sessionID string, result models.RateResult) error
	Delete(ctx context.Context, sessionID string) error
}

// BookingPublisher is satisfied by *events.KafkaProducer.
type BookingPublisher interface {
	PublishShipmentBooked(event events.ShipmentBookedEvent) error
}

// BookingBroadcaster is satisfied by *ws.Hub.
type BookingBroadcaster interface {
	ShipmentBooked(conf models.OrderConfirmation)
}

// SideEffects fans workflow transitions out to persistence, cache, Kafka and
// WebSocket clients. Every component is optional; failures are logged and
// never surface to the user flow.
type SideEffects struct {
	Store     BookingStore
	Cache     QuoteCache
	Publisher BookingPublisher
	Hub       BookingBroadcaster
	Logger    *logrus.Logger
	Timeout   time.Duration
}

func (s *SideEffects) ctx() (context.Context, context.CancelFunc) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

func (s *SideEffects) QuoteReceived(sessionID string, req models.RateRequest, result models.RateResult) {
	ctx, cancel := s.ctx()
	defer cancel()

	if s.Store != nil {
		if err := s.Store.SaveQuoteSnapshot(ctx, sessionID, req, result); err != nil {
			s.Logger.WithError(err).Error("Failed to save quote snapshot")
		}
	}
	if s.Cache != nil {
		if err := s.Cache.Set(ctx, sessionID, result); err != nil {
			s.Logger.WithError(err).Warn("Failed to cache quote result")
		}
	}
}

func (s *SideEffects) OrderBooked(sessionID string, req models.OrderRequest, conf models.OrderConfirmation) {
	ctx, cancel := s.ctx()
	defer cancel()

	// The collaborator timestamps the confirmation; fall back to our clock
	// when it does not.
	bookedAt := time.Now().UTC()
	if t, err := time.Parse(time.RFC3339, conf.CreatedAt); err == nil {
		bookedAt = t
	}

	if s.Store != nil {
		booking := store.Booking{
			OrderID:            conf.OrderID,
			AWB:                conf.AWB,
			SessionID:          sessionID,
			Carrier:            req.Carrier.Name,
			Cost:               req.Carrier.Cost,
			Currency:           req.Carrier.Currency,
			ChargeableWeight:   req.ActualWeight,
			ShipmentValue:      req.ShipmentValue,
			PickupCountry:      req.PickupCountry,
			DestinationCountry: req.DestinationCountry,
			CreatedAt:          bookedAt,
		}
		if err := s.Store.SaveBooking(ctx, booking); err != nil {
			s.Logger.WithError(err).Error("Failed to save booking")
		}
	}

	if s.Publisher != nil {
		event := events.ShipmentBookedEvent{
			OrderID:            conf.OrderID,
			AWB:                conf.AWB,
			SessionID:          sessionID,
			Carrier:            req.Carrier.Name,
			Cost:               req.Carrier.Cost,
			Currency:           req.Carrier.Currency,
			ChargeableWeight:   req.ActualWeight,
			ShipmentValue:      req.ShipmentValue,
			PickupCountry:      req.PickupCountry,
			DestinationCountry: req.DestinationCountry,
			BookedAt:           bookedAt,
		}
		if err := s.Publisher.PublishShipmentBooked(event); err != nil {
			s.Logger.WithError(err).Error("Failed to publish shipment booked event")
		}
	}

	if s.Hub != nil {
		s.Hub.ShipmentBooked(conf)
	}

	if s.Cache != nil {
		if err := s.Cache.Delete(ctx, sessionID); err != nil {
			s.Logger.WithError(err).Warn("Failed to drop cached quotes after booking")
		}
	}
}
