package events

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

const (
	ShipmentBookedTopic = "shipment.booked"
)

// ShipmentBookedEvent is published once per confirmed order so downstream
// services (billing, tracking, the back-office feed) learn about the booking.
type ShipmentBookedEvent struct {
	OrderID            string    `json:"order_id"`
	AWB                string    `json:"awb"`
	SessionID          string    `json:"session_id"`
	Carrier            string    `json:"carrier"`
	Cost               float64   `json:"cost"`
	Currency           string    `json:"currency"`
	ChargeableWeight   float64   `json:"chargeable_weight"`
	ShipmentValue      float64   `json:"shipment_value"`
	PickupCountry      string    `json:"pickup_country"`
	DestinationCountry string    `json:"destination_country"`
	BookedAt           time.Time `json:"booked_at"`
	EventTime          time.Time `json:"event_time"`
}

type KafkaProducer struct {
	producer sarama.SyncProducer
	logger   *logrus.Logger
}

func NewKafkaProducer(brokers string, logger *logrus.Logger) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Version = sarama.V2_6_0_0

	producer, err := sarama.NewSyncProducer(strings.Split(brokers, ","), config)
	if err != nil {
		return nil, err
	}

	return &KafkaProducer{
		producer: producer,
		logger:   logger,
	}, nil
}

func (p *KafkaProducer) PublishShipmentBooked(event ShipmentBookedEvent) error {
	event.EventTime = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: ShipmentBookedTopic,
		Key:   sarama.StringEncoder(event.OrderID),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.WithError(err).Error("Failed to send message to Kafka")
		return err
	}

	p.logger.WithFields(logrus.Fields{
		"topic":     ShipmentBookedTopic,
		"partition": partition,
		"offset":    offset,
		"order_id":  event.OrderID,
		"carrier":   event.Carrier,
	}).Info("Shipment booked event published")

	return nil
}

func (p *KafkaProducer) Close() error {
	return p.producer.Close()
}
