package kafka

import (
	"resort-booking/internal/booking"
	"resort-booking/internal/config"
	"resort-booking/internal/models"
)

// Wire carries messages to the broker; satisfied by the shared producer
// in internal/kafka.
type Wire interface {
	Publish(topic string, key string, value []byte) error
}

// Producer publishes typed booking lifecycle events. It implements both
// booking.Publisher and booking.ReleasePublisher.
type Producer struct {
	Wire   Wire
	Topics config.TopicConfig
}

func NewProducer(wire Wire, topics config.TopicConfig) *Producer {
	return &Producer{Wire: wire, Topics: topics}
}

func (p *Producer) publish(topic, eventType string, b models.Booking) error {
	payload, err := booking.MarshalEvent(eventType, b)
	if err != nil {
		return err
	}
	return p.Wire.Publish(topic, b.BookingID, payload)
}

func (p *Producer) PublishBookingCreated(b models.Booking) error {
	return p.publish(p.Topics.BookingCreated, "booking.created", b)
}

func (p *Producer) PublishBookingConfirmed(b models.Booking) error {
	return p.publish(p.Topics.BookingConfirmed, "booking.confirmed", b)
}

func (p *Producer) PublishBookingCancelled(b models.Booking) error {
	return p.publish(p.Topics.BookingCancelled, "booking.cancelled", b)
}

func (p *Producer) PublishBookingReleased(b models.Booking) error {
	return p.publish(p.Topics.BookingReleased, "booking.released", b)
}
