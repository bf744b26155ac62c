package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConsumer(t *testing.T) {
	consumer := NewConsumer([]string{"localhost:9092"}, "notifications", "booking-events")
	assert.NotNil(t, consumer)
	assert.NotNil(t, consumer.reader)
	assert.NoError(t, consumer.Close())
}

func TestNewProducer(t *testing.T) {
	producer := NewProducer([]string{"localhost:9092"})
	assert.NotNil(t, producer)
	assert.NoError(t, producer.Close())
}

// The consumer decodes what the producer publishes: the worker depends on
// these exact field names on the wire.
func TestBookingEvent_WireFormat(t *testing.T) {
	published := BookingEvent{
		Type:        "booking_confirmed",
		BookingCode: "BK-7KQ2MD",
		FlightID:    4,
		SeatNumber:  "12C",
		UserID:      9,
		Passenger:   "Ada Bell",
		Status:      "CONFIRMED",
		AmountCents: 15000,
		OccurredAt:  time.Date(2026, 10, 2, 9, 30, 0, 0, time.UTC),
	}

	data, err := json.Marshal(published)
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"booking_code":"BK-7KQ2MD"`)
	assert.Contains(t, string(data), `"type":"booking_confirmed"`)

	var received BookingEvent
	assert.NoError(t, json.Unmarshal(data, &received))
	assert.Equal(t, published, received)
}
