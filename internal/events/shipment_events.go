package events

import "time"

const (
	shipmentStatusUpdatedEventName    = "ShipmentStatusUpdated"
	shipmentStatusUpdatedEventVersion = 1
)

// ShipmentStatusUpdatedPayload is published by the fulfillment side when a
// parcel changes state. Status uses the order status vocabulary.
type ShipmentStatusUpdatedPayload struct {
	OrderID    string    `json:"orderId"`
	Status     string    `json:"status"`
	TrackingID string    `json:"trackingId,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type ShipmentStatusUpdatedEnvelope = EventEnvelope[ShipmentStatusUpdatedPayload]
