// Notification events emitted by the fulfillment engine. Dispatch is
// fire-and-forget: a failed notification never fails a business transition.
package notify

import "foodbridge/internal/types"

type EventType string

const (
	EventOrderCreated      EventType = "order_created"
	EventClaimCreated      EventType = "claim_created"
	EventDeliveryAssigned  EventType = "delivery_assigned"
	EventPickupAuthorized  EventType = "pickup_authorized"
	EventDeliveryCompleted EventType = "delivery_completed"
	EventDeliveryFailed    EventType = "delivery_failed"
	EventCancelled         EventType = "fulfillment_cancelled"
)

type Event struct {
	RecipientID types.ID  `json:"recipient_id"`
	Type        EventType `json:"type"`
	Message     string    `json:"message"`
	ReferenceID types.ID  `json:"reference_id"`
}
