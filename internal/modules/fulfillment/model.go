// Fulfillment aggregate: one state machine for purchases and donation claims,
// parameterized by kind, plus the delivery task attached to home-delivery
// fulfillments.
package fulfillment

import (
	"time"

	"foodbridge/internal/types"
)

type Kind string

const (
	KindPurchase Kind = "purchase"
	KindDonation Kind = "donation"
)

type Status string

const (
	StatusNone      Status = "none"
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

type DeliveryType string

const (
	SelfPickup   DeliveryType = "self_pickup"
	HomeDelivery DeliveryType = "home_delivery"
)

type PersonnelType string

const (
	PersonnelIndependent  PersonnelType = "independent"
	PersonnelOrgVolunteer PersonnelType = "org_volunteer"
)

type DeliveryStatus string

const (
	DeliveryScheduled DeliveryStatus = "scheduled"
	DeliveryInTransit DeliveryStatus = "in_transit"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

type Fulfillment struct {
	ID      types.ID
	Kind    Kind
	ListingID types.ID
	// OwnerID is the listing's seller (purchase) or donor (donation).
	OwnerID types.ID
	// ActorID is the buyer (purchase) or the claiming charity (donation).
	ActorID         types.ID
	Status          Status
	StatusVersion   int
	DeliveryType    DeliveryType
	DeliveryAddress string
	// FinalPrice is fixed at creation time; the listing's displayed price keeps
	// decaying independently. Nil for donations.
	FinalPrice  *types.Money
	DeliveryFee *types.Money
	// PaymentStatus is a recorded field, not a processor integration. Empty for
	// donations.
	PaymentStatus PaymentStatus
	// PickupCode is minted once at creation and never regenerated.
	PickupCode   string
	Notes        string
	CreatedAt    time.Time
	ConfirmedAt  *time.Time
	CompletedAt  *time.Time
	CancelledAt  *time.Time
	CancelReason *string
}

// Delivery is the physical-transfer task attached to exactly one fulfillment.
// Created only for home delivery.
type Delivery struct {
	ID            types.ID
	FulfillmentID types.ID
	PersonnelType PersonnelType
	ActorID       types.ID
	Status        DeliveryStatus
	Reason        *string
	CreatedAt     time.Time
}

// StateEvent is an audit row appended best-effort after each transition.
type StateEvent struct {
	ID            int64
	FulfillmentID types.ID
	FromStatus    Status
	ToStatus      Status
	ActorType     string
	ActorID       *types.ID
	CreatedAt     time.Time
}

// AllowedTransitions is the shared state flow for both kinds. confirmed →
// pending exists only for the donation delivery-failure revert; the purchase
// policy never takes it.
var AllowedTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCompleted, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusPending},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
