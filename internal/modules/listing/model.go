// Listing aggregate and status definitions.
package listing

import (
	"time"

	"foodbridge/internal/types"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusClaimed Status = "claimed"
	StatusSold    Status = "sold"
	StatusExpired Status = "expired"
	StatusRemoved Status = "removed"
)

type Listing struct {
	ID             types.ID
	OwnerID        types.ID
	Title          string
	Description    string
	FoodType       string
	CookedAt       time.Time
	PickupStart    time.Time
	PickupEnd      *time.Time
	PickupLocation string
	IsDonation     bool
	// BasePrice is nil for donation listings.
	BasePrice     *types.Money
	Status        Status
	StatusVersion int
	ImageRef      string
	CreatedAt     time.Time
}

// IsExpired reports whether the pickup window has lapsed. Expiry is derived at
// read time; no background job rewrites the stored status.
func (l *Listing) IsExpired(now time.Time) bool {
	return l.PickupEnd != nil && now.After(*l.PickupEnd)
}

// EffectiveStatus folds lazy expiry into the stored status.
func (l *Listing) EffectiveStatus(now time.Time) Status {
	if l.Status == StatusActive && l.IsExpired(now) {
		return StatusExpired
	}
	return l.Status
}
