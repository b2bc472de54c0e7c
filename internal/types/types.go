// Common value objects shared across modules.
package types

import "github.com/google/uuid"

type ID string

// NewID returns a random row identifier.
func NewID() ID {
	return ID(uuid.NewString())
}

// Money is an amount in minor units (cents).
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}
