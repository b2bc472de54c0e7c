// Delivery personnel pools for fulfillment matching.
package matching

import "foodbridge/internal/types"

// Courier is an independent delivery worker on the marketplace-wide pool.
type Courier struct {
	ID               types.ID
	Name             string
	IdentityVerified bool
	// Areas is the courier's operating-area list, free-form location strings.
	Areas  []string
	Active bool
}

// Volunteer delivers donations for its own charity organization only.
type Volunteer struct {
	ID     types.ID
	OrgID  types.ID
	Name   string
	Active bool
}
