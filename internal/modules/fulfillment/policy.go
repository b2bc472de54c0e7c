package fulfillment

import "foodbridge/internal/modules/identity"

// kindPolicy bundles the per-kind hooks of the state machine. Everything that
// differs between a purchase and a donation claim lives here; the operations
// in service.go are shared.
type kindPolicy struct {
	// actorRole is required of the creating actor.
	actorRole identity.Role
	// requireVerifiedActor demands IsDocVerifiedByAdmin on the creator.
	requireVerifiedActor bool
	// listingDonation is the required donation flag on the target listing.
	listingDonation bool
	// priced fulfillments carry a final price and a payment status.
	priced bool
	// personnel is the delivery pool the kind draws from.
	personnel PersonnelType
	// revertOnDeliveryFailure sends the fulfillment back to pending when the
	// delivery actor reports failure; otherwise the status is left unchanged.
	revertOnDeliveryFailure bool
	// sellListingOnComplete moves the listing to sold when the fulfillment
	// completes; donated listings stay claimed.
	sellListingOnComplete bool
	// cancelWhilePendingOnly forbids cancellation after confirmation. When
	// false, cancellation is instead guarded by the delivery being in transit
	// or delivered.
	cancelWhilePendingOnly bool
}

var policies = map[Kind]kindPolicy{
	KindPurchase: {
		actorRole:               identity.RoleBuyer,
		requireVerifiedActor:    false,
		listingDonation:         false,
		priced:                  true,
		personnel:               PersonnelIndependent,
		revertOnDeliveryFailure: false,
		sellListingOnComplete:   true,
		cancelWhilePendingOnly:  true,
	},
	KindDonation: {
		actorRole:               identity.RoleCharity,
		requireVerifiedActor:    true,
		listingDonation:         true,
		priced:                  false,
		personnel:               PersonnelOrgVolunteer,
		revertOnDeliveryFailure: true,
		sellListingOnComplete:   false,
		cancelWhilePendingOnly:  false,
	},
}
