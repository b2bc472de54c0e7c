// User directory consumed by the fulfillment engine: roles, verification
// flags, organization membership. Authentication itself is upstream.
package identity

import "foodbridge/internal/types"

type Role string

const (
	RoleBuyer     Role = "buyer"
	RoleSeller    Role = "seller"
	RoleCharity   Role = "charity"
	RoleCourier   Role = "courier"
	RoleVolunteer Role = "volunteer"
)

type User struct {
	ID                   types.ID
	Name                 string
	Role                 Role
	IsDocVerifiedByAdmin bool
	// OrganizationID is set for charity accounts and their volunteers.
	OrganizationID *types.ID
	Active         bool
}
