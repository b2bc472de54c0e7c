// Matching selects an eligible delivery actor for a home-delivery fulfillment.
// At-least-available policy: no load balancing, no distance ranking.
package matching

import (
	"context"
	"math/rand/v2"
	"strings"

	"foodbridge/internal/types"
)

type Pool interface {
	VerifiedCouriers(ctx context.Context) ([]Courier, error)
	ActiveVolunteersByOrg(ctx context.Context, orgID types.ID) ([]Volunteer, error)
}

type Service struct {
	pool Pool
}

func NewService(pool Pool) *Service {
	return &Service{pool: pool}
}

// MatchCourier picks uniformly at random among identity-verified couriers
// whose operating-area list overlaps the pickup location. The second return
// is false when no courier qualifies; callers abort creation on it.
func (s *Service) MatchCourier(ctx context.Context, pickupLocation string) (types.ID, bool, error) {
	couriers, err := s.pool.VerifiedCouriers(ctx)
	if err != nil {
		return "", false, err
	}

	var candidates []types.ID
	for _, c := range couriers {
		for _, area := range c.Areas {
			if areaMatches(area, pickupLocation) {
				candidates = append(candidates, c.ID)
				break
			}
		}
	}
	if len(candidates) == 0 {
		return "", false, nil
	}
	return candidates[rand.IntN(len(candidates))], true, nil
}

// MatchVolunteer returns the first active volunteer of the claimant's own
// organization; donations never draw from the marketplace-wide pool.
func (s *Service) MatchVolunteer(ctx context.Context, orgID types.ID) (types.ID, bool, error) {
	volunteers, err := s.pool.ActiveVolunteersByOrg(ctx, orgID)
	if err != nil {
		return "", false, err
	}
	if len(volunteers) == 0 {
		return "", false, nil
	}
	return volunteers[0].ID, true, nil
}

// areaMatches reports whether the operating area is a case-insensitive
// substring of the pickup location or the other way around.
func areaMatches(area, pickupLocation string) bool {
	a := strings.ToLower(strings.TrimSpace(area))
	p := strings.ToLower(strings.TrimSpace(pickupLocation))
	if a == "" || p == "" {
		return false
	}
	return strings.Contains(p, a) || strings.Contains(a, p)
}
