// Pricing service computes the time-decayed display price for non-donation
// listings. Pure function of its inputs; the result is never persisted.
package pricing

import (
	"time"

	"foodbridge/internal/config"
	"foodbridge/internal/types"
)

type Service struct {
	cfg config.PricingConfig
}

func NewService(cfg config.PricingConfig) *Service {
	return &Service{cfg: cfg}
}

// Quote returns the current price for a listing with the given base price.
// Inside the pickup window and within the freshness window of cookedAt, the
// price decays linearly with hours since cooking and is floored at
// base × (1 − MaxDiscount). Outside either window the base price applies
// unmodified: discount eligibility lapses, the price does not change.
func (s *Service) Quote(base types.Money, cookedAt time.Time, windowStart time.Time, windowEnd *time.Time, now time.Time) types.Money {
	if base.Amount <= 0 {
		return base
	}
	if now.Before(windowStart) {
		return base
	}
	if windowEnd != nil && now.After(*windowEnd) {
		return base
	}
	sinceCooked := now.Sub(cookedAt)
	if sinceCooked < 0 || sinceCooked > s.cfg.FreshnessWindow {
		return base
	}

	hours := sinceCooked.Hours()
	discount := int64(hours * s.cfg.HourlyRate * float64(base.Amount))
	maxDiscount := int64(s.cfg.MaxDiscount * float64(base.Amount))
	if discount > maxDiscount {
		discount = maxDiscount
	}

	current := base.Amount - discount
	if floor := base.Amount - maxDiscount; current < floor {
		current = floor
	}
	return types.Money{Amount: current, Currency: base.Currency}
}
