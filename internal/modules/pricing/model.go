// Pricing parameters for time-decayed discounts.
package pricing

import (
	"time"

	"foodbridge/internal/config"
)

// DefaultConfig mirrors the production defaults: 5% of the base price per hour
// since cooking, capped at half the base price, eligible for 24 hours.
func DefaultConfig() config.PricingConfig {
	return config.PricingConfig{
		HourlyRate:      0.05,
		MaxDiscount:     0.5,
		FreshnessWindow: 24 * time.Hour,
	}
}
