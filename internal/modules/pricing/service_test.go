package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"foodbridge/internal/types"
)

func TestQuoteDecay(t *testing.T) {
	svc := NewService(DefaultConfig())

	// Cooked at T, price 100.00, pickup window [T+1h, T+5h].
	cooked := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	start := cooked.Add(1 * time.Hour)
	end := cooked.Add(5 * time.Hour)
	base := types.Money{Amount: 10000, Currency: "USD"}

	tests := []struct {
		name string
		now  time.Time
		end  *time.Time
		want int64
	}{
		{"before window opens", cooked.Add(30 * time.Minute), &end, 10000},
		{"window start, 1h since cooked", start, &end, 9500},
		{"2h since cooked", cooked.Add(2 * time.Hour), &end, 9000},
		{"window end, 5h since cooked", end, &end, 7500},
		{"after window closes", cooked.Add(6 * time.Hour), &end, 10000},
		{"no window end, 10h -> floor", cooked.Add(10 * time.Hour), nil, 5000},
		{"no window end, 20h -> still floor", cooked.Add(20 * time.Hour), nil, 5000},
		{"past 24h, discount lapses even inside window", cooked.Add(26 * time.Hour), nil, 10000},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := svc.Quote(base, cooked, start, tc.end, tc.now)
			assert.Equal(t, tc.want, got.Amount)
			assert.Equal(t, "USD", got.Currency)
		})
	}
}

func TestQuoteBounds(t *testing.T) {
	svc := NewService(DefaultConfig())

	cooked := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	start := cooked
	base := types.Money{Amount: 7777, Currency: "USD"}

	// Sweep the freshness window: the quote never exceeds the base price and
	// never drops below half of it.
	for h := 0; h <= 24; h++ {
		now := cooked.Add(time.Duration(h) * time.Hour)
		got := svc.Quote(base, cooked, start, nil, now)
		assert.LessOrEqual(t, got.Amount, base.Amount, "hour %d", h)
		assert.GreaterOrEqual(t, got.Amount, base.Amount-int64(0.5*float64(base.Amount)), "hour %d", h)
	}
}

func TestQuoteDegenerateInputs(t *testing.T) {
	svc := NewService(DefaultConfig())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Non-positive base is returned untouched.
	got := svc.Quote(types.Money{Amount: 0, Currency: "USD"}, now, now, nil, now)
	assert.Equal(t, int64(0), got.Amount)

	// Cooked in the future: no discount.
	got = svc.Quote(types.Money{Amount: 1000, Currency: "USD"}, now.Add(time.Hour), now, nil, now)
	assert.Equal(t, int64(1000), got.Amount)
}
