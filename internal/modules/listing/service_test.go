package listing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"foodbridge/internal/types"
)

type memRepo struct {
	mu sync.Mutex
	m  map[types.ID]*Listing
}

func newMemRepo() *memRepo {
	return &memRepo{m: map[types.ID]*Listing{}}
}

func (r *memRepo) Create(ctx context.Context, l *Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *l
	r.m[l.ID] = &cp
	return nil
}

func (r *memRepo) Get(ctx context.Context, id types.ID) (*Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.m[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *memRepo) ListActive(ctx context.Context) ([]*Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Listing
	for _, l := range r.m {
		if l.Status == StatusActive {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) Transition(ctx context.Context, id types.ID, fromExpected *Status, to Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.m[id]
	if !ok {
		return ErrNotFound
	}
	if fromExpected != nil && l.Status != *fromExpected {
		return ErrConflict
	}
	l.Status = to
	l.StatusVersion++
	return nil
}

// flatQuoter returns the base price unchanged; decay behavior is covered by the
// pricing package's own tests.
type flatQuoter struct{}

func (flatQuoter) Quote(base types.Money, cookedAt time.Time, windowStart time.Time, windowEnd *time.Time, now time.Time) types.Money {
	return base
}

func newTestService(repo Repository) *Service {
	return NewService(repo, flatQuoter{}, zap.NewNop())
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(newMemRepo())
	ctx := context.Background()
	now := time.Now()
	end := now.Add(2 * time.Hour)
	price := &types.Money{Amount: 5000, Currency: "USD"}

	cases := []struct {
		name string
		cmd  CreateCommand
		ok   bool
	}{
		{"valid sale", CreateCommand{OwnerID: "s1", Title: "Soup", CookedAt: now, PickupStart: now, PickupEnd: &end, BasePrice: price}, true},
		{"valid donation", CreateCommand{OwnerID: "s1", Title: "Bread", CookedAt: now, PickupStart: now, PickupEnd: &end, IsDonation: true}, true},
		{"missing title", CreateCommand{OwnerID: "s1", CookedAt: now, PickupStart: now, BasePrice: price}, false},
		{"missing owner", CreateCommand{Title: "Soup", CookedAt: now, PickupStart: now, BasePrice: price}, false},
		{"donation with price", CreateCommand{OwnerID: "s1", Title: "Bread", CookedAt: now, PickupStart: now, IsDonation: true, BasePrice: price}, false},
		{"sale without price", CreateCommand{OwnerID: "s1", Title: "Soup", CookedAt: now, PickupStart: now}, false},
		{"sale with zero price", CreateCommand{OwnerID: "s1", Title: "Soup", CookedAt: now, PickupStart: now, BasePrice: &types.Money{Amount: 0}}, false},
		{"window ends before start", CreateCommand{OwnerID: "s1", Title: "Soup", CookedAt: now, PickupStart: end, PickupEnd: &now, BasePrice: price}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := svc.Create(ctx, c.cmd)
			if c.ok && err != nil {
				t.Fatalf("create: %v", err)
			}
			if !c.ok && !errors.Is(err, ErrBadRequest) {
				t.Fatalf("err = %v, want ErrBadRequest", err)
			}
		})
	}
}

func TestGetDerivesExpiredStatus(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	repo.Create(ctx, &Listing{
		ID: "l1", OwnerID: "s1", Title: "Old soup",
		CookedAt:    past.Add(-time.Hour),
		PickupStart: past.Add(-time.Hour),
		PickupEnd:   &past,
		BasePrice:   &types.Money{Amount: 4000, Currency: "USD"},
		Status:      StatusActive,
	})

	v, err := svc.Get(ctx, "l1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if v.Status != StatusExpired {
		t.Errorf("effective status = %s, want expired", v.Status)
	}
	// The stored row keeps its original status.
	stored, _ := repo.Get(ctx, "l1")
	if stored.Status != StatusActive {
		t.Errorf("stored status = %s, expiry must not be written back", stored.Status)
	}
}

func TestListActiveFiltersLapsedWindows(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	now := time.Now()
	fresh := now.Add(2 * time.Hour)
	stale := now.Add(-time.Minute)
	repo.Create(ctx, &Listing{ID: "fresh", OwnerID: "s1", Title: "Fresh", CookedAt: now, PickupStart: now, PickupEnd: &fresh, IsDonation: true, Status: StatusActive})
	repo.Create(ctx, &Listing{ID: "stale", OwnerID: "s1", Title: "Stale", CookedAt: now, PickupStart: now, PickupEnd: &stale, IsDonation: true, Status: StatusActive})
	repo.Create(ctx, &Listing{ID: "claimed", OwnerID: "s1", Title: "Claimed", CookedAt: now, PickupStart: now, PickupEnd: &fresh, IsDonation: true, Status: StatusClaimed})

	views, err := svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(views) != 1 || views[0].Listing.ID != "fresh" {
		t.Fatalf("got %d views, want only the fresh listing", len(views))
	}
}

func TestRemoveOwnerOnly(t *testing.T) {
	repo := newMemRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	id, err := svc.Create(ctx, CreateCommand{
		OwnerID: "s1", Title: "Soup", CookedAt: time.Now(), PickupStart: time.Now(),
		BasePrice: &types.Money{Amount: 3000, Currency: "USD"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Remove(ctx, "intruder", id); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("stranger remove: err = %v, want ErrUnauthorized", err)
	}
	if err := svc.Remove(ctx, "s1", id); err != nil {
		t.Fatalf("owner remove: %v", err)
	}
	stored, _ := repo.Get(ctx, id)
	if stored.Status != StatusRemoved {
		t.Errorf("status = %s, want removed", stored.Status)
	}
}
