// In-memory fakes implementing the service's injected interfaces, so the
// state machine is tested without a database.
package fulfillment

import (
	"context"
	"sync"
	"time"

	"foodbridge/internal/modules/identity"
	"foodbridge/internal/modules/listing"
	"foodbridge/internal/modules/notify"
	"foodbridge/internal/types"
)

type memListings struct {
	mu sync.Mutex
	m  map[types.ID]*listing.Listing
}

func newMemListings() *memListings {
	return &memListings{m: map[types.ID]*listing.Listing{}}
}

func (s *memListings) add(l *listing.Listing) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *l
	s.m[l.ID] = &cp
}

func (s *memListings) Get(ctx context.Context, id types.ID) (*listing.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.m[id]
	if !ok {
		return nil, listing.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *memListings) status(id types.ID) listing.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.m[id]; ok {
		return l.Status
	}
	return ""
}

func (s *memListings) transition(id types.ID, from *listing.Status, to listing.Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.m[id]
	if !ok {
		return false
	}
	if from != nil && l.Status != *from {
		return false
	}
	l.Status = to
	l.StatusVersion++
	return true
}

type memStore struct {
	mu           sync.Mutex
	fulfillments map[types.ID]*Fulfillment
	deliveries   map[types.ID]*Delivery
	events       []*StateEvent
	listings     *memListings
}

func newMemStore(listings *memListings) *memStore {
	return &memStore{
		fulfillments: map[types.ID]*Fulfillment{},
		deliveries:   map[types.ID]*Delivery{},
		listings:     listings,
	}
}

func (s *memStore) CreateClaimed(ctx context.Context, f *Fulfillment, d *Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	active := listing.StatusActive
	if !s.listings.transition(f.ListingID, &active, listing.StatusClaimed) {
		return ErrListingUnavailable
	}
	cf := *f
	s.fulfillments[f.ID] = &cf
	if d != nil {
		cd := *d
		s.deliveries[f.ID] = &cd
	}
	return nil
}

func (s *memStore) Get(ctx context.Context, id types.ID) (*Fulfillment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fulfillments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *memStore) GetDelivery(ctx context.Context, fulfillmentID types.ID) (*Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deliveries[fulfillmentID]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (s *memStore) Apply(ctx context.Context, m Mutation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fulfillments[m.FulfillmentID]
	if !ok {
		return false, nil
	}
	if f.Status != m.FromStatus || f.StatusVersion != m.StatusVersion {
		return false, nil
	}
	if m.Listing != nil {
		if m.Listing.FromExpected != nil && s.listings.status(m.Listing.ID) != *m.Listing.FromExpected {
			return false, nil
		}
	}

	f.Status = m.ToStatus
	f.StatusVersion++
	if m.SetPayment != nil {
		f.PaymentStatus = *m.SetPayment
	}
	if m.CancelReason != nil {
		f.CancelReason = m.CancelReason
	}
	now := time.Now()
	switch m.ToStatus {
	case StatusConfirmed:
		f.ConfirmedAt = &now
	case StatusCompleted:
		f.CompletedAt = &now
	case StatusCancelled:
		f.CancelledAt = &now
	}
	if m.Delivery != nil {
		if d, ok := s.deliveries[m.FulfillmentID]; ok {
			d.Status = m.Delivery.To
			if m.Delivery.Reason != nil {
				d.Reason = m.Delivery.Reason
			}
		}
	}
	if m.Listing != nil {
		s.listings.transition(m.Listing.ID, m.Listing.FromExpected, m.Listing.To)
	}
	return true, nil
}

func (s *memStore) AppendEvent(ctx context.Context, e *StateEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

type memDirectory struct {
	users map[types.ID]*identity.User
}

func (d *memDirectory) Get(ctx context.Context, id types.ID) (*identity.User, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, identity.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeMatcher struct {
	courier     types.ID
	courierOK   bool
	volunteer   types.ID
	volunteerOK bool
}

func (m *fakeMatcher) MatchCourier(ctx context.Context, pickupLocation string) (types.ID, bool, error) {
	return m.courier, m.courierOK, nil
}

func (m *fakeMatcher) MatchVolunteer(ctx context.Context, orgID types.ID) (types.ID, bool, error) {
	return m.volunteer, m.volunteerOK, nil
}

type captureDispatcher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (d *captureDispatcher) Dispatch(ctx context.Context, events []notify.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, events...)
}

func (d *captureDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.events)
}
