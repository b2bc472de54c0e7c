// Listing service: creation, priced reads, owner removal. Current price and
// expiry are derived on every read, never persisted.
package listing

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"foodbridge/internal/types"
)

var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("not the listing owner")
)

// Quoter computes the time-decayed display price for non-donation listings.
type Quoter interface {
	Quote(base types.Money, cookedAt time.Time, windowStart time.Time, windowEnd *time.Time, now time.Time) types.Money
}

type Service struct {
	repo   Repository
	quoter Quoter
	log    *zap.Logger
}

func NewService(repo Repository, quoter Quoter, log *zap.Logger) *Service {
	return &Service{repo: repo, quoter: quoter, log: log}
}

type CreateCommand struct {
	OwnerID        types.ID
	Title          string
	Description    string
	FoodType       string
	CookedAt       time.Time
	PickupStart    time.Time
	PickupEnd      *time.Time
	PickupLocation string
	IsDonation     bool
	BasePrice      *types.Money
	ImageRef       string
}

// View is a listing as shown to readers: stored fields plus the derived
// current price and effective status.
type View struct {
	Listing      *Listing
	Status       Status
	CurrentPrice *types.Money
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (types.ID, error) {
	if cmd.OwnerID == "" || cmd.Title == "" {
		return "", ErrBadRequest
	}
	if cmd.IsDonation && cmd.BasePrice != nil {
		return "", ErrBadRequest
	}
	if !cmd.IsDonation && (cmd.BasePrice == nil || cmd.BasePrice.Amount <= 0) {
		return "", ErrBadRequest
	}
	if cmd.PickupEnd != nil && !cmd.PickupEnd.After(cmd.PickupStart) {
		return "", ErrBadRequest
	}

	l := &Listing{
		ID:             types.NewID(),
		OwnerID:        cmd.OwnerID,
		Title:          cmd.Title,
		Description:    cmd.Description,
		FoodType:       cmd.FoodType,
		CookedAt:       cmd.CookedAt,
		PickupStart:    cmd.PickupStart,
		PickupEnd:      cmd.PickupEnd,
		PickupLocation: cmd.PickupLocation,
		IsDonation:     cmd.IsDonation,
		BasePrice:      cmd.BasePrice,
		Status:         StatusActive,
		StatusVersion:  0,
		ImageRef:       cmd.ImageRef,
		CreatedAt:      time.Now(),
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return "", err
	}
	s.log.Info("listing created",
		zap.String("listing_id", string(l.ID)),
		zap.Bool("donation", l.IsDonation))
	return l.ID, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*View, error) {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(l, time.Now()), nil
}

func (s *Service) ListActive(ctx context.Context) ([]*View, error) {
	ls, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	out := make([]*View, 0, len(ls))
	for _, l := range ls {
		// Lapsed windows are filtered here rather than rewritten in storage.
		if l.IsExpired(now) {
			continue
		}
		out = append(out, s.view(l, now))
	}
	return out, nil
}

// Remove marks a listing removed by its owner. Moderation removal goes through
// the same transition with an admin actor upstream.
func (s *Service) Remove(ctx context.Context, actorID, id types.ID) error {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if l.OwnerID != actorID {
		return ErrUnauthorized
	}
	return s.repo.Transition(ctx, id, nil, StatusRemoved)
}

func (s *Service) view(l *Listing, now time.Time) *View {
	v := &View{Listing: l, Status: l.EffectiveStatus(now)}
	if !l.IsDonation && l.BasePrice != nil {
		p := s.quoter.Quote(*l.BasePrice, l.CookedAt, l.PickupStart, l.PickupEnd, now)
		v.CurrentPrice = &p
	}
	return v
}
