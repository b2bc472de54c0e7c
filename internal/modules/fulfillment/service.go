// Fulfillment service implements the unified purchase/donation state machine:
// creation, pickup authorization, delivery completion, failure reporting, and
// cancellation. Notifications are emitted only after the transition commits.
package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"foodbridge/internal/metrics"
	"foodbridge/internal/modules/identity"
	"foodbridge/internal/modules/listing"
	"foodbridge/internal/modules/notify"
	"foodbridge/internal/types"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidState = errors.New("invalid state transition")
	ErrUnauthorized = errors.New("actor not authorized for this action")
	ErrNoMatch      = errors.New("no delivery personnel available")
	ErrCodeMismatch = errors.New("pickup code mismatch")
	ErrDomainRule   = errors.New("domain rule violation")
	ErrConflict     = errors.New("state conflict")
)

// Storage is the injected fulfillment store; the pgx Store and the test fake
// both implement it.
type Storage interface {
	CreateClaimed(ctx context.Context, f *Fulfillment, d *Delivery) error
	Get(ctx context.Context, id types.ID) (*Fulfillment, error)
	GetDelivery(ctx context.Context, fulfillmentID types.ID) (*Delivery, error)
	Apply(ctx context.Context, m Mutation) (bool, error)
	AppendEvent(ctx context.Context, e *StateEvent) error
}

type Listings interface {
	Get(ctx context.Context, id types.ID) (*listing.Listing, error)
}

type Directory interface {
	Get(ctx context.Context, id types.ID) (*identity.User, error)
}

type Matcher interface {
	MatchCourier(ctx context.Context, pickupLocation string) (types.ID, bool, error)
	MatchVolunteer(ctx context.Context, orgID types.ID) (types.ID, bool, error)
}

type Quoter interface {
	Quote(base types.Money, cookedAt time.Time, windowStart time.Time, windowEnd *time.Time, now time.Time) types.Money
}

// CacheInvalidator drops cached listing rows after the store mutated a listing
// inside its own transaction. Optional.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, id types.ID)
}

type Deps struct {
	Store      Storage
	Listings   Listings
	Directory  Directory
	Matcher    Matcher
	Quoter     Quoter
	Dispatcher notify.Dispatcher
	Cache      CacheInvalidator
	Log        *zap.Logger
}

type Service struct {
	store      Storage
	listings   Listings
	directory  Directory
	matcher    Matcher
	quoter     Quoter
	dispatcher notify.Dispatcher
	cache      CacheInvalidator
	log        *zap.Logger
}

func NewService(deps Deps) *Service {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:      deps.Store,
		listings:   deps.Listings,
		directory:  deps.Directory,
		matcher:    deps.Matcher,
		quoter:     deps.Quoter,
		dispatcher: deps.Dispatcher,
		cache:      deps.Cache,
		log:        log,
	}
}

type CreateCommand struct {
	Kind            Kind
	ActorID         types.ID
	ListingID       types.ID
	DeliveryType    DeliveryType
	DeliveryAddress string
	// ProposedPrice is accepted as-is when positive; there is no seller
	// counter-approval step.
	ProposedPrice *types.Money
	Notes         string
}

type CreateResult struct {
	ID              types.ID
	Status          Status
	PickupCode      string
	FinalPrice      *types.Money
	DeliveryFee     *types.Money
	DeliveryActorID *types.ID
}

type TransitionResult struct {
	ID             types.ID
	Status         Status
	PaymentStatus  PaymentStatus
	DeliveryStatus *DeliveryStatus
}

// Create validates eligibility and availability, fixes the price (purchase),
// matches a delivery actor (home delivery), mints the pickup code, and commits
// {listing claim, fulfillment, delivery} atomically. Nothing is persisted on
// any validation or matching failure.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*CreateResult, error) {
	pol, ok := policies[cmd.Kind]
	if !ok {
		return nil, opErr("create", ErrDomainRule)
	}
	if cmd.ActorID == "" || cmd.ListingID == "" {
		return nil, opErr("create", ErrDomainRule)
	}
	if cmd.DeliveryType != SelfPickup && cmd.DeliveryType != HomeDelivery {
		return nil, opErr("create", ErrDomainRule)
	}

	actor, err := s.directory.Get(ctx, cmd.ActorID)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil, opErr("create", ErrNotFound)
		}
		return nil, err
	}
	if actor.Role != pol.actorRole {
		return nil, opErr("create", ErrUnauthorized)
	}
	if pol.requireVerifiedActor && !actor.IsDocVerifiedByAdmin {
		return nil, opErr("create", ErrUnauthorized)
	}

	l, err := s.listings.Get(ctx, cmd.ListingID)
	if err != nil {
		if errors.Is(err, listing.ErrNotFound) {
			return nil, opErr("create", ErrNotFound)
		}
		return nil, err
	}
	if l.IsDonation != pol.listingDonation {
		return nil, opErr("create", ErrDomainRule)
	}
	if l.OwnerID == cmd.ActorID {
		return nil, opErr("create", ErrDomainRule)
	}

	now := time.Now()
	if l.Status != listing.StatusActive || l.IsExpired(now) {
		return nil, opErr("create", ErrInvalidState)
	}

	var finalPrice *types.Money
	if pol.priced {
		if cmd.ProposedPrice != nil {
			if cmd.ProposedPrice.Amount <= 0 {
				return nil, opErr("create", ErrDomainRule)
			}
			p := *cmd.ProposedPrice
			finalPrice = &p
		} else {
			if l.BasePrice == nil || l.BasePrice.Amount <= 0 {
				return nil, opErr("create", ErrDomainRule)
			}
			p := s.quoter.Quote(*l.BasePrice, l.CookedAt, l.PickupStart, l.PickupEnd, now)
			finalPrice = &p
		}
	}

	id := types.NewID()
	var delivery *Delivery
	if cmd.DeliveryType == HomeDelivery {
		if l.PickupLocation == "" {
			return nil, opErr("create", ErrDomainRule)
		}
		var matchedID types.ID
		var found bool
		switch cmd.Kind {
		case KindPurchase:
			matchedID, found, err = s.matcher.MatchCourier(ctx, l.PickupLocation)
		case KindDonation:
			if actor.OrganizationID == nil {
				return nil, opErr("create", ErrNoMatch)
			}
			matchedID, found, err = s.matcher.MatchVolunteer(ctx, *actor.OrganizationID)
		}
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, opErr("create", ErrNoMatch)
		}
		delivery = &Delivery{
			ID:            types.NewID(),
			FulfillmentID: id,
			PersonnelType: pol.personnel,
			ActorID:       matchedID,
			Status:        DeliveryScheduled,
			CreatedAt:     now,
		}
	}

	f := &Fulfillment{
		ID:              id,
		Kind:            cmd.Kind,
		ListingID:       l.ID,
		OwnerID:         l.OwnerID,
		ActorID:         cmd.ActorID,
		Status:          StatusPending,
		StatusVersion:   0,
		DeliveryType:    cmd.DeliveryType,
		DeliveryAddress: cmd.DeliveryAddress,
		FinalPrice:      finalPrice,
		PickupCode:      NewPickupCode(),
		Notes:           cmd.Notes,
		CreatedAt:       now,
	}
	if pol.priced {
		f.PaymentStatus = PaymentUnpaid
	}

	if err := s.store.CreateClaimed(ctx, f, delivery); err != nil {
		if errors.Is(err, ErrListingUnavailable) {
			return nil, opErr("create", ErrInvalidState)
		}
		return nil, err
	}
	s.invalidate(ctx, l.ID)
	s.appendEvent(ctx, f.ID, StatusNone, StatusPending, actorType(cmd.Kind, false), &cmd.ActorID)
	metrics.FulfillmentsCreatedTotal.WithLabelValues(string(cmd.Kind)).Inc()

	events := []notify.Event{
		{RecipientID: f.OwnerID, Type: createdEventType(cmd.Kind), ReferenceID: f.ID,
			Message: fmt.Sprintf("Your listing %q has been claimed", l.Title)},
		{RecipientID: f.ActorID, Type: createdEventType(cmd.Kind), ReferenceID: f.ID,
			Message: fmt.Sprintf("Your request for %q is pending pickup", l.Title)},
	}
	if delivery != nil {
		events = append(events, notify.Event{
			RecipientID: delivery.ActorID, Type: notify.EventDeliveryAssigned, ReferenceID: f.ID,
			Message: fmt.Sprintf("New delivery scheduled from %s", l.PickupLocation),
		})
	}
	s.dispatcher.Dispatch(ctx, events)

	result := &CreateResult{
		ID:          f.ID,
		Status:      f.Status,
		PickupCode:  f.PickupCode,
		FinalPrice:  f.FinalPrice,
		DeliveryFee: f.DeliveryFee,
	}
	if delivery != nil {
		result.DeliveryActorID = &delivery.ActorID
	}
	s.log.Info("fulfillment created",
		zap.String("fulfillment_id", string(f.ID)),
		zap.String("kind", string(f.Kind)),
		zap.String("delivery_type", string(f.DeliveryType)))
	return result, nil
}

type AuthorizeCommand struct {
	ActorID       types.ID
	FulfillmentID types.ID
	Code          string
}

// AuthorizePickup is performed by the listing owner (seller or donor) against
// the shared secret. Self-pickup completes the fulfillment outright; home
// delivery confirms it and puts the delivery in transit.
func (s *Service) AuthorizePickup(ctx context.Context, cmd AuthorizeCommand) (*TransitionResult, error) {
	f, err := s.store.Get(ctx, cmd.FulfillmentID)
	if err != nil {
		return nil, opErr("authorize", err)
	}
	if f.OwnerID != cmd.ActorID {
		return nil, opErr("authorize", ErrUnauthorized)
	}
	if f.Status != StatusPending {
		return nil, opErr("authorize", ErrInvalidState)
	}
	if cmd.Code != f.PickupCode {
		return nil, opErr("authorize", ErrCodeMismatch)
	}

	pol := policies[f.Kind]
	m := Mutation{
		FulfillmentID: f.ID,
		FromStatus:    f.Status,
		StatusVersion: f.StatusVersion,
	}
	var deliveryStatus *DeliveryStatus
	if f.DeliveryType == HomeDelivery {
		m.ToStatus = StatusConfirmed
		m.Delivery = &DeliveryUpdate{To: DeliveryInTransit}
		st := DeliveryInTransit
		deliveryStatus = &st
	} else {
		m.ToStatus = StatusCompleted
		if pol.priced {
			paid := PaymentPaid
			m.SetPayment = &paid
		}
		if pol.sellListingOnComplete {
			claimed := listing.StatusClaimed
			m.Listing = &ListingTransition{ID: f.ListingID, FromExpected: &claimed, To: listing.StatusSold}
		}
	}

	ok, err := s.store.Apply(ctx, m)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, opErr("authorize", ErrConflict)
	}
	if m.Listing != nil {
		s.invalidate(ctx, f.ListingID)
	}
	s.appendEvent(ctx, f.ID, f.Status, m.ToStatus, actorType(f.Kind, true), &cmd.ActorID)
	if m.ToStatus == StatusCompleted {
		metrics.FulfillmentsCompletedTotal.WithLabelValues(string(f.Kind)).Inc()
	}

	events := []notify.Event{{
		RecipientID: f.ActorID, Type: notify.EventPickupAuthorized, ReferenceID: f.ID,
		Message: "Pickup code accepted; custody transferred",
	}}
	if d, derr := s.store.GetDelivery(ctx, f.ID); derr == nil && d != nil {
		events = append(events, notify.Event{
			RecipientID: d.ActorID, Type: notify.EventPickupAuthorized, ReferenceID: f.ID,
			Message: "Pickup authorized; delivery is now in transit",
		})
	}
	s.dispatcher.Dispatch(ctx, events)

	res := &TransitionResult{ID: f.ID, Status: m.ToStatus, DeliveryStatus: deliveryStatus}
	if m.SetPayment != nil {
		res.PaymentStatus = *m.SetPayment
	}
	return res, nil
}

type CompleteCommand struct {
	ActorID       types.ID
	FulfillmentID types.ID
}

// CompleteDelivery closes out a home-delivery fulfillment: buyer confirms
// receipt of a purchase, the assigned volunteer confirms a donation drop-off.
func (s *Service) CompleteDelivery(ctx context.Context, cmd CompleteCommand) (*TransitionResult, error) {
	f, err := s.store.Get(ctx, cmd.FulfillmentID)
	if err != nil {
		return nil, opErr("complete", err)
	}
	if f.Status != StatusConfirmed {
		return nil, opErr("complete", ErrInvalidState)
	}
	d, err := s.store.GetDelivery(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	if d == nil || d.Status != DeliveryInTransit {
		return nil, opErr("complete", ErrInvalidState)
	}

	pol := policies[f.Kind]
	completer := f.ActorID
	if f.Kind == KindDonation {
		completer = d.ActorID
	}
	if cmd.ActorID != completer {
		return nil, opErr("complete", ErrUnauthorized)
	}

	m := Mutation{
		FulfillmentID: f.ID,
		FromStatus:    f.Status,
		ToStatus:      StatusCompleted,
		StatusVersion: f.StatusVersion,
		Delivery:      &DeliveryUpdate{To: DeliveryDelivered},
	}
	if pol.priced {
		paid := PaymentPaid
		m.SetPayment = &paid
	}
	if pol.sellListingOnComplete {
		claimed := listing.StatusClaimed
		m.Listing = &ListingTransition{ID: f.ListingID, FromExpected: &claimed, To: listing.StatusSold}
	}

	ok, err := s.store.Apply(ctx, m)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, opErr("complete", ErrConflict)
	}
	if m.Listing != nil {
		s.invalidate(ctx, f.ListingID)
	}
	s.appendEvent(ctx, f.ID, f.Status, StatusCompleted, actorType(f.Kind, false), &cmd.ActorID)
	metrics.FulfillmentsCompletedTotal.WithLabelValues(string(f.Kind)).Inc()

	s.dispatcher.Dispatch(ctx, []notify.Event{
		{RecipientID: f.OwnerID, Type: notify.EventDeliveryCompleted, ReferenceID: f.ID,
			Message: "Delivery completed"},
		{RecipientID: d.ActorID, Type: notify.EventDeliveryCompleted, ReferenceID: f.ID,
			Message: "Delivery marked as completed"},
	})

	st := DeliveryDelivered
	res := &TransitionResult{ID: f.ID, Status: StatusCompleted, DeliveryStatus: &st}
	if m.SetPayment != nil {
		res.PaymentStatus = *m.SetPayment
	}
	return res, nil
}

type FailCommand struct {
	ActorID       types.ID
	FulfillmentID types.ID
	Reason        string
}

// ReportDeliveryFailure is reported by the assigned delivery actor. Purchases
// keep their status (only the delivery fails); donation claims revert to
// pending so the donor can re-authorize a new attempt.
func (s *Service) ReportDeliveryFailure(ctx context.Context, cmd FailCommand) (*TransitionResult, error) {
	f, err := s.store.Get(ctx, cmd.FulfillmentID)
	if err != nil {
		return nil, opErr("fail", err)
	}
	d, err := s.store.GetDelivery(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, opErr("fail", ErrInvalidState)
	}
	if d.ActorID != cmd.ActorID {
		return nil, opErr("fail", ErrUnauthorized)
	}
	if d.Status == DeliveryDelivered || d.Status == DeliveryFailed {
		return nil, opErr("fail", ErrInvalidState)
	}

	pol := policies[f.Kind]
	to := f.Status
	if pol.revertOnDeliveryFailure {
		to = StatusPending
	}
	if to != f.Status && !CanTransition(f.Status, to) {
		return nil, opErr("fail", ErrInvalidState)
	}
	reason := cmd.Reason
	m := Mutation{
		FulfillmentID: f.ID,
		FromStatus:    f.Status,
		ToStatus:      to,
		StatusVersion: f.StatusVersion,
		Delivery:      &DeliveryUpdate{To: DeliveryFailed, Reason: &reason},
	}

	ok, err := s.store.Apply(ctx, m)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, opErr("fail", ErrConflict)
	}
	s.appendEvent(ctx, f.ID, f.Status, to, deliveryActorType(f.Kind), &cmd.ActorID)
	metrics.DeliveryFailuresTotal.Inc()

	msg := "Delivery failed: " + cmd.Reason
	s.dispatcher.Dispatch(ctx, []notify.Event{
		{RecipientID: f.OwnerID, Type: notify.EventDeliveryFailed, ReferenceID: f.ID, Message: msg},
		{RecipientID: f.ActorID, Type: notify.EventDeliveryFailed, ReferenceID: f.ID, Message: msg},
	})

	st := DeliveryFailed
	return &TransitionResult{ID: f.ID, Status: to, DeliveryStatus: &st}, nil
}

type CancelCommand struct {
	ActorID       types.ID
	FulfillmentID types.ID
	Reason        string
}

// Cancel is available to either counterparty, guarded per kind, and always
// reverts the listing to active.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (*TransitionResult, error) {
	f, err := s.store.Get(ctx, cmd.FulfillmentID)
	if err != nil {
		return nil, opErr("cancel", err)
	}
	if cmd.ActorID != f.ActorID && cmd.ActorID != f.OwnerID {
		return nil, opErr("cancel", ErrUnauthorized)
	}
	if f.Status == StatusCompleted || f.Status == StatusCancelled {
		return nil, opErr("cancel", ErrInvalidState)
	}

	pol := policies[f.Kind]
	if pol.cancelWhilePendingOnly && f.Status != StatusPending {
		return nil, opErr("cancel", ErrInvalidState)
	}
	d, err := s.store.GetDelivery(ctx, f.ID)
	if err != nil {
		return nil, err
	}
	if !pol.cancelWhilePendingOnly && d != nil &&
		(d.Status == DeliveryInTransit || d.Status == DeliveryDelivered) {
		return nil, opErr("cancel", ErrInvalidState)
	}

	claimed := listing.StatusClaimed
	m := Mutation{
		FulfillmentID: f.ID,
		FromStatus:    f.Status,
		ToStatus:      StatusCancelled,
		StatusVersion: f.StatusVersion,
		Listing:       &ListingTransition{ID: f.ListingID, FromExpected: &claimed, To: listing.StatusActive},
	}
	if cmd.Reason != "" {
		r := cmd.Reason
		m.CancelReason = &r
	}
	if d != nil && d.Status != DeliveryFailed && d.Status != DeliveryDelivered {
		m.Delivery = &DeliveryUpdate{To: DeliveryFailed, Reason: m.CancelReason}
	}

	ok, err := s.store.Apply(ctx, m)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, opErr("cancel", ErrConflict)
	}
	s.invalidate(ctx, f.ListingID)
	s.appendEvent(ctx, f.ID, f.Status, StatusCancelled, cancelActorType(f, cmd.ActorID), &cmd.ActorID)

	counterpart := f.OwnerID
	if cmd.ActorID == f.OwnerID {
		counterpart = f.ActorID
	}
	s.dispatcher.Dispatch(ctx, []notify.Event{{
		RecipientID: counterpart, Type: notify.EventCancelled, ReferenceID: f.ID,
		Message: "Fulfillment cancelled",
	}})

	return &TransitionResult{ID: f.ID, Status: StatusCancelled}, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Fulfillment, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) GetDelivery(ctx context.Context, id types.ID) (*Delivery, error) {
	return s.store.GetDelivery(ctx, id)
}

func (s *Service) invalidate(ctx context.Context, listingID types.ID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, listingID)
	}
}

func (s *Service) appendEvent(ctx context.Context, id types.ID, from, to Status, actorType string, actorID *types.ID) {
	_ = s.store.AppendEvent(ctx, &StateEvent{
		FulfillmentID: id,
		FromStatus:    from,
		ToStatus:      to,
		ActorType:     actorType,
		ActorID:       actorID,
		CreatedAt:     time.Now(),
	})
}

func opErr(operation string, err error) error {
	metrics.OperationErrorsTotal.WithLabelValues(operation).Inc()
	return err
}

func createdEventType(k Kind) notify.EventType {
	if k == KindDonation {
		return notify.EventClaimCreated
	}
	return notify.EventOrderCreated
}

func actorType(k Kind, owner bool) string {
	switch {
	case owner && k == KindDonation:
		return "donor"
	case owner:
		return "seller"
	case k == KindDonation:
		return "charity"
	default:
		return "buyer"
	}
}

func deliveryActorType(k Kind) string {
	if k == KindDonation {
		return "volunteer"
	}
	return "courier"
}

func cancelActorType(f *Fulfillment, actorID types.ID) string {
	return actorType(f.Kind, actorID == f.OwnerID)
}
