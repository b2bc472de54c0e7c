// Fulfillment store backed by PostgreSQL. Multi-row state changes (listing
// flip + fulfillment + delivery) commit in one transaction with an optimistic
// predicate, so two concurrent creates against one listing cannot both win.
package fulfillment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"foodbridge/internal/modules/listing"
	"foodbridge/internal/types"
)

var (
	// ErrListingUnavailable: the listing stopped being active between the
	// caller's read and the commit.
	ErrListingUnavailable = errors.New("listing no longer available")
)

// ListingTransition is a listing status change applied inside the same
// transaction as the fulfillment update.
type ListingTransition struct {
	ID           types.ID
	FromExpected *listing.Status
	To           listing.Status
}

type DeliveryUpdate struct {
	To     DeliveryStatus
	Reason *string
}

// Mutation is one atomic state-machine step. FromStatus/StatusVersion form the
// optimistic predicate; ToStatus may equal FromStatus when only dependent rows
// change (the version still advances to serialize concurrent writers).
type Mutation struct {
	FulfillmentID types.ID
	FromStatus    Status
	ToStatus      Status
	StatusVersion int
	SetPayment    *PaymentStatus
	CancelReason  *string
	Delivery      *DeliveryUpdate
	Listing       *ListingTransition
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// CreateClaimed persists a new pending fulfillment, claims its listing, and
// inserts the scheduled delivery row (home delivery) as one commit.
func (s *Store) CreateClaimed(ctx context.Context, f *Fulfillment, d *Delivery) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE listings
		SET status = 'claimed', status_version = status_version + 1
		WHERE id = $1 AND status = 'active'`,
		string(f.ListingID),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrListingUnavailable
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO fulfillments (
			id, kind, listing_id, owner_id, actor_id,
			status, status_version, delivery_type, delivery_address,
			final_price, delivery_fee, payment_status, pickup_code, notes, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13, $14, $15
		)`,
		string(f.ID),
		string(f.Kind),
		string(f.ListingID),
		string(f.OwnerID),
		string(f.ActorID),
		string(f.Status),
		f.StatusVersion,
		string(f.DeliveryType),
		f.DeliveryAddress,
		moneyAmount(f.FinalPrice),
		moneyAmount(f.DeliveryFee),
		nullString(string(f.PaymentStatus)),
		f.PickupCode,
		f.Notes,
		f.CreatedAt,
	)
	if err != nil {
		return err
	}

	if d != nil {
		_, err = tx.Exec(ctx, `
			INSERT INTO deliveries (
				id, fulfillment_id, personnel_type, actor_id, status, created_at
			) VALUES ($1, $2, $3, $4, $5, $6)`,
			string(d.ID),
			string(d.FulfillmentID),
			string(d.PersonnelType),
			string(d.ActorID),
			string(d.Status),
			d.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Fulfillment, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, kind, listing_id, owner_id, actor_id,
		       status, status_version, delivery_type, delivery_address,
		       final_price, delivery_fee, payment_status, pickup_code, notes,
		       created_at, confirmed_at, completed_at, cancelled_at, cancel_reason
		FROM fulfillments
		WHERE id = $1`, string(id),
	)

	var f Fulfillment
	var finalPrice, deliveryFee sql.NullInt64
	var paymentStatus, cancelReason sql.NullString
	var confirmedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&f.ID, &f.Kind, &f.ListingID, &f.OwnerID, &f.ActorID,
		&f.Status, &f.StatusVersion, &f.DeliveryType, &f.DeliveryAddress,
		&finalPrice, &deliveryFee, &paymentStatus, &f.PickupCode, &f.Notes,
		&f.CreatedAt, &confirmedAt, &completedAt, &cancelledAt, &cancelReason,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if finalPrice.Valid {
		f.FinalPrice = &types.Money{Amount: finalPrice.Int64, Currency: defaultCurrency}
	}
	if deliveryFee.Valid {
		f.DeliveryFee = &types.Money{Amount: deliveryFee.Int64, Currency: defaultCurrency}
	}
	if paymentStatus.Valid {
		f.PaymentStatus = PaymentStatus(paymentStatus.String)
	}
	if cancelReason.Valid {
		f.CancelReason = &cancelReason.String
	}
	f.ConfirmedAt = nullTimePtr(confirmedAt)
	f.CompletedAt = nullTimePtr(completedAt)
	f.CancelledAt = nullTimePtr(cancelledAt)
	return &f, nil
}

// GetDelivery returns nil without error when the fulfillment has no delivery
// row (self-pickup).
func (s *Store) GetDelivery(ctx context.Context, fulfillmentID types.ID) (*Delivery, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, fulfillment_id, personnel_type, actor_id, status, reason, created_at
		FROM deliveries
		WHERE fulfillment_id = $1`, string(fulfillmentID),
	)

	var d Delivery
	var reason sql.NullString
	err := row.Scan(&d.ID, &d.FulfillmentID, &d.PersonnelType, &d.ActorID, &d.Status, &reason, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if reason.Valid {
		d.Reason = &reason.String
	}
	return &d, nil
}

// Apply commits one state-machine step. Returns false when the optimistic
// predicate missed (another writer got there first); nothing is written then.
func (s *Store) Apply(ctx context.Context, m Mutation) (bool, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE fulfillments
		SET status = $1,
		    status_version = status_version + 1,
		    payment_status = COALESCE($2, payment_status),
		    cancel_reason = COALESCE($3, cancel_reason),
		    confirmed_at = CASE WHEN $1 = 'confirmed' THEN NOW() ELSE confirmed_at END,
		    completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END,
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END
		WHERE id = $4 AND status = $5 AND status_version = $6`,
		string(m.ToStatus),
		paymentPtr(m.SetPayment),
		m.CancelReason,
		string(m.FulfillmentID),
		string(m.FromStatus),
		m.StatusVersion,
	)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() != 1 {
		return false, nil
	}

	if m.Delivery != nil {
		_, err = tx.Exec(ctx, `
			UPDATE deliveries
			SET status = $1, reason = COALESCE($2, reason)
			WHERE fulfillment_id = $3`,
			string(m.Delivery.To),
			m.Delivery.Reason,
			string(m.FulfillmentID),
		)
		if err != nil {
			return false, err
		}
	}

	if m.Listing != nil {
		var ltag interface{ RowsAffected() int64 }
		if m.Listing.FromExpected != nil {
			ltag, err = tx.Exec(ctx, `
				UPDATE listings
				SET status = $1, status_version = status_version + 1
				WHERE id = $2 AND status = $3`,
				string(m.Listing.To), string(m.Listing.ID), string(*m.Listing.FromExpected),
			)
		} else {
			ltag, err = tx.Exec(ctx, `
				UPDATE listings
				SET status = $1, status_version = status_version + 1
				WHERE id = $2`,
				string(m.Listing.To), string(m.Listing.ID),
			)
		}
		if err != nil {
			return false, err
		}
		if ltag.RowsAffected() != 1 {
			return false, nil
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *StateEvent) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO fulfillment_state_events (
			fulfillment_id, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.FulfillmentID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		idPtr(e.ActorID),
		e.CreatedAt,
	)
	return err
}

const defaultCurrency = "USD"

func moneyAmount(m *types.Money) *int64 {
	if m == nil {
		return nil
	}
	n := m.Amount
	return &n
}

func nullString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func paymentPtr(p *PaymentStatus) *string {
	if p == nil {
		return nil
	}
	s := string(*p)
	return &s
}

func nullTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
