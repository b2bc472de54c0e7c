// Listing store backed by PostgreSQL.
package listing

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"foodbridge/internal/types"
)

var (
	ErrNotFound = errors.New("listing not found")
	ErrConflict = errors.New("listing state conflict")
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, l *Listing) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO listings (
			id, owner_id, title, description, food_type,
			cooked_at, pickup_start, pickup_end, pickup_location,
			is_donation, base_price, status, status_version, image_ref, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12, $13, $14, $15
		)`,
		string(l.ID),
		string(l.OwnerID),
		l.Title,
		l.Description,
		l.FoodType,
		l.CookedAt,
		l.PickupStart,
		l.PickupEnd,
		l.PickupLocation,
		l.IsDonation,
		priceAmount(l.BasePrice),
		string(l.Status),
		l.StatusVersion,
		l.ImageRef,
		l.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Listing, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, owner_id, title, description, food_type,
		       cooked_at, pickup_start, pickup_end, pickup_location,
		       is_donation, base_price, status, status_version, image_ref, created_at
		FROM listings
		WHERE id = $1`, string(id),
	)
	return scanListing(row)
}

func (s *Store) ListActive(ctx context.Context) ([]*Listing, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, title, description, food_type,
		       cooked_at, pickup_start, pickup_end, pickup_location,
		       is_donation, base_price, status, status_version, image_ref, created_at
		FROM listings
		WHERE status = 'active'
		ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Transition persists the target status only. When fromExpected is non-nil the
// update applies only if the current status still matches; callers own the
// business-rule checks.
func (s *Store) Transition(ctx context.Context, id types.ID, fromExpected *Status, to Status) error {
	var tag interface{ RowsAffected() int64 }
	var err error
	if fromExpected != nil {
		tag, err = s.db.Exec(ctx, `
			UPDATE listings
			SET status = $1, status_version = status_version + 1
			WHERE id = $2 AND status = $3`,
			string(to), string(id), string(*fromExpected),
		)
	} else {
		tag, err = s.db.Exec(ctx, `
			UPDATE listings
			SET status = $1, status_version = status_version + 1
			WHERE id = $2`,
			string(to), string(id),
		)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return ErrConflict
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanListing(row rowScanner) (*Listing, error) {
	var l Listing
	var pickupEnd sql.NullTime
	var basePrice sql.NullInt64

	err := row.Scan(
		&l.ID, &l.OwnerID, &l.Title, &l.Description, &l.FoodType,
		&l.CookedAt, &l.PickupStart, &pickupEnd, &l.PickupLocation,
		&l.IsDonation, &basePrice, &l.Status, &l.StatusVersion, &l.ImageRef, &l.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if pickupEnd.Valid {
		t := pickupEnd.Time
		l.PickupEnd = &t
	}
	if basePrice.Valid {
		l.BasePrice = &types.Money{Amount: basePrice.Int64, Currency: defaultCurrency}
	}
	return &l, nil
}

const defaultCurrency = "USD"

func priceAmount(m *types.Money) *int64 {
	if m == nil {
		return nil
	}
	n := m.Amount
	return &n
}
