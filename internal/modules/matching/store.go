// Personnel store backed by PostgreSQL.
package matching

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"foodbridge/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) VerifiedCouriers(ctx context.Context) ([]Courier, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, identity_verified, areas, active
		FROM couriers
		WHERE identity_verified AND active`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Courier
	for rows.Next() {
		var c Courier
		if err := rows.Scan(&c.ID, &c.Name, &c.IdentityVerified, &c.Areas, &c.Active); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ActiveVolunteersByOrg(ctx context.Context, orgID types.ID) ([]Volunteer, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, org_id, name, active
		FROM volunteers
		WHERE org_id = $1 AND active
		ORDER BY created_at`, string(orgID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Volunteer
	for rows.Next() {
		var v Volunteer
		if err := rows.Scan(&v.ID, &v.OrgID, &v.Name, &v.Active); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
