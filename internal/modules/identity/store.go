// Directory store backed by PostgreSQL.
package identity

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"foodbridge/internal/types"
)

var ErrNotFound = errors.New("user not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, id types.ID) (*User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, role, is_doc_verified_by_admin, organization_id, active
		FROM users
		WHERE id = $1`, string(id),
	)

	var u User
	var orgID sql.NullString
	err := row.Scan(&u.ID, &u.Name, &u.Role, &u.IsDocVerifiedByAdmin, &orgID, &u.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if orgID.Valid {
		v := types.ID(orgID.String)
		u.OrganizationID = &v
	}
	return &u, nil
}
