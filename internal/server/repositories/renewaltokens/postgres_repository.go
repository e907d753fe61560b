package renewaltokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/dbx"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, token *models.RenewalToken) error {

	query :=
		`INSERT INTO renewal_tokens (id, token, user_id, lineage_id, created_at, expires_at)
         VALUES ($1, $2, $3, $4, $5, $6)
		 `

	_, err := r.db.ExecContext(ctx, query,
		token.ID, token.Token, token.UserID, token.LineageID, token.CreatedAt, token.ExpiresAt)

	if err != nil {
		return fmt.Errorf("error performing sql request: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, token string) (*models.RenewalToken, error) {
	query :=
		`SELECT id, token, user_id, lineage_id, created_at, expires_at, revoked
		 FROM renewal_tokens
		 WHERE token = $1
		 `

	rec := &models.RenewalToken{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&rec.ID, &rec.Token, &rec.UserID, &rec.LineageID, &rec.CreatedAt, &rec.ExpiresAt, &rec.Revoked)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rec, nil
}

// Redeem is the single point of mutual exclusion in the rotation protocol:
// a conditional update flips revoked exactly once, so concurrent refresh
// calls with the same token cannot both win.
func (r *PostgresRepository) Redeem(ctx context.Context, token string) (*models.RenewalToken, error) {
	query :=
		`UPDATE renewal_tokens
		 SET revoked = TRUE
		 WHERE token = $1 AND NOT revoked AND expires_at > now()
		 RETURNING id, user_id, lineage_id, created_at, expires_at
		 `

	rec := &models.RenewalToken{Token: token, Revoked: true}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&rec.ID, &rec.UserID, &rec.LineageID, &rec.CreatedAt, &rec.ExpiresAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rec, nil
}

func (r *PostgresRepository) Revoke(ctx context.Context, token string) error {
	query :=
		`UPDATE renewal_tokens SET revoked = TRUE WHERE token = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) RevokeLineage(ctx context.Context, lineageID string) error {
	query :=
		`UPDATE renewal_tokens SET revoked = TRUE WHERE lineage_id = $1 AND NOT revoked
		 `

	if _, err := r.db.ExecContext(ctx, query, lineageID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
