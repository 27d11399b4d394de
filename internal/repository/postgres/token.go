package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/amezhin/eduseek/internal/apperrors"
	"github.com/amezhin/eduseek/internal/models"
)

// TokenRepo is the persisted ledger of every issued token.
// Rows are never deleted here, only flags are flipped.
type TokenRepo struct {
	DB DBTX
}

const saveToken = `-- name: SaveToken
INSERT INTO tokens (id, user_id, value, kind, revoked, expired, created_at, lyceum_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, user_id, value, kind, revoked, expired, created_at, lyceum_id
`

func (r *TokenRepo) Save(ctx context.Context, token models.Token) (models.Token, error) {
	rows, _ := r.DB.Query(ctx, saveToken,
		token.ID, token.UserID, token.Value, token.Kind,
		token.Revoked, token.Expired, token.CreatedAt, token.LyceumID,
	)
	saved, err := pgx.CollectOneRow(rows, rowToToken)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}
	return saved, nil
}

const getTokenByValue = `-- name: GetTokenByValue
SELECT id, user_id, value, kind, revoked, expired, created_at, lyceum_id
FROM tokens
WHERE value = $1
`

// GetByValue returns the row whatever its flags are.
// Deciding what a revoked or expired row means is the caller's business.
func (r *TokenRepo) GetByValue(ctx context.Context, value string) (models.Token, error) {
	rows, _ := r.DB.Query(ctx, getTokenByValue, value)
	token, err := pgx.CollectOneRow(rows, rowToToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		return token, apperrors.ErrTokenNotFound
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

const listUsableTokens = `-- name: ListUsableTokens
SELECT id, user_id, value, kind, revoked, expired, created_at, lyceum_id
FROM tokens
WHERE user_id = $1 AND kind = $2 AND revoked = false AND expired = false
ORDER BY created_at
`

func (r *TokenRepo) ListUsable(ctx context.Context, userID uuid.UUID, kind string) ([]models.Token, error) {
	rows, _ := r.DB.Query(ctx, listUsableTokens, userID, kind)
	tokens, err := pgx.CollectRows(rows, rowToToken)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tokens, nil
}

const revokeTokensByIDs = `-- name: RevokeTokensByIDs
UPDATE tokens
SET revoked = true, expired = true
WHERE id = ANY($1)
`

func (r *TokenRepo) RevokeByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := r.DB.Exec(ctx, revokeTokensByIDs, ids)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}

const expireTokensOlderThan = `-- name: ExpireTokensOlderThan
UPDATE tokens
SET expired = true
WHERE kind = $1 AND revoked = false AND expired = false AND created_at < $2
`

func (r *TokenRepo) ExpireOlderThan(ctx context.Context, kind string, cutoff time.Time) (int64, error) {
	tag, err := r.DB.Exec(ctx, expireTokensOlderThan, kind, cutoff)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return tag.RowsAffected(), nil
}

func rowToToken(row pgx.CollectableRow) (models.Token, error) {
	var t models.Token
	err := row.Scan(&t.ID, &t.UserID, &t.Value, &t.Kind, &t.Revoked, &t.Expired, &t.CreatedAt, &t.LyceumID)
	return t, err
}
