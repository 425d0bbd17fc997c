package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shreyescodes/erp-portal/internal/app/models"
	"github.com/shreyescodes/erp-portal/internal/pkg/apperrors"
	"github.com/shreyescodes/erp-portal/internal/pkg/dberrors"
	"github.com/shreyescodes/erp-portal/internal/pkg/logger"
)

// TokenRepository handles refresh token database operations
type TokenRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(db *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{
		db: db,
		sb: statementBuilder(),
	}
}

// CreateToken stores a new refresh token
func (r *TokenRepository) CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error {
	sql, args, err := r.sb.Insert("refresh_tokens").
		Columns("token", "user_id", "expiry_date", "is_revoked", "created_at").
		Values(token, userID, expiryDate, false, time.Now().UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create token query: %w", err)
	}

	if _, err = r.db.Exec(ctx, sql, args...); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "refresh_tokens_token_key") {
			return apperrors.ErrTokenInvalid
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing create token query")
		return fmt.Errorf("error creating token: %w", err)
	}
	return nil
}

// GetToken loads a refresh token by value. Revocation and expiry are left to the caller.
func (r *TokenRepository) GetToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	sql, args, err := r.sb.Select("token", "user_id", "expiry_date", "is_revoked", "created_at").
		From("refresh_tokens").
		Where(squirrel.Eq{"token": token}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get token query: %w", err)
	}

	var t models.RefreshToken
	err = r.db.QueryRow(ctx, sql, args...).Scan(&t.Token, &t.UserID, &t.ExpiryDate, &t.IsRevoked, &t.CreatedAt)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrTokenNotFound
		}
		return nil, fmt.Errorf("error retrieving token: %w", err)
	}
	return &t, nil
}

// RevokeToken revokes a single token
func (r *TokenRepository) RevokeToken(ctx context.Context, token string) error {
	sql, args, err := r.sb.Update("refresh_tokens").
		Set("is_revoked", true).
		Where(squirrel.Eq{"token": token}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build revoke token query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error revoking token: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrTokenNotFound
	}
	return nil
}

// RevokeAllUserTokens revokes all active tokens of a user. Having none is not an error.
func (r *TokenRepository) RevokeAllUserTokens(ctx context.Context, userID int64) error {
	sql, args, err := r.sb.Update("refresh_tokens").
		Set("is_revoked", true).
		Where(squirrel.Eq{"user_id": userID, "is_revoked": false}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build revoke all user tokens query: %w", err)
	}

	if _, err = r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing revoke all user tokens query")
		return fmt.Errorf("error revoking user tokens: %w", err)
	}
	return nil
}

// CleanupExpiredTokens removes expired tokens and revoked tokens older than retention.
func (r *TokenRepository) CleanupExpiredTokens(ctx context.Context, retention time.Duration) (int64, error) {
	now := time.Now().UTC()

	sql, args, err := r.sb.Delete("refresh_tokens").
		Where(squirrel.Or{
			squirrel.Lt{"expiry_date": now},
			squirrel.And{
				squirrel.Eq{"is_revoked": true},
				squirrel.Lt{"created_at": now.Add(-retention)},
			},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build cleanup tokens query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error cleaning up tokens: %w", err)
	}

	logger.Info().Int64("deletedCount", cmdTag.RowsAffected()).Msg("Cleaned up expired refresh tokens")
	return cmdTag.RowsAffected(), nil
}
