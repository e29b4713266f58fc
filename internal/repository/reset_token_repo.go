package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/yusufkecer/macro-tracker-backend/internal/db"
	"github.com/yusufkecer/macro-tracker-backend/internal/domain"
)

type ResetTokenRepository struct {
	db *db.DB
}

func NewResetTokenRepository(db *db.DB) *ResetTokenRepository {
	return &ResetTokenRepository{db: db}
}

func (r *ResetTokenRepository) Create(ctx context.Context, accountID int64, token string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO password_reset_tokens (account_id, token, expires_at) VALUES (?, ?, ?)`,
		accountID, token, expiresAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

// GetValid returns the newest unused token for the email that has not
// expired at now and has not run out of attempts, or nil.
func (r *ResetTokenRepository) GetValid(ctx context.Context, email, token string, now time.Time) (*domain.PasswordResetToken, error) {
	var t domain.PasswordResetToken
	var usedInt int
	err := r.db.QueryRowContext(ctx, `
		SELECT prt.id, prt.account_id, prt.token, prt.expires_at, prt.used, prt.attempts
		FROM password_reset_tokens prt
		JOIN accounts a ON a.id = prt.account_id
		WHERE a.email = ? AND prt.token = ? AND prt.used = 0
		ORDER BY prt.id DESC
		LIMIT 1`,
		email, token,
	).Scan(&t.ID, &t.AccountID, &t.Token, &t.ExpiresAt, &usedInt, &t.Attempts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}
	t.Used = usedInt != 0
	if !t.Usable(now) {
		return nil, nil
	}
	return &t, nil
}

// RecordFailedAttempt counts a wrong code against every outstanding token of
// the account that owns email.
func (r *ResetTokenRepository) RecordFailedAttempt(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE password_reset_tokens SET attempts = attempts + 1
		WHERE used = 0 AND account_id IN (SELECT id FROM accounts WHERE email = ?)`,
		email,
	)
	if err != nil {
		return fmt.Errorf("failed to record reset attempt: %w", err)
	}
	return nil
}

func (r *ResetTokenRepository) MarkUsed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE password_reset_tokens SET used = 1 WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark token as used: %w", err)
	}
	return nil
}

func (r *ResetTokenRepository) DeleteByAccountID(ctx context.Context, accountID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM password_reset_tokens WHERE account_id = ?`,
		accountID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete old tokens: %w", err)
	}
	return nil
}
