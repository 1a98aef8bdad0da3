package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/trinetra-dev/credregistry/internal/domain/model"
	"github.com/trinetra-dev/credregistry/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ShareStore = (*ShareRepo)(nil)

// ShareRepo is the SQLite implementation of the ShareStore port interface.
type ShareRepo struct {
	db *DB
}

// NewShareRepo creates a new ShareRepo backed by the given DB.
func NewShareRepo(db *DB) *ShareRepo {
	return &ShareRepo{db: db}
}

// Insert stores a new share row. Returns an error if the token collides with
// an existing one.
func (r *ShareRepo) Insert(ctx context.Context, share model.Share) error {
	const query = `
		INSERT INTO credential_shares (id, credential_id, shared_with, share_token, expires_at, access_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		share.ID, share.CredentialID, share.SharedWith, share.Token,
		share.ExpiresAt.UTC(), share.AccessCount, share.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert share for credential %s: %w", share.CredentialID, err)
	}

	return nil
}

// GetActiveByToken retrieves the share for the given token provided it has not
// expired at the given instant. Unknown and expired tokens both return nil, nil.
func (r *ShareRepo) GetActiveByToken(ctx context.Context, token string, now time.Time) (*model.Share, error) {
	const query = `
		SELECT id, credential_id, shared_with, share_token, expires_at, access_count, created_at
		FROM credential_shares
		WHERE share_token = ? AND expires_at > ?
	`

	share, err := scanShare(r.db.Reader.QueryRowContext(ctx, query, token, now.UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get share by token: %w", err)
	}

	return share, nil
}

// IncrementAccessCount bumps the redemption counter for the given token in a
// single statement. A missing token is not an error; zero rows are updated.
func (r *ShareRepo) IncrementAccessCount(ctx context.Context, token string) error {
	const query = `UPDATE credential_shares SET access_count = access_count + 1 WHERE share_token = ?`

	_, err := r.db.Writer.ExecContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("increment access count: %w", err)
	}

	return nil
}

// CountAll returns the total number of shares ever created, expired included.
func (r *ShareRepo) CountAll(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM credential_shares`

	var count int
	if err := r.db.Reader.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count shares: %w", err)
	}

	return count, nil
}

func scanShare(s scanner) (*model.Share, error) {
	var share model.Share
	var expiresAt, createdAt string

	err := s.Scan(
		&share.ID, &share.CredentialID, &share.SharedWith, &share.Token,
		&expiresAt, &share.AccessCount, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	share.ExpiresAt, err = parseTime(expiresAt)
	if err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}

	share.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &share, nil
}
