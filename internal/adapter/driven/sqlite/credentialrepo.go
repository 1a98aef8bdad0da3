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
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port interface.
type CredentialRepo struct {
	db *DB
}

// NewCredentialRepo creates a new CredentialRepo backed by the given DB.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

const credentialColumns = `id, token_id, student_address, institution_name, institution_address,
	       degree, ipfs_hash, issue_date, revoked, created_at, updated_at`

// Insert stores a new credential row. Returns an error if the token id is
// already registered.
func (r *CredentialRepo) Insert(ctx context.Context, cred model.Credential) error {
	const query = `
		INSERT INTO credentials (
			id, token_id, student_address, institution_name, institution_address,
			degree, ipfs_hash, issue_date, revoked, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	revoked := 0
	if cred.Revoked {
		revoked = 1
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		cred.ID, cred.TokenID, cred.StudentAddress, cred.InstitutionName, cred.InstitutionAddress,
		cred.Degree, cred.IPFSHash, cred.IssueDate.UTC(), revoked,
		cred.CreatedAt.UTC(), cred.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert credential %s: %w", cred.TokenID, err)
	}

	return nil
}

// GetByID retrieves a credential by its row id. Returns nil, nil if it does not exist.
func (r *CredentialRepo) GetByID(ctx context.Context, id string) (*model.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE id = ?`

	cred, err := scanCredential(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential %s: %w", id, err)
	}

	return cred, nil
}

// GetByTokenID retrieves a credential by its ledger token id. Returns nil, nil
// if it does not exist.
func (r *CredentialRepo) GetByTokenID(ctx context.Context, tokenID string) (*model.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE token_id = ?`

	cred, err := scanCredential(r.db.Reader.QueryRowContext(ctx, query, tokenID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential by token %s: %w", tokenID, err)
	}

	return cred, nil
}

// ListByStudent returns all credentials for the given student address,
// newest issue date first.
func (r *CredentialRepo) ListByStudent(ctx context.Context, studentAddress string) ([]model.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE student_address = ? ORDER BY issue_date DESC`

	return r.queryCredentials(ctx, query, studentAddress)
}

// ListByInstitution returns all credentials issued by the given institution
// address, newest issue date first.
func (r *CredentialRepo) ListByInstitution(ctx context.Context, institutionAddress string) ([]model.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE institution_address = ? ORDER BY issue_date DESC`

	return r.queryCredentials(ctx, query, institutionAddress)
}

// ListAll returns every credential, newest issue date first.
func (r *CredentialRepo) ListAll(ctx context.Context) ([]model.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials ORDER BY issue_date DESC`

	return r.queryCredentials(ctx, query)
}

// SetRevoked marks the credential for the given token id as revoked. The
// update is unconditional, so revoking an already-revoked credential succeeds.
// Returns an error if no credential has that token id.
func (r *CredentialRepo) SetRevoked(ctx context.Context, tokenID string, at time.Time) error {
	const query = `UPDATE credentials SET revoked = 1, updated_at = ? WHERE token_id = ?`

	result, err := r.db.Writer.ExecContext(ctx, query, at.UTC(), tokenID)
	if err != nil {
		return fmt.Errorf("revoke credential %s: %w", tokenID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("credential %s not found", tokenID)
	}

	return nil
}

func (r *CredentialRepo) queryCredentials(ctx context.Context, query string, args ...any) ([]model.Credential, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query credentials: %w", err)
	}
	defer rows.Close()

	var creds []model.Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		creds = append(creds, *cred)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}

	return creds, nil
}

func scanCredential(s scanner) (*model.Credential, error) {
	var cred model.Credential
	var revoked int
	var issueDate, createdAt, updatedAt string

	err := s.Scan(
		&cred.ID, &cred.TokenID, &cred.StudentAddress, &cred.InstitutionName, &cred.InstitutionAddress,
		&cred.Degree, &cred.IPFSHash, &issueDate, &revoked, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	cred.Revoked = revoked != 0

	cred.IssueDate, err = parseTime(issueDate)
	if err != nil {
		return nil, fmt.Errorf("parse issue_date: %w", err)
	}

	cred.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	cred.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &cred, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// parseTime tries multiple SQLite datetime formats.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.000",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
