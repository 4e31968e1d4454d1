package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"hooshmetr/internal/models"
)

type VerificationRepository interface {
	// SupersedeAndCreate invalidates every prior code for the mobile
	// and inserts the new one in a single transaction, keeping the
	// at-most-one-active invariant under concurrent issuance. Old rows
	// stay until DeleteExpired so CountRecentSends can see them.
	SupersedeAndCreate(v *models.VerificationCode) error
	GetLatestActive(mobile string) (*models.VerificationCode, error)
	IncrementAttempts(id int64) (int, error)
	Consume(id int64) (bool, error)
	CountRecentSends(mobile string, since time.Time) (int, error)
	DeleteExpired(before time.Time) (int64, error)
}

type verificationRepository struct {
	DB *sql.DB
}

func NewVerificationRepository(db *sql.DB) VerificationRepository {
	return &verificationRepository{DB: db}
}

func (r *verificationRepository) SupersedeAndCreate(v *models.VerificationCode) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("verification supersede: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE verification_codes SET used = TRUE WHERE mobile = $1 AND used = FALSE`, v.Mobile); err != nil {
		return fmt.Errorf("verification supersede: invalidate: %w", err)
	}

	const q = `
		INSERT INTO verification_codes (mobile, code, attempts, created_at, expires_at, used)
		VALUES ($1, $2, 0, $3, $4, FALSE)
		RETURNING id
	`
	if err := tx.QueryRow(q, v.Mobile, v.Code, v.CreatedAt, v.ExpiresAt).Scan(&v.ID); err != nil {
		return fmt.Errorf("verification supersede: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("verification supersede: commit: %w", err)
	}
	return nil
}

// GetLatestActive returns the newest unused code for the mobile, or
// nil when none exists. Expiry and attempts are judged by the caller.
func (r *verificationRepository) GetLatestActive(mobile string) (*models.VerificationCode, error) {
	const q = `
		SELECT id, mobile, code, attempts, created_at, expires_at, used
		FROM verification_codes
		WHERE mobile = $1 AND used = FALSE
		ORDER BY created_at DESC
		LIMIT 1
	`
	row := r.DB.QueryRow(q, mobile)
	var v models.VerificationCode
	if err := row.Scan(&v.ID, &v.Mobile, &v.Code, &v.Attempts, &v.CreatedAt, &v.ExpiresAt, &v.Used); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("verification latest: %w", err)
	}
	return &v, nil
}

// IncrementAttempts bumps the counter in the database itself, so two
// concurrent wrong submissions are both counted.
func (r *verificationRepository) IncrementAttempts(id int64) (int, error) {
	const q = `
		UPDATE verification_codes
		SET attempts = attempts + 1
		WHERE id = $1
		RETURNING attempts
	`
	var attempts int
	if err := r.DB.QueryRow(q, id).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("verification increment attempts: %w", err)
	}
	return attempts, nil
}

// Consume marks the code used. The used = FALSE guard makes the update
// win-once: a second concurrent verify sees zero rows affected.
func (r *verificationRepository) Consume(id int64) (bool, error) {
	res, err := r.DB.Exec(`UPDATE verification_codes SET used = TRUE WHERE id = $1 AND used = FALSE`, id)
	if err != nil {
		return false, fmt.Errorf("verification consume: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("verification consume: rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *verificationRepository) CountRecentSends(mobile string, since time.Time) (int, error) {
	const q = `
		SELECT COUNT(*)
		FROM verification_codes
		WHERE mobile = $1 AND created_at >= $2
	`
	var c int
	if err := r.DB.QueryRow(q, mobile, since).Scan(&c); err != nil {
		return 0, fmt.Errorf("verification count recent: %w", err)
	}
	return c, nil
}

func (r *verificationRepository) DeleteExpired(before time.Time) (int64, error) {
	res, err := r.DB.Exec(`DELETE FROM verification_codes WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("verification delete expired: %w", err)
	}
	return res.RowsAffected()
}
