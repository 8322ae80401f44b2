package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mailtrack-api/internal/models"
)

// ReferralRepository handles referral persistence.
type ReferralRepository struct {
	db *sqlx.DB
}

// NewReferralRepository constructs the repository.
func NewReferralRepository(db *sqlx.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// Create inserts a new referral. Duplicate (mail_id, section_id) pairs are
// rejected by the storage unique constraint, never by a check-then-insert;
// that constraint is the sole guard against concurrent duplicate creation.
func (r *ReferralRepository) Create(ctx context.Context, referral *models.Referral) error {
	if referral.ID == "" {
		referral.ID = uuid.NewString()
	}
	if referral.Status == "" {
		referral.Status = models.ReferralPending
	}
	now := time.Now().UTC()
	if referral.CreatedAt.IsZero() {
		referral.CreatedAt = now
	}
	referral.UpdatedAt = referral.CreatedAt

	const q = `INSERT INTO referrals (id, mail_id, section_id, status, created_at, updated_at)
	VALUES (:id, :mail_id, :section_id, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, q, referral); err != nil {
		return err
	}
	return nil
}

// GetByID retrieves one referral joined with its mail and section context.
func (r *ReferralRepository) GetByID(ctx context.Context, id string) (*models.Referral, error) {
	const q = `SELECT r.id, r.mail_id, r.section_id, r.status, r.created_at, r.updated_at,
	       m.reference_number, m.subject, m.mail_date,
	       s.name AS section_name, d.name AS department_name
	FROM referrals r
	JOIN mails m ON r.mail_id = m.id
	JOIN sections s ON r.section_id = s.id
	JOIN departments d ON s.department_id = d.id
	WHERE r.id = $1`
	var referral models.Referral
	if err := r.db.GetContext(ctx, &referral, q, id); err != nil {
		return nil, err
	}
	return &referral, nil
}

// ListBySection returns one page of referrals for a section with comment
// counts aggregated via a grouped left join, plus the total count.
func (r *ReferralRepository) ListBySection(ctx context.Context, sectionID string, limit, offset int) ([]models.Referral, int, error) {
	const dataQuery = `SELECT r.id, r.mail_id, r.section_id, r.status, r.created_at, r.updated_at,
	       m.reference_number, m.subject, m.mail_date,
	       s.name AS section_name, d.name AS department_name,
	       COUNT(c.id) AS comment_count
	FROM referrals r
	JOIN mails m ON r.mail_id = m.id
	JOIN sections s ON r.section_id = s.id
	JOIN departments d ON s.department_id = d.id
	LEFT JOIN comments c ON r.id = c.referral_id
	WHERE r.section_id = $1
	GROUP BY r.id, m.reference_number, m.subject, m.mail_date, s.name, d.name
	ORDER BY r.created_at DESC
	LIMIT $2 OFFSET $3`

	const countQuery = `SELECT COUNT(*) FROM referrals r WHERE r.section_id = $1`

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, sectionID); err != nil {
		return nil, 0, fmt.Errorf("count referrals: %w", err)
	}

	var referrals []models.Referral
	if err := r.db.SelectContext(ctx, &referrals, dataQuery, sectionID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list referrals: %w", err)
	}
	return referrals, total, nil
}

// MarkViewed advances a Pending referral to Viewed as a single conditional
// update. Concurrent reads advance it at most once, and a concurrently set
// Completed status is never overwritten. Returns whether this call did the
// transition.
func (r *ReferralRepository) MarkViewed(ctx context.Context, id string, viewedAt time.Time) (bool, error) {
	const q = `UPDATE referrals SET status = $2, updated_at = $3
	WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, q, id, models.ReferralViewed, viewedAt, models.ReferralPending)
	if err != nil {
		return false, fmt.Errorf("mark referral viewed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check viewed rows: %w", err)
	}
	return affected == 1, nil
}

// UpdateStatus sets the referral status unconditionally at the storage
// level; transition legality is validated by the workflow service first.
func (r *ReferralRepository) UpdateStatus(ctx context.Context, id string, status models.ReferralStatus, updatedAt time.Time) error {
	const q = `UPDATE referrals SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, q, id, status, updatedAt)
	if err != nil {
		return fmt.Errorf("update referral status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check status rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the referral and its comments in one transaction.
func (r *ReferralRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin referral delete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE referral_id = $1`, id); err != nil {
		return fmt.Errorf("delete referral comments: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM referrals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete referral: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check delete rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit referral delete: %w", err)
	}
	return nil
}
