package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/mailtrack-api/internal/models"
)

// CommentRepository handles the append-only referral discussion trail.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository constructs the repository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create appends one comment. Comments are never edited or deleted
// individually; they only go away when their referral is removed.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	const q = `INSERT INTO comments (id, referral_id, user_id, text, created_at)
	VALUES (:id, :referral_id, :user_id, :text, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, q, comment); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

// ListByReferral returns the comments for a referral, oldest first.
func (r *CommentRepository) ListByReferral(ctx context.Context, referralID string) ([]models.Comment, error) {
	const q = `SELECT c.id, c.referral_id, c.user_id, c.text, c.created_at,
	       u.full_name AS user_name
	FROM comments c
	JOIN users u ON c.user_id = u.id
	WHERE c.referral_id = $1
	ORDER BY c.created_at ASC`
	var comments []models.Comment
	if err := r.db.SelectContext(ctx, &comments, q, referralID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}
