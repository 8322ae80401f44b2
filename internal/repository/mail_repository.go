package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/mailtrack-api/internal/models"
	"github.com/noah-isme/mailtrack-api/internal/query"
)

// MailRepository handles mail and attachment persistence.
type MailRepository struct {
	db *sqlx.DB
}

// NewMailRepository constructs the repository.
func NewMailRepository(db *sqlx.DB) *MailRepository {
	return &MailRepository{db: db}
}

const mailColumns = `m.id, m.reference_number, m.mail_date, m.subject, m.direction,
       m.from_department_id, m.to_department_id, m.uploader_id, m.created_at, m.updated_at,
       fd.name AS from_department_name,
       td.name AS to_department_name,
       u.full_name AS uploader_name`

const mailJoins = `
	FROM mails m
	LEFT JOIN departments fd ON m.from_department_id = fd.id
	LEFT JOIN departments td ON m.to_department_id = td.id
	LEFT JOIN users u ON m.uploader_id = u.id`

// SearchClause combines the mandatory scope predicate with the optional
// search filters. The scope always comes first and is AND-ed with every
// filter, so filters can only narrow the visible set.
func SearchClause(scope query.Clause, f models.MailSearchFilter) query.Clause {
	clauses := []query.Clause{scope}
	if f.DateFrom != nil {
		clauses = append(clauses, query.Gte("m.mail_date", *f.DateFrom))
	}
	if f.DateTo != nil {
		clauses = append(clauses, query.Lte("m.mail_date", *f.DateTo))
	}
	if f.DepartmentID != "" {
		clauses = append(clauses, query.Or(
			query.Eq("m.from_department_id", f.DepartmentID),
			query.Eq("m.to_department_id", f.DepartmentID),
		))
	}
	if f.ReferenceNumber != "" {
		clauses = append(clauses, query.ILike("m.reference_number", f.ReferenceNumber))
	}
	if f.Subject != "" {
		clauses = append(clauses, query.ILike("m.subject", f.Subject))
	}
	if f.Direction != "" {
		clauses = append(clauses, query.Eq("m.direction", string(f.Direction)))
	}
	return query.And(clauses...)
}

// List returns the mail page plus the total count for the identical clause.
// Attachment counts are aggregated via a grouped left join.
func (r *MailRepository) List(ctx context.Context, clause query.Clause, limit, offset int) ([]models.Mail, int, error) {
	where, args := clause.Where()

	dataQuery := `SELECT ` + mailColumns + `,
       COUNT(a.id) AS attachment_count` + mailJoins + `
	LEFT JOIN attachments a ON m.id = a.mail_id` +
		where + `
	GROUP BY m.id, fd.name, td.name, u.full_name
	ORDER BY m.created_at DESC
	LIMIT ` + clause.Placeholder(1) + ` OFFSET ` + clause.Placeholder(2)

	countQuery := `SELECT COUNT(DISTINCT m.id) FROM mails m` + where

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count mails: %w", err)
	}

	var mails []models.Mail
	dataArgs := append(append([]interface{}(nil), args...), limit, offset)
	if err := r.db.SelectContext(ctx, &mails, dataQuery, dataArgs...); err != nil {
		return nil, 0, fmt.Errorf("list mails: %w", err)
	}
	return mails, total, nil
}

// GetByID retrieves one mail row with the scope folded into the lookup, so
// rows outside the caller's scope behave exactly like absent rows.
func (r *MailRepository) GetByID(ctx context.Context, id string, scope query.Clause) (*models.Mail, error) {
	clause := query.And(query.Eq("m.id", id), scope)
	where, args := clause.Where()

	q := `SELECT ` + mailColumns + mailJoins + where

	var mail models.Mail
	if err := r.db.GetContext(ctx, &mail, q, args...); err != nil {
		return nil, err
	}
	return &mail, nil
}

// CreateWithAttachments inserts the mail row and all attachment rows in one
// transaction. Any failure rolls the whole creation back.
func (r *MailRepository) CreateWithAttachments(ctx context.Context, mail *models.Mail, attachments []models.Attachment) error {
	if mail.ID == "" {
		mail.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if mail.CreatedAt.IsZero() {
		mail.CreatedAt = now
	}
	mail.UpdatedAt = mail.CreatedAt

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mail transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const mailInsert = `INSERT INTO mails
	(id, reference_number, mail_date, subject, direction, from_department_id, to_department_id, uploader_id, created_at, updated_at)
	VALUES (:id, :reference_number, :mail_date, :subject, :direction, :from_department_id, :to_department_id, :uploader_id, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, mailInsert, mail); err != nil {
		return fmt.Errorf("insert mail: %w", err)
	}

	const attachmentInsert = `INSERT INTO attachments
	(id, mail_id, file_path, original_filename, file_size, mime_type, created_at)
	VALUES (:id, :mail_id, :file_path, :original_filename, :file_size, :mime_type, :created_at)`
	for i := range attachments {
		if attachments[i].ID == "" {
			attachments[i].ID = uuid.NewString()
		}
		attachments[i].MailID = mail.ID
		if attachments[i].CreatedAt.IsZero() {
			attachments[i].CreatedAt = now
		}
		if _, err := tx.NamedExecContext(ctx, attachmentInsert, attachments[i]); err != nil {
			return fmt.Errorf("insert attachment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit mail transaction: %w", err)
	}
	return nil
}

// ListAttachments returns all attachment metadata for a mail item.
func (r *MailRepository) ListAttachments(ctx context.Context, mailID string) ([]models.Attachment, error) {
	const q = `SELECT id, mail_id, file_path, original_filename, file_size, mime_type, created_at
	FROM attachments WHERE mail_id = $1 ORDER BY created_at ASC`
	var attachments []models.Attachment
	if err := r.db.SelectContext(ctx, &attachments, q, mailID); err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	return attachments, nil
}

// GetAttachment retrieves one attachment row.
func (r *MailRepository) GetAttachment(ctx context.Context, id string) (*models.Attachment, error) {
	const q = `SELECT id, mail_id, file_path, original_filename, file_size, mime_type, created_at
	FROM attachments WHERE id = $1`
	var attachment models.Attachment
	if err := r.db.GetContext(ctx, &attachment, q, id); err != nil {
		return nil, err
	}
	return &attachment, nil
}

// IsUniqueViolation reports whether the error is a Postgres unique
// constraint violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505"
}

// IsForeignKeyViolation reports whether the error is a Postgres foreign key
// constraint violation.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23503"
}
