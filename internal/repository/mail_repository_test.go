package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mailtrack-api/internal/models"
	"github.com/noah-isme/mailtrack-api/internal/query"
)

func newMailRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func mailRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "reference_number", "mail_date", "subject", "direction",
		"from_department_id", "to_department_id", "uploader_id", "created_at", "updated_at",
		"from_department_name", "to_department_name", "uploader_name", "attachment_count",
	})
}

func TestMailRepositoryListCountAndDataShareScopeArgs(t *testing.T) {
	db, mock, cleanup := newMailRepoMock(t)
	defer cleanup()

	repo := NewMailRepository(db)
	scope := query.Or(
		query.Eq("m.from_department_id", "dept-1"),
		query.Eq("m.to_department_id", "dept-1"),
	)
	clause := SearchClause(scope, models.MailSearchFilter{Direction: models.DirectionIncoming})

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(DISTINCT m.id) FROM mails m")).
		WithArgs("dept-1", "dept-1", "incoming").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	now := time.Now()
	rows := mailRows().AddRow(
		"mail-1", "REF-001", now, "Budget", "incoming",
		"dept-1", nil, "user-1", now, now,
		"Finance", nil, "Jane Admin", 2,
	)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT m.id, m.reference_number")).
		WithArgs("dept-1", "dept-1", "incoming", 10, 0).
		WillReturnRows(rows)

	mails, total, err := repo.List(context.Background(), clause, 10, 0)
	require.NoError(t, err)
	require.Equal(t, 42, total)
	require.Len(t, mails, 1)
	require.Equal(t, "REF-001", mails[0].ReferenceNumber)
	require.Equal(t, 2, mails[0].AttachmentCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMailRepositoryGetByIDFoldsScopeIntoLookup(t *testing.T) {
	db, mock, cleanup := newMailRepoMock(t)
	defer cleanup()

	repo := NewMailRepository(db)
	scope := query.Exists(
		"SELECT 1 FROM referrals r WHERE r.mail_id = m.id AND r.section_id = ?",
		"sec-1",
	)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT m.id, m.reference_number")).
		WithArgs("mail-1", "sec-1").
		WillReturnRows(mailRows())

	_, err := repo.GetByID(context.Background(), "mail-1", scope)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMailRepositoryCreateWithAttachmentsCommitsOnce(t *testing.T) {
	db, mock, cleanup := newMailRepoMock(t)
	defer cleanup()

	repo := NewMailRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO mails")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attachments")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attachments")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mail := &models.Mail{
		ReferenceNumber: "REF-002",
		MailDate:        time.Now(),
		Subject:         "Hiring plan",
		Direction:       models.DirectionOutgoing,
		UploaderID:      "user-1",
	}
	attachments := []models.Attachment{
		{FilePath: "a.pdf", OriginalFilename: "plan.pdf", FileSize: 100, MimeType: "application/pdf"},
		{FilePath: "b.pdf", OriginalFilename: "annex.pdf", FileSize: 200, MimeType: "application/pdf"},
	}
	require.NoError(t, repo.CreateWithAttachments(context.Background(), mail, attachments))
	require.NotEmpty(t, mail.ID)
	require.Equal(t, mail.ID, attachments[0].MailID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMailRepositoryCreateRollsBackOnAttachmentFailure(t *testing.T) {
	db, mock, cleanup := newMailRepoMock(t)
	defer cleanup()

	repo := NewMailRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO mails")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attachments")).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	mail := &models.Mail{ReferenceNumber: "REF-003", MailDate: time.Now(), Subject: "x", Direction: models.DirectionIncoming, UploaderID: "user-1"}
	err := repo.CreateWithAttachments(context.Background(), mail, []models.Attachment{{FilePath: "a.pdf"}})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUniqueAndForeignKeyViolationDetection(t *testing.T) {
	require.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	require.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	require.False(t, IsUniqueViolation(errors.New("plain")))

	require.True(t, IsForeignKeyViolation(&pq.Error{Code: "23503"}))
	require.False(t, IsForeignKeyViolation(&pq.Error{Code: "23505"}))
}
