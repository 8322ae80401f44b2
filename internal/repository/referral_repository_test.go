package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mailtrack-api/internal/models"
)

func newReferralRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestReferralRepositoryMarkViewedIsConditional(t *testing.T) {
	db, mock, cleanup := newReferralRepoMock(t)
	defer cleanup()

	repo := NewReferralRepository(db)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE referrals SET status")).
		WithArgs("ref-1", string(models.ReferralViewed), now, string(models.ReferralPending)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	advanced, err := repo.MarkViewed(context.Background(), "ref-1", now)
	require.NoError(t, err)
	require.True(t, advanced)

	// A second reader loses the conditional update and reports no transition.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE referrals SET status")).
		WithArgs("ref-1", string(models.ReferralViewed), now, string(models.ReferralPending)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	advanced, err = repo.MarkViewed(context.Background(), "ref-1", now)
	require.NoError(t, err)
	require.False(t, advanced)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReferralRepositoryUpdateStatusMissingRow(t *testing.T) {
	db, mock, cleanup := newReferralRepoMock(t)
	defer cleanup()

	repo := NewReferralRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE referrals SET status")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "ref-missing", models.ReferralCompleted, time.Now())
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReferralRepositoryDeleteRemovesCommentsFirst(t *testing.T) {
	db, mock, cleanup := newReferralRepoMock(t)
	defer cleanup()

	repo := NewReferralRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM comments WHERE referral_id")).
		WithArgs("ref-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM referrals WHERE id")).
		WithArgs("ref-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "ref-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReferralRepositoryDeleteMissingRowRollsBack(t *testing.T) {
	db, mock, cleanup := newReferralRepoMock(t)
	defer cleanup()

	repo := NewReferralRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM comments WHERE referral_id")).
		WithArgs("ref-missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM referrals WHERE id")).
		WithArgs("ref-missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), "ref-missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReferralRepositoryListBySectionPaginates(t *testing.T) {
	db, mock, cleanup := newReferralRepoMock(t)
	defer cleanup()

	repo := NewReferralRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM referrals r WHERE r.section_id")).
		WithArgs("sec-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "mail_id", "section_id", "status", "created_at", "updated_at",
		"reference_number", "subject", "mail_date",
		"section_name", "department_name", "comment_count",
	}).AddRow("ref-1", "mail-1", "sec-1", "Pending", now, now, "REF-001", "Budget", now, "Payroll", "Finance", 4)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT r.id, r.mail_id")).
		WithArgs("sec-1", 10, 0).
		WillReturnRows(rows)

	referrals, total, err := repo.ListBySection(context.Background(), "sec-1", 10, 0)
	require.NoError(t, err)
	require.Equal(t, 7, total)
	require.Len(t, referrals, 1)
	require.Equal(t, 4, referrals[0].CommentCount)
	require.NoError(t, mock.ExpectationsWereMet())
}
