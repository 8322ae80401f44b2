package service

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mailtrack-api/internal/dto"
	"github.com/noah-isme/mailtrack-api/internal/models"
	"github.com/noah-isme/mailtrack-api/internal/query"
	"github.com/noah-isme/mailtrack-api/pkg/config"
)

type mailRepoStub struct {
	mails      map[string]*models.Mail
	listTotal  int
	lastLimit  int
	lastOffset int
	lastClause query.Clause
	createErr  error
	created    *models.Mail
}

func newMailRepoStub() *mailRepoStub {
	return &mailRepoStub{mails: make(map[string]*models.Mail)}
}

func (s *mailRepoStub) List(ctx context.Context, clause query.Clause, limit, offset int) ([]models.Mail, int, error) {
	s.lastClause = clause
	s.lastLimit = limit
	s.lastOffset = offset
	var out []models.Mail
	for _, mail := range s.mails {
		out = append(out, *mail)
	}
	return out, s.listTotal, nil
}

func (s *mailRepoStub) GetByID(ctx context.Context, id string, scope query.Clause) (*models.Mail, error) {
	if mail, ok := s.mails[id]; ok {
		copied := *mail
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *mailRepoStub) CreateWithAttachments(ctx context.Context, mail *models.Mail, attachments []models.Attachment) error {
	if s.createErr != nil {
		return s.createErr
	}
	mail.ID = "mail-new"
	s.created = mail
	copied := *mail
	s.mails[mail.ID] = &copied
	return nil
}

func (s *mailRepoStub) ListAttachments(ctx context.Context, mailID string) ([]models.Attachment, error) {
	return nil, nil
}

func (s *mailRepoStub) GetAttachment(ctx context.Context, id string) (*models.Attachment, error) {
	return nil, sql.ErrNoRows
}

type fileStoreStub struct {
	saved   []string
	deleted []string
}

func (s *fileStoreStub) SaveStream(filename string, r io.Reader) (string, error) {
	s.saved = append(s.saved, filename)
	return filename, nil
}

func (s *fileStoreStub) Delete(filename string) error {
	s.deleted = append(s.deleted, filename)
	return nil
}

func newMailService(repo *mailRepoStub) *MailService {
	uploads := config.UploadsConfig{MaxFileSizeBytes: 1024, MaxFilesPerMail: 2}
	return NewMailService(repo, &fileStoreStub{}, uploads, nil, nil)
}

func TestMailListNormalizesPagination(t *testing.T) {
	repo := newMailRepoStub()
	repo.listTotal = 25
	svc := newMailService(repo)

	_, meta, err := svc.List(context.Background(), adminPrincipal(), models.MailSearchFilter{})
	require.NoError(t, err)
	require.Equal(t, 10, repo.lastLimit)
	require.Equal(t, 0, repo.lastOffset)
	require.Equal(t, 1, meta.Page)
	require.Equal(t, 3, meta.TotalPages)
}

func TestMailListRejectsBadFilters(t *testing.T) {
	svc := newMailService(newMailRepoStub())

	_, _, err := svc.List(context.Background(), adminPrincipal(), models.MailSearchFilter{Direction: "sideways"})
	require.Equal(t, http.StatusBadRequest, errStatus(t, err))
}

func TestMailGetOutOfScopeIsNotFound(t *testing.T) {
	svc := newMailService(newMailRepoStub())

	_, err := svc.Get(context.Background(), headPrincipal("sec-1"), "mail-hidden")
	require.Equal(t, http.StatusNotFound, errStatus(t, err))
}

func TestMailCreateForbiddenForHeads(t *testing.T) {
	svc := newMailService(newMailRepoStub())

	_, err := svc.Create(context.Background(), headPrincipal("sec-1"), dto.CreateMailRequest{}, nil)
	require.Equal(t, http.StatusForbidden, errStatus(t, err))
}

func TestMailCreateDirectionRequiresCharacterizingDepartment(t *testing.T) {
	svc := newMailService(newMailRepoStub())

	_, err := svc.Create(context.Background(), managerPrincipal("dept-1"), dto.CreateMailRequest{
		ReferenceNumber: "REF-001",
		MailDate:        "2026-01-15",
		Subject:         "Budget",
		Direction:       "incoming",
	}, nil)
	require.Equal(t, http.StatusBadRequest, errStatus(t, err))

	_, err = svc.Create(context.Background(), managerPrincipal("dept-1"), dto.CreateMailRequest{
		ReferenceNumber: "REF-001",
		MailDate:        "2026-01-15",
		Subject:         "Budget",
		Direction:       "outgoing",
	}, nil)
	require.Equal(t, http.StatusBadRequest, errStatus(t, err))
}

func TestMailCreateRejectsBadDate(t *testing.T) {
	svc := newMailService(newMailRepoStub())

	_, err := svc.Create(context.Background(), adminPrincipal(), dto.CreateMailRequest{
		ReferenceNumber:  "REF-001",
		MailDate:         "15/01/2026",
		Subject:          "Budget",
		Direction:        "incoming",
		FromDepartmentID: "11111111-1111-1111-1111-111111111111",
	}, nil)
	require.Equal(t, http.StatusBadRequest, errStatus(t, err))
}

func TestMailCreateDuplicateReferenceIsConflict(t *testing.T) {
	repo := newMailRepoStub()
	repo.createErr = &pq.Error{Code: "23505"}
	svc := newMailService(repo)

	_, err := svc.Create(context.Background(), adminPrincipal(), dto.CreateMailRequest{
		ReferenceNumber:  "REF-001",
		MailDate:         "2026-01-15",
		Subject:          "Budget",
		Direction:        "incoming",
		FromDepartmentID: "11111111-1111-1111-1111-111111111111",
	}, nil)
	require.Equal(t, http.StatusConflict, errStatus(t, err))
}

func TestMailCreateSucceeds(t *testing.T) {
	repo := newMailRepoStub()
	svc := newMailService(repo)

	mail, err := svc.Create(context.Background(), managerPrincipal("dept-1"), dto.CreateMailRequest{
		ReferenceNumber:  "REF-001",
		MailDate:         "2026-01-15",
		Subject:          "Budget",
		Direction:        "incoming",
		FromDepartmentID: "11111111-1111-1111-1111-111111111111",
	}, nil)
	require.NoError(t, err)
	require.Equal(t, "mail-new", mail.ID)
	require.Equal(t, models.DirectionIncoming, mail.Direction)
	require.Equal(t, "u-mgr", repo.created.UploaderID)
}
