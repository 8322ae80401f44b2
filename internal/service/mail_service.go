package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"mime/multipart"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/mailtrack-api/internal/access"
	"github.com/noah-isme/mailtrack-api/internal/dto"
	"github.com/noah-isme/mailtrack-api/internal/models"
	"github.com/noah-isme/mailtrack-api/internal/query"
	"github.com/noah-isme/mailtrack-api/internal/repository"
	"github.com/noah-isme/mailtrack-api/pkg/config"
	appErrors "github.com/noah-isme/mailtrack-api/pkg/errors"
)

// MailRepository is the persistence surface the mail service needs.
type MailRepository interface {
	List(ctx context.Context, clause query.Clause, limit, offset int) ([]models.Mail, int, error)
	GetByID(ctx context.Context, id string, scope query.Clause) (*models.Mail, error)
	CreateWithAttachments(ctx context.Context, mail *models.Mail, attachments []models.Attachment) error
	ListAttachments(ctx context.Context, mailID string) ([]models.Attachment, error)
	GetAttachment(ctx context.Context, id string) (*models.Attachment, error)
}

// FileStore writes and removes uploaded attachment files.
type FileStore interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Delete(filename string) error
}

// MailService implements the mail registry: scoped listing, scoped reads and
// transactional creation with attachments.
type MailService struct {
	mails    MailRepository
	files    FileStore
	uploads  config.UploadsConfig
	metrics  *MetricsService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewMailService constructs the mail service.
func NewMailService(mails MailRepository, files FileStore, uploads config.UploadsConfig, metrics *MetricsService, logger *zap.Logger) *MailService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MailService{
		mails:    mails,
		files:    files,
		uploads:  uploads,
		metrics:  metrics,
		validate: validator.New(),
		logger:   logger,
	}
}

// List returns one page of mail visible to the principal, filtered by the
// optional search predicates. The count and the page rows always come from
// the identical predicate.
func (s *MailService) List(ctx context.Context, p access.Principal, filter models.MailSearchFilter) ([]dto.MailResponse, *models.Meta, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	if filter.Direction != "" && !filter.Direction.Valid() {
		return nil, nil, appErrors.Validationf("direction: must be incoming or outgoing")
	}
	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateTo.Before(*filter.DateFrom) {
		return nil, nil, appErrors.Validationf("dateTo: must not precede dateFrom")
	}
	filter.Normalize()

	clause := repository.SearchClause(access.MailScope(p), filter)
	mails, total, err := s.mails.List(ctx, clause, filter.Limit, filter.Offset())
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list mail")
	}

	return dto.NewMailResponses(mails), models.NewMeta(filter.Page, filter.Limit, total), nil
}

// Get returns one mail item with its attachments. Rows outside the
// principal's scope are reported as absent.
func (s *MailService) Get(ctx context.Context, p access.Principal, id string) (*dto.MailResponse, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	mail, err := s.mails.GetByID(ctx, id, access.MailScope(p))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mail not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mail")
	}

	attachments, err := s.mails.ListAttachments(ctx, mail.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachments")
	}

	resp := dto.NewMailResponse(mail)
	resp.Attachments = dto.NewAttachmentResponses(attachments)
	resp.AttachmentCount = len(attachments)
	return &resp, nil
}

// Create registers a mail item with its uploaded files in one transaction.
// Only admins and managers may register mail.
func (s *MailService) Create(ctx context.Context, p access.Principal, req dto.CreateMailRequest, files []*multipart.FileHeader) (*dto.MailResponse, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !access.CanCreateMail(p) {
		s.metrics.AccessDenied("mail")
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins and managers may register mail")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	mailDate, err := time.Parse("2006-01-02", req.MailDate)
	if err != nil {
		return nil, appErrors.Validationf("mailDate: must be a YYYY-MM-DD date")
	}

	direction := models.Direction(req.Direction)
	switch direction {
	case models.DirectionIncoming:
		if req.FromDepartmentID == "" {
			return nil, appErrors.Validationf("fromDepartmentId: required for incoming mail")
		}
	case models.DirectionOutgoing:
		if req.ToDepartmentID == "" {
			return nil, appErrors.Validationf("toDepartmentId: required for outgoing mail")
		}
	}

	if err := s.checkUploads(files); err != nil {
		return nil, err
	}

	mail := &models.Mail{
		ReferenceNumber: req.ReferenceNumber,
		MailDate:        mailDate,
		Subject:         req.Subject,
		Direction:       direction,
		UploaderID:      p.ID,
	}
	if req.FromDepartmentID != "" {
		mail.FromDepartmentID = &req.FromDepartmentID
	}
	if req.ToDepartmentID != "" {
		mail.ToDepartmentID = &req.ToDepartmentID
	}

	attachments, err := s.saveUploads(files)
	if err != nil {
		return nil, err
	}

	if err := s.mails.CreateWithAttachments(ctx, mail, attachments); err != nil {
		s.discardUploads(attachments)
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "reference number already registered")
		}
		if repository.IsForeignKeyViolation(err) {
			return nil, appErrors.Validationf("departmentId: unknown department")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create mail")
	}

	s.metrics.MailCreated()
	s.logger.Info("mail registered",
		zap.String("mail_id", mail.ID),
		zap.String("reference_number", mail.ReferenceNumber),
		zap.Int("attachments", len(attachments)),
	)

	resp := dto.NewMailResponse(mail)
	resp.Uploader = dto.NameRef{Name: p.FullName}
	resp.Attachments = dto.NewAttachmentResponses(attachments)
	resp.AttachmentCount = len(attachments)
	return &resp, nil
}

// Attachments lists attachment metadata for a mail item the principal can see.
func (s *MailService) Attachments(ctx context.Context, p access.Principal, mailID string) ([]dto.AttachmentResponse, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.mails.GetByID(ctx, mailID, access.MailScope(p)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mail not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mail")
	}

	attachments, err := s.mails.ListAttachments(ctx, mailID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachments")
	}
	return dto.NewAttachmentResponses(attachments), nil
}

// Attachment resolves one attachment for download, enforcing the mail scope.
// An attachment whose mail the principal cannot see is reported as absent.
func (s *MailService) Attachment(ctx context.Context, p access.Principal, id string) (*models.Attachment, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	attachment, err := s.mails.GetAttachment(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attachment")
	}

	if _, err := s.mails.GetByID(ctx, attachment.MailID, access.MailScope(p)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "attachment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mail")
	}

	return attachment, nil
}

func (s *MailService) checkUploads(files []*multipart.FileHeader) error {
	if s.uploads.MaxFilesPerMail > 0 && len(files) > s.uploads.MaxFilesPerMail {
		return appErrors.Validationf("files: too many attachments")
	}
	for _, fh := range files {
		if s.uploads.MaxFileSizeBytes > 0 && fh.Size > s.uploads.MaxFileSizeBytes {
			return appErrors.Validationf("files: " + fh.Filename + " exceeds the size limit")
		}
		if len(s.uploads.AllowedMIMEs) > 0 && !s.mimeAllowed(fh.Header.Get("Content-Type")) {
			return appErrors.Validationf("files: " + fh.Filename + " has an unsupported type")
		}
	}
	return nil
}

func (s *MailService) mimeAllowed(mime string) bool {
	for _, allowed := range s.uploads.AllowedMIMEs {
		if mime == allowed {
			return true
		}
	}
	return false
}

func (s *MailService) saveUploads(files []*multipart.FileHeader) ([]models.Attachment, error) {
	attachments := make([]models.Attachment, 0, len(files))
	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			s.discardUploads(attachments)
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
		}

		stored := uuid.NewString() + filepath.Ext(fh.Filename)
		path, err := s.files.SaveStream(stored, src)
		src.Close() //nolint:errcheck
		if err != nil {
			s.discardUploads(attachments)
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
		}

		attachments = append(attachments, models.Attachment{
			FilePath:         path,
			OriginalFilename: fh.Filename,
			FileSize:         fh.Size,
			MimeType:         fh.Header.Get("Content-Type"),
		})
	}
	return attachments, nil
}

func (s *MailService) discardUploads(attachments []models.Attachment) {
	for _, a := range attachments {
		if err := s.files.Delete(a.FilePath); err != nil {
			s.logger.Warn("failed to remove stored upload", zap.String("path", a.FilePath), zap.Error(err))
		}
	}
}
