package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/mailtrack-api/internal/access"
	"github.com/noah-isme/mailtrack-api/internal/dto"
	"github.com/noah-isme/mailtrack-api/internal/models"
	"github.com/noah-isme/mailtrack-api/internal/query"
	"github.com/noah-isme/mailtrack-api/internal/repository"
	appErrors "github.com/noah-isme/mailtrack-api/pkg/errors"
)

// ReferralRepository is the persistence surface the workflow service needs.
type ReferralRepository interface {
	Create(ctx context.Context, referral *models.Referral) error
	GetByID(ctx context.Context, id string) (*models.Referral, error)
	ListBySection(ctx context.Context, sectionID string, limit, offset int) ([]models.Referral, int, error)
	MarkViewed(ctx context.Context, id string, viewedAt time.Time) (bool, error)
	UpdateStatus(ctx context.Context, id string, status models.ReferralStatus, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// CommentRepository is the discussion-trail persistence surface.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByReferral(ctx context.Context, referralID string) ([]models.Comment, error)
}

// MailFinder resolves mail existence within an access scope.
type MailFinder interface {
	GetByID(ctx context.Context, id string, scope query.Clause) (*models.Mail, error)
}

// SectionFinder resolves section existence.
type SectionFinder interface {
	GetSection(ctx context.Context, id string) (*models.Section, error)
}

// ReferralService implements the referral workflow: routing mail to sections,
// the forward-only status lifecycle and the append-only discussion trail.
type ReferralService struct {
	referrals ReferralRepository
	comments  CommentRepository
	mails     MailFinder
	sections  SectionFinder
	metrics   *MetricsService
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewReferralService constructs the workflow service.
func NewReferralService(referrals ReferralRepository, comments CommentRepository, mails MailFinder, sections SectionFinder, metrics *MetricsService, logger *zap.Logger) *ReferralService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferralService{
		referrals: referrals,
		comments:  comments,
		mails:     mails,
		sections:  sections,
		metrics:   metrics,
		validate:  validator.New(),
		logger:    logger,
	}
}

// Create routes one mail item to one section. The mail must exist within the
// creator's scope; duplicate (mail, section) pairs surface as conflicts via
// the storage unique constraint.
func (s *ReferralService) Create(ctx context.Context, p access.Principal, req dto.CreateReferralRequest) (*dto.ReferralResponse, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !access.CanCreateReferral(p) {
		s.metrics.AccessDenied("referral")
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins and managers may create referrals")
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	if _, err := s.mails.GetByID(ctx, req.MailID, access.MailScope(p)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "mail not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mail")
	}

	if _, err := s.sections.GetSection(ctx, req.SectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	referral := &models.Referral{
		MailID:    req.MailID,
		SectionID: req.SectionID,
		Status:    models.ReferralPending,
	}
	if err := s.referrals.Create(ctx, referral); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "mail already referred to this section")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create referral")
	}

	s.metrics.ReferralCreated()
	s.logger.Info("referral created",
		zap.String("referral_id", referral.ID),
		zap.String("mail_id", referral.MailID),
		zap.String("section_id", referral.SectionID),
	)

	resp := dto.NewReferralResponse(referral)
	return &resp, nil
}

// Get returns one referral. Reading as the owning section head advances a
// Pending referral to Viewed exactly once; concurrent reads race on a single
// conditional update, so the transition never happens twice and never
// regresses a Completed referral.
func (s *ReferralService) Get(ctx context.Context, p access.Principal, id string) (*dto.ReferralResponse, error) {
	referral, err := s.loadAccessible(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if p.Role == models.RoleHead && referral.Status == models.ReferralPending {
		now := time.Now().UTC()
		advanced, err := s.referrals.MarkViewed(ctx, referral.ID, now)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark referral viewed")
		}
		if advanced {
			referral.Status = models.ReferralViewed
			referral.UpdatedAt = now
			s.metrics.ReferralTransition(string(models.ReferralViewed))
		}
	}

	resp := dto.NewReferralResponse(referral)
	return &resp, nil
}

// ListBySection returns one page of a section's referrals, newest first.
func (s *ReferralService) ListBySection(ctx context.Context, p access.Principal, sectionID string, page, limit int) ([]dto.ReferralResponse, *models.Meta, error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	if !access.CanAccessSection(p, sectionID) {
		s.metrics.AccessDenied("referral")
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "no access to this section")
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	referrals, total, err := s.referrals.ListBySection(ctx, sectionID, limit, (page-1)*limit)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list referrals")
	}

	return dto.NewReferralResponses(referrals), models.NewMeta(page, limit, total), nil
}

// UpdateStatus applies one lifecycle transition. Only forward transitions are
// allowed; a same-state update is an idempotent no-op.
func (s *ReferralService) UpdateStatus(ctx context.Context, p access.Principal, id string, req dto.UpdateReferralStatusRequest) (*dto.ReferralResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	referral, err := s.loadAccessible(ctx, p, id)
	if err != nil {
		return nil, err
	}

	if !referral.Status.CanTransitionTo(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrConflict,
			"cannot transition referral from "+string(referral.Status)+" to "+string(req.Status))
	}

	if referral.Status != req.Status {
		now := time.Now().UTC()
		if err := s.referrals.UpdateStatus(ctx, referral.ID, req.Status, now); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "referral not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update referral")
		}
		referral.Status = req.Status
		referral.UpdatedAt = now
		s.metrics.ReferralTransition(string(req.Status))
		s.logger.Info("referral status updated",
			zap.String("referral_id", referral.ID),
			zap.String("status", string(req.Status)),
		)
	}

	resp := dto.NewReferralResponse(referral)
	return &resp, nil
}

// Delete removes a referral and its comments. Heads never delete referrals,
// not even in their own section.
func (s *ReferralService) Delete(ctx context.Context, p access.Principal, id string) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if !access.CanDeleteReferral(p) {
		s.metrics.AccessDenied("referral")
		return appErrors.Clone(appErrors.ErrForbidden, "only admins and managers may delete referrals")
	}

	if err := s.referrals.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "referral not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete referral")
	}

	s.logger.Info("referral deleted", zap.String("referral_id", id))
	return nil
}

// AddComment appends one discussion entry. Completed referrals are closed
// for discussion.
func (s *ReferralService) AddComment(ctx context.Context, p access.Principal, id string, req dto.AddCommentRequest) (*dto.CommentResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	referral, err := s.loadAccessible(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if referral.Status == models.ReferralCompleted {
		return nil, appErrors.Clone(appErrors.ErrConflict, "completed referrals are closed for comments")
	}

	comment := &models.Comment{
		ReferralID: referral.ID,
		UserID:     p.ID,
		Text:       req.Text,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add comment")
	}

	comment.UserName = &p.FullName
	resp := dto.NewCommentResponse(comment)
	return &resp, nil
}

// ListComments returns the referral's discussion trail, oldest first.
func (s *ReferralService) ListComments(ctx context.Context, p access.Principal, id string) ([]dto.CommentResponse, error) {
	referral, err := s.loadAccessible(ctx, p, id)
	if err != nil {
		return nil, err
	}

	comments, err := s.comments.ListByReferral(ctx, referral.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list comments")
	}
	return dto.NewCommentResponses(comments), nil
}

// loadAccessible confirms existence first, then section access: an absent
// referral is 404 for everyone, an existing one outside the head's section is
// an explicit 403.
func (s *ReferralService) loadAccessible(ctx context.Context, p access.Principal, id string) (*models.Referral, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	referral, err := s.referrals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "referral not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load referral")
	}

	if !access.CanAccessReferral(p, referral) {
		s.metrics.AccessDenied("referral")
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no access to this referral")
	}
	return referral, nil
}
