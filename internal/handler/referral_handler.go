package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mailtrack-api/internal/access"
	"github.com/noah-isme/mailtrack-api/internal/dto"
	"github.com/noah-isme/mailtrack-api/internal/models"
	appErrors "github.com/noah-isme/mailtrack-api/pkg/errors"
	"github.com/noah-isme/mailtrack-api/pkg/response"
)

// ReferralService is the surface the referral handler depends on.
type ReferralService interface {
	Create(ctx context.Context, p access.Principal, req dto.CreateReferralRequest) (*dto.ReferralResponse, error)
	Get(ctx context.Context, p access.Principal, id string) (*dto.ReferralResponse, error)
	ListBySection(ctx context.Context, p access.Principal, sectionID string, page, limit int) ([]dto.ReferralResponse, *models.Meta, error)
	UpdateStatus(ctx context.Context, p access.Principal, id string, req dto.UpdateReferralStatusRequest) (*dto.ReferralResponse, error)
	Delete(ctx context.Context, p access.Principal, id string) error
	AddComment(ctx context.Context, p access.Principal, id string, req dto.AddCommentRequest) (*dto.CommentResponse, error)
	ListComments(ctx context.Context, p access.Principal, id string) ([]dto.CommentResponse, error)
}

// ReferralHandler exposes the referral workflow endpoints.
type ReferralHandler struct {
	referrals ReferralService
}

// NewReferralHandler constructs the handler.
func NewReferralHandler(referrals ReferralService) *ReferralHandler {
	return &ReferralHandler{referrals: referrals}
}

// Create routes a mail item to a section.
func (h *ReferralHandler) Create(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}

	var req dto.CreateReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validationf("body: malformed request"))
		return
	}

	referral, err := h.referrals.Create(c.Request.Context(), p, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "referral created", referral)
}

// Get returns one referral; the owning head's first read advances it to
// Viewed.
func (h *ReferralHandler) Get(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}

	referral, err := h.referrals.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "referral detail", referral)
}

// ListBySection returns one page of a section's referrals.
func (h *ReferralHandler) ListBySection(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}

	pageNum, limit, err := parsePagination(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	referrals, meta, err := h.referrals.ListBySection(c.Request.Context(), p, c.Param("id"), pageNum, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "referral list", referrals, meta)
}

// UpdateStatus applies one lifecycle transition.
func (h *ReferralHandler) UpdateStatus(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}

	var req dto.UpdateReferralStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validationf("body: malformed request"))
		return
	}

	referral, err := h.referrals.UpdateStatus(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "referral updated", referral)
}

// Delete removes a referral and its comments.
func (h *ReferralHandler) Delete(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}

	if err := h.referrals.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "referral deleted", nil)
}

// AddComment appends one discussion entry.
func (h *ReferralHandler) AddComment(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}

	var req dto.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validationf("body: malformed request"))
		return
	}

	comment, err := h.referrals.AddComment(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "comment added", comment)
}

// ListComments returns the discussion trail, oldest first.
func (h *ReferralHandler) ListComments(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}

	comments, err := h.referrals.ListComments(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "comments", comments)
}
