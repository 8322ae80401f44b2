package handler

import (
	"context"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/mailtrack-api/internal/access"
	"github.com/noah-isme/mailtrack-api/internal/dto"
	"github.com/noah-isme/mailtrack-api/internal/models"
	appErrors "github.com/noah-isme/mailtrack-api/pkg/errors"
	"github.com/noah-isme/mailtrack-api/pkg/response"
)

// MailService is the surface the mail handler depends on.
type MailService interface {
	List(ctx context.Context, p access.Principal, filter models.MailSearchFilter) ([]dto.MailResponse, *models.Meta, error)
	Get(ctx context.Context, p access.Principal, id string) (*dto.MailResponse, error)
	Create(ctx context.Context, p access.Principal, req dto.CreateMailRequest, files []*multipart.FileHeader) (*dto.MailResponse, error)
	Attachments(ctx context.Context, p access.Principal, mailID string) ([]dto.AttachmentResponse, error)
	Attachment(ctx context.Context, p access.Principal, id string) (*models.Attachment, error)
}

// AttachmentResolver maps stored attachment paths to filesystem locations.
type AttachmentResolver interface {
	Path(filename string) string
}

// MailHandler exposes the mail registry endpoints.
type MailHandler struct {
	mails MailService
	files AttachmentResolver
}

// NewMailHandler constructs the handler.
func NewMailHandler(mails MailService, files AttachmentResolver) *MailHandler {
	return &MailHandler{mails: mails, files: files}
}

// List returns one page of visible mail; search filters are plain query
// parameters so listing and searching share one endpoint.
func (h *MailHandler) List(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}

	filter, err := parseSearchFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	mails, meta, err := h.mails.List(c.Request.Context(), p, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, "mail list", mails, meta)
}

// Get returns one mail item with attachments.
func (h *MailHandler) Get(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}

	mail, err := h.mails.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "mail detail", mail)
}

// Create registers a mail item from a multipart form with optional files.
func (h *MailHandler) Create(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}

	var req dto.CreateMailRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, appErrors.Validationf("body: malformed multipart form"))
		return
	}

	var files []*multipart.FileHeader
	if form, err := c.MultipartForm(); err == nil && form != nil {
		files = form.File["files"]
	}

	mail, err := h.mails.Create(c.Request.Context(), p, req, files)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "mail registered", mail)
}

// Attachments lists attachment metadata for one mail item.
func (h *MailHandler) Attachments(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}

	attachments, err := h.mails.Attachments(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "attachments", attachments)
}

// Download streams one attachment with its original filename.
func (h *MailHandler) Download(c *gin.Context) {
	p, ok := principalFromContext(c)
	if !ok {
		return
	}

	attachment, err := h.mails.Attachment(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.FileAttachment(h.files.Path(attachment.FilePath), attachment.OriginalFilename)
}

func parseSearchFilter(c *gin.Context) (models.MailSearchFilter, error) {
	filter := models.MailSearchFilter{
		DepartmentID:    c.Query("departmentId"),
		ReferenceNumber: c.Query("referenceNumber"),
		Subject:         c.Query("subject"),
		Direction:       models.Direction(c.Query("direction")),
	}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return filter, appErrors.Validationf("page: must be a number")
		}
		filter.Page = page
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return filter, appErrors.Validationf("limit: must be a number")
		}
		filter.Limit = limit
	}
	if raw := c.Query("dateFrom"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, appErrors.Validationf("dateFrom: must be a YYYY-MM-DD date")
		}
		filter.DateFrom = &from
	}
	if raw := c.Query("dateTo"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return filter, appErrors.Validationf("dateTo: must be a YYYY-MM-DD date")
		}
		filter.DateTo = &to
	}

	return filter, nil
}
