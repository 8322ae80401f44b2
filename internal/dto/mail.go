package dto

import (
	"time"

	"github.com/noah-isme/mailtrack-api/internal/models"
)

// CreateMailRequest carries the multipart form fields for registering mail.
// The uploader identity always comes from the authenticated principal.
type CreateMailRequest struct {
	ReferenceNumber  string `form:"reference_number" validate:"required,min=1,max=100"`
	MailDate         string `form:"mail_date" validate:"required"`
	Subject          string `form:"subject" validate:"required,min=1,max=1000"`
	Direction        string `form:"direction" validate:"required,oneof=incoming outgoing"`
	FromDepartmentID string `form:"from_department_id" validate:"omitempty,uuid"`
	ToDepartmentID   string `form:"to_department_id" validate:"omitempty,uuid"`
}

// NameRef is a minimal nested reference in responses.
type NameRef struct {
	Name string `json:"name"`
}

// AttachmentResponse describes one attachment in mail detail responses.
type AttachmentResponse struct {
	ID               string `json:"id"`
	OriginalFilename string `json:"originalFilename"`
	FileSize         int64  `json:"fileSize"`
	MimeType         string `json:"mimeType"`
}

// MailResponse is the wire shape of a mail item.
type MailResponse struct {
	ID              string               `json:"id"`
	ReferenceNumber string               `json:"referenceNumber"`
	MailDate        time.Time            `json:"mailDate"`
	Subject         string               `json:"subject"`
	Direction       models.Direction     `json:"direction"`
	FromDepartment  *NameRef             `json:"fromDepartment"`
	ToDepartment    *NameRef             `json:"toDepartment"`
	Uploader        NameRef              `json:"uploader"`
	AttachmentCount int                  `json:"attachmentCount"`
	Attachments     []AttachmentResponse `json:"attachments,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// NewMailResponse converts a mail row into the response shape.
func NewMailResponse(mail *models.Mail) MailResponse {
	resp := MailResponse{
		ID:              mail.ID,
		ReferenceNumber: mail.ReferenceNumber,
		MailDate:        mail.MailDate,
		Subject:         mail.Subject,
		Direction:       mail.Direction,
		AttachmentCount: mail.AttachmentCount,
		CreatedAt:       mail.CreatedAt,
		UpdatedAt:       mail.UpdatedAt,
	}
	if mail.FromDepartmentName != nil {
		resp.FromDepartment = &NameRef{Name: *mail.FromDepartmentName}
	}
	if mail.ToDepartmentName != nil {
		resp.ToDepartment = &NameRef{Name: *mail.ToDepartmentName}
	}
	if mail.UploaderName != nil {
		resp.Uploader = NameRef{Name: *mail.UploaderName}
	}
	return resp
}

// NewMailResponses converts a page of mail rows.
func NewMailResponses(mails []models.Mail) []MailResponse {
	out := make([]MailResponse, 0, len(mails))
	for i := range mails {
		out = append(out, NewMailResponse(&mails[i]))
	}
	return out
}

// NewAttachmentResponses converts attachment rows.
func NewAttachmentResponses(attachments []models.Attachment) []AttachmentResponse {
	out := make([]AttachmentResponse, 0, len(attachments))
	for _, a := range attachments {
		out = append(out, AttachmentResponse{
			ID:               a.ID,
			OriginalFilename: a.OriginalFilename,
			FileSize:         a.FileSize,
			MimeType:         a.MimeType,
		})
	}
	return out
}
