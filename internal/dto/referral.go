package dto

import (
	"time"

	"github.com/noah-isme/mailtrack-api/internal/models"
)

// CreateReferralRequest routes one mail item to one section.
type CreateReferralRequest struct {
	MailID    string `json:"mailId" validate:"required,uuid"`
	SectionID string `json:"sectionId" validate:"required,uuid"`
}

// UpdateReferralStatusRequest carries the requested lifecycle transition.
type UpdateReferralStatusRequest struct {
	Status models.ReferralStatus `json:"status" validate:"required,oneof=Pending Viewed Completed"`
}

// AddCommentRequest appends one discussion entry.
type AddCommentRequest struct {
	Text string `json:"text" validate:"required,min=1,max=1000"`
}

// ReferralResponse is the wire shape of a referral.
type ReferralResponse struct {
	ID              string                `json:"id"`
	MailID          string                `json:"mailId"`
	SectionID       string                `json:"sectionId"`
	Status          models.ReferralStatus `json:"status"`
	ReferenceNumber *string               `json:"referenceNumber,omitempty"`
	Subject         *string               `json:"subject,omitempty"`
	MailDate        *time.Time            `json:"mailDate,omitempty"`
	SectionName     *string               `json:"sectionName,omitempty"`
	DepartmentName  *string               `json:"departmentName,omitempty"`
	CommentCount    int                   `json:"commentCount"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

// NewReferralResponse converts a referral row into the response shape.
func NewReferralResponse(referral *models.Referral) ReferralResponse {
	return ReferralResponse{
		ID:              referral.ID,
		MailID:          referral.MailID,
		SectionID:       referral.SectionID,
		Status:          referral.Status,
		ReferenceNumber: referral.ReferenceNumber,
		Subject:         referral.Subject,
		MailDate:        referral.MailDate,
		SectionName:     referral.SectionName,
		DepartmentName:  referral.DepartmentName,
		CommentCount:    referral.CommentCount,
		CreatedAt:       referral.CreatedAt,
		UpdatedAt:       referral.UpdatedAt,
	}
}

// NewReferralResponses converts a page of referral rows.
func NewReferralResponses(referrals []models.Referral) []ReferralResponse {
	out := make([]ReferralResponse, 0, len(referrals))
	for i := range referrals {
		out = append(out, NewReferralResponse(&referrals[i]))
	}
	return out
}

// CommentResponse is the wire shape of one comment.
type CommentResponse struct {
	ID         string    `json:"id"`
	ReferralID string    `json:"referralId"`
	UserID     string    `json:"userId"`
	Text       string    `json:"text"`
	User       *NameRef  `json:"user,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewCommentResponse converts a comment row.
func NewCommentResponse(comment *models.Comment) CommentResponse {
	resp := CommentResponse{
		ID:         comment.ID,
		ReferralID: comment.ReferralID,
		UserID:     comment.UserID,
		Text:       comment.Text,
		CreatedAt:  comment.CreatedAt,
	}
	if comment.UserName != nil {
		resp.User = &NameRef{Name: *comment.UserName}
	}
	return resp
}

// NewCommentResponses converts comment rows in stored order.
func NewCommentResponses(comments []models.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, NewCommentResponse(&comments[i]))
	}
	return out
}
