package models

import "time"

// ReferralStatus is the referral lifecycle state.
type ReferralStatus string

const (
	ReferralPending   ReferralStatus = "Pending"
	ReferralViewed    ReferralStatus = "Viewed"
	ReferralCompleted ReferralStatus = "Completed"
)

// Valid reports whether the status is a known constant.
func (s ReferralStatus) Valid() bool {
	switch s {
	case ReferralPending, ReferralViewed, ReferralCompleted:
		return true
	}
	return false
}

// CanTransitionTo encodes the forward-only lifecycle:
// Pending -> Viewed -> Completed, with Completed terminal.
// A same-state transition is allowed so repeated updates stay idempotent.
func (s ReferralStatus) CanTransitionTo(next ReferralStatus) bool {
	if s == next {
		return true
	}
	switch s {
	case ReferralPending:
		return next == ReferralViewed || next == ReferralCompleted
	case ReferralViewed:
		return next == ReferralCompleted
	default:
		return false
	}
}

// Referral routes one mail item to one section for action.
// (MailID, SectionID) is unique.
type Referral struct {
	ID        string         `db:"id" json:"id"`
	MailID    string         `db:"mail_id" json:"mailId"`
	SectionID string         `db:"section_id" json:"sectionId"`
	Status    ReferralStatus `db:"status" json:"status"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`

	ReferenceNumber *string    `db:"reference_number" json:"referenceNumber,omitempty"`
	Subject         *string    `db:"subject" json:"subject,omitempty"`
	MailDate        *time.Time `db:"mail_date" json:"mailDate,omitempty"`
	SectionName     *string    `db:"section_name" json:"sectionName,omitempty"`
	DepartmentName  *string    `db:"department_name" json:"departmentName,omitempty"`
	CommentCount    int        `db:"comment_count" json:"commentCount"`
}

// Comment is one append-only discussion entry on a referral.
type Comment struct {
	ID         string    `db:"id" json:"id"`
	ReferralID string    `db:"referral_id" json:"referralId"`
	UserID     string    `db:"user_id" json:"userId"`
	Text       string    `db:"text" json:"text"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`

	UserName *string `db:"user_name" json:"-"`
}
