package models

import "time"

// Direction tells whether a mail item was received or sent.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Valid reports whether the direction is a known constant.
func (d Direction) Valid() bool {
	return d == DirectionIncoming || d == DirectionOutgoing
}

// Mail is one tracked correspondence item.
type Mail struct {
	ID               string    `db:"id" json:"id"`
	ReferenceNumber  string    `db:"reference_number" json:"referenceNumber"`
	MailDate         time.Time `db:"mail_date" json:"mailDate"`
	Subject          string    `db:"subject" json:"subject"`
	Direction        Direction `db:"direction" json:"direction"`
	FromDepartmentID *string   `db:"from_department_id" json:"fromDepartmentId,omitempty"`
	ToDepartmentID   *string   `db:"to_department_id" json:"toDepartmentId,omitempty"`
	UploaderID       string    `db:"uploader_id" json:"uploaderId"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`

	FromDepartmentName *string `db:"from_department_name" json:"-"`
	ToDepartmentName   *string `db:"to_department_name" json:"-"`
	UploaderName       *string `db:"uploader_name" json:"-"`
	AttachmentCount    int     `db:"attachment_count" json:"-"`
}

// Attachment is metadata for one uploaded file owned by a mail item.
type Attachment struct {
	ID               string    `db:"id" json:"id"`
	MailID           string    `db:"mail_id" json:"mailId"`
	FilePath         string    `db:"file_path" json:"-"`
	OriginalFilename string    `db:"original_filename" json:"originalFilename"`
	FileSize         int64     `db:"file_size" json:"fileSize"`
	MimeType         string    `db:"mime_type" json:"mimeType"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}

// MailSearchFilter captures the optional search predicates for mail listing.
// Zero values mean "not filtered".
type MailSearchFilter struct {
	DateFrom        *time.Time
	DateTo          *time.Time
	DepartmentID    string
	ReferenceNumber string
	Subject         string
	Direction       Direction
	Page            int
	Limit           int
}

// Normalize clamps pagination to sane bounds.
func (f *MailSearchFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}

// Offset derives the row offset for the current page.
func (f MailSearchFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}
