package models

import (
	"time"

	"gorm.io/gorm"
)

// InboundEmail lifecycle. An email is created pending and reaches processed
// or failed exactly once; manual marks a human reclassification and is only
// ever set through the admin API.
const (
	EmailStatusPending   = "pending"
	EmailStatusProcessed = "processed"
	EmailStatusFailed    = "failed"
	EmailStatusManual    = "manual"
)

// InboundEmail is the status-tracking record for every email the router sees.
// Metadata holds the serialized parser.ParsedMetadata; RawPayload the
// envelope as delivered by the gateway.
type InboundEmail struct {
	gorm.Model
	SenderEmail string `gorm:"not null;index" json:"sender_email"`
	SenderName  string `json:"sender_name"`
	Subject     string `json:"subject"`
	BodyText    string `gorm:"type:text" json:"body_text"`
	BodyHTML    string `gorm:"type:text" json:"body_html"`
	RawPayload  string `gorm:"type:text" json:"raw_payload"`

	Status       string `gorm:"not null;default:'pending';index" json:"status"`
	Metadata     string `gorm:"type:text" json:"metadata"`
	ErrorMessage string `json:"error_message,omitempty"`

	// At most one of these is ever set
	TaskID *uint `gorm:"index" json:"task_id,omitempty"`
	IdeaID *uint `gorm:"index" json:"idea_id,omitempty"`

	ReceivedAt  time.Time  `gorm:"not null" json:"received_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`

	// Relations
	Attachments []EmailAttachment `gorm:"foreignKey:EmailID" json:"attachments,omitempty"`
}

// EmailAttachment is a descriptor for a file that arrived with an email. The
// bytes live in external storage; URL is the resolvable location.
type EmailAttachment struct {
	gorm.Model
	EmailID  uint   `gorm:"not null;index" json:"email_id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`

	// Relations
	Email InboundEmail `json:"-"`
}
