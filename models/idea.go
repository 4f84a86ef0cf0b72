package models

import "gorm.io/gorm"

// Idea statuses
const (
	IdeaNotAddressed = "not_addressed"
	IdeaExploring    = "exploring"
	IdeaAccepted     = "accepted"
	IdeaRejected     = "rejected"
)

// Idea is a captured suggestion that hasn't been committed to the board yet.
type Idea struct {
	gorm.Model
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Status      string `gorm:"not null;default:'not_addressed'" json:"status"`

	// Set when the idea was materialized from an inbound email
	SourceEmailID *uint `gorm:"index" json:"source_email_id,omitempty"`

	// Relations
	IdeaTags []IdeaTag `gorm:"foreignKey:IdeaID" json:"tags,omitempty"`
}
