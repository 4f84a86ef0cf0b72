package models

import (
	"time"

	"gorm.io/gorm"
)

// Task is a kanban card. Rank sorts tasks within a lane; email-created tasks
// get the creation timestamp in unix millis so they land after existing
// cards.
type Task struct {
	gorm.Model
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	LaneID      uint   `gorm:"not null;index" json:"lane_id"`

	Progress string     `gorm:"not null;default:'not_started'" json:"progress"`
	Assignee string     `json:"assignee"`
	DueDate  *time.Time `json:"due_date,omitempty"`
	Rank     int64      `gorm:"not null;default:0" json:"rank"`

	// Set when the task was materialized from an inbound email
	SourceEmailID *uint `gorm:"index" json:"source_email_id,omitempty"`

	// Relations
	Lane     Lane      `json:"-"`
	TaskTags []TaskTag `gorm:"foreignKey:TaskID" json:"tags,omitempty"`
}

// TaskActivity is the audit trail for a task across its lifetime
type TaskActivity struct {
	gorm.Model
	TaskID uint `gorm:"not null;index" json:"task_id"`

	ActivityType string    `gorm:"not null" json:"activity_type"` // created_from_email, moved, assigned, etc.
	ActivityAt   time.Time `gorm:"not null" json:"activity_at"`
	Details      string    `gorm:"type:text" json:"details"` // JSON details if needed

	// Relations
	Task Task `json:"-"`
}
