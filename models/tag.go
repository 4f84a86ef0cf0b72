package models

import "gorm.io/gorm"

// DefaultTagColor is assigned to tags the router creates on the fly.
const DefaultTagColor = "#9ca3af"

// Tag is keyed by its exact name, case-sensitive, no normalization. The
// unique index backs the find-or-create path in the router.
type Tag struct {
	gorm.Model
	Name  string `gorm:"not null;uniqueIndex" json:"name"`
	Color string `gorm:"not null;default:'#9ca3af'" json:"color"`
}

// TaskTag joins tags to tasks
type TaskTag struct {
	gorm.Model
	TaskID uint `gorm:"not null;index" json:"task_id"`
	TagID  uint `gorm:"not null;index" json:"tag_id"`

	// Relations
	Task Task `json:"-"`
	Tag  Tag  `json:"-"`
}

// IdeaTag joins tags to ideas
type IdeaTag struct {
	gorm.Model
	IdeaID uint `gorm:"not null;index" json:"idea_id"`
	TagID  uint `gorm:"not null;index" json:"tag_id"`

	// Relations
	Idea Idea `json:"-"`
	Tag  Tag  `json:"-"`
}
