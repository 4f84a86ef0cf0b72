package models

import (
	"fmt"

	"gorm.io/gorm"
)

// Lane is a kanban column. Position orders lanes left to right; the router
// places email-created tasks in the leftmost lane.
type Lane struct {
	gorm.Model
	Name     string `gorm:"not null" json:"name"`
	Position int    `gorm:"not null;default:0" json:"position"`

	// Relations
	Tasks []Task `gorm:"foreignKey:LaneID" json:"tasks,omitempty"`
}

// Progress states a task can be in, orthogonal to its lane.
const (
	ProgressNotStarted  = "not_started"
	ProgressWorking     = "working"
	ProgressBlocked     = "blocked"
	ProgressNeedsReview = "needs_review"
	ProgressCompleted   = "completed"
)

// CreateDefaultLanes seeds the board columns if they don't exist yet
func CreateDefaultLanes(db *gorm.DB) error {
	defaultLanes := []Lane{
		{Name: "To Do", Position: 0},
		{Name: "In Progress", Position: 1},
		{Name: "Done", Position: 2},
	}

	for _, lane := range defaultLanes {
		var existing Lane
		err := db.Where("name = ?", lane.Name).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			if err := db.Create(&lane).Error; err != nil {
				return fmt.Errorf("failed to create lane %s: %w", lane.Name, err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to check for lane %s: %w", lane.Name, err)
		}
	}

	return nil
}
