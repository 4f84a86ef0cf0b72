package models

import "gorm.io/gorm"

// Person is the identity record for an email sender. Exactly one row exists
// per distinct address; the unique index is what makes concurrent
// find-or-create safe (a conflicting insert is re-fetched, never duplicated).
type Person struct {
	gorm.Model
	Email string `gorm:"not null;uniqueIndex" json:"email"`
	Name  string `gorm:"not null" json:"name"`
}
