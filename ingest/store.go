package ingest

import (
	"errors"

	"taskboard/models"
)

// ErrValidation marks errors caused by a bad inbound payload (missing sender
// address). Callers map it to a 400.
var ErrValidation = errors.New("validation failed")

// ErrPersistence marks store failures that abort a routing run. Callers map
// it to a 500.
var ErrPersistence = errors.New("persistence failed")

// Store is the persistence collaborator the router writes through. It is an
// interface so tests can substitute a double; the production implementation
// is GORM over Postgres.
//
// EnsurePerson and FindOrCreateTag are find-or-create by natural key. The
// implementation must be race-safe: a unique constraint on the key plus
// re-fetch on insert conflict, so concurrent routing of two emails never
// duplicates a person or tag.
type Store interface {
	CreateEmail(email *models.InboundEmail) error
	UpdateEmail(email *models.InboundEmail) error
	GetEmail(id uint) (*models.InboundEmail, error)
	CreateAttachment(att *models.EmailAttachment) error

	EnsurePerson(email, name string) (*models.Person, error)
	FindOrCreateTag(name string) (*models.Tag, error)

	DefaultLane() (*models.Lane, error)
	CreateTask(task *models.Task) error
	CreateIdea(idea *models.Idea) error
	TagTask(taskID, tagID uint) error
	TagIdea(ideaID, tagID uint) error
	RecordTaskActivity(activity *models.TaskActivity) error
}
