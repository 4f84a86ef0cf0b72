package ingest

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"taskboard/models"
)

// GormStore implements Store on top of a GORM connection. Requires
// TranslateError so unique-index conflicts surface as gorm.ErrDuplicatedKey.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) CreateEmail(email *models.InboundEmail) error {
	return s.db.Create(email).Error
}

func (s *GormStore) UpdateEmail(email *models.InboundEmail) error {
	return s.db.Save(email).Error
}

func (s *GormStore) GetEmail(id uint) (*models.InboundEmail, error) {
	var email models.InboundEmail
	if err := s.db.Preload("Attachments").First(&email, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &email, nil
}

func (s *GormStore) CreateAttachment(att *models.EmailAttachment) error {
	return s.db.Create(att).Error
}

// EnsurePerson returns the person for email, creating one with the given
// display name if no row exists. A concurrent insert of the same address
// loses the unique-index race and re-fetches the winner's row.
func (s *GormStore) EnsurePerson(email, name string) (*models.Person, error) {
	var person models.Person
	err := s.db.Where("email = ?", email).First(&person).Error
	if err == nil {
		return &person, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("looking up person %s: %w", email, err)
	}

	person = models.Person{Email: email, Name: name}
	if err := s.db.Create(&person).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.refetchPerson(email)
		}
		return nil, fmt.Errorf("creating person %s: %w", email, err)
	}
	return &person, nil
}

func (s *GormStore) refetchPerson(email string) (*models.Person, error) {
	var person models.Person
	if err := s.db.Where("email = ?", email).First(&person).Error; err != nil {
		return nil, fmt.Errorf("re-fetching person %s after conflict: %w", email, err)
	}
	return &person, nil
}

// FindOrCreateTag returns the tag with the exact given name, creating it with
// the default color when absent. Same conflict handling as EnsurePerson.
func (s *GormStore) FindOrCreateTag(name string) (*models.Tag, error) {
	var tag models.Tag
	err := s.db.Where("name = ?", name).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("looking up tag %s: %w", name, err)
	}

	tag = models.Tag{Name: name, Color: models.DefaultTagColor}
	if err := s.db.Create(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing models.Tag
			if ferr := s.db.Where("name = ?", name).First(&existing).Error; ferr != nil {
				return nil, fmt.Errorf("re-fetching tag %s after conflict: %w", name, ferr)
			}
			return &existing, nil
		}
		return nil, fmt.Errorf("creating tag %s: %w", name, err)
	}
	return &tag, nil
}

// DefaultLane returns the leftmost board column.
func (s *GormStore) DefaultLane() (*models.Lane, error) {
	var lane models.Lane
	if err := s.db.Order("position asc").First(&lane).Error; err != nil {
		return nil, fmt.Errorf("fetching default lane: %w", err)
	}
	return &lane, nil
}

func (s *GormStore) CreateTask(task *models.Task) error {
	return s.db.Create(task).Error
}

func (s *GormStore) CreateIdea(idea *models.Idea) error {
	return s.db.Create(idea).Error
}

func (s *GormStore) TagTask(taskID, tagID uint) error {
	return s.db.Create(&models.TaskTag{TaskID: taskID, TagID: tagID}).Error
}

func (s *GormStore) TagIdea(ideaID, tagID uint) error {
	return s.db.Create(&models.IdeaTag{IdeaID: ideaID, TagID: tagID}).Error
}

func (s *GormStore) RecordTaskActivity(activity *models.TaskActivity) error {
	return s.db.Create(activity).Error
}
