package ingest

import (
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"taskboard/models"
	"taskboard/parser"
)

var refNow = time.Date(2025, time.January, 8, 15, 4, 5, 0, time.UTC)

// fakeStore records every write in memory. Failure toggles let tests poke at
// the individual error paths without a database.
type fakeStore struct {
	emails      map[uint]*models.InboundEmail
	nextEmailID uint
	attachments []*models.EmailAttachment
	persons     map[string]*models.Person
	tags        map[string]*models.Tag
	nextTagID   uint
	tasks       []*models.Task
	ideas       []*models.Idea
	taskTags    []models.TaskTag
	ideaTags    []models.IdeaTag
	activities  []models.TaskActivity
	lanes       []models.Lane

	failCreateTask   bool
	failCreateIdea   bool
	failAttachment   bool
	failEnsurePerson bool
	failUpdateEmail  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		emails:  make(map[uint]*models.InboundEmail),
		persons: make(map[string]*models.Person),
		tags:    make(map[string]*models.Tag),
		lanes: []models.Lane{
			{Model: gorm.Model{ID: 1}, Name: "To Do", Position: 0},
			{Model: gorm.Model{ID: 2}, Name: "In Progress", Position: 1},
		},
	}
}

func (s *fakeStore) CreateEmail(email *models.InboundEmail) error {
	s.nextEmailID++
	email.ID = s.nextEmailID
	s.emails[email.ID] = email
	return nil
}

func (s *fakeStore) UpdateEmail(email *models.InboundEmail) error {
	if s.failUpdateEmail {
		return errors.New("update refused")
	}
	s.emails[email.ID] = email
	return nil
}

func (s *fakeStore) GetEmail(id uint) (*models.InboundEmail, error) {
	email, ok := s.emails[id]
	if !ok {
		return nil, ErrNotFound
	}
	return email, nil
}

func (s *fakeStore) CreateAttachment(att *models.EmailAttachment) error {
	if s.failAttachment {
		return errors.New("attachment store down")
	}
	att.ID = uint(len(s.attachments) + 1)
	s.attachments = append(s.attachments, att)
	return nil
}

func (s *fakeStore) EnsurePerson(email, name string) (*models.Person, error) {
	if s.failEnsurePerson {
		return nil, errors.New("person store down")
	}
	if p, ok := s.persons[email]; ok {
		return p, nil
	}
	p := &models.Person{Model: gorm.Model{ID: uint(len(s.persons) + 1)}, Email: email, Name: name}
	s.persons[email] = p
	return p, nil
}

func (s *fakeStore) FindOrCreateTag(name string) (*models.Tag, error) {
	if t, ok := s.tags[name]; ok {
		return t, nil
	}
	s.nextTagID++
	t := &models.Tag{Model: gorm.Model{ID: s.nextTagID}, Name: name, Color: models.DefaultTagColor}
	s.tags[name] = t
	return t, nil
}

func (s *fakeStore) DefaultLane() (*models.Lane, error) {
	return &s.lanes[0], nil
}

func (s *fakeStore) CreateTask(task *models.Task) error {
	if s.failCreateTask {
		return errors.New("task insert failed")
	}
	task.ID = uint(len(s.tasks) + 1)
	s.tasks = append(s.tasks, task)
	return nil
}

func (s *fakeStore) CreateIdea(idea *models.Idea) error {
	if s.failCreateIdea {
		return errors.New("idea insert failed")
	}
	idea.ID = uint(len(s.ideas) + 1)
	s.ideas = append(s.ideas, idea)
	return nil
}

func (s *fakeStore) TagTask(taskID, tagID uint) error {
	s.taskTags = append(s.taskTags, models.TaskTag{TaskID: taskID, TagID: tagID})
	return nil
}

func (s *fakeStore) TagIdea(ideaID, tagID uint) error {
	s.ideaTags = append(s.ideaTags, models.IdeaTag{IdeaID: ideaID, TagID: tagID})
	return nil
}

func (s *fakeStore) RecordTaskActivity(activity *models.TaskActivity) error {
	s.activities = append(s.activities, *activity)
	return nil
}

func newTestRouter(store Store) *Router {
	r := NewRouter(store, log.New(io.Discard, "", 0))
	r.now = func() time.Time { return refNow }
	return r
}

func TestRouteRejectsMissingSender(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store)

	_, err := r.Route(&InboundPayload{Subject: "no sender"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "sender_email")

	// No partial writes of any kind
	assert.Empty(t, store.emails)
	assert.Empty(t, store.tasks)
	assert.Empty(t, store.ideas)
	assert.Empty(t, store.persons)
}

func TestRouteEndToEndTask(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store)

	result, err := r.Route(&InboundPayload{
		SenderEmail: "j.doe@x.com",
		Subject:     "Please review #design by tomorrow",
		BodyText:    "could we also consider dark mode? @Jane Doe",
	})
	require.NoError(t, err)

	// Both signal sets fire ("please" and "could we"); the tie-break favors
	// the task.
	require.NotNil(t, result.TaskID)
	assert.Nil(t, result.IdeaID)
	assert.True(t, result.Metadata.IsIdea)
	assert.True(t, result.Metadata.IsTask)

	require.Len(t, store.tasks, 1)
	task := store.tasks[0]
	assert.Equal(t, "Please review #design by tomorrow", task.Title)
	assert.Equal(t, "could we also consider dark mode? @Jane Doe", task.Description)
	assert.Equal(t, uint(1), task.LaneID)
	assert.Equal(t, models.ProgressNotStarted, task.Progress)
	assert.Equal(t, "Jane Doe", task.Assignee)
	assert.Equal(t, refNow.UnixMilli(), task.Rank)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, time.Date(2025, time.January, 9, 0, 0, 0, 0, time.UTC), *task.DueDate)

	// Tag resolved by name and linked
	require.Contains(t, store.tags, "design")
	require.Len(t, store.taskTags, 1)
	assert.Equal(t, store.tags["design"].ID, store.taskTags[0].TagID)

	// Sender identity derived from the local part
	require.Contains(t, store.persons, "j.doe@x.com")
	assert.Equal(t, "J Doe", store.persons["j.doe@x.com"].Name)

	// Audit trail
	require.Len(t, store.activities, 1)
	assert.Equal(t, "created_from_email", store.activities[0].ActivityType)

	// Terminal email state
	email := store.emails[result.EmailID]
	require.NotNil(t, email)
	assert.Equal(t, models.EmailStatusProcessed, email.Status)
	require.NotNil(t, email.TaskID)
	assert.Nil(t, email.IdeaID)
	assert.NotNil(t, email.ProcessedAt)
}

func TestRouteCreatesIdeaOnPureIdeaSignal(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store)

	result, err := r.Route(&InboundPayload{
		SenderEmail: "pm@x.com",
		BodyText:    "what if we tried dark mode",
	})
	require.NoError(t, err)

	require.NotNil(t, result.IdeaID)
	assert.Nil(t, result.TaskID)
	assert.Empty(t, store.tasks)

	require.Len(t, store.ideas, 1)
	idea := store.ideas[0]
	assert.Equal(t, "Idea from email", idea.Title) // fallback, no subject
	assert.Equal(t, models.IdeaNotAddressed, idea.Status)
	require.NotNil(t, idea.SourceEmailID)
	assert.Equal(t, result.EmailID, *idea.SourceEmailID)

	email := store.emails[result.EmailID]
	assert.Equal(t, models.EmailStatusProcessed, email.Status)
	assert.Nil(t, email.TaskID)
}

func TestRouteFallsThroughToTask(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store)

	// Neither vocabulary fires; the deliberate bias still creates a task.
	result, err := r.Route(&InboundPayload{
		SenderEmail: "ops@x.com",
		Subject:     "minutes attached for reference",
	})
	require.NoError(t, err)
	require.NotNil(t, result.TaskID)
	assert.Nil(t, result.IdeaID)
	assert.False(t, result.Metadata.IsIdea)
	assert.False(t, result.Metadata.IsTask)
}

func TestRouteSyntheticPriorityTag(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store)

	_, err := r.Route(&InboundPayload{
		SenderEmail: "dev@x.com",
		Subject:     "login bug",
		BodyText:    "please fix the login bug asap #auth",
	})
	require.NoError(t, err)

	assert.Contains(t, store.tags, "auth")
	assert.Contains(t, store.tags, "urgent")
	assert.Len(t, store.taskTags, 2)

	// normal priority gets no synthetic tag
	store2 := newFakeStore()
	r2 := newTestRouter(store2)
	_, err = r2.Route(&InboundPayload{
		SenderEmail: "dev@x.com",
		BodyText:    "please update the docs #docs",
	})
	require.NoError(t, err)
	assert.Contains(t, store2.tags, "docs")
	assert.NotContains(t, store2.tags, "normal")
	assert.Len(t, store2.taskTags, 1)
}

// Routing the same payload twice creates two email records but reuses the
// existing tag rows.
func TestRouteTagReuseAcrossEmails(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store)

	payload := &InboundPayload{
		SenderEmail: "j.doe@x.com",
		Subject:     "please check #design",
	}

	first, err := r.Route(payload)
	require.NoError(t, err)
	second, err := r.Route(payload)
	require.NoError(t, err)

	assert.NotEqual(t, first.EmailID, second.EmailID)
	assert.Len(t, store.emails, 2)
	assert.Len(t, store.tags, 1)
	assert.Len(t, store.taskTags, 2)
	assert.Equal(t, store.taskTags[0].TagID, store.taskTags[1].TagID)
	assert.Len(t, store.persons, 1)
}

func TestRouteTaskFailureMarksEmailFailed(t *testing.T) {
	store := newFakeStore()
	store.failCreateTask = true
	r := newTestRouter(store)

	_, err := r.Route(&InboundPayload{
		SenderEmail: "dev@x.com",
		Subject:     "please fix this",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.NotErrorIs(t, err, ErrValidation)

	require.Len(t, store.emails, 1)
	for _, email := range store.emails {
		assert.Equal(t, models.EmailStatusFailed, email.Status)
		assert.Contains(t, email.ErrorMessage, "task insert failed")
		assert.Nil(t, email.TaskID)
	}
}

func TestRouteUpdateFailureIsPersistenceError(t *testing.T) {
	store := newFakeStore()
	store.failUpdateEmail = true
	r := newTestRouter(store)

	_, err := r.Route(&InboundPayload{
		SenderEmail: "dev@x.com",
		Subject:     "please fix this",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestRouteAttachmentFailureIsNotFatal(t *testing.T) {
	store := newFakeStore()
	store.failAttachment = true
	r := newTestRouter(store)

	result, err := r.Route(&InboundPayload{
		SenderEmail: "dev@x.com",
		Subject:     "please see attached",
		Attachments: []Attachment{
			{Filename: "spec.pdf", URL: "https://files/spec.pdf", Size: 1024, MimeType: "application/pdf"},
		},
	})
	require.NoError(t, err)
	assert.NotNil(t, result.TaskID)
	assert.Empty(t, store.attachments)
}

func TestRoutePersonFailureIsNotFatal(t *testing.T) {
	store := newFakeStore()
	store.failEnsurePerson = true
	r := newTestRouter(store)

	result, err := r.Route(&InboundPayload{
		SenderEmail: "jane_doe@x.com",
		Subject:     "please triage",
	})
	require.NoError(t, err)
	require.NotNil(t, result.TaskID)

	// No mention in the text, so the assignee falls back to the derived
	// sender name even though the person row couldn't be written.
	assert.Equal(t, "Jane Doe", store.tasks[0].Assignee)
}

func TestRouteBodyFallsBackToHTML(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store)

	_, err := r.Route(&InboundPayload{
		SenderEmail: "dev@x.com",
		Subject:     "please review",
		BodyHTML:    "<p>the rendered body</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>the rendered body</p>", store.tasks[0].Description)
}

func TestRouteStoresAttachmentDescriptors(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store)

	result, err := r.Route(&InboundPayload{
		SenderEmail: "dev@x.com",
		Subject:     "please see attached",
		Attachments: []Attachment{
			{Filename: "a.png", URL: "https://files/a.png", Size: 10, MimeType: "image/png"},
			{Filename: "b.pdf", URL: "https://files/b.pdf", Size: 20, MimeType: "application/pdf"},
		},
	})
	require.NoError(t, err)

	require.Len(t, store.attachments, 2)
	assert.Equal(t, result.EmailID, store.attachments[0].EmailID)
	assert.Equal(t, "a.png", store.attachments[0].Filename)
	assert.Equal(t, int64(20), store.attachments[1].Size)
}

func TestReclassify(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store)

	// A failed run: record exists, nothing was materialized.
	failed := &models.InboundEmail{
		SenderEmail: "pm@x.com",
		Subject:     "what if we batched uploads",
		BodyText:    "brainstorm for next quarter #infra",
		Status:      models.EmailStatusFailed,
		Metadata:    `{"tags":["infra"],"assignees":[],"priority":"normal","is_idea":true,"is_task":false}`,
		ReceivedAt:  refNow,
	}
	require.NoError(t, store.CreateEmail(failed))

	result, err := r.Reclassify(failed.ID, "idea")
	require.NoError(t, err)
	require.NotNil(t, result.IdeaID)
	assert.Nil(t, result.TaskID)

	email := store.emails[failed.ID]
	assert.Equal(t, models.EmailStatusManual, email.Status)
	assert.Empty(t, email.ErrorMessage)
	require.Len(t, store.ideas, 1)
	assert.Equal(t, "what if we batched uploads", store.ideas[0].Title)
	assert.Contains(t, store.tags, "infra")

	// Already classified emails are rejected, never double-linked.
	_, err = r.Reclassify(failed.ID, "task")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = r.Reclassify(failed.ID, "epic")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = r.Reclassify(9999, "task")
	assert.ErrorIs(t, err, ErrNotFound)
}

// Stored metadata wins over re-parsing so relative dates don't re-anchor;
// an unreadable blob falls back to a fresh parse.
func TestReclassifyFallsBackToReparse(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store)

	email := &models.InboundEmail{
		SenderEmail: "dev@x.com",
		Subject:     "please fix #auth",
		Status:      models.EmailStatusFailed,
		Metadata:    "not json",
		ReceivedAt:  refNow,
	}
	require.NoError(t, store.CreateEmail(email))

	result, err := r.Reclassify(email.ID, "task")
	require.NoError(t, err)
	require.NotNil(t, result.TaskID)
	assert.Equal(t, []string{"auth"}, result.Metadata.Tags)
	assert.Contains(t, store.tags, "auth")
}

func TestRouteMetadataSerialized(t *testing.T) {
	store := newFakeStore()
	r := newTestRouter(store)

	result, err := r.Route(&InboundPayload{
		SenderEmail: "dev@x.com",
		Subject:     "please fix #auth asap",
	})
	require.NoError(t, err)

	email := store.emails[result.EmailID]
	assert.Contains(t, email.Metadata, `"auth"`)
	assert.Contains(t, email.Metadata, string(parser.PriorityUrgent))
	assert.Contains(t, email.RawPayload, `"dev@x.com"`)
}
