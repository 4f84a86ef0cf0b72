package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"taskboard/models"
	"taskboard/parser"
	"taskboard/utils"
)

// ErrNotFound is returned when a referenced email record doesn't exist.
var ErrNotFound = errors.New("record not found")

// Attachment describes a file delivered alongside an inbound email. The
// gateway has already uploaded the bytes; we only persist the descriptor.
type Attachment struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

// InboundPayload is the request-style contract the router is invoked with.
type InboundPayload struct {
	SenderEmail string       `json:"sender_email" validate:"required,email"`
	SenderName  string       `json:"sender_name"`
	Subject     string       `json:"subject"`
	BodyText    string       `json:"body_text"`
	BodyHTML    string       `json:"body_html"`
	Attachments []Attachment `json:"attachments"`
}

// Result reports what one routing run produced. Exactly one of TaskID and
// IdeaID is set on success.
type Result struct {
	EmailID  uint                  `json:"email_id"`
	TaskID   *uint                 `json:"created_task_id"`
	IdeaID   *uint                 `json:"created_idea_id"`
	Metadata parser.ParsedMetadata `json:"parsed_metadata"`
}

// Router turns one inbound email into a task or an idea plus the bookkeeping
// around it: sender identity, tags, attachments, audit trail and the email's
// own status record. Extraction is pure; every side effect goes through the
// injected Store.
type Router struct {
	store  Store
	logger *log.Logger
	now    func() time.Time
}

func NewRouter(store Store, logger *log.Logger) *Router {
	return &Router{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Route processes a single inbound email, start to finish. The email record
// never ends in pending: it reaches processed, or failed with the captured
// error, unless the very first insert is what failed (then there is nothing
// to mark).
func (r *Router) Route(payload *InboundPayload) (*Result, error) {
	if strings.TrimSpace(payload.SenderEmail) == "" {
		return nil, fmt.Errorf("%w: sender_email is required", ErrValidation)
	}

	now := r.now()

	bodyContent := payload.BodyText
	if bodyContent == "" {
		bodyContent = payload.BodyHTML
	}

	meta := parser.Parse(payload.Subject, bodyContent, now)
	metaJSON, _ := json.Marshal(meta)
	rawJSON, _ := json.Marshal(payload)

	email := &models.InboundEmail{
		SenderEmail: payload.SenderEmail,
		SenderName:  payload.SenderName,
		Subject:     payload.Subject,
		BodyText:    payload.BodyText,
		BodyHTML:    payload.BodyHTML,
		RawPayload:  string(rawJSON),
		Status:      models.EmailStatusPending,
		Metadata:    string(metaJSON),
		ReceivedAt:  now,
	}
	if err := r.store.CreateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: creating inbound email record: %v", ErrPersistence, err)
	}

	// Attachments are best-effort: one bad descriptor never aborts the rest
	// of the run.
	for _, att := range payload.Attachments {
		record := &models.EmailAttachment{
			EmailID:  email.ID,
			Filename: att.Filename,
			URL:      att.URL,
			Size:     att.Size,
			MimeType: att.MimeType,
		}
		if err := r.store.CreateAttachment(record); err != nil {
			r.logger.Printf("Failed to store attachment %q for email %d: %v", att.Filename, email.ID, err)
		}
	}

	senderName := payload.SenderName
	if senderName == "" {
		senderName = utils.DisplayNameFromEmail(payload.SenderEmail)
	}
	if _, err := r.store.EnsurePerson(payload.SenderEmail, senderName); err != nil {
		// Identity is a nicety; routing continues with the derived name.
		r.logger.Printf("Failed to ensure person for %s: %v", payload.SenderEmail, err)
	}

	// Tie-break deliberately favors actionable tasks: only an unambiguous
	// idea signal produces an idea. Task-only, both, or neither -> task.
	if meta.IsIdea && !meta.IsTask {
		idea, err := r.createIdea(email, bodyContent, meta)
		if err != nil {
			r.markFailed(email, err)
			return nil, fmt.Errorf("%w: creating idea for email %d: %v", ErrPersistence, email.ID, err)
		}
		email.IdeaID = &idea.ID
	} else {
		task, err := r.createTask(email, bodyContent, meta, senderName, now)
		if err != nil {
			r.markFailed(email, err)
			return nil, fmt.Errorf("%w: creating task for email %d: %v", ErrPersistence, email.ID, err)
		}
		email.TaskID = &task.ID
	}

	email.Status = models.EmailStatusProcessed
	email.ProcessedAt = utils.Pointer(r.now())
	if err := r.store.UpdateEmail(email); err != nil {
		r.markFailed(email, err)
		return nil, fmt.Errorf("%w: finalizing email %d: %v", ErrPersistence, email.ID, err)
	}

	utils.LogEvent("email_routed", map[string]interface{}{
		"email_id": email.ID,
		"sender":   email.SenderEmail,
		"task_id":  email.TaskID,
		"idea_id":  email.IdeaID,
		"priority": meta.Priority,
	})

	return &Result{
		EmailID:  email.ID,
		TaskID:   email.TaskID,
		IdeaID:   email.IdeaID,
		Metadata: meta,
	}, nil
}

// Reclassify is the human override behind the admin API: it materializes the
// requested record for an email that never got one (typically a failed run)
// and marks the email manual. Emails already linked to a task or an idea are
// rejected so no email ever points at more than one outcome.
func (r *Router) Reclassify(emailID uint, kind string) (*Result, error) {
	if kind != "task" && kind != "idea" {
		return nil, fmt.Errorf("%w: create must be \"task\" or \"idea\"", ErrValidation)
	}

	email, err := r.store.GetEmail(emailID)
	if err != nil {
		return nil, err
	}
	if email.TaskID != nil || email.IdeaID != nil {
		return nil, fmt.Errorf("%w: email %d is already classified", ErrValidation, emailID)
	}

	bodyContent := email.BodyText
	if bodyContent == "" {
		bodyContent = email.BodyHTML
	}

	// Prefer the metadata captured at ingestion so relative dates don't
	// re-anchor to the current clock; re-parse only if the blob is unreadable.
	var meta parser.ParsedMetadata
	if err := json.Unmarshal([]byte(email.Metadata), &meta); err != nil {
		meta = parser.Parse(email.Subject, bodyContent, r.now())
	}

	senderName := email.SenderName
	if senderName == "" {
		senderName = utils.DisplayNameFromEmail(email.SenderEmail)
	}

	if kind == "idea" {
		idea, err := r.createIdea(email, bodyContent, meta)
		if err != nil {
			return nil, fmt.Errorf("%w: creating idea for email %d: %v", ErrPersistence, email.ID, err)
		}
		email.IdeaID = &idea.ID
	} else {
		task, err := r.createTask(email, bodyContent, meta, senderName, r.now())
		if err != nil {
			return nil, fmt.Errorf("%w: creating task for email %d: %v", ErrPersistence, email.ID, err)
		}
		email.TaskID = &task.ID
	}

	email.Status = models.EmailStatusManual
	email.ErrorMessage = ""
	email.ProcessedAt = utils.Pointer(r.now())
	if err := r.store.UpdateEmail(email); err != nil {
		return nil, fmt.Errorf("%w: finalizing email %d: %v", ErrPersistence, email.ID, err)
	}

	return &Result{
		EmailID:  email.ID,
		TaskID:   email.TaskID,
		IdeaID:   email.IdeaID,
		Metadata: meta,
	}, nil
}

func (r *Router) createTask(email *models.InboundEmail, body string, meta parser.ParsedMetadata, senderName string, now time.Time) (*models.Task, error) {
	lane, err := r.store.DefaultLane()
	if err != nil {
		return nil, err
	}

	title := email.Subject
	if title == "" {
		title = "Task from email"
	}

	assignee := senderName
	if len(meta.Assignees) > 0 {
		assignee = meta.Assignees[0]
	}

	var dueDate *time.Time
	if meta.DueDate != nil {
		dueDate = utils.Pointer(dateOnly(*meta.DueDate))
	}

	task := &models.Task{
		Title:         title,
		Description:   body,
		LaneID:        lane.ID,
		Progress:      models.ProgressNotStarted,
		Assignee:      assignee,
		DueDate:       dueDate,
		Rank:          now.UnixMilli(),
		SourceEmailID: &email.ID,
	}
	if err := r.store.CreateTask(task); err != nil {
		return nil, err
	}

	// Hashtags plus one synthetic tag from the priority signal. normal is
	// the default and gets no tag.
	tagNames := append([]string{}, meta.Tags...)
	if meta.Priority != parser.PriorityNormal {
		tagNames = append(tagNames, string(meta.Priority))
	}
	r.linkTags(tagNames, email.ID, func(tagID uint) error {
		return r.store.TagTask(task.ID, tagID)
	})

	details, _ := json.Marshal(map[string]interface{}{
		"email_id": email.ID,
		"sender":   email.SenderEmail,
	})
	activity := &models.TaskActivity{
		TaskID:       task.ID,
		ActivityType: "created_from_email",
		ActivityAt:   now,
		Details:      string(details),
	}
	if err := r.store.RecordTaskActivity(activity); err != nil {
		r.logger.Printf("Failed to record activity for task %d: %v", task.ID, err)
	}

	return task, nil
}

func (r *Router) createIdea(email *models.InboundEmail, body string, meta parser.ParsedMetadata) (*models.Idea, error) {
	title := email.Subject
	if title == "" {
		title = "Idea from email"
	}

	idea := &models.Idea{
		Title:         title,
		Description:   body,
		Status:        models.IdeaNotAddressed,
		SourceEmailID: &email.ID,
	}
	if err := r.store.CreateIdea(idea); err != nil {
		return nil, err
	}

	r.linkTags(meta.Tags, email.ID, func(tagID uint) error {
		return r.store.TagIdea(idea.ID, tagID)
	})

	return idea, nil
}

// linkTags resolves each name via find-or-create and links it. A single
// failing tag is logged and skipped, never fatal.
func (r *Router) linkTags(names []string, emailID uint, link func(tagID uint) error) {
	for _, name := range names {
		tag, err := r.store.FindOrCreateTag(name)
		if err != nil {
			r.logger.Printf("Failed to resolve tag %q for email %d: %v", name, emailID, err)
			continue
		}
		if err := link(tag.ID); err != nil {
			r.logger.Printf("Failed to link tag %q for email %d: %v", name, emailID, err)
		}
	}
}

// markFailed is the best-effort terminal transition for a routing run that
// blew up after the email record existed.
func (r *Router) markFailed(email *models.InboundEmail, cause error) {
	email.Status = models.EmailStatusFailed
	email.ErrorMessage = cause.Error()
	if err := r.store.UpdateEmail(email); err != nil {
		r.logger.Printf("Failed to mark email %d as failed: %v", email.ID, err)
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
