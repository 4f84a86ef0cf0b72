package worker

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"

	"taskboard/config"
	"taskboard/ingest"
)

// IMAPWorker polls a mailbox and pushes every unseen message through the
// email router, the same path the webhook uses. Attachment bytes go through
// the file store so the persisted descriptors carry resolvable URLs.
type IMAPWorker struct {
	cfg    config.IMAPConfig
	router *ingest.Router
	files  ingest.FileStore
	logger *log.Logger
}

func NewIMAPWorker(cfg config.IMAPConfig, router *ingest.Router, files ingest.FileStore, logger *log.Logger) *IMAPWorker {
	return &IMAPWorker{
		cfg:    cfg,
		router: router,
		files:  files,
		logger: logger,
	}
}

func (w *IMAPWorker) Start(ctx context.Context) {
	w.logger.Println("Starting IMAP worker...")
	ticker := time.NewTicker(time.Duration(w.cfg.PollInterval) * time.Second)

	for {
		select {
		case <-ticker.C:
			if err := w.fetchMailbox(); err != nil {
				w.logger.Printf("Mailbox fetch failed: %v", err)
			}
		case <-ctx.Done():
			w.logger.Println("Stopping IMAP worker...")
			ticker.Stop()
			return
		}
	}
}

func (w *IMAPWorker) fetchMailbox() error {
	imapClient, err := w.connect()
	if err != nil {
		return err
	}
	defer imapClient.Logout()

	if err := imapClient.Login(w.cfg.Username, w.cfg.Password); err != nil {
		return fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	if _, err := imapClient.Select(w.cfg.Mailbox, false); err != nil {
		return fmt.Errorf("failed to select mailbox: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{"\\Seen"}
	ids, err := imapClient.Search(criteria)
	if err != nil {
		return fmt.Errorf("failed to search messages: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)

	go func() {
		done <- imapClient.Fetch(seqset, []imap.FetchItem{imap.FetchEnvelope, imap.FetchItem("BODY[]")}, messages)
	}()

	for msg := range messages {
		if err := w.routeMessage(msg); err != nil {
			w.logger.Printf("Failed to route message %d: %v", msg.SeqNum, err)
			continue
		}
	}

	if err := <-done; err != nil {
		return fmt.Errorf("error during fetch: %w", err)
	}

	return nil
}

func (w *IMAPWorker) connect() (*client.Client, error) {
	addr := fmt.Sprintf("%s:%d", w.cfg.Host, w.cfg.Port)

	switch strings.ToUpper(w.cfg.Encryption) {
	case "SSL", "TLS":
		return client.DialTLS(addr, &tls.Config{ServerName: w.cfg.Host})
	case "STARTTLS":
		c, err := client.Dial(addr)
		if err != nil {
			return nil, err
		}
		if err := c.StartTLS(&tls.Config{ServerName: w.cfg.Host}); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return client.Dial(addr)
	}
}

func (w *IMAPWorker) routeMessage(msg *imap.Message) error {
	payload, err := w.buildPayload(msg)
	if err != nil {
		return err
	}

	result, err := w.router.Route(payload)
	if err != nil {
		return err
	}

	w.logger.Printf("Routed message %q from %s as email %d", payload.Subject, payload.SenderEmail, result.EmailID)
	return nil
}

// buildPayload maps a fetched message onto the router's payload contract:
// envelope sender, subject, text and HTML parts, stored attachment
// descriptors. The body literal must be looked up with GetBody; the fetch
// response keys the Body map by a section pointer we never see.
func (w *IMAPWorker) buildPayload(msg *imap.Message) (*ingest.InboundPayload, error) {
	if msg.Envelope == nil || len(msg.Envelope.From) == 0 {
		return nil, fmt.Errorf("message %d has no sender envelope", msg.SeqNum)
	}
	from := msg.Envelope.From[0]

	payload := &ingest.InboundPayload{
		SenderEmail: from.MailboxName + "@" + from.HostName,
		SenderName:  from.PersonalName,
		Subject:     msg.Envelope.Subject,
	}

	section := imap.BodySectionName{}
	if literal := msg.GetBody(&section); literal != nil {
		if err := w.readParts(literal, payload, msg.SeqNum); err != nil {
			return nil, err
		}
	}

	return payload, nil
}

func (w *IMAPWorker) readParts(literal io.Reader, payload *ingest.InboundPayload, seqNum uint32) error {
	mr, err := mail.CreateReader(literal)
	if err != nil {
		return fmt.Errorf("failed to create message reader: %w", err)
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		} else if err != nil {
			return fmt.Errorf("failed to read next part: %w", err)
		}

		switch h := p.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			b, err := io.ReadAll(p.Body)
			if err != nil {
				return fmt.Errorf("failed to read body: %w", err)
			}

			if strings.Contains(contentType, "text/html") {
				payload.BodyHTML = string(b)
			} else if strings.Contains(contentType, "text/plain") {
				payload.BodyText = string(b)
			}
		case *mail.AttachmentHeader:
			att, err := w.storeAttachment(h, p.Body)
			if err != nil {
				// Per-file failures are logged and skipped, never fatal
				w.logger.Printf("Failed to store attachment from message %d: %v", seqNum, err)
				continue
			}
			payload.Attachments = append(payload.Attachments, *att)
		}
	}

	return nil
}

func (w *IMAPWorker) storeAttachment(h *mail.AttachmentHeader, body io.Reader) (*ingest.Attachment, error) {
	filename, _ := h.Filename()
	contentType, _, _ := h.ContentType()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("reading attachment %s: %w", filename, err)
	}

	url, err := w.files.Save(filename, data)
	if err != nil {
		return nil, err
	}

	return &ingest.Attachment{
		Filename: filename,
		URL:      url,
		Size:     int64(len(data)),
		MimeType: contentType,
	}, nil
}
