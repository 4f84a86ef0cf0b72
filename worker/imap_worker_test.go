package worker

import (
	"bytes"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard/config"
	"taskboard/ingest"
)

// fakeFiles records saved attachment bytes and hands back predictable URLs.
type fakeFiles struct {
	saved map[string][]byte
}

func (f *fakeFiles) Save(filename string, data []byte) (string, error) {
	if f.saved == nil {
		f.saved = make(map[string][]byte)
	}
	f.saved[filename] = data
	return "/uploads/" + filename, nil
}

func newTestWorker(files ingest.FileStore) *IMAPWorker {
	return NewIMAPWorker(config.IMAPConfig{}, nil, files, log.New(io.Discard, "", 0))
}

// fetchedMessage mimics what a BODY[] fetch response looks like: the Body map
// is keyed by a section pointer the library parsed, not one the caller holds.
func fetchedMessage(t *testing.T, raw string) *imap.Message {
	t.Helper()
	section, err := imap.ParseBodySectionName(imap.FetchItem("BODY[]"))
	require.NoError(t, err)

	return &imap.Message{
		SeqNum: 1,
		Envelope: &imap.Envelope{
			Subject: "Please review #design",
			From: []*imap.Address{
				{PersonalName: "Jane Doe", MailboxName: "jane", HostName: "x.com"},
			},
		},
		Body: map[*imap.BodySectionName]imap.Literal{
			section: bytes.NewBufferString(raw),
		},
	}
}

func multipartMessage() string {
	return strings.Join([]string{
		"From: Jane Doe <jane@x.com>",
		"Subject: Please review #design",
		"Content-Type: multipart/mixed; boundary=frontier",
		"",
		"--frontier",
		"Content-Type: text/plain",
		"",
		"please review the mockups #design",
		"--frontier",
		"Content-Type: text/html",
		"",
		"<p>please review the mockups</p>",
		"--frontier",
		"Content-Type: application/pdf",
		"Content-Disposition: attachment; filename=\"mockups.pdf\"",
		"",
		"%PDF-1.4 fake",
		"--frontier--",
		"",
	}, "\r\n")
}

func TestBuildPayloadExtractsMimeParts(t *testing.T) {
	files := &fakeFiles{}
	w := newTestWorker(files)

	payload, err := w.buildPayload(fetchedMessage(t, multipartMessage()))
	require.NoError(t, err)

	assert.Equal(t, "jane@x.com", payload.SenderEmail)
	assert.Equal(t, "Jane Doe", payload.SenderName)
	assert.Equal(t, "Please review #design", payload.Subject)
	assert.Contains(t, payload.BodyText, "please review the mockups #design")
	assert.Contains(t, payload.BodyHTML, "<p>please review the mockups</p>")

	require.Len(t, payload.Attachments, 1)
	att := payload.Attachments[0]
	assert.Equal(t, "mockups.pdf", att.Filename)
	assert.Equal(t, "/uploads/mockups.pdf", att.URL)
	assert.Equal(t, "application/pdf", att.MimeType)
	assert.Equal(t, int64(len("%PDF-1.4 fake")), att.Size)
	assert.Contains(t, files.saved, "mockups.pdf")
}

func TestBuildPayloadPlainBody(t *testing.T) {
	w := newTestWorker(&fakeFiles{})

	raw := strings.Join([]string{
		"From: Jane Doe <jane@x.com>",
		"Subject: Please review #design",
		"Content-Type: text/plain",
		"",
		"please fix the login bug asap",
		"",
	}, "\r\n")

	payload, err := w.buildPayload(fetchedMessage(t, raw))
	require.NoError(t, err)
	assert.Contains(t, payload.BodyText, "please fix the login bug asap")
	assert.Empty(t, payload.BodyHTML)
	assert.Empty(t, payload.Attachments)
}

func TestBuildPayloadWithoutBodyLiteral(t *testing.T) {
	w := newTestWorker(&fakeFiles{})

	msg := fetchedMessage(t, multipartMessage())
	msg.Body = nil

	payload, err := w.buildPayload(msg)
	require.NoError(t, err)
	assert.Equal(t, "jane@x.com", payload.SenderEmail)
	assert.Empty(t, payload.BodyText)
}

func TestBuildPayloadRejectsMissingEnvelope(t *testing.T) {
	w := newTestWorker(&fakeFiles{})

	_, err := w.buildPayload(&imap.Message{SeqNum: 7})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sender envelope")
}
