package utils

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"
)

// Notifier sends the optional "we turned your email into a task" reply back
// to the sender. A nil Notifier (SMTP not configured) is a no-op everywhere.
type Notifier struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
}

func NewNotifier(host string, port int, username, password, fromEmail string) *Notifier {
	if host == "" || fromEmail == "" {
		return nil
	}
	return &Notifier{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromEmail: fromEmail,
	}
}

var taskCreatedTemplate = template.Must(template.New("task_created").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
    <p>Hi {{.Name}},</p>
    <p>Your email <strong>{{.Subject}}</strong> was added to the board as a {{.Kind}}.</p>
    {{if .DueDate}}<p>Due date: {{.DueDate}}</p>{{end}}
    <p style="color: #7f8c8d; font-size: 12px;">Reply to this address with #tags, @assignees or a due date to file more work.</p>
</body>
</html>`))

// NotifyCreated emails the sender that their message became a task or idea.
// Failures are the caller's to log; they must never fail the routing run.
func (n *Notifier) NotifyCreated(to, name, subject, kind, dueDate string) error {
	if n == nil {
		return nil
	}

	var body bytes.Buffer
	err := taskCreatedTemplate.Execute(&body, map[string]string{
		"Name":    name,
		"Subject": subject,
		"Kind":    kind,
		"DueDate": dueDate,
	})
	if err != nil {
		return fmt.Errorf("rendering notification: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.fromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Filed as %s: %s", kind, subject))
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(n.host, n.port, n.username, n.password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("sending notification to %s: %w", to, err)
	}
	return nil
}
