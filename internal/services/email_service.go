package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/formhive/formhive/internal/config"
	"github.com/formhive/formhive/internal/models"
)

// EmailService sends admin notification emails over SMTP when a submission
// is accepted.
type EmailService struct {
	config *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{config: cfg}
}

type emailData struct {
	FormTitle  string
	Submission *models.Submission
	Answers    []emailAnswer
}

type emailAnswer struct {
	Label string
	Value interface{}
}

const submissionEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New submission: {{.FormTitle}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #4CAF50; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background-color: #f9f9f9; }
        .footer { padding: 20px; text-align: center; color: #666; }
        .data-table { width: 100%; border-collapse: collapse; margin: 20px 0; }
        .data-table th, .data-table td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        .data-table th { background-color: #f2f2f2; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.FormTitle}}</h1>
            <p>New submission received</p>
        </div>
        <div class="content">
            <table class="data-table">
                {{range .Answers}}
                <tr>
                    <th>{{.Label}}</th>
                    <td>{{.Value}}</td>
                </tr>
                {{end}}
            </table>
            <p><strong>Submission ID:</strong> {{.Submission.ID}}</p>
            <p><strong>Submitted at:</strong> {{.Submission.Metadata.SubmittedAt.Format "2006-01-02 15:04:05 UTC"}}</p>
        </div>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>`

// SendSubmissionEmail mails the configured recipient about a new accepted
// submission. Disabled or unconfigured email is a silent no-op.
func (es *EmailService) SendSubmissionEmail(form *models.Form, submission *models.Submission) error {
	if !es.config.Email.Enabled || es.config.Email.NotifyTo == "" {
		return nil
	}

	data := emailData{
		FormTitle:  form.Title,
		Submission: submission,
	}
	for _, field := range submission.Fields {
		label := field.FieldID
		if def, ok := form.FieldByID(field.FieldID); ok {
			label = def.Label
		}
		data.Answers = append(data.Answers, emailAnswer{Label: label, Value: field.Value})
	}

	body, err := renderSubmissionEmail(data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	subject := fmt.Sprintf("New submission: %s", form.Title)
	return es.sendSMTPEmail(es.config.Email.NotifyTo, subject, body)
}

func renderSubmissionEmail(data emailData) (string, error) {
	tmpl, err := template.New("email").Parse(submissionEmailTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse email template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}
	return buf.String(), nil
}

func (es *EmailService) sendSMTPEmail(to, subject, body string) error {
	message := fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`,
		to,
		es.config.Email.SMTP.From,
		subject,
		body,
	)

	addr := fmt.Sprintf("%s:%d", es.config.Email.SMTP.Host, es.config.Email.SMTP.Port)

	// Auth stays nil for test servers like MailHog.
	var auth smtp.Auth
	if es.config.Email.SMTP.Username != "" && es.config.Email.SMTP.Password != "" {
		auth = smtp.PlainAuth("",
			es.config.Email.SMTP.Username,
			es.config.Email.SMTP.Password,
			es.config.Email.SMTP.Host,
		)
	}

	if err := smtp.SendMail(addr, auth, es.config.Email.SMTP.From, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send SMTP email: %w", err)
	}
	return nil
}
