package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/formhive/formhive/internal/config"
	"github.com/formhive/formhive/internal/models"
)

// NotificationService pushes side-channel notices after accepted
// submissions: ntfy messages and webhook POSTs. Both are best-effort and
// never affect the ingestion result.
type NotificationService struct {
	config *config.Config
	client *http.Client
}

func NewNotificationService(cfg *config.Config) *NotificationService {
	return &NotificationService{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type NtfyMessage struct {
	Topic    string   `json:"topic"`
	Message  string   `json:"message"`
	Title    string   `json:"title"`
	Tags     []string `json:"tags,omitempty"`
	Priority int      `json:"priority,omitempty"`
}

// SendSubmissionNotification notifies the configured ntfy topic about a new
// accepted submission.
func (ns *NotificationService) SendSubmissionNotification(form *models.Form, submission *models.Submission) error {
	if !ns.config.Notifications.Ntfy.Enabled {
		return nil
	}

	dataStr := ""
	for _, field := range submission.Fields {
		def, ok := form.FieldByID(field.FieldID)
		label := field.FieldID
		if ok {
			label = def.Label
		}
		dataStr += fmt.Sprintf("%s: %v\n", label, field.Value)
	}

	message := fmt.Sprintf(`New submission

Form: %s
Submission ID: %s
Submitted: %s
IP Address: %s

Data:
%s`,
		form.Title,
		shortID(submission.ID),
		submission.Metadata.SubmittedAt.Format("2006-01-02 15:04:05"),
		submission.Metadata.IPAddress,
		dataStr,
	)

	return ns.sendNtfyMessage(NtfyMessage{
		Topic:    ns.config.Notifications.Ntfy.Topic,
		Title:    fmt.Sprintf("Form Submission: %s", form.Title),
		Message:  message,
		Tags:     []string{"white_check_mark", "forms"},
		Priority: 3,
	})
}

// SendSubmissionWebhook POSTs the submission to the configured webhook URL.
func (ns *NotificationService) SendSubmissionWebhook(form *models.Form, submission *models.Submission) error {
	if !ns.config.Notifications.Webhook.Enabled || ns.config.Notifications.Webhook.URL == "" {
		return nil
	}

	payload := map[string]interface{}{
		"event":      "submission.created",
		"formId":     form.ID,
		"formTitle":  form.Title,
		"submission": submission,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequest("POST", ns.config.Notifications.Webhook.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := ns.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

func (ns *NotificationService) sendNtfyMessage(msg NtfyMessage) error {
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal ntfy message: %w", err)
	}

	req, err := http.NewRequest("POST", ns.config.Notifications.Ntfy.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create ntfy request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if ns.config.Notifications.Ntfy.Token != "" {
		req.Header.Set("Authorization", "Bearer "+ns.config.Notifications.Ntfy.Token)
	}

	resp, err := ns.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ntfy server returned status %d", resp.StatusCode)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
