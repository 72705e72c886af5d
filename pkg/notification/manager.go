package notification

import (
	"context"
	"embed"
	"fmt"
	"log/slog"
	"time"
)

//go:embed templates/*
var templateFiles embed.FS

func loadTemplate(filename string) string {
	content, err := templateFiles.ReadFile(filename)
	if err != nil {
		slog.Error("Error reading template file!", "err", err, "filename", filename)
		return ""
	}
	return string(content)
}

// Manager holds the registered notice templates and the notifier that
// delivers them. Every send is bounded by the configured timeout so a slow
// transport cannot stall the calling flow indefinitely.
type Manager struct {
	notifier    Notifier
	registry    map[NoticeType]NoticeTemplate
	sendTimeout time.Duration
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager) error

// WithNotifier sets the delivery backend.
func WithNotifier(n Notifier) ManagerOption {
	return func(m *Manager) error {
		m.notifier = n
		return nil
	}
}

// WithSendTimeout bounds each delivery attempt.
func WithSendTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) error {
		if d <= 0 {
			return fmt.Errorf("send timeout must be positive, got %v", d)
		}
		m.sendTimeout = d
		return nil
	}
}

// WithDefaultTemplates registers the templates for all credential-lifecycle
// notices.
func WithDefaultTemplates() ManagerOption {
	return func(m *Manager) error {
		templates := map[NoticeType]NoticeTemplate{
			EmailConfirmationNotice: {
				Subject: "Confirm your email",
				Html:    loadTemplate("templates/email/email_confirmation.html"),
			},
			UsernameReminderNotice: {
				Subject: "Username and password reset",
				Html:    loadTemplate("templates/email/username_reminder.html"),
			},
		}
		for noticeType, template := range templates {
			if err := m.RegisterNotification(noticeType, template); err != nil {
				return err
			}
		}
		return nil
	}
}

// NewManager creates a notification manager with the provided options.
func NewManager(opts ...ManagerOption) (*Manager, error) {
	m := &Manager{
		registry:    make(map[NoticeType]NoticeTemplate),
		sendTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RegisterNotification adds or replaces a notice template.
func (m *Manager) RegisterNotification(noticeType NoticeType, template NoticeTemplate) error {
	if noticeType == "" {
		return fmt.Errorf("invalid input: notification type cannot be empty")
	}
	if template.Subject == "" || (template.Html == "" && template.Text == "") {
		return fmt.Errorf("invalid template for %s: subject and a body are required", noticeType)
	}
	m.registry[noticeType] = template
	return nil
}

// Send delivers the notice of the given type, bounded by the send timeout.
func (m *Manager) Send(ctx context.Context, noticeType NoticeType, notification NotificationData) error {
	template, ok := m.registry[noticeType]
	if !ok {
		return fmt.Errorf("no template registered for notification type: %s", noticeType)
	}
	if m.notifier == nil {
		return fmt.Errorf("no notifier registered")
	}

	ctx, cancel := context.WithTimeout(ctx, m.sendTimeout)
	defer cancel()

	return m.notifier.Send(ctx, noticeType, notification, template)
}
