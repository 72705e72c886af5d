package notification

import "context"

// NoticeType identifies a registered notification template.
type NoticeType string

const (
	EmailConfirmationNotice NoticeType = "email_confirmation"
	UsernameReminderNotice  NoticeType = "username_reminder"
)

// NotificationData carries the recipient and template values for one send.
type NotificationData struct {
	To   string            // Recipient email address
	Data map[string]string // Values substituted into the template
}

// NoticeTemplate is a registered subject plus HTML and/or text body.
type NoticeTemplate struct {
	Subject string
	Html    string
	Text    string
}

// Notifier delivers a rendered notification. Implementations report delivery
// failure through the returned error; the caller decides policy.
type Notifier interface {
	Send(ctx context.Context, noticeType NoticeType, notification NotificationData, template NoticeTemplate) error
}
