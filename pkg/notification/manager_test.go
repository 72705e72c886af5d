package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerSend(t *testing.T) {
	mock := &MockNotifier{}
	manager, err := NewManager(WithNotifier(mock), WithDefaultTemplates())
	require.NoError(t, err)

	err = manager.Send(context.Background(), UsernameReminderNotice, NotificationData{
		To: "a@b.com",
		Data: map[string]string{
			"Name":      "Ada",
			"Username":  "ada@example.com",
			"ResetLink": "https://client.example.com/reset",
		},
	})
	require.NoError(t, err)

	require.Len(t, mock.SentNotifications, 1)
	assert.Equal(t, "a@b.com", mock.SentNotifications[0].To)
	assert.Equal(t, UsernameReminderNotice, mock.SentTypes[0])
}

func TestManagerSendUnknownNotice(t *testing.T) {
	manager, err := NewManager(WithNotifier(&MockNotifier{}))
	require.NoError(t, err)

	err = manager.Send(context.Background(), NoticeType("weekly_digest"), NotificationData{To: "a@b.com"})
	assert.Error(t, err)
}

func TestManagerSendPropagatesNotifierFailure(t *testing.T) {
	mock := &MockNotifier{Err: errors.New("smtp unreachable")}
	manager, err := NewManager(WithNotifier(mock), WithDefaultTemplates())
	require.NoError(t, err)

	err = manager.Send(context.Background(), EmailConfirmationNotice, NotificationData{To: "a@b.com"})
	assert.Error(t, err)
}

func TestManagerBoundsSendWithTimeout(t *testing.T) {
	slow := notifierFunc(func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})
	manager, err := NewManager(WithNotifier(slow), WithDefaultTemplates(), WithSendTimeout(50*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	err = manager.Send(context.Background(), EmailConfirmationNotice, NotificationData{To: "a@b.com"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRegisterNotificationValidatesInput(t *testing.T) {
	manager, err := NewManager()
	require.NoError(t, err)

	assert.Error(t, manager.RegisterNotification("", NoticeTemplate{Subject: "s", Text: "t"}))
	assert.Error(t, manager.RegisterNotification(UsernameReminderNotice, NoticeTemplate{Subject: "s"}))
	assert.NoError(t, manager.RegisterNotification(UsernameReminderNotice, NoticeTemplate{Subject: "s", Text: "t"}))
}

type notifierFunc func(ctx context.Context) error

func (f notifierFunc) Send(ctx context.Context, _ NoticeType, _ NotificationData, _ NoticeTemplate) error {
	return f(ctx)
}
