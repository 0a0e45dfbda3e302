package notification

import "context"

type Service interface {
	// Queue hands the notification to the background workers. Delivery
	// failures are logged and never surface to the caller.
	Queue(ctx context.Context, req CreateNotificationRequest)
	ListForRecipients(ctx context.Context, recipients []string, limit int) ([]NotificationResponse, error)
	Shutdown()
}
