package notification

import "context"

type Repository interface {
	CreateBatch(ctx context.Context, notifications []Notification) error
	ListByRecipients(ctx context.Context, recipients []string, limit int) ([]Notification, error)
}
