package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/database"
	"github.com/google/uuid"
)

type notificationRepository struct {
	db *database.DB
}

func NewNotificationRepository(db *database.DB) notification.Repository {
	return &notificationRepository{db: db}
}

// CreateBatch inserts all notifications in one statement.
func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []notification.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	q := GetQuerier(ctx, r.db)

	const cols = 8
	valueStrings := make([]string, 0, len(notifications))
	valueArgs := make([]interface{}, 0, len(notifications)*cols)

	for i, n := range notifications {
		if n.ID == "" {
			n.ID = uuid.New().String()
		}

		dataJSON, err := json.Marshal(n.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal notification data: %w", err)
		}

		base := i * cols
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8,
		))
		valueArgs = append(valueArgs,
			n.ID,
			n.CompanyID,
			n.Recipient,
			string(n.Type),
			n.Title,
			n.Message,
			dataJSON,
			n.CreatedAt,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO notifications (id, company_id, recipient, type, title, message, data, created_at)
		VALUES %s
	`, strings.Join(valueStrings, ", "))

	if _, err := q.Exec(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("failed to batch create notifications: %w", err)
	}
	return nil
}

// ListByRecipients returns the newest notifications addressed to any of the
// recipient topics.
func (r *notificationRepository) ListByRecipients(ctx context.Context, recipients []string, limit int) ([]notification.Notification, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, recipient, type, title, message, data, created_at
		FROM notifications
		WHERE recipient = ANY($1)
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := q.Query(ctx, query, recipients, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []notification.Notification{}
	for rows.Next() {
		var (
			n        notification.Notification
			notifTyp string
			dataJSON []byte
		)
		if err := rows.Scan(&n.ID, &n.CompanyID, &n.Recipient, &notifTyp, &n.Title, &n.Message, &dataJSON, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Type = notification.Type(notifTyp)
		if len(dataJSON) > 0 {
			if err := json.Unmarshal(dataJSON, &n.Data); err != nil {
				return nil, fmt.Errorf("failed to decode notification data: %w", err)
			}
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
