package notification

import "time"

type CreateNotificationRequest struct {
	CompanyID string
	Recipient string
	// RecipientEmail, when set, also delivers the notification by email.
	RecipientEmail *string
	Type           Type
	Title          string
	Message        string
	Data           map[string]interface{}
}

type NotificationResponse struct {
	ID        string                 `json:"id"`
	Type      Type                   `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

func ToResponse(n Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		CreatedAt: n.CreatedAt,
	}
}
