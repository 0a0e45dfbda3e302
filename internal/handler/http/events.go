package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/talent-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/sse"
)

const sseKeepalive = 30 * time.Second

type EventsHandler interface {
	Stream(w http.ResponseWriter, r *http.Request)
	Notifications(w http.ResponseWriter, r *http.Request)
}

type eventsHandlerImpl struct {
	hub          *sse.Hub
	notifService notification.Service
	jwtService   jwt.Service
}

func NewEventsHandler(hub *sse.Hub, notifService notification.Service, jwtService jwt.Service) EventsHandler {
	return &eventsHandlerImpl{
		hub:          hub,
		notifService: notifService,
		jwtService:   jwtService,
	}
}

// recipientsFor lists the notification topics the caller receives: their own
// employee topic and, for HR, the company HR topic.
func recipientsFor(claims jwt.Claims) []string {
	var recipients []string
	if claims.EmployeeID != nil {
		recipients = append(recipients, notification.EmployeeRecipient(*claims.EmployeeID))
	}
	if claims.IsHR() {
		recipients = append(recipients, notification.HRRecipient(claims.CompanyID))
	}
	return recipients
}

func (h *eventsHandlerImpl) Notifications(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	list, err := h.notifService.ListForRecipients(r.Context(), recipientsFor(claims), getIntQueryParam(r, "limit", 50))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, list)
}

// Stream handles the SSE connection. EventSource cannot send headers, so the
// short-lived SSE token comes in the query string.
func (h *eventsHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.jwtService.ValidateSSEToken(tokenStr)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.hub.Subscribe(recipientsFor(claims)...)
	defer cleanup()

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"user_id\":%q}\n\n", claims.UserID)
	flusher.Flush()

	keepalive := time.NewTicker(sseKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				continue
			}
			if event.ID != "" {
				fmt.Fprintf(w, "id: %s\n", event.ID)
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
