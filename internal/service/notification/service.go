package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/talent-backend-go/internal/domain/notification"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/email"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/events"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/sse"
	"github.com/google/uuid"
)

// Config holds notification service configuration
type Config struct {
	BatchSize     int           // default: 100
	FlushInterval time.Duration // default: 2 seconds
	WorkerCount   int           // default: 2
	QueueSize     int           // default: 1000
	FrontendURL   string
}

type service struct {
	repo      notification.Repository
	hub       *sse.Hub
	publisher events.Publisher
	mailer    email.EmailService
	config    Config
	now       func() time.Time

	queue  chan notification.CreateNotificationRequest
	wg     sync.WaitGroup
	stopCh chan struct{}
	once   sync.Once
}

// NewNotificationService starts the background workers. mailer may be nil,
// in which case email delivery is skipped.
func NewNotificationService(repo notification.Repository, hub *sse.Hub, publisher events.Publisher, mailer email.EmailService, cfg Config) notification.Service {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 2 * time.Second
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 1000
	}
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}

	s := &service{
		repo:      repo,
		hub:       hub,
		publisher: publisher,
		mailer:    mailer,
		config:    cfg,
		now:       time.Now,
		queue:     make(chan notification.CreateNotificationRequest, cfg.QueueSize),
		stopCh:    make(chan struct{}),
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	slog.Info("Notification service started",
		"workers", cfg.WorkerCount, "batch_size", cfg.BatchSize, "flush_interval", cfg.FlushInterval)

	return s
}

func (s *service) worker(id int) {
	defer s.wg.Done()

	batch := make([]notification.CreateNotificationRequest, 0, s.config.BatchSize)
	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		s.deliver(ctx, id, batch)
		batch = batch[:0]
	}

	for {
		select {
		case req := <-s.queue:
			batch = append(batch, req)
			if len(batch) >= s.config.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.stopCh:
			// drain what is still queued before exiting
			for {
				select {
				case req := <-s.queue:
					batch = append(batch, req)
					if len(batch) >= s.config.BatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}

// deliver persists the batch, then fans every notification out to SSE,
// the event stream and email.
func (s *service) deliver(ctx context.Context, workerID int, reqs []notification.CreateNotificationRequest) {
	notifications := make([]notification.Notification, len(reqs))
	for i, req := range reqs {
		notifications[i] = notification.Notification{
			ID:        uuid.New().String(),
			CompanyID: req.CompanyID,
			Recipient: req.Recipient,
			Type:      req.Type,
			Title:     req.Title,
			Message:   req.Message,
			Data:      req.Data,
			CreatedAt: s.now(),
		}
	}

	if err := s.repo.CreateBatch(ctx, notifications); err != nil {
		slog.Error("Failed to insert notifications", "worker", workerID, "count", len(notifications), "error", err)
		return
	}

	evts := make([]events.Event, 0, len(notifications))
	for i, n := range notifications {
		resp := notification.ToResponse(n)
		s.hub.Publish(sse.Event{
			ID:    n.ID,
			Topic: n.Recipient,
			Event: "notification",
			Data:  resp,
		})

		if evt, err := toEvent(n); err != nil {
			slog.Error("Failed to encode notification event", "notification_id", n.ID, "error", err)
		} else {
			evts = append(evts, evt)
		}

		if reqs[i].RecipientEmail != nil && s.mailer != nil {
			s.sendEmail(*reqs[i].RecipientEmail, n)
		}
	}

	if err := s.publisher.Publish(ctx, evts...); err != nil {
		slog.Error("Failed to publish notification events", "worker", workerID, "error", err)
	}
}

func (s *service) sendEmail(to string, n notification.Notification) {
	err := s.mailer.SendNotification(to, email.NotificationEmailData{
		Subject:   n.Title,
		Title:     n.Title,
		Message:   n.Message,
		ActionURL: s.config.FrontendURL,
	})
	if err != nil {
		slog.Error("Failed to send notification email", "notification_id", n.ID, "to", to, "error", err)
	}
}

func toEvent(n notification.Notification) (events.Event, error) {
	payload, err := json.Marshal(notification.ToResponse(n))
	if err != nil {
		return events.Event{}, fmt.Errorf("marshal notification: %w", err)
	}
	return events.Event{
		ID:            n.ID,
		Type:          "notification." + string(n.Type),
		AggregateType: "notification",
		AggregateID:   n.Recipient,
		CompanyID:     n.CompanyID,
		Payload:       payload,
		OccurredAt:    n.CreatedAt,
	}, nil
}

// Queue implements notification.Service.
func (s *service) Queue(ctx context.Context, req notification.CreateNotificationRequest) {
	select {
	case s.queue <- req:
	default:
		// Queue full, deliver inline
		slog.Warn("Notification queue full, delivering inline", "type", req.Type, "recipient", req.Recipient)
		s.deliver(context.WithoutCancel(ctx), -1, []notification.CreateNotificationRequest{req})
	}
}

// ListForRecipients implements notification.Service.
func (s *service) ListForRecipients(ctx context.Context, recipients []string, limit int) ([]notification.NotificationResponse, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}

	notifications, err := s.repo.ListByRecipients(ctx, recipients, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	responses := make([]notification.NotificationResponse, len(notifications))
	for i, n := range notifications {
		responses[i] = notification.ToResponse(n)
	}
	return responses, nil
}

// Shutdown flushes queued notifications and stops the workers.
func (s *service) Shutdown() {
	s.once.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
		slog.Info("Notification service stopped")
	})
}
