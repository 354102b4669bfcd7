package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Bukialo/crm-api/internal/models"
	"github.com/Bukialo/crm-api/internal/repository"
)

type Event struct {
	Event    models.NotificationEvent
	Severity models.NotificationSeverity
	Title    string
	Message  string
	Metadata map[string]interface{}
}

type Service interface {
	Publish(ctx context.Context, evt Event) (models.Notification, error)
	NotifyExecutionStarted(ctx context.Context, automationID, executionID, automationName string) error
	NotifyExecutionSucceeded(ctx context.Context, automationID, executionID, automationName string, actionsRun int) error
	NotifyExecutionFailed(ctx context.Context, automationID, executionID, automationName, reason string) error
	NotifyAutomationCreated(ctx context.Context, automationID, automationName string) error
	ListRecent(ctx context.Context, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, notificationID string) (models.Notification, error)
}

type service struct {
	repo      repository.NotificationRepository
	logger    zerolog.Logger
	notifiers []Notifier
}

func NewService(repo repository.NotificationRepository, logger zerolog.Logger, notifiers ...Notifier) Service {
	active := make([]Notifier, 0, len(notifiers))
	for _, notifier := range notifiers {
		if notifier != nil {
			active = append(active, notifier)
		}
	}
	return &service{
		repo:      repo,
		logger:    logger.With().Str("component", "notification_service").Logger(),
		notifiers: active,
	}
}

func (s *service) Publish(ctx context.Context, evt Event) (models.Notification, error) {
	if evt.Event == "" {
		return models.Notification{}, fmt.Errorf("event type is required")
	}
	if evt.Severity == "" {
		evt.Severity = models.NotificationSeverityInfo
	}
	title := strings.TrimSpace(evt.Title)
	message := strings.TrimSpace(evt.Message)
	if title == "" {
		title = string(evt.Event)
	}

	notif, err := s.repo.Create(ctx, repository.CreateNotificationParams{
		Event:    evt.Event,
		Severity: evt.Severity,
		Title:    title,
		Message:  message,
		Metadata: evt.Metadata,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("event_type", string(evt.Event)).Msg("Failed to persist notification")
		return models.Notification{}, err
	}
	for _, notifier := range s.notifiers {
		if err := notifier.Notify(ctx, notif); err != nil {
			logNotifyError(s.logger, err, notifierChannelName(notifier), notif)
		}
	}
	return notif, nil
}

func (s *service) NotifyExecutionStarted(ctx context.Context, automationID, executionID, automationName string) error {
	name := fallbackName(automationName, automationID)
	_, err := s.Publish(ctx, Event{
		Event:    models.NotificationEventExecutionStarted,
		Severity: models.NotificationSeverityInfo,
		Title:    fmt.Sprintf("Automation started: %s", name),
		Message:  fmt.Sprintf("Automation %s execution %s has started.", name, executionID),
		Metadata: executionMetadata(automationID, executionID, name),
	})
	return err
}

func (s *service) NotifyExecutionSucceeded(ctx context.Context, automationID, executionID, automationName string, actionsRun int) error {
	name := fallbackName(automationName, automationID)
	metadata := executionMetadata(automationID, executionID, name)
	metadata["actions_run"] = actionsRun
	_, err := s.Publish(ctx, Event{
		Event:    models.NotificationEventExecutionSucceeded,
		Severity: models.NotificationSeverityInfo,
		Title:    fmt.Sprintf("Automation completed: %s", name),
		Message:  fmt.Sprintf("Automation %s execution %s completed with %d action(s).", name, executionID, actionsRun),
		Metadata: metadata,
	})
	return err
}

func (s *service) NotifyExecutionFailed(ctx context.Context, automationID, executionID, automationName, reason string) error {
	name := fallbackName(automationName, automationID)
	metadata := executionMetadata(automationID, executionID, name)
	if reason = strings.TrimSpace(reason); reason != "" {
		metadata["reason"] = reason
	} else {
		reason = "unknown error"
	}
	_, err := s.Publish(ctx, Event{
		Event:    models.NotificationEventExecutionFailed,
		Severity: models.NotificationSeverityError,
		Title:    fmt.Sprintf("Automation failed: %s", name),
		Message:  fmt.Sprintf("Automation %s execution %s failed: %s", name, executionID, reason),
		Metadata: metadata,
	})
	return err
}

func (s *service) NotifyAutomationCreated(ctx context.Context, automationID, automationName string) error {
	name := fallbackName(automationName, automationID)
	_, err := s.Publish(ctx, Event{
		Event:    models.NotificationEventAutomationCreated,
		Severity: models.NotificationSeverityInfo,
		Title:    fmt.Sprintf("Automation created: %s", name),
		Message:  fmt.Sprintf("Automation %s is ready to receive events.", name),
		Metadata: map[string]interface{}{
			"automation_id": automationID,
			"automation":    name,
		},
	})
	return err
}

func (s *service) ListRecent(ctx context.Context, limit int) ([]models.Notification, error) {
	return s.repo.ListRecent(ctx, limit)
}

func (s *service) MarkRead(ctx context.Context, notificationID string) (models.Notification, error) {
	return s.repo.MarkRead(ctx, notificationID)
}

func executionMetadata(automationID, executionID, name string) map[string]interface{} {
	return map[string]interface{}{
		"automation_id": automationID,
		"automation":    name,
		"execution_id":  executionID,
	}
}

func fallbackName(name, id string) string {
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		return trimmed
	}
	return id
}
