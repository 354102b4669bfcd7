package scheduler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Bukialo/crm-api/internal/models"
	"github.com/Bukialo/crm-api/internal/repository"
	"github.com/Bukialo/crm-api/internal/trigger"
)

// Scheduler drives time-based triggers. On every poll it scans the CRM for
// contacts and payments that satisfy an active automation's conditions and
// fires the automation directly, one execution per matching record.
type Scheduler struct {
	pollInterval time.Duration
	automations  repository.AutomationRepository
	crm          repository.CrmRepository
	dispatcher   *trigger.Dispatcher
	logger       zerolog.Logger
}

func New(
	pollInterval time.Duration,
	automations repository.AutomationRepository,
	crm repository.CrmRepository,
	dispatcher *trigger.Dispatcher,
	logger zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		pollInterval: pollInterval,
		automations:  automations,
		crm:          crm,
		dispatcher:   dispatcher,
		logger:       logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start runs the poll loop until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info().Dur("poll_interval", s.pollInterval).Msg("Scheduler started")
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.runOnce(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Scheduler poll failed")
			}
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) error {
	if err := s.pollBirthdays(ctx); err != nil {
		return err
	}
	if err := s.pollInactiveContacts(ctx); err != nil {
		return err
	}
	return s.pollOverduePayments(ctx)
}

func (s *Scheduler) pollBirthdays(ctx context.Context) error {
	automations, err := s.automations.ListActiveByTrigger(models.TriggerBirthday)
	if err != nil {
		return errors.Wrap(err, "list birthday automations")
	}

	for _, automation := range automations {
		daysBefore := conditionInt(automation.TriggerConditions, "daysBefore", 0)
		includeInactive := conditionBool(automation.TriggerConditions, "includeInactive")
		status := conditionStatus(automation.TriggerConditions)

		contacts, err := s.crm.FindContactsWithUpcomingBirthday(daysBefore, status, includeInactive)
		if err != nil {
			return errors.Wrap(err, "find contacts with upcoming birthday")
		}
		for _, contact := range contacts {
			s.fire(ctx, automation, map[string]interface{}{
				"contactId":         contact.ID,
				"firstName":         contact.FirstName,
				"lastName":          contact.LastName,
				"daysUntilBirthday": daysBefore,
				"isActive":          contact.IsActive,
			})
		}
	}
	return nil
}

func (s *Scheduler) pollInactiveContacts(ctx context.Context) error {
	automations, err := s.automations.ListActiveByTrigger(models.TriggerNoActivity30Days)
	if err != nil {
		return errors.Wrap(err, "list inactivity automations")
	}

	for _, automation := range automations {
		days := conditionInt(automation.TriggerConditions, "days", 30)
		status := conditionStatus(automation.TriggerConditions)
		excludeTags := conditionStrings(automation.TriggerConditions, "excludeTags")

		contacts, err := s.crm.FindInactiveContacts(days, status, excludeTags)
		if err != nil {
			return errors.Wrap(err, "find inactive contacts")
		}
		for _, contact := range contacts {
			payload := map[string]interface{}{
				"contactId":    contact.ID,
				"firstName":    contact.FirstName,
				"daysInactive": days,
				"tags":         contact.Tags,
			}
			if contact.LastContact != nil {
				payload["lastContact"] = contact.LastContact.Format(time.RFC3339)
			}
			s.fire(ctx, automation, payload)
		}
	}
	return nil
}

func (s *Scheduler) pollOverduePayments(ctx context.Context) error {
	automations, err := s.automations.ListActiveByTrigger(models.TriggerPaymentOverdue)
	if err != nil {
		return errors.Wrap(err, "list overdue payment automations")
	}

	now := time.Now()
	for _, automation := range automations {
		daysOverdue := conditionInt(automation.TriggerConditions, "daysOverdue", 1)
		minAmount := conditionFloat(automation.TriggerConditions, "minAmount")
		maxAmount := conditionFloat(automation.TriggerConditions, "maxAmount")

		payments, err := s.crm.FindOverduePayments(daysOverdue, minAmount, maxAmount)
		if err != nil {
			return errors.Wrap(err, "find overdue payments")
		}
		for _, payment := range payments {
			s.fire(ctx, automation, map[string]interface{}{
				"contactId":   payment.ContactID,
				"paymentId":   payment.ID,
				"amount":      payment.Amount,
				"dueDate":     payment.DueDate.Format(time.RFC3339),
				"daysOverdue": int(now.Sub(payment.DueDate).Hours() / 24),
			})
		}
	}
	return nil
}

func (s *Scheduler) fire(ctx context.Context, automation models.Automation, payload map[string]interface{}) {
	if _, err := s.dispatcher.Fire(ctx, automation, payload); err != nil {
		s.logger.Error().Err(err).
			Str("automation_id", automation.ID).
			Str("trigger_type", string(automation.TriggerType)).
			Msg("Failed to fire scheduled automation")
	}
}

func conditionInt(conditions map[string]interface{}, key string, fallback int) int {
	switch v := conditions[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}

func conditionFloat(conditions map[string]interface{}, key string) *float64 {
	switch v := conditions[key].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	default:
		return nil
	}
}

func conditionBool(conditions map[string]interface{}, key string) bool {
	b, _ := conditions[key].(bool)
	return b
}

func conditionStatus(conditions map[string]interface{}) *models.ContactStatus {
	s, ok := conditions["status"].(string)
	if !ok || s == "" {
		return nil
	}
	status := models.ContactStatus(s)
	return &status
}

func conditionStrings(conditions map[string]interface{}, key string) []string {
	switch v := conditions[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
