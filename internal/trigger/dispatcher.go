package trigger

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/Bukialo/crm-api/internal/metrics"
	"github.com/Bukialo/crm-api/internal/models"
	"github.com/Bukialo/crm-api/internal/repository"
)

// Launcher starts the asynchronous run of a matched automation. Implemented
// by the Temporal workflow client; abstracted here so the dispatcher can be
// tested without a running cluster.
type Launcher interface {
	Launch(ctx context.Context, automation models.Automation, execution models.Execution) error
}

// Dispatcher fans an incoming event out to every active automation whose
// trigger type and conditions match, creating one execution per match.
type Dispatcher struct {
	automations repository.AutomationRepository
	executions  repository.ExecutionRepository
	matcher     *Matcher
	launcher    Launcher
	logger      zerolog.Logger
}

func NewDispatcher(
	automations repository.AutomationRepository,
	executions repository.ExecutionRepository,
	launcher Launcher,
	logger zerolog.Logger,
) *Dispatcher {
	return &Dispatcher{
		automations: automations,
		executions:  executions,
		matcher:     NewMatcher(),
		launcher:    launcher,
		logger:      logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Dispatch matches the event against all active automations of its trigger
// type and launches one execution per match. A failure to launch one
// automation does not stop the others.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) ([]models.Execution, error) {
	metrics.EventsReceived.WithLabelValues(string(ev.Type)).Inc()

	candidates, err := d.automations.ListActiveByTrigger(ev.Type)
	if err != nil {
		return nil, errors.Wrap(err, "list automations for trigger")
	}

	var launched []models.Execution
	for _, automation := range candidates {
		if !d.matcher.Matches(automation, ev) {
			continue
		}
		metrics.AutomationsMatched.WithLabelValues(string(ev.Type)).Inc()

		execution, err := d.Fire(ctx, automation, ev.Payload)
		if err != nil {
			d.logger.Error().Err(err).
				Str("automation_id", automation.ID).
				Str("trigger_type", string(ev.Type)).
				Msg("Failed to launch automation")
			continue
		}
		launched = append(launched, execution)
	}

	d.logger.Info().
		Str("trigger_type", string(ev.Type)).
		Int("candidates", len(candidates)).
		Int("launched", len(launched)).
		Msg("Event dispatched")
	return launched, nil
}

// Fire creates an execution for a single automation and hands it to the
// launcher, bypassing condition matching. Used for manual runs and for
// time-based triggers where the scheduler already selected the targets.
func (d *Dispatcher) Fire(ctx context.Context, automation models.Automation, triggerData map[string]interface{}) (models.Execution, error) {
	execution, err := d.executions.Create(automation.ID, triggerData)
	if err != nil {
		return models.Execution{}, errors.Wrap(err, "create execution")
	}
	if err := d.launcher.Launch(ctx, automation, execution); err != nil {
		return models.Execution{}, errors.Wrapf(err, "launch execution %s", execution.ID)
	}
	d.logger.Info().
		Str("automation_id", automation.ID).
		Str("execution_id", execution.ID).
		Msg("Automation execution started")
	return execution, nil
}
