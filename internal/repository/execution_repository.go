package repository

import (
	"database/sql"
	"encoding/json"

	"github.com/Bukialo/crm-api/internal/models"
	"github.com/pkg/errors"
)

// ErrExecutionImmutable is returned on writes against a completed or failed
// execution.
var ErrExecutionImmutable = errors.New("execution is terminal and cannot be modified")

type ExecutionRepository interface {
	Create(automationID string, triggeredBy map[string]interface{}) (models.Execution, error)
	MarkRunning(id string) error
	AppendActionResult(id string, result models.ActionResult) error
	Complete(id string, status models.ExecutionStatus, errorMessage string) error
	GetByID(id string) (models.Execution, error)
	ListByAutomation(automationID string, limit, offset int) ([]models.Execution, error)
	Stats(days int) (models.ExecutionStat, error)
}

type executionRepository struct {
	db *sql.DB
}

func NewExecutionRepository(db *sql.DB) ExecutionRepository {
	return &executionRepository{db: db}
}

const executionColumns = "id, automation_id, status, triggered_by, actions_executed, error, started_at, completed_at, created_at, updated_at"

func (r *executionRepository) Create(automationID string, triggeredBy map[string]interface{}) (models.Execution, error) {
	snapshot, err := json.Marshal(triggeredBy)
	if err != nil {
		return models.Execution{}, errors.Wrap(err, "marshal trigger snapshot")
	}

	exec := models.Execution{
		AutomationID: automationID,
		Status:       models.ExecutionPending,
		TriggeredBy:  snapshot,
	}
	query := `
		INSERT INTO crm.automation_executions (automation_id, status, triggered_by, actions_executed)
		SELECT $1, $2, $3, '[]'::jsonb
		FROM crm.automations
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING id, created_at, updated_at
	`
	err = r.db.QueryRow(query, automationID, exec.Status, snapshot).
		Scan(&exec.ID, &exec.CreatedAt, &exec.UpdatedAt)
	if err == sql.ErrNoRows {
		return models.Execution{}, ErrNotFound
	}
	if err != nil {
		return models.Execution{}, errors.Wrap(err, "insert execution")
	}
	return exec, nil
}

func (r *executionRepository) MarkRunning(id string) error {
	result, err := r.db.Exec(`
		UPDATE crm.automation_executions
		SET status = $2, started_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('completed', 'failed')
	`, id, models.ExecutionRunning)
	if err != nil {
		return errors.Wrap(err, "mark execution running")
	}
	return r.requireWritable(id, result)
}

func (r *executionRepository) AppendActionResult(id string, actionResult models.ActionResult) error {
	entry, err := json.Marshal(actionResult)
	if err != nil {
		return errors.Wrap(err, "marshal action result")
	}
	result, err := r.db.Exec(`
		UPDATE crm.automation_executions
		SET actions_executed = actions_executed || $2::jsonb, updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('completed', 'failed')
	`, id, entry)
	if err != nil {
		return errors.Wrap(err, "append action result")
	}
	return r.requireWritable(id, result)
}

func (r *executionRepository) Complete(id string, status models.ExecutionStatus, errorMessage string) error {
	var errValue interface{}
	if errorMessage != "" {
		errValue = errorMessage
	}
	result, err := r.db.Exec(`
		UPDATE crm.automation_executions
		SET status = $2, error = $3, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('completed', 'failed')
	`, id, status, errValue)
	if err != nil {
		return errors.Wrap(err, "complete execution")
	}
	return r.requireWritable(id, result)
}

// requireWritable distinguishes "row missing" from "row terminal" when an
// update matched nothing.
func (r *executionRepository) requireWritable(id string, result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	var exists bool
	if err := r.db.QueryRow(`SELECT EXISTS (SELECT 1 FROM crm.automation_executions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrExecutionImmutable
	}
	return ErrNotFound
}

func (r *executionRepository) GetByID(id string) (models.Execution, error) {
	query := `
		SELECT ` + executionColumns + `
		FROM crm.automation_executions
		WHERE id = $1
	`
	exec, err := scanExecution(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return models.Execution{}, ErrNotFound
	}
	return exec, err
}

func (r *executionRepository) ListByAutomation(automationID string, limit, offset int) ([]models.Execution, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `
		SELECT ` + executionColumns + `
		FROM crm.automation_executions
		WHERE automation_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(query, automationID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "list executions")
	}
	defer rows.Close()

	var executions []models.Execution
	for rows.Next() {
		exec, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		executions = append(executions, exec)
	}
	return executions, rows.Err()
}

func (r *executionRepository) Stats(days int) (models.ExecutionStat, error) {
	var stat models.ExecutionStat

	summary := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*) FILTER (WHERE status = 'running'),
			(SELECT COUNT(*) FROM crm.automations WHERE deleted_at IS NULL)
		FROM crm.automation_executions
		WHERE created_at >= NOW() - ($1 || ' days')::interval
	`
	err := r.db.QueryRow(summary, days).Scan(
		&stat.Total, &stat.Succeeded, &stat.Failed, &stat.Running, &stat.TotalAutomations,
	)
	if err != nil {
		return stat, errors.Wrap(err, "execution summary stats")
	}
	if stat.Total > 0 {
		stat.SuccessRate = float64(stat.Succeeded) / float64(stat.Total)
	}

	perDay := `
		SELECT
			date_trunc('day', created_at) AS day,
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'failed'),
			COUNT(*) FILTER (WHERE status = 'running'),
			COUNT(*) FILTER (WHERE status = 'pending')
		FROM crm.automation_executions
		WHERE created_at >= NOW() - ($1 || ' days')::interval
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.db.Query(perDay, days)
	if err != nil {
		return stat, errors.Wrap(err, "execution per-day stats")
	}
	defer rows.Close()

	for rows.Next() {
		var day models.ExecutionStatDay
		if err := rows.Scan(&day.Day, &day.Succeeded, &day.Failed, &day.Running, &day.Pending); err != nil {
			return stat, err
		}
		stat.PerDay = append(stat.PerDay, day)
	}
	return stat, rows.Err()
}

func scanExecution(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Execution, error) {
	var (
		exec        models.Execution
		triggeredBy []byte
		actionsRaw  []byte
		errMsg      sql.NullString
		startedAt   sql.NullTime
		completedAt sql.NullTime
	)
	if err := scanner.Scan(
		&exec.ID,
		&exec.AutomationID,
		&exec.Status,
		&triggeredBy,
		&actionsRaw,
		&errMsg,
		&startedAt,
		&completedAt,
		&exec.CreatedAt,
		&exec.UpdatedAt,
	); err != nil {
		return models.Execution{}, err
	}

	exec.TriggeredBy = triggeredBy
	if len(actionsRaw) > 0 {
		if err := json.Unmarshal(actionsRaw, &exec.ActionsExecuted); err != nil {
			return models.Execution{}, errors.Wrap(err, "unmarshal action results")
		}
	}
	if errMsg.Valid {
		exec.Error = &errMsg.String
	}
	if startedAt.Valid {
		t := startedAt.Time
		exec.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		exec.CompletedAt = &t
	}
	return exec, nil
}
