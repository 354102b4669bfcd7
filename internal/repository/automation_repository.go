package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Bukialo/crm-api/internal/models"
	"github.com/Bukialo/crm-api/internal/validation"
	"github.com/pkg/errors"
)

// ErrNotFound is returned when a row does not exist or is soft-deleted.
var ErrNotFound = errors.New("not found")

type AutomationRepository interface {
	Create(automation models.Automation) (models.Automation, error)
	GetByID(id string) (models.Automation, error)
	List(query validation.ListQuery) ([]models.Automation, int, error)
	ListActiveByTrigger(triggerType models.TriggerType) ([]models.Automation, error)
	Update(id string, update validation.AutomationUpdate) (models.Automation, error)
	Toggle(id string) (models.Automation, error)
	Delete(id string) error
}

type automationRepository struct {
	db *sql.DB
}

func NewAutomationRepository(db *sql.DB) AutomationRepository {
	return &automationRepository{db: db}
}

const automationColumns = "id, name, description, trigger_type, trigger_conditions, actions, is_active, created_at, updated_at"

func (r *automationRepository) Create(automation models.Automation) (models.Automation, error) {
	conditions, err := json.Marshal(automation.TriggerConditions)
	if err != nil {
		return models.Automation{}, errors.Wrap(err, "marshal trigger conditions")
	}
	actions, err := automation.MarshalActions()
	if err != nil {
		return models.Automation{}, errors.Wrap(err, "marshal actions")
	}

	query := `
		INSERT INTO crm.automations (name, description, trigger_type, trigger_conditions, actions, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err = r.db.QueryRow(query,
		automation.Name,
		automation.Description,
		automation.TriggerType,
		conditions,
		actions,
		automation.IsActive,
	).Scan(&automation.ID, &automation.CreatedAt, &automation.UpdatedAt)
	if err != nil {
		return models.Automation{}, errors.Wrap(err, "insert automation")
	}
	return automation, nil
}

func (r *automationRepository) GetByID(id string) (models.Automation, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM crm.automations
		WHERE id = $1 AND deleted_at IS NULL
	`, automationColumns)

	automation, err := scanAutomation(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return models.Automation{}, ErrNotFound
	}
	return automation, err
}

func (r *automationRepository) List(query validation.ListQuery) ([]models.Automation, int, error) {
	where := []string{"deleted_at IS NULL"}
	args := []interface{}{}

	if query.IsActive != nil {
		args = append(args, *query.IsActive)
		where = append(where, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if query.TriggerType != nil {
		args = append(args, *query.TriggerType)
		where = append(where, fmt.Sprintf("trigger_type = $%d", len(args)))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM crm.automations WHERE " + whereClause
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count automations")
	}

	args = append(args, query.PageSize, (query.Page-1)*query.PageSize)
	listQuery := fmt.Sprintf(`
		SELECT %s
		FROM crm.automations
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, automationColumns, whereClause, len(args)-1, len(args))

	rows, err := r.db.Query(listQuery, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list automations")
	}
	defer rows.Close()

	var automations []models.Automation
	for rows.Next() {
		automation, err := scanAutomation(rows)
		if err != nil {
			return nil, 0, err
		}
		automations = append(automations, automation)
	}
	return automations, total, rows.Err()
}

func (r *automationRepository) ListActiveByTrigger(triggerType models.TriggerType) ([]models.Automation, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM crm.automations
		WHERE trigger_type = $1 AND is_active = TRUE AND deleted_at IS NULL
		ORDER BY created_at
	`, automationColumns)

	rows, err := r.db.Query(query, triggerType)
	if err != nil {
		return nil, errors.Wrap(err, "list active automations")
	}
	defer rows.Close()

	var automations []models.Automation
	for rows.Next() {
		automation, err := scanAutomation(rows)
		if err != nil {
			return nil, err
		}
		automations = append(automations, automation)
	}
	return automations, rows.Err()
}

func (r *automationRepository) Update(id string, update validation.AutomationUpdate) (models.Automation, error) {
	set := []string{"updated_at = NOW()"}
	args := []interface{}{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Name != nil {
		add("name", *update.Name)
	}
	if update.Description != nil {
		add("description", *update.Description)
	}
	if update.TriggerType != nil {
		add("trigger_type", *update.TriggerType)
	}
	if update.TriggerConditions != nil {
		conditions, err := json.Marshal(update.TriggerConditions)
		if err != nil {
			return models.Automation{}, errors.Wrap(err, "marshal trigger conditions")
		}
		add("trigger_conditions", conditions)
	}
	if update.Actions != nil {
		actions, err := json.Marshal(update.Actions)
		if err != nil {
			return models.Automation{}, errors.Wrap(err, "marshal actions")
		}
		add("actions", actions)
	}
	if update.IsActive != nil {
		add("is_active", *update.IsActive)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE crm.automations
		SET %s
		WHERE id = $%d AND deleted_at IS NULL
		RETURNING %s
	`, strings.Join(set, ", "), len(args), automationColumns)

	automation, err := scanAutomation(r.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return models.Automation{}, ErrNotFound
	}
	return automation, err
}

func (r *automationRepository) Toggle(id string) (models.Automation, error) {
	query := fmt.Sprintf(`
		UPDATE crm.automations
		SET is_active = NOT is_active, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING %s
	`, automationColumns)

	automation, err := scanAutomation(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return models.Automation{}, ErrNotFound
	}
	return automation, err
}

func (r *automationRepository) Delete(id string) error {
	result, err := r.db.Exec(`
		UPDATE crm.automations
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, id)
	if err != nil {
		return errors.Wrap(err, "delete automation")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAutomation(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Automation, error) {
	var (
		automation    models.Automation
		description   sql.NullString
		conditionsRaw []byte
		actionsRaw    []byte
	)
	if err := scanner.Scan(
		&automation.ID,
		&automation.Name,
		&description,
		&automation.TriggerType,
		&conditionsRaw,
		&actionsRaw,
		&automation.IsActive,
		&automation.CreatedAt,
		&automation.UpdatedAt,
	); err != nil {
		return models.Automation{}, err
	}

	automation.Description = description.String
	if len(conditionsRaw) > 0 {
		if err := json.Unmarshal(conditionsRaw, &automation.TriggerConditions); err != nil {
			return models.Automation{}, errors.Wrap(err, "unmarshal trigger conditions")
		}
	}
	if len(actionsRaw) > 0 {
		if err := json.Unmarshal(actionsRaw, &automation.Actions); err != nil {
			return models.Automation{}, errors.Wrap(err, "unmarshal actions")
		}
	}
	return automation, nil
}
