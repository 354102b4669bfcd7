package repository

import (
	"database/sql"
	"encoding/json"

	"github.com/Bukialo/crm-api/internal/models"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// CrmRepository covers the contact-side reads and writes the action
// executors and the trigger scheduler need. Contact CRUD endpoints live in a
// separate service; this API is intentionally narrow.
type CrmRepository interface {
	GetContact(id string) (models.Contact, error)
	UpdateContactStatus(contactID string, status models.ContactStatus, reason string) error
	AddContactTags(contactID string, tags []string) error
	AssignAgent(contactID, agentID string) error

	CreateTask(task models.Task) (models.Task, error)
	CreateScheduledCall(call models.ScheduledCall) (models.ScheduledCall, error)
	CreateQuote(quote models.Quote) (models.Quote, error)

	GetEmailTemplate(id string) (models.EmailTemplate, error)

	FindContactsWithUpcomingBirthday(daysBefore int, status *models.ContactStatus, includeInactive bool) ([]models.Contact, error)
	FindInactiveContacts(days int, status *models.ContactStatus, excludeTags []string) ([]models.Contact, error)
	FindOverduePayments(daysOverdue int, minAmount, maxAmount *float64) ([]models.Payment, error)
}

type crmRepository struct {
	db *sql.DB
}

func NewCrmRepository(db *sql.DB) CrmRepository {
	return &crmRepository{db: db}
}

const contactColumns = "id, first_name, last_name, email, phone, status, source, budget_range, tags, agent_id, birthday, is_active, last_contact, created_at, updated_at"

func (r *crmRepository) GetContact(id string) (models.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM crm.contacts
		WHERE id = $1 AND deleted_at IS NULL
	`
	contact, err := scanContact(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return models.Contact{}, ErrNotFound
	}
	return contact, err
}

func (r *crmRepository) UpdateContactStatus(contactID string, status models.ContactStatus, reason string) error {
	result, err := r.db.Exec(`
		UPDATE crm.contacts
		SET status = $2, status_reason = NULLIF($3, ''), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, contactID, status, reason)
	if err != nil {
		return errors.Wrap(err, "update contact status")
	}
	return requireAffected(result)
}

func (r *crmRepository) AddContactTags(contactID string, tags []string) error {
	// Array union keeps existing tags and skips duplicates.
	result, err := r.db.Exec(`
		UPDATE crm.contacts
		SET tags = (
			SELECT ARRAY(SELECT DISTINCT unnest(tags || $2::text[]))
		), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, contactID, pq.Array(tags))
	if err != nil {
		return errors.Wrap(err, "add contact tags")
	}
	return requireAffected(result)
}

func (r *crmRepository) AssignAgent(contactID, agentID string) error {
	result, err := r.db.Exec(`
		UPDATE crm.contacts
		SET agent_id = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, contactID, agentID)
	if err != nil {
		return errors.Wrap(err, "assign agent")
	}
	return requireAffected(result)
}

func (r *crmRepository) CreateTask(task models.Task) (models.Task, error) {
	query := `
		INSERT INTO crm.tasks (title, description, priority, assigned_to_id, contact_id, due_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(query,
		task.Title, task.Description, task.Priority, task.AssignedToID, task.ContactID, task.DueDate,
	).Scan(&task.ID, &task.CreatedAt)
	if err != nil {
		return models.Task{}, errors.Wrap(err, "insert task")
	}
	return task, nil
}

func (r *crmRepository) CreateScheduledCall(call models.ScheduledCall) (models.ScheduledCall, error) {
	query := `
		INSERT INTO crm.scheduled_calls (title, description, contact_id, scheduled_date, duration_minutes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(query,
		call.Title, call.Description, call.ContactID, call.ScheduledDate, call.DurationMinutes,
	).Scan(&call.ID, &call.CreatedAt)
	if err != nil {
		return models.ScheduledCall{}, errors.Wrap(err, "insert scheduled call")
	}
	return call, nil
}

func (r *crmRepository) CreateQuote(quote models.Quote) (models.Quote, error) {
	details, err := json.Marshal(quote.Details)
	if err != nil {
		return models.Quote{}, errors.Wrap(err, "marshal quote details")
	}
	if quote.Status == "" {
		quote.Status = "draft"
	}
	query := `
		INSERT INTO crm.quotes (contact_id, destination, details, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err = r.db.QueryRow(query, quote.ContactID, quote.Destination, details, quote.Status).
		Scan(&quote.ID, &quote.CreatedAt)
	if err != nil {
		return models.Quote{}, errors.Wrap(err, "insert quote")
	}
	return quote, nil
}

func (r *crmRepository) GetEmailTemplate(id string) (models.EmailTemplate, error) {
	var tpl models.EmailTemplate
	err := r.db.QueryRow(`
		SELECT id, name, subject, body, created_at
		FROM crm.email_templates
		WHERE id = $1
	`, id).Scan(&tpl.ID, &tpl.Name, &tpl.Subject, &tpl.Body, &tpl.CreatedAt)
	if err == sql.ErrNoRows {
		return models.EmailTemplate{}, ErrNotFound
	}
	if err != nil {
		return models.EmailTemplate{}, errors.Wrap(err, "get email template")
	}
	return tpl, nil
}

func (r *crmRepository) FindContactsWithUpcomingBirthday(daysBefore int, status *models.ContactStatus, includeInactive bool) ([]models.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM crm.contacts
		WHERE birthday IS NOT NULL
		  AND deleted_at IS NULL
		  AND to_char(birthday, 'MM-DD') = to_char(NOW() + ($1 || ' days')::interval, 'MM-DD')
		  AND ($2::text IS NULL OR status = $2)
		  AND ($3 OR is_active)
	`
	return r.queryContacts(query, daysBefore, statusArg(status), includeInactive)
}

func (r *crmRepository) FindInactiveContacts(days int, status *models.ContactStatus, excludeTags []string) ([]models.Contact, error) {
	query := `
		SELECT ` + contactColumns + `
		FROM crm.contacts
		WHERE deleted_at IS NULL
		  AND is_active
		  AND COALESCE(last_contact, created_at) < NOW() - ($1 || ' days')::interval
		  AND ($2::text IS NULL OR status = $2)
		  AND NOT (tags && $3::text[])
	`
	return r.queryContacts(query, days, statusArg(status), pq.Array(excludeTags))
}

func (r *crmRepository) FindOverduePayments(daysOverdue int, minAmount, maxAmount *float64) ([]models.Payment, error) {
	query := `
		SELECT id, contact_id, amount, due_date, paid_at, created_at
		FROM crm.payments
		WHERE paid_at IS NULL
		  AND due_date < NOW() - ($1 || ' days')::interval
		  AND ($2::numeric IS NULL OR amount >= $2)
		  AND ($3::numeric IS NULL OR amount <= $3)
	`
	rows, err := r.db.Query(query, daysOverdue, floatArg(minAmount), floatArg(maxAmount))
	if err != nil {
		return nil, errors.Wrap(err, "find overdue payments")
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var (
			payment models.Payment
			paidAt  sql.NullTime
		)
		if err := rows.Scan(&payment.ID, &payment.ContactID, &payment.Amount, &payment.DueDate, &paidAt, &payment.CreatedAt); err != nil {
			return nil, err
		}
		if paidAt.Valid {
			t := paidAt.Time
			payment.PaidAt = &t
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

func (r *crmRepository) queryContacts(query string, args ...interface{}) ([]models.Contact, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query contacts")
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		contact, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, contact)
	}
	return contacts, rows.Err()
}

func scanContact(scanner interface {
	Scan(dest ...interface{}) error
}) (models.Contact, error) {
	var (
		contact     models.Contact
		budgetRange sql.NullString
		agentID     sql.NullString
		birthday    sql.NullTime
		lastContact sql.NullTime
		tags        pq.StringArray
	)
	if err := scanner.Scan(
		&contact.ID,
		&contact.FirstName,
		&contact.LastName,
		&contact.Email,
		&contact.Phone,
		&contact.Status,
		&contact.Source,
		&budgetRange,
		&tags,
		&agentID,
		&birthday,
		&contact.IsActive,
		&lastContact,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	); err != nil {
		return models.Contact{}, err
	}

	contact.Tags = tags
	if budgetRange.Valid {
		b := models.BudgetRange(budgetRange.String)
		contact.BudgetRange = &b
	}
	if agentID.Valid {
		id := agentID.String
		contact.AgentID = &id
	}
	if birthday.Valid {
		t := birthday.Time
		contact.Birthday = &t
	}
	if lastContact.Valid {
		t := lastContact.Time
		contact.LastContact = &t
	}
	return contact, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func statusArg(status *models.ContactStatus) interface{} {
	if status == nil {
		return nil
	}
	return string(*status)
}

func floatArg(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
