package actions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bukialo/crm-api/internal/models"
)

type fakeCrm struct {
	contacts  map[string]models.Contact
	templates map[string]models.EmailTemplate
	tasks     []models.Task
	calls     []models.ScheduledCall
	quotes    []models.Quote
	tagged    map[string][]string
	statuses  map[string]models.ContactStatus
	agents    map[string]string
}

func newFakeCrm() *fakeCrm {
	return &fakeCrm{
		contacts:  map[string]models.Contact{},
		templates: map[string]models.EmailTemplate{},
		tagged:    map[string][]string{},
		statuses:  map[string]models.ContactStatus{},
		agents:    map[string]string{},
	}
}

func (f *fakeCrm) GetContact(id string) (models.Contact, error) {
	return f.contacts[id], nil
}

func (f *fakeCrm) UpdateContactStatus(contactID string, status models.ContactStatus, reason string) error {
	f.statuses[contactID] = status
	return nil
}

func (f *fakeCrm) AddContactTags(contactID string, tags []string) error {
	f.tagged[contactID] = append(f.tagged[contactID], tags...)
	return nil
}

func (f *fakeCrm) AssignAgent(contactID, agentID string) error {
	f.agents[contactID] = agentID
	return nil
}

func (f *fakeCrm) CreateTask(task models.Task) (models.Task, error) {
	f.tasks = append(f.tasks, task)
	return task, nil
}

func (f *fakeCrm) CreateScheduledCall(call models.ScheduledCall) (models.ScheduledCall, error) {
	f.calls = append(f.calls, call)
	return call, nil
}

func (f *fakeCrm) CreateQuote(quote models.Quote) (models.Quote, error) {
	f.quotes = append(f.quotes, quote)
	return quote, nil
}

func (f *fakeCrm) GetEmailTemplate(id string) (models.EmailTemplate, error) {
	return f.templates[id], nil
}

func (f *fakeCrm) FindContactsWithUpcomingBirthday(daysBefore int, status *models.ContactStatus, includeInactive bool) ([]models.Contact, error) {
	return nil, nil
}

func (f *fakeCrm) FindInactiveContacts(days int, status *models.ContactStatus, excludeTags []string) ([]models.Contact, error) {
	return nil, nil
}

func (f *fakeCrm) FindOverduePayments(daysOverdue int, minAmount, maxAmount *float64) ([]models.Payment, error) {
	return nil, nil
}

type fakeMailer struct {
	recipients []string
	subject    string
	body       string
}

func (f *fakeMailer) Send(recipients []string, subject, body string) error {
	f.recipients = recipients
	f.subject = subject
	f.body = body
	return nil
}

func TestDefaultRegistryCoversAllActionTypes(t *testing.T) {
	registry := NewDefaultRegistry(newFakeCrm(), &fakeMailer{}, nil)

	for _, actionType := range []models.ActionType{
		models.ActionSendEmail,
		models.ActionSendWhatsApp,
		models.ActionCreateTask,
		models.ActionScheduleCall,
		models.ActionAddTag,
		models.ActionUpdateStatus,
		models.ActionAssignAgent,
		models.ActionGenerateQuote,
	} {
		executor, err := registry.Get(actionType)
		require.NoError(t, err, actionType)
		assert.Equal(t, actionType, executor.Type())
	}
}

func TestSendEmailFallsBackToContactAddress(t *testing.T) {
	crm := newFakeCrm()
	crm.contacts["contact-1"] = models.Contact{
		ID:        "contact-1",
		FirstName: "Ana",
		Email:     "ana@example.com",
	}
	crm.templates["welcome"] = models.EmailTemplate{
		ID:      "welcome",
		Subject: "Hola {{firstName}}",
		Body:    "Bienvenida a bordo, {{firstName}}.",
	}
	mailer := &fakeMailer{}
	executor := &SendEmailExecutor{Crm: crm, Mailer: mailer}

	err := executor.Execute(context.Background(),
		map[string]interface{}{"templateId": "welcome"},
		map[string]interface{}{"contactId": "contact-1"})

	require.NoError(t, err)
	assert.Equal(t, []string{"ana@example.com"}, mailer.recipients)
	assert.Equal(t, "Hola Ana", mailer.subject)
	assert.Equal(t, "Bienvenida a bordo, Ana.", mailer.body)
}

func TestCreateTaskLinksContactFromTriggerData(t *testing.T) {
	crm := newFakeCrm()
	executor := &CreateTaskExecutor{Crm: crm}
	due := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	err := executor.Execute(context.Background(),
		map[string]interface{}{
			"title":        "Llamar al cliente",
			"assignedToId": "agent-7",
			"priority":     "HIGH",
			"dueDate":      due,
		},
		map[string]interface{}{"contactId": "contact-1"})

	require.NoError(t, err)
	require.Len(t, crm.tasks, 1)
	task := crm.tasks[0]
	assert.Equal(t, "Llamar al cliente", task.Title)
	assert.Equal(t, models.PriorityHigh, task.Priority)
	require.NotNil(t, task.ContactID)
	assert.Equal(t, "contact-1", *task.ContactID)
	require.NotNil(t, task.DueDate)
	assert.True(t, task.DueDate.Equal(due))
}

func TestAddTagRequiresContactReference(t *testing.T) {
	executor := &AddTagExecutor{Crm: newFakeCrm()}

	err := executor.Execute(context.Background(),
		map[string]interface{}{"tags": []string{"vip"}},
		map[string]interface{}{})

	assert.Error(t, err)
}

func TestUpdateStatusWritesThrough(t *testing.T) {
	crm := newFakeCrm()
	executor := &UpdateStatusExecutor{Crm: crm}

	err := executor.Execute(context.Background(),
		map[string]interface{}{"status": "CLIENTE", "reason": "booked trip"},
		map[string]interface{}{"contactId": "contact-1"})

	require.NoError(t, err)
	assert.Equal(t, models.StatusCliente, crm.statuses["contact-1"])
}

func TestGenerateQuoteTakesDestinationFromTriggerData(t *testing.T) {
	crm := newFakeCrm()
	executor := &GenerateQuoteExecutor{Crm: crm}

	err := executor.Execute(context.Background(),
		map[string]interface{}{},
		map[string]interface{}{"contactId": "contact-1", "destination": "Bariloche"})

	require.NoError(t, err)
	require.Len(t, crm.quotes, 1)
	assert.Equal(t, "Bariloche", crm.quotes[0].Destination)
	assert.Equal(t, "DRAFT", crm.quotes[0].Status)
}

func TestRenderTemplateLeavesUnknownPlaceholders(t *testing.T) {
	out := renderTemplate("Hola {{firstName}}, tu viaje a {{destination}}", map[string]interface{}{
		"firstName": "Ana",
	})
	assert.Equal(t, "Hola Ana, tu viaje a {{destination}}", out)
}
