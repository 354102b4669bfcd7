package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bukialo/crm-api/internal/models"
	"github.com/Bukialo/crm-api/internal/repository"
	"github.com/Bukialo/crm-api/internal/trigger"
	"github.com/Bukialo/crm-api/internal/validation"
)

type fakeAutomationRepo struct {
	automations map[string]models.Automation
}

func newFakeAutomationRepo() *fakeAutomationRepo {
	return &fakeAutomationRepo{automations: map[string]models.Automation{}}
}

func (f *fakeAutomationRepo) Create(automation models.Automation) (models.Automation, error) {
	automation.ID = uuid.NewString()
	f.automations[automation.ID] = automation
	return automation, nil
}

func (f *fakeAutomationRepo) GetByID(id string) (models.Automation, error) {
	automation, ok := f.automations[id]
	if !ok {
		return models.Automation{}, repository.ErrNotFound
	}
	return automation, nil
}

func (f *fakeAutomationRepo) List(query validation.ListQuery) ([]models.Automation, int, error) {
	out := make([]models.Automation, 0, len(f.automations))
	for _, a := range f.automations {
		out = append(out, a)
	}
	return out, len(out), nil
}

func (f *fakeAutomationRepo) ListActiveByTrigger(triggerType models.TriggerType) ([]models.Automation, error) {
	var out []models.Automation
	for _, a := range f.automations {
		if a.IsActive && a.TriggerType == triggerType {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAutomationRepo) Update(id string, update validation.AutomationUpdate) (models.Automation, error) {
	automation, ok := f.automations[id]
	if !ok {
		return models.Automation{}, repository.ErrNotFound
	}
	if update.Name != nil {
		automation.Name = *update.Name
	}
	if update.IsActive != nil {
		automation.IsActive = *update.IsActive
	}
	f.automations[id] = automation
	return automation, nil
}

func (f *fakeAutomationRepo) Toggle(id string) (models.Automation, error) {
	automation, ok := f.automations[id]
	if !ok {
		return models.Automation{}, repository.ErrNotFound
	}
	automation.IsActive = !automation.IsActive
	f.automations[id] = automation
	return automation, nil
}

func (f *fakeAutomationRepo) Delete(id string) error {
	if _, ok := f.automations[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.automations, id)
	return nil
}

type fakeExecutionRepo struct {
	executions map[string]models.Execution
}

func newFakeExecutionRepo() *fakeExecutionRepo {
	return &fakeExecutionRepo{executions: map[string]models.Execution{}}
}

func (f *fakeExecutionRepo) Create(automationID string, triggeredBy map[string]interface{}) (models.Execution, error) {
	raw, _ := json.Marshal(triggeredBy)
	execution := models.Execution{
		ID:           uuid.NewString(),
		AutomationID: automationID,
		Status:       models.ExecutionPending,
		TriggeredBy:  raw,
	}
	f.executions[execution.ID] = execution
	return execution, nil
}

func (f *fakeExecutionRepo) MarkRunning(id string) error { return nil }

func (f *fakeExecutionRepo) AppendActionResult(id string, result models.ActionResult) error {
	return nil
}

func (f *fakeExecutionRepo) Complete(id string, status models.ExecutionStatus, errorMessage string) error {
	return nil
}

func (f *fakeExecutionRepo) GetByID(id string) (models.Execution, error) {
	execution, ok := f.executions[id]
	if !ok {
		return models.Execution{}, repository.ErrNotFound
	}
	return execution, nil
}

func (f *fakeExecutionRepo) ListByAutomation(automationID string, limit, offset int) ([]models.Execution, error) {
	var out []models.Execution
	for _, e := range f.executions {
		if e.AutomationID == automationID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeExecutionRepo) Stats(days int) (models.ExecutionStat, error) {
	return models.ExecutionStat{}, nil
}

type fakeLauncher struct {
	launched []string
}

func (f *fakeLauncher) Launch(ctx context.Context, automation models.Automation, execution models.Execution) error {
	f.launched = append(f.launched, execution.ID)
	return nil
}

func newTestHandler() (*AutomationHandler, *fakeAutomationRepo, *fakeLauncher) {
	automationRepo := newFakeAutomationRepo()
	executionRepo := newFakeExecutionRepo()
	launcher := &fakeLauncher{}
	dispatcher := trigger.NewDispatcher(automationRepo, executionRepo, launcher, zerolog.Nop())
	handler := NewAutomationHandler(automationRepo, executionRepo, dispatcher, nil, zerolog.Nop())
	return handler, automationRepo, launcher
}

func muxVars(r *http.Request, vars map[string]string) *http.Request {
	return mux.SetURLVars(r, vars)
}

func TestCreateAutomationPersistsValidPayload(t *testing.T) {
	handler, repo, _ := newTestHandler()

	body := `{
		"name": "Bienvenida",
		"triggerType": "CONTACT_CREATED",
		"triggerConditions": {"source": "website"},
		"actions": [
			{"type": "SEND_EMAIL", "parameters": {"templateId": "welcome"}, "order": 1}
		]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/automations", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var created models.Automation
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)
	assert.Len(t, repo.automations, 1)
}

func TestCreateAutomationRejectsInvalidPayload(t *testing.T) {
	handler, repo, _ := newTestHandler()

	body := `{
		"name": "",
		"triggerType": "CONTACT_CREATED",
		"actions": []
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/automations", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		Error  string                  `json:"error"`
		Fields []validation.FieldError `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "validation failed", resp.Error)
	assert.NotEmpty(t, resp.Fields)
	assert.Empty(t, repo.automations)
}

func TestListAutomationsRejectsBadQuery(t *testing.T) {
	handler, _, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/automations?page=0", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAutomationUnknownIDReturns404(t *testing.T) {
	handler, _, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/automations/"+uuid.NewString(), nil)
	req = muxVars(req, map[string]string{"id": uuid.NewString()})
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExecuteAutomationLaunchesExecution(t *testing.T) {
	handler, repo, launcher := newTestHandler()
	created, err := repo.Create(models.Automation{
		Name:        "Manual",
		TriggerType: models.TriggerCustom,
		Actions:     []models.Action{{Type: models.ActionAddTag, Order: 1}},
		IsActive:    false,
	})
	require.NoError(t, err)

	body := `{"triggerData": {"contactId": "contact-1"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/automations/"+created.ID+"/execute", bytes.NewBufferString(body))
	req = muxVars(req, map[string]string{"id": created.ID})
	rec := httptest.NewRecorder()

	handler.Execute(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Len(t, launcher.launched, 1)
}

func TestExecuteAutomationRequiresTriggerData(t *testing.T) {
	handler, repo, _ := newTestHandler()
	created, err := repo.Create(models.Automation{
		Name:        "Manual",
		TriggerType: models.TriggerCustom,
		Actions:     []models.Action{{Type: models.ActionAddTag, Order: 1}},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/automations/"+created.ID+"/execute", bytes.NewBufferString(`{}`))
	req = muxVars(req, map[string]string{"id": created.ID})
	rec := httptest.NewRecorder()

	handler.Execute(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
