package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/Bukialo/crm-api/internal/models"
	"github.com/Bukialo/crm-api/internal/notification"
	"github.com/Bukialo/crm-api/internal/repository"
	"github.com/Bukialo/crm-api/internal/whatsapp"
)

// NewDefaultRegistry wires one executor per supported action type. The
// mailer and the WhatsApp client may be nil when their channel is not
// configured; the corresponding executors then fail at run time with a clear
// error instead of at startup.
func NewDefaultRegistry(crm repository.CrmRepository, mailer notification.Mailer, wa *whatsapp.Client) *Registry {
	registry := NewRegistry()
	registry.Register(&SendEmailExecutor{Crm: crm, Mailer: mailer})
	registry.Register(&SendWhatsAppExecutor{Crm: crm, Client: wa})
	registry.Register(&CreateTaskExecutor{Crm: crm})
	registry.Register(&ScheduleCallExecutor{Crm: crm})
	registry.Register(&AddTagExecutor{Crm: crm})
	registry.Register(&UpdateStatusExecutor{Crm: crm})
	registry.Register(&AssignAgentExecutor{Crm: crm})
	registry.Register(&GenerateQuoteExecutor{Crm: crm})
	return registry
}

// SendEmailExecutor renders a stored template and mails it. Recipients come
// from the "to" parameter when present, otherwise from the contact the
// trigger refers to.
type SendEmailExecutor struct {
	Crm    repository.CrmRepository
	Mailer notification.Mailer
}

func (e *SendEmailExecutor) Type() models.ActionType { return models.ActionSendEmail }

func (e *SendEmailExecutor) Execute(ctx context.Context, params, triggerData map[string]interface{}) error {
	if e.Mailer == nil {
		return fmt.Errorf("email channel is not configured")
	}

	template, err := e.Crm.GetEmailTemplate(paramString(params, "templateId"))
	if err != nil {
		return errors.Wrap(err, "load email template")
	}

	variables := paramMap(params, "variables")
	recipients := paramStrings(params, "to")
	if len(recipients) == 0 {
		contactID, err := contactIDFrom(triggerData)
		if err != nil {
			return err
		}
		contact, err := e.Crm.GetContact(contactID)
		if err != nil {
			return errors.Wrap(err, "load contact for email recipient")
		}
		if contact.Email == "" {
			return fmt.Errorf("contact %s has no email address", contact.ID)
		}
		recipients = []string{contact.Email}
		variables = withContactVariables(variables, contact)
	}

	subject := renderTemplate(template.Subject, variables)
	body := renderTemplate(template.Body, variables)
	return e.Mailer.Send(recipients, subject, body)
}

// withContactVariables fills in the standard contact placeholders without
// overriding explicitly provided values.
func withContactVariables(variables map[string]interface{}, contact models.Contact) map[string]interface{} {
	merged := map[string]interface{}{
		"firstName": contact.FirstName,
		"lastName":  contact.LastName,
		"email":     contact.Email,
	}
	for k, v := range variables {
		merged[k] = v
	}
	return merged
}

// renderTemplate substitutes {{name}} placeholders. Unknown placeholders are
// left in place so a missing variable is visible in the delivered message.
func renderTemplate(text string, variables map[string]interface{}) string {
	if len(variables) == 0 {
		return text
	}
	pairs := make([]string, 0, len(variables)*2)
	for name, value := range variables {
		pairs = append(pairs, "{{"+name+"}}", fmt.Sprintf("%v", value))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// SendWhatsAppExecutor delivers a text or template message over the Cloud
// API. Parameters are free-form: "to", "message", "templateName", "language".
type SendWhatsAppExecutor struct {
	Crm    repository.CrmRepository
	Client *whatsapp.Client
}

func (e *SendWhatsAppExecutor) Type() models.ActionType { return models.ActionSendWhatsApp }

func (e *SendWhatsAppExecutor) Execute(ctx context.Context, params, triggerData map[string]interface{}) error {
	if e.Client == nil {
		return fmt.Errorf("whatsapp channel is not configured")
	}

	to := paramString(params, "to")
	if to == "" {
		contactID, err := contactIDFrom(triggerData)
		if err != nil {
			return err
		}
		contact, err := e.Crm.GetContact(contactID)
		if err != nil {
			return errors.Wrap(err, "load contact for whatsapp recipient")
		}
		if contact.Phone == "" {
			return fmt.Errorf("contact %s has no phone number", contact.ID)
		}
		to = contact.Phone
	}

	if templateName := paramString(params, "templateName"); templateName != "" {
		return e.Client.SendTemplate(ctx, to, templateName, paramString(params, "language"))
	}
	message := paramString(params, "message")
	if message == "" {
		return fmt.Errorf("either message or templateName must be provided")
	}
	return e.Client.SendText(ctx, to, message)
}

type CreateTaskExecutor struct {
	Crm repository.CrmRepository
}

func (e *CreateTaskExecutor) Type() models.ActionType { return models.ActionCreateTask }

func (e *CreateTaskExecutor) Execute(ctx context.Context, params, triggerData map[string]interface{}) error {
	task := models.Task{
		Title:        paramString(params, "title"),
		Description:  paramString(params, "description"),
		Priority:     models.TaskPriority(paramString(params, "priority")),
		AssignedToID: paramString(params, "assignedToId"),
	}
	if due, ok := paramTime(params, "dueDate"); ok {
		task.DueDate = &due
	}
	if contactID, err := contactIDFrom(triggerData); err == nil {
		task.ContactID = &contactID
	}

	_, err := e.Crm.CreateTask(task)
	return errors.Wrap(err, "create task")
}

type ScheduleCallExecutor struct {
	Crm repository.CrmRepository
}

func (e *ScheduleCallExecutor) Type() models.ActionType { return models.ActionScheduleCall }

func (e *ScheduleCallExecutor) Execute(ctx context.Context, params, triggerData map[string]interface{}) error {
	scheduledDate, ok := paramTime(params, "scheduledDate")
	if !ok {
		return fmt.Errorf("scheduledDate is missing from parameters")
	}
	call := models.ScheduledCall{
		Title:           paramString(params, "title"),
		Description:     paramString(params, "description"),
		ScheduledDate:   scheduledDate,
		DurationMinutes: paramInt(params, "duration", 30),
	}
	if contactID, err := contactIDFrom(triggerData); err == nil {
		call.ContactID = &contactID
	}

	_, err := e.Crm.CreateScheduledCall(call)
	return errors.Wrap(err, "create scheduled call")
}

type AddTagExecutor struct {
	Crm repository.CrmRepository
}

func (e *AddTagExecutor) Type() models.ActionType { return models.ActionAddTag }

func (e *AddTagExecutor) Execute(ctx context.Context, params, triggerData map[string]interface{}) error {
	contactID, err := contactIDFrom(triggerData)
	if err != nil {
		return err
	}
	return errors.Wrap(e.Crm.AddContactTags(contactID, paramStrings(params, "tags")), "add contact tags")
}

type UpdateStatusExecutor struct {
	Crm repository.CrmRepository
}

func (e *UpdateStatusExecutor) Type() models.ActionType { return models.ActionUpdateStatus }

func (e *UpdateStatusExecutor) Execute(ctx context.Context, params, triggerData map[string]interface{}) error {
	contactID, err := contactIDFrom(triggerData)
	if err != nil {
		return err
	}
	status := models.ContactStatus(paramString(params, "status"))
	return errors.Wrap(e.Crm.UpdateContactStatus(contactID, status, paramString(params, "reason")), "update contact status")
}

type AssignAgentExecutor struct {
	Crm repository.CrmRepository
}

func (e *AssignAgentExecutor) Type() models.ActionType { return models.ActionAssignAgent }

func (e *AssignAgentExecutor) Execute(ctx context.Context, params, triggerData map[string]interface{}) error {
	contactID, err := contactIDFrom(triggerData)
	if err != nil {
		return err
	}
	return errors.Wrap(e.Crm.AssignAgent(contactID, paramString(params, "agentId")), "assign agent")
}

// GenerateQuoteExecutor drafts a quote from free-form parameters. The
// destination may come from the parameters or, for trip-related triggers,
// from the event payload.
type GenerateQuoteExecutor struct {
	Crm repository.CrmRepository
}

func (e *GenerateQuoteExecutor) Type() models.ActionType { return models.ActionGenerateQuote }

func (e *GenerateQuoteExecutor) Execute(ctx context.Context, params, triggerData map[string]interface{}) error {
	contactID, err := contactIDFrom(triggerData)
	if err != nil {
		return err
	}
	destination := paramString(params, "destination")
	if destination == "" {
		if d, ok := triggerData["destination"].(string); ok {
			destination = d
		}
	}

	_, err = e.Crm.CreateQuote(models.Quote{
		ContactID:   contactID,
		Destination: destination,
		Details:     params,
		Status:      "DRAFT",
	})
	return errors.Wrap(err, "create quote")
}
