package temporal

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Bukialo/crm-api/internal/models"
)

func TestSortedActionsOrdersByOrderField(t *testing.T) {
	actions := []models.Action{
		{Type: models.ActionAddTag, Order: 3},
		{Type: models.ActionSendEmail, Order: 1},
		{Type: models.ActionCreateTask, Order: 2},
	}

	sorted := SortedActions(actions)

	assert.Equal(t, models.ActionSendEmail, sorted[0].Type)
	assert.Equal(t, models.ActionCreateTask, sorted[1].Type)
	assert.Equal(t, models.ActionAddTag, sorted[2].Type)
	// Input slice is untouched.
	assert.Equal(t, models.ActionAddTag, actions[0].Type)
}

func TestSortedActionsIsStableForDuplicateOrders(t *testing.T) {
	actions := []models.Action{
		{Type: models.ActionSendEmail, Order: 1},
		{Type: models.ActionAddTag, Order: 1},
		{Type: models.ActionCreateTask, Order: 1},
	}

	sorted := SortedActions(actions)

	assert.Equal(t, models.ActionSendEmail, sorted[0].Type)
	assert.Equal(t, models.ActionAddTag, sorted[1].Type)
	assert.Equal(t, models.ActionCreateTask, sorted[2].Type)
}
