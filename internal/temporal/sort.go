package temporal

import (
	"sort"

	"github.com/Bukialo/crm-api/internal/models"
)

// SortedActions returns a copy of the actions in execution order. The sort
// is stable, so actions sharing an order value run in the sequence they were
// defined in.
func SortedActions(actions []models.Action) []models.Action {
	out := make([]models.Action, len(actions))
	copy(out, actions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}
