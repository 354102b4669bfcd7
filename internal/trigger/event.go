package trigger

import (
	"time"

	"github.com/Bukialo/crm-api/internal/models"
)

// Event is one occurrence of a business event, as ingested from the REST
// surface or the Kafka topic. Payload is the snapshot forwarded to matched
// executions as triggeredBy.
type Event struct {
	Type       models.TriggerType     `json:"type"`
	Payload    map[string]interface{} `json:"payload"`
	OccurredAt time.Time              `json:"occurredAt"`
}
