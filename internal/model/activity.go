package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Activity describes a mutation the console completed against the remote API.
type Activity struct {
	ID         uuid.UUID    `json:"id"`
	Resource   ResourceType `json:"resource"`
	Action     Action       `json:"action"`
	RecordID   int64        `json:"record_id"`
	OccurredAt time.Time    `json:"occurred_at"`
}

func NewActivity(resource ResourceType, action Action, recordID int64) Activity {
	return Activity{
		ID:         uuid.New(),
		Resource:   resource,
		Action:     action,
		RecordID:   recordID,
		OccurredAt: time.Now().UTC(),
	}
}

// Summary renders the activity as a human readable sentence.
func (a Activity) Summary() string {
	verb := map[Action]string{
		ActionCreate: "created",
		ActionUpdate: "updated",
		ActionDelete: "deleted",
	}[a.Action]
	if verb == "" {
		verb = string(a.Action)
	}
	return fmt.Sprintf("%s %d %s at %s", a.Resource, a.RecordID, verb, a.OccurredAt.Format(time.RFC3339))
}
