package buffer

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EntityProfile = "profile"
	EntityTask    = "task"
)

// Operation names match usecase.Operation*.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

const (
	PriorityProfile = 3
	PriorityTask    = 4
)

// Item is a planner write that could not reach Postgres and waits to be replayed.
type Item struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"owner_id"`
	EntityID  string          `json:"entity_id,omitempty"`
	Entity    string          `json:"entity"`
	Operation string          `json:"operation"`
	Data      json.RawMessage `json:"data"`
	Priority  int             `json:"priority"`
	Retries   int             `json:"retries"`
	Timestamp time.Time       `json:"timestamp"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	if i.Priority <= 0 || i.Priority > 5 {
		i.Priority = PriorityProfile
	}
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}

// coalesce folds two pending writes of one entity into the write that replays the same end state.
// keep is false when nothing needs replaying: a create followed by a delete never reached Postgres.
func coalesce(older, newer Item) (merged Item, keep bool) {
	if older.Operation == OpCreate {
		if newer.Operation == OpDelete {
			return Item{}, false
		}
		newer.Operation = OpCreate
	}
	return newer, true
}
