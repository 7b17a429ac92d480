// Package queue carries allocation events over RabbitMQ: the payload, a
// publisher used after each committed run, and the consumer that appends
// them to logs/allocation.log.
package queue

import (
	"time"

	"github.com/iliyamo/exam-seating/internal/allocation"
)

// AllocationCompletedQueue is the durable queue events are routed to.
const AllocationCompletedQueue = "allocation.completed"

// AllocationCompletedEvent is published after an allocation run or seating
// import commits.  It is enough for a consumer to log or notify without
// reading the database.
type AllocationCompletedEvent struct {
	RunID          string   `json:"run_id"`
	Dataset        string   `json:"dataset,omitempty"`
	Mode           string   `json:"mode"`
	Strategy       string   `json:"strategy,omitempty"`
	TotalAllocated int      `json:"total_allocated"`
	Shortfall      int      `json:"shortfall"`
	TotalSeated    int      `json:"total_seated"`
	Cleared        int      `json:"cleared,omitempty"`
	RoomsUsed      []string `json:"rooms_used"`
	FinishedAt     string   `json:"finished_at"`
}

// EventFromResult builds the event for a successful run.
func EventFromResult(r allocation.Result) AllocationCompletedEvent {
	rooms := r.RoomsUsed
	if rooms == nil {
		rooms = []string{}
	}
	return AllocationCompletedEvent{
		RunID:          r.RunID,
		Dataset:        r.Dataset,
		Mode:           string(r.Mode),
		Strategy:       r.Strategy,
		TotalAllocated: r.TotalAllocated,
		Shortfall:      r.Shortfall,
		TotalSeated:    r.TotalSeated,
		Cleared:        r.Cleared,
		RoomsUsed:      rooms,
		FinishedAt:     r.FinishedAt.UTC().Format(time.RFC3339),
	}
}
