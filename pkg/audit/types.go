package audit

import (
	"time"
)

// Destination selects where lifecycle history is written.
type Destination string

const (
	// DestinationLog renders each event as a structured log line.
	DestinationLog Destination = "log"
	// DestinationTable persists each event as a row in audit_records.
	DestinationTable Destination = "table"
)

// Valid reports whether d is a known destination.
func (d Destination) Valid() bool {
	return d == DestinationLog || d == DestinationTable
}

// Record is one persisted audit entry. Batch mutations produce one record
// per affected id, all sharing the same request id.
type Record struct {
	ID         int64                  `json:"id"`
	Timestamp  time.Time              `json:"timestamp"`
	Entity     string                 `json:"entity"`
	EntityID   int64                  `json:"entity_id"`
	Action     string                 `json:"action"`
	ActorID    *int64                 `json:"actor_id,omitempty"`
	ActorLabel string                 `json:"actor_label"`
	RequestID  string                 `json:"request_id"`
	Source     string                 `json:"source"`
	Extra      map[string]interface{} `json:"extra,omitempty"`
}

// SearchFilter narrows an audit record search. Zero-value fields are
// ignored.
type SearchFilter struct {
	StartTime *time.Time
	EndTime   *time.Time
	Entity    string
	EntityID  *int64
	Actions   []string
	ActorID   *int64
	RequestID string
	Source    string
	Limit     int
	Offset    int
}

// Stats summarizes audit activity over a time range.
type Stats struct {
	TotalRecords    int64            `json:"total_records"`
	RecordsByAction map[string]int64 `json:"records_by_action"`
	RecordsByEntity map[string]int64 `json:"records_by_entity"`
	UniqueActors    int64            `json:"unique_actors"`
	TimeRange       *TimeRange       `json:"time_range,omitempty"`
}

// TimeRange is the bounds a Stats query was computed over.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
