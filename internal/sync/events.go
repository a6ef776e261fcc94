package sync

import (
	"time"
)

// Query progress event types.
const (
	EventQueryStarted      = "query.started"
	EventQueryDetected     = "query.detected"
	EventPhaseCompleted    = "phase.completed"
	EventRequeryStarted    = "requery.started"
	EventQueryConsolidated = "query.consolidated"
	EventQueryFinished     = "query.finished"
	EventQueryFailed       = "query.failed"
)

// QueryEvent reports the progress of one lipid query.
type QueryEvent struct {
	Type    string    `json:"type"`
	QueryID string    `json:"query_id"`
	Input   string    `json:"input"`
	Method  string    `json:"method,omitempty"`
	Phase   string    `json:"phase,omitempty"` // "primary", "requery.N" or "enrichment"
	Source  string    `json:"source,omitempty"`
	Count   int       `json:"count"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

// Observer receives query progress events. Implementations must not block.
type Observer interface {
	Observe(QueryEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(QueryEvent)

func (f ObserverFunc) Observe(e QueryEvent) { f(e) }

// Nop discards every event.
var Nop Observer = ObserverFunc(func(QueryEvent) {})
