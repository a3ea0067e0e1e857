package domain

import "time"

// AuditEntry is one recorded action over a ledger entity. Recording is
// best-effort: a failed write never rolls back the business operation
// it documents.
type AuditEntry struct {
	EntryID    string                 `json:"entryID"`
	ActorID    string                 `json:"actorID"`
	Action     string                 `json:"action"`
	EntityType string                 `json:"entityType"`
	EntityID   string                 `json:"entityID"`
	Before     map[string]interface{} `json:"before,omitempty"`
	After      map[string]interface{} `json:"after,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
}
