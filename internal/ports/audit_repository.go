package ports

import "context"

// AuditEntry is one local journal record of a session action against an event.
type AuditEntry struct {
	EntryID    uint64
	EventTitle string
	Actor      string
	Action     string
	Detail     string
	CreatedAt  string
}

// AuditEntryCreate is the input for appending a journal record.
type AuditEntryCreate struct {
	EventTitle string
	Actor      string
	Action     string
	Detail     string
	CreatedAt  string
}

// AuditRepository persists the local action journal. The journal is advisory:
// the store's own audit fields remain the source of truth.
type AuditRepository interface {
	Append(ctx context.Context, input AuditEntryCreate) error
	ListByEvent(ctx context.Context, eventTitle string) ([]AuditEntry, error)
	ListRecent(ctx context.Context, limit int) ([]AuditEntry, error)
}
