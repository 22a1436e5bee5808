package ports

import "context"

// EscalationNotice announces an event crossing an escalation threshold.
type EscalationNotice struct {
	NoticeID   string `json:"notice_id"`
	EventTitle string `json:"event_title"`
	Category   string `json:"category"`
	POI        string `json:"poi"`
	TimeStatus string `json:"time_status"`
	Elapsed    string `json:"elapsed"`
	RowCount   int    `json:"row_count"`
	EmittedAt  string `json:"emitted_at"`
}

// Notifier publishes escalation notices to the operations channel.
// Delivery is best effort; a failed publish never blocks a refresh.
type Notifier interface {
	PublishEscalation(ctx context.Context, notice EscalationNotice) error
}
