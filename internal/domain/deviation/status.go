package deviation

import "strings"

// Status is the approval lifecycle state of an event and its rows.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusFilled     Status = "Filled"
	StatusApproved   Status = "Approved"
	StatusRejected   Status = "Rejected"
	StatusUnattended Status = "Unattended"
)

// ParseStatus maps a stored status string onto the known states,
// defaulting to Pending for blank or unknown values.
func ParseStatus(raw string) Status {
	switch strings.TrimSpace(raw) {
	case string(StatusFilled):
		return StatusFilled
	case string(StatusApproved):
		return StatusApproved
	case string(StatusRejected):
		return StatusRejected
	case string(StatusUnattended):
		return StatusUnattended
	default:
		return StatusPending
	}
}

// Authoritative reports whether a stored status must never be overridden by
// recomputation. Approved and Rejected are external decisions.
func (s Status) Authoritative() bool {
	return s == StatusApproved || s == StatusRejected
}

// Row is one physical record (one vehicle) belonging to an event.
// Missing source fields are populated with explicit zero values.
type Row struct {
	ID        string
	Title     string
	Plate     string
	EnteredAt string
	Reason    string
	Release   string
	Note      string
	Status    Status
	CreatedAt string
}

// Event groups the rows sharing one title.
type Event struct {
	Title string
	Rows  []Row
}

// StoredStatus returns the status persisted on the event's first row,
// Pending for an empty event.
func (e Event) StoredStatus() Status {
	if len(e.Rows) == 0 {
		return StatusPending
	}
	return e.Rows[0].Status
}

// EffectiveValues resolves a row field against staged edits: the pending value
// wins when one was staged, then the result is normalized. Implemented by the
// session overlay; the pure functions below only consume it.
type EffectiveValues interface {
	EffectiveReason(row Row) string
	EffectiveRelease(row Row) string
	EffectiveNote(row Row) string
}

// ComputeEventStatus derives the completion state of an event from its rows
// and the staged-edit overlay. Approved and Rejected stored states pass
// through untouched. Otherwise the event is Filled only when every row has
// both an effective reason and an effective release; a single incomplete row
// demotes the whole event to Pending.
//
// The computation is pure: same rows and overlay always give the same answer.
func ComputeEventStatus(event Event, overlay EffectiveValues) Status {
	if len(event.Rows) == 0 {
		return StatusPending
	}

	if stored := event.StoredStatus(); stored.Authoritative() {
		return stored
	}

	for _, row := range event.Rows {
		if overlay.EffectiveReason(row) == "" || overlay.EffectiveRelease(row) == "" {
			return StatusPending
		}
	}
	return StatusFilled
}
