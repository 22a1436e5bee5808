package session

import (
	"sync"

	"sentinela/internal/domain/deviation"
)

// editKey addresses one row of one event.
type editKey struct {
	Title string
	RowID string
}

// Overlay holds the staged, unpersisted field edits of one session, keyed by
// (event title, row id). It implements deviation.EffectiveValues: a staged
// value wins over the persisted one, and both sides pass through the field
// normalizer before comparison.
type Overlay struct {
	mu    sync.RWMutex
	edits map[editKey]map[string]string
}

func NewOverlay() *Overlay {
	return &Overlay{edits: make(map[editKey]map[string]string)}
}

// Stage records one field edit. Staging overwrites an earlier edit of the
// same field; the persisted row is untouched until submit.
func (o *Overlay) Stage(title, rowID, field, value string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	key := editKey{Title: title, RowID: rowID}
	fields, ok := o.edits[key]
	if !ok {
		fields = make(map[string]string, 3)
		o.edits[key] = fields
	}
	fields[field] = value
}

// Staged returns the staged value for a row field, if any.
func (o *Overlay) Staged(title, rowID, field string) (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	fields, ok := o.edits[editKey{Title: title, RowID: rowID}]
	if !ok {
		return "", false
	}
	value, ok := fields[field]
	return value, ok
}

// RowEdits returns a copy of all staged fields for one row.
func (o *Overlay) RowEdits(title, rowID string) map[string]string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	fields, ok := o.edits[editKey{Title: title, RowID: rowID}]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// ClearEvent drops every staged edit of one event. Called only after the
// whole submission batch was attempted; it is the sentinel that later reads
// stop considering the just-submitted overlay.
func (o *Overlay) ClearEvent(title string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for key := range o.edits {
		if key.Title == title {
			delete(o.edits, key)
		}
	}
}

// EventHasEdits reports whether any row of the event has staged edits.
func (o *Overlay) EventHasEdits(title string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	for key, fields := range o.edits {
		if key.Title == title && len(fields) > 0 {
			return true
		}
	}
	return false
}

// HasEdits reports whether the session has any unsaved changes at all.
func (o *Overlay) HasEdits() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	for _, fields := range o.edits {
		if len(fields) > 0 {
			return true
		}
	}
	return false
}

func (o *Overlay) effective(row deviation.Row, field, persisted string) string {
	if staged, ok := o.Staged(row.Title, row.ID, field); ok {
		return deviation.NormalizeField(staged)
	}
	return deviation.NormalizeField(persisted)
}

func (o *Overlay) EffectiveReason(row deviation.Row) string {
	return o.effective(row, deviation.FieldReason, row.Reason)
}

func (o *Overlay) EffectiveRelease(row deviation.Row) string {
	return o.effective(row, deviation.FieldRelease, row.Release)
}

func (o *Overlay) EffectiveNote(row deviation.Row) string {
	return o.effective(row, deviation.FieldNote, row.Note)
}

var _ deviation.EffectiveValues = (*Overlay)(nil)
