package deviation

import (
	"fmt"
	"strings"
	"time"
)

// ReasonOther is the reason code that makes the note field mandatory.
const ReasonOther = "outros"

// DateTimeCheck is the outcome of validating a raw two-field date+time entry.
type DateTimeCheck struct {
	Valid     bool
	Err       string
	Formatted string
	Value     time.Time
	HasValue  bool
}

// ValidateDateTimePair enforces the paired-field rule: both sub-fields
// present or both blank. When both are present the combined value must parse
// as dd/mm/yyyy HH:MM.
func ValidateDateTimePair(dateStr, timeStr string) DateTimeCheck {
	dateStr = strings.TrimSpace(dateStr)
	timeStr = strings.TrimSpace(timeStr)

	if dateStr == "" && timeStr == "" {
		return DateTimeCheck{Valid: true}
	}
	if dateStr == "" || timeStr == "" {
		return DateTimeCheck{Err: "Preencha ambos os campos ou deixe ambos em branco"}
	}

	combined := dateStr + " " + timeStr
	value, err := time.ParseInLocation(entryTimeLayout, combined, ReferenceLocation())
	if err != nil {
		return DateTimeCheck{Err: "Formato inválido. Use dd/mm/aaaa hh:mm"}
	}

	return DateTimeCheck{Valid: true, Formatted: combined, Value: value, HasValue: true}
}

// ValidateAfterEntry enforces the chronology rule: a newly entered release
// time must be strictly later than the row's entry timestamp. When the entry
// timestamp itself does not parse the rule is skipped: a broken reference
// value must never block the user.
func ValidateAfterEntry(candidate time.Time, rawEntry string) (bool, string) {
	trimmed := strings.TrimSpace(rawEntry)
	if trimmed == "" {
		return true, ""
	}

	entry, err := time.ParseInLocation(entryTimeLayout, trimmed, ReferenceLocation())
	if err != nil {
		return true, ""
	}

	if !candidate.After(entry) {
		return false, fmt.Sprintf("Data/hora deve ser posterior à entrada: %s", trimmed)
	}
	return true, ""
}

// ValidateRequiredNote enforces the mandatory-note rule for a single row:
// when the effective reason is "outros" the effective note must be non-empty.
// Both inputs are expected to be normalized already.
func ValidateRequiredNote(reason, note string) (bool, string) {
	if !strings.EqualFold(reason, ReasonOther) {
		return true, ""
	}
	if note == "" {
		return false, "Observação obrigatória quando motivo é 'Outros'"
	}
	return true, ""
}

// ValidateEvent aggregates the mandatory-note rule across every row of an
// event, resolving values through the staged-edit overlay. A non-empty result
// means the whole submission is refused; rows of one event are never
// persisted partially.
func ValidateEvent(event Event, overlay EffectiveValues) []string {
	var errs []string
	for _, row := range event.Rows {
		reason := overlay.EffectiveReason(row)
		if reason == "" {
			continue
		}
		if ok, msg := ValidateRequiredNote(reason, overlay.EffectiveNote(row)); !ok {
			errs = append(errs, fmt.Sprintf("• Placa %s: %s", row.Plate, msg))
		}
	}
	return errs
}
