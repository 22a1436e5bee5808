package deviation

import (
	"fmt"
	"strings"
	"time"
)

const storeTimestampLayout = "2006-01-02T15:04:05"

// FormatStoreValue encodes a field value for the list store: placeholders
// collapse to empty strings, everything else is trimmed.
func FormatStoreValue(raw string) string {
	return NormalizeField(raw)
}

// FormatStoreRelease encodes a predicted-release value for the list store as
// YYYY-MM-DDTHH:MM:SS, or nil for an absent value. Localized dd/mm input is
// converted; anything else already in store shape passes through trimmed.
func FormatStoreRelease(raw string) any {
	normalized := NormalizeField(raw)
	if normalized == "" {
		return nil
	}

	if strings.Contains(normalized, "/") {
		if t, err := time.ParseInLocation(entryTimeLayout, normalized, ReferenceLocation()); err == nil {
			return t.Format(storeTimestampLayout)
		}
	}
	return normalized
}

// FormatStoreTimestamp renders a moment in the store's timestamp encoding,
// in the reference zone.
func FormatStoreTimestamp(t time.Time) string {
	return t.In(ReferenceLocation()).Format(storeTimestampLayout)
}

// FormatDisplayTime renders a stored timestamp for the dashboard as
// dd/mm/yyyy HH:MM. Values that fail both accepted parses are shown verbatim.
func FormatDisplayTime(raw string) string {
	if IsBlank(raw) {
		return ""
	}
	t, ok := ParseEntryTime(raw)
	if !ok {
		return strings.TrimSpace(raw)
	}
	return t.In(ReferenceLocation()).Format(entryTimeLayout)
}

// ReleaseOption is one selectable predicted-release choice.
type ReleaseOption struct {
	Value string
	Label string
}

// ReleaseOptions generates the selectable release times: the next 48 hours in
// two-hour steps, values in the localized store input format.
func ReleaseOptions(now time.Time) []ReleaseOption {
	now = now.In(ReferenceLocation())
	options := make([]ReleaseOption, 0, 26)
	options = append(options, ReleaseOption{Value: "", Label: SelectPrompt})

	for i := 0; i <= 48; i += 2 {
		at := now.Add(time.Duration(i) * time.Hour)
		var label string
		switch {
		case i == 0:
			label = fmt.Sprintf("Agora (%s)", at.Format("02/01 15:04"))
		case i < 24:
			label = fmt.Sprintf("Hoje %s (%s)", at.Format("15:04"), at.Format("02/01"))
		case i < 48:
			label = fmt.Sprintf("Amanhã %s (%s)", at.Format("15:04"), at.Format("02/01"))
		default:
			label = at.Format(entryTimeLayout)
		}
		options = append(options, ReleaseOption{Value: at.Format(entryTimeLayout), Label: label})
	}
	return options
}
