package deviation

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
)

// Elapsed-time escalation statuses surfaced on the dashboard.
const (
	TimeStatusNormal    = "normal"
	TimeStatusAttention = "atencao"
	TimeStatusCritical  = "critico"
)

// Default escalation thresholds. Overridable through EscalationPolicy.
const (
	DefaultAttentionAfter = 45 * time.Minute
	DefaultCriticalAfter  = 90 * time.Minute
)

const entryTimeLayout = "02/01/2006 15:04"

var (
	referenceLocOnce sync.Once
	referenceLoc     *time.Location
)

// ReferenceLocation returns the fixed operations time zone. All entry
// timestamps are interpreted and compared in this zone.
func ReferenceLocation() *time.Location {
	referenceLocOnce.Do(func() {
		loc, err := time.LoadLocation("America/Campo_Grande")
		if err != nil {
			loc = time.FixedZone("-04", -4*60*60)
		}
		referenceLoc = loc
	})
	return referenceLoc
}

// EscalationPolicy holds the thresholds used to bucket elapsed time.
// Informational alerts are exempt when ExemptInformational is set.
type EscalationPolicy struct {
	AttentionAfter      time.Duration
	CriticalAfter       time.Duration
	ExemptInformational bool
}

func DefaultEscalationPolicy() EscalationPolicy {
	return EscalationPolicy{
		AttentionAfter:      DefaultAttentionAfter,
		CriticalAfter:       DefaultCriticalAfter,
		ExemptInformational: true,
	}
}

// ElapsedInfo describes how long a row has been open and the escalation
// bucket that duration falls in.
type ElapsedInfo struct {
	Elapsed    time.Duration
	Text       string
	TimeStatus string
	EntryValid bool
}

// ComputeElapsed parses a raw entry timestamp and buckets the elapsed time
// against the policy thresholds. A blank or unparseable input yields the zero
// state ("0h", normal, EntryValid=false); it never returns an error.
//
// Two input shapes are accepted: the localized "dd/mm/yyyy HH:MM" form the
// store renders, and RFC3339-style timestamps from the raw feed.
func ComputeElapsed(rawEntry string, now time.Time, policy EscalationPolicy) ElapsedInfo {
	info := ElapsedInfo{Text: "0h", TimeStatus: TimeStatusNormal}

	entry, ok := ParseEntryTime(rawEntry)
	if !ok {
		return info
	}

	elapsed := now.In(ReferenceLocation()).Sub(entry)
	if elapsed < 0 {
		// Entries timestamped in the future never show negative elapsed time.
		elapsed = 0
	}

	info.Elapsed = elapsed
	info.Text = FormatElapsed(elapsed)
	info.TimeStatus = bucketElapsed(elapsed, policy)
	info.EntryValid = true
	return info
}

// ElapsedForCategory applies the informational exemption on top of
// ComputeElapsed: exempt categories always report "normal".
func ElapsedForCategory(category, rawEntry string, now time.Time, policy EscalationPolicy) ElapsedInfo {
	info := ComputeElapsed(rawEntry, now, policy)
	if policy.ExemptInformational && category == CategoryInformational {
		info.TimeStatus = TimeStatusNormal
	}
	return info
}

// ParseEntryTime parses the two accepted entry formats into the reference
// time zone. The boolean is false when the input is blank or unparseable.
func ParseEntryTime(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}

	if strings.Contains(trimmed, "/") {
		t, err := time.ParseInLocation(entryTimeLayout, trimmed, ReferenceLocation())
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, trimmed, ReferenceLocation()); err == nil {
			return t.In(ReferenceLocation()), true
		}
	}
	return time.Time{}, false
}

func bucketElapsed(elapsed time.Duration, policy EscalationPolicy) string {
	switch {
	case elapsed >= policy.CriticalAfter:
		return TimeStatusCritical
	case elapsed >= policy.AttentionAfter:
		return TimeStatusAttention
	default:
		return TimeStatusNormal
	}
}

// FormatElapsed renders a duration for the dashboard:
// 0 → "0h", under an hour → minutes, under a day → one-decimal hours,
// otherwise days plus the rounded remainder hours when they round to one or more.
func FormatElapsed(elapsed time.Duration) string {
	hours := elapsed.Hours()
	switch {
	case hours == 0:
		return "0h"
	case hours < 1:
		return fmt.Sprintf("%dmin", int(hours*60))
	case hours < 24:
		return fmt.Sprintf("%.1fh", hours)
	default:
		days := int(hours / 24)
		remainder := math.Round(hours - float64(days)*24)
		if remainder >= 1 {
			return fmt.Sprintf("%dd %.0fh", days, remainder)
		}
		return fmt.Sprintf("%dd", days)
	}
}
