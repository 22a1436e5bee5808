package deviation

import (
	"testing"
	"time"
)

func entryAt(now time.Time, elapsed time.Duration) string {
	return now.Add(-elapsed).In(ReferenceLocation()).Format("02/01/2006 15:04")
}

func TestComputeElapsedThresholds(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, ReferenceLocation())
	policy := DefaultEscalationPolicy()

	cases := []struct {
		elapsed time.Duration
		want    string
	}{
		{44 * time.Minute, TimeStatusNormal},
		{45 * time.Minute, TimeStatusAttention},
		{89 * time.Minute, TimeStatusAttention},
		{90 * time.Minute, TimeStatusCritical},
	}
	for _, tc := range cases {
		info := ComputeElapsed(entryAt(now, tc.elapsed), now, policy)
		if info.TimeStatus != tc.want {
			t.Fatalf("ComputeElapsed(%v) TimeStatus = %q, want %q", tc.elapsed, info.TimeStatus, tc.want)
		}
		if !info.EntryValid {
			t.Fatalf("ComputeElapsed(%v) EntryValid = false", tc.elapsed)
		}
	}
}

func TestComputeElapsedBlankAndBadInput(t *testing.T) {
	now := time.Now()
	policy := DefaultEscalationPolicy()

	for _, raw := range []string{"", "   ", "not a date", "32/13/2025 99:99"} {
		info := ComputeElapsed(raw, now, policy)
		if info.EntryValid {
			t.Fatalf("ComputeElapsed(%q) EntryValid = true", raw)
		}
		if info.Text != "0h" || info.TimeStatus != TimeStatusNormal || info.Elapsed != 0 {
			t.Fatalf("ComputeElapsed(%q) = %+v, want zero state", raw, info)
		}
	}
}

func TestComputeElapsedFutureEntryClampsToZero(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, ReferenceLocation())
	info := ComputeElapsed(entryAt(now, -2*time.Hour), now, DefaultEscalationPolicy())
	if info.Elapsed != 0 {
		t.Fatalf("ComputeElapsed(future) Elapsed = %v, want 0", info.Elapsed)
	}
	if info.Text != "0h" {
		t.Fatalf("ComputeElapsed(future) Text = %q, want 0h", info.Text)
	}
	if !info.EntryValid {
		t.Fatalf("ComputeElapsed(future) EntryValid = false")
	}
}

func TestComputeElapsedGenericFormat(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, ReferenceLocation())
	info := ComputeElapsed("2025-06-10T10:00:00", now, DefaultEscalationPolicy())
	if !info.EntryValid {
		t.Fatalf("ComputeElapsed(iso) EntryValid = false")
	}
	if info.Elapsed != 2*time.Hour {
		t.Fatalf("ComputeElapsed(iso) Elapsed = %v, want 2h", info.Elapsed)
	}
}

func TestElapsedForCategoryInformationalExemption(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, ReferenceLocation())
	entry := entryAt(now, 3*time.Hour)
	policy := DefaultEscalationPolicy()

	info := ElapsedForCategory(CategoryInformational, entry, now, policy)
	if info.TimeStatus != TimeStatusNormal {
		t.Fatalf("ElapsedForCategory(informational) TimeStatus = %q, want normal", info.TimeStatus)
	}

	info = ElapsedForCategory(CategoryEscalationN1, entry, now, policy)
	if info.TimeStatus != TimeStatusCritical {
		t.Fatalf("ElapsedForCategory(N1) TimeStatus = %q, want critico", info.TimeStatus)
	}

	policy.ExemptInformational = false
	info = ElapsedForCategory(CategoryInformational, entry, now, policy)
	if info.TimeStatus != TimeStatusCritical {
		t.Fatalf("ElapsedForCategory(informational, no exemption) TimeStatus = %q", info.TimeStatus)
	}
}

func TestFormatElapsed(t *testing.T) {
	cases := []struct {
		elapsed time.Duration
		want    string
	}{
		{0, "0h"},
		{30 * time.Minute, "30min"},
		{90 * time.Minute, "1.5h"},
		{24 * time.Hour, "1d"},
		{25 * time.Hour, "1d 1h"},
		{51 * time.Hour, "2d 3h"},
		{24*time.Hour + 20*time.Minute, "1d"},
	}
	for _, tc := range cases {
		if got := FormatElapsed(tc.elapsed); got != tc.want {
			t.Fatalf("FormatElapsed(%v) = %q, want %q", tc.elapsed, got, tc.want)
		}
	}
}
