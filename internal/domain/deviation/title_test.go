package deviation

import (
	"testing"
	"time"
)

func TestParseTitleFull(t *testing.T) {
	info := ParseTitle("EVT_PAAGUACLARA_N1_15032024_143000")
	if !info.Valid {
		t.Fatalf("ParseTitle() Valid = false, want true")
	}
	if info.Category != CategoryEscalationN1 {
		t.Fatalf("ParseTitle() Category = %q", info.Category)
	}
	if info.POI != "P.A. Água Clara" {
		t.Fatalf("ParseTitle() POI = %q", info.POI)
	}
	if !info.HasEnteredAt {
		t.Fatalf("ParseTitle() HasEnteredAt = false")
	}
	want := time.Date(2024, 3, 15, 14, 30, 0, 0, ReferenceLocation())
	if !info.EnteredAt.Equal(want) {
		t.Fatalf("ParseTitle() EnteredAt = %v, want %v", info.EnteredAt, want)
	}
	if info.DisplayTime != "15/03 14:00" {
		t.Fatalf("ParseTitle() DisplayTime = %q", info.DisplayTime)
	}
}

func TestParseTitleTooFewSegments(t *testing.T) {
	info := ParseTitle("EVT_PAAGUACLARA_15032024")
	if info.Valid {
		t.Fatalf("ParseTitle() Valid = true, want false")
	}
	if info.Category != "" || info.POI != "" || info.DisplayTime != "" {
		t.Fatalf("ParseTitle() fields not empty: %+v", info)
	}
	if info.HasEnteredAt {
		t.Fatalf("ParseTitle() HasEnteredAt = true, want false")
	}
}

func TestParseTitlePOISubstringMatch(t *testing.T) {
	info := ParseTitle("EVT_ROTACARREGAMENTOFABRICARRPSUL_N2_01012025_080000")
	if info.POI != "Fábrica RRP" {
		t.Fatalf("ParseTitle() POI = %q, want Fábrica RRP", info.POI)
	}
	if info.Category != CategoryEscalationN2 {
		t.Fatalf("ParseTitle() Category = %q", info.Category)
	}
}

func TestParseTitleUnknownMappingsFallBack(t *testing.T) {
	info := ParseTitle("EVT_PATIONOVO_N9_01012025_080000")
	if !info.Valid {
		t.Fatalf("ParseTitle() Valid = false")
	}
	if info.POI != "Pationovo" {
		t.Fatalf("ParseTitle() POI fallback = %q, want Pationovo", info.POI)
	}
	if info.Category != "N9" {
		t.Fatalf("ParseTitle() Category fallback = %q, want N9", info.Category)
	}
}

func TestParseTitleBadTimestampKeepsRawDisplay(t *testing.T) {
	info := ParseTitle("EVT_OFICINAJSL_Informativo_99999999_880000")
	if !info.Valid {
		t.Fatalf("ParseTitle() Valid = false")
	}
	if info.HasEnteredAt {
		t.Fatalf("ParseTitle() HasEnteredAt = true for invalid timestamp")
	}
	if info.DisplayTime != "99999999 880000" {
		t.Fatalf("ParseTitle() DisplayTime = %q", info.DisplayTime)
	}
	if info.Category != CategoryInformational {
		t.Fatalf("ParseTitle() Category = %q", info.Category)
	}
	if info.POI != "Oficina JSL" {
		t.Fatalf("ParseTitle() POI = %q", info.POI)
	}
}
