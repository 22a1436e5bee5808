package session

import (
	"testing"

	"sentinela/internal/domain/deviation"
)

func TestOverlayStageAndEffective(t *testing.T) {
	overlay := NewOverlay()
	row := deviation.Row{
		ID:     "7",
		Title:  "EVT_TERMINALINOCENCIA_N2_01062025_100000",
		Reason: "none",
		Note:   "",
	}

	if got := overlay.EffectiveReason(row); got != "" {
		t.Fatalf("EffectiveReason(no edits) = %q, want empty", got)
	}

	overlay.Stage(row.Title, row.ID, deviation.FieldReason, "Troca de Turno")
	if got := overlay.EffectiveReason(row); got != "Troca de Turno" {
		t.Fatalf("EffectiveReason(staged) = %q", got)
	}

	// Restaging the same field overwrites.
	overlay.Stage(row.Title, row.ID, deviation.FieldReason, deviation.SelectPrompt)
	if got := overlay.EffectiveReason(row); got != "" {
		t.Fatalf("EffectiveReason(placeholder restage) = %q, want empty", got)
	}

	// A staged placeholder hides a persisted real value too.
	row.Reason = "Absenteísmo"
	if got := overlay.EffectiveReason(row); got != "" {
		t.Fatalf("EffectiveReason(placeholder over persisted) = %q, want empty", got)
	}
}

func TestOverlayClearEvent(t *testing.T) {
	overlay := NewOverlay()
	overlay.Stage("EVT_A", "1", deviation.FieldNote, "nota")
	overlay.Stage("EVT_A", "2", deviation.FieldReason, "Outros")
	overlay.Stage("EVT_B", "1", deviation.FieldNote, "outra")

	if !overlay.EventHasEdits("EVT_A") {
		t.Fatalf("EventHasEdits(EVT_A) = false")
	}

	overlay.ClearEvent("EVT_A")
	if overlay.EventHasEdits("EVT_A") {
		t.Fatalf("EventHasEdits(EVT_A) = true after clear")
	}
	if !overlay.EventHasEdits("EVT_B") {
		t.Fatalf("ClearEvent(EVT_A) also dropped EVT_B edits")
	}
	if !overlay.HasEdits() {
		t.Fatalf("HasEdits() = false, EVT_B should remain")
	}
}

func TestOverlayRowEditsCopy(t *testing.T) {
	overlay := NewOverlay()
	overlay.Stage("EVT_A", "1", deviation.FieldNote, "nota")

	edits := overlay.RowEdits("EVT_A", "1")
	edits[deviation.FieldNote] = "mutated"

	if got, _ := overlay.Staged("EVT_A", "1", deviation.FieldNote); got != "nota" {
		t.Fatalf("Staged() = %q, RowEdits must return a copy", got)
	}
	if overlay.RowEdits("EVT_A", "9") != nil {
		t.Fatalf("RowEdits(unknown row) != nil")
	}
}

func TestManagerLifecycle(t *testing.T) {
	manager := NewManager()
	user := deviation.User{Name: "Ana", Role: deviation.RoleOrdinary}

	s := manager.Create(user)
	if s.Token == "" {
		t.Fatalf("Create() blank token")
	}

	got, err := manager.Get(s.Token)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.User.Name != "Ana" {
		t.Fatalf("Get() user = %+v", got.User)
	}

	manager.Delete(s.Token)
	if _, err := manager.Get(s.Token); err == nil {
		t.Fatalf("Get(deleted) error = nil")
	}
}
