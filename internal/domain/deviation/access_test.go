package deviation

import "testing"

func TestAreaGrantsAccess(t *testing.T) {
	if !AreaGrantsAccess("Fábrica RRP", []string{"fábrica"}) {
		t.Fatalf("AreaGrantsAccess(fábrica ⊂ Fábrica RRP) = false")
	}
	if AreaGrantsAccess("Terminal Inocência", []string{"oficina"}) {
		t.Fatalf("AreaGrantsAccess(oficina vs Terminal Inocência) = true")
	}
	// Bidirectional: the assigned area may contain the POI.
	if !AreaGrantsAccess("Terminal", []string{"terminal inocência"}) {
		t.Fatalf("AreaGrantsAccess(Terminal ⊂ terminal inocência) = false")
	}
	if AreaGrantsAccess("Fábrica RRP", nil) {
		t.Fatalf("AreaGrantsAccess(no areas) = true")
	}
}

func TestCanViewRoleBypass(t *testing.T) {
	tower := User{Role: ParseRole("torre")}
	if !CanView(tower, "Terminal Inocência") {
		t.Fatalf("CanView(torre) = false, want bypass")
	}

	approver := User{Role: ParseRole("aprovador")}
	if !CanView(approver, "Oficina JSL") {
		t.Fatalf("CanView(aprovador) = false, want bypass")
	}

	ordinary := User{Role: ParseRole("operacao"), Areas: []string{"fábrica"}}
	if !CanView(ordinary, "Fábrica RRP") {
		t.Fatalf("CanView(ordinary, matching area) = false")
	}
	if CanView(ordinary, "Terminal Inocência") {
		t.Fatalf("CanView(ordinary, other area) = true")
	}
}

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"aprovador":   RoleApprover,
		" Aprovador ": RoleApprover,
		"torre":       RoleCentralOversight,
		"operacao":    RoleOrdinary,
		"":            RoleOrdinary,
	}
	for raw, want := range cases {
		if got := ParseRole(raw); got != want {
			t.Fatalf("ParseRole(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestRolePermissions(t *testing.T) {
	if !RoleApprover.CanApprove() || !RoleCentralOversight.CanApprove() {
		t.Fatalf("approver/oversight CanApprove = false")
	}
	if RoleOrdinary.CanApprove() {
		t.Fatalf("ordinary CanApprove = true")
	}
}

func TestCanEdit(t *testing.T) {
	ordinary := User{Role: RoleOrdinary, Areas: []string{"fábrica"}}
	if !CanEdit(ordinary, StatusPending) {
		t.Fatalf("CanEdit(ordinary, Pending) = false")
	}
	if CanEdit(ordinary, StatusApproved) {
		t.Fatalf("CanEdit(ordinary, Approved) = true")
	}
	if CanEdit(User{Role: RoleApprover}, StatusPending) {
		t.Fatalf("CanEdit(approver) = true, approvers never edit rows")
	}
}

func TestNormalizeAreas(t *testing.T) {
	areas := NormalizeAreas(" Fábrica ;Terminal\nOficina JSL; ")
	want := []string{"fábrica", "terminal", "oficina jsl"}
	if len(areas) != len(want) {
		t.Fatalf("NormalizeAreas() = %#v", areas)
	}
	for i := range want {
		if areas[i] != want[i] {
			t.Fatalf("NormalizeAreas()[%d] = %q, want %q", i, areas[i], want[i])
		}
	}
}
