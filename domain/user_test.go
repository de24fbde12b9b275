package domain

import "testing"

func TestRoleLevels(t *testing.T) {
	levels := map[Role]int{
		RoleIntern:          1,
		RoleDeveloper:       2,
		RoleSeniorDeveloper: 3,
		RoleArchitect:       4,
		RoleSeniorArchitect: 5,
		RoleTeamLead:        6,
		RoleManager:         7,
		RoleSeniorManager:   8,
	}
	for role, want := range levels {
		if got := role.Level(); got != want {
			t.Fatalf("role %s: expected level %d, got %d", role, want, got)
		}
		if !role.Valid() {
			t.Fatalf("role %s reported invalid", role)
		}
	}
}

func TestUnknownRole(t *testing.T) {
	r := Role("cto")
	if r.Valid() {
		t.Fatal("unknown role reported valid")
	}
	if r.Level() != 0 {
		t.Fatalf("unknown role level: %d", r.Level())
	}
	if r.DisplayName() != "cto" {
		t.Fatalf("unknown role display name: %s", r.DisplayName())
	}
}

func TestRoleDisplayName(t *testing.T) {
	if got := RoleSeniorDeveloper.DisplayName(); got != "Senior Developer" {
		t.Fatalf("unexpected display name: %s", got)
	}
}

func TestUserSummary(t *testing.T) {
	u := User{ID: "u1", Email: "a@b.c", Name: "Ada", Role: RoleManager, RoleLevel: 7}
	s := u.Summary()
	if s.ID != "u1" || s.Name != "Ada" || s.Role != RoleManager {
		t.Fatalf("unexpected summary: %#v", s)
	}
}
