package storage

import (
	"testing"
	"time"

	"taskflow/domain"
)

func TestTaskEntityRoundtrip(t *testing.T) {
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	created := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
	original := domain.Task{
		ID:          "t1",
		Title:       "Ship the release",
		Description: "Cut the tag and push",
		Status:      domain.StatusInProgress,
		Priority:    domain.PriorityHigh,
		AssignedTo:  "dev",
		AssignedBy:  "boss",
		DueDate:     &due,
		Comments: []domain.Comment{
			{ID: "c1", Text: "started", Author: "dev", Timestamp: created},
			{ID: "c2", Text: "any blockers?", Author: "boss", Timestamp: created.Add(time.Hour)},
		},
		CreatedAt: created,
		UpdatedAt: created.Add(2 * time.Hour),
	}

	ent, err := entityFromTask(original)
	if err != nil {
		t.Fatalf("entityFromTask: %v", err)
	}
	if ent.PartitionKey != taskPartition || ent.RowKey != "t1" {
		t.Fatalf("unexpected keys: %q/%q", ent.PartitionKey, ent.RowKey)
	}
	if ent.DueDate == "" {
		t.Fatal("due date not serialized")
	}

	got, err := taskFromEntity(ent)
	if err != nil {
		t.Fatalf("taskFromEntity: %v", err)
	}
	if got.ID != original.ID || got.Title != original.Title || got.Status != original.Status {
		t.Fatalf("roundtrip mismatch: %#v", got)
	}
	if got.DueDate == nil || !got.DueDate.Equal(due) {
		t.Fatalf("due date mismatch: %v", got.DueDate)
	}
	if len(got.Comments) != 2 || got.Comments[0].Text != "started" || got.Comments[1].Author != "boss" {
		t.Fatalf("comments mismatch: %#v", got.Comments)
	}
	if !got.UpdatedAt.Equal(original.UpdatedAt) {
		t.Fatalf("updated at mismatch: %v", got.UpdatedAt)
	}
}

func TestTaskEntityNoDueDate(t *testing.T) {
	ent, err := entityFromTask(domain.Task{ID: "t1", Status: domain.StatusAssigned})
	if err != nil {
		t.Fatalf("entityFromTask: %v", err)
	}
	if ent.DueDate != "" {
		t.Fatalf("expected empty due date column, got %q", ent.DueDate)
	}

	got, err := taskFromEntity(ent)
	if err != nil {
		t.Fatalf("taskFromEntity: %v", err)
	}
	if got.DueDate != nil {
		t.Fatalf("expected nil due date, got %v", got.DueDate)
	}
	if got.Comments == nil || len(got.Comments) != 0 {
		t.Fatalf("expected empty comment slice, got %#v", got.Comments)
	}
}

func TestUserFromEntityDerivesRoleLevel(t *testing.T) {
	ent := userEntity{
		Email:     "dev@example.com",
		Name:      "Dana",
		Role:      "senior_developer",
		CreatedAt: "2026-01-15T10:00:00Z",
	}
	ent.RowKey = "u1"

	user := userFromEntity(ent)
	if user.ID != "u1" || user.Role != domain.RoleSeniorDeveloper {
		t.Fatalf("unexpected user: %#v", user)
	}
	if user.RoleLevel != 3 {
		t.Fatalf("expected level 3, got %d", user.RoleLevel)
	}
	if user.CreatedAt.IsZero() {
		t.Fatal("created at not parsed")
	}
}

func TestUserFromEntityUnknownRole(t *testing.T) {
	ent := userEntity{Role: "cto"}
	if got := userFromEntity(ent).RoleLevel; got != 0 {
		t.Fatalf("expected level 0 for unknown role, got %d", got)
	}
}

func TestEscapeODataString(t *testing.T) {
	cases := map[string]string{
		"plain":          "plain",
		"o'brien":        "o''brien",
		"a'b'c":          "a''b''c",
		"":               "",
		"x' or '1'='1":   "x'' or ''1''=''1",
		"already''quote": "already''''quote",
	}
	for in, want := range cases {
		if got := escapeODataString(in); got != want {
			t.Fatalf("escapeODataString(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseEntityTimeInvalid(t *testing.T) {
	if got := parseEntityTime("not-a-time"); !got.IsZero() {
		t.Fatalf("expected zero time, got %v", got)
	}
}
