package domain

import "testing"

func TestPartitionTasks(t *testing.T) {
	tasks := []Task{
		{ID: "t1", AssignedTo: "me", AssignedBy: "boss"},
		{ID: "t2", AssignedTo: "peer", AssignedBy: "me"},
		{ID: "t3", AssignedTo: "me", AssignedBy: "me"},
	}

	p := PartitionTasks(tasks, "me")

	if len(p.AssignedToMe) != 2 {
		t.Fatalf("expected 2 tasks assigned to me, got %d", len(p.AssignedToMe))
	}
	if len(p.AssignedByMe) != 2 {
		t.Fatalf("expected 2 tasks assigned by me, got %d", len(p.AssignedByMe))
	}
	if p.AssignedToMe[0].ID != "t1" || p.AssignedToMe[1].ID != "t3" {
		t.Fatalf("unexpected assigned-to-me order: %#v", p.AssignedToMe)
	}
	if p.AssignedByMe[0].ID != "t2" || p.AssignedByMe[1].ID != "t3" {
		t.Fatalf("unexpected assigned-by-me order: %#v", p.AssignedByMe)
	}
}

func TestPartitionTasksEmpty(t *testing.T) {
	p := PartitionTasks(nil, "me")
	if len(p.AssignedToMe) != 0 || len(p.AssignedByMe) != 0 {
		t.Fatalf("expected empty partition, got %#v", p)
	}
}
