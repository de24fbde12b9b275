package domain

// CanAssign reports whether the assigner may put a task on the assignee.
// Seniors can assign to juniors or peers, never upward.
func CanAssign(assigner, assignee User) bool {
	return assigner.Role.Level() >= assignee.Role.Level()
}

// AssignableUsers returns the subset of the roster the actor may assign
// tasks to: everyone at or below the actor's role level, excluding the
// actor itself. The same set scopes the team overview, so a user never
// sees superiors.
func AssignableUsers(roster []User, actor User) []User {
	out := make([]User, 0, len(roster))
	for _, u := range roster {
		if u.ID == actor.ID {
			continue
		}
		if u.Role.Level() > actor.Role.Level() {
			continue
		}
		out = append(out, u)
	}
	return out
}
