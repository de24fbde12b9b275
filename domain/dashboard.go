package domain

// DashboardPartition splits the visible task list into the dashboard tabs.
type DashboardPartition struct {
	AssignedToMe []Task
	AssignedByMe []Task
}

// PartitionTasks derives the "assigned to me" and "assigned by me" tabs
// for the given user. A self-assigned task lands in both.
func PartitionTasks(tasks []Task, userID string) DashboardPartition {
	var p DashboardPartition
	for _, t := range tasks {
		if t.AssignedTo == userID {
			p.AssignedToMe = append(p.AssignedToMe, t)
		}
		if t.AssignedBy == userID {
			p.AssignedByMe = append(p.AssignedByMe, t)
		}
	}
	return p
}

// TeamOverview returns the roster slice visible on the team tab. It is
// the hierarchy filter applied to the full roster.
func TeamOverview(roster []User, actor User) []User {
	return AssignableUsers(roster, actor)
}
