package domain

import "time"

// Role is the organizational tier of a user.
type Role string

const (
	RoleIntern          Role = "intern"
	RoleDeveloper       Role = "developer"
	RoleSeniorDeveloper Role = "senior_developer"
	RoleArchitect       Role = "architect"
	RoleSeniorArchitect Role = "senior_architect"
	RoleTeamLead        Role = "team_lead"
	RoleManager         Role = "manager"
	RoleSeniorManager   Role = "senior_manager"
)

// Level returns the seniority rank of the role. Higher means more senior.
// Unknown roles rank below every valid role.
func (r Role) Level() int {
	switch r {
	case RoleIntern:
		return 1
	case RoleDeveloper:
		return 2
	case RoleSeniorDeveloper:
		return 3
	case RoleArchitect:
		return 4
	case RoleSeniorArchitect:
		return 5
	case RoleTeamLead:
		return 6
	case RoleManager:
		return 7
	case RoleSeniorManager:
		return 8
	default:
		return 0
	}
}

// Valid reports whether the role is one of the known tiers.
func (r Role) Valid() bool {
	return r.Level() > 0
}

// DisplayName returns the human readable form of the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleIntern:
		return "Intern"
	case RoleDeveloper:
		return "Developer"
	case RoleSeniorDeveloper:
		return "Senior Developer"
	case RoleArchitect:
		return "Architect"
	case RoleSeniorArchitect:
		return "Senior Architect"
	case RoleTeamLead:
		return "Team Lead"
	case RoleManager:
		return "Manager"
	case RoleSeniorManager:
		return "Senior Manager"
	default:
		return string(r)
	}
}

// User is a registered account. Profiles are immutable after registration.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	RoleLevel int       `json:"role_level"`
	CreatedAt time.Time `json:"created_at"`
}

// UserSummary is the short profile embedded in task responses.
type UserSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// Summary returns the short profile for embedding in tasks.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Role: u.Role}
}
