package group

import "strings"

// Group is one prediction league a user belongs to.
type Group struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	League      string `json:"league"`
	AdminID     string `json:"adminId"`
	InviteCode  string `json:"inviteCode"`
	CurrentWeek int    `json:"currentWeek"`
	Active      bool   `json:"active"`
	ActivatedAt string `json:"activatedAt,omitempty"`
	MemberCount int    `json:"memberCount"`
}

// Member is one row of a group's membership list. Member lists are
// scoped to exactly one group and are never reused across groups.
type Member struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
	JoinedAt string `json:"joinedAt"`
}

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Team is an entry of the team directory used when creating a group.
type Team struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	League string `json:"league"`
	Crest  string `json:"crest,omitempty"`
}

// CreateInput is the payload for POST /groups.
type CreateInput struct {
	Name   string `json:"name" validate:"required,min=3,max=48"`
	League string `json:"league" validate:"required"`
}

// UpdateInput is the payload for PUT /groups/:id.
type UpdateInput struct {
	Name string `json:"name,omitempty" validate:"omitempty,min=3,max=48"`
}

// NormalizeInviteCode strips whitespace and upcases an invite code as
// typed by the user.
func NormalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (g Group) IsAdmin(userID string) bool {
	return userID != "" && g.AdminID == userID
}
