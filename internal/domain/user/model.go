package user

// Summary is the identity payload carried in the auth slice.
type Summary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Profile is the full user record as returned by the backend. It is a
// read-only projection client-side.
type Profile struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl"`
	Bio       string `json:"bio"`
	CreatedAt string `json:"createdAt"`
}

// Stats is the aggregate prediction record of one user across all
// their groups.
type Stats struct {
	TotalPredictions int     `json:"totalPredictions"`
	TotalPoints      int     `json:"totalPoints"`
	PerfectScores    int     `json:"perfectScores"`
	Accuracy         float64 `json:"accuracy"`
	CurrentStreak    int     `json:"currentStreak"`
	BestStreak       int     `json:"bestStreak"`
}

// ProfileUpdate carries the mutable profile fields for PUT
// /users/profile.
type ProfileUpdate struct {
	Username  string `json:"username,omitempty" validate:"omitempty,min=3,max=32"`
	AvatarURL string `json:"avatarUrl,omitempty" validate:"omitempty,url"`
	Bio       string `json:"bio,omitempty" validate:"omitempty,max=280"`
}
