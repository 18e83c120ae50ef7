package leaderboard

// Entry is one server-computed leaderboard row. The client treats it
// as an opaque read model.
type Entry struct {
	UserID        string  `json:"userId"`
	Username      string  `json:"username"`
	Rank          int     `json:"rank"`
	TotalPoints   int     `json:"totalPoints"`
	Predictions   int     `json:"predictions"`
	PerfectScores int     `json:"perfectScores"`
	Accuracy      float64 `json:"accuracy"`
	AvgPoints     float64 `json:"avgPoints"`
}

// Scope identifies which board an entry list belongs to. Week == 0
// means the season-wide board.
type Scope struct {
	GroupID string
	League  string
	Season  string
	Week    int
}
