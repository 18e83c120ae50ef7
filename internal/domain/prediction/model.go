package prediction

import "strings"

// Status values form a forward-only chain. The only sanctioned way
// back to EDITABLE is an explicit reset.
const (
	StatusEditable  = "EDITABLE"
	StatusSubmitted = "SUBMITTED"
	StatusLocked    = "LOCKED"
	StatusProcessed = "PROCESSED"
)

var statusOrder = map[string]int{
	StatusEditable:  0,
	StatusSubmitted: 1,
	StatusLocked:    2,
	StatusProcessed: 3,
}

// Prediction is one user's score pick for a fixture. Points is nil
// until the prediction has been processed.
type Prediction struct {
	ID        string `json:"id"`
	FixtureID int64  `json:"fixtureId"`
	GroupID   string `json:"groupId"`
	Score1    int    `json:"score1"`
	Score2    int    `json:"score2"`
	Status    string `json:"status"`
	Points    *int   `json:"points,omitempty"`
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if _, ok := statusOrder[status]; !ok {
		return StatusEditable
	}
	return status
}

// CanAdvance reports whether moving from one status to another keeps
// the forward-only chain intact.
func CanAdvance(from, to string) bool {
	fromRank, ok := statusOrder[NormalizeStatus(from)]
	if !ok {
		return false
	}
	toRank, ok := statusOrder[NormalizeStatus(to)]
	if !ok {
		return false
	}
	return toRank >= fromRank
}

// HasPoints reports whether Points carries a meaningful value.
func (p Prediction) HasPoints() bool {
	return p.Status == StatusProcessed && p.Points != nil
}

// CreateInput is the payload for POST /predictions.
type CreateInput struct {
	FixtureID int64  `json:"fixtureId" validate:"required,gt=0"`
	GroupID   string `json:"groupId" validate:"required"`
	Score1    int    `json:"score1" validate:"gte=0,lte=20"`
	Score2    int    `json:"score2" validate:"gte=0,lte=20"`
}

// UpdateInput is the payload for PUT /predictions/:id.
type UpdateInput struct {
	Score1 int `json:"score1" validate:"gte=0,lte=20"`
	Score2 int `json:"score2" validate:"gte=0,lte=20"`
}
