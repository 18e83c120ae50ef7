package match

import (
	"strings"
	"time"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusLive      = "LIVE"
	StatusFinished  = "FINISHED"
	StatusPostponed = "POSTPONED"
	StatusCancelled = "CANCELLED"
)

// Fixture is one scheduled or played match.
type Fixture struct {
	FixtureID int64     `json:"fixtureId"`
	League    string    `json:"league"`
	Season    string    `json:"season"`
	Week      int       `json:"week"`
	HomeTeam  string    `json:"homeTeam"`
	AwayTeam  string    `json:"awayTeam"`
	Date      time.Time `json:"date"`
	Status    string    `json:"status"`
	HomeScore *int      `json:"homeScore,omitempty"`
	AwayScore *int      `json:"awayScore,omitempty"`
	Minute    int       `json:"minute,omitempty"`
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusScheduled
	}
	return status
}

func IsLiveStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusLive, "IN_PLAY", "HT", "1H", "2H", "ET":
		return true
	default:
		return false
	}
}

func IsFinishedStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusFinished, "FT", "AET", "PEN":
		return true
	default:
		return false
	}
}

// FixturePage identifies one parameterized page of the fixtures list.
type FixturePage struct {
	League string
	Season string
	Week   int
	Page   int
}
