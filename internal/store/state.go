package store

import (
	"github.com/kickpool/kickpool-go/internal/domain/group"
	"github.com/kickpool/kickpool-go/internal/domain/leaderboard"
	"github.com/kickpool/kickpool-go/internal/domain/match"
	"github.com/kickpool/kickpool-go/internal/domain/notification"
	"github.com/kickpool/kickpool-go/internal/domain/prediction"
	"github.com/kickpool/kickpool-go/internal/domain/user"
	"github.com/kickpool/kickpool-go/internal/season"
)

// State is the single client-side state tree. Each slice is owned by
// the reducer; nothing outside Reduce may mutate it.
type State struct {
	Auth          AuthState
	User          UserState
	Groups        GroupsState
	Matches       MatchesState
	Predictions   PredictionsState
	League        LeagueState
	Notifications NotificationsState
}

// AuthState holds the session identity. Authentication status is
// derived from User, never stored, so the two can't drift apart.
type AuthState struct {
	User    *user.Summary
	Loading bool
	Error   string
}

func (a AuthState) IsAuthenticated() bool {
	return a.User != nil
}

type UserState struct {
	Profile *user.Profile
	Stats   *user.Stats
	Loading bool
	Error   string
}

// GroupsState tracks the membership index plus the one group in
// detail focus. Members always belong to CurrentGroup and are
// refetched on every switch.
type GroupsState struct {
	UserGroups   []group.Group
	CurrentGroup *group.Group
	Members      []group.Member
	Teams        []group.Team
	Loading      bool
	Error        string
}

type MatchesState struct {
	Fixtures []match.Fixture
	Live     []match.Fixture
	Loading  bool
	Error    string
}

type PredictionsState struct {
	Items   []prediction.Prediction
	Loading bool
	Error   string
}

// LeagueState is the season/leaderboard sub-state of the focused
// group's league. SelectedSeason == "" means uninitialized; switching
// groups resets the whole slice because season validity depends on
// the league's calendar scheme.
type LeagueState struct {
	League           string
	SelectedSeason   string
	SelectedWeek     int
	AvailableSeasons []season.Option
	Leaderboard      []leaderboard.Entry
	LeaderboardScope *leaderboard.Scope
	Loading          bool
	Error            string
}

type NotificationsState struct {
	Items []notification.Notification
}
