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

// Action is the sealed set of state transitions. One concrete struct
// per transition keeps dispatch sites typed and the reducer a plain
// type switch.
type Action interface {
	isAction()
}

// Auth slice.

type SetAuthLoading struct{ Loading bool }

// SetAuthUser establishes or replaces the session identity. A nil
// user is not a logout; use ClearAuth for that.
type SetAuthUser struct{ User *user.Summary }

type SetAuthError struct{ Message string }

// ClearAuth ends the session. The reducer clears auth, user, groups,
// and predictions in this single transition so no per-user data
// survives a logout.
type ClearAuth struct{}

// User slice.

type SetUserLoading struct{ Loading bool }
type SetUserProfile struct{ Profile *user.Profile }
type SetUserStats struct{ Stats *user.Stats }
type SetUserError struct{ Message string }
type ClearUser struct{}

// Groups slice.

type SetGroupsLoading struct{ Loading bool }
type SetUserGroups struct{ Groups []group.Group }

// SetCurrentGroup switches the detail focus. The reducer drops the
// previous group's members and resets the league slice, because the
// new group's league may follow a different season scheme.
type SetCurrentGroup struct{ Group *group.Group }

type SetGroupMembers struct{ Members []group.Member }
type SetGroupTeams struct{ Teams []group.Team }
type SetGroupsError struct{ Message string }
type ClearGroups struct{}

// Matches slice.

type SetMatchesLoading struct{ Loading bool }
type SetFixtures struct{ Fixtures []match.Fixture }
type SetLiveMatches struct{ Fixtures []match.Fixture }
type SetMatchesError struct{ Message string }
type ClearMatches struct{}

// Predictions slice.

type SetPredictionsLoading struct{ Loading bool }
type SetPredictions struct{ Items []prediction.Prediction }

// UpsertPrediction merges one prediction by ID, appending when new.
type UpsertPrediction struct{ Item prediction.Prediction }

type SetPredictionsError struct{ Message string }
type ClearPredictions struct{}

// League/season slice.

type SetLeagueLoading struct{ Loading bool }
type SetSelectedSeason struct{ Season string }
type SetSelectedWeek struct{ Week int }
type SetAvailableSeasons struct{ Seasons []season.Option }

type SetLeaderboard struct {
	Entries []leaderboard.Entry
	Scope   leaderboard.Scope
}

type SetLeagueError struct{ Message string }
type ResetLeague struct{}

// Notifications slice.

type PushNotification struct{ Item notification.Notification }
type RemoveNotification struct{ ID string }

func (SetAuthLoading) isAction()      {}
func (SetAuthUser) isAction()         {}
func (SetAuthError) isAction()        {}
func (ClearAuth) isAction()           {}
func (SetUserLoading) isAction()      {}
func (SetUserProfile) isAction()      {}
func (SetUserStats) isAction()        {}
func (SetUserError) isAction()        {}
func (ClearUser) isAction()           {}
func (SetGroupsLoading) isAction()    {}
func (SetUserGroups) isAction()       {}
func (SetCurrentGroup) isAction()     {}
func (SetGroupMembers) isAction()     {}
func (SetGroupTeams) isAction()       {}
func (SetGroupsError) isAction()      {}
func (ClearGroups) isAction()         {}
func (SetMatchesLoading) isAction()   {}
func (SetFixtures) isAction()         {}
func (SetLiveMatches) isAction()      {}
func (SetMatchesError) isAction()     {}
func (ClearMatches) isAction()        {}
func (SetPredictionsLoading) isAction() {}
func (SetPredictions) isAction()      {}
func (UpsertPrediction) isAction()    {}
func (SetPredictionsError) isAction() {}
func (ClearPredictions) isAction()    {}
func (SetLeagueLoading) isAction()    {}
func (SetSelectedSeason) isAction()   {}
func (SetSelectedWeek) isAction()     {}
func (SetAvailableSeasons) isAction() {}
func (SetLeaderboard) isAction()      {}
func (SetLeagueError) isAction()      {}
func (ResetLeague) isAction()         {}
func (PushNotification) isAction()    {}
func (RemoveNotification) isAction()  {}
