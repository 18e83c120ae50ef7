package store

import (
	"github.com/kickpool/kickpool-go/internal/domain/group"
	"github.com/kickpool/kickpool-go/internal/domain/notification"
	"github.com/kickpool/kickpool-go/internal/domain/prediction"
)

// Reduce is the pure transition function. It never mutates its input:
// slices in the returned state are either carried over untouched or
// replaced wholesale. Unknown actions return the state unchanged.
func Reduce(s State, a Action) State {
	switch action := a.(type) {

	case SetAuthLoading:
		s.Auth.Loading = action.Loading
	case SetAuthUser:
		s.Auth.User = action.User
		s.Auth.Loading = false
		s.Auth.Error = ""
	case SetAuthError:
		s.Auth.Error = action.Message
		s.Auth.Loading = false
	case ClearAuth:
		s.Auth = AuthState{}
		s.User = UserState{}
		s.Groups = GroupsState{}
		s.Predictions = PredictionsState{}

	case SetUserLoading:
		s.User.Loading = action.Loading
	case SetUserProfile:
		s.User.Profile = action.Profile
		s.User.Loading = false
		s.User.Error = ""
	case SetUserStats:
		s.User.Stats = action.Stats
		s.User.Loading = false
		s.User.Error = ""
	case SetUserError:
		s.User.Error = action.Message
		s.User.Loading = false
	case ClearUser:
		s.User = UserState{}

	case SetGroupsLoading:
		s.Groups.Loading = action.Loading
	case SetUserGroups:
		s.Groups.UserGroups = action.Groups
		s.Groups.Loading = false
		s.Groups.Error = ""
	case SetCurrentGroup:
		s.Groups.CurrentGroup = action.Group
		s.Groups.Members = nil
		s.Groups.Loading = false
		s.Groups.Error = ""
		s.League = LeagueState{League: leagueOf(action.Group)}
	case SetGroupMembers:
		s.Groups.Members = action.Members
		s.Groups.Loading = false
		s.Groups.Error = ""
	case SetGroupTeams:
		s.Groups.Teams = action.Teams
		s.Groups.Loading = false
		s.Groups.Error = ""
	case SetGroupsError:
		s.Groups.Error = action.Message
		s.Groups.Loading = false
	case ClearGroups:
		s.Groups = GroupsState{}

	case SetMatchesLoading:
		s.Matches.Loading = action.Loading
	case SetFixtures:
		s.Matches.Fixtures = emptyWhenNil(action.Fixtures)
		s.Matches.Loading = false
		s.Matches.Error = ""
	case SetLiveMatches:
		s.Matches.Live = emptyWhenNil(action.Fixtures)
		s.Matches.Loading = false
		s.Matches.Error = ""
	case SetMatchesError:
		s.Matches.Error = action.Message
		s.Matches.Loading = false
	case ClearMatches:
		s.Matches = MatchesState{}

	case SetPredictionsLoading:
		s.Predictions.Loading = action.Loading
	case SetPredictions:
		s.Predictions.Items = emptyWhenNil(action.Items)
		s.Predictions.Loading = false
		s.Predictions.Error = ""
	case UpsertPrediction:
		s.Predictions.Items = upsertPrediction(s.Predictions.Items, action.Item)
		s.Predictions.Loading = false
		s.Predictions.Error = ""
	case SetPredictionsError:
		s.Predictions.Error = action.Message
		s.Predictions.Loading = false
	case ClearPredictions:
		s.Predictions = PredictionsState{}

	case SetLeagueLoading:
		s.League.Loading = action.Loading
	case SetSelectedSeason:
		s.League.SelectedSeason = action.Season
		s.League.Error = ""
	case SetSelectedWeek:
		s.League.SelectedWeek = action.Week
	case SetAvailableSeasons:
		s.League.AvailableSeasons = action.Seasons
		s.League.Loading = false
		s.League.Error = ""
	case SetLeaderboard:
		scope := action.Scope
		s.League.Leaderboard = emptyWhenNil(action.Entries)
		s.League.LeaderboardScope = &scope
		s.League.Loading = false
		s.League.Error = ""
	case SetLeagueError:
		s.League.Error = action.Message
		s.League.Loading = false
	case ResetLeague:
		s.League = LeagueState{League: s.League.League}

	case PushNotification:
		s.Notifications.Items = appendNotification(s.Notifications.Items, action.Item)
	case RemoveNotification:
		s.Notifications.Items = removeNotification(s.Notifications.Items, action.ID)
	}

	return s
}

func leagueOf(g *group.Group) string {
	if g == nil {
		return ""
	}
	return g.League
}

// emptyWhenNil keeps "fetched but empty" distinguishable from
// "never fetched" for list slices.
func emptyWhenNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func upsertPrediction(items []prediction.Prediction, item prediction.Prediction) []prediction.Prediction {
	out := make([]prediction.Prediction, len(items))
	copy(out, items)
	for i := range out {
		if out[i].ID == item.ID {
			out[i] = item
			return out
		}
	}
	return append(out, item)
}

func appendNotification(items []notification.Notification, item notification.Notification) []notification.Notification {
	out := make([]notification.Notification, len(items), len(items)+1)
	copy(out, items)
	return append(out, item)
}

func removeNotification(items []notification.Notification, id string) []notification.Notification {
	out := make([]notification.Notification, 0, len(items))
	for _, item := range items {
		if item.ID != id {
			out = append(out, item)
		}
	}
	return out
}
