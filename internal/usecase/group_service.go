package usecase

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sourcegraph/conc/pool"

	"github.com/kickpool/kickpool-go/internal/apperror"
	"github.com/kickpool/kickpool-go/internal/coordinator"
	"github.com/kickpool/kickpool-go/internal/domain/group"
	"github.com/kickpool/kickpool-go/internal/platform/logging"
	"github.com/kickpool/kickpool-go/internal/season"
	"github.com/kickpool/kickpool-go/internal/store"
)

// GroupService manages the membership index, the focused group, and
// the team directory. Member lists bypass the cache: stale membership
// is worse than an extra round trip.
type GroupService struct {
	api      Backend
	auth     Reauther
	coord    *coordinator.Coordinator
	store    *store.Store
	notifier *store.Notifier
	seasons  *season.Engine
	validate *validator.Validate
	logger   *logging.Logger
}

func NewGroupService(api Backend, auth Reauther, coord *coordinator.Coordinator, st *store.Store, notifier *store.Notifier, seasons *season.Engine, validate *validator.Validate, logger *logging.Logger) *GroupService {
	if logger == nil {
		logger = logging.Default()
	}
	return &GroupService{
		api:      api,
		auth:     auth,
		coord:    coord,
		store:    st,
		notifier: notifier,
		seasons:  seasons,
		validate: validate,
		logger:   logger,
	}
}

// FetchGroups refreshes the user's membership index. On failure the
// index is set to empty before the error surfaces, so the UI renders
// "no groups" rather than a stale list.
func (s *GroupService) FetchGroups(ctx context.Context) error {
	ctx, span := startSpan(ctx, "group.FetchGroups")
	defer span.End()

	s.store.Dispatch(store.SetGroupsLoading{Loading: true})

	value, err := s.coord.GetOrFetch(ctx, coordinator.Key("/groups", nil), func(ctx context.Context) (any, error) {
		var groups []group.Group
		callErr := s.auth.Authenticated(ctx, func(ctx context.Context) error {
			return s.api.Get(ctx, "/groups", nil, &groups)
		})
		if callErr != nil {
			return nil, callErr
		}
		return groups, nil
	})
	if err != nil {
		s.store.Dispatch(store.SetUserGroups{Groups: []group.Group{}})
		s.store.Dispatch(store.SetGroupsError{Message: apperror.UserMessage(err)})
		return fmt.Errorf("fetch groups: %w", err)
	}

	s.store.Dispatch(store.SetUserGroups{Groups: value.([]group.Group)})
	return nil
}

// LoadGroup makes one group the detail focus and seeds its league
// slice with the seasons valid for that group's league calendar.
func (s *GroupService) LoadGroup(ctx context.Context, groupID string) error {
	ctx, span := startSpan(ctx, "group.LoadGroup")
	defer span.End()

	if groupID == "" {
		return apperror.Validation("group id is required", nil)
	}

	s.store.Dispatch(store.SetGroupsLoading{Loading: true})

	value, err := s.coord.GetOrFetch(ctx, coordinator.Key("/groups/"+groupID, nil), func(ctx context.Context) (any, error) {
		var g group.Group
		callErr := s.auth.Authenticated(ctx, func(ctx context.Context) error {
			return s.api.Get(ctx, "/groups/"+groupID, nil, &g)
		})
		if callErr != nil {
			return nil, callErr
		}
		return &g, nil
	})
	if err != nil {
		s.store.Dispatch(store.SetGroupsError{Message: apperror.UserMessage(err)})
		return fmt.Errorf("load group: %w", err)
	}

	g := value.(*group.Group)
	s.store.Dispatch(store.SetCurrentGroup{Group: g})
	s.store.Dispatch(store.SetAvailableSeasons{Seasons: s.seasons.AvailableSeasons(g.League, 5)})
	s.store.Dispatch(store.SetSelectedSeason{Season: s.seasons.CurrentSeason(g.League)})
	week := g.CurrentWeek
	if week == 0 {
		week = s.seasons.CurrentWeekEstimate(g.League)
	}
	if week > 0 {
		s.store.Dispatch(store.SetSelectedWeek{Week: week})
	}
	return nil
}

func (s *GroupService) CreateGroup(ctx context.Context, input group.CreateInput) (*group.Group, error) {
	ctx, span := startSpan(ctx, "group.CreateGroup")
	defer span.End()

	if err := validateInput(s.validate, input); err != nil {
		s.notifier.Error(apperror.UserMessage(err))
		return nil, err
	}

	var created group.Group
	err := s.auth.Authenticated(ctx, func(ctx context.Context) error {
		return s.api.Post(ctx, "/groups", input, &created)
	})
	if err != nil {
		s.store.Dispatch(store.SetGroupsError{Message: apperror.UserMessage(err)})
		s.notifier.Error(apperror.UserMessage(err))
		return nil, fmt.Errorf("create group: %w", err)
	}

	s.coord.Invalidate(coordinator.Key("/groups", nil))
	s.notifier.Success(fmt.Sprintf("Group %q created. Invite code: %s", created.Name, created.InviteCode))
	return &created, nil
}

func (s *GroupService) UpdateGroup(ctx context.Context, groupID string, input group.UpdateInput) error {
	ctx, span := startSpan(ctx, "group.UpdateGroup")
	defer span.End()

	if groupID == "" {
		return apperror.Validation("group id is required", nil)
	}
	if err := validateInput(s.validate, input); err != nil {
		s.notifier.Error(apperror.UserMessage(err))
		return err
	}

	var updated group.Group
	err := s.auth.Authenticated(ctx, func(ctx context.Context) error {
		return s.api.Put(ctx, "/groups/"+groupID, input, &updated)
	})
	if err != nil {
		s.store.Dispatch(store.SetGroupsError{Message: apperror.UserMessage(err)})
		s.notifier.Error(apperror.UserMessage(err))
		return fmt.Errorf("update group: %w", err)
	}

	s.coord.Invalidate(coordinator.Key("/groups", nil))
	s.coord.InvalidatePrefix("/groups/" + groupID)
	if current := s.store.State().Groups.CurrentGroup; current != nil && current.ID == groupID {
		s.store.Dispatch(store.SetCurrentGroup{Group: &updated})
	}
	s.notifier.Success("Group updated.")
	return nil
}

// JoinGroup redeems an invite code. The code is normalized before it
// goes on the wire so casing and stray whitespace never matter.
func (s *GroupService) JoinGroup(ctx context.Context, inviteCode string) (*group.Group, error) {
	ctx, span := startSpan(ctx, "group.JoinGroup")
	defer span.End()

	code := group.NormalizeInviteCode(inviteCode)
	if code == "" {
		err := apperror.Validation("invite code is required", nil)
		s.notifier.Error(apperror.UserMessage(err))
		return nil, err
	}

	var joined group.Group
	err := s.auth.Authenticated(ctx, func(ctx context.Context) error {
		return s.api.Post(ctx, "/groups/join", map[string]string{"inviteCode": code}, &joined)
	})
	if err != nil {
		s.store.Dispatch(store.SetGroupsError{Message: apperror.UserMessage(err)})
		s.notifier.Error(apperror.UserMessage(err))
		return nil, fmt.Errorf("join group: %w", err)
	}

	s.coord.Invalidate(coordinator.Key("/groups", nil))
	s.notifier.Success(fmt.Sprintf("You joined %q.", joined.Name))
	return &joined, nil
}

func (s *GroupService) LeaveGroup(ctx context.Context, groupID string) error {
	ctx, span := startSpan(ctx, "group.LeaveGroup")
	defer span.End()

	if groupID == "" {
		return apperror.Validation("group id is required", nil)
	}

	err := s.auth.Authenticated(ctx, func(ctx context.Context) error {
		return s.api.Post(ctx, "/groups/"+groupID+"/leave", nil, nil)
	})
	if err != nil {
		s.notifier.Error(apperror.UserMessage(err))
		return fmt.Errorf("leave group: %w", err)
	}

	s.coord.Invalidate(coordinator.Key("/groups", nil))
	s.coord.InvalidatePrefix("/groups/" + groupID)
	if current := s.store.State().Groups.CurrentGroup; current != nil && current.ID == groupID {
		s.store.Dispatch(store.SetCurrentGroup{Group: nil})
	}
	s.notifier.Info("You left the group.")
	return nil
}

// FetchMembers always hits the backend. Membership drives permissions,
// so it is never served from the TTL cache.
func (s *GroupService) FetchMembers(ctx context.Context, groupID string) error {
	ctx, span := startSpan(ctx, "group.FetchMembers")
	defer span.End()

	if groupID == "" {
		return apperror.Validation("group id is required", nil)
	}

	var members []group.Member
	err := s.auth.Authenticated(ctx, func(ctx context.Context) error {
		return s.api.Get(ctx, "/groups/"+groupID+"/members", nil, &members)
	})
	if err != nil {
		s.store.Dispatch(store.SetGroupMembers{Members: []group.Member{}})
		s.store.Dispatch(store.SetGroupsError{Message: apperror.UserMessage(err)})
		return fmt.Errorf("fetch members: %w", err)
	}

	s.store.Dispatch(store.SetGroupMembers{Members: members})
	return nil
}

func (s *GroupService) AddMember(ctx context.Context, groupID, username string) error {
	ctx, span := startSpan(ctx, "group.AddMember")
	defer span.End()

	if groupID == "" || username == "" {
		return apperror.Validation("group id and username are required", nil)
	}

	err := s.auth.Authenticated(ctx, func(ctx context.Context) error {
		return s.api.Post(ctx, "/groups/"+groupID+"/members", map[string]string{"username": username}, nil)
	})
	if err != nil {
		s.notifier.Error(apperror.UserMessage(err))
		return fmt.Errorf("add member: %w", err)
	}

	s.notifier.Success(fmt.Sprintf("%s added to the group.", username))
	return s.FetchMembers(ctx, groupID)
}

func (s *GroupService) RegenerateInviteCode(ctx context.Context, groupID string) (string, error) {
	ctx, span := startSpan(ctx, "group.RegenerateInviteCode")
	defer span.End()

	if groupID == "" {
		return "", apperror.Validation("group id is required", nil)
	}

	var payload struct {
		InviteCode string `json:"inviteCode"`
	}
	err := s.auth.Authenticated(ctx, func(ctx context.Context) error {
		return s.api.Post(ctx, "/groups/"+groupID+"/regenerate-code", nil, &payload)
	})
	if err != nil {
		s.notifier.Error(apperror.UserMessage(err))
		return "", fmt.Errorf("regenerate invite code: %w", err)
	}

	s.coord.InvalidatePrefix("/groups/" + groupID)
	if current := s.store.State().Groups.CurrentGroup; current != nil && current.ID == groupID {
		refreshed := *current
		refreshed.InviteCode = payload.InviteCode
		s.store.Dispatch(store.SetCurrentGroup{Group: &refreshed})
	}
	s.notifier.Success("New invite code generated.")
	return payload.InviteCode, nil
}

// FetchTeams loads the team directory, optionally filtered by league.
// The directory changes rarely, so it rides the TTL cache.
func (s *GroupService) FetchTeams(ctx context.Context, league string) error {
	ctx, span := startSpan(ctx, "group.FetchTeams")
	defer span.End()

	params := map[string]string{}
	if league != "" {
		params["league"] = league
	}

	value, err := s.coord.GetOrFetch(ctx, coordinator.Key("/groups/teams", params), func(ctx context.Context) (any, error) {
		var teams []group.Team
		query := queryFromParams(params)
		if callErr := s.api.Get(ctx, "/groups/teams", query, &teams); callErr != nil {
			return nil, callErr
		}
		return teams, nil
	})
	if err != nil {
		s.store.Dispatch(store.SetGroupTeams{Teams: []group.Team{}})
		s.store.Dispatch(store.SetGroupsError{Message: apperror.UserMessage(err)})
		return fmt.Errorf("fetch teams: %w", err)
	}

	s.store.Dispatch(store.SetGroupTeams{Teams: value.([]group.Team)})
	return nil
}

// LoadGroupPage assembles everything the group detail view needs. The
// group itself loads first because the member and fixture fetches
// depend on its league; the rest fans out concurrently.
func (s *GroupService) LoadGroupPage(ctx context.Context, groupID string, matches *MatchService, boards *LeaderboardService) error {
	ctx, span := startSpan(ctx, "group.LoadGroupPage")
	defer span.End()

	if err := s.LoadGroup(ctx, groupID); err != nil {
		return err
	}

	state := s.store.State()
	current := state.Groups.CurrentGroup
	if current == nil {
		return apperror.Unexpected(nil, "group vanished after load")
	}
	seasonID := state.League.SelectedSeason
	week := state.League.SelectedWeek

	p := pool.New().WithContext(ctx).WithFirstError()
	p.Go(func(ctx context.Context) error {
		return s.FetchMembers(ctx, groupID)
	})
	if matches != nil {
		p.Go(func(ctx context.Context) error {
			return matches.FetchFixtures(ctx, current.League, seasonID, week)
		})
	}
	if boards != nil {
		p.Go(func(ctx context.Context) error {
			return boards.FetchLeaderboard(ctx, groupID, current.League, seasonID, week)
		})
	}
	if err := p.Wait(); err != nil {
		return fmt.Errorf("load group page: %w", err)
	}
	return nil
}
