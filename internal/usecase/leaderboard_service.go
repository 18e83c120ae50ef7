package usecase

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kickpool/kickpool-go/internal/apperror"
	"github.com/kickpool/kickpool-go/internal/coordinator"
	"github.com/kickpool/kickpool-go/internal/domain/leaderboard"
	"github.com/kickpool/kickpool-go/internal/platform/logging"
	"github.com/kickpool/kickpool-go/internal/store"
)

// leaderboardGeneration is the shared generation key: the store holds
// exactly one board at a time, so every board request supersedes the
// previous one regardless of scope.
const leaderboardGeneration = "leaderboard"

// LeaderboardService loads ranking boards. Responses apply
// last-request-wins: when the user flips scopes quickly, a slow
// earlier response is discarded silently instead of overwriting the
// newer board.
type LeaderboardService struct {
	api    Backend
	auth   Reauther
	coord  *coordinator.Coordinator
	store  *store.Store
	logger *logging.Logger
}

func NewLeaderboardService(api Backend, auth Reauther, coord *coordinator.Coordinator, st *store.Store, logger *logging.Logger) *LeaderboardService {
	if logger == nil {
		logger = logging.Default()
	}
	return &LeaderboardService{
		api:    api,
		auth:   auth,
		coord:  coord,
		store:  st,
		logger: logger,
	}
}

// FetchLeaderboard loads one board. Week 0 requests the season-wide
// board. A response that lost the race to a newer request is dropped
// without touching the store or surfacing an error.
func (s *LeaderboardService) FetchLeaderboard(ctx context.Context, groupID, league, seasonID string, week int) error {
	ctx, span := startSpan(ctx, "leaderboard.FetchLeaderboard")
	defer span.End()

	if groupID == "" {
		return apperror.Validation("group id is required", nil)
	}

	scope := leaderboard.Scope{GroupID: groupID, League: league, Season: seasonID, Week: week}
	gen := s.coord.Begin(leaderboardGeneration)

	s.store.Dispatch(store.SetLeagueLoading{Loading: true})

	params := map[string]string{}
	if seasonID != "" {
		params["season"] = seasonID
	}
	if week > 0 {
		params["week"] = strconv.Itoa(week)
	}

	path := "/predictions/leaderboard/" + groupID
	value, err := s.coord.GetOrFetch(ctx, coordinator.Key(path, params), func(ctx context.Context) (any, error) {
		var entries []leaderboard.Entry
		callErr := s.auth.Authenticated(ctx, func(ctx context.Context) error {
			return s.api.Get(ctx, path, queryFromParams(params), &entries)
		})
		if callErr != nil {
			return nil, callErr
		}
		return entries, nil
	})

	if !s.coord.IsCurrent(leaderboardGeneration, gen) {
		s.logger.DebugContext(ctx, "discarding superseded leaderboard response",
			"groupId", groupID,
			"week", week,
		)
		return nil
	}

	if err != nil {
		s.store.Dispatch(store.SetLeaderboard{Entries: []leaderboard.Entry{}, Scope: scope})
		s.store.Dispatch(store.SetLeagueError{Message: apperror.UserMessage(err)})
		return fmt.Errorf("fetch leaderboard: %w", err)
	}

	s.store.Dispatch(store.SetLeaderboard{Entries: value.([]leaderboard.Entry), Scope: scope})
	return nil
}

// SelectWeek switches the board to another week of the same scope.
func (s *LeaderboardService) SelectWeek(ctx context.Context, week int) error {
	ctx, span := startSpan(ctx, "leaderboard.SelectWeek")
	defer span.End()

	state := s.store.State()
	current := state.Groups.CurrentGroup
	if current == nil {
		return apperror.Validation("no group selected", nil)
	}
	if week < 0 {
		return apperror.Validation("week must not be negative", nil)
	}

	s.store.Dispatch(store.SetSelectedWeek{Week: week})
	return s.FetchLeaderboard(ctx, current.ID, current.League, state.League.SelectedSeason, week)
}

// SelectSeason switches the board to another season and reloads the
// season-wide board for it.
func (s *LeaderboardService) SelectSeason(ctx context.Context, seasonID string) error {
	ctx, span := startSpan(ctx, "leaderboard.SelectSeason")
	defer span.End()

	state := s.store.State()
	current := state.Groups.CurrentGroup
	if current == nil {
		return apperror.Validation("no group selected", nil)
	}

	s.store.Dispatch(store.SetSelectedSeason{Season: seasonID})
	return s.FetchLeaderboard(ctx, current.ID, current.League, seasonID, 0)
}
