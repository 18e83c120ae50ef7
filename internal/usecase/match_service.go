package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kickpool/kickpool-go/internal/apperror"
	"github.com/kickpool/kickpool-go/internal/coordinator"
	"github.com/kickpool/kickpool-go/internal/domain/match"
	"github.com/kickpool/kickpool-go/internal/platform/logging"
	"github.com/kickpool/kickpool-go/internal/store"
)

// DefaultLiveCallFloor is the minimum spacing between consecutive
// live-score calls, shared by every caller through the coordinator.
const DefaultLiveCallFloor = 10 * time.Second

const liveFamily = "live"

// MatchService loads fixture schedules and live scores. Schedules are
// cacheable; live scores are only deduplicated, never cached.
type MatchService struct {
	api    Backend
	coord  *coordinator.Coordinator
	store  *store.Store
	logger *logging.Logger

	liveFloor time.Duration
}

func NewMatchService(api Backend, coord *coordinator.Coordinator, st *store.Store, liveFloor time.Duration, logger *logging.Logger) *MatchService {
	if liveFloor < 0 {
		liveFloor = DefaultLiveCallFloor
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &MatchService{
		api:       api,
		coord:     coord,
		store:     st,
		logger:    logger,
		liveFloor: liveFloor,
	}
}

// FetchFixtures loads the schedule page for one league, season, and
// week. Week 0 means the whole season. Failures leave an empty list in
// the store rather than stale data.
func (s *MatchService) FetchFixtures(ctx context.Context, league, seasonID string, week int) error {
	ctx, span := startSpan(ctx, "match.FetchFixtures")
	defer span.End()

	if league == "" {
		return apperror.Validation("league is required", nil)
	}

	params := map[string]string{"league": league}
	if seasonID != "" {
		params["season"] = seasonID
	}
	if week > 0 {
		params["week"] = strconv.Itoa(week)
	}

	s.store.Dispatch(store.SetMatchesLoading{Loading: true})

	value, err := s.coord.GetOrFetch(ctx, coordinator.Key("/matches/fixtures", params), func(ctx context.Context) (any, error) {
		var fixtures []match.Fixture
		if callErr := s.api.Get(ctx, "/matches/fixtures", queryFromParams(params), &fixtures); callErr != nil {
			return nil, callErr
		}
		return fixtures, nil
	})
	if err != nil {
		s.store.Dispatch(store.SetFixtures{Fixtures: []match.Fixture{}})
		s.store.Dispatch(store.SetMatchesError{Message: apperror.UserMessage(err)})
		return fmt.Errorf("fetch fixtures: %w", err)
	}

	s.store.Dispatch(store.SetFixtures{Fixtures: value.([]match.Fixture)})
	return nil
}

// FetchLive pulls the current in-play scores for a league. Calls are
// spaced by the shared floor; a caller arriving early waits its turn.
// Spacing waits are silent: the poller, not the user, pays for them.
func (s *MatchService) FetchLive(ctx context.Context, league string) error {
	ctx, span := startSpan(ctx, "match.FetchLive")
	defer span.End()

	if league == "" {
		return apperror.Validation("league is required", nil)
	}

	if err := s.coord.AwaitTurn(ctx, liveFamily, s.liveFloor); err != nil {
		return fmt.Errorf("await live slot: %w", err)
	}

	params := map[string]string{"league": league}
	value, err := s.coord.Coalesce(ctx, coordinator.Key("/matches/live", params), func(ctx context.Context) (any, error) {
		var fixtures []match.Fixture
		if callErr := s.api.Get(ctx, "/matches/live", queryFromParams(params), &fixtures); callErr != nil {
			return nil, callErr
		}
		return fixtures, nil
	})
	if err != nil {
		s.store.Dispatch(store.SetLiveMatches{Fixtures: []match.Fixture{}})
		s.store.Dispatch(store.SetMatchesError{Message: apperror.UserMessage(err)})
		return fmt.Errorf("fetch live: %w", err)
	}

	s.store.Dispatch(store.SetLiveMatches{Fixtures: value.([]match.Fixture)})
	return nil
}

// FetchMatch resolves one fixture, preferring whatever is already in
// the store before going to the backend.
func (s *MatchService) FetchMatch(ctx context.Context, fixtureID int64) (*match.Fixture, error) {
	ctx, span := startSpan(ctx, "match.FetchMatch")
	defer span.End()

	if fixtureID <= 0 {
		return nil, apperror.Validation("fixture id is required", nil)
	}

	state := s.store.State().Matches
	for _, pool := range [][]match.Fixture{state.Live, state.Fixtures} {
		for i := range pool {
			if pool[i].FixtureID == fixtureID {
				found := pool[i]
				return &found, nil
			}
		}
	}

	var fixture match.Fixture
	path := "/matches/" + strconv.FormatInt(fixtureID, 10)
	value, err := s.coord.GetOrFetch(ctx, coordinator.Key(path, nil), func(ctx context.Context) (any, error) {
		if callErr := s.api.Get(ctx, path, nil, &fixture); callErr != nil {
			return nil, callErr
		}
		return &fixture, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch match: %w", err)
	}
	return value.(*match.Fixture), nil
}
