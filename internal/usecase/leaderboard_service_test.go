package usecase

import (
	"context"
	"testing"

	"github.com/kickpool/kickpool-go/internal/domain/group"
	"github.com/kickpool/kickpool-go/internal/domain/leaderboard"
	"github.com/kickpool/kickpool-go/internal/store"
)

func newLeaderboardService(env *testEnv) *LeaderboardService {
	return NewLeaderboardService(env.api, passAuth{}, env.coord, env.store, nil)
}

func TestFetchLeaderboardAppliesEntriesAndScope(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.api.handle("GET", "/predictions/leaderboard/g1", func(call stubCall, out any) error {
		if got := call.Query.Get("week"); got != "7" {
			t.Errorf("week param = %q", got)
		}
		*out.(*[]leaderboard.Entry) = []leaderboard.Entry{
			{UserID: "u1", Username: "ana", Rank: 1, TotalPoints: 42},
			{UserID: "u2", Username: "bo", Rank: 2, TotalPoints: 39},
		}
		return nil
	})
	svc := newLeaderboardService(env)

	if err := svc.FetchLeaderboard(context.Background(), "g1", "Premier League", "2024-2025", 7); err != nil {
		t.Fatal(err)
	}

	state := env.store.State().League
	if len(state.Leaderboard) != 2 || state.Leaderboard[0].Username != "ana" {
		t.Fatalf("unexpected board: %+v", state.Leaderboard)
	}
	scope := state.LeaderboardScope
	if scope == nil || scope.GroupID != "g1" || scope.Week != 7 {
		t.Fatalf("unexpected scope: %+v", scope)
	}
}

func TestFetchLeaderboardDiscardsSupersededResponse(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.api.handle("GET", "/predictions/leaderboard/g1", func(_ stubCall, out any) error {
		// A newer request starts while this response is in flight.
		env.coord.Begin("leaderboard")
		*out.(*[]leaderboard.Entry) = []leaderboard.Entry{{UserID: "u1", Rank: 1}}
		return nil
	})
	svc := newLeaderboardService(env)

	if err := svc.FetchLeaderboard(context.Background(), "g1", "Premier League", "2024-2025", 3); err != nil {
		t.Fatal(err)
	}

	state := env.store.State().League
	if state.LeaderboardScope != nil {
		t.Fatalf("superseded response must not touch the store, scope = %+v", state.LeaderboardScope)
	}
	if len(state.Leaderboard) != 0 {
		t.Fatalf("superseded response must not touch the store, board = %+v", state.Leaderboard)
	}
}

func TestFetchLeaderboardFailureClearsBoard(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.api.handle("GET", "/predictions/leaderboard/g1", func(_ stubCall, _ any) error {
		return context.DeadlineExceeded
	})
	svc := newLeaderboardService(env)

	if err := svc.FetchLeaderboard(context.Background(), "g1", "Premier League", "2024-2025", 0); err == nil {
		t.Fatal("expected an error")
	}

	state := env.store.State().League
	if state.Leaderboard == nil || len(state.Leaderboard) != 0 {
		t.Fatalf("expected fetched-but-empty board, got %+v", state.Leaderboard)
	}
	if state.Error == "" {
		t.Fatal("expected the error message in the slice")
	}
}

func TestSelectWeekReloadsBoard(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.api.handle("GET", "/predictions/leaderboard/g1", func(_ stubCall, out any) error {
		*out.(*[]leaderboard.Entry) = []leaderboard.Entry{{UserID: "u1", Rank: 1}}
		return nil
	})
	env.store.Dispatch(store.SetCurrentGroup{Group: &group.Group{ID: "g1", League: "Premier League"}})
	env.store.Dispatch(store.SetSelectedSeason{Season: "2024-2025"})
	svc := newLeaderboardService(env)

	if err := svc.SelectWeek(context.Background(), 9); err != nil {
		t.Fatal(err)
	}

	state := env.store.State().League
	if state.SelectedWeek != 9 {
		t.Fatalf("selected week = %d", state.SelectedWeek)
	}
	if state.LeaderboardScope == nil || state.LeaderboardScope.Week != 9 {
		t.Fatalf("scope = %+v", state.LeaderboardScope)
	}
}

func TestSelectWeekWithoutGroup(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	svc := newLeaderboardService(env)

	if err := svc.SelectWeek(context.Background(), 3); err == nil {
		t.Fatal("expected an error with no focused group")
	}
}
