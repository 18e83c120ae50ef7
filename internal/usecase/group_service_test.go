package usecase

import (
	"context"
	"testing"

	crerr "github.com/cockroachdb/errors"

	"github.com/kickpool/kickpool-go/internal/apperror"
	"github.com/kickpool/kickpool-go/internal/domain/group"
)

func newGroupService(env *testEnv) *GroupService {
	return NewGroupService(env.api, passAuth{}, env.coord, env.store, env.notifier, env.seasons, env.validate, nil)
}

func TestFetchGroupsCachesResult(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.api.handle("GET", "/groups", func(_ stubCall, out any) error {
		*out.(*[]group.Group) = []group.Group{{ID: "g1", Name: "Office League", League: "Premier League"}}
		return nil
	})
	svc := newGroupService(env)

	for i := 0; i < 3; i++ {
		if err := svc.FetchGroups(context.Background()); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}

	if got := env.api.callCount("GET", "/groups"); got != 1 {
		t.Fatalf("expected 1 backend call, got %d", got)
	}
	groups := env.store.State().Groups.UserGroups
	if len(groups) != 1 || groups[0].ID != "g1" {
		t.Fatalf("unexpected groups in store: %+v", groups)
	}
}

func TestFetchGroupsFailureLeavesEmptyList(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.api.handle("GET", "/groups", func(_ stubCall, _ any) error {
		return apperror.FromStatus(503, "down for maintenance", nil)
	})
	svc := newGroupService(env)

	if err := svc.FetchGroups(context.Background()); err == nil {
		t.Fatal("expected an error")
	}

	state := env.store.State().Groups
	if state.UserGroups == nil || len(state.UserGroups) != 0 {
		t.Fatalf("expected empty group list, got %+v", state.UserGroups)
	}
	if state.Error == "" {
		t.Fatal("expected the error message to land in the slice")
	}
	if state.Loading {
		t.Fatal("loading flag should be cleared")
	}
}

func TestLoadGroupSeedsLeagueSlice(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.api.handle("GET", "/groups/g1", func(_ stubCall, out any) error {
		*out.(*group.Group) = group.Group{ID: "g1", Name: "Office League", League: "Premier League", CurrentWeek: 7}
		return nil
	})
	svc := newGroupService(env)

	if err := svc.LoadGroup(context.Background(), "g1"); err != nil {
		t.Fatal(err)
	}

	state := env.store.State()
	if state.Groups.CurrentGroup == nil || state.Groups.CurrentGroup.ID != "g1" {
		t.Fatalf("current group not set: %+v", state.Groups.CurrentGroup)
	}
	if state.League.League != "Premier League" {
		t.Fatalf("league slice league = %q", state.League.League)
	}
	// October 2024 sits inside the 2024-2025 Premier League season.
	if state.League.SelectedSeason != "2024-2025" {
		t.Fatalf("selected season = %q", state.League.SelectedSeason)
	}
	if state.League.SelectedWeek != 7 {
		t.Fatalf("selected week = %d", state.League.SelectedWeek)
	}
	if len(state.League.AvailableSeasons) == 0 {
		t.Fatal("available seasons not populated")
	}
}

func TestFetchMembersAlwaysHitsBackend(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	env.api.handle("GET", "/groups/g1/members", func(_ stubCall, out any) error {
		*out.(*[]group.Member) = []group.Member{{UserID: "u1", Username: "ana", Role: group.RoleAdmin}}
		return nil
	})
	svc := newGroupService(env)

	for i := 0; i < 3; i++ {
		if err := svc.FetchMembers(context.Background(), "g1"); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}

	if got := env.api.callCount("GET", "/groups/g1/members"); got != 3 {
		t.Fatalf("expected 3 backend calls, got %d", got)
	}
}

func TestJoinGroupNormalizesInviteCode(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	var sentCode string
	env.api.handle("POST", "/groups/join", func(call stubCall, out any) error {
		sentCode = call.Body.(map[string]string)["inviteCode"]
		*out.(*group.Group) = group.Group{ID: "g2", Name: "Sunday Pool"}
		return nil
	})
	svc := newGroupService(env)

	if _, err := svc.JoinGroup(context.Background(), "  ab12cd  "); err != nil {
		t.Fatal(err)
	}
	if sentCode != "AB12CD" {
		t.Fatalf("invite code sent as %q", sentCode)
	}
}

func TestCreateGroupInvalidatesGroupList(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	listCalls := 0
	env.api.handle("GET", "/groups", func(_ stubCall, out any) error {
		listCalls++
		*out.(*[]group.Group) = []group.Group{{ID: "g1"}}
		return nil
	})
	env.api.handle("POST", "/groups", func(_ stubCall, out any) error {
		*out.(*group.Group) = group.Group{ID: "g9", Name: "New Pool", InviteCode: "ZZTOP1"}
		return nil
	})
	svc := newGroupService(env)

	if err := svc.FetchGroups(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateGroup(context.Background(), group.CreateInput{Name: "New Pool", League: "Premier League"}); err != nil {
		t.Fatal(err)
	}
	if err := svc.FetchGroups(context.Background()); err != nil {
		t.Fatal(err)
	}

	if listCalls != 2 {
		t.Fatalf("expected the write to evict the cached list, got %d list calls", listCalls)
	}
}

func TestCreateGroupRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	svc := newGroupService(env)

	_, err := svc.CreateGroup(context.Background(), group.CreateInput{Name: "ab"})
	if !apperror.IsKind(err, apperror.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if got := env.api.callCount("POST", "/groups"); got != 0 {
		t.Fatalf("invalid input must not reach the backend, got %d calls", got)
	}
	if len(env.notificationMessages()) == 0 {
		t.Fatal("expected an error notification")
	}
}

func TestLoadGroupRequiresID(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	svc := newGroupService(env)

	err := svc.LoadGroup(context.Background(), "")
	if !crerr.HasType(err, (*apperror.Error)(nil)) {
		t.Fatalf("expected typed error, got %v", err)
	}
}
