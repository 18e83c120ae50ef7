package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/kickpool/kickpool-go/internal/domain/match"
	"github.com/kickpool/kickpool-go/internal/domain/prediction"
	"github.com/kickpool/kickpool-go/internal/store"
)

func TestLivePollerLocksKickedOffPredictions(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	matches := newMatchService(env)
	predictions := newPredictionService(env)

	env.store.Dispatch(store.SetLiveMatches{Fixtures: []match.Fixture{
		{FixtureID: 10, Status: match.StatusLive},
		{FixtureID: 11, Status: match.StatusScheduled},
	}})
	seedPrediction(env, prediction.Prediction{ID: "p1", FixtureID: 10, Status: prediction.StatusEditable})
	seedPrediction(env, prediction.Prediction{ID: "p2", FixtureID: 11, Status: prediction.StatusSubmitted})
	seedPrediction(env, prediction.Prediction{ID: "p3", FixtureID: 10, Status: prediction.StatusProcessed})

	poller, err := NewLivePoller(matches, predictions, env.store, time.Minute, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer poller.Release()

	poller.lockKickedOff()

	byID := map[string]string{}
	for _, item := range env.store.State().Predictions.Items {
		byID[item.ID] = item.Status
	}
	if byID["p1"] != prediction.StatusLocked {
		t.Fatalf("open pick on a live fixture should lock, got %q", byID["p1"])
	}
	if byID["p2"] != prediction.StatusSubmitted {
		t.Fatalf("pick on a scheduled fixture must not change, got %q", byID["p2"])
	}
	if byID["p3"] != prediction.StatusProcessed {
		t.Fatalf("processed pick must not change, got %q", byID["p3"])
	}
}

func TestLivePollerStartStop(t *testing.T) {
	t.Parallel()

	env := newTestEnv()
	fetched := make(chan struct{}, 8)
	env.api.handle("GET", "/matches/live", func(_ stubCall, out any) error {
		select {
		case fetched <- struct{}{}:
		default:
		}
		*out.(*[]match.Fixture) = []match.Fixture{}
		return nil
	})
	matches := newMatchService(env)
	predictions := newPredictionService(env)

	poller, err := NewLivePoller(matches, predictions, env.store, time.Hour, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer poller.Release()

	poller.Start(context.Background(), "Premier League")

	select {
	case <-fetched:
	case <-time.After(2 * time.Second):
		t.Fatal("first tick never fired")
	}

	// Stop must return even though the ticker interval is an hour.
	poller.Stop()
}
