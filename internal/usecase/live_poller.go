package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/kickpool/kickpool-go/internal/domain/match"
	"github.com/kickpool/kickpool-go/internal/domain/prediction"
	"github.com/kickpool/kickpool-go/internal/platform/logging"
	"github.com/kickpool/kickpool-go/internal/store"
)

// DefaultPollInterval is how often the poller wakes up while a league
// is being watched. The coordinator's call floor still applies on top.
const DefaultPollInterval = 30 * time.Second

// LivePoller keeps live scores flowing into the store while matches
// are in play, and locks open predictions once their fixture kicks
// off. Ticks run on a bounded worker pool so a slow backend never
// stacks up goroutines.
type LivePoller struct {
	matches     *MatchService
	predictions *PredictionService
	store       *store.Store
	logger      *logging.Logger

	interval time.Duration
	pool     *ants.Pool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewLivePoller(matches *MatchService, predictions *PredictionService, st *store.Store, interval time.Duration, logger *logging.Logger) (*LivePoller, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = logging.Default()
	}

	pool, err := ants.NewPool(2, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}

	return &LivePoller{
		matches:     matches,
		predictions: predictions,
		store:       st,
		logger:      logger,
		interval:    interval,
		pool:        pool,
	}, nil
}

// Start begins polling one league. Starting while already running
// restarts the loop with the new league.
func (p *LivePoller) Start(ctx context.Context, league string) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()

	go p.run(ctx, league, done)
}

// Stop halts polling and waits for the in-flight tick, if any.
func (p *LivePoller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Release tears down the worker pool. The poller is unusable after.
func (p *LivePoller) Release() {
	p.Stop()
	p.pool.Release()
}

func (p *LivePoller) run(ctx context.Context, league string, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx, league)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx, league)
		}
	}
}

// tick hands the poll to the worker pool. With the pool saturated the
// tick is skipped; the next one will catch up.
func (p *LivePoller) tick(ctx context.Context, league string) {
	err := p.pool.Submit(func() {
		if err := p.matches.FetchLive(ctx, league); err != nil {
			if ctx.Err() == nil {
				p.logger.WarnContext(ctx, "live poll failed", "league", league, "error", err.Error())
			}
			return
		}
		p.lockKickedOff()
	})
	if err != nil {
		p.logger.DebugContext(ctx, "live poll skipped, pool busy", "league", league)
	}
}

// lockKickedOff moves open predictions to LOCKED for every fixture
// that is now in play or finished.
func (p *LivePoller) lockKickedOff() {
	state := p.store.State()

	started := make(map[int64]bool, len(state.Matches.Live))
	for _, fixture := range state.Matches.Live {
		if match.IsLiveStatus(fixture.Status) || match.IsFinishedStatus(fixture.Status) {
			started[fixture.FixtureID] = true
		}
	}
	if len(started) == 0 {
		return
	}

	for _, item := range state.Predictions.Items {
		if !started[item.FixtureID] {
			continue
		}
		switch prediction.NormalizeStatus(item.Status) {
		case prediction.StatusEditable, prediction.StatusSubmitted:
			p.predictions.applyStatus(item.ID, prediction.StatusLocked)
		}
	}
}
