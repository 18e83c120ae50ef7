package app

import (
	"github.com/go-playground/validator/v10"

	"github.com/kickpool/kickpool-go/internal/config"
	"github.com/kickpool/kickpool-go/internal/coordinator"
	"github.com/kickpool/kickpool-go/internal/platform/logging"
	"github.com/kickpool/kickpool-go/internal/platform/resilience"
	"github.com/kickpool/kickpool-go/internal/season"
	"github.com/kickpool/kickpool-go/internal/session"
	"github.com/kickpool/kickpool-go/internal/store"
	"github.com/kickpool/kickpool-go/internal/transport"
	"github.com/kickpool/kickpool-go/internal/usecase"
)

// Client is the assembled SDK: one store, one session, one request
// coordinator, and the services wired on top of them.
type Client struct {
	Store    *store.Store
	Notifier *store.Notifier
	Sessions *session.Manager
	Seasons  *season.Engine

	Auth         *usecase.AuthService
	Users        *usecase.UserService
	Groups       *usecase.GroupService
	Matches      *usecase.MatchService
	Predictions  *usecase.PredictionService
	Leaderboards *usecase.LeaderboardService
	Poller       *usecase.LivePoller

	logger *logging.Logger
}

func New(cfg config.Config, logger *logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.Default()
	}

	st := store.New(logger)
	notifier := store.NewNotifier(st, nil, logger)
	seasons := season.NewEngine()
	validate := validator.New()

	tokens, err := session.NewFileTokenStore(cfg.TokenDir)
	if err != nil {
		return nil, err
	}

	// Manager and transport reference each other: the transport reads
	// the bearer token, the manager issues calls through the transport.
	// The TokenSource closure breaks the cycle.
	var sessions *session.Manager
	api := transport.NewClient(transport.ClientConfig{
		BaseURL:     cfg.APIBaseURL,
		Timeout:     cfg.APITimeout,
		MaxRetries:  cfg.APIMaxRetries,
		TokenSource: func() string {
			if sessions == nil {
				return ""
			}
			return sessions.Token()
		},
		Logger:      logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.CircuitEnabled,
			FailureThreshold: cfg.CircuitFailureCount,
			OpenTimeout:      cfg.CircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.CircuitHalfOpenMaxReq,
		},
	})
	sessions = session.NewManager(api, tokens, st, logger)

	coord := coordinator.New(cfg.CacheTTL, logger)

	auth := usecase.NewAuthService(sessions, st, notifier, validate, logger)
	users := usecase.NewUserService(api, sessions, coord, st, notifier, validate, logger)
	groups := usecase.NewGroupService(api, sessions, coord, st, notifier, seasons, validate, logger)
	matches := usecase.NewMatchService(api, coord, st, cfg.LiveCallFloor, logger)
	predictions := usecase.NewPredictionService(api, sessions, coord, st, notifier, validate, logger)
	leaderboards := usecase.NewLeaderboardService(api, sessions, coord, st, logger)

	poller, err := usecase.NewLivePoller(matches, predictions, st, cfg.LivePollInterval, logger)
	if err != nil {
		return nil, err
	}

	return &Client{
		Store:        st,
		Notifier:     notifier,
		Sessions:     sessions,
		Seasons:      seasons,
		Auth:         auth,
		Users:        users,
		Groups:       groups,
		Matches:      matches,
		Predictions:  predictions,
		Leaderboards: leaderboards,
		Poller:       poller,
		logger:       logger,
	}, nil
}

// Close releases background resources. The store itself needs no
// teardown.
func (c *Client) Close() {
	if c.Poller != nil {
		c.Poller.Release()
	}
}
