package usecase

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/kickpool/kickpool-go/internal/apperror"
	"github.com/kickpool/kickpool-go/internal/coordinator"
	"github.com/kickpool/kickpool-go/internal/domain/user"
	"github.com/kickpool/kickpool-go/internal/platform/logging"
	"github.com/kickpool/kickpool-go/internal/store"
)

// UserService loads and edits the signed-in user's profile and stats.
type UserService struct {
	api      Backend
	auth     Reauther
	coord    *coordinator.Coordinator
	store    *store.Store
	notifier *store.Notifier
	validate *validator.Validate
	logger   *logging.Logger
}

func NewUserService(api Backend, auth Reauther, coord *coordinator.Coordinator, st *store.Store, notifier *store.Notifier, validate *validator.Validate, logger *logging.Logger) *UserService {
	if logger == nil {
		logger = logging.Default()
	}
	return &UserService{
		api:      api,
		auth:     auth,
		coord:    coord,
		store:    st,
		notifier: notifier,
		validate: validate,
		logger:   logger,
	}
}

func (s *UserService) FetchProfile(ctx context.Context) error {
	ctx, span := startSpan(ctx, "user.FetchProfile")
	defer span.End()

	s.store.Dispatch(store.SetUserLoading{Loading: true})

	value, err := s.coord.GetOrFetch(ctx, coordinator.Key("/users/profile", nil), func(ctx context.Context) (any, error) {
		var profile user.Profile
		callErr := s.auth.Authenticated(ctx, func(ctx context.Context) error {
			return s.api.Get(ctx, "/users/profile", nil, &profile)
		})
		if callErr != nil {
			return nil, callErr
		}
		return &profile, nil
	})
	if err != nil {
		s.store.Dispatch(store.SetUserError{Message: apperror.UserMessage(err)})
		return fmt.Errorf("fetch profile: %w", err)
	}

	s.store.Dispatch(store.SetUserProfile{Profile: value.(*user.Profile)})
	return nil
}

func (s *UserService) UpdateProfile(ctx context.Context, input user.ProfileUpdate) error {
	ctx, span := startSpan(ctx, "user.UpdateProfile")
	defer span.End()

	if err := validateInput(s.validate, input); err != nil {
		s.notifier.Error(apperror.UserMessage(err))
		return err
	}

	var updated user.Profile
	err := s.auth.Authenticated(ctx, func(ctx context.Context) error {
		return s.api.Put(ctx, "/users/profile", input, &updated)
	})
	if err != nil {
		s.store.Dispatch(store.SetUserError{Message: apperror.UserMessage(err)})
		s.notifier.Error(apperror.UserMessage(err))
		return fmt.Errorf("update profile: %w", err)
	}

	s.coord.Invalidate(coordinator.Key("/users/profile", nil))
	s.store.Dispatch(store.SetUserProfile{Profile: &updated})
	s.notifier.Success("Profile updated.")
	return nil
}

func (s *UserService) FetchStats(ctx context.Context) error {
	ctx, span := startSpan(ctx, "user.FetchStats")
	defer span.End()

	s.store.Dispatch(store.SetUserLoading{Loading: true})

	value, err := s.coord.GetOrFetch(ctx, coordinator.Key("/users/stats", nil), func(ctx context.Context) (any, error) {
		var stats user.Stats
		callErr := s.auth.Authenticated(ctx, func(ctx context.Context) error {
			return s.api.Get(ctx, "/users/stats", nil, &stats)
		})
		if callErr != nil {
			return nil, callErr
		}
		return &stats, nil
	})
	if err != nil {
		s.store.Dispatch(store.SetUserError{Message: apperror.UserMessage(err)})
		return fmt.Errorf("fetch stats: %w", err)
	}

	s.store.Dispatch(store.SetUserStats{Stats: value.(*user.Stats)})
	return nil
}
