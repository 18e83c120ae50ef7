package usecase

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/kickpool/kickpool-go/internal/apperror"
	"github.com/kickpool/kickpool-go/internal/coordinator"
	"github.com/kickpool/kickpool-go/internal/domain/prediction"
	"github.com/kickpool/kickpool-go/internal/platform/logging"
	"github.com/kickpool/kickpool-go/internal/store"
)

// PredictionService manages score picks. Status moves forward only
// (EDITABLE, SUBMITTED, LOCKED, PROCESSED); an explicit reset is the
// one sanctioned way back to EDITABLE.
type PredictionService struct {
	api      Backend
	auth     Reauther
	coord    *coordinator.Coordinator
	store    *store.Store
	notifier *store.Notifier
	validate *validator.Validate
	logger   *logging.Logger
}

func NewPredictionService(api Backend, auth Reauther, coord *coordinator.Coordinator, st *store.Store, notifier *store.Notifier, validate *validator.Validate, logger *logging.Logger) *PredictionService {
	if logger == nil {
		logger = logging.Default()
	}
	return &PredictionService{
		api:      api,
		auth:     auth,
		coord:    coord,
		store:    st,
		notifier: notifier,
		validate: validate,
		logger:   logger,
	}
}

func predictionsKey(groupID string) string {
	return coordinator.Key("/predictions", map[string]string{"groupId": groupID})
}

// FetchPredictions loads the user's picks for one group.
func (s *PredictionService) FetchPredictions(ctx context.Context, groupID string) error {
	ctx, span := startSpan(ctx, "prediction.FetchPredictions")
	defer span.End()

	if groupID == "" {
		return apperror.Validation("group id is required", nil)
	}

	s.store.Dispatch(store.SetPredictionsLoading{Loading: true})

	params := map[string]string{"groupId": groupID}
	value, err := s.coord.GetOrFetch(ctx, predictionsKey(groupID), func(ctx context.Context) (any, error) {
		var items []prediction.Prediction
		callErr := s.auth.Authenticated(ctx, func(ctx context.Context) error {
			return s.api.Get(ctx, "/predictions", queryFromParams(params), &items)
		})
		if callErr != nil {
			return nil, callErr
		}
		return items, nil
	})
	if err != nil {
		s.store.Dispatch(store.SetPredictions{Items: []prediction.Prediction{}})
		s.store.Dispatch(store.SetPredictionsError{Message: apperror.UserMessage(err)})
		return fmt.Errorf("fetch predictions: %w", err)
	}

	s.store.Dispatch(store.SetPredictions{Items: value.([]prediction.Prediction)})
	return nil
}

func (s *PredictionService) CreatePrediction(ctx context.Context, input prediction.CreateInput) (*prediction.Prediction, error) {
	ctx, span := startSpan(ctx, "prediction.CreatePrediction")
	defer span.End()

	if err := validateInput(s.validate, input); err != nil {
		s.notifier.Error(apperror.UserMessage(err))
		return nil, err
	}

	var created prediction.Prediction
	err := s.auth.Authenticated(ctx, func(ctx context.Context) error {
		return s.api.Post(ctx, "/predictions", input, &created)
	})
	if err != nil {
		s.store.Dispatch(store.SetPredictionsError{Message: apperror.UserMessage(err)})
		s.notifier.Error(apperror.UserMessage(err))
		return nil, fmt.Errorf("create prediction: %w", err)
	}

	s.coord.Invalidate(predictionsKey(input.GroupID))
	s.store.Dispatch(store.UpsertPrediction{Item: created})
	s.notifier.Success("Prediction saved.")
	return &created, nil
}

// UpdatePrediction changes the scores of a pick that is still open.
// Picks past EDITABLE are refused locally before any network call.
func (s *PredictionService) UpdatePrediction(ctx context.Context, predictionID string, input prediction.UpdateInput) error {
	ctx, span := startSpan(ctx, "prediction.UpdatePrediction")
	defer span.End()

	if predictionID == "" {
		return apperror.Validation("prediction id is required", nil)
	}
	if err := validateInput(s.validate, input); err != nil {
		s.notifier.Error(apperror.UserMessage(err))
		return err
	}

	existing := s.find(predictionID)
	if existing != nil && prediction.NormalizeStatus(existing.Status) != prediction.StatusEditable {
		err := apperror.Validation("prediction can no longer be edited", nil)
		s.notifier.Error(apperror.UserMessage(err))
		return err
	}

	var updated prediction.Prediction
	err := s.auth.Authenticated(ctx, func(ctx context.Context) error {
		return s.api.Put(ctx, "/predictions/"+predictionID, input, &updated)
	})
	if err != nil {
		s.store.Dispatch(store.SetPredictionsError{Message: apperror.UserMessage(err)})
		s.notifier.Error(apperror.UserMessage(err))
		return fmt.Errorf("update prediction: %w", err)
	}

	s.coord.Invalidate(predictionsKey(updated.GroupID))
	s.store.Dispatch(store.UpsertPrediction{Item: updated})
	s.notifier.Success("Prediction updated.")
	return nil
}

// SubmitBatch submits every still-editable pick for a group in one
// call. Each item is validated first; one bad item fails the batch
// before anything goes on the wire.
func (s *PredictionService) SubmitBatch(ctx context.Context, groupID string, inputs []prediction.CreateInput) error {
	ctx, span := startSpan(ctx, "prediction.SubmitBatch")
	defer span.End()

	if groupID == "" {
		return apperror.Validation("group id is required", nil)
	}
	if len(inputs) == 0 {
		return apperror.Validation("no predictions to submit", nil)
	}
	for i, input := range inputs {
		if err := validateInput(s.validate, input); err != nil {
			s.notifier.Error(fmt.Sprintf("Prediction %d: %s", i+1, apperror.UserMessage(err)))
			return err
		}
	}

	payload := struct {
		GroupID     string                   `json:"groupId"`
		Predictions []prediction.CreateInput `json:"predictions"`
	}{GroupID: groupID, Predictions: inputs}

	var submitted []prediction.Prediction
	err := s.auth.Authenticated(ctx, func(ctx context.Context) error {
		return s.api.Post(ctx, "/predictions/batch", payload, &submitted)
	})
	if err != nil {
		s.store.Dispatch(store.SetPredictionsError{Message: apperror.UserMessage(err)})
		s.notifier.Error(apperror.UserMessage(err))
		return fmt.Errorf("submit predictions: %w", err)
	}

	s.coord.Invalidate(predictionsKey(groupID))
	for _, item := range submitted {
		s.store.Dispatch(store.UpsertPrediction{Item: item})
	}
	s.notifier.Success(strconv.Itoa(len(submitted)) + " predictions submitted.")
	return nil
}

// ResetPrediction returns a pick to EDITABLE and drops its points.
func (s *PredictionService) ResetPrediction(ctx context.Context, predictionID string) error {
	ctx, span := startSpan(ctx, "prediction.ResetPrediction")
	defer span.End()

	if predictionID == "" {
		return apperror.Validation("prediction id is required", nil)
	}

	var reset prediction.Prediction
	err := s.auth.Authenticated(ctx, func(ctx context.Context) error {
		return s.api.Post(ctx, "/predictions/reset/"+predictionID, nil, &reset)
	})
	if err != nil {
		s.notifier.Error(apperror.UserMessage(err))
		return fmt.Errorf("reset prediction: %w", err)
	}

	reset.Status = prediction.StatusEditable
	reset.Points = nil
	s.coord.Invalidate(predictionsKey(reset.GroupID))
	s.store.Dispatch(store.UpsertPrediction{Item: reset})
	s.notifier.Info("Prediction reopened for editing.")
	return nil
}

// applyStatus merges a server-pushed status change, refusing backward
// transitions other than an explicit reset.
func (s *PredictionService) applyStatus(predictionID, status string) bool {
	existing := s.find(predictionID)
	if existing == nil {
		return false
	}
	if !prediction.CanAdvance(existing.Status, status) {
		s.logger.Warn("ignoring backward prediction status change",
			"predictionId", predictionID,
			"from", existing.Status,
			"to", status,
		)
		return false
	}

	next := *existing
	next.Status = prediction.NormalizeStatus(status)
	s.store.Dispatch(store.UpsertPrediction{Item: next})
	return true
}

func (s *PredictionService) find(predictionID string) *prediction.Prediction {
	items := s.store.State().Predictions.Items
	for i := range items {
		if items[i].ID == predictionID {
			found := items[i]
			return &found
		}
	}
	return nil
}
