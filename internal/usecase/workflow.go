package usecase

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/example/image-predict/internal/inference"
	"github.com/example/image-predict/internal/logging"
	"github.com/example/image-predict/internal/repository"
	"github.com/example/image-predict/internal/validation"
	"github.com/example/image-predict/internal/workflow"
)

// ErrLinkRequired is returned when the link channel is triggered with an
// empty URL. No workflow state changes in that case.
var ErrLinkRequired = errors.New("link required")

// ErrNoImageSelected is returned when prediction is requested before any
// image has been accepted. Checked before any network I/O.
var ErrNoImageSelected = errors.New("no image selected")

// LinkFetcher retrieves a remote URL and validates the response as a
// candidate image.
type LinkFetcher interface {
	Fetch(ctx context.Context, url string) validation.Outcome
}

// PredictionRepository defines the persistence operations needed by the flow.
type PredictionRepository interface {
	SaveLog(ctx context.Context, log *repository.PredictionLog) error
	ListRecentByUser(ctx context.Context, userID string, limit int) ([]*repository.PredictionLog, error)
	AggregateMetrics(ctx context.Context) (*repository.MetricsAggregation, error)
}

// WorkflowUseCase drives the image acquisition and prediction workflow. All
// state mutation funnels through the two channel methods and Predict; the
// handlers never write workflow state directly.
type WorkflowUseCase struct {
	sessions  *workflow.Store
	fetcher   LinkFetcher
	predictor inference.Client
	repo      PredictionRepository
	cache     Cache
	observer  workflow.Observer
	logger    *zap.Logger
}

type cachedPrediction struct {
	Label      string  `json:"predicted_label"`
	Confidence float64 `json:"confidence"`
}

// NewWorkflowUseCase constructs a new use case instance. Repo and cache may
// be nil; history persistence and result caching are then skipped.
func NewWorkflowUseCase(
	sessions *workflow.Store,
	fetcher LinkFetcher,
	predictor inference.Client,
	repo PredictionRepository,
	cache Cache,
	observer workflow.Observer,
	logger *zap.Logger,
) *WorkflowUseCase {
	if observer == nil {
		observer = workflow.NopObserver{}
	}
	return &WorkflowUseCase{
		sessions:  sessions,
		fetcher:   fetcher,
		predictor: predictor,
		repo:      repo,
		cache:     cache,
		observer:  observer,
		logger:    logger.Named("workflow_usecase"),
	}
}

// CreateSession starts a fresh workflow.
func (uc *WorkflowUseCase) CreateSession() *workflow.Session {
	return uc.sessions.Create()
}

// Session looks up a live workflow session.
func (uc *WorkflowUseCase) Session(id string) (*workflow.Session, bool) {
	return uc.sessions.Get(id)
}

// Teardown ends a session and releases its resources.
func (uc *WorkflowUseCase) Teardown(id string) bool {
	return uc.sessions.Remove(id)
}

// AttachFile runs the file channel: validate the dropped file and either
// promote it or record the rejection.
func (uc *WorkflowUseCase) AttachFile(session *workflow.Session, candidate *validation.CandidateImage) workflow.Snapshot {
	out := validation.Validate(candidate)
	if !out.Accepted() {
		message := validation.Message(out.Reason)
		session.RejectCandidate(message)
		uc.observer.ValidationError(session.ID(), message)
		return session.Snapshot()
	}

	session.AcceptFile(out.Candidate)
	return session.Snapshot()
}

// AttachLink runs the link channel: fetch the URL, validate the response,
// and either promote it or record the rejection. An empty URL changes
// nothing and returns ErrLinkRequired.
func (uc *WorkflowUseCase) AttachLink(ctx context.Context, session *workflow.Session, url string) (workflow.Snapshot, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		uc.observer.ValidationError(session.ID(), "link required")
		return session.Snapshot(), ErrLinkRequired
	}

	out := uc.fetcher.Fetch(ctx, url)
	if !out.Accepted() {
		message := validation.Message(out.Reason)
		session.RejectCandidate(message)
		uc.observer.ValidationError(session.ID(), message)
		return session.Snapshot(), nil
	}

	session.AcceptLink(out.Candidate, url)
	return session.Snapshot(), nil
}

// Predict submits the accepted image to the inference service. One attempt
// per call; concurrent calls on a session are not serialized and the last
// response to finish wins. Failures leave the prior prediction visible.
func (uc *WorkflowUseCase) Predict(ctx context.Context, session *workflow.Session, userID string) (workflow.Snapshot, error) {
	sessionID := session.ID()
	opLogger := logging.WithOperation(uc.logger, "usecase.predict", sessionID)

	image, label := session.Image()
	if image == nil {
		session.ApplyFailure("no image selected")
		uc.observer.SubmissionFailed(sessionID, "no image selected")
		return session.Snapshot(), ErrNoImageSelected
	}

	hash := sha1.Sum(image.Bytes)
	hashHex := hex.EncodeToString(hash[:])
	cacheKey := fmt.Sprintf("prediction:%s", hashHex)

	// Labeled submissions contribute training samples, so only unlabeled
	// requests may be answered from the cache.
	if label == "" && uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, cacheKey); err == nil {
			var payload cachedPrediction
			if err := json.Unmarshal([]byte(cached), &payload); err != nil {
				opLogger.Warn("failed to decode cached prediction", zap.Error(err))
			} else {
				result := workflow.Prediction{Label: payload.Label, Confidence: payload.Confidence}
				uc.observer.SubmissionStarted(sessionID)
				session.ApplyPrediction(result)
				uc.observer.SubmissionSucceeded(sessionID, result)
				return session.Snapshot(), nil
			}
		} else if !errors.Is(err, redis.Nil) {
			opLogger.Warn("failed to read prediction cache", zap.Error(err))
		}
	}

	uc.observer.SubmissionStarted(sessionID)

	resp, err := uc.predictor.Predict(ctx, image.Bytes, image.Filename, label)
	if err != nil {
		wrapped := logging.NewOperationError("usecase.predict_submit", sessionID, err)
		opLogger.Error("prediction submission failed", zap.Error(wrapped))
		session.ApplyFailure("prediction failed")
		uc.observer.SubmissionFailed(sessionID, "prediction failed")
		return session.Snapshot(), wrapped
	}

	result := workflow.Prediction{Label: resp.Label, Confidence: resp.Confidence}
	session.ApplyPrediction(result)
	uc.observer.SubmissionSucceeded(sessionID, result)

	if label == "" && uc.cache != nil {
		serialized, err := json.Marshal(cachedPrediction{Label: result.Label, Confidence: result.Confidence})
		if err == nil {
			if err := uc.cache.Set(ctx, cacheKey, string(serialized), 5*time.Minute); err != nil {
				opLogger.Warn("failed to cache prediction", zap.Error(err))
			}
		}
	}

	if uc.repo != nil {
		log := &repository.PredictionLog{
			SessionID:      sessionID,
			UserID:         userID,
			SourceKind:     string(image.Source),
			DeclaredLabel:  label,
			PredictedLabel: result.Label,
			Confidence:     result.Confidence,
			SHA1Hash:       hashHex,
			CreatedAt:      time.Now().UTC(),
		}
		if err := uc.repo.SaveLog(ctx, log); err != nil {
			opLogger.Warn("failed to persist prediction log", zap.Error(err))
		}
	}

	return session.Snapshot(), nil
}

// History lists the user's recent prediction logs.
func (uc *WorkflowUseCase) History(ctx context.Context, userID string, limit int) ([]*repository.PredictionLog, error) {
	if uc.repo == nil {
		return nil, nil
	}
	return uc.repo.ListRecentByUser(ctx, userID, limit)
}
