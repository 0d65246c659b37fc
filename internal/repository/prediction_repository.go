package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/image-predict/internal/logging"
)

// PredictionLog is one persisted prediction submission.
type PredictionLog struct {
	ID             uint      `gorm:"primaryKey"`
	SessionID      string    `gorm:"column:session_id;index;size:64"`
	UserID         string    `gorm:"column:user_id;index;size:64"`
	SourceKind     string    `gorm:"column:source_kind;size:16"`
	DeclaredLabel  string    `gorm:"column:declared_label;size:32"`
	PredictedLabel string    `gorm:"column:predicted_label;size:32"`
	Confidence     float64   `gorm:"column:confidence"`
	SHA1Hash       string    `gorm:"column:sha1_hash;index;size:40"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

// TableName overrides the default table name.
func (PredictionLog) TableName() string {
	return "prediction_logs"
}

// PredictionRepository provides persistence APIs for prediction logs.
type PredictionRepository struct {
	db             *gorm.DB
	logger         *zap.Logger
	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewPredictionRepository creates a new repository instance.
func NewPredictionRepository(db *gorm.DB, logger *zap.Logger) *PredictionRepository {
	return &PredictionRepository{
		db:             db,
		logger:         logger.Named("prediction_repository"),
		retryAttempts:  3,
		initialBackoff: 50 * time.Millisecond,
		maxBackoff:     time.Second,
	}
}

// AutoMigrate ensures the schema is available.
func (r *PredictionRepository) AutoMigrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&PredictionLog{})
}

// SaveLog persists a prediction log entry.
func (r *PredictionRepository) SaveLog(ctx context.Context, log *PredictionLog) error {
	return r.executeWithRetry(ctx, "repository.save_log", log.SessionID, func() error {
		return r.db.WithContext(ctx).Create(log).Error
	})
}

// ListRecentByUser returns the newest prediction logs for a user.
func (r *PredictionRepository) ListRecentByUser(ctx context.Context, userID string, limit int) ([]*PredictionLog, error) {
	if limit <= 0 {
		limit = 20
	}
	var logs []*PredictionLog
	err := r.executeWithRetry(ctx, "repository.list_recent", "", func() error {
		return r.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("created_at DESC").
			Limit(limit).
			Find(&logs).Error
	})
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// MetricsAggregation is the raw aggregate over all prediction logs.
type MetricsAggregation struct {
	TotalCount        int64   `gorm:"column:total_count"`
	LabeledCount      int64   `gorm:"column:labeled_count"`
	AverageConfidence float64 `gorm:"column:average_confidence"`
}

// AggregateMetrics computes prediction statistics in the database.
func (r *PredictionRepository) AggregateMetrics(ctx context.Context) (*MetricsAggregation, error) {
	var agg MetricsAggregation
	err := r.executeWithRetry(ctx, "repository.aggregate_metrics", "", func() error {
		return r.db.WithContext(ctx).
			Model(&PredictionLog{}).
			Select("COUNT(*) AS total_count, " +
				"COUNT(*) FILTER (WHERE declared_label <> '') AS labeled_count, " +
				"COALESCE(AVG(confidence), 0) AS average_confidence").
			Scan(&agg).Error
	})
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

func (r *PredictionRepository) executeWithRetry(ctx context.Context, operation, sessionID string, fn func() error) error {
	if r.retryAttempts <= 1 {
		return logging.NewOperationError(operation, sessionID, fn())
	}

	backoff := r.initialBackoff
	opLogger := logging.WithOperation(r.logger, operation, sessionID)
	var err error
	for attempt := 0; attempt < r.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewOperationError(operation, sessionID, ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= r.maxBackoff {
				backoff = next
			}
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				opLogger.Info("database operation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}

		if !isTransientError(err) || attempt == r.retryAttempts-1 {
			opLogger.Error("database operation failed", zap.Error(err), zap.Int("attempt", attempt+1))
			return logging.NewOperationError(operation, sessionID, err)
		}

		opLogger.Warn("transient database error", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	return logging.NewOperationError(operation, sessionID, err)
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var temporary interface{ Temporary() bool }
	if errors.As(err, &temporary) && temporary.Temporary() {
		return true
	}

	return false
}
