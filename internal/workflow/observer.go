package workflow

import (
	"go.uber.org/zap"
)

// Observer receives fire-and-forget notifications for every workflow
// transition the user should hear about. Implementations must not block.
type Observer interface {
	ValidationError(sessionID, message string)
	SubmissionStarted(sessionID string)
	SubmissionSucceeded(sessionID string, result Prediction)
	SubmissionFailed(sessionID, message string)
}

// NopObserver discards all notifications.
type NopObserver struct{}

func (NopObserver) ValidationError(string, string) {}

func (NopObserver) SubmissionStarted(string) {}

func (NopObserver) SubmissionSucceeded(string, Prediction) {}

func (NopObserver) SubmissionFailed(string, string) {}

// ZapObserver logs workflow notifications through a structured logger.
type ZapObserver struct {
	logger *zap.Logger
}

// NewZapObserver wraps a logger as a workflow observer.
func NewZapObserver(logger *zap.Logger) *ZapObserver {
	return &ZapObserver{logger: logger.Named("workflow_events")}
}

func (o *ZapObserver) ValidationError(sessionID, message string) {
	o.logger.Warn("validation error", zap.String("session_id", sessionID), zap.String("message", message))
}

func (o *ZapObserver) SubmissionStarted(sessionID string) {
	o.logger.Info("submission started", zap.String("session_id", sessionID))
}

func (o *ZapObserver) SubmissionSucceeded(sessionID string, result Prediction) {
	o.logger.Info("submission succeeded",
		zap.String("session_id", sessionID),
		zap.String("predicted_label", result.Label),
		zap.Float64("confidence", result.Confidence))
}

func (o *ZapObserver) SubmissionFailed(sessionID, message string) {
	o.logger.Warn("submission failed", zap.String("session_id", sessionID), zap.String("message", message))
}
