package usecase

import "context"

// MetricsSummary represents aggregated prediction insights.
type MetricsSummary struct {
	TotalPredictions   int64   `json:"total_predictions"`
	LabeledSubmissions int64   `json:"labeled_submissions"`
	LabeledShare       float64 `json:"labeled_share"`
	AverageConfidence  float64 `json:"average_confidence"`
}

// GetMetricsSummary aggregates prediction metrics from persisted logs.
func (uc *WorkflowUseCase) GetMetricsSummary(ctx context.Context) (*MetricsSummary, error) {
	if uc.repo == nil {
		return &MetricsSummary{}, nil
	}

	aggregation, err := uc.repo.AggregateMetrics(ctx)
	if err != nil {
		return nil, err
	}

	summary := &MetricsSummary{
		TotalPredictions:   aggregation.TotalCount,
		LabeledSubmissions: aggregation.LabeledCount,
		AverageConfidence:  aggregation.AverageConfidence,
	}

	if aggregation.TotalCount > 0 {
		summary.LabeledShare = float64(aggregation.LabeledCount) / float64(aggregation.TotalCount)
	}

	return summary, nil
}
