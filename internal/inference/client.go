package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/example/image-predict/internal/logging"
)

// Result is the classifier's answer. Missing fields in the server response
// decode to zero values; callers render defaults for those.
type Result struct {
	Label      string  `json:"predicted_label"`
	Confidence float64 `json:"confidence"`
}

// Client exposes the subset of the inference service used by the workflow.
type Client interface {
	Predict(ctx context.Context, image []byte, filename, correctLabel string) (*Result, error)
}

// HTTPClient talks to the inference service over its multipart HTTP contract:
// field "image" carries the binary, and "correct_label", when present, opts
// the request in as a labeled training sample.
type HTTPClient struct {
	httpClient *http.Client
	url        string
	logger     *zap.Logger
}

// NewHTTPClient builds a client for the inference endpoint.
func NewHTTPClient(url string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		httpClient: &http.Client{Timeout: timeout},
		url:        url,
		logger:     logger.Named("inference_client"),
	}
}

// Predict performs one POST to the inference endpoint. No retries; every
// retry is a fresh user action.
func (c *HTTPClient) Predict(ctx context.Context, image []byte, filename, correctLabel string) (*Result, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(image)); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}

	if correctLabel != "" {
		if err := writer.WriteField("correct_label", correctLabel); err != nil {
			return nil, fmt.Errorf("write correct_label: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, logging.NewOperationError("inference.predict", "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inference failed: status %d: %s", resp.StatusCode, string(excerpt))
	}

	// A body that is not the expected JSON shape is tolerated: the workflow
	// degrades to its display defaults instead of failing the submission.
	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.logger.Warn("malformed inference response", zap.Error(err))
		return &Result{}, nil
	}

	return &result, nil
}
