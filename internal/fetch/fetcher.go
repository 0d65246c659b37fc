package fetch

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/example/image-predict/internal/validation"
)

// Link-sourced candidates get a fixed synthetic filename; the remote path is
// not trusted to carry one.
const syntheticFilename = "linked-image"

// Fetcher retrieves a user-supplied URL and turns the response into a
// candidate image for the shared validator. Type and size are only knowable
// once the bytes arrive, so this channel always pays one network round trip.
type Fetcher struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewFetcher builds a fetcher with the given per-request timeout.
func NewFetcher(timeout time.Duration, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("link_fetcher"),
	}
}

// Fetch performs the GET and applies the acceptance policy. Transport errors
// and non-2xx statuses reject with fetch-failed; a non-image content type
// rejects even when the transport succeeded. Everything else goes through
// the same validator the file channel uses.
func (f *Fetcher) Fetch(ctx context.Context, url string) validation.Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return validation.Reject(validation.ReasonFetchFail)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		f.logger.Warn("link fetch failed", zap.String("url", url), zap.Error(err))
		return validation.Reject(validation.ReasonFetchFail)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		f.logger.Warn("link fetch returned non-success status",
			zap.String("url", url), zap.Int("status", resp.StatusCode))
		return validation.Reject(validation.ReasonFetchFail)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return validation.Reject(validation.ReasonNotAnImage)
	}

	// Read at most one byte past the limit so an oversized body is rejected
	// by the validator without buffering it whole.
	data, err := io.ReadAll(io.LimitReader(resp.Body, validation.MaxSizeBytes+1))
	if err != nil {
		f.logger.Warn("link body read failed", zap.String("url", url), zap.Error(err))
		return validation.Reject(validation.ReasonFetchFail)
	}

	// An image content type with no bytes behind it is a transfer problem,
	// not a missing upload; keep the error phrased for this channel.
	if len(data) == 0 {
		f.logger.Warn("link returned empty body", zap.String("url", url))
		return validation.Reject(validation.ReasonFetchFail)
	}

	return validation.Validate(&validation.CandidateImage{
		Bytes:        data,
		Filename:     syntheticFilename,
		DeclaredType: contentType,
		DeclaredSize: int64(len(data)),
		Source:       validation.SourceLink,
	})
}
