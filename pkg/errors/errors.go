package errors

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

var (
	// ErrInvalidImage is returned when an image cannot be decoded or has no
	// usable pixels. Compliance treats the affected asset as failed, not the run.
	ErrInvalidImage = errors.New("invalid image")
	// ErrConfiguration is returned for malformed briefs, brand specs, or
	// prohibited-term tables. Fatal to the campaign run.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrCampaignBlocked is returned when the campaign message fails legal
	// screening with ERROR severity; the run must stop before generation.
	ErrCampaignBlocked = errors.New("campaign blocked by legal screening")
	// ErrGenerationFailed is returned when the generation API exhausts retries.
	ErrGenerationFailed = errors.New("generation request failed")
	// ErrAssetUnavailable is returned when a product asset can be neither
	// found on disk nor generated.
	ErrAssetUnavailable = errors.New("product asset unavailable")
	// ErrUploadFailed is returned when object storage rejects an upload.
	ErrUploadFailed = errors.New("upload failed")
)

// New creates a new error with the given message.
func New(msg string) error {
	return errors.New(msg)
}

// Wrap wraps an error with additional context while preserving errors.Is
// matching against the wrapped error.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &wrapped{msg: msg, err: err}
}

type wrapped struct {
	msg string
	err error
}

func (w *wrapped) Error() string { return w.msg + ": " + w.err.Error() }
func (w *wrapped) Unwrap() error { return w.err }

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// LogWithError logs the error with context and returns a wrapped error. Use
// this for standardized error logging across pipeline stages.
func LogWithError(ctx context.Context, log *zap.Logger, msg string, err error, fields ...zap.Field) error {
	if log != nil {
		if ctx != nil {
			if runID, ok := ctx.Value(runIDKey).(string); ok && runID != "" {
				fields = append(fields, zap.String("run_id", runID))
			}
		}
		log.Error(msg, append(fields, zap.Error(err))...)
	}
	return Wrap(err, msg)
}

type contextKey string

const runIDKey = contextKey("run_id")

// WithRunID attaches a pipeline run ID to the context for error logging.
func WithRunID(ctx context.Context, runID string) context.Context {
	if runID == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, runID)
}
