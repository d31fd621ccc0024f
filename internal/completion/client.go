// Package completion defines the text-completion capability consumed by the
// skeleton generator and point dispatcher, plus its Anthropic implementation.
package completion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ShayCichocki/sot/pkg/models"
)

// Client submits a prompt to a text-completion backend.
// Implementations must be safe for concurrent use; each call is
// independently failable and independently cancellable through ctx.
type Client interface {
	Complete(ctx context.Context, prompt string, params Params) (*Response, error)
}

// Params are the per-request generation parameters.
type Params struct {
	// Model overrides the client's configured model when non-empty.
	Model string
	// Temperature is the sampling temperature.
	Temperature float64
	// MaxTokens bounds the generated length.
	MaxTokens int64
	// Timeout bounds the request when positive.
	Timeout time.Duration
}

// Response is the generated text for one request.
type Response struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// Failure is a classified completion error.
type Failure struct {
	Kind    models.ErrorKind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	if f.Message == "" {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// NewFailure returns a Failure of the given kind wrapping err.
func NewFailure(kind models.ErrorKind, err error) *Failure {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &Failure{Kind: kind, Message: msg, Err: err}
}

// KindOf classifies an arbitrary error returned by a Client.
// Context errors map to Timeout and Cancelled; unclassified errors are Transport.
func KindOf(err error) models.ErrorKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.ErrorKindTimeout
	case errors.Is(err, context.Canceled):
		return models.ErrorKindCancelled
	default:
		return models.ErrorKindTransport
	}
}

// Classify converts err into a *Failure, preserving an existing classification.
func Classify(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return NewFailure(KindOf(err), err)
}

// contextFailure classifies a request error against the state of ctx.
// A cancelled or expired context wins over whatever the backend reported.
func contextFailure(ctx context.Context, err error) *Failure {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return NewFailure(models.ErrorKindTimeout, err)
	case errors.Is(ctx.Err(), context.Canceled):
		return NewFailure(models.ErrorKindCancelled, err)
	default:
		return nil
	}
}
