package shared

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/olusolaa/better-aws/internal/core/ports"
)

// RateLimiter defines an interface for rate-limiting AWS API calls.
type RateLimiter interface {
	// Wait blocks until the rate limit allows proceeding, or returns an error.
	// It requires a Logger for potential warnings/errors during the wait.
	Wait(ctx context.Context, logger ports.Logger) error
}

// ErrorHandler defines an interface for handling errors from AWS API calls.
type ErrorHandler interface {
	// Handle processes an error, potentially wrapping or transforming it.
	// Service and operation provide context about where the error occurred.
	Handle(service, operation string, err error, ctx context.Context) error
}

// STSClientInterface defines the method needed from the AWS SDK STS client.
type STSClientInterface interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Recorder receives counters from the service helpers. A nil Recorder is
// never passed to helpers; they default to NopRecorder.
type Recorder interface {
	PageFetched(operation string)
	PollAttempt(operation string)
	Reconciled(outcome string)
}

type NopRecorder struct{}

func (NopRecorder) PageFetched(string) {}
func (NopRecorder) PollAttempt(string) {}
func (NopRecorder) Reconciled(string)  {}
