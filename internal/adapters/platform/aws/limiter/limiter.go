package limiter

import (
	"context"
	"fmt"
	"sync"

	"github.com/olusolaa/better-aws/internal/core/ports"
	"golang.org/x/time/rate"
)

const (
	defaultRateLimitRPS = 20
	minRateLimitRPS     = 1
	maxRateLimitRPS     = 100
)

var (
	apiLimiter  *rate.Limiter
	limiterOnce sync.Once
	rpsUsed     = defaultRateLimitRPS
)

// Initialize sets up the process-wide AWS API limiter. Only the first call
// has any effect.
func Initialize(rps int, logger ports.Logger) {
	limiterOnce.Do(func() {
		limitValue := clampRPS(rps, logger)
		logMsg := "Initializing global AWS API rate limiter"
		if limitValue == rps {
			logMsg = fmt.Sprintf("%s with configured rate", logMsg)
		} else {
			logMsg = fmt.Sprintf("%s with default rate", logMsg)
		}
		apiLimiter = rate.NewLimiter(rate.Limit(limitValue), limitValue)
		rpsUsed = limitValue
		logger.Infof(nil, "%s: %d RPS", logMsg, limitValue)
	})
}

func clampRPS(rps int, logger ports.Logger) int {
	if rps >= minRateLimitRPS && rps <= maxRateLimitRPS {
		return rps
	}
	if rps != 0 {
		logger.Warnf(nil, "Invalid AWS API RPS configured (%d), using default %d RPS. Valid range: %d-%d.", rps, defaultRateLimitRPS, minRateLimitRPS, maxRateLimitRPS)
	}
	return defaultRateLimitRPS
}

// RPS reports the rate the global limiter was initialized with.
func RPS() int {
	return rpsUsed
}

func Wait(ctx context.Context, logger ports.Logger) error {
	if apiLimiter == nil {
		logger.Debugf(ctx, "AWS API rate limiter accessed before initialization, using default rate")
		Initialize(defaultRateLimitRPS, logger)
	}
	return waitOn(ctx, apiLimiter, logger)
}

func waitOn(ctx context.Context, l *rate.Limiter, logger ports.Logger) error {
	if err := l.Wait(ctx); err != nil {
		if ctx.Err() == nil {
			logger.Warnf(ctx, "Error waiting for AWS API rate limiter: %v", err)
		}
		return err
	}
	return nil
}

// DefaultRateLimiter satisfies shared.RateLimiter using the global limiter.
type DefaultRateLimiter struct{}

func (DefaultRateLimiter) Wait(ctx context.Context, logger ports.Logger) error {
	return Wait(ctx, logger)
}

// Limiter is an independent token bucket, for callers that must not share
// the process-wide budget (tests, per-account fan-out).
type Limiter struct {
	l *rate.Limiter
}

func New(rps int, logger ports.Logger) *Limiter {
	v := clampRPS(rps, logger)
	return &Limiter{l: rate.NewLimiter(rate.Limit(v), v)}
}

func (l *Limiter) Wait(ctx context.Context, logger ports.Logger) error {
	return waitOn(ctx, l.l, logger)
}
