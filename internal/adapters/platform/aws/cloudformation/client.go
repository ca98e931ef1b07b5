package cloudformation

import (
	"time"

	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/better-aws/internal/core/ports"
)

const (
	DefaultWaitTimeout  = time.Hour
	DefaultWaitMinDelay = 30 * time.Second
	DefaultWaitMaxDelay = 120 * time.Second
)

// ChangeSetNaming selects how change set names are derived.
type ChangeSetNaming string

const (
	// NamingHash derives the name from the template, parameters and
	// capabilities, so a retried deploy reuses the same change set.
	NamingHash ChangeSetNaming = "hash"
	// NamingTimestamp names every change set change-<unix nanos>.
	NamingTimestamp ChangeSetNaming = "timestamp"
)

// Client reconciles CloudFormation stacks against desired definitions.
type Client struct {
	api      CloudFormationAPI
	logger   ports.Logger
	region   string
	limiter  shared.RateLimiter
	recorder shared.Recorder

	waitTimeout  time.Duration
	waitMinDelay time.Duration
	waitMaxDelay time.Duration
	pageDelay    time.Duration
	naming       ChangeSetNaming
	now          func() time.Time
}

type Option func(*Client)

func WithRegion(region string) Option {
	return func(c *Client) { c.region = region }
}

// WithWaitTimeout bounds each SDK waiter call.
func WithWaitTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.waitTimeout = d
		}
	}
}

// WithWaitDelay sets the waiter polling back-off range.
func WithWaitDelay(minDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		if minDelay > 0 {
			c.waitMinDelay = minDelay
		}
		if maxDelay > 0 {
			c.waitMaxDelay = maxDelay
		}
		if c.waitMaxDelay < c.waitMinDelay {
			c.waitMaxDelay = c.waitMinDelay
		}
	}
}

func WithChangeSetNaming(n ChangeSetNaming) Option {
	return func(c *Client) {
		if n != "" {
			c.naming = n
		}
	}
}

func WithRateLimiter(l shared.RateLimiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithPageDelay sleeps between pages of list operations.
func WithPageDelay(d time.Duration) Option {
	return func(c *Client) { c.pageDelay = d }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

func WithMetrics(r shared.Recorder) Option {
	return func(c *Client) {
		if r != nil {
			c.recorder = r
		}
	}
}

func NewClient(api CloudFormationAPI, logger ports.Logger, opts ...Option) *Client {
	c := &Client{
		api:          api,
		logger:       logger,
		recorder:     shared.NopRecorder{},
		waitTimeout:  DefaultWaitTimeout,
		waitMinDelay: DefaultWaitMinDelay,
		waitMaxDelay: DefaultWaitMaxDelay,
		naming:       NamingHash,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
