// Package paging drains token-paginated AWS list operations into a single
// response value.
package paging

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/olusolaa/better-aws/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/better-aws/internal/core/ports"
	"github.com/olusolaa/better-aws/internal/errors"
	"github.com/olusolaa/better-aws/internal/log"
	"github.com/olusolaa/better-aws/pkg/reflectutil"
)

const (
	DefaultRequestCursor  = "PageToken"
	DefaultResponseCursor = "NextPageToken"
)

// Call is the shape of every generated SDK v2 operation method.
type Call[In, Out, Opt any] func(ctx context.Context, params *In, optFns ...func(*Opt)) (*Out, error)

type options struct {
	requestCursor  string
	responseCursor string
	delay          time.Duration
	limiter        shared.RateLimiter
	logger         ports.Logger
	recorder       shared.Recorder
	stopOnRepeat   bool
}

type Option func(*options)

// WithCursorFields names the request and response struct fields carrying the
// page token.
func WithCursorFields(request, response string) Option {
	return func(o *options) {
		o.requestCursor = request
		o.responseCursor = response
	}
}

// WithNextToken is shorthand for the NextToken/NextToken convention most AWS
// APIs use.
func WithNextToken() Option {
	return WithCursorFields("NextToken", "NextToken")
}

// WithDelay sleeps d between page requests.
func WithDelay(d time.Duration) Option {
	return func(o *options) { o.delay = d }
}

func WithRateLimiter(l shared.RateLimiter) Option {
	return func(o *options) { o.limiter = l }
}

func WithLogger(l ports.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithRecorder(r shared.Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithStopOnRepeatedCursor ends pagination when the response cursor equals the
// one just sent. CloudWatch Logs forward tokens never become empty.
func WithStopOnRepeatedCursor() Option {
	return func(o *options) { o.stopOnRepeat = true }
}

// Slurp calls op repeatedly, following the page cursor until the provider
// returns none, and accumulates the slice in resultField across all pages.
// The returned value is the last page with resultField replaced by the full
// accumulation. params is copied; the caller's value is never modified.
// Errors from call are returned unchanged and partial results are dropped.
func Slurp[In, Out, Opt any](
	ctx context.Context,
	operation string,
	call Call[In, Out, Opt],
	resultField string,
	params *In,
	opts ...Option,
) (*Out, error) {
	o := options{
		requestCursor:  DefaultRequestCursor,
		responseCursor: DefaultResponseCursor,
		logger:         log.Discard(),
		recorder:       shared.NopRecorder{},
	}
	for _, opt := range opts {
		opt(&o)
	}

	if err := validateFields[In, Out](o, resultField); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, fmt.Sprintf("invalid pagination setup for %s", operation))
	}

	var in In
	if params != nil {
		in = *params
	}
	inV := reflect.ValueOf(&in).Elem()
	reqCursor := inV.FieldByName(o.requestCursor)
	if tok, ok := reflectutil.StringValue(reqCursor); ok && tok != "" {
		return nil, errors.New(errors.CodeInternal,
			fmt.Sprintf("%s: params already carry a %s; pagination must start from the first page", operation, o.requestCursor))
	}

	var (
		acc  reflect.Value
		last *Out
		sent string
	)
	for page := 1; ; page++ {
		if o.limiter != nil {
			if err := o.limiter.Wait(ctx, o.logger); err != nil {
				return nil, err
			}
		}

		out, err := call(ctx, &in)
		if err != nil {
			return nil, err
		}
		if out == nil {
			return nil, errors.New(errors.CodeInternal, fmt.Sprintf("%s: page %d returned no response", operation, page))
		}
		o.recorder.PageFetched(operation)

		outV := reflect.ValueOf(out).Elem()
		items := outV.FieldByName(resultField)
		if !acc.IsValid() {
			acc = reflect.MakeSlice(items.Type(), 0, items.Len())
		}
		acc = reflect.AppendSlice(acc, items)
		last = out
		o.logger.Debugf(ctx, "%s: page %d returned %d items", operation, page, items.Len())

		next, ok := reflectutil.StringValue(outV.FieldByName(o.responseCursor))
		if !ok || next == "" {
			break
		}
		if o.stopOnRepeat && next == sent {
			break
		}
		if err := reflectutil.SetString(reqCursor, next); err != nil {
			return nil, errors.Wrap(err, errors.CodeInternal, fmt.Sprintf("%s: cannot set page cursor", operation))
		}
		sent = next

		if err := Sleep(ctx, o.delay); err != nil {
			return nil, err
		}
	}

	reflect.ValueOf(last).Elem().FieldByName(resultField).Set(acc)
	return last, nil
}

func validateFields[In, Out any](o options, resultField string) error {
	inT := reflect.TypeOf((*In)(nil)).Elem()
	outT := reflect.TypeOf((*Out)(nil)).Elem()

	reqT, err := reflectutil.StructFieldType(inT, o.requestCursor)
	if err != nil {
		return err
	}
	if !reflectutil.IsStringOrStringPtr(reqT) {
		return fmt.Errorf("request cursor %s.%s must be string or *string, got %v", inT.Name(), o.requestCursor, reqT)
	}
	respT, err := reflectutil.StructFieldType(outT, o.responseCursor)
	if err != nil {
		return err
	}
	if !reflectutil.IsStringOrStringPtr(respT) {
		return fmt.Errorf("response cursor %s.%s must be string or *string, got %v", outT.Name(), o.responseCursor, respT)
	}
	resT, err := reflectutil.StructFieldType(outT, resultField)
	if err != nil {
		return err
	}
	if resT.Kind() != reflect.Slice {
		return fmt.Errorf("result field %s.%s must be a slice, got %v", outT.Name(), resultField, resT)
	}
	return nil
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
