package quote

import (
	"context"
	"errors"
	"fmt"

	"github.com/trogers1052/metal-price-tracker/internal/logx"
	"github.com/trogers1052/metal-price-tracker/internal/models"
	"github.com/trogers1052/metal-price-tracker/internal/parser"
)

// DefaultMaxAttempts is used when no attempt budget is configured
const DefaultMaxAttempts = 3

// Attempt outcomes passed to an AttemptHook
const (
	OutcomeParsed      = "parsed"
	OutcomeParseFailed = "parse_failed"
	OutcomeFetchFailed = "fetch_failed"
)

// ExhaustedError means every attempt produced a parse failure
type ExhaustedError struct {
	Attempts int
	Last     *parser.ParseError
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("no valid quote after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	if e.Last == nil {
		return nil
	}
	return e.Last
}

// AttemptHook observes each finished attempt
type AttemptHook func(attempt int, outcome string, err error)

// Option configures ObtainQuote
type Option func(*options)

type options struct {
	hook AttemptHook
}

// WithAttemptHook registers a hook called after every attempt
func WithAttemptHook(hook AttemptHook) Option {
	return func(o *options) {
		o.hook = hook
	}
}

func (o *options) report(attempt int, outcome string, err error) {
	if o.hook != nil {
		o.hook(attempt, outcome, err)
	}
}

// ObtainQuote fetches and parses until a valid quote is found or the attempt
// budget runs out. Parse failures are retried immediately. Fetch failures are
// returned as *FetchError without retrying. maxAttempts below 1 means 1.
func ObtainQuote(ctx context.Context, src Source, maxAttempts int, opts ...Option) (models.Quote, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	log := logx.FromContext(ctx)
	var last *parser.ParseError

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return models.Quote{}, err
		}

		raw, err := src.Fetch(ctx)
		if err != nil {
			var fe *FetchError
			if errors.As(err, &fe) {
				fe.Attempt = attempt
			} else {
				fe = &FetchError{Attempt: attempt, Err: err}
			}
			o.report(attempt, OutcomeFetchFailed, fe)
			return models.Quote{}, fe
		}

		q, err := parser.Parse(raw)
		if err == nil {
			o.report(attempt, OutcomeParsed, nil)
			return q, nil
		}

		if !errors.As(err, &last) {
			last = &parser.ParseError{Kind: parser.ErrMalformed, Detail: "unexpected parser error", Err: err}
		}
		o.report(attempt, OutcomeParseFailed, last)
		log.Warn("quote response rejected",
			logx.FieldAttempt, attempt,
			logx.FieldMaxAttempts, maxAttempts,
			logx.Error(err),
		)
	}

	return models.Quote{}, &ExhaustedError{Attempts: maxAttempts, Last: last}
}
