package quote

import (
	"context"
	"fmt"
)

//go:generate mockgen -package=quote_test -destination=mock_source_test.go -source=source.go Source

// Source returns one raw, unvalidated quote response per call
type Source interface {
	Fetch(ctx context.Context) (string, error)
}

// SourceFunc adapts a plain function to Source
type SourceFunc func(ctx context.Context) (string, error)

// Fetch calls f
func (f SourceFunc) Fetch(ctx context.Context) (string, error) {
	return f(ctx)
}

// FetchError is a transport failure reaching the upstream source. It is
// never retried.
type FetchError struct {
	Source  string
	Attempt int
	Err     error
}

func (e *FetchError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("fetch failed on attempt %d: %v", e.Attempt, e.Err)
	}
	return fmt.Sprintf("fetch from %s failed on attempt %d: %v", e.Source, e.Attempt, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
