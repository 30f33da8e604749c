// Package parser turns free-form quote responses into validated quotes.
//
// Parsing runs in two pure stages. Extract isolates the candidate payload
// from fences and surrounding prose, Validate applies the strict schema to
// that payload only.
package parser

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"github.com/trogers1052/metal-price-tracker/internal/models"
)

var (
	// ErrMalformed means no decodable payload could be isolated
	ErrMalformed = errors.New("malformed response")
	// ErrSchemaMismatch means the payload decoded but is not a gold/silver quote
	ErrSchemaMismatch = errors.New("schema mismatch")
)

// maxPrice is the largest value a stored price can hold
var maxPrice = decimal.NewFromInt(math.MaxInt64)

var json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

var fence = regexp.MustCompile("```[A-Za-z]*")

// ParseError is returned for every rejected response. Kind is ErrMalformed
// or ErrSchemaMismatch.
type ParseError struct {
	Kind   error
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func malformed(detail string, err error) *ParseError {
	return &ParseError{Kind: ErrMalformed, Detail: detail, Err: err}
}

func mismatch(detail string) *ParseError {
	return &ParseError{Kind: ErrSchemaMismatch, Detail: detail}
}

// Parse extracts and validates a quote from raw upstream text
func Parse(raw string) (models.Quote, error) {
	payload, err := Extract(raw)
	if err != nil {
		return models.Quote{}, err
	}
	return Validate(payload)
}

// Extract strips code fences and returns the first brace-delimited block.
// The block runs from the first '{' to its matching '}'. When the braces
// never balance it falls back to the last '}' in the text.
func Extract(raw string) (string, error) {
	text := strings.TrimSpace(fence.ReplaceAllString(raw, ""))
	if text == "" {
		return "", malformed("empty response", nil)
	}

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", malformed("no '{' in response", nil)
	}

	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], nil
			}
		}
	}

	end := strings.LastIndexByte(text, '}')
	if end < start {
		return "", malformed("no closing '}' in response", nil)
	}
	return text[start : end+1], nil
}

// Validate decodes an extracted payload and checks it holds positive numeric
// gold and silver values. Single quotes are treated as double quotes.
func Validate(payload string) (models.Quote, error) {
	normalised := strings.ReplaceAll(payload, "'", `"`)

	var fields map[string]any
	if err := json.UnmarshalFromString(normalised, &fields); err != nil {
		return models.Quote{}, malformed("payload is not a JSON object", err)
	}
	if fields == nil {
		return models.Quote{}, malformed("payload is null", nil)
	}

	gold, err := price(fields, "gold")
	if err != nil {
		return models.Quote{}, err
	}
	silver, err := price(fields, "silver")
	if err != nil {
		return models.Quote{}, err
	}

	return models.Quote{Gold: gold, Silver: silver}, nil
}

func price(fields map[string]any, key string) (decimal.Decimal, error) {
	v, ok := fields[key]
	if !ok {
		return decimal.Decimal{}, mismatch(fmt.Sprintf("missing %q", key))
	}

	var (
		d   decimal.Decimal
		err error
	)
	switch n := v.(type) {
	case fmt.Stringer:
		// json.Number under UseNumber
		d, err = decimal.NewFromString(n.String())
	case float64:
		d = decimal.NewFromFloat(n)
	default:
		return decimal.Decimal{}, mismatch(fmt.Sprintf("%q is %T, want number", key, v))
	}
	if err != nil {
		return decimal.Decimal{}, mismatch(fmt.Sprintf("%q is not a finite number", key))
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, mismatch(fmt.Sprintf("%q must be positive, got %s", key, d))
	}
	if d.Round(0).GreaterThan(maxPrice) {
		return decimal.Decimal{}, mismatch(fmt.Sprintf("%q is out of range", key))
	}
	return d, nil
}
