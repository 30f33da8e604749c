package parser

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trogers1052/metal-price-tracker/internal/models"
)

func quote(gold, silver string) models.Quote {
	return models.Quote{
		Gold:   decimal.RequireFromString(gold),
		Silver: decimal.RequireFromString(silver),
	}
}

func TestParse_TolerantForms(t *testing.T) {
	want := quote("151500", "1950.5")

	tests := []struct {
		name string
		raw  string
	}{
		{"strict json", `{"gold": 151500, "silver": 1950.5}`},
		{"json fence", "```json\n{\"gold\": 151500, \"silver\": 1950.5}\n```"},
		{"bare fence", "```\n{\"gold\": 151500, \"silver\": 1950.5}\n```"},
		{"single quotes", `{'gold': 151500, 'silver': 1950.5}`},
		{"assignment prefix", `Price = {'gold': 151500, 'silver': 1950.5}`},
		{"surrounding prose", "Here is today's price:\n{\"gold\": 151500, \"silver\": 1950.5}\nSource: hamropatro."},
		{"fenced prose and quotes", "Sure!\n```json\nPrice = {'gold': 151500, 'silver': 1950.5}\n```\nLet me know."},
		{"extra keys", `{"gold": 151500, "silver": 1950.5, "currency": 1}`},
		{"first of multiple blocks", `{"gold": 151500, "silver": 1950.5} and yesterday {"gold": 1, "silver": 2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			require.NoError(t, err)
			assert.True(t, want.Gold.Equal(got.Gold), "gold %s", got.Gold)
			assert.True(t, want.Silver.Equal(got.Silver), "silver %s", got.Silver)
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind error
	}{
		{"empty", "", ErrMalformed},
		{"whitespace", "   \n", ErrMalformed},
		{"only fences", "```json\n```", ErrMalformed},
		{"no braces", "gold is 151500 and silver 1950", ErrMalformed},
		{"unterminated", `{"gold": 151500, "silver": 1950`, ErrMalformed},
		{"not json", `{gold: 151500, silver: 1950}`, ErrMalformed},
		{"missing gold", `{"silver": 1950}`, ErrSchemaMismatch},
		{"missing silver", `{"gold": 151500}`, ErrSchemaMismatch},
		{"string value", `{"gold": "151500", "silver": 1950}`, ErrSchemaMismatch},
		{"bool value", `{"gold": 151500, "silver": true}`, ErrSchemaMismatch},
		{"null value", `{"gold": null, "silver": 1950}`, ErrSchemaMismatch},
		{"nested value", `{"gold": {"value": 1}, "silver": 1950}`, ErrSchemaMismatch},
		{"zero", `{"gold": 0, "silver": 1950}`, ErrSchemaMismatch},
		{"negative", `{"gold": 151500, "silver": -5}`, ErrSchemaMismatch},
		{"beyond float range", `{"gold": 1e400, "silver": 2}`, ErrSchemaMismatch},
		{"beyond int64", `{'gold': 9223372036854775808, 'silver': 2}`, ErrSchemaMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.Equal(t, models.Quote{}, got)

			var perr *ParseError
			assert.True(t, errors.As(err, &perr))
		})
	}
}

func TestExtract(t *testing.T) {
	t.Run("nested braces balance", func(t *testing.T) {
		got, err := Extract(`x {"a": {"b": 1}} y {"c": 2}`)
		require.NoError(t, err)
		assert.Equal(t, `{"a": {"b": 1}}`, got)
	})

	t.Run("unbalanced falls back to last brace", func(t *testing.T) {
		got, err := Extract(`{ {"gold": 1} tail`)
		require.NoError(t, err)
		assert.Equal(t, `{ {"gold": 1}`, got)
	})

	t.Run("closing before opening", func(t *testing.T) {
		_, err := Extract(`} then {`)
		assert.ErrorIs(t, err, ErrMalformed)
	})
}

func TestValidate_PreservesPrecision(t *testing.T) {
	got, err := Validate(`{"gold": 151500.123456789012345, "silver": 2000}`)
	require.NoError(t, err)
	assert.Equal(t, "151500.123456789012345", got.Gold.String())
}
