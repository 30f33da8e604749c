package quote_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/trogers1052/metal-price-tracker/internal/models"
	"github.com/trogers1052/metal-price-tracker/internal/parser"
	"github.com/trogers1052/metal-price-tracker/internal/quote"
)

const (
	noisy = "Sorry, I could not find the price today."
	valid = "```json\n{'gold': 151500, 'silver': 1950}\n```"
)

func TestObtainQuote_SucceedsOnThirdAttempt(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	gomock.InOrder(
		src.EXPECT().Fetch(gomock.Any()).Return(noisy, nil),
		src.EXPECT().Fetch(gomock.Any()).Return(`{"gold": "151500", "silver": 1950}`, nil),
		src.EXPECT().Fetch(gomock.Any()).Return(valid, nil),
	)

	var outcomes []string
	q, err := quote.ObtainQuote(context.Background(), src, 3, quote.WithAttemptHook(func(_ int, outcome string, _ error) {
		outcomes = append(outcomes, outcome)
	}))
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(151500).Equal(q.Gold))
	assert.True(t, decimal.NewFromInt(1950).Equal(q.Silver))
	assert.Equal(t, []string{quote.OutcomeParseFailed, quote.OutcomeParseFailed, quote.OutcomeParsed}, outcomes)
}

func TestObtainQuote_Exhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	gomock.InOrder(
		src.EXPECT().Fetch(gomock.Any()).Return(noisy, nil),
		src.EXPECT().Fetch(gomock.Any()).Return(`{"gold": 151500}`, nil),
	)

	q, err := quote.ObtainQuote(context.Background(), src, 2)
	require.Error(t, err)
	assert.Equal(t, models.Quote{}, q)

	var exhausted *quote.ExhaustedError
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 2, exhausted.Attempts)
	require.NotNil(t, exhausted.Last)
	// last error wins
	assert.ErrorIs(t, err, parser.ErrSchemaMismatch)
}

func TestObtainQuote_FetchErrorNotRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	boom := errors.New("connection reset")
	gomock.InOrder(
		src.EXPECT().Fetch(gomock.Any()).Return(noisy, nil),
		src.EXPECT().Fetch(gomock.Any()).Return("", boom),
	)

	_, err := quote.ObtainQuote(context.Background(), src, 5)
	require.Error(t, err)

	var fe *quote.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 2, fe.Attempt)
	assert.ErrorIs(t, err, boom)

	var exhausted *quote.ExhaustedError
	assert.False(t, errors.As(err, &exhausted))
}

func TestObtainQuote_MinimumOneAttempt(t *testing.T) {
	for _, max := range []int{0, -3} {
		ctrl := gomock.NewController(t)
		src := NewMockSource(ctrl)
		src.EXPECT().Fetch(gomock.Any()).Return(noisy, nil).Times(1)

		_, err := quote.ObtainQuote(context.Background(), src, max)

		var exhausted *quote.ExhaustedError
		require.True(t, errors.As(err, &exhausted))
		assert.Equal(t, 1, exhausted.Attempts)
	}
}

func TestObtainQuote_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	src := quote.SourceFunc(func(context.Context) (string, error) {
		calls++
		cancel()
		return noisy, nil
	})

	_, err := quote.ObtainQuote(ctx, src, 3)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
