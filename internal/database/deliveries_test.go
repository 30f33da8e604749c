package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trogers1052/metal-price-tracker/internal/models"
)

func TestDeliveryRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	ctx := context.Background()

	t.Run("CreateDeliveryResults records every outcome in order", func(t *testing.T) {
		testDB.TruncateAll(t)

		results := []models.DeliveryResult{
			{Recipient: "+15550001", Channel: models.ChannelSMS, Status: models.DeliveryDelivered, MessageID: "SM1"},
			{Recipient: "+15550002", Channel: models.ChannelSMS, Status: models.DeliveryFailed, Reason: "invalid number"},
			{Recipient: "telegram:42", Channel: models.ChannelTelegram, Status: models.DeliveryDelivered, MessageID: "7"},
		}

		err := testDB.CreateDeliveryResults(ctx, day(2024, 1, 15), results)
		require.NoError(t, err)

		got, err := testDB.GetDeliveriesByDate(ctx, day(2024, 1, 15))
		require.NoError(t, err)
		require.Len(t, got, 3)

		assert.Equal(t, "+15550001", got[0].Recipient)
		assert.Equal(t, "SM1", got[0].MessageID)
		assert.Equal(t, models.DeliveryFailed, got[1].Status)
		assert.Equal(t, "invalid number", got[1].Reason)
		assert.Equal(t, models.ChannelTelegram, got[2].Channel)
		assert.False(t, got[2].SentAt.IsZero())
		assert.Equal(t, "2024-01-15", got[2].PriceDate.Format(models.DateLayout))
	})

	t.Run("CreateDeliveryResults with nothing to record", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.CreateDeliveryResults(ctx, day(2024, 1, 15), nil))

		got, err := testDB.GetDeliveriesByDate(ctx, day(2024, 1, 15))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("GetDeliveriesByDate filters by date", func(t *testing.T) {
		testDB.TruncateAll(t)

		require.NoError(t, testDB.CreateDeliveryResults(ctx, day(2024, 1, 14), []models.DeliveryResult{
			{Recipient: "+1", Channel: models.ChannelSMS, Status: models.DeliveryDelivered},
		}))
		require.NoError(t, testDB.CreateDeliveryResults(ctx, day(2024, 1, 15), []models.DeliveryResult{
			{Recipient: "+2", Channel: models.ChannelSMS, Status: models.DeliveryDelivered},
		}))

		got, err := testDB.GetDeliveriesByDate(ctx, day(2024, 1, 15))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "+2", got[0].Recipient)
	})
}
