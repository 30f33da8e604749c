package notify

import (
	"strconv"
	"strings"

	"github.com/trogers1052/metal-price-tracker/internal/models"
)

// FormatMessage renders the summary sent to every recipient. Missing
// deltas render as the literal null.
func FormatMessage(record *models.PriceRecord, diff models.DiffResult) string {
	lines := []string{
		"Gold Price: " + strconv.FormatInt(record.Gold, 10),
		"Silver Price: " + strconv.FormatInt(record.Silver, 10),
		"Gold Diff: " + formatDiff(diff.GoldDiff),
		"Silver Diff: " + formatDiff(diff.SilverDiff),
		"Reply STOP to unsubscribe.",
	}
	return strings.Join(lines, "\n")
}

func formatDiff(d *int64) string {
	if d == nil {
		return "null"
	}
	return strconv.FormatInt(*d, 10)
}
