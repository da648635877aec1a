// Package classify labels insider events as sales or purchases from their
// free-text or coded transaction kind.
package classify

import (
	"strings"

	"github.com/bighogz/insider-ledger/internal/models"
)

var purchaseMarkers = []string{"purchase", "buy"}

// Classify matches kind case-insensitively. "sale" is checked first, so a
// description mentioning both a sale and a purchase is a Sale.
func Classify(kind string) models.Classification {
	k := strings.ToLower(kind)
	if strings.Contains(k, "sale") {
		return models.Sale
	}
	for _, m := range purchaseMarkers {
		if strings.Contains(k, m) {
			return models.Purchase
		}
	}
	return models.Unclassified
}
