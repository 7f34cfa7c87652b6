// Package trading turns a loosely specified trade request into a broker order.
package trading

import (
	"strings"

	apperrors "contextcraft/internal/errors"
	"contextcraft/internal/models"
)

// Resolve picks the first instrument whose trading symbol contains the
// uppercased query. List order is the only tie-break: "TCS" resolves to
// whichever of TCS, TCSBANK, ... the broker listed first.
func Resolve(instruments []models.Instrument, exchange models.Exchange, query string) (models.Instrument, error) {
	needle := strings.ToUpper(strings.TrimSpace(query))
	if needle == "" {
		return models.Instrument{}, apperrors.NewInstrumentError(query, string(exchange))
	}

	for _, inst := range instruments {
		if strings.Contains(inst.Symbol, needle) {
			return inst, nil
		}
	}

	return models.Instrument{}, apperrors.NewInstrumentError(query, string(exchange))
}
