package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	apperrors "contextcraft/internal/errors"
	"contextcraft/internal/logging"
	"contextcraft/internal/result"
)

// UnknownSector labels holdings whose sector could not be determined.
const UnknownSector = "Unknown"

var hundred = decimal.NewFromInt(100)

// SectorDistribution maps sector name to its percentage share of holdings.
type SectorDistribution map[string]decimal.Decimal

// MarshalJSON renders percentages as JSON numbers with sectors in name order.
func (d SectorDistribution) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, len(d))
	for name := range d {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(d[name].String())
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// AnalyzePortfolioRisk classifies each holding by sector and returns the share
// of holdings per sector. A failed sector lookup counts as Unknown.
func (a *Aggregator) AnalyzePortfolioRisk(ctx context.Context) result.Result[SectorDistribution] {
	if a.holdings == nil {
		return result.Fail[SectorDistribution](apperrors.ErrNotAuthenticated)
	}

	holdings, err := a.holdings.Holdings(ctx)
	if err != nil {
		return result.Fail[SectorDistribution](err)
	}
	if len(holdings) == 0 {
		return result.Success(SectorDistribution{})
	}

	logger := logging.FromContext(ctx)

	var (
		mu     sync.Mutex
		counts = make(map[string]int)
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(a.concurrency)

	for _, h := range holdings {
		symbol := h.Symbol
		group.Go(func() error {
			sector := UnknownSector
			body, err := a.provider.Call(groupCtx, "industry_search", map[string]string{"query": symbol})
			if err != nil {
				logger.Warn().Err(err).Str("symbol", symbol).Msg("Sector lookup failed")
			} else if s := extractSector(body); s != "" {
				sector = s
			}

			mu.Lock()
			counts[sector]++
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	total := decimal.NewFromInt(int64(len(holdings)))
	dist := make(SectorDistribution, len(counts))
	for sector, n := range counts {
		dist[sector] = decimal.NewFromInt(int64(n)).Mul(hundred).DivRound(total, 2)
	}
	return result.Success(dist)
}

// extractSector reads mgSector (falling back to sector) from the first search
// result. The body may be a list of results or a single object.
func extractSector(body json.RawMessage) string {
	var first map[string]any

	var list []map[string]any
	if err := json.Unmarshal(body, &list); err == nil {
		if len(list) == 0 {
			return ""
		}
		first = list[0]
	} else if err := json.Unmarshal(body, &first); err != nil {
		return ""
	}

	for _, key := range []string{"mgSector", "sector"} {
		if s, ok := first[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
