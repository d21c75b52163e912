// Package search runs the aniworld and s.to search providers
// concurrently, bounded at two goroutines — one per provider — and
// tolerates truncated JSON the origin occasionally returns under load.
package search

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/atreides/aniwatch/internal/models"
	"github.com/sourcegraph/conc/pool"
)

// Result is one search hit, normalized across both providers.
type Result struct {
	Title    string      `json:"title"`
	URL      string      `json:"url"`
	Cover    string      `json:"cover"`
	Year     string      `json:"year"`
	Provider models.Site `json:"provider"`
}

// Providers fans a keyword out to both sites with a two-goroutine cap,
// one per provider.
type Providers struct {
	aniworld aniworldSearcher
	sTo      sToSearcher
}

type aniworldSearcher interface {
	Search(ctx context.Context, keyword string) ([]Result, error)
}

type sToSearcher interface {
	Search(ctx context.Context, keyword string) ([]Result, error)
}

func NewProviders() *Providers {
	return &Providers{
		aniworld: newAniworldSearchClient(),
		sTo:      newSToSearchClient(),
	}
}

// Search runs both providers concurrently and concatenates successful
// results; a single provider's failure does not fail the whole call.
func (p *Providers) Search(ctx context.Context, keyword string) []Result {
	var aniResults, sToResults []Result

	pl := pool.New().WithMaxGoroutines(2)
	pl.Go(func() {
		res, err := p.aniworld.Search(ctx, keyword)
		if err == nil {
			aniResults = res
		}
	})
	pl.Go(func() {
		res, err := p.sTo.Search(ctx, keyword)
		if err == nil {
			sToResults = res
		}
	})
	pl.Wait()

	out := make([]Result, 0, len(aniResults)+len(sToResults))
	out = append(out, aniResults...)
	out = append(out, sToResults...)
	return out
}

// repairTruncatedJSON closes a cut-off string and unbalanced
// braces/brackets and trims a trailing comma before unmarshaling,
// tolerating the origin cutting its response short under load.
func repairTruncatedJSON(data []byte) []byte {
	trimmed := data
	for len(trimmed) > 0 {
		last := trimmed[len(trimmed)-1]
		if last == ' ' || last == '\n' || last == '\t' || last == '\r' {
			trimmed = trimmed[:len(trimmed)-1]
			continue
		}
		break
	}
	if len(trimmed) > 0 && trimmed[len(trimmed)-1] == ',' {
		trimmed = trimmed[:len(trimmed)-1]
	}

	var opens []byte
	inString := false
	escaped := false
	for _, b := range trimmed {
		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case '{', '[':
			opens = append(opens, byte(b))
		case '}', ']':
			if len(opens) > 0 {
				opens = opens[:len(opens)-1]
			}
		}
	}

	repaired := make([]byte, len(trimmed))
	copy(repaired, trimmed)
	if inString {
		if escaped {
			repaired = repaired[:len(repaired)-1]
		}
		repaired = append(repaired, '"')
	}
	for i := len(opens) - 1; i >= 0; i-- {
		if opens[i] == '{' {
			repaired = append(repaired, '}')
		} else {
			repaired = append(repaired, ']')
		}
	}
	return repaired
}

func unmarshalTolerant(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err == nil {
		return nil
	}
	repaired := repairTruncatedJSON(data)
	if err := json.Unmarshal(repaired, v); err != nil {
		return fmt.Errorf("search: unmarshal (even after repair): %w", err)
	}
	return nil
}
