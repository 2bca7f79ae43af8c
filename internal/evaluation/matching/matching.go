// Package matching ranks catalog entries against an evaluated message.
package matching

import (
	"slices"
	"strings"

	"crm_messaging_backend/internal/evaluation/catalog"
	"crm_messaging_backend/internal/evaluation/domain"
	"crm_messaging_backend/internal/evaluation/keywords"

	"github.com/google/uuid"
)

const (
	keywordWeight  = 1.0
	exactNameBonus = 5.0
	minScore       = 0.5
	maxScore       = 10.0
)

// Match is a catalog entry that scored above the threshold.
type Match struct {
	ProductID uuid.UUID
	Name      string
	Score     float64
}

// Rank scores every catalog entry against the message keywords and raw text
// and returns the entries scoring above 0.5, highest first. Ties keep catalog
// order. The result is never nil.
//
// Each keyword found in an entry's derived set adds 1. An entry whose name
// appears in the message (case and accent insensitive) gets a bonus of 5.
// Scores are capped at 10. The exact algorithm only applies the name bonus;
// none disables matching.
func Rank(kws []string, idx *catalog.Index, rawMessage, algorithm string) []Match {
	matches := make([]Match, 0)
	if idx.Len() == 0 || algorithm == domain.MatchingNone {
		return matches
	}

	useKeywords := algorithm != domain.MatchingExact
	unique := dedupe(kws)
	message := keywords.Fold(rawMessage)

	for i := range idx.Entries {
		entry := &idx.Entries[i]
		score := 0.0
		if useKeywords {
			for _, kw := range unique {
				if entry.Has(kw) {
					score += keywordWeight
				}
			}
		}
		if name := strings.TrimSpace(keywords.Fold(entry.Name)); name != "" && strings.Contains(message, name) {
			score += exactNameBonus
		}
		if score <= minScore {
			continue
		}
		matches = append(matches, Match{
			ProductID: entry.ProductID,
			Name:      entry.Name,
			Score:     min(score, maxScore),
		})
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	return matches
}

// Names returns the matched product names in rank order.
func Names(matches []Match) []string {
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m.Name)
	}
	return names
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
