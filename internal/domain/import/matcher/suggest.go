package matcher

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Suggestion pairs a mapping with its similarity to a statement title.
// Score runs 0-100, higher is closer.
type Suggestion struct {
	Mapping MerchantMapping
	Score   int
}

// Suggest ranks mappings by similarity to a statement title that the strict
// strategies could not resolve. Suggestions are advisory: they surface likely
// candidates for the user to pick from and never apply themselves. Mappings
// scoring below threshold are dropped; at most limit results are returned
// (limit <= 0 means no cap).
func Suggest(title string, mappings []MerchantMapping, threshold, limit int) []Suggestion {
	t := strings.ToUpper(strings.TrimSpace(title))
	if t == "" {
		return nil
	}

	var out []Suggestion
	for i := range mappings {
		score := 0
		for _, candidate := range []string{mappings[i].StatementTitle, mappings[i].CleanTitle, mappings[i].MappedTitle} {
			c := strings.ToUpper(strings.TrimSpace(candidate))
			if c == "" {
				continue
			}
			if s := similarity(t, c); s > score {
				score = s
			}
		}
		if score >= threshold {
			out = append(out, Suggestion{Mapping: mappings[i], Score: score})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// similarity scores two normalized strings 0-100. Exact beats containment
// beats edit distance; a subsequence rank from the fuzzy library catches
// abbreviated titles the other measures miss.
func similarity(s1, s2 string) int {
	if s1 == s2 {
		return 100
	}
	if strings.Contains(s1, s2) {
		return 75 + 25*len(s2)/len(s1)
	}
	if strings.Contains(s2, s1) {
		return 75 + 25*len(s1)/len(s2)
	}

	maxLen := len(s1)
	if len(s2) > maxLen {
		maxLen = len(s2)
	}
	if maxLen == 0 {
		return 0
	}
	distance := levenshtein.ComputeDistance(s1, s2)
	score := 100 * (maxLen - distance) / maxLen

	if rank := fuzzy.RankMatch(s2, s1); rank >= 0 && rank < len(s1) {
		if fs := 60 - rank*40/len(s1); fs > score {
			score = fs
		}
	}
	return score
}
