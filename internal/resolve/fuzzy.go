// Package resolve matches user-typed names against a known set: profile names
// for auth commands and command/flag names for did-you-mean hints.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Match is a fuzzy match result with score.
type Match struct {
	Name  string
	Score int
}

var (
	ErrEmptyQuery = errors.New("empty name")
	ErrEmptyItems = errors.New("no names to match against")
)

// NotFoundError means nothing resembled the query.
type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no match found for %q", e.Query)
}

// AmbiguousError indicates multiple candidates matched equally well.
type AmbiguousError struct {
	Query   string
	Matches []Match
}

func (e *AmbiguousError) Error() string {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "ambiguous match for %q", e.Query)
	if len(e.Matches) > 0 {
		b.WriteString(", candidates:")
		for _, m := range e.Matches {
			_, _ = fmt.Fprintf(&b, "\n  %s", m.Name)
		}
	}
	return b.String()
}

type lowerSource []string

func (s lowerSource) String(i int) string { return strings.ToLower(s[i]) }
func (s lowerSource) Len() int            { return len(s) }

// Name resolves query to one of names.
//
// An exact case-insensitive match wins. Otherwise the best fuzzy match is
// returned, unless the top two tie, which yields *AmbiguousError.
func Name(query string, names []string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", ErrEmptyQuery
	}
	if len(names) == 0 {
		return "", ErrEmptyItems
	}

	for _, name := range names {
		if strings.EqualFold(name, query) {
			return name, nil
		}
	}

	results := fuzzy.FindFrom(strings.ToLower(query), lowerSource(names))
	if len(results) == 0 {
		return "", &NotFoundError{Query: query}
	}
	if len(results) > 1 && results[0].Score == results[1].Score {
		return "", &AmbiguousError{
			Query:   query,
			Matches: buildMatches(names, results, 5),
		}
	}
	return names[results[0].Index], nil
}

// Rank returns up to limit matches ranked by score (best first).
func Rank(query string, names []string, limit int) []Match {
	query = strings.TrimSpace(query)
	if query == "" || len(names) == 0 || limit <= 0 {
		return nil
	}
	results := fuzzy.FindFrom(strings.ToLower(query), lowerSource(names))
	return buildMatches(names, results, limit)
}

// maxSuggestDistance is the largest edit distance Suggest still accepts.
const maxSuggestDistance = 3

// Suggest picks the candidate a mistyped name most likely meant, or "".
// Subsequence matches ("crd" for "credits") are ranked by sahilm/fuzzy; typos
// that are not subsequences ("serach") fall back to edit distance.
func Suggest(unknown string, candidates []string) string {
	unknown = strings.ToLower(strings.TrimSpace(unknown))
	if unknown == "" || len(candidates) == 0 {
		return ""
	}
	if ranked := Rank(unknown, candidates, 1); len(ranked) == 1 {
		return ranked[0].Name
	}

	bestDist := maxSuggestDistance + 1
	best := ""
	for _, c := range candidates {
		if d := levenshtein(unknown, strings.ToLower(c)); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func buildMatches(names []string, results fuzzy.Matches, limit int) []Match {
	if len(results) == 0 || limit <= 0 {
		return nil
	}
	if len(results) > limit {
		results = results[:limit]
	}
	matches := make([]Match, len(results))
	for i, r := range results {
		matches[i] = Match{Name: names[r.Index], Score: r.Score}
	}
	return matches
}

// levenshtein computes the edit distance between two strings using a single
// row of the DP table.
func levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}

	row := make([]int, lb+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= la; i++ {
		prev := i - 1
		row[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			val := min(row[j]+1, row[j-1]+1, prev+cost)
			prev = row[j]
			row[j] = val
		}
	}
	return row[lb]
}
