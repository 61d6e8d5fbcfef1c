// Package ui holds terminal helpers shared by the elide commands.
package ui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// MaxDistance is the largest edit distance still offered as a suggestion
const MaxDistance = 3

// Similar returns up to limit candidates within MaxDistance edits of target,
// closest first. Comparison ignores case.
func Similar(target string, candidates []string, limit int) []string {
	type match struct {
		value    string
		distance int
	}

	var matches []match
	for _, candidate := range candidates {
		if d := Distance(strings.ToLower(target), strings.ToLower(candidate)); d <= MaxDistance {
			matches = append(matches, match{candidate, d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	out := make([]string, 0, limit)
	for i := 0; i < len(matches) && i < limit; i++ {
		out = append(out, matches[i].value)
	}
	return out
}

// Distance is the Levenshtein distance between a and b, counted in runes
func Distance(a, b string) int {
	s, t := []rune(a), []rune(b)
	prev := make([]int, len(t)+1)
	curr := make([]int, len(t)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s); i++ {
		curr[0] = i
		for j := 1; j <= len(t); j++ {
			cost := 1
			if s[i-1] == t[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(t)]
}

// NotFoundError reports an unknown name with the closest known names
type NotFoundError struct {
	Kind        string
	Name        string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s %q not found", e.Kind, e.Name)
	if len(e.Suggestions) > 0 {
		msg += "; did you mean: " + strings.Join(e.Suggestions, ", ") + "?"
	}
	return msg
}

// NewNotFoundError builds a NotFoundError suggesting up to three known names
func NewNotFoundError(kind, name string, known []string) *NotFoundError {
	return &NotFoundError{Kind: kind, Name: name, Suggestions: Similar(name, known, 3)}
}

// Success writes a green check mark followed by message
func Success(w io.Writer, format string, args ...any) {
	color.New(color.FgGreen, color.Bold).Fprint(w, "✓ ")
	fmt.Fprintf(w, format+"\n", args...)
}
