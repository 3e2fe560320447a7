// Package diagram prepares stored diagram text for rendering.
//
// Some words collide with keywords the renderer treats specially when they
// appear as node or member names. Sanitize swaps one Latin letter in each of
// them for a Cyrillic lookalike so the text renders verbatim while reading
// the same to a human.
package diagram

import "strings"

// substitution replaces every literal occurrence of From with To
type substitution struct {
	From string
	To   string
}

// substitutions are applied in order. None of the To values contain a From
// value, so applying them is idempotent.
var substitutions = []substitution{
	{From: "click", To: "cliсk"},             // CYRILLIC SMALL LETTER ES
	{From: "constructor", To: "construсtor"}, // CYRILLIC SMALL LETTER ES
	{From: "toString", To: "tоString"},       // CYRILLIC SMALL LETTER O
}

var (
	sanitizer = newReplacer(false)
	restorer  = newReplacer(true)
)

func newReplacer(reverse bool) *strings.Replacer {
	pairs := make([]string, 0, 2*len(substitutions))
	for _, s := range substitutions {
		if reverse {
			pairs = append(pairs, s.To, s.From)
		} else {
			pairs = append(pairs, s.From, s.To)
		}
	}
	return strings.NewReplacer(pairs...)
}

// Sanitize returns raw with the reserved words replaced by their lookalikes.
// It never fails and returns the input unchanged when nothing matches.
func Sanitize(raw string) string {
	return sanitizer.Replace(raw)
}

// Restore undoes Sanitize. Text that already contained a lookalike before
// sanitizing is restored to the Latin spelling as well.
func Restore(sanitized string) string {
	return restorer.Replace(sanitized)
}
