// Package escalation flags generated answers that signal insufficient
// knowledge so the caller can offer a path to human support.
package escalation

import "strings"

// defaultPhrases are the support-seeking phrases scanned for in generated
// text. The list is tuned to catch misses (false negatives are the costly
// failure mode); an occasional false positive only shows an extra support
// prompt.
var defaultPhrases = []string{
	"i couldn't find",
	"i could not find",
	"i don't have",
	"i do not have",
	"please contact",
	"reach out",
	"not explicitly mentioned",
	"not mentioned in the context",
	"no information",
	"unable to find",
	"contact our team",
	"contact us directly",
}

// Detector is a lexical heuristic over a fixed phrase list. No semantic
// analysis: a generated answer escalates when its lowercased text contains
// any listed phrase.
type Detector struct {
	phrases []string
}

// NewDetector creates a Detector with the given phrase list; an empty list
// selects the built-in defaults.
func NewDetector(phrases []string) *Detector {
	if len(phrases) == 0 {
		phrases = defaultPhrases
	}
	return &Detector{phrases: phrases}
}

// ShouldEscalate reports whether the generated text signals that the answer
// is insufficient.
func (d *Detector) ShouldEscalate(generated string) bool {
	lower := strings.ToLower(generated)
	for _, phrase := range d.phrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
