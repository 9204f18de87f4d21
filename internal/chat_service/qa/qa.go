// Package qa holds the curated question table and the static matching
// strategy: the cheapest resolution tier, consulted before any retrieval.
package qa

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// overlapThreshold is the keyword-overlap score a candidate question must
// strictly exceed to count as a match.
const overlapThreshold = 0.6

// Entry is one curated question/answer record. Entries are loaded once at
// startup and never mutated.
type Entry struct {
	ID       int    `yaml:"id" json:"id"`
	Question string `yaml:"question" json:"question"`
	Answer   string `yaml:"answer" json:"answer"`
	Category string `yaml:"category" json:"category"`
}

// Table is an ordered, read-only set of curated entries. Order matters: the
// keyword-overlap phase returns the first entry that clears the threshold.
type Table struct {
	entries []Entry
}

// Load reads the curated question table from a YAML file.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question table '%s': %w", path, err)
	}
	var file struct {
		Questions []Entry `yaml:"questions"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse question table: %w", err)
	}
	return NewTable(file.Questions), nil
}

// NewTable builds a Table from a fixed slice of entries.
func NewTable(entries []Entry) *Table {
	return &Table{entries: entries}
}

// Entries returns the entries in table order.
func (t *Table) Entries() []Entry {
	return t.entries
}

// Len returns the number of curated entries.
func (t *Table) Len() int {
	return len(t.entries)
}

// Match resolves a query against the table. Phase one is case-insensitive
// exact equality with each stored question. Phase two tokenizes query and
// candidate on whitespace and scores |intersection| / |query words|; the
// first entry in table order scoring above the threshold wins. The score is
// deliberately asymmetric: it is measured against the query's word count
// only, matching long-standing behavior of the curated answers.
func (t *Table) Match(query string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return "", false
	}

	for _, entry := range t.entries {
		if strings.ToLower(entry.Question) == q {
			return entry.Answer, true
		}
	}

	queryWords := wordSet(q)
	if len(queryWords) == 0 {
		return "", false
	}

	for _, entry := range t.entries {
		questionWords := wordSet(strings.ToLower(entry.Question))
		overlap := 0
		for w := range queryWords {
			if questionWords[w] {
				overlap++
			}
		}
		if float64(overlap)/float64(len(queryWords)) > overlapThreshold {
			return entry.Answer, true
		}
	}
	return "", false
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		set[w] = true
	}
	return set
}
