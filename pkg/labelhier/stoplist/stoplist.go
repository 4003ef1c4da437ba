// Package stoplist holds the function-word set used to filter sub-phrases
// during cohesion scoring.
package stoplist

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed english.yaml
var englishYAML []byte

// Source records where a stop word came from.
type Source string

const (
	SourceDefault   Source = "default"
	SourceFile      Source = "file"
	SourceSuggested Source = "suggested"
)

// Manager is a mutable stop-word set. It is not safe for concurrent writes;
// concurrent IsStop calls are fine once construction is done.
type Manager struct {
	stops map[string]Source
}

// NewManager creates a manager seeded with initialStops.
func NewManager(initialStops []string) *Manager {
	return newManager(initialStops, SourceFile)
}

func newManager(terms []string, src Source) *Manager {
	stops := make(map[string]Source, len(terms))
	for _, s := range terms {
		stops[s] = src
	}
	return &Manager{stops: stops}
}

// English returns a manager with the built-in English function words.
func English() *Manager {
	terms, err := Parse(englishYAML)
	if err != nil {
		panic(fmt.Sprintf("stoplist: embedded english list: %v", err))
	}
	return newManager(terms, SourceDefault)
}

// Parse decodes a YAML document of the form `terms: [...]`.
func Parse(data []byte) ([]string, error) {
	var doc struct {
		Terms []string `yaml:"terms"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Terms, nil
}

// IsStop checks if a token is a stop word.
func (m *Manager) IsStop(token string) bool {
	_, ok := m.stops[token]
	return ok
}

// Add adds a token to the stoplist.
func (m *Manager) Add(token string, src Source) {
	m.stops[token] = src
}

// Remove removes a token from the stoplist.
func (m *Manager) Remove(token string) {
	delete(m.stops, token)
}

// Source reports where a stop word came from.
func (m *Manager) Source(token string) (Source, bool) {
	s, ok := m.stops[token]
	return s, ok
}

// Len returns the number of stop words.
func (m *Manager) Len() int { return len(m.stops) }

// All returns all stop words, sorted.
func (m *Manager) All() []string {
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}
