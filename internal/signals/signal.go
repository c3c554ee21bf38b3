// Package signals holds the pure extractors that turn event streams and
// commit records into bounded numeric signals. Every extractor clamps its
// value to [0,1] and reports ok=false for empty input, so callers exclude
// absent signals from averaging instead of treating them as zero.
package signals

// Source names where a signal was measured.
type Source string

const (
	SourceEvents  Source = "events"
	SourceCommits Source = "commits"
)

// Score is one measured signal. Immutable once returned.
type Score struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Source Source  `json:"source"`
}

// Set is a collection of present signals keyed by name. Absent signals
// simply have no entry.
type Set map[string]Score

// Put records a signal when ok is true.
func (s Set) Put(name string, value float64, ok bool, src Source) {
	if !ok {
		return
	}
	s[name] = Score{Name: name, Value: clamp01(value), Source: src}
}

// Value returns the named signal's value and whether it is present.
func (s Set) Value(name string) (float64, bool) {
	sc, ok := s[name]
	return sc.Value, ok
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
