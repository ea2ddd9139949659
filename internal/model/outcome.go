package model

import (
	"fmt"
	"strings"
)

// Outcome is the result of processing one page.
type Outcome int

const (
	// OutcomeAccepted means the page was aggregated and its links followed.
	OutcomeAccepted Outcome = iota

	// OutcomeFetchFailure means a transport error or a non-200 status.
	OutcomeFetchFailure

	// OutcomeParseFailure means the body could not be parsed.
	OutcomeParseFailure

	// OutcomeLowQuality means the page had too few tokens.
	OutcomeLowQuality

	// OutcomeDuplicate means the page was a near-duplicate of an earlier one.
	OutcomeDuplicate
)

// Outcomes lists every outcome in declaration order.
var Outcomes = []Outcome{
	OutcomeAccepted,
	OutcomeFetchFailure,
	OutcomeParseFailure,
	OutcomeLowQuality,
	OutcomeDuplicate,
}

var outcomeNames = map[Outcome]string{
	OutcomeAccepted:     "accepted",
	OutcomeFetchFailure: "fetch_failure",
	OutcomeParseFailure: "parse_failure",
	OutcomeLowQuality:   "low_quality",
	OutcomeDuplicate:    "duplicate",
}

var outcomeDescriptions = map[Outcome]string{
	OutcomeAccepted:     "Accepted",
	OutcomeFetchFailure: "Fetch failures",
	OutcomeParseFailure: "Parse failures",
	OutcomeLowQuality:   "Low-quality pages",
	OutcomeDuplicate:    "Duplicate pages",
}

// String returns the snake_case name used in JSON and the database.
func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// Description returns a human-readable label for reports.
func (o Outcome) Description() string {
	if d, ok := outcomeDescriptions[o]; ok {
		return d
	}
	return "Unknown"
}

// Counted reports whether pages with this outcome count as parsed.
// Fetch failures never reach the parser.
func (o Outcome) Counted() bool {
	return o != OutcomeFetchFailure
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(text []byte) error {
	parsed, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ParseOutcome converts a name produced by String back to an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for o, name := range outcomeNames {
		if name == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown outcome %q", s)
}
