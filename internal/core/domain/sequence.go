package domain

import "fmt"

// SequenceResetRule controls when a sequence counter restarts.
type SequenceResetRule string

const (
	ResetNone   SequenceResetRule = "none"
	ResetAnnual SequenceResetRule = "annual"
)

// Sequence is a named document-number counter, keyed by code.
type Sequence struct {
	Code         string            `json:"code"`
	Name         string            `json:"name"`
	Prefix       string            `json:"prefix"`
	Padding      int               `json:"padding"`
	CurrentValue int64             `json:"currentValue"`
	ResetRule    SequenceResetRule `json:"resetRule"`
	CurrentYear  int               `json:"currentYear"` // year the counter last advanced in
	AuditFields
}

// StatementSequenceCode is the sequence consulted when issuing an SOA.
const StatementSequenceCode = "SOA"

// FormatSequenceNumber renders the human-readable document number for a
// counter value, e.g. "SOA-2025-0042".
func FormatSequenceNumber(prefix string, year int, value int64, padding int) string {
	return fmt.Sprintf("%s%d-%0*d", prefix, year, padding, value)
}

// Advance applies the reset rule for the given year, increments the
// counter and returns the formatted document number. The number always
// carries the given year; a sequence that never resets keeps counting
// while its stored year lags behind.
func (s *Sequence) Advance(year int) string {
	if s.ResetRule == ResetAnnual && s.CurrentYear != year {
		s.CurrentValue = 0
		s.CurrentYear = year
	}
	s.CurrentValue++
	return FormatSequenceNumber(s.Prefix, year, s.CurrentValue, s.Padding)
}
