package models

// VerdictState is one of the three states an advisory can be partitioned
// into (spec.md §3, "Verdict").
type VerdictState string

const (
	StateAffected           VerdictState = "affected"
	StateNotAffected        VerdictState = "not_affected"
	StateUnderInvestigation VerdictState = "under_investigation"
)

// Justification is only ever populated on a not_affected verdict
// (spec.md §4.5).
type Justification string

const (
	JustificationCodeNotReachable Justification = "code_not_reachable"
)

// Verdict attaches a state, optional justification, and a human-readable
// detail string to one advisory (spec.md §3 "Verdict", §4.5).
type Verdict struct {
	AdvisoryID    string         `json:"advisory_id"`
	State         VerdictState   `json:"state"`
	Justification Justification  `json:"justification,omitempty"`
	Detail        string         `json:"detail"`
	Symbols       []string       `json:"symbols,omitempty"`
	TraceError    string         `json:"trace_error,omitempty"`
}
