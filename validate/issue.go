package validate

// Severity grades an issue. Only errors count against compliance.
type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	}
	return "unknown"
}

// Issue is a single accessibility finding.
type Issue struct {
	Criterion   string // WCAG criterion ID, e.g. "1.1.1"
	Severity    Severity
	Message     string
	Page        int // 0 when the issue is document-wide
	Element     string
	Suggestion  string
	AutoFixable bool
}

// Summary tallies issues by severity.
type Summary struct {
	Errors   int
	Warnings int
	Info     int
	Total    int
}

// Result is the outcome of one validation pass.
type Result struct {
	IsCompliant    bool
	Level          Level
	Score          float64 // 0-100
	Issues         []Issue
	PassedCriteria []string
	FailedCriteria []string
	Summary        Summary
}

// FixSuggestion is one entry of the prioritized auto-fix plan.
type FixSuggestion struct {
	Criterion  string
	Message    string
	Suggestion string
	Priority   string // "high" or "medium"
	Page       int
}
