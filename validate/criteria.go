package validate

// Level is a WCAG conformance level. Levels are ordered: A < AA < AAA.
type Level int

const (
	LevelA Level = iota
	LevelAA
	LevelAAA
)

func (l Level) String() string {
	switch l {
	case LevelA:
		return "A"
	case LevelAA:
		return "AA"
	case LevelAAA:
		return "AAA"
	}
	return "Unknown"
}

// ParseLevel maps a level name to its Level, defaulting to AA.
func ParseLevel(s string) Level {
	switch s {
	case "A", "a":
		return LevelA
	case "AAA", "aaa":
		return LevelAAA
	}
	return LevelAA
}

// Criterion is one WCAG success criterion the validator knows about.
type Criterion struct {
	ID          string
	Name        string
	Level       Level
	Description string
}

// defaultCriteria is the criterion registry. New's copy of it is what the
// validator consults, so a caller can never mutate shared state.
var defaultCriteria = []Criterion{
	{"1.1.1", "Non-text Content", LevelA,
		"All non-text content has a text alternative"},
	{"1.3.1", "Info and Relationships", LevelA,
		"Information and relationships conveyed through presentation can be programmatically determined"},
	{"1.3.2", "Meaningful Sequence", LevelA,
		"Reading order can be programmatically determined"},
	{"1.4.3", "Contrast (Minimum)", LevelAA,
		"Text has a contrast ratio of at least 4.5:1"},
	{"1.4.6", "Contrast (Enhanced)", LevelAAA,
		"Text has a contrast ratio of at least 7:1"},
	{"2.4.1", "Bypass Blocks", LevelA,
		"A mechanism is available to bypass blocks of content"},
	{"2.4.2", "Page Titled", LevelA,
		"Document has a title that describes topic or purpose"},
	{"2.4.4", "Link Purpose", LevelA,
		"The purpose of each link can be determined from the link text"},
	{"2.4.6", "Headings and Labels", LevelAA,
		"Headings and labels describe topic or purpose"},
	{"3.1.1", "Language of Page", LevelA,
		"Default human language can be programmatically determined"},
	{"3.1.2", "Language of Parts", LevelAA,
		"Language of passages can be programmatically determined"},
	{"4.1.2", "Name, Role, Value", LevelA,
		"For all UI components, name and role can be programmatically determined"},
}

// screenReaderBlockers are criteria whose failure makes a document unusable
// with assistive technology; they sort ahead of peers in PrioritizeIssues.
var screenReaderBlockers = map[string]struct{}{
	"1.3.1": {},
	"1.3.2": {},
	"1.1.1": {},
	"2.4.2": {},
	"3.1.1": {},
}
