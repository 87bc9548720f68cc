// Package validate runs the accessibility checks over a semantic document
// and grades the outcome against a WCAG conformance level. Validation is a
// pure read: it never mutates the document, and a panicking check is treated
// as producing no findings rather than aborting the pass.
package validate

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/a11ykit/pdfa11y/contrast"
	"github.com/a11ykit/pdfa11y/detect"
	"github.com/a11ykit/pdfa11y/ir/semantic"
	"github.com/a11ykit/pdfa11y/observability"
)

// Validator holds the criterion registry and diagnostics sink. The registry
// is copied at construction so results are stable for the validator's
// lifetime.
type Validator struct {
	criteria map[string]Criterion
	log      observability.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger routes check diagnostics to log.
func WithLogger(log observability.Logger) Option {
	return func(v *Validator) { v.log = log }
}

// New builds a Validator over the default criterion registry.
func New(opts ...Option) *Validator {
	v := &Validator{
		criteria: make(map[string]Criterion, len(defaultCriteria)),
		log:      observability.NopLogger{},
	}
	for _, c := range defaultCriteria {
		v.criteria[c.ID] = c
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// CriterionInfo returns the registry entry for a criterion ID.
func (v *Validator) CriterionInfo(id string) (Criterion, bool) {
	c, ok := v.criteria[id]
	return c, ok
}

// check is one named validation step.
type check struct {
	name string
	fn   func(*semantic.Document, Level) []Issue
}

// Validate runs the fixed check sequence and scores the result against
// target. Checks run in a stable order so issue lists are reproducible.
func (v *Validator) Validate(doc *semantic.Document, target Level) *Result {
	checks := []check{
		{"title", v.checkTitle},
		{"language", v.checkLanguage},
		{"tagged", v.checkTagged},
		{"reading-order", v.checkReadingOrder},
		{"headings", v.checkHeadings},
		{"images", v.checkImages},
		{"tables", v.checkTables},
		{"links", v.checkLinks},
		{"contrast", v.checkContrast},
	}
	var issues []Issue
	for _, c := range checks {
		issues = append(issues, v.run(c, doc, target)...)
	}
	return v.score(issues, target)
}

// run executes one check, converting a panic into "no findings". A detector
// tripping over malformed input must not take down the whole pass.
func (v *Validator) run(c check, doc *semantic.Document, target Level) (issues []Issue) {
	defer func() {
		if r := recover(); r != nil {
			v.log.Error("validation check failed, skipping",
				observability.String("check", c.name),
				observability.String("panic", fmt.Sprint(r)))
			issues = nil
		}
	}()
	return c.fn(doc, target)
}

func (v *Validator) checkTitle(doc *semantic.Document, _ Level) []Issue {
	var issues []Issue
	if strings.TrimSpace(doc.Title) == "" {
		issues = append(issues, Issue{
			Criterion:   "2.4.2",
			Severity:    Error,
			Message:     "Document does not have a title",
			Suggestion:  "Add a descriptive title that describes the document's topic or purpose",
			AutoFixable: true,
		})
	} else if doc.Title == fileStem(doc.Path) {
		issues = append(issues, Issue{
			Criterion:   "2.4.2",
			Severity:    Warning,
			Message:     "Document title appears to be the filename",
			Suggestion:  "Use a descriptive title instead of the filename",
			AutoFixable: true,
		})
	}
	return issues
}

func (v *Validator) checkLanguage(doc *semantic.Document, _ Level) []Issue {
	var issues []Issue
	if doc.Language == "" {
		issues = append(issues, Issue{
			Criterion:   "3.1.1",
			Severity:    Error,
			Message:     "Document language is not specified",
			Suggestion:  "Set the document language (e.g., 'en' for English)",
			AutoFixable: true,
		})
	} else if len(doc.Language) < 2 {
		issues = append(issues, Issue{
			Criterion:  "3.1.1",
			Severity:   Warning,
			Message:    fmt.Sprintf("Document language %q may not be a valid language code", doc.Language),
			Suggestion: "Use a valid BCP 47 language code (e.g., 'en', 'en-US', 'es')",
		})
	}
	return issues
}

func (v *Validator) checkTagged(doc *semantic.Document, _ Level) []Issue {
	var issues []Issue
	if !doc.IsTagged {
		issues = append(issues, Issue{
			Criterion:   "1.3.1",
			Severity:    Error,
			Message:     "PDF is not tagged",
			Suggestion:  "Add PDF tags to define document structure",
			AutoFixable: true,
		})
	}
	if !doc.HasStructure {
		issues = append(issues, Issue{
			Criterion:   "1.3.2",
			Severity:    Error,
			Message:     "PDF does not have a structure tree",
			Suggestion:  "Create a structure tree to define reading order",
			AutoFixable: true,
		})
	}
	return issues
}

func (v *Validator) checkReadingOrder(doc *semantic.Document, _ Level) []Issue {
	var issues []Issue
	// Without a structure tree there is no declared order to verify, no
	// matter how many pages there are.
	if !doc.HasStructure {
		issues = append(issues, Issue{
			Criterion:  "1.3.2",
			Severity:   Warning,
			Message:    "No structure tree: reading order cannot be verified",
			Suggestion: "Add a structure tree to define explicit reading order",
		})
	}
	for _, page := range doc.Pages {
		finding := detect.ReadingOrder(page)
		if finding.Mismatch {
			issues = append(issues, Issue{
				Criterion:  "1.3.2",
				Severity:   Warning,
				Message:    fmt.Sprintf("Reading order on page %d may not match visual order", page.Number),
				Page:       page.Number,
				Suggestion: "Review and adjust the reading order for logical flow",
			})
		}
	}
	return issues
}

func (v *Validator) checkHeadings(doc *semantic.Document, _ Level) []Issue {
	var issues []Issue

	var candidates []detect.HeadingCandidate
	for _, page := range doc.Pages {
		candidates = append(candidates, detect.Headings(page)...)
	}
	if len(candidates) == 0 && doc.PageCount() > 1 {
		issues = append(issues, Issue{
			Criterion:  "2.4.6",
			Severity:   Warning,
			Message:    "No headings detected in document",
			Suggestion: "Add headings to provide document structure",
		})
	}

	var tagged []*semantic.Element
	for _, page := range doc.Pages {
		for _, el := range page.Elements {
			if el.Tag.IsHeading() {
				tagged = append(tagged, el)
			}
		}
	}
	if len(candidates) > 0 && len(tagged) == 0 {
		issues = append(issues, Issue{
			Criterion:   "1.3.1",
			Severity:    Warning,
			Message:     "Headings are not properly tagged",
			Suggestion:  "Tag headings using H1-H6 structure elements",
			AutoFixable: true,
		})
	}

	// Hierarchy check walks tagged headings in document order and flags any
	// jump of more than one level.
	currentLevel := 0
	for _, el := range tagged {
		level := el.Tag.HeadingLevel()
		if level > currentLevel+1 {
			issues = append(issues, Issue{
				Criterion:   "1.3.1",
				Severity:    Error,
				Message:     fmt.Sprintf("Heading level skipped: H%d to H%d", currentLevel, level),
				Page:        el.PageNumber,
				Element:     truncate(el.Text, 50),
				Suggestion:  fmt.Sprintf("Use H%d instead of H%d", currentLevel+1, level),
				AutoFixable: true,
			})
		}
		currentLevel = level
	}
	return issues
}

func (v *Validator) checkImages(doc *semantic.Document, _ Level) []Issue {
	var issues []Issue
	for _, page := range doc.Pages {
		withAlt := 0
		for _, entry := range doc.AltTextMap[page.Number] {
			if strings.TrimSpace(entry.AltText) != "" {
				withAlt++
			}
		}
		// Figures with alt text are matched to images positionally; any
		// image beyond that count has no alternative.
		for i, img := range page.Images {
			if i < withAlt {
				continue
			}
			issues = append(issues, Issue{
				Criterion:   "1.1.1",
				Severity:    Error,
				Message:     fmt.Sprintf("Image on page %d lacks alt text", page.Number),
				Page:        page.Number,
				Element:     fmt.Sprintf("Image %d", img.Index+1),
				Suggestion:  "Add descriptive alt text for the image",
				AutoFixable: true,
			})
		}
	}
	return issues
}

func (v *Validator) checkTables(doc *semantic.Document, _ Level) []Issue {
	var issues []Issue
	for _, page := range doc.Pages {
		hasTableTag := false
		for _, el := range page.Elements {
			if el.Tag == semantic.TagTable {
				hasTableTag = true
				issues = append(issues, Issue{
					Criterion:  "1.3.1",
					Severity:   Info,
					Message:    fmt.Sprintf("Table on page %d: verify header cells are marked", page.Number),
					Page:       page.Number,
					Suggestion: "Ensure table headers use TH tags with scope attributes",
				})
			}
		}
		if hasTableTag {
			continue
		}
		for _, cand := range detect.Tables(page) {
			issues = append(issues, Issue{
				Criterion: "1.3.1",
				Severity:  Warning,
				Message: fmt.Sprintf("Possible untagged table on page %d (%d rows, ~%d columns detected)",
					page.Number, cand.RowCount, cand.ColCount),
				Page:       page.Number,
				Suggestion: "Tag the table with Table, TR, TH, and TD elements",
			})
		}
	}
	return issues
}

func (v *Validator) checkLinks(doc *semantic.Document, _ Level) []Issue {
	var issues []Issue
	for _, page := range doc.Pages {
		for _, finding := range detect.Links(page) {
			issues = append(issues, Issue{
				Criterion:   "2.4.4",
				Severity:    Error,
				Message:     fmt.Sprintf("Non-descriptive link text: %q", finding.Element.Text),
				Page:        page.Number,
				Element:     truncate(finding.Element.Text, 50),
				Suggestion:  "Use descriptive text that indicates the link's purpose",
				AutoFixable: true,
			})
		}

		// URI annotations with no Link-tagged elements anywhere on the page
		// are invisible to assistive technology.
		uriLinks := 0
		for _, l := range page.Links {
			if l.URI != "" {
				uriLinks++
			}
		}
		taggedLinks := 0
		for _, el := range page.Elements {
			if el.Tag == semantic.TagLink {
				taggedLinks++
			}
		}
		if uriLinks > 0 && taggedLinks == 0 {
			issues = append(issues, Issue{
				Criterion: "1.3.1",
				Severity:  Warning,
				Message: fmt.Sprintf("%d hyperlink(s) on page %d are not tagged as Link elements",
					uriLinks, page.Number),
				Page:       page.Number,
				Suggestion: "Tag hyperlinks with Link structure elements for accessibility",
			})
		}
	}
	return issues
}

func (v *Validator) checkContrast(doc *semantic.Document, target Level) []Issue {
	var issues []Issue
	// Background color is not tracked per element; white is assumed.
	const white = 0xFFFFFF
	for _, page := range doc.Pages {
		for _, el := range page.Elements {
			if el.Kind != semantic.KindText {
				continue
			}
			ratio := contrast.RatioRGB(el.Attributes.Color, white)
			large := contrast.IsLargeText(el.Attributes.Size, el.Attributes.Bold())

			aa := contrast.Threshold(LevelAA.String(), large)
			if ratio < aa {
				issues = append(issues, Issue{
					Criterion: "1.4.3",
					Severity:  Error,
					Message: fmt.Sprintf("Insufficient contrast %.1f:1 (needs %.1f:1) on page %d: %q",
						ratio, aa, page.Number, truncate(el.Text, 40)),
					Page:       page.Number,
					Element:    truncate(el.Text, 50),
					Suggestion: fmt.Sprintf("Increase text contrast to at least %.1f:1", aa),
				})
				continue
			}
			if target != LevelAAA {
				continue
			}
			aaa := contrast.Threshold(LevelAAA.String(), large)
			if ratio < aaa {
				issues = append(issues, Issue{
					Criterion: "1.4.6",
					Severity:  Warning,
					Message: fmt.Sprintf("Contrast %.1f:1 below AAA threshold (%.1f:1) on page %d: %q",
						ratio, aaa, page.Number, truncate(el.Text, 40)),
					Page:       page.Number,
					Element:    truncate(el.Text, 50),
					Suggestion: fmt.Sprintf("Increase text contrast to at least %.1f:1 for AAA", aaa),
				})
			}
		}
	}
	return issues
}

// score turns the issue list into a graded Result.
func (v *Validator) score(issues []Issue, target Level) *Result {
	var sum Summary
	failed := make(map[string]struct{})
	for _, issue := range issues {
		switch issue.Severity {
		case Error:
			sum.Errors++
			failed[issue.Criterion] = struct{}{}
		case Warning:
			sum.Warnings++
		case Info:
			sum.Info++
		}
	}
	sum.Total = len(issues)

	var targetIDs, passedIDs, failedIDs []string
	for id, c := range v.criteria {
		if c.Level <= target {
			targetIDs = append(targetIDs, id)
			if _, bad := failed[id]; !bad {
				passedIDs = append(passedIDs, id)
			}
		}
	}
	for id := range failed {
		failedIDs = append(failedIDs, id)
	}
	sort.Strings(targetIDs)
	sort.Strings(passedIDs)
	sort.Strings(failedIDs)

	var score float64
	switch {
	case len(targetIDs) > 0:
		score = float64(len(passedIDs)) / float64(len(targetIDs)) * 100
	case sum.Errors == 0:
		score = 100
	}

	return &Result{
		IsCompliant:    sum.Errors == 0,
		Level:          target,
		Score:          roundScore(score),
		Issues:         issues,
		PassedCriteria: passedIDs,
		FailedCriteria: failedIDs,
		Summary:        sum,
	}
}

// GetFixSuggestions returns the auto-fixable issues as a plan: errors first
// at high priority, then warnings at medium, each tier in original order.
func GetFixSuggestions(result *Result) []FixSuggestion {
	var fixes []FixSuggestion
	for _, issue := range result.Issues {
		if issue.AutoFixable && issue.Severity == Error {
			fixes = append(fixes, suggestion(issue, "high"))
		}
	}
	for _, issue := range result.Issues {
		if issue.AutoFixable && issue.Severity == Warning {
			fixes = append(fixes, suggestion(issue, "medium"))
		}
	}
	return fixes
}

func suggestion(issue Issue, priority string) FixSuggestion {
	return FixSuggestion{
		Criterion:  issue.Criterion,
		Message:    issue.Message,
		Suggestion: issue.Suggestion,
		Priority:   priority,
		Page:       issue.Page,
	}
}

// PrioritizeIssues sorts a copy of issues by WCAG level (A first), then
// severity (errors first), with screen-reader-blocking criteria ahead of
// their peers. Unknown criteria sort as AAA.
func (v *Validator) PrioritizeIssues(issues []Issue) []Issue {
	out := make([]Issue, len(issues))
	copy(out, issues)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := v.issueKey(out[i]), v.issueKey(out[j])
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
	return out
}

func (v *Validator) issueKey(issue Issue) [3]int {
	level := LevelAAA
	if c, ok := v.criteria[issue.Criterion]; ok {
		level = c.Level
	}
	blocker := 1
	if _, ok := screenReaderBlockers[issue.Criterion]; ok {
		blocker = 0
	}
	return [3]int{int(level), int(issue.Severity), blocker}
}

// fileStem is the base name of path without its extension.
func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// roundScore keeps one decimal place.
func roundScore(s float64) float64 {
	return float64(int(s*10+0.5)) / 10
}
