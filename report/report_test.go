package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/a11ykit/pdfa11y/ir/semantic"
	"github.com/a11ykit/pdfa11y/validate"
)

func fixedClock() time.Time {
	return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
}

func TestWrite_FullReport(t *testing.T) {
	doc := &semantic.Document{
		Path:     "/docs/annual_report.pdf",
		Title:    "Annual Report",
		Language: "en",
		IsTagged: true,
		Pages:    []*semantic.Page{{Number: 1}},
	}
	result := &validate.Result{
		Level: validate.LevelAA,
		Score: 81.8,
		Issues: []validate.Issue{
			{Criterion: "1.1.1", Severity: validate.Error, Page: 1,
				Message: "Image on page 1 lacks alt text", Suggestion: "Add alt text",
				AutoFixable: true},
			{Criterion: "1.3.1", Severity: validate.Warning,
				Message: "Headings are not properly tagged", AutoFixable: true},
		},
		PassedCriteria: []string{"2.4.2", "3.1.1"},
		FailedCriteria: []string{"1.1.1"},
		Summary:        validate.Summary{Errors: 1, Warnings: 1, Total: 2},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.now = fixedClock
	if err := w.Write(doc, result); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Accessibility Compliance Report",
		"annual_report.pdf",
		"WCAG 2.1 AA",
		"81.8 / 100",
		"### Errors",
		"Image on page 1 lacks alt text",
		"### Warnings",
		"## Automatic Fix Plan",
		"**high** [1.1.1]",
		"**medium** [1.3.1]",
		"2026-03-14",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q\n---\n%s", want, out)
		}
	}
}

func TestWrite_CleanDocument(t *testing.T) {
	doc := &semantic.Document{Path: "clean.pdf", Title: "Clean", Language: "en"}
	result := &validate.Result{
		Level:          validate.LevelAA,
		Score:          100,
		IsCompliant:    true,
		PassedCriteria: []string{"2.4.2"},
	}

	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.now = fixedClock
	if err := w.Write(doc, result); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "No accessibility issues found") {
		t.Errorf("missing clean verdict:\n%s", out)
	}
	if strings.Contains(out, "Automatic Fix Plan") {
		t.Error("fix plan rendered with nothing to fix")
	}
}

func TestClip(t *testing.T) {
	if got := clip("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := clip("a very long message indeed", 10); got != "a very ..." {
		t.Errorf("got %q", got)
	}
}
