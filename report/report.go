// Package report renders a validation result as a Markdown compliance
// report. It consumes only the public validate types, so callers can feed it
// results from anywhere.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"github.com/a11ykit/pdfa11y/ir/semantic"
	"github.com/a11ykit/pdfa11y/validate"
)

// Writer renders compliance reports to an io.Writer.
type Writer struct {
	output io.Writer
	now    func() time.Time
}

// NewWriter builds a report writer targeting output.
func NewWriter(output io.Writer) *Writer {
	return &Writer{output: output, now: time.Now}
}

// Write renders the full report for one validated document.
func (w *Writer) Write(doc *semantic.Document, result *validate.Result) error {
	md := markdown.NewMarkdown(w.output)

	writeHeader(md, doc, result, w.now())
	writeVerdict(md, result)
	writeIssues(md, result)
	writeFixPlan(md, result)
	writeCriteria(md, result)

	return md.Build()
}

func writeHeader(md *markdown.Markdown, doc *semantic.Document, result *validate.Result, at time.Time) {
	md.H1("Accessibility Compliance Report")
	md.PlainText("")

	title := doc.Title
	if title == "" {
		title = "(untitled)"
	}
	lang := doc.Language
	if lang == "" {
		lang = "(not set)"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"File", "`" + filepath.Base(doc.Path) + "`"},
			{"Title", title},
			{"Language", lang},
			{"Pages", strconv.Itoa(doc.PageCount())},
			{"Tagged", yesNo(doc.IsTagged)},
			{"Structure tree", yesNo(doc.HasStructure)},
			{"Target level", "WCAG 2.1 " + result.Level.String()},
			{"Checked", at.Format("2006-01-02 15:04:05 MST")},
		},
	})
	md.PlainText("")
}

func writeVerdict(md *markdown.Markdown, result *validate.Result) {
	md.H2("Verdict")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Score", fmt.Sprintf("%.1f / 100", result.Score)},
			{"Errors", strconv.Itoa(result.Summary.Errors)},
			{"Warnings", strconv.Itoa(result.Summary.Warnings)},
			{"Info", strconv.Itoa(result.Summary.Info)},
		},
	})
	md.PlainText("")

	switch {
	case result.IsCompliant && result.Summary.Total == 0:
		md.Tip("No accessibility issues found.")
	case result.IsCompliant:
		md.Note("No blocking errors, but there are findings worth reviewing below.")
	default:
		md.Cautionf("%d error(s) block compliance at level %s.",
			result.Summary.Errors, result.Level)
	}
	md.PlainText("")
}

func writeIssues(md *markdown.Markdown, result *validate.Result) {
	md.H2("Findings")
	md.PlainText("")
	if len(result.Issues) == 0 {
		md.PlainText("None.")
		md.PlainText("")
		return
	}

	sections := []struct {
		severity validate.Severity
		header   string
	}{
		{validate.Error, "### Errors"},
		{validate.Warning, "### Warnings"},
		{validate.Info, "### Info"},
	}
	for _, sec := range sections {
		var rows [][]string
		for _, issue := range result.Issues {
			if issue.Severity != sec.severity {
				continue
			}
			rows = append(rows, []string{
				issue.Criterion,
				clip(issue.Message, 80),
				pageCell(issue.Page),
				clip(issue.Suggestion, 60),
			})
		}
		if len(rows) == 0 {
			continue
		}
		md.PlainText(sec.header)
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Criterion", "Message", "Page", "Suggestion"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

func writeFixPlan(md *markdown.Markdown, result *validate.Result) {
	fixes := validate.GetFixSuggestions(result)
	if len(fixes) == 0 {
		return
	}
	md.H2("Automatic Fix Plan")
	md.PlainText("")
	items := make([]string, len(fixes))
	for i, fix := range fixes {
		items[i] = fmt.Sprintf("**%s** [%s] %s", fix.Priority, fix.Criterion, fix.Message)
	}
	md.OrderedList(items...)
	md.PlainText("")
}

func writeCriteria(md *markdown.Markdown, result *validate.Result) {
	md.H2("Criteria")
	md.PlainText("")
	rows := make([][]string, 0, len(result.PassedCriteria)+len(result.FailedCriteria))
	for _, id := range result.FailedCriteria {
		rows = append(rows, []string{id, "failed"})
	}
	for _, id := range result.PassedCriteria {
		rows = append(rows, []string{id, "passed"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Criterion", "Status"},
		Rows:   rows,
	})
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func pageCell(page int) string {
	if page == 0 {
		return "-"
	}
	return strconv.Itoa(page)
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
