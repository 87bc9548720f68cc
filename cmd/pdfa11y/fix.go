package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/a11ykit/pdfa11y/ai"
	"github.com/a11ykit/pdfa11y/config"
	"github.com/a11ykit/pdfa11y/detect"
	"github.com/a11ykit/pdfa11y/ir/semantic"
	"github.com/a11ykit/pdfa11y/observability"
	"github.com/a11ykit/pdfa11y/structure"
	"github.com/a11ykit/pdfa11y/validate"
)

// NewFixCmd creates the fix command.
func NewFixCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fix <file>",
		Short: "Apply automatic accessibility fixes to a PDF",
		Long: `Fix applies the repairs the validator marks as auto-fixable: document
tagging, title, language, heading tags for detected headings, and alt
text for untagged images. With an AI backend configured, alt text is
generated; otherwise a deterministic placeholder is written.

Examples:
  # Fix and write alongside the original
  pdfa11y fix report.pdf

  # Fix to an explicit output path
  pdfa11y fix -o fixed.pdf report.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: runFixCmd,
	}
	cmd.Flags().StringP("level", "l", "", "Target WCAG level: A, AA or AAA (default from config)")
	cmd.Flags().StringP("output", "o", "", "Output path (default: <name>_accessible.pdf)")
	return cmd
}

func runFixCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := setupLogger(cmd, cfg)
	target := targetLevel(cmd, cfg)

	a, err := structure.OpenFile(args[0], structure.WithLogger(log))
	if err != nil {
		return err
	}
	defer a.Close()
	doc := a.Document()

	v := validate.New(validate.WithLogger(log))
	before := v.Validate(doc, target)
	if len(validate.GetFixSuggestions(before)) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to fix")
		return nil
	}

	applied := applyFixes(cmd.Context(), a, cfg, log)
	after := v.Validate(doc, target)

	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		out = derivedOutputPath(args[0], cfg)
	}
	if err := a.SaveFile(out); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: applied %d fix(es), score %.1f -> %.1f, wrote %s\n",
		args[0], applied, before.Score, after.Score, out)
	return nil
}

// applyFixes repairs the document in place and returns how many fixes were
// applied. The order mirrors fix priority: structural tagging first, then
// metadata, then content tags.
func applyFixes(ctx context.Context, a *structure.Adapter, cfg config.Config, log observability.Logger) int {
	doc := a.Document()
	applied := 0

	if !doc.IsTagged || !doc.HasStructure {
		if a.EnsureTagged() {
			applied++
		}
	}
	if strings.TrimSpace(doc.Title) == "" {
		if a.SetTitle(suggestTitle(doc)) {
			applied++
		}
	}
	if doc.Language == "" {
		if a.SetLanguage(cfg.Processing.DefaultLanguage) {
			applied++
		}
	}

	suggester := newSuggester(cfg, log)
	for _, page := range doc.Pages {
		applied += fixPageImages(ctx, a, page, doc, suggester)
	}
	applied += fixHeadings(a, doc)
	return applied
}

// fixPageImages tags a Figure node with alt text for every image that has no
// matching alt entry on its page.
func fixPageImages(ctx context.Context, a *structure.Adapter, page *semantic.Page, doc *semantic.Document, suggester *ai.Suggester) int {
	withAlt := 0
	for _, entry := range doc.AltTextMap[page.Number] {
		if strings.TrimSpace(entry.AltText) != "" {
			withAlt++
		}
	}
	applied := 0
	for i, img := range page.Images {
		if i < withAlt {
			continue
		}
		alt := suggester.AltText(ctx, page.Number, nil, page.Text)
		if a.AddTag(page.Number, img.BBox, semantic.TagFigure, alt) {
			applied++
		}
	}
	return applied
}

// fixHeadings tags detected headings when the document has none tagged.
func fixHeadings(a *structure.Adapter, doc *semantic.Document) int {
	for _, page := range doc.Pages {
		for _, el := range page.Elements {
			if el.Tag.IsHeading() {
				return 0
			}
		}
	}
	applied := 0
	for _, page := range doc.Pages {
		for _, cand := range detect.Headings(page) {
			tag := semantic.HeadingTag(cand.Level)
			if a.AddTag(page.Number, cand.Element.BBox, tag, "") {
				cand.Element.Tag = tag
				applied++
			}
		}
	}
	return applied
}

// newSuggester wires the AI backend when enabled; otherwise suggestions are
// deterministic placeholders.
func newSuggester(cfg config.Config, log observability.Logger) *ai.Suggester {
	if !cfg.AI.Enabled {
		return ai.NewSuggester(nil, ai.WithLogger(log))
	}
	client := ai.NewClient(ai.ClientConfig{
		BaseURL:      cfg.AI.BaseURL,
		APIKey:       cfg.AI.APIKey,
		Model:        cfg.AI.Model,
		MaxImageEdge: cfg.AI.MaxImageEdge,
	})
	return ai.NewSuggester(client, ai.WithLogger(log))
}

// suggestTitle picks the first substantial line of page 1, falling back to a
// cleaned-up filename.
func suggestTitle(doc *semantic.Document) string {
	if len(doc.Pages) > 0 {
		elements := doc.Pages[0].Elements
		if len(elements) > 5 {
			elements = elements[:5]
		}
		for _, el := range elements {
			text := strings.TrimSpace(el.Text)
			if len(text) > 10 && len(text) < 100 {
				return text
			}
		}
	}
	base := filepath.Base(doc.Path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	if stem == "" {
		return "Untitled document " + time.Now().Format("2006-01-02")
	}
	return cases.Title(language.English).String(stem)
}

// derivedOutputPath places the fixed file next to the original, never
// overwriting it unless the config says originals need not be preserved.
func derivedOutputPath(in string, cfg config.Config) string {
	if !cfg.Processing.PreserveOriginal {
		return in
	}
	ext := filepath.Ext(in)
	return strings.TrimSuffix(in, ext) + "_accessible" + ext
}
