package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/a11ykit/pdfa11y/report"
	"github.com/a11ykit/pdfa11y/structure"
	"github.com/a11ykit/pdfa11y/validate"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "Write a Markdown compliance report for a PDF",
		Long: `Report validates one PDF and renders the result as Markdown.

Examples:
  # Print the report to stdout
  pdfa11y report report.pdf

  # Write it to a file
  pdfa11y report -o report.md report.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: runReportCmd,
	}
	cmd.Flags().StringP("level", "l", "", "Target WCAG level: A, AA or AAA (default from config)")
	cmd.Flags().StringP("output", "o", "", "Write the report to this path instead of stdout")
	return cmd
}

func runReportCmd(cmd *cobra.Command, args []string) error {
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

	result := validate.New(validate.WithLogger(log)).Validate(a.Document(), target)

	out := cmd.OutOrStdout()
	if path, _ := cmd.Flags().GetString("output"); path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return report.NewWriter(out).Write(a.Document(), result)
}
