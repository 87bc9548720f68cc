package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/a11ykit/pdfa11y/config"
	"github.com/a11ykit/pdfa11y/pipeline"
	"github.com/a11ykit/pdfa11y/validate"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate PDF files against WCAG criteria",
		Long: `Validate opens each PDF, runs the accessibility checks and prints a
per-file summary. The exit status is non-zero when any file has errors.

Examples:
  # Validate a single file at the default level (AA)
  pdfa11y validate report.pdf

  # Validate a batch at level AAA
  pdfa11y validate --level AAA *.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: runValidateCmd,
	}
	cmd.Flags().StringP("level", "l", "", "Target WCAG level: A, AA or AAA (default from config)")
	cmd.Flags().IntP("batch", "b", 0, "Number of files validated concurrently")
	return cmd
}

func runValidateCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log := setupLogger(cmd, cfg)
	target := targetLevel(cmd, cfg)

	concurrency := cfg.Processing.BatchLimit
	if n, _ := cmd.Flags().GetInt("batch"); n > 0 {
		concurrency = n
	}
	v := validate.New(validate.WithLogger(log))
	runner := pipeline.NewRunner(v,
		pipeline.WithConcurrency(concurrency),
		pipeline.WithLogger(log))

	outcomes, err := runner.Batch(cmd.Context(), args, target)
	if err != nil {
		return err
	}

	failed := 0
	out := cmd.OutOrStdout()
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			fmt.Fprintf(out, "%s: %v\n", o.Path, o.Err)
			continue
		}
		r := o.Result
		fmt.Fprintf(out, "%s: score %.1f/100, %d error(s), %d warning(s), level %s\n",
			o.Path, r.Score, r.Summary.Errors, r.Summary.Warnings, r.Level)
		if !r.IsCompliant {
			failed++
		}
		for _, issue := range v.PrioritizeIssues(r.Issues) {
			fmt.Fprintf(out, "  [%s] %s: %s\n", issue.Severity, issue.Criterion, issue.Message)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed validation", failed, len(outcomes))
	}
	return nil
}

// targetLevel resolves the WCAG level from the flag, then the config.
func targetLevel(cmd *cobra.Command, cfg config.Config) validate.Level {
	if s, _ := cmd.Flags().GetString("level"); s != "" {
		return validate.ParseLevel(s)
	}
	return validate.ParseLevel(cfg.Validation.TargetLevel)
}
