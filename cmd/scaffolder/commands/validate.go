package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openfroyo/scaffolder/pkg/engine"
	"github.com/openfroyo/scaffolder/pkg/policy"
)

type validateReport struct {
	Project    string            `json:"project"`
	Framework  bool              `json:"framework"`
	Packages   []string          `json:"packages"`
	Timezone   string            `json:"timezone"`
	Submodules []string          `json:"submodules"`
	Notices    []engine.Notice   `json:"notices,omitempty"`
	Policy     *policy.Result    `json:"policy"`
	Steps      []engine.StepName `json:"steps"`
}

func newValidateCommand() *cobra.Command {
	var flags requestFlags

	cmd := &cobra.Command{
		Use:   "validate <project>",
		Short: "Check a request without running it",
		Long: `Parse a request against the catalog and evaluate the admission policies,
without touching the filesystem.

This command reports:
  - the sanitized project name and resolved timezone
  - skipped packages and sub-modules
  - policy warnings and violations
  - the steps a run would execute`,
		Example: `  # Check a framework project
  scaffolder validate shop --framework --apps blog,shop

  # JSON report
  scaffolder validate shop -p celery --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			req, notices, err := engine.ParseParams(flags.raw(args[0]), a.catalog.Catalog(), a.cfg.Defaults)
			if err != nil {
				return err
			}

			result, err := a.policies.Evaluate(ctx, policy.NewInput(req, a.cfg.Defaults))
			if err != nil {
				return err
			}

			report := validateReport{
				Project:    req.Project(),
				Framework:  req.Framework(),
				Packages:   req.Packages(),
				Timezone:   req.Timezone(),
				Submodules: req.Submodules(),
				Notices:    notices,
				Policy:     result,
				Steps:      a.pipeline.Plan(req),
			}

			w := cmd.OutOrStdout()
			if jsonOutput {
				if err := writeJSON(w, report); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(w, "Project:    %s\n", report.Project)
				fmt.Fprintf(w, "Framework:  %v\n", report.Framework)
				fmt.Fprintf(w, "Packages:   %s\n", strings.Join(report.Packages, ", "))
				fmt.Fprintf(w, "Timezone:   %s\n", report.Timezone)
				fmt.Fprintf(w, "Sub-modules: %s\n", strings.Join(report.Submodules, ", "))
				for _, n := range notices {
					fmt.Fprintf(w, "  %s: %s\n", n.Level, n.Message)
				}
				for _, v := range result.Warnings {
					fmt.Fprintf(w, "  ⚠ [%s] %s\n", v.Policy, v.Message)
				}
				for _, v := range result.Violations {
					fmt.Fprintf(w, "  ✖ [%s] %s\n", v.Policy, v.Message)
				}
				fmt.Fprintln(w, "Steps:")
				for i, s := range report.Steps {
					fmt.Fprintf(w, "  %2d. %s\n", i+1, s)
				}
			}

			if !result.Allowed {
				return engine.NewValidationError("request rejected by policy", nil).WithCode(engine.ErrCodePolicyDenied)
			}
			return nil
		},
	}

	flags.bind(cmd)
	return cmd
}
