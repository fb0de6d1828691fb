package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/openfroyo/scaffolder/pkg/engine"
	"github.com/openfroyo/scaffolder/pkg/progress"
)

// EnvAccountPassword supplies the account password without putting it on
// the command line.
const EnvAccountPassword = "SCAFFOLDER_ACCOUNT_PASSWORD"

// requestFlags are the request parameters shared by create and validate.
type requestFlags struct {
	framework  bool
	packages   []string
	timezone   string
	submodules string
	username   string
	email      string
}

func (f *requestFlags) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.framework, "framework", false, "install the web framework and generate a skeleton")
	cmd.Flags().StringArrayVarP(&f.packages, "package", "p", nil, "catalog package to install (repeatable)")
	cmd.Flags().StringVar(&f.timezone, "timezone", "", "timezone written to the settings (default from config)")
	cmd.Flags().StringVar(&f.submodules, "apps", "", "comma separated sub-modules to generate")
	cmd.Flags().StringVar(&f.username, "account-username", "", "create an administrative account with this username")
	cmd.Flags().StringVar(&f.email, "account-email", "", "account email (default from config)")
}

func (f *requestFlags) raw(project string) engine.RawParams {
	return engine.RawParams{
		ProjectName:     project,
		Framework:       f.framework,
		Packages:        f.packages,
		Timezone:        f.timezone,
		Submodules:      f.submodules,
		AccountUsername: f.username,
		AccountEmail:    f.email,
		AccountPassword: os.Getenv(EnvAccountPassword),
	}
}

func newCreateCommand() *cobra.Command {
	var flags requestFlags

	cmd := &cobra.Command{
		Use:   "create <project>",
		Short: "Provision a new project",
		Long: `Provision a new project under the configured projects root.

The run creates the project folder and an isolated environment, installs
the selected catalog packages and, with --framework, generates the
skeleton, registers installed apps, sets the timezone, generates
sub-modules, writes start scripts, applies migrations and creates the
administrative account.

Requesting sub-modules or an account turns the framework on. The account
password is read from SCAFFOLDER_ACCOUNT_PASSWORD, or the configured
default is used.`,
		Example: `  # Plain environment with two packages
  scaffolder create demo -p pytest -p gunicorn

  # Framework project with sub-modules and an account
  SCAFFOLDER_ACCOUNT_PASSWORD=s3cret scaffolder create shop \
    --framework --apps blog,cart --timezone Europe/Paris --account-username admin

  # Machine readable progress
  scaffolder create demo --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			var ch progress.Channel = progress.NewConsole(cmd.OutOrStdout())
			if jsonOutput {
				ch = progress.NewJSONLines(cmd.OutOrStdout())
			}

			out, err := a.pipeline.Provision(ctx, flags.raw(args[0]), a.catalog.Catalog(), ch)
			if err != nil {
				return err
			}

			a.logger.Debug().
				Str("run_id", out.RunID).
				Dur("duration", out.Duration).
				Int("warnings", out.Warnings).
				Msg("Project provisioned")
			return nil
		},
	}

	flags.bind(cmd)
	return cmd
}
