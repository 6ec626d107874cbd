package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/devblac/semaphore-cli/internal/scaffold"
	"github.com/devblac/semaphore-cli/internal/ui"
	"github.com/devblac/semaphore-cli/internal/update"
)

var createCmd = &cobra.Command{
	Use:   "create [project-directory]",
	Short: "Create a Semaphore project with a supported template",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()

		ctx := cmd.Context()
		var dir string
		if len(args) > 0 {
			dir = args[0]
		} else {
			dir, err = a.prompt.Input("What is your project name?", "my-app", nil)
			if err != nil {
				return promptErr(err, "the [project-directory] argument")
			}
		}

		if _, err := os.Lstat(dir); err == nil {
			a.out.Error("the '%s' folder already exists", dir)
			return nil
		}

		spin := ui.StartSpinner(cmd.ErrOrStderr(), fmt.Sprintf("Creating your project in %s", a.out.Path("./"+dir)))
		a.checkLatestVersion(ctx)
		project, err := scaffold.New(a.fetcher, a.cfg.Global.Template).Create(ctx, dir, templateVersion(version))
		spin.Stop()

		if errors.Is(err, scaffold.ErrExists) {
			a.out.Error("the '%s' folder already exists", dir)
			return nil
		}
		if err != nil {
			a.metrics.Errors()
			return fmt.Errorf("create project: %w", err)
		}
		a.log.Debug("project created", "dir", project.Dir, "template_version", project.Version)
		a.out.ProjectReady(dir, project.Scripts)
		return nil
	},
}

// checkLatestVersion warns when a newer CLI is published. Failures never block the command.
func (a *app) checkLatestVersion(ctx context.Context) {
	st, err := update.Check(ctx, a.fetcher, a.cfg.Global.CLIPackage, version)
	if err != nil {
		a.log.Debug("version check skipped", "error", err)
		return
	}
	if st.Outdated {
		a.out.Warning("you are using an outdated version (%s) of the Semaphore CLI, please update to the latest one (%s)", st.Current, st.Latest)
	}
}

// templateVersion pins the template to the CLI release; development builds use the latest template.
func templateVersion(v string) string {
	if _, err := semver.StrictNewVersion(v); err != nil {
		return ""
	}
	return v
}
