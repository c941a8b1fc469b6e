package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"conveyor/internal/core"
)

var (
	runPipelineFile string
	runParams       []string
	runBranch       string
	runDeployEnv    string
	runSkipTests    bool
	runPush         bool
	runPullRequest  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one pipeline run",
	Long: "Run executes the pipeline once with the given parameters and\n" +
		"prints the per-stage results. The exit status is non-zero only\n" +
		"when the run failed; an unstable run exits zero.",
	RunE: doRun,
}

func init() {
	runCmd.Flags().StringVarP(&runPipelineFile, "pipeline", "f", "", "pipeline definition file (default: built-in template)")
	runCmd.Flags().StringArrayVarP(&runParams, "param", "p", nil, "parameter override NAME=VALUE (repeatable)")
	runCmd.Flags().StringVar(&runBranch, "branch", "", "branch to build (shorthand for -p BRANCH=...)")
	runCmd.Flags().StringVar(&runDeployEnv, "deploy-env", "", "deployment environment (shorthand for -p DEPLOY_ENV=...)")
	runCmd.Flags().BoolVar(&runSkipTests, "skip-tests", false, "skip the test stages")
	runCmd.Flags().BoolVar(&runPush, "push", false, "push the built image to the registry")
	runCmd.Flags().BoolVar(&runPullRequest, "pull-request", false, "mark this as a pull-request build")
}

func doRun(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer log.Close()

	runner, err := buildRunner(cfg, log, runPipelineFile)
	if err != nil {
		return err
	}

	supplied, err := collectParams()
	if err != nil {
		return err
	}

	report, err := runner.Run(cmd.Context(), core.Trigger{
		Cause:         "manual",
		IsPullRequest: runPullRequest,
		Supplied:      supplied,
	})
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), renderReport(report))

	if report.Outcome == core.OutcomeFailed {
		return fmt.Errorf("run #%d failed", report.RunNumber)
	}
	return nil
}

// collectParams merges the shorthand flags with -p overrides; an
// explicit -p wins.
func collectParams() (map[string]string, error) {
	supplied := make(map[string]string)
	if runBranch != "" {
		supplied["BRANCH"] = runBranch
	}
	if runDeployEnv != "" {
		supplied["DEPLOY_ENV"] = runDeployEnv
	}
	if runSkipTests {
		supplied["SKIP_TESTS"] = "true"
	}
	if runPush {
		supplied["PUSH_TO_REGISTRY"] = "true"
	}

	for _, kv := range runParams {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --param %q, expected NAME=VALUE", kv)
		}
		supplied[name] = value
	}
	return supplied, nil
}
