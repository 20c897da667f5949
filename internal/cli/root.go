// Package cli implements the stagehand command line.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/stagehand/internal/budget"
	"github.com/sprite-ai/stagehand/internal/config"
	"github.com/sprite-ai/stagehand/internal/diff"
	"github.com/sprite-ai/stagehand/internal/logging"
	"github.com/sprite-ai/stagehand/internal/plan"
)

var (
	configPath   string
	verbosity    int
	quiet        bool
	outputFormat string
	modelFlag    string
	promptFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "stagehand",
	Short: "Turn a large diff into small, reviewable commits",
	Long: `stagehand ranks changed files by importance, fits them into a model's
context window, measures how complex the change set is and proposes a
sequence of atomic commits.

Diffs come from the working tree by default. Pass a commit range to plan
existing history, --staged for the index, or "-" to read a diff on stdin.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch outputFormat {
		case "text", "json", "yaml", "markdown":
			return nil
		default:
			return fmt.Errorf("unknown output format %q (want text, json, yaml or markdown)", outputFormat)
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "config file (default: .stagehand.yaml in the repository root)")
	pf.CountVarP(&verbosity, "verbose", "v", "log more (repeat for debug output)")
	pf.BoolVarP(&quiet, "quiet", "q", false, "disable logging")
	pf.StringVarP(&outputFormat, "format", "f", "text", "output format: text, json, yaml, markdown")
	pf.StringVarP(&modelFlag, "model", "m", "", "target model (overrides config)")
	pf.StringVar(&promptFlag, "prompt-type", "", "prompt type: commit, explain, pr, review (overrides config)")

	rootCmd.AddCommand(rankCmd, budgetCmd, complexityCmd, splitCmd, planCmd, serveCmd, configCmd, versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExitError asks the caller to exit with a specific status after output
// has been written.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// env is what every command needs once flags are parsed.
type env struct {
	cfg     *config.Config
	log     *slog.Logger
	planner *plan.Planner
	repo    string // empty outside a git repository
}

func setup() (*env, error) {
	repo, _ := diff.RepoRoot(".")

	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(repo)
	}
	if err != nil {
		return nil, err
	}

	if modelFlag != "" {
		cfg.Model = modelFlag
	}
	if promptFlag != "" {
		cfg.PromptType = promptFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := logging.LevelFromVerbosity(verbosity, quiet, logging.LevelFromString(cfg.Logging.Level))
	log := logging.New(os.Stderr, level, logging.ParseFormat(cfg.Logging.Format))

	p := plan.New(plan.OptionsFromConfig(cfg), budget.NewManager(cfg.Models), log)
	log.Debug("configuration loaded",
		"repo", repo,
		"model", cfg.Model,
		"prompt_type", cfg.PromptType)

	return &env{cfg: cfg, log: log, planner: p, repo: repo}, nil
}
