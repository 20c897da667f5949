package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sprite-ai/stagehand/internal/config"
	"github.com/sprite-ai/stagehand/internal/diff"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage stagehand configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a default " + config.FileName,
	Long: `Write the default configuration to ` + config.FileName + ` in dir, or in the
repository root when no dir is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	} else if repo, err := diff.RepoRoot("."); err == nil {
		dir = repo
	}

	force, _ := cmd.Flags().GetBool("force")
	path, err := config.WriteDefault(dir, force)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	return emit(cmd, e.cfg,
		func(w io.Writer) { writeYAML(w, e.cfg) },
		func(w io.Writer) {
			fmt.Fprint(w, "```yaml\n")
			writeYAML(w, e.cfg)
			fmt.Fprint(w, "```\n")
		})
}

func writeYAML(w io.Writer, v any) {
	data, err := yaml.Marshal(v)
	if err != nil {
		fmt.Fprintf(w, "# %v\n", err)
		return
	}
	w.Write(data)
}
