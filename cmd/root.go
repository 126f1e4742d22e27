package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	flagConfig  string
	flagOutput  string
	flagWorkers int
	flagNoTUI   bool
	flagDryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "notes2blog [note files...]",
	Short: "Turn raw notes into publish-ready blog posts",
	Long: `notes2blog runs each note through a fixed writing pipeline: analysis,
outlining, web research, drafting, illustration, and metadata selection,
then renders a markdown post with TOML front matter.

With no arguments, every note in the configured inbox directory is processed.`,
	RunE:         runPipeline,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.Flags().StringVar(&flagOutput, "output", "", "override output directory")
	rootCmd.Flags().IntVar(&flagWorkers, "workers", 0, "notes processed concurrently (default from config)")
	rootCmd.Flags().BoolVar(&flagNoTUI, "no-tui", false, "plain text progress instead of the interactive view")
	rootCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "list the notes that would be processed and exit")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("notes2blog %s (commit: %s, built: %s)\n", version, commit, date)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}
