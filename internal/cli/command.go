package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/rpytools/orphanclean/internal"
	"codeberg.org/rpytools/orphanclean/internal/logging"
)

// CreateRootCommand creates and configures the root cobra command with all
// subcommands except the GUI, which the binary wires in
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "orphanclean",
		Short: "Ren'Py Orphaned Translations Cleaner",
		Long: `orphanclean removes orphaned translation blocks from Ren'Py projects.

An orphan is a "translate <language> <id>:" block whose id the game script
no longer uses. Orphans are listed by Ren'Py's lint or found by scanning
the scripts, and are then commented out (default) or removed.

Examples:
  orphanclean                                       # Launch the GUI (default)
  orphanclean clean-lint lint.txt                   # Keep only the ids of a lint report
  orphanclean process --lang french --ids cleaned_lint.txt --root ~/mygame
  orphanclean detect --lang french --root ~/mygame --apply --mode remove
  orphanclean history
  orphanclean restore 1772366400000_abcdef12`,
		Args:          cobra.NoArgs,
		Version:       internal.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Setup(viper.GetString("log.level"))
		},
	}

	setupFlags(rootCmd, flags)

	rootCmd.AddCommand(
		newCleanLintCommand(flags),
		newProcessCommand(flags),
		newDetectCommand(flags),
		newHistoryCommand(flags),
		newRestoreCommand(flags),
	)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.orphanclean.yaml)")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn or error")
	cmd.PersistentFlags().StringVar(&flags.StateDir, "state-dir", "", "Directory for the run journal and backups (default is ~/.local/state/orphanclean)")
	cmd.PersistentFlags().StringVar(&flags.UILanguage, "ui-language", "", "Interface language: en, es, fr, it or pt_BR")
	cmd.PersistentFlags().BoolVar(&flags.SelectLanguage, "select-language", false, "Ask for the interface language when the GUI starts")

	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	viper.SetDefault("process.backup", true)
	viper.SetDefault("process.mode", "comment")
	viper.SetDefault("log.level", "info")

	viper.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("state.dir", cmd.PersistentFlags().Lookup("state-dir"))
	viper.BindPFlag("ui.language", cmd.PersistentFlags().Lookup("ui-language"))
}

// bindCommandFlags binds flags of the running subcommand. Several
// subcommands share keys, so binding happens when one of them runs.
func bindCommandFlags(fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if f := fs.Lookup(name); f != nil {
			viper.BindPFlag(key, f)
		}
	}
}

func addProjectFlags(cmd *cobra.Command, flags *Flags) {
	cmd.Flags().StringVarP(&flags.Language, "lang", "l", "", "Translation language exactly as in the tl folder (e.g. french)")
	cmd.Flags().StringVarP(&flags.Root, "root", "r", flags.Root, "Project root (the folder containing game/)")
}

func addProcessFlags(cmd *cobra.Command, flags *Flags) {
	cmd.Flags().StringVarP(&flags.Mode, "mode", "m", flags.Mode, "What to do with orphans: comment or remove")
	cmd.Flags().BoolVarP(&flags.DryRun, "dry-run", "n", false, "Report what would change without writing files")
	cmd.Flags().BoolVar(&flags.NoBackup, "no-backup", false, "Do not back up files before rewriting them")
	cmd.Flags().IntVarP(&flags.Workers, "workers", "w", 0, "Number of files processed in parallel (default: number of CPUs)")
	cmd.Flags().StringVar(&flags.Report, "report", "", "Write a YAML report of the run to this file")
}

var processKeys = map[string]string{
	"project.language": "lang",
	"project.root":     "root",
	"process.mode":     "mode",
	"process.workers":  "workers",
}

func newCleanLintCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean-lint <lint-file>",
		Short: "Reduce a Ren'Py lint report to its translation ids",
		Long: `clean-lint keeps only the ids of the "(id ...)" notices of a lint report
and writes them separated by "," to an id file usable with process.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCleanLint(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "Id file to write (default: localized name next to the lint file)")
	return cmd
}

func newProcessCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "process",
		Aliases: []string{"comment"},
		Short:   "Comment out or remove the translation blocks listed in an id file",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bindCommandFlags(cmd.Flags(), processKeys)
			return runProcess(cmd, flags)
		},
	}

	addProjectFlags(cmd, flags)
	addProcessFlags(cmd, flags)
	cmd.Flags().StringVarP(&flags.IDsFile, "ids", "i", "", "Cleaned lint file with the ids separated by \",\"")
	cmd.MarkFlagRequired("ids")

	return cmd
}

func newDetectCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Find translation blocks that no script references",
		Long: `detect scans the game scripts and lists the translation blocks of a
language whose id is not used anymore. The ids are saved to an id file and,
with --apply, processed right away.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bindCommandFlags(cmd.Flags(), processKeys)
			return runDetect(cmd, flags)
		},
	}

	addProjectFlags(cmd, flags)
	addProcessFlags(cmd, flags)
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "Id file to write (default: orphans_<lang>.txt)")
	cmd.Flags().BoolVar(&flags.Apply, "apply", false, "Process the detected ids right away")

	return cmd
}

func newHistoryCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded cleanup runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, flags)
		},
	}

	cmd.Flags().IntVar(&flags.Limit, "limit", flags.Limit, "Number of runs to show (0 for all)")
	return cmd
}

func newRestoreCommand(flags *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <run-id>",
		Short: "Copy the backup of a run back into its project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(cmd, args[0])
		},
	}
}
