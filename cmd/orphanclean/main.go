package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/rpytools/orphanclean/internal/cli"
	"codeberg.org/rpytools/orphanclean/internal/gui"
	"codeberg.org/rpytools/orphanclean/internal/i18n"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Without a subcommand the GUI starts
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runGUI(flags)
	}
	rootCmd.AddCommand(&cobra.Command{
		Use:   "gui",
		Short: "Launch the graphical interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGUI(flags)
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute command
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func runGUI(flags *cli.Flags) error {
	config := &gui.Config{
		Language:       viper.GetString("project.language"),
		Root:           viper.GetString("project.root"),
		Mode:           viper.GetString("process.mode"),
		Backup:         viper.GetBool("process.backup"),
		Workers:        viper.GetInt("process.workers"),
		StateDir:       cli.StateDir(),
		JournalPath:    cli.JournalPath(),
		LogLevel:       viper.GetString("log.level"),
		UILanguage:     i18n.Normalize(cli.UILanguage()),
		SelectLanguage: flags.SelectLanguage,
		SaveUILanguage: cli.SaveUILanguage,
	}
	if config.Root == "" {
		config.Root = "."
	}

	app := gui.New(config)
	app.Run()

	return nil
}
