package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"guardian/internal/logging"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "guardian",
		Short: "Bounded repair loop for machine-generated code",
		Long: "guardian evaluates machine-generated code with external test, lint and\n" +
			"security signals, scores each candidate, and either accepts it, vetoes it\n" +
			"on a security hit, or abstains after a bounded number of repair rounds.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			switch {
			case viper.GetBool("debug"):
				logging.SetLevel(logging.LevelDebug)
			case viper.GetBool("verbose"):
				logging.SetLevel(logging.LevelInfo)
			default:
				logging.SetLevel(logging.LevelWarn)
			}
		},
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to guardian config YAML")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug output")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the guardian version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("guardian %s\n", version)
		},
	}
}
