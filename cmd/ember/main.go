package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/emberos/ember/pkg/log"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ember",
	Short: "Ember - topic-addressed event kernel for actor systems",
	Long: `Ember is an event kernel that unifies reactive handlers, flat state
machines and hierarchical state machines over one name-addressed bus:
events, tasks and data-store keys all live in a single topic registry,
and payloads may be absent, fixed-size values or byte streams.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"Ember version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("config", "", "Kernel sizing config file (YAML)")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(demoCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")

	err := log.Setup(log.Options{
		Level:   level,
		Console: !jsonOut,
		Writer:  os.Stdout,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
