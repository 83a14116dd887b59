package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"invtidy/pkg/printer"
)

var (
	cfgFile string
	logFile string
	noColor bool
)

// version is set at build time via -ldflags="-X main.version=<tag>".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "invtidy",
	Short: "Validate and reconcile a hosts inventory",
	Long: `invtidy cross-references a flat hosts listing with its group_vars and
host_vars overlays, reports every inconsistency it finds (duplicate host
entries, hosts without variable files, orphaned variable files, variables
duplicated or conflicting across scopes), and can rewrite the inventory to
remove the structural ones. Variable conflicts are reported, never
auto-resolved.`,
	Version: version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: invtidy.yml)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "optional log file path (appended to stderr)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable coloured output")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("invtidy")
		viper.SetConfigType("yml")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error reading config: %v\n", err)
		}
	}

	if noColor {
		printer.ColorsEnabled = false
	}
}
