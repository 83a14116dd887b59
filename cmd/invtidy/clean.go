package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invtidy/pkg/cleanup"
	"invtidy/pkg/logger"
	"invtidy/pkg/printer"
)

var dryRun bool

var cleanCmd = &cobra.Command{
	Use:   "clean [root]",
	Short: "Remove the structural findings from the inventory",
	Long: `Analyze the inventory, then apply the minimal removals that make it
consistent: duplicate host lines are trimmed to their first occurrence,
hosts without a host_vars document are removed from the listing, and
orphaned host_vars documents are deleted. Variable findings are reported
and left untouched. Running clean twice removes nothing on the second run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the plan without touching any file")
}

func runClean(cmd *cobra.Command, args []string) error {
	_, root, opts, cleanupLogger, err := setup(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	defer cleanupLogger()

	result, err := analyzeInventory(root, opts)
	if err != nil {
		return err
	}

	actions, skipped := cleanup.Plan(result.Findings)

	printer.Header("CLEANUP [" + root + "]")
	if len(actions) == 0 {
		fmt.Println("  nothing to clean")
	}

	if dryRun {
		for _, a := range actions {
			printer.DryRun(a)
		}
		return nil
	}

	for _, a := range actions {
		printer.Action(a)
	}

	summary := cleanup.Execute(root, actions, skipped, cleanup.Options{Layout: opts.Layout})
	printer.Recap(summary)
	logger.L.Info("cleanup complete",
		"root", root,
		"lines_removed", summary.LinesRemoved,
		"files_deleted", len(summary.FilesDeleted),
		"errors", len(summary.Errors))

	if len(summary.Errors) > 0 {
		return fmt.Errorf("%d cleanup operations failed", len(summary.Errors))
	}
	return nil
}
