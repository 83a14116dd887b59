package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invtidy/pkg/logger"
	"invtidy/pkg/report"
)

var (
	csvPath    string
	saveReport bool
	strict     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [root]",
	Short: "Cross-reference the listing with its overlays and report findings",
	Long: `Parse the hosts listing and the group_vars/host_vars overlay documents
under the inventory root, then report every inconsistency: duplicate host
entries, hosts without a host_vars document, orphaned documents, and
variables duplicated or conflicting between group and host scope.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&csvPath, "csv", "", "write the report to this CSV file")
	analyzeCmd.Flags().BoolVar(&saveReport, "save", false, "write the report to the configured report_file")
	analyzeCmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any finding is reported")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, root, opts, cleanupLogger, err := setup(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	defer cleanupLogger()

	result, err := analyzeInventory(root, opts)
	if err != nil {
		return err
	}

	out := csvPath
	if out == "" && saveReport {
		out = cfg.ReportFile
	}
	if out != "" {
		if err := report.WriteCSV(out, result.Findings); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing report: %v\n", err)
			return err
		}
		logger.L.Info("report written", "path", out, "rows", len(result.Findings))
	}

	if strict && len(result.Findings) > 0 {
		return fmt.Errorf("%d findings", len(result.Findings))
	}
	return nil
}
