package main

import (
	"fmt"
	"os"

	"invtidy/pkg/analyzer"
	"invtidy/pkg/config"
	"invtidy/pkg/logger"
	"invtidy/pkg/printer"
	"invtidy/pkg/vault"
)

// setup loads the config, initialises the logger, and resolves the
// inventory root and analysis options shared by analyze and clean.
// The returned cleanup func must be deferred.
func setup(args []string) (*config.Config, string, analyzer.Options, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", analyzer.Options{}, nil, fmt.Errorf("loading config: %w", err)
	}

	lf := logFile
	if lf == "" {
		lf = cfg.LogFile
	}
	cleanup, err := logger.Init(lf)
	if err != nil {
		return nil, "", analyzer.Options{}, nil, fmt.Errorf("initialising logger: %w", err)
	}

	// The --no-color flag already disabled colours in initConfig; the
	// config field can only disable further, never re-enable past it.
	if cfg.NoColor {
		printer.ColorsEnabled = false
	}

	root := cfg.Root
	if len(args) > 0 {
		root = args[0]
	}

	opts := analyzer.Options{
		Layout: analyzer.Layout{
			ListingFile:  cfg.ListingFile,
			GroupVarsDir: cfg.GroupVarsDir,
			HostVarsDir:  cfg.HostVarsDir,
		},
	}
	if cfg.VaultPasswordFile != "" {
		password, err := vault.LoadPassword(cfg.VaultPasswordFile)
		if err != nil {
			cleanup()
			return nil, "", analyzer.Options{}, nil, err
		}
		opts.VaultPassword = password
	}

	return cfg, root, opts, cleanup, nil
}

// analyzeInventory runs the analysis and prints findings and load errors.
func analyzeInventory(root string, opts analyzer.Options) (*analyzer.Result, error) {
	result, err := analyzer.Analyze(root, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error analyzing inventory: %v\n", err)
		return nil, err
	}

	printer.Header("ANALYSIS [" + root + "]")
	if len(result.Findings) == 0 {
		printer.Clean()
	}
	for _, f := range result.Findings {
		printer.Finding(f)
	}
	for _, e := range result.LoadErrors {
		printer.LoadError(e)
	}
	logger.L.Info("analysis complete",
		"root", root,
		"findings", len(result.Findings),
		"load_errors", len(result.LoadErrors))
	return result, nil
}
