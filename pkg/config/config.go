// Package config defines the tool configuration, populated from the
// optional invtidy.yml config file via viper. CLI flags override it.
package config

import "github.com/spf13/viper"

type Config struct {
	Root              string `mapstructure:"root"`
	ListingFile       string `mapstructure:"listing_file"`
	GroupVarsDir      string `mapstructure:"group_vars_dir"`
	HostVarsDir       string `mapstructure:"host_vars_dir"`
	ReportFile        string `mapstructure:"report_file"`
	VaultPasswordFile string `mapstructure:"vault_password_file"`
	LogFile           string `mapstructure:"log_file"`
	NoColor           bool   `mapstructure:"no_color"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Root:         ".",
		ListingFile:  "hosts",
		GroupVarsDir: "group_vars",
		HostVarsDir:  "host_vars",
		ReportFile:   "inventory_analysis.csv",
	}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
