// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the tabex CLI.
// Implements: prd001-scan, prd003-validation, prd004-output,
//             prd005-catalog, prd006-fetch (CLI surface).
// See docs/ARCHITECTURE.md § Pipeline Interface.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the tabex CLI.
var rootCmd = &cobra.Command{
	Use:   "tabex",
	Short: "Extract tabular data from PDF reports into clean CSV files",
	Long: `tabex reconstructs table rows from the positioned text of PDF pages,
filters out footnotes, repeated headers, and other non-data lines, and
writes one CSV file per requested page.

It was built for registry summary reports (CARES and similar) whose
tables are drawn as positioned text rather than tagged table objects.
Use inspect to preview a document, extract to produce CSVs, rules to
manage validation keywords, and runs to browse past extractions.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./tabex.yaml or ~/.config/tabex/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("tabex")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "tabex"))
		}
	}

	viper.SetEnvPrefix("TABEX")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
