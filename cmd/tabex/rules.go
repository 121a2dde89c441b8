package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tabex/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Show or scaffold row-validation rule sets",
	Long: `Rules manages the keyword lists that decide which reconstructed rows
are real table data. A rule-set file replaces the built-in rules
outright, so start from "rules init" and edit.`,
}

// --- show subcommand ---

var rulesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active rule set as YAML",
	Long: `Show prints the rule set extract would apply: the built-in rules, or
the contents of --rules after normalization.`,
	RunE: runRulesShow,
}

func runRulesShow(cmd *cobra.Command, args []string) error {
	rs := rules.Default()
	if rulesFile := stringSetting(cmd, "rules", "validation.rules_file"); rulesFile != "" {
		var err error
		rs, err = rules.ReadFile(rulesFile)
		if err != nil {
			return err
		}
	}

	data, err := yaml.Marshal(&rs)
	if err != nil {
		return fmt.Errorf("marshaling rule set: %w", err)
	}
	os.Stdout.Write(data)
	return nil
}

// --- init subcommand ---

var rulesInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write the built-in rule set to a file for editing",
	RunE:  runRulesInit,
}

func runRulesInit(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("provide exactly one destination file")
	}
	out := args[0]

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(out); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", out)
	}
	if err := rules.WriteFile(out, rules.Default()); err != nil {
		return err
	}
	fmt.Printf("Wrote default rules to %s\n", out)
	return nil
}

func init() {
	rulesShowCmd.Flags().String("rules", "", "YAML rule-set file to show (default: built-in rules)")
	rulesInitCmd.Flags().Bool("force", false, "overwrite an existing file")

	rulesCmd.AddCommand(rulesShowCmd)
	rulesCmd.AddCommand(rulesInitCmd)

	rootCmd.AddCommand(rulesCmd)
}
