// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rules

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// ReadFile loads a rule set from a YAML file and normalizes its entries.
// The file replaces the built-in rules outright: lists it omits are empty,
// not defaulted. Per prd003-validation R1.2.
func ReadFile(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleSet{}, fmt.Errorf("reading rules file: %w", err)
	}
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("parsing rules file %s: %w", path, err)
	}
	return rs.Normalize(), nil
}

// WriteFile saves a rule set to a YAML file.
func WriteFile(path string, rs RuleSet) error {
	data, err := yaml.Marshal(&rs)
	if err != nil {
		return fmt.Errorf("marshaling rule set: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
