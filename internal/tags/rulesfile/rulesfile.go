// Package rulesfile loads the tag rule configuration from a YAML file. The
// file is read wholesale into an immutable snapshot; the reload admin
// command re-reads it and swaps the snapshot atomically.
package rulesfile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tagd/internal/tags/models"
)

// File is the on-disk schema. Besides the rule set it may carry a static
// grants table for deployments without an external permission backend.
type File struct {
	Default  models.Tag          `yaml:"default"`
	Rules    []models.Rule       `yaml:"rules"`
	Settings models.Settings     `yaml:"settings"`
	Grants   map[uint64][]string `yaml:"grants"`
}

// Load reads and parses the file at path.
func Load(path string) (*models.RuleSet, map[uint64][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read rules file: %w", err)
	}
	return Parse(data)
}

// Parse decodes raw YAML into a rule-set snapshot and the static grants.
func Parse(data []byte) (*models.RuleSet, map[uint64][]string, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parse rules file: %w", err)
	}

	rs := &models.RuleSet{
		Default:  f.Default,
		Rules:    f.Rules,
		Settings: f.Settings,
	}
	if rs.Settings.TeamPrefixNames == nil {
		rs.Settings.TeamPrefixNames = map[models.Team]string{}
	}
	if rs.Settings.TeamChatNames == nil {
		rs.Settings.TeamChatNames = map[models.Team]string{}
	}
	return rs, f.Grants, nil
}
