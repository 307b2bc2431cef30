package classifier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ruleFile is the on-disk layout of a rule table override
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads a YAML rule table. Order in the file is priority order.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates a YAML rule table
func ParseRules(data []byte) ([]Rule, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	if len(file.Rules) == 0 {
		return nil, fmt.Errorf("rules file defines no rules")
	}

	seen := make(map[string]bool, len(file.Rules))
	for i, r := range file.Rules {
		switch {
		case r.Family == "":
			return nil, fmt.Errorf("rule %d: family is required", i)
		case seen[r.Family]:
			return nil, fmt.Errorf("rule %d: duplicate family %q", i, r.Family)
		case r.Label == "":
			return nil, fmt.Errorf("rule %q: label is required", r.Family)
		case r.Fix == "":
			return nil, fmt.Errorf("rule %q: fix is required", r.Family)
		case len(r.Canonical) == 0 && len(r.Triggers) == 0:
			return nil, fmt.Errorf("rule %q: at least one canonical phrase or trigger is required", r.Family)
		}
		seen[r.Family] = true
	}
	return file.Rules, nil
}
