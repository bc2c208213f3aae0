package store

import (
	"encoding/json"
	"sort"
)

// sortRules orders rules by ascending priority. The sort is stable so rules
// sharing a priority keep their insertion order.
func sortRules(rules []Rule) []Rule {
	out := ensureRulesInitialized(append([]Rule(nil), rules...))
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

func ensureRulesInitialized(rules []Rule) []Rule {
	if rules == nil {
		return []Rule{}
	}
	return rules
}

func ensureVariantsInitialized(variants []Variant) []Variant {
	if variants == nil {
		return []Variant{}
	}
	return variants
}

// unmarshalRules decodes the json_agg column produced by the flag query.
func unmarshalRules(raw json.RawMessage) ([]Rule, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []Rule{}, nil
	}
	var rules []Rule
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, err
	}
	return ensureRulesInitialized(rules), nil
}

// unmarshalVariants decodes the json_agg column produced by the flag query.
func unmarshalVariants(raw json.RawMessage) ([]Variant, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return []Variant{}, nil
	}
	var variants []Variant
	if err := json.Unmarshal(raw, &variants); err != nil {
		return nil, err
	}
	return ensureVariantsInitialized(variants), nil
}

func cloneFlag(f Flag) Flag {
	f.Rules = append([]Rule{}, f.Rules...)
	f.Variants = append([]Variant{}, f.Variants...)
	return f
}
