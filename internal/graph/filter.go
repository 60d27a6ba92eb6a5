package graph

import "strings"

// MatchRule reports whether a node matches a single advanced-filter rule,
// ignoring the rule's Inverted flag (the caller decides what a match means).
// Matching is case-insensitive on both sides. A rule with an empty or
// whitespace-only value matches nothing.
func MatchRule(n Node, rule FilterRule) bool {
	value := strings.ToLower(strings.TrimSpace(rule.Value))
	if value == "" {
		return false
	}

	switch rule.Kind {
	case FilterPath:
		// Path rules inspect file ids only; tag nodes have no path.
		if n.Type == NodeTag {
			return false
		}
		return strings.Contains(strings.ToLower(n.ID), value)
	case FilterTag:
		value = strings.TrimPrefix(value, "#")
		if value == "" {
			return false
		}
		for _, tag := range n.Tags {
			if strings.EqualFold(tag, value) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// matchesAnyRule reports whether any rule in the slice matches the node.
func matchesAnyRule(n Node, rules []FilterRule) bool {
	for _, rule := range rules {
		if MatchRule(n, rule) {
			return true
		}
	}
	return false
}

// splitRules partitions filter rules into positive and negative sets,
// dropping inert (empty-value) rules entirely.
func splitRules(rules []FilterRule) (positive, negative []FilterRule) {
	for _, rule := range rules {
		if strings.TrimSpace(rule.Value) == "" {
			continue
		}
		if rule.Inverted {
			negative = append(negative, rule)
		} else {
			positive = append(positive, rule)
		}
	}
	return positive, negative
}
