// Package filter selects the records of a stored collection that match a free-text query.
package filter

import (
	"strings"

	"github.com/jwalitptl/clinic-console/internal/model"
)

// Rule tests one record field. Fold rules compare case-insensitively;
// the others look for the query exactly as typed.
type Rule struct {
	Field string
	Fold  bool
}

// RuleSet supplies the search rules of each resource type.
type RuleSet interface {
	Rules(t model.ResourceType) []Rule
}

type Engine struct {
	rules RuleSet
}

func NewEngine(rules RuleSet) *Engine {
	return &Engine{rules: rules}
}

// Filter returns the records of type t matching query. A blank query returns
// records itself. The input slice is never modified.
func (e *Engine) Filter(t model.ResourceType, query string, records []model.Record) []model.Record {
	return Apply(e.rules.Rules(t), query, records)
}

// Apply filters records with the given rules. A record matches when any rule matches.
func Apply(rules []Rule, query string, records []model.Record) []model.Record {
	if strings.TrimSpace(query) == "" {
		return records
	}

	lower := strings.ToLower(query)
	out := make([]model.Record, 0)
	for _, r := range records {
		if matches(r, rules, query, lower) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether a single record satisfies any rule for a non-blank query.
func Matches(r model.Record, rules []Rule, query string) bool {
	return matches(r, rules, query, strings.ToLower(query))
}

func matches(r model.Record, rules []Rule, raw, lower string) bool {
	for _, rule := range rules {
		v, ok := r.Text(rule.Field)
		if !ok {
			continue
		}
		if rule.Fold {
			if strings.Contains(strings.ToLower(v), lower) {
				return true
			}
			continue
		}
		if strings.Contains(v, raw) {
			return true
		}
	}
	return false
}
