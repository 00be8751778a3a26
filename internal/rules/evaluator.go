// Package rules evaluates audience rule groups against customer records.
//
// Evaluation is pure and total: malformed rules (unparseable numeric
// values, unknown fields) degrade to non-matches instead of returning
// errors, so a bad rule can never abort audience resolution.
package rules

import (
	"strconv"
	"strings"

	"github.com/xenolabs/engage/internal/domain"
)

// Verdict holds the per-rule results of one group, folded both ways, so a
// Combinator can pick whichever fold it needs.
type Verdict struct {
	Any bool // at least one rule matched
	All bool // every rule matched
}

// Combinator turns a group verdict into the group's final result.
type Combinator func(v Verdict) bool

// LegacyCombinators reproduces the combinator the rule engine has always
// shipped with: OR-groups match when any rule matches, AND-groups match
// when NO rule matches. The AND arm looks inverted, but existing campaigns
// were built against it, so it stays the default until the
// strict_and_groups switch is flipped.
var LegacyCombinators = map[domain.GroupOperator]Combinator{
	domain.GroupOR:  func(v Verdict) bool { return v.Any },
	domain.GroupAND: func(v Verdict) bool { return !v.Any },
}

// StrictCombinators is the corrected table: AND-groups require every rule
// to match. Enabled via the strict_and_groups config switch.
var StrictCombinators = map[domain.GroupOperator]Combinator{
	domain.GroupOR:  func(v Verdict) bool { return v.Any },
	domain.GroupAND: func(v Verdict) bool { return v.All },
}

// Evaluator applies rule groups to customers using a fixed combinator table.
type Evaluator struct {
	combinators map[domain.GroupOperator]Combinator
}

// NewEvaluator returns an evaluator with the legacy combinator table.
func NewEvaluator() *Evaluator {
	return &Evaluator{combinators: LegacyCombinators}
}

// NewStrictEvaluator returns an evaluator with corrected AND semantics.
func NewStrictEvaluator() *Evaluator {
	return &Evaluator{combinators: StrictCombinators}
}

// RuleMatches evaluates a single rule against a customer. Numeric operators
// parse the rule value as a float; a value that does not parse, or a field
// with no numeric form, makes the rule a non-match. String operators compare
// case-insensitively against the string form of the attribute.
func (e *Evaluator) RuleMatches(c domain.Customer, r domain.Rule) bool {
	if r.Operator.Numeric() {
		want, err := strconv.ParseFloat(strings.TrimSpace(r.Value), 64)
		if err != nil {
			return false
		}
		got, ok := c.NumericAttribute(r.Field)
		if !ok {
			return false
		}
		switch r.Operator {
		case domain.OpGreater:
			return got > want
		case domain.OpLess:
			return got < want
		case domain.OpEqual:
			return got == want
		case domain.OpGreaterOrEqual:
			return got >= want
		case domain.OpLessOrEqual:
			return got <= want
		}
		return false
	}

	attr, ok := c.StringAttribute(r.Field)
	if !ok {
		return false
	}
	attr = strings.ToLower(attr)
	want := strings.ToLower(r.Value)
	switch r.Operator {
	case domain.OpContains:
		return strings.Contains(attr, want)
	case domain.OpStartsWith:
		return strings.HasPrefix(attr, want)
	case domain.OpEndsWith:
		return strings.HasSuffix(attr, want)
	}
	return false
}

// Matches evaluates one rule group. A group with no rules yields Any=false,
// All=true, so under the legacy table an empty AND-group matches everyone
// and an empty OR-group matches no one.
func (e *Evaluator) Matches(c domain.Customer, g domain.RuleGroup) bool {
	v := Verdict{All: true}
	for _, r := range g.Rules {
		if e.RuleMatches(c, r) {
			v.Any = true
		} else {
			v.All = false
		}
	}

	op := g.Operator
	if op == "" {
		op = domain.GroupAND
	}
	combine, ok := e.combinators[op]
	if !ok {
		return false
	}
	return combine(v)
}

// MatchesAll reports whether the customer satisfies every group: groups on
// a campaign are combined by logical AND.
func (e *Evaluator) MatchesAll(c domain.Customer, groups []domain.RuleGroup) bool {
	for _, g := range groups {
		if !e.Matches(c, g) {
			return false
		}
	}
	return true
}
