package rules

import (
	"testing"

	"github.com/xenolabs/engage/internal/domain"
)

func customer(spend float64, visits, inactive int) domain.Customer {
	return domain.Customer{
		ID:            "c1",
		Name:          "Ada Lovelace",
		Email:         "ada@example.com",
		Spend:         spend,
		Visits:        visits,
		InactiveDays:  inactive,
		TotalOrders:   4,
		AvgOrderValue: spend / 4,
	}
}

func TestRuleMatchesNumeric(t *testing.T) {
	tests := []struct {
		name string
		c    domain.Customer
		rule domain.Rule
		want bool
	}{
		{"spend greater matches", customer(15000, 3, 10), domain.Rule{Field: domain.FieldSpend, Operator: domain.OpGreater, Value: "10000"}, true},
		{"spend greater excludes", customer(5000, 3, 10), domain.Rule{Field: domain.FieldSpend, Operator: domain.OpGreater, Value: "10000"}, false},
		{"spend equal boundary", customer(10000, 3, 10), domain.Rule{Field: domain.FieldSpend, Operator: domain.OpGreater, Value: "10000"}, false},
		{"gte boundary", customer(10000, 3, 10), domain.Rule{Field: domain.FieldSpend, Operator: domain.OpGreaterOrEqual, Value: "10000"}, true},
		{"lte", customer(10000, 3, 10), domain.Rule{Field: domain.FieldSpend, Operator: domain.OpLessOrEqual, Value: "10000"}, true},
		{"less", customer(5, 3, 10), domain.Rule{Field: domain.FieldVisits, Operator: domain.OpLess, Value: "5"}, true},
		{"equal on visits", customer(5, 3, 10), domain.Rule{Field: domain.FieldVisits, Operator: domain.OpEqual, Value: "3"}, true},
		{"inactive days", customer(5, 3, 45), domain.Rule{Field: domain.FieldInactiveDays, Operator: domain.OpGreaterOrEqual, Value: "30"}, true},
		{"non-numeric value never matches", customer(15000, 3, 10), domain.Rule{Field: domain.FieldSpend, Operator: domain.OpGreater, Value: "lots"}, false},
		{"empty value never matches", customer(15000, 3, 10), domain.Rule{Field: domain.FieldSpend, Operator: domain.OpGreater, Value: ""}, false},
		{"unknown field never matches", customer(15000, 3, 10), domain.Rule{Field: "loyalty_tier", Operator: domain.OpGreater, Value: "1"}, false},
		{"decimal value", customer(99.5, 3, 10), domain.Rule{Field: domain.FieldSpend, Operator: domain.OpGreater, Value: "99.4"}, true},
	}

	e := NewEvaluator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.RuleMatches(tt.c, tt.rule); got != tt.want {
				t.Errorf("RuleMatches(%+v) = %v, want %v", tt.rule, got, tt.want)
			}
		})
	}
}

func TestRuleMatchesString(t *testing.T) {
	c := customer(15000, 3, 10)

	tests := []struct {
		name string
		rule domain.Rule
		want bool
	}{
		{"contains on numeric string form", domain.Rule{Field: domain.FieldSpend, Operator: domain.OpContains, Value: "500"}, true},
		{"contains miss", domain.Rule{Field: domain.FieldSpend, Operator: domain.OpContains, Value: "999"}, false},
		{"contains is case-insensitive on name", domain.Rule{Field: "name", Operator: domain.OpContains, Value: "LOVELACE"}, true},
		{"starts_with", domain.Rule{Field: "email", Operator: domain.OpStartsWith, Value: "ADA@"}, true},
		{"ends_with", domain.Rule{Field: "email", Operator: domain.OpEndsWith, Value: ".COM"}, true},
		{"unknown field", domain.Rule{Field: "phone", Operator: domain.OpContains, Value: "555"}, false},
	}

	e := NewEvaluator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.RuleMatches(c, tt.rule); got != tt.want {
				t.Errorf("RuleMatches(%+v) = %v, want %v", tt.rule, got, tt.want)
			}
		})
	}
}

func TestGroupCombinatorLegacy(t *testing.T) {
	c := customer(15000, 3, 10) // spend rule matches, visits rule does not

	spendRule := domain.Rule{Field: domain.FieldSpend, Operator: domain.OpGreater, Value: "10000"}
	visitsRule := domain.Rule{Field: domain.FieldVisits, Operator: domain.OpGreater, Value: "100"}

	tests := []struct {
		name  string
		group domain.RuleGroup
		want  bool
	}{
		{"OR matches when any rule matches", domain.RuleGroup{Operator: domain.GroupOR, Rules: []domain.Rule{spendRule, visitsRule}}, true},
		{"OR misses when no rule matches", domain.RuleGroup{Operator: domain.GroupOR, Rules: []domain.Rule{visitsRule}}, false},
		// The legacy AND arm is inverted: it matches only when NO rule does.
		{"AND misses when a rule matches", domain.RuleGroup{Operator: domain.GroupAND, Rules: []domain.Rule{spendRule, visitsRule}}, false},
		{"AND matches when no rule matches", domain.RuleGroup{Operator: domain.GroupAND, Rules: []domain.Rule{visitsRule}}, true},
		{"empty operator defaults to AND", domain.RuleGroup{Rules: []domain.Rule{visitsRule}}, true},
		{"empty AND group matches everyone", domain.RuleGroup{Operator: domain.GroupAND}, true},
		{"empty OR group matches no one", domain.RuleGroup{Operator: domain.GroupOR}, false},
	}

	e := NewEvaluator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.Matches(c, tt.group); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGroupCombinatorStrict(t *testing.T) {
	c := customer(15000, 3, 10)

	matching := domain.Rule{Field: domain.FieldSpend, Operator: domain.OpGreater, Value: "10000"}
	missing := domain.Rule{Field: domain.FieldVisits, Operator: domain.OpGreater, Value: "100"}

	e := NewStrictEvaluator()

	all := domain.RuleGroup{Operator: domain.GroupAND, Rules: []domain.Rule{
		matching,
		{Field: domain.FieldInactiveDays, Operator: domain.OpLess, Value: "30"},
	}}
	if !e.Matches(c, all) {
		t.Error("strict AND should match when every rule matches")
	}

	partial := domain.RuleGroup{Operator: domain.GroupAND, Rules: []domain.Rule{matching, missing}}
	if e.Matches(c, partial) {
		t.Error("strict AND should miss when a rule misses")
	}
}

func TestMatchesAllIntersectsGroups(t *testing.T) {
	c := customer(15000, 3, 45)

	spendOR := domain.RuleGroup{Operator: domain.GroupOR, Rules: []domain.Rule{
		{Field: domain.FieldSpend, Operator: domain.OpGreater, Value: "10000"},
	}}
	inactiveOR := domain.RuleGroup{Operator: domain.GroupOR, Rules: []domain.Rule{
		{Field: domain.FieldInactiveDays, Operator: domain.OpGreater, Value: "30"},
	}}
	visitsOR := domain.RuleGroup{Operator: domain.GroupOR, Rules: []domain.Rule{
		{Field: domain.FieldVisits, Operator: domain.OpGreater, Value: "100"},
	}}

	e := NewEvaluator()

	if !e.MatchesAll(c, []domain.RuleGroup{spendOR, inactiveOR}) {
		t.Error("customer satisfying both groups should match")
	}
	if e.MatchesAll(c, []domain.RuleGroup{spendOR, visitsOR}) {
		t.Error("customer missing one group must not match")
	}
	if !e.MatchesAll(c, nil) {
		t.Error("no groups means everyone matches")
	}
}
