package domain

import (
	"fmt"
	"time"
)

// CampaignStatus enumerates the lifecycle states of a campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignCompleted CampaignStatus = "completed"
)

// Valid reports whether s is a known campaign status.
func (s CampaignStatus) Valid() bool {
	return s == CampaignDraft || s == CampaignCompleted
}

// RuleField names a customer attribute a rule can filter on.
type RuleField string

const (
	FieldSpend         RuleField = "spend"
	FieldVisits        RuleField = "visits"
	FieldInactiveDays  RuleField = "inactive_days"
	FieldTotalOrders   RuleField = "total_orders"
	FieldAvgOrderValue RuleField = "avg_order_value"
)

// RuleFields lists the fields accepted when a rule is created.
var RuleFields = []RuleField{
	FieldSpend, FieldVisits, FieldInactiveDays, FieldTotalOrders, FieldAvgOrderValue,
}

// RuleOperator is the comparison a rule applies.
type RuleOperator string

const (
	OpGreater        RuleOperator = ">"
	OpLess           RuleOperator = "<"
	OpEqual          RuleOperator = "="
	OpGreaterOrEqual RuleOperator = ">="
	OpLessOrEqual    RuleOperator = "<="
	OpContains       RuleOperator = "contains"
	OpStartsWith     RuleOperator = "starts_with"
	OpEndsWith       RuleOperator = "ends_with"
)

// RuleOperators lists every supported operator. The set is fixed.
var RuleOperators = []RuleOperator{
	OpGreater, OpLess, OpEqual, OpGreaterOrEqual, OpLessOrEqual,
	OpContains, OpStartsWith, OpEndsWith,
}

// Numeric reports whether the operator compares parsed numbers.
func (op RuleOperator) Numeric() bool {
	switch op {
	case OpGreater, OpLess, OpEqual, OpGreaterOrEqual, OpLessOrEqual:
		return true
	}
	return false
}

// Rule is a single field/operator/value predicate. Value is always carried
// as a string and parsed per operator at evaluation time.
type Rule struct {
	ID       int          `json:"id"`
	Field    RuleField    `json:"field"`
	Operator RuleOperator `json:"operator"`
	Value    string       `json:"value"`
}

// Validate rejects a rule whose field or operator is outside the fixed sets.
// It does not reject non-numeric values for numeric operators: those degrade
// to non-matches at evaluation time instead.
func (r Rule) Validate() error {
	fieldOK := false
	for _, f := range RuleFields {
		if r.Field == f {
			fieldOK = true
			break
		}
	}
	if !fieldOK {
		return fmt.Errorf("unknown rule field %q", r.Field)
	}
	opOK := false
	for _, op := range RuleOperators {
		if r.Operator == op {
			opOK = true
			break
		}
	}
	if !opOK {
		return fmt.Errorf("unknown rule operator %q", r.Operator)
	}
	if r.Value == "" {
		return fmt.Errorf("rule value is required")
	}
	return nil
}

// GroupOperator combines the rules inside one group.
type GroupOperator string

const (
	GroupAND GroupOperator = "AND"
	GroupOR  GroupOperator = "OR"
)

// RuleGroup is one evaluation unit: an ordered set of rules combined by
// the group operator. Groups on a campaign are implicitly ANDed together.
// An empty operator means AND.
type RuleGroup struct {
	ID       int           `json:"id"`
	Operator GroupOperator `json:"operator"`
	Rules    []Rule        `json:"rules"`
}

// Validate checks the group operator and every rule in the group.
func (g RuleGroup) Validate() error {
	if g.Operator != GroupAND && g.Operator != GroupOR && g.Operator != "" {
		return fmt.Errorf("unknown group operator %q", g.Operator)
	}
	for i, r := range g.Rules {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return nil
}

// Campaign is an outbound message plus the rule groups selecting its audience.
type Campaign struct {
	ID         string         `json:"id" db:"id"`
	Name       string         `json:"name" db:"name"`
	Message    string         `json:"message" db:"message"`
	RuleGroups []RuleGroup    `json:"ruleGroups" db:"rule_groups"`
	Status     CampaignStatus `json:"status" db:"status"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"`
}

// Validate checks the fields required to persist a campaign.
func (c Campaign) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("campaign name is required")
	}
	if c.Message == "" {
		return fmt.Errorf("campaign message is required")
	}
	for i, g := range c.RuleGroups {
		if err := g.Validate(); err != nil {
			return fmt.Errorf("rule group %d: %w", i, err)
		}
	}
	return nil
}
