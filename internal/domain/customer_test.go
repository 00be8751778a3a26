package domain

import "testing"

func TestNumericAttribute(t *testing.T) {
	c := Customer{Spend: 15000.5, Visits: 12, InactiveDays: 45, TotalOrders: 9, AvgOrderValue: 1666.72}

	tests := []struct {
		field RuleField
		want  float64
		ok    bool
	}{
		{FieldSpend, 15000.5, true},
		{FieldVisits, 12, true},
		{FieldInactiveDays, 45, true},
		{FieldTotalOrders, 9, true},
		{FieldAvgOrderValue, 1666.72, true},
		{"name", 0, false},
		{"loyalty_tier", 0, false},
	}
	for _, tt := range tests {
		got, ok := c.NumericAttribute(tt.field)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NumericAttribute(%q) = (%v, %v), want (%v, %v)", tt.field, got, ok, tt.want, tt.ok)
		}
	}
}

func TestStringAttribute(t *testing.T) {
	c := Customer{Name: "Ada", Email: "ada@example.com", Spend: 15000}

	tests := []struct {
		field RuleField
		want  string
		ok    bool
	}{
		{"name", "Ada", true},
		{"email", "ada@example.com", true},
		{FieldSpend, "15000", true}, // no trailing zeros
		{"phone", "", false},
	}
	for _, tt := range tests {
		got, ok := c.StringAttribute(tt.field)
		if got != tt.want || ok != tt.ok {
			t.Errorf("StringAttribute(%q) = (%q, %v), want (%q, %v)", tt.field, got, ok, tt.want, tt.ok)
		}
	}
}
