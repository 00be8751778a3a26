package domain

import (
	"strconv"
	"time"
)

// Customer is one CRM contact with the denormalized engagement attributes
// the rule engine filters on.
type Customer struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Email         string    `json:"email" db:"email"`
	Spend         float64   `json:"spend" db:"spend"`
	Visits        int       `json:"visits" db:"visits"`
	InactiveDays  int       `json:"inactive_days" db:"inactive_days"`
	TotalOrders   int       `json:"total_orders" db:"total_orders"`
	AvgOrderValue float64   `json:"avg_order_value" db:"avg_order_value"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// NumericAttribute returns the customer's value for a numeric rule field.
// The second return is false when the field has no numeric form.
func (c Customer) NumericAttribute(field RuleField) (float64, bool) {
	switch field {
	case FieldSpend:
		return c.Spend, true
	case FieldVisits:
		return float64(c.Visits), true
	case FieldInactiveDays:
		return float64(c.InactiveDays), true
	case FieldTotalOrders:
		return float64(c.TotalOrders), true
	case FieldAvgOrderValue:
		return c.AvgOrderValue, true
	}
	return 0, false
}

// StringAttribute returns the string form of a customer attribute for the
// substring operators. Numeric attributes are rendered the short way
// (no trailing zeros) so "15000" matches a spend of 15000.
func (c Customer) StringAttribute(field RuleField) (string, bool) {
	switch field {
	case "name":
		return c.Name, true
	case "email":
		return c.Email, true
	}
	if v, ok := c.NumericAttribute(field); ok {
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}
