// Package audience resolves campaign rule groups into the set of matching
// customers and produces bounded previews for the campaign builder UI.
package audience

import (
	"context"
	"fmt"
	"time"

	"github.com/xenolabs/engage/internal/domain"
	"github.com/xenolabs/engage/internal/rules"
)

// SampleLimit is how many matched customers a preview carries.
const SampleLimit = 5

// CustomerSource provides the customer collection to filter. Ordering is
// the source's natural insertion order; the resolver does not re-sort.
type CustomerSource interface {
	FindCustomers(ctx context.Context) ([]domain.Customer, error)
}

// CustomerSample is the fixed preview projection of one matched customer.
type CustomerSample struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Email         string  `json:"email"`
	Spend         float64 `json:"spend"`
	Visits        int     `json:"visits"`
	InactiveDays  int     `json:"inactive_days"`
	TotalOrders   int     `json:"total_orders"`
	AvgOrderValue float64 `json:"avg_order_value"`
}

// Preview is the response shape for the audience preview endpoint.
type Preview struct {
	EstimatedAudienceSize int              `json:"estimatedAudienceSize"`
	SampleCustomers       []CustomerSample `json:"sampleCustomers"`
	CalculatedAt          time.Time        `json:"calculated_at"`
}

// Audience is a resolved recipient set.
type Audience struct {
	Matched    []domain.Customer
	SampleSize int
}

// Resolver filters the customer collection through the rule evaluator.
type Resolver struct {
	source CustomerSource
	eval   *rules.Evaluator
}

// NewResolver creates a resolver over the given customer source.
func NewResolver(source CustomerSource, eval *rules.Evaluator) *Resolver {
	return &Resolver{source: source, eval: eval}
}

// Resolve returns every customer satisfying all rule groups, in source
// order, plus the bounded sample size.
func (r *Resolver) Resolve(ctx context.Context, groups []domain.RuleGroup) (*Audience, error) {
	customers, err := r.source.FindCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("find customers: %w", err)
	}

	var matched []domain.Customer
	for _, c := range customers {
		if r.eval.MatchesAll(c, groups) {
			matched = append(matched, c)
		}
	}

	sample := len(matched)
	if sample > SampleLimit {
		sample = SampleLimit
	}
	return &Audience{Matched: matched, SampleSize: sample}, nil
}

// Preview resolves the groups and projects the first matches into the
// preview shape.
func (r *Resolver) Preview(ctx context.Context, groups []domain.RuleGroup) (*Preview, error) {
	aud, err := r.Resolve(ctx, groups)
	if err != nil {
		return nil, err
	}

	samples := make([]CustomerSample, 0, aud.SampleSize)
	for _, c := range aud.Matched[:aud.SampleSize] {
		samples = append(samples, CustomerSample{
			ID:            c.ID,
			Name:          c.Name,
			Email:         c.Email,
			Spend:         c.Spend,
			Visits:        c.Visits,
			InactiveDays:  c.InactiveDays,
			TotalOrders:   c.TotalOrders,
			AvgOrderValue: c.AvgOrderValue,
		})
	}

	return &Preview{
		EstimatedAudienceSize: len(aud.Matched),
		SampleCustomers:       samples,
		CalculatedAt:          time.Now(),
	}, nil
}
