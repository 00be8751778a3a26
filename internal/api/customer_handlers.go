package api

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/xenolabs/engage/internal/domain"
	"github.com/xenolabs/engage/internal/pkg/httputil"
	"github.com/xenolabs/engage/internal/pkg/logger"
	"github.com/xenolabs/engage/internal/repository/postgres"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// CreateCustomer validates and persists one customer.
func (h *Handlers) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var c domain.Customer
	if !httputil.Decode(w, r, &c) {
		return
	}
	if c.Name == "" || c.Email == "" {
		httputil.BadRequest(w, "Name and email are required")
		return
	}
	if !emailRe.MatchString(c.Email) {
		httputil.BadRequest(w, "Invalid email format")
		return
	}

	err := h.customers.Create(r.Context(), &c)
	if errors.Is(err, domain.ErrDuplicateEmail) {
		httputil.BadRequest(w, "Email already registered")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	logger.Info("customer created", "id", c.ID, "email", logger.RedactEmail(c.Email))
	httputil.Created(w, c)
}

// ListCustomers returns the whole collection in insertion order.
func (h *Handlers) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.FindCustomers(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if customers == nil {
		customers = []domain.Customer{}
	}
	httputil.OK(w, customers)
}

// CustomerMetrics returns the analytics overview block.
func (h *Handlers) CustomerMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.customers.GetMetrics(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, metrics)
}

type rangeSpec struct {
	label string
	min   float64
	max   float64
}

var activityRanges = []rangeSpec{
	{"0-7", 0, 7},
	{"8-15", 8, 15},
	{"16-30", 16, 30},
	{"31-60", 31, 60},
	{"60+", 61, 999},
}

var spendingRanges = []rangeSpec{
	{"0-1000", 0, 1000},
	{"1001-5000", 1001, 5000},
	{"5001-10000", 5001, 10000},
	{"10001-50000", 10001, 50000},
	{"50000+", 50001, 999999},
}

func (h *Handlers) rangeBreakdown(w http.ResponseWriter, r *http.Request, column string, specs []rangeSpec) {
	out := make([]postgres.RangeCount, 0, len(specs))
	for _, spec := range specs {
		count, err := h.customers.CountByRange(r.Context(), column, spec.min, spec.max)
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		out = append(out, postgres.RangeCount{Range: spec.label, Count: count})
	}
	httputil.OK(w, out)
}

// CustomerActivity buckets customers by inactivity.
func (h *Handlers) CustomerActivity(w http.ResponseWriter, r *http.Request) {
	h.rangeBreakdown(w, r, "inactive_days", activityRanges)
}

// CustomerSpending buckets customers by lifetime spend.
func (h *Handlers) CustomerSpending(w http.ResponseWriter, r *http.Request) {
	h.rangeBreakdown(w, r, "spend", spendingRanges)
}

// TopCustomers returns the ten highest spenders.
func (h *Handlers) TopCustomers(w http.ResponseWriter, r *http.Request) {
	top, err := h.customers.TopBySpend(r.Context(), 10)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if top == nil {
		top = []domain.Customer{}
	}
	httputil.OK(w, top)
}
