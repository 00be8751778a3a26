package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/xenolabs/engage/internal/domain"
	"github.com/xenolabs/engage/internal/pkg/httputil"
)

// CreateOrder persists a new order.
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var o domain.Order
	if !httputil.Decode(w, r, &o) {
		return
	}
	if o.CustomerID == "" || len(o.Items) == 0 || o.Amount <= 0 {
		httputil.BadRequest(w, "Customer ID, items, and total amount are required")
		return
	}
	if err := o.Validate(); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	if err := h.orders.Create(r.Context(), &o); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, map[string]any{"message": "Order created successfully", "order": o})
}

// ListOrders returns all orders, newest first.
func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	httputil.OK(w, orders)
}

// GetOrder returns one order by id.
func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.FindOrderByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		httputil.NotFound(w, "Order not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, o)
}

// UpdateOrder replaces an order's items and amount.
func (h *Handlers) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var o domain.Order
	if !httputil.Decode(w, r, &o) {
		return
	}
	if len(o.Items) == 0 || o.Amount <= 0 {
		httputil.BadRequest(w, "Items and total amount are required")
		return
	}
	o.ID = chi.URLParam(r, "id")

	err := h.orders.UpdateOrder(r.Context(), &o)
	if errors.Is(err, domain.ErrNotFound) {
		httputil.NotFound(w, "Order not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"message": "Order updated successfully", "order": o})
}

// DeleteOrder removes an order. The customer's spend is deducted by the
// store so segmentation keeps seeing accurate totals.
func (h *Handlers) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	err := h.orders.DeleteOrder(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		httputil.NotFound(w, "Order not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"message": "Order deleted successfully"})
}

// MessageSuggestions generates campaign message templates from a stated
// objective. Plain string templating, no model behind it.
func (h *Handlers) MessageSuggestions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Objective string `json:"objective"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Objective == "" {
		httputil.BadRequest(w, "Objective is required")
		return
	}

	obj := capitalize(req.Objective)
	suggestions := []string{
		"Don't miss out! " + obj + ". Enjoy an exclusive offer just for you!",
		"We're thinking of you! " + obj + ". Come back and get a special deal!",
		"It's time to reconnect! " + obj + ". Unlock your next reward today!",
	}
	httputil.OK(w, map[string]any{"suggestions": suggestions})
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
