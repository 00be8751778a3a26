package api

import (
	"context"
	"net/http"

	"github.com/xenolabs/engage/internal/audience"
	"github.com/xenolabs/engage/internal/dispatch"
	"github.com/xenolabs/engage/internal/domain"
	"github.com/xenolabs/engage/internal/pkg/httputil"
	"github.com/xenolabs/engage/internal/receipts"
	"github.com/xenolabs/engage/internal/repository/postgres"
)

// CampaignStore is the campaign persistence the handlers consume.
type CampaignStore interface {
	FindCampaignByID(ctx context.Context, id string) (*domain.Campaign, error)
	List(ctx context.Context) ([]domain.Campaign, error)
	Create(ctx context.Context, c *domain.Campaign) error
	Update(ctx context.Context, c *domain.Campaign) error
	UpdateCampaignStatus(ctx context.Context, id string, status domain.CampaignStatus) error
	Delete(ctx context.Context, id string) error
}

// CustomerStore is the customer persistence plus analytics aggregates.
type CustomerStore interface {
	FindCustomers(ctx context.Context) ([]domain.Customer, error)
	Create(ctx context.Context, c *domain.Customer) error
	GetMetrics(ctx context.Context) (*postgres.Metrics, error)
	CountByRange(ctx context.Context, column string, min, max float64) (int, error)
	TopBySpend(ctx context.Context, limit int) ([]domain.Customer, error)
}

// OrderStore is the order persistence the handlers consume.
type OrderStore interface {
	FindOrderByID(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	Create(ctx context.Context, o *domain.Order) error
	UpdateOrder(ctx context.Context, o *domain.Order) error
	DeleteOrder(ctx context.Context, id string) error
}

// LogStatsSource supplies per-campaign log aggregates for the history view.
type LogStatsSource interface {
	CampaignLogStats(ctx context.Context) (map[string]postgres.LogStats, error)
}

// CampaignDispatcher initiates delivery for one campaign.
type CampaignDispatcher interface {
	Dispatch(ctx context.Context, campaignID string) (*dispatch.Result, error)
}

// ReceiptProcessor applies vendor delivery receipts.
type ReceiptProcessor interface {
	Reconcile(ctx context.Context, rcpts []domain.DeliveryReceipt) (*receipts.Result, error)
}

// Handlers carries the dependencies for all HTTP endpoints.
type Handlers struct {
	campaigns  CampaignStore
	customers  CustomerStore
	orders     OrderStore
	logStats   LogStatsSource
	previewer  audience.Previewer
	dispatcher CampaignDispatcher
	reconciler ReceiptProcessor
}

// NewHandlers wires the handler set.
func NewHandlers(
	campaigns CampaignStore,
	customers CustomerStore,
	orders OrderStore,
	logStats LogStatsSource,
	previewer audience.Previewer,
	dispatcher CampaignDispatcher,
	reconciler ReceiptProcessor,
) *Handlers {
	return &Handlers{
		campaigns:  campaigns,
		customers:  customers,
		orders:     orders,
		logStats:   logStats,
		previewer:  previewer,
		dispatcher: dispatcher,
		reconciler: reconciler,
	}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{"status": "ok"})
}
