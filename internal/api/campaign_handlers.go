package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenolabs/engage/internal/domain"
	"github.com/xenolabs/engage/internal/pkg/httputil"
	"github.com/xenolabs/engage/internal/pkg/logger"
)

// CreateCampaign persists a new draft campaign.
func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var c domain.Campaign
	if !httputil.Decode(w, r, &c) {
		return
	}
	if err := c.Validate(); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	if err := h.campaigns.Create(r.Context(), &c); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.Created(w, c)
}

// ListCampaigns returns all campaigns, newest first.
func (h *Handlers) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.campaigns.List(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if campaigns == nil {
		campaigns = []domain.Campaign{}
	}
	httputil.OK(w, campaigns)
}

// GetCampaign returns one campaign by id.
func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaigns.FindCampaignByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		httputil.NotFound(w, "Campaign not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, c)
}

// UpdateCampaign replaces a campaign's mutable fields.
func (h *Handlers) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var c domain.Campaign
	if !httputil.Decode(w, r, &c) {
		return
	}
	c.ID = chi.URLParam(r, "id")
	if err := c.Validate(); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	err := h.campaigns.Update(r.Context(), &c)
	if errors.Is(err, domain.ErrNotFound) {
		httputil.NotFound(w, "Campaign not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, c)
}

// DeleteCampaign removes a campaign.
func (h *Handlers) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	err := h.campaigns.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		httputil.NotFound(w, "Campaign not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"message": "Campaign deleted successfully"})
}

// PreviewAudience estimates the audience for a rule set and returns a
// bounded sample for the campaign builder.
func (h *Handlers) PreviewAudience(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RuleGroups []domain.RuleGroup `json:"ruleGroups"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.RuleGroups == nil {
		httputil.BadRequest(w, "ruleGroups is required")
		return
	}

	preview, err := h.previewer.Preview(r.Context(), req.RuleGroups)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, preview)
}

// DeliverCampaign initiates delivery. The response returns before any
// message reaches the vendor; actual outcomes surface later in the logs.
func (h *Handlers) DeliverCampaign(w http.ResponseWriter, r *http.Request) {
	result, err := h.dispatcher.Dispatch(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, domain.ErrNotFound) {
		httputil.NotFound(w, "Campaign not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	logger.Info("campaign delivery initiated",
		"campaign", chi.URLParam(r, "id"), "recipients", result.TotalRecipients)
	httputil.OK(w, map[string]any{
		"message":         "Campaign delivery initiated",
		"totalRecipients": result.TotalRecipients,
		"status":          result.Status,
	})
}

// SubmitDeliveryReceipts accepts vendor outcome callbacks. The body must be
// {"logs": [...]}; anything else is a client error.
func (h *Handlers) SubmitDeliveryReceipts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Logs json.RawMessage `json:"logs"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}

	// json.Unmarshal accepts the literal null into a nil slice, so it has
	// to be rejected explicitly along with missing and non-array payloads.
	var rcpts []domain.DeliveryReceipt
	if len(req.Logs) == 0 || bytes.Equal(req.Logs, []byte("null")) ||
		json.Unmarshal(req.Logs, &rcpts) != nil {
		httputil.BadRequest(w, "Logs must be an array")
		return
	}

	result, err := h.reconciler.Reconcile(r.Context(), rcpts)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, map[string]any{
		"message":        "Delivery receipts processed successfully",
		"processedCount": result.ProcessedCount,
		"batchResults":   result.BatchResults,
	})
}

// UpdateCampaignStatus patches only the status field.
func (h *Handlers) UpdateCampaignStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status domain.CampaignStatus `json:"status"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Status == "" {
		httputil.BadRequest(w, "Status is required")
		return
	}
	if !req.Status.Valid() {
		httputil.BadRequest(w, "unknown status "+string(req.Status))
		return
	}

	id := chi.URLParam(r, "id")
	err := h.campaigns.UpdateCampaignStatus(r.Context(), id, req.Status)
	if errors.Is(err, domain.ErrNotFound) {
		httputil.NotFound(w, "Campaign not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	c, err := h.campaigns.FindCampaignByID(r.Context(), id)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"message": "Campaign status updated", "campaign": c})
}

// CampaignHistoryEntry is one campaign's delivery aggregate.
type CampaignHistoryEntry struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Date         string  `json:"date"`
	AudienceSize int     `json:"audienceSize"`
	Sent         int     `json:"sent"`
	Failed       int     `json:"failed"`
	SuccessRate  float64 `json:"successRate"`
	Message      string  `json:"message"`
}

// CampaignHistory aggregates log outcomes per campaign plus overall totals.
func (h *Handlers) CampaignHistory(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.campaigns.List(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	stats, err := h.logStats.CampaignLogStats(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	entries := make([]CampaignHistoryEntry, 0, len(campaigns))
	var totalSent, totalFailed int
	for _, c := range campaigns {
		s := stats[c.ID]
		rate := 0.0
		if s.Total > 0 {
			rate = float64(s.Sent) / float64(s.Total)
		}
		entries = append(entries, CampaignHistoryEntry{
			ID:           c.ID,
			Name:         c.Name,
			Date:         c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			AudienceSize: s.Total,
			Sent:         s.Sent,
			Failed:       s.Failed,
			SuccessRate:  rate,
			Message:      c.Message,
		})
		totalSent += s.Sent
		totalFailed += s.Failed
	}

	overallRate := 0.0
	if totalSent+totalFailed > 0 {
		overallRate = float64(totalSent) / float64(totalSent+totalFailed)
	}

	httputil.OK(w, map[string]any{
		"campaigns": entries,
		"stats": map[string]any{
			"total":       len(entries),
			"sent":        totalSent,
			"failed":      totalFailed,
			"successRate": overallRate,
		},
	})
}
