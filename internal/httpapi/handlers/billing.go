package handlers

import (
	"net/http"
	"time"

	"clippulse/internal/httpkit"
	"clippulse/internal/models"
	"clippulse/internal/pkg/middleware"
)

// BillingUsage reports the user's balance, plan and current-month consumption.
func (h *Handler) BillingUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)
	log := h.log.FromContext(ctx).WithUserID(userID)

	user, err := h.users.Get(ctx, userID)
	if err != nil {
		h.writeStoreErr(w, log, err, "user lookup failed")
		return
	}

	plan, ok := models.Plans[user.Plan]
	if !ok {
		plan = models.Plans[models.PlanFree]
	}

	creditsUsed, videoCount, err := h.videos.MonthlyUsage(ctx, userID, monthStart(time.Now().UTC()))
	if err != nil {
		log.Error("usage query failed", "error", err.Error())
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "db query failed", nil)
		return
	}

	httpkit.WriteJSON(w, 200, map[string]any{
		"credits": user.Credits,
		"plan": map[string]any{
			"id":        string(user.Plan),
			"name":      plan.Name,
			"price_usd": plan.PriceUSD,
			"credits":   plan.Credits,
		},
		"this_month": map[string]any{
			"credits_used": creditsUsed,
			"videos":       videoCount,
		},
	})
}

// monthStart truncates t to the first instant of its calendar month.
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
