package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"clippulse/internal/httpkit"
	"clippulse/internal/models"
	"clippulse/internal/pkg/middleware"
	"clippulse/internal/store"
)

// referralEarningsUSD is the payout credited to the referrer per redeemed
// signup, by the referred user's plan.
var referralEarningsUSD = map[models.Plan]int{
	models.PlanFree:    0,
	models.PlanCreator: 20,
	models.PlanPro:     40,
	models.PlanAgency:  80,
}

// referralBonusCredits is the render-credit bonus granted to the referrer
// on every redeemed signup, regardless of plan.
const referralBonusCredits = 10

// GetReferrals returns the caller's referral code and aggregate stats.
func (h *Handler) GetReferrals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)
	log := h.log.FromContext(ctx).WithUserID(userID)

	user, err := h.users.Get(ctx, userID)
	if err != nil {
		h.writeStoreErr(w, log, err, "user lookup failed")
		return
	}

	stats, err := h.users.ReferralStats(ctx, userID, monthStart(time.Now().UTC()))
	if err != nil {
		log.Error("referral stats query failed", "error", err.Error())
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "db query failed", nil)
		return
	}

	httpkit.WriteJSON(w, 200, map[string]any{
		"referral_code": user.ReferralCode,
		"stats":         stats,
	})
}

type RedeemReferralRequest struct {
	ReferralCode string `json:"referral_code"`
	Plan         string `json:"plan"`
}

// RedeemReferral attributes the caller's signup to the owner of the given
// code and grants the referrer their bonus.
func (h *Handler) RedeemReferral(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)
	log := h.log.FromContext(ctx).WithUserID(userID)

	var req RedeemReferralRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid json body", nil)
		return
	}

	req.ReferralCode = strings.TrimSpace(req.ReferralCode)
	if req.ReferralCode == "" {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "referral_code is required", map[string]any{"field": "referral_code"})
		return
	}
	plan := models.Plan(strings.ToUpper(strings.TrimSpace(req.Plan)))
	if _, ok := models.Plans[plan]; !ok {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "unknown plan: "+req.Plan, map[string]any{"field": "plan"})
		return
	}

	referrer, err := h.users.ByReferralCode(ctx, req.ReferralCode)
	if err != nil {
		h.writeStoreErr(w, log, err, "referral code lookup failed")
		return
	}
	if referrer.ID == userID {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "cannot redeem your own referral code", nil)
		return
	}

	caller, err := h.users.Get(ctx, userID)
	if err != nil {
		h.writeStoreErr(w, log, err, "user lookup failed")
		return
	}

	referral := &store.Referral{
		ID:           uuid.NewString(),
		ReferrerID:   referrer.ID,
		ReferredID:   userID,
		ReferredName: caller.Name,
		Plan:         string(plan),
		EarningsUSD:  referralEarningsUSD[plan],
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.users.CreateReferral(ctx, referral); err != nil {
		if httpkit.IsUniqueViolation(err) {
			httpkit.WriteErr(w, 409, "CONFLICT", "referral already redeemed", nil)
			return
		}
		log.Error("referral insert failed", "error", err.Error())
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "db insert failed", nil)
		return
	}

	if err := h.users.AddCredits(ctx, referrer.ID, referralBonusCredits); err != nil {
		log.Error("referral bonus grant failed", "error", err.Error(), "referrer_id", referrer.ID)
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "bonus grant failed", nil)
		return
	}

	httpkit.WriteJSON(w, 201, map[string]any{
		"referral":      referral,
		"bonus_credits": referralBonusCredits,
	})
}
