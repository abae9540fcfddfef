package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clippulse/internal/models"
	"clippulse/internal/pkg/errors"
)

// Users reads user billing state and applies credit movements. Credit
// mutations are single UPDATE statements so concurrent jobs for the same
// user never lose updates to a read-modify-write race.
type Users struct {
	pool *pgxpool.Pool
}

func NewUsers(pool *pgxpool.Pool) *Users {
	return &Users{pool: pool}
}

// Get fetches the user's billing-relevant fields.
func (s *Users) Get(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	var plan string
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, COALESCE(name,''), plan, credits,
		        COALESCE(referral_code,''), created_at
		 FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.Email, &u.Name, &plan, &u.Credits, &u.ReferralCode, &u.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Plan = models.Plan(plan)
	return &u, nil
}

// DecrementCredits atomically charges the user. Called exactly once per
// completed job; failed jobs never charge.
func (s *Users) DecrementCredits(ctx context.Context, id string, amount int) error {
	if amount == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET credits = credits - $2 WHERE id=$1`, id, amount)
	if err != nil {
		return fmt.Errorf("decrement credits: %w", err)
	}
	return nil
}

// AddCredits atomically grants credits (plan refills, referral bonuses).
func (s *Users) AddCredits(ctx context.Context, id string, amount int) error {
	if amount == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET credits = credits + $2 WHERE id=$1`, id, amount)
	if err != nil {
		return fmt.Errorf("add credits: %w", err)
	}
	return nil
}

// ByReferralCode resolves the owner of a referral code.
func (s *Users) ByReferralCode(ctx context.Context, code string) (*models.User, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`SELECT id FROM users WHERE referral_code=$1`, code).Scan(&id)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("referral code", code)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup referral code: %w", err)
	}
	return s.Get(ctx, id)
}

// Referral is one successful signup attributed to a referrer.
type Referral struct {
	ID           string    `json:"id"`
	ReferrerID   string    `json:"referrer_id"`
	ReferredID   string    `json:"referred_id"`
	ReferredName string    `json:"referred_name,omitempty"`
	Plan         string    `json:"plan"`
	EarningsUSD  int       `json:"earnings_usd"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateReferral records a redeemed referral. The referrals table holds a
// unique index on referred_id, so a second redemption by the same user
// surfaces as a unique violation.
func (s *Users) CreateReferral(ctx context.Context, r *Referral) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO referrals (id, referrer_id, referred_id, referred_name, plan, earnings_usd, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		r.ID, r.ReferrerID, r.ReferredID, r.ReferredName, r.Plan, r.EarningsUSD, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert referral: %w", err)
	}
	return nil
}

// ReferralStats aggregates a referrer's totals and current-month numbers.
type ReferralStats struct {
	Total          int `json:"total_referrals"`
	TotalEarnings  int `json:"total_earnings_usd"`
	MonthReferrals int `json:"this_month_referrals"`
	MonthEarnings  int `json:"this_month_earnings_usd"`
}

func (s *Users) ReferralStats(ctx context.Context, referrerID string, monthStart time.Time) (ReferralStats, error) {
	var st ReferralStats
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(SUM(earnings_usd),0),
		        COUNT(*) FILTER (WHERE created_at >= $2),
		        COALESCE(SUM(earnings_usd) FILTER (WHERE created_at >= $2),0)
		 FROM referrals WHERE referrer_id=$1`,
		referrerID, monthStart).
		Scan(&st.Total, &st.TotalEarnings, &st.MonthReferrals, &st.MonthEarnings)
	if err != nil {
		return ReferralStats{}, fmt.Errorf("referral stats: %w", err)
	}
	return st, nil
}
