package models

import "time"

// Plan is a subscription tier. FREE output is watermarked.
type Plan string

const (
	PlanFree    Plan = "FREE"
	PlanCreator Plan = "CREATOR"
	PlanPro     Plan = "PRO"
	PlanAgency  Plan = "AGENCY"
)

// PlanInfo describes what a tier buys per month.
type PlanInfo struct {
	Name     string `json:"name"`
	PriceUSD int    `json:"price_usd"`
	Credits  int    `json:"credits"`
}

// Plans is the billing table. Prices are monthly.
var Plans = map[Plan]PlanInfo{
	PlanFree:    {Name: "Free", PriceUSD: 0, Credits: 3},
	PlanCreator: {Name: "Creator", PriceUSD: 19, Credits: 15},
	PlanPro:     {Name: "Pro", PriceUSD: 49, Credits: 60},
	PlanAgency:  {Name: "Agency", PriceUSD: 199, Credits: 250},
}

// User carries only the fields the backend reads or writes. Identity and
// session management live in the fronting OAuth layer.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	Plan         Plan      `json:"plan"`
	Credits      int       `json:"credits"`
	ReferralCode string    `json:"referral_code,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
