package domain

import "time"

type RoundStatus string

const (
	RoundStatusActive RoundStatus = "active"
	RoundStatusEnded  RoundStatus = "ended"
	RoundStatusDrawn  RoundStatus = "drawn"
)

// Round is one time-boxed cycle of a raffle. A raffle has at most one active
// round at any instant; ended and drawn are terminal for sales.
type Round struct {
	ID                string      `json:"id"`
	RaffleID          string      `json:"raffle_id"`
	RoundNumber       int         `json:"round_number"`
	StartTime         time.Time   `json:"start_time"`
	EndTime           time.Time   `json:"end_time"`
	Status            RoundStatus `json:"status"`
	TotalTicketsSold  int         `json:"total_tickets_sold"`
	TotalPrizePoolWei int64       `json:"total_prize_pool_wei"`
	WinnerAddress     string      `json:"winner_address,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// Expired reports whether the round's sales window has closed at the given
// instant.
func (r Round) Expired(now time.Time) bool {
	return !now.Before(r.EndTime)
}
