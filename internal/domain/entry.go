package domain

import (
	"strings"
	"time"
)

type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "pending"
	EntryStatusConfirmed EntryStatus = "confirmed"
	EntryStatusFailed    EntryStatus = "failed"
)

type EntryType string

const (
	EntryTypeRaffleEntry EntryType = "raffle_entry"
	EntryTypePrizeClaim  EntryType = "prize_claim"
	EntryTypeRefund      EntryType = "refund"
)

// Entry is one ledger record: a ticket purchase, a prize claim or a refund
// by one wallet in one round. Entries are created pending and settle to
// confirmed or failed exactly once; they are immutable afterwards.
type Entry struct {
	ID            uint        `json:"id"`
	WalletAddress string      `json:"wallet_address"`
	RaffleID      string      `json:"raffle_id"`
	RoundID       string      `json:"round_id"`
	TicketCount   int         `json:"ticket_count"`
	AmountWei     int64       `json:"amount_wei"`
	TxHash        string      `json:"tx_hash,omitempty"`
	Status        EntryStatus `json:"status"`
	Type          EntryType   `json:"type"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// UserStats is derived from a wallet's confirmed entries on every read.
type UserStats struct {
	WalletAddress    string `json:"wallet_address"`
	TicketsPurchased int    `json:"tickets_purchased"`
	TotalSpentWei    int64  `json:"total_spent_wei"`
	RafflesEntered   int    `json:"raffles_entered"`
	RafflesWon       int    `json:"raffles_won"`
	TotalWinningsWei int64  `json:"total_winnings_wei"`
}

// NormalizeAddress lowercases a wallet address so ledger lookups are
// case-insensitive, matching how EVM addresses are compared.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// ComputeUserStats derives a wallet's statistics from its entries. Only
// confirmed entries count.
func ComputeUserStats(walletAddress string, entries []Entry) UserStats {
	stats := UserStats{WalletAddress: NormalizeAddress(walletAddress)}
	rafflesEntered := make(map[string]struct{})

	for _, e := range entries {
		if e.Status != EntryStatusConfirmed {
			continue
		}
		switch e.Type {
		case EntryTypeRaffleEntry:
			stats.TicketsPurchased += e.TicketCount
			stats.TotalSpentWei += e.AmountWei
			rafflesEntered[e.RaffleID] = struct{}{}
		case EntryTypePrizeClaim:
			stats.RafflesWon++
			stats.TotalWinningsWei += e.AmountWei
		}
	}

	stats.RafflesEntered = len(rafflesEntered)
	return stats
}
