package domain

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

// RevealPayload is the secret committed to before a draw and revealed at
// draw time. Anyone holding the payload and the final ticket count can
// recompute both the commit hash and the winning slot offline.
type RevealPayload struct {
	Nonce     string `json:"nonce"`
	Secret    string `json:"secret"`
	Timestamp int64  `json:"timestamp"`
}

// Serialize renders the payload in its canonical committed form:
// "nonce:secret:timestamp" with the timestamp in decimal unix seconds.
func (p RevealPayload) Serialize() string {
	return fmt.Sprintf("%s:%s:%d", p.Nonce, p.Secret, p.Timestamp)
}

// CommitHash is the lowercase hex SHA-256 of the serialized payload. This is
// the value published before the draw.
func (p RevealPayload) CommitHash() string {
	sum := sha256.Sum256([]byte(p.Serialize()))
	return hex.EncodeToString(sum[:])
}

// DeriveWinningSlot maps the revealed payload and the round's final ticket
// count to a slot in [0, totalTickets). It is HMAC-SHA256 keyed by the
// secret over "nonce:timestamp:totalTickets", interpreted as a big-endian
// integer and reduced modulo totalTickets. No other entropy participates.
func DeriveWinningSlot(p RevealPayload, totalTickets int64) int64 {
	if totalTickets <= 0 {
		return 0
	}
	mac := hmac.New(sha256.New, []byte(p.Secret))
	fmt.Fprintf(mac, "%s:%d:%d", p.Nonce, p.Timestamp, totalTickets)

	n := new(big.Int).SetBytes(mac.Sum(nil))
	return n.Mod(n, big.NewInt(totalTickets)).Int64()
}

// WinnerForSlot walks the entries in their given (stable) order, each entry
// occupying TicketCount consecutive slots, and returns the wallet owning the
// slot. The second return is false when the slot is out of range.
func WinnerForSlot(entries []Entry, slot int64) (string, bool) {
	var cursor int64
	for _, e := range entries {
		cursor += int64(e.TicketCount)
		if slot < cursor {
			return e.WalletAddress, true
		}
	}
	return "", false
}

// DrawCommit is the stored secret side of a round's commitment. Only the
// CommitHash is exposed before the draw.
type DrawCommit struct {
	RoundID    string    `json:"round_id"`
	Nonce      string    `json:"-"`
	Secret     string    `json:"-"`
	Timestamp  int64     `json:"-"`
	CommitHash string    `json:"commit_hash"`
	Revealed   bool      `json:"revealed"`
	CreatedAt  time.Time `json:"created_at"`
}

// Payload returns the reveal payload held by the commit.
func (c DrawCommit) Payload() RevealPayload {
	return RevealPayload{Nonce: c.Nonce, Secret: c.Secret, Timestamp: c.Timestamp}
}

// Winner is the outcome of one round's draw, created exactly once and never
// mutated afterwards except to mark the prize claimed.
type Winner struct {
	ID             uint      `json:"id"`
	RoundID        string    `json:"round_id"`
	RaffleID       string    `json:"raffle_id"`
	WalletAddress  string    `json:"wallet_address"`
	PrizeAmountWei int64     `json:"prize_amount_wei"`
	CommitHash     string    `json:"commit_hash"`
	Nonce          string    `json:"nonce"`
	Secret         string    `json:"secret"`
	Timestamp      int64     `json:"timestamp"`
	WinningSlot    int64     `json:"winning_slot"`
	TotalTickets   int64     `json:"total_tickets"`
	DrawnAt        time.Time `json:"drawn_at"`
	Claimed        bool      `json:"claimed"`
	ClaimTxHash    string    `json:"claim_tx_hash,omitempty"`
}

// RevealPayload returns the payload recorded with the winner, for offline
// verification against CommitHash.
func (w Winner) RevealPayload() RevealPayload {
	return RevealPayload{Nonce: w.Nonce, Secret: w.Secret, Timestamp: w.Timestamp}
}
