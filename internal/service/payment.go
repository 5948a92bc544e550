package service

import (
	"context"
	"errors"
)

var (
	ErrPaymentRejected = errors.New("payment rejected")
	ErrPaymentTimeout  = errors.New("payment confirmation timed out")
	ErrAbandoned       = errors.New("entry abandoned before settlement")
)

type PaymentState string

const (
	PaymentStateConfirmed PaymentState = "confirmed"
	PaymentStatePending   PaymentState = "pending"
	PaymentStateFailed    PaymentState = "failed"
)

// PaymentRequest describes a player-signed transfer to the treasury that the
// gateway must verify on chain.
type PaymentRequest struct {
	TxHash        string
	WalletAddress string
	AmountWei     int64
}

type PaymentReceipt struct {
	TxHash string
}

// PaymentGateway abstracts the chain. Players pay client-side and hand the
// transaction hash over; Verify blocks until that transfer is confirmed to
// the treasury for at least the requested amount, or definitively rejected.
// Status reports the current fate of a transfer without blocking on
// confirmation. Payout signs and sends treasury funds out.
type PaymentGateway interface {
	Verify(ctx context.Context, req PaymentRequest) (PaymentReceipt, error)
	Status(ctx context.Context, txHash string) (PaymentState, error)
	Payout(ctx context.Context, walletAddress string, amountWei int64) (PaymentReceipt, error)
}
