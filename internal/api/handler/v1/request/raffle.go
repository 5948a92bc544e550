package request

import (
	"errors"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
)

var (
	addressRegex = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	txHashRegex  = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

	errInvalidAddress = errors.New("wallet_address must be a 0x-prefixed 40 hex character address")
	errInvalidTxHash  = errors.New("tx_hash must be a 0x-prefixed 64 hex character hash")
)

type EnterRaffleRequest struct {
	WalletAddress string `json:"wallet_address"`
	TicketCount   int    `json:"ticket_count"`
	TxHash        string `json:"tx_hash,omitempty"`
}

func (req EnterRaffleRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.WalletAddress,
			validation.Required,
			validation.Match(addressRegex).Error(errInvalidAddress.Error()),
		),
		validation.Field(&req.TicketCount,
			validation.Min(0),
			validation.Max(1000),
		),
		validation.Field(&req.TxHash,
			validation.Match(txHashRegex).Error(errInvalidTxHash.Error()),
		),
	)
}

type ClaimPrizeRequest struct {
	WalletAddress string `json:"wallet_address"`
}

func (req ClaimPrizeRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.WalletAddress,
			validation.Required,
			validation.Match(addressRegex).Error(errInvalidAddress.Error()),
		),
	)
}

type OperatorTokenRequest struct {
	APIKey string `json:"api_key"`
}

func (req OperatorTokenRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.APIKey, validation.Required),
	)
}
