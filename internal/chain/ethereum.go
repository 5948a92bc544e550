package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/lottagg/raffle-api/internal/config"
	"github.com/lottagg/raffle-api/internal/service"
)

var (
	ErrTxNotFound     = errors.New("transaction not found on chain")
	ErrWrongRecipient = errors.New("transaction does not pay the treasury")
	ErrWrongSender    = errors.New("transaction not sent by the entering wallet")
	ErrUnderpaid      = errors.New("transaction value below the entry fee")
	ErrTxReverted     = errors.New("transaction reverted")
	ErrNoTreasuryKey  = errors.New("treasury key not configured")
)

const transferGasLimit = 21000

// Gateway talks to an EVM chain over JSON-RPC. Entry payments are
// player-signed transfers to the treasury that the gateway verifies by
// hash; payouts are treasury-signed transfers out.
type Gateway struct {
	client       *ethclient.Client
	chainID      *big.Int
	treasury     common.Address
	treasuryKey  *ecdsa.PrivateKey
	pollInterval time.Duration
}

func NewGateway(ctx context.Context, conf *config.ChainConfig) (*Gateway, error) {
	client, err := ethclient.DialContext(ctx, conf.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("ethclient.DialContext -> %w", err)
	}

	g := &Gateway{
		client:       client,
		chainID:      big.NewInt(conf.ChainID),
		treasury:     common.HexToAddress(conf.TreasuryAddress),
		pollInterval: 3 * time.Second,
	}

	if conf.TreasuryPrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(conf.TreasuryPrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("crypto.HexToECDSA -> %w", err)
		}
		g.treasuryKey = key
	}

	return g, nil
}

// Verify blocks until the player's transfer is mined and checks that it
// pays the treasury at least the entry fee from the entering wallet.
func (g *Gateway) Verify(ctx context.Context, req service.PaymentRequest) (service.PaymentReceipt, error) {
	hash := common.HexToHash(req.TxHash)

	tx, err := g.waitForTx(ctx, hash)
	if err != nil {
		return service.PaymentReceipt{}, err
	}

	if tx.To() == nil || *tx.To() != g.treasury {
		return service.PaymentReceipt{}, ErrWrongRecipient
	}
	if tx.Value().Cmp(big.NewInt(req.AmountWei)) < 0 {
		return service.PaymentReceipt{}, ErrUnderpaid
	}

	sender, err := types.Sender(types.LatestSignerForChainID(g.chainID), tx)
	if err != nil {
		return service.PaymentReceipt{}, fmt.Errorf("types.Sender -> %w", err)
	}
	if !strings.EqualFold(sender.Hex(), req.WalletAddress) {
		return service.PaymentReceipt{}, ErrWrongSender
	}

	receipt, err := g.waitForReceipt(ctx, hash)
	if err != nil {
		return service.PaymentReceipt{}, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return service.PaymentReceipt{}, ErrTxReverted
	}

	return service.PaymentReceipt{TxHash: req.TxHash}, nil
}

// Status reports the current fate of a transfer without blocking on
// confirmation.
func (g *Gateway) Status(ctx context.Context, txHash string) (service.PaymentState, error) {
	hash := common.HexToHash(txHash)

	receipt, err := g.client.TransactionReceipt(ctx, hash)
	if err == nil {
		if receipt.Status == types.ReceiptStatusSuccessful {
			return service.PaymentStateConfirmed, nil
		}
		return service.PaymentStateFailed, nil
	}
	if !errors.Is(err, ethereum.NotFound) {
		return "", fmt.Errorf("g.client.TransactionReceipt -> %w", err)
	}

	_, pending, err := g.client.TransactionByHash(ctx, hash)
	switch {
	case err == nil && pending:
		return service.PaymentStatePending, nil
	case err == nil:
		// Mined but no receipt yet, treat as still pending.
		return service.PaymentStatePending, nil
	case errors.Is(err, ethereum.NotFound):
		return service.PaymentStateFailed, nil
	default:
		return "", fmt.Errorf("g.client.TransactionByHash -> %w", err)
	}
}

// Payout signs and sends a plain transfer from the treasury, then waits for
// it to be mined.
func (g *Gateway) Payout(ctx context.Context, walletAddress string, amountWei int64) (service.PaymentReceipt, error) {
	if g.treasuryKey == nil {
		return service.PaymentReceipt{}, ErrNoTreasuryKey
	}

	nonce, err := g.client.PendingNonceAt(ctx, g.treasury)
	if err != nil {
		return service.PaymentReceipt{}, fmt.Errorf("g.client.PendingNonceAt -> %w", err)
	}

	gasPrice, err := g.client.SuggestGasPrice(ctx)
	if err != nil {
		return service.PaymentReceipt{}, fmt.Errorf("g.client.SuggestGasPrice -> %w", err)
	}

	tx := types.NewTransaction(nonce, common.HexToAddress(walletAddress), big.NewInt(amountWei), transferGasLimit, gasPrice, nil)

	signed, err := types.SignTx(tx, types.NewEIP155Signer(g.chainID), g.treasuryKey)
	if err != nil {
		return service.PaymentReceipt{}, fmt.Errorf("types.SignTx -> %w", err)
	}

	if err := g.client.SendTransaction(ctx, signed); err != nil {
		return service.PaymentReceipt{}, fmt.Errorf("g.client.SendTransaction -> %w", err)
	}

	zap.L().Info("payout submitted",
		zap.String("wallet", walletAddress),
		zap.Int64("amount_wei", amountWei),
		zap.String("tx_hash", signed.Hash().Hex()),
	)

	receipt, err := g.waitForReceipt(ctx, signed.Hash())
	if err != nil {
		return service.PaymentReceipt{}, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return service.PaymentReceipt{}, ErrTxReverted
	}

	return service.PaymentReceipt{TxHash: signed.Hash().Hex()}, nil
}

func (g *Gateway) waitForTx(ctx context.Context, hash common.Hash) (*types.Transaction, error) {
	for {
		tx, _, err := g.client.TransactionByHash(ctx, hash)
		if err == nil {
			return tx, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("g.client.TransactionByHash -> %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ctx.Err(), ErrTxNotFound)
		case <-time.After(g.pollInterval):
		}
	}
}

func (g *Gateway) waitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	for {
		receipt, err := g.client.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("g.client.TransactionReceipt -> %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(g.pollInterval):
		}
	}
}
