package workflow

import (
	"context"
	"fmt"

	"github.com/hashgraph-online/ledger-workflows-go/pkg/ledger"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/rs/zerolog"
)

type FungibleConfig struct {
	Name          string
	Symbol        string
	Memo          string
	Decimals      uint
	InitialSupply uint64
	// MaxSupply selects a finite supply when positive.
	MaxSupply      int64
	TransferAmount int64
	AccountKeyType string
	AccountBalance hedera.Hbar
}

// DefaultFungibleConfig returns the "USD Bar" stablecoin settings.
func DefaultFungibleConfig() FungibleConfig {
	return FungibleConfig{
		Name:           "USD Bar",
		Symbol:         "USDB",
		Decimals:       2,
		InitialSupply:  10000,
		TransferAmount: 10,
		AccountKeyType: KeyTypeED25519,
		AccountBalance: DefaultAccountBalance,
	}
}

type FungibleResult struct {
	RunID          string
	Account        Account
	TokenID        hedera.TokenID
	SupplyKey      hedera.PrivateKey
	TreasuryBefore ledger.Balance
	AccountBefore  ledger.Balance
	TreasuryAfter  ledger.Balance
	AccountAfter   ledger.Balance
}

// RunFungible creates a recipient account and a fungible token whose whole
// initial supply sits with the operator, associates the recipient and
// transfers TransferAmount units to it.
func RunFungible(ctx context.Context, service ledger.Ledger, config FungibleConfig) (FungibleResult, error) {
	if config.TransferAmount <= 0 {
		return FungibleResult{}, fmt.Errorf("transfer amount must be positive")
	}

	runner := NewRunner(*zerolog.Ctx(ctx))
	logger := runner.Logger()
	treasury := service.OperatorAccountID()
	result := FungibleResult{RunID: runner.RunID()}

	supplyType := hedera.TokenSupplyTypeInfinite
	if config.MaxSupply > 0 {
		supplyType = hedera.TokenSupplyTypeFinite
	}

	steps := []Step{
		{Name: "create account", Run: func(ctx context.Context) error {
			account, _, err := createAccount(ctx, service, config.AccountKeyType, config.AccountBalance)
			if err != nil {
				return err
			}
			result.Account = account
			logger.Info().Str("account_id", account.ID.String()).Msg("created account")
			return nil
		}},
		{Name: "create token", Run: func(ctx context.Context) error {
			supplyKey, err := GenerateKey(KeyTypeED25519)
			if err != nil {
				return err
			}
			receipt, err := service.CreateToken(ctx, ledger.CreateTokenRequest{
				Name:          config.Name,
				Symbol:        config.Symbol,
				Memo:          config.Memo,
				Type:          hedera.TokenTypeFungibleCommon,
				Decimals:      config.Decimals,
				InitialSupply: config.InitialSupply,
				SupplyType:    supplyType,
				MaxSupply:     config.MaxSupply,
				Treasury:      treasury,
				SupplyKey:     supplyKey.PublicKey(),
			})
			if err != nil {
				return err
			}
			if err := ledger.RequireSuccess(ledger.OperationCreateToken, receipt); err != nil {
				return err
			}
			if receipt.TokenID == nil {
				return ledger.NewMissingEntityError(ledger.OperationCreateToken, "token")
			}
			result.TokenID = *receipt.TokenID
			result.SupplyKey = supplyKey
			logger.Info().
				Str("token_id", result.TokenID.String()).
				Uint64("initial_supply", config.InitialSupply).
				Uint("decimals", config.Decimals).
				Msg("created fungible token")
			return nil
		}},
		{Name: "associate", Run: func(ctx context.Context) error {
			receipt, err := service.AssociateToken(ctx, ledger.AssociateTokenRequest{
				AccountID: result.Account.ID,
				TokenIDs:  []hedera.TokenID{result.TokenID},
				Signers:   []hedera.PrivateKey{result.Account.PrivateKey},
			})
			if err != nil {
				return err
			}
			if err := ledger.RequireSuccess(ledger.OperationAssociateToken, receipt); err != nil {
				return err
			}
			logger.Info().Str("account_id", result.Account.ID.String()).Str("status", receipt.Status.String()).Msg("associated account")
			return nil
		}},
		{Name: "balances before transfer", Run: func(ctx context.Context) error {
			balances, err := queryBalances(ctx, service, []hedera.AccountID{treasury, result.Account.ID}, result.TokenID)
			if err != nil {
				return err
			}
			result.TreasuryBefore, result.AccountBefore = balances[0], balances[1]
			logBalances(logger, result.TokenID, balances)
			return nil
		}},
		{Name: "transfer", Run: func(ctx context.Context) error {
			request := ledger.NewFungibleTransfer(result.TokenID, treasury, result.Account.ID, config.TransferAmount)
			receipt, err := service.TransferTokens(ctx, request)
			if err != nil {
				return err
			}
			if err := ledger.RequireSuccess(ledger.OperationTransferTokens, receipt); err != nil {
				return err
			}
			logger.Info().Int64("amount", config.TransferAmount).Str("status", receipt.Status.String()).Msg("transferred tokens")
			return nil
		}},
		{Name: "balances after transfer", Run: func(ctx context.Context) error {
			balances, err := queryBalances(ctx, service, []hedera.AccountID{treasury, result.Account.ID}, result.TokenID)
			if err != nil {
				return err
			}
			result.TreasuryAfter, result.AccountAfter = balances[0], balances[1]
			logBalances(logger, result.TokenID, balances)
			return nil
		}},
	}

	if err := runner.Run(ctx, steps); err != nil {
		return result, err
	}
	return result, nil
}
