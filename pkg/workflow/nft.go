package workflow

import (
	"context"
	"fmt"

	"github.com/hashgraph-online/ledger-workflows-go/pkg/ledger"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/rs/zerolog"
)

// DefaultNFTMetadata are the IPFS metadata documents minted by default.
var DefaultNFTMetadata = []string{
	"ipfs://bafyreiao6ajgsfji6qsgbqwdtjdu5gmul7tv2v3pd6kjgcw5o65b2ogst4/metadata.json",
	"ipfs://bafyreic463uarchq4mlufp7pvfkfut7zeqsqmn3b2x3jjxwcjqx6b5pk7q/metadata.json",
	"ipfs://bafyreihhja55q6h2rijscl3gra7a3ntiroyglz45z5wlyxdzs6kjh2dinu/metadata.json",
	"ipfs://bafyreidb23oehkttjbff3gdi4vz7mjijcxjyxadwg32pngod4huozcwphu/metadata.json",
	"ipfs://bafyreie7ftl6erd5etz5gscfwfiwjmht3b52cevdrf7hjwxx5ddns7zneu/metadata.json",
}

type NFTConfig struct {
	Name      string
	Symbol    string
	Memo      string
	MaxSupply int64
	// Metadata holds one entry per serial. Batches larger than
	// ledger.MaxMintBatchSize are minted in several transactions.
	Metadata       []string
	MintMaxFee     hedera.Hbar
	TransferSerial int64
	AccountKeyType string
	AccountBalance hedera.Hbar
}

// DefaultNFTConfig returns the "Hedera Token Test" collection settings.
func DefaultNFTConfig() NFTConfig {
	return NFTConfig{
		Name:           "Hedera Token Test",
		Symbol:         "HTT",
		MaxSupply:      250,
		Metadata:       append([]string(nil), DefaultNFTMetadata...),
		MintMaxFee:     hedera.NewHbar(20),
		TransferSerial: 1,
		AccountKeyType: KeyTypeED25519,
		AccountBalance: DefaultAccountBalance,
	}
}

type NFTResult struct {
	RunID             string
	Account           Account
	TokenID           hedera.TokenID
	SupplyKey         hedera.PrivateKey
	SerialNumbers     []int64
	TransferredSerial int64
	// Balances before and after the transfer, treasury first.
	TreasuryBefore ledger.Balance
	AccountBefore  ledger.Balance
	TreasuryAfter  ledger.Balance
	AccountAfter   ledger.Balance
}

// RunNFT creates a recipient account and a finite NFT collection treasuried
// by the operator, mints the metadata batch, associates the recipient and
// transfers one serial to it.
func RunNFT(ctx context.Context, service ledger.Ledger, config NFTConfig) (NFTResult, error) {
	if err := config.validate(); err != nil {
		return NFTResult{}, err
	}

	runner := NewRunner(*zerolog.Ctx(ctx))
	logger := runner.Logger()
	treasury := service.OperatorAccountID()
	result := NFTResult{RunID: runner.RunID()}

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
		{Name: "create collection", Run: func(ctx context.Context) error {
			supplyKey, err := GenerateKey(KeyTypeED25519)
			if err != nil {
				return err
			}
			receipt, err := service.CreateToken(ctx, ledger.CreateTokenRequest{
				Name:       config.Name,
				Symbol:     config.Symbol,
				Memo:       config.Memo,
				Type:       hedera.TokenTypeNonFungibleUnique,
				SupplyType: hedera.TokenSupplyTypeFinite,
				MaxSupply:  config.MaxSupply,
				Treasury:   treasury,
				SupplyKey:  supplyKey.PublicKey(),
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
			logger.Info().Str("token_id", result.TokenID.String()).Int64("max_supply", config.MaxSupply).Msg("created NFT collection")
			return nil
		}},
		{Name: "mint", Run: func(ctx context.Context) error {
			for _, batch := range metadataBatches(config.Metadata) {
				receipt, err := service.MintToken(ctx, ledger.MintTokenRequest{
					TokenID:           result.TokenID,
					Metadata:          batch,
					MaxTransactionFee: config.MintMaxFee,
					Signers:           []hedera.PrivateKey{result.SupplyKey},
				})
				if err != nil {
					return err
				}
				if err := ledger.RequireSuccess(ledger.OperationMintToken, receipt); err != nil {
					return err
				}
				result.SerialNumbers = append(result.SerialNumbers, receipt.SerialNumbers...)
			}
			logger.Info().Ints64("serials", result.SerialNumbers).Msg("minted NFTs")
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
			request := ledger.NewNftTransfer(result.TokenID, config.TransferSerial, treasury, result.Account.ID)
			receipt, err := service.TransferTokens(ctx, request)
			if err != nil {
				return err
			}
			if err := ledger.RequireSuccess(ledger.OperationTransferTokens, receipt); err != nil {
				return err
			}
			result.TransferredSerial = config.TransferSerial
			logger.Info().Int64("serial", config.TransferSerial).Str("status", receipt.Status.String()).Msg("transferred NFT")
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

func (config NFTConfig) validate() error {
	if len(config.Metadata) == 0 {
		return fmt.Errorf("at least one metadata entry is required")
	}
	if config.MaxSupply > 0 && int64(len(config.Metadata)) > config.MaxSupply {
		return fmt.Errorf("%d metadata entries exceed max supply %d", len(config.Metadata), config.MaxSupply)
	}
	if config.TransferSerial <= 0 || config.TransferSerial > int64(len(config.Metadata)) {
		return fmt.Errorf("transfer serial %d is not among the %d minted serials", config.TransferSerial, len(config.Metadata))
	}
	return nil
}

func metadataBatches(metadata []string) [][][]byte {
	batches := make([][][]byte, 0, (len(metadata)+ledger.MaxMintBatchSize-1)/ledger.MaxMintBatchSize)
	for start := 0; start < len(metadata); start += ledger.MaxMintBatchSize {
		end := min(start+ledger.MaxMintBatchSize, len(metadata))
		batch := make([][]byte, 0, end-start)
		for _, entry := range metadata[start:end] {
			batch = append(batch, []byte(entry))
		}
		batches = append(batches, batch)
	}
	return batches
}

func logBalances(logger *zerolog.Logger, tokenID hedera.TokenID, balances []ledger.Balance) {
	for _, balance := range balances {
		logger.Info().
			Str("account_id", balance.AccountID.String()).
			Str("token_id", tokenID.String()).
			Uint64("units", balance.Tokens.Get(tokenID)).
			Str("hbars", balance.Hbars.String()).
			Msg("balance")
	}
}
