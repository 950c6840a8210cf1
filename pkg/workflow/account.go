package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hashgraph-online/ledger-workflows-go/pkg/ledger"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"golang.org/x/sync/errgroup"
)

const (
	KeyTypeED25519 = "ed25519"
	KeyTypeECDSA   = "ecdsa"
)

// DefaultAccountBalance funds every ephemeral account.
var DefaultAccountBalance = hedera.HbarFromTinybar(100)

// Account is an account created by a workflow together with its key.
type Account struct {
	ID         hedera.AccountID
	PrivateKey hedera.PrivateKey
}

// EVMAddress returns the alias address of an account with an ECDSA
// secp256k1 key. ED25519 accounts have no key-derived address.
func (a Account) EVMAddress() (string, error) {
	return evmAddress(a.PrivateKey.PublicKey().BytesRaw())
}

func evmAddress(publicKey []byte) (string, error) {
	parsed, err := btcec.ParsePubKey(publicKey)
	if err != nil {
		return "", fmt.Errorf("not an ECDSA secp256k1 public key: %w", err)
	}
	uncompressed := parsed.SerializeUncompressed()
	return common.BytesToAddress(crypto.Keccak256(uncompressed[1:])[12:]).Hex(), nil
}

// GenerateKey creates a private key of the given type. An empty type is
// ED25519.
func GenerateKey(keyType string) (hedera.PrivateKey, error) {
	switch strings.ToLower(strings.TrimSpace(keyType)) {
	case "", KeyTypeED25519:
		return hedera.PrivateKeyGenerateEd25519()
	case KeyTypeECDSA:
		return hedera.PrivateKeyGenerateEcdsa()
	default:
		return hedera.PrivateKey{}, fmt.Errorf("unsupported key type %q", keyType)
	}
}

func createAccount(
	ctx context.Context,
	service ledger.AccountService,
	keyType string,
	initialBalance hedera.Hbar,
) (Account, ledger.Receipt, error) {
	privateKey, err := GenerateKey(keyType)
	if err != nil {
		return Account{}, ledger.Receipt{}, err
	}

	receipt, err := service.CreateAccount(ctx, ledger.CreateAccountRequest{
		PublicKey:      privateKey.PublicKey(),
		InitialBalance: initialBalance,
	})
	if err != nil {
		return Account{}, receipt, err
	}
	if err := ledger.RequireSuccess(ledger.OperationCreateAccount, receipt); err != nil {
		return Account{}, receipt, err
	}
	if receipt.AccountID == nil {
		return Account{}, receipt, ledger.NewMissingEntityError(ledger.OperationCreateAccount, "account")
	}

	return Account{ID: *receipt.AccountID, PrivateKey: privateKey}, receipt, nil
}

// queryBalances reads the balances of independent accounts concurrently and
// returns them in the order requested.
func queryBalances(
	ctx context.Context,
	service ledger.BalanceQueryService,
	accountIDs []hedera.AccountID,
	tokenIDs ...hedera.TokenID,
) ([]ledger.Balance, error) {
	balances := make([]ledger.Balance, len(accountIDs))
	group, groupCtx := errgroup.WithContext(ctx)

	for index, accountID := range accountIDs {
		group.Go(func() error {
			balance, err := service.QueryBalance(groupCtx, accountID, tokenIDs...)
			if err != nil {
				return fmt.Errorf("failed to query balance of %s: %w", accountID.String(), err)
			}
			balances[index] = balance
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return balances, nil
}
