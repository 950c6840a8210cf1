package hederaledger

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/hashgraph-online/ledger-workflows-go/pkg/ledger"
	"github.com/hashgraph-online/ledger-workflows-go/pkg/shared"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

func newIntegrationClient(t *testing.T) *Client {
	t.Helper()
	if os.Getenv("RUN_INTEGRATION") != "1" {
		t.Skip("set RUN_INTEGRATION=1 to run live Hedera integration tests")
	}

	operatorConfig, err := shared.OperatorConfigFromEnv()
	if err != nil {
		t.Skipf("skipping integration test: %v", err)
	}
	if strings.EqualFold(operatorConfig.Network, shared.NetworkMainnet) && os.Getenv("ALLOW_MAINNET_INTEGRATION") != "1" {
		t.Skip("resolved mainnet credentials; set ALLOW_MAINNET_INTEGRATION=1 to allow live mainnet writes")
	}

	client, err := NewClient(Config{Operator: operatorConfig})
	if err != nil {
		t.Fatalf("failed to create ledger client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestHederaLedgerIntegration_AccountAndToken(t *testing.T) {
	client := newIntegrationClient(t)
	ctx := context.Background()

	accountKey := mustKey(t)
	accountReceipt, err := client.CreateAccount(ctx, ledger.CreateAccountRequest{
		PublicKey:      accountKey.PublicKey(),
		InitialBalance: hedera.HbarFromTinybar(100),
	})
	if err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	if accountReceipt.AccountID == nil {
		t.Fatal("account receipt has no account ID")
	}
	t.Logf("created account %s (tx=%s)", accountReceipt.AccountID.String(), accountReceipt.TransactionID)

	supplyKey := mustKey(t)
	tokenReceipt, err := client.CreateToken(ctx, ledger.CreateTokenRequest{
		Name:          "Go Ledger Integration",
		Symbol:        "GLI",
		Type:          hedera.TokenTypeFungibleCommon,
		Decimals:      2,
		InitialSupply: 1000,
		SupplyType:    hedera.TokenSupplyTypeInfinite,
		Treasury:      client.OperatorAccountID(),
		SupplyKey:     supplyKey.PublicKey(),
	})
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}
	tokenID := *tokenReceipt.TokenID

	_, err = client.TransferTokens(ctx, ledger.NewFungibleTransfer(tokenID, client.OperatorAccountID(), *accountReceipt.AccountID, 1))
	if err == nil {
		t.Fatal("expected transfer to an unassociated account to fail")
	}

	if _, err := client.AssociateToken(ctx, ledger.AssociateTokenRequest{
		AccountID: *accountReceipt.AccountID,
		TokenIDs:  []hedera.TokenID{tokenID},
		Signers:   []hedera.PrivateKey{accountKey},
	}); err != nil {
		t.Fatalf("failed to associate token: %v", err)
	}

	if _, err := client.TransferTokens(ctx, ledger.NewFungibleTransfer(tokenID, client.OperatorAccountID(), *accountReceipt.AccountID, 10)); err != nil {
		t.Fatalf("failed to transfer tokens: %v", err)
	}

	balance, err := client.QueryBalance(ctx, *accountReceipt.AccountID, tokenID)
	if err != nil {
		t.Fatalf("failed to query balance: %v", err)
	}
	t.Logf("account %s holds %d units of %s", accountReceipt.AccountID.String(), balance.Tokens.Get(tokenID), tokenID.String())
}
