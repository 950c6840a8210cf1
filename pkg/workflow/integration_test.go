package workflow

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/hashgraph-online/ledger-workflows-go/pkg/contract"
	"github.com/hashgraph-online/ledger-workflows-go/pkg/hederaledger"
	"github.com/hashgraph-online/ledger-workflows-go/pkg/shared"
)

func newIntegrationLedger(t *testing.T) *hederaledger.Client {
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

	client, err := hederaledger.NewClient(hederaledger.Config{Operator: operatorConfig})
	if err != nil {
		t.Fatalf("failed to create ledger client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestWorkflowIntegration_NFT(t *testing.T) {
	client := newIntegrationLedger(t)

	result, err := RunNFT(context.Background(), client, DefaultNFTConfig())
	if err != nil {
		t.Fatalf("NFT workflow failed: %v", err)
	}
	if got := result.AccountAfter.Tokens.Get(result.TokenID); got != 1 {
		t.Fatalf("expected recipient to hold 1 NFT, got %d", got)
	}
	t.Logf("collection %s serials %v", result.TokenID.String(), result.SerialNumbers)
}

func TestWorkflowIntegration_Fungible(t *testing.T) {
	client := newIntegrationLedger(t)

	result, err := RunFungible(context.Background(), client, DefaultFungibleConfig())
	if err != nil {
		t.Fatalf("fungible workflow failed: %v", err)
	}
	if got := result.AccountAfter.Tokens.Get(result.TokenID); got != 10 {
		t.Fatalf("expected recipient to hold 10 units, got %d", got)
	}
}

func TestWorkflowIntegration_Contract(t *testing.T) {
	client := newIntegrationLedger(t)

	artifactPath := os.Getenv("CONTRACT_ARTIFACT")
	if artifactPath == "" {
		t.Skip("set CONTRACT_ARTIFACT to a compiled HelloHedera artifact to run the contract workflow")
	}
	artifact, err := contract.LoadArtifact(artifactPath)
	if err != nil {
		t.Fatalf("failed to load contract artifact: %v", err)
	}

	result, err := RunContract(context.Background(), client, DefaultContractConfig(artifact))
	if err != nil {
		t.Fatalf("contract workflow failed: %v", err)
	}
	if result.UpdatedMessage != "Hello from Hedera again!" {
		t.Fatalf("unexpected message after update: %q", result.UpdatedMessage)
	}
}
