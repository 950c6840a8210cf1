package hederaledger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/hashgraph-online/ledger-workflows-go/pkg/ledger"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

func mustKey(t *testing.T) hedera.PrivateKey {
	t.Helper()
	key, err := hedera.PrivateKeyGenerateEd25519()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return key
}

func TestBuildCreateAccountTx(t *testing.T) {
	transaction, err := BuildCreateAccountTx(ledger.CreateAccountRequest{
		PublicKey:      mustKey(t).PublicKey(),
		InitialBalance: hedera.HbarFromTinybar(100),
	})
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	if transaction.GetInitialBalance().AsTinybar() != 100 {
		t.Fatalf("unexpected initial balance: %s", transaction.GetInitialBalance().String())
	}
}

func TestBuildCreateAccountTxRequiresKey(t *testing.T) {
	_, err := BuildCreateAccountTx(ledger.CreateAccountRequest{})
	var validationErr *ledger.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuildCreateTokenTxNft(t *testing.T) {
	transaction, err := BuildCreateTokenTx(ledger.CreateTokenRequest{
		Name:       "Hedera Token Test",
		Symbol:     "HTT",
		Type:       hedera.TokenTypeNonFungibleUnique,
		SupplyType: hedera.TokenSupplyTypeFinite,
		MaxSupply:  250,
		Treasury:   hedera.AccountID{Account: 2},
		SupplyKey:  mustKey(t).PublicKey(),
	})
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	if transaction.GetTokenName() != "Hedera Token Test" {
		t.Fatalf("unexpected token name: %s", transaction.GetTokenName())
	}
	if transaction.GetMaxSupply() != 250 {
		t.Fatalf("unexpected max supply: %d", transaction.GetMaxSupply())
	}
}

func TestBuildCreateTokenTxFungible(t *testing.T) {
	transaction, err := BuildCreateTokenTx(ledger.CreateTokenRequest{
		Name:          "USD Bar",
		Symbol:        "USDB",
		Type:          hedera.TokenTypeFungibleCommon,
		Decimals:      2,
		InitialSupply: 10000,
		SupplyType:    hedera.TokenSupplyTypeInfinite,
		Treasury:      hedera.AccountID{Account: 2},
	})
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	if transaction.GetDecimals() != 2 {
		t.Fatalf("unexpected decimals: %d", transaction.GetDecimals())
	}
	if transaction.GetInitialSupply() != 10000 {
		t.Fatalf("unexpected initial supply: %d", transaction.GetInitialSupply())
	}
}

func TestBuildCreateTokenTxRejectsNftWithDecimals(t *testing.T) {
	_, err := BuildCreateTokenTx(ledger.CreateTokenRequest{
		Name:       "Broken",
		Symbol:     "BRK",
		Type:       hedera.TokenTypeNonFungibleUnique,
		Decimals:   2,
		SupplyType: hedera.TokenSupplyTypeFinite,
		MaxSupply:  10,
		Treasury:   hedera.AccountID{Account: 2},
		SupplyKey:  mustKey(t).PublicKey(),
	})
	if err == nil {
		t.Fatal("expected validation error for NFT decimals")
	}
}

func TestBuildMintTokenTx(t *testing.T) {
	metadata := [][]byte{[]byte("ipfs://one"), []byte("ipfs://two")}
	transaction, err := BuildMintTokenTx(ledger.MintTokenRequest{
		TokenID:           hedera.TokenID{Token: 500},
		Metadata:          metadata,
		MaxTransactionFee: hedera.NewHbar(20),
	})
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	if len(transaction.GetMetadatas()) != 2 {
		t.Fatalf("expected 2 metadata entries, got %d", len(transaction.GetMetadatas()))
	}
	if transaction.GetMaxTransactionFee().AsTinybar() != hedera.NewHbar(20).AsTinybar() {
		t.Fatalf("unexpected max fee: %s", transaction.GetMaxTransactionFee().String())
	}
}

func TestBuildMintTokenTxRejectsOversizedBatch(t *testing.T) {
	metadata := make([][]byte, ledger.MaxMintBatchSize+1)
	for index := range metadata {
		metadata[index] = []byte("x")
	}
	_, err := BuildMintTokenTx(ledger.MintTokenRequest{TokenID: hedera.TokenID{Token: 500}, Metadata: metadata})
	if err == nil {
		t.Fatal("expected validation error for oversized batch")
	}
}

func TestBuildTransferTx(t *testing.T) {
	tokenID := hedera.TokenID{Token: 500}
	transaction, err := BuildTransferTx(ledger.NewFungibleTransfer(tokenID, hedera.AccountID{Account: 2}, hedera.AccountID{Account: 1001}, 10))
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	if len(transaction.GetTokenTransfers()[tokenID]) != 2 {
		t.Fatalf("expected two token legs, got %+v", transaction.GetTokenTransfers())
	}
}

func TestBuildTransferTxRejectsUnbalancedLegs(t *testing.T) {
	_, err := BuildTransferTx(ledger.TransferRequest{
		TokenTransfers: []ledger.TokenTransfer{
			{TokenID: hedera.TokenID{Token: 500}, AccountID: hedera.AccountID{Account: 2}, Amount: -10},
			{TokenID: hedera.TokenID{Token: 500}, AccountID: hedera.AccountID{Account: 1001}, Amount: 9},
		},
	})
	if err == nil {
		t.Fatal("expected validation error for unbalanced transfer")
	}
}

func TestBuildFileCreateTxSplitsLargeBytecode(t *testing.T) {
	bytecode := bytes.Repeat([]byte("ab"), FileChunkSize)
	transaction, rest, err := BuildFileCreateTx(ledger.UploadBytecodeRequest{
		Bytecode: bytecode,
		Keys:     []hedera.PublicKey{mustKey(t).PublicKey()},
	})
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	if len(transaction.GetContents()) != FileChunkSize {
		t.Fatalf("expected first chunk of %d bytes, got %d", FileChunkSize, len(transaction.GetContents()))
	}
	if len(rest) != len(bytecode)-FileChunkSize {
		t.Fatalf("unexpected remainder length %d", len(rest))
	}

	appendTransaction, err := BuildFileAppendTx(hedera.FileID{File: 77}, rest)
	if err != nil {
		t.Fatalf("unexpected append build error: %v", err)
	}
	if appendTransaction.GetMaxChunks() != 1 {
		t.Fatalf("expected 1 append chunk, got %d", appendTransaction.GetMaxChunks())
	}
}

func TestBuildFileCreateTxSetsMemo(t *testing.T) {
	transaction, _, err := BuildFileCreateTx(ledger.UploadBytecodeRequest{
		Bytecode: []byte("6080"),
		Memo:     "HelloHedera bytecode",
	})
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	if transaction.GetMemo() != "HelloHedera bytecode" {
		t.Fatalf("unexpected memo %q", transaction.GetMemo())
	}
}

func TestBuildFileCreateTxLargeBytecodeNeedsKey(t *testing.T) {
	bytecode := bytes.Repeat([]byte("ab"), FileChunkSize)
	if _, _, err := BuildFileCreateTx(ledger.UploadBytecodeRequest{Bytecode: bytecode}); err == nil {
		t.Fatal("expected error for keyless multi-chunk bytecode")
	}
}

func TestWithFileKeyDefaultsToOperatorForLargeBytecode(t *testing.T) {
	operatorKey := mustKey(t).PublicKey()
	large := ledger.UploadBytecodeRequest{Bytecode: bytes.Repeat([]byte("ab"), FileChunkSize)}

	keyed := withFileKey(large, operatorKey)
	if len(keyed.Keys) != 1 || keyed.Keys[0].String() != operatorKey.String() {
		t.Fatalf("expected the operator key as file key, got %v", keyed.Keys)
	}
	if _, rest, err := BuildFileCreateTx(keyed); err != nil || len(rest) == 0 {
		t.Fatalf("expected a keyed multi-chunk upload, got rest=%d err=%v", len(rest), err)
	}

	explicit := mustKey(t).PublicKey()
	large.Keys = []hedera.PublicKey{explicit}
	if kept := withFileKey(large, operatorKey); kept.Keys[0].String() != explicit.String() {
		t.Fatal("expected explicit file keys to be kept")
	}

	small := withFileKey(ledger.UploadBytecodeRequest{Bytecode: []byte("6080")}, operatorKey)
	if len(small.Keys) != 0 {
		t.Fatal("expected single-chunk bytecode to stay keyless")
	}
}

func TestBuildFileCreateTxSmallBytecode(t *testing.T) {
	_, rest, err := BuildFileCreateTx(ledger.UploadBytecodeRequest{Bytecode: []byte("6080")})
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	if rest != nil {
		t.Fatalf("expected no remainder, got %d bytes", len(rest))
	}
}

func TestBuildFileAppendTxRequiresFile(t *testing.T) {
	if _, err := BuildFileAppendTx(hedera.FileID{}, []byte("00")); err == nil {
		t.Fatal("expected error for missing file ID")
	}
}

func TestBuildContractCreateTx(t *testing.T) {
	transaction, err := BuildContractCreateTx(ledger.CreateContractRequest{
		BytecodeFileID:    hedera.FileID{File: 77},
		Gas:               300000,
		ConstructorParams: []byte{0, 1},
	})
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	if transaction.GetGas() != 300000 {
		t.Fatalf("unexpected gas: %d", transaction.GetGas())
	}
}

func TestBuildContractCallQueryRequiresSelector(t *testing.T) {
	_, err := BuildContractCallQuery(ledger.ContractCallRequest{
		ContractID: hedera.ContractID{Contract: 88},
		Gas:        100000,
		Params:     []byte{1, 2},
	})
	if err == nil {
		t.Fatal("expected validation error for short call data")
	}
}

func TestBuildContractExecuteTx(t *testing.T) {
	transaction, err := BuildContractExecuteTx(ledger.ContractExecuteRequest{
		ContractID: hedera.ContractID{Contract: 88},
		Gas:        100000,
		Params:     []byte{1, 2, 3, 4},
	})
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	if transaction.GetGas() != 100000 {
		t.Fatalf("unexpected gas: %d", transaction.GetGas())
	}
}
