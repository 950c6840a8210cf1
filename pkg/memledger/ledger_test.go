package memledger

import (
	"context"
	"errors"
	"testing"

	"github.com/hashgraph-online/ledger-workflows-go/pkg/ledger"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ledger      *Ledger
	operatorKey hedera.PrivateKey
	ctx         context.Context
}

func newFixture(t *testing.T, options ...Option) fixture {
	t.Helper()
	operatorKey, err := hedera.PrivateKeyGenerateEd25519()
	require.NoError(t, err)
	return fixture{
		ledger:      New(operatorKey.PublicKey(), options...),
		operatorKey: operatorKey,
		ctx:         context.Background(),
	}
}

func (f fixture) newAccount(t *testing.T) (hedera.AccountID, hedera.PrivateKey) {
	t.Helper()
	key, err := hedera.PrivateKeyGenerateEd25519()
	require.NoError(t, err)

	receipt, err := f.ledger.CreateAccount(f.ctx, ledger.CreateAccountRequest{
		PublicKey:      key.PublicKey(),
		InitialBalance: hedera.HbarFromTinybar(100),
	})
	require.NoError(t, err)
	require.NotNil(t, receipt.AccountID)
	return *receipt.AccountID, key
}

func (f fixture) newFungible(t *testing.T, initialSupply uint64) (hedera.TokenID, hedera.PrivateKey) {
	t.Helper()
	supplyKey, err := hedera.PrivateKeyGenerateEd25519()
	require.NoError(t, err)

	receipt, err := f.ledger.CreateToken(f.ctx, ledger.CreateTokenRequest{
		Name:          "USD Bar",
		Symbol:        "USDB",
		Type:          hedera.TokenTypeFungibleCommon,
		Decimals:      2,
		InitialSupply: initialSupply,
		SupplyType:    hedera.TokenSupplyTypeInfinite,
		Treasury:      f.ledger.OperatorAccountID(),
		SupplyKey:     supplyKey.PublicKey(),
	})
	require.NoError(t, err)
	require.NotNil(t, receipt.TokenID)
	return *receipt.TokenID, supplyKey
}

func (f fixture) newCollection(t *testing.T, maxSupply int64) (hedera.TokenID, hedera.PrivateKey) {
	t.Helper()
	supplyKey, err := hedera.PrivateKeyGenerateEd25519()
	require.NoError(t, err)

	receipt, err := f.ledger.CreateToken(f.ctx, ledger.CreateTokenRequest{
		Name:       "Hedera Token Test",
		Symbol:     "HTT",
		Type:       hedera.TokenTypeNonFungibleUnique,
		SupplyType: hedera.TokenSupplyTypeFinite,
		MaxSupply:  maxSupply,
		Treasury:   f.ledger.OperatorAccountID(),
		SupplyKey:  supplyKey.PublicKey(),
	})
	require.NoError(t, err)
	return *receipt.TokenID, supplyKey
}

func requireStatus(t *testing.T, err error, status hedera.Status) {
	t.Helper()
	var statusErr *ledger.StatusError
	require.True(t, errors.As(err, &statusErr), "expected StatusError, got %v", err)
	assert.Equal(t, status, statusErr.Status)
}

func TestCreateAccountDebitsOperator(t *testing.T) {
	f := newFixture(t, WithOperatorBalance(hedera.HbarFromTinybar(150)))

	accountID, _ := f.newAccount(t)
	assert.Equal(t, uint64(firstEntityNum), accountID.Account)

	balance, err := f.ledger.QueryBalance(f.ctx, f.ledger.OperatorAccountID())
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance.Hbars.AsTinybar())

	key, err := hedera.PrivateKeyGenerateEd25519()
	require.NoError(t, err)
	receipt, err := f.ledger.CreateAccount(f.ctx, ledger.CreateAccountRequest{
		PublicKey:      key.PublicKey(),
		InitialBalance: hedera.HbarFromTinybar(100),
	})
	requireStatus(t, err, hedera.StatusInsufficientPayerBalance)
	assert.Equal(t, hedera.StatusInsufficientPayerBalance, receipt.Status)
}

func TestCreateAccountRejectsMissingKey(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.CreateAccount(f.ctx, ledger.CreateAccountRequest{})
	var validationErr *ledger.ValidationError
	require.True(t, errors.As(err, &validationErr))
}

func TestCreateTokenCreditsTreasury(t *testing.T) {
	f := newFixture(t)
	tokenID, _ := f.newFungible(t, 10000)

	balance, err := f.ledger.QueryBalance(f.ctx, f.ledger.OperatorAccountID(), tokenID)
	require.NoError(t, err)
	assert.Equal(t, uint64(10000), balance.Tokens.Get(tokenID))

	info, ok := f.ledger.TokenInfo(tokenID)
	require.True(t, ok)
	assert.Equal(t, "USDB", info.Symbol)
	assert.Equal(t, uint(2), info.Decimals)
	assert.Equal(t, uint64(10000), info.TotalSupply)
}

func TestCreateTokenRequiresTreasurySignature(t *testing.T) {
	f := newFixture(t)
	treasuryID, treasuryKey := f.newAccount(t)

	request := ledger.CreateTokenRequest{
		Name:          "Third Party",
		Symbol:        "TPT",
		Type:          hedera.TokenTypeFungibleCommon,
		InitialSupply: 5,
		Treasury:      treasuryID,
	}
	_, err := f.ledger.CreateToken(f.ctx, request)
	requireStatus(t, err, hedera.StatusInvalidSignature)

	request.Signers = []hedera.PrivateKey{treasuryKey}
	receipt, err := f.ledger.CreateToken(f.ctx, request)
	require.NoError(t, err)
	assert.NotNil(t, receipt.TokenID)
}

func TestCreateTokenUnknownTreasury(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.CreateToken(f.ctx, ledger.CreateTokenRequest{
		Name:     "Ghost",
		Symbol:   "GST",
		Type:     hedera.TokenTypeFungibleCommon,
		Treasury: hedera.AccountID{Account: 999},
	})
	requireStatus(t, err, hedera.StatusInvalidTreasuryAccountForToken)
}

func TestAssociateRequiresAccountKey(t *testing.T) {
	f := newFixture(t)
	accountID, accountKey := f.newAccount(t)
	tokenID, _ := f.newFungible(t, 100)

	_, err := f.ledger.AssociateToken(f.ctx, ledger.AssociateTokenRequest{
		AccountID: accountID,
		TokenIDs:  []hedera.TokenID{tokenID},
		Signers:   []hedera.PrivateKey{f.operatorKey},
	})
	requireStatus(t, err, hedera.StatusInvalidSignature)

	_, err = f.ledger.AssociateToken(f.ctx, ledger.AssociateTokenRequest{
		AccountID: accountID,
		TokenIDs:  []hedera.TokenID{tokenID},
		Signers:   []hedera.PrivateKey{accountKey},
	})
	require.NoError(t, err)

	_, err = f.ledger.AssociateToken(f.ctx, ledger.AssociateTokenRequest{
		AccountID: accountID,
		TokenIDs:  []hedera.TokenID{tokenID},
		Signers:   []hedera.PrivateKey{accountKey},
	})
	requireStatus(t, err, hedera.StatusTokenAlreadyAssociatedToAccount)
}

func TestMintNftsAssignsSequentialSerials(t *testing.T) {
	f := newFixture(t)
	tokenID, supplyKey := f.newCollection(t, 3)

	receipt, err := f.ledger.MintToken(f.ctx, ledger.MintTokenRequest{
		TokenID:  tokenID,
		Metadata: [][]byte{[]byte("a"), []byte("b")},
		Signers:  []hedera.PrivateKey{supplyKey},
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, receipt.SerialNumbers)

	owner, ok := f.ledger.NftOwner(tokenID, 2)
	require.True(t, ok)
	assert.True(t, ledger.SameAccount(owner, f.ledger.OperatorAccountID()))

	_, err = f.ledger.MintToken(f.ctx, ledger.MintTokenRequest{
		TokenID:  tokenID,
		Metadata: [][]byte{[]byte("c"), []byte("d")},
		Signers:  []hedera.PrivateKey{supplyKey},
	})
	requireStatus(t, err, hedera.StatusTokenMaxSupplyReached)
}

func TestMintRequiresSupplyKey(t *testing.T) {
	f := newFixture(t)
	tokenID, _ := f.newCollection(t, 10)

	_, err := f.ledger.MintToken(f.ctx, ledger.MintTokenRequest{
		TokenID:  tokenID,
		Metadata: [][]byte{[]byte("a")},
	})
	requireStatus(t, err, hedera.StatusInvalidSignature)
}

func TestMintFungibleWithMetadataFails(t *testing.T) {
	f := newFixture(t)
	tokenID, supplyKey := f.newFungible(t, 0)

	_, err := f.ledger.MintToken(f.ctx, ledger.MintTokenRequest{
		TokenID:  tokenID,
		Metadata: [][]byte{[]byte("a")},
		Signers:  []hedera.PrivateKey{supplyKey},
	})
	requireStatus(t, err, hedera.StatusInvalidTokenMintAmount)

	_, err = f.ledger.MintToken(f.ctx, ledger.MintTokenRequest{
		TokenID: tokenID,
		Amount:  25,
		Signers: []hedera.PrivateKey{supplyKey},
	})
	require.NoError(t, err)
	info, _ := f.ledger.TokenInfo(tokenID)
	assert.Equal(t, uint64(25), info.TotalSupply)
}

func TestTransferRequiresAssociation(t *testing.T) {
	f := newFixture(t)
	accountID, _ := f.newAccount(t)
	tokenID, _ := f.newFungible(t, 100)

	_, err := f.ledger.TransferTokens(f.ctx, ledger.NewFungibleTransfer(tokenID, f.ledger.OperatorAccountID(), accountID, 10))
	requireStatus(t, err, hedera.StatusTokenNotAssociatedToAccount)
}

func TestTransferRejectsInsufficientBalance(t *testing.T) {
	f := newFixture(t)
	accountID, accountKey := f.newAccount(t)
	tokenID, _ := f.newFungible(t, 100)
	_, err := f.ledger.AssociateToken(f.ctx, ledger.AssociateTokenRequest{
		AccountID: accountID,
		TokenIDs:  []hedera.TokenID{tokenID},
		Signers:   []hedera.PrivateKey{accountKey},
	})
	require.NoError(t, err)

	_, err = f.ledger.TransferTokens(f.ctx, ledger.NewFungibleTransfer(tokenID, f.ledger.OperatorAccountID(), accountID, 101))
	requireStatus(t, err, hedera.StatusInsufficientTokenBalance)

	balance, err := f.ledger.QueryBalance(f.ctx, f.ledger.OperatorAccountID(), tokenID)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), balance.Tokens.Get(tokenID))
}

func TestTransferFromNonOperatorNeedsSenderKey(t *testing.T) {
	f := newFixture(t)
	accountID, accountKey := f.newAccount(t)
	tokenID, _ := f.newFungible(t, 100)
	_, err := f.ledger.AssociateToken(f.ctx, ledger.AssociateTokenRequest{
		AccountID: accountID,
		TokenIDs:  []hedera.TokenID{tokenID},
		Signers:   []hedera.PrivateKey{accountKey},
	})
	require.NoError(t, err)
	_, err = f.ledger.TransferTokens(f.ctx, ledger.NewFungibleTransfer(tokenID, f.ledger.OperatorAccountID(), accountID, 40))
	require.NoError(t, err)

	back := ledger.NewFungibleTransfer(tokenID, accountID, f.ledger.OperatorAccountID(), 15)
	_, err = f.ledger.TransferTokens(f.ctx, back)
	requireStatus(t, err, hedera.StatusInvalidSignature)

	back.Signers = []hedera.PrivateKey{accountKey}
	_, err = f.ledger.TransferTokens(f.ctx, back)
	require.NoError(t, err)

	operatorBalance, err := f.ledger.QueryBalance(f.ctx, f.ledger.OperatorAccountID(), tokenID)
	require.NoError(t, err)
	accountBalance, err := f.ledger.QueryBalance(f.ctx, accountID, tokenID)
	require.NoError(t, err)
	assert.Equal(t, uint64(75), operatorBalance.Tokens.Get(tokenID))
	assert.Equal(t, uint64(25), accountBalance.Tokens.Get(tokenID))
}

func TestTransferNftOwnership(t *testing.T) {
	f := newFixture(t)
	accountID, accountKey := f.newAccount(t)
	tokenID, supplyKey := f.newCollection(t, 10)
	_, err := f.ledger.MintToken(f.ctx, ledger.MintTokenRequest{
		TokenID:  tokenID,
		Metadata: [][]byte{[]byte("a"), []byte("b")},
		Signers:  []hedera.PrivateKey{supplyKey},
	})
	require.NoError(t, err)
	_, err = f.ledger.AssociateToken(f.ctx, ledger.AssociateTokenRequest{
		AccountID: accountID,
		TokenIDs:  []hedera.TokenID{tokenID},
		Signers:   []hedera.PrivateKey{accountKey},
	})
	require.NoError(t, err)

	_, err = f.ledger.TransferTokens(f.ctx, ledger.NewNftTransfer(tokenID, 9, f.ledger.OperatorAccountID(), accountID))
	requireStatus(t, err, hedera.StatusInvalidNftID)

	_, err = f.ledger.TransferTokens(f.ctx, ledger.NewNftTransfer(tokenID, 1, f.ledger.OperatorAccountID(), accountID))
	require.NoError(t, err)

	owner, ok := f.ledger.NftOwner(tokenID, 1)
	require.True(t, ok)
	assert.True(t, ledger.SameAccount(owner, accountID))

	second := ledger.NewNftTransfer(tokenID, 1, f.ledger.OperatorAccountID(), accountID)
	_, err = f.ledger.TransferTokens(f.ctx, second)
	requireStatus(t, err, hedera.StatusSenderDoesNotOwnNftSerialNo)
}

func TestTransferRejectsRepeatedNftSerial(t *testing.T) {
	f := newFixture(t)
	accountID, accountKey := f.newAccount(t)
	tokenID, supplyKey := f.newCollection(t, 10)
	_, err := f.ledger.MintToken(f.ctx, ledger.MintTokenRequest{
		TokenID:  tokenID,
		Metadata: [][]byte{[]byte("a"), []byte("b")},
		Signers:  []hedera.PrivateKey{supplyKey},
	})
	require.NoError(t, err)
	_, err = f.ledger.AssociateToken(f.ctx, ledger.AssociateTokenRequest{
		AccountID: accountID,
		TokenIDs:  []hedera.TokenID{tokenID},
		Signers:   []hedera.PrivateKey{accountKey},
	})
	require.NoError(t, err)

	leg := ledger.NewNftTransfer(tokenID, 1, f.ledger.OperatorAccountID(), accountID).NftTransfers[0]
	_, err = f.ledger.TransferTokens(f.ctx, ledger.TransferRequest{NftTransfers: []ledger.NftTransfer{leg, leg}})
	var validationErr *ledger.ValidationError
	require.ErrorAs(t, err, &validationErr)

	treasury, err := f.ledger.QueryBalance(f.ctx, f.ledger.OperatorAccountID(), tokenID)
	require.NoError(t, err)
	holder, err := f.ledger.QueryBalance(f.ctx, accountID, tokenID)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), treasury.Tokens.Get(tokenID))
	assert.Equal(t, uint64(0), holder.Tokens.Get(tokenID))
}

func TestFungibleLegOnNftCollectionFails(t *testing.T) {
	f := newFixture(t)
	accountID, _ := f.newAccount(t)
	tokenID, _ := f.newCollection(t, 10)

	_, err := f.ledger.TransferTokens(f.ctx, ledger.NewFungibleTransfer(tokenID, f.ledger.OperatorAccountID(), accountID, 1))
	requireStatus(t, err, hedera.StatusAccountAmountTransfersOnlyAllowedForFungibleCommon)
}

func TestQueryBalanceUnknownAccount(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.QueryBalance(f.ctx, hedera.AccountID{Account: 404})
	requireStatus(t, err, hedera.StatusInvalidAccountID)
}

func TestQueryBalanceListsAllHoldings(t *testing.T) {
	f := newFixture(t)
	first, _ := f.newFungible(t, 7)
	second, _ := f.newFungible(t, 9)

	balance, err := f.ledger.QueryBalance(f.ctx, f.ledger.OperatorAccountID())
	require.NoError(t, err)
	assert.Equal(t, []hedera.TokenID{first, second}, balance.Tokens.TokenIDs())
	assert.Equal(t, uint64(9), balance.Tokens.Get(second))
}

func TestCanceledContextStopsSubmission(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	key, err := hedera.PrivateKeyGenerateEd25519()
	require.NoError(t, err)
	_, err = f.ledger.CreateAccount(ctx, ledger.CreateAccountRequest{PublicKey: key.PublicKey()})
	require.ErrorIs(t, err, context.Canceled)
}

func TestRecorderKeepsOrder(t *testing.T) {
	f := newFixture(t)
	recorder := NewRecorder(f.ledger)

	key, err := hedera.PrivateKeyGenerateEd25519()
	require.NoError(t, err)
	receipt, err := recorder.CreateAccount(f.ctx, ledger.CreateAccountRequest{PublicKey: key.PublicKey()})
	require.NoError(t, err)
	_, err = recorder.QueryBalance(f.ctx, *receipt.AccountID)
	require.NoError(t, err)

	assert.Equal(t, []ledger.Operation{ledger.OperationCreateAccount, ledger.OperationQueryBalance}, recorder.Operations())
	assert.Equal(t, receipt, recorder.Calls()[0].Receipt)
}
