package memledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashgraph-online/ledger-workflows-go/pkg/ledger"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

const (
	// OperatorAccountNum is the account number assigned to the operator.
	OperatorAccountNum = 2
	firstEntityNum     = 1001

	MinDeployGas    = 50_000
	MinCallGas      = 25_000
	CallGasUsed     = 24_000
	defaultTinybars = 10_000 * 100_000_000
)

type account struct {
	id       hedera.AccountID
	key      hedera.PublicKey
	tinybars int64
	// holdings is keyed by token number; presence means associated.
	holdings map[uint64]uint64
}

type token struct {
	id          hedera.TokenID
	name        string
	symbol      string
	tokenType   hedera.TokenType
	decimals    uint
	supplyType  hedera.TokenSupplyType
	maxSupply   int64
	treasury    uint64
	supplyKey   hedera.PublicKey
	totalSupply uint64
	nextSerial  int64
	owners      map[int64]uint64
	metadata    map[int64][]byte
}

// TokenInfo is a snapshot of a token's ledger state.
type TokenInfo struct {
	TokenID     hedera.TokenID
	Name        string
	Symbol      string
	Type        hedera.TokenType
	Decimals    uint
	SupplyType  hedera.TokenSupplyType
	MaxSupply   int64
	Treasury    hedera.AccountID
	TotalSupply uint64
}

type deployedContract struct {
	id       hedera.ContractID
	behavior Contract
}

// Ledger is an in-memory ledger.Ledger. It applies the same acceptance
// rules as the network for the operations the workflows use, so failures
// surface as the same statuses.
type Ledger struct {
	mu sync.Mutex

	operator      hedera.AccountID
	nextEntity    uint64
	nextTxNanos   int64
	accounts      map[uint64]*account
	tokens        map[uint64]*token
	files         map[uint64][]byte
	contracts     map[uint64]*deployedContract
	newContract   ContractFactory
	startedAtUnix int64
}

var _ ledger.Ledger = (*Ledger)(nil)

type Option func(*Ledger)

// WithOperatorBalance sets the operator's starting hbar balance.
func WithOperatorBalance(balance hedera.Hbar) Option {
	return func(l *Ledger) {
		l.accounts[OperatorAccountNum].tinybars = balance.AsTinybar()
	}
}

// WithContractFactory sets how deployed bytecode is emulated.
func WithContractFactory(factory ContractFactory) Option {
	return func(l *Ledger) {
		l.newContract = factory
	}
}

// New creates a ledger whose operator account 0.0.2 is controlled by
// operatorKey.
func New(operatorKey hedera.PublicKey, options ...Option) *Ledger {
	operator := hedera.AccountID{Account: OperatorAccountNum}
	l := &Ledger{
		operator:   operator,
		nextEntity: firstEntityNum,
		accounts: map[uint64]*account{
			OperatorAccountNum: {
				id:       operator,
				key:      operatorKey,
				tinybars: defaultTinybars,
				holdings: map[uint64]uint64{},
			},
		},
		tokens:        map[uint64]*token{},
		files:         map[uint64][]byte{},
		contracts:     map[uint64]*deployedContract{},
		startedAtUnix: time.Now().Unix(),
	}
	for _, option := range options {
		option(l)
	}
	return l
}

func (l *Ledger) OperatorAccountID() hedera.AccountID {
	return l.operator
}

// TokenInfo returns the current state of a token.
func (l *Ledger) TokenInfo(tokenID hedera.TokenID) (TokenInfo, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.tokens[tokenID.Token]
	if !ok {
		return TokenInfo{}, false
	}
	return TokenInfo{
		TokenID:     t.id,
		Name:        t.name,
		Symbol:      t.symbol,
		Type:        t.tokenType,
		Decimals:    t.decimals,
		SupplyType:  t.supplyType,
		MaxSupply:   t.maxSupply,
		Treasury:    hedera.AccountID{Account: t.treasury},
		TotalSupply: t.totalSupply,
	}, true
}

// NftOwner returns the account holding serial of tokenID.
func (l *Ledger) NftOwner(tokenID hedera.TokenID, serial int64) (hedera.AccountID, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.tokens[tokenID.Token]
	if !ok {
		return hedera.AccountID{}, false
	}
	owner, ok := t.owners[serial]
	if !ok {
		return hedera.AccountID{}, false
	}
	return hedera.AccountID{Account: owner}, true
}

func (l *Ledger) CreateAccount(ctx context.Context, request ledger.CreateAccountRequest) (ledger.Receipt, error) {
	if err := begin(ctx, request); err != nil {
		return ledger.Receipt{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	txID := l.transactionID()
	payer := l.accounts[OperatorAccountNum]
	initial := request.InitialBalance.AsTinybar()
	if payer.tinybars < initial {
		return fail(ledger.OperationCreateAccount, hedera.StatusInsufficientPayerBalance, txID)
	}

	id := hedera.AccountID{Account: l.allocate()}
	payer.tinybars -= initial
	l.accounts[id.Account] = &account{
		id:       id,
		key:      request.PublicKey,
		tinybars: initial,
		holdings: map[uint64]uint64{},
	}

	return ledger.Receipt{TransactionID: txID, Status: hedera.StatusSuccess, AccountID: &id}, nil
}

func (l *Ledger) CreateToken(ctx context.Context, request ledger.CreateTokenRequest) (ledger.Receipt, error) {
	if err := begin(ctx, request); err != nil {
		return ledger.Receipt{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	txID := l.transactionID()
	treasury, ok := l.accounts[request.Treasury.Account]
	if !ok {
		return fail(ledger.OperationCreateToken, hedera.StatusInvalidTreasuryAccountForToken, txID)
	}
	if !l.signedBy(request.Signers, treasury.key) {
		return fail(ledger.OperationCreateToken, hedera.StatusInvalidSignature, txID)
	}

	id := hedera.TokenID{Token: l.allocate()}
	l.tokens[id.Token] = &token{
		id:          id,
		name:        request.Name,
		symbol:      request.Symbol,
		tokenType:   request.Type,
		decimals:    request.Decimals,
		supplyType:  request.SupplyType,
		maxSupply:   request.MaxSupply,
		treasury:    treasury.id.Account,
		supplyKey:   request.SupplyKey,
		totalSupply: request.InitialSupply,
		nextSerial:  1,
		owners:      map[int64]uint64{},
		metadata:    map[int64][]byte{},
	}
	treasury.holdings[id.Token] = request.InitialSupply

	return ledger.Receipt{TransactionID: txID, Status: hedera.StatusSuccess, TokenID: &id}, nil
}

func (l *Ledger) AssociateToken(ctx context.Context, request ledger.AssociateTokenRequest) (ledger.Receipt, error) {
	if err := begin(ctx, request); err != nil {
		return ledger.Receipt{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	txID := l.transactionID()
	target, ok := l.accounts[request.AccountID.Account]
	if !ok {
		return fail(ledger.OperationAssociateToken, hedera.StatusInvalidAccountID, txID)
	}
	if !l.signedBy(request.Signers, target.key) {
		return fail(ledger.OperationAssociateToken, hedera.StatusInvalidSignature, txID)
	}
	for _, tokenID := range request.TokenIDs {
		if _, exists := l.tokens[tokenID.Token]; !exists {
			return fail(ledger.OperationAssociateToken, hedera.StatusInvalidTokenID, txID)
		}
		if _, associated := target.holdings[tokenID.Token]; associated {
			return fail(ledger.OperationAssociateToken, hedera.StatusTokenAlreadyAssociatedToAccount, txID)
		}
	}

	for _, tokenID := range request.TokenIDs {
		target.holdings[tokenID.Token] = 0
	}

	return ledger.Receipt{TransactionID: txID, Status: hedera.StatusSuccess}, nil
}

func (l *Ledger) MintToken(ctx context.Context, request ledger.MintTokenRequest) (ledger.Receipt, error) {
	if err := begin(ctx, request); err != nil {
		return ledger.Receipt{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	txID := l.transactionID()
	t, ok := l.tokens[request.TokenID.Token]
	if !ok {
		return fail(ledger.OperationMintToken, hedera.StatusInvalidTokenID, txID)
	}
	if t.supplyKey.String() == "" {
		return fail(ledger.OperationMintToken, hedera.StatusTokenHasNoSupplyKey, txID)
	}
	if !l.signedBy(request.Signers, t.supplyKey) {
		return fail(ledger.OperationMintToken, hedera.StatusInvalidSignature, txID)
	}

	isNft := t.tokenType == hedera.TokenTypeNonFungibleUnique
	if isNft && len(request.Metadata) == 0 {
		return fail(ledger.OperationMintToken, hedera.StatusInvalidTokenMintMetadata, txID)
	}
	if !isNft && request.Amount == 0 {
		return fail(ledger.OperationMintToken, hedera.StatusInvalidTokenMintAmount, txID)
	}

	minted := request.Amount
	if isNft {
		minted = uint64(len(request.Metadata))
	}
	if t.supplyType == hedera.TokenSupplyTypeFinite && t.totalSupply+minted > uint64(t.maxSupply) {
		return fail(ledger.OperationMintToken, hedera.StatusTokenMaxSupplyReached, txID)
	}

	receipt := ledger.Receipt{TransactionID: txID, Status: hedera.StatusSuccess}
	if isNft {
		for _, entry := range request.Metadata {
			serial := t.nextSerial
			t.nextSerial++
			t.owners[serial] = t.treasury
			t.metadata[serial] = append([]byte(nil), entry...)
			receipt.SerialNumbers = append(receipt.SerialNumbers, serial)
		}
	}
	t.totalSupply += minted
	l.accounts[t.treasury].holdings[t.id.Token] += minted

	return receipt, nil
}

type holdingKey struct {
	account uint64
	token   uint64
}

func (l *Ledger) TransferTokens(ctx context.Context, request ledger.TransferRequest) (ledger.Receipt, error) {
	if err := begin(ctx, request); err != nil {
		return ledger.Receipt{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	txID := l.transactionID()
	deltas := map[holdingKey]int64{}
	var debited []uint64

	for _, leg := range request.TokenTransfers {
		t, ok := l.tokens[leg.TokenID.Token]
		if !ok {
			return fail(ledger.OperationTransferTokens, hedera.StatusInvalidTokenID, txID)
		}
		if t.tokenType != hedera.TokenTypeFungibleCommon {
			return fail(ledger.OperationTransferTokens, hedera.StatusAccountAmountTransfersOnlyAllowedForFungibleCommon, txID)
		}
		if _, ok := l.accounts[leg.AccountID.Account]; !ok {
			return fail(ledger.OperationTransferTokens, hedera.StatusInvalidAccountID, txID)
		}
		deltas[holdingKey{account: leg.AccountID.Account, token: t.id.Token}] += leg.Amount
		if leg.Amount < 0 {
			debited = append(debited, leg.AccountID.Account)
		}
	}

	type nftMove struct {
		token    *token
		serial   int64
		receiver uint64
	}
	moves := make([]nftMove, 0, len(request.NftTransfers))
	for _, leg := range request.NftTransfers {
		t, ok := l.tokens[leg.NftID.TokenID.Token]
		if !ok || t.tokenType != hedera.TokenTypeNonFungibleUnique {
			return fail(ledger.OperationTransferTokens, hedera.StatusInvalidNftID, txID)
		}
		for _, party := range []uint64{leg.Sender.Account, leg.Receiver.Account} {
			if _, ok := l.accounts[party]; !ok {
				return fail(ledger.OperationTransferTokens, hedera.StatusInvalidAccountID, txID)
			}
		}
		owner, ok := t.owners[leg.NftID.SerialNumber]
		if !ok {
			return fail(ledger.OperationTransferTokens, hedera.StatusInvalidNftID, txID)
		}
		if owner != leg.Sender.Account {
			return fail(ledger.OperationTransferTokens, hedera.StatusSenderDoesNotOwnNftSerialNo, txID)
		}
		deltas[holdingKey{account: leg.Sender.Account, token: t.id.Token}]--
		deltas[holdingKey{account: leg.Receiver.Account, token: t.id.Token}]++
		debited = append(debited, leg.Sender.Account)
		moves = append(moves, nftMove{token: t, serial: leg.NftID.SerialNumber, receiver: leg.Receiver.Account})
	}

	for _, accountNum := range debited {
		if !l.signedBy(request.Signers, l.accounts[accountNum].key) {
			return fail(ledger.OperationTransferTokens, hedera.StatusInvalidSignature, txID)
		}
	}

	for key, delta := range deltas {
		held, associated := l.accounts[key.account].holdings[key.token]
		if !associated {
			return fail(ledger.OperationTransferTokens, hedera.StatusTokenNotAssociatedToAccount, txID)
		}
		if delta < 0 && held < uint64(-delta) {
			return fail(ledger.OperationTransferTokens, hedera.StatusInsufficientTokenBalance, txID)
		}
	}

	for key, delta := range deltas {
		holdings := l.accounts[key.account].holdings
		if delta < 0 {
			holdings[key.token] -= uint64(-delta)
		} else {
			holdings[key.token] += uint64(delta)
		}
	}
	for _, move := range moves {
		move.token.owners[move.serial] = move.receiver
	}

	return ledger.Receipt{TransactionID: txID, Status: hedera.StatusSuccess}, nil
}

func (l *Ledger) QueryBalance(
	ctx context.Context,
	accountID hedera.AccountID,
	tokenIDs ...hedera.TokenID,
) (ledger.Balance, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Balance{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	holder, ok := l.accounts[accountID.Account]
	if !ok {
		return ledger.Balance{}, ledger.NewStatusError(ledger.OperationQueryBalance, hedera.StatusInvalidAccountID, "")
	}

	balance := ledger.Balance{
		AccountID: holder.id,
		Hbars:     hedera.HbarFromTinybar(holder.tinybars),
		Tokens:    ledger.TokenBalances{},
	}
	if len(tokenIDs) == 0 {
		for tokenNum, amount := range holder.holdings {
			balance.Tokens.Set(l.tokens[tokenNum].id, amount)
		}
		return balance, nil
	}
	for _, tokenID := range tokenIDs {
		balance.Tokens.Set(tokenID, holder.holdings[tokenID.Token])
	}
	return balance, nil
}

func (l *Ledger) UploadBytecode(ctx context.Context, request ledger.UploadBytecodeRequest) (ledger.Receipt, error) {
	if err := begin(ctx, request); err != nil {
		return ledger.Receipt{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	txID := l.transactionID()
	id := hedera.FileID{File: l.allocate()}
	l.files[id.File] = append([]byte(nil), request.Bytecode...)

	return ledger.Receipt{TransactionID: txID, Status: hedera.StatusSuccess, FileID: &id}, nil
}

func (l *Ledger) CreateContract(ctx context.Context, request ledger.CreateContractRequest) (ledger.Receipt, error) {
	if err := begin(ctx, request); err != nil {
		return ledger.Receipt{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	txID := l.transactionID()
	bytecode, ok := l.files[request.BytecodeFileID.File]
	if !ok {
		return fail(ledger.OperationCreateContract, hedera.StatusInvalidFileID, txID)
	}
	if request.Gas < MinDeployGas {
		return fail(ledger.OperationCreateContract, hedera.StatusInsufficientGas, txID)
	}
	if l.newContract == nil {
		return ledger.Receipt{}, fmt.Errorf("memledger: no contract factory configured")
	}

	behavior, err := l.newContract(bytecode)
	if err != nil {
		return ledger.Receipt{}, fmt.Errorf("memledger: failed to load bytecode: %w", err)
	}
	if err := behavior.Construct(request.ConstructorParams); err != nil {
		return fail(ledger.OperationCreateContract, hedera.StatusContractRevertExecuted, txID)
	}

	id := hedera.ContractID{Contract: l.allocate()}
	l.contracts[id.Contract] = &deployedContract{id: id, behavior: behavior}

	return ledger.Receipt{TransactionID: txID, Status: hedera.StatusSuccess, ContractID: &id}, nil
}

func (l *Ledger) CallContract(ctx context.Context, request ledger.ContractCallRequest) (ledger.ContractCallResult, error) {
	if err := begin(ctx, request); err != nil {
		return ledger.ContractCallResult{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	deployed, ok := l.contracts[request.ContractID.Contract]
	if !ok {
		return ledger.ContractCallResult{}, ledger.NewStatusError(ledger.OperationCallContract, hedera.StatusInvalidContractID, "")
	}
	if request.Gas < MinCallGas {
		return ledger.ContractCallResult{}, ledger.NewStatusError(ledger.OperationCallContract, hedera.StatusInsufficientGas, "")
	}

	output, err := deployed.behavior.Call(request.Params)
	if err != nil {
		return ledger.ContractCallResult{}, ledger.NewStatusError(ledger.OperationCallContract, hedera.StatusContractRevertExecuted, "")
	}

	return ledger.ContractCallResult{Data: output, GasUsed: CallGasUsed}, nil
}

func (l *Ledger) ExecuteContract(ctx context.Context, request ledger.ContractExecuteRequest) (ledger.Receipt, error) {
	if err := begin(ctx, request); err != nil {
		return ledger.Receipt{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	txID := l.transactionID()
	deployed, ok := l.contracts[request.ContractID.Contract]
	if !ok {
		return fail(ledger.OperationExecuteContract, hedera.StatusInvalidContractID, txID)
	}
	if request.Gas < MinCallGas {
		return fail(ledger.OperationExecuteContract, hedera.StatusInsufficientGas, txID)
	}
	if _, err := deployed.behavior.Execute(request.Params); err != nil {
		return fail(ledger.OperationExecuteContract, hedera.StatusContractRevertExecuted, txID)
	}

	return ledger.Receipt{TransactionID: txID, Status: hedera.StatusSuccess}, nil
}

type validatable interface {
	Validate() error
}

func begin(ctx context.Context, request validatable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return request.Validate()
}

func fail(op ledger.Operation, status hedera.Status, txID string) (ledger.Receipt, error) {
	return ledger.Receipt{TransactionID: txID, Status: status}, ledger.NewStatusError(op, status, txID)
}

func (l *Ledger) allocate() uint64 {
	id := l.nextEntity
	l.nextEntity++
	return id
}

// transactionID mimics the payer@seconds.nanos format of network IDs.
func (l *Ledger) transactionID() string {
	l.nextTxNanos++
	return fmt.Sprintf("%s@%d.%09d", l.operator.String(), l.startedAtUnix, l.nextTxNanos)
}

// signedBy reports whether key is the operator key or belongs to one of the
// explicit signers. The operator signs every transaction as payer.
func (l *Ledger) signedBy(signers []hedera.PrivateKey, key hedera.PublicKey) bool {
	wanted := key.String()
	if wanted == l.accounts[OperatorAccountNum].key.String() {
		return true
	}
	for _, signer := range signers {
		if signer.PublicKey().String() == wanted {
			return true
		}
	}
	return false
}
