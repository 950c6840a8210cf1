package memledger

import (
	"context"
	"sync"

	"github.com/hashgraph-online/ledger-workflows-go/pkg/ledger"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// Call is one recorded invocation.
type Call struct {
	Operation ledger.Operation
	Request   any
	Receipt   ledger.Receipt
	Err       error
}

// Recorder wraps a ledger.Ledger and records every call in order.
type Recorder struct {
	ledger.Ledger

	mu    sync.Mutex
	calls []Call
}

func NewRecorder(inner ledger.Ledger) *Recorder {
	return &Recorder{Ledger: inner}
}

// Calls returns a copy of the recorded calls.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Operations returns the recorded operation names in order.
func (r *Recorder) Operations() []ledger.Operation {
	calls := r.Calls()
	operations := make([]ledger.Operation, len(calls))
	for index, call := range calls {
		operations[index] = call.Operation
	}
	return operations
}

func (r *Recorder) record(op ledger.Operation, request any, receipt ledger.Receipt, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Operation: op, Request: request, Receipt: receipt, Err: err})
}

func (r *Recorder) CreateAccount(ctx context.Context, request ledger.CreateAccountRequest) (ledger.Receipt, error) {
	receipt, err := r.Ledger.CreateAccount(ctx, request)
	r.record(ledger.OperationCreateAccount, request, receipt, err)
	return receipt, err
}

func (r *Recorder) CreateToken(ctx context.Context, request ledger.CreateTokenRequest) (ledger.Receipt, error) {
	receipt, err := r.Ledger.CreateToken(ctx, request)
	r.record(ledger.OperationCreateToken, request, receipt, err)
	return receipt, err
}

func (r *Recorder) AssociateToken(ctx context.Context, request ledger.AssociateTokenRequest) (ledger.Receipt, error) {
	receipt, err := r.Ledger.AssociateToken(ctx, request)
	r.record(ledger.OperationAssociateToken, request, receipt, err)
	return receipt, err
}

func (r *Recorder) MintToken(ctx context.Context, request ledger.MintTokenRequest) (ledger.Receipt, error) {
	receipt, err := r.Ledger.MintToken(ctx, request)
	r.record(ledger.OperationMintToken, request, receipt, err)
	return receipt, err
}

func (r *Recorder) TransferTokens(ctx context.Context, request ledger.TransferRequest) (ledger.Receipt, error) {
	receipt, err := r.Ledger.TransferTokens(ctx, request)
	r.record(ledger.OperationTransferTokens, request, receipt, err)
	return receipt, err
}

type balanceRequest struct {
	AccountID hedera.AccountID
	TokenIDs  []hedera.TokenID
}

func (r *Recorder) QueryBalance(ctx context.Context, accountID hedera.AccountID, tokenIDs ...hedera.TokenID) (ledger.Balance, error) {
	balance, err := r.Ledger.QueryBalance(ctx, accountID, tokenIDs...)
	r.record(ledger.OperationQueryBalance, balanceRequest{AccountID: accountID, TokenIDs: tokenIDs}, ledger.Receipt{}, err)
	return balance, err
}

func (r *Recorder) UploadBytecode(ctx context.Context, request ledger.UploadBytecodeRequest) (ledger.Receipt, error) {
	receipt, err := r.Ledger.UploadBytecode(ctx, request)
	r.record(ledger.OperationUploadBytecode, request, receipt, err)
	return receipt, err
}

func (r *Recorder) CreateContract(ctx context.Context, request ledger.CreateContractRequest) (ledger.Receipt, error) {
	receipt, err := r.Ledger.CreateContract(ctx, request)
	r.record(ledger.OperationCreateContract, request, receipt, err)
	return receipt, err
}

func (r *Recorder) CallContract(ctx context.Context, request ledger.ContractCallRequest) (ledger.ContractCallResult, error) {
	result, err := r.Ledger.CallContract(ctx, request)
	r.record(ledger.OperationCallContract, request, ledger.Receipt{}, err)
	return result, err
}

func (r *Recorder) ExecuteContract(ctx context.Context, request ledger.ContractExecuteRequest) (ledger.Receipt, error) {
	receipt, err := r.Ledger.ExecuteContract(ctx, request)
	r.record(ledger.OperationExecuteContract, request, receipt, err)
	return receipt, err
}
