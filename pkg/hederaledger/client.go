package hederaledger

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hashgraph-online/ledger-workflows-go/pkg/ledger"
	"github.com/hashgraph-online/ledger-workflows-go/pkg/mirror"
	"github.com/hashgraph-online/ledger-workflows-go/pkg/shared"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

type Config struct {
	Operator shared.OperatorConfig
	// MirrorClient overrides the mirror node client built from Operator.
	MirrorClient *mirror.Client
}

// Client is a ledger.Ledger backed by a Hedera network.
type Client struct {
	hederaClient *hedera.Client
	mirrorClient *mirror.Client
	operatorID   hedera.AccountID
	operatorKey  hedera.PublicKey
	network      string
}

var _ ledger.Ledger = (*Client)(nil)

// NewClient creates a client for the operator's network with the default
// fee ceilings applied.
func NewClient(config Config) (*Client, error) {
	network, err := shared.NormalizeNetwork(config.Operator.Network)
	if err != nil {
		return nil, err
	}
	config.Operator.Network = network

	operatorID, _, err := config.Operator.Credentials()
	if err != nil {
		return nil, err
	}

	hederaClient, err := shared.NewOperatorClient(config.Operator)
	if err != nil {
		return nil, err
	}

	mirrorClient := config.MirrorClient
	if mirrorClient == nil {
		mirrorClient, err = mirror.NewClient(mirror.Config{
			Network: network,
			BaseURL: config.Operator.MirrorBaseURL,
			APIKey:  config.Operator.MirrorAPIKey,
		})
		if err != nil {
			return nil, err
		}
	}

	return &Client{
		hederaClient: hederaClient,
		mirrorClient: mirrorClient,
		operatorID:   operatorID,
		operatorKey:  hederaClient.GetOperatorPublicKey(),
		network:      network,
	}, nil
}

func (c *Client) OperatorAccountID() hedera.AccountID {
	return c.operatorID
}

// Network returns the normalized network name.
func (c *Client) Network() string {
	return c.network
}

// HederaClient returns the underlying SDK client.
func (c *Client) HederaClient() *hedera.Client {
	return c.hederaClient
}

// MirrorClient returns the configured mirror client.
func (c *Client) MirrorClient() *mirror.Client {
	return c.mirrorClient
}

// Close releases the SDK client's node connections.
func (c *Client) Close() error {
	return c.hederaClient.Close()
}

func (c *Client) CreateAccount(ctx context.Context, request ledger.CreateAccountRequest) (ledger.Receipt, error) {
	transaction, err := BuildCreateAccountTx(request)
	if err != nil {
		return ledger.Receipt{}, err
	}
	return submit(ctx, c.hederaClient, ledger.OperationCreateAccount, transaction, nil)
}

func (c *Client) CreateToken(ctx context.Context, request ledger.CreateTokenRequest) (ledger.Receipt, error) {
	transaction, err := BuildCreateTokenTx(request)
	if err != nil {
		return ledger.Receipt{}, err
	}
	return submit(ctx, c.hederaClient, ledger.OperationCreateToken, transaction, request.Signers)
}

func (c *Client) AssociateToken(ctx context.Context, request ledger.AssociateTokenRequest) (ledger.Receipt, error) {
	transaction, err := BuildAssociateTokenTx(request)
	if err != nil {
		return ledger.Receipt{}, err
	}
	return submit(ctx, c.hederaClient, ledger.OperationAssociateToken, transaction, request.Signers)
}

func (c *Client) MintToken(ctx context.Context, request ledger.MintTokenRequest) (ledger.Receipt, error) {
	transaction, err := BuildMintTokenTx(request)
	if err != nil {
		return ledger.Receipt{}, err
	}
	return submit(ctx, c.hederaClient, ledger.OperationMintToken, transaction, request.Signers)
}

func (c *Client) TransferTokens(ctx context.Context, request ledger.TransferRequest) (ledger.Receipt, error) {
	transaction, err := BuildTransferTx(request)
	if err != nil {
		return ledger.Receipt{}, err
	}
	return submit(ctx, c.hederaClient, ledger.OperationTransferTokens, transaction, request.Signers)
}

// QueryBalance reads the hbar balance with an AccountBalanceQuery. Requested
// tokens are read from the same query, whose token list the network is
// phasing out; a token it reports as zero is read again from the mirror node.
// Without requested tokens, every token relationship of the account is
// listed from the mirror node.
func (c *Client) QueryBalance(
	ctx context.Context,
	accountID hedera.AccountID,
	tokenIDs ...hedera.TokenID,
) (ledger.Balance, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Balance{}, err
	}

	queried, err := hedera.NewAccountBalanceQuery().
		SetAccountID(accountID).
		Execute(c.hederaClient)
	if err != nil {
		return ledger.Balance{}, mapStatusError(ledger.OperationQueryBalance, fmt.Errorf("failed to query account balance: %w", err))
	}

	balance := ledger.Balance{
		AccountID: accountID,
		Hbars:     queried.Hbars,
		Tokens:    ledger.TokenBalances{},
	}
	if len(tokenIDs) > 0 {
		for _, tokenID := range tokenIDs {
			amount, err := c.tokenBalance(ctx, accountID, tokenID, queried.Tokens.Get(tokenID))
			if err != nil {
				return ledger.Balance{}, err
			}
			balance.Tokens.Set(tokenID, amount)
		}
		return balance, nil
	}

	relationships, err := c.mirrorClient.GetAccountTokens(ctx, accountID.String(), mirror.TokenQueryOptions{})
	if err != nil {
		return ledger.Balance{}, fmt.Errorf("failed to list account tokens: %w", err)
	}
	for _, relationship := range relationships {
		tokenID, err := hedera.TokenIDFromString(relationship.TokenID)
		if err != nil {
			return ledger.Balance{}, fmt.Errorf("mirror node returned invalid token ID %q: %w", relationship.TokenID, err)
		}
		balance.Tokens.Set(tokenID, relationship.Balance)
	}
	return balance, nil
}

// tokenBalance returns consensus when it is non-zero, otherwise the balance
// of the account's relationship with tokenID on the mirror node. An account
// unknown to the mirror node holds nothing.
func (c *Client) tokenBalance(
	ctx context.Context,
	accountID hedera.AccountID,
	tokenID hedera.TokenID,
	consensus uint64,
) (uint64, error) {
	if consensus > 0 {
		return consensus, nil
	}

	relationships, err := c.mirrorClient.GetAccountTokens(ctx, accountID.String(), mirror.TokenQueryOptions{
		TokenID: tokenID.String(),
	})
	if err != nil {
		var httpErr *mirror.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read balance of token %s: %w", tokenID.String(), err)
	}
	for _, relationship := range relationships {
		if relationship.TokenID == tokenID.String() {
			return relationship.Balance, nil
		}
	}
	return 0, nil
}

// UploadBytecode stores hex bytecode in a new file, appending past the first
// chunk. The file ID is only reported once every append has succeeded.
func (c *Client) UploadBytecode(ctx context.Context, request ledger.UploadBytecodeRequest) (ledger.Receipt, error) {
	transaction, rest, err := BuildFileCreateTx(withFileKey(request, c.operatorKey))
	if err != nil {
		return ledger.Receipt{}, err
	}

	receipt, err := submit(ctx, c.hederaClient, ledger.OperationUploadBytecode, transaction, nil)
	if err != nil || len(rest) == 0 {
		return receipt, err
	}
	if receipt.FileID == nil {
		return receipt, ledger.NewMissingEntityError(ledger.OperationUploadBytecode, "file")
	}

	appendTransaction, err := BuildFileAppendTx(*receipt.FileID, rest)
	if err != nil {
		return ledger.Receipt{}, err
	}
	appendReceipt, err := submit(ctx, c.hederaClient, ledger.OperationUploadBytecode, appendTransaction, nil)
	if err != nil {
		return appendReceipt, fmt.Errorf("failed to append bytecode to file %s: %w", receipt.FileID.String(), err)
	}
	return receipt, nil
}

// withFileKey makes the operator key the file key of bytecode that needs
// appends, so the operator's payer signature also authorizes them.
func withFileKey(request ledger.UploadBytecodeRequest, operatorKey hedera.PublicKey) ledger.UploadBytecodeRequest {
	if len(request.Keys) > 0 || len(request.Bytecode) <= FileChunkSize {
		return request
	}
	request.Keys = []hedera.PublicKey{operatorKey}
	return request
}

func (c *Client) CreateContract(ctx context.Context, request ledger.CreateContractRequest) (ledger.Receipt, error) {
	transaction, err := BuildContractCreateTx(request)
	if err != nil {
		return ledger.Receipt{}, err
	}
	return submit(ctx, c.hederaClient, ledger.OperationCreateContract, transaction, nil)
}

func (c *Client) CallContract(ctx context.Context, request ledger.ContractCallRequest) (ledger.ContractCallResult, error) {
	query, err := BuildContractCallQuery(request)
	if err != nil {
		return ledger.ContractCallResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return ledger.ContractCallResult{}, err
	}

	result, err := query.Execute(c.hederaClient)
	if err != nil {
		return ledger.ContractCallResult{}, mapStatusError(ledger.OperationCallContract, fmt.Errorf("failed to call contract: %w", err))
	}

	return ledger.ContractCallResult{
		Data:    result.ContractCallResult,
		GasUsed: result.GasUsed,
	}, nil
}

func (c *Client) ExecuteContract(ctx context.Context, request ledger.ContractExecuteRequest) (ledger.Receipt, error) {
	transaction, err := BuildContractExecuteTx(request)
	if err != nil {
		return ledger.Receipt{}, err
	}
	return submit(ctx, c.hederaClient, ledger.OperationExecuteContract, transaction, nil)
}

type executable[T any] interface {
	FreezeWith(client *hedera.Client) (T, error)
	Sign(privateKey hedera.PrivateKey) T
	Execute(client *hedera.Client) (hedera.TransactionResponse, error)
}

// submit signs the transaction with any extra signers, executes it and
// waits for the receipt. The operator signs as payer inside the SDK.
func submit[T executable[T]](
	ctx context.Context,
	hederaClient *hedera.Client,
	op ledger.Operation,
	transaction T,
	signers []hedera.PrivateKey,
) (ledger.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return ledger.Receipt{}, err
	}

	if len(signers) > 0 {
		frozen, err := transaction.FreezeWith(hederaClient)
		if err != nil {
			return ledger.Receipt{}, fmt.Errorf("failed to freeze %s transaction: %w", op, err)
		}
		for _, signer := range signers {
			frozen = frozen.Sign(signer)
		}
		transaction = frozen
	}

	response, err := transaction.Execute(hederaClient)
	if err != nil {
		return ledger.Receipt{}, mapStatusError(op, fmt.Errorf("failed to execute %s transaction: %w", op, err))
	}

	transactionID := response.TransactionID.String()
	receipt, err := response.GetReceipt(hederaClient)
	if err != nil {
		mapped := mapStatusError(op, fmt.Errorf("failed to get %s receipt: %w", op, err))
		var statusErr *ledger.StatusError
		if errors.As(mapped, &statusErr) {
			return ledger.Receipt{TransactionID: transactionID, Status: statusErr.Status}, mapped
		}
		return ledger.Receipt{TransactionID: transactionID}, mapped
	}

	result := toReceipt(transactionID, receipt)
	if err := ledger.RequireSuccess(op, result); err != nil {
		return result, err
	}
	return result, nil
}

func toReceipt(transactionID string, receipt hedera.TransactionReceipt) ledger.Receipt {
	return ledger.Receipt{
		TransactionID: transactionID,
		Status:        receipt.Status,
		AccountID:     receipt.AccountID,
		TokenID:       receipt.TokenID,
		FileID:        receipt.FileID,
		ContractID:    receipt.ContractID,
		SerialNumbers: receipt.SerialNumbers,
	}
}

// mapStatusError turns SDK precheck and receipt status errors into a
// ledger.StatusError and leaves every other error untouched.
func mapStatusError(op ledger.Operation, err error) error {
	var receiptErr hedera.ErrHederaReceiptStatus
	if errors.As(err, &receiptErr) {
		return ledger.NewStatusError(op, receiptErr.Status, receiptErr.TxID.String())
	}
	var precheckErr hedera.ErrHederaPreCheckStatus
	if errors.As(err, &precheckErr) {
		return ledger.NewStatusError(op, precheckErr.Status, precheckErr.TxID.String())
	}
	return err
}
