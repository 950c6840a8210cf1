package ledger

import (
	"context"
	"fmt"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// AccountService creates accounts funded by the operator.
type AccountService interface {
	CreateAccount(ctx context.Context, request CreateAccountRequest) (Receipt, error)
}

// TokenService creates, associates and mints tokens.
type TokenService interface {
	CreateToken(ctx context.Context, request CreateTokenRequest) (Receipt, error)
	AssociateToken(ctx context.Context, request AssociateTokenRequest) (Receipt, error)
	MintToken(ctx context.Context, request MintTokenRequest) (Receipt, error)
}

// TransferService moves fungible units and NFT serials between accounts.
type TransferService interface {
	TransferTokens(ctx context.Context, request TransferRequest) (Receipt, error)
}

// BalanceQueryService reads account balances. It never changes ledger state.
type BalanceQueryService interface {
	QueryBalance(ctx context.Context, accountID hedera.AccountID, tokenIDs ...hedera.TokenID) (Balance, error)
}

// ContractService uploads bytecode, instantiates contracts and calls them.
type ContractService interface {
	UploadBytecode(ctx context.Context, request UploadBytecodeRequest) (Receipt, error)
	CreateContract(ctx context.Context, request CreateContractRequest) (Receipt, error)
	CallContract(ctx context.Context, request ContractCallRequest) (ContractCallResult, error)
	ExecuteContract(ctx context.Context, request ContractExecuteRequest) (Receipt, error)
}

// Ledger is the full capability set a workflow runs against.
type Ledger interface {
	AccountService
	TokenService
	TransferService
	BalanceQueryService
	ContractService

	// OperatorAccountID is the account paying for every transaction.
	OperatorAccountID() hedera.AccountID
}

// Deployment is the outcome of the two-phase contract deployment.
type Deployment struct {
	FileID        hedera.FileID
	ContractID    hedera.ContractID
	FileReceipt   Receipt
	CreateReceipt Receipt
}

// DeployContract uploads the bytecode as a file and then instantiates the
// contract from it. The contract is only created once the file receipt has
// resolved with SUCCESS and a file ID.
func DeployContract(ctx context.Context, service ContractService, request DeployContractRequest) (Deployment, error) {
	if err := request.Validate(); err != nil {
		return Deployment{}, err
	}

	fileReceipt, err := service.UploadBytecode(ctx, UploadBytecodeRequest{
		Bytecode: request.Bytecode,
		Keys:     request.FileKeys,
		Memo:     request.Memo,
	})
	if err != nil {
		return Deployment{}, fmt.Errorf("failed to upload contract bytecode: %w", err)
	}
	if err := RequireSuccess(OperationUploadBytecode, fileReceipt); err != nil {
		return Deployment{}, err
	}
	if fileReceipt.FileID == nil {
		return Deployment{}, NewMissingEntityError(OperationUploadBytecode, "file")
	}

	createReceipt, err := service.CreateContract(ctx, CreateContractRequest{
		BytecodeFileID:    *fileReceipt.FileID,
		Gas:               request.Gas,
		ConstructorParams: request.ConstructorParams,
		AdminKey:          request.AdminKey,
		Memo:              request.Memo,
	})
	if err != nil {
		return Deployment{}, fmt.Errorf("failed to create contract: %w", err)
	}
	if err := RequireSuccess(OperationCreateContract, createReceipt); err != nil {
		return Deployment{}, err
	}
	if createReceipt.ContractID == nil {
		return Deployment{}, NewMissingEntityError(OperationCreateContract, "contract")
	}

	return Deployment{
		FileID:        *fileReceipt.FileID,
		ContractID:    *createReceipt.ContractID,
		FileReceipt:   fileReceipt,
		CreateReceipt: createReceipt,
	}, nil
}
