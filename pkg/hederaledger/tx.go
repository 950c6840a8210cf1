package hederaledger

import (
	"fmt"

	"github.com/hashgraph-online/ledger-workflows-go/pkg/ledger"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// FileChunkSize is the largest file content carried by a single create or
// append transaction.
const FileChunkSize = 4096

// BuildCreateAccountTx builds an account creation funded by the payer.
func BuildCreateAccountTx(request ledger.CreateAccountRequest) (*hedera.AccountCreateTransaction, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	transaction := hedera.NewAccountCreateTransaction().
		SetKey(request.PublicKey).
		SetInitialBalance(request.InitialBalance)
	if request.Memo != "" {
		transaction.SetAccountMemo(request.Memo)
	}
	return transaction, nil
}

// BuildCreateTokenTx builds a fungible or non-fungible token creation.
func BuildCreateTokenTx(request ledger.CreateTokenRequest) (*hedera.TokenCreateTransaction, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	transaction := hedera.NewTokenCreateTransaction().
		SetTokenName(request.Name).
		SetTokenSymbol(request.Symbol).
		SetTokenType(request.Type).
		SetDecimals(request.Decimals).
		SetInitialSupply(request.InitialSupply).
		SetTreasuryAccountID(request.Treasury).
		SetSupplyType(request.SupplyType)
	if request.SupplyType == hedera.TokenSupplyTypeFinite {
		transaction.SetMaxSupply(request.MaxSupply)
	}
	if request.SupplyKey.String() != "" {
		transaction.SetSupplyKey(request.SupplyKey)
	}
	if request.Memo != "" {
		transaction.SetTokenMemo(request.Memo)
	}
	return transaction, nil
}

// BuildAssociateTokenTx builds an association of tokens with an account.
func BuildAssociateTokenTx(request ledger.AssociateTokenRequest) (*hedera.TokenAssociateTransaction, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	return hedera.NewTokenAssociateTransaction().
		SetAccountID(request.AccountID).
		SetTokenIDs(request.TokenIDs...), nil
}

// BuildMintTokenTx builds a mint of NFT serials or fungible units.
func BuildMintTokenTx(request ledger.MintTokenRequest) (*hedera.TokenMintTransaction, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	transaction := hedera.NewTokenMintTransaction().SetTokenID(request.TokenID)
	if len(request.Metadata) > 0 {
		transaction.SetMetadatas(request.Metadata)
	} else {
		transaction.SetAmount(request.Amount)
	}
	if request.MaxTransactionFee.AsTinybar() > 0 {
		transaction.SetMaxTransactionFee(request.MaxTransactionFee)
	}
	return transaction, nil
}

// BuildTransferTx builds a transfer holding every fungible and NFT leg of
// the request.
func BuildTransferTx(request ledger.TransferRequest) (*hedera.TransferTransaction, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	transaction := hedera.NewTransferTransaction()
	for _, leg := range request.TokenTransfers {
		transaction.AddTokenTransfer(leg.TokenID, leg.AccountID, leg.Amount)
	}
	for _, leg := range request.NftTransfers {
		transaction.AddNftTransfer(leg.NftID, leg.Sender, leg.Receiver)
	}
	return transaction, nil
}

// BuildFileCreateTx builds the file creation carrying the first chunk of
// the bytecode. The remainder, if any, goes through BuildFileAppendTx, which
// the network only accepts on a file with keys.
func BuildFileCreateTx(request ledger.UploadBytecodeRequest) (*hedera.FileCreateTransaction, []byte, error) {
	if err := request.Validate(); err != nil {
		return nil, nil, err
	}

	first, rest := splitChunk(request.Bytecode)
	if len(rest) > 0 && len(request.Keys) == 0 {
		return nil, nil, fmt.Errorf("bytecode of %d bytes spans several file chunks and needs a file key to append", len(request.Bytecode))
	}
	transaction := hedera.NewFileCreateTransaction().SetContents(first)
	if len(request.Keys) > 0 {
		keys := make([]hedera.Key, 0, len(request.Keys))
		for _, key := range request.Keys {
			keys = append(keys, key)
		}
		transaction.SetKeys(keys...)
	}
	if request.Memo != "" {
		transaction.SetMemo(request.Memo)
	}
	return transaction, rest, nil
}

// BuildFileAppendTx appends contents to an existing file, split into as many
// chunks as needed.
func BuildFileAppendTx(fileID hedera.FileID, contents []byte) (*hedera.FileAppendTransaction, error) {
	if fileID.File == 0 {
		return nil, fmt.Errorf("file ID is required")
	}
	if len(contents) == 0 {
		return nil, fmt.Errorf("append contents are required")
	}

	chunks := (len(contents) + FileChunkSize - 1) / FileChunkSize
	return hedera.NewFileAppendTransaction().
		SetFileID(fileID).
		SetContents(contents).
		SetMaxChunks(uint64(chunks)), nil
}

// BuildContractCreateTx instantiates a contract from uploaded bytecode.
func BuildContractCreateTx(request ledger.CreateContractRequest) (*hedera.ContractCreateTransaction, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	transaction := hedera.NewContractCreateTransaction().
		SetBytecodeFileID(request.BytecodeFileID).
		SetGas(request.Gas)
	if len(request.ConstructorParams) > 0 {
		transaction.SetConstructorParametersRaw(request.ConstructorParams)
	}
	if request.AdminKey != nil {
		transaction.SetAdminKey(*request.AdminKey)
	}
	if request.Memo != "" {
		transaction.SetContractMemo(request.Memo)
	}
	return transaction, nil
}

// BuildContractCallQuery builds a read-only local call.
func BuildContractCallQuery(request ledger.ContractCallRequest) (*hedera.ContractCallQuery, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	query := hedera.NewContractCallQuery().
		SetContractID(request.ContractID).
		SetGas(request.Gas).
		SetFunctionParameters(request.Params)
	if request.QueryPayment.AsTinybar() > 0 {
		query.SetQueryPayment(request.QueryPayment)
	}
	return query, nil
}

// BuildContractExecuteTx builds a state-changing contract call.
func BuildContractExecuteTx(request ledger.ContractExecuteRequest) (*hedera.ContractExecuteTransaction, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	transaction := hedera.NewContractExecuteTransaction().
		SetContractID(request.ContractID).
		SetGas(request.Gas).
		SetFunctionParameters(request.Params)
	if request.Payable.AsTinybar() > 0 {
		transaction.SetPayableAmount(request.Payable)
	}
	return transaction, nil
}

func splitChunk(contents []byte) ([]byte, []byte) {
	if len(contents) <= FileChunkSize {
		return contents, nil
	}
	return contents[:FileChunkSize], contents[FileChunkSize:]
}
