package ledger

import (
	"sort"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// Operation names a ledger call in errors and logs.
type Operation string

const (
	OperationCreateAccount   Operation = "create_account"
	OperationCreateToken     Operation = "create_token"
	OperationAssociateToken  Operation = "associate_token"
	OperationMintToken       Operation = "mint_token"
	OperationTransferTokens  Operation = "transfer_tokens"
	OperationQueryBalance    Operation = "query_balance"
	OperationUploadBytecode  Operation = "upload_bytecode"
	OperationCreateContract  Operation = "create_contract"
	OperationCallContract    Operation = "call_contract"
	OperationExecuteContract Operation = "execute_contract"
)

// MaxMintBatchSize is the largest NFT metadata batch one mint may carry.
const MaxMintBatchSize = 10

// Receipt is the committed outcome of a submitted transaction.
type Receipt struct {
	TransactionID string
	Status        hedera.Status
	AccountID     *hedera.AccountID
	TokenID       *hedera.TokenID
	FileID        *hedera.FileID
	ContractID    *hedera.ContractID
	SerialNumbers []int64
}

type CreateAccountRequest struct {
	PublicKey      hedera.PublicKey
	InitialBalance hedera.Hbar
	Memo           string
}

type CreateTokenRequest struct {
	Name          string
	Symbol        string
	Type          hedera.TokenType
	Decimals      uint
	InitialSupply uint64
	SupplyType    hedera.TokenSupplyType
	MaxSupply     int64
	Treasury      hedera.AccountID
	SupplyKey     hedera.PublicKey
	Memo          string
	// Signers must include the treasury key when the treasury is not the
	// operator account.
	Signers []hedera.PrivateKey
}

type AssociateTokenRequest struct {
	AccountID hedera.AccountID
	TokenIDs  []hedera.TokenID
	// Signers must include the key of AccountID.
	Signers []hedera.PrivateKey
}

type MintTokenRequest struct {
	TokenID hedera.TokenID
	// Metadata mints one NFT per entry. Amount mints fungible units. Exactly
	// one of the two is set.
	Metadata          [][]byte
	Amount            uint64
	MaxTransactionFee hedera.Hbar
	Signers           []hedera.PrivateKey
}

// TokenTransfer is one leg of a fungible transfer. Negative amounts debit.
type TokenTransfer struct {
	TokenID   hedera.TokenID
	AccountID hedera.AccountID
	Amount    int64
}

type NftTransfer struct {
	NftID    hedera.NftID
	Sender   hedera.AccountID
	Receiver hedera.AccountID
}

type TransferRequest struct {
	TokenTransfers []TokenTransfer
	NftTransfers   []NftTransfer
	Signers        []hedera.PrivateKey
}

// NewFungibleTransfer builds a balanced two-leg transfer of amount units.
func NewFungibleTransfer(tokenID hedera.TokenID, from hedera.AccountID, to hedera.AccountID, amount int64) TransferRequest {
	return TransferRequest{
		TokenTransfers: []TokenTransfer{
			{TokenID: tokenID, AccountID: from, Amount: -amount},
			{TokenID: tokenID, AccountID: to, Amount: amount},
		},
	}
}

// NewNftTransfer builds a transfer of a single serial.
func NewNftTransfer(tokenID hedera.TokenID, serial int64, from hedera.AccountID, to hedera.AccountID) TransferRequest {
	return TransferRequest{
		NftTransfers: []NftTransfer{{
			NftID:    hedera.NftID{TokenID: tokenID, SerialNumber: serial},
			Sender:   from,
			Receiver: to,
		}},
	}
}

type UploadBytecodeRequest struct {
	// Bytecode is the hex-encoded contract bytecode, stored as file contents.
	Bytecode []byte
	Keys     []hedera.PublicKey
	Memo     string
}

type CreateContractRequest struct {
	BytecodeFileID    hedera.FileID
	Gas               uint64
	ConstructorParams []byte
	AdminKey          *hedera.PublicKey
	Memo              string
}

type DeployContractRequest struct {
	Bytecode          []byte
	ConstructorParams []byte
	Gas               uint64
	FileKeys          []hedera.PublicKey
	AdminKey          *hedera.PublicKey
	Memo              string
}

// ContractCallRequest is a read-only call. Params is the full ABI call data
// including the 4-byte selector.
type ContractCallRequest struct {
	ContractID   hedera.ContractID
	Gas          uint64
	Params       []byte
	QueryPayment hedera.Hbar
}

type ContractCallResult struct {
	Data    []byte
	GasUsed uint64
}

// ContractExecuteRequest is a state-changing call submitted as a transaction.
type ContractExecuteRequest struct {
	ContractID hedera.ContractID
	Gas        uint64
	Params     []byte
	Payable    hedera.Hbar
}

// TokenBalances maps a token to the units an account holds. Keys are
// normalized so IDs parsed with or without checksums compare equal.
type TokenBalances map[hedera.TokenID]uint64

// Get returns the balance of tokenID, zero when absent.
func (b TokenBalances) Get(tokenID hedera.TokenID) uint64 {
	return b[NormalizeTokenID(tokenID)]
}

// Set records amount for tokenID.
func (b TokenBalances) Set(tokenID hedera.TokenID, amount uint64) {
	b[NormalizeTokenID(tokenID)] = amount
}

// TokenIDs returns the held tokens in ascending ID order.
func (b TokenBalances) TokenIDs() []hedera.TokenID {
	ids := make([]hedera.TokenID, 0, len(b))
	for id := range b {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if ids[i].Shard != ids[j].Shard {
			return ids[i].Shard < ids[j].Shard
		}
		if ids[i].Realm != ids[j].Realm {
			return ids[i].Realm < ids[j].Realm
		}
		return ids[i].Token < ids[j].Token
	})
	return ids
}

type Balance struct {
	AccountID hedera.AccountID
	Hbars     hedera.Hbar
	Tokens    TokenBalances
}

// NormalizeTokenID strips the checksum so the ID is usable as a map key.
func NormalizeTokenID(tokenID hedera.TokenID) hedera.TokenID {
	return hedera.TokenID{Shard: tokenID.Shard, Realm: tokenID.Realm, Token: tokenID.Token}
}

// NormalizeAccountID strips checksum and alias data.
func NormalizeAccountID(accountID hedera.AccountID) hedera.AccountID {
	return hedera.AccountID{Shard: accountID.Shard, Realm: accountID.Realm, Account: accountID.Account}
}

// SameAccount reports whether two account IDs name the same entity.
func SameAccount(a hedera.AccountID, b hedera.AccountID) bool {
	return NormalizeAccountID(a) == NormalizeAccountID(b)
}
