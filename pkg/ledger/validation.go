package ledger

import (
	"encoding/hex"
	"strings"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// MaxNftMetadataBytes is the per-serial metadata limit enforced by the network.
const MaxNftMetadataBytes = 100

func (r CreateAccountRequest) Validate() error {
	p := problems{op: OperationCreateAccount}
	if isZeroPublicKey(r.PublicKey) {
		p.add("public key is required")
	}
	if r.InitialBalance.AsTinybar() < 0 {
		p.add("initial balance cannot be negative")
	}
	return p.err()
}

func (r CreateTokenRequest) Validate() error {
	p := problems{op: OperationCreateToken}
	if strings.TrimSpace(r.Name) == "" {
		p.add("token name is required")
	}
	if strings.TrimSpace(r.Symbol) == "" {
		p.add("token symbol is required")
	}
	if isZeroAccountID(r.Treasury) {
		p.add("treasury account is required")
	}
	if r.MaxSupply < 0 {
		p.add("max supply cannot be negative")
	}

	if r.Type == hedera.TokenTypeNonFungibleUnique {
		if r.Decimals != 0 {
			p.add("non-fungible tokens must have 0 decimals, got %d", r.Decimals)
		}
		if r.InitialSupply != 0 {
			p.add("non-fungible tokens must have 0 initial supply, got %d", r.InitialSupply)
		}
		if isZeroPublicKey(r.SupplyKey) {
			p.add("non-fungible tokens require a supply key")
		}
	}

	switch r.SupplyType {
	case hedera.TokenSupplyTypeFinite:
		if r.MaxSupply <= 0 {
			p.add("finite supply requires a positive max supply")
		} else if r.InitialSupply > uint64(r.MaxSupply) {
			p.add("initial supply %d exceeds max supply %d", r.InitialSupply, r.MaxSupply)
		}
	case hedera.TokenSupplyTypeInfinite:
		if r.MaxSupply != 0 {
			p.add("infinite supply cannot set a max supply")
		}
	}

	return p.err()
}

func (r AssociateTokenRequest) Validate() error {
	p := problems{op: OperationAssociateToken}
	if isZeroAccountID(r.AccountID) {
		p.add("account ID is required")
	}
	if len(r.TokenIDs) == 0 {
		p.add("at least one token ID is required")
	}
	if len(r.Signers) == 0 {
		p.add("association must be signed by the account key")
	}
	return p.err()
}

func (r MintTokenRequest) Validate() error {
	p := problems{op: OperationMintToken}
	if r.TokenID.Token == 0 {
		p.add("token ID is required")
	}

	switch {
	case len(r.Metadata) > 0 && r.Amount > 0:
		p.add("set either metadata or amount, not both")
	case len(r.Metadata) == 0 && r.Amount == 0:
		p.add("metadata or amount is required")
	}
	if len(r.Metadata) > MaxMintBatchSize {
		p.add("batch of %d exceeds the %d item mint limit", len(r.Metadata), MaxMintBatchSize)
	}
	for index, entry := range r.Metadata {
		if len(entry) > MaxNftMetadataBytes {
			p.add("metadata %d is %d bytes, limit is %d", index, len(entry), MaxNftMetadataBytes)
		}
	}
	return p.err()
}

func (r TransferRequest) Validate() error {
	p := problems{op: OperationTransferTokens}
	if len(r.TokenTransfers) == 0 && len(r.NftTransfers) == 0 {
		p.add("at least one transfer is required")
	}

	sums := make(map[hedera.TokenID]int64)
	for _, leg := range r.TokenTransfers {
		if leg.Amount == 0 {
			p.add("transfer of token %s for account %s has zero amount", leg.TokenID.String(), leg.AccountID.String())
		}
		sums[NormalizeTokenID(leg.TokenID)] += leg.Amount
	}
	for tokenID, sum := range sums {
		if sum != 0 {
			p.add("transfers of token %s net to %d, must net to zero", tokenID.String(), sum)
		}
	}

	seen := make(map[hedera.NftID]bool, len(r.NftTransfers))
	for _, leg := range r.NftTransfers {
		nftID := hedera.NftID{TokenID: NormalizeTokenID(leg.NftID.TokenID), SerialNumber: leg.NftID.SerialNumber}
		if seen[nftID] {
			p.add("NFT %s appears in more than one transfer", nftID.String())
		}
		seen[nftID] = true
		if leg.NftID.SerialNumber <= 0 {
			p.add("NFT serial number must be positive")
		}
		if SameAccount(leg.Sender, leg.Receiver) {
			p.add("NFT %s sender and receiver are the same account", leg.NftID.String())
		}
	}
	return p.err()
}

func (r UploadBytecodeRequest) Validate() error {
	p := problems{op: OperationUploadBytecode}
	if len(r.Bytecode) == 0 {
		p.add("bytecode is required")
	} else if !isHexText(r.Bytecode) {
		p.add("bytecode must be hex encoded")
	}
	return p.err()
}

func (r CreateContractRequest) Validate() error {
	p := problems{op: OperationCreateContract}
	if r.BytecodeFileID.File == 0 {
		p.add("bytecode file ID is required")
	}
	if r.Gas == 0 {
		p.add("gas is required")
	}
	return p.err()
}

func (r DeployContractRequest) Validate() error {
	p := problems{op: OperationCreateContract}
	if len(r.Bytecode) == 0 {
		p.add("bytecode is required")
	}
	if r.Gas == 0 {
		p.add("gas is required")
	}
	return p.err()
}

func (r ContractCallRequest) Validate() error {
	return validateCall(OperationCallContract, r.ContractID, r.Gas, r.Params)
}

func (r ContractExecuteRequest) Validate() error {
	return validateCall(OperationExecuteContract, r.ContractID, r.Gas, r.Params)
}

func validateCall(op Operation, contractID hedera.ContractID, gas uint64, params []byte) error {
	p := problems{op: op}
	if contractID.Contract == 0 && len(contractID.EvmAddress) == 0 {
		p.add("contract ID is required")
	}
	if gas == 0 {
		p.add("gas is required")
	}
	if len(params) < 4 {
		p.add("call data must include a function selector")
	}
	return p.err()
}

func isZeroPublicKey(key hedera.PublicKey) bool {
	return key.String() == ""
}

func isZeroAccountID(accountID hedera.AccountID) bool {
	return accountID.Account == 0 && accountID.AliasKey == nil && accountID.AliasEvmAddress == nil
}

func isHexText(value []byte) bool {
	trimmed := strings.TrimPrefix(strings.TrimSpace(string(value)), "0x")
	if trimmed == "" || len(trimmed)%2 != 0 {
		return false
	}
	_, err := hex.DecodeString(trimmed)
	return err == nil
}
