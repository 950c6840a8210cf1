package mirror

import "fmt"

// HTTPError is a non-2xx mirror node response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (httpErr *HTTPError) Error() string {
	return fmt.Sprintf("mirror node request failed with status %d: %s", httpErr.StatusCode, httpErr.Body)
}

type AccountBalance struct {
	Balance   int64                `json:"balance"`
	Timestamp string               `json:"timestamp"`
	Tokens    []AccountTokenAmount `json:"tokens"`
}

type AccountTokenAmount struct {
	TokenID string `json:"token_id"`
	Balance int64  `json:"balance"`
}

type AccountInfo struct {
	Account string         `json:"account"`
	Balance AccountBalance `json:"balance"`
	Key     map[string]any `json:"key"`
	Memo    string         `json:"memo"`
	EvmAddr string         `json:"evm_address"`
}

type TokenRelationship struct {
	TokenID              string `json:"token_id"`
	Balance              uint64 `json:"balance"`
	Decimals             uint   `json:"decimals"`
	AutomaticAssociation bool   `json:"automatic_association"`
	CreatedTimestamp     string `json:"created_timestamp"`
	FreezeStatus         string `json:"freeze_status"`
	KycStatus            string `json:"kyc_status"`
}

type tokenRelationshipsResponse struct {
	Tokens []TokenRelationship `json:"tokens"`
	Links  struct {
		Next string `json:"next"`
	} `json:"links"`
}

type TokenInfo struct {
	TokenID          string         `json:"token_id"`
	Name             string         `json:"name"`
	Symbol           string         `json:"symbol"`
	Type             string         `json:"type"`
	Decimals         string         `json:"decimals"`
	InitialSupply    string         `json:"initial_supply"`
	TotalSupply      string         `json:"total_supply"`
	MaxSupply        string         `json:"max_supply"`
	SupplyType       string         `json:"supply_type"`
	TreasuryAccount  string         `json:"treasury_account_id"`
	Memo             string         `json:"memo"`
	SupplyKey        map[string]any `json:"supply_key"`
	CreatedTimestamp string         `json:"created_timestamp"`
}

type Nft struct {
	AccountID        string `json:"account_id"`
	TokenID          string `json:"token_id"`
	SerialNumber     int64  `json:"serial_number"`
	Metadata         string `json:"metadata"`
	Deleted          bool   `json:"deleted"`
	CreatedTimestamp string `json:"created_timestamp"`
}

type Transaction struct {
	ChargedTxFee       int64           `json:"charged_tx_fee"`
	ConsensusTimestamp string          `json:"consensus_timestamp"`
	EntityID           *string         `json:"entity_id"`
	MaxFee             string          `json:"max_fee"`
	MemoBase64         string          `json:"memo_base64"`
	Name               string          `json:"name"`
	Node               string          `json:"node"`
	Result             string          `json:"result"`
	TransactionID      string          `json:"transaction_id"`
	Transfers          []Transfer      `json:"transfers"`
	TokenTransfers     []TokenTransfer `json:"token_transfers"`
	NftTransfers       []NftTransfer   `json:"nft_transfers"`
}

type Transfer struct {
	Account    string `json:"account"`
	Amount     int64  `json:"amount"`
	IsApproval bool   `json:"is_approval"`
}

type TokenTransfer struct {
	TokenID    string `json:"token_id"`
	Account    string `json:"account"`
	Amount     int64  `json:"amount"`
	IsApproval bool   `json:"is_approval"`
}

type NftTransfer struct {
	TokenID           string `json:"token_id"`
	SerialNumber      int64  `json:"serial_number"`
	SenderAccountID   string `json:"sender_account_id"`
	ReceiverAccountID string `json:"receiver_account_id"`
	IsApproval        bool   `json:"is_approval"`
}

type transactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
	Links        struct {
		Next string `json:"next"`
	} `json:"links"`
}
