// Ledger Workflows for Go runs end-to-end Hedera transaction workflows: an
// NFT collection mint and transfer, a fungible token issue and transfer, and
// a smart contract deploy, update and read-back.
//
// # Packages
//
//   - pkg/workflow: the three workflows and the step runner behind them
//   - pkg/ledger: the ledger interface, request types and error model
//   - pkg/hederaledger: the ledger backed by a Hedera network via the Go SDK
//   - pkg/memledger: an in-memory ledger for tests and sandbox runs
//   - pkg/contract: compiled artifact loading and ABI encoding
//   - pkg/mirror: a mirror node REST client
//   - pkg/shared: network and operator configuration
//
// # Command line
//
//	go run ./cmd/ledger-workflows nft --network testnet
//	go run ./cmd/ledger-workflows fungible --sandbox
//	go run ./cmd/ledger-workflows contract --artifact HelloHedera.json
//
// # Installation
//
//	go get github.com/hashgraph-online/ledger-workflows-go@latest
package ledger_workflows_go
