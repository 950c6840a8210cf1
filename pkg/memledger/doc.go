// Package memledger is an in-memory implementation of ledger.Ledger.
//
// It backs the workflow tests and the CLI sandbox mode. Accounts, tokens,
// associations, NFT ownership and contract storage live in process memory
// and the network's acceptance rules are applied with the same status codes:
// missing signatures, unassociated receivers, insufficient balances, max
// supply, non-zero-sum transfers and gas minimums all fail the transaction.
// Contracts are emulated through a ContractFactory rather than executed.
package memledger
