// Package ledger defines the capability set the workflows run against:
// accounts, tokens, transfers, balance queries and smart contracts.
//
// Requests are plain structs validated before submission. Every mutating
// call resolves to a Receipt; callers check it with RequireSuccess before any
// dependent step runs. Two implementations exist: hederaledger, backed by the
// Hedera Go SDK, and memledger, an in-memory ledger for tests and dry runs.
package ledger
