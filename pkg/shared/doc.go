// Package shared provides the operator configuration used by every ledger
// workflow: network normalization, operator credential loading from the
// environment or a .env file, Hedera client construction with default fee
// ceilings, and private key parsing.
//
// # Environment Variables
//
// Operator credentials are resolved from HEDERA_ACCOUNT_ID / HEDERA_PRIVATE_KEY,
// with MY_ACCOUNT_ID / MY_PRIVATE_KEY, OPERATOR_ID / OPERATOR_KEY and the
// network-scoped TESTNET_* and MAINNET_* variants accepted as well. The
// network is read from HEDERA_NETWORK and defaults to testnet. Missing
// credentials produce a *ConfigError before any network call is made.
package shared
